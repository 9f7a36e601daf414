package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sortlab/sortlab-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    error
		expected error
	}{
		{
			name:     "nil passes through",
			input:    nil,
			expected: nil,
		},
		{
			name:     "no rows maps to not found",
			input:    sql.ErrNoRows,
			expected: store.ErrNotFound,
		},
		{
			name:     "unique violation maps to duplicate",
			input:    &pgconn.PgError{Code: uniqueViolationCode},
			expected: store.ErrDuplicate,
		},
		{
			name:     "foreign key violation maps to invalid entity",
			input:    &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "results_study_id_fkey"},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "check violation maps to invalid entity",
			input:    &pgconn.PgError{Code: checkViolationCode},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "not null violation maps to invalid entity",
			input:    &pgconn.PgError{Code: notNullViolationCode, ColumnName: "title"},
			expected: store.ErrInvalidEntity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tc.input)
			if tc.expected == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.expected)
		})
	}
}

func TestMapErrorPassesThroughUnknownErrors(t *testing.T) {
	t.Parallel()

	unknown := errors.New("connection refused")
	assert.Equal(t, unknown, MapError(unknown))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: uniqueViolationCode})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	uniqueErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_email_key"}

	mapped := MapUniqueViolation(uniqueErr, store.ErrEmailExists)
	assert.ErrorIs(t, mapped, store.ErrEmailExists)

	generic := MapUniqueViolation(uniqueErr, nil)
	assert.ErrorIs(t, generic, store.ErrDuplicate)

	other := errors.New("not a violation")
	assert.Equal(t, other, MapUniqueViolation(other, store.ErrEmailExists))
}

// fakeResult implements sql.Result for CheckRowsAffected tests.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrStudyNotFound))

	err := CheckRowsAffected(fakeResult{rows: 0}, store.ErrStudyNotFound)
	assert.ErrorIs(t, err, store.ErrStudyNotFound)

	err = CheckRowsAffected(fakeResult{rows: 0}, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = CheckRowsAffected(fakeResult{err: errors.New("driver lost count")}, nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	assert.Error(t, CheckRowsAffected(nil, nil))
}
