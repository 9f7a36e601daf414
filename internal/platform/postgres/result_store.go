package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/platform/logger"
	"github.com/sortlab/sortlab-api/internal/store"
)

// PostgresResultStore implements the store.ResultStore interface using a
// PostgreSQL database as the storage backend. A participant's placements are
// stored as one JSONB document per result; the analytics engine consumes
// results whole, so there is nothing to gain from normalizing placements into
// rows.
type PostgresResultStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresResultStore creates a new PostgreSQL implementation of the
// ResultStore interface. If log is nil, the default logger is used.
func NewPostgresResultStore(db store.DBTX, log *slog.Logger) *PostgresResultStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresResultStore{
		db:     db,
		logger: log.With(slog.String("component", "result_store")),
	}
}

var _ store.ResultStore = (*PostgresResultStore)(nil)

// Create implements store.ResultStore.Create.
// Returns store.ErrDuplicateParticipant when the participant already
// submitted a result for the study, and store.ErrInvalidEntity when the study
// does not exist.
func (s *PostgresResultStore) Create(ctx context.Context, result *domain.CardSortResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := result.Validate(); err != nil {
		log.Warn("result validation failed during create",
			slog.String("error", err.Error()),
			slog.String("result_id", result.ID.String()))
		return err
	}

	placements, err := json.Marshal(result.Placements)
	if err != nil {
		return fmt.Errorf("failed to marshal result placements: %w", err)
	}

	query := `
		INSERT INTO results (id, study_id, participant_id, placements, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		result.ID, result.StudyID, result.ParticipantID, placements, result.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("participant already submitted a result",
				slog.String("study_id", result.StudyID.String()))
			return MapUniqueViolation(err, store.ErrDuplicateParticipant)
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during result creation",
				slog.String("result_id", result.ID.String()),
				slog.String("study_id", result.StudyID.String()))
			return fmt.Errorf("%w: study with ID %s not found",
				store.ErrInvalidEntity, result.StudyID)
		}
		log.Error("failed to create result",
			slog.String("error", err.Error()),
			slog.String("result_id", result.ID.String()))
		return MapError(err)
	}

	log.Info("result created successfully",
		slog.String("result_id", result.ID.String()),
		slog.String("study_id", result.StudyID.String()))
	return nil
}

// GetByID implements store.ResultStore.GetByID.
// Returns store.ErrResultNotFound if the result does not exist.
func (s *PostgresResultStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.CardSortResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, study_id, participant_id, placements, created_at
		FROM results
		WHERE id = $1
	`

	result, err := scanResult(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("result not found", slog.String("result_id", id.String()))
			return nil, store.ErrResultNotFound
		}
		log.Error("failed to get result by ID",
			slog.String("error", err.Error()),
			slog.String("result_id", id.String()))
		return nil, MapError(err)
	}

	return result, nil
}

// FindByStudy implements store.ResultStore.FindByStudy. Rows come back in
// submission order; the id tiebreak keeps ordering stable for results created
// in the same instant.
func (s *PostgresResultStore) FindByStudy(ctx context.Context, studyID uuid.UUID) ([]*domain.CardSortResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, study_id, participant_id, placements, created_at
		FROM results
		WHERE study_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, studyID)
	if err != nil {
		log.Error("failed to query results by study",
			slog.String("error", err.Error()),
			slog.String("study_id", studyID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	results := []*domain.CardSortResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			log.Error("failed to scan result row",
				slog.String("error", err.Error()))
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning result rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return results, nil
}

// CountByStudy implements store.ResultStore.CountByStudy.
func (s *PostgresResultStore) CountByStudy(ctx context.Context, studyID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM results WHERE study_id = $1`, studyID).Scan(&count)
	if err != nil {
		log.Error("failed to count results by study",
			slog.String("error", err.Error()),
			slog.String("study_id", studyID.String()))
		return 0, MapError(err)
	}

	return count, nil
}

// Delete implements store.ResultStore.Delete.
// Returns store.ErrResultNotFound if the result does not exist.
func (s *PostgresResultStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete result",
			slog.String("error", err.Error()),
			slog.String("result_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrResultNotFound); err != nil {
		return err
	}

	log.Info("result deleted successfully",
		slog.String("result_id", id.String()))
	return nil
}

// WithTx implements store.ResultStore.WithTx.
func (s *PostgresResultStore) WithTx(tx *sql.Tx) store.ResultStore {
	return &PostgresResultStore{db: tx, logger: s.logger}
}

func scanResult(row rowScanner) (*domain.CardSortResult, error) {
	var result domain.CardSortResult
	var placements []byte

	err := row.Scan(
		&result.ID, &result.StudyID, &result.ParticipantID, &placements, &result.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(placements, &result.Placements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result placements: %w", err)
	}

	return &result, nil
}
