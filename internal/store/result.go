package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
)

// ResultStore defines the interface for card-sort result persistence.
// Results are immutable once stored; there is deliberately no Update.
type ResultStore interface {
	// Create saves a new result. It validates the domain CardSortResult
	// internally.
	// Returns ErrDuplicateParticipant if the participant already submitted a
	// result for the study.
	Create(ctx context.Context, result *domain.CardSortResult) error

	// GetByID retrieves a result by ID.
	// Returns ErrResultNotFound if the result does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CardSortResult, error)

	// FindByStudy retrieves all results for a study in submission order.
	// Submission order matters: the analytics engine derives its card
	// universe from the first result. Returns an empty slice when the study
	// has no results.
	FindByStudy(ctx context.Context, studyID uuid.UUID) ([]*domain.CardSortResult, error)

	// CountByStudy returns the number of results submitted for a study.
	CountByStudy(ctx context.Context, studyID uuid.UUID) (int, error)

	// Delete removes a result by ID.
	// Returns ErrResultNotFound if the result does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a ResultStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ResultStore
}
