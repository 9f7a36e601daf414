package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
)

// StudyStore defines the interface for study persistence.
type StudyStore interface {
	// Create saves a new study. It validates the domain Study internally.
	Create(ctx context.Context, study *domain.Study) error

	// GetByID retrieves a study by ID.
	// Returns ErrStudyNotFound if the study does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error)

	// FindByOwner retrieves studies owned by the given researcher, newest
	// first. Returns an empty slice when none match.
	FindByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Study, error)

	// Update saves changes to an existing study.
	// Returns ErrStudyNotFound if the study does not exist.
	Update(ctx context.Context, study *domain.Study) error

	// UpdateStatus transitions the study's lifecycle status.
	// Returns ErrStudyNotFound if the study does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.StudyStatus) error

	// Delete removes a study and, via cascade, its results and insights.
	// Returns ErrStudyNotFound if the study does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a StudyStore bound to the provided transaction.
	WithTx(tx *sql.Tx) StudyStore
}
