package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
)

// InsightStore defines the interface for insight persistence.
type InsightStore interface {
	// Create saves a new insight. It validates the domain Insight internally.
	Create(ctx context.Context, insight *domain.Insight) error

	// GetByID retrieves an insight by ID.
	// Returns ErrInsightNotFound if the insight does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Insight, error)

	// GetLatestByStudy retrieves the most recently created insight for a
	// study. Returns ErrInsightNotFound when the study has none.
	GetLatestByStudy(ctx context.Context, studyID uuid.UUID) (*domain.Insight, error)

	// Update saves changes to an existing insight, typically a status
	// transition with the generated summary.
	// Returns ErrInsightNotFound if the insight does not exist.
	Update(ctx context.Context, insight *domain.Insight) error

	// WithTx returns an InsightStore bound to the provided transaction.
	WithTx(tx *sql.Tx) InsightStore
}
