package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/platform/logger"
	"github.com/sortlab/sortlab-api/internal/store"
)

// PostgresInsightStore implements the store.InsightStore interface using a
// PostgreSQL database as the storage backend.
type PostgresInsightStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresInsightStore creates a new PostgreSQL implementation of the
// InsightStore interface. If log is nil, the default logger is used.
func NewPostgresInsightStore(db store.DBTX, log *slog.Logger) *PostgresInsightStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresInsightStore{
		db:     db,
		logger: log.With(slog.String("component", "insight_store")),
	}
}

var _ store.InsightStore = (*PostgresInsightStore)(nil)

// Create implements store.InsightStore.Create.
// Returns store.ErrInvalidEntity when the study does not exist.
func (s *PostgresInsightStore) Create(ctx context.Context, insight *domain.Insight) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := insight.Validate(); err != nil {
		log.Warn("insight validation failed during create",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return err
	}

	query := `
		INSERT INTO insights (id, study_id, summary, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		insight.ID, insight.StudyID, insight.Summary, insight.Status,
		insight.CreatedAt, insight.UpdatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during insight creation",
				slog.String("insight_id", insight.ID.String()),
				slog.String("study_id", insight.StudyID.String()))
			return fmt.Errorf("%w: study with ID %s not found",
				store.ErrInvalidEntity, insight.StudyID)
		}
		log.Error("failed to create insight",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return MapError(err)
	}

	log.Info("insight created successfully",
		slog.String("insight_id", insight.ID.String()),
		slog.String("study_id", insight.StudyID.String()))
	return nil
}

// GetByID implements store.InsightStore.GetByID.
// Returns store.ErrInsightNotFound if the insight does not exist.
func (s *PostgresInsightStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, study_id, summary, status, created_at, updated_at
		FROM insights
		WHERE id = $1
	`

	insight, err := scanInsight(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("insight not found", slog.String("insight_id", id.String()))
			return nil, store.ErrInsightNotFound
		}
		log.Error("failed to get insight by ID",
			slog.String("error", err.Error()),
			slog.String("insight_id", id.String()))
		return nil, MapError(err)
	}

	return insight, nil
}

// GetLatestByStudy implements store.InsightStore.GetLatestByStudy.
// Returns store.ErrInsightNotFound when the study has no insights.
func (s *PostgresInsightStore) GetLatestByStudy(ctx context.Context, studyID uuid.UUID) (*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, study_id, summary, status, created_at, updated_at
		FROM insights
		WHERE study_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	insight, err := scanInsight(s.db.QueryRowContext(ctx, query, studyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no insight for study", slog.String("study_id", studyID.String()))
			return nil, store.ErrInsightNotFound
		}
		log.Error("failed to get latest insight by study",
			slog.String("error", err.Error()),
			slog.String("study_id", studyID.String()))
		return nil, MapError(err)
	}

	return insight, nil
}

// Update implements store.InsightStore.Update.
// Returns store.ErrInsightNotFound if the insight does not exist.
func (s *PostgresInsightStore) Update(ctx context.Context, insight *domain.Insight) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := insight.Validate(); err != nil {
		log.Warn("insight validation failed during update",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return err
	}

	insight.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE insights
		SET summary = $1, status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		insight.Summary, insight.Status, insight.UpdatedAt, insight.ID)
	if err != nil {
		log.Error("failed to update insight",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrInsightNotFound); err != nil {
		return err
	}

	log.Info("insight updated successfully",
		slog.String("insight_id", insight.ID.String()),
		slog.String("status", string(insight.Status)))
	return nil
}

// WithTx implements store.InsightStore.WithTx.
func (s *PostgresInsightStore) WithTx(tx *sql.Tx) store.InsightStore {
	return &PostgresInsightStore{db: tx, logger: s.logger}
}

func scanInsight(row rowScanner) (*domain.Insight, error) {
	var insight domain.Insight
	var status string

	err := row.Scan(
		&insight.ID, &insight.StudyID, &insight.Summary, &status,
		&insight.CreatedAt, &insight.UpdatedAt)
	if err != nil {
		return nil, err
	}

	insight.Status = domain.InsightStatus(status)
	return &insight, nil
}
