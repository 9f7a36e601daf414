package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/store"
	"github.com/sortlab/sortlab-api/internal/task"
)

// InsightService provides access to generated insights. The write half of
// the interface is consumed by the insight generation task; the read half by
// the API layer.
type InsightService interface {
	// GetInsight retrieves an insight by its ID.
	GetInsight(ctx context.Context, insightID uuid.UUID) (*domain.Insight, error)

	// UpdateInsight persists a status transition and summary.
	UpdateInsight(ctx context.Context, insight *domain.Insight) error

	// GetLatestForOwner retrieves the most recent insight for a study after
	// verifying the researcher owns it.
	GetLatestForOwner(ctx context.Context, studyID, ownerID uuid.UUID) (*domain.Insight, error)
}

type insightServiceImpl struct {
	db           *sql.DB
	insightStore store.InsightStore
	studies      StudyService
	logger       *slog.Logger
}

var _ InsightService = (*insightServiceImpl)(nil)
var _ task.InsightService = (InsightService)(nil)

// NewInsightService creates an InsightService.
func NewInsightService(
	db *sql.DB,
	insightStore store.InsightStore,
	studies StudyService,
	logger *slog.Logger,
) InsightService {
	if logger == nil {
		logger = slog.Default()
	}
	return &insightServiceImpl{
		db:           db,
		insightStore: insightStore,
		studies:      studies,
		logger:       logger.With("component", "insight_service"),
	}
}

func (s *insightServiceImpl) GetInsight(ctx context.Context, insightID uuid.UUID) (*domain.Insight, error) {
	insight, err := s.insightStore.GetByID(ctx, insightID)
	if err != nil {
		s.logger.Error("failed to retrieve insight",
			"error", err,
			"insight_id", insightID)
		return nil, err
	}
	return insight, nil
}

func (s *insightServiceImpl) UpdateInsight(ctx context.Context, insight *domain.Insight) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.insightStore.WithTx(tx).Update(ctx, insight)
	})
	if err != nil {
		s.logger.Error("failed to update insight",
			"error", err,
			"insight_id", insight.ID)
		return err
	}

	s.logger.Info("insight updated",
		"insight_id", insight.ID,
		"status", insight.Status)
	return nil
}

func (s *insightServiceImpl) GetLatestForOwner(ctx context.Context, studyID, ownerID uuid.UUID) (*domain.Insight, error) {
	if _, err := s.studies.GetStudyForOwner(ctx, studyID, ownerID); err != nil {
		return nil, err
	}

	insight, err := s.insightStore.GetLatestByStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	return insight, nil
}
