package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain/analysis"
)

// AnalysisService computes analytics reports over a study's results. Reports
// are derived data and are recomputed on demand; nothing here is persisted.
type AnalysisService interface {
	// GetReport verifies ownership, loads the study's results, and runs the
	// full analytics pipeline over them.
	GetReport(ctx context.Context, studyID, ownerID uuid.UUID) (*analysis.Report, error)
}

type analysisServiceImpl struct {
	studies StudyService
	logger  *slog.Logger
}

var _ AnalysisService = (*analysisServiceImpl)(nil)

// NewAnalysisService creates an AnalysisService on top of the study service,
// which already implements ownership checks and result loading.
func NewAnalysisService(studies StudyService, logger *slog.Logger) AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &analysisServiceImpl{
		studies: studies,
		logger:  logger.With("component", "analysis_service"),
	}
}

func (s *analysisServiceImpl) GetReport(ctx context.Context, studyID, ownerID uuid.UUID) (*analysis.Report, error) {
	results, err := s.studies.GetResultsForOwner(ctx, studyID, ownerID)
	if err != nil {
		return nil, err
	}

	report := analysis.Analyze(results)

	s.logger.Debug("analysis report computed",
		"study_id", studyID,
		"participants", report.TotalParticipants,
		"universe_size", len(report.Universe))
	return report, nil
}
