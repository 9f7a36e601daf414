package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/events"
	"github.com/sortlab/sortlab-api/internal/store"
	"github.com/sortlab/sortlab-api/internal/task"
)

// minResultsForInsight is how many results a study needs before an insight
// generation request is emitted. The agreement and kappa statistics are
// meaningless below two participants.
const minResultsForInsight = 2

// StudyService provides study lifecycle and result submission operations.
type StudyService interface {
	// CreateStudy creates a draft study owned by the given researcher.
	CreateStudy(ctx context.Context, ownerID uuid.UUID, title, description string,
		cards []domain.CardRef, categories []string) (*domain.Study, error)

	// GetStudy retrieves a study by ID with no ownership check. Intended for
	// internal callers such as background tasks.
	GetStudy(ctx context.Context, studyID uuid.UUID) (*domain.Study, error)

	// GetStudyForOwner retrieves a study and verifies ownership.
	// Returns ErrNotOwned when the study belongs to another researcher.
	GetStudyForOwner(ctx context.Context, studyID, ownerID uuid.UUID) (*domain.Study, error)

	// ListStudies retrieves the researcher's studies, newest first.
	ListStudies(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Study, error)

	// UpdateStudy replaces the study's editable fields. The deck and
	// categories can only change while the study is in draft.
	UpdateStudy(ctx context.Context, studyID, ownerID uuid.UUID, title, description string,
		cards []domain.CardRef, categories []string) (*domain.Study, error)

	// UpdateStudyStatus transitions the study lifecycle. Allowed moves are
	// draft to active, draft to closed, and active to closed.
	UpdateStudyStatus(ctx context.Context, studyID, ownerID uuid.UUID, status domain.StudyStatus) (*domain.Study, error)

	// DeleteStudy removes a study and its dependent rows.
	DeleteStudy(ctx context.Context, studyID, ownerID uuid.UUID) error

	// SubmitResult records one participant's completed sort. Once the study
	// has enough results an insight generation request is emitted; a failure
	// there is logged but does not fail the submission.
	SubmitResult(ctx context.Context, studyID uuid.UUID, participantID string,
		placements []domain.CategoryPlacement) (*domain.CardSortResult, error)

	// GetResults retrieves all results for a study in submission order.
	GetResults(ctx context.Context, studyID uuid.UUID) ([]domain.CardSortResult, error)

	// GetResultsForOwner retrieves a study's results after verifying the
	// researcher owns the study.
	GetResultsForOwner(ctx context.Context, studyID, ownerID uuid.UUID) ([]domain.CardSortResult, error)
}

// StudyServiceError wraps unexpected errors from the study service with the
// failing operation for context.
type StudyServiceError struct {
	Operation string
	Message   string
	Err       error
}

func (e *StudyServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("study service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("study service %s failed: %s", e.Operation, e.Message)
}

func (e *StudyServiceError) Unwrap() error {
	return e.Err
}

// newStudyServiceError wraps err unless it is a sentinel the caller should
// see unchanged.
func newStudyServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		store.ErrStudyNotFound,
		store.ErrResultNotFound,
		store.ErrDuplicateParticipant,
		ErrNotOwned,
		ErrStudyNotEditable,
		ErrInvalidStatusTransition,
		ErrStudyNotAcceptingResults,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return &StudyServiceError{Operation: operation, Message: message, Err: err}
}

// allowedTransitions lists the legal study lifecycle moves.
var allowedTransitions = map[domain.StudyStatus][]domain.StudyStatus{
	domain.StudyStatusDraft:  {domain.StudyStatusActive, domain.StudyStatusClosed},
	domain.StudyStatusActive: {domain.StudyStatusClosed},
	domain.StudyStatusClosed: {},
}

type studyServiceImpl struct {
	db           *sql.DB
	studyStore   store.StudyStore
	resultStore  store.ResultStore
	insightStore store.InsightStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

var _ StudyService = (*studyServiceImpl)(nil)

// The background task consumes the same service through its own interface.
var _ task.StudyService = (StudyService)(nil)

// NewStudyService creates a StudyService. All dependencies are required
// except the logger, which falls back to slog.Default.
func NewStudyService(
	db *sql.DB,
	studyStore store.StudyStore,
	resultStore store.ResultStore,
	insightStore store.InsightStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (StudyService, error) {
	if db == nil {
		return nil, &StudyServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if studyStore == nil {
		return nil, &StudyServiceError{Operation: "create_service", Message: "studyStore cannot be nil"}
	}
	if resultStore == nil {
		return nil, &StudyServiceError{Operation: "create_service", Message: "resultStore cannot be nil"}
	}
	if insightStore == nil {
		return nil, &StudyServiceError{Operation: "create_service", Message: "insightStore cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &StudyServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		db:           db,
		studyStore:   studyStore,
		resultStore:  resultStore,
		insightStore: insightStore,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "study_service"),
	}, nil
}

func (s *studyServiceImpl) CreateStudy(
	ctx context.Context,
	ownerID uuid.UUID,
	title, description string,
	cards []domain.CardRef,
	categories []string,
) (*domain.Study, error) {
	study, err := domain.NewStudy(ownerID, title, description, cards, categories)
	if err != nil {
		return nil, newStudyServiceError("create_study", "invalid study", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.studyStore.WithTx(tx).Create(ctx, study)
	})
	if err != nil {
		s.logger.Error("failed to create study",
			"error", err,
			"owner_id", ownerID)
		return nil, newStudyServiceError("create_study", "failed to save study", err)
	}

	s.logger.Info("study created",
		"study_id", study.ID,
		"owner_id", ownerID,
		"card_count", len(cards))
	return study, nil
}

func (s *studyServiceImpl) GetStudy(ctx context.Context, studyID uuid.UUID) (*domain.Study, error) {
	study, err := s.studyStore.GetByID(ctx, studyID)
	if err != nil {
		return nil, newStudyServiceError("get_study", "failed to retrieve study", err)
	}
	return study, nil
}

func (s *studyServiceImpl) GetStudyForOwner(ctx context.Context, studyID, ownerID uuid.UUID) (*domain.Study, error) {
	study, err := s.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if study.OwnerID != ownerID {
		s.logger.Warn("ownership check failed",
			"study_id", studyID,
			"owner_id", study.OwnerID,
			"requester_id", ownerID)
		return nil, ErrNotOwned
	}
	return study, nil
}

func (s *studyServiceImpl) ListStudies(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Study, error) {
	studies, err := s.studyStore.FindByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, newStudyServiceError("list_studies", "failed to list studies", err)
	}
	return studies, nil
}

func (s *studyServiceImpl) UpdateStudy(
	ctx context.Context,
	studyID, ownerID uuid.UUID,
	title, description string,
	cards []domain.CardRef,
	categories []string,
) (*domain.Study, error) {
	var updated *domain.Study

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.studyStore.WithTx(tx)

		study, err := txStore.GetByID(ctx, studyID)
		if err != nil {
			return err
		}
		if study.OwnerID != ownerID {
			return ErrNotOwned
		}

		deckChanged := len(cards) > 0 || len(categories) > 0
		if deckChanged && study.Status != domain.StudyStatusDraft {
			return ErrStudyNotEditable
		}

		study.Title = title
		study.Description = description
		if len(cards) > 0 {
			study.Cards = cards
		}
		if deckChanged {
			study.Categories = categories
		}

		if err := txStore.Update(ctx, study); err != nil {
			return err
		}

		updated = study
		return nil
	})
	if err != nil {
		return nil, newStudyServiceError("update_study", "failed to update study", err)
	}

	s.logger.Info("study updated", "study_id", studyID)
	return updated, nil
}

func (s *studyServiceImpl) UpdateStudyStatus(
	ctx context.Context,
	studyID, ownerID uuid.UUID,
	status domain.StudyStatus,
) (*domain.Study, error) {
	var updated *domain.Study

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.studyStore.WithTx(tx)

		study, err := txStore.GetByID(ctx, studyID)
		if err != nil {
			return err
		}
		if study.OwnerID != ownerID {
			return ErrNotOwned
		}

		allowed := false
		for _, next := range allowedTransitions[study.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, study.Status, status)
		}

		if err := txStore.UpdateStatus(ctx, studyID, status); err != nil {
			return err
		}

		study.Status = status
		updated = study
		return nil
	})
	if err != nil {
		return nil, newStudyServiceError("update_study_status", "failed to update study status", err)
	}

	s.logger.Info("study status updated",
		"study_id", studyID,
		"status", status)
	return updated, nil
}

func (s *studyServiceImpl) DeleteStudy(ctx context.Context, studyID, ownerID uuid.UUID) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.studyStore.WithTx(tx)

		study, err := txStore.GetByID(ctx, studyID)
		if err != nil {
			return err
		}
		if study.OwnerID != ownerID {
			return ErrNotOwned
		}

		return txStore.Delete(ctx, studyID)
	})
	if err != nil {
		return newStudyServiceError("delete_study", "failed to delete study", err)
	}

	s.logger.Info("study deleted", "study_id", studyID)
	return nil
}

func (s *studyServiceImpl) SubmitResult(
	ctx context.Context,
	studyID uuid.UUID,
	participantID string,
	placements []domain.CategoryPlacement,
) (*domain.CardSortResult, error) {
	study, err := s.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if !study.AcceptsResults() {
		return nil, fmt.Errorf("%w: study is %s", ErrStudyNotAcceptingResults, study.Status)
	}

	result, err := domain.NewCardSortResult(studyID, participantID, placements)
	if err != nil {
		return nil, newStudyServiceError("submit_result", "invalid result", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.resultStore.WithTx(tx).Create(ctx, result)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateParticipant) {
			s.logger.Debug("duplicate participant submission",
				"study_id", studyID,
				"participant_id", participantID)
		} else {
			s.logger.Error("failed to save result",
				"error", err,
				"study_id", studyID)
		}
		return nil, newStudyServiceError("submit_result", "failed to save result", err)
	}

	s.logger.Info("result submitted",
		"study_id", studyID,
		"result_id", result.ID,
		"participant_id", participantID)

	// Insight generation is best effort: the submission already succeeded.
	if err := s.maybeRequestInsight(ctx, studyID); err != nil {
		s.logger.Warn("failed to request insight generation",
			"error", err,
			"study_id", studyID)
	}

	return result, nil
}

// maybeRequestInsight creates a pending insight and emits a generation
// request once the study has enough results for the statistics to mean
// anything.
func (s *studyServiceImpl) maybeRequestInsight(ctx context.Context, studyID uuid.UUID) error {
	count, err := s.resultStore.CountByStudy(ctx, studyID)
	if err != nil {
		return fmt.Errorf("failed to count results: %w", err)
	}
	if count < minResultsForInsight {
		return nil
	}

	insight, err := domain.NewInsight(studyID)
	if err != nil {
		return fmt.Errorf("failed to create insight: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.insightStore.WithTx(tx).Create(ctx, insight)
	})
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}

	payload := struct {
		InsightID uuid.UUID `json:"insight_id"`
	}{InsightID: insight.ID}

	event, err := events.NewTaskRequestEvent(task.TaskTypeInsightGeneration, payload)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to emit event: %w", err)
	}

	s.logger.Info("insight generation requested",
		"study_id", studyID,
		"insight_id", insight.ID,
		"result_count", count,
		"event_id", event.ID)
	return nil
}

func (s *studyServiceImpl) GetResults(ctx context.Context, studyID uuid.UUID) ([]domain.CardSortResult, error) {
	stored, err := s.resultStore.FindByStudy(ctx, studyID)
	if err != nil {
		return nil, newStudyServiceError("get_results", "failed to retrieve results", err)
	}

	results := make([]domain.CardSortResult, len(stored))
	for i, r := range stored {
		results[i] = *r
	}
	return results, nil
}

func (s *studyServiceImpl) GetResultsForOwner(ctx context.Context, studyID, ownerID uuid.UUID) ([]domain.CardSortResult, error) {
	if _, err := s.GetStudyForOwner(ctx, studyID, ownerID); err != nil {
		return nil, err
	}
	return s.GetResults(ctx, studyID)
}
