package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/events"
	"github.com/sortlab/sortlab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStudyStore serves studies from memory. Transactional paths are covered
// by the postgres store tests; these fakes only back the read-side logic.
type fakeStudyStore struct {
	studies map[uuid.UUID]*domain.Study
	byOwner []*domain.Study
}

func newFakeStudyStore(studies ...*domain.Study) *fakeStudyStore {
	s := &fakeStudyStore{studies: make(map[uuid.UUID]*domain.Study)}
	for _, study := range studies {
		s.studies[study.ID] = study
		s.byOwner = append(s.byOwner, study)
	}
	return s
}

func (s *fakeStudyStore) Create(_ context.Context, study *domain.Study) error {
	s.studies[study.ID] = study
	return nil
}

func (s *fakeStudyStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Study, error) {
	study, ok := s.studies[id]
	if !ok {
		return nil, store.ErrStudyNotFound
	}
	copied := *study
	return &copied, nil
}

func (s *fakeStudyStore) FindByOwner(_ context.Context, ownerID uuid.UUID, _, _ int) ([]*domain.Study, error) {
	var out []*domain.Study
	for _, study := range s.byOwner {
		if study.OwnerID == ownerID {
			out = append(out, study)
		}
	}
	return out, nil
}

func (s *fakeStudyStore) Update(_ context.Context, study *domain.Study) error {
	s.studies[study.ID] = study
	return nil
}

func (s *fakeStudyStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.StudyStatus) error {
	study, ok := s.studies[id]
	if !ok {
		return store.ErrStudyNotFound
	}
	study.Status = status
	return nil
}

func (s *fakeStudyStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.studies, id)
	return nil
}

func (s *fakeStudyStore) WithTx(_ *sql.Tx) store.StudyStore { return s }

type fakeResultStore struct {
	results []*domain.CardSortResult
}

func (s *fakeResultStore) Create(_ context.Context, result *domain.CardSortResult) error {
	s.results = append(s.results, result)
	return nil
}

func (s *fakeResultStore) GetByID(_ context.Context, id uuid.UUID) (*domain.CardSortResult, error) {
	for _, r := range s.results {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrResultNotFound
}

func (s *fakeResultStore) FindByStudy(_ context.Context, studyID uuid.UUID) ([]*domain.CardSortResult, error) {
	var out []*domain.CardSortResult
	for _, r := range s.results {
		if r.StudyID == studyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeResultStore) CountByStudy(ctx context.Context, studyID uuid.UUID) (int, error) {
	found, err := s.FindByStudy(ctx, studyID)
	return len(found), err
}

func (s *fakeResultStore) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (s *fakeResultStore) WithTx(_ *sql.Tx) store.ResultStore { return s }

type fakeInsightStore struct {
	insights map[uuid.UUID]*domain.Insight
	latest   map[uuid.UUID]*domain.Insight // keyed by study id
}

func newFakeInsightStore() *fakeInsightStore {
	return &fakeInsightStore{
		insights: make(map[uuid.UUID]*domain.Insight),
		latest:   make(map[uuid.UUID]*domain.Insight),
	}
}

func (s *fakeInsightStore) Create(_ context.Context, insight *domain.Insight) error {
	s.insights[insight.ID] = insight
	s.latest[insight.StudyID] = insight
	return nil
}

func (s *fakeInsightStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Insight, error) {
	insight, ok := s.insights[id]
	if !ok {
		return nil, store.ErrInsightNotFound
	}
	return insight, nil
}

func (s *fakeInsightStore) GetLatestByStudy(_ context.Context, studyID uuid.UUID) (*domain.Insight, error) {
	insight, ok := s.latest[studyID]
	if !ok {
		return nil, store.ErrInsightNotFound
	}
	return insight, nil
}

func (s *fakeInsightStore) Update(_ context.Context, insight *domain.Insight) error {
	s.insights[insight.ID] = insight
	return nil
}

func (s *fakeInsightStore) WithTx(_ *sql.Tx) store.InsightStore { return s }

func activeStudy(t *testing.T, ownerID uuid.UUID) *domain.Study {
	t.Helper()
	study, err := domain.NewStudy(ownerID, "Test study", "",
		[]domain.CardRef{{ID: 1, Text: "Home"}, {ID: 2, Text: "Search"}}, nil)
	require.NoError(t, err)
	study.Status = domain.StudyStatusActive
	return study
}

func newTestStudyService(t *testing.T, studies *fakeStudyStore, results *fakeResultStore) StudyService {
	t.Helper()
	// The *sql.DB is only touched on transactional paths, which these unit
	// tests avoid; a zero-value handle satisfies the constructor.
	svc, err := NewStudyService(&sql.DB{}, studies, results, newFakeInsightStore(),
		events.NewInMemoryEventEmitter(nil), nil)
	require.NoError(t, err)
	return svc
}

func TestNewStudyServiceValidation(t *testing.T) {
	t.Parallel()

	emitter := events.NewInMemoryEventEmitter(nil)

	_, err := NewStudyService(nil, newFakeStudyStore(), &fakeResultStore{}, newFakeInsightStore(), emitter, nil)
	assert.Error(t, err)

	_, err = NewStudyService(&sql.DB{}, nil, &fakeResultStore{}, newFakeInsightStore(), emitter, nil)
	assert.Error(t, err)

	_, err = NewStudyService(&sql.DB{}, newFakeStudyStore(), &fakeResultStore{}, newFakeInsightStore(), nil, nil)
	assert.Error(t, err)
}

func TestGetStudyForOwner(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	study := activeStudy(t, ownerID)
	svc := newTestStudyService(t, newFakeStudyStore(study), &fakeResultStore{})

	got, err := svc.GetStudyForOwner(context.Background(), study.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, study.ID, got.ID)

	_, err = svc.GetStudyForOwner(context.Background(), study.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwned)

	_, err = svc.GetStudyForOwner(context.Background(), uuid.New(), ownerID)
	assert.ErrorIs(t, err, store.ErrStudyNotFound)
}

func TestSubmitResultRejectsInactiveStudy(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	study := activeStudy(t, ownerID)
	study.Status = domain.StudyStatusDraft
	svc := newTestStudyService(t, newFakeStudyStore(study), &fakeResultStore{})

	_, err := svc.SubmitResult(context.Background(), study.ID, "p1", []domain.CategoryPlacement{
		{CategoryID: 1, CategoryName: "Top", Cards: []domain.CardRef{{ID: 1, Text: "Home"}}},
	})
	assert.ErrorIs(t, err, ErrStudyNotAcceptingResults)
}

func TestSubmitResultRejectsInvalidResult(t *testing.T) {
	t.Parallel()

	study := activeStudy(t, uuid.New())
	svc := newTestStudyService(t, newFakeStudyStore(study), &fakeResultStore{})

	// No placements at all is a domain validation failure.
	_, err := svc.SubmitResult(context.Background(), study.ID, "p1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResultNoPlacements)
}

func TestGetResultsPreservesSubmissionOrder(t *testing.T) {
	t.Parallel()

	study := activeStudy(t, uuid.New())
	resultStore := &fakeResultStore{}
	for _, pid := range []string{"p1", "p2", "p3"} {
		r, err := domain.NewCardSortResult(study.ID, pid, []domain.CategoryPlacement{
			{CategoryID: 1, CategoryName: "Top", Cards: []domain.CardRef{{ID: 1, Text: "Home"}}},
		})
		require.NoError(t, err)
		resultStore.results = append(resultStore.results, r)
	}

	svc := newTestStudyService(t, newFakeStudyStore(study), resultStore)

	results, err := svc.GetResults(context.Background(), study.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "p1", results[0].ParticipantID)
	assert.Equal(t, "p3", results[2].ParticipantID)
}

func TestGetResultsForOwnerChecksOwnership(t *testing.T) {
	t.Parallel()

	study := activeStudy(t, uuid.New())
	svc := newTestStudyService(t, newFakeStudyStore(study), &fakeResultStore{})

	_, err := svc.GetResultsForOwner(context.Background(), study.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestListStudiesFiltersByOwner(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	mine := activeStudy(t, ownerID)
	other := activeStudy(t, uuid.New())
	svc := newTestStudyService(t, newFakeStudyStore(mine, other), &fakeResultStore{})

	studies, err := svc.ListStudies(context.Background(), ownerID, 50, 0)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, mine.ID, studies[0].ID)
}
