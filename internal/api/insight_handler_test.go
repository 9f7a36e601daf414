package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/service"
	"github.com/sortlab/sortlab-api/internal/store"
)

type fakeInsightService struct {
	insights map[uuid.UUID]*domain.Insight // keyed by study ID
	ownerID  uuid.UUID
}

var _ service.InsightService = (*fakeInsightService)(nil)

func (s *fakeInsightService) GetInsight(_ context.Context, insightID uuid.UUID) (*domain.Insight, error) {
	for _, insight := range s.insights {
		if insight.ID == insightID {
			return insight, nil
		}
	}
	return nil, store.ErrInsightNotFound
}

func (s *fakeInsightService) UpdateInsight(_ context.Context, insight *domain.Insight) error {
	s.insights[insight.StudyID] = insight
	return nil
}

func (s *fakeInsightService) GetLatestForOwner(_ context.Context, studyID, ownerID uuid.UUID) (*domain.Insight, error) {
	if ownerID != s.ownerID {
		return nil, service.ErrNotOwned
	}
	insight, ok := s.insights[studyID]
	if !ok {
		return nil, store.ErrInsightNotFound
	}
	return insight, nil
}

func newInsightRouter(svc service.InsightService, userID uuid.UUID) http.Handler {
	handler := NewInsightHandler(svc, nil)

	r := chi.NewRouter()
	r.Use(withUser(userID))
	r.Get("/api/studies/{id}/insight", handler.GetInsight)
	return r
}

func TestInsightHandlerGet(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	studyID := uuid.New()
	insight, err := domain.NewInsight(studyID)
	require.NoError(t, err)
	insight.Complete("Participants grouped produce by type with near-perfect agreement.")

	svc := &fakeInsightService{
		insights: map[uuid.UUID]*domain.Insight{studyID: insight},
		ownerID:  ownerID,
	}
	router := newInsightRouter(svc, ownerID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+studyID.String()+"/insight", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Insight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.InsightStatusCompleted, got.Status)
	assert.NotEmpty(t, got.Summary)
}

func TestInsightHandlerGetPending(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	studyID := uuid.New()
	insight, err := domain.NewInsight(studyID)
	require.NoError(t, err)

	svc := &fakeInsightService{
		insights: map[uuid.UUID]*domain.Insight{studyID: insight},
		ownerID:  ownerID,
	}
	router := newInsightRouter(svc, ownerID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+studyID.String()+"/insight", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Insight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.InsightStatusPending, got.Status)
	assert.Empty(t, got.Summary)
}

func TestInsightHandlerGetNone(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	svc := &fakeInsightService{insights: map[uuid.UUID]*domain.Insight{}, ownerID: ownerID}
	router := newInsightRouter(svc, ownerID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+uuid.NewString()+"/insight", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsightHandlerGetNotOwned(t *testing.T) {
	t.Parallel()

	svc := &fakeInsightService{insights: map[uuid.UUID]*domain.Insight{}, ownerID: uuid.New()}
	router := newInsightRouter(svc, uuid.New())

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+uuid.NewString()+"/insight", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
