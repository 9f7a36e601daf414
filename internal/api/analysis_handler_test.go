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
)

func newAnalysisRouter(svc service.StudyService, userID uuid.UUID) http.Handler {
	handler := NewAnalysisHandler(service.NewAnalysisService(svc, nil), nil)

	r := chi.NewRouter()
	r.Use(withUser(userID))
	r.Get("/api/studies/{id}/analysis", handler.GetReport)
	r.Get("/api/studies/{id}/analysis/similarity", handler.GetSimilarity)
	r.Get("/api/studies/{id}/analysis/dendrogram", handler.GetDendrogram)
	r.Get("/api/studies/{id}/analysis/frequency", handler.GetFrequency)
	r.Get("/api/studies/{id}/analysis/agreement", handler.GetAgreement)
	r.Get("/api/studies/{id}/analysis/statistics", handler.GetStatistics)
	r.Get("/api/studies/{id}/analysis/quality", handler.GetQuality)
	return r
}

// seedAnalysisStudy creates an active study with two identical participant
// sorts so agreement comes out perfect.
func seedAnalysisStudy(t *testing.T, svc *fakeStudyService, userID uuid.UUID) *domain.Study {
	t.Helper()

	study, err := svc.CreateStudy(context.Background(), userID, "Grocery navigation", "",
		[]domain.CardRef{{ID: 1, Text: "Apple"}, {ID: 2, Text: "Banana"}, {ID: 3, Text: "Carrot"}},
		[]string{"Fruit", "Vegetable"})
	require.NoError(t, err)
	study.Status = domain.StudyStatusActive

	placements := []domain.CategoryPlacement{
		{CategoryID: 1, CategoryName: "Fruit", Cards: []domain.CardRef{{ID: 1, Text: "Apple"}, {ID: 2, Text: "Banana"}}},
		{CategoryID: 2, CategoryName: "Vegetable", Cards: []domain.CardRef{{ID: 3, Text: "Carrot"}}},
	}
	for _, participant := range []string{"p1", "p2"} {
		_, err := svc.SubmitResult(context.Background(), study.ID, participant, placements)
		require.NoError(t, err)
	}
	return study
}

func TestAnalysisHandlerGetReport(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newFakeStudyService()
	study := seedAnalysisStudy(t, svc, userID)
	router := newAnalysisRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+study.ID.String()+"/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	for _, key := range []string{
		"total_participants", "universe", "similarities", "similarity_matrix",
		"dendrogram", "category_frequencies", "popular_placements",
		"agreement", "kappa", "validation", "outliers",
	} {
		assert.Contains(t, report, key)
	}

	var participants int
	require.NoError(t, json.Unmarshal(report["total_participants"], &participants))
	assert.Equal(t, 2, participants)
}

func TestAnalysisHandlerGetReportNotOwned(t *testing.T) {
	t.Parallel()

	svc := newFakeStudyService()
	study := seedAnalysisStudy(t, svc, uuid.New())
	router := newAnalysisRouter(svc, uuid.New())

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+study.ID.String()+"/analysis", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnalysisHandlerSimilaritySlice(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newFakeStudyService()
	study := seedAnalysisStudy(t, svc, userID)
	router := newAnalysisRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+study.ID.String()+"/analysis/similarity", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cards  []domain.CardRef `json:"cards"`
		Matrix [][]float64      `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Cards, 3)
	require.Len(t, resp.Matrix, 3)

	// Both participants grouped apple with banana every time.
	assert.InDelta(t, 1.0, resp.Matrix[0][1], 1e-9)
	assert.InDelta(t, 0.0, resp.Matrix[0][2], 1e-9)
}

func TestAnalysisHandlerAgreementSlice(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newFakeStudyService()
	study := seedAnalysisStudy(t, svc, userID)
	router := newAnalysisRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+study.ID.String()+"/analysis/agreement", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Agreement struct {
			OverallAgreement float64 `json:"overall_agreement"`
		} `json:"agreement"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 1.0, resp.Agreement.OverallAgreement, 1e-9)
}

func TestAnalysisHandlerStatisticsSlice(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newFakeStudyService()
	study := seedAnalysisStudy(t, svc, userID)
	router := newAnalysisRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+study.ID.String()+"/analysis/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Kappa struct {
			Kappa float64 `json:"kappa"`
		} `json:"kappa"`
		AgreementInterval struct {
			Lower float64 `json:"lower"`
			Upper float64 `json:"upper"`
		} `json:"agreement_confidence_interval"`
		Significance struct {
			ChiSquare        float64 `json:"chi_square"`
			IsSignificant    bool    `json:"is_significant"`
			DegreesOfFreedom int     `json:"degrees_of_freedom"`
		} `json:"significance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Two identical sorts agree perfectly, so the interval collapses to [1,1].
	assert.InDelta(t, 1.0, resp.Kappa.Kappa, 1e-9)
	assert.InDelta(t, 1.0, resp.AgreementInterval.Lower, 1e-9)
	assert.InDelta(t, 1.0, resp.AgreementInterval.Upper, 1e-9)

	// The 2x3 category-by-card table {{2,2,0},{0,0,2}} gives chi-square 6
	// with 2 degrees of freedom.
	assert.Equal(t, 2, resp.Significance.DegreesOfFreedom)
	assert.InDelta(t, 6.0, resp.Significance.ChiSquare, 1e-6)
	assert.True(t, resp.Significance.IsSignificant)
}

func TestAnalysisHandlerQualitySlice(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newFakeStudyService()
	study := seedAnalysisStudy(t, svc, userID)
	router := newAnalysisRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+study.ID.String()+"/analysis/quality", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "validation")
	assert.Contains(t, resp, "outliers")
}

func TestAnalysisHandlerEmptyStudy(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newFakeStudyService()
	study, err := svc.CreateStudy(context.Background(), userID, "Empty", "",
		[]domain.CardRef{{ID: 1, Text: "Apple"}}, nil)
	require.NoError(t, err)
	router := newAnalysisRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/api/studies/"+study.ID.String()+"/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		TotalParticipants int `json:"total_participants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 0, report.TotalParticipants)
}
