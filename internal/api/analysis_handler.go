package api

import (
	"log/slog"
	"net/http"

	"github.com/sortlab/sortlab-api/internal/api/shared"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/domain/analysis"
	"github.com/sortlab/sortlab-api/internal/service"
)

// AnalysisHandler serves the analytics report and its per-concern slices.
// Reports are computed on demand from the study's stored results.
type AnalysisHandler struct {
	analysisService service.AnalysisService
	logger          *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		analysisService: analysisService,
		logger:          logger.With("component", "analysis_handler"),
	}
}

// getReport loads the full report for the requested study, handling auth,
// path parsing, and error mapping. Returns nil when a response has already
// been written.
func (h *AnalysisHandler) getReport(w http.ResponseWriter, r *http.Request) *analysis.Report {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return nil
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return nil
	}

	report, err := h.analysisService.GetReport(r.Context(), studyID, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return nil
	}
	return report
}

// GetReport handles GET /api/studies/{id}/analysis.
func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if report := h.getReport(w, r); report != nil {
		shared.RespondWithJSON(w, r, http.StatusOK, report)
	}
}

// GetSimilarity handles GET /api/studies/{id}/analysis/similarity.
func (h *AnalysisHandler) GetSimilarity(w http.ResponseWriter, r *http.Request) {
	report := h.getReport(w, r)
	if report == nil {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		Cards        []domain.CardRef          `json:"cards"`
		Similarities []analysis.SimilarityPair `json:"similarities"`
		Matrix       [][]float64               `json:"matrix"`
	}{
		Cards:        report.Universe,
		Similarities: report.Similarities,
		Matrix:       report.SimilarityMatrix,
	})
}

// GetDendrogram handles GET /api/studies/{id}/analysis/dendrogram.
func (h *AnalysisHandler) GetDendrogram(w http.ResponseWriter, r *http.Request) {
	report := h.getReport(w, r)
	if report == nil {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		Dendrogram *analysis.ClusterNode `json:"dendrogram"`
	}{Dendrogram: report.Dendrogram})
}

// GetFrequency handles GET /api/studies/{id}/analysis/frequency.
func (h *AnalysisHandler) GetFrequency(w http.ResponseWriter, r *http.Request) {
	report := h.getReport(w, r)
	if report == nil {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		CategoryFrequencies []analysis.CategoryFrequency  `json:"category_frequencies"`
		PopularPlacements   []analysis.PlacementFrequency `json:"popular_placements"`
	}{
		CategoryFrequencies: report.CategoryFrequencies,
		PopularPlacements:   report.PopularPlacements,
	})
}

// GetAgreement handles GET /api/studies/{id}/analysis/agreement.
func (h *AnalysisHandler) GetAgreement(w http.ResponseWriter, r *http.Request) {
	report := h.getReport(w, r)
	if report == nil {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		Agreement analysis.AgreementResult `json:"agreement"`
	}{Agreement: report.Agreement})
}

// GetStatistics handles GET /api/studies/{id}/analysis/statistics. Alongside
// the kappa bundle it reports a 95% confidence interval on overall agreement
// and a chi-square test over the category-by-card placement counts.
func (h *AnalysisHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	report := h.getReport(w, r)
	if report == nil {
		return
	}

	table := analysis.CategoryCardTable(report.CategoryFrequencies, report.Universe)

	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		Kappa             analysis.KappaResult        `json:"kappa"`
		AgreementInterval analysis.Interval           `json:"agreement_confidence_interval"`
		Significance      analysis.SignificanceResult `json:"significance"`
	}{
		Kappa:             report.Kappa,
		AgreementInterval: analysis.ConfidenceInterval(report.Agreement.OverallAgreement, report.TotalParticipants, 0.95),
		Significance:      analysis.Significance(table, 0),
	})
}

// GetQuality handles GET /api/studies/{id}/analysis/quality.
func (h *AnalysisHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	report := h.getReport(w, r)
	if report == nil {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		Validation analysis.ValidationReport `json:"validation"`
		Outliers   analysis.OutlierReport    `json:"outliers"`
	}{
		Validation: report.Validation,
		Outliers:   report.Outliers,
	})
}
