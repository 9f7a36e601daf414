package api

import (
	"log/slog"
	"net/http"

	"github.com/sortlab/sortlab-api/internal/api/shared"
	"github.com/sortlab/sortlab-api/internal/service"
)

// InsightHandler serves generated study insights.
type InsightHandler struct {
	insightService service.InsightService
	logger         *slog.Logger
}

// NewInsightHandler creates an InsightHandler.
func NewInsightHandler(insightService service.InsightService, logger *slog.Logger) *InsightHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightHandler{
		insightService: insightService,
		logger:         logger.With("component", "insight_handler"),
	}
}

// GetInsight handles GET /api/studies/{id}/insight. Returns the latest
// insight for the study regardless of its status; pending and failed
// insights are reported as-is so clients can poll.
func (h *InsightHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	insight, err := h.insightService.GetLatestForOwner(r.Context(), studyID, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, insight)
}
