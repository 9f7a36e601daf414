package api

import (
	"log/slog"
	"net/http"

	"github.com/sortlab/sortlab-api/internal/api/shared"
	"github.com/sortlab/sortlab-api/internal/service"
)

// ResultHandler handles result submission and retrieval endpoints.
type ResultHandler struct {
	studyService service.StudyService
	logger       *slog.Logger
}

// NewResultHandler creates a ResultHandler.
func NewResultHandler(studyService service.StudyService, logger *slog.Logger) *ResultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultHandler{
		studyService: studyService,
		logger:       logger.With("component", "result_handler"),
	}
}

// SubmitResult handles POST /api/studies/{id}/results. The submitting
// researcher must own the study; results collected from participants are
// relayed through the researcher's tooling.
func (h *ResultHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SubmitResultRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Ownership check happens before the status check so a foreign study ID
	// yields 403 rather than leaking its lifecycle state.
	if _, err := h.studyService.GetStudyForOwner(r.Context(), studyID, userID); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	result, err := h.studyService.SubmitResult(r.Context(), studyID, req.ParticipantID, toPlacements(req.Placements))
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// ListResults handles GET /api/studies/{id}/results.
func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	results, err := h.studyService.GetResultsForOwner(r.Context(), studyID, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, results)
}
