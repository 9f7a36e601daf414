package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sortlab/sortlab-api/internal/api/shared"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/service"
)

// List pagination bounds.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// StudyHandler handles study CRUD and lifecycle endpoints.
type StudyHandler struct {
	studyService service.StudyService
	logger       *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(studyService service.StudyService, logger *slog.Logger) *StudyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With("component", "study_handler"),
	}
}

// CreateStudy handles POST /api/studies.
func (h *StudyHandler) CreateStudy(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	var req CreateStudyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	study, err := h.studyService.CreateStudy(r.Context(), userID, req.Title, req.Description,
		toCardRefs(req.Cards), req.Categories)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, study)
}

// GetStudy handles GET /api/studies/{id}.
func (h *StudyHandler) GetStudy(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	study, err := h.studyService.GetStudyForOwner(r.Context(), studyID, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, study)
}

// ListStudies handles GET /api/studies with optional limit and offset query
// parameters.
func (h *StudyHandler) ListStudies(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	limit := parseQueryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := parseQueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	studies, err := h.studyService.ListStudies(r.Context(), userID, limit, offset)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}
	if studies == nil {
		studies = []*domain.Study{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StudyListResponse{
		Studies: studies,
		Limit:   limit,
		Offset:  offset,
	})
}

// UpdateStudy handles PUT /api/studies/{id}.
func (h *StudyHandler) UpdateStudy(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStudyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	study, err := h.studyService.UpdateStudy(r.Context(), studyID, userID, req.Title, req.Description,
		toCardRefs(req.Cards), req.Categories)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, study)
}

// UpdateStudyStatus handles PUT /api/studies/{id}/status.
func (h *StudyHandler) UpdateStudyStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStudyStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	study, err := h.studyService.UpdateStudyStatus(r.Context(), studyID, userID, domain.StudyStatus(req.Status))
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, study)
}

// DeleteStudy handles DELETE /api/studies/{id}.
func (h *StudyHandler) DeleteStudy(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}
	studyID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.studyService.DeleteStudy(r.Context(), studyID, userID); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseQueryInt reads an integer query parameter, returning the fallback for
// missing or malformed values.
func parseQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
