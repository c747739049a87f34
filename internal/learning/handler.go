package learning

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/pkg/handlers"
	"github.com/medscreen/adaudit/pkg/routes"
)

// Handler provides HTTP endpoints for the learning review workflow.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "learning"),
	}
}

// Routes returns the route group definition for learning endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/learning",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/exceptions", Handler: h.ListExceptions},
			{Method: "GET", Pattern: "/exceptions/{id}", Handler: h.FindException},
			{Method: "POST", Pattern: "/exceptions/{id}/approve", Handler: h.ApproveException},
			{Method: "POST", Pattern: "/exceptions/{id}/reject", Handler: h.RejectException},
			{Method: "GET", Pattern: "/patterns", Handler: h.ListPatternCandidates},
			{Method: "GET", Pattern: "/logs", Handler: h.ListLogs},
			{Method: "POST", Pattern: "/mappings", Handler: h.RecordMapping},
			{Method: "POST", Pattern: "/aggregate", Handler: h.Aggregate},
		},
	}
}

// ListExceptions returns exception candidates, optionally filtered by status.
func (h *Handler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		status = &parsed
	}

	candidates, err := h.sys.ListExceptions(r.Context(), status)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, candidates)
}

// FindException returns a single exception candidate by id.
func (h *Handler) FindException(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := h.sys.FindException(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// ApproveException applies the approve transition to a pending candidate.
func (h *Handler) ApproveException(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.sys.ApproveException)
}

// RejectException applies the reject transition to a pending candidate.
func (h *Handler) RejectException(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.sys.RejectException)
}

func (h *Handler) review(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id uuid.UUID) (*ExceptionCandidate, error),
) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := apply(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// ListPatternCandidates returns mined new-pattern candidates.
func (h *Handler) ListPatternCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.sys.ListPatternCandidates(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, candidates)
}

// ListLogs returns learning log entries, optionally filtered by status.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	var status *LogStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := LogStatus(raw)
		status = &s
	}

	logs, err := h.sys.ListLogs(r.Context(), status)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, logs)
}

// MappingRequest is the JSON body for recording an approved name mapping.
type MappingRequest struct {
	SourceTerm    string `json:"source_term"`
	CanonicalTerm string `json:"canonical_term"`
}

// RecordMapping classifies and stores one approved procedure-name mapping.
func (h *Handler) RecordMapping(w http.ResponseWriter, r *http.Request) {
	var req MappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if req.SourceTerm == "" || req.CanonicalTerm == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			errors.New("source_term and canonical_term are required"))
		return
	}

	rule, err := h.sys.RecordMapping(r.Context(), req.SourceTerm, req.CanonicalTerm)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rule)
}

// Aggregate triggers a mining run outside the scheduler cadence.
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Aggregate(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// MapHTTPStatus translates learning domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
