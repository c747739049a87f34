package performance

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/medscreen/adaudit/pkg/handlers"
	"github.com/medscreen/adaudit/pkg/routes"
)

// Handler provides HTTP endpoints for performance operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "performance"),
	}
}

// Routes returns the route group definition for performance endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/performance",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/patterns", Handler: h.ListPatterns},
			{Method: "GET", Pattern: "/patterns/{id}", Handler: h.Pattern},
			{Method: "GET", Pattern: "/flagged", Handler: h.Flagged},
			{Method: "POST", Pattern: "/recompute", Handler: h.Recompute},
		},
	}
}

// ListPatterns returns every pattern performance row.
func (h *Handler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	rows, err := h.sys.ListPatterns(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rows)
}

// Pattern returns the performance row for one pattern id.
func (h *Handler) Pattern(w http.ResponseWriter, r *http.Request) {
	p, err := h.sys.Pattern(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Flagged returns the patterns currently flagged for review.
func (h *Handler) Flagged(w http.ResponseWriter, r *http.Request) {
	rows, err := h.sys.Flagged(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rows)
}

// Recompute triggers a full aggregation run outside the scheduler cadence.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Recompute(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// MapHTTPStatus translates performance domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
