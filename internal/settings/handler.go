package settings

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/medscreen/adaudit/pkg/handlers"
	"github.com/medscreen/adaudit/pkg/routes"
)

// Handler provides HTTP endpoints for learning settings.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "settings"),
	}
}

// Routes returns the route group definition for settings endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/settings",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Current},
			{Method: "PUT", Pattern: "/{key}", Handler: h.Set},
			{Method: "POST", Pattern: "/reload", Handler: h.Reload},
		},
	}
}

// Current returns the active settings snapshot.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Current())
}

// SetRequest is the JSON body for updating one setting.
type SetRequest struct {
	Value string `json:"value"`
}

// Set persists one setting value and reloads the snapshot.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Set(r.Context(), r.PathValue("key"), req.Value); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUnknownKey) {
			status = http.StatusBadRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	s, err := h.sys.Reload(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Reload re-reads persisted settings outside the scheduler cadence.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	s, err := h.sys.Reload(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}
