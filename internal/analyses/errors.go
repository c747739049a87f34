package analyses

import (
	"errors"
	"net/http"
)

// Domain errors for analysis operations.
var (
	ErrNotFound     = errors.New("analysis not found")
	ErrDuplicate    = errors.New("analysis already exists")
	ErrEmptySource  = errors.New("source text is required")
	ErrAnalysisFail = errors.New("analysis pipeline failed")
)

// MapHTTPStatus maps analysis domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptySource) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrAnalysisFail) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
