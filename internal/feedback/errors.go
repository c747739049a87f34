package feedback

import (
	"errors"
	"net/http"
)

// Domain errors for feedback operations.
var (
	ErrNotFound       = errors.New("feedback event not found")
	ErrInvalidVerdict = errors.New("verdict must be true_positive, false_positive, or false_negative")
	ErrMissingPattern = errors.New("pattern_id required")
)

// MapHTTPStatus maps feedback domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidVerdict) || errors.Is(err, ErrMissingPattern) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
