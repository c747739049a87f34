package performance

import "errors"

// ErrNotFound is returned when no performance row exists for a pattern.
var ErrNotFound = errors.New("performance record not found")
