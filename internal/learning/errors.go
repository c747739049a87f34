package learning

import "errors"

// Learning domain errors.
var (
	ErrInvalidStatus     = errors.New("invalid candidate status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("candidate not found")
)
