package catalog

import "errors"

// Domain errors for catalog loading and validation.
var (
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrInvalidCatalog  = errors.New("invalid catalog data")
	ErrUnknownPattern  = errors.New("unknown pattern id")
)
