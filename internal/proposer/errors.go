package proposer

import "errors"

// Domain errors for proposer calls. Both surface to the caller as pipeline
// failures; the audit engine is never invoked without a proposal.
var (
	ErrTimeout         = errors.New("proposer call exceeded time budget")
	ErrMalformedOutput = errors.New("proposer output could not be parsed")
)
