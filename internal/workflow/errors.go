package workflow

import "errors"

// Workflow errors.
var (
	ErrPipelineState = errors.New("pipeline state corrupted")
	ErrDetectFailed  = errors.New("detection stage failed")
)
