package performance

import (
	"context"
)

// RecomputeResult summarizes one aggregation run.
type RecomputeResult struct {
	Events      int `json:"events"`
	Patterns    int `json:"patterns"`
	Contexts    int `json:"contexts"`
	Departments int `json:"departments"`
	Failed      int `json:"failed"`
}

// System defines the public contract for the performance tracker.
//
// Recompute rebuilds every performance row from the trailing feedback window.
// Modifier returns the combined confidence scaling factor for a detection
// given its pattern and optional context/department.
type System interface {
	Handler() *Handler
	Recompute(ctx context.Context) (*RecomputeResult, error)
	Pattern(ctx context.Context, patternID string) (*PatternPerformance, error)
	ListPatterns(ctx context.Context) ([]PatternPerformance, error)
	Flagged(ctx context.Context) ([]PatternPerformance, error)
	Modifier(ctx context.Context, patternID string, contextType, department *string) (float64, error)
}
