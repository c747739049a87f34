// Package performance implements feedback-driven detection statistics:
// per-pattern, per-context, and per-department accuracy rows recomputed
// idempotently from the feedback event history. Rows are derived data, safe
// to regenerate from scratch at any time.
package performance

import "time"

// Metrics holds the derived counters and rates shared by all performance rows.
type Metrics struct {
	TotalMatches   int     `json:"total_matches"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// PatternPerformance is the per-pattern aggregate over the trailing window.
type PatternPerformance struct {
	PatternID string `json:"pattern_id"`
	Metrics
	IsFlagged bool      `json:"is_flagged"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContextPerformance is the per-(pattern, context) aggregate. Its confidence
// modifier scales candidate confidence at analysis time once the sample
// count clears the configured minimum.
type ContextPerformance struct {
	PatternID   string `json:"pattern_id"`
	ContextType string `json:"context_type"`
	Metrics
	ConfidenceModifier float64   `json:"confidence_modifier"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DepartmentPerformance is the per-(pattern, department) aggregate.
type DepartmentPerformance struct {
	PatternID  string `json:"pattern_id"`
	Department string `json:"department"`
	Metrics
	ConfidenceModifier float64   `json:"confidence_modifier"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Flag thresholds: a pattern is flagged for review when its accuracy falls
// below the configured threshold across at least this many outcomes.
const flagMinMatches = 5

// Global accuracy penalties applied to candidate confidence at analysis time.
const (
	lowAccuracyCutoff  = 0.5
	lowAccuracyPenalty = 0.5
	midAccuracyCutoff  = 0.7
	midAccuracyPenalty = 0.8
)
