package learning

import (
	"fmt"
	"math"
)

// Type-specific auto-apply limits.
const (
	autoApplyMinFeedback      = 10
	exceptionAutoApplyMinConf = 0.95
	confidenceDeltaCap        = 0.10
	mappingMinCases           = 5
)

// GateInput carries everything the auto-apply gate evaluates for one
// learning event.
type GateInput struct {
	LearningType        LearningType
	ConfidenceScore     float64
	SourceFeedbackCount int
	ConfidenceDelta     *ConfidenceDelta
	MappingCaseCount    int
}

// Eligible evaluates the strict auto-apply AND-gate: global confidence above
// the configured threshold, enough corroborating feedback, and a rule
// specific to the learning type. Every failure yields an explicit reason so
// reviewers can see exactly which clause blocked automation.
func Eligible(in GateInput, autoApplyConfidence float64) (bool, string) {
	if in.ConfidenceScore < autoApplyConfidence {
		return false, fmt.Sprintf(
			"confidence %.2f below auto-apply threshold %.2f",
			in.ConfidenceScore, autoApplyConfidence,
		)
	}
	if in.SourceFeedbackCount < autoApplyMinFeedback {
		return false, fmt.Sprintf(
			"feedback count %d below required %d",
			in.SourceFeedbackCount, autoApplyMinFeedback,
		)
	}

	switch in.LearningType {
	case LearningExceptionGenerated:
		if in.ConfidenceScore < exceptionAutoApplyMinConf {
			return false, fmt.Sprintf(
				"exception confidence %.2f below required %.2f",
				in.ConfidenceScore, exceptionAutoApplyMinConf,
			)
		}
	case LearningConfidenceAdjusted:
		if in.ConfidenceDelta == nil {
			return false, "confidence adjustment missing delta payload"
		}
		delta := math.Abs(in.ConfidenceDelta.NewConfidence - in.ConfidenceDelta.PreviousConfidence)
		if delta > confidenceDeltaCap {
			return false, fmt.Sprintf(
				"confidence delta %.2f exceeds cap %.2f",
				delta, confidenceDeltaCap,
			)
		}
	case LearningMappingLearned:
		if in.MappingCaseCount < mappingMinCases {
			return false, fmt.Sprintf(
				"mapping case count %d below required %d",
				in.MappingCaseCount, mappingMinCases,
			)
		}
	case LearningPatternSuggested:
		return false, "new pattern suggestions always require human review"
	default:
		return false, fmt.Sprintf("unknown learning type %q", in.LearningType)
	}

	return true, "all auto-apply criteria met"
}
