package learning

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LearningType identifies what kind of change a learning event proposes.
type LearningType string

// Learning event kinds.
const (
	LearningExceptionGenerated LearningType = "exception_generated"
	LearningConfidenceAdjusted LearningType = "confidence_adjusted"
	LearningPatternSuggested   LearningType = "pattern_suggested"
	LearningMappingLearned     LearningType = "mapping_learned"
)

// LogStatus is the review state of one learning log entry.
type LogStatus string

// Log review states.
const (
	LogPending  LogStatus = "pending"
	LogApproved LogStatus = "approved"
	LogRejected LogStatus = "rejected"
)

// AutoLearningLog records one learning event: what was learned, from how much
// feedback, and whether it cleared the auto-apply gate. Rows are append-only;
// only the review status changes after creation.
type AutoLearningLog struct {
	ID                  uuid.UUID       `json:"id"`
	LearningType        LearningType    `json:"learning_type"`
	TargetType          string          `json:"target_type"`
	TargetID            string          `json:"target_id"`
	InputData           json.RawMessage `json:"input_data,omitempty"`
	OutputData          json.RawMessage `json:"output_data,omitempty"`
	ConfidenceScore     float64         `json:"confidence_score"`
	SourceFeedbackCount int             `json:"source_feedback_count"`
	AutoApplyEligible   bool            `json:"auto_apply_eligible"`
	EligibilityReason   string          `json:"eligibility_reason"`
	Status              LogStatus       `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ConfidenceDelta is the payload of a confidence_adjusted learning event,
// carried in InputData for gate evaluation.
type ConfidenceDelta struct {
	PatternID          string  `json:"pattern_id"`
	PreviousConfidence float64 `json:"previous_confidence"`
	NewConfidence      float64 `json:"new_confidence"`
}
