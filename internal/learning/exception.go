// Package learning implements the feedback-to-rule flywheel: recurring
// false-positive feedback is mined into exception-rule candidates, recurring
// false-negative feedback into new-pattern candidates, and every learning
// event is logged with a strict auto-apply eligibility gate. Candidates move
// through a forward-only review state machine.
package learning

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is the review state of a learned candidate.
type Status string

// Candidate review states. Transitions are forward-only: collecting advances
// to pending_review exactly once, and a reviewed candidate never returns to
// an earlier state.
const (
	StatusCollecting    Status = "collecting"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

var statuses = []Status{
	StatusCollecting,
	StatusPendingReview,
	StatusApproved,
	StatusRejected,
}

// ParseStatus validates a string as a known candidate status.
func ParseStatus(s string) (Status, error) {
	v := Status(s)
	if !slices.Contains(statuses, v) {
		return "", ErrInvalidStatus
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ExceptionType classifies how an exception pattern should be applied.
type ExceptionType string

// Exception pattern kinds.
const (
	ExceptionKeyword    ExceptionType = "keyword"
	ExceptionContext    ExceptionType = "context"
	ExceptionRegex      ExceptionType = "regex"
	ExceptionDepartment ExceptionType = "department"
	ExceptionComposite  ExceptionType = "composite"
)

// Structural sentinels emitted when no lexical signal survives mining but the
// sample set shares a recognizable structure.
const (
	SentinelNegationContext   = "NEGATION_CONTEXT"
	SentinelDisclaimerContext = "DISCLAIMER_CONTEXT"
)

// Sample texts retained per candidate; oldest entries are evicted first.
const maxSampleTexts = 10

// ExceptionCandidate is a mined exception rule awaiting review. Confidence is
// capped at 0.95: mined rules never reach full certainty without a human.
type ExceptionCandidate struct {
	ID                uuid.UUID     `json:"id"`
	PatternID         string        `json:"pattern_id"`
	ExceptionType     ExceptionType `json:"exception_type"`
	ExceptionPattern  string        `json:"exception_pattern"`
	SourceFeedbackIDs []uuid.UUID   `json:"source_feedback_ids"`
	SampleTexts       []string      `json:"sample_texts"`
	OccurrenceCount   int           `json:"occurrence_count"`
	Confidence        float64       `json:"confidence"`
	MeetsThreshold    bool          `json:"meets_threshold"`
	Status            Status        `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// InitialConfidence computes a freshly mined candidate's confidence from its
// occurrence count.
func InitialConfidence(occurrences int) float64 {
	return min(0.95, 0.5+float64(occurrences)*0.05)
}

// Merge folds a re-mined batch into an existing candidate. Feedback IDs
// already recorded are skipped so replaying the same batch is a no-op:
// occurrence count, confidence, and sample texts only move when genuinely
// new feedback arrives.
func (c *ExceptionCandidate) Merge(feedbackIDs []uuid.UUID, samples []string) bool {
	var fresh int
	for _, id := range feedbackIDs {
		if slices.Contains(c.SourceFeedbackIDs, id) {
			continue
		}
		c.SourceFeedbackIDs = append(c.SourceFeedbackIDs, id)
		fresh++
	}
	if fresh == 0 {
		return false
	}

	c.OccurrenceCount += fresh
	c.Confidence = min(0.95, c.Confidence+0.1)

	c.SampleTexts = append(c.SampleTexts, samples...)
	if len(c.SampleTexts) > maxSampleTexts {
		c.SampleTexts = c.SampleTexts[len(c.SampleTexts)-maxSampleTexts:]
	}
	return true
}

// Promote advances a collecting candidate to pending_review when it clears
// both thresholds. The transition is monotonic: once past collecting, the
// candidate is never demoted, and repeat calls report false.
func (c *ExceptionCandidate) Promote(minOccurrences int, minConfidence float64) bool {
	if c.Status != StatusCollecting {
		return false
	}
	if c.OccurrenceCount < minOccurrences || c.Confidence < minConfidence {
		return false
	}
	c.Status = StatusPendingReview
	c.MeetsThreshold = true
	return true
}

// Approve marks a pending candidate approved. Approving an already-approved
// candidate is a no-op; any other state is an invalid transition.
func (c *ExceptionCandidate) Approve() error {
	switch c.Status {
	case StatusApproved:
		return nil
	case StatusPendingReview:
		c.Status = StatusApproved
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Reject marks a pending candidate rejected, idempotently.
func (c *ExceptionCandidate) Reject() error {
	switch c.Status {
	case StatusRejected:
		return nil
	case StatusPendingReview:
		c.Status = StatusRejected
		return nil
	default:
		return ErrInvalidTransition
	}
}
