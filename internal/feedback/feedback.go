// Package feedback implements the human-feedback domain. Reviewed outcomes
// (true/false positives, missed violations) form the append-only event log
// that the performance tracker and learning miner re-aggregate from.
package feedback

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Verdict is a human's assessment of one detection outcome.
type Verdict string

// Valid verdicts.
const (
	VerdictTruePositive  Verdict = "true_positive"
	VerdictFalsePositive Verdict = "false_positive"
	VerdictFalseNegative Verdict = "false_negative"
)

var verdicts = []Verdict{
	VerdictTruePositive,
	VerdictFalsePositive,
	VerdictFalseNegative,
}

// ParseVerdict validates a string as a known verdict.
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(s)
	if !slices.Contains(verdicts, v) {
		return "", ErrInvalidVerdict
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known verdict.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseVerdict(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Event is one recorded feedback outcome. Events are append-only; derived
// performance and learning state is always recomputable from them.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	AnalysisID  *uuid.UUID `json:"analysis_id,omitempty"`
	PatternID   string     `json:"pattern_id"`
	Verdict     Verdict    `json:"verdict"`
	ContextType *string    `json:"context_type,omitempty"`
	Department  *string    `json:"department,omitempty"`
	SampleText  *string    `json:"sample_text,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateCommand carries the data needed to record a feedback event.
type CreateCommand struct {
	AnalysisID  *uuid.UUID `json:"analysis_id,omitempty"`
	PatternID   string     `json:"pattern_id"`
	Verdict     Verdict    `json:"verdict"`
	ContextType *string    `json:"context_type,omitempty"`
	Department  *string    `json:"department,omitempty"`
	SampleText  *string    `json:"sample_text,omitempty"`
}
