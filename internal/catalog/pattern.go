// Package catalog defines the immutable legal-violation pattern catalog for
// medical-advertisement review. It provides the pattern set, the negative-term
// list, disclaimer rules, section weights, and context exceptions that the
// matcher, audit engine, and proposer instructions are all built from.
package catalog

import (
	"encoding/json"
	"slices"
)

// Severity classifies the legal weight of a violation pattern.
type Severity string

// Valid severities. Catalog patterns carry critical, major, or minor;
// low exists only as the floor of a disclaimer downgrade.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityLow      Severity = "low"
)

var severities = []Severity{
	SeverityCritical,
	SeverityMajor,
	SeverityMinor,
	SeverityLow,
}

var severityRanks = map[Severity]int{
	SeverityCritical: 3,
	SeverityMajor:    2,
	SeverityMinor:    1,
	SeverityLow:      0,
}

// Rank returns the ordering value of a severity (critical highest).
// Unknown severities rank below low.
func (s Severity) Rank() int {
	rank, ok := severityRanks[s]
	if !ok {
		return -1
	}
	return rank
}

// Downgrade returns the severity one step down the order
// critical → major → minor → low. Low downgrades to itself.
func (s Severity) Downgrade() Severity {
	switch s {
	case SeverityCritical:
		return SeverityMajor
	case SeverityMajor:
		return SeverityMinor
	case SeverityMinor:
		return SeverityLow
	default:
		return SeverityLow
	}
}

// ParseSeverity validates a string as a known severity.
func ParseSeverity(s string) (Severity, error) {
	v := Severity(s)
	if !slices.Contains(severities, v) {
		return "", ErrInvalidSeverity
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known severity.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SectionType identifies the advertisement section a violation was found in.
// Section weights scale the grading penalty.
type SectionType string

// Valid section types.
const (
	SectionTreatment SectionType = "treatment"
	SectionEvent     SectionType = "event"
	SectionFAQ       SectionType = "faq"
	SectionReview    SectionType = "review"
	SectionDoctor    SectionType = "doctor"
	SectionDefault   SectionType = "default"
)

var sectionTypes = []SectionType{
	SectionTreatment,
	SectionEvent,
	SectionFAQ,
	SectionReview,
	SectionDoctor,
	SectionDefault,
}

// ParseSectionType validates a string as a known section type.
// Unrecognized values map to SectionDefault rather than erroring: the
// proposer is free to invent section labels and they must not break grading.
func ParseSectionType(s string) SectionType {
	v := SectionType(s)
	if !slices.Contains(sectionTypes, v) {
		return SectionDefault
	}
	return v
}

// Pattern is one immutable catalog entry describing a legal-violation pattern.
type Pattern struct {
	ID             string   `json:"id"`
	Category       string   `json:"category"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Example        string   `json:"example"`
	DetectionTerms []string `json:"detection_terms"`
	Exceptions     []string `json:"exceptions"`
	LegalBasis     string   `json:"legal_basis"`
}

// ContextException suppresses a pattern when its match co-occurs with a
// recognized contextual phrase (mined from reviewed false positives).
type ContextException struct {
	PatternID string `json:"pattern_id"`
	Phrase    string `json:"phrase"`
}
