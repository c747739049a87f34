// Package audit implements the consensus engine that reconciles proposer
// candidates against the deterministic rule catalog. Audit is a pure
// function over its input: no network, no storage, no shared state.
package audit

import (
	"encoding/json"
	"slices"

	"github.com/medscreen/adaudit/internal/catalog"
)

// Source records the provenance of a violation candidate.
type Source string

// Valid candidate sources. Downstream code distinguishes proposer-original
// entries from engine-supplemented ones without re-deriving it.
const (
	SourceProposer   Source = "proposer"
	SourceRuleEngine Source = "rule_engine_supplement"
)

var sources = []Source{SourceProposer, SourceRuleEngine}

// UnmarshalJSON validates that the decoded string is a known source.
func (s *Source) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Source(raw)
	if !slices.Contains(sources, v) {
		v = SourceProposer
	}
	*s = v
	return nil
}

// Candidate is one violation candidate flowing through the audit passes.
// Passes never mutate a candidate in place; an applied correction produces
// a new value in the next pass output.
type Candidate struct {
	PatternID         string              `json:"pattern_id"`
	Category          string              `json:"category"`
	Severity          catalog.Severity    `json:"severity"`
	OriginalText      string              `json:"original_text"`
	Context           string              `json:"context"`
	SectionType       catalog.SectionType `json:"section_type"`
	Confidence        float64             `json:"confidence"`
	Reasoning         string              `json:"reasoning"`
	FromImage         bool                `json:"from_image"`
	DisclaimerPresent bool                `json:"disclaimer_present"`
	AdjustedSeverity  catalog.Severity    `json:"adjusted_severity,omitempty"`
	Source            Source              `json:"source"`
}

// EffectiveSeverity returns the adjusted severity when an audit pass set
// one, otherwise the original severity. Grading always uses this value.
func (c Candidate) EffectiveSeverity() catalog.Severity {
	if c.AdjustedSeverity != "" {
		return c.AdjustedSeverity
	}
	return c.Severity
}

// GrayZone is a reported evasion pattern that is not a clear-cut catalog
// violation but is flagged for human legal review.
type GrayZone struct {
	Description string `json:"description"`
	Excerpt     string `json:"excerpt"`
	RiskNote    string `json:"risk_note"`
}

// MandatoryItem is one entry of the mandatory-disclosure checklist.
type MandatoryItem struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Note    string `json:"note,omitempty"`
}

// MandatoryItemNames is the canonical six-item disclosure checklist.
// Audit normalizes proposer output against this list.
var MandatoryItemNames = []string{
	"medical_institution_name",
	"institution_registration_number",
	"physician_name_and_license",
	"treatment_name",
	"price_disclosure",
	"side_effect_disclaimer",
}
