// Package rules implements the deterministic ground-truth matcher over the
// pattern catalog. It serves as the primary detector in independent mode and
// as the supplement source inside the audit engine.
package rules

import (
	"strings"

	"github.com/medscreen/adaudit/internal/catalog"
)

// Context window captured around a match, in runes per side.
const contextRadius = 60

// Base confidences assigned to deterministic matches by severity.
var matchConfidences = map[catalog.Severity]float64{
	catalog.SeverityCritical: 0.95,
	catalog.SeverityMajor:    0.85,
	catalog.SeverityMinor:    0.75,
}

// Options filters matcher output.
type Options struct {
	MinSeverity   catalog.Severity
	MinConfidence float64
}

// RuleMatch is one deterministic catalog hit.
type RuleMatch struct {
	PatternID          string           `json:"pattern_id"`
	Category           string           `json:"category"`
	Severity           catalog.Severity `json:"severity"`
	MatchedText        string           `json:"matched_text"`
	Context            string           `json:"context"`
	Confidence         float64          `json:"confidence"`
	DisclaimerDetected bool             `json:"disclaimer_detected"`
}

// Matcher performs deterministic, pure text matching against the catalog.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	catalog *catalog.Catalog
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(c *catalog.Catalog) *Matcher {
	return &Matcher{catalog: c}
}

// Match scans text for every catalog pattern's detection terms and returns
// all hits passing the severity and confidence filters. Matching is
// case-insensitive; pattern exceptions and catalog context exceptions
// suppress hits whose surrounding context contains the excepting phrase.
func (m *Matcher) Match(text string, opts Options) []RuleMatch {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	runes := []rune(text)
	lowerRunes := []rune(lower)
	disclaimer := m.catalog.ContainsDisclaimer(text)

	matches := make([]RuleMatch, 0)
	for _, p := range m.catalog.Patterns() {
		if p.Severity.Rank() < opts.MinSeverity.Rank() {
			continue
		}

		confidence := matchConfidences[p.Severity]
		if confidence < opts.MinConfidence {
			continue
		}

		for _, term := range p.DetectionTerms {
			for _, pos := range termPositions(lowerRunes, strings.ToLower(term)) {
				matched := string(runes[pos : pos+len([]rune(term))])
				context := contextWindow(runes, pos, len([]rune(term)))

				if m.suppressed(p, context) {
					continue
				}

				matches = append(matches, RuleMatch{
					PatternID:          p.ID,
					Category:           p.Category,
					Severity:           p.Severity,
					MatchedText:        matched,
					Context:            context,
					Confidence:         confidence,
					DisclaimerDetected: disclaimer,
				})
			}
		}
	}

	return matches
}

func (m *Matcher) suppressed(p catalog.Pattern, context string) bool {
	lower := strings.ToLower(context)

	for _, exception := range p.Exceptions {
		if exception != "" && strings.Contains(lower, strings.ToLower(exception)) {
			return true
		}
	}

	for _, ce := range m.catalog.ContextExceptions() {
		if ce.PatternID != p.ID {
			continue
		}
		if ce.Phrase != "" && strings.Contains(lower, strings.ToLower(ce.Phrase)) {
			return true
		}
	}

	return false
}

// termPositions returns the rune offsets of every non-overlapping occurrence
// of term within text. Both arguments must already be lowercased.
func termPositions(text []rune, term string) []int {
	termRunes := []rune(term)
	if len(termRunes) == 0 || len(termRunes) > len(text) {
		return nil
	}

	var positions []int
	for i := 0; i+len(termRunes) <= len(text); i++ {
		if string(text[i:i+len(termRunes)]) == term {
			positions = append(positions, i)
			i += len(termRunes) - 1
		}
	}
	return positions
}

func contextWindow(runes []rune, pos, length int) string {
	start := max(pos-contextRadius, 0)
	end := min(pos+length+contextRadius, len(runes))
	return string(runes[start:end])
}
