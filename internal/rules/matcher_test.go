package rules_test

import (
	"reflect"
	"testing"

	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/rules"
)

func newMatcher(t *testing.T) *rules.Matcher {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return rules.NewMatcher(cat)
}

func TestMatchEmptyText(t *testing.T) {
	m := newMatcher(t)
	if got := m.Match("", rules.Options{}); got != nil {
		t.Errorf("Match(\"\") = %v, want nil", got)
	}
}

func TestMatchFindsDetectionTerms(t *testing.T) {
	m := newMatcher(t)

	matches := m.Match("Our procedure guarantees complete recovery.", rules.Options{})

	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}

	match := matches[0]
	if match.PatternID != "P-01-01-001" {
		t.Errorf("PatternID = %s, want P-01-01-001", match.PatternID)
	}
	if match.Severity != catalog.SeverityCritical {
		t.Errorf("Severity = %s, want critical", match.Severity)
	}
	if match.MatchedText != "guarantees complete" {
		t.Errorf("MatchedText = %q", match.MatchedText)
	}
	if match.Confidence != 0.95 {
		t.Errorf("Confidence = %.2f, want 0.95", match.Confidence)
	}
}

func TestMatchCaseInsensitivePreservesOriginal(t *testing.T) {
	m := newMatcher(t)

	matches := m.Match("GUARANTEED CURE for everyone", rules.Options{})

	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].MatchedText != "GUARANTEED CURE" {
		t.Errorf("MatchedText = %q, want original casing", matches[0].MatchedText)
	}
}

func TestMatchSeverityFilter(t *testing.T) {
	m := newMatcher(t)
	text := "Guaranteed cure plus 50% off this week."

	all := m.Match(text, rules.Options{})
	critical := m.Match(text, rules.Options{MinSeverity: catalog.SeverityCritical})

	if len(all) != 2 {
		t.Fatalf("unfiltered matches = %d, want 2", len(all))
	}
	if len(critical) != 1 {
		t.Fatalf("critical-only matches = %d, want 1", len(critical))
	}
	if critical[0].PatternID != "P-01-01-001" {
		t.Errorf("PatternID = %s, want P-01-01-001", critical[0].PatternID)
	}
}

func TestMatchConfidenceFilter(t *testing.T) {
	m := newMatcher(t)
	text := "Guaranteed cure plus 50% off this week."

	// Minor matches carry 0.75, below the filter.
	matches := m.Match(text, rules.Options{MinConfidence: 0.8})

	for _, match := range matches {
		if match.Confidence < 0.8 {
			t.Errorf("match %s confidence %.2f below filter", match.PatternID, match.Confidence)
		}
	}
	if len(matches) != 1 {
		t.Errorf("matches = %d, want 1", len(matches))
	}
}

func TestMatchPatternExceptionSuppresses(t *testing.T) {
	m := newMatcher(t)

	// P-01-02-001 excepts "may have side effects" in the surrounding context.
	suppressed := m.Match("The procedure has no side effects, though rare cases may have side effects.", rules.Options{})
	for _, match := range suppressed {
		if match.PatternID == "P-01-02-001" {
			t.Error("excepting phrase did not suppress the match")
		}
	}

	plain := m.Match("The procedure has no side effects.", rules.Options{})
	found := false
	for _, match := range plain {
		if match.PatternID == "P-01-02-001" {
			found = true
		}
	}
	if !found {
		t.Error("expected P-01-02-001 match without excepting phrase")
	}
}

func TestMatchContextExceptionSuppresses(t *testing.T) {
	m := newMatcher(t)

	matches := m.Match("We strive to be the best clinic in town.", rules.Options{})
	for _, match := range matches {
		if match.PatternID == "P-02-01-001" {
			t.Error("catalog context exception did not suppress the match")
		}
	}
}

func TestMatchDisclaimerDetection(t *testing.T) {
	m := newMatcher(t)

	matches := m.Match("Guaranteed cure. Results may vary.", rules.Options{})
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	for _, match := range matches {
		if !match.DisclaimerDetected {
			t.Errorf("match %s missing disclaimer detection", match.PatternID)
		}
	}
}

func TestMatchDeterministic(t *testing.T) {
	m := newMatcher(t)
	text := "Guaranteed cure, the best clinic, 50% off, write a review and receive rewards."

	first := m.Match(text, rules.Options{})
	for range 5 {
		if next := m.Match(text, rules.Options{}); !reflect.DeepEqual(first, next) {
			t.Fatal("repeated matching produced different output")
		}
	}
}

func TestMatchRepeatedTermPositions(t *testing.T) {
	m := newMatcher(t)

	matches := m.Match("Guaranteed cure today. Ask about our guaranteed cure plan.", rules.Options{})

	count := 0
	for _, match := range matches {
		if match.PatternID == "P-01-01-001" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("occurrences = %d, want 2", count)
	}
}
