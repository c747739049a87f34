package audit_test

import (
	"strings"
	"testing"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/rules"
)

func newEngine(t *testing.T) *audit.Engine {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return audit.New(cat, rules.NewMatcher(cat))
}

func candidate(patternID string, severity catalog.Severity, text string, confidence float64) audit.Candidate {
	return audit.Candidate{
		PatternID:    patternID,
		Category:     "test",
		Severity:     severity,
		OriginalText: text,
		SectionType:  catalog.SectionDefault,
		Confidence:   confidence,
		Source:       audit.SourceProposer,
	}
}

func hasIssue(issues []audit.Issue, issueType audit.IssueType, patternID string) bool {
	for _, issue := range issues {
		if issue.Type == issueType && issue.PatternID == patternID {
			return true
		}
	}
	return false
}

func violationIDs(result audit.Result) []string {
	ids := make([]string, 0, len(result.FinalViolations))
	for _, v := range result.FinalViolations {
		ids = append(ids, v.PatternID)
	}
	return ids
}

// Benign source text: no detection terms, no disclaimer phrases.
const benignSource = "We describe our services and opening hours on this page."

func TestAuditDropsFabricatedPatternID(t *testing.T) {
	engine := newEngine(t)

	result := engine.Audit(audit.Input{
		SourceText: benignSource,
		Candidates: []audit.Candidate{
			candidate("P-99-99-999", catalog.SeverityCritical, "guaranteed cure", 0.9),
			candidate("P-06-01-001", catalog.SeverityMajor, "before it is too late", 0.9),
		},
	})

	for _, v := range result.FinalViolations {
		if v.PatternID == "P-99-99-999" {
			t.Error("fabricated pattern id survived the audit")
		}
	}
	if !hasIssue(result.Issues, audit.IssueFabricatedPatternID, "P-99-99-999") {
		t.Error("expected FABRICATED_PATTERN_ID issue")
	}
	if result.ProposerOriginalCount != 2 {
		t.Errorf("ProposerOriginalCount = %d, want 2", result.ProposerOriginalCount)
	}
}

func TestAuditNegativeListSuppression(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name    string
		matched string
		removed bool
	}{
		{"exact term", "plastic surgery", true},
		{"exact term uppercase", "Plastic Surgery", true},
		{"short superset within slack", "plastic surgery!", true},
		{"long superset kept", "plastic surgery works every time", false},
		{"unrelated text kept", "miracle outcome", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Audit(audit.Input{
				SourceText: benignSource,
				Candidates: []audit.Candidate{
					candidate("P-06-01-001", catalog.SeverityMajor, tt.matched, 0.9),
				},
			})

			survived := len(result.FinalViolations) == 1
			if survived == tt.removed {
				t.Errorf("matched %q: survived = %v, want removed = %v", tt.matched, survived, tt.removed)
			}
			if tt.removed && !hasIssue(result.Issues, audit.IssueNegativeList, "P-06-01-001") {
				t.Error("expected NEGATIVE_LIST_VIOLATION issue")
			}
		})
	}
}

func TestAuditNegativeSupersetSlackTunable(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	engine := audit.New(cat, rules.NewMatcher(cat))
	engine.SetNegativeSupersetSlack(0)

	// One character beyond the term survives when slack is zero.
	result := engine.Audit(audit.Input{
		SourceText: benignSource,
		Candidates: []audit.Candidate{
			candidate("P-06-01-001", catalog.SeverityMajor, "anesthesia!", 0.9),
		},
	})
	if len(result.FinalViolations) != 1 {
		t.Error("slack 0 should keep a one-character superset")
	}
}

func TestAuditCertificationFalsePositive(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name    string
		matched string
		context string
		removed bool
	}{
		{"regulator in matched text", "certified by the FDA", "", true},
		{"regulator in context", "officially certified treatment", "approval issued by the Ministry of Health", true},
		{"no regulator anywhere", "officially certified treatment", "our own standard", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate("P-05-01-001", catalog.SeverityMajor, tt.matched, 0.9)
			c.Context = tt.context

			result := engine.Audit(audit.Input{
				SourceText: benignSource,
				Candidates: []audit.Candidate{c},
			})

			survived := len(result.FinalViolations) == 1
			if survived == tt.removed {
				t.Errorf("survived = %v, want removed = %v", survived, tt.removed)
			}
		})
	}
}

func TestAuditDisclaimerDowngrade(t *testing.T) {
	engine := newEngine(t)
	source := "Results may vary. " + benignSource

	result := engine.Audit(audit.Input{
		SourceText: source,
		Candidates: []audit.Candidate{
			candidate("P-06-01-001", catalog.SeverityMajor, "before it is too late", 0.9),
		},
	})

	if len(result.FinalViolations) != 1 {
		t.Fatalf("violations = %d, want 1", len(result.FinalViolations))
	}

	v := result.FinalViolations[0]
	if v.EffectiveSeverity() != catalog.SeverityMinor {
		t.Errorf("effective severity = %s, want minor", v.EffectiveSeverity())
	}
	if v.Severity != catalog.SeverityMajor {
		t.Errorf("original severity mutated to %s", v.Severity)
	}
	if !v.DisclaimerPresent {
		t.Error("DisclaimerPresent not set")
	}
	if !hasIssue(result.Issues, audit.IssueDisclaimerNotApplied, "P-06-01-001") {
		t.Error("expected DISCLAIMER_NOT_APPLIED issue")
	}
}

func TestAuditDisclaimerExemptsAbsolutePatterns(t *testing.T) {
	engine := newEngine(t)
	source := "Results may vary. " + benignSource

	result := engine.Audit(audit.Input{
		SourceText: source,
		Candidates: []audit.Candidate{
			candidate("P-01-01-001", catalog.SeverityCritical, "miracle outcome promised", 0.9),
		},
	})

	if len(result.FinalViolations) != 1 {
		t.Fatalf("violations = %d, want 1", len(result.FinalViolations))
	}
	if got := result.FinalViolations[0].EffectiveSeverity(); got != catalog.SeverityCritical {
		t.Errorf("absolute pattern downgraded to %s", got)
	}
}

func TestAuditDisclaimerDowngradesAtMostOnce(t *testing.T) {
	engine := newEngine(t)
	source := "Results may vary. " + benignSource

	c := candidate("P-06-01-001", catalog.SeverityMajor, "before it is too late", 0.9)
	c.AdjustedSeverity = catalog.SeverityMinor

	result := engine.Audit(audit.Input{
		SourceText: source,
		Candidates: []audit.Candidate{c},
	})

	if len(result.FinalViolations) != 1 {
		t.Fatalf("violations = %d, want 1", len(result.FinalViolations))
	}
	if got := result.FinalViolations[0].EffectiveSeverity(); got != catalog.SeverityMinor {
		t.Errorf("already-downgraded candidate moved to %s", got)
	}
}

func TestAuditSupplementsMissedViolations(t *testing.T) {
	engine := newEngine(t)
	source := "Our procedure guarantees complete recovery for every patient."

	result := engine.Audit(audit.Input{
		SourceText: source,
		Candidates: nil,
	})

	found := false
	for _, v := range result.FinalViolations {
		if v.PatternID != "P-01-01-001" {
			continue
		}
		found = true
		if v.Source != audit.SourceRuleEngine {
			t.Errorf("source = %s, want rule_engine_supplement", v.Source)
		}
		if v.Confidence != 0.95 {
			t.Errorf("critical supplement confidence = %.2f, want 0.95", v.Confidence)
		}
	}
	if !found {
		t.Fatalf("rule engine did not supplement P-01-01-001; got %v", violationIDs(result))
	}
	if !hasIssue(result.Issues, audit.IssueProposerMissed, "P-01-01-001") {
		t.Error("expected GEMINI_MISSED issue")
	}
	if result.Delta != len(result.FinalViolations) {
		t.Errorf("Delta = %d, want %d", result.Delta, len(result.FinalViolations))
	}
}

func TestAuditSupplementMajorConfidence(t *testing.T) {
	engine := newEngine(t)
	source := "The best clinic for your needs, trusted citywide."

	result := engine.Audit(audit.Input{SourceText: source})

	for _, v := range result.FinalViolations {
		if v.PatternID == "P-02-01-001" {
			if v.Confidence != 0.85 {
				t.Errorf("major supplement confidence = %.2f, want 0.85", v.Confidence)
			}
			return
		}
	}
	t.Fatalf("expected P-02-01-001 supplement; got %v", violationIDs(result))
}

func TestAuditSupplementSkipsReportedPatterns(t *testing.T) {
	engine := newEngine(t)
	source := "Our procedure guarantees complete recovery for every patient."

	result := engine.Audit(audit.Input{
		SourceText: source,
		Candidates: []audit.Candidate{
			candidate("P-01-01-001", catalog.SeverityCritical, "guarantees complete recovery", 0.9),
		},
	})

	count := 0
	for _, v := range result.FinalViolations {
		if v.PatternID == "P-01-01-001" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("P-01-01-001 appears %d times, want 1", count)
	}
	if hasIssue(result.Issues, audit.IssueProposerMissed, "P-01-01-001") {
		t.Error("reported pattern should not be supplemented")
	}
}

func TestAuditConfidenceCorrection(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name       string
		patternID  string
		severity   catalog.Severity
		confidence float64
		want       float64
	}{
		{"critical below floor", "P-01-01-001", catalog.SeverityCritical, 0.5, 0.85},
		{"critical at floor", "P-01-01-001", catalog.SeverityCritical, 0.7, 0.7},
		{"major below floor", "P-06-01-001", catalog.SeverityMajor, 0.4, 0.70},
		{"major at floor", "P-06-01-001", catalog.SeverityMajor, 0.5, 0.5},
		{"minor untouched", "P-04-01-001", catalog.SeverityMinor, 0.2, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Audit(audit.Input{
				SourceText: benignSource,
				Candidates: []audit.Candidate{
					candidate(tt.patternID, tt.severity, "miracle outcome", tt.confidence),
				},
			})

			if len(result.FinalViolations) != 1 {
				t.Fatalf("violations = %d, want 1", len(result.FinalViolations))
			}
			if got := result.FinalViolations[0].Confidence; got != tt.want {
				t.Errorf("confidence = %.2f, want %.2f", got, tt.want)
			}

			adjusted := tt.want != tt.confidence
			if adjusted != hasIssue(result.Issues, audit.IssueConfidenceAdjusted, tt.patternID) {
				t.Errorf("CONFIDENCE_ADJUSTED issue presence = %v, want %v", !adjusted, adjusted)
			}
		})
	}
}

func TestAuditCollapsesDuplicates(t *testing.T) {
	engine := newEngine(t)

	result := engine.Audit(audit.Input{
		SourceText: benignSource,
		Candidates: []audit.Candidate{
			candidate("P-06-01-001", catalog.SeverityMajor, "before it is too late", 0.8),
			candidate("P-06-01-001", catalog.SeverityMajor, " before it is too late ", 0.95),
			candidate("P-06-01-001", catalog.SeverityMajor, "risk permanent damage", 0.9),
		},
	})

	count := 0
	for _, v := range result.FinalViolations {
		if v.PatternID != "P-06-01-001" {
			continue
		}
		count++
		if strings.TrimSpace(v.OriginalText) == "before it is too late" && v.Confidence != 0.95 {
			t.Errorf("survivor confidence = %.2f, want highest 0.95", v.Confidence)
		}
	}
	if count != 2 {
		t.Errorf("distinct texts collapsed to %d entries, want 2", count)
	}
	if !hasIssue(result.Issues, audit.IssueDuplicateViolation, "P-06-01-001") {
		t.Error("expected DUPLICATE_VIOLATION issue")
	}
}

func TestAuditCleanResultGradesS(t *testing.T) {
	engine := newEngine(t)

	result := engine.Audit(audit.Input{SourceText: benignSource})

	if result.CleanScore != 100 {
		t.Errorf("CleanScore = %.2f, want 100", result.CleanScore)
	}
	if result.Grade != audit.GradeS {
		t.Errorf("Grade = %s, want S", result.Grade)
	}
	if result.FinalCount != 0 {
		t.Errorf("FinalCount = %d, want 0", result.FinalCount)
	}
}

func TestAuditNormalizesMandatoryItems(t *testing.T) {
	engine := newEngine(t)

	result := engine.Audit(audit.Input{
		SourceText: benignSource,
		MandatoryItems: []audit.MandatoryItem{
			{Name: "treatment_name", Present: true},
		},
	})

	if len(result.MandatoryItems) != len(audit.MandatoryItemNames) {
		t.Fatalf("mandatory items = %d, want %d", len(result.MandatoryItems), len(audit.MandatoryItemNames))
	}

	for _, item := range result.MandatoryItems {
		if item.Name == "treatment_name" {
			if !item.Present {
				t.Error("reported item lost its presence")
			}
			continue
		}
		if item.Present {
			t.Errorf("unreported item %s marked present", item.Name)
		}
		if item.Note != "not reported" {
			t.Errorf("unreported item %s note = %q", item.Name, item.Note)
		}
	}
}
