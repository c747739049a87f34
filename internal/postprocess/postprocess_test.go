package postprocess_test

import (
	"strings"
	"testing"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/postprocess"
	"github.com/medscreen/adaudit/internal/rules"
)

func newProcessor(t *testing.T) (*postprocess.Processor, *audit.Engine) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	engine := audit.New(cat, rules.NewMatcher(cat))
	return postprocess.New(cat, engine), engine
}

func violation(patternID, text string, confidence float64) audit.Candidate {
	return audit.Candidate{
		PatternID:    patternID,
		Severity:     catalog.SeverityMajor,
		OriginalText: text,
		SectionType:  catalog.SectionDefault,
		Confidence:   confidence,
		Source:       audit.SourceProposer,
	}
}

func TestProcessDropsSubjectNameMatches(t *testing.T) {
	processor, _ := newProcessor(t)

	result := audit.Result{
		FinalViolations: []audit.Candidate{
			violation("P-02-01-001", "Sunrise", 0.9),
			violation("P-06-01-001", "risk permanent damage", 0.9),
		},
	}

	report := processor.Process(result, "Sunrise Dermatology Clinic")

	if len(report.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(report.Violations))
	}
	if report.Violations[0].PatternID != "P-06-01-001" {
		t.Errorf("kept %s, want P-06-01-001", report.Violations[0].PatternID)
	}
	if report.Removed != 1 {
		t.Errorf("Removed = %d, want 1", report.Removed)
	}
}

func TestProcessEmptySubjectNameKeepsAll(t *testing.T) {
	processor, _ := newProcessor(t)

	result := audit.Result{
		FinalViolations: []audit.Candidate{
			violation("P-06-01-001", "risk permanent damage", 0.9),
		},
	}

	report := processor.Process(result, "")
	if len(report.Violations) != 1 {
		t.Errorf("violations = %d, want 1", len(report.Violations))
	}
}

func TestProcessDropsNavigationPhrases(t *testing.T) {
	processor, _ := newProcessor(t)

	result := audit.Result{
		FinalViolations: []audit.Candidate{
			violation("P-03-02-001", "Before & After", 0.9),
			violation("P-10-02-001", " online consultation ", 0.9),
			violation("P-06-01-001", "risk permanent damage", 0.9),
		},
	}

	report := processor.Process(result, "subject")

	if len(report.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(report.Violations))
	}
	if report.Violations[0].PatternID != "P-06-01-001" {
		t.Errorf("kept %s, want P-06-01-001", report.Violations[0].PatternID)
	}
}

func TestProcessCollapsesSamePattern(t *testing.T) {
	processor, _ := newProcessor(t)

	result := audit.Result{
		FinalViolations: []audit.Candidate{
			violation("P-06-01-001", "risk permanent damage", 0.7),
			violation("P-06-01-001", "before it is too late", 0.95),
			violation("P-06-01-001", "untreated, it will spread", 0.8),
		},
	}

	report := processor.Process(result, "subject")

	if len(report.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(report.Violations))
	}

	v := report.Violations[0]
	if v.Confidence != 0.95 {
		t.Errorf("survivor confidence = %.2f, want highest 0.95", v.Confidence)
	}
	if !strings.Contains(v.Reasoning, "found 3 times") {
		t.Errorf("reasoning %q missing occurrence count", v.Reasoning)
	}
	if report.Removed != 2 {
		t.Errorf("Removed = %d, want 2", report.Removed)
	}
}

func TestProcessRegradesThroughEngine(t *testing.T) {
	processor, engine := newProcessor(t)

	kept := violation("P-06-01-001", "risk permanent damage", 1.0)
	result := audit.Result{
		FinalViolations: []audit.Candidate{
			violation("P-03-02-001", "Before & After", 1.0),
			kept,
		},
		CleanScore: 0,
		Grade:      audit.GradeF,
	}

	report := processor.Process(result, "subject")

	want := engine.Score([]audit.Candidate{kept})
	if report.CleanScore != want {
		t.Errorf("CleanScore = %.2f, want %.2f", report.CleanScore, want)
	}
	if report.Grade != audit.GradeFor(want) {
		t.Errorf("Grade = %s, want %s", report.Grade, audit.GradeFor(want))
	}
}
