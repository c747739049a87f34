// Package postprocess filters an audited violation set before it is
// reported: organization-name false positives, navigation-menu repeats, and
// same-pattern duplicates. Grading is recomputed through the audit engine so
// severity-penalty logic never diverges between the two.
package postprocess

import (
	"fmt"
	"strings"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/catalog"
)

// Report is the filtered, regraded view of an audit result.
type Report struct {
	Violations []audit.Candidate `json:"violations"`
	CleanScore float64           `json:"clean_score"`
	Grade      audit.Grade       `json:"grade"`
	Removed    int               `json:"removed"`
}

// Processor applies the three ordered post-audit filters.
type Processor struct {
	catalog *catalog.Catalog
	engine  *audit.Engine
}

// New creates a post-processor sharing the audit engine's scoring.
func New(c *catalog.Catalog, engine *audit.Engine) *Processor {
	return &Processor{catalog: c, engine: engine}
}

// Process filters the result's violations against the subject's registered
// name and the navigation phrase list, collapses same-pattern repeats, and
// regrades the surviving set.
func (p *Processor) Process(result audit.Result, subjectName string) Report {
	violations := p.dropSubjectNameMatches(result.FinalViolations, subjectName)
	violations = p.dropNavigationPhrases(violations)
	violations = collapseSamePattern(violations)

	score := p.engine.Score(violations)

	return Report{
		Violations: violations,
		CleanScore: score,
		Grade:      audit.GradeFor(score),
		Removed:    len(result.FinalViolations) - len(violations),
	}
}

// dropSubjectNameMatches removes violations whose matched text is a substring
// of the subject's own registered name. A clinic named for its specialty is
// not advertising that specialty.
func (p *Processor) dropSubjectNameMatches(violations []audit.Candidate, subjectName string) []audit.Candidate {
	name := strings.ToLower(strings.TrimSpace(subjectName))
	if name == "" {
		return violations
	}

	kept := make([]audit.Candidate, 0, len(violations))
	for _, v := range violations {
		matched := strings.ToLower(strings.TrimSpace(v.OriginalText))
		if matched != "" && strings.Contains(name, matched) {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func (p *Processor) dropNavigationPhrases(violations []audit.Candidate) []audit.Candidate {
	kept := make([]audit.Candidate, 0, len(violations))
	for _, v := range violations {
		if p.isNavigationPhrase(v.OriginalText) {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func (p *Processor) isNavigationPhrase(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range p.catalog.NavigationPhrases() {
		if trimmed == strings.ToLower(phrase) {
			return true
		}
	}
	return false
}

// collapseSamePattern keeps one record per pattern id, preferring the
// highest-confidence instance and annotating it with the occurrence count.
func collapseSamePattern(violations []audit.Candidate) []audit.Candidate {
	best := make(map[string]int, len(violations))
	counts := make(map[string]int, len(violations))
	order := make([]string, 0, len(violations))

	for i, v := range violations {
		counts[v.PatternID]++
		prev, seen := best[v.PatternID]
		if !seen {
			best[v.PatternID] = i
			order = append(order, v.PatternID)
			continue
		}
		if v.Confidence > violations[prev].Confidence {
			best[v.PatternID] = i
		}
	}

	out := make([]audit.Candidate, 0, len(order))
	for _, id := range order {
		v := violations[best[id]]
		if n := counts[id]; n > 1 {
			v.Reasoning = fmt.Sprintf("%s (found %d times)", v.Reasoning, n)
		}
		out = append(out, v)
	}
	return out
}
