package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/rules"
)

// Supplementation constants: matches the rule engine adds on behalf of the
// proposer carry fixed confidences by severity.
const (
	supplementMinConfidence      = 0.7
	supplementCriticalConfidence = 0.95
	supplementMajorConfidence    = 0.85
)

// Confidence-correction floors. Corrections only ever raise a confidence.
const (
	criticalConfidenceFloor  = 0.7
	criticalConfidenceRaised = 0.85
	majorConfidenceFloor     = 0.5
	majorConfidenceRaised    = 0.70
)

// DefaultNegativeSupersetSlack is the length heuristic for "short superset"
// negative-list matching: a match at most this many characters longer than a
// negative term is treated as the term itself. Inherited as a fuzzy rule;
// tunable, not a hard law.
const DefaultNegativeSupersetSlack = 5

// Engine reconciles proposer candidates against the rule catalog through six
// ordered pure passes. Each pass produces a new candidate list and appends
// zero or more issues; no pass reads pass-specific side state.
type Engine struct {
	catalog               *catalog.Catalog
	matcher               *rules.Matcher
	negativeSupersetSlack int
}

// New creates an audit engine over the given catalog and matcher.
func New(c *catalog.Catalog, m *rules.Matcher) *Engine {
	return &Engine{
		catalog:               c,
		matcher:               m,
		negativeSupersetSlack: DefaultNegativeSupersetSlack,
	}
}

// SetNegativeSupersetSlack overrides the negative-list superset heuristic.
func (e *Engine) SetNegativeSupersetSlack(slack int) {
	e.negativeSupersetSlack = slack
}

// Audit runs the six consensus passes over the input candidates and grades
// the surviving violation set.
func (e *Engine) Audit(input Input) Result {
	violations := input.Candidates
	issues := make([]Issue, 0)

	passes := []func(string, []Candidate) ([]Candidate, []Issue){
		e.validateIdentifiers,
		e.suppressNegativeList,
		e.enforceDisclaimer,
		e.supplementMissed,
		e.correctConfidence,
		e.collapseDuplicates,
	}

	for _, pass := range passes {
		var passIssues []Issue
		violations, passIssues = pass(input.SourceText, violations)
		issues = append(issues, passIssues...)
	}

	score := e.Score(violations)
	original := len(input.Candidates)

	return Result{
		ID:                    uuid.New(),
		FinalViolations:       violations,
		GrayZones:             input.GrayZones,
		MandatoryItems:        normalizeMandatoryItems(input.MandatoryItems),
		CleanScore:            score,
		Grade:                 GradeFor(score),
		Issues:                issues,
		ProposerOriginalCount: original,
		FinalCount:            len(violations),
		Delta:                 len(violations) - original,
		AuditedAt:             time.Now(),
	}
}

// validateIdentifiers drops any candidate whose pattern id is not in the
// catalog. The proposer is free to fabricate identifiers; none survive here.
func (e *Engine) validateIdentifiers(_ string, candidates []Candidate) ([]Candidate, []Issue) {
	kept := make([]Candidate, 0, len(candidates))
	var issues []Issue

	for _, c := range candidates {
		if !e.catalog.Has(c.PatternID) {
			issues = append(issues, Issue{
				Type:        IssueFabricatedPatternID,
				Action:      ActionRemove,
				Detail:      fmt.Sprintf("pattern %s is not in the catalog", c.PatternID),
				PatternID:   c.PatternID,
				MatchedText: c.OriginalText,
			})
			continue
		}
		kept = append(kept, c)
	}

	return kept, issues
}

// suppressNegativeList drops candidates whose matched text is a negative-list
// term or a short superset of one, then drops official-certification false
// positives where a certification word co-occurs with a regulator name.
func (e *Engine) suppressNegativeList(_ string, candidates []Candidate) ([]Candidate, []Issue) {
	kept := make([]Candidate, 0, len(candidates))
	var issues []Issue

	for _, c := range candidates {
		if term, hit := e.negativeTermFor(c.OriginalText); hit {
			issues = append(issues, Issue{
				Type:        IssueNegativeList,
				Action:      ActionRemove,
				Detail:      fmt.Sprintf("matched text covers negative-list term %q", term),
				PatternID:   c.PatternID,
				MatchedText: c.OriginalText,
			})
			continue
		}

		if e.isCertificationFalsePositive(c) {
			issues = append(issues, Issue{
				Type:        IssueCertificationFalsePositive,
				Action:      ActionRemove,
				Detail:      "certification claim co-occurs with a recognized regulator name",
				PatternID:   c.PatternID,
				MatchedText: c.OriginalText,
			})
			continue
		}

		kept = append(kept, c)
	}

	return kept, issues
}

func (e *Engine) negativeTermFor(matched string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(matched))
	for _, term := range e.catalog.NegativeTerms() {
		t := strings.ToLower(term)
		if text == t {
			return term, true
		}
		if strings.Contains(text, t) && len(text)-len(t) <= e.negativeSupersetSlack {
			return term, true
		}
	}
	return "", false
}

func (e *Engine) isCertificationFalsePositive(c Candidate) bool {
	text := strings.ToLower(c.OriginalText)
	hasCertTerm := false
	for _, term := range e.catalog.CertificationTerms() {
		if strings.Contains(text, strings.ToLower(term)) {
			hasCertTerm = true
			break
		}
	}
	if !hasCertTerm {
		return false
	}

	scope := strings.ToLower(c.OriginalText + " " + c.Context)
	for _, name := range e.catalog.RegulatorNames() {
		if strings.Contains(scope, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// enforceDisclaimer downgrades every non-absolute candidate one severity step
// when the source text carries a disclaimer phrase. Candidates already
// downgraded before the audit are left alone; absolute patterns are exempt.
func (e *Engine) enforceDisclaimer(sourceText string, candidates []Candidate) ([]Candidate, []Issue) {
	if !e.catalog.ContainsDisclaimer(sourceText) {
		return candidates, nil
	}

	out := make([]Candidate, 0, len(candidates))
	var issues []Issue

	for _, c := range candidates {
		if e.catalog.IsAbsolute(c.PatternID) || alreadyDowngraded(c) {
			out = append(out, c)
			continue
		}

		downgraded := c
		downgraded.AdjustedSeverity = c.Severity.Downgrade()
		downgraded.DisclaimerPresent = true
		out = append(out, downgraded)

		issues = append(issues, Issue{
			Type:        IssueDisclaimerNotApplied,
			Action:      ActionDowngrade,
			Detail:      fmt.Sprintf("disclaimer present: %s downgraded %s → %s", c.PatternID, c.Severity, downgraded.AdjustedSeverity),
			PatternID:   c.PatternID,
			MatchedText: c.OriginalText,
		})
	}

	return out, issues
}

func alreadyDowngraded(c Candidate) bool {
	return c.AdjustedSeverity != "" && c.AdjustedSeverity.Rank() < c.Severity.Rank()
}

// supplementMissed re-runs the ground-truth matcher at critical/major
// severity and appends any match whose pattern id is absent from the
// candidate list. Supplemented entries carry fixed confidence by severity.
func (e *Engine) supplementMissed(sourceText string, candidates []Candidate) ([]Candidate, []Issue) {
	present := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		present[c.PatternID] = true
	}

	matches := e.matcher.Match(sourceText, rules.Options{
		MinSeverity:   catalog.SeverityMajor,
		MinConfidence: supplementMinConfidence,
	})

	out := candidates
	var issues []Issue

	for _, m := range matches {
		if present[m.PatternID] {
			continue
		}
		present[m.PatternID] = true

		confidence := supplementMajorConfidence
		if m.Severity == catalog.SeverityCritical {
			confidence = supplementCriticalConfidence
		}

		out = append(out, Candidate{
			PatternID:         m.PatternID,
			Category:          m.Category,
			Severity:          m.Severity,
			OriginalText:      m.MatchedText,
			Context:           m.Context,
			SectionType:       catalog.SectionDefault,
			Confidence:        confidence,
			Reasoning:         "detected by rule engine; absent from proposer output",
			DisclaimerPresent: m.DisclaimerDetected,
			Source:            SourceRuleEngine,
		})

		issues = append(issues, Issue{
			Type:        IssueProposerMissed,
			Action:      ActionAdd,
			Detail:      fmt.Sprintf("rule engine found %s (%s) missing from proposer output", m.PatternID, m.Severity),
			PatternID:   m.PatternID,
			MatchedText: m.MatchedText,
		})
	}

	return out, issues
}

// correctConfidence clamps obviously inconsistent confidences upward.
// A correction never lowers a confidence.
func (e *Engine) correctConfidence(_ string, candidates []Candidate) ([]Candidate, []Issue) {
	out := make([]Candidate, 0, len(candidates))
	var issues []Issue

	for _, c := range candidates {
		raised := 0.0
		switch c.EffectiveSeverity() {
		case catalog.SeverityCritical:
			if c.Confidence < criticalConfidenceFloor {
				raised = criticalConfidenceRaised
			}
		case catalog.SeverityMajor:
			if c.Confidence < majorConfidenceFloor {
				raised = majorConfidenceRaised
			}
		}

		if raised > c.Confidence {
			adjusted := c
			adjusted.Confidence = raised
			out = append(out, adjusted)

			issues = append(issues, Issue{
				Type:        IssueConfidenceAdjusted,
				Action:      ActionAdjust,
				Detail:      fmt.Sprintf("%s confidence raised %.2f → %.2f for %s severity", c.PatternID, c.Confidence, raised, c.EffectiveSeverity()),
				PatternID:   c.PatternID,
				MatchedText: c.OriginalText,
			})
			continue
		}

		out = append(out, c)
	}

	return out, issues
}

// collapseDuplicates groups candidates by (pattern id, trimmed original text)
// and keeps the highest-confidence member of each group.
func (e *Engine) collapseDuplicates(_ string, candidates []Candidate) ([]Candidate, []Issue) {
	type key struct {
		patternID string
		text      string
	}

	best := make(map[key]int, len(candidates))
	order := make([]key, 0, len(candidates))
	var issues []Issue

	for i, c := range candidates {
		k := key{c.PatternID, strings.TrimSpace(c.OriginalText)}
		prev, seen := best[k]
		if !seen {
			best[k] = i
			order = append(order, k)
			continue
		}

		discard := i
		if candidates[i].Confidence > candidates[prev].Confidence {
			discard = prev
			best[k] = i
		}

		issues = append(issues, Issue{
			Type:        IssueDuplicateViolation,
			Action:      ActionRemove,
			Detail:      fmt.Sprintf("duplicate of %s dropped (confidence %.2f)", c.PatternID, candidates[discard].Confidence),
			PatternID:   c.PatternID,
			MatchedText: candidates[discard].OriginalText,
		})
	}

	out := make([]Candidate, 0, len(order))
	for _, k := range order {
		out = append(out, candidates[best[k]])
	}

	return out, issues
}
