package audit

import "github.com/medscreen/adaudit/internal/catalog"

// Grade is the deterministic letter grade derived from a clean score.
type Grade string

// Valid grades, best to worst.
const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Base penalties per effective severity.
var basePenalties = map[catalog.Severity]float64{
	catalog.SeverityCritical: 20,
	catalog.SeverityMajor:    7,
	catalog.SeverityMinor:    3,
	catalog.SeverityLow:      1,
}

// Score computes the clean score for a violation set:
// clamp(100 − Σ basePenalty(effective severity) × sectionWeight × confidence, 0, 100).
// This is the single severity-penalty implementation in the repo; the
// post-processor regrades through it rather than re-counting severities.
func (e *Engine) Score(violations []Candidate) float64 {
	total := 0.0
	for _, v := range violations {
		penalty := basePenalties[v.EffectiveSeverity()]
		weight := e.catalog.SectionWeight(v.SectionType)
		total += penalty * weight * v.Confidence
	}

	score := 100 - total
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// GradeFor maps a clean score onto the grade ladder.
func GradeFor(score float64) Grade {
	switch {
	case score >= 95:
		return GradeS
	case score >= 85:
		return GradeA
	case score >= 70:
		return GradeB
	case score >= 55:
		return GradeC
	case score >= 40:
		return GradeD
	default:
		return GradeF
	}
}
