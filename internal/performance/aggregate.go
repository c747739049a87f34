package performance

import (
	"sort"
	"time"

	"github.com/medscreen/adaudit/internal/feedback"
)

// Aggregation parameters resolved from the settings snapshot at run time.
type Thresholds struct {
	AccuracyThreshold  float64
	ModifierMinSamples int
}

// Aggregate recomputes all performance rows from a feedback event window.
// It is a pure function: feeding the same events twice yields identical
// rows, which is what makes retry-after-partial-failure safe.
func Aggregate(events []feedback.Event, t Thresholds, now time.Time) (
	[]PatternPerformance,
	[]ContextPerformance,
	[]DepartmentPerformance,
) {
	patterns := make(map[string]*Metrics)
	contexts := make(map[[2]string]*Metrics)
	departments := make(map[[2]string]*Metrics)

	for _, e := range events {
		tally(counterFor(patterns, e.PatternID), e.Verdict)

		if e.ContextType != nil && *e.ContextType != "" {
			key := [2]string{e.PatternID, *e.ContextType}
			tally(counterFor2(contexts, key), e.Verdict)
		}

		if e.Department != nil && *e.Department != "" {
			key := [2]string{e.PatternID, *e.Department}
			tally(counterFor2(departments, key), e.Verdict)
		}
	}

	patternRows := make([]PatternPerformance, 0, len(patterns))
	for id, m := range patterns {
		m.derive()
		patternRows = append(patternRows, PatternPerformance{
			PatternID: id,
			Metrics:   *m,
			IsFlagged: m.Accuracy < t.AccuracyThreshold && m.TotalMatches >= flagMinMatches,
			UpdatedAt: now,
		})
	}
	sort.Slice(patternRows, func(i, j int) bool {
		return patternRows[i].PatternID < patternRows[j].PatternID
	})

	contextRows := make([]ContextPerformance, 0, len(contexts))
	for key, m := range contexts {
		m.derive()
		contextRows = append(contextRows, ContextPerformance{
			PatternID:          key[0],
			ContextType:        key[1],
			Metrics:            *m,
			ConfidenceModifier: modifier(m, t.ModifierMinSamples),
			UpdatedAt:          now,
		})
	}
	sort.Slice(contextRows, func(i, j int) bool {
		if contextRows[i].PatternID != contextRows[j].PatternID {
			return contextRows[i].PatternID < contextRows[j].PatternID
		}
		return contextRows[i].ContextType < contextRows[j].ContextType
	})

	departmentRows := make([]DepartmentPerformance, 0, len(departments))
	for key, m := range departments {
		m.derive()
		departmentRows = append(departmentRows, DepartmentPerformance{
			PatternID:          key[0],
			Department:         key[1],
			Metrics:            *m,
			ConfidenceModifier: modifier(m, t.ModifierMinSamples),
			UpdatedAt:          now,
		})
	}
	sort.Slice(departmentRows, func(i, j int) bool {
		if departmentRows[i].PatternID != departmentRows[j].PatternID {
			return departmentRows[i].PatternID < departmentRows[j].PatternID
		}
		return departmentRows[i].Department < departmentRows[j].Department
	})

	return patternRows, contextRows, departmentRows
}

// GlobalPenalty returns the analysis-time confidence penalty for a pattern's
// overall accuracy: ×0.5 below 0.5, ×0.8 below 0.7, otherwise 1.0.
// Patterns with no recorded outcomes carry no penalty.
func GlobalPenalty(p *PatternPerformance) float64 {
	if p == nil || p.TotalMatches == 0 {
		return 1.0
	}
	if p.Accuracy < lowAccuracyCutoff {
		return lowAccuracyPenalty
	}
	if p.Accuracy < midAccuracyCutoff {
		return midAccuracyPenalty
	}
	return 1.0
}

func counterFor(m map[string]*Metrics, key string) *Metrics {
	c, ok := m[key]
	if !ok {
		c = &Metrics{}
		m[key] = c
	}
	return c
}

func counterFor2(m map[[2]string]*Metrics, key [2]string) *Metrics {
	c, ok := m[key]
	if !ok {
		c = &Metrics{}
		m[key] = c
	}
	return c
}

func tally(m *Metrics, verdict feedback.Verdict) {
	m.TotalMatches++
	switch verdict {
	case feedback.VerdictTruePositive:
		m.TruePositives++
	case feedback.VerdictFalsePositive:
		m.FalsePositives++
	case feedback.VerdictFalseNegative:
		m.FalseNegatives++
	}
}

// derive fills the rate fields from the counters. Accuracy and precision
// share the TP/(TP+FP) definition for this feedback model.
func (m *Metrics) derive() {
	if m.TruePositives+m.FalsePositives > 0 {
		m.Accuracy = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	m.Precision = m.Accuracy

	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
}

// modifier returns the context/department confidence modifier: the measured
// accuracy once enough samples exist, otherwise the neutral 1.0 to avoid
// overfitting on sparse data.
func modifier(m *Metrics, minSamples int) float64 {
	if m.TotalMatches < minSamples {
		return 1.0
	}
	return m.Accuracy
}
