package feedback

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/pkg/query"
	"github.com/medscreen/adaudit/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "feedback_events", "f").
	Project("id", "ID").
	Project("analysis_id", "AnalysisID").
	Project("pattern_id", "PatternID").
	Project("verdict", "Verdict").
	Project("context_type", "ContextType").
	Project("department", "Department").
	Project("sample_text", "SampleText").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for feedback queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	PatternID   *string    `json:"pattern_id,omitempty"`
	Verdict     *Verdict   `json:"verdict,omitempty"`
	ContextType *string    `json:"context_type,omitempty"`
	Department  *string    `json:"department,omitempty"`
	AnalysisID  *uuid.UUID `json:"analysis_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("PatternID", f.PatternID).
		WhereEquals("Verdict", f.Verdict).
		WhereEquals("ContextType", f.ContextType).
		WhereEquals("Department", f.Department).
		WhereEquals("AnalysisID", f.AnalysisID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("pattern_id"); p != "" {
		f.PatternID = &p
	}

	if v := values.Get("verdict"); v != "" {
		if verdict, err := ParseVerdict(v); err == nil {
			f.Verdict = &verdict
		}
	}

	if c := values.Get("context_type"); c != "" {
		f.ContextType = &c
	}

	if d := values.Get("department"); d != "" {
		f.Department = &d
	}

	if a := values.Get("analysis_id"); a != "" {
		if id, err := uuid.Parse(a); err == nil {
			f.AnalysisID = &id
		}
	}

	return f
}

func scanEvent(s repository.Scanner) (Event, error) {
	var e Event
	err := s.Scan(
		&e.ID,
		&e.AnalysisID,
		&e.PatternID,
		&e.Verdict,
		&e.ContextType,
		&e.Department,
		&e.SampleText,
		&e.CreatedAt,
	)
	return e, err
}
