package analyses

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/medscreen/adaudit/pkg/query"
	"github.com/medscreen/adaudit/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "analyses", "a").
	Project("id", "ID").
	Project("subject_name", "SubjectName").
	Project("department", "Department").
	Project("source_text", "SourceText").
	Project("grade", "Grade").
	Project("clean_score", "CleanScore").
	Project("final_count", "FinalCount").
	Project("result", "Result").
	Project("model_name", "ModelName").
	Project("provider_name", "ProviderName").
	Project("analyzed_at", "AnalyzedAt")

var defaultSort = query.SortField{
	Field:      "AnalyzedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for analysis queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	SubjectName *string `json:"subject_name,omitempty"`
	Department  *string `json:"department,omitempty"`
	Grade       *string `json:"grade,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("SubjectName", f.SubjectName).
		WhereEquals("Department", f.Department).
		WhereEquals("Grade", f.Grade)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("subject_name"); s != "" {
		f.SubjectName = &s
	}

	if d := values.Get("department"); d != "" {
		f.Department = &d
	}

	if g := values.Get("grade"); g != "" {
		f.Grade = &g
	}

	return f
}

func scanAnalysis(s repository.Scanner) (Analysis, error) {
	var a Analysis
	var resultRaw []byte

	err := s.Scan(
		&a.ID,
		&a.SubjectName,
		&a.Department,
		&a.SourceText,
		&a.Grade,
		&a.CleanScore,
		&a.FinalCount,
		&resultRaw,
		&a.ModelName,
		&a.ProviderName,
		&a.AnalyzedAt,
	)

	if err != nil {
		return a, err
	}

	if len(resultRaw) > 0 {
		if err := json.Unmarshal(resultRaw, &a.Result); err != nil {
			return a, fmt.Errorf("unmarshal result: %w", err)
		}
	}

	a.Archived = true
	return a, nil
}
