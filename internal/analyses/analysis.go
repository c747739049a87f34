// Package analyses implements the analysis archive domain: running the audit
// workflow for an advertisement and storing the completed result. The report
// is the product; archival is best-effort telemetry and never fails a run.
package analyses

import (
	"time"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/workflow"
)

// Analysis represents a stored analysis run. The full workflow result is
// archived verbatim alongside flattened columns for querying.
type Analysis struct {
	ID           uuid.UUID        `json:"id"`
	SubjectName  string           `json:"subject_name"`
	Department   *string          `json:"department,omitempty"`
	SourceText   string           `json:"source_text"`
	Grade        audit.Grade      `json:"grade"`
	CleanScore   float64          `json:"clean_score"`
	FinalCount   int              `json:"final_count"`
	Result       *workflow.Result `json:"result,omitempty"`
	ModelName    string           `json:"model_name"`
	ProviderName string           `json:"provider_name"`
	AnalyzedAt   time.Time        `json:"analyzed_at"`
	Archived     bool             `json:"archived"`
}

// AnalyzeCommand carries one advertisement into the analysis pipeline.
type AnalyzeCommand struct {
	SourceText  string   `json:"source_text"`
	SubjectName string   `json:"subject_name,omitempty"`
	Department  string   `json:"department,omitempty"`
	Images      []string `json:"images,omitempty"`
}
