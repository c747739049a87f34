package audit

import (
	"time"

	"github.com/google/uuid"
)

// Input carries everything the audit engine consumes for one run.
type Input struct {
	SourceText     string          `json:"source_text"`
	SubjectName    string          `json:"subject_name,omitempty"`
	Candidates     []Candidate     `json:"candidates"`
	GrayZones      []GrayZone      `json:"gray_zones,omitempty"`
	MandatoryItems []MandatoryItem `json:"mandatory_items,omitempty"`
}

// Result is the immutable outcome of one audit run. It is written once and
// never mutated after creation; the post-processor produces a new filtered
// violation view rather than editing this one.
type Result struct {
	ID                    uuid.UUID       `json:"id"`
	FinalViolations       []Candidate     `json:"final_violations"`
	GrayZones             []GrayZone      `json:"gray_zones"`
	MandatoryItems        []MandatoryItem `json:"mandatory_items"`
	CleanScore            float64         `json:"clean_score"`
	Grade                 Grade           `json:"grade"`
	Issues                []Issue         `json:"audit_issues"`
	ProposerOriginalCount int             `json:"proposer_original_count"`
	FinalCount            int             `json:"final_count"`
	Delta                 int             `json:"delta"`
	AuditedAt             time.Time       `json:"audited_at"`
}

// normalizeMandatoryItems folds proposer-reported checklist entries onto the
// canonical six-item list, so the archive always carries a complete checklist.
func normalizeMandatoryItems(reported []MandatoryItem) []MandatoryItem {
	byName := make(map[string]MandatoryItem, len(reported))
	for _, item := range reported {
		byName[item.Name] = item
	}

	items := make([]MandatoryItem, 0, len(MandatoryItemNames))
	for _, name := range MandatoryItemNames {
		if item, ok := byName[name]; ok {
			items = append(items, item)
			continue
		}
		items = append(items, MandatoryItem{
			Name:    name,
			Present: false,
			Note:    "not reported",
		})
	}
	return items
}
