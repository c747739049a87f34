package learning

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MappingType classifies how a learned term mapping matches input text.
type MappingType string

// Mapping rule kinds, ordered from most to least specific.
const (
	MappingExact    MappingType = "exact"
	MappingPrefix   MappingType = "prefix"
	MappingSuffix   MappingType = "suffix"
	MappingContains MappingType = "contains"
	MappingSynonym  MappingType = "synonym"
)

// MappingRule is a learned normalization from a raw procedure or treatment
// name to its canonical catalog term.
type MappingRule struct {
	ID            uuid.UUID   `json:"id"`
	SourceTerm    string      `json:"source_term"`
	CanonicalTerm string      `json:"canonical_term"`
	MappingType   MappingType `json:"mapping_type"`
	Confidence    float64     `json:"confidence"`
	CaseCount     int         `json:"case_count"`
	Status        Status      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ClassifyMapping determines the relation between a source term and its
// canonical form, with a confidence reflecting how mechanical the match is.
// Exact matches (after case and whitespace folding) score highest; synonym
// mappings, where the strings share no containment at all, score lowest and
// always require review.
func ClassifyMapping(source, canonical string) (MappingType, float64) {
	s := fold(source)
	c := fold(canonical)

	switch {
	case s == c:
		return MappingExact, 0.95
	case strings.HasPrefix(s, c) || strings.HasPrefix(c, s):
		return MappingPrefix, 0.85
	case strings.HasSuffix(s, c) || strings.HasSuffix(c, s):
		return MappingSuffix, 0.85
	case strings.Contains(s, c) || strings.Contains(c, s):
		return MappingContains, 0.75
	default:
		return MappingSynonym, 0.6
	}
}

func fold(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}
