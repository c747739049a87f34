package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the immutable rule set loaded once per process lifetime.
// All accessors are safe for concurrent use; nothing mutates a Catalog
// after Load returns it.
type Catalog struct {
	patterns           []Pattern
	index              map[string]int
	absolute           map[string]bool
	negativeTerms      []string
	disclaimerPhrases  []string
	certificationTerms []string
	regulatorNames     []string
	navigationPhrases  []string
	sectionWeights     map[SectionType]float64
	contextExceptions  []ContextException
}

type catalogData struct {
	Patterns           []Pattern          `json:"patterns"`
	AbsolutePatternIDs []string           `json:"absolute_pattern_ids"`
	NegativeTerms      []string           `json:"negative_terms"`
	DisclaimerPhrases  []string           `json:"disclaimer_phrases"`
	CertificationTerms []string           `json:"certification_terms"`
	RegulatorNames     []string           `json:"regulator_names"`
	NavigationPhrases  []string           `json:"navigation_phrases"`
	SectionWeights     map[string]float64 `json:"section_weights"`
	ContextExceptions  []ContextException `json:"context_exceptions"`
}

func build(data catalogData) (*Catalog, error) {
	if len(data.Patterns) == 0 {
		return nil, fmt.Errorf("%w: no patterns", ErrInvalidCatalog)
	}

	index := make(map[string]int, len(data.Patterns))
	for i, p := range data.Patterns {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: pattern %d missing id", ErrInvalidCatalog, i)
		}
		if _, exists := index[p.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate pattern id %s", ErrInvalidCatalog, p.ID)
		}
		if p.Severity == SeverityLow {
			return nil, fmt.Errorf("%w: pattern %s: low is not a catalog severity", ErrInvalidCatalog, p.ID)
		}
		index[p.ID] = i
	}

	absolute := make(map[string]bool, len(data.AbsolutePatternIDs))
	for _, id := range data.AbsolutePatternIDs {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("%w: absolute id %s not in catalog", ErrInvalidCatalog, id)
		}
		absolute[id] = true
	}

	weights := make(map[SectionType]float64, len(data.SectionWeights))
	for section, weight := range data.SectionWeights {
		weights[ParseSectionType(section)] = weight
	}

	return &Catalog{
		patterns:           data.Patterns,
		index:              index,
		absolute:           absolute,
		negativeTerms:      data.NegativeTerms,
		disclaimerPhrases:  data.DisclaimerPhrases,
		certificationTerms: data.CertificationTerms,
		regulatorNames:     data.RegulatorNames,
		navigationPhrases:  data.NavigationPhrases,
		sectionWeights:     weights,
		contextExceptions:  data.ContextExceptions,
	}, nil
}

// Pattern returns the catalog entry for id.
func (c *Catalog) Pattern(id string) (Pattern, bool) {
	i, ok := c.index[id]
	if !ok {
		return Pattern{}, false
	}
	return c.patterns[i], true
}

// Has reports whether id exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// IsAbsolute reports whether a pattern's severity is never reduced by a
// disclaimer. Legal risk does not diminish just because a caveat is printed.
func (c *Catalog) IsAbsolute(id string) bool {
	return c.absolute[id]
}

// Patterns returns the full pattern list in catalog order.
func (c *Catalog) Patterns() []Pattern {
	return c.patterns
}

// Len returns the number of catalog patterns.
func (c *Catalog) Len() int {
	return len(c.patterns)
}

// NegativeTerms returns terms that must never be flagged on their own.
func (c *Catalog) NegativeTerms() []string {
	return c.negativeTerms
}

// DisclaimerPhrases returns the disclaimer-rule phrases.
func (c *Catalog) DisclaimerPhrases() []string {
	return c.disclaimerPhrases
}

// CertificationTerms returns words indicating an official-certification claim.
func (c *Catalog) CertificationTerms() []string {
	return c.certificationTerms
}

// RegulatorNames returns recognized regulator names used by the
// certification false-positive refinement.
func (c *Catalog) RegulatorNames() []string {
	return c.regulatorNames
}

// NavigationPhrases returns fixed navigation/menu phrases that the
// post-processor strips from violation sets.
func (c *Catalog) NavigationPhrases() []string {
	return c.navigationPhrases
}

// ContextExceptions returns contextual suppression rules.
func (c *Catalog) ContextExceptions() []ContextException {
	return c.contextExceptions
}

// SectionWeight returns the grading weight for a section type,
// defaulting to the default-section weight for unknown sections.
func (c *Catalog) SectionWeight(section SectionType) float64 {
	if w, ok := c.sectionWeights[section]; ok {
		return w
	}
	if w, ok := c.sectionWeights[SectionDefault]; ok {
		return w
	}
	return 1.0
}

// ContainsDisclaimer reports whether text contains any disclaimer-rule phrase.
func (c *Catalog) ContainsDisclaimer(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range c.disclaimerPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
