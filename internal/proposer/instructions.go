package proposer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/prompts"
)

// catalogInstructions is the serialized rule set injected into every
// proposer prompt: patterns, negative terms, disclaimer rules, section
// weights, and context exceptions.
type catalogInstructions struct {
	Patterns          []catalog.Pattern          `json:"patterns"`
	NegativeTerms     []string                   `json:"negative_terms"`
	DisclaimerPhrases []string                   `json:"disclaimer_phrases"`
	SectionWeights    map[string]float64         `json:"section_weights"`
	ContextExceptions []catalog.ContextException `json:"context_exceptions"`
	MandatoryItems    []string                   `json:"mandatory_items"`
}

// ComposePrompt builds the proposer system prompt: tunable instructions,
// immutable output spec, the serialized catalog, optional prior gray-zone
// examples, and the advertisement text.
func ComposePrompt(
	ctx context.Context,
	ps prompts.System,
	stage prompts.Stage,
	cat *catalog.Catalog,
	req Request,
) (string, error) {
	instructions, err := ps.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	serialized, err := serializeCatalog(cat)
	if err != nil {
		return "", fmt.Errorf("serialize catalog: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	sb.WriteString("\n\nViolation pattern catalog:\n\n")
	sb.WriteString(serialized)

	if len(req.GrayZoneExamples) > 0 {
		examples, err := json.MarshalIndent(req.GrayZoneExamples, "", "  ")
		if err != nil {
			return "", fmt.Errorf("serialize gray-zone examples: %w", err)
		}
		sb.WriteString("\n\nPreviously reported gray zones for reference:\n\n")
		sb.Write(examples)
	}

	sb.WriteString("\n\nAdvertisement text:\n\n")
	sb.WriteString(req.SourceText)

	return sb.String(), nil
}

func serializeCatalog(cat *catalog.Catalog) (string, error) {
	weights := make(map[string]float64)
	for _, section := range []catalog.SectionType{
		catalog.SectionTreatment,
		catalog.SectionEvent,
		catalog.SectionFAQ,
		catalog.SectionReview,
		catalog.SectionDoctor,
		catalog.SectionDefault,
	} {
		weights[string(section)] = cat.SectionWeight(section)
	}

	data, err := json.MarshalIndent(catalogInstructions{
		Patterns:          cat.Patterns(),
		NegativeTerms:     cat.NegativeTerms(),
		DisclaimerPhrases: cat.DisclaimerPhrases(),
		SectionWeights:    weights,
		ContextExceptions: cat.ContextExceptions(),
		MandatoryItems:    audit.MandatoryItemNames,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}
