// Package proposer implements the client for the generative violation
// classifier. Its output is structurally typed but semantically unreliable;
// everything it returns passes through the audit engine before trust.
package proposer

import (
	"context"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/catalog"
)

// Request carries one advertisement to the proposer. Images are optional
// page-capture data URIs for advertisements rendered as images.
type Request struct {
	SourceText string   `json:"source_text"`
	Images     []string `json:"images,omitempty"`

	// GrayZoneExamples are prior gray-zone excerpts injected as few-shot
	// guidance for evasion-pattern reporting.
	GrayZoneExamples []audit.GrayZone `json:"gray_zone_examples,omitempty"`
}

// Output is the proposer's candidate result: advertisement sections,
// candidate violations, gray-zone evasion reports, and the
// mandatory-disclosure checklist.
type Output struct {
	Sections       []Section             `json:"sections"`
	Violations     []audit.Candidate     `json:"violations"`
	GrayZones      []audit.GrayZone      `json:"gray_zones"`
	MandatoryItems []audit.MandatoryItem `json:"mandatory_items"`
}

// Section is one classified region of the advertisement.
type Section struct {
	SectionType catalog.SectionType `json:"section_type"`
	Excerpt     string              `json:"excerpt"`
}

// System is the proposer contract consumed by the analysis workflow.
// Implementations must bound the call with a timeout and retry at most
// once, with stricter output-format instructions on the retry.
type System interface {
	Propose(ctx context.Context, req Request) (*Output, error)
}
