package proposer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/prompts"
	"github.com/medscreen/adaudit/pkg/formatting"
)

type client struct {
	agent   gaconfig.AgentConfig
	prompts prompts.System
	catalog *catalog.Catalog
	timeout time.Duration
	logger  *slog.Logger
}

// New creates the agent-backed proposer client. Each Propose call creates
// its own agent, so the client is safe for concurrent use.
func New(
	agentCfg gaconfig.AgentConfig,
	ps prompts.System,
	cat *catalog.Catalog,
	timeout time.Duration,
	logger *slog.Logger,
) System {
	return &client{
		agent:   agentCfg,
		prompts: ps,
		catalog: cat,
		timeout: timeout,
		logger:  logger.With("system", "proposer"),
	}
}

// Propose sends the advertisement to the classifier and parses its response.
// A failed attempt is retried exactly once with the strict-format stage; the
// retry's error is the one surfaced.
func (c *client) Propose(ctx context.Context, req Request) (*Output, error) {
	out, err := c.attempt(ctx, prompts.StagePropose, req)
	if err == nil {
		return out, nil
	}

	c.logger.WarnContext(ctx, "proposer attempt failed, retrying strict",
		"error", err,
	)

	out, err = c.attempt(ctx, prompts.StageStrict, req)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) attempt(ctx context.Context, stage prompts.Stage, req Request) (*Output, error) {
	prompt, err := ComposePrompt(ctx, c.prompts, stage, c.catalog, req)
	if err != nil {
		return nil, fmt.Errorf("compose prompt: %w", err)
	}

	a, err := agent.New(&c.agent)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string
	if len(req.Images) > 0 {
		resp, err := a.Vision(callCtx, prompt, req.Images)
		if err != nil {
			return nil, mapCallError(err)
		}
		content = resp.Content()
	} else {
		resp, err := a.Chat(callCtx, prompt)
		if err != nil {
			return nil, mapCallError(err)
		}
		content = resp.Content()
	}

	raw, err := formatting.ParseRepaired[rawOutput](content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	out := raw.normalize(len(req.Images) > 0)
	c.logger.InfoContext(ctx, "proposer responded",
		"stage", stage,
		"violations", len(out.Violations),
		"gray_zones", len(out.GrayZones),
	)
	return out, nil
}

func mapCallError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("proposer call: %w", err)
}

// rawOutput mirrors Output with unvalidated field types. The proposer may
// emit unknown severities or section labels; parsing must not fail on them.
type rawOutput struct {
	Sections []struct {
		SectionType string `json:"section_type"`
		Excerpt     string `json:"excerpt"`
	} `json:"sections"`
	Violations []struct {
		PatternID         string  `json:"pattern_id"`
		Category          string  `json:"category"`
		Severity          string  `json:"severity"`
		OriginalText      string  `json:"original_text"`
		Context           string  `json:"context"`
		SectionType       string  `json:"section_type"`
		Confidence        float64 `json:"confidence"`
		Reasoning         string  `json:"reasoning"`
		FromImage         bool    `json:"from_image"`
		DisclaimerPresent bool    `json:"disclaimer_present"`
	} `json:"violations"`
	GrayZones      []audit.GrayZone      `json:"gray_zones"`
	MandatoryItems []audit.MandatoryItem `json:"mandatory_items"`
}

func (r rawOutput) normalize(fromImages bool) *Output {
	out := &Output{
		Sections:       make([]Section, 0, len(r.Sections)),
		Violations:     make([]audit.Candidate, 0, len(r.Violations)),
		GrayZones:      r.GrayZones,
		MandatoryItems: r.MandatoryItems,
	}

	for _, s := range r.Sections {
		out.Sections = append(out.Sections, Section{
			SectionType: catalog.ParseSectionType(s.SectionType),
			Excerpt:     s.Excerpt,
		})
	}

	for _, v := range r.Violations {
		severity, err := catalog.ParseSeverity(v.Severity)
		if err != nil || severity == catalog.SeverityLow {
			severity = catalog.SeverityMinor
		}

		out.Violations = append(out.Violations, audit.Candidate{
			PatternID:         v.PatternID,
			Category:          v.Category,
			Severity:          severity,
			OriginalText:      v.OriginalText,
			Context:           v.Context,
			SectionType:       catalog.ParseSectionType(v.SectionType),
			Confidence:        clamp01(v.Confidence),
			Reasoning:         v.Reasoning,
			FromImage:         v.FromImage || fromImages,
			DisclaimerPresent: v.DisclaimerPresent,
			Source:            audit.SourceProposer,
		})
	}

	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
