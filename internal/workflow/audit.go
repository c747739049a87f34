package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/medscreen/adaudit/internal/audit"
)

// AuditNode returns a state node that scales candidate confidences by the
// learned performance modifiers, then runs the six consensus passes. The
// engine itself stays pure; modifier lookups happen here, before it runs.
func AuditNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("audit: %w", err)
		}

		detection, err := extractDetection(s)
		if err != nil {
			return s, fmt.Errorf("audit: %w", err)
		}

		candidates := applyModifiers(ctx, rt, detection.Proposal.Violations, req.Department)

		result := rt.Engine.Audit(audit.Input{
			SourceText:     req.SourceText,
			SubjectName:    req.SubjectName,
			Candidates:     candidates,
			GrayZones:      detection.Proposal.GrayZones,
			MandatoryItems: detection.Proposal.MandatoryItems,
		})

		rt.Logger.InfoContext(
			ctx, "audit node complete",
			"original_count", result.ProposerOriginalCount,
			"final_count", result.FinalCount,
			"issues", len(result.Issues),
			"grade", result.Grade,
		)

		s = s.Set(KeyAudit, result)
		return s, nil
	})
}

// applyModifiers scales each candidate's confidence by its learned
// context and department accuracy. Modifier lookups are best-effort:
// a failed lookup leaves the candidate untouched.
func applyModifiers(
	ctx context.Context,
	rt *Runtime,
	candidates []audit.Candidate,
	department string,
) []audit.Candidate {
	out := make([]audit.Candidate, 0, len(candidates))
	for _, c := range candidates {
		contextType := string(c.SectionType)

		var dept *string
		if department != "" {
			dept = &department
		}

		factor, err := rt.Performance.Modifier(ctx, c.PatternID, &contextType, dept)
		if err != nil {
			rt.Logger.WarnContext(ctx, "modifier lookup failed",
				"pattern_id", c.PatternID,
				"error", err,
			)
			out = append(out, c)
			continue
		}

		if factor != 1.0 {
			c.Confidence = min(c.Confidence*factor, 1.0)
		}
		out = append(out, c)
	}
	return out
}

func extractDetection(s state.State) (Detection, error) {
	val, ok := s.Get(KeyDetection)
	if !ok {
		return Detection{}, fmt.Errorf("%w: missing %s in state", ErrPipelineState, KeyDetection)
	}

	detection, ok := val.(Detection)
	if !ok {
		return Detection{}, fmt.Errorf("%w: %s is not Detection", ErrPipelineState, KeyDetection)
	}

	if detection.Proposal == nil {
		return Detection{}, fmt.Errorf("%w: detection carries no proposal", ErrPipelineState)
	}

	return detection, nil
}
