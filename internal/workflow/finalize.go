package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/medscreen/adaudit/internal/audit"
)

// PostProcessNode returns a state node that filters the audited violation
// set (subject-name matches, navigation phrases, same-pattern repeats) and
// regrades the survivors.
func PostProcessNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("postprocess: %w", err)
		}

		auditVal, ok := s.Get(KeyAudit)
		if !ok {
			return s, fmt.Errorf("postprocess: %w: missing %s in state", ErrPipelineState, KeyAudit)
		}

		result, ok := auditVal.(audit.Result)
		if !ok {
			return s, fmt.Errorf("postprocess: %w: %s is not audit.Result", ErrPipelineState, KeyAudit)
		}

		report := rt.Processor.Process(result, req.SubjectName)

		rt.Logger.InfoContext(
			ctx, "postprocess node complete",
			"kept", len(report.Violations),
			"removed", report.Removed,
			"grade", report.Grade,
		)

		s = s.Set(KeyReport, report)
		return s, nil
	})
}

// FinalizeNode returns a state node that validates the completed state bag.
// Extraction happens after graph execution; this node only asserts the
// pipeline produced both outputs.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		if _, ok := s.Get(KeyAudit); !ok {
			return s, fmt.Errorf("finalize: %w: missing %s", ErrPipelineState, KeyAudit)
		}
		if _, ok := s.Get(KeyReport); !ok {
			return s, fmt.Errorf("finalize: %w: missing %s", ErrPipelineState, KeyReport)
		}

		rt.Logger.InfoContext(ctx, "analysis workflow complete")
		return s, nil
	})
}
