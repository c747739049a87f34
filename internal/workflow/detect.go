package workflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/medscreen/adaudit/internal/proposer"
	"github.com/medscreen/adaudit/internal/rules"
)

// DetectNode returns a state node that runs the deterministic rule matcher
// and the generative proposer in parallel. A proposer failure fails the
// stage: the audit engine is never invoked on a missing proposal.
func DetectNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		req, err := extractRequest(s)
		if err != nil {
			return s, fmt.Errorf("detect: %w", err)
		}

		var detection Detection

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			detection.Matches = rt.Matcher.Match(req.SourceText, rules.Options{})
			return nil
		})

		g.Go(func() error {
			proposal, err := rt.Proposer.Propose(gctx, proposer.Request{
				SourceText: req.SourceText,
				Images:     req.Images,
			})
			if err != nil {
				return fmt.Errorf("proposer: %w", err)
			}
			detection.Proposal = proposal
			return nil
		})

		if err := g.Wait(); err != nil {
			return s, fmt.Errorf("detect: %w: %w", ErrDetectFailed, err)
		}

		rt.Logger.InfoContext(
			ctx, "detect node complete",
			"rule_matches", len(detection.Matches),
			"proposed_violations", len(detection.Proposal.Violations),
		)

		s = s.Set(KeyDetection, detection)
		return s, nil
	})
}
