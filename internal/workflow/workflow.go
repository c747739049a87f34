// Package workflow orchestrates one analysis run as a state graph:
// detect (rule matcher and proposer in parallel) → audit → postprocess →
// finalize. Nodes communicate only through the state bag, so each stage is
// independently testable.
package workflow

import (
	"context"
	"fmt"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/postprocess"
	"github.com/medscreen/adaudit/internal/proposer"
	"github.com/medscreen/adaudit/internal/rules"
)

// State bag keys.
const (
	KeyRequest   = "request"
	KeyDetection = "detection"
	KeyAudit     = "audit"
	KeyReport    = "report"
)

// Request carries one advertisement into the analysis pipeline.
type Request struct {
	SourceText  string   `json:"source_text"`
	SubjectName string   `json:"subject_name,omitempty"`
	Department  string   `json:"department,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// Detection is the combined output of the parallel detect stage.
type Detection struct {
	Matches  []rules.RuleMatch
	Proposal *proposer.Output
}

// Result is the completed pipeline output: the independent rule matches,
// the immutable audit result, and the filtered, regraded report.
type Result struct {
	RuleMatches []rules.RuleMatch  `json:"rule_matches"`
	Audit       audit.Result       `json:"audit"`
	Report      postprocess.Report `json:"report"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Execute runs the analysis workflow for a single advertisement. It builds
// the state graph (detect → audit → postprocess → finalize), executes it,
// and extracts the Result from the final state.
func Execute(ctx context.Context, rt *Runtime, req Request) (*Result, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyRequest, req)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(finalState)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("adaudit-analyze")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("detect", DetectNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("audit", AuditNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("postprocess", PostProcessNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("detect", "audit", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("audit", "postprocess", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("postprocess", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("detect"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

func extractResult(s state.State) (*Result, error) {
	auditVal, ok := s.Get(KeyAudit)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", KeyAudit)
	}

	auditResult, ok := auditVal.(audit.Result)
	if !ok {
		return nil, fmt.Errorf("%s is not audit.Result", KeyAudit)
	}

	reportVal, ok := s.Get(KeyReport)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", KeyReport)
	}

	report, ok := reportVal.(postprocess.Report)
	if !ok {
		return nil, fmt.Errorf("%s is not postprocess.Report", KeyReport)
	}

	var matches []rules.RuleMatch
	if detectVal, ok := s.Get(KeyDetection); ok {
		if detection, ok := detectVal.(Detection); ok {
			matches = detection.Matches
		}
	}

	return &Result{
		RuleMatches: matches,
		Audit:       auditResult,
		Report:      report,
		CompletedAt: time.Now(),
	}, nil
}

func extractRequest(s state.State) (Request, error) {
	val, ok := s.Get(KeyRequest)
	if !ok {
		return Request{}, fmt.Errorf("%w: missing %s in state", ErrPipelineState, KeyRequest)
	}

	req, ok := val.(Request)
	if !ok {
		return Request{}, fmt.Errorf("%w: %s is not Request", ErrPipelineState, KeyRequest)
	}

	return req, nil
}
