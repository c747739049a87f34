package workflow

import (
	"log/slog"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/performance"
	"github.com/medscreen/adaudit/internal/postprocess"
	"github.com/medscreen/adaudit/internal/proposer"
	"github.com/medscreen/adaudit/internal/rules"
)

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Matcher     *rules.Matcher
	Engine      *audit.Engine
	Processor   *postprocess.Processor
	Proposer    proposer.System
	Performance performance.System
	Logger      *slog.Logger
}
