package learning

import (
	"context"

	"github.com/google/uuid"
)

// AggregateResult summarizes one learning aggregation run.
type AggregateResult struct {
	Events            int `json:"events"`
	ExceptionsMined   int `json:"exceptions_mined"`
	ExceptionsUpdated int `json:"exceptions_updated"`
	Promoted          int `json:"promoted"`
	PatternsMined     int `json:"patterns_mined"`
	Failed            int `json:"failed"`
}

// System defines the public contract for the learning subsystem.
//
// Aggregate re-mines the trailing feedback window into exception and pattern
// candidates; it is idempotent, so replaying the same window changes nothing.
// Approve and Reject apply the out-of-band human review transitions.
type System interface {
	Handler() *Handler
	Aggregate(ctx context.Context) (*AggregateResult, error)
	ListExceptions(ctx context.Context, status *Status) ([]ExceptionCandidate, error)
	FindException(ctx context.Context, id uuid.UUID) (*ExceptionCandidate, error)
	ApproveException(ctx context.Context, id uuid.UUID) (*ExceptionCandidate, error)
	RejectException(ctx context.Context, id uuid.UUID) (*ExceptionCandidate, error)
	ListPatternCandidates(ctx context.Context) ([]PatternCandidate, error)
	ListLogs(ctx context.Context, status *LogStatus) ([]AutoLearningLog, error)
	RecordMapping(ctx context.Context, source, canonical string) (*MappingRule, error)
}
