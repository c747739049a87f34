package analyses

import (
	"context"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/pkg/pagination"
)

// System defines the public contract for analysis domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Analysis], error)

	Find(ctx context.Context, id uuid.UUID) (*Analysis, error)
	Analyze(ctx context.Context, cmd AnalyzeCommand) (*Analysis, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
