package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/pkg/pagination"
)

// System defines the public contract for feedback domain operations.
// ListSince feeds the re-aggregating consumers (performance tracker and
// learning miner) the full event history for a trailing window.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Event], error)

	Find(ctx context.Context, id uuid.UUID) (*Event, error)
	Create(ctx context.Context, cmd CreateCommand) (*Event, error)
	ListSince(ctx context.Context, since time.Time) ([]Event, error)
}
