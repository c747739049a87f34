package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/pkg/pagination"
	"github.com/medscreen/adaudit/pkg/query"
	"github.com/medscreen/adaudit/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a feedback repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "feedback"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Event], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "PatternID", "SampleText")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count feedback events: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	events, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query feedback events: %w", err)
	}

	result := pagination.NewPageResult(events, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Event, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEvent)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &e, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Event, error) {
	if cmd.PatternID == "" {
		return nil, ErrMissingPattern
	}
	if _, err := ParseVerdict(string(cmd.Verdict)); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO feedback_events(
			analysis_id, pattern_id, verdict, context_type, department, sample_text
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, analysis_id, pattern_id, verdict, context_type,
				  department, sample_text, created_at`

	args := []any{
		cmd.AnalysisID,
		cmd.PatternID,
		cmd.Verdict,
		cmd.ContextType,
		cmd.Department,
		cmd.SampleText,
	}

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Event, error) {
		return repository.QueryOne(ctx, tx, q, args, scanEvent)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}

	r.logger.Info("feedback recorded",
		"id", e.ID,
		"pattern_id", e.PatternID,
		"verdict", e.Verdict,
	)
	return &e, nil
}

// ListSince returns the full event history from the given instant forward,
// oldest first. Consumers re-aggregate from this rather than keeping
// incremental counters.
func (r *repo) ListSince(ctx context.Context, since time.Time) ([]Event, error) {
	q := `
		SELECT id, analysis_id, pattern_id, verdict, context_type,
			   department, sample_text, created_at
		FROM feedback_events
		WHERE created_at >= $1
		ORDER BY created_at ASC`

	events, err := repository.QueryMany(ctx, r.db, q, []any{since}, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query feedback window: %w", err)
	}
	return events, nil
}
