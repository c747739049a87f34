package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/medscreen/adaudit/internal/audit"
	"github.com/medscreen/adaudit/internal/catalog"
	"github.com/medscreen/adaudit/internal/performance"
	"github.com/medscreen/adaudit/internal/postprocess"
	"github.com/medscreen/adaudit/internal/proposer"
	"github.com/medscreen/adaudit/internal/rules"
	"github.com/medscreen/adaudit/internal/workflow"
	"github.com/medscreen/adaudit/pkg/pagination"
	"github.com/medscreen/adaudit/pkg/query"
	"github.com/medscreen/adaudit/pkg/repository"
)

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	agent      gaconfig.AgentConfig
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an analysis repository implementing the System interface.
// It internally constructs the workflow runtime from the provided dependencies.
func New(
	db *sql.DB,
	agent gaconfig.AgentConfig,
	logger *slog.Logger,
	pagination pagination.Config,
	cat *catalog.Catalog,
	prop proposer.System,
	perf performance.System,
	negativeSupersetSlack int,
) System {
	matcher := rules.NewMatcher(cat)
	engine := audit.New(cat, matcher)
	engine.SetNegativeSupersetSlack(negativeSupersetSlack)

	rt := &workflow.Runtime{
		Matcher:     matcher,
		Engine:      engine,
		Processor:   postprocess.New(cat, engine),
		Proposer:    prop,
		Performance: perf,
		Logger:      logger.With("workflow", "analyze"),
	}

	return &repo{
		db:         db,
		rt:         rt,
		agent:      agent,
		logger:     logger.With("system", "analyses"),
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
) (*pagination.PageResult[Analysis], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "SubjectName", "SourceText")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAnalysis)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnalysis)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

// Analyze runs the full pipeline and archives the result. The report is the
// product: an archival failure is logged and the analysis is still returned,
// marked unarchived.
func (r *repo) Analyze(ctx context.Context, cmd AnalyzeCommand) (*Analysis, error) {
	if strings.TrimSpace(cmd.SourceText) == "" {
		return nil, ErrEmptySource
	}

	result, err := workflow.Execute(ctx, r.rt, workflow.Request{
		SourceText:  cmd.SourceText,
		SubjectName: cmd.SubjectName,
		Department:  cmd.Department,
		Images:      cmd.Images,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFail, err)
	}

	a := &Analysis{
		ID:           uuid.New(),
		SubjectName:  cmd.SubjectName,
		SourceText:   cmd.SourceText,
		Grade:        result.Report.Grade,
		CleanScore:   result.Report.CleanScore,
		FinalCount:   result.Audit.FinalCount,
		Result:       result,
		ModelName:    r.agent.Model.Name,
		ProviderName: r.agent.Provider.Name,
		AnalyzedAt:   time.Now(),
	}
	if cmd.Department != "" {
		a.Department = &cmd.Department
	}

	if err := r.archive(ctx, a); err != nil {
		r.logger.Error("analysis archival failed",
			"id", a.ID,
			"subject_name", a.SubjectName,
			"error", err,
		)
		return a, nil
	}
	a.Archived = true

	r.logger.Info("advertisement analyzed",
		"id", a.ID,
		"subject_name", a.SubjectName,
		"grade", a.Grade,
		"clean_score", a.CleanScore,
		"final_count", a.FinalCount,
	)
	return a, nil
}

func (r *repo) archive(ctx context.Context, a *Analysis) error {
	resultJSON, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	q := `
		INSERT INTO analyses(
			id, subject_name, department, source_text, grade, clean_score,
			final_count, result, model_name, provider_name, analyzed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q,
			a.ID, a.SubjectName, a.Department, a.SourceText, a.Grade,
			a.CleanScore, a.FinalCount, resultJSON, a.ModelName,
			a.ProviderName, a.AnalyzedAt,
		)
		return struct{}{}, err
	})
	return err
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM analyses WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("analysis deleted", "id", id)
	return nil
}
