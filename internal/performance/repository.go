package performance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/medscreen/adaudit/internal/feedback"
	"github.com/medscreen/adaudit/internal/settings"
	"github.com/medscreen/adaudit/pkg/repository"
)

type repo struct {
	db       *sql.DB
	logger   *slog.Logger
	feedback feedback.System
	settings settings.System
}

// New creates a performance repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	fb feedback.System,
	st settings.System,
) System {
	return &repo{
		db:       db,
		logger:   logger.With("system", "performance"),
		feedback: fb,
		settings: st,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Recompute rebuilds the pattern, context, and department performance rows
// from the trailing feedback window. Each pattern's rows are written in their
// own transaction so one bad row does not abort the whole run; failures are
// logged and counted, never returned.
func (r *repo) Recompute(ctx context.Context) (*RecomputeResult, error) {
	cfg := r.settings.Current()
	since := time.Now().AddDate(0, 0, -cfg.LearningExpiryDays)

	events, err := r.feedback.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load feedback window: %w", err)
	}

	thresholds := Thresholds{
		AccuracyThreshold:  cfg.AccuracyThreshold,
		ModifierMinSamples: cfg.ContextModifierMinSamples,
	}
	patterns, contexts, departments := Aggregate(events, thresholds, time.Now().UTC())

	result := &RecomputeResult{Events: len(events)}

	for _, p := range patterns {
		if err := r.upsertPattern(ctx, p); err != nil {
			result.Failed++
			r.logger.Error("pattern performance upsert failed",
				"pattern_id", p.PatternID,
				"error", err,
			)
			continue
		}
		result.Patterns++
	}

	for _, c := range contexts {
		if err := r.upsertContext(ctx, c); err != nil {
			result.Failed++
			r.logger.Error("context performance upsert failed",
				"pattern_id", c.PatternID,
				"context_type", c.ContextType,
				"error", err,
			)
			continue
		}
		result.Contexts++
	}

	for _, d := range departments {
		if err := r.upsertDepartment(ctx, d); err != nil {
			result.Failed++
			r.logger.Error("department performance upsert failed",
				"pattern_id", d.PatternID,
				"department", d.Department,
				"error", err,
			)
			continue
		}
		result.Departments++
	}

	r.logger.Info("performance recomputed",
		"events", result.Events,
		"patterns", result.Patterns,
		"contexts", result.Contexts,
		"departments", result.Departments,
		"failed", result.Failed,
	)
	return result, nil
}

func (r *repo) upsertPattern(ctx context.Context, p PatternPerformance) error {
	q := `
		INSERT INTO pattern_performance(
			pattern_id, total_matches, true_positives, false_positives,
			false_negatives, accuracy, precision, recall, f1, is_flagged, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (pattern_id) DO UPDATE SET
			total_matches = EXCLUDED.total_matches,
			true_positives = EXCLUDED.true_positives,
			false_positives = EXCLUDED.false_positives,
			false_negatives = EXCLUDED.false_negatives,
			accuracy = EXCLUDED.accuracy,
			precision = EXCLUDED.precision,
			recall = EXCLUDED.recall,
			f1 = EXCLUDED.f1,
			is_flagged = EXCLUDED.is_flagged,
			updated_at = EXCLUDED.updated_at`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q,
			p.PatternID, p.TotalMatches, p.TruePositives, p.FalsePositives,
			p.FalseNegatives, p.Accuracy, p.Precision, p.Recall, p.F1,
			p.IsFlagged, p.UpdatedAt,
		)
		return struct{}{}, err
	})
	return err
}

func (r *repo) upsertContext(ctx context.Context, c ContextPerformance) error {
	q := `
		INSERT INTO context_performance(
			pattern_id, context_type, total_matches, true_positives,
			false_positives, false_negatives, accuracy, precision, recall, f1,
			confidence_modifier, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (pattern_id, context_type) DO UPDATE SET
			total_matches = EXCLUDED.total_matches,
			true_positives = EXCLUDED.true_positives,
			false_positives = EXCLUDED.false_positives,
			false_negatives = EXCLUDED.false_negatives,
			accuracy = EXCLUDED.accuracy,
			precision = EXCLUDED.precision,
			recall = EXCLUDED.recall,
			f1 = EXCLUDED.f1,
			confidence_modifier = EXCLUDED.confidence_modifier,
			updated_at = EXCLUDED.updated_at`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q,
			c.PatternID, c.ContextType, c.TotalMatches, c.TruePositives,
			c.FalsePositives, c.FalseNegatives, c.Accuracy, c.Precision,
			c.Recall, c.F1, c.ConfidenceModifier, c.UpdatedAt,
		)
		return struct{}{}, err
	})
	return err
}

func (r *repo) upsertDepartment(ctx context.Context, d DepartmentPerformance) error {
	q := `
		INSERT INTO department_performance(
			pattern_id, department, total_matches, true_positives,
			false_positives, false_negatives, accuracy, precision, recall, f1,
			confidence_modifier, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (pattern_id, department) DO UPDATE SET
			total_matches = EXCLUDED.total_matches,
			true_positives = EXCLUDED.true_positives,
			false_positives = EXCLUDED.false_positives,
			false_negatives = EXCLUDED.false_negatives,
			accuracy = EXCLUDED.accuracy,
			precision = EXCLUDED.precision,
			recall = EXCLUDED.recall,
			f1 = EXCLUDED.f1,
			confidence_modifier = EXCLUDED.confidence_modifier,
			updated_at = EXCLUDED.updated_at`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q,
			d.PatternID, d.Department, d.TotalMatches, d.TruePositives,
			d.FalsePositives, d.FalseNegatives, d.Accuracy, d.Precision,
			d.Recall, d.F1, d.ConfidenceModifier, d.UpdatedAt,
		)
		return struct{}{}, err
	})
	return err
}

func (r *repo) Pattern(ctx context.Context, patternID string) (*PatternPerformance, error) {
	q := `
		SELECT pattern_id, total_matches, true_positives, false_positives,
			   false_negatives, accuracy, precision, recall, f1, is_flagged, updated_at
		FROM pattern_performance
		WHERE pattern_id = $1`

	p, err := repository.QueryOne(ctx, r.db, q, []any{patternID}, scanPattern)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &p, nil
}

func (r *repo) ListPatterns(ctx context.Context) ([]PatternPerformance, error) {
	q := `
		SELECT pattern_id, total_matches, true_positives, false_positives,
			   false_negatives, accuracy, precision, recall, f1, is_flagged, updated_at
		FROM pattern_performance
		ORDER BY pattern_id`

	rows, err := repository.QueryMany(ctx, r.db, q, nil, scanPattern)
	if err != nil {
		return nil, fmt.Errorf("query pattern performance: %w", err)
	}
	return rows, nil
}

func (r *repo) Flagged(ctx context.Context) ([]PatternPerformance, error) {
	q := `
		SELECT pattern_id, total_matches, true_positives, false_positives,
			   false_negatives, accuracy, precision, recall, f1, is_flagged, updated_at
		FROM pattern_performance
		WHERE is_flagged
		ORDER BY accuracy ASC`

	rows, err := repository.QueryMany(ctx, r.db, q, nil, scanPattern)
	if err != nil {
		return nil, fmt.Errorf("query flagged patterns: %w", err)
	}
	return rows, nil
}

// Modifier combines the context modifier, department modifier, and the
// global accuracy penalty for one detection. Missing rows contribute the
// neutral factor.
func (r *repo) Modifier(
	ctx context.Context,
	patternID string,
	contextType, department *string,
) (float64, error) {
	factor := 1.0

	pattern, err := r.Pattern(ctx, patternID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 1.0, err
	}
	factor *= GlobalPenalty(pattern)

	if contextType != nil && *contextType != "" {
		m, err := r.lookupModifier(ctx,
			`SELECT confidence_modifier FROM context_performance
			 WHERE pattern_id = $1 AND context_type = $2`,
			patternID, *contextType)
		if err != nil {
			return 1.0, err
		}
		factor *= m
	}

	if department != nil && *department != "" {
		m, err := r.lookupModifier(ctx,
			`SELECT confidence_modifier FROM department_performance
			 WHERE pattern_id = $1 AND department = $2`,
			patternID, *department)
		if err != nil {
			return 1.0, err
		}
		factor *= m
	}

	return factor, nil
}

func (r *repo) lookupModifier(ctx context.Context, q string, args ...any) (float64, error) {
	var m float64
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&m)
	if errors.Is(err, sql.ErrNoRows) {
		return 1.0, nil
	}
	if err != nil {
		return 1.0, fmt.Errorf("query confidence modifier: %w", err)
	}
	return m, nil
}

func scanPattern(s repository.Scanner) (PatternPerformance, error) {
	var p PatternPerformance
	err := s.Scan(
		&p.PatternID,
		&p.TotalMatches,
		&p.TruePositives,
		&p.FalsePositives,
		&p.FalseNegatives,
		&p.Accuracy,
		&p.Precision,
		&p.Recall,
		&p.F1,
		&p.IsFlagged,
		&p.UpdatedAt,
	)
	return p, err
}
