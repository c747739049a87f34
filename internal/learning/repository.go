package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

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

// New creates a learning repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	fb feedback.System,
	st settings.System,
) System {
	return &repo{
		db:       db,
		logger:   logger.With("system", "learning"),
		feedback: fb,
		settings: st,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Aggregate re-mines the trailing feedback window. Each mined candidate is
// upserted in its own transaction so one failure cannot abort the rest of
// the run; replaying a window is a no-op because upserts dedupe on source
// feedback IDs.
func (r *repo) Aggregate(ctx context.Context) (*AggregateResult, error) {
	cfg := r.settings.Current()
	since := time.Now().AddDate(0, 0, -cfg.LearningExpiryDays)

	events, err := r.feedback.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load feedback window: %w", err)
	}

	result := &AggregateResult{Events: len(events)}

	for _, m := range MineExceptions(events) {
		result.ExceptionsMined++
		updated, promoted, err := r.upsertException(ctx, m, cfg)
		if err != nil {
			result.Failed++
			r.logger.Error("exception upsert failed",
				"pattern_id", m.PatternID,
				"exception_pattern", m.ExceptionPattern,
				"error", err,
			)
			continue
		}
		if updated {
			result.ExceptionsUpdated++
		}
		if promoted {
			result.Promoted++
		}
	}

	for _, m := range MinePatterns(events) {
		result.PatternsMined++
		if err := r.upsertPatternCandidate(ctx, m); err != nil {
			result.Failed++
			r.logger.Error("pattern candidate upsert failed",
				"suggested_text", m.SuggestedText,
				"error", err,
			)
		}
	}

	r.logger.Info("learning aggregated",
		"events", result.Events,
		"exceptions_mined", result.ExceptionsMined,
		"exceptions_updated", result.ExceptionsUpdated,
		"promoted", result.Promoted,
		"patterns_mined", result.PatternsMined,
		"failed", result.Failed,
	)
	return result, nil
}

type exceptionOutcome struct {
	candidate ExceptionCandidate
	updated   bool
	promoted  bool
}

// upsertException inserts or merges one mined exception, then checks the
// promotion threshold. The row is locked for the duration so concurrent
// aggregation runs serialize on the same candidate.
func (r *repo) upsertException(
	ctx context.Context,
	m MinedException,
	cfg settings.Settings,
) (updated, promoted bool, err error) {
	out, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (exceptionOutcome, error) {
		q := `
			SELECT id, pattern_id, exception_type, exception_pattern,
				   source_feedback_ids, sample_texts, occurrence_count,
				   confidence, meets_threshold, status, created_at, updated_at
			FROM exception_candidates
			WHERE pattern_id = $1 AND exception_pattern = $2
			FOR UPDATE`

		existing, err := repository.QueryOne(ctx, tx, q,
			[]any{m.PatternID, m.ExceptionPattern}, scanException)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			return r.insertException(ctx, tx, m, cfg)
		case err != nil:
			return exceptionOutcome{}, err
		}

		changed := existing.Merge(m.FeedbackIDs, m.Samples)
		didPromote := existing.Promote(cfg.ExceptionMinOccurrences, cfg.ExceptionMinConfidence)
		if !changed && !didPromote {
			return exceptionOutcome{candidate: existing}, nil
		}

		ids, texts, err := marshalExceptionLists(existing)
		if err != nil {
			return exceptionOutcome{}, err
		}

		update := `
			UPDATE exception_candidates
			SET source_feedback_ids = $2, sample_texts = $3,
				occurrence_count = $4, confidence = $5,
				meets_threshold = $6, status = $7, updated_at = NOW()
			WHERE id = $1`

		if err := repository.ExecExpectOne(ctx, tx, update,
			existing.ID, ids, texts, existing.OccurrenceCount,
			existing.Confidence, existing.MeetsThreshold, existing.Status,
		); err != nil {
			return exceptionOutcome{}, err
		}

		return exceptionOutcome{candidate: existing, updated: true, promoted: didPromote}, nil
	})
	if err != nil {
		return false, false, err
	}

	if out.updated {
		if err := r.logException(ctx, out.candidate, cfg); err != nil {
			r.logger.Error("learning log write failed",
				"candidate_id", out.candidate.ID,
				"error", err,
			)
		}
	}
	if out.promoted {
		r.logger.Info("exception candidate promoted",
			"candidate_id", out.candidate.ID,
			"pattern_id", out.candidate.PatternID,
			"occurrences", out.candidate.OccurrenceCount,
			"confidence", out.candidate.Confidence,
		)
	}
	return out.updated, out.promoted, nil
}

func (r *repo) insertException(
	ctx context.Context,
	tx *sql.Tx,
	m MinedException,
	cfg settings.Settings,
) (exceptionOutcome, error) {
	c := ExceptionCandidate{
		PatternID:         m.PatternID,
		ExceptionType:     m.ExceptionType,
		ExceptionPattern:  m.ExceptionPattern,
		SourceFeedbackIDs: m.FeedbackIDs,
		SampleTexts:       m.Samples,
		OccurrenceCount:   len(m.FeedbackIDs),
		Confidence:        InitialConfidence(len(m.FeedbackIDs)),
		Status:            StatusCollecting,
	}
	if len(c.SampleTexts) > maxSampleTexts {
		c.SampleTexts = c.SampleTexts[len(c.SampleTexts)-maxSampleTexts:]
	}
	promoted := c.Promote(cfg.ExceptionMinOccurrences, cfg.ExceptionMinConfidence)

	ids, texts, err := marshalExceptionLists(c)
	if err != nil {
		return exceptionOutcome{}, err
	}

	q := `
		INSERT INTO exception_candidates(
			pattern_id, exception_type, exception_pattern,
			source_feedback_ids, sample_texts, occurrence_count,
			confidence, meets_threshold, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (pattern_id, exception_pattern) DO NOTHING
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, q,
		c.PatternID, c.ExceptionType, c.ExceptionPattern,
		ids, texts, c.OccurrenceCount, c.Confidence,
		c.MeetsThreshold, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the insert race; the next aggregation run merges into the
		// winner's row.
		return exceptionOutcome{}, nil
	}
	if err != nil {
		return exceptionOutcome{}, err
	}

	return exceptionOutcome{candidate: c, updated: true, promoted: promoted}, nil
}

// logException appends the exception_generated learning log entry with its
// auto-apply gate verdict.
func (r *repo) logException(ctx context.Context, c ExceptionCandidate, cfg settings.Settings) error {
	eligible, reason := Eligible(GateInput{
		LearningType:        LearningExceptionGenerated,
		ConfidenceScore:     c.Confidence,
		SourceFeedbackCount: len(c.SourceFeedbackIDs),
	}, cfg.AutoApplyConfidence)

	output, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return r.insertLog(ctx, AutoLearningLog{
		LearningType:        LearningExceptionGenerated,
		TargetType:          "exception_candidate",
		TargetID:            c.ID.String(),
		OutputData:          output,
		ConfidenceScore:     c.Confidence,
		SourceFeedbackCount: len(c.SourceFeedbackIDs),
		AutoApplyEligible:   eligible,
		EligibilityReason:   reason,
	})
}

type patternOutcome struct {
	candidate PatternCandidate
	updated   bool
}

func (r *repo) upsertPatternCandidate(ctx context.Context, m MinedPattern) error {
	cfg := r.settings.Current()

	out, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (patternOutcome, error) {
		q := `
			SELECT id, suggested_text, candidate_type, source_feedback_ids,
				   occurrence_count, confidence, status, created_at, updated_at
			FROM pattern_candidates
			WHERE suggested_text = $1
			FOR UPDATE`

		existing, err := repository.QueryOne(ctx, tx, q,
			[]any{m.SuggestedText}, scanPatternCandidate)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			return r.insertPatternCandidate(ctx, tx, m)
		case err != nil:
			return patternOutcome{}, err
		}

		var fresh int
		for _, id := range m.FeedbackIDs {
			var seen bool
			for _, have := range existing.SourceFeedbackIDs {
				if have == id {
					seen = true
					break
				}
			}
			if !seen {
				existing.SourceFeedbackIDs = append(existing.SourceFeedbackIDs, id)
				fresh++
			}
		}
		if fresh == 0 {
			return patternOutcome{candidate: existing}, nil
		}

		existing.OccurrenceCount += fresh
		existing.Confidence = PatternConfidence(existing.OccurrenceCount)

		ids, err := json.Marshal(existing.SourceFeedbackIDs)
		if err != nil {
			return patternOutcome{}, err
		}

		update := `
			UPDATE pattern_candidates
			SET source_feedback_ids = $2, occurrence_count = $3,
				confidence = $4, updated_at = NOW()
			WHERE id = $1`

		if err := repository.ExecExpectOne(ctx, tx, update,
			existing.ID, ids, existing.OccurrenceCount, existing.Confidence,
		); err != nil {
			return patternOutcome{}, err
		}

		return patternOutcome{candidate: existing, updated: true}, nil
	})
	if err != nil {
		return err
	}

	if out.updated {
		if err := r.logPatternCandidate(ctx, out.candidate, cfg); err != nil {
			r.logger.Error("learning log write failed",
				"candidate_id", out.candidate.ID,
				"error", err,
			)
		}
	}
	return nil
}

func (r *repo) insertPatternCandidate(
	ctx context.Context,
	tx *sql.Tx,
	m MinedPattern,
) (patternOutcome, error) {
	c := PatternCandidate{
		SuggestedText:     m.SuggestedText,
		CandidateType:     m.CandidateType,
		SourceFeedbackIDs: m.FeedbackIDs,
		OccurrenceCount:   len(m.FeedbackIDs),
		Confidence:        PatternConfidence(len(m.FeedbackIDs)),
		Status:            StatusPendingReview,
	}

	ids, err := json.Marshal(c.SourceFeedbackIDs)
	if err != nil {
		return patternOutcome{}, err
	}

	q := `
		INSERT INTO pattern_candidates(
			suggested_text, candidate_type, source_feedback_ids,
			occurrence_count, confidence, status
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (suggested_text) DO NOTHING
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, q,
		c.SuggestedText, c.CandidateType, ids,
		c.OccurrenceCount, c.Confidence, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return patternOutcome{}, nil
	}
	if err != nil {
		return patternOutcome{}, err
	}

	return patternOutcome{candidate: c, updated: true}, nil
}

func (r *repo) logPatternCandidate(ctx context.Context, c PatternCandidate, cfg settings.Settings) error {
	eligible, reason := Eligible(GateInput{
		LearningType:        LearningPatternSuggested,
		ConfidenceScore:     c.Confidence,
		SourceFeedbackCount: len(c.SourceFeedbackIDs),
	}, cfg.AutoApplyConfidence)

	output, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return r.insertLog(ctx, AutoLearningLog{
		LearningType:        LearningPatternSuggested,
		TargetType:          "pattern_candidate",
		TargetID:            c.ID.String(),
		OutputData:          output,
		ConfidenceScore:     c.Confidence,
		SourceFeedbackCount: len(c.SourceFeedbackIDs),
		AutoApplyEligible:   eligible,
		EligibilityReason:   reason,
	})
}

// RecordMapping classifies and upserts one approved procedure-name mapping,
// accumulating corroborating cases across calls.
func (r *repo) RecordMapping(ctx context.Context, source, canonical string) (*MappingRule, error) {
	kind, confidence := ClassifyMapping(source, canonical)
	cfg := r.settings.Current()

	q := `
		INSERT INTO mapping_rules(
			source_term, canonical_term, mapping_type, confidence, case_count, status
		)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (source_term, canonical_term) DO UPDATE SET
			case_count = mapping_rules.case_count + 1,
			confidence = EXCLUDED.confidence,
			updated_at = NOW()
		RETURNING id, source_term, canonical_term, mapping_type, confidence,
				  case_count, status, created_at, updated_at`

	rule, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (MappingRule, error) {
		return repository.QueryOne(ctx, tx, q,
			[]any{source, canonical, kind, confidence, StatusPendingReview},
			scanMappingRule)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert mapping rule: %w", err)
	}

	eligible, reason := Eligible(GateInput{
		LearningType:        LearningMappingLearned,
		ConfidenceScore:     rule.Confidence,
		SourceFeedbackCount: rule.CaseCount,
		MappingCaseCount:    rule.CaseCount,
	}, cfg.AutoApplyConfidence)

	output, merr := json.Marshal(rule)
	if merr == nil {
		if err := r.insertLog(ctx, AutoLearningLog{
			LearningType:        LearningMappingLearned,
			TargetType:          "mapping_rule",
			TargetID:            rule.ID.String(),
			OutputData:          output,
			ConfidenceScore:     rule.Confidence,
			SourceFeedbackCount: rule.CaseCount,
			AutoApplyEligible:   eligible,
			EligibilityReason:   reason,
		}); err != nil {
			r.logger.Error("learning log write failed", "rule_id", rule.ID, "error", err)
		}
	}

	return &rule, nil
}

func (r *repo) insertLog(ctx context.Context, entry AutoLearningLog) error {
	q := `
		INSERT INTO auto_learning_logs(
			learning_type, target_type, target_id, input_data, output_data,
			confidence_score, source_feedback_count, auto_apply_eligible,
			eligibility_reason, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, q,
		entry.LearningType, entry.TargetType, entry.TargetID,
		nullableJSON(entry.InputData), nullableJSON(entry.OutputData),
		entry.ConfidenceScore, entry.SourceFeedbackCount,
		entry.AutoApplyEligible, entry.EligibilityReason, LogPending,
	)
	return err
}

func (r *repo) ListExceptions(ctx context.Context, status *Status) ([]ExceptionCandidate, error) {
	q := `
		SELECT id, pattern_id, exception_type, exception_pattern,
			   source_feedback_ids, sample_texts, occurrence_count,
			   confidence, meets_threshold, status, created_at, updated_at
		FROM exception_candidates`
	var args []any
	if status != nil {
		q += " WHERE status = $1"
		args = append(args, *status)
	}
	q += " ORDER BY updated_at DESC"

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanException)
	if err != nil {
		return nil, fmt.Errorf("query exception candidates: %w", err)
	}
	return rows, nil
}

func (r *repo) FindException(ctx context.Context, id uuid.UUID) (*ExceptionCandidate, error) {
	q := `
		SELECT id, pattern_id, exception_type, exception_pattern,
			   source_feedback_ids, sample_texts, occurrence_count,
			   confidence, meets_threshold, status, created_at, updated_at
		FROM exception_candidates
		WHERE id = $1`

	c, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanException)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &c, nil
}

func (r *repo) ApproveException(ctx context.Context, id uuid.UUID) (*ExceptionCandidate, error) {
	return r.review(ctx, id, (*ExceptionCandidate).Approve)
}

func (r *repo) RejectException(ctx context.Context, id uuid.UUID) (*ExceptionCandidate, error) {
	return r.review(ctx, id, (*ExceptionCandidate).Reject)
}

// review applies a guarded status transition under a row lock so concurrent
// reviewers cannot race the state machine. Repeat application of the same
// decision is a safe no-op.
func (r *repo) review(
	ctx context.Context,
	id uuid.UUID,
	transition func(*ExceptionCandidate) error,
) (*ExceptionCandidate, error) {
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ExceptionCandidate, error) {
		q := `
			SELECT id, pattern_id, exception_type, exception_pattern,
				   source_feedback_ids, sample_texts, occurrence_count,
				   confidence, meets_threshold, status, created_at, updated_at
			FROM exception_candidates
			WHERE id = $1
			FOR UPDATE`

		c, err := repository.QueryOne(ctx, tx, q, []any{id}, scanException)
		if err != nil {
			return ExceptionCandidate{}, err
		}

		prior := c.Status
		if err := transition(&c); err != nil {
			return ExceptionCandidate{}, err
		}
		if c.Status == prior {
			return c, nil
		}

		update := `UPDATE exception_candidates SET status = $2, updated_at = NOW() WHERE id = $1`
		if err := repository.ExecExpectOne(ctx, tx, update, c.ID, c.Status); err != nil {
			return ExceptionCandidate{}, err
		}
		return c, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}

	r.logger.Info("exception candidate reviewed", "id", c.ID, "status", c.Status)
	return &c, nil
}

func (r *repo) ListPatternCandidates(ctx context.Context) ([]PatternCandidate, error) {
	q := `
		SELECT id, suggested_text, candidate_type, source_feedback_ids,
			   occurrence_count, confidence, status, created_at, updated_at
		FROM pattern_candidates
		ORDER BY occurrence_count DESC, updated_at DESC`

	rows, err := repository.QueryMany(ctx, r.db, q, nil, scanPatternCandidate)
	if err != nil {
		return nil, fmt.Errorf("query pattern candidates: %w", err)
	}
	return rows, nil
}

func (r *repo) ListLogs(ctx context.Context, status *LogStatus) ([]AutoLearningLog, error) {
	q := `
		SELECT id, learning_type, target_type, target_id, input_data,
			   output_data, confidence_score, source_feedback_count,
			   auto_apply_eligible, eligibility_reason, status, created_at
		FROM auto_learning_logs`
	var args []any
	if status != nil {
		q += " WHERE status = $1"
		args = append(args, *status)
	}
	q += " ORDER BY created_at DESC"

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanLog)
	if err != nil {
		return nil, fmt.Errorf("query learning logs: %w", err)
	}
	return rows, nil
}

func marshalExceptionLists(c ExceptionCandidate) (ids, texts []byte, err error) {
	ids, err = json.Marshal(c.SourceFeedbackIDs)
	if err != nil {
		return nil, nil, err
	}
	texts, err = json.Marshal(c.SampleTexts)
	if err != nil {
		return nil, nil, err
	}
	return ids, texts, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func scanException(s repository.Scanner) (ExceptionCandidate, error) {
	var (
		c     ExceptionCandidate
		ids   []byte
		texts []byte
	)
	if err := s.Scan(
		&c.ID,
		&c.PatternID,
		&c.ExceptionType,
		&c.ExceptionPattern,
		&ids,
		&texts,
		&c.OccurrenceCount,
		&c.Confidence,
		&c.MeetsThreshold,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return ExceptionCandidate{}, err
	}
	if err := json.Unmarshal(ids, &c.SourceFeedbackIDs); err != nil {
		return ExceptionCandidate{}, err
	}
	if err := json.Unmarshal(texts, &c.SampleTexts); err != nil {
		return ExceptionCandidate{}, err
	}
	return c, nil
}

func scanPatternCandidate(s repository.Scanner) (PatternCandidate, error) {
	var (
		c   PatternCandidate
		ids []byte
	)
	if err := s.Scan(
		&c.ID,
		&c.SuggestedText,
		&c.CandidateType,
		&ids,
		&c.OccurrenceCount,
		&c.Confidence,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return PatternCandidate{}, err
	}
	if err := json.Unmarshal(ids, &c.SourceFeedbackIDs); err != nil {
		return PatternCandidate{}, err
	}
	return c, nil
}

func scanMappingRule(s repository.Scanner) (MappingRule, error) {
	var rule MappingRule
	err := s.Scan(
		&rule.ID,
		&rule.SourceTerm,
		&rule.CanonicalTerm,
		&rule.MappingType,
		&rule.Confidence,
		&rule.CaseCount,
		&rule.Status,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	return rule, err
}

func scanLog(s repository.Scanner) (AutoLearningLog, error) {
	var (
		entry  AutoLearningLog
		input  sql.Null[[]byte]
		output sql.Null[[]byte]
	)
	if err := s.Scan(
		&entry.ID,
		&entry.LearningType,
		&entry.TargetType,
		&entry.TargetID,
		&input,
		&output,
		&entry.ConfidenceScore,
		&entry.SourceFeedbackCount,
		&entry.AutoApplyEligible,
		&entry.EligibilityReason,
		&entry.Status,
		&entry.CreatedAt,
	); err != nil {
		return AutoLearningLog{}, err
	}
	if input.Valid {
		entry.InputData = input.V
	}
	if output.Valid {
		entry.OutputData = output.V
	}
	return entry, nil
}
