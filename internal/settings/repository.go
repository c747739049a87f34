package settings

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/medscreen/adaudit/pkg/repository"
)

// System defines the public contract for learning settings.
// Current is lock-free and always returns the last loaded snapshot;
// Reload re-reads persisted values over the defaults.
type System interface {
	Handler() *Handler
	Current() Settings
	Reload(ctx context.Context) (Settings, error)
	Set(ctx context.Context, key, value string) error
}

type repo struct {
	db      *sql.DB
	logger  *slog.Logger
	current atomic.Pointer[Settings]
}

// New creates a settings repository seeded with the defaults. Callers should
// Reload once persistence is available; until then Current serves defaults.
func New(db *sql.DB, logger *slog.Logger) System {
	r := &repo{
		db:     db,
		logger: logger.With("system", "settings"),
	}
	defaults := Defaults()
	r.current.Store(&defaults)
	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Current() Settings {
	return *r.current.Load()
}

func (r *repo) Reload(ctx context.Context) (Settings, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM learning_settings")
	if err != nil {
		return r.Current(), fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	s := Defaults()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return r.Current(), fmt.Errorf("scan setting: %w", err)
		}
		apply(&s, key, value)
	}
	if err := rows.Err(); err != nil {
		return r.Current(), fmt.Errorf("read settings: %w", err)
	}

	r.current.Store(&s)
	return s, nil
}

// Set upserts one persisted setting. The new value takes effect on the next
// Reload; invalid keys are rejected.
func (r *repo) Set(ctx context.Context, key, value string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	q := `
		INSERT INTO learning_settings(key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q, key, value)
		return struct{}{}, err
	}); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}

	r.logger.Info("setting updated", "key", key, "value", value)
	return nil
}

func validKey(key string) bool {
	switch key {
	case KeyExceptionMinOccurrences,
		KeyExceptionMinConfidence,
		KeyAutoApplyConfidence,
		KeyAccuracyThreshold,
		KeyContextModifierMinSamples,
		KeyLearningExpiryDays:
		return true
	}
	return false
}

func apply(s *Settings, key, value string) {
	switch key {
	case KeyExceptionMinOccurrences:
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			s.ExceptionMinOccurrences = n
		}
	case KeyExceptionMinConfidence:
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 && f <= 1 {
			s.ExceptionMinConfidence = f
		}
	case KeyAutoApplyConfidence:
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 && f <= 1 {
			s.AutoApplyConfidence = f
		}
	case KeyAccuracyThreshold:
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 && f <= 1 {
			s.AccuracyThreshold = f
		}
	case KeyContextModifierMinSamples:
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			s.ContextModifierMinSamples = n
		}
	case KeyLearningExpiryDays:
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			s.LearningExpiryDays = n
		}
	}
}
