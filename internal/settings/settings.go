// Package settings implements the persisted key-value configuration for the
// learning subsystem. Values live in the database, are hot-reloaded by the
// learning scheduler, and fall back to defaults for missing keys.
package settings

// Keys of the persisted learning settings.
const (
	KeyExceptionMinOccurrences   = "exception_min_occurrences"
	KeyExceptionMinConfidence    = "exception_min_confidence"
	KeyAutoApplyConfidence       = "auto_apply_confidence"
	KeyAccuracyThreshold         = "accuracy_threshold"
	KeyContextModifierMinSamples = "context_modifier_min_samples"
	KeyLearningExpiryDays        = "learning_expiry_days"
)

// Settings is a snapshot of the learning thresholds. Snapshots are immutable;
// Reload produces a new value rather than mutating a shared one.
type Settings struct {
	ExceptionMinOccurrences   int     `json:"exception_min_occurrences"`
	ExceptionMinConfidence    float64 `json:"exception_min_confidence"`
	AutoApplyConfidence       float64 `json:"auto_apply_confidence"`
	AccuracyThreshold         float64 `json:"accuracy_threshold"`
	ContextModifierMinSamples int     `json:"context_modifier_min_samples"`
	LearningExpiryDays        int     `json:"learning_expiry_days"`
}

// Defaults returns the baseline thresholds used when no value is persisted.
func Defaults() Settings {
	return Settings{
		ExceptionMinOccurrences:   5,
		ExceptionMinConfidence:    0.85,
		AutoApplyConfidence:       0.95,
		AccuracyThreshold:         0.8,
		ContextModifierMinSamples: 10,
		LearningExpiryDays:        90,
	}
}
