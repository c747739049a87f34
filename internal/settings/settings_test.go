package settings

import "testing"

func TestDefaults(t *testing.T) {
	d := Defaults()

	if d.ExceptionMinOccurrences != 5 {
		t.Errorf("ExceptionMinOccurrences = %d, want 5", d.ExceptionMinOccurrences)
	}
	if d.ExceptionMinConfidence != 0.85 {
		t.Errorf("ExceptionMinConfidence = %.2f, want 0.85", d.ExceptionMinConfidence)
	}
	if d.AutoApplyConfidence != 0.95 {
		t.Errorf("AutoApplyConfidence = %.2f, want 0.95", d.AutoApplyConfidence)
	}
	if d.AccuracyThreshold != 0.8 {
		t.Errorf("AccuracyThreshold = %.2f, want 0.8", d.AccuracyThreshold)
	}
	if d.ContextModifierMinSamples != 10 {
		t.Errorf("ContextModifierMinSamples = %d, want 10", d.ContextModifierMinSamples)
	}
	if d.LearningExpiryDays != 90 {
		t.Errorf("LearningExpiryDays = %d, want 90", d.LearningExpiryDays)
	}
}

func TestValidKey(t *testing.T) {
	for _, key := range []string{
		KeyExceptionMinOccurrences,
		KeyExceptionMinConfidence,
		KeyAutoApplyConfidence,
		KeyAccuracyThreshold,
		KeyContextModifierMinSamples,
		KeyLearningExpiryDays,
	} {
		if !validKey(key) {
			t.Errorf("validKey(%s) = false", key)
		}
	}

	for _, key := range []string{"", "unknown", "Exception_Min_Occurrences"} {
		if validKey(key) {
			t.Errorf("validKey(%q) = true", key)
		}
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(Settings) bool
	}{
		{
			"int value applied",
			KeyExceptionMinOccurrences, "7",
			func(s Settings) bool { return s.ExceptionMinOccurrences == 7 },
		},
		{
			"float value applied",
			KeyAutoApplyConfidence, "0.9",
			func(s Settings) bool { return s.AutoApplyConfidence == 0.9 },
		},
		{
			"expiry applied",
			KeyLearningExpiryDays, "30",
			func(s Settings) bool { return s.LearningExpiryDays == 30 },
		},
		{
			"unparseable int ignored",
			KeyContextModifierMinSamples, "many",
			func(s Settings) bool { return s.ContextModifierMinSamples == 10 },
		},
		{
			"non-positive int ignored",
			KeyExceptionMinOccurrences, "0",
			func(s Settings) bool { return s.ExceptionMinOccurrences == 5 },
		},
		{
			"out-of-range float ignored",
			KeyAccuracyThreshold, "1.5",
			func(s Settings) bool { return s.AccuracyThreshold == 0.8 },
		},
		{
			"zero float ignored",
			KeyExceptionMinConfidence, "0",
			func(s Settings) bool { return s.ExceptionMinConfidence == 0.85 },
		},
		{
			"unknown key ignored",
			"mystery", "42",
			func(s Settings) bool { return s == Defaults() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			apply(&s, tt.key, tt.value)
			if !tt.check(s) {
				t.Errorf("apply(%s, %s) produced %+v", tt.key, tt.value, s)
			}
		})
	}
}
