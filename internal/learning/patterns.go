package learning

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/internal/feedback"
)

// PatternCandidateType distinguishes how a mined detection rule matches.
type PatternCandidateType string

// Pattern candidate kinds.
const (
	PatternKeyword PatternCandidateType = "keyword"
	PatternRegex   PatternCandidateType = "regex"
)

// PatternCandidate is a new detection rule mined from repeated false-negative
// feedback: text reviewers flagged as a violation that no catalog pattern
// caught. Confidence is capped at 0.8; new patterns always need review.
type PatternCandidate struct {
	ID                uuid.UUID            `json:"id"`
	SuggestedText     string               `json:"suggested_text"`
	CandidateType     PatternCandidateType `json:"candidate_type"`
	SourceFeedbackIDs []uuid.UUID          `json:"source_feedback_ids"`
	OccurrenceCount   int                  `json:"occurrence_count"`
	Confidence        float64              `json:"confidence"`
	Status            Status               `json:"status"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// PatternConfidence computes a mined pattern candidate's confidence from its
// occurrence count.
func PatternConfidence(occurrences int) float64 {
	return min(0.8, 0.4+float64(occurrences)*0.1)
}

// MinedPattern is the pure output of one false-negative group extraction.
type MinedPattern struct {
	SuggestedText string
	CandidateType PatternCandidateType
	FeedbackIDs   []uuid.UUID
}

// MinePatterns groups false-negative feedback by normalized sample text and
// turns groups of at least three into pattern candidates. Texts with
// per-sample variation (digits, measurements) become a regex candidate with
// the varying spans generalized; stable texts become a keyword candidate.
func MinePatterns(events []feedback.Event) []MinedPattern {
	type group struct {
		ids  []uuid.UUID
		text string
	}

	groups := make(map[string]*group)
	for _, e := range events {
		if e.Verdict != feedback.VerdictFalseNegative {
			continue
		}
		if e.SampleText == nil {
			continue
		}
		text := strings.TrimSpace(*e.SampleText)
		if text == "" {
			continue
		}

		key := normalizeSample(text)
		g, ok := groups[key]
		if !ok {
			g = &group{text: text}
			groups[key] = g
		}
		g.ids = append(g.ids, e.ID)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var mined []MinedPattern
	for _, key := range keys {
		g := groups[key]
		if len(g.ids) < minGroupSize {
			continue
		}

		kind := PatternKeyword
		text := g.text
		if digitRun.MatchString(text) {
			kind = PatternRegex
			text = digitRun.ReplaceAllString(regexp.QuoteMeta(text), `\d+`)
		}

		mined = append(mined, MinedPattern{
			SuggestedText: text,
			CandidateType: kind,
			FeedbackIDs:   g.ids,
		})
	}
	return mined
}

var digitRun = regexp.MustCompile(`\d+`)

// normalizeSample collapses case, whitespace, and digit runs so reports of
// the same phrasing with different figures group together.
func normalizeSample(text string) string {
	lowered := strings.ToLower(text)
	lowered = digitRun.ReplaceAllString(lowered, "0")
	return strings.Join(strings.Fields(lowered), " ")
}
