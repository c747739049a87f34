package learning

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/internal/feedback"
)

// Mining thresholds: a false-positive group needs this many members before
// extraction runs, and a token or structural marker must appear in this share
// of the samples to count as a signal.
const (
	minGroupSize  = 3
	signalShare   = 0.7
	maxMinedTerms = 5
)

// MinedException is the pure output of one false-positive group extraction,
// before it is upserted into a stored ExceptionCandidate.
type MinedException struct {
	PatternID        string
	ContextType      string
	ExceptionType    ExceptionType
	ExceptionPattern string
	FeedbackIDs      []uuid.UUID
	Samples          []string
}

// MineExceptions groups false-positive feedback by (pattern, context) and
// extracts a shared signal from each group of at least three samples:
// common content words first, then the negation and disclaimer structural
// sentinels as fallbacks. Groups with no extractable signal are skipped.
func MineExceptions(events []feedback.Event) []MinedException {
	type group struct {
		ids     []uuid.UUID
		samples []string
	}

	groups := make(map[[2]string]*group)
	for _, e := range events {
		if e.Verdict != feedback.VerdictFalsePositive {
			continue
		}
		if e.SampleText == nil || strings.TrimSpace(*e.SampleText) == "" {
			continue
		}

		key := [2]string{e.PatternID, ""}
		if e.ContextType != nil {
			key[1] = *e.ContextType
		}

		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.ids = append(g.ids, e.ID)
		g.samples = append(g.samples, *e.SampleText)
	}

	keys := make([][2]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	var mined []MinedException
	for _, key := range keys {
		g := groups[key]
		if len(g.samples) < minGroupSize {
			continue
		}

		kind, pattern := extractSignal(g.samples)
		if pattern == "" {
			continue
		}

		mined = append(mined, MinedException{
			PatternID:        key[0],
			ContextType:      key[1],
			ExceptionType:    kind,
			ExceptionPattern: pattern,
			FeedbackIDs:      g.ids,
			Samples:          g.samples,
		})
	}
	return mined
}

// extractSignal finds what the false-positive samples have in common:
// lexical tokens present in at least 70% of samples, else a structural
// sentinel when that share of samples carries negation or disclaimer markers.
func extractSignal(samples []string) (ExceptionType, string) {
	if terms := commonTerms(samples); len(terms) > 0 {
		return ExceptionKeyword, strings.Join(terms, "|")
	}

	threshold := int(float64(len(samples))*signalShare + 0.999)

	if countMatching(samples, negationMarkers) >= threshold {
		return ExceptionContext, SentinelNegationContext
	}
	if countMatching(samples, disclaimerMarkers) >= threshold {
		return ExceptionContext, SentinelDisclaimerContext
	}
	return "", ""
}

func commonTerms(samples []string) []string {
	counts := make(map[string]int)
	for _, sample := range samples {
		seen := make(map[string]bool)
		for _, token := range tokenize(sample) {
			if stopwords[token] || seen[token] {
				continue
			}
			seen[token] = true
			counts[token]++
		}
	}

	threshold := int(float64(len(samples))*signalShare + 0.999)

	var terms []string
	for token, n := range counts {
		if n >= threshold {
			terms = append(terms, token)
		}
	}

	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxMinedTerms {
		terms = terms[:maxMinedTerms]
	}
	return terms
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func countMatching(samples []string, markers []string) int {
	var n int
	for _, sample := range samples {
		lowered := strings.ToLower(sample)
		for _, marker := range markers {
			if strings.Contains(lowered, marker) {
				n++
				break
			}
		}
	}
	return n
}

var negationMarkers = []string{
	"not ",
	"no ",
	"never",
	"without",
	"cannot",
	"does not",
	"is not",
	"except",
	"unless",
	"n't",
}

var disclaimerMarkers = []string{
	"results may vary",
	"individual results",
	"side effects",
	"consult",
	"disclaimer",
	"not guaranteed",
	"may differ",
	"※",
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "if": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"our": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "we": true, "were": true, "will": true, "with": true,
	"you": true, "your": true,
}
