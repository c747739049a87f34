package learning_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/internal/feedback"
	"github.com/medscreen/adaudit/internal/learning"
)

func fpEvent(patternID, contextType, sample string) feedback.Event {
	e := feedback.Event{
		ID:        uuid.New(),
		PatternID: patternID,
		Verdict:   feedback.VerdictFalsePositive,
	}
	if contextType != "" {
		e.ContextType = &contextType
	}
	if sample != "" {
		e.SampleText = &sample
	}
	return e
}

func TestMineExceptionsRequiresGroupSize(t *testing.T) {
	events := []feedback.Event{
		fpEvent("P-01-02-001", "faq", "laser treatment in the faq section"),
		fpEvent("P-01-02-001", "faq", "laser treatment explained for patients"),
	}

	if mined := learning.MineExceptions(events); len(mined) != 0 {
		t.Errorf("mined %d candidates from a group of two, want 0", len(mined))
	}
}

func TestMineExceptionsExtractsCommonTerms(t *testing.T) {
	events := []feedback.Event{
		fpEvent("P-01-02-001", "faq", "laser treatment described in the brochure"),
		fpEvent("P-01-02-001", "faq", "brochure mentions laser options"),
		fpEvent("P-01-02-001", "faq", "see the laser brochure for details"),
	}

	mined := learning.MineExceptions(events)
	if len(mined) != 1 {
		t.Fatalf("mined = %d, want 1", len(mined))
	}

	m := mined[0]
	if m.PatternID != "P-01-02-001" {
		t.Errorf("PatternID = %s", m.PatternID)
	}
	if m.ContextType != "faq" {
		t.Errorf("ContextType = %s", m.ContextType)
	}
	if m.ExceptionType != learning.ExceptionKeyword {
		t.Errorf("ExceptionType = %s, want keyword", m.ExceptionType)
	}

	terms := strings.Split(m.ExceptionPattern, "|")
	for _, want := range []string{"laser", "brochure"} {
		found := false
		for _, term := range terms {
			if term == want {
				found = true
			}
		}
		if !found {
			t.Errorf("pattern %q missing term %q", m.ExceptionPattern, want)
		}
	}
	if len(m.FeedbackIDs) != 3 {
		t.Errorf("FeedbackIDs = %d, want 3", len(m.FeedbackIDs))
	}
}

func TestMineExceptionsSeventyPercentShare(t *testing.T) {
	// "brochure" appears in 7 of 10 samples; the remaining tokens are unique.
	samples := []string{
		"brochure alpha0", "brochure beta0", "brochure gamma0",
		"brochure delta0", "brochure epsilon0", "brochure zeta0",
		"brochure eta0",
		"unique theta0", "unique2 iota0", "unique3 kappa0",
	}

	events := make([]feedback.Event, 0, len(samples))
	for _, s := range samples {
		events = append(events, fpEvent("P-01-02-001", "", s))
	}

	mined := learning.MineExceptions(events)
	if len(mined) != 1 {
		t.Fatalf("mined = %d, want 1", len(mined))
	}
	if mined[0].ExceptionPattern != "brochure" {
		t.Errorf("pattern = %q, want exactly the 70%% term", mined[0].ExceptionPattern)
	}
}

func TestMineExceptionsNegationSentinel(t *testing.T) {
	events := []feedback.Event{
		fpEvent("P-01-02-001", "", "alpha claims were never made"),
		fpEvent("P-01-02-001", "", "beta statement does not promise outcomes"),
		fpEvent("P-01-02-001", "", "gamma phrasing without guarantees"),
	}

	mined := learning.MineExceptions(events)
	if len(mined) != 1 {
		t.Fatalf("mined = %d, want 1", len(mined))
	}
	if mined[0].ExceptionType != learning.ExceptionContext {
		t.Errorf("ExceptionType = %s, want context", mined[0].ExceptionType)
	}
	if mined[0].ExceptionPattern != learning.SentinelNegationContext {
		t.Errorf("pattern = %q, want %q", mined[0].ExceptionPattern, learning.SentinelNegationContext)
	}
}

func TestMineExceptionsDisclaimerSentinel(t *testing.T) {
	events := []feedback.Event{
		fpEvent("P-01-03-001", "", "alpha text, results may vary"),
		fpEvent("P-01-03-001", "", "beta copy asks patients please consult first"),
		fpEvent("P-01-03-001", "", "gamma page lists side effects clearly"),
	}

	mined := learning.MineExceptions(events)
	if len(mined) != 1 {
		t.Fatalf("mined = %d, want 1", len(mined))
	}
	if mined[0].ExceptionPattern != learning.SentinelDisclaimerContext {
		t.Errorf("pattern = %q, want %q", mined[0].ExceptionPattern, learning.SentinelDisclaimerContext)
	}
}

func TestMineExceptionsSkipsGroupsWithoutSignal(t *testing.T) {
	events := []feedback.Event{
		fpEvent("P-01-02-001", "", "alpha one"),
		fpEvent("P-01-02-001", "", "beta two"),
		fpEvent("P-01-02-001", "", "gamma three"),
	}

	if mined := learning.MineExceptions(events); len(mined) != 0 {
		t.Errorf("mined = %d from signal-free samples, want 0", len(mined))
	}
}

func TestMineExceptionsIgnoresOtherVerdicts(t *testing.T) {
	sample := "laser brochure copy"
	events := []feedback.Event{
		{ID: uuid.New(), PatternID: "P-01-02-001", Verdict: feedback.VerdictTruePositive, SampleText: &sample},
		{ID: uuid.New(), PatternID: "P-01-02-001", Verdict: feedback.VerdictFalseNegative, SampleText: &sample},
		fpEvent("P-01-02-001", "", "laser brochure copy"),
		fpEvent("P-01-02-001", "", "laser brochure copy"),
	}

	if mined := learning.MineExceptions(events); len(mined) != 0 {
		t.Error("non-false-positive verdicts counted toward the group")
	}
}

func TestMineExceptionsGroupsByContext(t *testing.T) {
	events := []feedback.Event{
		fpEvent("P-01-02-001", "faq", "laser brochure one"),
		fpEvent("P-01-02-001", "faq", "laser brochure two"),
		fpEvent("P-01-02-001", "faq", "laser brochure three"),
		fpEvent("P-01-02-001", "review", "laser brochure four"),
		fpEvent("P-01-02-001", "review", "laser brochure five"),
		fpEvent("P-01-02-001", "review", "laser brochure six"),
	}

	mined := learning.MineExceptions(events)
	if len(mined) != 2 {
		t.Fatalf("mined = %d, want one per context", len(mined))
	}
	// Deterministic key order.
	if mined[0].ContextType != "faq" || mined[1].ContextType != "review" {
		t.Errorf("contexts = %s, %s", mined[0].ContextType, mined[1].ContextType)
	}
}
