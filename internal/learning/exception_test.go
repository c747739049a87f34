package learning_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/medscreen/adaudit/internal/learning"
)

func TestInitialConfidence(t *testing.T) {
	tests := []struct {
		occurrences int
		want        float64
	}{
		{1, 0.55},
		{3, 0.65},
		{5, 0.75},
		{9, 0.95},
		{20, 0.95},
	}

	for _, tt := range tests {
		if got := learning.InitialConfidence(tt.occurrences); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("InitialConfidence(%d) = %.2f, want %.2f", tt.occurrences, got, tt.want)
		}
	}
}

func TestMergeSkipsRecordedFeedback(t *testing.T) {
	known := uuid.New()
	c := learning.ExceptionCandidate{
		SourceFeedbackIDs: []uuid.UUID{known},
		OccurrenceCount:   1,
		Confidence:        0.55,
		Status:            learning.StatusCollecting,
	}

	if c.Merge([]uuid.UUID{known}, []string{"replayed sample"}) {
		t.Error("replaying recorded feedback reported a change")
	}
	if c.OccurrenceCount != 1 {
		t.Errorf("OccurrenceCount = %d, want 1", c.OccurrenceCount)
	}
	if c.Confidence != 0.55 {
		t.Errorf("Confidence = %.2f, want unchanged 0.55", c.Confidence)
	}
	if len(c.SampleTexts) != 0 {
		t.Error("samples appended with no fresh feedback")
	}
}

func TestMergeFreshFeedback(t *testing.T) {
	known := uuid.New()
	fresh := uuid.New()
	c := learning.ExceptionCandidate{
		SourceFeedbackIDs: []uuid.UUID{known},
		OccurrenceCount:   1,
		Confidence:        0.55,
		Status:            learning.StatusCollecting,
	}

	if !c.Merge([]uuid.UUID{known, fresh}, []string{"new sample"}) {
		t.Fatal("fresh feedback reported no change")
	}
	if c.OccurrenceCount != 2 {
		t.Errorf("OccurrenceCount = %d, want 2", c.OccurrenceCount)
	}
	if math.Abs(c.Confidence-0.65) > 1e-9 {
		t.Errorf("Confidence = %.2f, want 0.65", c.Confidence)
	}
	if len(c.SourceFeedbackIDs) != 2 {
		t.Errorf("SourceFeedbackIDs = %d, want 2", len(c.SourceFeedbackIDs))
	}
}

func TestMergeConfidenceCap(t *testing.T) {
	c := learning.ExceptionCandidate{
		Confidence: 0.9,
		Status:     learning.StatusCollecting,
	}

	c.Merge([]uuid.UUID{uuid.New()}, nil)
	if c.Confidence != 0.95 {
		t.Errorf("Confidence = %.2f, want capped 0.95", c.Confidence)
	}

	c.Merge([]uuid.UUID{uuid.New()}, nil)
	if c.Confidence != 0.95 {
		t.Errorf("Confidence = %.2f, want to stay at 0.95", c.Confidence)
	}
}

func TestMergeSampleCapKeepsMostRecent(t *testing.T) {
	c := learning.ExceptionCandidate{Status: learning.StatusCollecting}

	for i := range 12 {
		c.Merge([]uuid.UUID{uuid.New()}, []string{fmt.Sprintf("sample-%d", i)})
	}

	if len(c.SampleTexts) != 10 {
		t.Fatalf("SampleTexts = %d, want 10", len(c.SampleTexts))
	}
	if c.SampleTexts[0] != "sample-2" {
		t.Errorf("oldest surviving sample = %q, want sample-2", c.SampleTexts[0])
	}
	if c.SampleTexts[9] != "sample-11" {
		t.Errorf("newest sample = %q, want sample-11", c.SampleTexts[9])
	}
}

func TestPromoteThresholds(t *testing.T) {
	tests := []struct {
		name        string
		occurrences int
		confidence  float64
		want        bool
	}{
		{"both met", 5, 0.85, true},
		{"occurrences short", 4, 0.95, false},
		{"confidence short", 10, 0.84, false},
		{"both short", 1, 0.55, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := learning.ExceptionCandidate{
				OccurrenceCount: tt.occurrences,
				Confidence:      tt.confidence,
				Status:          learning.StatusCollecting,
			}

			if got := c.Promote(5, 0.85); got != tt.want {
				t.Errorf("Promote = %v, want %v", got, tt.want)
			}
			if tt.want {
				if c.Status != learning.StatusPendingReview {
					t.Errorf("Status = %s, want pending_review", c.Status)
				}
				if !c.MeetsThreshold {
					t.Error("MeetsThreshold not set")
				}
			} else if c.Status != learning.StatusCollecting {
				t.Errorf("Status = %s, want collecting", c.Status)
			}
		})
	}
}

func TestPromoteFiresExactlyOnce(t *testing.T) {
	c := learning.ExceptionCandidate{
		OccurrenceCount: 6,
		Confidence:      0.9,
		Status:          learning.StatusCollecting,
	}

	if !c.Promote(5, 0.85) {
		t.Fatal("first Promote did not fire")
	}
	if c.Promote(5, 0.85) {
		t.Error("second Promote fired again")
	}
	if c.Status != learning.StatusPendingReview {
		t.Errorf("Status = %s, want pending_review", c.Status)
	}
}

func TestPromoteNeverDemotesReviewed(t *testing.T) {
	for _, status := range []learning.Status{learning.StatusApproved, learning.StatusRejected} {
		c := learning.ExceptionCandidate{
			OccurrenceCount: 100,
			Confidence:      0.95,
			Status:          status,
		}
		if c.Promote(5, 0.85) {
			t.Errorf("Promote fired from %s", status)
		}
		if c.Status != status {
			t.Errorf("Status moved from %s to %s", status, c.Status)
		}
	}
}

func TestApproveTransitions(t *testing.T) {
	c := learning.ExceptionCandidate{Status: learning.StatusPendingReview}
	if err := c.Approve(); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if c.Status != learning.StatusApproved {
		t.Errorf("Status = %s, want approved", c.Status)
	}

	// Idempotent repeat.
	if err := c.Approve(); err != nil {
		t.Errorf("repeat Approve errored: %v", err)
	}

	// Cross-transition after approval is invalid.
	if err := c.Reject(); !errors.Is(err, learning.ErrInvalidTransition) {
		t.Errorf("Reject after approval = %v, want ErrInvalidTransition", err)
	}
}

func TestRejectTransitions(t *testing.T) {
	c := learning.ExceptionCandidate{Status: learning.StatusPendingReview}
	if err := c.Reject(); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if err := c.Reject(); err != nil {
		t.Errorf("repeat Reject errored: %v", err)
	}
	if err := c.Approve(); !errors.Is(err, learning.ErrInvalidTransition) {
		t.Errorf("Approve after rejection = %v, want ErrInvalidTransition", err)
	}
}

func TestReviewFromCollectingInvalid(t *testing.T) {
	c := learning.ExceptionCandidate{Status: learning.StatusCollecting}
	if err := c.Approve(); !errors.Is(err, learning.ErrInvalidTransition) {
		t.Errorf("Approve from collecting = %v, want ErrInvalidTransition", err)
	}
	if err := c.Reject(); !errors.Is(err, learning.ErrInvalidTransition) {
		t.Errorf("Reject from collecting = %v, want ErrInvalidTransition", err)
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := learning.ParseStatus("archived"); !errors.Is(err, learning.ErrInvalidStatus) {
		t.Errorf("ParseStatus(archived) = %v, want ErrInvalidStatus", err)
	}
	s, err := learning.ParseStatus("pending_review")
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}
	if s != learning.StatusPendingReview {
		t.Errorf("ParseStatus = %s", s)
	}
}
