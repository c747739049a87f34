package audit

// IssueType identifies the kind of correction an audit pass applied.
// The string values are part of the persisted archive contract.
type IssueType string

// Valid issue types.
const (
	IssueFabricatedPatternID        IssueType = "FABRICATED_PATTERN_ID"
	IssueNegativeList               IssueType = "NEGATIVE_LIST_VIOLATION"
	IssueCertificationFalsePositive IssueType = "CERTIFICATION_FALSE_POSITIVE"
	IssueDisclaimerNotApplied       IssueType = "DISCLAIMER_NOT_APPLIED"
	IssueProposerMissed             IssueType = "GEMINI_MISSED"
	IssueConfidenceAdjusted         IssueType = "CONFIDENCE_ADJUSTED"
	IssueDuplicateViolation         IssueType = "DUPLICATE_VIOLATION"
)

// Action identifies what the audit pass did about an issue.
type Action string

// Valid actions.
const (
	ActionRemove    Action = "REMOVE"
	ActionDowngrade Action = "DOWNGRADE"
	ActionAdd       Action = "ADD"
	ActionAdjust    Action = "ADJUST"
)

// Issue is one append-only log entry scoped to a single audit run,
// referencing the affected candidate by pattern id and matched text.
type Issue struct {
	Type        IssueType `json:"type"`
	Action      Action    `json:"action"`
	Detail      string    `json:"detail"`
	PatternID   string    `json:"pattern_id"`
	MatchedText string    `json:"matched_text,omitempty"`
}
