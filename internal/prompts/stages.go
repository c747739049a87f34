package prompts

import (
	"encoding/json"
	"slices"
)

// Stage represents a proposer call stage that a prompt override targets.
// The strict stage is injected on retry after a malformed response.
type Stage string

// Valid proposer stages.
const (
	StagePropose Stage = "propose"
	StageStrict  Stage = "strict"
)

var stages = []Stage{
	StagePropose,
	StageStrict,
}

// Stages returns the list of valid proposer stages.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Stage(raw)
	if !slices.Contains(stages, v) {
		return ErrInvalidStage
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known proposer stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
