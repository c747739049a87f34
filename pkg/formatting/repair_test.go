package formatting_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/medscreen/adaudit/pkg/formatting"
)

func TestRepairJSONBalancedUntouched(t *testing.T) {
	tests := []string{
		`{"a": 1}`,
		`{"a": {"b": [1, 2]}, "c": "done"}`,
		`[1, 2, 3]`,
		`"just a string"`,
		"",
	}

	for _, input := range tests {
		if got := formatting.RepairJSON(input); got != input {
			t.Errorf("RepairJSON(%q) = %q, want untouched", input, got)
		}
	}
}

func TestRepairJSONClosesOpenBrackets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"open object", `{"a": 1, "b": 2`, `{"a": 1, "b": 2}`},
		{"open array in object", `{"a": 1, "b": [1, 2`, `{"a": 1, "b": [1, 2]}`},
		{"nested objects", `{"a": {"b": {"c": 1`, `{"a": {"b": {"c": 1}}}`},
		{"trailing comma", `{"a": 1,`, `{"a": 1}`},
		{"dangling key with colon", `{"a": 1, "b":`, `{"a": 1}`},
		{"dangling key only", `{"name":`, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatting.RepairJSON(tt.input)
			if got != tt.want {
				t.Errorf("RepairJSON = %q, want %q", got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("repaired content is not valid JSON: %q", got)
			}
		})
	}
}

func TestRepairJSONUnterminatedString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"cut value drops the pair", `{"a": 1, "b": "trunc`, `{"a": 1}`},
		{"cut array element keeps prior elements", `["a", "b`, `["a"]`},
		{"complete string value survives", `{"a": "done"`, `{"a": "done"}`},
		{"escaped quote inside value", `{"a": "he said \"hi\"", "b": "tr`, `{"a": "he said \"hi\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatting.RepairJSON(tt.input)
			if got != tt.want {
				t.Errorf("RepairJSON = %q, want %q", got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("repaired content is not valid JSON: %q", got)
			}
		})
	}
}

func TestParseRepaired(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("valid content parses directly", func(t *testing.T) {
		got, err := formatting.ParseRepaired[payload](`{"name": "x", "count": 2}`)
		if err != nil {
			t.Fatalf("ParseRepaired: %v", err)
		}
		if got.Name != "x" || got.Count != 2 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("truncated content is repaired", func(t *testing.T) {
		got, err := formatting.ParseRepaired[payload](`{"name": "x", "count": 2, "extra": "tr`)
		if err != nil {
			t.Fatalf("ParseRepaired: %v", err)
		}
		if got.Name != "x" || got.Count != 2 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("truncated fenced content is repaired", func(t *testing.T) {
		content := "```json\n{\"name\": \"x\", \"count\": 2, \"extra\": \"tr\n```"
		got, err := formatting.ParseRepaired[payload](content)
		if err != nil {
			t.Fatalf("ParseRepaired: %v", err)
		}
		if got.Name != "x" || got.Count != 2 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("unrepairable content fails", func(t *testing.T) {
		_, err := formatting.ParseRepaired[payload]("not json at all")
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("err = %v, want ErrParseFailed", err)
		}
	})
}
