package prompts

const proposeSpec = `Respond with a JSON object matching this exact structure:

{
  "sections": [
    { "section_type": "<treatment|event|faq|review|doctor|default>", "excerpt": "<text>" }
  ],
  "violations": [
    {
      "pattern_id": "<catalog pattern id>",
      "category": "<catalog category>",
      "severity": "<critical|major|minor>",
      "original_text": "<verbatim violating text>",
      "context": "<surrounding text>",
      "section_type": "<treatment|event|faq|review|doctor|default>",
      "confidence": 0.0,
      "reasoning": "<why this matches the pattern>",
      "from_image": false,
      "disclaimer_present": false
    }
  ],
  "gray_zones": [
    { "description": "<evasion pattern>", "excerpt": "<text>", "risk_note": "<legal risk>" }
  ],
  "mandatory_items": [
    { "name": "<checklist item name>", "present": false, "note": "<where found or why missing>" }
  ]
}

Field constraints:
- pattern_id: Must be copied exactly from the provided catalog. A response
  containing a pattern id not present in the catalog is invalid.
- original_text: Verbatim quote from the advertisement, not a paraphrase.
- confidence: A number in [0, 1]. Higher severity findings warrant higher
  confidence only when the text clearly matches the pattern.
- gray_zones: Evasive phrasing that does not cleanly match a pattern.
  Never duplicate an entry between violations and gray_zones.
- mandatory_items: One entry per checklist item, six in total.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Quote only text that appears in the advertisement
- Report every distinct match, even when the same pattern repeats`

const strictSpec = proposeSpec + `

Strict mode: this is a retry. Emit only the JSON object. Any deviation from
the structure above will be discarded.`

var specs = map[Stage]string{
	StagePropose: proposeSpec,
	StageStrict:  strictSpec,
}

// Spec returns the hardcoded specification for a proposer stage.
// Specifications define the expected output format and behavioral constraints.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
