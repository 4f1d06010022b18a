package testgen

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// rawResponse mirrors the JSON shape the model is instructed to emit.
// Every field is optional here; missing values are filled by defaults.
type rawResponse struct {
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Type           string    `json:"type"`
	Priority       string    `json:"priority"`
	Steps          []rawStep `json:"steps"`
	ExpectedResult string    `json:"expectedResult"`
	Tags           []string  `json:"tags"`
	Confidence     *float64  `json:"confidence"`
	AISuggestions  string    `json:"aiSuggestions"`
}

type rawStep struct {
	Step           string `json:"step"`
	ExpectedResult string `json:"expectedResult"`
}

// Placeholder values substituted for fields the model omitted
const (
	defaultName           = "Generated Test Case"
	defaultDescription    = "AI generated test case description"
	defaultStepAction     = "Generated step"
	defaultStepResult     = "Generated expected result"
	defaultExpectedResult = "Generated final result"
	defaultConfidence     = 0.8
)

// parseResponse extracts the JSON object from the raw model output and
// normalizes it into a GeneratedTestCase. Surrounding prose (including
// markdown fences) is tolerated; a missing or unparsable object is
// ErrInvalidResponse.
func parseResponse(text string) (*model.GeneratedTestCase, error) {
	payload, ok := extractJSONObject(text)
	if !ok {
		return nil, goerr.Wrap(ErrInvalidResponse, "no JSON object found in response", goerr.V("response", text))
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, goerr.Wrap(ErrInvalidResponse, "failed to parse response JSON",
			goerr.V("cause", err),
			goerr.V("response", text),
		)
	}

	return normalize(&raw), nil
}

// normalize applies the defaulting rules so a parsed response always
// yields a complete, valid test case.
func normalize(raw *rawResponse) *model.GeneratedTestCase {
	generated := &model.GeneratedTestCase{
		Name:           raw.Name,
		Description:    raw.Description,
		Type:           types.CaseType(raw.Type).Normalize(),
		Priority:       types.Priority(raw.Priority).Normalize(),
		ExpectedResult: raw.ExpectedResult,
		Tags:           raw.Tags,
		Suggestions:    raw.AISuggestions,
		Confidence:     defaultConfidence,
	}

	if generated.Name == "" {
		generated.Name = defaultName
	}
	if generated.Description == "" {
		generated.Description = defaultDescription
	}
	if generated.ExpectedResult == "" {
		generated.ExpectedResult = defaultExpectedResult
	}
	if len(generated.Tags) == 0 {
		generated.Tags = []string{"ai-generated"}
	}
	if raw.Confidence != nil {
		generated.Confidence = *raw.Confidence
	}

	for _, step := range raw.Steps {
		if step.Step == "" {
			step.Step = defaultStepAction
		}
		if step.ExpectedResult == "" {
			step.ExpectedResult = defaultStepResult
		}
		generated.Steps = append(generated.Steps, model.Step{
			Action:         step.Step,
			ExpectedResult: step.ExpectedResult,
		})
	}
	if len(generated.Steps) == 0 {
		generated.Steps = []model.Step{{
			Action:         defaultStepAction,
			ExpectedResult: defaultStepResult,
		}}
	}

	return generated
}

// extractJSONObject returns the first balanced {...} substring of text,
// tracking string literals and escapes so braces inside values do not
// break the scan.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
