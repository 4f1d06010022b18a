package testgen

import (
	"fmt"
	"strings"

	"github.com/casecraft-dev/casecraft/pkg/service/similarity"
)

const baseSystemPrompt = `You are a professional test case designer. Generate a detailed test case based on the user's request.

Your response MUST be a valid JSON object with the following structure:
{
  "name": "string - Clear and descriptive test case name",
  "description": "string - Detailed description of what this test case validates",
  "type": "positive|negative",
  "priority": "low|medium|high",
  "steps": [
    {
      "step": "string - Clear action to perform",
      "expectedResult": "string - Expected outcome of this step"
    }
  ],
  "expectedResult": "string - Final expected result of the entire test",
  "tags": ["string array - relevant tags"],
  "confidence": number between 0-1,
  "aiSuggestions": "string - optional suggestions for improvement"
}

Rules:
1. Generate realistic and practical test cases
2. Include detailed steps that are actionable
3. Use appropriate test case types and priorities
4. Provide relevant tags for categorization
5. Give confidence score based on prompt clarity
6. Response must be valid JSON only, no additional text
7. If user is using any language other than English, the values in JSON should use that language (for example Bahasa Indonesia)`

const ragSystemRules = `
8. IMPORTANT: Use the provided example test cases as references for consistency
9. Follow similar patterns, naming conventions, and structures from the examples
10. Ensure your generated test case complements rather than duplicates the examples
11. Maintain quality and detail level similar to the reference examples`

// buildSystemPrompt returns the fixed instruction payload. The four
// consistency rules are appended only when reference examples are
// included in the user payload.
func buildSystemPrompt(withReferences bool) string {
	if withReferences {
		return baseSystemPrompt + ragSystemRules
	}
	return baseSystemPrompt
}

// buildUserPrompt assembles the request payload: the prompt, the
// reference block when hits exist, and the optional labeled lines.
func buildUserPrompt(req Request, hits []similarity.Hit) string {
	var sb strings.Builder

	sb.WriteString("Generate a test case for: ")
	sb.WriteString(req.Prompt)

	if block := formatReferenceBlock(hits); block != "" {
		sb.WriteString("\n\n")
		sb.WriteString(block)
	}

	if req.Context != "" {
		sb.WriteString("\n\nAdditional context: ")
		sb.WriteString(req.Context)
	}
	if req.PreferredType != "" {
		sb.WriteString("\n\nPreferred type: ")
		sb.WriteString(req.PreferredType)
	}
	if req.PreferredPriority != "" {
		sb.WriteString("\n\nPreferred priority: ")
		sb.WriteString(req.PreferredPriority)
	}

	return sb.String()
}

// formatReferenceBlock renders retrieved cases, in rank order, as
// in-prompt examples. Empty when there are no hits.
func formatReferenceBlock(hits []similarity.Hit) string {
	if len(hits) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Berikut adalah contoh test case yang relevan sebagai referensi:\n\n")

	for i, hit := range hits {
		tc := hit.Case
		fmt.Fprintf(&sb, "=== Contoh %d (Similarity: %.2f) ===\n", i+1, hit.Similarity)
		fmt.Fprintf(&sb, "Nama: %s\n", tc.Name)
		fmt.Fprintf(&sb, "Deskripsi: %s\n", tc.Description)
		fmt.Fprintf(&sb, "Tipe: %s\n", tc.Type)
		fmt.Fprintf(&sb, "Prioritas: %s\n", tc.Priority)

		if len(tc.Steps) > 0 {
			sb.WriteString("Langkah-langkah:\n")
			for j, step := range tc.Steps {
				fmt.Fprintf(&sb, "  %d. %s -> %s\n", j+1, step.Action, step.ExpectedResult)
			}
		}

		fmt.Fprintf(&sb, "Expected Result: %s\n", tc.ExpectedResult)

		if len(tc.Tags) > 0 {
			fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(tc.Tags, ", "))
		}

		sb.WriteString("\n")
	}

	sb.WriteString("Gunakan contoh-contoh di atas sebagai referensi untuk membuat test case yang konsisten dan berkualitas.\n")
	return sb.String()
}
