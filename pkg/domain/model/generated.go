package model

import (
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// RAGReference records one retrieved case that grounded a generation call
type RAGReference struct {
	TestCaseID types.TestCaseID `json:"testCaseId"`
	Similarity float64          `json:"similarity"`
	Target     TestCaseRef      `json:"testCase"`
}

// GeneratedTestCase is the validated result of a generation call, before
// it is (optionally) persisted as a TestCase
type GeneratedTestCase struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Type           types.CaseType         `json:"type"`
	Priority       types.Priority         `json:"priority"`
	Steps          []Step                 `json:"steps"`
	ExpectedResult string                 `json:"expectedResult"`
	Tags           []string               `json:"tags"`
	OriginalPrompt string                 `json:"originalPrompt"`
	AIGenerated    bool                   `json:"aiGenerated"`
	Confidence     float64                `json:"confidence"`
	Suggestions    string                 `json:"aiSuggestions,omitempty"`
	Method         types.GenerationMethod `json:"aiGenerationMethod"`
	References     []RAGReference         `json:"ragReferences"`
	TokenUsage     *TokenUsage            `json:"tokenUsage,omitempty"`
}

// Estimate approximates the resource cost of a prospective generation call
type Estimate struct {
	Tokens  int     `json:"estimatedTokens"`
	CostUSD float64 `json:"estimatedCostUsd"`
	Model   string  `json:"model"`
	Note    string  `json:"note"`
}
