package model

import (
	"strings"
	"time"

	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Gemini text-embedding-004 uses 768 dimensions.
const EmbeddingDimension = 768

// Step is a single action in a test case with its expected outcome.
// Step order is meaningful.
type Step struct {
	Action         string `json:"step"`
	ExpectedResult string `json:"expectedResult"`
}

// TokenUsage is a snapshot of token consumption reported for a generation call
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// TestCase represents a test case record in the catalog
type TestCase struct {
	ID             types.TestCaseID
	Name           string
	Description    string
	Type           types.CaseType
	Priority       types.Priority
	Steps          []Step
	ExpectedResult string
	Tags           []string

	// Embedding is the semantic vector of EmbeddingText(). Empty when
	// embedding failed or has not run yet; such records are excluded from
	// search.
	Embedding []float32

	// AI provenance, set only for generated cases
	AIGenerated        bool
	OriginalPrompt     string
	AIConfidence       *float64
	AISuggestions      string
	AIGenerationMethod types.GenerationMethod
	TokenUsage         *TokenUsage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmbeddingText returns the canonical text fed to the embedding model.
// Any edit that changes this text requires re-embedding.
func (t *TestCase) EmbeddingText() string {
	parts := []string{t.Name, t.Description}
	parts = append(parts, t.Tags...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// HasEmbedding reports whether the record carries a well-formed embedding
func (t *TestCase) HasEmbedding() bool {
	return len(t.Embedding) == EmbeddingDimension
}

// Ref returns the minimal projection of this case used when displaying
// graph neighbors
func (t *TestCase) Ref() TestCaseRef {
	return TestCaseRef{
		ID:       t.ID,
		Name:     t.Name,
		Type:     t.Type,
		Priority: t.Priority,
	}
}

// Clone returns a deep copy of the test case
func (t *TestCase) Clone() *TestCase {
	copied := *t
	if t.Steps != nil {
		copied.Steps = make([]Step, len(t.Steps))
		copy(copied.Steps, t.Steps)
	}
	if t.Tags != nil {
		copied.Tags = make([]string, len(t.Tags))
		copy(copied.Tags, t.Tags)
	}
	if t.Embedding != nil {
		copied.Embedding = make([]float32, len(t.Embedding))
		copy(copied.Embedding, t.Embedding)
	}
	if t.AIConfidence != nil {
		c := *t.AIConfidence
		copied.AIConfidence = &c
	}
	if t.TokenUsage != nil {
		u := *t.TokenUsage
		copied.TokenUsage = &u
	}
	return &copied
}

// TestCaseRef is the minimal projection of a neighboring test case
// returned by graph traversals
type TestCaseRef struct {
	ID       types.TestCaseID `json:"id"`
	Name     string           `json:"name"`
	Type     types.CaseType   `json:"type"`
	Priority types.Priority   `json:"priority"`
}

// Statistics summarizes embedding coverage of the catalog
type Statistics struct {
	TotalTestCases    int     `json:"totalTestCases"`
	EmbeddedTestCases int     `json:"embeddedTestCases"`
	EmbeddingCoverage float64 `json:"embeddingCoveragePercent"`
}
