package model_test

import (
	"testing"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

func TestEmbeddingDimension(t *testing.T) {
	// Matches Gemini text-embedding-004
	if model.EmbeddingDimension != 768 {
		t.Errorf("expected EmbeddingDimension to be 768, got %d", model.EmbeddingDimension)
	}
}

func TestEmbeddingText(t *testing.T) {
	tc := &model.TestCase{
		Name:        "Login with valid credentials",
		Description: "Verify successful login",
		Tags:        []string{"auth", "smoke"},
	}

	want := "Login with valid credentials Verify successful login auth smoke"
	if got := tc.EmbeddingText(); got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}
}

func TestEmbeddingTextTrimsEmptyParts(t *testing.T) {
	tc := &model.TestCase{Name: "Bare name"}
	if got := tc.EmbeddingText(); got != "Bare name" {
		t.Errorf("EmbeddingText() = %q, want %q", got, "Bare name")
	}
}

func TestHasEmbedding(t *testing.T) {
	tc := &model.TestCase{}
	if tc.HasEmbedding() {
		t.Error("expected no embedding on empty case")
	}

	tc.Embedding = make([]float32, 3)
	if tc.HasEmbedding() {
		t.Error("expected wrong-dimension vector to not count as embedding")
	}

	tc.Embedding = make([]float32, model.EmbeddingDimension)
	if !tc.HasEmbedding() {
		t.Error("expected full-dimension vector to count as embedding")
	}
}

func TestTestCaseRef(t *testing.T) {
	tc := &model.TestCase{
		ID:       types.NewTestCaseID(),
		Name:     "Projection case",
		Type:     types.CaseTypeNegative,
		Priority: types.PriorityHigh,
	}

	ref := tc.Ref()
	if ref.ID != tc.ID {
		t.Errorf("expected ID=%s, got %s", tc.ID, ref.ID)
	}
	if ref.Name != "Projection case" {
		t.Errorf("expected name to carry over, got %s", ref.Name)
	}
	if ref.Type != types.CaseTypeNegative || ref.Priority != types.PriorityHigh {
		t.Errorf("expected type and priority to carry over, got %s/%s", ref.Type, ref.Priority)
	}
}

func TestTestCaseClone(t *testing.T) {
	confidence := 0.8
	tc := &model.TestCase{
		ID:   types.NewTestCaseID(),
		Name: "Clone original",
		Steps: []model.Step{
			{Action: "Do something", ExpectedResult: "Something happens"},
		},
		Tags:         []string{"clone"},
		Embedding:    make([]float32, model.EmbeddingDimension),
		AIConfidence: &confidence,
		TokenUsage:   &model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
	tc.Embedding[0] = 1

	clone := tc.Clone()

	clone.Steps[0].Action = "Changed"
	clone.Tags[0] = "changed"
	clone.Embedding[0] = 2
	*clone.AIConfidence = 0.1
	clone.TokenUsage.TotalTokens = 99

	if tc.Steps[0].Action != "Do something" {
		t.Error("expected steps to be deep-copied")
	}
	if tc.Tags[0] != "clone" {
		t.Error("expected tags to be deep-copied")
	}
	if tc.Embedding[0] != 1 {
		t.Error("expected embedding to be deep-copied")
	}
	if *tc.AIConfidence != 0.8 {
		t.Error("expected confidence to be deep-copied")
	}
	if tc.TokenUsage.TotalTokens != 15 {
		t.Error("expected token usage to be deep-copied")
	}
}

func TestReferenceClone(t *testing.T) {
	similarity := 0.75
	ref := &model.Reference{
		ID:         types.NewReferenceID(),
		SourceID:   types.NewTestCaseID(),
		TargetID:   types.NewTestCaseID(),
		Type:       types.ReferenceTypeRAGRetrieval,
		Similarity: &similarity,
	}

	clone := ref.Clone()
	*clone.Similarity = 0.1

	if *ref.Similarity != 0.75 {
		t.Error("expected similarity to be deep-copied")
	}
	if clone.ID != ref.ID || clone.SourceID != ref.SourceID {
		t.Error("expected identifiers to carry over")
	}
}
