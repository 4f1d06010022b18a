package embedding

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
)

// Service generates embedding vectors for test case text via an LLM
// client. Safe for concurrent use.
type Service struct {
	llmClient gollem.LLMClient
}

// New creates a new embedding service with the provided LLM client
func New(llmClient gollem.LLMClient) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{llmClient: llmClient}, nil
}

// Embed generates a single embedding vector for the given text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, goerr.New("embedding text is empty")
	}

	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("embedding generation returned empty result")
	}

	embedding64 := embeddings[0]
	if len(embedding64) != model.EmbeddingDimension {
		return nil, goerr.New("embedding has unexpected dimension",
			goerr.V("got", len(embedding64)),
			goerr.V("want", model.EmbeddingDimension),
		)
	}

	embedding32 := make([]float32, len(embedding64))
	for i, v := range embedding64 {
		embedding32[i] = float32(v)
	}
	return embedding32, nil
}

// EmbedTestCase embeds the canonical text of a test case's searchable
// fields
func (s *Service) EmbedTestCase(ctx context.Context, name, description string, tags []string) ([]float32, error) {
	tc := &model.TestCase{Name: name, Description: description, Tags: tags}
	return s.Embed(ctx, tc.EmbeddingText())
}
