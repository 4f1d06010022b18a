package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/service/similarity"
	"github.com/casecraft-dev/casecraft/pkg/service/testgen"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
)

// GenerateRequest carries a generation (or estimation) request with
// resolved retrieval knobs
type GenerateRequest struct {
	Prompt            string
	Context           string
	PreferredType     string
	PreferredPriority string

	UseRAG                 bool
	RAGSimilarityThreshold float64
	MaxRAGReferences       int
}

// retrievalResult is the outcome of the retrieval sub-step. Retrieval
// never fails generation: when something went wrong, degraded carries
// the reason and hits is empty.
type retrievalResult struct {
	hits     []similarity.Hit
	degraded string
}

// retrieve embeds the prompt and searches the embedded catalog. All
// failures degrade to an empty hit list.
func (uc *UseCases) retrieve(ctx context.Context, req *GenerateRequest) retrievalResult {
	if !req.UseRAG {
		return retrievalResult{}
	}
	if uc.embedding == nil {
		return retrievalResult{degraded: "embedding service is not configured"}
	}

	queryVector, err := uc.embedding.Embed(ctx, req.Prompt)
	if err != nil {
		return retrievalResult{degraded: "failed to embed prompt: " + err.Error()}
	}

	embedded, err := uc.repo.TestCase().ListEmbedded(ctx)
	if err != nil {
		return retrievalResult{degraded: "failed to list embedded test cases: " + err.Error()}
	}

	candidates := make([]similarity.Candidate, len(embedded))
	for i, tc := range embedded {
		candidates[i] = similarity.Candidate{Vector: tc.Embedding, Case: tc}
	}

	return retrievalResult{
		hits: similarity.Search(queryVector, candidates, req.RAGSimilarityThreshold, req.MaxRAGReferences),
	}
}

// Generate produces a test case from the prompt, grounded by retrieval
// when possible. Retrieval failure falls back to pure AI generation with
// a warning; only the generation call itself can fail.
func (uc *UseCases) Generate(ctx context.Context, req *GenerateRequest) (*model.GeneratedTestCase, error) {
	if uc.testgen == nil {
		return nil, goerr.Wrap(ErrAINotConfigured, "generation requires an LLM client")
	}
	if req.Prompt == "" {
		return nil, goerr.Wrap(ErrEmptyPrompt, "generation requires a prompt")
	}

	retrieval := uc.retrieve(ctx, req)
	if retrieval.degraded != "" {
		logging.From(ctx).Warn("RAG retrieval degraded, falling back to pure AI generation",
			"reason", retrieval.degraded)
	}

	genCtx, cancel := context.WithTimeout(ctx, uc.generationTimeout)
	defer cancel()

	return uc.testgen.Generate(genCtx, testgen.Request{
		Prompt:            req.Prompt,
		Context:           req.Context,
		PreferredType:     req.PreferredType,
		PreferredPriority: req.PreferredPriority,
	}, retrieval.hits)
}

// GenerateAndSave generates a test case, persists it, and records one
// rag_retrieval edge per grounding reference. Edge conflicts are logged
// and swallowed; the saved record is returned either way.
func (uc *UseCases) GenerateAndSave(ctx context.Context, req *GenerateRequest) (*model.TestCase, *model.GeneratedTestCase, error) {
	generated, err := uc.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	testCase := &model.TestCase{
		Name:               generated.Name,
		Description:        generated.Description,
		Type:               generated.Type,
		Priority:           generated.Priority,
		Steps:              generated.Steps,
		ExpectedResult:     generated.ExpectedResult,
		Tags:               generated.Tags,
		AIGenerated:        true,
		OriginalPrompt:     generated.OriginalPrompt,
		AIConfidence:       &generated.Confidence,
		AISuggestions:      generated.Suggestions,
		AIGenerationMethod: generated.Method,
		TokenUsage:         generated.TokenUsage,
	}

	// Embedding for storage is fatal, unlike retrieval: an unembedded
	// record would silently drop out of future searches.
	if uc.embedding != nil {
		vector, err := uc.embedding.Embed(ctx, testCase.EmbeddingText())
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to embed generated test case")
		}
		testCase.Embedding = vector
	}

	created, err := uc.repo.TestCase().Create(ctx, testCase)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to save generated test case")
	}

	logger := logging.From(ctx)
	for _, ref := range generated.References {
		score := ref.Similarity
		_, err := uc.repo.Reference().Create(ctx, &model.Reference{
			SourceID:   created.ID,
			TargetID:   ref.TestCaseID,
			Type:       types.ReferenceTypeRAGRetrieval,
			Similarity: &score,
		})
		if err != nil {
			// A duplicate pair or a concurrently deleted target never
			// fails the save.
			if errors.Is(err, types.ErrReferenceExists) || errors.Is(err, types.ErrNotFound) {
				logger.Warn("skipped provenance reference",
					"sourceId", created.ID,
					"targetId", ref.TestCaseID,
					"error", err.Error())
				continue
			}
			return nil, nil, goerr.Wrap(err, "failed to create provenance reference",
				goerr.V("sourceId", created.ID),
				goerr.V("targetId", ref.TestCaseID),
			)
		}
	}

	return created, generated, nil
}

// Estimate approximates the token count and cost of the prompt Generate
// would send, including the retrieval context, without calling the model
func (uc *UseCases) Estimate(ctx context.Context, req *GenerateRequest) (*model.Estimate, error) {
	if uc.testgen == nil {
		return nil, goerr.Wrap(ErrAINotConfigured, "estimation requires an LLM client")
	}
	if req.Prompt == "" {
		return nil, goerr.Wrap(ErrEmptyPrompt, "estimation requires a prompt")
	}

	retrieval := uc.retrieve(ctx, req)
	if retrieval.degraded != "" {
		logging.From(ctx).Warn("RAG retrieval degraded, estimating without references",
			"reason", retrieval.degraded)
	}

	return uc.testgen.EstimateTokens(testgen.Request{
		Prompt:            req.Prompt,
		Context:           req.Context,
		PreferredType:     req.PreferredType,
		PreferredPriority: req.PreferredPriority,
	}, retrieval.hits), nil
}
