package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/service/similarity"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
)

// TestCaseInput carries the writable fields of a test case
type TestCaseInput struct {
	Name           string
	Description    string
	Type           types.CaseType
	Priority       types.Priority
	Steps          []model.Step
	ExpectedResult string
	Tags           []string
}

// TestCasePatch is a partial update. Nil fields keep the stored value.
type TestCasePatch struct {
	Name           *string
	Description    *string
	Type           *types.CaseType
	Priority       *types.Priority
	Steps          *[]model.Step
	ExpectedResult *string
	Tags           *[]string
}

// BulkResult reports the outcome of one item of a bulk import
type BulkResult struct {
	Index int
	ID    types.TestCaseID
	Err   error
}

// SearchResult is one semantic search hit
type SearchResult struct {
	Similarity float64
	TestCase   *model.TestCase
}

// CreateTestCase embeds and persists a new test case. Embedding failure
// is fatal here: a record created through this path must be searchable.
func (uc *UseCases) CreateTestCase(ctx context.Context, input *TestCaseInput) (*model.TestCase, error) {
	if input.Name == "" {
		return nil, goerr.Wrap(ErrEmptyName, "create requires a name")
	}

	testCase := &model.TestCase{
		Name:           input.Name,
		Description:    input.Description,
		Type:           input.Type.Normalize(),
		Priority:       input.Priority.Normalize(),
		Steps:          input.Steps,
		ExpectedResult: input.ExpectedResult,
		Tags:           input.Tags,
	}

	if uc.embedding != nil {
		vector, err := uc.embedding.Embed(ctx, testCase.EmbeddingText())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed test case", goerr.V("name", input.Name))
		}
		testCase.Embedding = vector
	}

	created, err := uc.repo.TestCase().Create(ctx, testCase)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create test case")
	}

	return created, nil
}

func (uc *UseCases) GetTestCase(ctx context.Context, id types.TestCaseID) (*model.TestCase, error) {
	return uc.repo.TestCase().Get(ctx, id)
}

func (uc *UseCases) ListTestCases(ctx context.Context) ([]*model.TestCase, error) {
	return uc.repo.TestCase().List(ctx)
}

// UpdateTestCase merges the patch into the stored record and always
// re-embeds. Re-embedding on every update is deliberately conservative:
// it avoids tracking which fields feed the embedding text.
func (uc *UseCases) UpdateTestCase(ctx context.Context, id types.TestCaseID, patch *TestCasePatch) (*model.TestCase, error) {
	existing, err := uc.repo.TestCase().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := existing.Clone()
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Type != nil {
		merged.Type = patch.Type.Normalize()
	}
	if patch.Priority != nil {
		merged.Priority = patch.Priority.Normalize()
	}
	if patch.Steps != nil {
		merged.Steps = *patch.Steps
	}
	if patch.ExpectedResult != nil {
		merged.ExpectedResult = *patch.ExpectedResult
	}
	if patch.Tags != nil {
		merged.Tags = *patch.Tags
	}
	if merged.Name == "" {
		return nil, goerr.Wrap(ErrEmptyName, "update cannot clear the name")
	}

	if uc.embedding != nil {
		vector, err := uc.embedding.Embed(ctx, merged.EmbeddingText())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to re-embed test case", goerr.V("id", id))
		}
		merged.Embedding = vector
	}

	updated, err := uc.repo.TestCase().Update(ctx, merged)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update test case", goerr.V("id", id))
	}

	return updated, nil
}

// DeleteTestCase removes the record and cascades every reference edge
// touching it
func (uc *UseCases) DeleteTestCase(ctx context.Context, id types.TestCaseID) error {
	return uc.repo.TestCase().Delete(ctx, id)
}

// BulkImport creates many test cases at once. Embeddings are computed
// with bounded parallelism; each item succeeds or fails independently
// and the per-item outcomes are returned in input order.
func (uc *UseCases) BulkImport(ctx context.Context, inputs []*TestCaseInput) []BulkResult {
	results := make([]BulkResult, len(inputs))
	vectors := make([][]float32, len(inputs))

	if uc.embedding != nil {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(uc.bulkConcurrency)

		for i, input := range inputs {
			if input.Name == "" {
				continue
			}
			eg.Go(func() error {
				tc := &model.TestCase{Name: input.Name, Description: input.Description, Tags: input.Tags}
				vector, err := uc.embedding.Embed(egCtx, tc.EmbeddingText())
				if err != nil {
					results[i].Err = goerr.Wrap(err, "failed to embed test case", goerr.V("name", input.Name))
					return nil // per-item failure only
				}
				vectors[i] = vector
				return nil
			})
		}
		// goroutines never return errors; Wait just joins them
		_ = eg.Wait()
	}

	for i, input := range inputs {
		results[i].Index = i
		if results[i].Err != nil {
			continue
		}
		if input.Name == "" {
			results[i].Err = goerr.Wrap(ErrEmptyName, "bulk item requires a name", goerr.V("index", i))
			continue
		}

		created, err := uc.repo.TestCase().Create(ctx, &model.TestCase{
			Name:           input.Name,
			Description:    input.Description,
			Type:           input.Type.Normalize(),
			Priority:       input.Priority.Normalize(),
			Steps:          input.Steps,
			ExpectedResult: input.ExpectedResult,
			Tags:           input.Tags,
			Embedding:      vectors[i],
		})
		if err != nil {
			results[i].Err = goerr.Wrap(err, "failed to create test case", goerr.V("index", i))
			continue
		}
		results[i].ID = created.ID
	}

	return results
}

// Search runs semantic search over embedded test cases. An empty query,
// a missing embedding service, or an embedding failure all yield an
// empty result rather than an error: search degrades, it does not break.
func (uc *UseCases) Search(ctx context.Context, query string, minSimilarity float64, limit int) ([]SearchResult, error) {
	if query == "" || uc.embedding == nil {
		return nil, nil
	}

	queryVector, err := uc.embedding.Embed(ctx, query)
	if err != nil {
		logging.From(ctx).Warn("query embedding failed, returning empty search result",
			"error", err.Error())
		return nil, nil
	}

	embedded, err := uc.repo.TestCase().ListEmbedded(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list embedded test cases")
	}

	candidates := make([]similarity.Candidate, len(embedded))
	for i, tc := range embedded {
		candidates[i] = similarity.Candidate{Vector: tc.Embedding, Case: tc}
	}

	hits := similarity.Search(queryVector, candidates, minSimilarity, limit)
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{Similarity: hit.Similarity, TestCase: hit.Case}
	}

	return results, nil
}

// Statistics reports embedding coverage of the catalog
func (uc *UseCases) Statistics(ctx context.Context) (*model.Statistics, error) {
	total, err := uc.repo.TestCase().Count(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count test cases")
	}
	embedded, err := uc.repo.TestCase().CountEmbedded(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count embedded test cases")
	}

	stats := &model.Statistics{
		TotalTestCases:    total,
		EmbeddedTestCases: embedded,
	}
	if total > 0 {
		stats.EmbeddingCoverage = float64(embedded) / float64(total) * 100
	}

	return stats, nil
}
