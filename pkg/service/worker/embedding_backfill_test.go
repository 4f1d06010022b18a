package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/repository/memory"
	"github.com/casecraft-dev/casecraft/pkg/service/embedding"
	"github.com/casecraft-dev/casecraft/pkg/service/worker"
)

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	mu          sync.Mutex
	embedCalls  int
	embedErrors map[string]error
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.embedCalls++
	if c.embedErrors != nil {
		if err, ok := c.embedErrors[input[0]]; ok {
			return nil, err
		}
	}

	vec := make([]float64, dimension)
	for i := range vec {
		vec[i] = 0.1
	}
	return [][]float64{vec}, nil
}

func (c *mockLLMClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.embedCalls
}

func TestEmbeddingBackfillWorker(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds records missing embeddings", func(t *testing.T) {
		repo := memory.New()
		llm := &mockLLMClient{}
		embeddingSvc, err := embedding.New(llm)
		gt.NoError(t, err).Required()

		embedded := make([]float32, model.EmbeddingDimension)
		embedded[0] = 1

		withVector, err := repo.TestCase().Create(ctx, &model.TestCase{
			Name:      "already embedded",
			Embedding: embedded,
		})
		gt.NoError(t, err).Required()

		missing, err := repo.TestCase().Create(ctx, &model.TestCase{
			Name: "missing embedding",
		})
		gt.NoError(t, err).Required()

		w := worker.NewEmbeddingBackfillWorker(repo, embeddingSvc, time.Hour)
		gt.NoError(t, w.Start(ctx))
		defer w.Stop()

		// Initial pass runs asynchronously
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			count, err := repo.TestCase().CountEmbedded(ctx)
			gt.NoError(t, err)
			if count == 2 {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}

		backfilled, err := repo.TestCase().Get(ctx, missing.ID)
		gt.NoError(t, err).Required()
		gt.B(t, backfilled.HasEmbedding()).True()

		untouched, err := repo.TestCase().Get(ctx, withVector.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, untouched.Embedding[0]).Equal(float32(1))
	})

	t.Run("per-record failure does not stop the pass", func(t *testing.T) {
		repo := memory.New()
		llm := &mockLLMClient{
			embedErrors: map[string]error{
				"bad record": errors.New("embedding rejected"),
			},
		}
		embeddingSvc, err := embedding.New(llm)
		gt.NoError(t, err).Required()

		_, err = repo.TestCase().Create(ctx, &model.TestCase{Name: "bad record"})
		gt.NoError(t, err).Required()
		good, err := repo.TestCase().Create(ctx, &model.TestCase{Name: "good record"})
		gt.NoError(t, err).Required()

		w := worker.NewEmbeddingBackfillWorker(repo, embeddingSvc, time.Hour)
		gt.NoError(t, w.Start(ctx))
		defer w.Stop()

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			count, err := repo.TestCase().CountEmbedded(ctx)
			gt.NoError(t, err)
			if count == 1 {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}

		backfilled, err := repo.TestCase().Get(ctx, good.ID)
		gt.NoError(t, err).Required()
		gt.B(t, backfilled.HasEmbedding()).True()
		gt.B(t, llm.calls() >= 2).True()
	})

	t.Run("stop waits for the loop to exit", func(t *testing.T) {
		repo := memory.New()
		llm := &mockLLMClient{}
		embeddingSvc, err := embedding.New(llm)
		gt.NoError(t, err).Required()

		w := worker.NewEmbeddingBackfillWorker(repo, embeddingSvc, 10*time.Millisecond)
		gt.NoError(t, w.Start(ctx))

		time.Sleep(30 * time.Millisecond)
		w.Stop() // must not hang
	})
}
