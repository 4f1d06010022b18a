package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/interfaces"
	"github.com/casecraft-dev/casecraft/pkg/service/embedding"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
)

// EmbeddingBackfillWorker periodically embeds test cases whose embedding
// is missing or malformed, so records created while the embedding
// provider was down become searchable again.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type EmbeddingBackfillWorker struct {
	repo      interfaces.Repository
	embedding *embedding.Service
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewEmbeddingBackfillWorker creates a new worker for backfilling embeddings
func NewEmbeddingBackfillWorker(repo interfaces.Repository, embeddingSvc *embedding.Service, interval time.Duration) *EmbeddingBackfillWorker {
	return &EmbeddingBackfillWorker{
		repo:      repo,
		embedding: embeddingSvc,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background backfill loop
// - Initial pass and periodic passes both run in a background goroutine
// - Does not block server startup
func (w *EmbeddingBackfillWorker) Start(ctx context.Context) error {
	logging.Default().Info("Embedding backfill worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *EmbeddingBackfillWorker) Stop() {
	logging.Default().Info("Embedding backfill worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Embedding backfill worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *EmbeddingBackfillWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.backfill(ctx); err != nil {
		logging.Default().Error("Initial embedding backfill failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.backfill(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("Embedding backfill failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Embedding backfill worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Embedding backfill worker context cancelled")
			return
		}
	}
}

// backfill performs a single pass over records missing an embedding.
// Per-record embedding failures are logged and skipped; the pass
// continues so one bad record cannot starve the rest.
func (w *EmbeddingBackfillWorker) backfill(ctx context.Context) error {
	startTime := time.Now()

	all, err := w.repo.TestCase().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list test cases")
	}

	var pending, updated, failed int
	for _, tc := range all {
		if tc.HasEmbedding() {
			continue
		}
		pending++

		vector, err := w.embedding.Embed(ctx, tc.EmbeddingText())
		if err != nil {
			failed++
			logging.Default().Warn("Failed to embed test case (will retry next interval)",
				"id", tc.ID,
				"error", err.Error())
			continue
		}

		tc.Embedding = vector
		if _, err := w.repo.TestCase().Update(ctx, tc); err != nil {
			failed++
			logging.Default().Warn("Failed to store backfilled embedding",
				"id", tc.ID,
				"error", err.Error())
			continue
		}
		updated++
	}

	if pending > 0 {
		logging.Default().Info("Embedding backfill completed",
			"pending", pending,
			"updated", updated,
			"failed", failed,
			"duration", time.Since(startTime).String())
	}

	return nil
}
