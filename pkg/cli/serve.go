package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/casecraft-dev/casecraft/pkg/cli/config"
	httpctrl "github.com/casecraft-dev/casecraft/pkg/controller/http"
	"github.com/casecraft-dev/casecraft/pkg/service/embedding"
	"github.com/casecraft-dev/casecraft/pkg/service/testgen"
	"github.com/casecraft-dev/casecraft/pkg/service/worker"
	"github.com/casecraft-dev/casecraft/pkg/usecase"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var genCfg config.Generation

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CASECRAFT_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, genCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := genCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load generation configuration")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			ucOpts := []usecase.Option{
				usecase.WithGenerationTimeout(genCfg.GenerationTimeout()),
				usecase.WithBulkConcurrency(genCfg.BulkConcurrency()),
			}

			// AI services are enabled only when Gemini is configured
			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}

			var embeddingSvc *embedding.Service
			if llmClient != nil {
				embeddingSvc, err = embedding.New(llmClient)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize embedding service")
				}
				testgenSvc, err := testgen.New(llmClient, genCfg.TestGenOptions()...)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize test generation service")
				}
				ucOpts = append(ucOpts,
					usecase.WithEmbedding(embeddingSvc),
					usecase.WithTestGen(testgenSvc),
				)
				logging.Default().Info("AI generation enabled", "generation", genCfg)
			} else {
				logging.Default().Info("Gemini not configured, AI generation and semantic search are disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			// Backfill embeddings for records imported without vectors
			var backfillWorker *worker.EmbeddingBackfillWorker
			if embeddingSvc != nil && genCfg.BackfillInterval() > 0 {
				backfillWorker = worker.NewEmbeddingBackfillWorker(repo, embeddingSvc, genCfg.BackfillInterval())
				if err := backfillWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start embedding backfill worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				if backfillWorker != nil {
					backfillWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if backfillWorker != nil {
					backfillWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
