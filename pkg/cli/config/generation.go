package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/casecraft-dev/casecraft/pkg/service/testgen"
	"github.com/casecraft-dev/casecraft/pkg/usecase"
)

// Generation holds tuning knobs for AI generation, token pricing and the
// embedding backfill worker. Values can come from flags, environment
// variables or an optional TOML file; the file wins for any key it sets.
type Generation struct {
	configPath string

	modelName         string
	pricePerKTokens   float64
	generationTimeout time.Duration
	bulkConcurrency   int
	backfillInterval  time.Duration
}

// generationFile is the TOML representation of the generation settings
type generationFile struct {
	Model struct {
		Name            string  `toml:"name"`
		PricePerKTokens float64 `toml:"price_per_1k_tokens"`
	} `toml:"model"`
	Generation struct {
		TimeoutSeconds int `toml:"timeout_seconds"`
	} `toml:"generation"`
	Import struct {
		Concurrency int `toml:"concurrency"`
	} `toml:"import"`
	Embedding struct {
		BackfillIntervalSeconds int `toml:"backfill_interval_seconds"`
	} `toml:"embedding"`
}

// Flags returns CLI flags for generation configuration
func (g *Generation) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "generation-config",
			Usage:       "Path to TOML file with generation settings",
			Sources:     cli.EnvVars("CASECRAFT_GENERATION_CONFIG"),
			Destination: &g.configPath,
		},
		&cli.StringFlag{
			Name:        "generation-model",
			Usage:       "Model name reported in token estimates",
			Value:       "gemini-1.5-flash",
			Sources:     cli.EnvVars("CASECRAFT_GENERATION_MODEL"),
			Destination: &g.modelName,
		},
		&cli.FloatFlag{
			Name:        "generation-price-per-1k",
			Usage:       "USD price per 1000 tokens used for cost estimates",
			Value:       0.00015,
			Sources:     cli.EnvVars("CASECRAFT_GENERATION_PRICE_PER_1K"),
			Destination: &g.pricePerKTokens,
		},
		&cli.DurationFlag{
			Name:        "generation-timeout",
			Usage:       "Timeout for a single AI generation call",
			Value:       usecase.DefaultGenerationTimeout,
			Sources:     cli.EnvVars("CASECRAFT_GENERATION_TIMEOUT"),
			Destination: &g.generationTimeout,
		},
		&cli.IntFlag{
			Name:        "bulk-concurrency",
			Usage:       "Number of parallel embedding calls during bulk import",
			Value:       usecase.DefaultBulkConcurrency,
			Sources:     cli.EnvVars("CASECRAFT_BULK_CONCURRENCY"),
			Destination: &g.bulkConcurrency,
		},
		&cli.DurationFlag{
			Name:        "embedding-backfill-interval",
			Usage:       "Interval of the embedding backfill worker (0 disables it)",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("CASECRAFT_EMBEDDING_BACKFILL_INTERVAL"),
			Destination: &g.backfillInterval,
		},
	}
}

// LogValue returns log attributes for the generation configuration
func (g Generation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("model", g.modelName),
		slog.Float64("price_per_1k", g.pricePerKTokens),
		slog.Duration("timeout", g.generationTimeout),
		slog.Int("bulk_concurrency", g.bulkConcurrency),
		slog.Duration("backfill_interval", g.backfillInterval),
	)
}

// Configure loads the optional TOML file and validates the resulting
// settings
func (g *Generation) Configure() error {
	if g.configPath != "" {
		if err := g.loadFile(g.configPath); err != nil {
			return err
		}
	}

	if g.modelName == "" {
		return goerr.Wrap(ErrInvalidConfig, "model name is required")
	}
	if g.pricePerKTokens < 0 {
		return goerr.Wrap(ErrInvalidConfig, "price per 1K tokens must not be negative",
			goerr.V("price_per_1k", g.pricePerKTokens))
	}
	if g.generationTimeout <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "generation timeout must be positive",
			goerr.V("timeout", g.generationTimeout))
	}
	if g.bulkConcurrency < 1 {
		return goerr.Wrap(ErrInvalidConfig, "bulk concurrency must be at least 1",
			goerr.V("concurrency", g.bulkConcurrency))
	}

	return nil
}

func (g *Generation) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return goerr.Wrap(ErrConfigNotFound, "generation config file not found",
				goerr.V(ConfigPathKey, path))
		}
		return goerr.Wrap(err, "failed to read generation config file",
			goerr.V(ConfigPathKey, path))
	}

	var file generationFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "failed to parse generation config file",
			goerr.V(ConfigPathKey, path), goerr.V("parse_error", err.Error()))
	}

	if file.Model.Name != "" {
		g.modelName = file.Model.Name
	}
	if file.Model.PricePerKTokens > 0 {
		g.pricePerKTokens = file.Model.PricePerKTokens
	}
	if file.Generation.TimeoutSeconds > 0 {
		g.generationTimeout = time.Duration(file.Generation.TimeoutSeconds) * time.Second
	}
	if file.Import.Concurrency > 0 {
		g.bulkConcurrency = file.Import.Concurrency
	}
	if file.Embedding.BackfillIntervalSeconds > 0 {
		g.backfillInterval = time.Duration(file.Embedding.BackfillIntervalSeconds) * time.Second
	}

	return nil
}

// TestGenOptions returns service options derived from the configuration
func (g *Generation) TestGenOptions() []testgen.Option {
	return []testgen.Option{
		testgen.WithModelName(g.modelName),
		testgen.WithPricePerKTokens(g.pricePerKTokens),
	}
}

// ModelName returns the configured model name
func (g *Generation) ModelName() string {
	return g.modelName
}

// PricePerKTokens returns the configured USD price per 1000 tokens
func (g *Generation) PricePerKTokens() float64 {
	return g.pricePerKTokens
}

// GenerationTimeout returns the configured generation timeout
func (g *Generation) GenerationTimeout() time.Duration {
	return g.generationTimeout
}

// BulkConcurrency returns the configured bulk import concurrency
func (g *Generation) BulkConcurrency() int {
	return g.bulkConcurrency
}

// BackfillInterval returns the embedding backfill worker interval
func (g *Generation) BackfillInterval() time.Duration {
	return g.backfillInterval
}
