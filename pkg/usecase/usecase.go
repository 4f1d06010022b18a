package usecase

import (
	"time"

	"github.com/casecraft-dev/casecraft/pkg/domain/interfaces"
	"github.com/casecraft-dev/casecraft/pkg/service/embedding"
	"github.com/casecraft-dev/casecraft/pkg/service/testgen"
)

// Defaults applied by transport layers when the request omits a value
const (
	DefaultSearchMinSimilarity    = 0.7
	DefaultSearchLimit            = 10
	DefaultRAGSimilarityThreshold = 0.7
	DefaultMaxRAGReferences       = 3

	// DefaultGenerationTimeout bounds a single LLM generation call
	DefaultGenerationTimeout = 60 * time.Second

	// DefaultBulkConcurrency bounds parallel embedding calls in BulkImport
	DefaultBulkConcurrency = 4
)

type UseCases struct {
	repo              interfaces.Repository
	embedding         *embedding.Service
	testgen           *testgen.Service
	generationTimeout time.Duration
	bulkConcurrency   int
}

type Option func(*UseCases)

// WithEmbedding enables embedding-backed features: search, RAG retrieval
// and embedding on write
func WithEmbedding(svc *embedding.Service) Option {
	return func(uc *UseCases) {
		uc.embedding = svc
	}
}

// WithTestGen enables AI test case generation and estimation
func WithTestGen(svc *testgen.Service) Option {
	return func(uc *UseCases) {
		uc.testgen = svc
	}
}

// WithGenerationTimeout overrides the per-call generation deadline
func WithGenerationTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.generationTimeout = d
	}
}

// WithBulkConcurrency overrides the embedding parallelism of BulkImport
func WithBulkConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.bulkConcurrency = n
		}
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:              repo,
		generationTimeout: DefaultGenerationTimeout,
		bulkConcurrency:   DefaultBulkConcurrency,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
