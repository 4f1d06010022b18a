package testgen

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/service/similarity"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
)

var (
	// ErrGenerationUnavailable indicates the LLM call itself failed.
	// Callers report this as a temporary outage, not a client error.
	ErrGenerationUnavailable = goerr.New("test case generation unavailable")

	// ErrInvalidResponse indicates the LLM answered but no usable JSON
	// object could be extracted from the text
	ErrInvalidResponse = goerr.New("invalid response from generation model")
)

// Request carries the user's generation input
type Request struct {
	Prompt            string
	Context           string
	PreferredType     string
	PreferredPriority string
}

// Service turns a prompt plus retrieved reference cases into a
// validated GeneratedTestCase.
type Service struct {
	llmClient      gollem.LLMClient
	modelName      string
	pricePerKToken float64
}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithModelName sets the model identifier reported in token estimates
func WithModelName(name string) Option {
	return func(s *Service) {
		s.modelName = name
	}
}

// WithPricePerKTokens sets the input token price used for cost estimates
func WithPricePerKTokens(price float64) Option {
	return func(s *Service) {
		s.pricePerKToken = price
	}
}

// New creates a new generation service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	s := &Service{
		llmClient:      llmClient,
		modelName:      "gemini-1.5-flash",
		pricePerKToken: 0.00015,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Generate produces a test case from the request, grounded by the given
// retrieval hits. An empty hit list yields pure AI generation.
func (s *Service) Generate(ctx context.Context, req Request, hits []similarity.Hit) (*model.GeneratedTestCase, error) {
	method := types.GenerationMethodPureAI
	if len(hits) > 0 {
		method = types.GenerationMethodRAG
	}

	systemPrompt := buildSystemPrompt(method == types.GenerationMethodRAG)
	userPrompt := buildUserPrompt(req, hits)

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrGenerationUnavailable, "failed to create LLM session", goerr.V("cause", err))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(userPrompt))
	if err != nil {
		return nil, goerr.Wrap(ErrGenerationUnavailable, "failed to generate content", goerr.V("cause", err))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(ErrInvalidResponse, "generation returned no text")
	}

	generated, err := parseResponse(resp.Texts[0])
	if err != nil {
		return nil, err
	}

	generated.OriginalPrompt = req.Prompt
	generated.AIGenerated = true
	generated.Method = method
	for _, hit := range hits {
		generated.References = append(generated.References, model.RAGReference{
			TestCaseID: hit.Case.ID,
			Similarity: hit.Similarity,
			Target:     hit.Case.Ref(),
		})
	}
	generated.TokenUsage = s.countTokens(ctx, session, systemPrompt, userPrompt, resp.Texts[0])

	return generated, nil
}

// countTokens collects token usage on a best effort basis. Counting
// failures are logged and leave usage nil, never failing the generation.
func (s *Service) countTokens(ctx context.Context, session gollem.Session, systemPrompt, userPrompt, responseText string) *model.TokenUsage {
	logger := logging.From(ctx)

	promptTokens, err := session.CountToken(ctx, gollem.Text(systemPrompt), gollem.Text(userPrompt))
	if err != nil {
		logger.Warn("failed to count prompt tokens", "error", err)
		return nil
	}

	completionTokens, err := session.CountToken(ctx, gollem.Text(responseText))
	if err != nil {
		logger.Warn("failed to count completion tokens", "error", err)
		return nil
	}

	return &model.TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// EstimateTokens approximates the input token count and cost of the
// prompt that Generate would send, without calling the model. The
// heuristic is ~4 characters per token.
func (s *Service) EstimateTokens(req Request, hits []similarity.Hit) *model.Estimate {
	systemPrompt := buildSystemPrompt(len(hits) > 0)
	userPrompt := buildUserPrompt(req, hits)

	tokens := len(systemPrompt+userPrompt) / 4
	cost := float64(tokens) / 1000 * s.pricePerKToken

	return &model.Estimate{
		Tokens:  tokens,
		CostUSD: cost,
		Model:   s.modelName,
		Note:    "Estimation based on ~4 characters per token. Actual usage may vary.",
	}
}
