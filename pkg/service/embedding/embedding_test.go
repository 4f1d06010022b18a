package embedding_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gt"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/service/embedding"
)

type mockLLMClient struct {
	lastInput []string
	lastDim   int
	response  [][]float64
	err       error
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.lastInput = input
	c.lastDim = dimension
	if c.err != nil {
		return nil, c.err
	}
	if c.response != nil {
		return c.response, nil
	}
	vec := make([]float64, dimension)
	vec[0] = 0.25
	return [][]float64{vec}, nil
}

func TestNewRequiresClient(t *testing.T) {
	_, err := embedding.New(nil)
	gt.Error(t, err)
}

func TestEmbed(t *testing.T) {
	mock := &mockLLMClient{}
	svc, err := embedding.New(mock)
	gt.NoError(t, err).Required()

	vec, err := svc.Embed(t.Context(), "  login with valid credentials  ")
	gt.NoError(t, err).Required()

	gt.Array(t, vec).Length(model.EmbeddingDimension)
	gt.Value(t, vec[0]).Equal(float32(0.25))
	gt.Number(t, mock.lastDim).Equal(model.EmbeddingDimension)
	// Input is trimmed before the call
	gt.Value(t, mock.lastInput[0]).Equal("login with valid credentials")
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	svc, err := embedding.New(&mockLLMClient{})
	gt.NoError(t, err).Required()

	_, err = svc.Embed(t.Context(), "   ")
	gt.Error(t, err)
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	mock := &mockLLMClient{response: [][]float64{{0.1, 0.2, 0.3}}}
	svc, err := embedding.New(mock)
	gt.NoError(t, err).Required()

	_, err = svc.Embed(t.Context(), "short vector")
	gt.Error(t, err)
}

func TestEmbedTestCase(t *testing.T) {
	mock := &mockLLMClient{}
	svc, err := embedding.New(mock)
	gt.NoError(t, err).Required()

	_, err = svc.EmbedTestCase(t.Context(), "Login", "Verify login", []string{"auth", "smoke"})
	gt.NoError(t, err).Required()

	gt.Value(t, mock.lastInput[0]).Equal("Login Verify login auth smoke")
}

func TestEmbed_WithRealGemini(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT not set")
	}

	location := os.Getenv("TEST_GEMINI_LOCATION")
	if location == "" {
		t.Skip("TEST_GEMINI_LOCATION not set")
	}

	ctx := context.Background()

	llmClient, err := gemini.New(ctx, projectID, location)
	gt.NoError(t, err).Required()

	svc, err := embedding.New(llmClient)
	gt.NoError(t, err).Required()

	vec, err := svc.Embed(ctx, "Verify that a registered user can log in with valid credentials")
	gt.NoError(t, err).Required()
	gt.Array(t, vec).Length(model.EmbeddingDimension)
}
