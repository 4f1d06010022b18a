package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	controller "github.com/casecraft-dev/casecraft/pkg/controller/http"
	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/repository/memory"
	"github.com/casecraft-dev/casecraft/pkg/service/embedding"
	"github.com/casecraft-dev/casecraft/pkg/service/testgen"
	"github.com/casecraft-dev/casecraft/pkg/usecase"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct{}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return &gollem.Response{Texts: []string{`{"name":"Generated case","confidence":0.9}`}}, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 10, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct{}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	vec := make([]float64, dimension)
	vec[0] = 1
	return [][]float64{vec}, nil
}

func newServer(t *testing.T) *controller.Server {
	t.Helper()

	llm := &mockLLMClient{}
	embeddingSvc, err := embedding.New(llm)
	gt.NoError(t, err).Required()
	testgenSvc, err := testgen.New(llm)
	gt.NoError(t, err).Required()

	uc := usecase.New(memory.New(),
		usecase.WithEmbedding(embeddingSvc),
		usecase.WithTestGen(testgenSvc),
	)
	return controller.New(uc)
}

func doJSON(t *testing.T, srv *controller.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body)).Required()
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), v)).Required()
}

func TestHealth(t *testing.T) {
	srv := newServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
}

func TestTestCaseEndpoints(t *testing.T) {
	srv := newServer(t)

	t.Run("create and get", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases", map[string]any{
			"name":        "Valid login",
			"description": "Happy path",
			"type":        "positive",
			"priority":    "high",
			"steps": []map[string]string{
				{"step": "open login page", "expectedResult": "form visible"},
			},
			"expectedResult": "logged in",
			"tags":           []string{"auth"},
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var created struct {
			ID           string `json:"id"`
			Name         string `json:"name"`
			HasEmbedding bool   `json:"hasEmbedding"`
			Embedding    []any  `json:"Embedding"`
		}
		decodeBody(t, rec, &created)
		gt.Value(t, created.Name).Equal("Valid login")
		gt.B(t, created.HasEmbedding).True()
		gt.Array(t, created.Embedding).Length(0) // vector never leaves the API

		rec = doJSON(t, srv, http.MethodGet, "/api/testcases/"+created.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("missing name is a bad request", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases", map[string]any{"description": "nameless"})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/testcases/tc_missing", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("patch updates only sent fields", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases", map[string]any{
			"name":        "patch target",
			"description": "original description",
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)
		var created struct {
			ID string `json:"id"`
		}
		decodeBody(t, rec, &created)

		rec = doJSON(t, srv, http.MethodPatch, "/api/testcases/"+created.ID, map[string]any{
			"name": "patched",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var updated struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		decodeBody(t, rec, &updated)
		gt.Value(t, updated.Name).Equal("patched")
		gt.Value(t, updated.Description).Equal("original description")
	})

	t.Run("delete", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases", map[string]any{"name": "doomed"})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)
		var created struct {
			ID string `json:"id"`
		}
		decodeBody(t, rec, &created)

		rec = doJSON(t, srv, http.MethodDelete, "/api/testcases/"+created.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNoContent)

		rec = doJSON(t, srv, http.MethodDelete, "/api/testcases/"+created.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("bulk import reports per-item outcomes", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/bulk", map[string]any{
			"testCases": []map[string]any{
				{"name": "bulk one"},
				{"description": "no name"},
			},
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Succeeded int `json:"succeeded"`
			Failed    int `json:"failed"`
		}
		decodeBody(t, rec, &resp)
		gt.Number(t, resp.Succeeded).Equal(1)
		gt.Number(t, resp.Failed).Equal(1)
	})

	t.Run("search validates parameters", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/testcases/search?query=x&minSimilarity=1.5", nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

		rec = doJSON(t, srv, http.MethodGet, "/api/testcases/search?query=x&limit=0", nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

		rec = doJSON(t, srv, http.MethodGet, "/api/testcases/search?query=login", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("stats", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/stats", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var stats model.Statistics
		decodeBody(t, rec, &stats)
		gt.Number(t, stats.TotalTestCases).Greater(0)
	})
}

func TestGenerateEndpoints(t *testing.T) {
	srv := newServer(t)

	t.Run("generate preview", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/generate-with-ai", map[string]any{
			"prompt": "test the login form",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var generated model.GeneratedTestCase
		decodeBody(t, rec, &generated)
		gt.Value(t, generated.Name).Equal("Generated case")
		gt.B(t, generated.AIGenerated).True()
	})

	t.Run("empty prompt is a bad request", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/generate-with-ai", map[string]any{})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("invalid knobs are bad requests", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/generate-with-ai", map[string]any{
			"prompt":                 "p",
			"ragSimilarityThreshold": 2.0,
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("generate and save persists", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/generate-and-save-with-ai", map[string]any{
			"prompt": "test the logout flow",
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var resp struct {
			TestCase struct {
				ID          string `json:"id"`
				AIGenerated bool   `json:"aiGenerated"`
			} `json:"testCase"`
		}
		decodeBody(t, rec, &resp)
		gt.B(t, resp.TestCase.AIGenerated).True()

		rec = doJSON(t, srv, http.MethodGet, "/api/testcases/"+resp.TestCase.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("estimate tokens", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/estimate-tokens", map[string]any{
			"prompt": "estimate me",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var est model.Estimate
		decodeBody(t, rec, &est)
		gt.Number(t, est.Tokens).Greater(0)
		gt.Value(t, est.Model).Equal("gemini-1.5-flash")
	})
}

func TestReferenceEndpoints(t *testing.T) {
	srv := newServer(t)

	createCase := func(t *testing.T, name string) string {
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases", map[string]any{"name": name})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)
		var created struct {
			ID string `json:"id"`
		}
		decodeBody(t, rec, &created)
		return created.ID
	}

	t.Run("manual reference lifecycle", func(t *testing.T) {
		a := createCase(t, "a")
		b := createCase(t, "b")

		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/"+a+"/reference/"+b, nil)
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var ref struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		decodeBody(t, rec, &ref)
		gt.Value(t, ref.Type).Equal("manual")

		// Reversed pair conflicts
		rec = doJSON(t, srv, http.MethodPost, "/api/testcases/"+b+"/reference/"+a, nil)
		gt.Number(t, rec.Code).Equal(http.StatusConflict)

		// Self reference rejected
		rec = doJSON(t, srv, http.MethodPost, "/api/testcases/"+a+"/reference/"+a, nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

		rec = doJSON(t, srv, http.MethodGet, "/api/testcases/"+a+"/full", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var detail struct {
			Outgoing []json.RawMessage `json:"outgoingReferences"`
			Counts   struct {
				Outgoing int `json:"outgoing"`
			} `json:"referenceCounts"`
		}
		decodeBody(t, rec, &detail)
		gt.Array(t, detail.Outgoing).Length(1)
		gt.Number(t, detail.Counts.Outgoing).Equal(1)

		rec = doJSON(t, srv, http.MethodDelete, "/api/testcases/reference/"+ref.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNoContent)
	})

	t.Run("reference to missing case is 404", func(t *testing.T) {
		a := createCase(t, "lonely")
		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/"+a+"/reference/tc_missing", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("derive", func(t *testing.T) {
		a := createCase(t, "origin")

		rec := doJSON(t, srv, http.MethodPost, "/api/testcases/derive/"+a, map[string]any{
			"name": "variant",
			"type": "negative",
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var derived struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		}
		decodeBody(t, rec, &derived)
		gt.Value(t, derived.Name).Equal("variant")
		gt.Value(t, derived.Type).Equal("negative")

		rec = doJSON(t, srv, http.MethodGet, "/api/testcases/"+derived.ID+"/full", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var detail struct {
			Counts struct {
				Derived int `json:"derived"`
			} `json:"referenceCounts"`
		}
		decodeBody(t, rec, &detail)
		gt.Number(t, detail.Counts.Derived).Equal(1)
	})
}
