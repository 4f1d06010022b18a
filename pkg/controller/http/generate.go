package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/usecase"
	"github.com/casecraft-dev/casecraft/pkg/utils/errutil"
)

type generateRequest struct {
	Prompt            string `json:"prompt"`
	Context           string `json:"context"`
	PreferredType     string `json:"preferredType"`
	PreferredPriority string `json:"preferredPriority"`

	UseRAG                 *bool    `json:"useRAG"`
	RAGSimilarityThreshold *float64 `json:"ragSimilarityThreshold"`
	MaxRAGReferences       *int     `json:"maxRAGReferences"`
}

// resolve applies request defaults: RAG on, threshold 0.7, 3 references
func (req *generateRequest) resolve() (*usecase.GenerateRequest, error) {
	resolved := &usecase.GenerateRequest{
		Prompt:                 req.Prompt,
		Context:                req.Context,
		PreferredType:          req.PreferredType,
		PreferredPriority:      req.PreferredPriority,
		UseRAG:                 true,
		RAGSimilarityThreshold: usecase.DefaultRAGSimilarityThreshold,
		MaxRAGReferences:       usecase.DefaultMaxRAGReferences,
	}

	if req.UseRAG != nil {
		resolved.UseRAG = *req.UseRAG
	}
	if req.RAGSimilarityThreshold != nil {
		if *req.RAGSimilarityThreshold < 0 || *req.RAGSimilarityThreshold > 1 {
			return nil, goerr.New("ragSimilarityThreshold must be between 0 and 1")
		}
		resolved.RAGSimilarityThreshold = *req.RAGSimilarityThreshold
	}
	if req.MaxRAGReferences != nil {
		if *req.MaxRAGReferences < 1 || *req.MaxRAGReferences > 10 {
			return nil, goerr.New("maxRAGReferences must be between 1 and 10")
		}
		resolved.MaxRAGReferences = *req.MaxRAGReferences
	}

	return resolved, nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	resolved, err := req.resolve()
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	generated, err := s.uc.Generate(r.Context(), resolved)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, generated)
}

func (s *Server) handleGenerateAndSave(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	resolved, err := req.resolve()
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	created, generated, err := s.uc.GenerateAndSave(r.Context(), resolved)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, map[string]any{
		"testCase":   toTestCaseResponse(created),
		"generation": generated,
	})
}

func (s *Server) handleEstimateTokens(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	resolved, err := req.resolve()
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	estimate, err := s.uc.Estimate(r.Context(), resolved)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, estimate)
}
