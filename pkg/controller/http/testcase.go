package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/usecase"
	"github.com/casecraft-dev/casecraft/pkg/utils/errutil"
)

type testCaseRequest struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Type           string       `json:"type"`
	Priority       string       `json:"priority"`
	Steps          []model.Step `json:"steps"`
	ExpectedResult string       `json:"expectedResult"`
	Tags           []string     `json:"tags"`
}

func (req *testCaseRequest) toInput() *usecase.TestCaseInput {
	return &usecase.TestCaseInput{
		Name:           req.Name,
		Description:    req.Description,
		Type:           types.CaseType(req.Type),
		Priority:       types.Priority(req.Priority),
		Steps:          req.Steps,
		ExpectedResult: req.ExpectedResult,
		Tags:           req.Tags,
	}
}

// testCasePatchRequest distinguishes absent fields from empty ones
type testCasePatchRequest struct {
	Name           *string       `json:"name"`
	Description    *string       `json:"description"`
	Type           *string       `json:"type"`
	Priority       *string       `json:"priority"`
	Steps          *[]model.Step `json:"steps"`
	ExpectedResult *string       `json:"expectedResult"`
	Tags           *[]string     `json:"tags"`
}

func (req *testCasePatchRequest) toPatch() *usecase.TestCasePatch {
	patch := &usecase.TestCasePatch{
		Name:           req.Name,
		Description:    req.Description,
		Steps:          req.Steps,
		ExpectedResult: req.ExpectedResult,
		Tags:           req.Tags,
	}
	if req.Type != nil {
		t := types.CaseType(*req.Type)
		patch.Type = &t
	}
	if req.Priority != nil {
		p := types.Priority(*req.Priority)
		patch.Priority = &p
	}
	return patch
}

func (s *Server) handleListTestCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.uc.ListTestCases(r.Context())
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, toTestCaseResponses(cases))
}

func (s *Server) handleCreateTestCase(w http.ResponseWriter, r *http.Request) {
	var req testCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	created, err := s.uc.CreateTestCase(r.Context(), req.toInput())
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, toTestCaseResponse(created))
}

func (s *Server) handleGetTestCase(w http.ResponseWriter, r *http.Request) {
	testCase, err := s.uc.GetTestCase(r.Context(), types.TestCaseID(chi.URLParam(r, "id")))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, toTestCaseResponse(testCase))
}

func (s *Server) handleUpdateTestCase(w http.ResponseWriter, r *http.Request) {
	var req testCasePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	updated, err := s.uc.UpdateTestCase(r.Context(), types.TestCaseID(chi.URLParam(r, "id")), req.toPatch())
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, toTestCaseResponse(updated))
}

func (s *Server) handleDeleteTestCase(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.DeleteTestCase(r.Context(), types.TestCaseID(chi.URLParam(r, "id"))); err != nil {
		handleError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TestCases []testCaseRequest `json:"testCases"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	inputs := make([]*usecase.TestCaseInput, len(req.TestCases))
	for i := range req.TestCases {
		inputs[i] = req.TestCases[i].toInput()
	}

	type bulkItemResponse struct {
		Index int              `json:"index"`
		ID    types.TestCaseID `json:"id,omitempty"`
		Error string           `json:"error,omitempty"`
	}

	results := s.uc.BulkImport(r.Context(), inputs)
	items := make([]bulkItemResponse, len(results))
	var succeeded int
	for i, res := range results {
		items[i] = bulkItemResponse{Index: res.Index, ID: res.ID}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
		} else {
			succeeded++
		}
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"results":   items,
		"succeeded": succeeded,
		"failed":    len(items) - succeeded,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	minSimilarity := usecase.DefaultSearchMinSimilarity
	if raw := r.URL.Query().Get("minSimilarity"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			errutil.HandleHTTP(r.Context(), w, goerr.New("minSimilarity must be a number between 0 and 1"), http.StatusBadRequest)
			return
		}
		minSimilarity = parsed
	}

	limit := usecase.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			errutil.HandleHTTP(r.Context(), w, goerr.New("limit must be an integer between 1 and 100"), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := s.uc.Search(r.Context(), query, minSimilarity, limit)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}

	type searchHitResponse struct {
		Similarity float64           `json:"similarity"`
		TestCase   *testCaseResponse `json:"testCase"`
	}

	hits := make([]searchHitResponse, len(results))
	for i, res := range results {
		hits[i] = searchHitResponse{
			Similarity: res.Similarity,
			TestCase:   toTestCaseResponse(res.TestCase),
		}
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"query":   query,
		"results": hits,
		"count":   len(hits),
	})
}
