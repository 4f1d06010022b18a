package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/service/testgen"
	"github.com/casecraft-dev/casecraft/pkg/usecase"
	"github.com/casecraft-dev/casecraft/pkg/utils/errutil"
)

// testCaseResponse is the wire shape of a test case. The embedding
// vector is internal and never leaves the API.
type testCaseResponse struct {
	ID                 types.TestCaseID       `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description"`
	Type               types.CaseType         `json:"type"`
	Priority           types.Priority         `json:"priority"`
	Steps              []model.Step           `json:"steps"`
	ExpectedResult     string                 `json:"expectedResult"`
	Tags               []string               `json:"tags"`
	HasEmbedding       bool                   `json:"hasEmbedding"`
	AIGenerated        bool                   `json:"aiGenerated"`
	OriginalPrompt     string                 `json:"originalPrompt,omitempty"`
	AIConfidence       *float64               `json:"aiConfidence,omitempty"`
	AISuggestions      string                 `json:"aiSuggestions,omitempty"`
	AIGenerationMethod types.GenerationMethod `json:"aiGenerationMethod,omitempty"`
	TokenUsage         *model.TokenUsage      `json:"tokenUsage,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

func toTestCaseResponse(tc *model.TestCase) *testCaseResponse {
	return &testCaseResponse{
		ID:                 tc.ID,
		Name:               tc.Name,
		Description:        tc.Description,
		Type:               tc.Type,
		Priority:           tc.Priority,
		Steps:              tc.Steps,
		ExpectedResult:     tc.ExpectedResult,
		Tags:               tc.Tags,
		HasEmbedding:       tc.HasEmbedding(),
		AIGenerated:        tc.AIGenerated,
		OriginalPrompt:     tc.OriginalPrompt,
		AIConfidence:       tc.AIConfidence,
		AISuggestions:      tc.AISuggestions,
		AIGenerationMethod: tc.AIGenerationMethod,
		TokenUsage:         tc.TokenUsage,
		CreatedAt:          tc.CreatedAt,
		UpdatedAt:          tc.UpdatedAt,
	}
}

func toTestCaseResponses(cases []*model.TestCase) []*testCaseResponse {
	result := make([]*testCaseResponse, len(cases))
	for i, tc := range cases {
		result[i] = toTestCaseResponse(tc)
	}
	return result
}

type referenceResponse struct {
	ID         types.ReferenceID   `json:"id"`
	SourceID   types.TestCaseID    `json:"sourceId"`
	TargetID   types.TestCaseID    `json:"targetId"`
	Type       types.ReferenceType `json:"type"`
	Similarity *float64            `json:"similarity,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

func toReferenceResponse(ref *model.Reference) *referenceResponse {
	return &referenceResponse{
		ID:         ref.ID,
		SourceID:   ref.SourceID,
		TargetID:   ref.TargetID,
		Type:       ref.Type,
		Similarity: ref.Similarity,
		CreatedAt:  ref.CreatedAt,
	}
}

type outgoingReferenceResponse struct {
	referenceResponse
	Target model.TestCaseRef `json:"testCase"`
}

type incomingReferenceResponse struct {
	referenceResponse
	Source model.TestCaseRef `json:"testCase"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// handleError maps domain errors onto HTTP status codes
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
	case errors.Is(err, types.ErrReferenceExists):
		errutil.HandleHTTP(ctx, w, err, http.StatusConflict)
	case errors.Is(err, usecase.ErrEmptyName), errors.Is(err, usecase.ErrEmptyPrompt):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrAINotConfigured), errors.Is(err, testgen.ErrGenerationUnavailable):
		errutil.HandleHTTP(ctx, w, err, http.StatusServiceUnavailable)
	case errors.Is(err, testgen.ErrInvalidResponse):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadGateway)
	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
	}
}
