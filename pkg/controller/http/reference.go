package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/utils/errutil"
)

func (s *Server) handleAddReference(w http.ResponseWriter, r *http.Request) {
	sourceID := types.TestCaseID(chi.URLParam(r, "sourceId"))
	targetID := types.TestCaseID(chi.URLParam(r, "targetId"))
	if sourceID == targetID {
		errutil.HandleHTTP(r.Context(), w, goerr.New("cannot reference a test case from itself"), http.StatusBadRequest)
		return
	}

	ref, err := s.uc.AddManualReference(r.Context(), sourceID, targetID)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, toReferenceResponse(ref))
}

func (s *Server) handleRemoveReference(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.RemoveReference(r.Context(), types.ReferenceID(chi.URLParam(r, "refId"))); err != nil {
		handleError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req testCasePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	derived, err := s.uc.Derive(r.Context(), types.TestCaseID(chi.URLParam(r, "id")), req.toPatch())
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, toTestCaseResponse(derived))
}

func (s *Server) handleFullDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.uc.FullDetail(r.Context(), types.TestCaseID(chi.URLParam(r, "id")))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}

	outgoing := make([]outgoingReferenceResponse, len(detail.Outgoing))
	for i, ref := range detail.Outgoing {
		outgoing[i] = outgoingReferenceResponse{
			referenceResponse: *toReferenceResponse(&ref.Reference),
			Target:            ref.Target,
		}
	}
	incoming := make([]incomingReferenceResponse, len(detail.Incoming))
	for i, ref := range detail.Incoming {
		incoming[i] = incomingReferenceResponse{
			referenceResponse: *toReferenceResponse(&ref.Reference),
			Source:            ref.Source,
		}
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"testCase":           toTestCaseResponse(detail.TestCase),
		"outgoingReferences": outgoing,
		"incomingReferences": incoming,
		"referenceCounts":    detail.Counts,
	})
}
