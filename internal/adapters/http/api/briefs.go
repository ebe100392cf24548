package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type briefAccepted struct {
	RequestID string `json:"requestId"`
	PolicyID  string `json:"policyId"`
}

// handleRequestBrief serves POST /api/policies/{id}/brief.
// 202: queued; 404: unknown policy; 412: no credential; 503: queue full.
func (s *Server) handleRequestBrief(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requestID, err := s.deps.RequestBrief(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, briefAccepted{RequestID: requestID, PolicyID: id})
}

// handleGetBrief serves GET /api/brief, the latest request's state.
func (s *Server) handleGetBrief(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Brief())
}
