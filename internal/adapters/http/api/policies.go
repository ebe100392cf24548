package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/domain/model"
)

type listResponse struct {
	Items []model.ScoredPolicy `json:"items"`
	Total int                  `json:"total"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Policy  model.Policy `json:"policy"`
	From    model.Status `json:"from"`
	To      model.Status `json:"to"`
	Changed bool         `json:"changed"`
}

// handleListPolicies serves GET /api/policies?limit=N, the ranked view.
func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	items := s.deps.Ranked(r.Context(), limit)
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(items)})
}

// handleGetPolicy serves GET /api/policies/{id}.
func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Policy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleExplainPolicy serves GET /api/policies/{id}/score.
func (s *Server) handleExplainPolicy(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Explain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleCreatePolicy serves POST /api/policies.
// 201: created policy; 400: schema or field validation failed.
func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if err := s.schema.Validate(body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var in model.PolicyInput
	if err := json.Unmarshal(body, &in); err != nil {
		s.writeServiceError(w, r, errors.Join(ErrBadRequest, err))
		return
	}

	p, err := s.deps.AddPolicy(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/policies/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// handleReplacePolicy serves PUT /api/policies/{id}. Status is kept.
func (s *Server) handleReplacePolicy(w http.ResponseWriter, r *http.Request) {
	var p model.Policy
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	p.ID = chi.URLParam(r, "id")

	updated, err := s.deps.ReplacePolicy(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeletePolicy serves DELETE /api/policies/{id}.
func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.RemovePolicy(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateStatus serves PUT /api/policies/{id}/status.
// 200: applied or no-op; 404: unknown policy; 409: transition not allowed.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	change, err := s.deps.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Policy:  change.Policy,
		From:    change.From,
		To:      change.To,
		Changed: change.Changed,
	})
}
