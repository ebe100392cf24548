package api

import (
	"net/http"

	service "github.com/okian/brokerflow/internal/app"
	"github.com/okian/brokerflow/internal/domain/model"
)

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type credentialResponse struct {
	Configured bool `json:"configured"`
}

type preferencesResponse struct {
	service.Preferences
	Currencies []string `json:"currencies"`
	Timezones  []string `json:"timezones"`
}

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Weights())
}

// handlePutWeights serves PUT /api/weights. Weights need not sum to one.
func (s *Server) handlePutWeights(w http.ResponseWriter, r *http.Request) {
	var weights model.Weights
	if err := decodeJSON(w, r, &weights); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.deps.SetWeights(r.Context(), weights); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Weights())
}

// handlePutCredential serves PUT /api/settings/credential. The key is never
// echoed back.
func (s *Server) handlePutCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.deps.SetCredential(r.Context(), req.APIKey); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialResponse{Configured: s.deps.HasCredential()})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, preferencesResponse{
		Preferences: s.deps.Preferences(),
		Currencies:  service.Currencies(),
		Timezones:   service.Timezones(),
	})
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var p service.Preferences
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.deps.SetPreferences(r.Context(), p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Preferences())
}
