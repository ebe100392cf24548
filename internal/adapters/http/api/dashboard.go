package api

import (
	"net/http"

	"github.com/okian/brokerflow/internal/domain/negotiation"
)

const defaultNotificationLimit = 20

type rewardsResponse struct {
	Coins int `json:"coins"`
}

// handleSummary serves GET /api/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Summary(r.Context()))
}

// handleNotifications serves GET /api/notifications?limit=N, newest first.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultNotificationLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Notifications(limit))
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rewardsResponse{Coins: s.deps.Rewards()})
}

// handleSimulate serves POST /api/negotiation/retention. Read-only.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var in negotiation.Input
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.deps.Simulate(in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
