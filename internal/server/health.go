package server

import (
	"net/http"

	"github.com/git-pkgs/npmchart/internal/cache"
)

type healthResponse struct {
	Status   string            `json:"status"`
	Breakers map[string]string `json:"breakers"`
	Cache    *cache.Stats      `json:"cache,omitempty"`
}

// handleHealth reports "degraded" while any upstream breaker is open.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	resp := healthResponse{
		Status:   "ok",
		Breakers: map[string]string{},
	}
	if s.breakers != nil {
		for host, state := range s.breakers() {
			resp.Breakers[host] = state
			if state == "open" {
				resp.Status = "degraded"
			}
		}
	}
	if s.cacheStats != nil {
		stats := s.cacheStats()
		resp.Cache = &stats
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}
