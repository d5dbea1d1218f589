package api

import (
	"net/http"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Backend  string `json:"backend"`
	Cache    string `json:"cache"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Backend:  string(s.db.Backend()),
		Cache:    "ok",
	}
	status := http.StatusOK

	if err := s.db.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if s.cachePinger == nil {
		resp.Cache = "in-memory"
	} else if err := s.cachePinger.Ping(r.Context()); err != nil {
		// a dead cache degrades reads but does not fail them
		resp.Status = "degraded"
		resp.Cache = "unreachable"
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.CacheStats())
}
