package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dgallion1/reportforge/internal/compose"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"queue_depth":    s.orchestrator.QueueDepth(),
		"jobs":           s.orchestrator.JobCounts(),
		"timings":        s.orchestrator.Timings(),
		"layouts":        len(s.layouts),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}

	if s.artifacts != nil {
		if infos, err := s.artifacts.List(r.Context()); err == nil {
			tables, charts := 0, 0
			for _, info := range infos {
				if info.Kind == compose.KindTable {
					tables++
				} else {
					charts++
				}
			}
			resp["tables"] = tables
			resp["charts"] = charts
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
