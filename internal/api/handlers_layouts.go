package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/dgallion1/reportforge/internal/layout"
)

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	type layoutInfo struct {
		Name     string `json:"name"`
		Title    string `json:"title"`
		Sections int    `json:"sections"`
	}
	infos := make([]layoutInfo, 0, len(s.layouts))
	for name, def := range s.layouts {
		infos = append(infos, layoutInfo{Name: name, Title: def.Title, Sections: len(def.Sections)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"layouts": infos,
		"count":   len(infos),
	})
}

func (s *Server) handleValidateLayout(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, s.cfg.MaxUploadBytes)
	if !ok {
		return
	}

	def, err := layout.Parse(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"valid":    true,
		"name":     def.Name,
		"title":    def.Title,
		"sections": len(def.Sections),
	})
}
