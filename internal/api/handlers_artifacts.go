package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fumiama/imgsz"
	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/reportforge/internal/compose"
	"github.com/dgallion1/reportforge/internal/render"
)

type tableUpload struct {
	Markup   string `json:"markup"`
	HasChart bool   `json:"hasChart"`
}

func (s *Server) handleUpsertTable(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		jsonError(w, "artifact store is read-only", http.StatusServiceUnavailable)
		return
	}
	name := chi.URLParam(r, "name")

	body, ok := readBody(w, r, s.cfg.MaxUploadBytes)
	if !ok {
		return
	}
	var req tableUpload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
		// CSV bodies are converted to table markup; the first record is
		// the header row. hasChart arrives as a query parameter.
		grid, err := render.GridFromCSV(bytes.NewReader(body))
		if err != nil {
			jsonError(w, "invalid csv: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Markup = grid.Markup()
		req.HasChart = r.URL.Query().Get("hasChart") == "true"
	} else if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Markup) == "" {
		jsonError(w, "markup is required", http.StatusBadRequest)
		return
	}
	if err := render.ValidateMarkup(req.Markup); err != nil {
		jsonError(w, "invalid table markup: "+err.Error(), http.StatusBadRequest)
		return
	}

	art := compose.TableArtifact{Markup: req.Markup, HasChart: req.HasChart}
	if err := s.artifacts.PutTable(r.Context(), name, art); err != nil {
		jsonError(w, "store table: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":      name,
		"kind":      compose.KindTable,
		"has_chart": req.HasChart,
	})
}

func (s *Server) handleUpsertChart(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		jsonError(w, "artifact store is read-only", http.StatusServiceUnavailable)
		return
	}
	name := chi.URLParam(r, "name")

	data, ok := readBody(w, r, s.cfg.MaxUploadBytes)
	if !ok {
		return
	}
	if len(data) == 0 {
		jsonError(w, "image data is required", http.StatusBadRequest)
		return
	}
	_, format, err := imgsz.DecodeSize(bytes.NewReader(data))
	if err != nil {
		jsonError(w, "unsupported image data: "+err.Error(), http.StatusBadRequest)
		return
	}

	art := compose.ChartArtifact{Image: name + "." + format, Data: data}
	if err := s.artifacts.PutChart(r.Context(), name, art); err != nil {
		jsonError(w, "store chart: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":  name,
		"kind":  compose.KindChart,
		"image": art.Image,
		"bytes": len(data),
	})
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	s.deleteArtifact(w, r, compose.KindTable)
}

func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	s.deleteArtifact(w, r, compose.KindChart)
}

func (s *Server) deleteArtifact(w http.ResponseWriter, r *http.Request, kind compose.ArtifactKind) {
	if s.artifacts == nil {
		jsonError(w, "artifact store is read-only", http.StatusServiceUnavailable)
		return
	}
	name := chi.URLParam(r, "name")

	var err error
	if kind == compose.KindTable {
		err = s.artifacts.DeleteTable(r.Context(), name)
	} else {
		err = s.artifacts.DeleteChart(r.Context(), name)
	}
	if err != nil {
		if compose.IsNotFound(err) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, "delete artifact: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    name,
		"kind":    kind,
		"deleted": true,
	})
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	if s.artifacts == nil {
		jsonError(w, "artifact store is read-only", http.StatusServiceUnavailable)
		return
	}
	infos, err := s.artifacts.List(r.Context())
	if err != nil {
		jsonError(w, "list artifacts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"artifacts": infos,
		"count":     len(infos),
	})
}
