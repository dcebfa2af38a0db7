package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/reportforge/internal/compose"
	"github.com/dgallion1/reportforge/internal/pipeline"
	"github.com/dgallion1/reportforge/internal/render"
	"github.com/dgallion1/reportforge/internal/store"
)

type submitRequest struct {
	Layout    string           `json:"layout,omitempty"`
	Report    *compose.Report  `json:"report,omitempty"`
	Formats   []string         `json:"formats,omitempty"`
	Artifacts *inlineArtifacts `json:"artifacts,omitempty"`
}

// inlineArtifacts lets a request carry its artifacts in the body. Such a
// request composes against these alone, ignoring the configured store.
type inlineArtifacts struct {
	Tables map[string]compose.TableArtifact `json:"tables,omitempty"`
	Charts map[string]inlineChart           `json:"charts,omitempty"`
}

// inlineChart is the wire shape for an inline chart; Data is base64 in JSON.
type inlineChart struct {
	Image string `json:"image,omitempty"`
	Data  []byte `json:"data,omitempty"`
}

// buildSource validates the inline artifacts and loads them into a fresh
// snapshot store.
func (a *inlineArtifacts) buildSource() (*store.Memory, error) {
	mem := store.NewMemory()
	for name, t := range a.Tables {
		if err := render.ValidateMarkup(t.Markup); err != nil {
			return nil, fmt.Errorf("inline table %q: %w", name, err)
		}
		mem.RegisterTable(name, t)
	}
	for name, c := range a.Charts {
		if c.Image == "" && len(c.Data) == 0 {
			return nil, fmt.Errorf("inline chart %q has neither image reference nor data", name)
		}
		img := c.Image
		if img == "" {
			img = name + ".png"
		}
		mem.RegisterChart(name, compose.ChartArtifact{Image: img, Data: c.Data})
	}
	return mem, nil
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, s.cfg.MaxUploadBytes)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	report := req.Report
	if report == nil && req.Layout != "" {
		def, ok := s.layouts[req.Layout]
		if !ok {
			jsonError(w, fmt.Sprintf("unknown layout %q", req.Layout), http.StatusNotFound)
			return
		}
		rep := def.Report()
		report = &rep
	}
	if report == nil {
		jsonError(w, "either report or layout is required", http.StatusBadRequest)
		return
	}
	if err := report.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	formats, err := render.ParseFormats(req.Formats)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(report, formats, req.Layout, pipeline.RequestHashHex(body))
	if req.Artifacts != nil {
		src, err := req.Artifacts.buildSource()
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		job.UseSource(src)
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"formats":  formats,
		"poll_url": fmt.Sprintf("/v1/reports/%s", job.ID),
	})
}

func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	snaps := s.orchestrator.ListJobs()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jobs":  snaps,
		"count": len(snaps),
	})
}

// handleDeleteReport drops a job from tracking and removes its rendered
// files from the output directory.
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.DeleteJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	filesDeleted := 0
	missingFiles := 0
	for _, out := range job.Outputs() {
		path := filepath.Join(s.cfg.OutputDir, filepath.Base(out.File))
		if err := os.Remove(path); err != nil {
			missingFiles++
		} else {
			filesDeleted++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":        jobID,
		"deleted":       true,
		"files_deleted": filesDeleted,
		"missing_files": missingFiles,
	})
}

func (s *Server) handleReportFile(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	name := chi.URLParam(r, "name")

	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	// Only files the job recorded are served; the name doubles as the
	// on-disk name under the output directory.
	outputs := job.Outputs()
	idx := -1
	for i := range outputs {
		if outputs[i].File == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		jsonError(w, "file not found for job", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if ct := contentTypeFor(outputs[idx].Format); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.OutputDir, filepath.Base(name)))
}

func contentTypeFor(f render.Format) string {
	switch f {
	case render.FormatHTML:
		return "text/html; charset=utf-8"
	case render.FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return ""
}

// readBody reads a size-limited request body, writing the error response
// itself when the read fails.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", maxErr.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read request", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
