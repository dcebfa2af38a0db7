package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/reportforge/internal/compose"
	"github.com/dgallion1/reportforge/internal/render"
	"github.com/dgallion1/reportforge/internal/store"
)

// Worker turns one queued report request into rendered output files.
type Worker struct {
	src       store.Source
	log       *slog.Logger
	outputDir string
	imageDir  string
	timings   *TimingStats
}

func NewWorker(src store.Source, log *slog.Logger, outputDir, imageDir string, timings *TimingStats) *Worker {
	return &Worker{
		src:       src,
		log:       log,
		outputDir: outputDir,
		imageDir:  imageDir,
		timings:   timings,
	}
}

// Process runs the full build pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "title", job.Title)
	start := time.Now()
	defer func() { w.timings.Record("total", time.Since(start)) }()

	// Phase 1: Materialize the artifacts the request references. Transient
	// source failures are retried; missing artifacts surface in compose.
	job.SetStatus(StatusMaterializing, "materializing")
	report := job.Report()
	if report == nil {
		job.AddError("no report attached to job")
		job.SetStatus(StatusFailed, "materializing")
		return
	}

	src := w.src
	if override := job.Source(); override != nil {
		src = override
	}

	phase := time.Now()
	var snapshot *store.Memory
	var err error
	for attempt := range MaxRetries {
		snapshot, err = store.Materialize(ctx, src, *report)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable materialize error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "materializing")
			return
		}
	}
	if err != nil {
		log.Error("materialize failed", "error", err)
		job.AddError(fmt.Sprintf("materialize: %s", err))
		job.SetStatus(StatusFailed, "materializing")
		return
	}
	w.timings.Record("materializing", time.Since(phase))
	tables, charts := snapshot.Counts()
	job.SetArtifactsFetched(tables + charts)
	log.Info("materialized artifacts", "tables", tables, "charts", charts)

	// Phase 2: Compose. Any failure here is final for the job; there is no
	// partially composed document.
	job.SetStatus(StatusComposing, "composing")
	phase = time.Now()
	doc, err := compose.Compose(*report, snapshot)
	if err != nil {
		log.Error("compose failed", "error", err)
		job.AddError(fmt.Sprintf("compose: %s", err))
		job.SetStatus(StatusFailed, "composing")
		return
	}
	w.timings.Record("composing", time.Since(phase))
	job.SetBlocks(len(doc.Blocks))
	log.Info("composed document", "blocks", len(doc.Blocks))

	// Phase 3: Render each requested format. Outputs are buffered in full
	// before hitting disk so a failed render leaves no file behind.
	job.SetStatus(StatusRendering, "rendering")
	phase = time.Now()
	wrote := 0
	hadErrors := false
	for _, format := range job.Formats {
		r, err := render.For(format)
		if err != nil {
			job.AddError(err.Error())
			hadErrors = true
			continue
		}
		if d, ok := r.(*render.DOCX); ok {
			d.ImageDir = w.imageDir
		}
		name := outputName(job, format)
		size, err := w.renderToFile(r, doc, filepath.Join(w.outputDir, name))
		if err != nil {
			log.Error("render failed", "format", format, "error", err)
			job.AddError(fmt.Sprintf("render %s: %s", format, err))
			hadErrors = true
			continue
		}
		job.AddOutput(OutputFile{Format: format, File: name, Bytes: size})
		wrote++
	}

	w.timings.Record("rendering", time.Since(phase))

	switch {
	case wrote == 0:
		job.SetStatus(StatusFailed, "rendering")
	case hadErrors:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("report build finished", "outputs", wrote, "requested", len(job.Formats))
}

func (w *Worker) renderToFile(r render.Renderer, doc *compose.Document, path string) (int64, error) {
	var buf bytes.Buffer
	if err := r.Render(doc, &buf); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	return int64(buf.Len()), nil
}

// outputName builds a collision-free file name for one rendered format.
func outputName(job *Job, format render.Format) string {
	slug := slugify(job.Title)
	if slug == "" {
		slug = "report"
	}
	id := job.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s.%s", slug, id, format.Ext())
}

// slugify lowercases s and replaces runs of non-alphanumerics with a dash.
func slugify(s string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
