package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/reportforge/internal/compose"
	"github.com/dgallion1/reportforge/internal/render"
	"github.com/dgallion1/reportforge/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSource() *store.Memory {
	src := store.NewMemory()
	src.RegisterTable("hours-by-unit", compose.TableArtifact{
		Markup:   `<table><tr><th>Unit</th><th>Hours</th></tr><tr><td>Alpha</td><td>120</td></tr></table>`,
		HasChart: true,
	})
	src.RegisterChart("hours-by-unit", compose.ChartArtifact{Image: "hours-by-unit.png", Data: []byte("chart-bytes")})
	src.RegisterChart("trend", compose.ChartArtifact{Image: "trend.png", Data: []byte("trend-bytes")})
	return src
}

func simpleReport() *compose.Report {
	return &compose.Report{
		Title: "Quarterly Fleet Report",
		Sections: []compose.Section{{
			Title: "Engine",
			Subsections: []compose.Subsection{{
				Title:     "Summary",
				ShowTitle: true,
				Paragraph: "Hours trended up.",
				Elements: []compose.Element{
					{Type: compose.ElementTable, ArtifactName: "hours-by-unit", Caption: "Hours by unit"},
					{Type: compose.ElementChart, ArtifactName: "trend", Caption: "Trend"},
				},
			}},
		}},
	}
}

// flakySource fails the first n fetches with a retryable error.
type flakySource struct {
	inner    store.Source
	failures int

	mu    sync.Mutex
	calls int
}

func (f *flakySource) FetchTable(ctx context.Context, name string) (compose.TableArtifact, error) {
	if f.fail() {
		return compose.TableArtifact{}, &store.RemoteError{Status: 503, Op: "fetch table", Name: name}
	}
	return f.inner.FetchTable(ctx, name)
}

func (f *flakySource) FetchChart(ctx context.Context, name string) (compose.ChartArtifact, error) {
	if f.fail() {
		return compose.ChartArtifact{}, &store.RemoteError{Status: 503, Op: "fetch chart", Name: name}
	}
	return f.inner.FetchChart(ctx, name)
}

func (f *flakySource) fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.calls <= f.failures
}

func TestWorker_ProcessCompletes(t *testing.T) {
	outDir := t.TempDir()
	timings := NewTimingStats(time.Hour)
	w := NewWorker(newTestSource(), discardLogger(), outDir, "", timings)
	job := NewJob(simpleReport(), []render.Format{render.FormatHTML}, "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %s, errors = %v", snap.Status, snap.Progress.Errors)
	}
	for _, phase := range []string{"materializing", "composing", "rendering", "total"} {
		if _, ok := timings.Snapshot()[phase]; !ok {
			t.Errorf("no %s timing recorded", phase)
		}
	}
	if snap.Progress.ArtifactsFetched != 3 {
		t.Errorf("artifacts fetched = %d, want 3", snap.Progress.ArtifactsFetched)
	}
	if len(snap.Outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(snap.Outputs))
	}

	data, err := os.ReadFile(filepath.Join(outDir, snap.Outputs[0].File))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Table 1.1-1 - Hours by unit") {
		t.Errorf("output missing paired table caption:\n%s", out)
	}
	if !strings.Contains(out, "Figure 1.1-2 - Trend") {
		t.Errorf("output missing standalone figure caption:\n%s", out)
	}
}

func TestWorker_MissingArtifactFails(t *testing.T) {
	w := NewWorker(store.NewMemory(), discardLogger(), t.TempDir(), "", NewTimingStats(time.Hour))
	job := NewJob(simpleReport(), []render.Format{render.FormatHTML}, "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", snap.Status)
	}
	if snap.Phase != "composing" {
		t.Errorf("phase = %q, want composing", snap.Phase)
	}
	if len(snap.Outputs) != 0 {
		t.Errorf("failed job should leave no outputs, got %v", snap.Outputs)
	}
	found := false
	for _, e := range snap.Progress.Errors {
		if strings.Contains(e, "hours-by-unit") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors should name the missing artifact, got %v", snap.Progress.Errors)
	}
}

func TestWorker_JobSourceOverride(t *testing.T) {
	// The configured source is empty; the job pins its own populated one.
	w := NewWorker(store.NewMemory(), discardLogger(), t.TempDir(), "", NewTimingStats(time.Hour))
	job := NewJob(simpleReport(), []render.Format{render.FormatHTML}, "", "")
	job.UseSource(newTestSource())

	w.Process(context.Background(), job)

	if snap := job.Snapshot(); snap.Status != StatusCompleted {
		t.Fatalf("status = %s, errors = %v", snap.Status, snap.Progress.Errors)
	}
}

func TestWorker_RetryableSourceRecovers(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps")
	}
	src := &flakySource{inner: newTestSource(), failures: 1}
	w := NewWorker(src, discardLogger(), t.TempDir(), "", NewTimingStats(time.Hour))
	job := NewJob(simpleReport(), []render.Format{render.FormatHTML}, "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %s after retry, errors = %v", snap.Status, snap.Progress.Errors)
	}
}

func TestWorker_RenderFailureIsPartial(t *testing.T) {
	// The chart bytes are not a decodable image, so the docx render fails
	// while the html render succeeds.
	w := NewWorker(newTestSource(), discardLogger(), t.TempDir(), "", NewTimingStats(time.Hour))
	job := NewJob(simpleReport(), []render.Format{render.FormatHTML, render.FormatDOCX}, "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("status = %s, want partial (errors = %v)", snap.Status, snap.Progress.Errors)
	}
	if len(snap.Outputs) != 1 || snap.Outputs[0].Format != render.FormatHTML {
		t.Errorf("unexpected outputs %+v", snap.Outputs)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected recorded render error")
	}
}

func TestOutputName(t *testing.T) {
	job := &Job{ID: "0b5797f9-d2b8-4d31-b2d7-0123456789ab", Title: "Quarterly Fleet Report"}
	got := outputName(job, render.FormatHTML)
	if got != "quarterly-fleet-report-0b5797f9.html" {
		t.Errorf("outputName = %q", got)
	}

	job = &Job{ID: "short", Title: "  !!  "}
	if got := outputName(job, render.FormatDOCX); got != "report-short.docx" {
		t.Errorf("outputName fallback = %q", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Quarterly Fleet Report", "quarterly-fleet-report"},
		{"Engine (2026)!", "engine-2026"},
		{"--already--dashed--", "already-dashed"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
