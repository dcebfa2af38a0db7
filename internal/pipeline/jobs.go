package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/reportforge/internal/compose"
	"github.com/dgallion1/reportforge/internal/render"
	"github.com/dgallion1/reportforge/internal/store"
)

// JobStatus represents the state of a report job.
type JobStatus string

const (
	StatusQueued        JobStatus = "queued"
	StatusMaterializing JobStatus = "materializing"
	StatusComposing     JobStatus = "composing"
	StatusRendering     JobStatus = "rendering"
	StatusCompleted     JobStatus = "completed"
	StatusFailed        JobStatus = "failed"
	StatusPartial       JobStatus = "partial"
)

// Job tracks the state of a single report build.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	Layout string `json:"layout,omitempty"`
	Title  string `json:"title"`

	Status  JobStatus       `json:"status"`
	Phase   string          `json:"phase"`
	Formats []render.Format `json:"formats"`

	Progress Progress `json:"progress"`

	RequestHash string    `json:"request_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	report  *compose.Report
	source  store.Source
	outputs []OutputFile
	errors  []string
}

// Progress tracks build progress.
type Progress struct {
	ArtifactsFetched int      `json:"artifacts_fetched"`
	Blocks           int      `json:"blocks"`
	OutputsWritten   int      `json:"outputs_written"`
	Errors           []string `json:"errors"`
}

// OutputFile describes one rendered deliverable on disk.
type OutputFile struct {
	Format render.Format `json:"format"`
	File   string        `json:"file"`
	Bytes  int64         `json:"bytes"`
}

// NewJob builds a queued job for a report request. requestHash identifies
// the submitted descriptor so clients can tie outputs back to inputs.
func NewJob(report *compose.Report, formats []render.Format, layout, requestHash string) *Job {
	now := time.Now()
	return &Job{
		ID:          NewJobID(),
		Layout:      layout,
		Title:       report.Title,
		Status:      StatusQueued,
		Phase:       "queued",
		Formats:     formats,
		RequestHash: requestHash,
		CreatedAt:   now,
		UpdatedAt:   now,
		report:      report,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns snapshots of every tracked job, newest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	snaps := make([]JobSnapshot, 0, len(jobs))
	for _, job := range jobs {
		snaps = append(snaps, job.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps
}

// Delete removes a job from the registry and returns it, or nil if absent.
func (s *JobStore) Delete(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[id]
	delete(s.jobs, id)
	return job
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Counts returns the number of tracked jobs per status.
func (s *JobStore) Counts() map[JobStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[JobStatus]int)
	for _, job := range s.jobs {
		job.mu.Lock()
		counts[job.Status]++
		job.mu.Unlock()
	}
	return counts
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetArtifactsFetched records how many artifacts the snapshot holds.
func (j *Job) SetArtifactsFetched(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ArtifactsFetched = n
	j.UpdatedAt = time.Now()
}

// SetBlocks records the composed block count.
func (j *Job) SetBlocks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Blocks = n
	j.UpdatedAt = time.Now()
}

// AddOutput records one rendered deliverable.
func (j *Job) AddOutput(out OutputFile) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputs = append(j.outputs, out)
	j.Progress.OutputsWritten = len(j.outputs)
	j.UpdatedAt = time.Now()
}

// Report returns the parsed report request.
func (j *Job) Report() *compose.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// UseSource pins the job to its own artifact source, overriding the
// pipeline's configured one. Set for requests that carry artifacts inline.
func (j *Job) UseSource(src store.Source) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.source = src
}

// Source returns the job's pinned artifact source, or nil.
func (j *Job) Source() store.Source {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.source
}

// Outputs returns a copy of the recorded deliverables.
func (j *Job) Outputs() []OutputFile {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]OutputFile, len(j.outputs))
	copy(out, j.outputs)
	return out
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string          `json:"job_id"`
	Layout      string          `json:"layout,omitempty"`
	Title       string          `json:"title"`
	Status      JobStatus       `json:"status"`
	Phase       string          `json:"phase"`
	Formats     []render.Format `json:"formats"`
	Progress    Progress        `json:"progress"`
	Outputs     []OutputFile    `json:"outputs"`
	RequestHash string          `json:"request_hash,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	outputs := make([]OutputFile, len(j.outputs))
	copy(outputs, j.outputs)
	return JobSnapshot{
		ID:      j.ID,
		Layout:  j.Layout,
		Title:   j.Title,
		Status:  j.Status,
		Phase:   j.Phase,
		Formats: j.Formats,
		Progress: Progress{
			ArtifactsFetched: j.Progress.ArtifactsFetched,
			Blocks:           j.Progress.Blocks,
			OutputsWritten:   j.Progress.OutputsWritten,
			Errors:           errs,
		},
		Outputs:     outputs,
		RequestHash: j.RequestHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// RequestHashHex computes SHA-256 of a request body and returns hex.
func RequestHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
