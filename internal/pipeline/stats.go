package pipeline

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// TimingSnapshot is a point-in-time aggregate of phase duration samples.
type TimingSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// TimingStats tracks recent job phase durations within a rolling window,
// one stream per phase name.
type TimingStats struct {
	mu      sync.Mutex
	streams map[string][]sample
	maxAge  time.Duration
}

func NewTimingStats(maxAge time.Duration) *TimingStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &TimingStats{
		streams: make(map[string][]sample),
		maxAge:  maxAge,
	}
}

func (s *TimingStats) Record(phase string, d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.streams[phase] = append(s.pruneLocked(phase, now), sample{
		timestamp:  now,
		durationMs: ms,
	})
}

// Snapshot aggregates every phase stream. Phases whose samples have all
// aged out are omitted.
func (s *TimingStats) Snapshot() map[string]TimingSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]TimingSnapshot, len(s.streams))
	for phase := range s.streams {
		samples := s.pruneLocked(phase, now)
		s.streams[phase] = samples
		if len(samples) == 0 {
			delete(s.streams, phase)
			continue
		}

		values := make([]int64, 0, len(samples))
		var sum int64
		for _, sm := range samples {
			values = append(values, sm.durationMs)
			sum += sm.durationMs
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

		out[phase] = TimingSnapshot{
			Count: len(values),
			MinMs: values[0],
			MaxMs: values[len(values)-1],
			AvgMs: float64(sum) / float64(len(values)),
			P50Ms: percentile(values, 50),
			P95Ms: percentile(values, 95),
			P99Ms: percentile(values, 99),
		}
	}
	return out
}

func (s *TimingStats) pruneLocked(phase string, now time.Time) []sample {
	cutoff := now.Add(-s.maxAge)
	samples := s.streams[phase]
	writeIdx := 0
	for _, sm := range samples {
		if !sm.timestamp.Before(cutoff) {
			samples[writeIdx] = sm
			writeIdx++
		}
	}
	return samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
