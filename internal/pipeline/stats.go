package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/lsearchy/internal/document"
)

type extraction struct {
	at       time.Time
	format   document.Format
	duration time.Duration
	failed   bool
}

// LatencySummary aggregates a group of extraction samples.
type LatencySummary struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// StatsSnapshot covers every recent extraction, plus one summary per format.
type StatsSnapshot struct {
	LatencySummary
	ByFormat map[document.Format]LatencySummary `json:"by_format,omitempty"`
}

// ExtractStats keeps per-document extraction timings for a rolling window.
// One instance is shared by every scan the process runs, so the API can show
// which formats are slow or failing.
type ExtractStats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []extraction
	now     func() time.Time
}

func NewExtractStats(window time.Duration) *ExtractStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ExtractStats{window: window, now: time.Now}
}

// Record adds one extraction attempt. Negative durations count as zero.
func (s *ExtractStats) Record(format document.Format, d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(now)
	s.samples = append(s.samples, extraction{
		at:       now,
		format:   format,
		duration: max(d, 0),
		failed:   failed,
	})
}

func (s *ExtractStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(s.now())
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	grouped := make(map[document.Format][]extraction)
	for _, x := range s.samples {
		grouped[x.format] = append(grouped[x.format], x)
	}
	snap := StatsSnapshot{
		LatencySummary: summarize(s.samples),
		ByFormat:       make(map[document.Format]LatencySummary, len(grouped)),
	}
	for format, xs := range grouped {
		snap.ByFormat[format] = summarize(xs)
	}
	return snap
}

// expireLocked drops samples older than the window. Samples are appended in
// time order, so the expired ones form a prefix.
func (s *ExtractStats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	keep := 0
	for keep < len(s.samples) && s.samples[keep].at.Before(cutoff) {
		keep++
	}
	if keep > 0 {
		s.samples = slices.Delete(s.samples, 0, keep)
	}
}

func summarize(xs []extraction) LatencySummary {
	if len(xs) == 0 {
		return LatencySummary{}
	}
	ms := make([]int64, len(xs))
	var sum int64
	failed := 0
	for i, x := range xs {
		ms[i] = x.duration.Milliseconds()
		sum += ms[i]
		if x.failed {
			failed++
		}
	}
	slices.Sort(ms)

	return LatencySummary{
		Count:  len(ms),
		Failed: failed,
		MinMs:  ms[0],
		MaxMs:  ms[len(ms)-1],
		AvgMs:  float64(sum) / float64(len(ms)),
		P50Ms:  percentile(ms, 50),
		P95Ms:  percentile(ms, 95),
		P99Ms:  percentile(ms, 99),
	}
}

// percentile interpolates linearly between the two nearest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if pct <= 0 || n == 1 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[n-1])
	}
	rank := float64(n-1) * pct / 100
	lo := int(rank)
	if lo+1 >= n {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
