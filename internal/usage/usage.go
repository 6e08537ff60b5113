// Package usage accumulates and persists AI request usage statistics.
package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/fileutil"
)

// ProviderStats is the usage accumulated for a single provider.
type ProviderStats struct {
	TotalTokens   uint64  `json:"totalTokens"`
	TotalRequests uint64  `json:"totalRequests"`
	CostEstimate  float64 `json:"costEstimate"`
}

// Stats is the aggregate usage across all providers.
type Stats struct {
	TotalTokens   uint64  `json:"totalTokens"`
	TotalRequests uint64  `json:"totalRequests"`
	CostEstimate  float64 `json:"costEstimate"`

	InputTokens  uint64 `json:"inputTokens"`
	OutputTokens uint64 `json:"outputTokens"`
	CachedTokens uint64 `json:"cachedTokens"`

	ProviderStats map[string]ProviderStats `json:"providerStats"`

	FirstRequestAt *int64 `json:"firstRequestAt,omitempty"`
	LastRequestAt  *int64 `json:"lastRequestAt,omitempty"`
}

// Update is the usage of one completed AI request.
type Update struct {
	Provider     string
	InputTokens  uint64
	OutputTokens uint64
	CachedTokens uint64
	Cost         float64
}

// apply folds one update into the stats.
func (s *Stats) apply(u Update, timestamp int64) {
	total := u.InputTokens + u.OutputTokens
	s.TotalTokens += total
	s.TotalRequests++
	s.InputTokens += u.InputTokens
	s.OutputTokens += u.OutputTokens
	s.CachedTokens += u.CachedTokens
	s.CostEstimate += u.Cost

	if s.FirstRequestAt == nil {
		ts := timestamp
		s.FirstRequestAt = &ts
	}
	ts := timestamp
	s.LastRequestAt = &ts

	if s.ProviderStats == nil {
		s.ProviderStats = make(map[string]ProviderStats)
	}
	ps := s.ProviderStats[u.Provider]
	ps.TotalTokens += total
	ps.TotalRequests++
	ps.CostEstimate += u.Cost
	s.ProviderStats[u.Provider] = ps
}

// Recorder persists usage statistics to a JSON file. Every Record call
// rewrites the file, which keeps the stats durable across process restarts.
type Recorder struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewRecorder creates a recorder backed by the given file.
func NewRecorder(path string, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{path: path, logger: logger, now: time.Now}
}

func (r *Recorder) load() (Stats, error) {
	const op = "usage.Recorder.load"

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, nil
		}
		return Stats{}, errors.IOWrap(err, op, "failed to read usage stats")
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return Stats{}, errors.IOWrap(err, op, "usage stats file is corrupt")
	}
	return stats, nil
}

func (r *Recorder) save(stats Stats) error {
	const op = "usage.Recorder.save"

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return errors.IOWrap(err, op, "failed to encode usage stats")
	}
	if err := fileutil.EnsureDir(filepath.Dir(r.path)); err != nil {
		return errors.IOWrap(err, op, "failed to create stats directory")
	}
	if err := fileutil.AtomicWriteFile(r.path, data, 0o644); err != nil {
		return errors.IOWrap(err, op, "failed to write usage stats")
	}
	return nil
}

// Record folds one request's usage into the persisted stats.
func (r *Recorder) Record(u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, err := r.load()
	if err != nil {
		return err
	}
	stats.apply(u, r.now().Unix())
	return r.save(stats)
}

// Get returns the current stats. A recorder that has never recorded returns
// zeroed stats.
func (r *Recorder) Get() (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Reset clears all statistics.
func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(Stats{}); err != nil {
		return err
	}
	r.logger.Info("usage stats cleared")
	return nil
}
