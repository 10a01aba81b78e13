package health

import (
	"sync"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/notify"
)

// SourceStatus is one source's result in the last cycle.
type SourceStatus struct {
	Source     string `json:"source"`
	Sheet      string `json:"sheet"`
	Live       int    `json:"live"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Frozen     int    `json:"frozen"`
	Appended   int    `json:"appended"`
	Obsolete   int    `json:"obsolete"`
	Mismatches int    `json:"mismatches"`
	Error      string `json:"error,omitempty"`
}

// CycleStatus is what /status returns.
type CycleStatus struct {
	Cycles      int64          `json:"cycles"`
	LastStarted time.Time      `json:"last_started,omitempty"`
	LastTook    string         `json:"last_took,omitempty"`
	Predictions int            `json:"predictions"`
	Sources     []SourceStatus `json:"sources"`
}

// Status holds the last poll cycle for the health endpoints. Safe for concurrent use.
type Status struct {
	mu         sync.RWMutex
	staleAfter time.Duration
	last       CycleStatus
}

// NewStatus reports unhealthy when no cycle has finished within staleAfter; zero disables the check.
func NewStatus(staleAfter time.Duration) *Status {
	return &Status{staleAfter: staleAfter}
}

// Record stores a finished cycle.
func (s *Status) Record(started time.Time, took time.Duration, predictions int, reports []notify.SourceReport) {
	sources := make([]SourceStatus, 0, len(reports))
	for _, r := range reports {
		ss := SourceStatus{
			Source:     r.Source,
			Sheet:      r.Sheet,
			Live:       r.Live,
			Created:    r.Created,
			Updated:    r.Updated,
			Frozen:     r.Frozen,
			Appended:   r.Appended,
			Obsolete:   r.Obsolete,
			Mismatches: len(r.Mismatches),
		}
		if r.Err != nil {
			ss.Error = r.Err.Error()
		}
		sources = append(sources, ss)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = CycleStatus{
		Cycles:      s.last.Cycles + 1,
		LastStarted: started,
		LastTook:    took.Round(time.Millisecond).String(),
		Predictions: predictions,
		Sources:     sources,
	}
}

// Snapshot returns a copy of the last cycle.
func (s *Status) Snapshot() CycleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.last
	out.Sources = append([]SourceStatus(nil), s.last.Sources...)
	return out
}

func (s *Status) Healthy(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.staleAfter <= 0 || s.last.Cycles == 0 {
		return true
	}
	return now.Sub(s.last.LastStarted) <= s.staleAfter
}
