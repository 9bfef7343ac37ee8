// Package stats keeps aggregate submission counters (per outcome), never the
// requests themselves. Recording is best-effort: callers log errors and go on.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/veksh/crpt-docs-client/internal/model"
)

type Event struct {
	Outcome    model.Outcome
	StatusCode int
	At         time.Time
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) error { return nil }

// in-process counters, for tests and one-shot cli runs
type MemoryRecorder struct {
	mu        sync.Mutex
	total     int64
	byOutcome map[model.Outcome]int64
	byStatus  map[int]int64
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		byOutcome: make(map[model.Outcome]int64),
		byStatus:  make(map[int]int64),
	}
}

func (s *MemoryRecorder) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.byOutcome[ev.Outcome]++
	if ev.StatusCode != 0 {
		s.byStatus[ev.StatusCode]++
	}
	return nil
}

func (s *MemoryRecorder) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryRecorder) Count(o model.Outcome) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOutcome[o]
}

func (s *MemoryRecorder) ByStatus() map[int]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int64, len(s.byStatus))
	for k, v := range s.byStatus {
		out[k] = v
	}
	return out
}
