package advisor

import (
	"errors"
	"sync"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// ErrAnalysisRunning is returned when a trigger arrives while another
// analysis is in flight. Triggers are rejected, never queued: queuing
// would mask staleness and the fetch/AI sequence is not reentrant-safe
// against shared collaborator rate limits.
var ErrAnalysisRunning = errors.New("analysis already running")

// Store is the process-wide cache of the most recent reconciled run.
// It holds at most the current run plus the previous one, and
// serializes analysis triggers through an in-flight flag. Reads never
// fail; before the first completed run they report an explicit empty
// result.
type Store struct {
	mu       sync.RWMutex
	current  *domain.AnalysisRun
	previous *domain.AnalysisRun
	running  bool
}

func NewStore() *Store {
	return &Store{}
}

// Begin marks an analysis as in flight, rejecting a second concurrent
// trigger with ErrAnalysisRunning.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAnalysisRunning
	}
	s.running = true
	return nil
}

// Complete atomically installs the new current run and clears the
// in-flight flag. Readers never observe a partially written run.
func (s *Store) Complete(run domain.AnalysisRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = s.current
	s.current = &run
	s.running = false
}

// Abort clears the in-flight flag without installing a run, keeping
// the previous result available.
func (s *Store) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Current returns the cached run. The second return is false until the
// first analysis completes; that is the explicit empty marker, not an
// error.
func (s *Store) Current() (domain.AnalysisRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.AnalysisRun{}, false
	}
	return *s.current, true
}

// Previous returns the superseded run, kept for rollback inspection.
func (s *Store) Previous() (domain.AnalysisRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.previous == nil {
		return domain.AnalysisRun{}, false
	}
	return *s.previous, true
}
