package engine

import (
	"sync"
	"time"

	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// resultStore is the process-wide mapping from analysis id to job record.
// Every access goes through the mutex; readers always get clones, so a
// caller can never observe a record mid-update. Single-writer-per-key is
// enforced by construction: only the worker executing a job calls the
// transition methods for its id.
type resultStore struct {
	mu      sync.RWMutex
	records map[string]*models.AnalysisRecord
}

func newResultStore() *resultStore {
	return &resultStore{records: make(map[string]*models.AnalysisRecord)}
}

// create inserts a fresh record in the queued state.
func (s *resultStore) create(req models.AnalysisRequest) *models.AnalysisRecord {
	now := time.Now().UTC()
	rec := &models.AnalysisRecord{
		ID:          req.AnalysisID,
		FileKind:    req.FileKind,
		Priority:    req.Priority,
		SubmittedBy: req.SubmittedBy,
		Status:      models.StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.records[req.AnalysisID] = rec
	s.mu.Unlock()
	return rec.Clone()
}

// markProcessing transitions queued → processing. Any other starting state is
// left untouched; status is monotonic and never leaves a terminal state.
func (s *resultStore) markProcessing(id string) *models.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.Status != models.StatusQueued {
		return nil
	}
	now := time.Now().UTC()
	rec.Status = models.StatusProcessing
	rec.StartedAt = &now
	rec.UpdatedAt = now
	return rec.Clone()
}

// complete transitions a non-terminal record to completed with its payload.
func (s *resultStore) complete(id string, det models.Detection, elapsed time.Duration) *models.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.IsTerminal() {
		return nil
	}
	now := time.Now().UTC()
	rec.Status = models.StatusCompleted
	rec.Result = &det
	rec.ProcessingSeconds = elapsed.Seconds()
	rec.CompletedAt = &now
	rec.UpdatedAt = now
	return rec.Clone()
}

// fail transitions a non-terminal record to failed with error detail.
func (s *resultStore) fail(id, msg string, elapsed time.Duration) *models.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.IsTerminal() {
		return nil
	}
	now := time.Now().UTC()
	rec.Status = models.StatusFailed
	rec.ErrorMessage = &msg
	rec.ProcessingSeconds = elapsed.Seconds()
	rec.CompletedAt = &now
	rec.UpdatedAt = now
	return rec.Clone()
}

// get returns a clone of the record, if tracked.
func (s *resultStore) get(id string) (*models.AnalysisRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// remove deletes a record outright. Used only to discard the orphan record of
// an abandoned (context-cancelled) submission that never reached a queue.
func (s *resultStore) remove(id string) {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
}

// cleanup deletes every record whose last update is older than the retention
// window, regardless of status, and reports how many were removed.
func (s *resultStore) cleanup(window time.Duration) int {
	cutoff := time.Now().UTC().Add(-window)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		if rec.UpdatedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

type storeStats struct {
	total      int
	queued     int
	processing int
	completed  int
	failed     int
	avgSeconds float64
}

// stats aggregates status counts and the mean processing duration over
// completed records in one pass under the read lock.
func (s *resultStore) stats() storeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st storeStats
	var totalSeconds float64
	for _, rec := range s.records {
		st.total++
		switch rec.Status {
		case models.StatusQueued:
			st.queued++
		case models.StatusProcessing:
			st.processing++
		case models.StatusCompleted:
			st.completed++
			totalSeconds += rec.ProcessingSeconds
		case models.StatusFailed:
			st.failed++
		}
	}
	if st.completed > 0 {
		st.avgSeconds = totalSeconds / float64(st.completed)
	}
	return st
}
