package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanukaranwal/Satyashield/internal/store"
	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// stubArchive implements store.Archive in memory for wiring tests.
type stubArchive struct {
	mu      sync.Mutex
	saved   []string
	cutoffs []time.Time
}

func (s *stubArchive) Ping(context.Context) error { return nil }

func (s *stubArchive) SaveRecord(_ context.Context, rec *models.AnalysisRecord) error {
	s.mu.Lock()
	s.saved = append(s.saved, rec.ID)
	s.mu.Unlock()
	return nil
}

func (s *stubArchive) GetRecord(context.Context, string) (*models.AnalysisRecord, error) {
	return nil, store.ErrNotFound
}

func (s *stubArchive) ListRecent(context.Context, int) ([]*models.AnalysisRecord, error) {
	return nil, nil
}

func (s *stubArchive) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	s.cutoffs = append(s.cutoffs, cutoff)
	s.mu.Unlock()
	return 0, nil
}

func (s *stubArchive) savedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}

func (s *stubArchive) purgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

var _ store.Archive = (*stubArchive)(nil)

func terminalRecord(id string) *models.AnalysisRecord {
	now := time.Now().UTC()
	return &models.AnalysisRecord{
		ID:          id,
		FileKind:    models.FileKindImage,
		Priority:    models.PriorityNormal,
		Status:      models.StatusCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: &now,
	}
}

func TestStatusListenerArchivesTerminalRecords(t *testing.T) {
	archive := &stubArchive{}
	var writes sync.WaitGroup
	listener := statusListener(nil, archive, time.Minute, &writes)

	queued := terminalRecord("aabbccdd00112233")
	queued.Status = models.StatusQueued
	queued.CompletedAt = nil
	listener(queued)
	listener(terminalRecord("aabbccdd00112233"))

	// The write runs off the calling goroutine but is tracked; Wait must not
	// return before it lands.
	writes.Wait()
	assert.Equal(t, []string{"aabbccdd00112233"}, archive.savedIDs())
}

func TestStatusListenerWithoutArchive(t *testing.T) {
	var writes sync.WaitGroup
	listener := statusListener(nil, nil, time.Minute, &writes)

	listener(terminalRecord("aabbccdd00112233"))
	writes.Wait()
}

func TestArchiveJanitorPurges(t *testing.T) {
	archive := &stubArchive{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		archiveJanitor(ctx, archive, time.Hour, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return archive.purgeCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop on context cancel")
	}
}

func TestArchiveJanitorDisabled(t *testing.T) {
	archive := &stubArchive{}

	// Non-positive retention or interval must return immediately.
	archiveJanitor(context.Background(), archive, 0, 10*time.Millisecond)
	archiveJanitor(context.Background(), archive, time.Hour, 0)
	assert.Equal(t, 0, archive.purgeCount())
}
