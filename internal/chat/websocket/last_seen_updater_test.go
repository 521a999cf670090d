package websocket

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/quickchat/server/internal/common/clock"
	"github.com/quickchat/server/internal/common/logger"
)

type recordingStore struct {
	mu      sync.Mutex
	batches [][]string
	flushed chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{flushed: make(chan struct{}, 16)}
}

func (s *recordingStore) UpdateLastSeen(_ context.Context, userIDs []string, _ time.Time) error {
	s.mu.Lock()
	batch := append([]string(nil), userIDs...)
	sort.Strings(batch)
	s.batches = append(s.batches, batch)
	s.mu.Unlock()
	s.flushed <- struct{}{}
	return nil
}

func (s *recordingStore) allIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []string
	for _, batch := range s.batches {
		all = append(all, batch...)
	}
	sort.Strings(all)
	return all
}

func TestLastSeenUpdaterBatchesTouches(t *testing.T) {
	store := newRecordingStore()
	log, err := logger.New("", "test", "critical")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	u := NewLastSeenUpdater(store, clock.NewRealClock(), log, 10*time.Millisecond)
	go u.Run()

	u.Touch("alice")
	u.Touch("bob")
	u.Touch("alice")

	select {
	case <-store.flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("no flush within deadline")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := u.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	all := store.allIDs()
	seen := make(map[string]int)
	for _, id := range all {
		seen[id]++
	}
	if seen["alice"] == 0 || seen["bob"] == 0 {
		t.Fatalf("expected both users flushed, got %v", all)
	}

	store.mu.Lock()
	first := store.batches[0]
	store.mu.Unlock()
	for i := 1; i < len(first); i++ {
		if first[i] == first[i-1] {
			t.Fatalf("batch contains duplicate id %q", first[i])
		}
	}
}

func TestLastSeenUpdaterDrainsOnShutdown(t *testing.T) {
	store := newRecordingStore()
	log, err := logger.New("", "test", "critical")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	// Long flush interval: only the shutdown drain can write.
	u := NewLastSeenUpdater(store, clock.NewRealClock(), log, time.Hour)
	go u.Run()
	u.Touch("carol")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := u.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	all := store.allIDs()
	if len(all) != 1 || all[0] != "carol" {
		t.Fatalf("expected drained flush of carol, got %v", all)
	}
}
