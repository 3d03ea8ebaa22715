package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is the counter state of one identity.
type Window struct {
	Count int
	Start time.Time
}

// MemoryStore keeps windows in process memory. State is created with the
// process and lost when it exits.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*Window
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*Window)}
}

// Hit implements Store. A single mutex covers the read-modify-write so two
// concurrent hits for the same identity can never both see the old count.
func (s *MemoryStore) Hit(_ context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[identity]
	if !ok {
		w = &Window{Start: now}
		s.windows[identity] = w
	}

	if now.Sub(w.Start) > window {
		w.Count = 1
		w.Start = now
	} else {
		w.Count++
	}
	return w.Count, nil
}

// Sweep drops windows that expired before now and returns how many were removed.
// An expired window would be reset on its next hit anyway, so dropping it
// does not change any admit decision.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, w := range s.windows {
		if now.Sub(w.Start) > window {
			delete(s.windows, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Start sweeps expired windows every interval until ctx is done.
func (s *MemoryStore) Start(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now, window)
		}
	}
}
