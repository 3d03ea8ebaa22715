package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/projectaghoy/aghoy/internal/infra/ratelimit"
	"github.com/projectaghoy/aghoy/internal/infra/sqlite"
)

var _ ratelimit.Store = (*sqlite.RateWindowStore)(nil)

func TestRateWindowStore_CountsWithinWindow(t *testing.T) {
	t.Parallel()

	store := sqlite.NewRateWindowStore(mustMigratedDB(t))
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0)

	for i := 1; i <= 3; i++ {
		got, err := store.Hit(ctx, "1.2.3.4", t0.Add(time.Duration(i)*time.Second), time.Minute)
		if err != nil {
			t.Fatalf("Hit #%d error = %v", i, err)
		}
		if got != i {
			t.Errorf("Hit #%d = %d; want %d", i, got, i)
		}
	}
}

func TestRateWindowStore_ResetsAfterWindow(t *testing.T) {
	t.Parallel()

	store := sqlite.NewRateWindowStore(mustMigratedDB(t))
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0)

	for i := 0; i < 5; i++ {
		if _, err := store.Hit(ctx, "a", t0, time.Minute); err != nil {
			t.Fatalf("Hit error = %v", err)
		}
	}

	// Exactly one window later is still the same window.
	got, err := store.Hit(ctx, "a", t0.Add(time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("Hit error = %v", err)
	}
	if got != 6 {
		t.Errorf("Hit at +60s = %d; want 6", got)
	}

	got, err = store.Hit(ctx, "a", t0.Add(time.Minute+time.Millisecond), time.Minute)
	if err != nil {
		t.Fatalf("Hit error = %v", err)
	}
	if got != 1 {
		t.Errorf("Hit at +60.001s = %d; want 1 (new window)", got)
	}
}

func TestRateWindowStore_IdentitiesAreIndependent(t *testing.T) {
	t.Parallel()

	store := sqlite.NewRateWindowStore(mustMigratedDB(t))
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 4; i++ {
		_, _ = store.Hit(ctx, "a", now, time.Minute)
	}
	got, err := store.Hit(ctx, "b", now, time.Minute)
	if err != nil {
		t.Fatalf("Hit error = %v", err)
	}
	if got != 1 {
		t.Errorf("Hit(b) = %d; want 1", got)
	}
}

func TestRateWindowStore_ConcurrentHitsAreAtomic(t *testing.T) {
	t.Parallel()

	store := sqlite.NewRateWindowStore(mustMigratedDB(t))
	limiter := ratelimit.New(store)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.Admit(context.Background(), "shared")
			if err != nil {
				t.Errorf("Admit error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != ratelimit.DefaultLimit {
		t.Errorf("admitted = %d; want %d", admitted, ratelimit.DefaultLimit)
	}
}

func TestRateWindowStore_Sweep(t *testing.T) {
	t.Parallel()

	store := sqlite.NewRateWindowStore(mustMigratedDB(t))
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0)

	_, _ = store.Hit(ctx, "old", t0, time.Minute)
	_, _ = store.Hit(ctx, "fresh", t0.Add(50*time.Second), time.Minute)

	removed, err := store.Sweep(ctx, t0.Add(90*time.Second), time.Minute)
	if err != nil {
		t.Fatalf("Sweep error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep removed = %d; want 1", removed)
	}

	got, _ := store.Hit(ctx, "fresh", t0.Add(90*time.Second), time.Minute)
	if got != 2 {
		t.Errorf("Hit(fresh) after sweep = %d; want 2", got)
	}
}

func TestRateWindowStore_ClosedDBReturnsError(t *testing.T) {
	t.Parallel()

	db := mustMigratedDB(t)
	store := sqlite.NewRateWindowStore(db)
	db.Close()

	if _, err := store.Hit(context.Background(), "a", time.Now(), time.Minute); err == nil {
		t.Error("Hit on closed DB = nil error; want error")
	}
}
