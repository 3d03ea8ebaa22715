package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RateWindowStore keeps fixed-window counters in the rate_window table so
// that every process opening the same database file shares one quota per
// identity. It satisfies ratelimit.Store.
type RateWindowStore struct {
	db *sql.DB
}

// NewRateWindowStore wraps an already-migrated database.
func NewRateWindowStore(db *sql.DB) *RateWindowStore {
	return &RateWindowStore{db: db}
}

// The whole read-modify-write is one statement, so SQLite's write lock makes
// it atomic across connections and processes.
const hitSQL = `
INSERT INTO rate_window (identity, hits, window_start_ms) VALUES (?1, 1, ?2)
ON CONFLICT(identity) DO UPDATE SET
	hits = CASE WHEN ?2 - rate_window.window_start_ms > ?3 THEN 1 ELSE rate_window.hits + 1 END,
	window_start_ms = CASE WHEN ?2 - rate_window.window_start_ms > ?3 THEN ?2 ELSE rate_window.window_start_ms END
RETURNING hits`

// Hit records one request for identity and returns the count in its window.
func (s *RateWindowStore) Hit(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	var hits int
	err := s.db.QueryRowContext(ctx, hitSQL, identity, now.UnixMilli(), window.Milliseconds()).Scan(&hits)
	if err != nil {
		return 0, fmt.Errorf("sqlite.RateWindowStore: hit %q: %w", identity, err)
	}
	return hits, nil
}

// Sweep deletes windows that expired before now.
func (s *RateWindowStore) Sweep(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM rate_window WHERE ? - window_start_ms > ?",
		now.UnixMilli(), window.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite.RateWindowStore: sweep: %w", err)
	}
	return res.RowsAffected()
}

// Start sweeps expired windows every interval until ctx is done. Sweep
// errors are dropped; the next tick retries.
func (s *RateWindowStore) Start(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_, _ = s.Sweep(ctx, now, window)
		}
	}
}
