package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/logging"
)

// DefaultPollInterval is how often a Watcher checks for commits.
const DefaultPollInterval = 2 * time.Second

// Watcher delivers a full snapshot whenever the database changes.
//
// It holds a dedicated connection and polls PRAGMA data_version, which moves
// whenever any other connection commits. Writes made through the SQLite pool,
// and by other processes sharing the file, are both seen.
type Watcher struct {
	store    *SQLite
	year     int
	interval time.Duration
	log      logging.Logger
	out      chan booking.Snapshot
}

// NewWatcher creates a Watcher for year. Run starts it.
func NewWatcher(store *SQLite, year int, interval time.Duration, log logging.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Watcher{
		store:    store,
		year:     year,
		interval: interval,
		log:      log.With("component", "watcher"),
		out:      make(chan booking.Snapshot, 1),
	}
}

// Changes returns the snapshot stream. Only the latest pending snapshot is
// kept; a slow reader skips intermediate ones. The channel closes when Run
// returns.
func (w *Watcher) Changes() <-chan booking.Snapshot {
	return w.out
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.out)

	conn, err := w.store.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("reserving watcher connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	last, err := dataVersion(ctx, conn)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		version, err := dataVersion(ctx, conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Warn(ctx, "polling data version failed", "error", err)
			continue
		}
		if version == last {
			continue
		}
		last = version

		snap, err := w.store.LoadSnapshot(ctx, w.year)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Warn(ctx, "loading snapshot failed", "error", err)
			continue
		}
		w.log.Debug(ctx, "database changed", "data_version", version, "bookings", len(snap.Bookings))
		w.publish(snap)
	}
}

// publish replaces any unread snapshot with snap.
func (w *Watcher) publish(snap booking.Snapshot) {
	for {
		select {
		case w.out <- snap:
			return
		default:
		}
		select {
		case <-w.out:
		default:
		}
	}
}

func dataVersion(ctx context.Context, conn *sql.Conn) (int64, error) {
	var v int64
	if err := conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading data version: %w", err)
	}
	return v, nil
}
