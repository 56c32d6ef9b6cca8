package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS members (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
			color       TEXT NOT NULL DEFAULT '',
			lane_count  INTEGER NOT NULL DEFAULT 1 CHECK(lane_count >= 1),
			position    INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS bookings (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT REFERENCES members(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			start_date  DATE NOT NULL,
			end_date    DATE NOT NULL,
			color       TEXT NOT NULL DEFAULT '',
			lane        INTEGER NOT NULL DEFAULT 0 CHECK(lane >= 0),
			link        TEXT NOT NULL DEFAULT '',
			comment     TEXT NOT NULL DEFAULT '',
			kind        TEXT NOT NULL DEFAULT 'regular' CHECK(kind IN ('regular', 'leave')),
			version     INTEGER NOT NULL DEFAULT 1,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK(start_date < end_date)
		);

		CREATE INDEX IF NOT EXISTS idx_bookings_owner ON bookings(owner_id, lane);
		CREATE INDEX IF NOT EXISTS idx_bookings_dates ON bookings(start_date, end_date);

		CREATE TABLE IF NOT EXISTS shared_track (
			id          INTEGER PRIMARY KEY CHECK(id = 1),
			lane_count  INTEGER NOT NULL DEFAULT 1 CHECK(lane_count >= 1)
		);

		INSERT OR IGNORE INTO shared_track (id, lane_count) VALUES (1, 1);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
