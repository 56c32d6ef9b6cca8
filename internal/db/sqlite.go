// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/lanes"
)

// SQLite implements booking.Store and booking.Loader using SQLite.
type SQLite struct {
	db   *sql.DB
	path string
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const bookingColumns = `id, owner_id, title, start_date, end_date, color, lane, link, comment, kind, version`

// CreateBooking inserts a booking with a caller-assigned ID.
// Returns booking.ErrCollision if it overlaps a booking in the same lane.
func (s *SQLite) CreateBooking(ctx context.Context, b booking.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertBooking(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CreateBookings adds multiple bookings in one transaction. Either all are
// stored or none.
func (s *SQLite) CreateBookings(ctx context.Context, bookings []booking.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, b := range bookings {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("booking %q: %w", b.Title, err)
		}
		if err := insertBooking(ctx, tx, b); err != nil {
			return fmt.Errorf("booking %q: %w", b.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertBooking(ctx context.Context, tx *sql.Tx, b booking.Booking) error {
	if err := checkOwnerTx(ctx, tx, b.OwnerID); err != nil {
		return err
	}
	if err := checkOverlap(ctx, tx, b.OwnerID, b.Lane, b.Start, b.End, b.ID); err != nil {
		return err
	}

	kind := b.Kind
	if kind == "" {
		kind = booking.KindRegular
	}

	query := `
		INSERT INTO bookings (
			id, owner_id, title, start_date, end_date, color, lane, link, comment, kind
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		b.ID,
		nullOwner(b.OwnerID),
		b.Title,
		dateutil.Format(b.Start),
		dateutil.Format(b.End),
		b.Color,
		b.Lane,
		b.Link,
		b.Comment,
		kind,
	)
	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *SQLite) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	b, err := scanBooking(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Booking{}, fmt.Errorf("booking %s: %w", id, booking.ErrBookingNotFound)
	}
	if err != nil {
		return booking.Booking{}, fmt.Errorf("querying booking: %w", err)
	}
	return b, nil
}

// UpdateBooking replaces the mutable fields of a booking and bumps its version.
func (s *SQLite) UpdateBooking(ctx context.Context, id string, f booking.Fields) error {
	b := booking.Booking{ID: id}.WithFields(f)
	if err := b.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking %s: %w", id, booking.ErrBookingNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking booking: %w", err)
	}
	if err := checkOwnerTx(ctx, tx, f.OwnerID); err != nil {
		return err
	}
	if err := checkOverlap(ctx, tx, f.OwnerID, f.Lane, f.Start, f.End, id); err != nil {
		return err
	}

	query := `
		UPDATE bookings
		SET owner_id = ?, title = ?, start_date = ?, end_date = ?, color = ?,
		    lane = ?, link = ?, comment = ?, version = version + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		nullOwner(f.OwnerID),
		f.Title,
		dateutil.Format(f.Start),
		dateutil.Format(f.End),
		f.Color,
		f.Lane,
		f.Link,
		f.Comment,
		id,
	)
	if err != nil {
		return fmt.Errorf("updating booking: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("booking %s: %w", id, booking.ErrBookingNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteBooking removes a booking.
func (s *SQLite) DeleteBooking(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting booking: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("booking %s: %w", id, booking.ErrBookingNotFound)
	}
	return nil
}

// ListBookings returns the bookings that touch year, ordered by owner, lane
// and start date.
func (s *SQLite) ListBookings(ctx context.Context, year int) ([]booking.Booking, error) {
	from := dateutil.YearStart(year)
	return s.ListBookingsBetween(ctx, from, dateutil.YearStart(year+1))
}

// ListBookingsBetween returns the bookings overlapping [from, to).
func (s *SQLite) ListBookingsBetween(ctx context.Context, from, to time.Time) ([]booking.Booking, error) {
	return listBookings(ctx, s.db, from, to)
}

func listBookings(ctx context.Context, q querier, from, to time.Time) ([]booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE start_date < ? AND end_date > ?
		ORDER BY COALESCE(owner_id, ''), lane, start_date, id
	`

	rows, err := q.QueryContext(ctx, query, dateutil.Format(to), dateutil.Format(from))
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bookings []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}

	return bookings, nil
}

// SetLaneCount stores the lane count of a member, or of the shared track when
// ownerID is empty. Shrinking below an occupied lane returns
// lanes.ErrLaneOccupied.
func (s *SQLite) SetLaneCount(ctx context.Context, ownerID string, n int) error {
	if n < 1 {
		return lanes.ErrMinimumLanes
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var top sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(lane) FROM bookings WHERE owner_id IS ?`, nullOwner(ownerID),
	).Scan(&top)
	if err != nil {
		return fmt.Errorf("querying highest lane: %w", err)
	}
	if top.Valid && int(top.Int64) >= n {
		return fmt.Errorf("lane %d: %w", top.Int64, lanes.ErrLaneOccupied)
	}

	var result sql.Result
	if ownerID == lanes.Shared {
		result, err = tx.ExecContext(ctx, `UPDATE shared_track SET lane_count = ? WHERE id = 1`, n)
	} else {
		result, err = tx.ExecContext(ctx, `UPDATE members SET lane_count = ? WHERE id = ?`, n, ownerID)
	}
	if err != nil {
		return fmt.Errorf("updating lane count: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("member %s: %w", ownerID, booking.ErrMemberNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SharedLaneCount returns the lane count of the shared track.
func (s *SQLite) SharedLaneCount(ctx context.Context) (int, error) {
	return sharedLaneCount(ctx, s.db)
}

func sharedLaneCount(ctx context.Context, q querier) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT lane_count FROM shared_track WHERE id = 1`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying shared lanes: %w", err)
	}
	return n, nil
}

// checkOwnerTx verifies that ownerID names an existing member.
func checkOwnerTx(ctx context.Context, tx *sql.Tx, ownerID string) error {
	if ownerID == lanes.Shared {
		return nil
	}
	var exists int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM members WHERE id = ?`, ownerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("member %s: %w", ownerID, booking.ErrMemberNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking member: %w", err)
	}
	return nil
}

// checkOverlap checks if a booking overlaps another one in the same lane of
// the same owner, ignoring excludeID.
// Two ranges overlap if: start1 < end2 AND start2 < end1
func checkOverlap(ctx context.Context, q querier, ownerID string, lane int, start, end time.Time, excludeID string) error {
	query := `
		SELECT id, title, start_date, end_date
		FROM bookings
		WHERE owner_id IS ?
		  AND lane = ?
		  AND id != ?
		  AND start_date < ?
		  AND end_date > ?
		LIMIT 1
	`

	var (
		id         string
		title      string
		existStart string
		existEnd   string
	)

	err := q.QueryRowContext(ctx, query,
		nullOwner(ownerID),
		lane,
		excludeID,
		dateutil.Format(end),
		dateutil.Format(start),
	).Scan(&id, &title, &existStart, &existEnd)

	if errors.Is(err, sql.ErrNoRows) {
		return nil // No overlap
	}
	if err != nil {
		return fmt.Errorf("checking overlap: %w", err)
	}

	return fmt.Errorf("%w: conflicts with %q (%s to %s)",
		booking.ErrCollision, title, dateOnly(existStart), dateOnly(existEnd))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (booking.Booking, error) {
	var (
		b         booking.Booking
		owner     sql.NullString
		startDate string
		endDate   string
		kind      string
	)
	err := row.Scan(
		&b.ID,
		&owner,
		&b.Title,
		&startDate,
		&endDate,
		&b.Color,
		&b.Lane,
		&b.Link,
		&b.Comment,
		&kind,
		&b.Version,
	)
	if err != nil {
		return booking.Booking{}, err
	}

	b.OwnerID = owner.String
	b.Kind = booking.Kind(kind)

	b.Start, err = parseDate(startDate)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("parsing start date: %w", err)
	}
	b.End, err = parseDate(endDate)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("parsing end date: %w", err)
	}
	return b, nil
}

func nullOwner(ownerID string) sql.NullString {
	return sql.NullString{String: ownerID, Valid: ownerID != ""}
}

func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// parseDate parses a date string in various formats SQLite might return.
// Date-only values (midnight) are parsed in local timezone.
func parseDate(s string) (time.Time, error) {
	// Date-only format: use local timezone (midnight local, not UTC)
	if t, err := time.ParseInLocation(dateutil.Layout, s, time.Local); err == nil {
		return t, nil
	}

	// SQLite returns DATE columns as "2006-01-02T00:00:00Z" - extract date and parse as local
	if len(s) == 20 && s[10] == 'T' && s[19] == 'Z' {
		if t, err := time.ParseInLocation(dateutil.Layout, s[:10], time.Local); err == nil {
			return t, nil
		}
	}

	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return dateutil.TruncateToDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
