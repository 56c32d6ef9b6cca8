package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/javiermolinar/rota/internal/booking"
)

// Member errors.
var (
	ErrMemberExists = errors.New("member already exists")
	ErrEmptyName    = errors.New("member name cannot be empty")
)

// CreateMember adds a member at the end of the directory. An empty ID is
// generated; LaneCount below 1 is stored as 1.
func (s *SQLite) CreateMember(ctx context.Context, m *booking.Member) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return ErrEmptyName
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.LaneCount = max(m.LaneCount, 1)

	query := `
		INSERT INTO members (id, name, color, lane_count, position)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM members))
		RETURNING position
	`
	err := s.db.QueryRowContext(ctx, query, m.ID, m.Name, m.Color, m.LaneCount).Scan(&m.Position)
	if isUniqueViolation(err) {
		return fmt.Errorf("%q: %w", m.Name, ErrMemberExists)
	}
	if err != nil {
		return fmt.Errorf("inserting member: %w", err)
	}
	return nil
}

// ImportMembers inserts new members and updates the color of existing ones,
// matching by name. It returns how many members were created.
func (s *SQLite) ImportMembers(ctx context.Context, members []booking.Member) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := 0
	for _, m := range members {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return 0, ErrEmptyName
		}

		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM members WHERE name = ?`, name).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			query := `
				INSERT INTO members (id, name, color, lane_count, position)
				VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM members))
			`
			if _, err := tx.ExecContext(ctx, query, uuid.NewString(), name, m.Color, max(m.LaneCount, 1)); err != nil {
				return 0, fmt.Errorf("inserting member %q: %w", name, err)
			}
			created++
		case err != nil:
			return 0, fmt.Errorf("querying member %q: %w", name, err)
		case m.Color != "":
			if _, err := tx.ExecContext(ctx, `UPDATE members SET color = ? WHERE id = ?`, m.Color, id); err != nil {
				return 0, fmt.Errorf("updating member %q: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return created, nil
}

// GetMember retrieves a member by ID.
func (s *SQLite) GetMember(ctx context.Context, id string) (booking.Member, error) {
	return s.getMember(ctx, `WHERE id = ?`, id)
}

// MemberByName retrieves a member by name, ignoring case.
func (s *SQLite) MemberByName(ctx context.Context, name string) (booking.Member, error) {
	return s.getMember(ctx, `WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name))
}

func (s *SQLite) getMember(ctx context.Context, where string, arg any) (booking.Member, error) {
	query := `SELECT id, name, color, lane_count, position FROM members ` + where

	var m booking.Member
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&m.ID, &m.Name, &m.Color, &m.LaneCount, &m.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Member{}, fmt.Errorf("%v: %w", arg, booking.ErrMemberNotFound)
	}
	if err != nil {
		return booking.Member{}, fmt.Errorf("querying member: %w", err)
	}
	return m, nil
}

// ListMembers returns the member directory in display order.
func (s *SQLite) ListMembers(ctx context.Context) ([]booking.Member, error) {
	return listMembers(ctx, s.db)
}

func listMembers(ctx context.Context, q querier) ([]booking.Member, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, color, lane_count, position
		FROM members
		ORDER BY position, name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []booking.Member
	for rows.Next() {
		var m booking.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Color, &m.LaneCount, &m.Position); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return members, nil
}

// DeleteMember removes a member together with all of its bookings and returns
// how many bookings were removed.
func (s *SQLite) DeleteMember(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE owner_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting bookings: %w", err)
	}
	removed, _ := result.RowsAffected()

	result, err = tx.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting member: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return 0, fmt.Errorf("member %s: %w", id, booking.ErrMemberNotFound)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return int(removed), nil
}
