package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
)

func TestCreateMember(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ana := booking.Member{Name: "  Ana  ", Color: "#ff0000"}
	require.NoError(t, repo.CreateMember(ctx, &ana))
	assert.NotEmpty(t, ana.ID)
	assert.Equal(t, "Ana", ana.Name)
	assert.Equal(t, 1, ana.LaneCount)
	assert.Equal(t, 0, ana.Position)

	bob := booking.Member{Name: "Bob", LaneCount: 2}
	require.NoError(t, repo.CreateMember(ctx, &bob))
	assert.Equal(t, 1, bob.Position)

	dup := booking.Member{Name: "Ana"}
	assert.ErrorIs(t, repo.CreateMember(ctx, &dup), ErrMemberExists)

	empty := booking.Member{Name: " "}
	assert.ErrorIs(t, repo.CreateMember(ctx, &empty), ErrEmptyName)
}

func TestMemberByName(t *testing.T) {
	repo := newTestRepo(t)
	ana := addMember(t, repo, "Ana")

	got, err := repo.MemberByName(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	_, err = repo.MemberByName(context.Background(), "nobody")
	assert.ErrorIs(t, err, booking.ErrMemberNotFound)
}

func TestDeleteMember_CascadesBookings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")
	bob := addMember(t, repo, "Bob")
	start := dateutil.Date(2025, time.February, 1)

	require.NoError(t, repo.CreateBookings(ctx, []booking.Booking{
		newBooking(t, ana.ID, "A1", start, 2, 0),
		newBooking(t, ana.ID, "A2", dateutil.AddDays(start, 5), 2, 0),
		newBooking(t, bob.ID, "B1", start, 2, 0),
	}))

	removed, err := repo.DeleteMember(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err := repo.ListBookings(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B1", list[0].Title)

	_, err = repo.DeleteMember(ctx, ana.ID)
	assert.ErrorIs(t, err, booking.ErrMemberNotFound)
}

func TestImportMembers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	addMember(t, repo, "Ana")

	created, err := repo.ImportMembers(ctx, []booking.Member{
		{Name: "Ana", Color: "#00ff00"},
		{Name: "Carol", LaneCount: 2},
		{Name: "Dan"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	members, err := repo.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "#00ff00", members[0].Color, "existing member recoloured")
	assert.Equal(t, "Carol", members[1].Name)
	assert.Equal(t, 2, members[1].LaneCount)
	assert.Equal(t, 2, members[2].Position)

	_, err = repo.ImportMembers(ctx, []booking.Member{{Name: "Eve"}, {Name: ""}})
	assert.ErrorIs(t, err, ErrEmptyName)
	members, _ = repo.ListMembers(ctx)
	assert.Len(t, members, 3, "failed import stores nothing")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-04", dateutil.Date(2025, time.March, 4)},
		{"2025-03-04T00:00:00Z", dateutil.Date(2025, time.March, 4)},
	}
	for _, tc := range tests {
		got, err := parseDate(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, got.Equal(tc.want), "%s parsed as %s", tc.in, got)
	}

	_, err := parseDate("yesterday")
	assert.Error(t, err)
}
