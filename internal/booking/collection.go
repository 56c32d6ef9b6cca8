package booking

import (
	"slices"
	"strings"
)

// Collection is the engine's in-memory set of bookings.
//
// It also counts unconfirmed optimistic writes per booking ID so that a
// realtime snapshot arriving mid-flight does not clobber a local edit.
type Collection struct {
	items   map[string]Booking
	pending map[string]int
}

// NewCollection creates a Collection from a slice of bookings.
func NewCollection(bookings []Booking) *Collection {
	c := &Collection{
		items:   make(map[string]Booking, len(bookings)),
		pending: make(map[string]int),
	}
	for _, b := range bookings {
		c.items[b.ID] = b
	}
	return c
}

// Len returns the number of bookings.
func (c *Collection) Len() int {
	return len(c.items)
}

// Get returns a booking by ID.
func (c *Collection) Get(id string) (Booking, bool) {
	b, ok := c.items[id]
	return b, ok
}

// Put inserts or replaces a booking.
func (c *Collection) Put(b Booking) {
	c.items[b.ID] = b
}

// Remove deletes a booking and returns it.
func (c *Collection) Remove(id string) (Booking, bool) {
	b, ok := c.items[id]
	if ok {
		delete(c.items, id)
	}
	return b, ok
}

// All returns every booking sorted by owner, lane, then start day.
func (c *Collection) All() []Booking {
	result := make([]Booking, 0, len(c.items))
	for _, b := range c.items {
		result = append(result, b)
	}
	slices.SortFunc(result, compareBookings)
	return result
}

// ForOwner returns the bookings of one owner (or the shared track when
// ownerID is empty), sorted like All.
func (c *Collection) ForOwner(ownerID string) []Booking {
	var result []Booking
	for _, b := range c.items {
		if b.OwnerID == ownerID {
			result = append(result, b)
		}
	}
	slices.SortFunc(result, compareBookings)
	return result
}

// LaneOccupied reports whether any booking of ownerID sits in lane.
func (c *Collection) LaneOccupied(ownerID string, lane int) bool {
	for _, b := range c.items {
		if b.OwnerID == ownerID && b.Lane == lane {
			return true
		}
	}
	return false
}

// MaxLane returns the highest lane index used by ownerID, or -1.
func (c *Collection) MaxLane(ownerID string) int {
	highest := -1
	for _, b := range c.items {
		if b.OwnerID == ownerID && b.Lane > highest {
			highest = b.Lane
		}
	}
	return highest
}

// MarkPending records an optimistic write in flight for id.
func (c *Collection) MarkPending(id string) {
	c.pending[id]++
}

// Settle records that one write for id has completed, successfully or not.
func (c *Collection) Settle(id string) {
	if c.pending[id] <= 1 {
		delete(c.pending, id)
		return
	}
	c.pending[id]--
}

// Confirm records that the store accepted one update of id, which bumps the
// stored version by one.
func (c *Collection) Confirm(id string) {
	if b, ok := c.items[id]; ok {
		b.Version++
		c.items[id] = b
	}
}

// IsPending reports whether id has unconfirmed writes.
func (c *Collection) IsPending(id string) bool {
	return c.pending[id] > 0
}

// Replace swaps the collection contents for a backend snapshot.
// Bookings with pending writes keep their local state (including local
// absence for an in-flight delete). A snapshot read before a confirmed write
// carries an older version than the local copy, which is kept. Everything
// else follows the snapshot.
func (c *Collection) Replace(snapshot []Booking) {
	next := make(map[string]Booking, len(snapshot))
	for _, b := range snapshot {
		if c.IsPending(b.ID) {
			continue
		}
		if local, ok := c.items[b.ID]; ok && local.Version > b.Version {
			b = local
		}
		next[b.ID] = b
	}
	for id := range c.pending {
		if local, ok := c.items[id]; ok {
			next[id] = local
		}
	}
	c.items = next
}

func compareBookings(a, b Booking) int {
	if a.OwnerID != b.OwnerID {
		return strings.Compare(a.OwnerID, b.OwnerID)
	}
	if a.Lane != b.Lane {
		return a.Lane - b.Lane
	}
	if !a.Start.Equal(b.Start) {
		return a.Start.Compare(b.Start)
	}
	return strings.Compare(a.ID, b.ID)
}
