package booking

// Scope decides which existing bookings compete with a candidate for space.
// Member bookings compete within their owner's lane; shared bookings compete
// with other shared bookings in the same lane.
type Scope interface {
	Contains(candidate, other Booking) bool
}

// OwnerScope matches bookings of the same owner in the same lane.
type OwnerScope struct{}

// Contains implements Scope.
func (OwnerScope) Contains(candidate, other Booking) bool {
	return !other.IsShared() && other.OwnerID == candidate.OwnerID && other.Lane == candidate.Lane
}

// SharedScope matches shared-track bookings in the same lane.
type SharedScope struct{}

// Contains implements Scope.
func (SharedScope) Contains(candidate, other Booking) bool {
	return other.IsShared() && other.Lane == candidate.Lane
}

// ScopeFor returns the collision scope a booking belongs to.
func ScopeFor(b Booking) Scope {
	if b.IsShared() {
		return SharedScope{}
	}
	return OwnerScope{}
}

// FindCollision returns the first booking in all that overlaps candidate within
// scope. The candidate's own ID is never considered.
func FindCollision(candidate Booking, all []Booking, scope Scope) (Booking, bool) {
	r := candidate.Range()
	for _, other := range all {
		if other.ID == candidate.ID {
			continue
		}
		if !scope.Contains(candidate, other) {
			continue
		}
		if r.Overlaps(other.Range()) {
			return other, true
		}
	}
	return Booking{}, false
}

// HasCollision reports whether candidate overlaps any booking in its own scope.
func HasCollision(candidate Booking, all []Booking) bool {
	_, found := FindCollision(candidate, all, ScopeFor(candidate))
	return found
}
