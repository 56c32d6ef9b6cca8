package timeline

// Row identifies one lane of one owner. OwnerID is empty for the shared track.
type Row struct {
	OwnerID string
	Lane    int
}

// Layout stacks the shared track above the members, each owner taking as many
// rows as it has lanes.
type Layout struct {
	rows  []Row
	first map[string]int // owner -> index of its lane 0
}

// NewLayout builds a Layout. laneCount must return at least 1 for every owner;
// smaller values are treated as 1. The shared track is included when
// withShared is true.
func NewLayout(ownerIDs []string, laneCount func(ownerID string) int, withShared bool) *Layout {
	l := &Layout{first: make(map[string]int, len(ownerIDs)+1)}
	add := func(owner string) {
		l.first[owner] = len(l.rows)
		n := max(laneCount(owner), 1)
		for lane := range n {
			l.rows = append(l.rows, Row{OwnerID: owner, Lane: lane})
		}
	}
	if withShared {
		add("")
	}
	for _, id := range ownerIDs {
		if _, dup := l.first[id]; dup || id == "" {
			continue
		}
		add(id)
	}
	return l
}

// Len returns the number of rows.
func (l *Layout) Len() int {
	return len(l.rows)
}

// Rows returns all rows top to bottom.
func (l *Layout) Rows() []Row {
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// RowAt returns the row at index i.
func (l *Layout) RowAt(i int) (Row, bool) {
	if i < 0 || i >= len(l.rows) {
		return Row{}, false
	}
	return l.rows[i], true
}

// RowOf returns the row index of an owner's lane.
func (l *Layout) RowOf(ownerID string, lane int) (int, bool) {
	first, ok := l.first[ownerID]
	if !ok || lane < 0 {
		return 0, false
	}
	i := first + lane
	if i >= len(l.rows) || l.rows[i].OwnerID != ownerID {
		return 0, false
	}
	return i, true
}

// HitRow returns the row under y for the given lane height.
func (l *Layout) HitRow(y, cellHeight float64) (Row, bool) {
	if cellHeight <= 0 || y < 0 {
		return Row{}, false
	}
	return l.RowAt(int(y / cellHeight))
}
