package game

// MaxRecentKings is the number of places paid at the end of a War.
const MaxRecentKings = 3

// RecentKings is the most-recent-first list of distinct War holders.
// Only Slots[:Count] is meaningful.
type RecentKings struct {
	Slots [MaxRecentKings]Identity
	Count uint8
}

// Record puts id at the front. A holder already in the list moves to the
// front without changing Count; a new one pushes the oldest out when full.
func (r RecentKings) Record(id Identity) RecentKings {
	idx := r.index(id)
	if idx < 0 {
		idx = MaxRecentKings - 1
		if r.Count < MaxRecentKings {
			r.Count++
		}
	}
	for i := idx; i > 0; i-- {
		r.Slots[i] = r.Slots[i-1]
	}
	r.Slots[0] = id
	return r
}

func (r RecentKings) index(id Identity) int {
	for i := 0; i < r.Len(); i++ {
		if r.Slots[i] == id {
			return i
		}
	}
	return -1
}

// Len returns the number of occupied places, never more than 3.
func (r RecentKings) Len() int {
	if r.Count > MaxRecentKings {
		return MaxRecentKings
	}
	return int(r.Count)
}

// At returns the holder in place i (0 = most recent) and whether it is filled.
func (r RecentKings) At(i int) (Identity, bool) {
	if i < 0 || i >= r.Len() {
		return Identity{}, false
	}
	return r.Slots[i], true
}

// Slot returns the raw slot value regardless of occupancy.
func (r RecentKings) Slot(i int) Identity {
	if i < 0 || i >= MaxRecentKings {
		return Identity{}
	}
	return r.Slots[i]
}

func (r RecentKings) Contains(id Identity) bool {
	return r.index(id) >= 0
}

// Kings returns the occupied places in order.
func (r RecentKings) Kings() []Identity {
	out := make([]Identity, r.Len())
	copy(out, r.Slots[:r.Len()])
	return out
}

func (r RecentKings) Reset() RecentKings {
	return RecentKings{}
}

func (r RecentKings) valid() bool {
	if r.Count > MaxRecentKings {
		return false
	}
	for i := 0; i < r.Len(); i++ {
		for j := i + 1; j < r.Len(); j++ {
			if r.Slots[i] == r.Slots[j] {
				return false
			}
		}
	}
	return true
}
