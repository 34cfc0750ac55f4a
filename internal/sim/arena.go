package sim

// ID is a generational handle into the entity arena. The zero ID never
// refers to a live entity.
type ID struct {
	Index uint32 `msgpack:"i" json:"i"`
	Gen   uint32 `msgpack:"g" json:"g"`
}

// NoID is the empty handle.
var NoID = ID{}

// Valid reports whether the handle was ever issued.
func (id ID) Valid() bool { return id.Gen != 0 }

type slot struct {
	gen  uint32
	used bool
	e    Entity
}

// Arena stores every entity of a run. Slots are allocated individually so
// pointers returned by Get stay valid while other entities are spawned.
type Arena struct {
	slots []*slot
	free  []uint32
	live  int
}

// Spawn stores e and returns its handle. The entity's ID field is set.
func (a *Arena) Spawn(e Entity) ID {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, &slot{})
	}
	s := a.slots[idx]
	s.gen++
	s.used = true
	id := ID{Index: idx, Gen: s.gen}
	e.ID = id
	s.e = e
	a.live++
	return id
}

// Get returns the entity for id, or nil if the handle is stale.
func (a *Arena) Get(id ID) *Entity {
	if !id.Valid() || int(id.Index) >= len(a.slots) {
		return nil
	}
	s := a.slots[id.Index]
	if !s.used || s.gen != id.Gen {
		return nil
	}
	return &s.e
}

// Free releases the slot behind id. Stale handles are ignored.
func (a *Arena) Free(id ID) bool {
	if a.Get(id) == nil {
		return false
	}
	s := a.slots[id.Index]
	s.used = false
	s.e = Entity{}
	a.free = append(a.free, id.Index)
	a.live--
	return true
}

// Len returns the number of live entities.
func (a *Arena) Len() int { return a.live }

// Reset drops every entity. Generations survive so old handles stay stale.
func (a *Arena) Reset() {
	a.free = a.free[:0]
	for i := len(a.slots) - 1; i >= 0; i-- {
		s := a.slots[i]
		if s.used {
			s.used = false
			s.e = Entity{}
		}
		a.free = append(a.free, uint32(i))
	}
	a.live = 0
}
