package sim

import "math"

// Step advances the run by one frame. It never fails: missing faces fall
// back to the canvas center, bad numbers are sanitized and dt is clamped to
// [0, MaxDT].
//
// Order within a frame: commands, input, pause-exempt entities, spawn
// checks, advance, resolve, progression, escalation, bookkeeping. A paused
// frame runs only the exempt entities and escalation.
func Step(s *State, in Input, dt float64) {
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	if dt > s.Tuning.MaxDT {
		dt = s.Tuning.MaxDT
	}
	s.Frame++
	s.Wall += dt

	s.drainCommands()
	s.updateInput(in)

	s.advanceExempt(dt)
	if s.Paused {
		// exempt kinds keep their whole lifecycle while paused
		s.escalate()
		s.bookkeeping()
		return
	}
	s.Time += dt
	s.tickPlayers(dt)

	s.spawnChecks()
	s.advanceAll(dt)
	s.resolve(dt)
	s.progress()
	s.escalate()
	s.bookkeeping()
}

func (s *State) exempt(e *Entity) bool { return s.rules.pauseExempt.Has(e.Kind) }

// forEach calls fn for every live entity of the frame in a fixed order.
func (s *State) forEach(fn func(e *Entity, target Vec)) {
	center := s.Center()
	face := s.faceTarget()
	visit := func(ids []ID, target Vec) {
		for _, id := range ids {
			if e := s.Get(id); e != nil && e.Alive() {
				fn(e, target)
			}
		}
	}
	visit(s.Creatures, center)
	if b := s.BossEntity(); b != nil && b.Alive() {
		fn(b, face)
	}
	visit(s.Antagonists, face)
	visit(s.Projectiles, center)
	visit(s.Hazards, center)
	visit(s.Companions, face)
	visit(s.Portals, center)
}

// advanceExempt advances the kinds that ignore pause. It runs every frame.
func (s *State) advanceExempt(dt float64) {
	s.forEach(func(e *Entity, target Vec) {
		if s.exempt(e) {
			Advance(s, e, dt, target)
		}
	})
}

func (s *State) advanceAll(dt float64) {
	slow := dt
	if s.TimeSlow > 0 {
		slow = dt * 0.5
	}
	s.forEach(func(e *Entity, target Vec) {
		if s.exempt(e) {
			return
		}
		d := dt
		if e.Class == ClassCreature {
			d = slow
		}
		Advance(s, e, d, target)
	})
}

// bookkeeping drops dead entities and adds the frame's spawns to their
// collections.
func (s *State) bookkeeping() {
	s.Creatures = s.sweep(s.Creatures)
	s.Projectiles = s.sweep(s.Projectiles)
	s.Hazards = s.sweep(s.Hazards)
	s.Companions = s.sweep(s.Companions)
	s.Portals = s.sweep(s.Portals)
	s.Antagonists = s.sweep(s.Antagonists)
	s.flushPending()
}
