package sim

import "math"

func init() {
	register(KindFrog, advanceFrog)
}

// spawnFrog adds the dungeon frog alongside whatever boss is active.
func (s *State) spawnFrog(pos Vec) ID {
	e := NewBoss(KindFrog, pos)
	e.Speed, e.BaseSpeed = 60, 60
	return s.spawn(e)
}

func advanceFrog(s *State, e *Entity, dt float64, target Vec) {
	slot := s.nearestFace(e.Pos)
	if slot >= 0 {
		target = s.Players[slot].Pos
	}

	if e.Flags.Has(FlagJumping) {
		e.Pos = e.Pos.Add(e.Vel.Scale(dt))
		e.Pos = V(Clamp(e.Pos.X, 0, s.Tuning.Width), Clamp(e.Pos.Y, 0, s.Tuning.Height))
		e.Dash -= dt
		if e.Dash <= 0 {
			e.Dash = 0
			e.Vel = Vec{}
			e.Flags.Clear(FlagJumping)
		}
	} else if e.tick(tMove, dt, 1.5) {
		a := math.Atan2(target.Y-e.Pos.Y, target.X-e.Pos.X) + deg((s.rng.Float64()-0.5)*90)
		e.Vel = Polar(a, 400)
		e.Dash = 0.5
		e.Flags.Set(FlagJumping)
	}

	if e.tick(tSpecial, dt, 3) {
		s.spawnTrap(e.Pos, TrapType(s.rng.Intn(3)), e.ID)
	}
	if e.tick(tAttack, dt, 2) && slot >= 0 && e.Pos.Within(target, 200) {
		t := NewHazard(KindTongue, e.Pos)
		t.Owner = e.ID
		t.PlayerSlot = slot
		t.Pull = 300
		s.spawn(t)
	}
}
