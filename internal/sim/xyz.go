package sim

import "math"

// Timer slots used by the xyz dragon.
const (
	xyzSnake    = tAttack
	xyzBreath   = tSpecial
	xyzTeleport = tSpecial2
	xyzBreathOn = tSpecial3
	xyzDash     = tMove
	xyzDragons  = tSpawn
)

func init() {
	register(KindXYZ, advanceXYZ)
}

// spawnXYZ adds an xyz dragon starting at the given phase.
func (s *State) spawnXYZ(pos Vec, phase int, health float64) ID {
	e := s.NewCreature(KindXYZ, pos)
	if health > 0 {
		e.withHealth(health)
	}
	if phase < 1 {
		phase = 1
	}
	e.Phase = phase
	return s.spawn(e)
}

// nearestVillage returns the closest live village to pos, or nil.
func (s *State) nearestVillage(pos Vec) *Entity {
	var best *Entity
	bestD := 0.0
	for _, id := range s.Hazards {
		h := s.Get(id)
		if h == nil || !h.Alive() || h.Kind != KindVillage {
			continue
		}
		if d := pos.Dist(h.Pos); best == nil || d < bestD {
			best, bestD = h, d
		}
	}
	return best
}

func advanceXYZ(s *State, e *Entity, dt float64, target Vec) {
	updatePhase(e)
	e.Flags.SetTo(FlagRage, e.Phase >= 3)
	shieldCycle(e, dt, 15, 5)

	if face, ok := s.nearestFaceOr(e.Pos, target); ok {
		target = face
	}

	switch {
	case e.Flags.Has(FlagDashing):
		e.Pos = e.Pos.Add(e.Vel.Scale(dt))
		e.Dash -= dt
		if e.Dash <= 0 {
			e.Dash = 0
			e.Vel = Vec{}
			e.Flags.Clear(FlagDashing)
		}
	default:
		if v := s.nearestVillage(e.Pos); v != nil {
			e.stepToward(v.Pos, e.effectiveSpeed()*2, dt)
			if e.Pos.Within(v.Pos, e.Radius+v.Radius) && e.tick(tMelee, dt, 0.5) {
				v.TakeDamage(1)
			}
		} else {
			e.Chase(target, dt)
		}
	}

	if e.tick(xyzDash, dt, 3) && !e.Flags.Has(FlagDashing) {
		e.dash(target, 500, 0.8)
	}
	if e.tick(xyzSnake, dt, 1.5) {
		s.fireAt(KindSnake, e.Pos, target, 250, e.ID)
	}

	if e.Timers[xyzBreathOn] > 0 {
		e.Timers[xyzBreathOn] -= dt
		e.Osc += dt
		if e.Osc >= 0.5 {
			e.Osc = 0
			base := math.Atan2(target.Y-e.Pos.Y, target.X-e.Pos.X)
			for a := -45.0; a <= 45; a += 15 {
				s.fire(KindBreath, e.Pos, Polar(base+deg(a), 400), e.ID)
			}
		}
	} else if e.tick(xyzBreath, dt, phased(e, 4)) {
		e.Timers[xyzBreathOn] = 2
		e.Osc = 0.5
	}

	if e.tick(xyzTeleport, dt, phased(e, 8)) {
		if face, ok := s.randomFaceOr(target); ok {
			e.Pos = s.jitter(face, 400)
			e.dash(face, 600, 0.8)
		}
	}
	if e.tick(xyzDragons, dt, phased(e, 10)) {
		for i := 0; i < 2+e.Phase; i++ {
			s.SpawnCreature(KindDragon, s.jitter(e.Pos, 120))
		}
	}

	dmg := 1
	if e.Flags.Has(FlagRage) {
		dmg = 2
	}
	s.activeFaces(func(i int, p *Player) {
		if p.Pos.Within(e.Pos, e.Radius+60) {
			s.hitPlayer(i, dmg, s.Tuning.HitInvulnerability)
		}
	})
}

func (e *Entity) dash(target Vec, speed, dur float64) {
	e.Vel = e.Pos.Dir(target).Scale(speed)
	e.Dash = dur
	e.Flags.Set(FlagDashing)
}
