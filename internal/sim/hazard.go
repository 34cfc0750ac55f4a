package sim

import "math"

// NewHazard builds a hazard with its standard size, health and lifetime.
func NewHazard(k Kind, pos Vec) Entity {
	e := newEntity(k, pos, 20)
	e.Class = ClassHazard
	switch k {
	case KindVillage:
		e.Radius = 40
		e.withHealth(5)
	case KindGusterBlock:
		e.Width, e.Height = 30, 30
		e.Radius = 15
	case KindPumus:
		e.Radius = 20
	case KindStorm:
		e.Radius = 50
		e.MaxRadius = 150
		e.Growth = 50
		e.Lifetime = 10
	case KindTrap:
		e.Radius = 30
		e.Lifetime = 15
	case KindTongue:
		e.Radius = 10
		e.Lifetime = 0.5
	case KindVoidZone:
		e.Radius = 50
		e.Lifetime = 5
	case KindIceWall:
		e.Width, e.Height = 40, 80
		e.Radius = 40
		e.Lifetime = 7
		e.withHealth(3)
	case KindFireRing:
		e.Radius = 20
		e.MaxRadius = 300
		e.Growth = 150
	case KindLavaPool:
		e.Radius = 40
		e.Lifetime = 10
	case KindMiniVortex:
		e.Radius = 100
		e.Pull = 50
		e.Lifetime = 5
	case KindRock:
		e.Radius = 25
	case KindSpaceJail:
		e.Radius = 100
		e.Pull = 200
		e.Lifetime = 8
	}
	e.BaseRadius = e.Radius
	return e
}

// SpawnHazard adds a hazard and returns its handle.
func (s *State) SpawnHazard(k Kind, pos Vec) ID {
	return s.spawn(NewHazard(k, pos))
}

func (s *State) spawnFireRing(pos Vec, from, to, speed float64) ID {
	e := NewHazard(KindFireRing, pos)
	e.Radius, e.BaseRadius = from, from
	e.MaxRadius, e.Growth = to, speed
	return s.spawn(e)
}

func (s *State) spawnTrap(pos Vec, t TrapType, owner ID) ID {
	e := NewHazard(KindTrap, pos)
	e.Trap = t
	e.Owner = owner
	return s.spawn(e)
}

func init() {
	register(KindVillage, stationary)
	register(KindGusterBlock, stationary)
	register(KindRock, stationary)
	register(KindIceWall, stationary)
	register(KindTrap, stationary)
	register(KindVoidZone, stationary)
	register(KindLavaPool, stationary)
	register(KindPumus, advancePumus)
	register(KindStorm, advanceStorm)
	register(KindTongue, advanceTongue)
	register(KindFireRing, advanceFireRing)
	register(KindMiniVortex, advanceMiniVortex)
	register(KindSpaceJail, advanceSpaceJail)
}

func stationary(*State, *Entity, float64, Vec) {}

func advancePumus(_ *State, e *Entity, dt float64, _ Vec) {
	if e.Age >= 3 {
		e.Flags.Set(FlagGunk)
	}
}

func advanceStorm(s *State, e *Entity, dt float64, _ Vec) {
	e.Radius = math.Min(e.Radius+e.Growth*dt, e.MaxRadius)
	e.Timers[tAux] = countdown(e.Timers[tAux], dt)
	if e.tick(tSpecial, dt, 0.5) {
		e.Timers[tAux] = 0.2 // visible lightning bolt
	}
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() || s.rules.hazardImmune.Has(c.Kind) {
			continue
		}
		if c.Pos.Within(e.Pos, e.Radius) {
			c.TakeDamage(1)
		}
	}
}

func advanceTongue(s *State, e *Entity, _ float64, _ Vec) {
	slot := e.PlayerSlot
	if slot < 0 || slot >= len(s.Players) {
		return
	}
	p := &s.Players[slot]
	if !p.Present || p.Eaten {
		return
	}
	if owner := s.Get(e.Owner); owner != nil {
		p.TonguePull = p.Pos.Dir(owner.Pos).Scale(e.Pull)
	}
}

func advanceFireRing(_ *State, e *Entity, dt float64, _ Vec) {
	e.Radius += e.Growth * dt
	if e.Radius >= e.MaxRadius {
		e.Radius = e.MaxRadius
		e.Active = false
	}
}

func advanceMiniVortex(s *State, e *Entity, dt float64, _ Vec) {
	s.pullCreatures(e.Pos, e.Radius, e.Pull*dt)
}

func advanceSpaceJail(s *State, e *Entity, dt float64, _ Vec) {
	expiring := e.Lifetime > 0 && e.Age >= e.Lifetime
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() {
			continue
		}
		if expiring {
			if c.Target == e.ID {
				c.Flags.Clear(FlagJailed)
				c.Target = NoID
			}
			continue
		}
		if c.Flags.Has(FlagJailed) {
			continue
		}
		d := c.Pos.Dist(e.Pos)
		switch {
		case d < 20:
			c.Flags.Set(FlagJailed)
			c.Target = e.ID
		case d < e.Radius:
			c.Pos = c.Pos.Add(c.Pos.Dir(e.Pos).Scale(math.Min(e.Pull*dt, d)))
		}
	}
}

// pullCreatures moves creatures within radius of center toward it by step.
func (s *State) pullCreatures(center Vec, radius, step float64) {
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() {
			continue
		}
		d := c.Pos.Dist(center)
		if d < radius {
			c.Pos = c.Pos.Add(c.Pos.Dir(center).Scale(math.Min(step, d)))
		}
	}
}

// resolveHazards applies hazard effects to the tracked players.
func (s *State) resolveHazards() {
	for _, id := range s.Hazards {
		h := s.Get(id)
		if h == nil || !h.Alive() {
			continue
		}
		switch h.Kind {
		case KindStorm:
			s.activeFaces(func(i int, p *Player) {
				if p.Pos.Within(h.Pos, h.Radius) {
					s.hitPlayer(i, 1, 1)
				}
			})
		case KindVoidZone, KindLavaPool:
			s.activeFaces(func(i int, p *Player) {
				if p.Pos.Within(h.Pos, h.Radius) {
					s.hitPlayer(i, 1, 0.5)
				}
			})
		case KindFireRing:
			s.activeFaces(func(i int, p *Player) {
				if math.Abs(p.Pos.Dist(h.Pos)-h.Radius) < 20 {
					s.hitPlayer(i, 1, 1)
				}
			})
		case KindTrap:
			s.activeFaces(func(i int, p *Player) {
				if !h.Active || !p.Pos.Within(h.Pos, h.Radius) {
					return
				}
				switch h.Trap {
				case TrapSpike:
					s.hitPlayer(i, 1, 1)
				case TrapSticky:
					p.Sticky = 2
				case TrapPoison:
					if p.Poison == 0 {
						p.Poison = 3
					}
				}
				h.Active = false
			})
		}
	}
}
