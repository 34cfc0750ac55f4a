package sim

import "math"

func init() {
	register(KindSnowKing, advanceSnowKing)
	register(KindFlameWarden, advanceFlameWarden)
	register(KindVortex, advanceVortex)
	register(KindSpinner, advanceSpinner)
	register(KindRam, advanceRam)
	register(KindTracker, advanceTracker)
	register(KindArtical, advanceArtical)
	register(KindShadow, advanceShadow)
	register(KindAlienKing, advanceAlienKing)
	register(KindMadackeda, advanceMadackeda)
}

func advanceSnowKing(s *State, e *Entity, dt float64, target Vec) {
	s.bossBase(e, dt, target)
	if e.tick(tSpecial, dt, 3) {
		s.SpawnCreature(KindSnowie, s.jitter(e.Pos, 60))
	}
	if e.tick(tAttack, dt, phased(e, 5)) {
		for i := 0; i < 20; i++ {
			a := s.rng.Float64() * 2 * math.Pi
			s.fire(KindPurple, e.Pos, Polar(a, 200+s.rng.Float64()*200), e.ID)
		}
	}
	if e.tick(tSpecial2, dt, 7) {
		for i := 0; i < 5; i++ {
			s.SpawnHazard(KindIceWall, s.randomPoint(60))
		}
	}
}

func advanceFlameWarden(s *State, e *Entity, dt float64, target Vec) {
	s.bossBase(e, dt, target)
	if e.tick(tSpecial, dt, 2) {
		s.SpawnCreature(KindFireSpinner, s.jitter(e.Pos, 60))
	}
	if e.tick(tAttack, dt, phased(e, 4)) {
		s.spawnFireRing(e.Pos, 20, 300, 150)
	}
	if e.tick(tSpecial2, dt, 6) {
		s.SpawnHazard(KindLavaPool, s.jitter(target, 200))
	}
}

func advanceVortex(s *State, e *Entity, dt float64, target Vec) {
	s.bossBase(e, dt, target)
	if e.tick(tAttack, dt, phased(e, 3)) {
		s.pullCreatures(e.Pos, 200, 100)
	}
	if e.tick(tSpecial, dt, 5) {
		for i := 0; i < 3; i++ {
			s.SpawnHazard(KindMiniVortex, s.randomPoint(100))
		}
	}
	if e.tick(tSpecial2, dt, 8) {
		s.activeFaces(func(_ int, p *Player) {
			p.reversedFor = 2
			p.Reversed = true
		})
	}
}

func advanceSpinner(s *State, e *Entity, dt float64, target Vec) {
	updatePhase(e)
	e.Angle += 3 * dt
	e.stepToward(V(target.X, target.Y-150), e.Speed, dt)
	s.bossMinions(e, dt, 2)
	if e.tick(tAttack, dt, phased(e, 2.5)) {
		s.radial(KindPurple, e, 8, 300, e.Angle)
	}
}

func advanceRam(s *State, e *Entity, dt float64, target Vec) {
	updatePhase(e)
	s.bossMinions(e, dt, 2)
	if e.Flags.Has(FlagDashing) {
		e.Pos = e.Pos.Add(e.Vel.Scale(dt))
		e.Dash -= dt
		if e.Dash <= 0 {
			e.Dash = 0
			e.Flags.Clear(FlagDashing)
			e.Vel = Vec{}
			// resume the orbit from wherever the charge ended
			e.Angle = math.Atan2((e.Pos.Y-target.Y)/80, (e.Pos.X-target.X)/150)
		}
		return
	}
	orbit(e, dt, target)
	if e.tick(tAttack, dt, phased(e, 4)) {
		aim, _ := s.nearestFaceOr(e.Pos, target)
		e.Vel = e.Pos.Dir(aim).Scale(400)
		e.Dash = 0.5
		e.Flags.Set(FlagDashing)
	}
}

func advanceTracker(s *State, e *Entity, dt float64, target Vec) {
	s.bossBase(e, dt, target)
	if e.tick(tAttack, dt, phased(e, 3)) {
		aim, _ := s.nearestFaceOr(e.Pos, target)
		s.fireAt(KindPurple, e.Pos, aim, 200, e.ID)
	}
}

func advanceArtical(s *State, e *Entity, dt float64, target Vec) {
	updatePhase(e)
	s.bossMinions(e, dt, 2)
	if e.tick(tAttack, dt, phased(e, 4)) {
		if face, ok := s.randomFaceOr(target); ok {
			e.Pos = face.Add(Polar(s.rng.Float64()*2*math.Pi, 150))
			return
		}
	}
	e.Chase(target, dt)
}

func advanceShadow(s *State, e *Entity, dt float64, target Vec) {
	s.bossBase(e, dt, target)
	if e.tick(tSpecial, dt, phased(e, 5)) {
		s.spawnFromEdge(KindBasic)
	}
}

func advanceAlienKing(s *State, e *Entity, dt float64, target Vec) {
	s.bossBase(e, dt, target)
	if e.tick(tAttack, dt, phased(e, 4)) {
		for i := 0; i < 12; i++ {
			a := deg(float64(i)*30 + (s.rng.Float64()-0.5)*20)
			s.fire(KindPurple, e.Pos, Polar(a, 350), e.ID)
		}
	}
}

func advanceMadackeda(s *State, e *Entity, dt float64, target Vec) {
	updatePhase(e)
	shieldCycle(e, dt, 4, 2)
	if e.tick(tSpawn, dt, 1.5) {
		s.SpawnCreature(KindSnowie, s.jitter(e.Pos, 60))
		s.SpawnCreature(KindFireSpinner, s.jitter(e.Pos, 60))
	}
	if e.tick(tSpecial, dt, 5) {
		if face, ok := s.randomFaceOr(target); ok {
			e.Pos = face.Add(Polar(s.rng.Float64()*2*math.Pi, 150))
		}
	} else {
		orbit(e, dt, target)
	}
	if e.tick(tAttack, dt, phased(e, 3)) {
		for _, a := range []float64{240, 300} {
			s.fire(KindPurple, e.Pos, Polar(deg(a), 400), e.ID)
		}
	}
}
