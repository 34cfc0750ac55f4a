package sim

import "math"

var companionNames = []string{"RescueBot", "GuardianAI", "DefenderUnit", "ProtectorDroid", "SaviorBot", "HeroAI", "ShieldUnit"}

func init() {
	register(KindCompanion, advanceCompanion)
}

// liveCompanions counts companions including ones spawned this frame.
func (s *State) liveCompanions() int {
	n := 0
	for _, id := range s.Companions {
		if c := s.Get(id); c != nil && c.Alive() {
			n++
		}
	}
	for _, id := range s.pending {
		if c := s.Get(id); c != nil && c.Alive() && c.Kind == KindCompanion {
			n++
		}
	}
	return n
}

// spawnCompanion adds an AI helper unless the cap is reached. It returns
// NoID when nothing was spawned.
func (s *State) spawnCompanion(st Strategy, rescue bool) ID {
	if s.liveCompanions() >= s.Tuning.MaxCompanions {
		return NoID
	}
	e := newEntity(KindCompanion, s.randomPoint(50), 50)
	e.Class = ClassCompanion
	e.Strategy = st
	e.Speed, e.BaseSpeed = 150, 150
	e.Name = companionNames[s.rng.Intn(len(companionNames))]
	e.Flags.SetTo(FlagRescue, rescue)
	id := s.spawn(e)
	s.emit(Event{Type: EvtCompanionSpawned, KindName: e.Name, Player: -1, Wave: s.Progress.Wave, Dimension: s.Progress.Dimension})
	return id
}

func advanceCompanion(s *State, e *Entity, dt float64, target Vec) {
	prey := s.nearestCreature(e.Pos, math.Inf(1), KindNone)
	goal := target
	if prey != nil {
		goal = prey.Pos
	}

	switch e.Strategy {
	case StrategyAggressive:
		e.stepToward(goal, 150, dt)
	case StrategyDefensive:
		d := e.Pos.Dist(goal)
		switch {
		case d < 200:
			e.stepToward(goal, -e.Speed, dt)
		case d > 300:
			e.stepToward(goal, e.Speed, dt)
		}
	case StrategySupport:
		anchor := s.faceTarget()
		e.Osc += dt
		e.Pos = anchor.Add(Polar(e.Osc, 120))
	}

	if e.tick(tMove, dt, 2) {
		dir := e.Pos.Dir(goal).Perp()
		if s.rng.Intn(2) == 0 {
			dir = dir.Scale(-1)
		}
		e.Pos = e.Pos.Add(dir.Scale(200 * 0.2)) // sidestep
	}
	e.Pos = V(Clamp(e.Pos.X, e.Radius, s.Tuning.Width-e.Radius), Clamp(e.Pos.Y, e.Radius, s.Tuning.Height-e.Radius))

	if prey != nil && e.tick(tAttack, dt, 0.5) {
		s.fireAt(KindLaser, e.Pos, prey.Pos, s.Tuning.LaserSpeed, e.ID)
	}
}
