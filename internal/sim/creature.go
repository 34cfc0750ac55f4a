package sim

import "math"

type creatureStats struct {
	speed  float64
	radius float64
}

var creatureTable = map[Kind]creatureStats{
	KindBasic:       {0, 15}, // speed rolled at spawn
	KindSnowie:      {40, 15},
	KindFireSpinner: {80, 15},
	KindGhost:       {100, 15},
	KindSkeleton:    {70, 15},
	KindCaster:      {60, 15},
	KindDragon:      {120, 25},
	KindPhantom:     {90, 18},
	KindBomber:      {60, 20},
	KindNinja:       {150, 16},
	KindHealer:      {50, 15},
	KindMimic:       {80, 20},
	KindLoc:         {70, 14},
	KindBat:         {140, 12},
	KindNightmare:   {60, 22},
	KindDream:       {40, 18},
	KindIllusion:    {100, 15},
	KindWhiched:     {65, 19},
	KindCreak:       {45, 17},
	KindCreeper:     {30, 16},
	KindNeonZombie:  {55, 18},
	KindLunanua:     {75, 24},
	KindShadowGary:  {90, 30},
	KindXYZ:         {80, 60},
}

var (
	basicKinds   = []Kind{KindBasic, KindSnowie, KindFireSpinner, KindGhost, KindSkeleton, KindCaster, KindDragon}
	midKinds     = []Kind{KindPhantom, KindBomber, KindNinja}
	lateKinds    = []Kind{KindHealer, KindMimic}
	dungeonKinds = []Kind{KindLoc, KindBat, KindNightmare, KindDream, KindWhiched, KindCreak, KindCreeper, KindNeonZombie, KindLunanua}
)

// spawnTable returns the minion kinds eligible in dim at wave.
func spawnTable(dim Dimension, wave int) []Kind {
	switch dim {
	case DimDungeon:
		return dungeonKinds
	case DimElder:
		return basicKinds
	}
	out := append([]Kind(nil), basicKinds...)
	if wave >= 3 {
		out = append(out, midKinds...)
	}
	if wave >= 5 {
		out = append(out, lateKinds...)
	}
	return out
}

// NewCreature builds a creature of kind k at pos with its table stats.
func (s *State) NewCreature(k Kind, pos Vec) Entity {
	st, ok := creatureTable[k]
	if !ok {
		st = creatureTable[KindBasic]
	}
	e := newEntity(k, pos, st.radius)
	e.Class = ClassCreature
	e.Speed = st.speed
	if k == KindBasic {
		e.Speed = 50 + s.rng.Float64()*70
	}
	e.BaseSpeed = e.Speed
	switch k {
	case KindIllusion:
		e.Lifetime = 3
	case KindShadowGary:
		e.withHealth(50)
	case KindXYZ:
		e.withHealth(150)
		e.Phase = 1
	}
	return e
}

// SpawnCreature adds a creature and returns its handle.
func (s *State) SpawnCreature(k Kind, pos Vec) ID {
	return s.spawn(s.NewCreature(k, pos))
}

// edgePoint picks a point just outside a random canvas edge.
func (s *State) edgePoint(radius float64) Vec {
	w, h := s.Tuning.Width, s.Tuning.Height
	switch s.rng.Intn(4) {
	case 0:
		return V(s.rng.Float64()*w, -radius)
	case 1:
		return V(w+radius, s.rng.Float64()*h)
	case 2:
		return V(s.rng.Float64()*w, h+radius)
	default:
		return V(-radius, s.rng.Float64()*h)
	}
}

// spawnFromEdge spawns kind k at a random edge.
func (s *State) spawnFromEdge(k Kind) ID {
	r := creatureTable[KindBasic].radius
	if st, ok := creatureTable[k]; ok {
		r = st.radius
	}
	return s.SpawnCreature(k, s.edgePoint(r))
}

// spawnRandomMinion spawns a random kind from the current spawn table.
func (s *State) spawnRandomMinion() ID {
	table := spawnTable(s.Progress.Dimension, s.Progress.Wave)
	return s.spawnFromEdge(table[s.rng.Intn(len(table))])
}

func init() {
	for _, k := range []Kind{KindBasic, KindSnowie, KindFireSpinner, KindGhost, KindSkeleton, KindCaster, KindPhantom, KindNeonZombie, KindIllusion, KindShadowGary} {
		register(k, chase)
	}
	register(KindDragon, advanceDragon)
	register(KindBomber, advanceBomber)
	register(KindNinja, advanceNinja)
	register(KindHealer, advanceHealer)
	register(KindMimic, advanceMimic)
	register(KindLoc, advanceLoc)
	register(KindBat, advanceBat)
	register(KindNightmare, chase)
	register(KindDream, advanceDream)
	register(KindWhiched, advanceWhiched)
	register(KindCreak, advanceCreak)
	register(KindCreeper, advanceCreeper)
	register(KindLunanua, advanceLunanua)
}

// Target transforms.

func advanceDragon(_ *State, e *Entity, dt float64, target Vec) {
	e.Osc += 5 * dt
	e.Chase(V(target.X+math.Sin(e.Osc)*50, target.Y), dt)
}

func advanceBat(_ *State, e *Entity, dt float64, target Vec) {
	e.Osc += 4 * dt
	e.Chase(V(target.X, target.Y+math.Sin(e.Osc)*30), dt)
}

func advanceLunanua(_ *State, e *Entity, dt float64, target Vec) {
	e.Osc += 0.5 * dt
	power := 1 + 0.5*math.Sin(e.Osc)
	e.Speed = e.BaseSpeed * power
	e.Radius = e.BaseRadius * power
	e.Chase(target, dt)
}

// Gates.

func advanceNinja(_ *State, e *Entity, dt float64, target Vec) {
	if e.tick(tSpecial, dt, 1.5) {
		if e.Flags.Has(FlagVisible) {
			e.Flags.Clear(FlagVisible)
			e.Pos = target.Add(e.Pos.Dir(target).Scale(100))
		} else {
			e.Flags.Set(FlagVisible)
		}
	}
	if e.Flags.Has(FlagVisible) {
		e.Chase(target, dt)
	}
}

func advanceCreeper(s *State, e *Entity, dt float64, target Vec) {
	if !e.Flags.Has(FlagExploding) && e.Pos.Within(target, 50) {
		e.Flags.Set(FlagExploding)
	}
	if !e.Flags.Has(FlagExploding) {
		e.Chase(target, dt)
		return
	}
	e.MaxRadius += 200 * dt
	if e.MaxRadius < 80 {
		return
	}
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || c == e || !c.Alive() {
			continue
		}
		if c.Pos.Within(e.Pos, 150) {
			c.TakeDamage(3)
		}
	}
	e.Active = false
}

func advanceMimic(s *State, e *Entity, dt float64, target Vec) {
	if !e.Flags.Has(FlagCopied) {
		var best *Entity
		bestD := 0.0
		for _, id := range s.Creatures {
			c := s.Get(id)
			if c == nil || c == e || !c.Alive() || c.Kind == KindMimic {
				continue
			}
			if d := e.Pos.Dist(c.Pos); best == nil || d < bestD {
				best, bestD = c, d
			}
		}
		if best != nil {
			e.Flags.Set(FlagCopied)
			e.Copied = best.Kind
			e.Speed = best.Speed
			e.BaseSpeed = best.Speed
		}
	}
	if e.Copied != KindNone && e.Copied != KindMimic {
		if f := behaviorFor(e.Copied, 0); f != nil {
			f(s, e, dt, target)
			return
		}
	}
	e.Chase(target, dt)
}

// Periodic side effects.

func advanceBomber(s *State, e *Entity, dt float64, target Vec) {
	e.Chase(target, dt)
	if !e.tick(tAttack, dt, 2) || !e.Pos.Within(target, 150) {
		return
	}
	for i := 0; i < 8; i++ {
		s.fire(KindFireball, e.Pos, Polar(deg(float64(i)*45), 200), e.ID)
	}
}

func advanceHealer(s *State, e *Entity, dt float64, target Vec) {
	e.Chase(target, dt)
	if !e.tick(tSpecial, dt, 3) {
		return
	}
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || c == e || !c.Alive() || !c.HasHealth {
			continue
		}
		if c.Pos.Within(e.Pos, 100) && c.Health < c.MaxHealth {
			c.Health = math.Min(c.Health+1, math.Max(c.MaxHealth, 3))
		}
	}
}

func advanceLoc(s *State, e *Entity, dt float64, target Vec) {
	e.Chase(target, dt)
	if !e.tick(tSpecial, dt, 2.5) {
		return
	}
	s.activeFaces(func(_ int, p *Player) {
		if p.Pos.Within(e.Pos, 100) {
			p.Locked = math.Max(p.Locked, 1)
		}
	})
}

func advanceDream(s *State, e *Entity, dt float64, target Vec) {
	e.Chase(target, dt)
	if !e.tick(tSpawn, dt, 4) {
		return
	}
	for i := 0; i < 3; i++ {
		a := float64(i) * 2 * math.Pi / 3
		s.SpawnCreature(KindIllusion, e.Pos.Add(Polar(a, 50)))
	}
}

func advanceWhiched(s *State, e *Entity, dt float64, target Vec) {
	e.Chase(target, dt)
	if !e.tick(tSpecial, dt, 3) {
		return
	}
	s.activeFaces(func(_ int, p *Player) {
		if p.Pos.Within(e.Pos, 120) {
			p.AttackSpeed = 0.5
			p.attackSlow = 2
		}
	})
}

func advanceCreak(s *State, e *Entity, dt float64, target Vec) {
	e.Chase(target, dt)
	s.activeFaces(func(_ int, p *Player) {
		if d := p.Pos.Dist(e.Pos); d < 150 {
			s.ScreenShake = math.Max(s.ScreenShake, (150-d)/15)
		}
	})
}

// applyAuras marks players standing in a nightmare's fear aura.
func (s *State) applyAuras() {
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() || c.Kind != KindNightmare {
			continue
		}
		s.activeFaces(func(_ int, p *Player) {
			if p.Pos.Within(c.Pos, 100) {
				p.Reversed = true
			}
		})
	}
}
