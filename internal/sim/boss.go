package sim

import "math"

// BossOrder is the boss fought at the end of each normal wave.
var BossOrder = []Kind{
	KindSnowKing, KindFlameWarden, KindVortex, KindSpinner, KindRam,
	KindTracker, KindArtical, KindShadow, KindAlienKing, KindMadackeda,
}

type bossStats struct {
	health float64
	radius float64
	// phase thresholds on health fraction
	p2, p3 float64
}

var bossTable = map[Kind]bossStats{
	KindSnowKing:    {30, 40, 0.6, 0.3},
	KindFlameWarden: {25, 40, 0.6, 0.3},
	KindVortex:      {35, 40, 0.6, 0.3},
	KindSpinner:     {30, 40, 0.6, 0.3},
	KindRam:         {40, 40, 0.6, 0.3},
	KindTracker:     {30, 40, 0.6, 0.3},
	KindArtical:     {35, 40, 0.6, 0.3},
	KindShadow:      {40, 40, 0.6, 0.3},
	KindAlienKing:   {60, 40, 0.6, 0.3},
	KindMadackeda:   {50, 40, 0.6, 0.3},
	KindASD:         {500, 80, 0.66, 0.33},
	KindLexicon:     {200, 35, 0.6, 0.3},
	KindFrog:        {100, 25, 0.6, 0.3},
	KindGary:        {999, 45, 0, 0},
	KindXYZ:         {150, 60, 0.6, 0.3},
}

// BossHealth returns the starting health of boss kind k.
func BossHealth(k Kind) float64 {
	if st, ok := bossTable[k]; ok {
		return st.health
	}
	return 20
}

// isPrimaryBoss reports whether k occupies the single boss slot. The frog
// and the antagonist live alongside it.
func isPrimaryBoss(k Kind) bool {
	return k.Class() == ClassBoss && k != KindFrog && k != KindGary
}

// NewBoss builds boss kind k at pos.
func NewBoss(k Kind, pos Vec) Entity {
	st, ok := bossTable[k]
	if !ok {
		st = bossStats{20, 40, 0.6, 0.3}
	}
	e := newEntity(k, pos, st.radius)
	e.Class = ClassBoss
	e.withHealth(st.health)
	e.Phase = 1
	e.Speed = 100
	e.BaseSpeed = e.Speed
	return e
}

// SpawnBoss adds boss kind k 150 above anchor and returns its handle.
func (s *State) SpawnBoss(k Kind, anchor Vec) ID {
	id := s.spawn(NewBoss(k, anchor.Add(V(0, -150))))
	s.bossHits = 0
	s.emitKind(EvtBossSpawned, k)
	return id
}

// phaseFor derives the phase of e from its health fraction.
func phaseFor(e *Entity) int {
	st, ok := bossTable[e.Kind]
	if !ok || st.p2 == 0 {
		return 1
	}
	frac := e.HealthFrac()
	p := 1
	if frac <= st.p2 {
		p++
	}
	if frac <= st.p3 {
		p++
	}
	return p
}

// updatePhase raises e.Phase to match its health. It never lowers it.
func updatePhase(e *Entity) {
	if p := phaseFor(e); p > e.Phase {
		e.Phase = p
	}
	if e.Phase < 1 {
		e.Phase = 1
	}
}

// damageBoss applies dmg unless the boss is shielded and reports whether it
// landed.
func damageBoss(e *Entity, dmg float64) bool {
	if e == nil || !e.Alive() || e.Flags.Has(FlagShielded) {
		return false
	}
	e.TakeDamage(dmg)
	updatePhase(e)
	return true
}

// phased divides a base interval by the current phase.
func phased(e *Entity, interval float64) float64 {
	if e.Phase <= 1 {
		return interval
	}
	return interval / float64(e.Phase)
}

// orbit moves e around target on a 150x80 ellipse.
func orbit(e *Entity, dt float64, target Vec) {
	e.Angle += dt
	e.Pos = V(target.X+math.Cos(e.Angle)*150, target.Y+math.Sin(e.Angle)*80)
}

// bossBase is the shared boss frame: phase update, orbit and a random basic
// minion every two seconds.
func (s *State) bossBase(e *Entity, dt float64, target Vec) {
	updatePhase(e)
	orbit(e, dt, target)
	s.bossMinions(e, dt, 2)
}

func (s *State) bossMinions(e *Entity, dt, interval float64) {
	if e.tick(tSpawn, dt, interval) {
		s.SpawnCreature(basicKinds[s.rng.Intn(len(basicKinds))], s.jitter(e.Pos, 40))
	}
}

// shieldCycle raises the shield for dur every interval seconds.
func shieldCycle(e *Entity, dt, interval, dur float64) {
	if e.Flags.Has(FlagShielded) {
		e.Timers[tShield] -= dt
		if e.Timers[tShield] <= 0 {
			e.Timers[tShield] = 0
			e.Flags.Clear(FlagShielded)
		}
		return
	}
	e.Timers[tAux] += dt
	if e.Timers[tAux] >= interval {
		e.Timers[tAux] = 0
		e.Timers[tShield] = dur
		e.Flags.Set(FlagShielded)
	}
}

// radial fires n projectiles evenly spaced starting at offset radians.
func (s *State) radial(k Kind, e *Entity, n int, speed, offset float64) {
	for i := 0; i < n; i++ {
		a := offset + float64(i)*2*math.Pi/float64(n)
		s.fire(k, e.Pos, Polar(a, speed), e.ID)
	}
}

// nearestFaceOr returns the nearest active face position to pos, or def.
func (s *State) nearestFaceOr(pos, def Vec) (Vec, bool) {
	if i := s.nearestFace(pos); i >= 0 {
		return s.Players[i].Pos, true
	}
	return def, false
}

// randomFaceOr returns a random active face position, or def.
func (s *State) randomFaceOr(def Vec) (Vec, bool) {
	if i := s.randomFace(); i >= 0 {
		return s.Players[i].Pos, true
	}
	return def, false
}
