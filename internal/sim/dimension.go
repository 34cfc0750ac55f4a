package sim

import "math"

// Spells cast by the lexicon, in rotation.
const (
	SpellFire = iota
	SpellIce
	SpellLightning
	SpellVoid
	SpellTime
	numSpells
)

var asdMinions = [...]Kind{KindLoc, KindWhiched, KindLunanua}

func init() {
	register(KindASD, advanceASD)
	register(KindLexicon, advanceLexicon)
}

// advanceASD drives the dungeon's final boss. Pattern rotates every five
// seconds and selects which dungeon minion it summons.
func advanceASD(s *State, e *Entity, dt float64, target Vec) {
	updatePhase(e)
	orbit(e, dt*0.5, target)

	if e.tick(tMove, dt, 5) {
		e.Pattern = (e.Pattern + 1) % len(asdMinions)
	}
	if e.tick(tAttack, dt, 3) {
		s.radial(KindVoidBeam, e, 8, 500, float64(e.Pattern)*math.Pi/8)
	}
	if e.Phase >= 2 && e.tick(tSpecial, dt, 8) {
		e.Pos = s.randomPoint(e.Radius)
		for i := 0; i < 3; i++ {
			s.SpawnCreature(KindNightmare, s.jitter(e.Pos, 150))
		}
	}
	if e.Phase >= 3 && e.tick(tSpecial2, dt, 10) {
		c := s.Center()
		s.pullCreatures(c, math.Inf(1), math.Inf(1))
		s.spawnFireRing(c, 20, 300, 150)
	}
	if s.rng.Float64() < 0.02 {
		s.SpawnCreature(asdMinions[e.Pattern], s.jitter(e.Pos, 100))
	}
}

// advanceLexicon drives the elder boss. It casts one spell every two
// seconds and summons a shadow of the antagonist every fifteen.
func advanceLexicon(s *State, e *Entity, dt float64, target Vec) {
	updatePhase(e)
	orbit(e, dt, target)

	if e.tick(tAttack, dt, phased(e, 2)) {
		s.castSpell(e, e.Pattern, target)
		e.Pattern = (e.Pattern + 1) % numSpells
	}
	if e.tick(tSpawn, dt, 15) {
		s.SpawnCreature(KindShadowGary, s.jitter(e.Pos, 100))
	}
}

func (s *State) castSpell(e *Entity, spell int, target Vec) {
	switch spell {
	case SpellFire:
		base := math.Atan2(target.Y-e.Pos.Y, target.X-e.Pos.X)
		for i := -2; i <= 2; i++ {
			s.fire(KindFireball, e.Pos, Polar(base+deg(float64(i)*10), 300), e.ID)
		}
	case SpellIce:
		for _, id := range s.Creatures {
			if c := s.Get(id); c != nil && c.Alive() {
				c.Slow = 2
				c.SlowFactor = 0.5
				c.Flags.Set(FlagSlowed)
			}
		}
	case SpellLightning:
		var alive []*Entity
		for _, id := range s.Creatures {
			if c := s.Get(id); c != nil && c.Alive() {
				alive = append(alive, c)
			}
		}
		if len(alive) > 0 {
			c := alive[s.rng.Intn(len(alive))]
			s.fireAt(KindSpell, e.Pos, c.Pos, 800, e.ID)
		}
	case SpellVoid:
		s.SpawnHazard(KindVoidZone, target)
	case SpellTime:
		s.TimeSlow = math.Max(s.TimeSlow, 3)
	}
}
