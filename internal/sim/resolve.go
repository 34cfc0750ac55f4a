package sim

import "math"

// defeats records, per frame, which interaction defeated each creature.
// The first writer wins.
type defeats map[ID]DefeatReason

func (d defeats) mark(id ID, r DefeatReason) bool {
	if _, ok := d[id]; ok {
		return false
	}
	d[id] = r
	return true
}

func (d defeats) has(id ID) bool {
	_, ok := d[id]
	return ok
}

// resolve computes every cross-entity effect of the frame. Creature marks
// are collected first and applied in a single partition pass.
func (s *State) resolve(dt float64) {
	marks := make(defeats)
	s.indexCreatures()

	if !(s.Tuning.HandsBlockEaten && s.anyEaten()) {
		s.resolveHands(marks)
	}
	s.resolveProjectiles(marks)
	s.resolveMouths(marks)
	s.partition(marks)

	s.resolveContact()
	s.resolveHazards()

	s.applyAuras()
	s.ScreenShake = math.Max(0, s.ScreenShake-10*dt)
	s.TimeSlow = countdown(s.TimeSlow, dt)
	s.collectRock()
	s.resolveAttacks()
}

// hitCreature applies dmg to c and reports whether the hit defeats it.
// Creatures without health fall to any hit; shields absorb everything.
func hitCreature(c *Entity, dmg float64) bool {
	if c.Flags.Has(FlagShielded) {
		return false
	}
	if !c.HasHealth {
		return true
	}
	c.Health -= dmg
	if c.Kind == KindXYZ {
		updatePhase(c)
	}
	return c.Health <= 0
}

// bossTargets returns the primary boss and the antagonists, in that order.
func (s *State) bossTargets() []*Entity {
	var out []*Entity
	if b := s.BossEntity(); b != nil && b.Alive() {
		out = append(out, b)
	}
	for _, id := range s.Antagonists {
		if a := s.Get(id); a != nil && a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

func (s *State) resolveHands(marks defeats) {
	if len(s.Hands) == 0 {
		return
	}
	bosses := s.bossTargets()
	for _, h := range s.Hands {
		for _, id := range s.creaturesNear(h, s.Tuning.HandReach) {
			c := s.Get(id)
			if c == nil || !c.Alive() || marks.has(id) {
				continue
			}
			if h.Within(c.Pos, c.Radius+s.Tuning.HandReach) && hitCreature(c, 1) {
				marks.mark(id, ReasonHand)
			}
		}
		for _, b := range bosses {
			if h.Within(b.Pos, b.Radius+s.Tuning.BossHandReach) {
				damageBoss(b, 1)
			}
		}
	}
}

func (s *State) resolveProjectiles(marks defeats) {
	bosses := s.bossTargets()
	for _, pid := range s.Projectiles {
		p := s.Get(pid)
		if p == nil || !p.Alive() {
			continue
		}
		prof := Profile(p.Kind)
		if prof.HitsCreatures {
			s.projectileVsCreatures(p, prof, marks)
			for _, b := range bosses {
				if !p.Active {
					break
				}
				if b.ID == p.Owner || !CheckCollision(p.Pos.X, p.Pos.Y, p.Radius, b.Pos.X, b.Pos.Y, b.Radius) {
					continue
				}
				p.Active = false
				if !s.rules.projectileImmune.Has(b.Kind) {
					damageBoss(b, 1)
				}
			}
		}
		if prof.HitsPlayers && p.Active {
			reach := p.Radius + s.playerReach(prof)
			for i := range s.Players {
				pl := &s.Players[i]
				if !pl.Present || pl.Eaten || !p.Pos.Within(pl.Pos, reach) {
					continue
				}
				p.Active = false
				s.hitPlayer(i, max(1, int(math.Round(p.Damage))), s.Tuning.HitInvulnerability)
				break
			}
		}
	}
}

func (s *State) projectileVsCreatures(p *Entity, prof ProjectileProfile, marks defeats) {
	for _, id := range s.creaturesNear(p.Pos, p.Radius) {
		c := s.Get(id)
		if c == nil || !c.Alive() || marks.has(id) || id == p.Owner {
			continue
		}
		if !CheckCollision(p.Pos.X, p.Pos.Y, p.Radius, c.Pos.X, c.Pos.Y, c.Radius) {
			continue
		}
		if !prof.Piercing {
			p.Active = false
		}
		if prof.NoRespawn {
			c.NoRespawn = true
			if !c.HasHealth {
				c.withHealth(3)
			}
		}
		if hitCreature(c, p.Damage) {
			r := ReasonLaser
			if o := s.Get(p.Owner); o != nil && o.Kind == KindGary {
				r = ReasonAntagonist
			}
			marks.mark(id, r)
		}
		if !p.Active {
			return
		}
	}
}

func (s *State) resolveMouths(marks defeats) {
	for i, f := range s.Faces {
		if i >= len(s.Players) || s.Players[i].Eaten || f.MouthOpenRatio <= s.Tuning.MouthThreshold {
			continue
		}
		mouth := f.Pos.Add(V(0, s.Tuning.MouthOffset))
		for _, id := range s.creaturesNear(mouth, s.Tuning.MouthRadius) {
			c := s.Get(id)
			if c == nil || !c.Alive() || marks.has(id) {
				continue
			}
			if mouth.Within(c.Pos, s.Tuning.MouthRadius) && hitCreature(c, 2) {
				marks.mark(id, ReasonMouth)
			}
		}
	}
}

// partition removes marked creatures, crediting one kill each, and drops
// creatures that died from attrition without credit. The survivors form a
// new slice.
func (s *State) partition(marks defeats) {
	survivors := make([]ID, 0, len(s.Creatures))
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil {
			continue
		}
		if r, ok := marks[id]; ok {
			s.Progress.Kills++
			s.emit(Event{Type: EvtCreatureDefeated, Kind: c.Kind, KindName: c.Kind.String(), Reason: r, Player: -1, Wave: s.Progress.Wave, Dimension: s.Progress.Dimension})
			if c.Kind == KindXYZ {
				if r == ReasonAntagonist {
					s.respawns = append(s.respawns, respawn{at: s.Wall + garyTiers[0].respawn, kind: KindXYZ, phase: max(1, c.Phase-1)})
				} else if s.Progress.Dimension == DimElder {
					s.Progress.dragonSlain = true
				}
			}
			s.Arena.Free(id)
			continue
		}
		if !c.Alive() {
			s.Arena.Free(id)
			continue
		}
		survivors = append(survivors, id)
	}
	s.Creatures = survivors
}

// resolveContact applies creature and boss proximity damage to players.
func (s *State) resolveContact() {
	reach := s.Tuning.AvatarRadius
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() || c.Kind == KindXYZ {
			continue
		}
		for i := range s.Players {
			p := &s.Players[i]
			if !p.Present || p.Eaten || p.Invulnerable > 0 || !p.Pos.Within(c.Pos, reach) {
				continue
			}
			if s.damagePlayer(i, 1) && !c.HasHealth {
				c.Active = false
			}
			break
		}
	}
	for _, b := range s.bossTargets() {
		if b.Kind == KindGary {
			continue
		}
		s.activeFaces(func(i int, p *Player) {
			if p.Pos.Within(b.Pos, b.Radius+reach) {
				s.damagePlayer(i, 1)
			}
		})
	}
}

// resolveAttacks fires eye lasers for faces that blinked or when the voice
// is loud enough. Only a slowed face (attack speed below 1) waits between
// shots; blink edges are consumed by the frame that sees them.
func (s *State) resolveAttacks() {
	voice := s.Amp > s.Tuning.VoiceThreshold
	for i := range s.Players {
		p := &s.Players[i]
		if !p.Present || p.Eaten || p.Locked > 0 || p.FireCD > 0 || i >= len(s.Faces) {
			continue
		}
		if !voice && !s.Faces[i].Blink {
			continue
		}
		s.fireLasers(p)
		if speed := p.AttackSpeed; speed > 0 && speed < 1 {
			p.FireCD = s.Tuning.FireCooldown / speed
		}
	}
}
