package sim

// hitPlayer applies dmg lives to slot unless it is invulnerable or eaten.
// Lives never leave [0, MaxLives]: reaching zero refills them and grants
// the respawn invulnerability window. It reports whether damage landed and
// whether the slot was reset.
func (s *State) hitPlayer(slot int, dmg int, invul float64) (hit, reset bool) {
	if slot < 0 || slot >= len(s.Players) {
		return false, false
	}
	p := &s.Players[slot]
	if p.Eaten || p.Invulnerable > 0 {
		return false, false
	}
	if dmg < 1 {
		dmg = 1
	}
	p.Lives -= dmg
	p.LivesLost += dmg
	p.Invulnerable = invul
	s.bossHits += dmg
	s.emitPlayer(EvtPlayerHit, slot, float64(dmg))
	if p.Lives <= 0 {
		p.Lives = s.Tuning.MaxLives
		p.Invulnerable = s.Tuning.RespawnInvulnerability
		s.emitPlayer(EvtPlayerReset, slot, 0)
		return true, true
	}
	if p.Lives > s.Tuning.MaxLives {
		p.Lives = s.Tuning.MaxLives
	}
	return true, false
}

// damagePlayer is hitPlayer with the standard invulnerability window.
func (s *State) damagePlayer(slot int, dmg int) bool {
	hit, _ := s.hitPlayer(slot, dmg, s.Tuning.HitInvulnerability)
	return hit
}

// activeFaces calls fn for every present, non-eaten slot.
func (s *State) activeFaces(fn func(i int, p *Player)) {
	for i := range s.Players {
		p := &s.Players[i]
		if p.Present && !p.Eaten {
			fn(i, p)
		}
	}
}

// anyEaten reports whether a slot has been permanently removed.
func (s *State) anyEaten() bool {
	for i := range s.Players {
		if s.Players[i].Eaten {
			return true
		}
	}
	return false
}

// updateInput copies the frame's faces into the player slots, growing them
// lazily, and tracks the last significant head movement per face.
func (s *State) updateInput(in Input) {
	if in.Width > 0 && in.Height > 0 {
		s.Tuning.Width, s.Tuning.Height = in.Width, in.Height
	}
	faces := in.Faces
	if limit := s.Tuning.MaxFaces; limit > 0 && len(faces) > limit {
		faces = faces[:limit]
	}
	s.Faces = s.Faces[:0]
	for _, f := range faces {
		if !f.Pos.Finite() {
			f.Pos = s.Center()
		}
		s.Faces = append(s.Faces, f)
	}
	s.Hands = s.Hands[:0]
	for _, h := range in.Hands {
		if h.Finite() {
			s.Hands = append(s.Hands, h)
		}
	}
	s.Amp = Clamp(in.Amplitude, 0, 1)
	if s.Amp != s.Amp { // NaN
		s.Amp = 0
	}

	s.ensurePlayers(len(s.Faces))
	for i := range s.Players {
		p := &s.Players[i]
		if i >= len(s.Faces) {
			p.Present = false
			p.seen = false
			continue
		}
		pos := s.Faces[i].Pos
		if p.seen {
			d := pos.Sub(p.prevPos)
			if d.X > 0.5 || d.X < -0.5 || d.Y > 0.5 || d.Y < -0.5 {
				p.HeadDir = d
			}
		}
		p.prevPos = pos
		p.seen = true
		p.Pos = pos
		p.Present = true
	}
}

// tickPlayers counts down per-slot timers.
func (s *State) tickPlayers(dt float64) {
	for i := range s.Players {
		p := &s.Players[i]
		p.Invulnerable = countdown(p.Invulnerable, dt)
		p.Locked = countdown(p.Locked, dt)
		p.Sticky = countdown(p.Sticky, dt)
		p.FireCD = countdown(p.FireCD, dt)
		if p.attackSlow > 0 {
			p.attackSlow = countdown(p.attackSlow, dt)
			if p.attackSlow == 0 {
				p.AttackSpeed = 1
			}
		}
		if p.Poison > 0 {
			p.Poison = countdown(p.Poison, dt)
			if p.Poison == 0 && p.Present {
				s.hitPlayer(i, 1, 1.0)
			}
		}
		p.reversedFor = countdown(p.reversedFor, dt)
		p.Reversed = p.reversedFor > 0
		p.TonguePull = Vec{}
	}
}

func countdown(v, dt float64) float64 {
	if v <= 0 {
		return 0
	}
	v -= dt
	if v < 0 {
		return 0
	}
	return v
}
