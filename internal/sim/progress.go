package sim

// StageLabel renders the controller state the way the HUD shows it:
// "minions", "boss_<kind>", "portal_wait" or "victory".
func (s *State) StageLabel() string {
	switch s.Progress.Stage {
	case StageBoss:
		if b := s.BossEntity(); b != nil {
			return "boss_" + b.Kind.String()
		}
		for _, id := range s.pending {
			if b := s.Get(id); b != nil && isPrimaryBoss(b.Kind) {
				return "boss_" + b.Kind.String()
			}
		}
		return "boss"
	case StagePortalWait:
		return "portal_wait"
	case StageVictory:
		return "victory"
	}
	return "minions"
}

// KillTarget is the number of kills that ends the current wave.
func (s *State) KillTarget() int { return s.Tuning.killTarget(s.Progress.Wave) }

// spawnChecks runs minion spawning and scheduled respawns.
func (s *State) spawnChecks() {
	if len(s.respawns) > 0 {
		keep := s.respawns[:0:0]
		for _, r := range s.respawns {
			if s.Wall < r.at {
				keep = append(keep, r)
				continue
			}
			s.spawnXYZ(s.edgePoint(creatureTable[KindXYZ].radius), r.phase, 0)
		}
		s.respawns = keep
	}

	p := &s.Progress
	if p.Stage != StageMinions {
		return
	}
	if s.Time-p.lastSpawn < s.Tuning.SpawnInterval {
		return
	}
	p.lastSpawn = s.Time
	s.spawnRandomMinion()
	if s.rng.Float64() < s.Tuning.RockChance && !s.hasHazard(KindRock) {
		s.SpawnHazard(KindRock, s.randomPoint(50))
	}
}

// progress evaluates the wave, boss and portal transitions for this frame.
func (s *State) progress() {
	s.checkPortals()

	p := &s.Progress
	if p.Dimension == DimElder && p.dragonSlain && !s.dragonLeft() {
		s.dragonDefeated()
		return
	}
	switch p.Stage {
	case StageMinions:
		if p.Kills >= s.KillTarget() {
			s.leaveMinions()
		}
	case StageBoss:
		b := s.BossEntity()
		if b == nil {
			// spawned this frame and still pending
			if s.pendingBoss() {
				return
			}
			p.Stage = StageMinions
			return
		}
		if !b.Alive() {
			s.bossDefeated(b.Kind)
		}
	}
}

func (s *State) pendingBoss() bool {
	for _, id := range s.pending {
		if b := s.Get(id); b != nil && isPrimaryBoss(b.Kind) {
			return true
		}
	}
	return false
}

// leaveMinions ends the wave: the field is cleared and either a portal or
// the next boss appears.
func (s *State) leaveMinions() {
	p := &s.Progress
	s.clearClass(ClassCreature)
	s.clearClass(ClassProjectile)
	p.Kills = 0

	anchor := s.faceTarget()
	switch {
	case p.Dimension == DimNormal && p.Wave == s.Tuning.DungeonPortalWave && !p.DungeonVisited:
		s.OpenPortal(DimDungeon, s.Center())
		p.Stage = StagePortalWait
	case p.Dimension == DimNormal && p.Wave == s.Tuning.ElderPortalWave && !p.ElderVisited:
		s.OpenPortal(DimElder, s.Center())
		p.Stage = StagePortalWait
	case p.Dimension == DimDungeon:
		s.SpawnBoss(KindASD, anchor)
		p.Stage = StageBoss
	case p.Dimension == DimElder:
		s.SpawnBoss(KindLexicon, anchor)
		p.Stage = StageBoss
	default:
		w := p.Wave
		if w >= len(BossOrder) {
			w = len(BossOrder) - 1
		}
		s.SpawnBoss(BossOrder[w], anchor)
		p.Stage = StageBoss
	}
}

// bossDefeated handles the primary boss reaching zero health.
func (s *State) bossDefeated(k Kind) {
	p := &s.Progress
	p.BossesDefeated++
	s.emit(Event{Type: EvtBossDefeated, Kind: k, KindName: k.String(), Player: -1, Wave: p.Wave, Dimension: p.Dimension, Value: float64(s.bossHits)})
	s.dropBoss()
	s.clearClass(ClassProjectile)

	switch k {
	case KindASD, KindLexicon:
		s.leaveDimension(true)
		return
	}
	last := len(s.Tuning.KillTargets) - 1
	if p.Wave >= last {
		p.Stage = StageVictory
		s.clearClass(ClassCreature)
		s.emit(Event{Type: EvtVictory, Player: -1, Wave: p.Wave, Dimension: p.Dimension})
		return
	}
	p.Wave++
	p.Kills = 0
	p.Stage = StageMinions
	p.lastSpawn = s.Time
}

// dragonLeft reports whether an xyz is still alive, about to spawn or
// waiting to respawn after being eaten.
func (s *State) dragonLeft() bool {
	if len(s.respawns) > 0 {
		return true
	}
	for _, ids := range [][]ID{s.Creatures, s.pending} {
		for _, id := range ids {
			if c := s.Get(id); c != nil && c.Alive() && c.Kind == KindXYZ {
				return true
			}
		}
	}
	return false
}

// dragonDefeated completes the elder dimension: the players killed the last
// xyz. Only player kills count; an xyz eaten by the antagonist respawns.
func (s *State) dragonDefeated() {
	p := &s.Progress
	p.BossesDefeated++
	s.emit(Event{Type: EvtDragonDefeated, Kind: KindXYZ, KindName: KindXYZ.String(), Player: -1, Wave: p.Wave, Dimension: p.Dimension, Value: float64(s.bossHits)})
	s.leaveDimension(true)
}

// dropBoss frees the primary boss slot.
func (s *State) dropBoss() {
	if s.Boss.Valid() {
		s.Arena.Free(s.Boss)
	}
	s.Boss = NoID
	s.removeKinds(&s.pending, primaryBossKinds...)
}

// clearClass frees every entity of class c, including ones still pending.
func (s *State) clearClass(c Class) {
	switch c {
	case ClassCreature:
		s.clearList(s.Creatures)
		s.Creatures = nil
	case ClassProjectile:
		s.clearList(s.Projectiles)
		s.Projectiles = nil
	case ClassHazard:
		s.clearList(s.Hazards)
		s.Hazards = nil
	case ClassCompanion:
		s.clearList(s.Companions)
		s.Companions = nil
	case ClassPortal:
		s.clearList(s.Portals)
		s.Portals = nil
	}
	pend := make([]ID, 0, len(s.pending))
	for _, id := range s.pending {
		e := s.Get(id)
		if e != nil && e.Class == c {
			s.Arena.Free(id)
			continue
		}
		pend = append(pend, id)
	}
	s.pending = pend
}

var primaryBossKinds = func() []Kind {
	var out []Kind
	for k := Kind(1); k < numKinds; k++ {
		if isPrimaryBoss(k) {
			out = append(out, k)
		}
	}
	return out
}()

// drainCommands applies queued commands in arrival order.
func (s *State) drainCommands() {
	cmds := s.commands
	s.commands = nil
	for _, c := range cmds {
		switch c.Type {
		case CmdTogglePause:
			s.Paused = !s.Paused
			if s.Paused {
				s.emit(Event{Type: EvtPaused, Player: -1})
			} else {
				s.emit(Event{Type: EvtResumed, Player: -1})
			}
		case CmdCreatePortal:
			if c.Dimension == DimElder {
				if s.Antagonist() == nil {
					s.openElderRift(s.randomPoint(100))
				}
			} else {
				s.OpenPortal(DimDungeon, s.randomPoint(100))
			}
		case CmdReturnNormal:
			s.leaveDimension(false)
			s.removeKinds(&s.Antagonists, KindGary)
		case CmdRestart:
			s.restart()
		}
	}
}

// restart resets the run in place, keeping tuning and player slots.
func (s *State) restart() {
	s.Arena.Reset()
	s.Creatures, s.Projectiles, s.Hazards = nil, nil, nil
	s.Companions, s.Portals, s.Antagonists = nil, nil, nil
	s.pending = nil
	s.respawns = nil
	s.Boss = NoID
	s.Progress = Progress{lastSpawn: s.Time}
	s.Paused = false
	s.ScreenShake, s.TimeSlow = 0, 0
	s.bossHits = 0
	for i := range s.Players {
		s.Players[i] = Player{Lives: s.Tuning.MaxLives, AttackSpeed: 1, HeadDir: V(0, -1)}
	}
	s.emit(Event{Type: EvtRestarted, Player: -1})
}
