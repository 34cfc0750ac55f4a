package sim

import "math"

const portalRadius = 60

func init() {
	register(KindDimensionPortal, advancePortal)
	register(KindElderPortal, advanceElderPortal)
}

// OpenPortal spawns a portal leading to dim at pos.
func (s *State) OpenPortal(dim Dimension, pos Vec) ID {
	e := newEntity(KindDimensionPortal, pos, portalRadius)
	e.Class = ClassPortal
	e.Pattern = int(dim)
	id := s.spawn(e)
	s.emit(Event{Type: EvtPortalOpened, KindName: dim.String(), Player: -1, Wave: s.Progress.Wave, Dimension: dim})
	return id
}

// openElderRift spawns the portal that delivers the antagonist after five
// seconds without changing the run's stage.
func (s *State) openElderRift(pos Vec) ID {
	e := newEntity(KindElderPortal, pos, portalRadius)
	e.Class = ClassPortal
	e.Lifetime = 5
	return s.spawn(e)
}

func advancePortal(_ *State, e *Entity, dt float64, _ Vec) {
	e.Angle = math.Mod(e.Angle+2*dt, 2*math.Pi)
}

func advanceElderPortal(s *State, e *Entity, dt float64, _ Vec) {
	e.Angle = math.Mod(e.Angle+4*dt, 2*math.Pi)
	if e.Age >= e.Lifetime {
		if s.Antagonist() == nil {
			s.SummonAntagonist(e.Pos)
		}
		e.Active = false
	}
}

// checkPortals moves the run into a portal's dimension when a face enters it.
func (s *State) checkPortals() {
	for _, id := range s.Portals {
		p := s.Get(id)
		if p == nil || !p.Alive() || p.Kind != KindDimensionPortal {
			continue
		}
		entered := false
		s.activeFaces(func(_ int, pl *Player) {
			if pl.Pos.Within(p.Pos, p.Radius+s.Tuning.PortalReach) {
				entered = true
			}
		})
		if entered {
			p.Active = false
			s.enterDimension(Dimension(p.Pattern))
			return
		}
	}
}

// enterDimension flips the run into dim and seeds its spawn set.
func (s *State) enterDimension(dim Dimension) {
	if dim == DimNormal {
		s.leaveDimension(false)
		return
	}
	s.clearClass(ClassCreature)
	s.clearClass(ClassProjectile)
	s.dropBoss()
	s.Progress.Kills = 0
	s.Progress.Dimension = dim
	s.emit(Event{Type: EvtDimensionEntered, KindName: dim.String(), Player: -1, Wave: s.Progress.Wave, Dimension: dim})

	switch dim {
	case DimDungeon:
		for i := 0; i < 5; i++ {
			s.spawnFromEdge(dungeonKinds[s.rng.Intn(len(dungeonKinds))])
		}
		s.spawnFrog(s.randomPoint(100))
		s.Progress.Stage = StageMinions
		s.Progress.lastSpawn = s.Time
	case DimElder:
		if s.Antagonist() == nil {
			s.SummonAntagonist(s.Center())
		}
		s.SpawnBoss(KindLexicon, s.faceTarget())
		s.Progress.Stage = StageBoss
	}
}

// leaveDimension returns to the normal dimension. The dimension's own
// antagonists and hazards go with it.
func (s *State) leaveDimension(visited bool) {
	dim := s.Progress.Dimension
	if dim == DimNormal {
		return
	}
	switch dim {
	case DimDungeon:
		s.removeKinds(&s.Antagonists, KindFrog)
		s.removeKinds(&s.Hazards, KindTrap, KindTongue)
		if visited {
			s.Progress.DungeonVisited = true
		}
	case DimElder:
		s.removeKinds(&s.Antagonists, KindGary)
		s.removeKinds(&s.Hazards, KindVillage, KindGusterBlock, KindPumus, KindStorm, KindSpaceJail, KindRock)
		s.respawns = nil
		if visited {
			s.Progress.ElderVisited = true
		}
	}
	s.dropBoss()
	s.clearClass(ClassCreature)
	s.clearClass(ClassProjectile)
	s.Progress.Dimension = DimNormal
	s.Progress.dragonSlain = false
	s.Progress.Kills = 0
	s.Progress.Stage = StageMinions
	s.Progress.lastSpawn = s.Time
	s.emit(Event{Type: EvtDimensionLeft, KindName: dim.String(), Player: -1, Wave: s.Progress.Wave, Dimension: dim})
}

// removeKinds frees every entity in *ids whose kind is listed.
func (s *State) removeKinds(ids *[]ID, ks ...Kind) {
	out := make([]ID, 0, len(*ids))
	for _, id := range *ids {
		e := s.Get(id)
		if e != nil && containsKind(ks, e.Kind) {
			s.Arena.Free(id)
			continue
		}
		out = append(out, id)
	}
	*ids = out
	pend := make([]ID, 0, len(s.pending))
	for _, id := range s.pending {
		e := s.Get(id)
		if e != nil && containsKind(ks, e.Kind) {
			s.Arena.Free(id)
			continue
		}
		pend = append(pend, id)
	}
	s.pending = pend
}

func containsKind(ks []Kind, k Kind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}
