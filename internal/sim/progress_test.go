package sim

import "testing"

func TestKillTargetLeavesMinions(t *testing.T) {
	tu := DefaultTuning()
	for wave, target := range tu.KillTargets {
		s := MustNewState(tu, 1)
		s.Progress.Wave = wave
		s.Progress.Kills = target
		Step(s, Input{}, frame)
		if s.Progress.Stage == StageMinions {
			t.Errorf("wave %d: still in minions with %d kills", wave, target)
		}
		if s.Progress.Kills != 0 {
			t.Errorf("wave %d: kills should reset, got %d", wave, s.Progress.Kills)
		}
	}
}

func TestFifteenKillsSummonFirstBoss(t *testing.T) {
	s := newTestState(t)
	for i := 0; i < 15; i++ {
		pos := V(200+float64(i%5)*150, 200+float64(i/5)*150)
		spawnNow(s, KindBasic, pos)
		Step(s, Input{Hands: []Vec{pos}}, frame)
		if i < 14 && s.Progress.Stage != StageMinions {
			t.Fatalf("left minions early after %d kills", i+1)
		}
	}
	if s.StageLabel() != "boss_snowking" {
		t.Fatalf("expected boss_snowking, got %s", s.StageLabel())
	}
	if s.Progress.Kills != 0 {
		t.Errorf("kills should reset on transition, got %d", s.Progress.Kills)
	}
	b := s.BossEntity()
	if b == nil {
		t.Fatal("expected an active boss")
	}
	if b.Health != BossHealth(BossOrder[0]) {
		t.Errorf("expected boss health %f, got %f", BossHealth(BossOrder[0]), b.Health)
	}
}

func TestBossDefeatAdvancesWave(t *testing.T) {
	s := newTestState(t)
	s.Progress.Kills = s.KillTarget()
	Step(s, Input{}, frame)
	b := s.BossEntity()
	if b == nil {
		t.Fatal("expected boss")
	}
	damageBoss(b, b.Health)
	Step(s, Input{}, frame)

	if s.Progress.Stage != StageMinions {
		t.Errorf("expected minions after boss defeat, got %s", s.StageLabel())
	}
	if s.Progress.Wave != 1 {
		t.Errorf("expected wave 1, got %d", s.Progress.Wave)
	}
	if s.Boss.Valid() {
		t.Error("boss slot should be empty")
	}
	var defeated bool
	for _, ev := range s.Drain() {
		if ev.Type == EvtBossDefeated && ev.Kind == KindSnowKing {
			defeated = true
		}
	}
	if !defeated {
		t.Error("expected a boss_defeated event")
	}
}

func TestFirstBossHoldsSlot(t *testing.T) {
	s := newTestState(t)
	s.SpawnBoss(KindSnowKing, s.Center())
	s.SpawnBoss(KindTracker, s.Center())
	s.flushPending()
	if s.BossEntity().Kind != KindSnowKing {
		t.Error("first boss should hold the slot")
	}
}

func TestDungeonRoundTrip(t *testing.T) {
	s := newTestState(t)
	s.Progress.Wave = s.Tuning.DungeonPortalWave
	s.Progress.Kills = s.KillTarget()
	Step(s, Input{}, frame)
	if s.Progress.Stage != StagePortalWait {
		t.Fatalf("expected portal_wait, got %s", s.StageLabel())
	}
	if len(s.Portals) != 1 {
		t.Fatalf("expected one portal, got %d", len(s.Portals))
	}

	center := s.Center()
	Step(s, Input{Faces: []Face{faceAt(center)}}, frame)
	if s.Progress.Dimension != DimDungeon {
		t.Fatalf("expected dungeon, got %s", s.Progress.Dimension)
	}
	if s.Progress.Stage != StageMinions {
		t.Errorf("expected dungeon minions, got %s", s.StageLabel())
	}
	frogs := 0
	for _, id := range s.Antagonists {
		if s.Get(id).Kind == KindFrog {
			frogs++
		}
	}
	if frogs != 1 {
		t.Errorf("expected one frog, got %d", frogs)
	}
	for _, id := range s.Creatures {
		if !containsKind(dungeonKinds, s.Get(id).Kind) {
			t.Errorf("non-dungeon creature %s in the dungeon", s.Get(id).Kind)
		}
	}

	s.Progress.Kills = s.KillTarget()
	Step(s, Input{}, frame)
	b := s.BossEntity()
	if b == nil || b.Kind != KindASD {
		t.Fatalf("expected asd, got %s", s.StageLabel())
	}
	damageBoss(b, b.Health)
	Step(s, Input{}, frame)

	if s.Progress.Dimension != DimNormal {
		t.Errorf("expected normal dimension, got %s", s.Progress.Dimension)
	}
	if !s.Progress.DungeonVisited {
		t.Error("dungeon should be marked visited")
	}
	for _, id := range s.Antagonists {
		if s.Get(id).Kind == KindFrog {
			t.Error("frog should leave with the dungeon")
		}
	}
	if s.Progress.Wave != s.Tuning.DungeonPortalWave {
		t.Errorf("wave should be unchanged, got %d", s.Progress.Wave)
	}

	// the same wave now ends in its regular boss
	s.Progress.Kills = s.KillTarget()
	Step(s, Input{}, frame)
	if b := s.BossEntity(); b == nil || b.Kind != BossOrder[s.Tuning.DungeonPortalWave] {
		t.Errorf("expected %s after the dungeon, got %s", BossOrder[s.Tuning.DungeonPortalWave], s.StageLabel())
	}
}

func TestElderPortalSeedsAntagonist(t *testing.T) {
	s := newTestState(t)
	s.Progress.Wave = s.Tuning.ElderPortalWave
	s.Progress.Kills = s.KillTarget()
	Step(s, Input{}, frame)
	if s.Progress.Stage != StagePortalWait {
		t.Fatalf("expected portal_wait, got %s", s.StageLabel())
	}
	Step(s, Input{Faces: []Face{faceAt(s.Center())}}, frame)

	if s.Progress.Dimension != DimElder {
		t.Fatalf("expected elder, got %s", s.Progress.Dimension)
	}
	if s.Antagonist() == nil {
		t.Fatal("expected the antagonist")
	}
	if b := s.BossEntity(); b == nil || b.Kind != KindLexicon {
		t.Fatalf("expected lexicon, got %s", s.StageLabel())
	}
	villages := 0
	for _, id := range s.Hazards {
		if s.Get(id).Kind == KindVillage {
			villages++
		}
	}
	if villages != 3 {
		t.Errorf("expected 3 villages, got %d", villages)
	}

	damageBoss(s.BossEntity(), 1e6)
	Step(s, Input{}, frame)
	if s.Progress.Dimension != DimNormal || !s.Progress.ElderVisited {
		t.Errorf("expected return to normal with elder visited, got %s visited=%v", s.Progress.Dimension, s.Progress.ElderVisited)
	}
	if s.Antagonist() != nil {
		t.Error("antagonist should leave with the elder dimension")
	}
}

func TestVictoryAfterLastBoss(t *testing.T) {
	s := newTestState(t)
	s.Progress.Wave = len(s.Tuning.KillTargets) - 1
	s.Progress.ElderVisited = true
	s.Progress.Kills = s.KillTarget()
	Step(s, Input{}, frame)
	b := s.BossEntity()
	if b == nil || b.Kind != KindMadackeda {
		t.Fatalf("expected madackeda, got %s", s.StageLabel())
	}
	b.Flags.Clear(FlagShielded)
	damageBoss(b, b.Health)
	Step(s, Input{}, frame)
	if s.Progress.Stage != StageVictory {
		t.Errorf("expected victory, got %s", s.StageLabel())
	}
	for i := 0; i < 200; i++ {
		Step(s, Input{}, frame)
	}
	if len(s.Creatures) != 0 {
		t.Error("no minions should spawn after victory")
	}
}

func TestNoWaveSpawnsDuringBoss(t *testing.T) {
	s := newTestState(t)
	s.Progress.Kills = s.KillTarget()
	Step(s, Input{}, frame)
	last := s.Progress.lastSpawn
	for i := 0; i < 300; i++ {
		Step(s, Input{}, frame)
	}
	if s.Progress.lastSpawn != last {
		t.Error("wave spawner ran during a boss fight")
	}
}

func TestCreatePortalCommand(t *testing.T) {
	s := newTestState(t)
	s.Enqueue(Command{Type: CmdCreatePortal, Dimension: DimElder})
	Step(s, Input{}, frame)
	if s.Antagonist() != nil {
		t.Fatal("antagonist should wait for the rift")
	}
	if s.Progress.Stage != StageMinions {
		t.Error("the rift must not change the stage")
	}
	for i := 0; i < 5*60+5; i++ {
		Step(s, Input{}, frame)
	}
	if s.Antagonist() == nil {
		t.Error("antagonist should arrive after five seconds")
	}

	s.Enqueue(Command{Type: CmdReturnNormal})
	Step(s, Input{}, frame)
	if s.Antagonist() != nil {
		t.Error("return to normal should remove the antagonist")
	}
}

func enterElder(t *testing.T, s *State) *Entity {
	t.Helper()
	s.enterDimension(DimElder)
	s.flushPending()
	s.Drain()
	for _, id := range s.Creatures {
		if c := s.Get(id); c.Kind == KindXYZ {
			return c
		}
	}
	t.Fatal("expected an xyz in the elder dimension")
	return nil
}

func TestDragonKillCompletesElder(t *testing.T) {
	s := newTestState(t)
	dragon := enterElder(t, s)

	s.partition(defeats{dragon.ID: ReasonLaser})
	s.progress()

	if s.Progress.Dimension != DimNormal || !s.Progress.ElderVisited {
		t.Fatalf("expected return to normal with elder visited, got %s visited=%v", s.Progress.Dimension, s.Progress.ElderVisited)
	}
	var seen bool
	for _, ev := range s.Drain() {
		if ev.Type == EvtDragonDefeated && ev.KindName == "xyz" {
			seen = true
		}
	}
	if !seen {
		t.Error("expected a dragon_defeated event")
	}
	if s.Antagonist() != nil {
		t.Error("antagonist should leave with the elder dimension")
	}
}

func TestDragonKilledByAntagonistRespawns(t *testing.T) {
	s := newTestState(t)
	dragon := enterElder(t, s)

	s.partition(defeats{dragon.ID: ReasonAntagonist})
	s.progress()

	if s.Progress.Dimension != DimElder {
		t.Fatalf("antagonist kill must not end the elder dimension, got %s", s.Progress.Dimension)
	}
	if len(s.respawns) != 1 {
		t.Fatalf("expected a scheduled xyz respawn, got %d", len(s.respawns))
	}
	for _, ev := range s.Drain() {
		if ev.Type == EvtDragonDefeated {
			t.Fatal("unexpected dragon_defeated event")
		}
	}
}

func TestDragonObjectiveWaitsForRespawn(t *testing.T) {
	s := newTestState(t)
	dragon := enterElder(t, s)
	s.respawns = append(s.respawns, respawn{at: s.Wall + 10, kind: KindXYZ, phase: 1})

	s.partition(defeats{dragon.ID: ReasonHand})
	s.progress()
	if s.Progress.Dimension != DimElder {
		t.Fatal("an xyz is still due to respawn; the elder objective is not done")
	}

	s.respawns = nil
	s.progress()
	if s.Progress.Dimension != DimNormal {
		t.Errorf("expected the objective to complete once no xyz remains, got %s", s.Progress.Dimension)
	}
}
