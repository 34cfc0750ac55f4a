package sim

import (
	"errors"
	"testing"
)

func spawnNow(s *State, k Kind, pos Vec) ID {
	id := s.SpawnCreature(k, pos)
	s.flushPending()
	return id
}

func defeatEvents(evs []Event) []Event {
	var out []Event
	for _, ev := range evs {
		if ev.Type == EvtCreatureDefeated {
			out = append(out, ev)
		}
	}
	return out
}

func TestHandHitsRoundTrip(t *testing.T) {
	s := newTestState(t)
	const n = 10
	var hands []Vec
	for i := 0; i < n; i++ {
		pos := V(float64(100+i*100), 200)
		spawnNow(s, KindSnowie, pos)
		hands = append(hands, pos)
	}
	Step(s, Input{Hands: hands}, frame)

	if len(s.Creatures) != 0 {
		t.Errorf("expected 0 creatures left, got %d", len(s.Creatures))
	}
	if s.Progress.Kills != n {
		t.Errorf("expected %d kills, got %d", n, s.Progress.Kills)
	}
}

func TestDefeatCountedOnce(t *testing.T) {
	s := newTestState(t)
	pos := V(300, 300)
	spawnNow(s, KindSnowie, pos)
	s.spawn(NewProjectile(KindLaser, pos, Vec{}))
	s.flushPending()

	in := Input{
		Hands: []Vec{pos, pos.Add(V(3, 0))},
		Faces: []Face{{Pos: pos.Sub(V(0, s.Tuning.MouthOffset)), MouthOpenRatio: 0.5}},
	}
	Step(s, in, frame)

	if s.Progress.Kills != 1 {
		t.Errorf("expected exactly one kill, got %d", s.Progress.Kills)
	}
	evs := defeatEvents(s.Drain())
	if len(evs) != 1 {
		t.Fatalf("expected one defeat event, got %d", len(evs))
	}
	if evs[0].Reason != ReasonHand {
		t.Errorf("hands resolve first, got reason %s", evs[0].Reason)
	}
}

func TestDefeatMapFirstWriterWins(t *testing.T) {
	marks := make(defeats)
	id := ID{Index: 3, Gen: 1}
	if !marks.mark(id, ReasonLaser) {
		t.Fatal("first mark should succeed")
	}
	if marks.mark(id, ReasonHand) {
		t.Error("second mark should be rejected")
	}
	if marks[id] != ReasonLaser {
		t.Errorf("expected laser to stick, got %s", marks[id])
	}
}

func TestMouthCapture(t *testing.T) {
	s := newTestState(t)
	face := V(400, 300)
	spawnNow(s, KindSnowie, face.Add(V(0, s.Tuning.MouthOffset+55)))

	Step(s, Input{Faces: []Face{{Pos: face, MouthOpenRatio: 0.01}}}, frame)
	if s.Progress.Kills != 0 {
		t.Fatal("a nearly closed mouth should not capture")
	}
	Step(s, Input{Faces: []Face{{Pos: face, MouthOpenRatio: 0.2}}}, frame)
	if s.Progress.Kills != 1 {
		t.Errorf("open mouth should capture, kills %d", s.Progress.Kills)
	}
}

func TestHealthCreatureTakesDamage(t *testing.T) {
	s := newTestState(t)
	pos := V(300, 300)
	id := spawnNow(s, KindShadowGary, pos)
	Step(s, Input{Hands: []Vec{pos}}, frame)

	c := s.Get(id)
	if c == nil {
		t.Fatal("health-declared creature should survive one hand hit")
	}
	if c.Health != 49 {
		t.Errorf("expected 49 health, got %f", c.Health)
	}
	if s.Progress.Kills != 0 {
		t.Errorf("no kill expected, got %d", s.Progress.Kills)
	}
}

func TestFangGrantsDefaultHealth(t *testing.T) {
	s := newTestState(t)
	pos := V(300, 300)
	id := spawnNow(s, KindSkeleton, pos)
	s.spawn(NewProjectile(KindFang, pos, Vec{}))
	s.flushPending()
	Step(s, Input{}, frame)

	c := s.Get(id)
	if c == nil {
		t.Fatal("fang should wound, not kill, a healthless creature")
	}
	if !c.HasHealth || c.Health != 2.5 || !c.NoRespawn {
		t.Errorf("expected health 2.5 and no-respawn, got health=%v %f norespawn=%v", c.HasHealth, c.Health, c.NoRespawn)
	}
}

func TestLivesResetAtZero(t *testing.T) {
	s := newTestState(t)
	face := V(500, 500)
	Step(s, Input{Faces: []Face{faceAt(face)}}, frame)
	s.Players[0].Lives = 1
	s.Players[0].Invulnerable = 0
	spawnNow(s, KindSnowie, face)

	Step(s, Input{Faces: []Face{faceAt(face)}}, frame)
	p := s.Players[0]
	if p.Lives != 3 {
		t.Errorf("expected lives reset to 3, got %d", p.Lives)
	}
	if p.Invulnerable <= 0 {
		t.Errorf("expected a fresh invulnerability window, got %f", p.Invulnerable)
	}
	if len(s.Creatures) != 0 {
		t.Error("creature should be consumed by the contact")
	}
	if s.Progress.Kills != 0 {
		t.Error("contact consumption is not a kill")
	}
}

func TestInvulnerabilityBlocksContact(t *testing.T) {
	s := newTestState(t)
	face := V(500, 500)
	Step(s, Input{Faces: []Face{faceAt(face)}}, frame)
	s.Players[0].Invulnerable = 1
	spawnNow(s, KindSnowie, face)
	Step(s, Input{Faces: []Face{faceAt(face)}}, frame)
	if s.Players[0].Lives != 3 {
		t.Errorf("invulnerable player lost lives: %d", s.Players[0].Lives)
	}
	if len(s.Creatures) != 1 {
		t.Error("creature should survive touching an invulnerable player")
	}
}

func TestProjectileImmunityIsConfigData(t *testing.T) {
	hit := func(tu Tuning) float64 {
		s := MustNewState(tu, 1)
		gid := s.SummonAntagonist(V(600, 400))
		s.flushPending()
		g := s.Get(gid)
		g.Mount = NoID
		s.spawn(NewProjectile(KindLaser, g.Pos, Vec{}))
		s.flushPending()
		s.resolveProjectiles(make(defeats))
		return g.Health
	}

	if h := hit(DefaultTuning()); h != BossHealth(KindGary) {
		t.Errorf("immune antagonist lost health: %f", h)
	}
	tu := DefaultTuning()
	tu.Exemptions.ProjectileImmune = nil
	if h := hit(tu); h != BossHealth(KindGary)-1 {
		t.Errorf("without the exemption a laser should deal 1, health %f", h)
	}
}

func TestUnknownExemptionRejected(t *testing.T) {
	tu := DefaultTuning()
	tu.Exemptions.HazardImmune = []string{"nope"}
	_, err := NewState(tu, 1)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestBossTakesFixedHandDamage(t *testing.T) {
	s := newTestState(t)
	s.SpawnBoss(KindSnowKing, V(640, 500))
	s.flushPending()
	b := s.BossEntity()
	before := b.Health
	s.Hands = []Vec{b.Pos}
	s.resolveHands(make(defeats))
	if b.Health != before-1 {
		t.Errorf("expected boss to lose 1, went %f -> %f", before, b.Health)
	}
}

func TestVoiceFiresTwinLasers(t *testing.T) {
	s := newTestState(t)
	Step(s, Input{Faces: []Face{faceAt(V(400, 400))}, Amplitude: 0.9}, frame)
	if got := len(s.Projectiles); got != 2 {
		t.Fatalf("expected 2 lasers, got %d", got)
	}
	for _, id := range s.Projectiles {
		p := s.Get(id)
		if p.Vel.Y >= 0 {
			t.Errorf("default head direction is up, got velocity %v", p.Vel)
		}
	}

}

func TestBlinkAfterVoiceShotFires(t *testing.T) {
	s := newTestState(t)
	Step(s, Input{Faces: []Face{faceAt(V(400, 400))}, Amplitude: 0.3}, frame)
	if got := len(s.Projectiles); got != 2 {
		t.Fatalf("expected 2 lasers from the voice, got %d", got)
	}
	Step(s, Input{Faces: []Face{{Pos: V(400, 400), Blink: true}}}, frame)
	if got := len(s.Projectiles); got != 4 {
		t.Errorf("blink on the next frame should fire, got %d projectiles", got)
	}
}

func TestSlowedFaceWaitsBetweenShots(t *testing.T) {
	s := newTestState(t)
	Step(s, Input{Faces: []Face{faceAt(V(400, 400))}}, frame)
	s.Players[0].AttackSpeed = 0.5
	s.Players[0].attackSlow = 2

	Step(s, Input{Faces: []Face{{Pos: V(400, 400), Blink: true}}}, frame)
	if got := len(s.Projectiles); got != 2 {
		t.Fatalf("expected 2 lasers, got %d", got)
	}
	Step(s, Input{Faces: []Face{{Pos: V(400, 400), Blink: true}}}, frame)
	if got := len(s.Projectiles); got != 2 {
		t.Errorf("slowed face fired again after one frame, got %d projectiles", got)
	}
	if s.Players[0].FireCD <= 0 {
		t.Error("slowed face has no fire cooldown")
	}
}

func TestLockedPlayerCannotFire(t *testing.T) {
	s := newTestState(t)
	Step(s, Input{Faces: []Face{faceAt(V(400, 400))}}, frame)
	s.Players[0].Locked = 1
	Step(s, Input{Faces: []Face{{Pos: V(400, 400), Blink: true}}}, frame)
	if len(s.Projectiles) != 0 {
		t.Errorf("locked player fired %d projectiles", len(s.Projectiles))
	}
}

func TestStormHitsPlayers(t *testing.T) {
	s := newTestState(t)
	face := V(300, 300)
	Step(s, Input{Faces: []Face{faceAt(face)}}, frame)
	s.SpawnHazard(KindStorm, face)
	s.flushPending()
	Step(s, Input{Faces: []Face{faceAt(face)}}, frame)
	if s.Players[0].Lives != 2 {
		t.Errorf("expected storm to take a life, lives %d", s.Players[0].Lives)
	}
}

func TestSnakeReachesFartherThanFireball(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		hit  bool
	}{
		{KindSnake, true},
		{KindFireball, false},
	} {
		s := newTestState(t)
		face := V(300, 300)
		Step(s, Input{Faces: []Face{faceAt(face)}}, frame)
		r := Profile(tc.kind).Radius
		s.spawn(NewProjectile(tc.kind, face.Add(V(r+45, 0)), Vec{}))
		s.flushPending()
		s.resolveProjectiles(make(defeats))

		if got := s.Players[0].Lives < s.Tuning.MaxLives; got != tc.hit {
			t.Errorf("%s at 45px beyond its radius: hit=%v, want %v", tc.kind, got, tc.hit)
		}
	}
}
