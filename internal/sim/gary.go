package sim

import "math"

// Items the antagonist can hold.
const (
	ItemNone    = ""
	ItemRemote  = "remote"
	ItemCrystal = "crystal"
	ItemScanner = "scanner"
)

var antagonistItems = []string{ItemRemote, ItemCrystal, ItemScanner}

// Attachment is a weapon bolted onto the antagonist.
type Attachment struct {
	Name   string  `msgpack:"n" json:"name"`
	Damage float64 `msgpack:"d" json:"damage"`
	Length float64 `msgpack:"l" json:"length"`
	Angle  float64 `msgpack:"a" json:"angle"`
	Ranged bool    `msgpack:"-" json:"-"`
	timer  float64
}

var attachmentTable = []Attachment{
	{Name: "lightsaber", Damage: 1, Length: 60},
	{Name: "robotArm", Damage: 2, Length: 50},
	{Name: "tank", Damage: 3, Length: 40},
	{Name: "cannon", Damage: 2, Length: 45, Ranged: true},
	{Name: "shield", Damage: 0, Length: 35},
	{Name: "wings", Damage: 1, Length: 70},
	{Name: "laser", Damage: 1.5, Length: 55, Ranged: true},
}

const maxAttachments = 8

// Antagonist is the state carried by the eat-and-grow boss. It is stored on
// the entity so it survives the tier transition untouched.
type Antagonist struct {
	Eaten       int
	Trigger     int
	Item        string
	HasRock     bool
	Anger       float64
	Provoked    bool
	Watched     bool
	ShipMode    bool
	Spin        float64
	Gunk        int
	Attachments []Attachment
	Army        []ID
	Scanned     map[ID]Threat

	riftTimer float64
}

// Antagonist tier stats.
type garyTier struct {
	radius    float64
	hunt      float64
	eatReach  float64
	growth    float64
	maxRadius float64
	livesEat  int
	respawn   float64
	atkScale  float64 // attachment damage and length multiplier
	atkPace   float64 // attachment interval multiplier
}

var garyTiers = [2]garyTier{
	{radius: 45, hunt: 150, eatReach: 30, growth: 2, maxRadius: 150, livesEat: 2, respawn: 5, atkScale: 1, atkPace: 1},
	{radius: 90, hunt: 300, eatReach: 60, growth: 5, maxRadius: 200, livesEat: 3, respawn: 3, atkScale: 2, atkPace: 0.5},
}

// Timer slots used by the antagonist.
const (
	slotScan     = tAux
	slotEat      = tAttack
	slotLay      = tSpawn
	slotCrystal  = tSpecial
	slotFang     = tSpecial2
	slotTeleport = tMove
	slotAttach   = tSpecial3
	slotDragon   = tShield
	slotSurge    = tMelee
	slotVortex   = tExtra
)

func init() {
	register(KindGary, advanceGary)
	registerUpgrade(KindGary, advanceMegaGary)
}

// SummonAntagonist spawns the antagonist riding an xyz dragon, with a random
// held item and three villages for the dragon to raid.
func (s *State) SummonAntagonist(pos Vec) ID {
	mount := s.spawnXYZ(pos, 1, 100)
	e := NewBoss(KindGary, pos)
	e.Speed, e.BaseSpeed = garyTiers[0].hunt, garyTiers[0].hunt
	e.Mount = mount
	e.Gary = &Antagonist{
		Trigger: s.Tuning.MegaTrigger,
		Item:    antagonistItems[s.rng.Intn(len(antagonistItems))],
		Scanned: make(map[ID]Threat),
	}
	id := s.spawn(e)
	for i := 0; i < 3; i++ {
		s.SpawnHazard(KindVillage, s.randomPoint(80))
	}
	s.emitKind(EvtAntagonistArrived, KindGary)
	return id
}

// Antagonist returns the first live antagonist entity, or nil.
func (s *State) Antagonist() *Entity {
	for _, id := range s.Antagonists {
		if e := s.Get(id); e != nil && e.Alive() && e.Kind == KindGary {
			return e
		}
	}
	for _, id := range s.pending {
		if e := s.Get(id); e != nil && e.Alive() && e.Kind == KindGary {
			return e
		}
	}
	return nil
}

func advanceGary(s *State, e *Entity, dt float64, target Vec) {
	s.garyFrame(e, dt, target)
}

// advanceMegaGary is the tier 1 entry: the regular frame plus the abilities
// unlocked by escalation.
func advanceMegaGary(s *State, e *Entity, dt float64, target Vec) {
	s.garyFrame(e, dt, target)
	if e.tick(slotDragon, dt, 10) && s.rng.Float64() < 0.5 {
		n := 1 + s.rng.Intn(2)
		for i := 0; i < n; i++ {
			s.spawnArmyDragon(e)
		}
	}
	if e.tick(slotVortex, dt, 8) {
		v := NewHazard(KindMiniVortex, s.jitter(e.Pos, 300))
		v.Radius, v.BaseRadius, v.Pull = 150, 150, 500
		v.Owner = e.ID
		s.spawn(v)
	}
	if e.tick(slotSurge, dt, 6) {
		s.radial(KindSurge, e, 12, 600, 0)
	}
	g := e.Gary
	g.riftTimer += dt
	if g.riftTimer >= 15 {
		g.riftTimer = 0
		if s.rng.Float64() < 0.4 {
			e.Mount = NoID
			e.Pos = s.randomPoint(e.Radius)
			for i := 0; i < 5; i++ {
				s.SpawnCreature(KindNightmare, s.jitter(e.Pos, 200))
			}
		}
	}
}

// garyFrame is the behavior shared by both tiers.
func (s *State) garyFrame(e *Entity, dt float64, target Vec) {
	g := e.Gary
	if g == nil {
		g = &Antagonist{Trigger: s.Tuning.MegaTrigger, Scanned: make(map[ID]Threat)}
		e.Gary = g
	}
	tier := garyTiers[min(e.Tier, 1)]
	if e.Health < 1 {
		e.Health = e.MaxHealth
	}
	e.Radius = math.Min(tier.radius+float64(g.Eaten)*tier.growth, tier.maxRadius)

	scanEvery := 0.5
	if g.Item == ItemScanner {
		scanEvery = 0.25
	}
	if e.tick(slotScan, dt, scanEvery) {
		s.garyScan(e)
	}

	s.garyWatch(e, dt)
	s.garyMove(e, dt, target, tier)

	if e.tick(slotEat, dt, 0.5) {
		s.garyEat(e, tier)
	}

	if g.Item == ItemRemote && s.rng.Float64() < 0.01 && !s.hasHazard(KindSpaceJail) {
		s.SpawnHazard(KindSpaceJail, s.randomPoint(100))
	}

	if e.tick(slotLay, dt, 2) {
		k := KindGusterBlock
		if s.rng.Intn(2) == 0 {
			k = KindPumus
		}
		h := NewHazard(k, e.Pos)
		h.Owner = e.ID
		s.spawn(h)
	}
	s.garyCollectGunk(e)

	if !g.Watched || g.Provoked {
		crystalEvery := 1.5
		if g.Item == ItemCrystal {
			crystalEvery = 0.75
		}
		if e.tick(slotCrystal, dt, crystalEvery) {
			if c := s.nearestCreature(e.Pos, 300, KindNone); c != nil {
				s.fireAt(KindCrystal, e.Pos, c.Pos, 300, e.ID)
			}
		}
		if e.tick(slotFang, dt, 3) {
			if c := s.nearestCreature(e.Pos, math.Inf(1), KindXYZ); c != nil {
				s.fireAt(KindFang, e.Pos, c.Pos, 400, e.ID)
			}
		}
	}

	if e.tick(slotTeleport, dt, 6) {
		s.garyTeleport(e)
	}

	if g.Spin <= 0 && s.rng.Float64() < 0.01 {
		g.Spin = 500 + s.rng.Float64()*500
	}
	if g.Spin > 0 {
		e.Angle += g.Spin * dt * math.Pi / 180
		if g.Spin > 200 {
			s.damageAround(e.Pos, e.Radius+50, 2)
		}
		g.Spin = math.Max(0, g.Spin-100*dt)
	}

	if e.tick(slotAttach, dt, 10) && len(g.Attachments) < maxAttachments {
		a := attachmentTable[s.rng.Intn(len(attachmentTable))]
		a.Angle = float64(len(g.Attachments)) * 2 * math.Pi / maxAttachments
		g.Attachments = append(g.Attachments, a)
	}
	s.garyAttachments(e, dt, tier)

	if e.Tier == 0 && e.tick(slotDragon, dt, 15) && s.rng.Float64() < 0.3 {
		s.spawnArmyDragon(e)
	}
}

func (s *State) garyScan(e *Entity) {
	g := e.Gary
	for id := range g.Scanned {
		if c := s.Get(id); c == nil || !c.Alive() {
			delete(g.Scanned, id)
		}
	}
	army := g.Army[:0]
	for _, id := range g.Army {
		if c := s.Get(id); c != nil && c.Alive() {
			army = append(army, id)
		}
	}
	g.Army = army
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() || !c.Pos.Within(e.Pos, 300) {
			continue
		}
		th := s.rules.threats[c.Kind]
		g.Scanned[id] = th
		if th == ThreatSafe && !e.Mount.Valid() && c.Pos.Within(e.Pos, 100) {
			e.Mount = id
		}
		if s.Progress.Dimension == DimElder && th > ThreatSafe && !c.Flags.Has(FlagFromAntagonist) {
			c.Flags.Set(FlagFromAntagonist)
			c.Owner = e.ID
			g.Army = append(g.Army, id)
		}
	}
}

// garyWatch tracks eye contact from faces within 300.
func (s *State) garyWatch(e *Entity, dt float64) {
	g := e.Gary
	g.Watched = false
	for i := range s.Players {
		p := &s.Players[i]
		if !p.Present || p.Eaten || i >= len(s.Faces) || s.Faces[i].EyesClosed {
			continue
		}
		if p.Pos.Within(e.Pos, 300) {
			g.Watched = true
			g.Anger += 0.02 * dt * 60
		}
	}
	if g.Anger >= 1 {
		g.Provoked = true
	}
}

func (s *State) garyMove(e *Entity, dt float64, target Vec, tier garyTier) {
	g := e.Gary
	if e.Mount.Valid() {
		if m := s.Get(e.Mount); m != nil && m.Alive() {
			e.Pos = m.Pos
			return
		}
		e.Mount = NoID
	}
	speed := tier.hunt
	if g.ShipMode && e.Tier == 0 {
		speed = 200
	}
	e.Speed = speed
	prey := target
	best := math.Inf(1)
	if c := s.nearestCreature(e.Pos, math.Inf(1), KindNone); c != nil {
		prey, best = c.Pos, e.Pos.Dist(c.Pos)
	}
	if i := s.nearestFace(e.Pos); i >= 0 && e.Pos.Dist(s.Players[i].Pos) < best {
		prey = s.Players[i].Pos
	}
	e.Chase(prey, dt)
}

func (s *State) garyEat(e *Entity, tier garyTier) {
	g := e.Gary
	reach := e.Radius + tier.eatReach
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() || id == e.Mount || !c.Pos.Within(e.Pos, reach) {
			continue
		}
		c.Active = false
		g.Eaten++
		if c.Kind == KindXYZ {
			phase := max(1, c.Phase-1)
			if e.Tier > 0 {
				phase = c.Phase + 1
			}
			s.respawns = append(s.respawns, respawn{at: s.Wall + tier.respawn, kind: KindXYZ, phase: phase})
		}
	}
	for _, id := range s.Companions {
		c := s.Get(id)
		if c != nil && c.Alive() && c.Pos.Within(e.Pos, reach) {
			c.Active = false
			g.Eaten++
		}
	}
	for i := range s.Players {
		p := &s.Players[i]
		if !p.Present || p.Eaten || !p.Pos.Within(e.Pos, reach) {
			continue
		}
		hit, reset := s.hitPlayer(i, tier.livesEat, 1.5)
		if !hit {
			continue
		}
		g.Eaten++
		if !reset {
			continue
		}
		if e.Tier > 0 && s.Tuning.EatenOnMegaKill {
			p.Eaten = true
			s.emitPlayer(EvtPlayerEaten, i, 0)
			continue
		}
		s.spawnCompanion(StrategyAggressive, true)
	}
}

func (s *State) garyCollectGunk(e *Entity) {
	g := e.Gary
	for _, id := range s.Hazards {
		h := s.Get(id)
		if h == nil || !h.Alive() || h.Kind != KindPumus || !h.Flags.Has(FlagGunk) {
			continue
		}
		if h.Pos.Within(e.Pos, e.Radius+h.Radius) {
			h.Active = false
			g.Gunk++
		}
	}
	if g.Gunk >= 5 {
		g.Gunk = 0
		s.SpawnHazard(KindStorm, e.Pos)
	}
}

func (s *State) garyTeleport(e *Entity) {
	g := e.Gary
	e.Mount = NoID
	if e.Flags.Has(FlagShadowVariant) {
		m := e.Radius
		corners := []Vec{V(m, m), V(s.Tuning.Width-m, m), V(m, s.Tuning.Height-m), V(s.Tuning.Width-m, s.Tuning.Height-m)}
		e.Pos = corners[s.rng.Intn(len(corners))]
	} else {
		e.Pos = s.randomPoint(e.Radius)
	}
	if g.Item == ItemNone && s.rng.Float64() < 0.3 {
		g.Item = antagonistItems[s.rng.Intn(len(antagonistItems))]
	}
	if s.rng.Float64() < 0.1 {
		g.ShipMode = !g.ShipMode
	}
}

func (s *State) garyAttachments(e *Entity, dt float64, tier garyTier) {
	g := e.Gary
	for i := range g.Attachments {
		a := &g.Attachments[i]
		a.Angle += dt
		a.timer += dt
		interval := 2 * tier.atkPace
		if !a.Ranged {
			interval = tier.atkPace
		}
		if a.timer < interval {
			continue
		}
		a.timer = 0
		tip := e.Pos.Add(Polar(a.Angle, e.Radius+a.Length*tier.atkScale))
		if a.Ranged {
			if c := s.nearestCreature(tip, 400, KindNone); c != nil {
				s.fireAt(KindCrystal, tip, c.Pos, 300, e.ID)
			}
			continue
		}
		if a.Damage > 0 {
			s.damageAround(e.Pos, e.Radius+a.Length*tier.atkScale, a.Damage*tier.atkScale)
		}
	}
}

func (s *State) spawnArmyDragon(e *Entity) {
	c := s.NewCreature(KindDragon, s.jitter(e.Pos, 100))
	c.Owner = e.ID
	c.Flags.Set(FlagFromAntagonist)
	id := s.spawn(c)
	e.Gary.Army = append(e.Gary.Army, id)
}

// damageAround deals dmg to creatures within r of center, skipping the
// hazard-immune set.
func (s *State) damageAround(center Vec, r, dmg float64) {
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() || s.rules.hazardImmune.Has(c.Kind) {
			continue
		}
		if c.Pos.Within(center, r) {
			c.TakeDamage(dmg)
		}
	}
}

// nearestCreature returns the closest live creature within r, skipping kind
// skip.
func (s *State) nearestCreature(pos Vec, r float64, skip Kind) *Entity {
	var best *Entity
	bestD := r
	for _, id := range s.Creatures {
		c := s.Get(id)
		if c == nil || !c.Alive() || (skip != KindNone && c.Kind == skip) {
			continue
		}
		if d := pos.Dist(c.Pos); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func (s *State) hasHazard(k Kind) bool {
	for _, id := range s.Hazards {
		if h := s.Get(id); h != nil && h.Alive() && h.Kind == k {
			return true
		}
	}
	return false
}

// escalate runs the mega transform. The entity keeps its ID, mount,
// attachments, item and rock flag; only its tier and stats change.
func (s *State) escalate() {
	for _, id := range s.Antagonists {
		e := s.Get(id)
		if e == nil || !e.Alive() || e.Kind != KindGary || e.Tier > 0 || e.Gary == nil {
			continue
		}
		if e.Gary.Eaten < e.Gary.Trigger {
			continue
		}
		e.Tier = 1
		t := garyTiers[1]
		e.BaseRadius = t.radius
		e.Radius = math.Min(t.radius+float64(e.Gary.Eaten)*t.growth, t.maxRadius)
		e.Speed, e.BaseSpeed = t.hunt, t.hunt
		for i := range e.Timers {
			e.Timers[i] = 0
		}
		s.emitKind(EvtMegaTransform, KindGary)
	}
}

// collectRock lets the antagonist pick up the rock of all power, lowering
// its escalation trigger.
func (s *State) collectRock() {
	g := s.Antagonist()
	if g == nil || g.Gary == nil {
		return
	}
	for _, id := range s.Hazards {
		h := s.Get(id)
		if h == nil || !h.Alive() || h.Kind != KindRock {
			continue
		}
		if h.Pos.Within(g.Pos, g.Radius+h.Radius) {
			h.Active = false
			g.Gary.HasRock = true
			g.Gary.Trigger = min(g.Gary.Trigger, g.Gary.Eaten+5)
			s.emitKind(EvtRockCollected, KindGary)
		}
	}
}
