package sim

// EntityView is the renderable state of one entity.
type EntityView struct {
	ID     ID      `msgpack:"id" json:"id"`
	Kind   string  `msgpack:"k" json:"kind"`
	Tier   int     `msgpack:"tr,omitempty" json:"tier,omitempty"`
	X      float64 `msgpack:"x" json:"x"`
	Y      float64 `msgpack:"y" json:"y"`
	R      float64 `msgpack:"r" json:"r"`
	Angle  float64 `msgpack:"a,omitempty" json:"angle,omitempty"`
	Health float64 `msgpack:"hp,omitempty" json:"hp,omitempty"`
	Max    float64 `msgpack:"mhp,omitempty" json:"max_hp,omitempty"`
	Phase  int     `msgpack:"ph,omitempty" json:"phase,omitempty"`
	Flags  Flags   `msgpack:"f,omitempty" json:"flags,omitempty"`
	Name   string  `msgpack:"n,omitempty" json:"name,omitempty"`
}

// PlayerView is the HUD state of one player slot.
type PlayerView struct {
	Lives        int     `msgpack:"l" json:"lives"`
	Invulnerable float64 `msgpack:"inv" json:"invulnerable"`
	Eaten        bool    `msgpack:"e" json:"eaten"`
	Present      bool    `msgpack:"p" json:"present"`
	X            float64 `msgpack:"x" json:"x"`
	Y            float64 `msgpack:"y" json:"y"`
	Locked       bool    `msgpack:"lk,omitempty" json:"locked,omitempty"`
	Reversed     bool    `msgpack:"rv,omitempty" json:"reversed,omitempty"`
	AttackSpeed  float64 `msgpack:"as" json:"attack_speed"`
}

// AntagonistView summarizes the eat-and-grow boss for the HUD.
type AntagonistView struct {
	Eaten       int          `msgpack:"eat" json:"eaten"`
	Trigger     int          `msgpack:"trg" json:"trigger"`
	Item        string       `msgpack:"it,omitempty" json:"item,omitempty"`
	Rock        bool         `msgpack:"rk,omitempty" json:"rock,omitempty"`
	Mega        bool         `msgpack:"mg,omitempty" json:"mega,omitempty"`
	Attachments []Attachment `msgpack:"att,omitempty" json:"attachments,omitempty"`
}

// Snapshot is the output of a frame, sized for the wire.
type Snapshot struct {
	Frame       uint64          `msgpack:"fr" json:"frame"`
	Creatures   []EntityView    `msgpack:"c" json:"creatures"`
	Bosses      []EntityView    `msgpack:"b" json:"bosses"`
	Projectiles []EntityView    `msgpack:"pr" json:"projectiles"`
	Hazards     []EntityView    `msgpack:"hz" json:"hazards"`
	Companions  []EntityView    `msgpack:"cp" json:"companions"`
	Portals     []EntityView    `msgpack:"po" json:"portals"`
	Players     []PlayerView    `msgpack:"pl" json:"players"`
	Antagonist  *AntagonistView `msgpack:"ant,omitempty" json:"antagonist,omitempty"`

	Wave       int     `msgpack:"w" json:"wave"`
	Kills      int     `msgpack:"k" json:"kills"`
	Target     int     `msgpack:"t" json:"target"`
	Stage      string  `msgpack:"st" json:"stage"`
	Dimension  string  `msgpack:"dim" json:"dimension"`
	BossHealth float64 `msgpack:"bh" json:"boss_health"`
	BossMax    float64 `msgpack:"bm" json:"boss_max"`
	Paused     bool    `msgpack:"pa" json:"paused"`
	Shake      float64 `msgpack:"sh,omitempty" json:"shake,omitempty"`
	TimeSlow   bool    `msgpack:"ts,omitempty" json:"time_slow,omitempty"`
}

func viewOf(e *Entity) EntityView {
	v := EntityView{
		ID:    e.ID,
		Kind:  e.Kind.String(),
		Tier:  e.Tier,
		X:     e.Pos.X,
		Y:     e.Pos.Y,
		R:     e.Radius,
		Angle: e.Angle,
		Phase: e.Phase,
		Flags: e.Flags,
		Name:  e.Name,
	}
	if e.HasHealth {
		v.Health, v.Max = e.Health, e.MaxHealth
	}
	return v
}

func (s *State) views(ids []ID) []EntityView {
	out := make([]EntityView, 0, len(ids))
	for _, id := range ids {
		if e := s.Get(id); e != nil && e.Alive() {
			out = append(out, viewOf(e))
		}
	}
	return out
}

// Snapshot captures the renderable state after the last Step.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Frame:       s.Frame,
		Creatures:   s.views(s.Creatures),
		Projectiles: s.views(s.Projectiles),
		Hazards:     s.views(s.Hazards),
		Companions:  s.views(s.Companions),
		Portals:     s.views(s.Portals),
		Bosses:      s.views(s.Antagonists),
		Players:     make([]PlayerView, 0, len(s.Players)),
		Wave:        s.Progress.Wave,
		Kills:       s.Progress.Kills,
		Target:      s.KillTarget(),
		Stage:       s.StageLabel(),
		Dimension:   s.Progress.Dimension.String(),
		Paused:      s.Paused,
		Shake:       s.ScreenShake,
		TimeSlow:    s.TimeSlow > 0,
	}
	if b := s.BossEntity(); b != nil && b.Alive() {
		snap.Bosses = append([]EntityView{viewOf(b)}, snap.Bosses...)
		snap.BossHealth, snap.BossMax = b.Health, b.MaxHealth
	}
	if g := s.Antagonist(); g != nil && g.Gary != nil {
		snap.Antagonist = &AntagonistView{
			Eaten:       g.Gary.Eaten,
			Trigger:     g.Gary.Trigger,
			Item:        g.Gary.Item,
			Rock:        g.Gary.HasRock,
			Mega:        g.Tier > 0,
			Attachments: append([]Attachment(nil), g.Gary.Attachments...),
		}
	}
	for i := range s.Players {
		p := &s.Players[i]
		snap.Players = append(snap.Players, PlayerView{
			Lives:        p.Lives,
			Invulnerable: p.Invulnerable,
			Eaten:        p.Eaten,
			Present:      p.Present,
			X:            p.Pos.X,
			Y:            p.Pos.Y,
			Locked:       p.Locked > 0,
			Reversed:     p.Reversed,
			AttackSpeed:  p.AttackSpeed,
		})
	}
	return snap
}
