package sim

import (
	"fmt"
	"math/rand"
)

// Face is one tracked face for a single frame.
type Face struct {
	MouthOpenRatio float64 `json:"m" msgpack:"m"`
	EyesClosed     bool    `json:"ec" msgpack:"ec"`
	Blink          bool    `json:"b" msgpack:"b"`
	Pos            Vec     `json:"p" msgpack:"p"`
}

// Input is the external snapshot consumed by one Step. It may be stale or
// empty; the step never blocks on it.
type Input struct {
	Faces     []Face  `json:"faces"`
	Hands     []Vec   `json:"hands"`
	Amplitude float64 `json:"amp"`
	// Width and Height resize the canvas when positive.
	Width  float64 `json:"w,omitempty"`
	Height float64 `json:"h,omitempty"`
}

// Player is the per-face slot. Slots grow lazily as faces appear.
type Player struct {
	Lives        int
	Invulnerable float64
	Eaten        bool

	Present bool
	Pos     Vec
	HeadDir Vec
	prevPos Vec
	seen    bool

	Locked      float64
	Reversed    bool
	reversedFor float64
	AttackSpeed float64
	attackSlow  float64
	Sticky      float64
	Poison      float64
	FireCD      float64
	TonguePull  Vec

	LivesLost int
}

// Stage is the progression controller's state.
type Stage uint8

const (
	StageMinions Stage = iota
	StageBoss
	StagePortalWait
	StageVictory
)

// Progress is the wave and dimension controller state.
type Progress struct {
	Stage          Stage
	Wave           int
	Kills          int
	Dimension      Dimension
	DungeonVisited bool
	ElderVisited   bool
	lastSpawn      float64
	BossesDefeated int

	dragonSlain bool // a player brought down an elder xyz
}

// CommandType enumerates the discrete events accepted by a run.
type CommandType uint8

const (
	CmdTogglePause CommandType = iota + 1
	CmdCreatePortal
	CmdReturnNormal
	CmdRestart
)

// Command is a discrete event drained at the start of the next Step.
type Command struct {
	Type      CommandType
	Dimension Dimension
}

// State is the whole simulation. All collections are owned by Step.
type State struct {
	Tuning Tuning
	rules  rules
	rng    *rand.Rand
	seed   int64

	Arena       Arena
	Creatures   []ID
	Projectiles []ID
	Hazards     []ID
	Companions  []ID
	Portals     []ID
	Antagonists []ID
	Boss        ID

	Players  []Player
	Faces    []Face
	Hands    []Vec
	Amp      float64
	Progress Progress
	Paused   bool

	Time  float64 // unpaused simulation seconds
	Wall  float64 // all stepped seconds, paused or not
	Frame uint64

	ScreenShake float64
	TimeSlow    float64

	respawns []respawn
	pending  []ID
	grid     Grid
	gridBuf  []ID
	commands []Command
	events   []Event
	bossHits int // lives lost since the current boss spawned
}

type respawn struct {
	at    float64
	kind  Kind
	phase int
}

// NewState builds a run with the given tuning and RNG seed.
func NewState(t Tuning, seed int64) (*State, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	r, err := t.compile()
	if err != nil {
		return nil, err
	}
	s := &State{
		Tuning: t,
		rules:  r,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
	}
	return s, nil
}

// MustNewState is NewState for callers holding a known-good tuning.
func MustNewState(t Tuning, seed int64) *State {
	s, err := NewState(t, seed)
	if err != nil {
		panic(fmt.Sprintf("sim: %v", err))
	}
	return s
}

// Enqueue schedules a command for the next Step.
func (s *State) Enqueue(c Command) {
	s.commands = append(s.commands, c)
}

// Drain returns and clears the events emitted since the last call.
func (s *State) Drain() []Event {
	ev := s.events
	s.events = nil
	return ev
}

// Get returns the live entity behind id, or nil.
func (s *State) Get(id ID) *Entity { return s.Arena.Get(id) }

// BossEntity returns the primary boss, or nil when none is active.
func (s *State) BossEntity() *Entity { return s.Arena.Get(s.Boss) }

// Center is the default target when no face is tracked.
func (s *State) Center() Vec { return V(s.Tuning.Width/2, s.Tuning.Height/2) }

// spawn stores e in the arena and queues it for its class collection. The
// collections are only extended by flushPending, never mid-scan.
func (s *State) spawn(e Entity) ID {
	id := s.Arena.Spawn(e)
	s.pending = append(s.pending, id)
	return id
}

func (s *State) flushPending() {
	for _, id := range s.pending {
		e := s.Arena.Get(id)
		if e == nil {
			continue
		}
		switch e.Class {
		case ClassCreature:
			s.Creatures = append(s.Creatures, id)
		case ClassProjectile:
			s.Projectiles = append(s.Projectiles, id)
		case ClassHazard:
			s.Hazards = append(s.Hazards, id)
		case ClassCompanion:
			s.Companions = append(s.Companions, id)
		case ClassPortal:
			s.Portals = append(s.Portals, id)
		case ClassBoss:
			if !s.Boss.Valid() && isPrimaryBoss(e.Kind) {
				s.Boss = id
			} else {
				s.Antagonists = append(s.Antagonists, id)
			}
		}
	}
	s.pending = s.pending[:0]
}

// sweep drops dead entities from ids and frees their slots, returning the
// survivor slice. It never mutates ids in place.
func (s *State) sweep(ids []ID) []ID {
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		e := s.Arena.Get(id)
		if e == nil {
			continue
		}
		if !e.Alive() {
			s.Arena.Free(id)
			continue
		}
		out = append(out, id)
	}
	return out
}

func (s *State) clearList(ids []ID) {
	for _, id := range ids {
		s.Arena.Free(id)
	}
}

// ensurePlayers extends the slot list to n with default values.
func (s *State) ensurePlayers(n int) {
	for len(s.Players) < n {
		s.Players = append(s.Players, Player{
			Lives:       s.Tuning.MaxLives,
			AttackSpeed: 1,
			HeadDir:     V(0, -1),
		})
	}
}

// faceTarget returns the first active face, or the canvas center.
func (s *State) faceTarget() Vec {
	for i := range s.Players {
		p := &s.Players[i]
		if p.Present && !p.Eaten {
			return p.Pos
		}
	}
	return s.Center()
}

// nearestFace returns the index of the closest active face to pos, or -1.
func (s *State) nearestFace(pos Vec) int {
	best, bestD := -1, 0.0
	for i := range s.Players {
		p := &s.Players[i]
		if !p.Present || p.Eaten {
			continue
		}
		d := pos.Dist(p.Pos)
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// randomFace returns a random active face index, or -1.
func (s *State) randomFace() int {
	var idx []int
	for i := range s.Players {
		if s.Players[i].Present && !s.Players[i].Eaten {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return -1
	}
	return idx[s.rng.Intn(len(idx))]
}

// randomPoint returns a point at least margin away from the canvas edges.
func (s *State) randomPoint(margin float64) Vec {
	w := s.Tuning.Width - 2*margin
	h := s.Tuning.Height - 2*margin
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return V(s.rng.Float64()*w+margin, s.rng.Float64()*h+margin)
}

// jitter returns pos offset by up to ±spread/2 on each axis.
func (s *State) jitter(pos Vec, spread float64) Vec {
	return V(pos.X+(s.rng.Float64()-0.5)*spread, pos.Y+(s.rng.Float64()-0.5)*spread)
}

func (s *State) inBounds(p Vec) bool {
	return p.X >= 0 && p.X <= s.Tuning.Width && p.Y >= 0 && p.Y <= s.Tuning.Height
}

func (s *State) emit(ev Event) {
	ev.Frame = s.Frame
	s.events = append(s.events, ev)
}

// Seed returns the RNG seed the run was created with.
func (s *State) Seed() int64 { return s.seed }
