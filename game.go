package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/toddllm/face-controls/internal/sim"
	"github.com/toddllm/face-controls/internal/tracking"
	"github.com/toddllm/face-controls/internal/voice"
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// GameConfig is the per-session slice of Config
type GameConfig struct {
	TickRate      int
	BroadcastRate int
	Tuning        sim.Tuning
	Seed          int64
}

// RunTally accumulates what a run achieved until it is recorded
type RunTally struct {
	RunRow
	Mega         bool
	FlawlessBoss bool

	started  float64 // sim time at run start
	recorded bool
}

// forwarded lists the simulation events pushed to clients as envelopes.
// Everything else is visible in snapshots.
var forwarded = map[sim.EventType]bool{
	sim.EvtBossSpawned:       true,
	sim.EvtBossDefeated:      true,
	sim.EvtPortalOpened:      true,
	sim.EvtDimensionEntered:  true,
	sim.EvtDimensionLeft:     true,
	sim.EvtAntagonistArrived: true,
	sim.EvtMegaTransform:     true,
	sim.EvtPlayerEaten:       true,
	sim.EvtVictory:           true,
	sim.EvtDragonDefeated:    true,
	sim.EvtPaused:            true,
	sim.EvtResumed:           true,
	sim.EvtRestarted:         true,
}

// Game runs one session's simulation
type Game struct {
	id             string
	log            *slog.Logger
	db             *DB
	analytics      *Analytics
	tickRate       int
	broadcastEvery uint64

	mu          sync.Mutex
	state       *sim.State
	input       sim.Input
	landmarks   *tracking.Tracker
	meter       *voice.Meter
	tracker     Broadcaster
	trackerAuth int64
	spectators  map[Broadcaster]bool
	lastTick    time.Time
	ticks       uint64
	run         RunTally
	stop        chan struct{}
	stopOnce    sync.Once

	persist sync.WaitGroup
}

// NewGame builds a session's game. It does not start the loop.
func NewGame(id string, cfg GameConfig, db *DB, analytics *Analytics, log *slog.Logger) (*Game, error) {
	state, err := sim.NewState(cfg.Tuning, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	every := uint64(1)
	if cfg.BroadcastRate > 0 && cfg.TickRate > cfg.BroadcastRate {
		every = uint64(cfg.TickRate / cfg.BroadcastRate)
	}
	g := &Game{
		id:             id,
		log:            log.With("session", id),
		db:             db,
		analytics:      analytics,
		tickRate:       cfg.TickRate,
		broadcastEvery: every,
		state:          state,
		landmarks:      tracking.NewTracker(),
		meter:          voice.NewMeter(voice.DefaultSampleRate),
		spectators:     make(map[Broadcaster]bool),
		stop:           make(chan struct{}),
	}
	g.run = g.newTally()
	return g, nil
}

// Run starts the game loop
func (g *Game) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(g.tickRate))
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			g.update(now)
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop, records an unfinished run and waits for
// pending writes.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.mu.Lock()
	g.finishRunLocked()
	g.mu.Unlock()
	g.persist.Wait()
}

// AttachTracker makes c the session's tracker. A session has at most one.
func (g *Game) AttachTracker(c Broadcaster, authID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tracker != nil {
		return ErrSessionFull
	}
	g.tracker = c
	g.trackerAuth = authID
	g.run.PlayerID = authID
	g.input = sim.Input{}
	g.landmarks.Reset()
	g.meter.Reset()
	seed := g.state.Seed()
	g.log.Info("tracker attached", "player", authID, "seed", seed)
	g.analytics.Track(EvtRunStart, authID, g.id, fmt.Sprintf(`{"seed":%d}`, seed))
	return nil
}

// DetachTracker removes c if it is the tracker and records the run so far.
func (g *Game) DetachTracker(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tracker != c {
		return
	}
	g.finishRunLocked()
	g.run = g.newTally()
	g.tracker = nil
	g.trackerAuth = 0
	g.input = sim.Input{}
	g.log.Info("tracker detached")
}

// AddSpectator registers a read-only client
func (g *Game) AddSpectator(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spectators[c] = true
}

// RemoveSpectator forgets a read-only client
func (g *Game) RemoveSpectator(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.spectators, c)
}

// HasTracker reports whether a tracker is attached
func (g *Game) HasTracker() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tracker != nil
}

// SpectatorCount returns the number of spectators
func (g *Game) SpectatorCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.spectators)
}

// Attached reports whether anybody is connected to the session
func (g *Game) Attached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tracker != nil || len(g.spectators) > 0
}

// Progress returns the wave index and stage label
func (g *Game) Progress() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Progress.Wave, g.state.StageLabel()
}

// Canvas returns the current canvas size
func (g *Game) Canvas() (float64, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Tuning.Width, g.state.Tuning.Height
}

// MaxFaces returns how many faces the session tracks
func (g *Game) MaxFaces() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Tuning.MaxFaces
}

// HandleInput stores in as the latest input. Only the newest input is
// kept; the loop reuses it until a fresher one arrives. A zero amplitude
// falls back to the server-side voice meter.
func (g *Game) HandleInput(in sim.Input) {
	if in.Amplitude == 0 {
		in.Amplitude = g.meter.Level()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.input = in
}

// HandleLandmarks decodes a binary landmark frame into the latest input.
func (g *Game) HandleLandmarks(b []byte) error {
	f, err := tracking.Decode(b)
	if err != nil {
		return err
	}
	amp := g.meter.Level()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.input = g.landmarks.Input(f, g.state.Tuning.Width, g.state.Tuning.Height, amp)
	return nil
}

// HandleAudio feeds a PCM chunk to the voice meter
func (g *Game) HandleAudio(pcm []byte) error {
	level, err := g.meter.Feed(pcm)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.input.Amplitude = level
	g.mu.Unlock()
	return nil
}

// HandleCommand queues a discrete command for the next step
func (g *Game) HandleCommand(c sim.Command) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Enqueue(c)
}

// update runs one tick at wall time now
func (g *Game) update(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Without a tracker the run is frozen; the clock restarts on attach so
	// the first step does not see the whole gap.
	if g.tracker == nil {
		g.lastTick = time.Time{}
	} else {
		dt := 0.0
		if !g.lastTick.IsZero() {
			dt = now.Sub(g.lastTick).Seconds()
		}
		g.lastTick = now
		g.stepLocked(dt)
	}

	g.ticks++
	if g.ticks%g.broadcastEvery == 0 {
		g.broadcastState()
	}
}

func (g *Game) stepLocked(dt float64) {
	sim.Step(g.state, g.input, dt)
	// Blinks are edges; a reused input must not fire twice.
	for i := range g.input.Faces {
		g.input.Faces[i].Blink = false
	}
	for _, ev := range g.state.Drain() {
		g.handleEvent(ev)
	}
	if w := g.state.Progress.Wave; w > g.run.Wave {
		g.run.Wave = w
	}
}

func (g *Game) handleEvent(ev sim.Event) {
	g.log.Debug("sim event", "type", ev.Type, "kind", ev.KindName, "player", ev.Player, "wave", ev.Wave, "frame", ev.Frame)

	switch ev.Type {
	case sim.EvtCreatureDefeated:
		g.run.Kills++
	case sim.EvtPlayerHit:
		g.run.LivesLost += int(ev.Value)
	case sim.EvtBossDefeated, sim.EvtDragonDefeated:
		g.run.Bosses++
		if ev.Value == 0 {
			g.run.FlawlessBoss = true
		}
		g.track(EvtBossDefeated, ev)
	case sim.EvtDimensionEntered:
		switch ev.KindName {
		case "dungeon":
			g.run.Dungeon = true
		case "elder":
			g.run.Elder = true
		}
		g.track(EvtDimensionEnter, ev)
	case sim.EvtMegaTransform:
		g.run.Mega = true
	case sim.EvtPlayerEaten:
		g.track(EvtPlayerEaten, ev)
	case sim.EvtVictory:
		g.run.Victory = true
		g.track(EvtVictory, ev)
		g.finishRunLocked()
	case sim.EvtRestarted:
		g.finishRunLocked()
		g.run = g.newTally()
		g.run.PlayerID = g.trackerAuth
	}

	if forwarded[ev.Type] {
		g.broadcastMsg(Envelope{T: MsgEvent, Data: eventMsg(ev)})
	}
}

func (g *Game) track(typ string, ev sim.Event) {
	data, _ := json.Marshal(eventMsg(ev))
	g.analytics.Track(typ, g.trackerAuth, g.id, string(data))
}

func (g *Game) newTally() RunTally {
	return RunTally{RunRow: RunRow{SessionID: g.id}, started: g.state.Time}
}

// finishRunLocked records the current run once. Runs that never left the
// first second are dropped.
func (g *Game) finishRunLocked() {
	if g.run.recorded {
		return
	}
	g.run.Duration = g.state.Time - g.run.started
	if g.run.Duration < 1 && !g.run.Victory {
		return
	}
	g.run.recorded = true
	run := g.run
	tracker := g.tracker

	data, _ := json.Marshal(map[string]any{
		"wave": run.Wave, "kills": run.Kills, "bosses": run.Bosses,
		"victory": run.Victory, "duration": run.Duration,
	})
	g.analytics.Track(EvtRunEnd, run.PlayerID, g.id, string(data))
	if g.db == nil {
		return
	}

	g.persist.Add(1)
	go func() {
		defer g.persist.Done()
		g.recordRun(run, tracker)
	}()
}

// recordRun writes run and reports unlocked achievements to the tracker
// that played it.
func (g *Game) recordRun(run RunTally, tracker Broadcaster) {
	xp, level, err := g.db.RecordRun(run.RunRow)
	if err != nil {
		g.log.Error("record run failed", "err", err)
		return
	}
	g.log.Info("run recorded", "player", run.PlayerID, "wave", run.Wave, "kills", run.Kills,
		"bosses", run.Bosses, "victory", run.Victory, "xp", xp, "level", level)

	for _, a := range CheckAchievements(g.db, run.PlayerID, run) {
		g.analytics.Track(EvtAchievement, run.PlayerID, g.id, `{"id":"`+a.ID+`"}`)
		if tracker != nil {
			tracker.SendJSON(Envelope{T: MsgEvent, Data: EventMsg{Type: EvtAchievement, Kind: a.ID, Player: -1, Wave: run.Wave}})
		}
	}
}

// broadcastState sends the msgpack snapshot to everyone attached
func (g *Game) broadcastState() {
	if g.tracker == nil && len(g.spectators) == 0 {
		return
	}
	data, err := msgpack.Marshal(g.state.Snapshot())
	if err != nil {
		g.log.Error("snapshot encode failed", "err", err)
		return
	}
	if g.tracker != nil {
		g.tracker.SendBinary(data)
	}
	for c := range g.spectators {
		c.SendBinary(data)
	}
}

// broadcastMsg sends a message to everyone attached
func (g *Game) broadcastMsg(msg Envelope) {
	if g.tracker != nil {
		g.tracker.SendJSON(msg)
	}
	for c := range g.spectators {
		c.SendJSON(msg)
	}
}
