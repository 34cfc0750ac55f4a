package sim

// EventType names something the outer service may want to log, persist or
// forward to clients.
type EventType string

const (
	EvtCreatureDefeated  EventType = "creature_defeated"
	EvtBossSpawned       EventType = "boss_spawned"
	EvtBossDefeated      EventType = "boss_defeated"
	EvtPortalOpened      EventType = "portal_opened"
	EvtDimensionEntered  EventType = "dimension_entered"
	EvtDimensionLeft     EventType = "dimension_left"
	EvtPlayerHit         EventType = "player_hit"
	EvtPlayerReset       EventType = "player_reset"
	EvtPlayerEaten       EventType = "player_eaten"
	EvtCompanionSpawned  EventType = "companion_spawned"
	EvtAntagonistArrived EventType = "antagonist_arrived"
	EvtMegaTransform     EventType = "mega_transform"
	EvtRockCollected     EventType = "rock_collected"
	EvtVictory           EventType = "victory"
	EvtDragonDefeated    EventType = "dragon_defeated"
	EvtPaused            EventType = "paused"
	EvtResumed           EventType = "resumed"
	EvtRestarted         EventType = "restarted"
)

// DefeatReason records which interaction defeated a creature.
type DefeatReason uint8

const (
	ReasonNone DefeatReason = iota
	ReasonHand
	ReasonLaser
	ReasonMouth
	ReasonAntagonist
)

func (r DefeatReason) String() string {
	switch r {
	case ReasonHand:
		return "hand"
	case ReasonLaser:
		return "laser"
	case ReasonMouth:
		return "mouth"
	case ReasonAntagonist:
		return "antagonist"
	}
	return "none"
}

// Event is emitted by Step and collected with State.Drain.
type Event struct {
	Type      EventType    `json:"type"`
	Frame     uint64       `json:"frame"`
	Kind      Kind         `json:"-"`
	KindName  string       `json:"kind,omitempty"`
	Reason    DefeatReason `json:"-"`
	Player    int          `json:"player"`
	Wave      int          `json:"wave"`
	Dimension Dimension    `json:"-"`
	Value     float64      `json:"value,omitempty"`
}

func (s *State) emitKind(t EventType, k Kind) {
	s.emit(Event{Type: t, Kind: k, KindName: k.String(), Player: -1, Wave: s.Progress.Wave, Dimension: s.Progress.Dimension})
}

func (s *State) emitPlayer(t EventType, slot int, v float64) {
	s.emit(Event{Type: t, Player: slot, Wave: s.Progress.Wave, Dimension: s.Progress.Dimension, Value: v})
}
