package sim

import "fmt"

// Exemptions lists which kinds skip a generic rule. The resolver only
// consults these sets; it never checks kinds directly for exemptions.
type Exemptions struct {
	// ProjectileImmune kinds let projectiles pass without taking damage.
	ProjectileImmune []string `yaml:"projectile_immune" json:"projectile_immune"`
	// PauseExempt kinds keep advancing while the run is paused.
	PauseExempt []string `yaml:"pause_exempt" json:"pause_exempt"`
	// HazardImmune kinds ignore storm and attachment damage.
	HazardImmune []string `yaml:"hazard_immune" json:"hazard_immune"`
}

// Tuning holds every constant of a run. It is plain data so the service can
// load it from YAML.
type Tuning struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	MaxDT         float64 `yaml:"max_dt"`
	SpawnInterval float64 `yaml:"spawn_interval"`
	KillTargets   []int   `yaml:"kill_targets"`

	DungeonPortalWave int `yaml:"dungeon_portal_wave"`
	ElderPortalWave   int `yaml:"elder_portal_wave"`

	AvatarRadius   float64 `yaml:"avatar_radius"`
	HandReach      float64 `yaml:"hand_reach"`
	BossHandReach  float64 `yaml:"boss_hand_reach"`
	MouthThreshold float64 `yaml:"mouth_threshold"`
	MouthRadius    float64 `yaml:"mouth_radius"`
	MouthOffset    float64 `yaml:"mouth_offset"`
	VoiceThreshold float64 `yaml:"voice_threshold"`
	LaserSpeed     float64 `yaml:"laser_speed"`
	FireCooldown   float64 `yaml:"fire_cooldown"`
	PortalReach    float64 `yaml:"portal_reach"`

	MaxLives               int     `yaml:"max_lives"`
	HitInvulnerability     float64 `yaml:"hit_invulnerability"`
	RespawnInvulnerability float64 `yaml:"respawn_invulnerability"`

	MegaTrigger     int     `yaml:"mega_trigger"`
	MaxCompanions   int     `yaml:"max_companions"`
	MaxFaces        int     `yaml:"max_faces"`
	RockChance      float64 `yaml:"rock_chance"`
	HandsBlockEaten bool    `yaml:"hands_blocked_while_eaten"`
	EatenOnMegaKill bool    `yaml:"eaten_on_mega_kill"`

	// Threats maps creature kinds to the antagonist scanner's threat level
	// (safe, low, medium, danger). Safe kinds can be ridden.
	Threats map[string]string `yaml:"threats"`

	Exemptions Exemptions `yaml:"exemptions"`
}

// DefaultTuning returns the standard ruleset.
func DefaultTuning() Tuning {
	return Tuning{
		Width:                  1280,
		Height:                 720,
		MaxDT:                  0.1,
		SpawnInterval:          1.5,
		KillTargets:            []int{15, 20, 25, 30, 35, 40, 45, 50, 55, 60},
		DungeonPortalWave:      4,
		ElderPortalWave:        9,
		AvatarRadius:           50,
		HandReach:              20,
		BossHandReach:          30,
		MouthThreshold:         0.03,
		MouthRadius:            60,
		MouthOffset:            30,
		VoiceThreshold:         0.25,
		LaserSpeed:             600,
		FireCooldown:           0.25,
		PortalReach:            50,
		MaxLives:               3,
		HitInvulnerability:     2.0,
		RespawnInvulnerability: 2.0,
		MegaTrigger:            50,
		MaxCompanions:          5,
		MaxFaces:               4,
		RockChance:             0.001,
		HandsBlockEaten:        true,
		EatenOnMegaKill:        true,
		Threats: map[string]string{
			"dragon":      "danger",
			"ghost":       "medium",
			"caster":      "medium",
			"firespinner": "medium",
			"skeleton":    "low",
			"snowie":      "safe",
		},
		Exemptions: Exemptions{
			ProjectileImmune: []string{"gary"},
			PauseExempt:      []string{"gary", "pumus", "storm", "spacejail"},
			HazardImmune:     []string{"gary", "xyz"},
		},
	}
}

// Threat is the antagonist scanner's classification of a creature.
type Threat uint8

const (
	ThreatUnknown Threat = iota
	ThreatSafe
	ThreatLow
	ThreatMedium
	ThreatDanger
)

func parseThreat(s string) (Threat, error) {
	switch s {
	case "safe":
		return ThreatSafe, nil
	case "low":
		return ThreatLow, nil
	case "medium":
		return ThreatMedium, nil
	case "danger":
		return ThreatDanger, nil
	}
	return ThreatUnknown, fmt.Errorf("sim: unknown threat level %q", s)
}

// rules is the resolved, lookup-friendly form of Tuning.
type rules struct {
	projectileImmune KindSet
	pauseExempt      KindSet
	hazardImmune     KindSet
	threats          [numKinds]Threat
}

func (t *Tuning) compile() (rules, error) {
	var r rules
	var err error
	if r.projectileImmune, err = NewKindSet(t.Exemptions.ProjectileImmune); err != nil {
		return r, fmt.Errorf("projectile_immune: %w", err)
	}
	if r.pauseExempt, err = NewKindSet(t.Exemptions.PauseExempt); err != nil {
		return r, fmt.Errorf("pause_exempt: %w", err)
	}
	if r.hazardImmune, err = NewKindSet(t.Exemptions.HazardImmune); err != nil {
		return r, fmt.Errorf("hazard_immune: %w", err)
	}
	for name, level := range t.Threats {
		k, err := ParseKind(name)
		if err != nil {
			return r, fmt.Errorf("threats: %w", err)
		}
		th, err := parseThreat(level)
		if err != nil {
			return r, err
		}
		r.threats[k] = th
	}
	return r, nil
}

// Validate checks the tuning for values the simulation cannot run with.
func (t *Tuning) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("sim: canvas size must be positive, got %gx%g", t.Width, t.Height)
	}
	if len(t.KillTargets) == 0 {
		return fmt.Errorf("sim: kill_targets must not be empty")
	}
	if t.MaxDT <= 0 {
		return fmt.Errorf("sim: max_dt must be positive")
	}
	if t.MaxLives <= 0 {
		return fmt.Errorf("sim: max_lives must be positive")
	}
	_, err := t.compile()
	return err
}

func (t *Tuning) killTarget(wave int) int {
	if wave < 0 {
		wave = 0
	}
	if wave >= len(t.KillTargets) {
		wave = len(t.KillTargets) - 1
	}
	return t.KillTargets[wave]
}
