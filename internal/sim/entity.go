package sim

// Flags carries per-entity boolean state.
type Flags uint32

const (
	FlagVisible Flags = 1 << iota
	FlagShielded
	FlagDashing
	FlagJailed
	FlagExploding
	FlagCopied // mimic already adopted another kind
	FlagRage
	FlagShadowVariant
	FlagRescue
	FlagGunk // pumus turned to gunk
	FlagFromAntagonist
	FlagSlowed
	FlagJumping
)

func (f Flags) Has(x Flags) bool { return f&x != 0 }
func (f *Flags) Set(x Flags)     { *f |= x }
func (f *Flags) Clear(x Flags)   { *f &^= x }

// SetTo sets or clears x.
func (f *Flags) SetTo(x Flags, on bool) {
	if on {
		f.Set(x)
	} else {
		f.Clear(x)
	}
}

// NumTimers is the number of independent timers an entity carries.
const NumTimers = 10

// Timer slots. Each behavior documents what it uses them for.
const (
	tSpawn = iota
	tAttack
	tSpecial
	tSpecial2
	tSpecial3
	tMove
	tShield
	tAux
	tMelee
	tExtra
)

// Strategy selects the movement pattern of an AI companion.
type Strategy uint8

const (
	StrategyAggressive Strategy = iota
	StrategyDefensive
	StrategySupport
)

func (s Strategy) String() string {
	switch s {
	case StrategyDefensive:
		return "defensive"
	case StrategySupport:
		return "support"
	}
	return "aggressive"
}

// TrapType distinguishes the traps laid by the frog.
type TrapType uint8

const (
	TrapSpike TrapType = iota
	TrapSticky
	TrapPoison
)

// Entity is the single record used for every actor in the simulation. The
// Kind tag selects its advance function; fields unused by a kind stay zero.
type Entity struct {
	ID    ID
	Class Class
	Kind  Kind
	Tier  int

	Pos        Vec
	Vel        Vec
	Radius     float64
	BaseRadius float64
	Speed      float64
	BaseSpeed  float64

	Health    float64
	MaxHealth float64
	HasHealth bool

	Active   bool
	Age      float64
	Lifetime float64 // 0 means unlimited

	Phase  int
	Timers [NumTimers]float64
	Osc    float64 // oscillation or orbit phase
	Angle  float64
	Flags  Flags

	Damage    float64
	NoRespawn bool
	Owner     ID
	Mount     ID // entity this one rides
	Target    ID

	// Kind-specific scalars.
	MaxRadius  float64 // fire ring, storm, explosion
	Growth     float64 // expansion speed
	Pull       float64
	Width      float64
	Height     float64
	Pattern    int
	Slow       float64 // remaining time of a speed debuff
	Dash       float64 // remaining time of a dash or jump
	SlowFactor float64
	Copied     Kind // mimic
	Strategy   Strategy
	Trap       TrapType
	PlayerSlot int // player targeted by a tongue
	Name       string

	Gary *Antagonist
}

// Alive reports whether the entity is still part of the simulation.
func (e *Entity) Alive() bool {
	if !e.Active {
		return false
	}
	if e.HasHealth && e.Health <= 0 {
		return false
	}
	return true
}

// HealthFrac returns health / maxHealth, or 1 when the entity has none.
func (e *Entity) HealthFrac() float64 {
	if !e.HasHealth || e.MaxHealth <= 0 {
		return 1
	}
	return e.Health / e.MaxHealth
}

// TakeDamage subtracts dmg from a health-declared entity and reports whether
// it died. Entities without health die from any damage.
func (e *Entity) TakeDamage(dmg float64) bool {
	if !e.Alive() {
		return false
	}
	if !e.HasHealth {
		e.Active = false
		return true
	}
	e.Health -= dmg
	if e.Health <= 0 {
		e.Health = 0
		return true
	}
	return false
}

// effectiveSpeed applies slow debuffs to the configured speed.
func (e *Entity) effectiveSpeed() float64 {
	if e.Slow > 0 && e.SlowFactor > 0 {
		return e.Speed * e.SlowFactor
	}
	return e.Speed
}

// Chase moves e toward target at its speed. A zero-length direction leaves
// the position unchanged.
func (e *Entity) Chase(target Vec, dt float64) {
	e.stepToward(target, e.effectiveSpeed(), dt)
}

func (e *Entity) stepToward(target Vec, speed, dt float64) {
	d := e.Pos.Dir(target)
	e.Pos = e.Pos.Add(d.Scale(speed * dt))
}

// tick advances timer slot i by dt and reports whether it reached interval,
// resetting it to 0 when it fires.
func (e *Entity) tick(i int, dt, interval float64) bool {
	e.Timers[i] += dt
	if e.Timers[i] >= interval {
		e.Timers[i] = 0
		return true
	}
	return false
}

func newEntity(k Kind, pos Vec, radius float64) Entity {
	return Entity{
		Class:      k.Class(),
		Kind:       k,
		Pos:        pos,
		Radius:     radius,
		BaseRadius: radius,
		Active:     true,
		Flags:      FlagVisible,
		PlayerSlot: -1,
	}
}

func (e *Entity) withHealth(h float64) *Entity {
	e.Health = h
	e.MaxHealth = h
	e.HasHealth = true
	return e
}
