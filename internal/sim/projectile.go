package sim

import "math"

// ProjectileProfile is the table data describing what a projectile kind
// interacts with.
type ProjectileProfile struct {
	Radius        float64
	Damage        float64
	HitsCreatures bool
	HitsPlayers   bool
	Piercing      bool
	NoRespawn     bool
	Lifetime      float64
	// PlayerReach is added to Radius when testing a player hit. Zero means
	// half the avatar radius.
	PlayerReach float64
}

var projectileProfiles = map[Kind]ProjectileProfile{
	KindLaser:    {Radius: 5, Damage: 1, HitsCreatures: true},
	KindFireball: {Radius: 8, Damage: 1, HitsPlayers: true},
	KindPurple:   {Radius: 6, Damage: 1, HitsPlayers: true},
	KindSnake:    {Radius: 10, Damage: 1, HitsPlayers: true, PlayerReach: 50},
	KindFang:     {Radius: 12, Damage: 0.5, HitsCreatures: true, NoRespawn: true},
	KindCrystal:  {Radius: 10, Damage: 1, HitsCreatures: true},
	KindVoidBeam: {Radius: 15, Damage: 2, HitsPlayers: true},
	KindSurge:    {Radius: 20, Damage: 5, HitsPlayers: true},
	KindBreath:   {Radius: 12, Damage: 1, HitsPlayers: true, Lifetime: 1},
	KindSpell:    {Radius: 10, Damage: 1, HitsCreatures: true},
}

// playerReach is how far beyond its radius p hits a player.
func (s *State) playerReach(prof ProjectileProfile) float64 {
	if prof.PlayerReach > 0 {
		return prof.PlayerReach
	}
	return s.Tuning.AvatarRadius / 2
}

// Profile returns the interaction profile for a projectile kind.
func Profile(k Kind) ProjectileProfile {
	if p, ok := projectileProfiles[k]; ok {
		return p
	}
	return ProjectileProfile{Radius: 5, Damage: 1}
}

// NewProjectile builds a projectile of kind k at pos moving with vel.
func NewProjectile(k Kind, pos, vel Vec) Entity {
	prof := Profile(k)
	e := newEntity(k, pos, prof.Radius)
	e.Class = ClassProjectile
	e.Vel = vel
	e.Speed = vel.Len()
	e.BaseSpeed = e.Speed
	e.Damage = prof.Damage
	e.NoRespawn = prof.NoRespawn
	e.Lifetime = prof.Lifetime
	return e
}

// fire spawns a projectile owned by owner.
func (s *State) fire(k Kind, pos, vel Vec, owner ID) ID {
	e := NewProjectile(k, pos, vel)
	e.Owner = owner
	return s.spawn(e)
}

// fireAt spawns a projectile from pos aimed at target with the given speed.
func (s *State) fireAt(k Kind, pos, target Vec, speed float64, owner ID) ID {
	return s.fire(k, pos, pos.Dir(target).Scale(speed), owner)
}

func init() {
	for _, k := range []Kind{KindLaser, KindFireball, KindPurple, KindFang, KindCrystal, KindVoidBeam, KindSurge, KindBreath, KindSpell} {
		register(k, advanceLinear)
	}
	register(KindSnake, advanceSnake)
}

func advanceLinear(s *State, e *Entity, dt float64, _ Vec) {
	e.Pos = e.Pos.Add(e.Vel.Scale(dt))
	if !s.inBounds(e.Pos) {
		e.Active = false
	}
}

// advanceSnake wiggles perpendicular to its heading.
func advanceSnake(s *State, e *Entity, dt float64, _ Vec) {
	e.Osc += 10 * dt
	e.Pos = e.Pos.Add(e.Vel.Scale(dt))
	if l := e.Vel.Len(); l > 0 {
		perp := e.Vel.Perp().Scale(1 / l)
		e.Pos = e.Pos.Add(perp.Scale(math.Sin(e.Osc) * 30 * dt))
	}
	if !s.inBounds(e.Pos) {
		e.Active = false
	}
}

// fireLasers fires the twin eye lasers from a face along its last
// significant head direction.
func (s *State) fireLasers(p *Player) {
	dir := p.HeadDir
	if dir.Len() == 0 {
		dir = V(0, -1)
	}
	vel := Vec{}.Dir(dir).Scale(s.Tuning.LaserSpeed)
	for _, dx := range []float64{-16, 16} {
		s.fire(KindLaser, V(p.Pos.X+dx, p.Pos.Y-10), vel, NoID)
	}
}
