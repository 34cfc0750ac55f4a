package sim

// advanceFunc moves one entity forward by dt. target is the default point
// the entity steers toward; behaviors may ignore or transform it.
type advanceFunc func(s *State, e *Entity, dt float64, target Vec)

// behaviors maps a kind and tier to its advance function. Tier 0 is the
// regular entry; a non-nil tier 1 entry replaces it after escalation.
var behaviors [numKinds][2]advanceFunc

func register(k Kind, f advanceFunc) { behaviors[k][0] = f }

func registerUpgrade(k Kind, f advanceFunc) { behaviors[k][1] = f }

func behaviorFor(k Kind, tier int) advanceFunc {
	if k >= numKinds {
		return nil
	}
	if tier > 0 && behaviors[k][1] != nil {
		return behaviors[k][1]
	}
	return behaviors[k][0]
}

// Advance runs the behavior registered for e. Kinds without an entry fall
// back to the base chase.
func Advance(s *State, e *Entity, dt float64, target Vec) {
	if !e.Alive() {
		return
	}
	e.Age += dt
	if e.Slow > 0 {
		e.Slow -= dt
		if e.Slow <= 0 {
			e.Slow = 0
			e.Flags.Clear(FlagSlowed)
		}
	}
	if e.Flags.Has(FlagJailed) {
		return
	}
	f := behaviorFor(e.Kind, e.Tier)
	if f == nil {
		e.Chase(target, dt)
	} else {
		f(s, e, dt, target)
	}
	if e.Lifetime > 0 && e.Age >= e.Lifetime {
		e.Active = false
	}
}

// chase is the shared base behavior: straight pursuit of the target.
func chase(_ *State, e *Entity, dt float64, target Vec) {
	e.Chase(target, dt)
}
