package skill

import "time"

// CoolingDown reports whether a skill with effective cooldown cd whose
// cooldown ends at finish is still cooling down at now. A zero finish means
// the cooldown was never started.
func CoolingDown(cd time.Duration, finish, now time.Time) bool {
	return cd > 0 && !finish.IsZero() && now.Before(finish)
}

// Remaining returns how long remains until finish, never negative.
func Remaining(finish, now time.Time) time.Duration {
	if finish.IsZero() {
		return 0
	}
	if d := finish.Sub(now); d > 0 {
		return d
	}
	return 0
}

// CooldownModifier derives a skill's effective cooldown from its owner's state.
type CooldownModifier func(owner Entity, base time.Duration) time.Duration

// BaseCooldown is the default CooldownModifier: the definition's cooldown unchanged.
func BaseCooldown(_ Entity, base time.Duration) time.Duration { return base }
