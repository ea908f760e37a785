package syncplay

import "time"

// TickDuration is the unit size spec.md calls a "tick": 100 nanoseconds,
// matching the Jellyfin/Emby RunTimeTicks convention this module's callers
// already speak.
const TickDuration = 100 * time.Nanosecond

// Ticks is a media position or duration expressed in 100ns units.
type Ticks int64

// TicksFromDuration converts a time.Duration to Ticks, truncating any
// remainder smaller than TickDuration.
func TicksFromDuration(d time.Duration) Ticks {
	return Ticks(d / TickDuration)
}

// Duration converts Ticks back to a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t) * TickDuration
}

// Clock is the single source of "now" for a GroupController. Production
// code uses realClock; tests inject a virtual clock so time-sync math is
// deterministic.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// RealClock is the production Clock backed by the system monotonic-ish
// wall clock (normalized to UTC, as every timestamp in this package is).
var RealClock Clock = realClock{}
