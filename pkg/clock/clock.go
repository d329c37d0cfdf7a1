package clock

import "time"

// Ticks represents a raw count of hardware clock ticks. The tick duration is
// platform-determined and described by a Timebase; ticks are only meaningful
// relative to other ticks from the same source.
type Ticks uint64

// Timebase is the hardware tick-duration ratio as reported by the platform
// clock: one tick lasts Numer/Denom nanoseconds.
type Timebase struct {
	Numer uint32
	Denom uint32
}

// Identity is the timebase of a clock whose ticks are plain nanoseconds.
var Identity = Timebase{Numer: 1, Denom: 1}

// Valid reports whether the timebase describes a usable ratio.
func (tb Timebase) Valid() bool {
	return tb.Numer > 0 && tb.Denom > 0
}

// TicksToSeconds returns the duration of one tick in seconds.
func (tb Timebase) TicksToSeconds() float64 {
	return float64(tb.Numer) / float64(tb.Denom) * 1e-9
}

// SecondsToTicks returns the number of ticks in one second.
func (tb Timebase) SecondsToTicks() float64 {
	return float64(tb.Denom) / float64(tb.Numer) * 1e9
}

// Duration converts a tick count to a time.Duration using this timebase.
func (tb Timebase) Duration(t Ticks) time.Duration {
	if !tb.Valid() {
		return time.Duration(t)
	}
	return time.Duration(float64(t) * tb.TicksToSeconds() * float64(time.Second))
}

// Source provides raw hardware ticks and the timebase that scales them.
// Ticks must be monotonically non-decreasing. Timebase is queried at most
// once per process; callers cache the resulting ratio.
type Source interface {
	// Ticks returns the current tick count
	Ticks() Ticks

	// Timebase returns the tick-duration ratio for this source
	Timebase() (Timebase, error)
}

// SystemSource reads the Go runtime's monotonic clock. Ticks are nanoseconds
// since the source was created, so the timebase is identity.
type SystemSource struct {
	epoch time.Time // Cached at creation to provide stable monotonic base
}

// NewSystemSource creates a SystemSource anchored at the current time.
func NewSystemSource() *SystemSource {
	return &SystemSource{
		epoch: time.Now(),
	}
}

// Ticks returns nanoseconds elapsed since the source's epoch.
func (s *SystemSource) Ticks() Ticks {
	// time.Since leverages the monotonic clock internally
	return Ticks(time.Since(s.epoch).Nanoseconds())
}

// Timebase returns the identity timebase (1 tick = 1 ns).
func (s *SystemSource) Timebase() (Timebase, error) {
	return Identity, nil
}
