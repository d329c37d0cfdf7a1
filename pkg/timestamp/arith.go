package timestamp

import (
	"math"

	"github.com/BYTE-6D65/timebase/pkg/clock"
)

// safeSub returns a − b as a signed value without unsigned wraparound.
// This is the primitive underlying every cross-domain time comparison:
// naive uint64 subtraction of a later tick from an earlier one would wrap
// to a huge positive count instead of going negative.
func safeSub(a, b clock.Ticks) int64 {
	if a >= b {
		return int64(a - b)
	}
	return -int64(b - a)
}

// addSeconds shifts a tick count by a signed seconds delta, converted
// through the given ticks-per-second ratio. The delta is rounded to the
// nearest tick. Subtraction saturates at zero and addition saturates at
// the top of the tick range instead of wrapping.
func addSeconds(t clock.Ticks, deltaSeconds, secondsToTicks float64) clock.Ticks {
	mag := math.Round(math.Abs(deltaSeconds) * secondsToTicks)

	if deltaSeconds >= 0 {
		if mag >= float64(math.MaxUint64) {
			return math.MaxUint64
		}
		d := clock.Ticks(mag)
		if d > math.MaxUint64-t {
			return math.MaxUint64
		}
		return t + d
	}

	if mag >= float64(math.MaxUint64) {
		return 0
	}
	d := clock.Ticks(mag)
	if d > t {
		return 0
	}
	return t - d
}
