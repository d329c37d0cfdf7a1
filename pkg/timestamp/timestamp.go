// Package timestamp implements dual-domain audio timestamps: a point in time
// expressible as a hardware tick count ("host time"), as a sample frame
// position at a known sample rate ("sample time"), or both at once. A
// timestamp carrying only one representation can derive the missing one by
// extrapolating against a fully resolved anchor.
//
// Every operation is a pure function over immutable values; "failure" paths
// are expressed as an unchanged value or an explicit absent result, never as
// an error or panic.
package timestamp

import (
	"fmt"
	"math"

	"github.com/BYTE-6D65/timebase/pkg/clock"
)

// Timestamp is an immutable point in time with up to two representations:
// a host tick count and a sample frame position at a given rate. Either,
// both, or neither may be valid. The zero value has no valid representation.
type Timestamp struct {
	hostTicks   clock.Ticks
	sampleFrame int64
	sampleRate  float64
	hostValid   bool
	sampleValid bool
}

// AtHostTicks creates a host-time-only timestamp.
func AtHostTicks(t clock.Ticks) Timestamp {
	return Timestamp{
		hostTicks: t,
		hostValid: true,
	}
}

// AtSampleFrame creates a sample-time-only timestamp at the given rate.
// A non-positive rate yields a timestamp with no valid representation.
func AtSampleFrame(frame int64, rate float64) Timestamp {
	if rate <= 0 {
		return Timestamp{}
	}
	return Timestamp{
		sampleFrame: frame,
		sampleRate:  rate,
		sampleValid: true,
	}
}

// Resolved creates a fully resolved timestamp carrying both representations.
// A non-positive rate yields a host-time-only timestamp.
func Resolved(t clock.Ticks, frame int64, rate float64) Timestamp {
	if rate <= 0 {
		return AtHostTicks(t)
	}
	return Timestamp{
		hostTicks:   t,
		sampleFrame: frame,
		sampleRate:  rate,
		hostValid:   true,
		sampleValid: true,
	}
}

// Now returns a host-time-only timestamp from the process-wide tick source.
func Now() Timestamp {
	return AtHostTicks(activeSource().Ticks())
}

// FromSeconds creates a host-time-only timestamp at the given number of
// seconds past a reference tick count. Seconds are expected to be
// non-negative relative to the reference; a negative value saturates at
// tick zero rather than wrapping.
func FromSeconds(ref clock.Ticks, seconds float64) Timestamp {
	return AtHostTicks(addSeconds(ref, seconds, converter().secondsToTicks))
}

// HostValid reports whether the host-tick representation is valid.
func (ts Timestamp) HostValid() bool {
	return ts.hostValid
}

// SampleValid reports whether the sample-frame representation is valid.
func (ts Timestamp) SampleValid() bool {
	return ts.sampleValid
}

// FullyResolved reports whether both representations are valid, which is
// what qualifies a timestamp to serve as an extrapolation anchor.
func (ts Timestamp) FullyResolved() bool {
	return ts.hostValid && ts.sampleValid
}

// HostTicks returns the host tick count and whether it is valid.
func (ts Timestamp) HostTicks() (clock.Ticks, bool) {
	return ts.hostTicks, ts.hostValid
}

// SampleFrame returns the sample frame position and whether it is valid.
func (ts Timestamp) SampleFrame() (int64, bool) {
	return ts.sampleFrame, ts.sampleValid
}

// SampleRate returns the sample rate in frames per second. Meaningful only
// when the sample representation is valid.
func (ts Timestamp) SampleRate() float64 {
	return ts.sampleRate
}

// Extrapolate derives the missing representation of ts from a fully
// resolved anchor. Preconditions: ts has exactly one valid representation,
// the anchor has both, and sample rates match when ts is sample-valid.
// When any precondition fails the call is an identity no-op returning ts
// unchanged; callers always get back a usable timestamp.
func (ts Timestamp) Extrapolate(anchor Timestamp) Timestamp {
	if !anchor.FullyResolved() {
		return ts
	}
	if ts.hostValid == ts.sampleValid {
		// Neither representation, or already fully resolved
		return ts
	}
	if ts.sampleValid && ts.sampleRate != anchor.sampleRate {
		return ts
	}

	c := converter()

	if ts.hostValid {
		// Host known, sample unknown: project the tick delta into frames
		secondsDiff := float64(safeSub(ts.hostTicks, anchor.hostTicks)) * c.ticksToSeconds
		frame := anchor.sampleFrame + int64(math.Round(secondsDiff*anchor.sampleRate))
		return Resolved(ts.hostTicks, frame, anchor.sampleRate)
	}

	// Sample known, host unknown: project the frame delta into ticks
	secondsDiff := float64(ts.sampleFrame-anchor.sampleFrame) / anchor.sampleRate
	ticks := addSeconds(anchor.hostTicks, secondsDiff, c.secondsToTicks)
	return Resolved(ticks, ts.sampleFrame, anchor.sampleRate)
}

// Offset shifts whichever representations are valid by a signed seconds
// delta, independently and without an anchor. A timestamp with no valid
// representation is returned unchanged.
func (ts Timestamp) Offset(seconds float64) Timestamp {
	if !ts.hostValid && !ts.sampleValid {
		return ts
	}

	out := ts
	if ts.hostValid {
		out.hostTicks = addSeconds(ts.hostTicks, seconds, converter().secondsToTicks)
	}
	if ts.sampleValid {
		out.sampleFrame = ts.sampleFrame + int64(math.Round(seconds*ts.sampleRate))
	}
	return out
}

// Add returns the timestamp shifted forward by the given seconds.
func (ts Timestamp) Add(seconds float64) Timestamp {
	return ts.Offset(seconds)
}

// Sub returns the timestamp shifted backward by the given seconds.
func (ts Timestamp) Sub(seconds float64) Timestamp {
	return ts.Offset(-seconds)
}

// IntervalSince returns the elapsed seconds from other to ts: how far ts is
// ahead of other. The comparison domain is chosen by priority: host ticks
// when both carry them (no extrapolation rounding), then sample frames,
// then extrapolation of the one-representation side against the fully
// resolved side. When no common or derivable domain exists, ok is false.
func (ts Timestamp) IntervalSince(other Timestamp) (seconds float64, ok bool) {
	if ts.hostValid && other.hostValid {
		return float64(safeSub(ts.hostTicks, other.hostTicks)) * converter().ticksToSeconds, true
	}
	if ts.sampleValid && other.sampleValid {
		return float64(ts.sampleFrame-other.sampleFrame) / ts.sampleRate, true
	}

	if ts.FullyResolved() && (other.hostValid != other.sampleValid) {
		resolved := other.Extrapolate(ts)
		if resolved.sampleValid {
			return float64(ts.sampleFrame-resolved.sampleFrame) / ts.sampleRate, true
		}
	}
	if other.FullyResolved() && (ts.hostValid != ts.sampleValid) {
		resolved := ts.Extrapolate(other)
		if resolved.sampleValid {
			return float64(resolved.sampleFrame-other.sampleFrame) / resolved.sampleRate, true
		}
	}

	return 0, false
}

// Seconds converts the host-tick representation, measured relative to a
// reference tick count, into seconds. Returns 0 when host time is not
// valid; never fails.
func (ts Timestamp) Seconds(ref clock.Ticks) float64 {
	if !ts.hostValid {
		return 0
	}
	return float64(safeSub(ts.hostTicks, ref)) * converter().ticksToSeconds
}

// String renders the timestamp for logs and debugging.
func (ts Timestamp) String() string {
	switch {
	case ts.hostValid && ts.sampleValid:
		return fmt.Sprintf("host=%d sample=%d@%g", ts.hostTicks, ts.sampleFrame, ts.sampleRate)
	case ts.hostValid:
		return fmt.Sprintf("host=%d sample=invalid", ts.hostTicks)
	case ts.sampleValid:
		return fmt.Sprintf("host=invalid sample=%d@%g", ts.sampleFrame, ts.sampleRate)
	}
	return "host=invalid sample=invalid"
}
