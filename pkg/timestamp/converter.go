package timestamp

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/BYTE-6D65/timebase/pkg/clock"
	"github.com/BYTE-6D65/timebase/pkg/telemetry"
)

// Converter caches the linear factor between host ticks and seconds.
// It is computed once from a source's timebase and treated as immutable.
type Converter struct {
	ticksToSeconds float64
	secondsToTicks float64
	degraded       bool
}

// NewConverter resolves the tick-duration ratio from the source's timebase.
// If the timebase query fails or reports an unusable ratio, the converter
// degrades to an identity ratio of 1.0 so that time arithmetic stays total;
// the degradation is logged and counted rather than surfaced as an error.
func NewConverter(src clock.Source) Converter {
	tb, err := src.Timebase()
	if err != nil || !tb.Valid() {
		logrus.WithError(err).WithFields(logrus.Fields{
			"numer": tb.Numer,
			"denom": tb.Denom,
		}).Warn("timebase query failed; using identity tick conversion ratio")
		telemetry.Default().TimebaseFallbacks.Inc()

		return Converter{
			ticksToSeconds: 1.0,
			secondsToTicks: 1.0,
			degraded:       true,
		}
	}

	return Converter{
		ticksToSeconds: tb.TicksToSeconds(),
		secondsToTicks: tb.SecondsToTicks(),
	}
}

// TicksToSeconds returns the duration of one host tick in seconds.
func (c Converter) TicksToSeconds() float64 {
	return c.ticksToSeconds
}

// SecondsToTicks returns the number of host ticks in one second.
func (c Converter) SecondsToTicks() float64 {
	return c.secondsToTicks
}

// Degraded reports whether the converter fell back to the identity ratio.
func (c Converter) Degraded() bool {
	return c.degraded
}

// Process-wide tick source and its lazily computed converter. The converter
// is initialized on first use and read-only afterwards; SetSource resets it.
var (
	mu        sync.Mutex
	source    clock.Source = clock.NewSystemSource()
	conv      Converter
	convReady bool
)

// SetSource replaces the process-wide tick source and resets the cached
// conversion ratio. Intended for engine bring-up and tests; production code
// configures the source once before any timestamp arithmetic runs.
func SetSource(src clock.Source) {
	mu.Lock()
	defer mu.Unlock()
	source = src
	convReady = false
}

func activeSource() clock.Source {
	mu.Lock()
	defer mu.Unlock()
	return source
}

func converter() Converter {
	mu.Lock()
	defer mu.Unlock()
	if !convReady {
		conv = NewConverter(source)
		convReady = true
	}
	return conv
}

// TicksToSeconds returns the process-wide seconds-per-tick ratio.
func TicksToSeconds() float64 {
	return converter().ticksToSeconds
}

// SecondsToTicks returns the process-wide ticks-per-second ratio.
func SecondsToTicks() float64 {
	return converter().secondsToTicks
}

// ConversionDegraded reports whether the process-wide converter fell back
// to the identity ratio because the timebase query failed.
func ConversionDegraded() bool {
	return converter().degraded
}
