package clock

import (
	"sync"
	"time"
)

// ManualSource is a deterministic tick source for tests and replay.
// Ticks advance only when told to, either directly or by stepping through
// a pre-loaded sequence of deltas. The timebase is configurable, and the
// timebase query can be made to fail to exercise degraded-conversion paths.
type ManualSource struct {
	mu sync.RWMutex

	current  Ticks
	timebase Timebase
	tbErr    error

	// Replay sequence
	start  Ticks
	deltas []time.Duration
	index  int
}

// NewManualSource creates a ManualSource with the given timebase, starting
// at tick zero.
func NewManualSource(tb Timebase) *ManualSource {
	return &ManualSource{
		timebase: tb,
	}
}

// Ticks returns the current tick count.
func (s *ManualSource) Ticks() Ticks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Timebase returns the configured timebase, or the injected error.
func (s *ManualSource) Timebase() (Timebase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tbErr != nil {
		return Timebase{}, s.tbErr
	}
	return s.timebase, nil
}

// FailTimebase makes subsequent Timebase queries return err.
// Pass nil to restore normal behavior.
func (s *ManualSource) FailTimebase(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tbErr = err
}

// Set moves the source to an absolute tick count.
func (s *ManualSource) Set(t Ticks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t
}

// AdvanceTicks moves the source forward by n ticks.
func (s *ManualSource) AdvanceTicks(n Ticks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current += n
}

// Advance moves the source forward by a wall-clock duration, converted to
// ticks through the configured timebase.
func (s *ManualSource) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current += s.durationTicks(d)
}

// durationTicks converts a duration to ticks. Must be called with lock held.
func (s *ManualSource) durationTicks(d time.Duration) Ticks {
	if !s.timebase.Valid() {
		return Ticks(d.Nanoseconds())
	}
	return Ticks(d.Seconds()*s.timebase.SecondsToTicks() + 0.5)
}

// Load initializes the source with a start tick and a sequence of deltas
// to replay via Step.
func (s *ManualSource) Load(start Ticks, deltas []time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.start = start
	s.current = start
	s.deltas = make([]time.Duration, len(deltas))
	copy(s.deltas, deltas)
	s.index = 0
}

// Step advances by the next loaded delta. Returns false when the sequence
// is exhausted.
func (s *ManualSource) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.deltas) {
		return false
	}
	s.current += s.durationTicks(s.deltas[s.index])
	s.index++
	return true
}

// Reset rewinds the source to the loaded start tick.
func (s *ManualSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.start
	s.index = 0
}

// HasNext returns true if there are more deltas to step through.
func (s *ManualSource) HasNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index < len(s.deltas)
}

// Remaining returns the number of deltas left to replay.
func (s *ManualSource) Remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deltas) - s.index
}
