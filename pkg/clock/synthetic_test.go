package clock

import (
	"errors"
	"testing"
	"time"
)

func TestManualSource_SetAndAdvance(t *testing.T) {
	src := NewManualSource(Identity)

	if got := src.Ticks(); got != 0 {
		t.Errorf("Expected tick zero at creation, got %d", got)
	}

	src.Set(1_000_000)
	if got := src.Ticks(); got != 1_000_000 {
		t.Errorf("Set failed: got %d", got)
	}

	src.AdvanceTicks(500)
	if got := src.Ticks(); got != 1_000_500 {
		t.Errorf("AdvanceTicks failed: got %d", got)
	}

	// Identity timebase: 1ms = 1,000,000 ticks
	src.Advance(time.Millisecond)
	if got := src.Ticks(); got != 2_000_500 {
		t.Errorf("Advance failed: got %d", got)
	}
}

func TestManualSource_AdvanceWithTimebase(t *testing.T) {
	// 24 MHz counter (Apple Silicon style): 1s = 24,000,000 ticks
	src := NewManualSource(Timebase{Numer: 125, Denom: 3})

	src.Advance(time.Second)
	if got := src.Ticks(); got != 24_000_000 {
		t.Errorf("Expected 24,000,000 ticks after 1s, got %d", got)
	}

	src.Advance(500 * time.Millisecond)
	if got := src.Ticks(); got != 36_000_000 {
		t.Errorf("Expected 36,000,000 ticks after 1.5s, got %d", got)
	}
}

func TestManualSource_Replay(t *testing.T) {
	src := NewManualSource(Identity)

	deltas := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		5 * time.Millisecond,
	}
	src.Load(1000, deltas)

	if got := src.Ticks(); got != 1000 {
		t.Errorf("Expected start tick 1000, got %d", got)
	}
	if src.Remaining() != 3 {
		t.Errorf("Expected 3 remaining deltas, got %d", src.Remaining())
	}

	expected := []Ticks{
		1000 + 10_000_000,
		1000 + 30_000_000,
		1000 + 35_000_000,
	}

	for i, want := range expected {
		if !src.Step() {
			t.Fatalf("Step %d: sequence exhausted early", i)
		}
		if got := src.Ticks(); got != want {
			t.Errorf("Step %d: expected %d, got %d", i, want, got)
		}
	}

	if src.Step() {
		t.Error("Expected Step to return false after exhaustion")
	}
	if src.HasNext() {
		t.Error("Expected HasNext to be false after exhaustion")
	}
}

func TestManualSource_Reset(t *testing.T) {
	src := NewManualSource(Identity)
	src.Load(500, []time.Duration{time.Millisecond, time.Millisecond})

	src.Step()
	src.Step()
	src.Reset()

	if got := src.Ticks(); got != 500 {
		t.Errorf("Expected tick 500 after reset, got %d", got)
	}
	if src.Remaining() != 2 {
		t.Errorf("Expected 2 remaining deltas after reset, got %d", src.Remaining())
	}
}

func TestManualSource_ReplayDeterministic(t *testing.T) {
	deltas := []time.Duration{
		3 * time.Millisecond,
		7 * time.Millisecond,
		11 * time.Millisecond,
	}

	run := func() []Ticks {
		src := NewManualSource(Timebase{Numer: 125, Denom: 3})
		src.Load(0, deltas)
		var out []Ticks
		for src.Step() {
			out = append(out, src.Ticks())
		}
		return out
	}

	first := run()
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Replay not deterministic at %d: %d != %d", i, first[i], second[i])
		}
		if i > 0 && first[i] <= first[i-1] {
			t.Errorf("Replay not monotonic at %d: %d -> %d", i, first[i-1], first[i])
		}
	}

	t.Logf("Replay produced %d deterministic tick values", len(first))
}

func TestManualSource_FailTimebase(t *testing.T) {
	src := NewManualSource(Timebase{Numer: 125, Denom: 3})

	queryErr := errors.New("timebase query unavailable")
	src.FailTimebase(queryErr)

	if _, err := src.Timebase(); !errors.Is(err, queryErr) {
		t.Errorf("Expected injected error, got %v", err)
	}

	src.FailTimebase(nil)
	tb, err := src.Timebase()
	if err != nil {
		t.Fatalf("Expected recovery after clearing error, got %v", err)
	}
	if tb.Numer != 125 || tb.Denom != 3 {
		t.Errorf("Expected 125/3 timebase, got %d/%d", tb.Numer, tb.Denom)
	}
}

func TestManualSource_Concurrent(t *testing.T) {
	src := NewManualSource(Identity)
	done := make(chan bool)

	for i := 0; i < 5; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				src.AdvanceTicks(1)
				_ = src.Ticks()
				_, _ = src.Timebase()
			}
			done <- true
		}()
	}

	for i := 0; i < 5; i++ {
		<-done
	}

	if got := src.Ticks(); got != 500 {
		t.Errorf("Expected 500 ticks after concurrent advances, got %d", got)
	}
}
