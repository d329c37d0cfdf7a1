package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BYTE-6D65/timebase/pkg/clock"
	"github.com/BYTE-6D65/timebase/pkg/timestamp"
)

func anchorAt(ticks clock.Ticks, frame int64) timestamp.Timestamp {
	return timestamp.Resolved(ticks, frame, 48000)
}

func mustUpdate(t *testing.T, source string, ticks clock.Ticks, frame int64) Update {
	t.Helper()
	u, err := NewUpdate(source, anchorAt(ticks, frame))
	if err != nil {
		t.Fatalf("NewUpdate failed: %v", err)
	}
	return u
}

func recvUpdate(t *testing.T, sub *Subscription) Update {
	t.Helper()
	select {
	case u, ok := <-sub.Updates():
		if !ok {
			t.Fatal("Subscription channel closed unexpectedly")
		}
		return u
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for update")
	}
	return Update{}
}

func TestNewUpdate_RequiresResolved(t *testing.T) {
	if _, err := NewUpdate("coreaudio:output0", timestamp.AtHostTicks(100)); !errors.Is(err, ErrNotResolved) {
		t.Errorf("Expected ErrNotResolved for host-only timestamp, got %v", err)
	}
	if _, err := NewUpdate("coreaudio:output0", timestamp.AtSampleFrame(0, 48000)); !errors.Is(err, ErrNotResolved) {
		t.Errorf("Expected ErrNotResolved for sample-only timestamp, got %v", err)
	}

	u, err := NewUpdate("coreaudio:output0", anchorAt(1_000_000, 480))
	if err != nil {
		t.Fatalf("Expected success for resolved timestamp, got %v", err)
	}
	if u.ID == "" {
		t.Error("Expected a generated ID")
	}
	if u.WallTime.IsZero() {
		t.Error("Expected a wall time")
	}
}

func TestUpdate_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		u := mustUpdate(t, "coreaudio:output0", clock.Ticks(i), int64(i))
		if seen[u.ID] {
			t.Fatalf("Duplicate update ID %q", u.ID)
		}
		seen[u.ID] = true
	}
}

func TestUpdate_TimestampRoundTrip(t *testing.T) {
	anchor := anchorAt(1_000_000, 24000)
	u := mustUpdate(t, "coreaudio:output0", 1_000_000, 24000)

	if got := u.Timestamp(); got != anchor {
		t.Errorf("Timestamp round trip failed: %v != %v", got, anchor)
	}
}

func TestUpdate_EncodeDecode(t *testing.T) {
	u := mustUpdate(t, "coreaudio:output0", 98_765_432, -480)

	data, err := Encode(u)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.ID != u.ID || decoded.Source != u.Source {
		t.Error("Identity fields lost in round trip")
	}
	if decoded.HostTicks != u.HostTicks || decoded.SampleFrame != u.SampleFrame || decoded.SampleRate != u.SampleRate {
		t.Error("Anchor fields lost in round trip")
	}
	if !decoded.WallTime.Equal(u.WallTime) {
		t.Errorf("Wall time lost in round trip: %v != %v", decoded.WallTime, u.WallTime)
	}
}

func TestFeed_PublishSubscribe(t *testing.T) {
	f := New()
	defer f.Close()

	sub, err := f.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	sent := mustUpdate(t, "coreaudio:output0", 1_000_000, 0)
	if err := f.Publish(context.Background(), sent); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got := recvUpdate(t, sub)
	if got.ID != sent.ID {
		t.Errorf("Received wrong update: %q != %q", got.ID, sent.ID)
	}
}

func TestFeed_FanOut(t *testing.T) {
	f := New()
	defer f.Close()

	var subs []*Subscription
	for i := 0; i < 3; i++ {
		sub, err := f.Subscribe()
		if err != nil {
			t.Fatalf("Subscribe %d failed: %v", i, err)
		}
		subs = append(subs, sub)
	}

	sent := mustUpdate(t, "coreaudio:output0", 42, 0)
	if err := f.Publish(context.Background(), sent); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for i, sub := range subs {
		got := recvUpdate(t, sub)
		if got.ID != sent.ID {
			t.Errorf("Subscriber %d received wrong update", i)
		}
	}
}

func TestFeed_SourceFilter(t *testing.T) {
	f := New()
	defer f.Close()

	outputOnly, err := f.Subscribe("coreaudio:output*")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	all, err := f.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	input := mustUpdate(t, "coreaudio:input0", 1, 0)
	output := mustUpdate(t, "coreaudio:output0", 2, 0)

	ctx := context.Background()
	if err := f.Publish(ctx, input); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := f.Publish(ctx, output); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Filtered subscriber sees only the output update
	got := recvUpdate(t, outputOnly)
	if got.Source != "coreaudio:output0" {
		t.Errorf("Filter leaked update from %q", got.Source)
	}
	select {
	case extra := <-outputOnly.Updates():
		t.Errorf("Filter passed unexpected update from %q", extra.Source)
	default:
	}

	// Unfiltered subscriber sees both
	if got := recvUpdate(t, all); got.Source != "coreaudio:input0" {
		t.Errorf("Expected input update first, got %q", got.Source)
	}
	if got := recvUpdate(t, all); got.Source != "coreaudio:output0" {
		t.Errorf("Expected output update second, got %q", got.Source)
	}
}

func TestFeed_DropSlow(t *testing.T) {
	f := New(WithBufferSize(1), WithDropSlow(true))
	defer f.Close()

	sub, err := f.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	ctx := context.Background()
	first := mustUpdate(t, "coreaudio:output0", 1, 0)
	second := mustUpdate(t, "coreaudio:output0", 2, 0)

	// Buffer holds one update; the second must be dropped, not block
	done := make(chan struct{})
	go func() {
		_ = f.Publish(ctx, first)
		_ = f.Publish(ctx, second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with drop-slow enabled")
	}

	got := recvUpdate(t, sub)
	if got.ID != first.ID {
		t.Errorf("Expected first update to survive, got %q", got.ID)
	}
	select {
	case extra := <-sub.Updates():
		t.Errorf("Expected second update to be dropped, got %q", extra.ID)
	default:
	}
}

func TestFeed_SubscriptionClose(t *testing.T) {
	f := New()
	defer f.Close()

	sub, err := f.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Subscription close failed: %v", err)
	}

	// Publishing after unsubscribe must not panic or deliver
	if err := f.Publish(context.Background(), mustUpdate(t, "coreaudio:output0", 1, 0)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if _, ok := <-sub.Updates(); ok {
		t.Error("Expected closed channel after unsubscribe")
	}

	// Closing twice is safe
	if err := sub.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestFeed_Close(t *testing.T) {
	f := New()

	sub, err := f.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, ok := <-sub.Updates(); ok {
		t.Error("Expected subscription channel to close with the feed")
	}

	if err := f.Publish(context.Background(), mustUpdate(t, "coreaudio:output0", 1, 0)); err == nil {
		t.Error("Expected publish on closed feed to error")
	}
	if _, err := f.Subscribe(); err == nil {
		t.Error("Expected subscribe on closed feed to error")
	}

	// Closing twice is safe
	if err := f.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestFeed_PublishCancelledContext(t *testing.T) {
	f := New()
	defer f.Close()

	if _, err := f.Subscribe(); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Publish(ctx, mustUpdate(t, "coreaudio:output0", 1, 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
