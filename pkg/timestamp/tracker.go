package timestamp

import (
	"sync"

	"github.com/BYTE-6D65/timebase/pkg/telemetry"
)

// AnchorTracker keeps the most recent fully resolved timestamp observed
// from a device callback and resolves one-representation timestamps
// against it. It is the bridge between the render thread, which produces
// anchors, and consumers holding host-only or sample-only timestamps.
type AnchorTracker struct {
	mu       sync.RWMutex
	anchor   Timestamp
	hasAny   bool
	observed uint64
}

// NewAnchorTracker creates a tracker with no anchor.
func NewAnchorTracker() *AnchorTracker {
	return &AnchorTracker{}
}

// Observe records a new anchor. Timestamps that are not fully resolved are
// rejected and the previous anchor is kept.
func (t *AnchorTracker) Observe(ts Timestamp) bool {
	if !ts.FullyResolved() {
		telemetry.Default().AnchorsRejected.Inc()
		return false
	}

	t.mu.Lock()
	t.anchor = ts
	t.hasAny = true
	t.observed++
	t.mu.Unlock()

	telemetry.Default().AnchorsObserved.Inc()
	return true
}

// Anchor returns the most recent anchor and whether one has been observed.
func (t *AnchorTracker) Anchor() (Timestamp, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.anchor, t.hasAny
}

// Observed returns the number of anchors accepted so far.
func (t *AnchorTracker) Observed() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.observed
}

// Resolve extrapolates ts against the current anchor. Before any anchor has
// been observed, or when extrapolation preconditions don't hold, ts comes
// back unchanged.
func (t *AnchorTracker) Resolve(ts Timestamp) Timestamp {
	t.mu.RLock()
	anchor, ok := t.anchor, t.hasAny
	t.mu.RUnlock()

	if !ok {
		telemetry.Default().Resolutions.WithLabelValues("no_anchor").Inc()
		return ts
	}

	out := ts.Extrapolate(anchor)
	if out.FullyResolved() && !ts.FullyResolved() {
		telemetry.Default().Resolutions.WithLabelValues("resolved").Inc()
	} else {
		telemetry.Default().Resolutions.WithLabelValues("passthrough").Inc()
	}
	return out
}
