// Package feed distributes anchor updates from device callbacks to
// consumers. A Feed is an in-memory fan-out bus: the render thread
// publishes each fresh anchor, and schedulers or monitors subscribe with
// an optional source filter.
package feed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/BYTE-6D65/timebase/pkg/telemetry"
)

// Feed is an in-memory anchor update bus with fan-out to multiple
// subscribers and configurable buffering.
type Feed struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	closed        bool
	bufferSize    int
	dropSlow      bool // If true, drop updates for slow subscribers; if false, block
	metrics       *telemetry.Metrics
}

// Option configures a Feed.
type Option func(*Feed)

// WithBufferSize sets the buffer size for subscription channels.
func WithBufferSize(size int) Option {
	return func(f *Feed) {
		f.bufferSize = size
	}
}

// WithDropSlow configures whether to drop updates for slow subscribers
// (true) or block until they catch up (false). Publishers on audio threads
// want drop-slow.
func WithDropSlow(drop bool) Option {
	return func(f *Feed) {
		f.dropSlow = drop
	}
}

// New creates an anchor feed with the given options.
func New(opts ...Option) *Feed {
	f := &Feed{
		subscriptions: make(map[string]*Subscription),
		bufferSize:    64, // Default buffer size
		dropSlow:      false,
		metrics:       telemetry.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Publish sends an update to all subscribers whose source filter matches.
func (f *Feed) Publish(ctx context.Context, u Update) error {
	timer := telemetry.NewTimer()

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return fmt.Errorf("feed is closed")
	}

	for _, sub := range f.subscriptions {
		if !sub.matches(u) {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			sub.send(u, f.dropSlow)
		}
	}

	f.metrics.UpdatesPublished.WithLabelValues(u.Source).Inc()
	timer.Observe(f.metrics.PublishDuration.WithLabelValues(u.Source))
	return nil
}

// Subscribe creates a subscription. With no sources, every update matches;
// otherwise sources are matched with filepath.Match wildcards
// (e.g. "coreaudio:*").
func (f *Feed) Subscribe(sources ...string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fmt.Errorf("feed is closed")
	}

	sub := &Subscription{
		id:      uuid.New().String(),
		feed:    f,
		sources: sources,
		ch:      make(chan Update, f.bufferSize),
	}

	f.subscriptions[sub.id] = sub
	f.metrics.SubscribersTotal.Inc()
	return sub, nil
}

// Close shuts down the feed and all subscriptions.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	for _, sub := range f.subscriptions {
		sub.closeChannel()
		f.metrics.SubscribersTotal.Dec()
	}
	f.subscriptions = nil
	return nil
}

// Subscription is an active subscription to an anchor feed.
type Subscription struct {
	id      string
	feed    *Feed
	sources []string
	ch      chan Update
	mu      sync.Mutex
	closed  bool
}

// Updates returns the channel that receives matching anchor updates.
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

// Close unsubscribes and closes the update channel.
func (s *Subscription) Close() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()

	if _, ok := s.feed.subscriptions[s.id]; ok {
		delete(s.feed.subscriptions, s.id)
		s.feed.metrics.SubscribersTotal.Dec()
	}
	s.closeChannel()
	return nil
}

// closeChannel closes the update channel (internal use only, assumes the
// feed lock is held).
func (s *Subscription) closeChannel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// send attempts to deliver an update to the subscription channel.
func (s *Subscription) send(u Update, dropSlow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if dropSlow {
		// Non-blocking send, drop the update if the channel is full
		select {
		case s.ch <- u:
		default:
			s.feed.metrics.UpdatesDropped.WithLabelValues(u.Source).Inc()
		}
	} else {
		// Blocking send, wait for space in the channel
		s.ch <- u
	}
}

// matches checks whether an update passes the subscription's source filter.
func (s *Subscription) matches(u Update) bool {
	if len(s.sources) == 0 {
		return true
	}
	for _, pattern := range s.sources {
		matched, err := filepath.Match(pattern, u.Source)
		if err == nil && matched {
			return true
		}
	}
	return false
}
