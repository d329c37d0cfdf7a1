package feed

import (
	"errors"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/BYTE-6D65/timebase/pkg/clock"
	"github.com/BYTE-6D65/timebase/pkg/timestamp"
)

// ErrNotResolved is returned when an update is built from a timestamp that
// is missing a representation. Only fully resolved timestamps can serve as
// anchors for downstream consumers.
var ErrNotResolved = errors.New("feed: timestamp is not fully resolved")

// Update is the envelope for a fully resolved anchor published by a device
// callback. It is flat and JSON-serializable so it can be logged, exported,
// or replayed.
type Update struct {
	// ID is a unique identifier for this update instance
	ID string `json:"id"`

	// Source identifies the originating device or subsystem (e.g. "coreaudio:output0")
	Source string `json:"source"`

	// WallTime indicates when the update was created
	WallTime time.Time `json:"wall_time"`

	// HostTicks and SampleFrame/SampleRate carry the anchor's two representations
	HostTicks   clock.Ticks `json:"host_ticks"`
	SampleFrame int64       `json:"sample_frame"`
	SampleRate  float64     `json:"sample_rate"`
}

// NewUpdate creates an update with a generated ID and current wall time.
// Returns ErrNotResolved unless ts carries both representations.
func NewUpdate(source string, ts timestamp.Timestamp) (Update, error) {
	if !ts.FullyResolved() {
		return Update{}, ErrNotResolved
	}

	ticks, _ := ts.HostTicks()
	frame, _ := ts.SampleFrame()

	return Update{
		ID:          uuid.New().String(),
		Source:      source,
		WallTime:    time.Now(),
		HostTicks:   ticks,
		SampleFrame: frame,
		SampleRate:  ts.SampleRate(),
	}, nil
}

// Timestamp reconstructs the fully resolved anchor carried by the update.
func (u Update) Timestamp() timestamp.Timestamp {
	return timestamp.Resolved(u.HostTicks, u.SampleFrame, u.SampleRate)
}

// Encode serializes an update to JSON.
func Encode(u Update) ([]byte, error) {
	return json.Marshal(u)
}

// Decode deserializes an update from JSON.
func Decode(data []byte) (Update, error) {
	var u Update
	err := json.Unmarshal(data, &u)
	return u, err
}
