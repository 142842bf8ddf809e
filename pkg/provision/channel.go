package provision

import (
	"sync"

	"github.com/iti/rngstream"
)

// Default channel range: 40 wavelength slots.
const (
	DefaultMinChannel = 0
	DefaultMaxChannel = 39
)

// ChannelSource picks the channel for a flow that did not ask for one.
type ChannelSource interface {
	Next() int
}

// RandomChannels draws uniformly from [min, max] on a named rngstream.
// Streams with the same name and master seed repeat the same sequence.
type RandomChannels struct {
	mu       sync.Mutex
	stream   *rngstream.RngStream
	min, max int
}

// NewRandomChannels creates a source over [min, max]. Bounds are swapped if
// given in the wrong order.
func NewRandomChannels(name string, min, max int) *RandomChannels {
	if min > max {
		min, max = max, min
	}
	return &RandomChannels{stream: rngstream.New(name), min: min, max: max}
}

// Next returns the next channel.
func (r *RandomChannels) Next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream.RandInt(r.min, r.max)
}

// Bounds returns the inclusive range.
func (r *RandomChannels) Bounds() (min, max int) { return r.min, r.max }

// FixedChannel always returns the same channel.
type FixedChannel int

func (f FixedChannel) Next() int { return int(f) }

// SeedChannels sets the master seed shared by every rngstream in the process.
func SeedChannels(seed uint64) {
	rngstream.SetRngStreamMasterSeed(seed)
}
