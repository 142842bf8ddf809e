package lightpath

import (
	"sort"

	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// Consumed is the set of physical links already occupied by an earlier
// light-path of the same batch. A nil *Consumed is an empty set.
type Consumed struct {
	ids map[topology.LinkID]struct{}
}

// NewConsumed returns an empty set.
func NewConsumed() *Consumed {
	return &Consumed{ids: make(map[topology.LinkID]struct{})}
}

// Mark records l as consumed in either orientation.
func (c *Consumed) Mark(l topology.Link) {
	c.ids[l.ID()] = struct{}{}
}

// Has reports whether l, in either orientation, is consumed.
func (c *Consumed) Has(l topology.Link) bool {
	if c == nil {
		return false
	}
	_, ok := c.ids[l.ID()]
	return ok
}

// Len returns the number of consumed links.
func (c *Consumed) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// Clone returns an independent copy.
func (c *Consumed) Clone() *Consumed {
	out := NewConsumed()
	if c == nil {
		return out
	}
	for id := range c.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// IDs returns the consumed link ids in sorted order.
func (c *Consumed) IDs() []topology.LinkID {
	if c == nil {
		return nil
	}
	ids := make([]topology.LinkID, 0, len(c.ids))
	for id := range c.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
