package lightpath

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// Batch owns a private copy of a link snapshot and the links consumed by the
// light-paths computed from it. Paths computed on the same batch never share
// a terminal-adjacent link; separate batches are independent.
type Batch struct {
	ID uuid.UUID

	mu       sync.Mutex
	links    []topology.Link
	kinds    topology.Kinds
	consumed *Consumed
}

// NewBatch copies links and kinds into a new batch.
func NewBatch(links []topology.Link, kinds topology.Kinds) *Batch {
	own := make([]topology.Link, len(links))
	copy(own, links)

	k := make(topology.Kinds, len(kinds))
	k.Merge(kinds)

	return &Batch{
		ID:       uuid.New(),
		links:    own,
		kinds:    k,
		consumed: NewConsumed(),
	}
}

// Compute finds the next light-path of the batch.
func (b *Batch) Compute(src, dst string) (*Path, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Compute(b.links, b.kinds, b.consumed, src, dst)
}

// Links returns a copy of the batch's link snapshot.
func (b *Batch) Links() []topology.Link {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]topology.Link, len(b.links))
	copy(out, b.links)
	return out
}

// Kinds returns the node kinds of the snapshot.
func (b *Batch) Kinds() topology.Kinds {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(topology.Kinds, len(b.kinds))
	out.Merge(b.kinds)
	return out
}

// Consumed returns the ids of the links consumed so far.
func (b *Batch) Consumed() []topology.LinkID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed.IDs()
}

// Source supplies a topology snapshot.
type Source interface {
	Topology(ctx context.Context) ([]topology.Link, topology.Kinds, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]topology.Link, topology.Kinds, error)

func (f SourceFunc) Topology(ctx context.Context) ([]topology.Link, topology.Kinds, error) {
	return f(ctx)
}

// Load fetches a snapshot from src and starts a batch over it. Mirrored
// declarations of the same link are collapsed first.
func Load(ctx context.Context, src Source) (*Batch, error) {
	links, kinds, err := src.Topology(ctx)
	if err != nil {
		if isMalformed(err) {
			return nil, stageErr(StageFlatten, err)
		}
		return nil, stageErr(StageFetch, err)
	}
	return NewBatch(topology.Normalize(links), kinds), nil
}

func isMalformed(err error) bool {
	return errors.Is(err, topology.ErrMalformedDocument) ||
		errors.Is(err, topology.ErrMalformedLinkKey) ||
		errors.Is(err, topology.ErrMalformedLink)
}
