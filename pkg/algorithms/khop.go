package algorithms

import (
	"fmt"

	"github.com/dd0wney/cluso-lightpath/pkg/linkgraph"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// KHopOptions configures the k-hop neighbourhood traversal.
type KHopOptions struct {
	MaxHops    int                 // must be >= 1
	Through    []topology.NodeKind // kinds the walk may pass through; nil means all
	MaxResults int                 // 0 = unlimited; BFS order gives closer nodes priority
}

// KHopResult holds the BFS neighbourhood of a source node.
type KHopResult struct {
	Source         string
	ByHop          map[int][]string // hop distance → nodes at that distance
	Distances      map[string]int   // node → shortest hop count
	TotalReachable int
}

// DefaultKHopOptions returns sensible defaults.
func DefaultKHopOptions() KHopOptions {
	return KHopOptions{MaxHops: 2}
}

type bfsEntry struct {
	node string
	hop  int
}

// KHopNeighbours performs a BFS from source up to MaxHops levels, returning
// all discovered nodes grouped by distance. The source is never included.
//
// When Through is set, nodes of other kinds are still reported but the walk
// does not continue past them, so a walk through ROADMs only stops at the
// terminals that bound the optical domain.
func KHopNeighbours(g *linkgraph.Graph, source string, opts KHopOptions) (*KHopResult, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if opts.MaxHops < 1 {
		return nil, fmt.Errorf("MaxHops must be >= 1, got %d", opts.MaxHops)
	}
	if !g.HasNode(source) {
		return nil, fmt.Errorf("%w: %q", linkgraph.ErrUnknownNode, source)
	}

	through := make(map[topology.NodeKind]bool, len(opts.Through))
	for _, k := range opts.Through {
		through[k] = true
	}

	result := &KHopResult{
		Source:    source,
		ByHop:     make(map[int][]string),
		Distances: make(map[string]int),
	}
	visited := map[string]bool{source: true}
	queue := []bfsEntry{{node: source, hop: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.hop >= opts.MaxHops {
			continue
		}
		if current.node != source && len(through) > 0 && !through[g.Kind(current.node)] {
			continue
		}

		adj, err := g.Neighbors(current.node)
		if err != nil {
			continue
		}

		nextHop := current.hop + 1
		for _, a := range adj {
			if visited[a.Neighbor] {
				continue
			}
			visited[a.Neighbor] = true
			result.Distances[a.Neighbor] = nextHop
			result.ByHop[nextHop] = append(result.ByHop[nextHop], a.Neighbor)
			result.TotalReachable++

			if opts.MaxResults > 0 && result.TotalReachable >= opts.MaxResults {
				return result, nil
			}

			queue = append(queue, bfsEntry{node: a.Neighbor, hop: nextHop})
		}
	}

	return result, nil
}
