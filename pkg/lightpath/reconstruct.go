package lightpath

import (
	"fmt"

	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// Hop is one node on a light-path with the ports the path uses on it.
// An empty port means the path does not traverse that side (endpoints).
type Hop struct {
	Node    string
	InPort  string // port facing the previous hop
	OutPort string // port facing the next hop
	Kind    topology.NodeKind
}

// Reconstruct resolves the ports of every step of nodes against the raw
// links. For each consecutive (start, end) a link declared as (start, end)
// wins over one declared as (end, start); consumed links never match.
//
// Links touching a terminal are marked in consumed once the whole path has
// been resolved, so a failed reconstruction leaves consumed untouched.
// consumed may be nil.
func Reconstruct(nodes []string, links []topology.Link, kinds topology.Kinds, consumed *Consumed) ([]Hop, []topology.Link, error) {
	if len(nodes) == 0 {
		return nil, nil, ErrEmptyPath
	}

	hops := make([]Hop, len(nodes))
	for i, n := range nodes {
		hops[i] = Hop{Node: n, Kind: kinds.Of(n)}
	}

	used := make([]topology.Link, 0, len(nodes)-1)
	for i := 0; i+1 < len(nodes); i++ {
		start, end := nodes[i], nodes[i+1]

		link, startPort, endPort, ok := matchStep(links, consumed, start, end)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s-%s", ErrTopologyMismatch, start, end)
		}

		hops[i].OutPort = startPort
		hops[i+1].InPort = endPort
		used = append(used, link)
	}

	if consumed != nil {
		for _, l := range used {
			if kinds.Of(l.NodeA) == topology.KindTerminal || kinds.Of(l.NodeB) == topology.KindTerminal {
				consumed.Mark(l)
			}
		}
	}

	return hops, used, nil
}

// matchStep finds the raw link for start→end and returns the port on each side.
func matchStep(links []topology.Link, consumed *Consumed, start, end string) (topology.Link, string, string, bool) {
	for _, l := range links {
		if l.NodeA == start && l.NodeB == end && !consumed.Has(l) {
			return l, l.PortA, l.PortB, true
		}
	}
	for _, l := range links {
		if l.NodeA == end && l.NodeB == start && !consumed.Has(l) {
			return l, l.PortB, l.PortA, true
		}
	}
	return topology.Link{}, "", "", false
}
