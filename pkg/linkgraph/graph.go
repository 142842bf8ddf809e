// Package linkgraph builds the undirected, unit-weight adjacency graph that
// path computation runs over. The graph only records which nodes are adjacent
// and through which ports; it never owns the raw link list.
package linkgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// ErrUnknownNode is returned when a node is not a key of the graph.
var ErrUnknownNode = errors.New("linkgraph: unknown node")

// Adjacency is one directed half of a physical link.
type Adjacency struct {
	Neighbor   string
	LocalPort  string // port on the owning node
	RemotePort string // port on Neighbor
	Weight     int64
}

// Graph maps each node to its ordered adjacency list.
type Graph struct {
	adj   map[string][]Adjacency
	kinds topology.Kinds
	links int
}

// New returns an empty graph. kinds may be nil.
func New(kinds topology.Kinds) *Graph {
	if kinds == nil {
		kinds = topology.Kinds{}
	}
	return &Graph{
		adj:   make(map[string][]Adjacency),
		kinds: kinds,
	}
}

// Build inserts every link in order, skipping those for which skip returns true.
// skip may be nil.
func Build(links []topology.Link, kinds topology.Kinds, skip func(topology.Link) bool) *Graph {
	g := New(kinds)
	for _, l := range links {
		if skip != nil && skip(l) {
			continue
		}
		g.AddLink(l)
	}
	return g
}

// AddLink inserts A→B and the mirrored B→A, both with weight 1.
// Re-adding the same link creates a parallel edge.
func (g *Graph) AddLink(l topology.Link) {
	g.adj[l.NodeA] = append(g.adj[l.NodeA], Adjacency{
		Neighbor:   l.NodeB,
		LocalPort:  l.PortA,
		RemotePort: l.PortB,
		Weight:     1,
	})
	g.adj[l.NodeB] = append(g.adj[l.NodeB], Adjacency{
		Neighbor:   l.NodeA,
		LocalPort:  l.PortB,
		RemotePort: l.PortA,
		Weight:     1,
	})
	g.links++
}

// EnsureNode registers name with an empty adjacency list if it is not present.
func (g *Graph) EnsureNode(name string) {
	if _, ok := g.adj[name]; !ok {
		g.adj[name] = []Adjacency{}
	}
}

// HasNode reports whether name is a key of the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.adj[name]
	return ok
}

// Neighbors returns the adjacency list of name.
func (g *Graph) Neighbors(name string) ([]Adjacency, error) {
	adj, ok := g.adj[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return adj, nil
}

// Nodes returns all node names in sorted order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.adj))
	for name := range g.adj {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return nodes
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.adj) }

// LinkCount returns the number of physical links inserted, parallels included.
func (g *Graph) LinkCount() int { return g.links }

// Kind returns the kind tag of name.
func (g *Graph) Kind(name string) topology.NodeKind {
	return g.kinds.Of(name)
}
