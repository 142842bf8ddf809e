package linkgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// linksFromInts turns a flat int slice into a chain of links between
// consecutive values, so generated inputs cover repeats and self-loops.
func linksFromInts(vals []int) []topology.Link {
	links := make([]topology.Link, 0, len(vals)/2)
	for i := 0; i+1 < len(vals); i += 2 {
		links = append(links, topology.Link{
			NodeA: fmt.Sprintf("n%d", vals[i]),
			PortA: fmt.Sprintf("%d", i),
			NodeB: fmt.Sprintf("n%d", vals[i+1]),
			PortB: fmt.Sprintf("%d", i+1),
		})
	}
	return links
}

type halfEdge struct {
	from, to, localPort, remotePort string
}

// isSymmetric checks that every half-edge has a mirrored partner with swapped ports.
func isSymmetric(g *Graph) bool {
	counts := make(map[halfEdge]int)
	for _, node := range g.Nodes() {
		adj, _ := g.Neighbors(node)
		for _, a := range adj {
			counts[halfEdge{node, a.Neighbor, a.LocalPort, a.RemotePort}]++
		}
	}
	for he, n := range counts {
		mirror := halfEdge{he.to, he.from, he.remotePort, he.localPort}
		if counts[mirror] != n {
			return false
		}
	}
	return true
}

func TestBuild_Symmetric(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("adjacency is mirrored with swapped ports", prop.ForAll(
		func(vals []int) bool {
			return isSymmetric(Build(linksFromInts(vals), nil, nil))
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.Property("every endpoint is a graph key", prop.ForAll(
		func(vals []int) bool {
			links := linksFromInts(vals)
			g := Build(links, nil, nil)
			for _, l := range links {
				if !g.HasNode(l.NodeA) || !g.HasNode(l.NodeB) {
					return false
				}
			}
			return g.LinkCount() == len(links)
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.TestingRun(t)
}

func TestBuild_Ports(t *testing.T) {
	g := Build([]topology.Link{{NodeA: "t1", PortA: "3", NodeB: "r1", PortB: "1"}}, nil, nil)

	adj, err := g.Neighbors("t1")
	if err != nil {
		t.Fatalf("Neighbors(t1) failed: %v", err)
	}
	if len(adj) != 1 || adj[0] != (Adjacency{Neighbor: "r1", LocalPort: "3", RemotePort: "1", Weight: 1}) {
		t.Errorf("t1 adjacency = %+v", adj)
	}

	adj, _ = g.Neighbors("r1")
	if len(adj) != 1 || adj[0] != (Adjacency{Neighbor: "t1", LocalPort: "1", RemotePort: "3", Weight: 1}) {
		t.Errorf("r1 adjacency = %+v", adj)
	}
}

func TestBuild_DuplicatesAreParallel(t *testing.T) {
	l := topology.Link{NodeA: "r1", PortA: "2", NodeB: "r2", PortB: "1"}
	g := Build([]topology.Link{l, l}, nil, nil)

	adj, _ := g.Neighbors("r1")
	if len(adj) != 2 {
		t.Errorf("expected 2 parallel edges, got %d", len(adj))
	}
	if g.LinkCount() != 2 {
		t.Errorf("LinkCount = %d, want 2", g.LinkCount())
	}
}

func TestBuild_Skip(t *testing.T) {
	links := []topology.Link{
		{NodeA: "t1", PortA: "1", NodeB: "r1", PortB: "1"},
		{NodeA: "r1", PortA: "2", NodeB: "r2", PortB: "1"},
	}
	g := Build(links, nil, func(l topology.Link) bool { return l.NodeA == "t1" })

	if g.HasNode("t1") {
		t.Error("skipped link endpoint t1 should not be a key")
	}
	if g.LinkCount() != 1 {
		t.Errorf("LinkCount = %d, want 1", g.LinkCount())
	}
}

func TestNeighbors_UnknownNode(t *testing.T) {
	g := New(nil)
	if _, err := g.Neighbors("ghost"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}

	g.EnsureNode("ghost")
	adj, err := g.Neighbors("ghost")
	if err != nil || len(adj) != 0 {
		t.Errorf("EnsureNode: adj=%v err=%v", adj, err)
	}
	g.EnsureNode("ghost")
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", g.NodeCount())
	}
}

func TestKind(t *testing.T) {
	g := New(topology.Kinds{"x": topology.KindTerminal})
	if g.Kind("x") != topology.KindTerminal {
		t.Errorf("declared kind lost")
	}
	if g.Kind("r5") != topology.KindROADM {
		t.Errorf("prefix fallback failed")
	}
}
