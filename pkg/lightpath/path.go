// Package lightpath turns a link snapshot into port-resolved light-paths.
//
// Path computation here is pure: it reads a link list, never touches the
// network, and records consumed links only in the set it is handed.
package lightpath

import (
	"github.com/dd0wney/cluso-lightpath/pkg/algorithms"
	"github.com/dd0wney/cluso-lightpath/pkg/linkgraph"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// Path is a port-resolved route between two nodes.
type Path struct {
	Source      string
	Destination string
	Nodes       []string
	Hops        []Hop
	Links       []topology.Link // resolved raw link per step, in path order
}

// HopCount returns the number of links on the path.
func (p *Path) HopCount() int { return len(p.Links) }

// Compute finds a shortest light-path from src to dst over links, excluding
// the links in consumed, and marks the terminal-adjacent links it uses.
//
// src and dst are registered as graph nodes before solving, so a node that
// has no links yields a no-path error rather than an unknown-node error.
func Compute(links []topology.Link, kinds topology.Kinds, consumed *Consumed, src, dst string) (*Path, error) {
	g := linkgraph.Build(links, kinds, consumed.Has)
	g.EnsureNode(src)
	g.EnsureNode(dst)

	tree, err := algorithms.Dijkstra(g, src)
	if err != nil {
		return nil, stageErr(StageSolve, err)
	}
	nodes, err := tree.PathTo(dst)
	if err != nil {
		return nil, stageErr(StageSolve, err)
	}

	hops, used, err := Reconstruct(nodes, links, kinds, consumed)
	if err != nil {
		return nil, stageErr(StageReconstruct, err)
	}

	return &Path{
		Source:      src,
		Destination: dst,
		Nodes:       nodes,
		Hops:        hops,
		Links:       used,
	}, nil
}
