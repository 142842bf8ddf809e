package algorithms

import (
	"container/list"

	"github.com/dd0wney/cluso-lightpath/pkg/linkgraph"
)

// Component is one connected island of the link graph.
type Component struct {
	ID    int
	Nodes []string // BFS order from the smallest node name
	Size  int
}

// ConnectedComponents finds all connected components of g. Components are
// numbered in order of their smallest node name.
func ConnectedComponents(g *linkgraph.Graph) ([]Component, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	visited := make(map[string]bool, g.NodeCount())
	components := make([]Component, 0)

	// BFS to find each component
	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}

		component := Component{ID: len(components), Nodes: make([]string, 0)}

		queue := list.New()
		queue.PushBack(start)
		visited[start] = true

		for queue.Len() > 0 {
			node, ok := queue.Remove(queue.Front()).(string)
			if !ok {
				continue
			}
			component.Nodes = append(component.Nodes, node)

			adj, _ := g.Neighbors(node)
			for _, a := range adj {
				if !visited[a.Neighbor] {
					visited[a.Neighbor] = true
					queue.PushBack(a.Neighbor)
				}
			}
		}

		component.Size = len(component.Nodes)
		components = append(components, component)
	}

	return components, nil
}

// ComponentOf maps every node to the ID of its component.
func ComponentOf(components []Component) map[string]int {
	out := make(map[string]int)
	for _, c := range components {
		for _, n := range c.Nodes {
			out[n] = c.ID
		}
	}
	return out
}
