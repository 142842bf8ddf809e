package algorithms

import (
	"container/heap"
	"container/list"
	"errors"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-lightpath/pkg/linkgraph"
)

var (
	// ErrNoPath is returned when the destination is not reachable from the source.
	ErrNoPath = errors.New("algorithms: no path")

	// ErrNilGraph is returned when a nil graph is passed to a solver.
	ErrNilGraph = errors.New("algorithms: graph is nil")
)

// Infinity is the distance of a vertex that has not been reached.
const Infinity int64 = math.MaxInt64

// Vertex is the per-solve state of one node. Vertices are created fresh by
// every Dijkstra call and never shared between calls.
type Vertex struct {
	Name        string
	Distance    int64
	Visited     bool
	Predecessor *Vertex
}

// Tree is the shortest-path tree rooted at a source.
type Tree struct {
	source   *Vertex
	vertices map[string]*Vertex
}

// Dijkstra computes the full shortest-path tree from source.
// Stale queue entries are skipped when popped because their vertex is
// already visited.
func Dijkstra(g *linkgraph.Graph, source string) (*Tree, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.HasNode(source) {
		return nil, fmt.Errorf("%w: %q", linkgraph.ErrUnknownNode, source)
	}

	vertices := make(map[string]*Vertex, g.NodeCount())
	for _, name := range g.Nodes() {
		vertices[name] = &Vertex{Name: name, Distance: Infinity}
	}

	src := vertices[source]
	src.Distance = 0

	pq := make(vertexQueue, 0, len(vertices))
	var seq uint64
	heap.Push(&pq, &queueItem{vertex: src, distance: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*queueItem)
		u := item.vertex
		if u.Visited {
			continue
		}
		u.Visited = true

		adj, err := g.Neighbors(u.Name)
		if err != nil {
			return nil, err
		}

		for _, a := range adj {
			v, ok := vertices[a.Neighbor]
			if !ok {
				return nil, fmt.Errorf("%w: %q (neighbor of %q)", linkgraph.ErrUnknownNode, a.Neighbor, u.Name)
			}
			if v.Visited {
				continue
			}
			if d := u.Distance + a.Weight; d < v.Distance {
				v.Distance = d
				v.Predecessor = u
				seq++
				heap.Push(&pq, &queueItem{vertex: v, distance: d, seq: seq})
			}
		}
	}

	return &Tree{source: src, vertices: vertices}, nil
}

// Source returns the root of the tree.
func (t *Tree) Source() string { return t.source.Name }

// Distance returns the hop distance to node and whether it was reached.
func (t *Tree) Distance(node string) (int64, bool) {
	v, ok := t.vertices[node]
	if !ok || v.Distance == Infinity {
		return Infinity, false
	}
	return v.Distance, true
}

// PathTo returns the node sequence from the source to dest, both inclusive.
func (t *Tree) PathTo(dest string) ([]string, error) {
	v, ok := t.vertices[dest]
	if !ok {
		return nil, fmt.Errorf("%w: %q", linkgraph.ErrUnknownNode, dest)
	}
	if v != t.source && v.Predecessor == nil {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoPath, t.source.Name, dest)
	}

	path := make([]string, 0, v.Distance+1)
	for node := v; node != nil; node = node.Predecessor {
		path = append(path, node.Name)
	}

	// Reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// ShortestPath returns the node sequence of a shortest path from src to dst.
func ShortestPath(g *linkgraph.Graph, src, dst string) ([]string, error) {
	tree, err := Dijkstra(g, src)
	if err != nil {
		return nil, err
	}
	return tree.PathTo(dst)
}

// HopDistances returns the BFS hop count from source to every reachable node.
func HopDistances(g *linkgraph.Graph, source string) (map[string]int, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.HasNode(source) {
		return nil, fmt.Errorf("%w: %q", linkgraph.ErrUnknownNode, source)
	}

	distances := make(map[string]int)
	distances[source] = 0

	queue := list.New()
	queue.PushBack(source)

	for queue.Len() > 0 {
		current := queue.Remove(queue.Front()).(string)
		currentDist := distances[current]

		adj, err := g.Neighbors(current)
		if err != nil {
			continue
		}

		for _, a := range adj {
			if _, visited := distances[a.Neighbor]; !visited {
				distances[a.Neighbor] = currentDist + 1
				queue.PushBack(a.Neighbor)
			}
		}
	}

	return distances, nil
}

// queueItem is one heap entry; seq breaks distance ties in push order.
type queueItem struct {
	vertex   *Vertex
	distance int64
	seq      uint64
}

type vertexQueue []*queueItem

func (pq vertexQueue) Len() int { return len(pq) }

func (pq vertexQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].seq < pq[j].seq
}

func (pq vertexQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *vertexQueue) Push(x any) { *pq = append(*pq, x.(*queueItem)) }

func (pq *vertexQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
