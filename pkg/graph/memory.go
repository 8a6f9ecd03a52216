package graph

import (
	"fmt"
)

// MemoryGraph is a directed graph held in flat edge arrays. Nodes are keyed
// by an arbitrary comparable type and receive dense ids in insertion order.
// It is the host-side container used to hand graphs to the algorithms; it is
// not safe for concurrent mutation.
type MemoryGraph[K comparable] struct {
	keys    []K
	ids     map[K]int
	src     []int
	dst     []int
	weights []float64
}

// NewMemoryGraph creates an empty graph.
func NewMemoryGraph[K comparable]() *MemoryGraph[K] {
	return &MemoryGraph[K]{
		ids: make(map[K]int),
	}
}

// AddNode adds key if it is not present and returns its id.
func (g *MemoryGraph[K]) AddNode(key K) int {
	if id, ok := g.ids[key]; ok {
		return id
	}
	id := len(g.keys)
	g.keys = append(g.keys, key)
	g.ids[key] = id
	return id
}

// AddEdge adds a directed edge with weight 1, creating missing endpoints.
func (g *MemoryGraph[K]) AddEdge(from, to K) error {
	return g.AddWeightedEdge(from, to, 1.0)
}

// AddWeightedEdge adds a directed weighted edge, creating missing endpoints.
// Parallel edges are kept as separate entries.
func (g *MemoryGraph[K]) AddWeightedEdge(from, to K, weight float64) error {
	if err := checkWeight(weight); err != nil {
		return fmt.Errorf("edge %v->%v: %w", from, to, err)
	}
	u := g.AddNode(from)
	v := g.AddNode(to)
	g.src = append(g.src, u)
	g.dst = append(g.dst, v)
	g.weights = append(g.weights, weight)
	return nil
}

func (g *MemoryGraph[K]) NumNodes() int { return len(g.keys) }
func (g *MemoryGraph[K]) NumEdges() int { return len(g.src) }

// EdgeEndpoints returns the endpoints of edge. It panics on an invalid index,
// like a slice access; use Edge for a checked lookup.
func (g *MemoryGraph[K]) EdgeEndpoints(edge int) (int, int) {
	return g.src[edge], g.dst[edge]
}

func (g *MemoryGraph[K]) EdgeWeight(edge int) float64 {
	return g.weights[edge]
}

// Edge returns the endpoints and weight of edge with bounds checking.
func (g *MemoryGraph[K]) Edge(edge int) (src, dst int, weight float64, err error) {
	if edge < 0 || edge >= len(g.src) {
		return 0, 0, 0, fmt.Errorf("edge %d of %d: %w", edge, len(g.src), ErrEdgeOutOfRange)
	}
	return g.src[edge], g.dst[edge], g.weights[edge], nil
}

// Node returns the external key of id.
func (g *MemoryGraph[K]) Node(id int) (K, error) {
	if id < 0 || id >= len(g.keys) {
		var zero K
		return zero, fmt.Errorf("node %d of %d: %w", id, len(g.keys), ErrNodeOutOfRange)
	}
	return g.keys[id], nil
}

// NodeID returns the internal id of key.
func (g *MemoryGraph[K]) NodeID(key K) (int, error) {
	id, ok := g.ids[key]
	if !ok {
		return -1, fmt.Errorf("%w: %v", ErrUnknownNode, key)
	}
	return id, nil
}

// Clone creates a deep copy of the graph.
func (g *MemoryGraph[K]) Clone() *MemoryGraph[K] {
	clone := &MemoryGraph[K]{
		keys:    make([]K, len(g.keys)),
		ids:     make(map[K]int, len(g.ids)),
		src:     make([]int, len(g.src)),
		dst:     make([]int, len(g.dst)),
		weights: make([]float64, len(g.weights)),
	}
	copy(clone.keys, g.keys)
	copy(clone.src, g.src)
	copy(clone.dst, g.dst)
	copy(clone.weights, g.weights)
	for k, v := range g.ids {
		clone.ids[k] = v
	}
	return clone
}

var _ Labeled[string] = (*MemoryGraph[string])(nil)
