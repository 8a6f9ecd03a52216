// Package graph defines the read-only graph surface consumed by the community
// detection algorithms, a small in-memory host container, and the compressed
// neighbor index both Louvain and personalized PageRank iterate over.
package graph

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNodeOutOfRange is returned for node ids outside 0..NumNodes-1.
	ErrNodeOutOfRange = errors.New("node id out of range")

	// ErrEdgeOutOfRange is returned for edge indexes outside 0..NumEdges-1.
	ErrEdgeOutOfRange = errors.New("edge index out of range")

	// ErrInvalidWeight is returned for negative, NaN or infinite edge weights.
	ErrInvalidWeight = errors.New("invalid edge weight")

	// ErrUnknownNode is returned when an external key has no internal id.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNilGraph is returned when a nil graph is handed to a consumer.
	ErrNilGraph = errors.New("graph is nil")
)

// Graph is the minimal read-only query surface of a directed, optionally
// weighted graph whose nodes are the dense integers 0..NumNodes()-1.
type Graph interface {
	NumNodes() int
	NumEdges() int
	// EdgeEndpoints returns the source and destination ids of an edge.
	EdgeEndpoints(edge int) (src, dst int)
	// EdgeWeight returns the weight of an edge; unweighted graphs return 1.
	EdgeWeight(edge int) float64
}

// Labeled is a Graph that also maps internal ids to external node keys.
type Labeled[K comparable] interface {
	Graph
	Node(id int) (K, error)
	NodeID(key K) (int, error)
}

// Validate checks that every edge of g references valid node ids and carries
// a finite non-negative weight.
func Validate(g Graph) error {
	if g == nil {
		return ErrNilGraph
	}
	n := g.NumNodes()
	if n < 0 {
		return fmt.Errorf("negative node count %d", n)
	}
	for e := 0; e < g.NumEdges(); e++ {
		src, dst := g.EdgeEndpoints(e)
		if src < 0 || src >= n || dst < 0 || dst >= n {
			return fmt.Errorf("edge %d (%d->%d): %w", e, src, dst, ErrNodeOutOfRange)
		}
		if err := checkWeight(g.EdgeWeight(e)); err != nil {
			return fmt.Errorf("edge %d (%d->%d): %w", e, src, dst, err)
		}
	}
	return nil
}

func checkWeight(w float64) error {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, w)
	}
	return nil
}
