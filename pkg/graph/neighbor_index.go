package graph

import (
	"fmt"
)

// NeighborIndex is a compressed-sparse-row (Yale format) view of a graph,
// treated as undirected. The neighbors of node i occupy
// neighbors[firstIndex[i]:firstIndex[i+1]] with matching weights.
//
// Every non-loop edge contributes two entries, src->dst and dst->src, in
// edge order. A self-loop contributes a single entry of twice its weight when
// built with foldSelfLoops, and nothing otherwise.
//
// The index is immutable once built and safe for concurrent readers.
type NeighborIndex struct {
	firstIndex  []int
	neighbors   []int
	weights     []float64
	degrees     []float64
	totalWeight float64
}

// NewNeighborIndex compacts g into CSR form in time linear in its edge count.
func NewNeighborIndex(g Graph, foldSelfLoops bool) (*NeighborIndex, error) {
	if err := Validate(g); err != nil {
		return nil, fmt.Errorf("building neighbor index: %w", err)
	}

	n := g.NumNodes()
	m := g.NumEdges()

	firstIndex := make([]int, n+1)
	for e := 0; e < m; e++ {
		src, dst := g.EdgeEndpoints(e)
		if src != dst {
			firstIndex[src+1]++
			firstIndex[dst+1]++
		} else if foldSelfLoops {
			firstIndex[src+1]++
		}
	}
	for i := 0; i < n; i++ {
		firstIndex[i+1] += firstIndex[i]
	}

	size := firstIndex[n]
	neighbors := make([]int, size)
	weights := make([]float64, size)
	cursor := make([]int, n)
	copy(cursor, firstIndex[:n])

	for e := 0; e < m; e++ {
		src, dst := g.EdgeEndpoints(e)
		w := g.EdgeWeight(e)
		if src == dst {
			if !foldSelfLoops {
				continue
			}
			neighbors[cursor[src]] = src
			weights[cursor[src]] = 2 * w
			cursor[src]++
			continue
		}
		neighbors[cursor[src]] = dst
		weights[cursor[src]] = w
		cursor[src]++
		neighbors[cursor[dst]] = src
		weights[cursor[dst]] = w
		cursor[dst]++
	}

	return newIndex(firstIndex, neighbors, weights), nil
}

// NewNeighborIndexFromCSR wraps already-compacted arrays. The arrays are
// owned by the index afterwards and must not be modified by the caller.
func NewNeighborIndexFromCSR(firstIndex, neighbors []int, weights []float64) (*NeighborIndex, error) {
	if len(firstIndex) == 0 {
		return nil, fmt.Errorf("first index must have at least one entry")
	}
	n := len(firstIndex) - 1
	if firstIndex[0] != 0 {
		return nil, fmt.Errorf("first index must start at 0, got %d", firstIndex[0])
	}
	if len(neighbors) != len(weights) || len(neighbors) != firstIndex[n] {
		return nil, fmt.Errorf("inconsistent CSR sizes: firstIndex[n]=%d neighbors=%d weights=%d",
			firstIndex[n], len(neighbors), len(weights))
	}
	for i := 0; i < n; i++ {
		if firstIndex[i+1] < firstIndex[i] {
			return nil, fmt.Errorf("first index decreases at node %d", i)
		}
	}
	for i, v := range neighbors {
		if v < 0 || v >= n {
			return nil, fmt.Errorf("entry %d -> %d: %w", i, v, ErrNodeOutOfRange)
		}
		if err := checkWeight(weights[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return newIndex(firstIndex, neighbors, weights), nil
}

func newIndex(firstIndex, neighbors []int, weights []float64) *NeighborIndex {
	n := len(firstIndex) - 1
	idx := &NeighborIndex{
		firstIndex: firstIndex,
		neighbors:  neighbors,
		weights:    weights,
		degrees:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		d := 0.0
		for j := firstIndex[i]; j < firstIndex[i+1]; j++ {
			d += weights[j]
		}
		idx.degrees[i] = d
		idx.totalWeight += d
	}
	return idx
}

// NumNodes returns the number of indexed nodes.
func (x *NeighborIndex) NumNodes() int { return len(x.firstIndex) - 1 }

// NumEntries returns the number of neighbor entries.
func (x *NeighborIndex) NumEntries() int { return len(x.neighbors) }

// Neighbors returns the neighbor ids and weights of node as sub-slices of the
// index. The slices must not be modified.
func (x *NeighborIndex) Neighbors(node int) ([]int, []float64) {
	lo, hi := x.firstIndex[node], x.firstIndex[node+1]
	return x.neighbors[lo:hi:hi], x.weights[lo:hi:hi]
}

// Degree returns the weighted degree of node, self-loop entries included.
func (x *NeighborIndex) Degree(node int) float64 { return x.degrees[node] }

// TotalWeight returns the sum of all entry weights, i.e. 2m.
func (x *NeighborIndex) TotalWeight() float64 { return x.totalWeight }

// FirstIndex returns the prefix-sum array. It must not be modified.
func (x *NeighborIndex) FirstIndex() []int { return x.firstIndex }

// Contains reports whether node is a valid id of the index.
func (x *NeighborIndex) Contains(node int) bool {
	return node >= 0 && node < x.NumNodes()
}
