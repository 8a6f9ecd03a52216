package graph

import (
	"fmt"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
)

// FromGonum copies a gonum graph into a MemoryGraph keyed by gonum node id.
// Nodes receive dense ids in ascending gonum id order and edges are emitted
// in (from, to) order, so the result is deterministic. Undirected graphs
// contribute each edge once. Weighted edges keep their weight; all other
// edges get weight 1.
func FromGonum(g gonum.Graph) (*MemoryGraph[int64], error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	nodes := gonum.NodesOf(g.Nodes())
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	out := NewMemoryGraph[int64]()
	for _, n := range nodes {
		out.AddNode(n.ID())
	}

	_, undirected := g.(gonum.Undirected)
	for _, u := range nodes {
		uid := u.ID()
		targets := gonum.NodesOf(g.From(uid))
		sort.Slice(targets, func(i, j int) bool { return targets[i].ID() < targets[j].ID() })

		for _, v := range targets {
			vid := v.ID()
			if undirected && vid < uid {
				continue
			}
			weight := 1.0
			if we, ok := g.Edge(uid, vid).(gonum.WeightedEdge); ok {
				weight = we.Weight()
			}
			if err := out.AddWeightedEdge(uid, vid, weight); err != nil {
				return nil, fmt.Errorf("copying gonum edge: %w", err)
			}
		}
	}
	return out, nil
}
