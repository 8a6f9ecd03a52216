package pagerank

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-community/pkg/graph"
)

// CommunityForNodeByID extracts a low-conductance community around seed.
// Each of the iterations rounds averages repeats PageRank runs and sweeps the
// result; the round with the lowest conductance wins. The very first run
// uses index order, every later run a random neighbor order. The returned
// ids are sorted ascending and always include a node with positive score.
func (p *PersonalizedPageRank) CommunityForNodeByID(seed, iterations, repeats int) ([]int, error) {
	if err := p.checkSeed(seed); err != nil {
		return nil, err
	}
	if iterations <= 0 || repeats <= 0 {
		return nil, fmt.Errorf("%w: iterations=%d repeats=%d", ErrInvalidRuns, iterations, repeats)
	}
	start := time.Now()

	var best []int
	bestPhi := math.Inf(1)
	first := true
	avg := make([]float64, p.index.NumNodes())

	for round := 0; round < iterations; round++ {
		for i := range avg {
			avg[i] = 0
		}
		for r := 0; r < repeats; r++ {
			if first {
				floats.Add(avg, p.push(seed, nil))
				first = false
				continue
			}
			floats.Add(avg, p.push(seed, p.rng))
		}
		floats.Scale(1/float64(repeats), avg)

		set, phi := sweep(p.index, avg)
		p.logger.Debug().
			Int("seed", seed).
			Int("round", round).
			Int("size", len(set)).
			Float64("conductance", phi).
			Msg("Sweep completed")
		if phi < bestPhi {
			best, bestPhi = set, phi
		}
	}

	sort.Ints(best)
	p.metrics.RecordConductance(bestPhi)
	p.metrics.RecordPageRankQuery("community", time.Since(start))
	return best, nil
}

// Conductance returns cut(S) / min(vol(S), vol(V\S)) for the node set S,
// using the self-loop-free neighbor index. It is 0 when either side has no
// volume. Duplicate ids are counted once.
func (p *PersonalizedPageRank) Conductance(nodes []int) (float64, error) {
	in := make([]bool, p.index.NumNodes())
	for _, node := range nodes {
		if !p.index.Contains(node) {
			return 0, fmt.Errorf("conductance of node %d: %w", node, graph.ErrNodeOutOfRange)
		}
		in[node] = true
	}

	vol, cut := 0.0, 0.0
	for node, member := range in {
		if !member {
			continue
		}
		vol += p.index.Degree(node)
		neighbors, weights := p.index.Neighbors(node)
		for j, nb := range neighbors {
			if !in[nb] {
				cut += weights[j]
			}
		}
	}
	return conductance(cut, vol, p.index.TotalWeight()), nil
}

func conductance(cut, vol, total float64) float64 {
	denom := math.Min(vol, total-vol)
	if denom <= 0 {
		return 0
	}
	return cut / denom
}

// sweep orders the nodes with positive score by score/degree, descending, and
// returns the prefix of lowest conductance together with that conductance.
// The prefix holding every node of the graph is never chosen. Ties keep the
// shorter prefix.
func sweep(index *graph.NeighborIndex, scores []float64) ([]int, float64) {
	candidates := make([]int, 0)
	ratio := make([]float64, len(scores))
	for node, s := range scores {
		if s <= 0 {
			continue
		}
		candidates = append(candidates, node)
		if deg := index.Degree(node); deg > 0 {
			ratio[node] = s / deg
		} else {
			ratio[node] = math.Inf(1)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return ratio[candidates[i]] > ratio[candidates[j]]
	})

	limit := len(candidates)
	if limit == index.NumNodes() {
		limit--
	}
	if limit <= 0 {
		return candidates, 0
	}

	total := index.TotalWeight()
	in := make([]bool, len(scores))
	vol, cut := 0.0, 0.0
	bestLen, bestPhi := 0, math.Inf(1)

	for i, node := range candidates[:limit] {
		vol += index.Degree(node)
		neighbors, weights := index.Neighbors(node)
		for j, nb := range neighbors {
			if in[nb] {
				cut -= weights[j]
			} else {
				cut += weights[j]
			}
		}
		in[node] = true

		if phi := conductance(cut, vol, total); phi < bestPhi {
			bestLen, bestPhi = i+1, phi
		}
	}

	set := make([]int, bestLen)
	copy(set, candidates[:bestLen])
	return set, bestPhi
}
