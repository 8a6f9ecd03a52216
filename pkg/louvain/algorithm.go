package louvain

import (
	"fmt"
	"math/rand"

	"github.com/gilchrisn/graph-community/pkg/graph"
)

// levelState is the mutable local-moving state of one hierarchy level.
// Communities are flat arrays indexed by community id; ids never exceed the
// number of nodes of the level.
type levelState struct {
	index *graph.NeighborIndex
	m2    float64

	n2c       []int     // n2c[i] = community of node i
	in        []float64 // in[c] = sum of index entries internal to c
	tot       []float64 // tot[c] = sum of degrees of the members of c
	selfLoops []float64 // selfLoops[i] = weight of node i's self entries

	// Scratch buffers reused across nodes.
	neighWeight []float64
	neighComms  []int
}

// newLevelState places node i in community initial[i]. Every id in initial
// must lie in 0..NumNodes-1.
func newLevelState(index *graph.NeighborIndex, initial []int) *levelState {
	n := index.NumNodes()
	s := &levelState{
		index:       index,
		m2:          index.TotalWeight(),
		n2c:         make([]int, n),
		in:          make([]float64, n),
		tot:         make([]float64, n),
		selfLoops:   make([]float64, n),
		neighWeight: make([]float64, n),
		neighComms:  make([]int, 0, 16),
	}
	for i := range s.neighWeight {
		s.neighWeight[i] = -1
	}
	copy(s.n2c, initial)

	for node := 0; node < n; node++ {
		c := s.n2c[node]
		s.tot[c] += index.Degree(node)
		neighbors, weights := index.Neighbors(node)
		for j, nb := range neighbors {
			if nb == node {
				s.selfLoops[node] += weights[j]
			}
			if s.n2c[nb] == c {
				s.in[c] += weights[j]
			}
		}
	}
	return s
}

// modularity computes Σ_c in(c)/2m - (tot(c)/2m)^2. It is zero when the level
// has no edge weight.
func (s *levelState) modularity() float64 {
	if s.m2 == 0 {
		return 0
	}
	q := 0.0
	for c := range s.tot {
		if s.tot[c] > 0 {
			q += s.in[c]/s.m2 - (s.tot[c]/s.m2)*(s.tot[c]/s.m2)
		}
	}
	return q
}

// getNeighborCommunities fills neighComms/neighWeight with the communities
// adjacent to node and the edge weight towards each. The node's own
// community is always listed first.
func (s *levelState) getNeighborCommunities(node int) {
	for _, c := range s.neighComms {
		s.neighWeight[c] = -1
	}
	s.neighComms = s.neighComms[:0]

	own := s.n2c[node]
	s.neighWeight[own] = 0
	s.neighComms = append(s.neighComms, own)

	neighbors, weights := s.index.Neighbors(node)
	for j, nb := range neighbors {
		if nb == node {
			continue
		}
		c := s.n2c[nb]
		if s.neighWeight[c] == -1 {
			s.neighWeight[c] = 0
			s.neighComms = append(s.neighComms, c)
		}
		s.neighWeight[c] += weights[j]
	}
}

// removeNodeFromCommunity detaches node from comm; weightToComm is the edge
// weight between node and the other members of comm.
func (s *levelState) removeNodeFromCommunity(node, comm int, weightToComm float64) {
	s.tot[comm] -= s.index.Degree(node)
	s.in[comm] -= 2*weightToComm + s.selfLoops[node]
	s.n2c[node] = -1
}

// insertNodeIntoCommunity attaches node to comm; weightToComm is the edge
// weight between node and the current members of comm.
func (s *levelState) insertNodeIntoCommunity(node, comm int, weightToComm float64) {
	s.tot[comm] += s.index.Degree(node)
	s.in[comm] += 2*weightToComm + s.selfLoops[node]
	s.n2c[node] = comm
}

// modularityGain is the gain of inserting an unattached node into comm, up to
// the positive factor 1/m shared by every candidate.
func (s *levelState) modularityGain(node, comm int, weightToComm float64) float64 {
	return weightToComm - s.tot[comm]*s.index.Degree(node)/s.m2
}

// oneLevel repeats local-moving passes over a shuffled node order until a
// pass makes no move or maxPasses is reached. onPass, when set, is called
// after every pass.
func (s *levelState) oneLevel(rng *rand.Rand, maxPasses int, level int, tracker *MoveTracker, onPass func(pass, moves int)) (moves, passes int, capped bool) {
	n := s.index.NumNodes()
	if s.m2 == 0 || n == 0 {
		return 0, 0, false
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for passes < maxPasses {
		passes++
		passMoves := 0
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, node := range order {
			oldComm := s.n2c[node]
			s.getNeighborCommunities(node)
			s.removeNodeFromCommunity(node, oldComm, s.neighWeight[oldComm])

			bestComm := oldComm
			bestGain := s.modularityGain(node, oldComm, s.neighWeight[oldComm])
			for _, c := range s.neighComms[1:] {
				gain := s.modularityGain(node, c, s.neighWeight[c])
				if gain > bestGain+epsilon {
					bestComm = c
					bestGain = gain
				}
			}

			s.insertNodeIntoCommunity(node, bestComm, s.neighWeight[bestComm])
			if bestComm != oldComm {
				passMoves++
				tracker.LogMove(level, node, oldComm, bestComm, bestGain)
			}
		}

		moves += passMoves
		if onPass != nil {
			onPass(passes, passMoves)
		}
		if passMoves == 0 {
			return moves, passes, false
		}
	}
	return moves, passes, true
}

// renumber maps the non-empty communities to contiguous ids in order of
// first appearance by node id.
func (s *levelState) renumber() (remap []int, numCommunities int) {
	remap = make([]int, len(s.n2c))
	for i := range remap {
		remap[i] = -1
	}
	for _, c := range s.n2c {
		if remap[c] == -1 {
			remap[c] = numCommunities
			numCommunities++
		}
	}
	return remap, numCommunities
}

// aggregateGraph builds the coarse level: one node per community, entries
// carrying the summed inter-community weights, and a self entry carrying the
// community's internal entry weight, i.e. twice its internal edge weight.
func (s *levelState) aggregateGraph(remap []int, numCommunities int) (*graph.NeighborIndex, error) {
	n := s.index.NumNodes()

	// Bucket members by coarse id, preserving node order.
	memberStart := make([]int, numCommunities+1)
	for node := 0; node < n; node++ {
		memberStart[remap[s.n2c[node]]+1]++
	}
	for c := 0; c < numCommunities; c++ {
		memberStart[c+1] += memberStart[c]
	}
	members := make([]int, n)
	cursor := make([]int, numCommunities)
	copy(cursor, memberStart[:numCommunities])
	for node := 0; node < n; node++ {
		c := remap[s.n2c[node]]
		members[cursor[c]] = node
		cursor[c]++
	}

	firstIndex := make([]int, numCommunities+1)
	neighbors := make([]int, 0, s.index.NumEntries())
	weights := make([]float64, 0, s.index.NumEntries())

	acc := make([]float64, numCommunities)
	touched := make([]int, 0, 16)
	seen := make([]bool, numCommunities)

	for c := 0; c < numCommunities; c++ {
		for _, node := range members[memberStart[c]:memberStart[c+1]] {
			nbrs, ws := s.index.Neighbors(node)
			for j, nb := range nbrs {
				target := remap[s.n2c[nb]]
				if !seen[target] {
					seen[target] = true
					touched = append(touched, target)
				}
				acc[target] += ws[j]
			}
		}
		for _, target := range touched {
			neighbors = append(neighbors, target)
			weights = append(weights, acc[target])
			acc[target] = 0
			seen[target] = false
		}
		touched = touched[:0]
		firstIndex[c+1] = len(neighbors)
	}

	coarse, err := graph.NewNeighborIndexFromCSR(firstIndex, neighbors, weights)
	if err != nil {
		return nil, fmt.Errorf("building coarse level: %w", err)
	}
	return coarse, nil
}
