package louvain

import (
	"fmt"

	"github.com/gilchrisn/graph-community/pkg/partition"
)

// Level is one finalized hierarchy level: a partition of the original nodes
// together with its modularity and local-moving statistics.
type Level struct {
	*partition.Assignment
	Stats LevelStats
}

// Hierarchy is the ordered list of levels produced by a Louvain run. Each
// level is an immutable snapshot over the original node set; modularity is
// non-decreasing from level to level.
//
// Hierarchy itself implements partition.NodePartitioning by delegating to
// its final (coarsest, highest-modularity) level.
type Hierarchy struct {
	levels []*Level
	stats  Statistics
}

func (h *Hierarchy) addLevel(assignment []int, stats LevelStats) {
	p := partition.FromAssignments(assignment).WithModularity(stats.Modularity)
	stats.NumCommunities = p.NumPartitions()
	h.levels = append(h.levels, &Level{Assignment: p, Stats: stats})
	h.stats.LevelStats = append(h.stats.LevelStats, stats)
	h.stats.TotalMoves += stats.Moves
	h.stats.TotalPasses += stats.Passes
}

// NumLevels returns the number of levels.
func (h *Hierarchy) NumLevels() int { return len(h.levels) }

// Statistics returns run statistics.
func (h *Hierarchy) Statistics() Statistics { return h.stats }

// Level returns level i.
func (h *Hierarchy) Level(i int) (*Level, error) {
	if i < 0 || i >= len(h.levels) {
		return nil, fmt.Errorf("level %d of %d: %w", i, len(h.levels), ErrLevelOutOfRange)
	}
	return h.levels[i], nil
}

// FinalLevel returns the last level.
func (h *Hierarchy) FinalLevel() *Level {
	return h.levels[len(h.levels)-1]
}

// ModularityAt returns the modularity of level i.
func (h *Hierarchy) ModularityAt(level int) (float64, error) {
	l, err := h.Level(level)
	if err != nil {
		return 0, err
	}
	return l.Stats.Modularity, nil
}

// CommunityAtLevel returns the community of an original node at level.
func (h *Hierarchy) CommunityAtLevel(node, level int) (int, error) {
	l, err := h.Level(level)
	if err != nil {
		return -1, err
	}
	return l.PartitionOf(node)
}

func (h *Hierarchy) NumPartitions() int { return h.FinalLevel().NumPartitions() }

func (h *Hierarchy) PartitionMembers(id int) ([]int, error) {
	return h.FinalLevel().PartitionMembers(id)
}

func (h *Hierarchy) PartitionOf(node int) (int, error) { return h.FinalLevel().PartitionOf(node) }

func (h *Hierarchy) AllMembers() []int { return h.FinalLevel().AllMembers() }

func (h *Hierarchy) Modularity() (float64, bool) { return h.FinalLevel().Modularity() }

var (
	_ partition.NodePartitioning = (*Hierarchy)(nil)
	_ partition.NodePartitioning = (*Level)(nil)
)
