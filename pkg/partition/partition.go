// Package partition defines the NodePartitioning capability shared by
// Louvain hierarchy levels, sweep-cut communities and ad hoc partitions.
package partition

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNodeOutOfRange is returned for node ids not covered by a partition.
	ErrNodeOutOfRange = errors.New("node not in partition")

	// ErrPartitionOutOfRange is returned for partition ids outside 0..NumPartitions-1.
	ErrPartitionOutOfRange = errors.New("partition id out of range")

	// ErrDuplicateNode is returned when a node is placed in two partitions.
	ErrDuplicateNode = errors.New("node assigned to more than one partition")
)

// NodePartitioning splits a node universe into disjoint partitions with
// contiguous ids 0..NumPartitions()-1.
type NodePartitioning interface {
	NumPartitions() int
	// PartitionMembers returns the node ids of partition id in ascending order.
	PartitionMembers(id int) ([]int, error)
	// PartitionOf returns the partition id holding node.
	PartitionOf(node int) (int, error)
	// AllMembers returns every node of the universe in ascending order.
	AllMembers() []int
	// Modularity returns the modularity of the partition when it is known.
	Modularity() (float64, bool)
}

// Assignment is an array-backed NodePartitioning over the universe
// 0..len(assignment)-1.
type Assignment struct {
	assignment    []int
	members       [][]int
	modularity    float64
	hasModularity bool
}

// FromAssignments builds a partition from a node -> label array. Labels can
// be arbitrary integers; they are renumbered contiguously in order of first
// appearance by node id. The slice is not retained.
func FromAssignments(labels []int) *Assignment {
	remap := make(map[int]int)
	assignment := make([]int, len(labels))
	members := make([][]int, 0)
	for node, label := range labels {
		id, ok := remap[label]
		if !ok {
			id = len(members)
			remap[label] = id
			members = append(members, nil)
		}
		assignment[node] = id
		members[id] = append(members[id], node)
	}
	return &Assignment{assignment: assignment, members: members}
}

// FromSets builds a partition from explicit member sets. The sets must be
// disjoint and together cover 0..N-1 exactly. Empty sets are skipped.
func FromSets(sets [][]int) (*Assignment, error) {
	n := 0
	for _, set := range sets {
		n += len(set)
	}
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for label, set := range sets {
		for _, node := range set {
			if node < 0 || node >= n {
				return nil, fmt.Errorf("node %d with %d members: %w", node, n, ErrNodeOutOfRange)
			}
			if labels[node] != -1 {
				return nil, fmt.Errorf("node %d: %w", node, ErrDuplicateNode)
			}
			labels[node] = label
		}
	}
	return FromAssignments(labels), nil
}

// WithModularity returns a copy of p that reports q as its modularity.
func (p *Assignment) WithModularity(q float64) *Assignment {
	clone := *p
	clone.modularity = q
	clone.hasModularity = true
	return &clone
}

func (p *Assignment) NumPartitions() int { return len(p.members) }

func (p *Assignment) PartitionMembers(id int) ([]int, error) {
	if id < 0 || id >= len(p.members) {
		return nil, fmt.Errorf("partition %d of %d: %w", id, len(p.members), ErrPartitionOutOfRange)
	}
	out := make([]int, len(p.members[id]))
	copy(out, p.members[id])
	return out, nil
}

func (p *Assignment) PartitionOf(node int) (int, error) {
	if node < 0 || node >= len(p.assignment) {
		return -1, fmt.Errorf("node %d of %d: %w", node, len(p.assignment), ErrNodeOutOfRange)
	}
	return p.assignment[node], nil
}

func (p *Assignment) AllMembers() []int {
	out := make([]int, len(p.assignment))
	for i := range out {
		out[i] = i
	}
	return out
}

func (p *Assignment) Modularity() (float64, bool) {
	return p.modularity, p.hasModularity
}

// Labels returns a copy of the node -> partition array.
func (p *Assignment) Labels() []int {
	out := make([]int, len(p.assignment))
	copy(out, p.assignment)
	return out
}

// Labels extracts the node -> partition array of any partitioning, indexed
// by position in AllMembers.
func Labels(p NodePartitioning) ([]int, error) {
	nodes := p.AllMembers()
	labels := make([]int, len(nodes))
	for i, node := range nodes {
		id, err := p.PartitionOf(node)
		if err != nil {
			return nil, err
		}
		labels[i] = id
	}
	return labels, nil
}

// Sets returns the member lists of every partition, each sorted.
func Sets(p NodePartitioning) ([][]int, error) {
	sets := make([][]int, p.NumPartitions())
	for i := range sets {
		members, err := p.PartitionMembers(i)
		if err != nil {
			return nil, err
		}
		sort.Ints(members)
		sets[i] = members
	}
	return sets, nil
}

var _ NodePartitioning = (*Assignment)(nil)
