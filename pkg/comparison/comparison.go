// Package comparison scores the agreement between two partitions of the same
// node universe with information-theoretic statistics: entropies, mutual
// information, its expectation under random labelings, and the normalized
// (NMI) and adjusted (AMI) variants built from them.
//
// All logarithms are natural. Degenerate inputs are not special-cased: a zero
// denominator yields NaN.
package comparison

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/gilchrisn/graph-community/pkg/partition"
)

// ErrUniverseMismatch is returned when the two partitions cover different nodes.
var ErrUniverseMismatch = errors.New("partitions cover different node sets")

// Variant selects the normalization applied to mutual information.
type Variant int

const (
	// Joint divides by the joint entropy H(U,V).
	Joint Variant = iota
	// Max divides by max(H(U), H(V)).
	Max
	// Min divides by min(H(U), H(V)).
	Min
	// Sum divides by the arithmetic mean (H(U)+H(V))/2.
	Sum
	// Sqrt divides by the geometric mean sqrt(H(U)*H(V)).
	Sqrt
)

// Variants lists every normalization in declaration order.
var Variants = []Variant{Joint, Max, Min, Sum, Sqrt}

func (v Variant) String() string {
	switch v {
	case Joint:
		return "joint"
	case Max:
		return "max"
	case Min:
		return "min"
	case Sum:
		return "sum"
	case Sqrt:
		return "sqrt"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Comparisons holds the statistics of one partition pair. Every value is
// computed once by New.
type Comparisons struct {
	n int

	entropyU     float64
	entropyV     float64
	jointEntropy float64
	mutualInfo   float64
	expectedMI   float64
}

type cell struct{ u, v int }

// New builds the contingency table of u and v and derives every statistic.
// Both partitions must report the same AllMembers.
func New(u, v partition.NodePartitioning) (*Comparisons, error) {
	nodes := u.AllMembers()
	other := v.AllMembers()
	if len(nodes) != len(other) {
		return nil, fmt.Errorf("%w: %d vs %d nodes", ErrUniverseMismatch, len(nodes), len(other))
	}
	for i := range nodes {
		if nodes[i] != other[i] {
			return nil, fmt.Errorf("%w: node %d vs %d at position %d", ErrUniverseMismatch, nodes[i], other[i], i)
		}
	}

	rows := make([]int, u.NumPartitions())
	cols := make([]int, v.NumPartitions())

	// Cells are kept in order of first appearance by node so that every sum
	// below runs in a fixed order.
	cellIndex := make(map[cell]int)
	var cells []cell
	var counts []int
	for _, node := range nodes {
		i, err := partitionOf(u, node, len(rows))
		if err != nil {
			return nil, fmt.Errorf("first partition: %w", err)
		}
		j, err := partitionOf(v, node, len(cols))
		if err != nil {
			return nil, fmt.Errorf("second partition: %w", err)
		}
		rows[i]++
		cols[j]++
		k, ok := cellIndex[cell{i, j}]
		if !ok {
			k = len(cells)
			cellIndex[cell{i, j}] = k
			cells = append(cells, cell{i, j})
			counts = append(counts, 0)
		}
		counts[k]++
	}

	n := len(nodes)
	c := &Comparisons{n: n}
	if n == 0 {
		return c, nil
	}

	joint := make([]float64, len(counts))
	for k, count := range counts {
		joint[k] = float64(count) / float64(n)
	}
	c.entropyU = stat.Entropy(probabilities(rows, n))
	c.entropyV = stat.Entropy(probabilities(cols, n))
	c.jointEntropy = stat.Entropy(joint)

	N := float64(n)
	for k, count := range counts {
		nij := float64(count)
		c.mutualInfo += nij / N * math.Log(N*nij/(float64(rows[cells[k].u])*float64(cols[cells[k].v])))
	}
	c.expectedMI = expectedMutualInformation(rows, cols, n)
	return c, nil
}

// partitionOf looks up the partition of node and checks it against the
// partition count the caller reported.
func partitionOf(p partition.NodePartitioning, node, numPartitions int) (int, error) {
	id, err := p.PartitionOf(node)
	if err != nil {
		return -1, err
	}
	if id < 0 || id >= numPartitions {
		return -1, fmt.Errorf("node %d in partition %d of %d: %w", node, id, numPartitions, partition.ErrPartitionOutOfRange)
	}
	return id, nil
}

func probabilities(counts []int, n int) []float64 {
	p := make([]float64, len(counts))
	for i, c := range counts {
		p[i] = float64(c) / float64(n)
	}
	return p
}

// expectedMutualInformation is the mean MI over all labelings with the given
// cluster sizes, under the hypergeometric model of Vinh, Epps and Bailey.
func expectedMutualInformation(rows, cols []int, n int) float64 {
	N := float64(n)
	emi := 0.0
	for _, a := range rows {
		if a == 0 {
			continue
		}
		logTotal := combin.LogGeneralizedBinomial(N, float64(a))
		for _, b := range cols {
			if b == 0 {
				continue
			}
			lo := max(1, a+b-n)
			hi := min(a, b)
			for nij := lo; nij <= hi; nij++ {
				k := float64(nij)
				logP := combin.LogGeneralizedBinomial(float64(b), k) +
					combin.LogGeneralizedBinomial(N-float64(b), float64(a)-k) -
					logTotal
				emi += k / N * math.Log(N*k/(float64(a)*float64(b))) * math.Exp(logP)
			}
		}
	}
	return emi
}

// NumNodes returns the size of the shared universe.
func (c *Comparisons) NumNodes() int { return c.n }

// EntropyU returns H(U).
func (c *Comparisons) EntropyU() float64 { return c.entropyU }

// EntropyV returns H(V).
func (c *Comparisons) EntropyV() float64 { return c.entropyV }

// JointEntropy returns H(U,V).
func (c *Comparisons) JointEntropy() float64 { return c.jointEntropy }

// ConditionalEntropyUV returns H(U|V).
func (c *Comparisons) ConditionalEntropyUV() float64 { return c.jointEntropy - c.entropyV }

// ConditionalEntropyVU returns H(V|U).
func (c *Comparisons) ConditionalEntropyVU() float64 { return c.jointEntropy - c.entropyU }

// MutualInformation returns I(U;V).
func (c *Comparisons) MutualInformation() float64 { return c.mutualInfo }

// ExpectedMutualInformation returns E[I(U;V)] for random partitions with the
// same cluster sizes.
func (c *Comparisons) ExpectedMutualInformation() float64 { return c.expectedMI }

func (c *Comparisons) denominator(variant Variant) float64 {
	switch variant {
	case Joint:
		return c.jointEntropy
	case Max:
		return math.Max(c.entropyU, c.entropyV)
	case Min:
		return math.Min(c.entropyU, c.entropyV)
	case Sum:
		return (c.entropyU + c.entropyV) / 2
	case Sqrt:
		return math.Sqrt(c.entropyU * c.entropyV)
	default:
		return math.NaN()
	}
}

// NMI returns MI divided by the variant's entropy normalizer. Unknown
// variants yield NaN.
func (c *Comparisons) NMI(variant Variant) float64 {
	return c.mutualInfo / c.denominator(variant)
}

// AMI returns (MI - EMI) / (normalizer - EMI). Unknown variants yield NaN.
func (c *Comparisons) AMI(variant Variant) float64 {
	return (c.mutualInfo - c.expectedMI) / (c.denominator(variant) - c.expectedMI)
}

// MarshalZerologObject logs every statistic as a structured field.
func (c *Comparisons) MarshalZerologObject(e *zerolog.Event) {
	e.Int("nodes", c.n).
		Float64("entropy_u", c.entropyU).
		Float64("entropy_v", c.entropyV).
		Float64("joint_entropy", c.jointEntropy).
		Float64("mutual_information", c.mutualInfo).
		Float64("expected_mutual_information", c.expectedMI)
	for _, v := range Variants {
		e.Float64("nmi_"+v.String(), c.NMI(v))
		e.Float64("ami_"+v.String(), c.AMI(v))
	}
}

var _ zerolog.LogObjectMarshaler = (*Comparisons)(nil)
