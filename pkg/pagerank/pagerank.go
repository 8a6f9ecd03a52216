// Package pagerank computes approximate personalized PageRank vectors with the
// Andersen-Chung-Lang push method and extracts local communities around a
// seed node by a conductance sweep.
package pagerank

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-community/pkg/graph"
	"github.com/gilchrisn/graph-community/pkg/metrics"
)

var (
	// ErrInvalidConfig is returned when configuration values fail validation.
	ErrInvalidConfig = errors.New("invalid pagerank configuration")

	// ErrInvalidTolerance is returned for a tolerance that is not positive.
	ErrInvalidTolerance = errors.New("tolerance must be positive")

	// ErrInvalidSeed is returned for seed ids outside the graph.
	ErrInvalidSeed = errors.New("invalid seed node")

	// ErrInvalidRuns is returned for non-positive run, iteration or repeat counts.
	ErrInvalidRuns = errors.New("run count must be positive")
)

// PersonalizedPageRank answers seed queries over one graph. Self-loops are
// dropped from its neighbor index, so they never change scores.
//
// The index is shared read-only; the random source and tolerance are not,
// so a value must not be queried from several goroutines except through
// ScoresForSeeds.
type PersonalizedPageRank struct {
	index     *graph.NeighborIndex
	config    *Config
	logger    zerolog.Logger
	metrics   *metrics.Registry
	rng       *rand.Rand
	alpha     float64
	tolerance float64
	maxPushes int
}

// New creates a PageRank engine over g. seed drives the neighbor-order
// randomization of multi-run queries.
func New(g graph.Graph, seed int64) (*PersonalizedPageRank, error) {
	config := NewConfig()
	config.Set("algorithm.random_seed", seed)
	return NewWithConfig(g, config)
}

// NewWithConfig creates a PageRank engine using a prepared configuration.
func NewWithConfig(g graph.Graph, config *Config) (*PersonalizedPageRank, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	index, err := graph.NewNeighborIndex(g, false)
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return &PersonalizedPageRank{
		index:     index,
		config:    config,
		logger:    config.CreateLogger(),
		rng:       rand.New(rand.NewSource(config.RandomSeed())),
		alpha:     config.Alpha(),
		tolerance: config.Tolerance(),
		maxPushes: config.MaxPushes(),
	}, nil
}

// WithLogger replaces the configured logger.
func (p *PersonalizedPageRank) WithLogger(logger zerolog.Logger) *PersonalizedPageRank {
	p.logger = logger
	return p
}

// WithMetrics records query metrics into r.
func (p *PersonalizedPageRank) WithMetrics(r *metrics.Registry) *PersonalizedPageRank {
	p.metrics = r
	return p
}

// SetTolerance sets the residual tolerance eps: a node is pushed while its
// residual is at least eps times its degree.
func (p *PersonalizedPageRank) SetTolerance(eps float64) error {
	if !(eps > 0) || math.IsInf(eps, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTolerance, eps)
	}
	p.tolerance = eps
	return nil
}

// Tolerance returns the current residual tolerance.
func (p *PersonalizedPageRank) Tolerance() float64 { return p.tolerance }

// ScoresForAllNodesByID returns the approximate PageRank vector personalized
// on seed, indexed by node id. Nodes the push never reaches score 0. With
// randomize set, each push visits neighbors in a random order.
func (p *PersonalizedPageRank) ScoresForAllNodesByID(seed int, randomize bool) ([]float64, error) {
	if err := p.checkSeed(seed); err != nil {
		return nil, err
	}
	start := time.Now()
	var rng *rand.Rand
	if randomize {
		rng = p.rng
	}
	scores := p.push(seed, rng)
	p.metrics.RecordPageRankQuery("scores", time.Since(start))
	return scores, nil
}

// ScoresForAllNodesByIDMultirun averages numRuns randomized-order runs.
func (p *PersonalizedPageRank) ScoresForAllNodesByIDMultirun(seed, numRuns int) ([]float64, error) {
	if err := p.checkSeed(seed); err != nil {
		return nil, err
	}
	if numRuns <= 0 {
		return nil, fmt.Errorf("%w: runs=%d", ErrInvalidRuns, numRuns)
	}
	start := time.Now()
	avg := make([]float64, p.index.NumNodes())
	for run := 0; run < numRuns; run++ {
		floats.Add(avg, p.push(seed, p.rng))
	}
	floats.Scale(1/float64(numRuns), avg)
	p.metrics.RecordPageRankQuery("multirun", time.Since(start))
	return avg, nil
}

func (p *PersonalizedPageRank) checkSeed(seed int) error {
	if !p.index.Contains(seed) {
		return fmt.Errorf("%w: %d of %d nodes", ErrInvalidSeed, seed, p.index.NumNodes())
	}
	return nil
}

// push runs the lazy-walk push loop from seed. A nil rng keeps index order.
// Starting from residual 1 at the seed, a node u is pushed while
// r[u] >= eps*deg(u): it gains alpha*r[u], keeps (1-alpha)*r[u]/2 and spreads
// the other half over its neighbors by edge weight. The seed is always pushed
// once, even when its degree exceeds 1/eps. Nodes wait in a FIFO queue and
// appear in it at most once.
func (p *PersonalizedPageRank) push(seed int, rng *rand.Rand) []float64 {
	n := p.index.NumNodes()
	scores := make([]float64, n)

	if p.index.Degree(seed) == 0 {
		// The walk cannot leave an isolated seed.
		scores[seed] = 1
		return scores
	}

	residual := make([]float64, n)
	queued := make([]bool, n)
	var order []int

	alpha, eps := p.alpha, p.tolerance
	residual[seed] = 1
	queue := []int{seed}
	queued[seed] = true

	pushes := 0
	capped := false
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		queued[u] = false

		deg := p.index.Degree(u)
		if deg == 0 || (pushes > 0 && residual[u] < eps*deg) {
			continue
		}
		if p.maxPushes > 0 && pushes >= p.maxPushes {
			capped = true
			break
		}
		pushes++

		ru := residual[u]
		scores[u] += alpha * ru
		residual[u] = (1 - alpha) * ru / 2
		share := (1 - alpha) * ru / (2 * deg)

		neighbors, weights := p.index.Neighbors(u)
		if rng != nil {
			order = shuffledOrder(rng, order, len(neighbors))
		}
		for j := range neighbors {
			k := j
			if rng != nil {
				k = order[j]
			}
			v := neighbors[k]
			residual[v] += share * weights[k]
			if !queued[v] && residual[v] >= eps*p.index.Degree(v) {
				queue = append(queue, v)
				queued[v] = true
			}
		}
		if !queued[u] && residual[u] >= eps*deg {
			queue = append(queue, u)
			queued[u] = true
		}
	}

	if capped {
		p.logger.Warn().
			Int("seed", seed).
			Int("max_pushes", p.maxPushes).
			Int("queued", len(queue)).
			Msg("Push cap reached, returning current estimate")
	}
	p.metrics.RecordPushes(pushes, capped)
	p.logger.Debug().
		Int("seed", seed).
		Int("pushes", pushes).
		Float64("mass", floats.Sum(scores)).
		Msg("Push completed")
	return scores
}

// shuffledOrder returns a random permutation of 0..k-1, reusing buf.
func shuffledOrder(rng *rand.Rand, buf []int, k int) []int {
	if cap(buf) < k {
		buf = make([]int, k)
	}
	buf = buf[:k]
	for i := range buf {
		buf[i] = i
	}
	rng.Shuffle(k, func(i, j int) { buf[i], buf[j] = buf[j], buf[i] })
	return buf
}
