// Package louvain implements multilevel modularity maximization (Louvain)
// over a compressed neighbor index, producing a Hierarchy of partitions of
// the original nodes.
package louvain

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-community/pkg/graph"
	"github.com/gilchrisn/graph-community/pkg/metrics"
)

// Louvain clusters one graph. The neighbor index is built once at
// construction; each SolveCommunities call owns private working state, but a
// Louvain value must not be used from several goroutines at once.
type Louvain struct {
	index   *graph.NeighborIndex
	config  *Config
	logger  zerolog.Logger
	metrics *metrics.Registry
	moves   io.Writer
	initial []int
}

// New creates a Louvain run over g with the given per-pass iteration cap and
// random seed. The seed only affects node visiting order.
func New(g graph.Graph, maxIterationsPerPass int, seed int64) (*Louvain, error) {
	config := NewConfig()
	config.Set("algorithm.max_iterations", maxIterationsPerPass)
	config.Set("algorithm.random_seed", seed)
	return NewWithConfig(g, config)
}

// NewWithConfig creates a Louvain run using a prepared configuration.
func NewWithConfig(g graph.Graph, config *Config) (*Louvain, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	index, err := graph.NewNeighborIndex(g, true)
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return &Louvain{
		index:  index,
		config: config,
		logger: config.CreateLogger(),
	}, nil
}

// WithLogger replaces the configured logger.
func (l *Louvain) WithLogger(logger zerolog.Logger) *Louvain {
	l.logger = logger
	return l
}

// WithMetrics records run metrics into r.
func (l *Louvain) WithMetrics(r *metrics.Registry) *Louvain {
	l.metrics = r
	return l
}

// WithMoveTracker streams every local move to w as JSON lines.
func (l *Louvain) WithMoveTracker(w io.Writer) *Louvain {
	l.moves = w
	return l
}

// InitialPartition seeds the first local-moving pass with caller-supplied
// communities. Seeded labels are renumbered contiguously in order of their
// smallest member; nodes absent from the mapping start as singletons after
// the seeded communities. The seed only changes the starting state: local
// moving still runs to a local optimum.
func (l *Louvain) InitialPartition(mapping map[int]int) error {
	n := l.index.NumNodes()
	initial := make([]int, n)
	for i := range initial {
		initial[i] = -1
	}
	for node := range mapping {
		if !l.index.Contains(node) {
			return fmt.Errorf("%w: node %d of %d", ErrInvalidSeedPartition, node, n)
		}
	}

	remap := make(map[int]int)
	next := 0
	for node := 0; node < n; node++ {
		label, ok := mapping[node]
		if !ok {
			continue
		}
		id, seen := remap[label]
		if !seen {
			id = next
			remap[label] = id
			next++
		}
		initial[node] = id
	}
	for node := 0; node < n; node++ {
		if initial[node] == -1 {
			initial[node] = next
			next++
		}
	}

	l.initial = initial
	return nil
}

// SolveCommunities runs the multilevel loop and returns the hierarchy.
// The context is checked before the first level and between levels.
func (l *Louvain) SolveCommunities(ctx context.Context) (*Hierarchy, error) {
	startTime := time.Now()
	n := l.index.NumNodes()

	logger := l.logger.With().Int("nodes", n).Logger()
	logger.Info().
		Float64("total_weight", l.index.TotalWeight()/2).
		Int("max_iterations", l.config.MaxIterations()).
		Int64("seed", l.config.RandomSeed()).
		Msg("Starting Louvain algorithm")

	if err := ctx.Err(); err != nil {
		l.metrics.RecordLouvainRun("canceled", time.Since(startTime), 0, 0, 0)
		return nil, err
	}

	tracker, closeTracker, err := l.openMoveTracker()
	if err != nil {
		l.metrics.RecordLouvainRun("error", time.Since(startTime), 0, 0, 0)
		return nil, err
	}
	defer closeTracker()

	rng := rand.New(rand.NewSource(l.config.RandomSeed()))

	initial := l.initial
	if initial == nil {
		initial = identity(n)
	}
	state := newLevelState(l.index, initial)

	// nodeAt[i] is the node of the current level holding original node i.
	nodeAt := identity(n)
	hierarchy := &Hierarchy{}

	for level := 0; ; level++ {
		var onPass func(pass, moves int)
		if l.config.EnableProgress() {
			onPass = func(pass, moves int) {
				logger.Debug().Int("level", level).Int("pass", pass).Int("moves", moves).Msg("Pass completed")
			}
		}

		moves, passes, capped := state.oneLevel(rng, l.config.MaxIterations(), level, tracker, onPass)
		if capped {
			l.metrics.RecordPassCapReached()
			logger.Warn().Int("level", level).Int("passes", passes).Msg("Local moving stopped at iteration cap")
		}

		if level > 0 && moves == 0 {
			logger.Info().Int("level", level).Msg("No improvement, stopping")
			break
		}

		remap, numCommunities := state.renumber()
		for i, node := range nodeAt {
			nodeAt[i] = remap[state.n2c[node]]
		}

		modularity := state.modularity()
		hierarchy.addLevel(nodeAt, LevelStats{
			Level:          level,
			Nodes:          state.index.NumNodes(),
			Passes:         passes,
			Moves:          moves,
			Modularity:     modularity,
			PassCapReached: capped,
		})

		logger.Info().
			Int("level", level).
			Int("level_nodes", state.index.NumNodes()).
			Int("communities", numCommunities).
			Int("moves", moves).
			Float64("modularity", modularity).
			Msg("Level completed")

		if numCommunities == state.index.NumNodes() {
			logger.Info().Int("level", level).Msg("No compression achieved, stopping")
			break
		}
		if numCommunities <= 1 {
			logger.Info().Int("level", level).Msg("Single community remaining, stopping")
			break
		}
		if maxLevels := l.config.MaxLevels(); maxLevels > 0 && hierarchy.NumLevels() >= maxLevels {
			logger.Info().Int("max_levels", maxLevels).Msg("Level cap reached, stopping")
			break
		}

		select {
		case <-ctx.Done():
			l.metrics.RecordLouvainRun("canceled", time.Since(startTime), 0, 0, 0)
			return nil, ctx.Err()
		default:
		}

		coarse, err := state.aggregateGraph(remap, numCommunities)
		if err != nil {
			l.metrics.RecordLouvainRun("error", time.Since(startTime), 0, 0, 0)
			return nil, fmt.Errorf("aggregation failed at level %d: %w", level, err)
		}
		state = newLevelState(coarse, identity(numCommunities))
	}

	if err := tracker.Err(); err != nil {
		logger.Warn().Err(err).Msg("Move tracking output failed")
	}

	hierarchy.stats.RuntimeMS = time.Since(startTime).Milliseconds()
	final := hierarchy.FinalLevel()
	l.metrics.RecordLouvainRun("ok", time.Since(startTime), hierarchy.NumLevels(),
		hierarchy.stats.TotalMoves, final.Stats.Modularity)

	logger.Info().
		Int("levels", hierarchy.NumLevels()).
		Int("communities", final.NumPartitions()).
		Float64("final_modularity", final.Stats.Modularity).
		Int64("runtime_ms", hierarchy.stats.RuntimeMS).
		Msg("Louvain algorithm completed")

	return hierarchy, nil
}

// openMoveTracker returns the tracker for this run: the writer given to
// WithMoveTracker, else the configured output file, else nil.
func (l *Louvain) openMoveTracker() (*MoveTracker, func(), error) {
	if l.moves != nil {
		return NewMoveTracker(l.moves), func() {}, nil
	}
	if !l.config.EnableMoveTracking() {
		return nil, func() {}, nil
	}
	file, err := os.Create(l.config.TrackingOutputFile())
	if err != nil {
		return nil, nil, fmt.Errorf("opening move tracking file: %w", err)
	}
	return NewMoveTracker(file), func() { file.Close() }, nil
}

func identity(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
