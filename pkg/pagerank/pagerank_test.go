package pagerank

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-community/pkg/graph"
	"github.com/gilchrisn/graph-community/pkg/metrics"
)

// bridgedCliques is two K4s, {0,1,2,3} and {4,5,6,7}, joined by the single
// edge 3-4.
func bridgedCliques(t testing.TB) *graph.MemoryGraph[int] {
	t.Helper()
	g := graph.NewMemoryGraph[int]()
	edges := [][2]int{
		{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3},
		{3, 4},
		{4, 5}, {4, 6}, {4, 7}, {5, 6}, {5, 7}, {6, 7},
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func newEngine(t testing.TB, g graph.Graph) *PersonalizedPageRank {
	t.Helper()
	p, err := New(g, 0)
	require.NoError(t, err)
	return p.WithLogger(zerolog.Nop())
}

func TestScoresForSeedZero(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))

	scores, err := p.ScoresForAllNodesByID(0, false)
	require.NoError(t, err)

	want := []float64{
		0.12537838024216372, 0.11052762994515698, 0.11037813886936204, 0.1379002079958543,
		0.10425699547298657, 0.07236686571571394, 0.0725170996662634, 0.07259186730843395,
	}
	require.Len(t, scores, len(want))
	for i := range want {
		assert.InDelta(t, want[i], scores[i], 1e-10, "node %d", i)
	}
}

func TestCommunityForNode(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))

	community, err := p.CommunityForNodeByID(2, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, community)

	for seed := 4; seed < 8; seed++ {
		community, err := p.CommunityForNodeByID(seed, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{4, 5, 6, 7}, community, "seed %d", seed)
	}

	phi, err := p.Conductance(community)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/13.0, phi, 1e-12)
}

func TestSelfLoopInvariance(t *testing.T) {
	plain := newEngine(t, bridgedCliques(t))

	g := bridgedCliques(t)
	require.NoError(t, g.AddEdge(0, 0))
	require.NoError(t, g.AddWeightedEdge(5, 5, 3))
	looped := newEngine(t, g)

	for seed := 0; seed < 8; seed++ {
		want, err := plain.ScoresForAllNodesByID(seed, false)
		require.NoError(t, err)
		got, err := looped.ScoresForAllNodesByID(seed, false)
		require.NoError(t, err)
		assert.Equal(t, want, got, "seed %d", seed)
	}

	a, err := plain.Conductance([]int{0, 1, 5})
	require.NoError(t, err)
	b, err := looped.Conductance([]int{0, 1, 5})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTolerance(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))
	assert.Equal(t, 0.01, p.Tolerance())

	assert.ErrorIs(t, p.SetTolerance(0), ErrInvalidTolerance)
	assert.ErrorIs(t, p.SetTolerance(-1), ErrInvalidTolerance)

	coarse, err := p.ScoresForAllNodesByID(0, false)
	require.NoError(t, err)

	require.NoError(t, p.SetTolerance(1e-5))
	fine, err := p.ScoresForAllNodesByID(0, false)
	require.NoError(t, err)

	// Score mass grows towards 1 as the residual left behind shrinks.
	assert.Greater(t, floats.Sum(fine), floats.Sum(coarse))
	assert.LessOrEqual(t, floats.Sum(fine), 1+1e-9)
}

func TestInvalidArguments(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))

	_, err := p.ScoresForAllNodesByID(8, false)
	assert.ErrorIs(t, err, ErrInvalidSeed)
	_, err = p.ScoresForAllNodesByID(-1, true)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = p.ScoresForAllNodesByIDMultirun(0, 0)
	assert.ErrorIs(t, err, ErrInvalidRuns)

	_, err = p.CommunityForNodeByID(0, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidRuns)
	_, err = p.CommunityForNodeByID(0, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidRuns)
	_, err = p.CommunityForNodeByID(9, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = p.Conductance([]int{0, 42})
	assert.ErrorIs(t, err, graph.ErrNodeOutOfRange)

	_, err = p.ScoresForSeeds(context.Background(), []int{0, 99}, 2)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = New(nil, 0)
	assert.ErrorIs(t, err, graph.ErrNilGraph)
}

func TestMultirun(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))

	base, err := p.ScoresForAllNodesByID(0, false)
	require.NoError(t, err)
	avg, err := p.ScoresForAllNodesByIDMultirun(0, 5)
	require.NoError(t, err)

	require.Len(t, avg, 8)
	for i := range avg {
		assert.InDelta(t, base[i], avg[i], 0.01, "node %d", i)
	}

	set, phi := sweep(p.index, avg)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, set)
	assert.InDelta(t, 1.0/13.0, phi, 1e-12)
}

func TestSameSeedSameRandomizedScores(t *testing.T) {
	g := bridgedCliques(t)
	a, err := newEngine(t, g).ScoresForAllNodesByIDMultirun(3, 4)
	require.NoError(t, err)
	b, err := newEngine(t, g).ScoresForAllNodesByIDMultirun(3, 4)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIsolatedNodes(t *testing.T) {
	g := bridgedCliques(t)
	g.AddNode(8)
	p := newEngine(t, g)

	scores, err := p.ScoresForAllNodesByID(0, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores[8])

	scores, err = p.ScoresForAllNodesByID(8, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores[8])
	assert.Equal(t, 1.0, floats.Sum(scores))

	community, err := p.CommunityForNodeByID(8, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{8}, community)
}

// star joins node 0 to leaves 1..n.
func star(t testing.TB, n int) *graph.MemoryGraph[int] {
	t.Helper()
	g := graph.NewMemoryGraph[int]()
	for leaf := 1; leaf <= n; leaf++ {
		require.NoError(t, g.AddEdge(0, leaf))
	}
	return g
}

func TestHighDegreeSeed(t *testing.T) {
	// The hub's degree exceeds 1/eps, so only the first push happens.
	p := newEngine(t, star(t, 150))
	require.NoError(t, p.SetTolerance(0.01))

	scores, err := p.ScoresForAllNodesByID(0, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, scores[0], 1e-15)
	for leaf := 1; leaf <= 150; leaf++ {
		assert.Equal(t, 0.0, scores[leaf], "leaf %d", leaf)
	}

	community, err := p.CommunityForNodeByID(0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, community)

	phi, err := p.Conductance(community)
	require.NoError(t, err)
	assert.Equal(t, 1.0, phi)
}

func TestConductanceEdgeCases(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))

	phi, err := p.Conductance(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, phi)

	phi, err = p.Conductance([]int{0, 1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, phi)

	phi, err = p.Conductance([]int{3, 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, phi)
}

func TestScoresForSeeds(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))
	seeds := []int{0, 1, 2, 3, 4, 5, 6, 7, 0, 4}

	got, err := p.ScoresForSeeds(context.Background(), seeds, 3)
	require.NoError(t, err)
	require.Len(t, got, len(seeds))

	for i, seed := range seeds {
		want, err := p.ScoresForAllNodesByID(seed, false)
		require.NoError(t, err)
		assert.Equal(t, want, got[i], "seed %d", seed)
	}
}

func TestScoresForSeedsCanceled(t *testing.T) {
	p := newEngine(t, bridgedCliques(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ScoresForSeeds(ctx, []int{0, 1}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPushCap(t *testing.T) {
	config := NewConfig()
	config.Set("pagerank.max_pushes", 10)
	config.Set("logging.level", "disabled")

	registry := metrics.NewRegistry()
	p, err := NewWithConfig(bridgedCliques(t), config)
	require.NoError(t, err)
	p.WithMetrics(registry)

	capped, err := p.ScoresForAllNodesByID(0, false)
	require.NoError(t, err)
	full, err := newEngine(t, bridgedCliques(t)).ScoresForAllNodesByID(0, false)
	require.NoError(t, err)

	assert.Less(t, floats.Sum(capped), floats.Sum(full))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.PageRankPushCapReached))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.PageRankQueriesTotal.WithLabelValues("scores")))
}

func TestConfig(t *testing.T) {
	config := NewConfig()
	assert.NoError(t, config.Validate())
	assert.Equal(t, 0.01, config.Alpha())
	assert.Equal(t, 0.01, config.Tolerance())

	config.Set("pagerank.alpha", 1.5)
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)

	config = NewConfig()
	config.Set("pagerank.tolerance", 0.0)
	assert.ErrorIs(t, config.Validate(), ErrInvalidTolerance)

	config = NewConfig()
	config.Set("pagerank.max_pushes", -5)
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "pagerank.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pagerank:\n  alpha: 0.15\n  tolerance: 0.001\n"), 0o644))
	config = NewConfig()
	require.NoError(t, config.LoadFromFile(path))
	assert.Equal(t, 0.15, config.Alpha())
	assert.Equal(t, 0.001, config.Tolerance())
}

func TestConductanceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("conductance lies in [0,1]", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			g := graph.NewMemoryGraph[int]()
			n := 5 + rng.Intn(20)
			for i := 0; i < n; i++ {
				g.AddNode(i)
			}
			for e := 0; e < 3*n; e++ {
				_ = g.AddWeightedEdge(rng.Intn(n), rng.Intn(n), rng.Float64()*4)
			}
			p, err := New(g, seed)
			if err != nil {
				return false
			}
			p.WithLogger(zerolog.Nop())

			var set []int
			for i := 0; i < n; i++ {
				if rng.Intn(2) == 0 {
					set = append(set, i)
				}
			}
			phi, err := p.Conductance(set)
			if err != nil || phi < 0 || phi > 1+1e-12 {
				return false
			}

			community, err := p.CommunityForNodeByID(rng.Intn(n), 2, 2)
			if err != nil || len(community) == 0 {
				return false
			}
			phi, err = p.Conductance(community)
			return err == nil && phi >= 0 && phi <= 1+1e-12
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func BenchmarkScoresForAllNodesByID(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	g := graph.NewMemoryGraph[int]()
	for i := 0; i < 5000; i++ {
		g.AddNode(i)
	}
	for e := 0; e < 25000; e++ {
		_ = g.AddEdge(rng.Intn(5000), rng.Intn(5000))
	}
	p, err := New(g, 1)
	if err != nil {
		b.Fatal(err)
	}
	p.WithLogger(zerolog.Nop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.ScoresForAllNodesByID(i%5000, false); err != nil {
			b.Fatal(err)
		}
	}
}
