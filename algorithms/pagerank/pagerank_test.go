package pagerank

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ScottSallinen/lollipop-computer/computer"
	"github.com/ScottSallinen/lollipop-computer/graph"
	"github.com/ScottSallinen/lollipop-computer/utils"
)

// A ring with random chords; no sinks, no parallel edges, no self loops.
func chordedRing(n int, chords int) *simple.DirectedGraph {
	rng := rand.New(rand.NewSource(11))
	dg := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		dg.SetEdge(dg.NewEdge(simple.Node(i), simple.Node((i+1)%n)))
	}
	for c := 0; c < chords; c++ {
		a, b := rng.Intn(n), rng.Intn(n)
		if a != b {
			dg.SetEdge(dg.NewEdge(simple.Node(a), simple.Node(b)))
		}
	}
	return dg
}

func TestRingIsUniform(t *testing.T) {
	for _, workers := range []int{1, 2, runtime.NumCPU()} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			g := graph.New()
			for i := 0; i < 20; i++ {
				g.AddEdge(graph.RawType(i), graph.RawType((i+1)%20), graph.DEFAULT_WEIGHT)
			}
			res, err := computer.New[float64](g, computer.WithWorkers(workers)).Program(New(50)).Run(context.Background())
			require.NoError(t, err)

			assert.Same(t, g, res.Graph, "ranks are written into the input graph")
			assert.Equal(t, computer.KindComputedPersisted, res.Kind)
			for _, rank := range graph.PropertyValues[float64](g, KeyRank) {
				assert.True(t, utils.FloatEquals(INITMASS, rank, 1e-9), "rank %v", rank)
			}
			assert.Equal(t, 2, res.Memory.Iteration(), "a uniform ring converges once mass has been passed on")
		})
	}
}

func TestMatchesGonum(t *testing.T) {
	dg := chordedRing(100, 300)
	g := graph.FromGonum(dg)

	program := New(0)
	program.Epsilon = 1e-10
	res, err := computer.New[float64](g, computer.WithWorkers(4)).Program(program).Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, res.Memory.Iteration(), 500)

	ranks := graph.PropertyValues[float64](g, KeyRank)
	assert.True(t, utils.FloatEquals(float64(len(ranks)), utils.Sum(ranks), 1e-6), "mass is conserved without sinks")

	expected := network.PageRank(dg, DAMPINGFACTOR, 1e-12)
	for vidx, rank := range ranks {
		raw := g.Vertices[vidx].RawId
		normalized := rank / float64(len(ranks))
		assert.True(t, utils.FloatEquals(expected[int64(raw)], normalized, 1e-6),
			"vertex %d: expected %v got %v", raw, expected[int64(raw)], normalized)
	}
}

func TestMaxIterations(t *testing.T) {
	g := graph.FromGonum(chordedRing(30, 60))
	res, err := computer.New[float64](g).Program(New(3)).Persist(computer.PersistNothing).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Memory.Iteration())
	assert.Equal(t, computer.KindOriginal, res.Kind)
	_, ok := g.Vertices[0].Property(KeyRank)
	assert.False(t, ok, "nothing persisted")
}
