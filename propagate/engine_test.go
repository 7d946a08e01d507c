package propagate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgraph/shgat/hypergraph"
	"github.com/toolgraph/shgat/params"
)

func smallGraph(t *testing.T) (*hypergraph.Store, params.Config) {
	t.Helper()
	cfg := params.Config{EmbeddingDim: 6, HiddenDim: 4, NumHeads: 3, NumLayers: 2, Dropout: 0}
	s := hypergraph.NewStore()
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{ID: "t1", Embedding: []float32{1, 0, 0, 0, 0, 0}}))
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{ID: "t2", Embedding: []float32{0, 1, 0, 0, 0, 0}}))
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{ID: "t3", Embedding: []float32{0, 0, 1, 0, 0, 0}}))
	require.NoError(t, s.RegisterCapability(hypergraph.CapabilityNode{ID: "c1", Embedding: []float32{1, 1, 0, 0, 0, 0}, ToolsUsed: []string{"t1", "t2"}}))
	require.NoError(t, s.RegisterCapability(hypergraph.CapabilityNode{ID: "c2", Embedding: []float32{0, 0, 1, 0, 0, 0}, ToolsUsed: []string{"t3"}}))
	return s, cfg
}

func TestForwardShapes(t *testing.T) {
	s, cfg := smallGraph(t)
	p := params.New(cfg, rand.New(rand.NewSource(1)))
	eng := New(cfg)

	cache := eng.Forward(s, p, false, nil)

	require.Len(t, cache.H, cfg.NumLayers+1)
	require.Len(t, cache.E, cfg.NumLayers+1)
	assert.Equal(t, 3, cache.H[0].Rows())
	assert.Equal(t, 2, cache.E[0].Rows())
	for l := 1; l <= cfg.NumLayers; l++ {
		assert.Equal(t, cfg.PropagatedDim(), cache.H[l].Cols())
		assert.Equal(t, cfg.PropagatedDim(), cache.E[l].Cols())
	}
}

func TestMaskRespectAndRowStochasticity(t *testing.T) {
	s, cfg := smallGraph(t)
	p := params.New(cfg, rand.New(rand.NewSource(2)))
	eng := New(cfg)
	cache := eng.Forward(s, p, false, nil)

	incidence := s.Incidence()
	for l := 0; l < cfg.NumLayers; l++ {
		for h := 0; h < cfg.NumHeads; h++ {
			av := cache.AlphaVE[l][h]
			for j := 0; j < av.Cols(); j++ {
				var sum float32
				for i := 0; i < av.Rows(); i++ {
					v := av.At(i, j)
					if incidence.At(i, j) == 0 {
						assert.Equal(t, float32(0), v, "alpha_ve must be 0 where A=0")
					}
					sum += v
				}
				assert.InDelta(t, 1.0, sum, 1e-4, "alpha_ve column must sum to 1 (has incident tools)")
			}

			ev := cache.AlphaEV[l][h]
			for i := 0; i < ev.Cols(); i++ {
				var sum float32
				for j := 0; j < ev.Rows(); j++ {
					v := ev.At(j, i)
					if incidence.At(i, j) == 0 {
						assert.Equal(t, float32(0), v, "alpha_ev must be 0 where A=0")
					}
					sum += v
				}
				assert.InDelta(t, 1.0, sum, 1e-4, "alpha_ev row must sum to 1 (tool has incident capabilities)")
			}
		}
	}
}

func TestForwardDeterministicWithoutDropout(t *testing.T) {
	s, cfg := smallGraph(t)
	p := params.New(cfg, rand.New(rand.NewSource(9)))
	eng := New(cfg)

	a := eng.Forward(s, p, false, nil)
	b := eng.Forward(s, p, false, nil)

	last := cfg.NumLayers
	for i := 0; i < a.H[last].Rows(); i++ {
		assert.Equal(t, a.H[last].Row(i), b.H[last].Row(i))
	}
}

func TestEmptyCapabilityGraph(t *testing.T) {
	cfg := params.Config{EmbeddingDim: 4, HiddenDim: 2, NumHeads: 2, NumLayers: 1}
	s := hypergraph.NewStore()
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{ID: "t1", Embedding: []float32{1, 0, 0, 0}}))
	p := params.New(cfg, rand.New(rand.NewSource(3)))
	eng := New(cfg)

	assert.NotPanics(t, func() {
		cache := eng.Forward(s, p, false, nil)
		assert.Equal(t, 0, cache.E[cfg.NumLayers].Rows())
	})
}
