package score

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgraph/shgat/hypergraph"
	"github.com/toolgraph/shgat/params"
	"github.com/toolgraph/shgat/propagate"
)

func minimalGraph(t *testing.T) *hypergraph.Store {
	t.Helper()
	s := hypergraph.NewStore()
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{
		ID: "t1", Embedding: []float32{1, 0, 0, 0},
		Features: &hypergraph.ToolFeatures{PageRank: 0.8, AdamicAdar: 0.5, Cooccurrence: 0.6, Recency: 0.9, HeatDiffusion: 0.4},
	}))
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{ID: "t2", Embedding: []float32{0, 1, 0, 0}}))
	require.NoError(t, s.RegisterCapability(hypergraph.CapabilityNode{
		ID: "c1", Embedding: []float32{1, 0, 0, 0}, ToolsUsed: []string{"t1"}, SuccessRate: 0.95,
		Features: &hypergraph.HypergraphFeatures{HypergraphPageRank: 0.7, AdamicAdar: 0.5, Cooccurrence: 0.6, Recency: 0.8, HeatDiffusion: 0.3},
	}))
	require.NoError(t, s.RegisterCapability(hypergraph.CapabilityNode{ID: "c2", Embedding: []float32{0, 1, 0, 0}, ToolsUsed: []string{"t2"}}))
	return s
}

func buildCache(t *testing.T, s *hypergraph.Store) (*params.Store, *propagate.Cache) {
	t.Helper()
	cfg := params.Config{EmbeddingDim: 4, HiddenDim: 3, NumHeads: 2, NumLayers: 2}
	p := params.New(cfg, rand.New(rand.NewSource(7)))
	cache := propagate.New(cfg).Forward(s, p, false, nil)
	return p, cache
}

func TestScoreAllCapabilitiesSortedDescending(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	results := ScoreAllCapabilities(s, p, cache, []float32{1, 0, 0, 0})
	require.Len(t, results, 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestReliabilityMultiplierHighSuccessRate(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	results := ScoreAllCapabilities(s, p, cache, []float32{1, 0, 0, 0})
	var c1 Result
	for _, r := range results {
		if r.ID == "c1" {
			c1 = r
		}
	}
	require.Equal(t, "c1", c1.ID)
	assert.InDelta(t, 1.0, c1.HeadWeights[0]+c1.HeadWeights[1]+c1.HeadWeights[2]+c1.HeadWeights[3]+c1.HeadWeights[4]+c1.HeadWeights[5], 1e-4)
	assert.Len(t, c1.FeatureContributions, 3)
	// c1's success rate of 0.95 puts it in the 1.2 reliability bucket.
	for _, c := range c1.FeatureContributions {
		assert.InDelta(t, c.Weight*c.Raw*1.2, c.Weighted, 1e-6)
	}
}

func TestScoreFeaturelessToolIsClampedCosine(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	results := ScoreAllTools(s, p, cache, []float32{0, 1, 0, 0})
	for _, r := range results {
		if r.ID == "t2" {
			assert.GreaterOrEqual(t, r.Score, float32(0))
			assert.LessOrEqual(t, r.Score, float32(0.95))
		}
	}
}

func TestComputeAttentionUnknownCapabilityIsRecoverable(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	r := ComputeAttention(s, p, cache, []float32{1, 0, 0, 0}, "does-not-exist")
	assert.Equal(t, "does-not-exist", r.ID)
	assert.Equal(t, float32(0), r.Score)
}

func TestComputeAttentionPopulatesToolAttention(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	r := ComputeAttention(s, p, cache, []float32{1, 0, 0, 0}, "c1")
	require.Len(t, r.ToolAttention, 2)
	var sum float32
	for _, v := range r.ToolAttention {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}

func TestPredictPathSuccessEmptyPathIsNeutral(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	assert.Equal(t, float32(0.5), PredictPathSuccess(s, p, cache, []float32{1, 0, 0, 0}, nil))
}

func TestPredictPathSuccessEmptyGraphIsNeutral(t *testing.T) {
	s := hypergraph.NewStore()
	cfg := params.Config{EmbeddingDim: 4, HiddenDim: 2, NumHeads: 1, NumLayers: 1}
	p := params.New(cfg, rand.New(rand.NewSource(1)))
	cache := propagate.New(cfg).Forward(s, p, false, nil)

	assert.Equal(t, float32(0.5), PredictPathSuccess(s, p, cache, []float32{1, 0, 0, 0}, []string{"t1"}))
}

func TestPredictPathSuccessSkipsUnknownIDs(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	withUnknown := PredictPathSuccess(s, p, cache, []float32{1, 0, 0, 0}, []string{"t1", "ghost", "c1"})
	withoutUnknown := PredictPathSuccess(s, p, cache, []float32{1, 0, 0, 0}, []string{"t1", "c1"})
	assert.InDelta(t, withoutUnknown, withUnknown, 1e-4)
}

func TestPredictPathSuccessWeightsLaterPositionsMore(t *testing.T) {
	s := minimalGraph(t)
	p, cache := buildCache(t, s)

	forward := PredictPathSuccess(s, p, cache, []float32{1, 0, 0, 0}, []string{"t1", "t2"})
	reversed := PredictPathSuccess(s, p, cache, []float32{1, 0, 0, 0}, []string{"t2", "t1"})
	assert.NotEqual(t, forward, reversed)
}

func TestReliabilityBuckets(t *testing.T) {
	assert.Equal(t, float32(0.5), reliability(0.1))
	assert.Equal(t, float32(1.0), reliability(0.7))
	assert.Equal(t, float32(1.2), reliability(0.95))
}
