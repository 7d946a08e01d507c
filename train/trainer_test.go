package train

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgraph/shgat/hypergraph"
	"github.com/toolgraph/shgat/kernel"
	"github.com/toolgraph/shgat/params"
)

func structureFavoringGraph(t *testing.T) (*hypergraph.Store, params.Config) {
	t.Helper()
	cfg := params.Config{EmbeddingDim: 4, HiddenDim: 3, NumHeads: 2, NumLayers: 2}
	s := hypergraph.NewStore()
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{ID: "t1", Embedding: []float32{1, 0, 0, 0}}))
	require.NoError(t, s.RegisterTool(hypergraph.ToolNode{ID: "t2", Embedding: []float32{0, 1, 0, 0}}))
	require.NoError(t, s.RegisterCapability(hypergraph.CapabilityNode{
		ID: "c1", Embedding: []float32{1, 0, 0, 0}, ToolsUsed: []string{"t1"}, SuccessRate: 0.8,
		Features: &hypergraph.HypergraphFeatures{HypergraphPageRank: 0.9},
	}))
	require.NoError(t, s.RegisterCapability(hypergraph.CapabilityNode{ID: "c2", Embedding: []float32{0, 1, 0, 0}, ToolsUsed: []string{"t2"}}))
	return s, cfg
}

func TestTrainBatchSkipsUnknownCapability(t *testing.T) {
	s, cfg := structureFavoringGraph(t)
	p := params.New(cfg, rand.New(rand.NewSource(1)))
	tr := New(NewConfig(), cfg, rand.New(rand.NewSource(2)))

	result := tr.TrainBatch(s, p, []Example{
		{IntentEmbedding: []float32{1, 0, 0, 0}, CandidateCapabilityID: "ghost", Outcome: 1},
	})
	assert.Equal(t, Result{}, result)
}

func TestTrainOnExampleUpdatesFusionWeights(t *testing.T) {
	s, cfg := structureFavoringGraph(t)
	p := params.New(cfg, rand.New(rand.NewSource(3)))
	before := append([]float32(nil), p.FusionWeights...)

	tr := New(NewConfig(WithLearningRate(0.5)), cfg, rand.New(rand.NewSource(4)))
	result := tr.TrainOnExample(s, p, Example{
		IntentEmbedding:       []float32{1, 0, 0, 0},
		CandidateCapabilityID: "c1",
		Outcome:               1,
	})

	assert.NotEqual(t, before, p.FusionWeights)
	assert.GreaterOrEqual(t, result.Loss, float32(0))
}

func TestFusionLearningFavorsStructureHead(t *testing.T) {
	s, cfg := structureFavoringGraph(t)
	p := params.New(cfg, rand.New(rand.NewSource(5)))
	tr := New(NewConfig(WithLearningRate(0.05)), cfg, rand.New(rand.NewSource(6)))

	examples := []Example{
		{IntentEmbedding: []float32{1, 0, 0, 0}, CandidateCapabilityID: "c1", Outcome: 1},
		{IntentEmbedding: []float32{0, 1, 0, 0}, CandidateCapabilityID: "c2", Outcome: 0},
	}

	initialStructureWeight := kernel.Softmax(p.FusionWeights)[1]
	for epoch := 0; epoch < 20; epoch++ {
		tr.TrainBatch(s, p, examples)
	}
	finalStructureWeight := kernel.Softmax(p.FusionWeights)[1]

	assert.Greater(t, finalStructureWeight, initialStructureWeight)
}

func TestTrainBatchLossIsFinite(t *testing.T) {
	s, cfg := structureFavoringGraph(t)
	p := params.New(cfg, rand.New(rand.NewSource(7)))
	tr := New(NewConfig(), cfg, rand.New(rand.NewSource(8)))

	result := tr.TrainBatch(s, p, []Example{
		{IntentEmbedding: []float32{1, 0, 0, 0}, CandidateCapabilityID: "c1", Outcome: 1},
		{IntentEmbedding: []float32{0, 1, 0, 0}, CandidateCapabilityID: "c2", Outcome: 1},
	})

	assert.False(t, result.Loss != result.Loss, "loss must not be NaN")
	assert.GreaterOrEqual(t, result.Accuracy, float32(0))
	assert.LessOrEqual(t, result.Accuracy, float32(1))
}
