package score

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/toolgraph/shgat/hypergraph"
	"github.com/toolgraph/shgat/kernel"
	"github.com/toolgraph/shgat/params"
	"github.com/toolgraph/shgat/propagate"
)

// Contribution is one semantic/structure/temporal group's raw score, its
// softmax-normalized fusion weight, and their product.
type Contribution struct {
	Group    string
	Raw      float32
	Weight   float32
	Weighted float32
}

// Result is one scored tool or capability.
type Result struct {
	ID                   string
	Score                float32
	HeadScores           [6]float32
	HeadWeights          [6]float32
	FeatureContributions []Contribution
	ToolAttention        []float32 // capabilities only: last-layer alpha_ve, averaged across heads
}

// reliability maps a capability's success rate to its reliability multiplier.
func reliability(successRate float32) float32 {
	switch {
	case successRate < 0.5:
		return 0.5
	case successRate > 0.9:
		return 1.2
	default:
		return 1.0
	}
}

// fuse combines three group scores with softmax-normalized fusion weights
// and a reliability multiplier into a final sigmoid score, returning the
// per-group contributions alongside it.
func fuse(sem, str, tmp float32, fusionWeights []float32, rel float32) (float32, []Contribution) {
	w := kernel.Softmax(fusionWeights)
	base := (w[0]*sem + w[1]*str + w[2]*tmp) * rel
	contributions := []Contribution{
		{Group: "semantic", Raw: sem, Weight: w[0], Weighted: w[0] * sem * rel},
		{Group: "structure", Raw: str, Weight: w[1], Weighted: w[1] * str * rel},
		{Group: "temporal", Raw: tmp, Weight: w[2], Weighted: w[2] * tmp * rel},
	}
	return kernel.Sigmoid(base), contributions
}

func headWeightsFromGroups(w []float32) [6]float32 {
	var hw [6]float32
	hw[0], hw[1] = w[0]/2, w[0]/2
	hw[2], hw[3] = w[1]/2, w[1]/2
	hw[4], hw[5] = w[2]/2, w[2]/2
	return hw
}

// ScoreAllCapabilities scores every registered capability against intent,
// sorted descending (ties broken by registration order).
func ScoreAllCapabilities(store *hypergraph.Store, p *params.Store, cache *propagate.Cache, intent []float32) []Result {
	capIDs := store.CapabilityIDs()
	results := make([]Result, 0, len(capIDs))
	iProj := projectIntent(p, intent)
	last := len(cache.E) - 1

	for j, id := range capIDs {
		cap, _ := store.Capability(id)
		results = append(results, scoreCapability(p, cache, iProj, id, j, cap, last))
	}
	sortResults(results)
	return results
}

// ScoreAllTools scores every registered tool against intent, sorted
// descending (ties broken by registration order).
func ScoreAllTools(store *hypergraph.Store, p *params.Store, cache *propagate.Cache, intent []float32) []Result {
	toolIDs := store.ToolIDs()
	results := make([]Result, 0, len(toolIDs))
	iProj := projectIntent(p, intent)
	last := len(cache.H) - 1

	for i, id := range toolIDs {
		t, _ := store.Tool(id)
		results = append(results, scoreTool(p, cache, iProj, id, i, t, last))
	}
	sortResults(results)
	return results
}

// ComputeAttention returns the single-capability Result for capID (score
// plus tool_attention). An unknown capability is recoverable: a zero-scored
// Result is returned and the condition is logged at debug level.
func ComputeAttention(store *hypergraph.Store, p *params.Store, cache *propagate.Cache, intent []float32, capID string) Result {
	j, ok := store.CapabilityIndex(capID)
	if !ok {
		logrus.Debugf("[score] ComputeAttention: unknown capability %q", capID)
		return Result{ID: capID}
	}
	cap, _ := store.Capability(capID)
	iProj := projectIntent(p, intent)
	last := len(cache.E) - 1
	return scoreCapability(p, cache, iProj, capID, j, cap, last)
}

// projectIntent computes i_proj = WIntent · intent, i.e.
// i_proj[d] = Σ_e WIntent[d][e]·intent[e], by treating intent as a single
// row and WIntent's rows as the other operand of MatMulTransposed.
func projectIntent(p *params.Store, intent []float32) []float32 {
	proj := kernel.MatMulTransposed(kernel.NewDenseFromRows([][]float32{intent}), p.WIntent)
	return proj.Row(0)
}

func attentionForLastLayer(cache *propagate.Cache, j int) []float32 {
	last := len(cache.AlphaVE) - 1
	if last < 0 {
		return nil
	}
	numHeads := len(cache.AlphaVE[last])
	if numHeads == 0 {
		return nil
	}
	numTools := cache.AlphaVE[last][0].Rows()
	out := make([]float32, numTools)
	for h := 0; h < numHeads; h++ {
		for i := 0; i < numTools; i++ {
			out[i] += cache.AlphaVE[last][h].At(i, j)
		}
	}
	for i := range out {
		out[i] /= float32(numHeads)
	}
	return out
}

func scoreCapability(p *params.Store, cache *propagate.Cache, iProj []float32, id string, j int, cap hypergraph.CapabilityNode, lastLayer int) Result {
	var f hypergraph.HypergraphFeatures
	if cap.Features != nil {
		f = *cap.Features
	}

	sim := kernel.Cosine(iProj, cache.E[lastLayer].Row(j))
	h0, h1 := sim, sim
	h2 := f.HypergraphPageRank
	h3 := 0.5/(1+float32(f.SpectralCluster)) + 0.5*f.AdamicAdar
	h4 := 0.5*f.Cooccurrence + 0.5*f.Recency
	h5 := f.HeatDiffusion

	sem, str, tmp := (h0+h1)/2, (h2+h3)/2, (h4+h5)/2
	rel := reliability(cap.SuccessRate)
	s, contributions := fuse(sem, str, tmp, p.FusionWeights, rel)

	return Result{
		ID:                   id,
		Score:                s,
		HeadScores:           [6]float32{h0, h1, h2, h3, h4, h5},
		HeadWeights:          headWeightsFromGroups(kernel.Softmax(p.FusionWeights)),
		FeatureContributions: contributions,
		ToolAttention:        attentionForLastLayer(cache, j),
	}
}

func scoreTool(p *params.Store, cache *propagate.Cache, iProj []float32, id string, i int, t hypergraph.ToolNode, lastLayer int) Result {
	sim := kernel.Cosine(iProj, cache.H[lastLayer].Row(i))

	if t.Features == nil {
		clamped := clamp01(sim)
		if clamped > 0.95 {
			clamped = 0.95
		}
		return Result{ID: id, Score: clamped, HeadScores: [6]float32{sim, sim, 0, 0, 0, 0}}
	}

	f := *t.Features
	h0, h1 := sim, sim
	h2 := f.PageRank
	h3 := 0.5/(1+float32(f.LouvainCommunity)) + 0.5*f.AdamicAdar
	h4 := 0.5*f.Cooccurrence + 0.5*f.Recency
	h5 := f.HeatDiffusion

	sem, str, tmp := (h0+h1)/2, (h2+h3)/2, (h4+h5)/2
	s, contributions := fuse(sem, str, tmp, p.FusionWeights, 1.0)

	return Result{
		ID:                   id,
		Score:                s,
		HeadScores:           [6]float32{h0, h1, h2, h3, h4, h5},
		HeadWeights:          headWeightsFromGroups(kernel.Softmax(p.FusionWeights)),
		FeatureContributions: contributions,
	}
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// PredictPathSuccess returns the weighted average of each path node's score
// (looked up as a tool first, then as a capability), with later positions
// weighted more heavily (weight 1+0.5*i). An empty path, an empty graph, or
// a path whose every id is unknown all return the neutral 0.5.
func PredictPathSuccess(store *hypergraph.Store, p *params.Store, cache *propagate.Cache, intent []float32, path []string) float32 {
	if len(path) == 0 {
		return 0.5
	}
	toolIDs, capIDs := store.ToolIDs(), store.CapabilityIDs()
	if len(toolIDs) == 0 && len(capIDs) == 0 {
		return 0.5
	}

	toolScores := indexResults(ScoreAllTools(store, p, cache, intent))
	capScores := indexResults(ScoreAllCapabilities(store, p, cache, intent))

	var weightedSum, weightSum float32
	for i, id := range path {
		weight := float32(1 + 0.5*float64(i))
		s, ok := toolScores[id]
		if !ok {
			s, ok = capScores[id]
		}
		if !ok {
			logrus.Debugf("[score] PredictPathSuccess: unknown node %q, skipping", id)
			continue
		}
		weightedSum += weight * s
		weightSum += weight
	}
	if weightSum == 0 {
		return 0.5
	}
	return weightedSum / weightSum
}

func indexResults(results []Result) map[string]float32 {
	out := make(map[string]float32, len(results))
	for _, r := range results {
		out[r.ID] = r.Score
	}
	return out
}

// clamp01 clamps x into [0,1].
func clamp01(x float32) float32 {
	return float32(math.Max(0, math.Min(float64(x), 1)))
}
