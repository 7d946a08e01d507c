package shgat

import (
	"github.com/toolgraph/shgat/kernel"
	"github.com/toolgraph/shgat/params"
)

// Stats is a read-only snapshot of an Engine's size and current fusion
// weights.
type Stats struct {
	Hypergraph       HypergraphStats
	ParamCount       int
	FusionWeights    []float32 // raw logits
	NormalizedFusion []float32 // softmax(FusionWeights): {semantic, structure, temporal}
}

// HypergraphStats mirrors hypergraph.Stats's fields so callers outside this
// module don't need to import the hypergraph package for a read-only count.
type HypergraphStats struct {
	NumTools          int
	NumCapabilities   int
	IncidenceNonZeros int
	IncidenceDensity  float64
}

// Stats computes a structural and parameter snapshot of the Engine.
func (e *Engine) Stats() Stats {
	hg := e.store.Stats()
	return Stats{
		Hypergraph: HypergraphStats{
			NumTools:          hg.NumTools,
			NumCapabilities:   hg.NumCapabilities,
			IncidenceNonZeros: hg.IncidenceNonZeros,
			IncidenceDensity:  hg.IncidenceDensity,
		},
		ParamCount:       paramCount(e.params),
		FusionWeights:    append([]float32(nil), e.params.FusionWeights...),
		NormalizedFusion: kernel.Softmax(e.params.FusionWeights),
	}
}

// paramCount sums the element count of every learnable tensor in p.
func paramCount(p *params.Store) int {
	count := p.WIntent.Rows() * p.WIntent.Cols()
	count += len(p.FusionWeights)

	for _, layer := range p.Layers {
		for _, h := range layer.Heads {
			count += denseSize(h.Wv) + denseSize(h.We) + denseSize(h.We2) + denseSize(h.Wv2)
			count += len(h.Ave) + len(h.Aev)
		}
	}
	for _, lp := range p.LegacyHeadParams {
		count += denseSize(lp.Wq) + denseSize(lp.Wk) + denseSize(lp.Wv) + len(lp.A)
	}
	return count
}

func denseSize(d *kernel.Dense) int {
	if d == nil {
		return 0
	}
	return d.Rows() * d.Cols()
}
