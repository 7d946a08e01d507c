package propagate

import (
	"math/rand"

	"github.com/toolgraph/shgat/hypergraph"
	"github.com/toolgraph/shgat/kernel"
	"github.com/toolgraph/shgat/params"
)

const leakyAlpha = 0.2
const eluAlpha = 1.0

// Cache holds every activation needed to interpret or (partially) backprop
// through a forward pass.
//
// H[l] / E[l] are the stacked tool / capability representations entering
// layer l, for l in [0, NumLayers]; H[NumLayers]/E[NumLayers] are the final
// propagated embeddings. AlphaVE[l][h] and AlphaEV[l][h] are the masked,
// normalized attention weights for layer l head h (AlphaVE: numTools x
// numCaps; AlphaEV: numCaps x numTools).
type Cache struct {
	H       []*kernel.Dense
	E       []*kernel.Dense
	AlphaVE [][]*kernel.Dense
	AlphaEV [][]*kernel.Dense
}

// Engine runs the forward pass for a fixed Config.
type Engine struct {
	cfg params.Config
}

// New returns an Engine for cfg.
func New(cfg params.Config) *Engine {
	return &Engine{cfg: cfg}
}

// headModulation returns the additive score bump assigned to heads 2 and 3,
// for capability feature f (heads 0-1 and heads >=4 get 0).
func headModulation(head int, f hypergraph.HypergraphFeatures) float32 {
	switch head {
	case 2:
		return 2 * f.HypergraphPageRank
	case 3:
		return 0.6*f.Cooccurrence + 0.4*f.Recency
	default:
		return 0
	}
}

// Forward runs the full NumLayers-deep two-phase propagation over store
// using p's parameters. training enables inverted dropout at rate
// p.Config.Dropout; rng drives the dropout mask and must be non-nil when
// training is true and Dropout > 0.
func (e *Engine) Forward(store *hypergraph.Store, p *params.Store, training bool, rng *rand.Rand) *Cache {
	toolIDs := store.ToolIDs()
	capIDs := store.CapabilityIDs()
	numTools, numCaps := len(toolIDs), len(capIDs)

	capFeatures := make([]hypergraph.HypergraphFeatures, numCaps)
	for j, id := range capIDs {
		c, _ := store.Capability(id)
		if c.Features != nil {
			capFeatures[j] = *c.Features
		}
	}

	incidence := store.Incidence()

	cache := &Cache{
		H:       make([]*kernel.Dense, e.cfg.NumLayers+1),
		E:       make([]*kernel.Dense, e.cfg.NumLayers+1),
		AlphaVE: make([][]*kernel.Dense, e.cfg.NumLayers),
		AlphaEV: make([][]*kernel.Dense, e.cfg.NumLayers),
	}

	dim := store.EmbeddingDim()
	if dim == 0 {
		dim = e.cfg.EmbeddingDim
	}
	cache.H[0] = stackEmbeddings(toolIDs, dim, func(id string) []float32 {
		t, _ := store.Tool(id)
		return t.Embedding
	})
	cache.E[0] = stackEmbeddings(capIDs, dim, func(id string) []float32 {
		c, _ := store.Capability(id)
		return c.Embedding
	})

	for l := 0; l < e.cfg.NumLayers; l++ {
		H := cache.H[l]
		E := cache.E[l]
		layer := p.Layers[l]

		headH := make([]*kernel.Dense, e.cfg.NumHeads)
		headE := make([]*kernel.Dense, e.cfg.NumHeads)
		cache.AlphaVE[l] = make([]*kernel.Dense, e.cfg.NumHeads)
		cache.AlphaEV[l] = make([]*kernel.Dense, e.cfg.NumHeads)

		for h := 0; h < e.cfg.NumHeads; h++ {
			hp := layer.Heads[h]

			Hp := kernel.MatMulTransposed(H, hp.Wv) // numTools x hidden
			Ep := kernel.MatMulTransposed(E, hp.We)  // numCaps x hidden

			alphaVE := kernel.NewDense(numTools, numCaps)
			Eagg := kernel.NewDense(numCaps, e.cfg.HiddenDim) // E'_h, pre-concat

			for j := 0; j < numCaps; j++ {
				toolRows := incidentTools(incidence, numTools, j)
				if len(toolRows) == 0 {
					continue // no incident tools: zero aggregate, zero attention column
				}
				raw := make([]float32, len(toolRows))
				mod := headModulation(h, capFeatures[j])
				for idx, t := range toolRows {
					concat := concatVec(Hp.Row(t), Ep.Row(j))
					raw[idx] = kernel.Dot(hp.Ave, kernel.LeakyReLUVec(concat, leakyAlpha)) + mod
				}
				alpha := kernel.Softmax(raw)
				out := Eagg.Row(j)
				for idx, t := range toolRows {
					alphaVE.Set(t, j, alpha[idx])
					htp := Hp.Row(t)
					for d := range out {
						out[d] += alpha[idx] * htp[d]
					}
				}
				for d := range out {
					out[d] = kernel.ELU(out[d], eluAlpha)
				}
			}

			Ep2 := kernel.MatMulTransposed(Eagg, hp.We2) // numCaps x hidden
			Hp2 := kernel.MatMulTransposed(Hp, hp.Wv2)   // numTools x hidden

			alphaEV := kernel.NewDense(numCaps, numTools)
			Hagg := kernel.NewDense(numTools, e.cfg.HiddenDim) // H'_h, pre-concat

			for i := 0; i < numTools; i++ {
				capCols := incidentCapabilities(incidence, numCaps, i)
				if len(capCols) == 0 {
					continue // tool belongs to no capability: zero contribution from phase 2
				}
				raw := make([]float32, len(capCols))
				for idx, j := range capCols {
					mod := headModulation(h, capFeatures[j])
					concat := concatVec(Ep2.Row(j), Hp2.Row(i))
					raw[idx] = kernel.Dot(hp.Aev, kernel.LeakyReLUVec(concat, leakyAlpha)) + mod
				}
				alpha := kernel.Softmax(raw)
				out := Hagg.Row(i)
				for idx, j := range capCols {
					alphaEV.Set(j, i, alpha[idx])
					ep2 := Ep2.Row(j)
					for d := range out {
						out[d] += alpha[idx] * ep2[d]
					}
				}
				for d := range out {
					out[d] = kernel.ELU(out[d], eluAlpha)
				}
			}

			if training && e.cfg.Dropout > 0 {
				invertedDropout(Hagg, e.cfg.Dropout, rng)
				invertedDropout(Eagg, e.cfg.Dropout, rng)
			}

			headH[h] = Hagg
			headE[h] = Eagg
			cache.AlphaVE[l][h] = alphaVE
			cache.AlphaEV[l][h] = alphaEV
		}

		cache.H[l+1] = concatHeads(headH, numTools, e.cfg.HiddenDim)
		cache.E[l+1] = concatHeads(headE, numCaps, e.cfg.HiddenDim)
	}

	return cache
}

func stackEmbeddings(ids []string, dim int, get func(string) []float32) *kernel.Dense {
	if len(ids) == 0 {
		return kernel.NewDense(0, dim)
	}
	rows := make([][]float32, len(ids))
	for i, id := range ids {
		rows[i] = get(id)
	}
	return kernel.NewDenseFromRows(rows)
}

func incidentTools(a *kernel.Dense, numTools, col int) []int {
	if a == nil {
		return nil
	}
	var out []int
	for i := 0; i < numTools; i++ {
		if a.At(i, col) != 0 {
			out = append(out, i)
		}
	}
	return out
}

func incidentCapabilities(a *kernel.Dense, numCaps, row int) []int {
	if a == nil {
		return nil
	}
	var out []int
	for j := 0; j < numCaps; j++ {
		if a.At(row, j) != 0 {
			out = append(out, j)
		}
	}
	return out
}

func concatVec(a, b []float32) []float32 {
	out := make([]float32, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}

func concatHeads(heads []*kernel.Dense, rows, hiddenDim int) *kernel.Dense {
	out := kernel.NewDense(rows, len(heads)*hiddenDim)
	for h, head := range heads {
		for i := 0; i < rows; i++ {
			copy(out.Row(i)[h*hiddenDim:(h+1)*hiddenDim], head.Row(i))
		}
	}
	return out
}

// invertedDropout zeroes each row's elements independently with probability
// rate and rescales survivors by 1/(1-rate), in place.
func invertedDropout(d *kernel.Dense, rate float32, rng *rand.Rand) {
	if rng == nil {
		return
	}
	keep := 1 - rate
	if keep <= 0 {
		return
	}
	for i := 0; i < d.Rows(); i++ {
		row := d.Row(i)
		for j := range row {
			if rng.Float32() < rate {
				row[j] = 0
			} else {
				row[j] /= keep
			}
		}
	}
}
