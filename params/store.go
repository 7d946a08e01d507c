package params

import (
	"math/rand"

	"github.com/toolgraph/shgat/kernel"
)

// HeadParams holds one attention head's weights within one layer: the
// vertex/edge projections (Wv, We), their second-phase counterparts
// (We2, Wv2), and the two attention vectors (Ave for vertex→edge, Aev for
// edge→vertex).
type HeadParams struct {
	Wv  *kernel.Dense // hidden_dim x in_dim(layer)
	We  *kernel.Dense // hidden_dim x in_dim(layer)
	We2 *kernel.Dense // hidden_dim x hidden_dim
	Wv2 *kernel.Dense // hidden_dim x hidden_dim
	Ave []float32     // 2*hidden_dim
	Aev []float32     // 2*hidden_dim
}

// LayerParams holds every head's parameters for one message-passing layer.
type LayerParams struct {
	Heads []HeadParams
}

// LegacyHeadParams is one head of the historical single-layer block
// (W_q, W_k, W_v, a); New allocates one per configured head. It is preserved
// for serialization compatibility without ever engaging it at runtime.
type LegacyHeadParams struct {
	Wq *kernel.Dense // hidden_dim x embedding_dim
	Wk *kernel.Dense // hidden_dim x embedding_dim
	Wv *kernel.Dense // hidden_dim x embedding_dim
	A  []float32     // 2*hidden_dim
}

// Store owns the full set of learnable tensors for a Config.
type Store struct {
	Config Config

	Layers []LayerParams // len == Config.NumLayers

	// FusionWeights are raw logits over {semantic, structure, temporal};
	// softmax-normalized at use.
	FusionWeights []float32 // len 3

	// WIntent projects an external intent embedding into the
	// post-propagation space: (NumHeads*HiddenDim) x EmbeddingDim.
	WIntent *kernel.Dense

	// LegacyHeadParams is allocated for wire compatibility only; it is never
	// read by propagate or score.
	LegacyHeadParams []LegacyHeadParams
}

// New allocates and initializes a Store from cfg. rng may be nil, in which
// case kernel's default deterministic source is used (see kernel.XavierMatrix).
func New(cfg Config, rng *rand.Rand) *Store {
	s := &Store{Config: cfg}

	s.Layers = make([]LayerParams, cfg.NumLayers)
	for l := 0; l < cfg.NumLayers; l++ {
		inDim := cfg.InDim(l)
		heads := make([]HeadParams, cfg.NumHeads)
		for h := 0; h < cfg.NumHeads; h++ {
			heads[h] = HeadParams{
				Wv:  kernel.XavierMatrix(cfg.HiddenDim, inDim, rng),
				We:  kernel.XavierMatrix(cfg.HiddenDim, inDim, rng),
				We2: kernel.XavierMatrix(cfg.HiddenDim, cfg.HiddenDim, rng),
				Wv2: kernel.XavierMatrix(cfg.HiddenDim, cfg.HiddenDim, rng),
				Ave: kernel.InitVector(2*cfg.HiddenDim, rng),
				Aev: kernel.InitVector(2*cfg.HiddenDim, rng),
			}
		}
		s.Layers[l] = LayerParams{Heads: heads}
	}

	s.FusionWeights = kernel.InitVector(3, rng)
	s.WIntent = kernel.XavierMatrix(cfg.PropagatedDim(), cfg.EmbeddingDim, rng)

	s.LegacyHeadParams = make([]LegacyHeadParams, cfg.NumHeads)
	for h := 0; h < cfg.NumHeads; h++ {
		s.LegacyHeadParams[h] = LegacyHeadParams{
			Wq: kernel.XavierMatrix(cfg.HiddenDim, cfg.EmbeddingDim, rng),
			Wk: kernel.XavierMatrix(cfg.HiddenDim, cfg.EmbeddingDim, rng),
			Wv: kernel.XavierMatrix(cfg.HiddenDim, cfg.EmbeddingDim, rng),
			A:  kernel.InitVector(2*cfg.HiddenDim, rng),
		}
	}
	return s
}

// Grad mirrors the trainable subset of Store that the reduced backward pass
// accumulates gradients for: per-layer, per-head Wv, the fusion weights, and
// WIntent. Everything else is implicitly zero.
type Grad struct {
	Wv            [][]*kernel.Dense // [layer][head], hidden_dim x in_dim(layer)
	FusionWeights []float32         // len 3
	WIntent       *kernel.Dense     // (NumHeads*HiddenDim) x EmbeddingDim
}

// NewGrad allocates a zeroed Grad shaped to match a Store built from cfg.
func NewGrad(cfg Config) *Grad {
	g := &Grad{
		FusionWeights: make([]float32, 3),
		WIntent:       kernel.NewDense(cfg.PropagatedDim(), cfg.EmbeddingDim),
	}
	g.Wv = make([][]*kernel.Dense, cfg.NumLayers)
	for l := 0; l < cfg.NumLayers; l++ {
		inDim := cfg.InDim(l)
		row := make([]*kernel.Dense, cfg.NumHeads)
		for h := 0; h < cfg.NumHeads; h++ {
			row[h] = kernel.NewDense(cfg.HiddenDim, inDim)
		}
		g.Wv[l] = row
	}
	return g
}

// Reset zeros every accumulator in place, for reuse across batches.
func (g *Grad) Reset() {
	for _, layer := range g.Wv {
		for _, d := range layer {
			d.Zero()
		}
	}
	for i := range g.FusionWeights {
		g.FusionWeights[i] = 0
	}
	g.WIntent.Zero()
}

// ApplySGD updates the trainable subset in place:
// θ ← θ − (lr/batchSize)·(grad + λ·θ), i.e. lr/batchSize scales both the
// gradient and the weight-decay term.
func (s *Store) ApplySGD(g *Grad, lr, l2 float32, batchSize int) {
	if batchSize <= 0 {
		return
	}
	scale := lr / float32(batchSize)

	for l := range s.Layers {
		for h := range s.Layers[l].Heads {
			applyDense(s.Layers[l].Heads[h].Wv, g.Wv[l][h], scale, scale*l2)
		}
	}
	for i := range s.FusionWeights {
		s.FusionWeights[i] -= scale*g.FusionWeights[i] + scale*l2*s.FusionWeights[i]
	}
	applyDense(s.WIntent, g.WIntent, scale, scale*l2)
}

func applyDense(theta, grad *kernel.Dense, scale, l2Step float32) {
	for i := 0; i < theta.Rows(); i++ {
		tr := theta.Row(i)
		gr := grad.Row(i)
		for j := range tr {
			tr[j] -= scale*gr[j] + l2Step*tr[j]
		}
	}
}
