package train

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/toolgraph/shgat/hypergraph"
	"github.com/toolgraph/shgat/kernel"
	"github.com/toolgraph/shgat/params"
	"github.com/toolgraph/shgat/propagate"
)

// Example is one labeled training instance. ContextTools is accepted for API
// compatibility with external path planners but is not consumed: SHGAT
// scoring is context-free.
type Example struct {
	IntentEmbedding       []float32
	CandidateCapabilityID string
	Outcome               float32 // 0 or 1
	ContextTools          []string
}

// Result summarizes one TrainBatch/TrainOnExample call.
type Result struct {
	Loss     float32
	Accuracy float32
}

// reliability mirrors score.reliability; duplicated here because the
// backward pass needs the same multiplier the forward score used, and a
// dependency on the score package would run gradient math through an API
// that doesn't expose the intermediates it needs.
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

// Trainer runs a reduced backward pass against a fixed hypergraph.Store and
// params.Store pair, reusing one gradient accumulator across batches.
type Trainer struct {
	cfg    Config
	engine *propagate.Engine
	grad   *params.Grad
	rng    *rand.Rand
}

// New returns a Trainer for propCfg-shaped params, using rng to drive
// training-mode dropout (rng may be nil only if propCfg.Dropout is 0).
func New(cfg Config, propCfg params.Config, rng *rand.Rand) *Trainer {
	return &Trainer{
		cfg:    cfg,
		engine: propagate.New(propCfg),
		grad:   params.NewGrad(propCfg),
		rng:    rng,
	}
}

// TrainOnExample trains on a single example; a thin wrapper over TrainBatch.
func (tr *Trainer) TrainOnExample(store *hypergraph.Store, p *params.Store, ex Example) Result {
	return tr.TrainBatch(store, p, []Example{ex})
}

// TrainBatch runs the full reset → forward → loss → backward → SGD cycle
// for examples. Examples whose candidate capability is unregistered are
// skipped: counted in neither loss nor accuracy.
func (tr *Trainer) TrainBatch(store *hypergraph.Store, p *params.Store, examples []Example) Result {
	tr.grad.Reset()

	losses := make([]float64, 0, len(examples))
	var correct int

	for _, ex := range examples {
		loss, isCorrect, ok := tr.accumulateExample(store, p, ex)
		if !ok {
			continue
		}
		losses = append(losses, float64(loss))
		if isCorrect {
			correct++
		}
	}

	if len(losses) == 0 {
		return Result{}
	}

	p.ApplySGD(tr.grad, tr.cfg.LearningRate, tr.cfg.L2, len(losses))

	return Result{
		Loss:     float32(stat.Mean(losses, nil)),
		Accuracy: float32(correct) / float32(len(losses)),
	}
}

// accumulateExample runs one example's forward pass, computes its loss,
// accumulates its gradient contribution into tr.grad, and reports whether
// the prediction matched the label. ok is false when the example's
// candidate capability is unregistered.
func (tr *Trainer) accumulateExample(store *hypergraph.Store, p *params.Store, ex Example) (loss float32, correct bool, ok bool) {
	j, found := store.CapabilityIndex(ex.CandidateCapabilityID)
	if !found {
		logrus.Debugf("[train] unknown capability %q, skipping example", ex.CandidateCapabilityID)
		return 0, false, false
	}

	cache := tr.engine.Forward(store, p, true, tr.rng)
	cap, _ := store.Capability(ex.CandidateCapabilityID)
	var f hypergraph.HypergraphFeatures
	if cap.Features != nil {
		f = *cap.Features
	}

	iProj := projectIntent(p, ex.IntentEmbedding)
	eFinal := cache.E[len(cache.E)-1].Row(j)
	sim := kernel.Cosine(iProj, eFinal)

	sem := sim
	str := (f.HypergraphPageRank + 0.5/(1+float32(f.SpectralCluster)) + 0.5*f.AdamicAdar) / 2
	tmp := (0.5*f.Cooccurrence + 0.5*f.Recency + f.HeatDiffusion) / 2

	w := kernel.Softmax(p.FusionWeights)
	rel := reliability(cap.SuccessRate)
	base := w[0]*sem + w[1]*str + w[2]*tmp
	score := kernel.Sigmoid(base * rel)

	loss = kernel.BCE(score, ex.Outcome)
	predicted := float32(0)
	if score >= 0.5 {
		predicted = 1
	}

	dBase := (score - ex.Outcome) * rel // dL/dbase_score

	tr.accumulateFusionGradient(w, []float32{sem, str, tmp}, dBase)
	dEFinal := tr.accumulateIntentGradient(ex.IntentEmbedding, iProj, eFinal, sim, dBase*w[0])
	tr.accumulateLayerGradient(p, cache, j, dEFinal)

	return loss, predicted == ex.Outcome, true
}

// accumulateFusionGradient backprops dBase through base = Σ w_i·group_i and
// then through the softmax w = softmax(fusionWeights), using the identity
// ∂w_i/∂r_j = w_i·(δ_ij − w_j).
func (tr *Trainer) accumulateFusionGradient(w, groups []float32, dBase float32) {
	dw := []float32{dBase * groups[0], dBase * groups[1], dBase * groups[2]}
	var dotWdW float32
	for i := range w {
		dotWdW += w[i] * dw[i]
	}
	for i := range tr.grad.FusionWeights {
		tr.grad.FusionWeights[i] += w[i] * (dw[i] - dotWdW)
	}
}

// accumulateIntentGradient backprops dSim (dL/dsim) through cosine
// similarity to both operands, accumulating W_intent's gradient from the
// projected-intent side and returning the gradient w.r.t. the final
// capability embedding (needed by accumulateLayerGradient).
func (tr *Trainer) accumulateIntentGradient(intent, iProj, eFinal []float32, sim, dSim float32) []float32 {
	nx := vectorNorm(iProj)
	ny := vectorNorm(eFinal)
	dEFinal := make([]float32, len(eFinal))
	if nx == 0 || ny == 0 {
		return dEFinal
	}

	for d := range iProj {
		dProjD := dSim * (eFinal[d]/(nx*ny) - sim*iProj[d]/(nx*nx))
		for e, v := range intent {
			tr.grad.WIntent.Set(d, e, tr.grad.WIntent.At(d, e)+dProjD*v)
		}
	}
	for d := range eFinal {
		dEFinal[d] = dSim * (iProj[d]/(nx*ny) - sim*eFinal[d]/(ny*ny))
	}
	return dEFinal
}

// accumulateLayerGradient implements a reduced layer gradient: only the last
// layer's vertex→edge phase, for every head, accumulates into W_v.
// dW_v[h][d][j] += dE_head[d]·α_ve(t,c*)·H[last][t][j], summed over incident
// tools t.
func (tr *Trainer) accumulateLayerGradient(p *params.Store, cache *propagate.Cache, capIdx int, dEFinal []float32) {
	lastLayer := p.Config.NumLayers - 1
	if lastLayer < 0 {
		return
	}
	hiddenDim := p.Config.HiddenDim
	inDim := p.Config.InDim(lastLayer)
	hLayer := cache.H[lastLayer]
	numTools := hLayer.Rows()

	for h := 0; h < p.Config.NumHeads; h++ {
		alphaVE := cache.AlphaVE[lastLayer][h]
		dEHead := dEFinal[h*hiddenDim : (h+1)*hiddenDim]

		weightedH := make([]float32, inDim)
		for t := 0; t < numTools; t++ {
			a := alphaVE.At(t, capIdx)
			if a == 0 {
				continue
			}
			row := hLayer.Row(t)
			for jd := 0; jd < inDim; jd++ {
				weightedH[jd] += a * row[jd]
			}
		}

		gw := tr.grad.Wv[lastLayer][h]
		for d := 0; d < hiddenDim; d++ {
			for jd := 0; jd < inDim; jd++ {
				gw.Set(d, jd, gw.At(d, jd)+dEHead[d]*weightedH[jd])
			}
		}
	}
}

// projectIntent computes WIntent·intent, mirroring score.projectIntent.
func projectIntent(p *params.Store, intent []float32) []float32 {
	proj := kernel.MatMulTransposed(kernel.NewDenseFromRows([][]float32{intent}), p.WIntent)
	return proj.Row(0)
}

func vectorNorm(v []float32) float32 {
	return float32(math.Sqrt(float64(kernel.Dot(v, v))))
}
