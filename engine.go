package shgat

import (
	"math/rand"
	"sync"

	"github.com/toolgraph/shgat/hypergraph"
	"github.com/toolgraph/shgat/params"
	"github.com/toolgraph/shgat/propagate"
	"github.com/toolgraph/shgat/score"
	"github.com/toolgraph/shgat/train"
)

// Engine is the single stateful object an application owns: a hypergraph of
// tools and capabilities, a set of learnable parameters, and the machinery
// to score, train, and persist them. An Engine is not safe for concurrent
// mutation; concurrent score_* reads on an otherwise-quiescent Engine are
// safe.
type Engine struct {
	store   *hypergraph.Store
	params  *params.Store
	prop    *propagate.Engine
	trainer *train.Trainer
	rng     *rand.Rand

	cacheMu sync.Mutex // guards cache and dirty when score_* calls refresh the cache
	cache   *propagate.Cache
	dirty   bool
}

// New allocates an Engine with freshly initialized parameters over an empty
// hypergraph.
func New(opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rng := rand.New(rand.NewSource(cfg.seed))
	return &Engine{
		store:   hypergraph.NewStore(),
		params:  params.New(cfg.params, rng),
		prop:    propagate.New(cfg.params),
		trainer: train.New(cfg.train, cfg.params, rng),
		rng:     rng,
		dirty:   true,
	}
}

// RegisterTool inserts or replaces a tool.
func (e *Engine) RegisterTool(t hypergraph.ToolNode) error {
	err := e.store.RegisterTool(t)
	e.dirty = true
	return err
}

// RegisterCapability inserts or replaces a capability.
func (e *Engine) RegisterCapability(c hypergraph.CapabilityNode) error {
	err := e.store.RegisterCapability(c)
	e.dirty = true
	return err
}

// BuildFromData replaces the entire hypergraph with tools and caps.
func (e *Engine) BuildFromData(tools []hypergraph.ToolNode, caps []hypergraph.CapabilityNode) error {
	err := e.store.BuildFromData(tools, caps)
	e.dirty = true
	return err
}

// UpdateToolFeatures shallow-merges patch into tool id's features. An
// unknown id is recoverable: the call is a no-op.
func (e *Engine) UpdateToolFeatures(id string, patch hypergraph.ToolFeaturesPatch) {
	e.store.UpdateToolFeatures(id, patch)
	e.dirty = true
}

// UpdateHypergraphFeatures shallow-merges patch into capability id's
// features. An unknown id is recoverable: the call is a no-op.
func (e *Engine) UpdateHypergraphFeatures(id string, patch hypergraph.HypergraphFeaturesPatch) {
	e.store.UpdateHypergraphFeatures(id, patch)
	e.dirty = true
}

// UpdateToolFeaturesBatch applies patches atomically w.r.t. the forward-pass
// cache: the cache is invalidated once, after every patch in the batch.
func (e *Engine) UpdateToolFeaturesBatch(patches map[string]hypergraph.ToolFeaturesPatch) {
	for id, patch := range patches {
		e.store.UpdateToolFeatures(id, patch)
	}
	e.dirty = true
}

// UpdateHypergraphFeaturesBatch applies patches atomically w.r.t. the
// forward-pass cache: the cache is invalidated once, after every patch in
// the batch.
func (e *Engine) UpdateHypergraphFeaturesBatch(patches map[string]hypergraph.HypergraphFeaturesPatch) {
	for id, patch := range patches {
		e.store.UpdateHypergraphFeatures(id, patch)
	}
	e.dirty = true
}

// ensureForward returns the current forward-pass cache, recomputing it if
// the hypergraph or parameters changed since the last call.
func (e *Engine) ensureForward() *propagate.Cache {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if e.dirty || e.cache == nil {
		e.cache = e.prop.Forward(e.store, e.params, false, nil)
		e.dirty = false
	}
	return e.cache
}

// ScoreAllTools scores every registered tool against intent, sorted
// descending. contextToolEmbeddings and contextCapabilityIDs are deprecated
// parameters accepted for API compatibility and ignored.
func (e *Engine) ScoreAllTools(intent []float32, contextToolEmbeddings [][]float32, contextCapabilityIDs []string) []score.Result {
	return score.ScoreAllTools(e.store, e.params, e.ensureForward(), intent)
}

// ScoreAllCapabilities scores every registered capability against intent,
// sorted descending. contextToolEmbeddings and contextCapabilityIDs are
// deprecated parameters accepted for API compatibility and ignored.
func (e *Engine) ScoreAllCapabilities(intent []float32, contextToolEmbeddings [][]float32, contextCapabilityIDs []string) []score.Result {
	return score.ScoreAllCapabilities(e.store, e.params, e.ensureForward(), intent)
}

// ComputeAttention returns the single-capability score and tool attention
// for capID. An unknown capID is recoverable: a zero-scored Result is
// returned.
func (e *Engine) ComputeAttention(intent []float32, capID string) score.Result {
	return score.ComputeAttention(e.store, e.params, e.ensureForward(), intent, capID)
}

// PredictPathSuccess returns the weighted-average predicted success of path.
// An empty path or an empty hypergraph returns the neutral 0.5.
func (e *Engine) PredictPathSuccess(intent []float32, path []string) float32 {
	return score.PredictPathSuccess(e.store, e.params, e.ensureForward(), intent, path)
}

// TrainBatch runs one batch of the reduced backward pass and applies the
// resulting SGD update.
func (e *Engine) TrainBatch(examples []train.Example) train.Result {
	result := e.trainer.TrainBatch(e.store, e.params, examples)
	e.dirty = true
	return result
}

// TrainOnExample trains on a single example.
func (e *Engine) TrainOnExample(ex train.Example) train.Result {
	result := e.trainer.TrainOnExample(e.store, e.params, ex)
	e.dirty = true
	return result
}

// ExportParams snapshots the engine's current parameters into a
// self-describing, serializable Blob.
func (e *Engine) ExportParams() *params.Blob {
	return e.params.Export()
}

// ImportParams replaces the engine's parameters with the contents of b. Any
// field absent from b leaves the corresponding existing value untouched.
func (e *Engine) ImportParams(b *params.Blob) {
	e.params = params.Import(e.params, b)
	e.dirty = true
}

// ExportParamsYAML snapshots the engine's parameters as a YAML document in
// the stable on-disk parameter format.
func (e *Engine) ExportParamsYAML() ([]byte, error) {
	return e.ExportParams().ToYAML()
}

// ImportParamsYAML replaces the engine's parameters with the contents of a
// YAML document produced by ExportParamsYAML.
func (e *Engine) ImportParamsYAML(data []byte) error {
	b, err := params.BlobFromYAML(data)
	if err != nil {
		return err
	}
	e.ImportParams(b)
	return nil
}
