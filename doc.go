// Package shgat is the public façade of a SuperHyperGraph Attention Network
// engine: a learnable multi-head attention model over a hypergraph of tools
// (vertices) and capabilities (hyperedges) that scores candidates against an
// intent embedding, learns online or in batches from labeled outcomes, and
// exports a stable parameter blob for persistence.
//
// Under the hood, the work is split across six subpackages:
//
//	kernel/     — dense float32 matrices, activations, and initializers
//	hypergraph/ — the tool/capability store and its incidence matrix
//	params/     — the learnable tensors and their serialized blob form
//	propagate/  — the two-phase vertex↔edge message-passing engine
//	score/      — turns a propagated cache into ranked, explainable results
//	train/      — the reduced backward pass and SGD update
//
// Engine is the single entry point gluing these together; the subpackages
// supply the node, result, parameter and training types its methods take
// and return.
package shgat
