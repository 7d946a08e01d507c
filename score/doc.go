// Package score turns a propagate.Cache plus an intent embedding into ranked,
// interpretable results: cosine similarity between the projected intent and
// the final propagated node embedding,
// six per-head scores split into semantic/structure/temporal groups,
// softmax-normalized fusion weights, and a reliability multiplier derived
// from a capability's success rate.
//
// Every exported function returns results sorted by score, descending, with
// ties broken by the node's registration order in the hypergraph.Store.
package score
