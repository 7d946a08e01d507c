// Package hypergraph owns the SHGAT engine's tool/capability graph: the two
// node catalogs (tools are vertices, capabilities are hyperedges), the
// insertion-order index assigned to each, and the dense incidence matrix A
// built from each capability's transitive tool set.
//
// Store is the only stateful type here. It is deliberately dumb about
// anything past topology: embeddings, attention, training, and scoring all
// live in sibling packages that read a Store through its exported getters.
//
// Mutation (RegisterTool, RegisterCapability, BuildFromData, the
// UpdateXFeatures family) takes Store's write lock; reads (Tool, Capability,
// ToolIDs, CapabilityIDs, Incidence, TransitiveTools, Stats) take its read lock, so
// concurrent readers are safe on an otherwise-quiescent Store while a single
// writer always runs alone.
package hypergraph
