package hypergraph

import "errors"

// ErrEmptyID indicates a tool or capability was registered with an empty ID.
var ErrEmptyID = errors.New("hypergraph: id is empty")

// ErrUnknownCapability indicates an operation referenced a capability ID that was never registered.
var ErrUnknownCapability = errors.New("hypergraph: unknown capability")

// ErrDimensionMismatch indicates an embedding's length disagrees with the
// Store's established embedding_dim. This is a fatal programming error, not
// a recoverable condition.
var ErrDimensionMismatch = errors.New("hypergraph: embedding dimension mismatch")
