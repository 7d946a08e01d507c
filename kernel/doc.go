// Package kernel provides the dense tensor primitives the SHGAT engine is
// built from: a flat, row-major float32 matrix type and the small set of
// pure numerical functions (matmul, softmax, activations, similarity,
// initializers) every other package composes into attention and training.
//
// There is no autograd here and no hidden state: every function takes its
// inputs and returns a new value (or writes into a caller-owned slice).
// Callers that need gradients implement them by hand against these same
// primitives (see package train).
package kernel
