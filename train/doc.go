// Package train implements a reduced, autograd-free backward pass: forward
// through propagate.Engine, locate the target capability, compute loss
// against the labeled outcome, and accumulate gradients for the dominant
// parameter groups only — fusion weights, W_intent, and the last layer's
// per-head W_v. Everything else is left at zero gradient; this trainer is
// deliberately minimal rather than a full autograd implementation.
package train
