// Package propagate implements the two-phase message-passing forward pass:
// per layer, per head, a Vertex→Edge phase aggregates tool projections into
// capability representations under incidence-masked attention, then an
// Edge→Vertex phase aggregates back. Head outputs concatenate into the next
// layer's H/E.
//
// Forward returns a Cache holding every layer's H and E plus every layer's
// per-head masked attention weights — exactly what package train's reduced
// backward pass and package score's interpretability output need, and
// nothing more (no gradients are computed here).
package propagate
