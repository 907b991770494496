// Package graph owns dependency-ordered execution of components.
//
// Ownership boundary:
// - the item registry (arena indexed by insertion order)
// - per-item readiness and derived status
// - the lazy execution sequence and aggregate status
//
// Items may only depend on items already added to the same graph, so every edge
// points backwards in insertion order and cycles cannot be expressed.
//
// A graph is not safe for concurrent use; hosts serialize reconcile passes.
package graph
