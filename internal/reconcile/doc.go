// Package reconcile owns the single-pass driver over a component graph.
//
// One Run drains the graph's execution sequence, configuring each item as it is
// produced, then publishes the graph's aggregate status. Passes are synchronous and
// must not overlap on the same graph.
package reconcile
