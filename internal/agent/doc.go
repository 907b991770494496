// Package agent hosts one reconcile graph as a long-running process.
//
// Trigger events arrive from the admin API, the update-status ticker, or the
// CLI. Passes never overlap: every pass, and every read of graph state, holds
// the same lock. Events named in the reset policy clear executed flags before
// their pass so the whole graph is reconfigured.
package agent
