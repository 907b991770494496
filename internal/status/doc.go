// Package status owns the health vocabulary shared by components and graphs.
//
// Ownership boundary:
// - severity levels and their fixed ranking
// - status values with optional free text
// - prioritised aggregation of named status queries
//
// Levels rank worst first: error, blocked, waiting, maintenance, active, unknown.
package status
