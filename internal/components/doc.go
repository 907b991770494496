// Package components provides concrete Component kinds and a registry that builds
// them from manifest entries.
//
// Ownership boundary:
// - command components (local or SSH runners) for service-style units
// - file components that apply a rendered declarative document
// - kind -> factory registry
//
// Expected unreadiness (unreachable host, failing check, drifted file) is reported
// through Status. Only faults that prevent an attempt at all are returned from Configure.
package components
