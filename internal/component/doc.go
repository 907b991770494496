// Package component defines the contract for one unit of idempotent configuration work.
//
// Ownership boundary:
// - the Component capability set (configure, status, readiness)
// - the opaque trigger Event handed to every configure call
// - optional capabilities (events to observe) and phase adapters
//
// Components express ordinary unreadiness through Status, never through errors.
// An error from Configure is an unexpected fault and aborts the reconcile pass.
package component
