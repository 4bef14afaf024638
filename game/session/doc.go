// Package session provides the process-wide session registry.
//
// The session package implements:
//   - Thread-safe session storage and retrieval keyed by 128-bit id
//   - Create-on-activate with random id assignment for zero ids
//   - Per-session serialization of engine operations
//   - Explicit destruction when a session's last user leaves
//
// Session Identifiers:
//
// Sessions use random 128-bit ids. An activation naming the zero id asks
// the registry to mint a fresh one; an activation naming an unknown id
// creates a session under that id; an activation naming a live id joins it.
//
// Concurrency:
//
// The registry map is guarded by a reader/writer lock held only for lookup
// and insert. Each session carries its own lock, taken for the full engine
// operation including its broadcast side effects, so a session's visible
// state transitions are atomic. Lock order is always session before
// broadcaster; the registry lock never nests inside either.
//
// Session state lives entirely in memory and does not survive a process
// restart. Durable records belong to the external store-backed services.
package session
