// Package engine implements the authoritative per-session game logic.
//
// The engine package provides:
//   - The session phase state machine (idle, building, the running turn
//     cycle, end) with a per-user expected-command gate
//   - The mission graph: typed nodes, level-gated links, per-user position
//     and discovery state
//   - Authorization tokens with expiry pruning and credential upgrades
//   - The machine process scheduler: delay-ordered launch queue, priority
//     sorted run set, saturating vitals, derived termination
//   - Intent resolution through a closed per-node-kind dispatch table
//   - Pure four-lane resource matchup resolution
//
// Concurrency:
//
// An Engine owns exactly one session and is not safe for concurrent use;
// the session manager serializes access to it. All engine operations are
// synchronous and never block on I/O, so a caller holding the session lock
// keeps its critical section short.
//
// Command Gating:
//
// Each user carries the single sub-command the engine is willing to accept
// from them next. A command that does not match is rejected with a failure
// result and leaves all state untouched. A phase advances only once every
// joined user has satisfied the current phase's expected command; the one
// exception is the idle-to-building transition on first activation.
package engine
