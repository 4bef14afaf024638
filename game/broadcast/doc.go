// Package broadcast pushes unsolicited state updates to clients.
//
// The broadcast package implements:
//   - A registry mapping player identity to last-observed routing
//     coordinates (owning gateway, gateway-local client id)
//   - Per-user delivery of push records through the router
//   - Whole-registry broadcast with one-pass pruning of dead entries
//
// Delivery is best-effort: a failed send removes the user's entry, and a
// later send to that user is a silent no-op until a new command from them
// refreshes their coordinates. This is the sole mechanism for
// server-initiated pushes; everything else is request-response.
//
// Lock order: callers hold the session lock before any registry call, and
// the registry lock never wraps a call back into session state.
package broadcast
