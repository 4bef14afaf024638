// Package router implements the darkwire message hub.
//
// The router package provides:
//   - A transport server relaying frames between connected services
//   - Flavor registration via the announce command
//   - One/Any/All envelope resolution against the live peer table
//   - Sender-identity rewriting on every relayed frame
//   - Bounded per-peer delivery queues with drop-oldest overflow
//
// Routing Semantics:
//
// The hub carries no business logic and never decodes payloads past the
// addressing envelope and command tag. Each inbound frame
//
//	[Route][Command][payload...]
//
// is rewritten to
//
//	[Command][sender u32][payload...]
//
// and enqueued for the peers the route resolves to. A Local route is the
// hub's own command surface (today: announce). Delivery is best-effort:
// routes that resolve to no connected peer are dropped silently, and a slow
// peer's queue sheds its oldest frames rather than growing without bound.
//
// Observability:
//
// Prometheus counters track relayed frames by route kind and drops by
// reason. Register them with a registry via Metrics.
package router
