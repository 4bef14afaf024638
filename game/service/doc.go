// Package service is the session engine's command surface.
//
// The service package implements:
//   - The handler for game frames arriving from gateways through the router
//   - Sub-command dispatch into the session engine
//   - Translation of engine deltas into mission, token, and state pushes
//   - Per-session broadcaster registries tracking client coordinates
//
// Frame Contract:
//
// Gateways forward each client command as
//
//	[CmdGame][sender u32][client u32][sub u16][record]
//
// where sender is the gateway's router identity (stamped by the hub) and
// client is the gateway-local id of the originating connection. Every
// response and push travels back as
//
//	[One(gateway)][CmdUpdate*][client u32][record]
//
// so the gateway can strip the client id and deliver the record.
//
// Errors:
//
// A command that is out of phase, names a missing session, or fails
// validation is logged and answered with a failure state update; it never
// mutates session state and never takes the connection down.
package service
