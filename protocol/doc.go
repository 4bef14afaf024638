// Package protocol defines the message vocabulary spoken between darkwire
// services: the addressing envelope consumed by the router, the command and
// sub-command tags, and the typed records carried as frame payloads.
//
// The protocol package implements:
//   - Route, the tagged addressing envelope (Local, One, Any, All)
//   - Flavor, the closed enumeration of service roles
//   - Command and SubCommand tags identifying frame semantics
//   - Typed message records with canonical field-order encodings
//
// Frame Layout:
//
// Every frame entering the router is laid out as
//
//	[Route][Command][payload...]
//
// preceded on the wire by a u32 length prefix added by the transport layer.
// The router consumes the Route and rewrites the frame as
//
//	[Command][sender u32][payload...]
//
// before re-delivery, so downstream services always learn which connection a
// frame arrived from.
//
// Command Families:
//
// Game-turn operations share the single Game command and are distinguished
// by a u16 sub-command at the front of the payload. Standalone commands
// (chat, inventory, state pushes) carry no sub-command.
//
// Encoding:
//
// All records encode as the concatenation of their fields in declared order
// using the wire package primitives. decode(encode(x)) == x holds for every
// record type, and the encoded length always equals the bytes consumed by
// decoding.
package protocol
