// Package websocket implements the client-facing gateway.
//
// The gateway bridges browser and desktop clients onto the binary router
// fabric. Each websocket connection gets a gateway-local client id; every
// binary message a client sends
//
//	[sub u16][record]
//
// is wrapped into a routed game frame
//
//	[Any(game)][CmdGame][client u32][sub u16][record]
//
// and forwarded up the gateway's router connection. Pushes coming back down
//
//	[cmd u16][sender u32][client u32][record]
//
// are stripped to [cmd u16][record] and written to the named client's
// websocket as one binary message.
//
// Connection Lifecycle:
//
// The gateway pings idle clients and drops any that stop answering, and a
// client whose outbound channel fills is closed rather than buffered
// without bound. Client ids are never reused within one gateway process.
package websocket
