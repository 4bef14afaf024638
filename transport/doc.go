// Package transport implements the two symmetric TCP connection drivers all
// darkwire services are built on.
//
// The transport package provides:
//   - Length-prefixed frame reading and writing over TCP
//   - A Server driver accepting many inbound connections
//   - A Client driver maintaining one outbound connection to a known peer
//   - Per-connection outbound queues drained by dedicated writer loops
//
// Architecture:
//
// Both drivers run one reader goroutine and one writer goroutine per
// connection. The reader frames incoming bytes and hands each frame to a
// caller-supplied handler; the writer drains the connection's outbound
// queue onto the socket with a u32 length prefix. No goroutine ever blocks
// on in-memory state while holding the socket.
//
// Handlers:
//
// The server handler receives (context, outbound queue, sender id, frame)
// and returns a continuation bool; returning false closes that connection.
// The client handler receives (context, outbound queue, frame) and returns
// a Verdict: Continue, Disconnect (close and stop), or Shutdown (close and
// signal the process to exit).
//
// Connection Loss:
//
// Loss of a connection terminates that connection's loops and nothing else.
// The client driver does not reconnect; a dropped outbound connection is
// surfaced through Done() and treated as fatal by the owning process.
//
// Backpressure:
//
// Outbound queues are bounded. When a queue is full the oldest frame is
// dropped to make room, keeping delivery best-effort without unbounded
// memory growth.
package transport
