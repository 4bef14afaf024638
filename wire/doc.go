// Package wire implements the byte-level encoding layer shared by every
// darkwire service.
//
// The wire package provides:
//   - A growable Buffer with independent read and write cursors
//   - Canonical little-endian encodings for all primitive value types
//   - Exact size accounting so buffers can be pre-sized before encoding
//   - Uninterpreted transfer of unread bytes between buffers
//
// Encoding Contract:
//
// Every value type has exactly one encoding, and the encoding is the
// cross-language compatibility contract for the whole system:
//   - Fixed-width integers are little-endian (u8, u16, u32, u64)
//   - Booleans are a single byte, 0 or 1
//   - Strings are a u32 byte length followed by UTF-8 bytes
//   - Byte slices are a u32 length followed by the raw bytes
//   - Session ids are 16 raw bytes
//   - Composite records are their fields concatenated in declared order
//
// Error Handling:
//
// Pull operations never return a silent default. Reading past the write
// cursor fails with ErrTruncated, which callers propagate upward to close
// the offending connection.
//
// Usage:
//
//	b := wire.NewBuffer(wire.SizeU16 + wire.StringSize("hello"))
//	b.PushU16(42)
//	b.PushString("hello")
//
//	v, err := b.PullU16()
//	s, err := b.PullString()
package wire
