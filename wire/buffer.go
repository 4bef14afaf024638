package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned by every Pull method when the buffer holds fewer
// unread bytes than the requested value needs.
var ErrTruncated = errors.New("wire: truncated buffer")

// Fixed sizes, in bytes, of the primitive encodings.
const (
	SizeU8   = 1
	SizeU16  = 2
	SizeU32  = 4
	SizeU64  = 8
	SizeBool = 1
	SizeID   = 16
)

// StringSize returns the encoded size of s: a u32 length prefix plus the
// UTF-8 bytes.
func StringSize(s string) int {
	return SizeU32 + len(s)
}

// BytesSize returns the encoded size of b: a u32 length prefix plus the raw
// bytes.
func BytesSize(b []byte) int {
	return SizeU32 + len(b)
}

// Buffer is a growable byte region with a push (write) cursor and a pull
// (read) cursor. The read cursor never passes the write cursor; attempting
// to do so fails with ErrTruncated.
type Buffer struct {
	data []byte
	read int
}

// NewBuffer returns an empty buffer pre-sized to hold capacity bytes without
// reallocating.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// FromBytes wraps an already-encoded byte slice for decoding. The buffer
// takes ownership of the slice.
func FromBytes(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Bytes returns the full encoded contents, including bytes already read.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the total number of bytes written.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Remaining reports the number of unread bytes.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.read
}

// Transfer appends all unread bytes of src onto b without interpreting them,
// advancing src's read cursor to the end. The router relies on this to relay
// payloads it never decodes.
func (b *Buffer) Transfer(src *Buffer) {
	b.data = append(b.data, src.data[src.read:]...)
	src.read = len(src.data)
}

// PushU8 appends a single byte.
func (b *Buffer) PushU8(v uint8) {
	b.data = append(b.data, v)
}

// PushU16 appends a little-endian 16-bit integer.
func (b *Buffer) PushU16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

// PushU32 appends a little-endian 32-bit integer.
func (b *Buffer) PushU32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// PushU64 appends a little-endian 64-bit integer.
func (b *Buffer) PushU64(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

// PushBool appends a boolean as a single 0/1 byte.
func (b *Buffer) PushBool(v bool) {
	if v {
		b.data = append(b.data, 1)
	} else {
		b.data = append(b.data, 0)
	}
}

// PushString appends a u32 length prefix followed by the UTF-8 bytes of s.
func (b *Buffer) PushString(s string) {
	b.PushU32(uint32(len(s)))
	b.data = append(b.data, s...)
}

// PushBytes appends a u32 length prefix followed by the raw bytes.
func (b *Buffer) PushBytes(p []byte) {
	b.PushU32(uint32(len(p)))
	b.data = append(b.data, p...)
}

// PushRaw appends bytes verbatim, without a length prefix. Used for
// fixed-size values such as 16-byte session ids.
func (b *Buffer) PushRaw(p []byte) {
	b.data = append(b.data, p...)
}

// take reserves n unread bytes for decoding, advancing the read cursor.
func (b *Buffer) take(n int) ([]byte, error) {
	if b.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, b.Remaining())
	}
	p := b.data[b.read : b.read+n]
	b.read += n
	return p, nil
}

// PullU8 decodes a single byte.
func (b *Buffer) PullU8() (uint8, error) {
	p, err := b.take(SizeU8)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// PullU16 decodes a little-endian 16-bit integer.
func (b *Buffer) PullU16() (uint16, error) {
	p, err := b.take(SizeU16)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

// PullU32 decodes a little-endian 32-bit integer.
func (b *Buffer) PullU32() (uint32, error) {
	p, err := b.take(SizeU32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// PullU64 decodes a little-endian 64-bit integer.
func (b *Buffer) PullU64() (uint64, error) {
	p, err := b.take(SizeU64)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// PullBool decodes a single 0/1 byte. Any nonzero byte reads as true.
func (b *Buffer) PullBool() (bool, error) {
	v, err := b.PullU8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// PullString decodes a u32 length prefix followed by that many UTF-8 bytes.
func (b *Buffer) PullString() (string, error) {
	n, err := b.PullU32()
	if err != nil {
		return "", err
	}
	p, err := b.take(int(n))
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// PullBytes decodes a u32 length prefix followed by that many raw bytes.
// The returned slice is a copy.
func (b *Buffer) PullBytes() ([]byte, error) {
	n, err := b.PullU32()
	if err != nil {
		return nil, err
	}
	p, err := b.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// PullRaw decodes exactly n bytes with no length prefix. The returned slice
// is a copy.
func (b *Buffer) PullRaw(n int) ([]byte, error) {
	p, err := b.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}
