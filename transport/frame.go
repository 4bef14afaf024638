package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/darkwire-games/darkwire/wire"
)

// MaxFrameSize caps a single frame's body. A peer announcing a larger frame
// is treated as a protocol error and disconnected.
const MaxFrameSize = 1 << 20

// WriteFrame serializes one frame body to w with its u32 little-endian
// length prefix.
func WriteFrame(w io.Writer, body *wire.Buffer) error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(body.Len()))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	return nil
}

// ReadFrame reads one length-prefixed frame body from r.
func ReadFrame(r io.Reader) (*wire.Buffer, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(prefix[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("transport: frame of %d bytes exceeds limit %d", n, MaxFrameSize)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return wire.FromBytes(body), nil
}
