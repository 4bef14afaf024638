package transport

import (
	"sync/atomic"

	"github.com/darkwire-games/darkwire/wire"
)

// DefaultQueueCap is the default bound on a connection's outbound queue.
const DefaultQueueCap = 256

// Queue is a connection's bounded outbound queue. Any goroutine may enqueue;
// the connection's writer loop is the sole consumer. When the queue is full
// the oldest pending frame is discarded to make room, so delivery stays
// best-effort without unbounded memory growth.
type Queue struct {
	frames  chan *wire.Buffer
	dropped atomic.Uint64
}

// NewQueue returns a queue bounded to capacity frames. A non-positive
// capacity falls back to DefaultQueueCap.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCap
	}
	return &Queue{frames: make(chan *wire.Buffer, capacity)}
}

// Enqueue adds a frame for delivery. If the queue is full, the oldest
// pending frame is dropped first. Returns false only if the frame could not
// be queued even after making room (the writer raced new producers).
func (q *Queue) Enqueue(frame *wire.Buffer) bool {
	select {
	case q.frames <- frame:
		return true
	default:
	}

	// Full: evict the oldest frame, then retry once.
	select {
	case <-q.frames:
		q.dropped.Add(1)
	default:
	}
	select {
	case q.frames <- frame:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Frames exposes the receive side for the writer loop.
func (q *Queue) Frames() <-chan *wire.Buffer {
	return q.frames
}

// Dropped reports how many frames were discarded due to overflow.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
