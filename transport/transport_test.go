package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/wire"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startServer runs a server on a random loopback port and returns it with
// its address.
func startServer(t *testing.T, handler ServerHandler, opts ...ServerOption) (*Server, string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(handler, opts...)
	go srv.Serve(l)
	t.Cleanup(func() {
		srv.Close()
		l.Close()
	})
	return srv, l.Addr().String()
}

func TestFrameRoundTrip(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	body := wire.NewBuffer(wire.StringSize("frame"))
	body.PushString("frame")

	go func() {
		WriteFrame(left, body)
	}()

	got, err := ReadFrame(right)
	require.NoError(t, err)
	s, err := got.PullString()
	require.NoError(t, err)
	assert.Equal(t, "frame", s)
}

func TestClientAnnouncesFlavor(t *testing.T) {
	frames := make(chan *wire.Buffer, 1)
	_, addr := startServer(t, func(ctx context.Context, out *Queue, sender protocol.PeerID, frame *wire.Buffer) bool {
		frames <- frame
		return true
	})

	c, err := Dial(context.Background(), addr, protocol.FlavorGateway,
		func(ctx context.Context, out *Queue, frame *wire.Buffer) Verdict { return Continue })
	require.NoError(t, err)
	defer c.Close()

	select {
	case frame := <-frames:
		route, err := protocol.DecodeRoute(frame)
		require.NoError(t, err)
		assert.Equal(t, protocol.RouteLocal, route.Kind)

		cmd, err := frame.PullU16()
		require.NoError(t, err)
		assert.Equal(t, protocol.CmdAnnounce, protocol.Command(cmd))

		ann, err := protocol.DecodeAnnounce(frame)
		require.NoError(t, err)
		assert.Equal(t, protocol.FlavorGateway, ann.Flavor)
	case <-time.After(2 * time.Second):
		t.Fatal("announce frame never arrived")
	}
}

func TestServerEcho(t *testing.T) {
	// The server echoes every frame back on the sender's own queue.
	_, addr := startServer(t, func(ctx context.Context, out *Queue, sender protocol.PeerID, frame *wire.Buffer) bool {
		echo := wire.NewBuffer(frame.Remaining())
		echo.Transfer(frame)
		out.Enqueue(echo)
		return true
	})

	received := make(chan string, 4)
	c, err := Dial(context.Background(), addr, protocol.FlavorClient,
		func(ctx context.Context, out *Queue, frame *wire.Buffer) Verdict {
			// The echoed announce frame does not decode as a string; skip it.
			s, err := frame.PullString()
			if err == nil {
				received <- s
			}
			return Continue
		})
	require.NoError(t, err)
	defer c.Close()

	msg := wire.NewBuffer(wire.StringSize("ping"))
	msg.PushString("ping")
	require.True(t, c.Send(msg))

	// First echo is the announce frame; skip past it by matching content.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-received:
			if s == "ping" {
				return
			}
		case <-deadline:
			t.Fatal("echo never arrived")
		}
	}
}

func TestServerHandlerFalseClosesConnection(t *testing.T) {
	_, addr := startServer(t, func(ctx context.Context, out *Queue, sender protocol.PeerID, frame *wire.Buffer) bool {
		return false
	})

	c, err := Dial(context.Background(), addr, protocol.FlavorClient,
		func(ctx context.Context, out *Queue, frame *wire.Buffer) Verdict { return Continue })
	require.NoError(t, err)
	defer c.Close()

	// The announce frame triggers the handler, which refuses to continue;
	// the client should observe the close.
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client never observed server-side close")
	}
}

func TestServerDisconnectCallback(t *testing.T) {
	gone := make(chan protocol.PeerID, 1)
	_, addr := startServer(t,
		func(ctx context.Context, out *Queue, sender protocol.PeerID, frame *wire.Buffer) bool { return true },
		WithDisconnect(func(id protocol.PeerID) { gone <- id }),
	)

	c, err := Dial(context.Background(), addr, protocol.FlavorClient,
		func(ctx context.Context, out *Queue, frame *wire.Buffer) Verdict { return Continue })
	require.NoError(t, err)
	c.Close()

	select {
	case id := <-gone:
		assert.Equal(t, protocol.PeerID(1), id)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never fired")
	}
}

func TestClientShutdownVerdict(t *testing.T) {
	_, addr := startServer(t, func(ctx context.Context, out *Queue, sender protocol.PeerID, frame *wire.Buffer) bool {
		// Reply once to drive the client handler.
		reply := wire.NewBuffer(wire.SizeU8)
		reply.PushU8(0)
		out.Enqueue(reply)
		return true
	})

	c, err := Dial(context.Background(), addr, protocol.FlavorClient,
		func(ctx context.Context, out *Queue, frame *wire.Buffer) Verdict { return Shutdown })
	require.NoError(t, err)
	defer c.Close()

	select {
	case <-c.ShutdownRequested():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown was never signalled")
	}
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := NewQueue(2)

	first := wire.NewBuffer(wire.SizeU8)
	first.PushU8(1)
	second := wire.NewBuffer(wire.SizeU8)
	second.PushU8(2)
	third := wire.NewBuffer(wire.SizeU8)
	third.PushU8(3)

	assert.True(t, q.Enqueue(first))
	assert.True(t, q.Enqueue(second))
	assert.True(t, q.Enqueue(third)) // evicts first

	assert.Equal(t, uint64(1), q.Dropped())

	got := <-q.Frames()
	v, err := got.PullU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(2), v, "oldest frame must have been the one dropped")
}

func TestSendToUnknownPeer(t *testing.T) {
	srv, _ := startServer(t, func(ctx context.Context, out *Queue, sender protocol.PeerID, frame *wire.Buffer) bool {
		return true
	})

	frame := wire.NewBuffer(wire.SizeU8)
	frame.PushU8(9)
	assert.False(t, srv.Send(protocol.PeerID(999), frame))
}
