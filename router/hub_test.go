package router

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/wire"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// relayed is one frame as received after the hub rewrite.
type relayed struct {
	cmd    protocol.Command
	sender protocol.PeerID
	text   string
}

func startHub(t *testing.T, opts ...Option) (*Hub, string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	hub := NewHub(opts...)
	go hub.Serve(l)
	t.Cleanup(func() {
		hub.Close()
		l.Close()
	})
	return hub, l.Addr().String()
}

// dialPeer connects a peer of the given flavor whose handler decodes the
// rewritten frame layout and forwards it to a channel.
func dialPeer(t *testing.T, addr string, flavor protocol.Flavor) (*transport.Client, chan relayed) {
	t.Helper()
	frames := make(chan relayed, 8)
	c, err := transport.Dial(context.Background(), addr, flavor,
		func(ctx context.Context, out *transport.Queue, frame *wire.Buffer) transport.Verdict {
			cmd, err := frame.PullU16()
			if err != nil {
				return transport.Disconnect
			}
			sender, err := frame.PullU32()
			if err != nil {
				return transport.Disconnect
			}
			text, err := frame.PullString()
			if err != nil {
				return transport.Disconnect
			}
			frames <- relayed{
				cmd:    protocol.Command(cmd),
				sender: protocol.PeerID(sender),
				text:   text,
			}
			return transport.Continue
		})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, frames
}

// chatFrame builds a routed frame carrying a string payload.
func chatFrame(route protocol.Route, cmd protocol.Command, text string) *wire.Buffer {
	b := wire.NewBuffer(route.Size() + wire.SizeU16 + wire.StringSize(text))
	route.Encode(b)
	b.PushU16(uint16(cmd))
	b.PushString(text)
	return b
}

func waitAnnounced(t *testing.T, hub *Hub, flavor protocol.Flavor, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.PeerCount(flavor) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("never saw %d announced peers of flavor %s", want, flavor)
}

func TestRouteAnyDeliversToFlavor(t *testing.T) {
	hub, addr := startHub(t)

	_, gameFrames := dialPeer(t, addr, protocol.FlavorGame)
	gw, _ := dialPeer(t, addr, protocol.FlavorGateway)
	waitAnnounced(t, hub, protocol.FlavorGame, 1)
	waitAnnounced(t, hub, protocol.FlavorGateway, 1)

	require.True(t, gw.Send(chatFrame(protocol.Any(protocol.FlavorGame), protocol.CmdChat, "hi")))

	select {
	case got := <-gameFrames:
		assert.Equal(t, protocol.CmdChat, got.cmd)
		assert.Equal(t, "hi", got.text)
		// The gateway connected second, so its hub-assigned id is 2.
		assert.Equal(t, protocol.PeerID(2), got.sender)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never reached the game peer")
	}
}

func TestRouteOneRepliesToSender(t *testing.T) {
	hub, addr := startHub(t)

	// The game peer echoes every frame straight back to its sender.
	game, err := transport.Dial(context.Background(), addr, protocol.FlavorGame,
		func(ctx context.Context, out *transport.Queue, frame *wire.Buffer) transport.Verdict {
			cmd, err := frame.PullU16()
			if err != nil {
				return transport.Disconnect
			}
			sender, err := frame.PullU32()
			if err != nil {
				return transport.Disconnect
			}
			text, err := frame.PullString()
			if err != nil {
				return transport.Disconnect
			}
			reply := chatFrame(protocol.One(protocol.PeerID(sender)), protocol.Command(cmd), text+" ack")
			out.Enqueue(reply)
			return transport.Continue
		})
	require.NoError(t, err)
	t.Cleanup(game.Close)

	gw, gwFrames := dialPeer(t, addr, protocol.FlavorGateway)
	waitAnnounced(t, hub, protocol.FlavorGame, 1)
	waitAnnounced(t, hub, protocol.FlavorGateway, 1)

	require.True(t, gw.Send(chatFrame(protocol.Any(protocol.FlavorGame), protocol.CmdChat, "ping")))

	select {
	case got := <-gwFrames:
		assert.Equal(t, "ping ack", got.text)
		assert.Equal(t, protocol.PeerID(1), got.sender, "reply must carry the game peer's identity")
	case <-time.After(2 * time.Second):
		t.Fatal("reply never reached the gateway")
	}
}

func TestRouteAllBroadcasts(t *testing.T) {
	hub, addr := startHub(t)

	_, gw1Frames := dialPeer(t, addr, protocol.FlavorGateway)
	_, gw2Frames := dialPeer(t, addr, protocol.FlavorGateway)
	game, _ := dialPeer(t, addr, protocol.FlavorGame)
	waitAnnounced(t, hub, protocol.FlavorGateway, 2)
	waitAnnounced(t, hub, protocol.FlavorGame, 1)

	require.True(t, game.Send(chatFrame(protocol.All(protocol.FlavorGateway), protocol.CmdChat, "lights out")))

	for _, frames := range []chan relayed{gw1Frames, gw2Frames} {
		select {
		case got := <-frames:
			assert.Equal(t, "lights out", got.text)
		case <-time.After(2 * time.Second):
			t.Fatal("broadcast missed a gateway")
		}
	}
}

func TestNoPeerDropsSilently(t *testing.T) {
	hub, addr := startHub(t)

	gw, gwFrames := dialPeer(t, addr, protocol.FlavorGateway)
	waitAnnounced(t, hub, protocol.FlavorGateway, 1)

	// Nothing announced as inventory: the frame must vanish without
	// disturbing the connection.
	require.True(t, gw.Send(chatFrame(protocol.Any(protocol.FlavorInventory), protocol.CmdInventoryList, "x")))

	// The connection is still usable afterwards: loop a frame back to
	// ourselves through the hub.
	require.True(t, gw.Send(chatFrame(protocol.All(protocol.FlavorGateway), protocol.CmdChat, "still here")))

	select {
	case got := <-gwFrames:
		assert.Equal(t, "still here", got.text)
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not survive the dropped frame")
	}
}

func TestDisconnectPrunesPeerTable(t *testing.T) {
	hub, addr := startHub(t)

	gw, _ := dialPeer(t, addr, protocol.FlavorGateway)
	waitAnnounced(t, hub, protocol.FlavorGateway, 1)

	gw.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.PeerCount(protocol.FlavorGateway) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("peer table still lists the disconnected gateway")
}
