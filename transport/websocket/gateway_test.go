package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/wire"
)

type fakeUplink struct {
	mu     sync.Mutex
	frames []*wire.Buffer
}

func (f *fakeUplink) Send(frame *wire.Buffer) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeUplink) wait(t *testing.T, n int) []*wire.Buffer {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.frames) >= n {
			out := append([]*wire.Buffer(nil), f.frames...)
			f.mu.Unlock()
			return out
		}
		f.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("uplink never saw %d frames", n)
	return nil
}

// startGateway serves the gateway over a test HTTP server and dials one
// websocket client into it.
func startGateway(t *testing.T) (*Gateway, *fakeUplink, *websocket.Conn) {
	t.Helper()
	uplink := &fakeUplink{}
	gw := NewGateway()
	gw.Bind(uplink)

	srv := httptest.NewServer(http.HandlerFunc(gw.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		gw.Close()
	})

	waitClients(t, gw, 1)
	return gw, uplink, conn
}

func waitClients(t *testing.T, gw *Gateway, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if gw.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("gateway never reached %d clients", n)
}

func TestClientCommandGetsWrapped(t *testing.T) {
	_, uplink, conn := startGateway(t)

	activate := protocol.Activate{Session: uuid.Nil, User: "nyx", AuthLevel: 1}
	msg := wire.NewBuffer(wire.SizeU16 + activate.Size())
	msg.PushU16(uint16(protocol.SubActivate))
	activate.Encode(msg)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, msg.Bytes()))

	frames := uplink.wait(t, 1)
	frame := frames[0]

	route, err := protocol.DecodeRoute(frame)
	require.NoError(t, err)
	assert.Equal(t, protocol.RouteAny, route.Kind)
	assert.Equal(t, protocol.FlavorGame, route.Flavor)

	cmd, err := frame.PullU16()
	require.NoError(t, err)
	assert.Equal(t, protocol.CmdGame, protocol.Command(cmd))

	clientID, err := frame.PullU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), clientID, "the gateway stamps its local client id")

	sub, err := frame.PullU16()
	require.NoError(t, err)
	assert.Equal(t, protocol.SubActivate, protocol.SubCommand(sub))

	got, err := protocol.DecodeActivate(frame)
	require.NoError(t, err)
	assert.Equal(t, activate, got)
}

func TestPushReachesNamedClient(t *testing.T) {
	gw, _, conn := startGateway(t)

	upd := protocol.UpdateState{Session: uuid.New(), Phase: 2, Turn: 3, Accepted: true, Message: "ok"}
	frame := wire.NewBuffer(wire.SizeU16 + wire.SizeU32 + wire.SizeU32 + upd.Size())
	frame.PushU16(uint16(protocol.CmdUpdateState))
	frame.PushU32(99) // engine's router identity
	frame.PushU32(1)  // gateway-local client id
	upd.Encode(frame)

	verdict := gw.HandleFrame(context.Background(), nil, frame)
	assert.Equal(t, transport.Continue, verdict)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, message, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, kind)

	b := wire.NewBuffer(len(message))
	b.PushRaw(message)
	cmd, err := b.PullU16()
	require.NoError(t, err)
	assert.Equal(t, protocol.CmdUpdateState, protocol.Command(cmd))

	got, err := protocol.DecodeUpdateState(b)
	require.NoError(t, err)
	assert.Equal(t, upd, got)
}

func TestPushForUnknownClientIsDropped(t *testing.T) {
	gw, _, _ := startGateway(t)

	frame := wire.NewBuffer(wire.SizeU16 + wire.SizeU32 + wire.SizeU32)
	frame.PushU16(uint16(protocol.CmdUpdateState))
	frame.PushU32(99)
	frame.PushU32(42) // nobody home

	assert.Equal(t, transport.Continue, gw.HandleFrame(context.Background(), nil, frame))
}

func TestDisconnectUnregisters(t *testing.T) {
	gw, _, conn := startGateway(t)

	conn.Close()
	waitClients(t, gw, 0)
}
