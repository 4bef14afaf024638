package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/wire"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Outbound messages buffered per client before the connection is
	// considered dead.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Gateways sit behind their own origin policy.
		return true
	},
}

// Uplink is the gateway's path toward the router, normally the transport
// client's send queue.
type Uplink interface {
	Send(frame *wire.Buffer) bool
}

// client is one websocket connection with its gateway-local identity.
type client struct {
	gw   *Gateway
	id   uint32
	conn *websocket.Conn
	send chan []byte
}

// Gateway fans websocket clients onto one router connection.
type Gateway struct {
	uplink Uplink

	mu      sync.Mutex
	nextID  uint32
	clients map[uint32]*client
}

// NewGateway creates a gateway with no uplink. Bind one before serving
// websocket clients.
func NewGateway() *Gateway {
	return &Gateway{
		clients: make(map[uint32]*client),
	}
}

// Bind attaches the router connection client messages are forwarded over.
// The gateway is constructed before the connection exists because the
// transport client needs HandleFrame at dial time.
func (g *Gateway) Bind(uplink Uplink) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uplink = uplink
}

// ServeWS upgrades one HTTP request to a websocket client connection.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		gw:   g,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	g.register(c)

	go c.writePump()
	go c.readPump()
}

func (g *Gateway) register(c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	c.id = g.nextID
	g.clients[c.id] = c
	log.Printf("gateway: client %d connected (total %d)", c.id, len(g.clients))
}

func (g *Gateway) unregister(c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.clients[c.id]; !ok {
		return
	}
	delete(g.clients, c.id)
	close(c.send)
	log.Printf("gateway: client %d disconnected (remaining %d)", c.id, len(g.clients))
}

// ClientCount returns the number of connected clients.
func (g *Gateway) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// Close drops every client connection.
func (g *Gateway) Close() {
	g.mu.Lock()
	clients := make([]*client, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

// HandleFrame is the transport client handler for frames coming down from
// the router. The payload names the client the push is for; the gateway
// strips the routing prefix and delivers the command and record.
func (g *Gateway) HandleFrame(ctx context.Context, out *transport.Queue, frame *wire.Buffer) transport.Verdict {
	cmd, err := frame.PullU16()
	if err != nil {
		log.Printf("gateway: dropping frame without command: %v", err)
		return transport.Disconnect
	}
	if _, err := frame.PullU32(); err != nil { // engine's router identity, unused
		log.Printf("gateway: dropping frame without sender: %v", err)
		return transport.Disconnect
	}
	clientID, err := frame.PullU32()
	if err != nil {
		log.Printf("gateway: dropping %s frame without client id: %v", protocol.Command(cmd), err)
		return transport.Continue
	}

	msg := wire.NewBuffer(wire.SizeU16 + frame.Remaining())
	msg.PushU16(cmd)
	msg.Transfer(frame)

	g.mu.Lock()
	c, ok := g.clients[clientID]
	g.mu.Unlock()
	if !ok {
		log.Printf("gateway: push for unknown client %d dropped", clientID)
		return transport.Continue
	}

	select {
	case c.send <- msg.Bytes():
	default:
		// The client stopped draining; cut it loose.
		g.unregister(c)
		c.conn.Close()
	}
	return transport.Continue
}

// forward wraps one client message into a routed game frame and sends it up.
func (g *Gateway) forward(c *client, message []byte) {
	g.mu.Lock()
	uplink := g.uplink
	g.mu.Unlock()
	if uplink == nil {
		log.Printf("gateway: no uplink bound, dropping frame from client %d", c.id)
		return
	}

	route := protocol.Any(protocol.FlavorGame)
	b := wire.NewBuffer(route.Size() + wire.SizeU16 + wire.SizeU32 + len(message))
	route.Encode(b)
	b.PushU16(uint16(protocol.CmdGame))
	b.PushU32(c.id)
	b.PushRaw(message)

	if !uplink.Send(b) {
		log.Printf("gateway: uplink rejected frame from client %d", c.id)
	}
}

// readPump pumps client messages up to the router until the connection
// drops.
func (c *client) readPump() {
	defer func() {
		c.gw.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("gateway: client %d read error: %v", c.id, err)
			}
			return
		}
		if kind != websocket.BinaryMessage || len(message) < wire.SizeU16 {
			log.Printf("gateway: client %d sent unusable message", c.id)
			continue
		}
		c.gw.forward(c, message)
	}
}

// writePump pumps queued pushes down to the client and keeps the
// connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Binary frames go out one per message; they must never be
			// concatenated.
			if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
