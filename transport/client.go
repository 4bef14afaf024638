package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/wire"
)

// Verdict is a client handler's decision after processing one frame.
type Verdict int

const (
	// Continue keeps the connection open.
	Continue Verdict = iota
	// Disconnect closes the connection and stops the driver.
	Disconnect
	// Shutdown closes the connection and signals the process to exit.
	Shutdown
)

// ClientHandler processes one inbound frame on the outbound connection.
type ClientHandler func(ctx context.Context, out *Queue, frame *wire.Buffer) Verdict

// Client maintains a single outbound connection to a well-known peer,
// announcing its flavor on connect. It does not reconnect: connection loss
// closes Done() and the owning process decides what to do (by policy,
// exit).
type Client struct {
	con net.Conn
	out *Queue

	done     chan struct{} // closed when the read loop exits
	shutdown chan struct{} // closed when the handler asked for process exit
	closing  sync.Once
	shutOnce sync.Once
	wg       sync.WaitGroup
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	queueCap int
}

// WithClientQueueCap bounds the client's outbound queue.
func WithClientQueueCap(n int) ClientOption {
	return func(c *clientConfig) { c.queueCap = n }
}

// Dial connects to the router at addr, announces the given flavor, and
// starts the read and write loops. The handler runs on the read loop
// goroutine.
func Dial(ctx context.Context, addr string, flavor protocol.Flavor, handler ClientHandler, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{queueCap: DefaultQueueCap}
	for _, opt := range opts {
		opt(&cfg)
	}

	var d net.Dialer
	con, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}

	c := &Client{
		con:      con,
		out:      NewQueue(cfg.queueCap),
		done:     make(chan struct{}),
		shutdown: make(chan struct{}),
	}

	// Announce our flavor before anything else so the router can route
	// Any/All frames toward this connection.
	announce := protocol.Announce{Flavor: flavor}
	route := protocol.Local()
	frame := wire.NewBuffer(route.Size() + wire.SizeU16 + announce.Size())
	route.Encode(frame)
	frame.PushU16(uint16(protocol.CmdAnnounce))
	announce.Encode(frame)
	c.out.Enqueue(frame)

	c.wg.Add(2)
	go c.readLoop(ctx, handler)
	go c.writeLoop(ctx)
	return c, nil
}

// readLoop frames inbound bytes and dispatches each frame to the handler
// until the connection drops or the handler ends it.
func (c *Client) readLoop(ctx context.Context, handler ClientHandler) {
	defer c.wg.Done()
	// The socket must close before done does, so Done() observers never see
	// a half-open connection.
	defer func() { close(c.done) }()
	defer c.closeConn()

	for {
		frame, err := ReadFrame(c.con)
		if err != nil {
			return
		}
		switch handler(ctx, c.out, frame) {
		case Continue:
		case Disconnect:
			return
		case Shutdown:
			c.shutOnce.Do(func() { close(c.shutdown) })
			return
		}
	}
}

// writeLoop drains the outbound queue onto the socket.
func (c *Client) writeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case frame := <-c.out.Frames():
			if err := WriteFrame(c.con, frame); err != nil {
				c.closeConn()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			c.closeConn()
			return
		}
	}
}

func (c *Client) closeConn() {
	c.closing.Do(func() { c.con.Close() })
}

// Send enqueues a frame toward the router. Returns false if the queue
// rejected it.
func (c *Client) Send(frame *wire.Buffer) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	return c.out.Enqueue(frame)
}

// Done is closed once the connection is gone and the read loop has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ShutdownRequested is closed if the handler returned Shutdown, asking the
// owning process to exit.
func (c *Client) ShutdownRequested() <-chan struct{} {
	return c.shutdown
}

// Close drops the connection and waits for both loops to finish.
func (c *Client) Close() {
	c.closeConn()
	c.wg.Wait()
}
