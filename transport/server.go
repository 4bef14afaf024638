package transport

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/wire"
)

// ServerHandler processes one inbound frame from an accepted connection.
// out is the sender's own outbound queue, for direct replies. Returning
// false closes the connection.
type ServerHandler func(ctx context.Context, out *Queue, sender protocol.PeerID, frame *wire.Buffer) bool

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithQueueCap bounds each connection's outbound queue.
func WithQueueCap(n int) ServerOption {
	return func(s *Server) { s.queueCap = n }
}

// WithDisconnect registers a callback invoked after a connection has fully
// closed, identified by its peer id.
func WithDisconnect(fn func(protocol.PeerID)) ServerOption {
	return func(s *Server) { s.onDisconnect = fn }
}

// Server accepts inbound connections indefinitely and runs one reader and
// one writer goroutine per connection. Peer ids are assigned from a local
// counter and are unique for the server's lifetime.
type Server struct {
	handler      ServerHandler
	queueCap     int
	onDisconnect func(protocol.PeerID)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	nextID protocol.PeerID
	conns  map[protocol.PeerID]*serverConn
	closed bool
}

// serverConn is the server's view of one accepted connection.
type serverConn struct {
	id   protocol.PeerID
	con  net.Conn
	out  *Queue
	done chan struct{}
	once sync.Once
}

// close shuts the socket and stops the writer loop. Safe to call from any
// goroutine, any number of times.
func (c *serverConn) close() {
	c.once.Do(func() {
		close(c.done)
		c.con.Close()
	})
}

// NewServer creates a server driver around the given frame handler.
func NewServer(handler ServerHandler, opts ...ServerOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		handler:  handler,
		queueCap: DefaultQueueCap,
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[protocol.PeerID]*serverConn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve accepts connections from l until the listener is closed or the
// server shuts down. It blocks; run it in its own goroutine.
func (s *Server) Serve(l net.Listener) error {
	for {
		con, err := l.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.addConn(con)
	}
}

// addConn registers a connection, assigns it a peer id, and starts its
// reader and writer loops.
func (s *Server) addConn(con net.Conn) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		con.Close()
		return
	}
	s.nextID++
	sc := &serverConn{
		id:   s.nextID,
		con:  con,
		out:  NewQueue(s.queueCap),
		done: make(chan struct{}),
	}
	s.conns[sc.id] = sc
	s.mu.Unlock()

	s.wg.Add(2)
	go s.readLoop(sc)
	go s.writeLoop(sc)
}

// removeConn tears a connection down and notifies the disconnect callback
// exactly once.
func (s *Server) removeConn(sc *serverConn) {
	s.mu.Lock()
	_, present := s.conns[sc.id]
	delete(s.conns, sc.id)
	s.mu.Unlock()

	sc.close()
	if present && s.onDisconnect != nil {
		s.onDisconnect(sc.id)
	}
}

// readLoop frames inbound bytes and dispatches each frame to the handler.
// Any read error, or a false return from the handler, ends the connection.
func (s *Server) readLoop(sc *serverConn) {
	defer s.wg.Done()
	defer s.removeConn(sc)

	for {
		frame, err := ReadFrame(sc.con)
		if err != nil {
			return
		}
		if !s.handler(s.ctx, sc.out, sc.id, frame) {
			return
		}
	}
}

// writeLoop drains the connection's outbound queue onto the socket.
func (s *Server) writeLoop(sc *serverConn) {
	defer s.wg.Done()

	for {
		select {
		case frame := <-sc.out.Frames():
			if err := WriteFrame(sc.con, frame); err != nil {
				sc.close()
				return
			}
		case <-sc.done:
			return
		case <-s.ctx.Done():
			sc.close()
			return
		}
	}
}

// Send enqueues a frame for the identified peer. Returns false if the peer
// is no longer connected or its queue rejected the frame.
func (s *Server) Send(id protocol.PeerID, frame *wire.Buffer) bool {
	s.mu.Lock()
	sc, ok := s.conns[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return sc.out.Enqueue(frame)
}

// QueueDropped reports the number of frames the identified peer's queue has
// discarded due to overflow, or zero for an unknown peer.
func (s *Server) QueueDropped(id protocol.PeerID) uint64 {
	s.mu.Lock()
	sc, ok := s.conns[id]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return sc.out.Dropped()
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close shuts the server and every connection down and waits for all
// per-connection goroutines to exit.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]*serverConn, 0, len(s.conns))
	for _, sc := range s.conns {
		conns = append(conns, sc)
	}
	s.mu.Unlock()

	s.cancel()
	for _, sc := range conns {
		sc.close()
	}
	s.wg.Wait()
	log.Printf("transport: server closed (%d connections torn down)", len(conns))
}
