package router

import (
	"context"
	"log"
	"net"
	"sync"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/wire"
)

// Hub is the central message router. It is a stateless relay apart from the
// table mapping each live connection to its announced flavor.
type Hub struct {
	server  *transport.Server
	metrics *Metrics

	mu    sync.Mutex
	peers map[protocol.PeerID]protocol.Flavor
}

// Option configures a Hub.
type Option func(*hubConfig)

type hubConfig struct {
	queueCap int
	metrics  *Metrics
}

// WithQueueCap bounds each peer's delivery queue.
func WithQueueCap(n int) Option {
	return func(c *hubConfig) { c.queueCap = n }
}

// WithMetrics attaches Prometheus collectors to the hub.
func WithMetrics(m *Metrics) Option {
	return func(c *hubConfig) { c.metrics = m }
}

// NewHub creates a router hub. Call Serve to start accepting peers.
func NewHub(opts ...Option) *Hub {
	cfg := hubConfig{queueCap: transport.DefaultQueueCap}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = NewMetrics(nil)
	}

	h := &Hub{
		metrics: cfg.metrics,
		peers:   make(map[protocol.PeerID]protocol.Flavor),
	}
	h.server = transport.NewServer(h.handleFrame,
		transport.WithQueueCap(cfg.queueCap),
		transport.WithDisconnect(h.dropPeer),
	)
	return h
}

// Serve accepts peer connections from l until the hub is closed.
func (h *Hub) Serve(l net.Listener) error {
	return h.server.Serve(l)
}

// Close tears down the hub and every peer connection.
func (h *Hub) Close() {
	h.server.Close()
}

// dropPeer forgets a disconnected peer. Stale queue entries for it simply
// fail future sends; no other peer is affected.
func (h *Hub) dropPeer(id protocol.PeerID) {
	h.mu.Lock()
	flavor, known := h.peers[id]
	delete(h.peers, id)
	h.mu.Unlock()

	if known {
		h.metrics.Peers.WithLabelValues(flavor.String()).Dec()
		log.Printf("router: peer %d (%s) disconnected", id, flavor)
	}
}

// handleFrame relays one inbound frame. It reads the route and command,
// rewrites the frame with the sender's identity, and enqueues it per the
// envelope. Malformed frames close the offending connection; everything
// else is best-effort and never fatal to the hub.
func (h *Hub) handleFrame(ctx context.Context, out *transport.Queue, sender protocol.PeerID, frame *wire.Buffer) bool {
	route, err := protocol.DecodeRoute(frame)
	if err != nil {
		log.Printf("router: peer %d sent unroutable frame: %v", sender, err)
		return false
	}
	cmd, err := frame.PullU16()
	if err != nil {
		log.Printf("router: peer %d sent frame without command: %v", sender, err)
		return false
	}
	command := protocol.Command(cmd)

	if route.Kind == protocol.RouteLocal {
		return h.handleLocal(sender, command, frame)
	}

	// Rewrite: the envelope is consumed here and replaced by the sender's
	// connection identity for downstream consumers.
	relay := wire.NewBuffer(wire.SizeU16 + wire.SizeU32 + frame.Remaining())
	relay.PushU16(cmd)
	relay.PushU32(uint32(sender))
	relay.Transfer(frame)

	targets := h.resolve(route)
	if len(targets) == 0 {
		h.metrics.Dropped.WithLabelValues("no_peer").Inc()
		log.Printf("router: dropping %s frame from peer %d: no peer for %s", command, sender, route)
		return true
	}

	delivered := false
	for _, target := range targets {
		if h.server.Send(target, relay) {
			delivered = true
		} else {
			h.metrics.Dropped.WithLabelValues("send_failed").Inc()
		}
	}
	if delivered {
		h.metrics.Relayed.WithLabelValues(routeLabel(route.Kind)).Inc()
	}
	return true
}

// handleLocal services the hub's own command surface.
func (h *Hub) handleLocal(sender protocol.PeerID, command protocol.Command, frame *wire.Buffer) bool {
	switch command {
	case protocol.CmdAnnounce:
		ann, err := protocol.DecodeAnnounce(frame)
		if err != nil || !ann.Flavor.Valid() {
			log.Printf("router: peer %d sent bad announce", sender)
			return false
		}
		h.mu.Lock()
		h.peers[sender] = ann.Flavor
		h.mu.Unlock()
		h.metrics.Peers.WithLabelValues(ann.Flavor.String()).Inc()
		log.Printf("router: peer %d announced as %s", sender, ann.Flavor)
		return true
	default:
		// Unknown local commands are dropped, not fatal.
		h.metrics.Dropped.WithLabelValues("local_unknown").Inc()
		return true
	}
}

// resolve returns the peer ids a route addresses right now.
func (h *Hub) resolve(route protocol.Route) []protocol.PeerID {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch route.Kind {
	case protocol.RouteOne:
		if _, ok := h.peers[route.Peer]; ok {
			return []protocol.PeerID{route.Peer}
		}
		return nil
	case protocol.RouteAny:
		for id, flavor := range h.peers {
			if flavor == route.Flavor {
				return []protocol.PeerID{id}
			}
		}
		return nil
	case protocol.RouteAll:
		var ids []protocol.PeerID
		for id, flavor := range h.peers {
			if flavor == route.Flavor {
				ids = append(ids, id)
			}
		}
		return ids
	default:
		return nil
	}
}

// PeerCount returns the number of announced peers of the given flavor.
func (h *Hub) PeerCount(flavor protocol.Flavor) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, fl := range h.peers {
		if fl == flavor {
			n++
		}
	}
	return n
}

func routeLabel(kind protocol.RouteKind) string {
	switch kind {
	case protocol.RouteOne:
		return "one"
	case protocol.RouteAny:
		return "any"
	case protocol.RouteAll:
		return "all"
	default:
		return "local"
	}
}
