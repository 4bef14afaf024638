package broadcast

import (
	"log"
	"sync"

	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/wire"
)

// Sender puts one routed frame on the wire toward the hub. It reports false
// when the frame could not be queued.
type Sender interface {
	Send(frame *wire.Buffer) bool
}

// Coords are the routing coordinates a user was last seen at: the gateway
// connection owning them and their id local to that gateway.
type Coords struct {
	Gateway protocol.PeerID
	Client  uint32
}

// Registry tracks where each user can currently be reached.
type Registry struct {
	sender Sender

	mu    sync.Mutex
	users map[string]Coords
}

// NewRegistry creates an empty registry delivering through sender.
func NewRegistry(sender Sender) *Registry {
	return &Registry{
		sender: sender,
		users:  make(map[string]Coords),
	}
}

// Track registers or refreshes a user's coordinates.
func (r *Registry) Track(user string, c Coords) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user] = c
}

// Forget drops a user's entry.
func (r *Registry) Forget(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, user)
}

// Tracked returns a user's coordinates, if any.
func (r *Registry) Tracked(user string) (Coords, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.users[user]
	return c, ok
}

// Len returns the number of tracked users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// frame builds the push frame for one user: the gateway route, the command,
// the gateway-local client id, then the record.
func frame(c Coords, cmd protocol.Command, record protocol.Record) *wire.Buffer {
	route := protocol.One(c.Gateway)
	b := wire.NewBuffer(route.Size() + wire.SizeU16 + wire.SizeU32 + record.Size())
	route.Encode(b)
	b.PushU16(uint16(cmd))
	b.PushU32(c.Client)
	record.Encode(b)
	return b
}

// SendToUser pushes one record to a tracked user. An untracked user is a
// silent no-op; a failed delivery prunes the entry so the next send is too.
func (r *Registry) SendToUser(user string, cmd protocol.Command, record protocol.Record) bool {
	r.mu.Lock()
	c, ok := r.users[user]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if !r.sender.Send(frame(c, cmd, record)) {
		log.Printf("broadcast: pruning user %s, delivery via gateway %d failed", user, c.Gateway)
		r.Forget(user)
		return false
	}
	return true
}

// Broadcast pushes one record to every tracked user, pruning all failed
// deliveries in a single pass.
func (r *Registry) Broadcast(cmd protocol.Command, record protocol.Record) {
	r.mu.Lock()
	snapshot := make(map[string]Coords, len(r.users))
	for user, c := range r.users {
		snapshot[user] = c
	}
	r.mu.Unlock()

	var dead []string
	for user, c := range snapshot {
		if !r.sender.Send(frame(c, cmd, record)) {
			dead = append(dead, user)
		}
	}
	if len(dead) == 0 {
		return
	}
	r.mu.Lock()
	for _, user := range dead {
		delete(r.users, user)
	}
	r.mu.Unlock()
	log.Printf("broadcast: pruned %d unreachable users", len(dead))
}
