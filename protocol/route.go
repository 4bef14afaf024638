package protocol

import (
	"fmt"

	"github.com/darkwire-games/darkwire/wire"
)

// Flavor is the declared role of a connected service. The set is closed;
// the router only ever resolves Any/All routes against these roles.
type Flavor uint8

const (
	FlavorGame      Flavor = iota // authoritative session engine
	FlavorInventory               // inventory CRUD service
	FlavorIdentity                // identity/credential lookup service
	FlavorChat                    // chat relay service
	FlavorGateway                 // client-facing gateway
	FlavorClient                  // a directly connected client (probe tools)

	flavorCount
)

// String returns the lowercase role name.
func (f Flavor) String() string {
	switch f {
	case FlavorGame:
		return "game"
	case FlavorInventory:
		return "inventory"
	case FlavorIdentity:
		return "identity"
	case FlavorChat:
		return "chat"
	case FlavorGateway:
		return "gateway"
	case FlavorClient:
		return "client"
	default:
		return fmt.Sprintf("flavor(%d)", uint8(f))
	}
}

// Valid reports whether f is a member of the closed flavor set.
func (f Flavor) Valid() bool {
	return f < flavorCount
}

// PeerID is a router-local connection handle. It identifies one accepted
// connection for the lifetime of that connection and is not globally unique.
type PeerID uint32

// RouteKind discriminates the addressing envelope variants.
type RouteKind uint8

const (
	// RouteLocal delivers to the hub's own handler. Used intra-process; the
	// router drops it silently when seen on the wire.
	RouteLocal RouteKind = iota
	// RouteOne delivers to a single named peer connection.
	RouteOne
	// RouteAny delivers to any one currently connected peer of a flavor.
	RouteAny
	// RouteAll delivers to every currently connected peer of a flavor.
	RouteAll
)

// Route is the addressing envelope at the front of every frame sent toward
// the router. Exactly one variant is populated, selected by Kind.
type Route struct {
	Kind   RouteKind
	Peer   PeerID // RouteOne only
	Flavor Flavor // RouteAny and RouteAll only
}

// Local returns the intra-process delivery envelope.
func Local() Route {
	return Route{Kind: RouteLocal}
}

// One addresses a single peer connection by its router-local id.
func One(peer PeerID) Route {
	return Route{Kind: RouteOne, Peer: peer}
}

// Any addresses any single connected peer of the given flavor.
func Any(flavor Flavor) Route {
	return Route{Kind: RouteAny, Flavor: flavor}
}

// All addresses every connected peer of the given flavor.
func All(flavor Flavor) Route {
	return Route{Kind: RouteAll, Flavor: flavor}
}

// Size returns the encoded size of the route in bytes.
func (r Route) Size() int {
	switch r.Kind {
	case RouteOne:
		return wire.SizeU8 + wire.SizeU32
	case RouteAny, RouteAll:
		return wire.SizeU8 + wire.SizeU8
	default:
		return wire.SizeU8
	}
}

// Encode appends the route's canonical encoding: a u8 tag followed by the
// variant payload.
func (r Route) Encode(b *wire.Buffer) {
	b.PushU8(uint8(r.Kind))
	switch r.Kind {
	case RouteOne:
		b.PushU32(uint32(r.Peer))
	case RouteAny, RouteAll:
		b.PushU8(uint8(r.Flavor))
	}
}

// DecodeRoute reads a route from the front of b.
func DecodeRoute(b *wire.Buffer) (Route, error) {
	tag, err := b.PullU8()
	if err != nil {
		return Route{}, err
	}
	r := Route{Kind: RouteKind(tag)}
	switch r.Kind {
	case RouteLocal:
	case RouteOne:
		peer, err := b.PullU32()
		if err != nil {
			return Route{}, err
		}
		r.Peer = PeerID(peer)
	case RouteAny, RouteAll:
		fl, err := b.PullU8()
		if err != nil {
			return Route{}, err
		}
		r.Flavor = Flavor(fl)
	default:
		return Route{}, fmt.Errorf("protocol: unknown route tag %d", tag)
	}
	return r, nil
}

// String renders the route for logs.
func (r Route) String() string {
	switch r.Kind {
	case RouteLocal:
		return "local"
	case RouteOne:
		return fmt.Sprintf("one(%d)", r.Peer)
	case RouteAny:
		return fmt.Sprintf("any(%s)", r.Flavor)
	case RouteAll:
		return fmt.Sprintf("all(%s)", r.Flavor)
	default:
		return fmt.Sprintf("route(%d)", uint8(r.Kind))
	}
}
