package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchNode means a referenced node id is not in the mission graph.
	ErrNoSuchNode = errors.New("no such mission node")
	// ErrNoLink means the current node has no link to the requested target.
	ErrNoLink = errors.New("no link to target node")
	// ErrAuthorization means the user's authorization level does not clear
	// the link's minimum.
	ErrAuthorization = errors.New("insufficient authorization level")
)

// NodeID identifies a node within one mission graph.
type NodeID uint32

// NodeKind types a mission node. Each kind accepts its own pair of intents.
type NodeKind uint8

const (
	NodeAccessPoint NodeKind = iota
	NodeBackend
	NodeControl
	NodeDatabase
	NodeEngine
	NodeFrontend
	NodeGateway
	NodeHardware
	nodeKindCount
)

// String returns the node kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeAccessPoint:
		return "access-point"
	case NodeBackend:
		return "backend"
	case NodeControl:
		return "control"
	case NodeDatabase:
		return "database"
	case NodeEngine:
		return "engine"
	case NodeFrontend:
		return "frontend"
	case NodeGateway:
		return "gateway"
	case NodeHardware:
		return "hardware"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool { return k < nodeKindCount }

// Node content flags.
const (
	// FlagEntry marks the node users start on.
	FlagEntry uint8 = 1 << iota
	// FlagObjective marks a mission objective node.
	FlagObjective
	// FlagHardened raises the level of tokens issued at the node.
	FlagHardened
)

// Link is one directional edge out of a node, gated by a minimum
// authorization level.
type Link struct {
	To       NodeID `json:"to"`
	MinLevel uint8  `json:"min_level"`
}

// Node is one vertex of the mission graph.
type Node struct {
	ID    NodeID   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Flags uint8    `json:"flags"`
	Links []Link   `json:"links"`
}

// LinkTo returns the outgoing link toward the given node, if one exists.
func (n *Node) LinkTo(to NodeID) (Link, bool) {
	for _, l := range n.Links {
		if l.To == to {
			return l, true
		}
	}
	return Link{}, false
}

// Mission is a directed graph of typed nodes shared by every user in a
// session. The graph itself never changes after construction; per-user
// position and discovery live in MissionState.
type Mission struct {
	Name  string
	Entry NodeID
	Nodes map[NodeID]*Node
}

// Node looks up a node by id.
func (m *Mission) Node(id NodeID) (*Node, bool) {
	n, ok := m.Nodes[id]
	return n, ok
}

// MissionState is one user's view of the mission: where they are, which
// nodes they have discovered, and the tokens they hold.
type MissionState struct {
	Current NodeID
	Known   map[NodeID]bool
	Tokens  []Token
}

func newMissionState(entry NodeID) MissionState {
	return MissionState{
		Current: entry,
		Known:   map[NodeID]bool{entry: true},
	}
}

// Discover marks nodes as known to the user.
func (ms *MissionState) Discover(ids ...NodeID) {
	for _, id := range ids {
		ms.Known[id] = true
	}
}

// Traverse moves the user across the link from their current node to the
// target. The move requires an outgoing link to exist and the user's maximum
// authorization token level to clear the link's minimum.
func (ms *MissionState) Traverse(m *Mission, to NodeID) error {
	cur, ok := m.Node(ms.Current)
	if !ok {
		return fmt.Errorf("traverse from %d: %w", ms.Current, ErrNoSuchNode)
	}
	if _, ok := m.Node(to); !ok {
		return fmt.Errorf("traverse to %d: %w", to, ErrNoSuchNode)
	}
	link, ok := cur.LinkTo(to)
	if !ok {
		return fmt.Errorf("traverse %d->%d: %w", ms.Current, to, ErrNoLink)
	}
	if MaxAuthorization(ms.Tokens) < link.MinLevel {
		return fmt.Errorf("traverse %d->%d needs level %d: %w",
			ms.Current, to, link.MinLevel, ErrAuthorization)
	}
	ms.Current = to
	ms.Known[to] = true
	return nil
}
