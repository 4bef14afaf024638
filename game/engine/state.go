package engine

import (
	"github.com/google/uuid"

	"github.com/darkwire-games/darkwire/protocol"
)

// Remote is the non-player actor defending a mission node.
type Remote struct {
	Node    NodeID
	Attrs   AttrArray
	Machine *Machine
	Ergs    ErgArray
}

// GameState is the authoritative state of one session.
type GameState struct {
	ID      uuid.UUID
	Phase   Phase
	Turn    uint32
	Tick    uint32
	Mission *Mission
	Users   map[string]*GameUser
	Remotes map[NodeID]*Remote
}

// expectedCommand maps each phase to the sub-command every user must supply
// before the phase can complete.
func expectedCommand(p Phase) protocol.SubCommand {
	switch p {
	case PhaseBuilding:
		return protocol.SubBuild
	case PhaseChooseIntent:
		return protocol.SubChooseIntent
	case PhaseChooseAttr:
		return protocol.SubChooseAttr
	case PhaseCardPlay:
		return protocol.SubPlayCard
	case PhaseTurnEnd:
		return protocol.SubEndTurn
	default:
		return 0
	}
}

// AllUsersLast reports whether every joined user's last accepted command is
// cmd. An empty session never satisfies a phase.
func (g *GameState) AllUsersLast(cmd protocol.SubCommand) bool {
	if len(g.Users) == 0 {
		return false
	}
	for _, u := range g.Users {
		if u.LastCommand() != cmd {
			return false
		}
	}
	return true
}

// enterPhase moves the session to p and re-arms every user's command gate
// for it.
func (g *GameState) enterPhase(p Phase) {
	g.Phase = p
	cmd := expectedCommand(p)
	for _, u := range g.Users {
		u.Expect(cmd)
	}
}
