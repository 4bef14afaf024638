package engine

import "github.com/darkwire-games/darkwire/protocol"

// Player is a user's built loadout. It is nil on the GameUser until the
// build phase completes for that user.
type Player struct {
	Attrs AttrArray `json:"attrs"`
	Deck  []uint32  `json:"deck"`
}

// RemoveCard takes one copy of a card out of the deck. Returns false when
// the deck holds none.
func (p *Player) RemoveCard(id uint32) bool {
	for i, c := range p.Deck {
		if c == id {
			p.Deck = append(p.Deck[:i], p.Deck[i+1:]...)
			return true
		}
	}
	return false
}

// GameUser is one player's authoritative state within a session.
type GameUser struct {
	Name      string
	AuthLevel uint8
	Player    *Player
	Machine   *Machine
	Mission   MissionState
	Ergs      ErgArray

	// Per-turn choices, cleared when the turn ends.
	Intent       Intent
	IntentTarget NodeID
	Attr         uint8

	expect protocol.SubCommand
	last   protocol.SubCommand
}

func newGameUser(name string, level uint8, entry NodeID) *GameUser {
	return &GameUser{
		Name:      name,
		AuthLevel: level,
		Machine:   NewMachine(DefaultVitalCaps),
		Mission:   newMissionState(entry),
	}
}

// ShouldBe returns the single sub-command the engine will accept from this
// user next. Zero means no command is expected.
func (u *GameUser) ShouldBe() protocol.SubCommand { return u.expect }

// TrySet accepts cmd if it matches the expected command, recording it as the
// user's last satisfied command. Any other command is refused and changes
// nothing.
func (u *GameUser) TrySet(cmd protocol.SubCommand) bool {
	if cmd != u.expect {
		return false
	}
	u.last = cmd
	u.expect = 0
	return true
}

// Expect arms the gate for the next phase.
func (u *GameUser) Expect(cmd protocol.SubCommand) { u.expect = cmd }

// LastCommand returns the most recently accepted sub-command.
func (u *GameUser) LastCommand() protocol.SubCommand { return u.last }
