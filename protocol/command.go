package protocol

import "fmt"

// Command tags the semantic operation of a frame. It immediately follows the
// Route on inbound frames and leads outbound frames after the router rewrite.
type Command uint16

const (
	// CmdAnnounce is sent once by the client driver after connecting, so the
	// router can record the connection's flavor. Payload: Announce.
	CmdAnnounce Command = 0x0001

	// CmdGame carries every game-turn operation. Frames from a gateway carry
	// a u32 client id, then a u16 sub-command, then the sub-command's record.
	CmdGame Command = 0x0010

	// Server-initiated pushes toward clients. Payload begins with the u32
	// client id the owning gateway should deliver to.
	CmdUpdateMission Command = 0x0020
	CmdUpdateTokens  Command = 0x0021
	CmdUpdateState   Command = 0x0022
	CmdUpdateDeck    Command = 0x0023

	// Chat service commands.
	CmdChat Command = 0x0030
	CmdDM   Command = 0x0031

	// Inventory service commands.
	CmdInventoryGenerate Command = 0x0040
	CmdInventoryList     Command = 0x0041
)

// String returns the command mnemonic for logs.
func (c Command) String() string {
	switch c {
	case CmdAnnounce:
		return "announce"
	case CmdGame:
		return "game"
	case CmdUpdateMission:
		return "update-mission"
	case CmdUpdateTokens:
		return "update-tokens"
	case CmdUpdateState:
		return "update-state"
	case CmdUpdateDeck:
		return "update-deck"
	case CmdChat:
		return "chat"
	case CmdDM:
		return "dm"
	case CmdInventoryGenerate:
		return "inventory-generate"
	case CmdInventoryList:
		return "inventory-list"
	default:
		return fmt.Sprintf("command(0x%04x)", uint16(c))
	}
}

// SubCommand distinguishes operations within the Game command family.
type SubCommand uint16

const (
	SubActivate     SubCommand = 0x0001 // join or create a session
	SubBuild        SubCommand = 0x0002 // build player attributes and deck
	SubChooseIntent SubCommand = 0x0003
	SubChooseAttr   SubCommand = 0x0004
	SubPlayCard     SubCommand = 0x0005
	SubEndTurn      SubCommand = 0x0006
	SubAuthorize    SubCommand = 0x0007 // consume a credentials token
	SubEndGame      SubCommand = 0x0008
	SubTick         SubCommand = 0x0009 // advance machine schedulers
)

// String returns the sub-command mnemonic for logs.
func (s SubCommand) String() string {
	switch s {
	case SubActivate:
		return "activate"
	case SubBuild:
		return "build"
	case SubChooseIntent:
		return "choose-intent"
	case SubChooseAttr:
		return "choose-attr"
	case SubPlayCard:
		return "play-card"
	case SubEndTurn:
		return "end-turn"
	case SubAuthorize:
		return "authorize"
	case SubEndGame:
		return "end-game"
	case SubTick:
		return "tick"
	default:
		return fmt.Sprintf("sub(0x%04x)", uint16(s))
	}
}
