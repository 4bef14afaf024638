package service

import (
	"sort"

	"github.com/darkwire-games/darkwire/game/engine"
	"github.com/darkwire-games/darkwire/protocol"
)

// missionView snapshots one user's mission knowledge for the wire: their
// current node and every node they have discovered, with its links.
func missionView(e *engine.Engine, user string) protocol.UpdateMission {
	u, ok := e.User(user)
	if !ok {
		return protocol.UpdateMission{}
	}
	g := e.State()

	ids := make([]engine.NodeID, 0, len(u.Mission.Known))
	for id := range u.Mission.Known {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	view := protocol.UpdateMission{
		Current: uint32(u.Mission.Current),
		Known:   make([]protocol.NodeView, 0, len(ids)),
	}
	for _, id := range ids {
		node, ok := g.Mission.Node(id)
		if !ok {
			continue
		}
		nv := protocol.NodeView{
			ID:    uint32(node.ID),
			Kind:  uint8(node.Kind),
			Flags: node.Flags,
			Links: make([]protocol.LinkView, 0, len(node.Links)),
		}
		for _, l := range node.Links {
			nv.Links = append(nv.Links, protocol.LinkView{
				To:       uint32(l.To),
				MinLevel: l.MinLevel,
			})
		}
		view.Known = append(view.Known, nv)
	}
	return view
}

// deckView snapshots one user's remaining deck for the wire.
func deckView(e *engine.Engine, user string) protocol.UpdateDeck {
	u, ok := e.User(user)
	if !ok || u.Player == nil {
		return protocol.UpdateDeck{Cards: []uint32{}}
	}
	return protocol.UpdateDeck{
		Cards: append([]uint32(nil), u.Player.Deck...),
	}
}

// tokenView snapshots one user's token list for the wire.
func tokenView(e *engine.Engine, user string) protocol.UpdateTokens {
	u, ok := e.User(user)
	if !ok {
		return protocol.UpdateTokens{Tokens: []protocol.TokenView{}}
	}
	view := protocol.UpdateTokens{
		Tokens: make([]protocol.TokenView, 0, len(u.Mission.Tokens)),
	}
	for _, t := range u.Mission.Tokens {
		view.Tokens = append(view.Tokens, protocol.TokenView{
			Kind:   uint8(t.Kind),
			Level:  t.Level,
			Expiry: t.Expiry,
		})
	}
	return view
}
