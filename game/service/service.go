package service

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/darkwire-games/darkwire/game/broadcast"
	"github.com/darkwire-games/darkwire/game/engine"
	"github.com/darkwire-games/darkwire/game/session"
	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/wire"
)

// Service dispatches game frames into session engines and pushes the
// resulting deltas back out through the router.
type Service struct {
	sessions *session.Manager

	mu         sync.Mutex
	sender     broadcast.Sender
	registries map[uuid.UUID]*broadcast.Registry
}

// New creates the service over a session registry. Bind a sender before
// frames arrive; until then every outbound push fails silently.
func New(sessions *session.Manager) *Service {
	return &Service{
		sessions:   sessions,
		registries: make(map[uuid.UUID]*broadcast.Registry),
	}
}

// Bind attaches the outbound path toward the router, normally the transport
// client established after the service is constructed.
func (s *Service) Bind(sender broadcast.Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

// Send implements broadcast.Sender by delegating to the bound sender.
func (s *Service) Send(frame *wire.Buffer) bool {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()
	if sender == nil {
		return false
	}
	return sender.Send(frame)
}

// registryFor returns the broadcaster for one session, creating it on first
// use.
func (s *Service) registryFor(id uuid.UUID) *broadcast.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registries[id]
	if !ok {
		reg = broadcast.NewRegistry(s)
		s.registries[id] = reg
	}
	return reg
}

func (s *Service) dropRegistry(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registries, id)
}

// Handle is the transport client handler. Frames arrive router-rewritten:
// the command tag, the sending gateway's identity, then the payload.
func (s *Service) Handle(ctx context.Context, out *transport.Queue, frame *wire.Buffer) transport.Verdict {
	cmd, err := frame.PullU16()
	if err != nil {
		log.Printf("service: dropping frame without command: %v", err)
		return transport.Disconnect
	}
	sender, err := frame.PullU32()
	if err != nil {
		log.Printf("service: dropping frame without sender: %v", err)
		return transport.Disconnect
	}

	switch protocol.Command(cmd) {
	case protocol.CmdGame:
		s.handleGame(protocol.PeerID(sender), frame)
	default:
		log.Printf("service: ignoring %s frame from peer %d", protocol.Command(cmd), sender)
	}
	return transport.Continue
}

// handleGame dispatches one game command. The payload carries the
// gateway-local client id, the sub-command, and its record.
func (s *Service) handleGame(gateway protocol.PeerID, frame *wire.Buffer) {
	client, err := frame.PullU32()
	if err != nil {
		log.Printf("service: game frame from %d lacks client id: %v", gateway, err)
		return
	}
	sub, err := frame.PullU16()
	if err != nil {
		log.Printf("service: game frame from %d lacks sub-command: %v", gateway, err)
		return
	}

	switch protocol.SubCommand(sub) {
	case protocol.SubActivate:
		s.handleActivate(gateway, client, frame)
	case protocol.SubBuild:
		s.handleBuild(gateway, client, frame)
	case protocol.SubChooseIntent:
		s.handleChooseIntent(gateway, client, frame)
	case protocol.SubChooseAttr:
		s.handleChooseAttr(gateway, client, frame)
	case protocol.SubPlayCard:
		s.handlePlayCard(gateway, client, frame)
	case protocol.SubEndTurn:
		s.handleEndTurn(gateway, client, frame)
	case protocol.SubAuthorize:
		s.handleAuthorize(gateway, client, frame)
	case protocol.SubEndGame:
		s.handleEndGame(gateway, client, frame)
	case protocol.SubTick:
		s.handleTick(gateway, client, frame)
	default:
		log.Printf("service: unknown sub-command 0x%04x from gateway %d", sub, gateway)
	}
}

// respond sends one record straight back to a client, bypassing the
// broadcaster. Used when there is no session to track the user under.
func (s *Service) respond(gateway protocol.PeerID, client uint32, cmd protocol.Command, record protocol.Record) {
	route := protocol.One(gateway)
	b := wire.NewBuffer(route.Size() + wire.SizeU16 + wire.SizeU32 + record.Size())
	route.Encode(b)
	b.PushU16(uint16(cmd))
	b.PushU32(client)
	record.Encode(b)
	if !s.Send(b) {
		log.Printf("service: response to gateway %d client %d lost", gateway, client)
	}
}

// stateUpdate assembles the state push answering one command.
func stateUpdate(e *engine.Engine, res engine.Result) protocol.UpdateState {
	g := e.State()
	return protocol.UpdateState{
		Session:  g.ID,
		Phase:    uint8(g.Phase),
		Turn:     g.Turn,
		Accepted: res.Accepted,
		Message:  res.Message,
	}
}

// pushDeltas fans out the per-user pushes an engine operation produced.
func (s *Service) pushDeltas(reg *broadcast.Registry, e *engine.Engine, deltas []engine.Delta) {
	for _, d := range deltas {
		if d.Mission {
			reg.SendToUser(d.User, protocol.CmdUpdateMission, missionView(e, d.User))
		}
		if d.Tokens {
			reg.SendToUser(d.User, protocol.CmdUpdateTokens, tokenView(e, d.User))
		}
		if d.Deck {
			reg.SendToUser(d.User, protocol.CmdUpdateDeck, deckView(e, d.User))
		}
		if d.Ergs != nil {
			upd := stateUpdate(e, engine.Result{Accepted: true, Message: "resolved"})
			upd.Ergs = *d.Ergs
			reg.SendToUser(d.User, protocol.CmdUpdateState, upd)
		}
	}
}

// finish pushes everything one engine operation produced: a delta push per
// owed user, then the state response to the requester.
func (s *Service) finish(reg *broadcast.Registry, e *engine.Engine, user string, res engine.Result) {
	s.pushDeltas(reg, e, res.Deltas)
	reg.SendToUser(user, protocol.CmdUpdateState, stateUpdate(e, res))
}

// noSession answers a command naming a session this engine does not hold.
func (s *Service) noSession(gateway protocol.PeerID, client uint32, id uuid.UUID) {
	log.Printf("service: no session %s", id)
	s.respond(gateway, client, protocol.CmdUpdateState, protocol.UpdateState{
		Session: id,
		Message: "no such session",
	})
}

func (s *Service) handleActivate(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeActivate(frame)
	if err != nil {
		log.Printf("service: bad activate from gateway %d: %v", gateway, err)
		return
	}
	sess := s.sessions.Activate(m.Session)
	reg := s.registryFor(sess.ID)
	reg.Track(m.User, broadcast.Coords{Gateway: gateway, Client: client})
	sess.With(func(e *engine.Engine) {
		res := e.Activate(m.User, m.AuthLevel)
		s.finish(reg, e, m.User, res)
	})
}

// withSession runs one decoded command against its session, answering with
// a failure state when the session does not exist.
func (s *Service) withSession(gateway protocol.PeerID, client uint32, id uuid.UUID, user string,
	op func(e *engine.Engine) engine.Result) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.noSession(gateway, client, id)
		return
	}
	reg := s.registryFor(sess.ID)
	reg.Track(user, broadcast.Coords{Gateway: gateway, Client: client})
	sess.With(func(e *engine.Engine) {
		res := op(e)
		s.finish(reg, e, user, res)
	})
}

func (s *Service) handleBuild(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeBuild(frame)
	if err != nil {
		log.Printf("service: bad build from gateway %d: %v", gateway, err)
		return
	}
	s.withSession(gateway, client, m.Session, m.User, func(e *engine.Engine) engine.Result {
		return e.Build(m.User, engine.AttrArray(m.Attrs), m.Deck)
	})
}

func (s *Service) handleChooseIntent(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeChooseIntent(frame)
	if err != nil {
		log.Printf("service: bad choose-intent from gateway %d: %v", gateway, err)
		return
	}
	s.withSession(gateway, client, m.Session, m.User, func(e *engine.Engine) engine.Result {
		return e.ChooseIntent(m.User, engine.Intent(m.Intent), engine.NodeID(m.Target))
	})
}

func (s *Service) handleChooseAttr(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeChooseAttr(frame)
	if err != nil {
		log.Printf("service: bad choose-attr from gateway %d: %v", gateway, err)
		return
	}
	s.withSession(gateway, client, m.Session, m.User, func(e *engine.Engine) engine.Result {
		return e.ChooseAttr(m.User, m.Attr)
	})
}

func (s *Service) handlePlayCard(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodePlayCard(frame)
	if err != nil {
		log.Printf("service: bad play-card from gateway %d: %v", gateway, err)
		return
	}
	s.withSession(gateway, client, m.Session, m.User, func(e *engine.Engine) engine.Result {
		return e.PlayCard(m.User, m.Card)
	})
}

func (s *Service) handleEndTurn(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeEndTurn(frame)
	if err != nil {
		log.Printf("service: bad end-turn from gateway %d: %v", gateway, err)
		return
	}
	s.withSession(gateway, client, m.Session, m.User, func(e *engine.Engine) engine.Result {
		return e.EndTurn(m.User)
	})
}

func (s *Service) handleAuthorize(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeAuthorize(frame)
	if err != nil {
		log.Printf("service: bad authorize from gateway %d: %v", gateway, err)
		return
	}
	s.withSession(gateway, client, m.Session, m.User, func(e *engine.Engine) engine.Result {
		return e.Authorize(m.User, m.Level)
	})
}

func (s *Service) handleEndGame(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeEndGame(frame)
	if err != nil {
		log.Printf("service: bad end-game from gateway %d: %v", gateway, err)
		return
	}
	sess, err := s.sessions.Get(m.Session)
	if err != nil {
		s.noSession(gateway, client, m.Session)
		return
	}
	reg := s.registryFor(sess.ID)
	var empty bool
	sess.With(func(e *engine.Engine) {
		phaseBefore := e.State().Phase
		var res engine.Result
		res, empty = e.EndGameRequest(m.User)
		// The leaving user still gets their answer before being dropped
		// from tracking.
		s.respond(gateway, client, protocol.CmdUpdateState, stateUpdate(e, res))
		reg.Forget(m.User)
		if empty {
			return
		}
		s.pushDeltas(reg, e, res.Deltas)
		if e.State().Phase != phaseBefore {
			// The departure completed the phase; everyone left needs to
			// learn the session moved on without them acting.
			reg.Broadcast(protocol.CmdUpdateState, stateUpdate(e, engine.Result{
				Accepted: true,
				Message:  "phase advanced",
			}))
		}
	})
	if empty {
		s.sessions.Destroy(sess.ID)
		s.dropRegistry(sess.ID)
	}
}

func (s *Service) handleTick(gateway protocol.PeerID, client uint32, frame *wire.Buffer) {
	m, err := protocol.DecodeTick(frame)
	if err != nil {
		log.Printf("service: bad tick from gateway %d: %v", gateway, err)
		return
	}
	sess, err := s.sessions.Get(m.Session)
	if err != nil {
		s.noSession(gateway, client, m.Session)
		return
	}
	sess.With(func(e *engine.Engine) {
		res := e.TickMachines()
		s.respond(gateway, client, protocol.CmdUpdateState, stateUpdate(e, res))
	})
}
