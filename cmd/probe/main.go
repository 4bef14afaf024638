// Command probe is a wire-protocol diagnostic client. It dials the router
// directly, activates a session, and prints every push the engine sends
// back. With --play it drives a full turn cycle (build, intent, attribute,
// card, end turn), which doubles as a smoke test against a live deployment.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/darkwire-games/darkwire/config"
	"github.com/darkwire-games/darkwire/game/engine"
	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/wire"
)

// probeClientID is the gateway-local identity the probe stamps on its own
// frames. The probe is its own gateway, so any constant works.
const probeClientID = 1

func main() {
	cmd := &cli.Command{
		Name:      "probe",
		Usage:     "poke a running deployment over the binary protocol",
		ArgsUsage: "[router-addr]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Value: "probe",
				Usage: "user name to activate with",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "session id to join (empty asks for a fresh one)",
			},
			&cli.BoolFlag{
				Name:  "play",
				Usage: "drive full turn cycles instead of only watching",
			},
			&cli.DurationFlag{
				Name:  "watch",
				Value: 10 * time.Second,
				Usage: "how long to run before exiting",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	routerAddr := cfg.RouterAddr
	if addr := cmd.Args().First(); addr != "" {
		routerAddr = addr
	}

	session := uuid.Nil
	if raw := cmd.String("session"); raw != "" {
		if session, err = uuid.Parse(raw); err != nil {
			return fmt.Errorf("bad session id: %w", err)
		}
	}

	p := &probe{
		user: cmd.String("user"),
		play: cmd.Bool("play"),
		deck: []uint32{1, 3},
	}
	client, err := transport.Dial(ctx, routerAddr, protocol.FlavorClient, p.handle)
	if err != nil {
		return fmt.Errorf("dial router: %w", err)
	}
	defer client.Close()
	p.client = client

	log.Printf("probe connected to %s as %q", routerAddr, p.user)
	p.send(protocol.SubActivate, protocol.Activate{Session: session, User: p.user, AuthLevel: 1})

	select {
	case <-time.After(cmd.Duration("watch")):
		log.Printf("watch window over")
	case <-client.Done():
		log.Printf("connection closed")
	}
	return nil
}

// probe state is touched only from the transport read loop, so it needs no
// locking.
type probe struct {
	user    string
	play    bool
	client  *transport.Client
	session uuid.UUID
	deck    []uint32
	acted   engine.Phase
}

// send wraps one game command the way a gateway would and queues it toward
// the router.
func (p *probe) send(sub protocol.SubCommand, record protocol.Record) {
	route := protocol.Any(protocol.FlavorGame)
	b := wire.NewBuffer(route.Size() + wire.SizeU16 + wire.SizeU32 + wire.SizeU16 + record.Size())
	route.Encode(b)
	b.PushU16(uint16(protocol.CmdGame))
	b.PushU32(probeClientID)
	b.PushU16(uint16(sub))
	record.Encode(b)
	if !p.client.Send(b) {
		log.Printf("send failed: queue full or connection closed")
	}
}

// handle prints every push from the engine. Pushes arrive shaped for a
// gateway: command, engine identity, gateway-local client id, record.
func (p *probe) handle(ctx context.Context, out *transport.Queue, frame *wire.Buffer) transport.Verdict {
	cmd, err := frame.PullU16()
	if err != nil {
		log.Printf("frame without command: %v", err)
		return transport.Disconnect
	}
	if _, err := frame.PullU32(); err != nil { // engine's router identity
		log.Printf("frame without sender: %v", err)
		return transport.Disconnect
	}
	if _, err := frame.PullU32(); err != nil { // our client id
		log.Printf("%s frame without client id: %v", protocol.Command(cmd), err)
		return transport.Continue
	}

	switch protocol.Command(cmd) {
	case protocol.CmdUpdateState:
		m, err := protocol.DecodeUpdateState(frame)
		if err != nil {
			log.Printf("bad state update: %v", err)
			return transport.Continue
		}
		log.Printf("state: session=%s phase=%s turn=%d ergs=%v accepted=%t %s",
			m.Session, engine.Phase(m.Phase), m.Turn, m.Ergs, m.Accepted, m.Message)
		p.onState(m)

	case protocol.CmdUpdateMission:
		m, err := protocol.DecodeUpdateMission(frame)
		if err != nil {
			log.Printf("bad mission update: %v", err)
			return transport.Continue
		}
		log.Printf("mission: at node %d, %d known", m.Current, len(m.Known))
		for _, node := range m.Known {
			log.Printf("  node %d kind=%s flags=%#x links=%d",
				node.ID, engine.NodeKind(node.Kind), node.Flags, len(node.Links))
		}

	case protocol.CmdUpdateDeck:
		m, err := protocol.DecodeUpdateDeck(frame)
		if err != nil {
			log.Printf("bad deck update: %v", err)
			return transport.Continue
		}
		log.Printf("deck: %v", m.Cards)
		if p.play {
			// The engine's view of the deck is authoritative; play from it.
			p.deck = append(p.deck[:0], m.Cards...)
		}

	case protocol.CmdUpdateTokens:
		m, err := protocol.DecodeUpdateTokens(frame)
		if err != nil {
			log.Printf("bad token update: %v", err)
			return transport.Continue
		}
		log.Printf("tokens: %d held", len(m.Tokens))
		for _, t := range m.Tokens {
			log.Printf("  kind=%d level=%d expires tick %d", t.Kind, t.Level, t.Expiry)
		}

	default:
		log.Printf("push %s (%d bytes)", protocol.Command(cmd), frame.Remaining())
	}
	return transport.Continue
}

// onState learns the assigned session from the first accepted push and, in
// play mode, answers whatever the current phase expects. The acted guard
// keeps one command per phase visit even when several accepted pushes land
// during the same phase.
func (p *probe) onState(m protocol.UpdateState) {
	if !m.Accepted {
		return
	}
	if p.session == uuid.Nil {
		p.session = m.Session
	}
	if !p.play {
		return
	}

	phase := engine.Phase(m.Phase)
	if phase == p.acted {
		return
	}
	p.acted = phase

	switch phase {
	case engine.PhaseBuilding:
		p.send(protocol.SubBuild, protocol.Build{
			Session: p.session,
			User:    p.user,
			Attrs:   [4]uint8{2, 2, 2, 2},
			Deck:    append([]uint32(nil), p.deck...),
		})

	case engine.PhaseChooseIntent:
		p.send(protocol.SubChooseIntent, protocol.ChooseIntent{
			Session: p.session,
			User:    p.user,
			Intent:  uint8(engine.IntentProbe),
		})

	case engine.PhaseChooseAttr:
		p.send(protocol.SubChooseAttr, protocol.ChooseAttr{
			Session: p.session,
			User:    p.user,
			Attr:    0,
		})

	case engine.PhaseCardPlay:
		if len(p.deck) == 0 {
			log.Printf("deck exhausted, watching from here")
			return
		}
		card := p.deck[0]
		p.deck = p.deck[1:]
		p.send(protocol.SubPlayCard, protocol.PlayCard{
			Session: p.session,
			User:    p.user,
			Card:    card,
		})

	case engine.PhaseTurnEnd:
		p.send(protocol.SubEndTurn, protocol.EndTurn{
			Session: p.session,
			User:    p.user,
		})
	}
}
