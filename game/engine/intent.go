package engine

import (
	"fmt"
	"log"
	"math/rand"
)

// Intent is one action a user can declare at a mission node. Every node kind
// accepts exactly two: one movement intent and one local-effect intent.
type Intent uint8

const (
	IntentProbe     Intent = iota // access point: reveal linked nodes
	IntentConnect                 // access point: traverse a link
	IntentQuery                   // backend: issue a credentials token
	IntentPivot                   // backend: traverse a link
	IntentEscalate                // control: extend token expiries
	IntentSeize                   // control: traverse a link
	IntentHarvest                 // database: draw a card into the deck
	IntentInject                  // database: traverse a link
	IntentCompile                 // engine node: draw a card into the deck
	IntentDeploy                  // engine node: traverse a link
	IntentSpoof                   // frontend: issue a low credentials token
	IntentPhish                   // frontend: traverse a link
	IntentHandshake               // gateway: issue a credentials token
	IntentTunnel                  // gateway: traverse a link
	IntentOverclock               // hardware: restore machine vitals
	IntentJack                    // hardware: traverse a link
	intentCount
)

// String returns the intent name for logs.
func (i Intent) String() string {
	names := [...]string{
		"probe", "connect", "query", "pivot", "escalate", "seize",
		"harvest", "inject", "compile", "deploy", "spoof", "phish",
		"handshake", "tunnel", "overclock", "jack",
	}
	if int(i) < len(names) {
		return names[i]
	}
	return fmt.Sprintf("intent(%d)", uint8(i))
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool { return i < intentCount }

// intentsByKind lists the two intents each node kind accepts, effect intent
// first, movement intent second.
var intentsByKind = map[NodeKind][2]Intent{
	NodeAccessPoint: {IntentProbe, IntentConnect},
	NodeBackend:     {IntentQuery, IntentPivot},
	NodeControl:     {IntentEscalate, IntentSeize},
	NodeDatabase:    {IntentHarvest, IntentInject},
	NodeEngine:      {IntentCompile, IntentDeploy},
	NodeFrontend:    {IntentSpoof, IntentPhish},
	NodeGateway:     {IntentHandshake, IntentTunnel},
	NodeHardware:    {IntentOverclock, IntentJack},
}

// Accepts reports whether a node of kind k accepts intent i.
func (k NodeKind) Accepts(i Intent) bool {
	pair, ok := intentsByKind[k]
	return ok && (pair[0] == i || pair[1] == i)
}

// Outcome classifies what a resolver changed, deciding which delta
// broadcasts the caller owes the user. Resolvers never touch broadcast
// state themselves.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeNodeChanged
	OutcomeTokenChange
	OutcomeDeckChange
)

// resolveCtx carries the disjoint session handles a resolution pass reads:
// the shared graph, the node defenders, the card pool, and the clock. User
// state is passed separately so each resolver mutates exactly one user.
type resolveCtx struct {
	mission *Mission
	remotes map[NodeID]*Remote
	catalog *Catalog
	tick    uint32
	rng     *rand.Rand
}

type resolver func(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome

// resolverTable is the closed dispatch table from node kind to resolver.
var resolverTable = map[NodeKind]resolver{
	NodeAccessPoint: resolveAccessPoint,
	NodeBackend:     resolveBackend,
	NodeControl:     resolveControl,
	NodeDatabase:    resolveDatabase,
	NodeEngine:      resolveEngineNode,
	NodeFrontend:    resolveFrontend,
	NodeGateway:     resolveGateway,
	NodeHardware:    resolveHardware,
}

// resolveIntent dispatches one user's declared intent against their current
// node. Intents the node does not accept resolve to nothing.
func resolveIntent(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	node, ok := rc.mission.Node(u.Mission.Current)
	if !ok {
		log.Printf("engine: user %s is on missing node %d", u.Name, u.Mission.Current)
		return OutcomeNone
	}
	if !node.Kind.Accepts(intent) {
		log.Printf("engine: user %s declared %s at %s node %d, not accepted",
			u.Name, intent, node.Kind, node.ID)
		return OutcomeNone
	}
	return resolverTable[node.Kind](rc, u, intent, target)
}

// moveUser is the shared movement path: every movement intent is the same
// gated traversal.
func moveUser(rc *resolveCtx, u *GameUser, target NodeID) Outcome {
	if err := u.Mission.Traverse(rc.mission, target); err != nil {
		log.Printf("engine: user %s cannot move: %v", u.Name, err)
		return OutcomeNone
	}
	return OutcomeNodeChanged
}

// issueCredentials grants a credentials token at the given level.
func issueCredentials(rc *resolveCtx, u *GameUser, level uint8) Outcome {
	u.Mission.Tokens = append(u.Mission.Tokens, Token{
		Kind:   TokenCredentials,
		Level:  level,
		Expiry: rc.tick + DefaultTokenTTL,
	})
	return OutcomeTokenChange
}

// nodeTokenLevel derives the level of tokens a node issues from its flags.
func nodeTokenLevel(n *Node) uint8 {
	if n.Flags&FlagHardened != 0 {
		return 3
	}
	return 2
}

func resolveAccessPoint(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentConnect {
		return moveUser(rc, u, target)
	}
	node, _ := rc.mission.Node(u.Mission.Current)
	for _, l := range node.Links {
		u.Mission.Discover(l.To)
	}
	return OutcomeNodeChanged
}

func resolveBackend(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentPivot {
		return moveUser(rc, u, target)
	}
	node, _ := rc.mission.Node(u.Mission.Current)
	return issueCredentials(rc, u, nodeTokenLevel(node))
}

func resolveControl(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentSeize {
		return moveUser(rc, u, target)
	}
	if len(u.Mission.Tokens) == 0 {
		return OutcomeNone
	}
	ExtendTokens(u.Mission.Tokens, DefaultTokenTTL/2)
	return OutcomeTokenChange
}

func resolveDatabase(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentInject {
		return moveUser(rc, u, target)
	}
	return drawCard(rc, u)
}

func resolveEngineNode(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentDeploy {
		return moveUser(rc, u, target)
	}
	return drawCard(rc, u)
}

func resolveFrontend(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentPhish {
		return moveUser(rc, u, target)
	}
	return issueCredentials(rc, u, 1)
}

func resolveGateway(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentTunnel {
		return moveUser(rc, u, target)
	}
	node, _ := rc.mission.Node(u.Mission.Current)
	return issueCredentials(rc, u, nodeTokenLevel(node))
}

func resolveHardware(rc *resolveCtx, u *GameUser, intent Intent, target NodeID) Outcome {
	if intent == IntentJack {
		return moveUser(rc, u, target)
	}
	// Overclock restores the machine. There is no broadcast category for
	// machine state, so the result is none.
	u.Machine.Adjust(VitalThermal, 15)
	u.Machine.Adjust(VitalHealth, 10)
	return OutcomeNone
}

// drawCard adds a random catalog card to the user's deck. Users without a
// built player cannot hold cards.
func drawCard(rc *resolveCtx, u *GameUser) Outcome {
	if u.Player == nil {
		return OutcomeNone
	}
	u.Player.Deck = append(u.Player.Deck, rc.catalog.RandomCardID(rc.rng))
	return OutcomeDeckChange
}
