package engine

import (
	"fmt"
	"log"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/darkwire-games/darkwire/protocol"
)

// Delta names one user owed a push after an operation, and which pushes
// they are owed.
type Delta struct {
	User    string
	Mission bool
	Tokens  bool
	Deck    bool
	Ergs    *ErgArray
}

// Result is the outcome of one engine operation. A rejected command leaves
// session state untouched; the message is relayed to the requesting client.
type Result struct {
	Accepted bool
	Message  string
	Deltas   []Delta
}

func reject(format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	log.Printf("engine: %s", msg)
	return Result{Accepted: false, Message: msg}
}

// Engine runs one session's authoritative game logic. It is not safe for
// concurrent use; the session manager serializes callers.
type Engine struct {
	state   *GameState
	catalog *Catalog
	rng     *rand.Rand
}

// New creates a session engine on the catalog's first mission.
func New(id uuid.UUID, catalog *Catalog, seed int64) *Engine {
	mission, remotes := BuildMission(catalog.Missions[0])
	return &Engine{
		state: &GameState{
			ID:      id,
			Phase:   PhaseIdle,
			Mission: mission,
			Users:   make(map[string]*GameUser),
			Remotes: remotes,
		},
		catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// State exposes the session state for read-only snapshots. Callers must
// hold the session lock.
func (e *Engine) State() *GameState { return e.state }

// User looks up a joined user.
func (e *Engine) User(name string) (*GameUser, bool) {
	u, ok := e.state.Users[name]
	return u, ok
}

func (e *Engine) sortedUserNames() []string {
	names := make([]string, 0, len(e.state.Users))
	for name := range e.state.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Activate joins a user to the session, creating their state at the mission
// entry node. The first activation moves an idle session into the build
// phase; later joiners build first and then fall in with the phase in
// progress.
func (e *Engine) Activate(name string, level uint8) Result {
	g := e.state
	if g.Phase == PhaseEnd {
		return reject("user %s cannot join ended session %s", name, g.ID)
	}
	if _, ok := g.Users[name]; ok {
		// Rejoin after a dropped connection: resend their view.
		return Result{
			Accepted: true,
			Message:  "rejoined",
			Deltas:   []Delta{{User: name, Mission: true, Tokens: true}},
		}
	}

	u := newGameUser(name, level, g.Mission.Entry)
	g.Users[name] = u
	log.Printf("engine: user %s joined session %s", name, g.ID)

	if g.Phase == PhaseIdle {
		g.enterPhase(PhaseBuilding)
	} else {
		// A joiner arriving mid-session has no built player yet, so arming
		// them with the phase command would leave them unable to satisfy it.
		u.Expect(protocol.SubBuild)
	}
	return Result{
		Accepted: true,
		Message:  "joined",
		Deltas:   []Delta{{User: name, Mission: true, Tokens: true}},
	}
}

// Build sets a user's attributes and starting deck. Once every user has
// built, the first turn begins.
func (e *Engine) Build(name string, attrs AttrArray, deck []uint32) Result {
	g := e.state
	u, ok := g.Users[name]
	if !ok {
		return reject("build from unknown user %s", name)
	}
	if u.ShouldBe() != protocol.SubBuild {
		return reject("user %s sent build during %s, expected %s",
			name, g.Phase, u.ShouldBe())
	}
	for _, id := range deck {
		if _, ok := e.catalog.Card(id); !ok {
			return reject("user %s deck references unknown card %d", name, id)
		}
	}
	u.TrySet(protocol.SubBuild)
	u.Player = &Player{Attrs: attrs, Deck: append([]uint32(nil), deck...)}

	if g.Phase != PhaseBuilding {
		// A mid-session joiner finished building; hand them the command the
		// turn underway expects.
		u.Expect(expectedCommand(g.Phase))
		return Result{Accepted: true, Message: "built"}
	}
	return Result{Accepted: true, Message: "built", Deltas: e.advanceIfComplete()}
}

// advanceIfComplete moves the session to the next phase once every joined
// user's last accepted command satisfies the current one, running the
// phase's resolution pass on the way out. Command handlers call it after
// accepting a command; a departure calls it too, because the leaver may have
// been the last straggler holding the phase open.
func (e *Engine) advanceIfComplete() []Delta {
	g := e.state
	if !g.AllUsersLast(expectedCommand(g.Phase)) {
		return nil
	}
	switch g.Phase {
	case PhaseBuilding:
		g.Turn = 1
		g.enterPhase(PhaseChooseIntent)
		log.Printf("engine: session %s entering turn 1", g.ID)
		return nil
	case PhaseChooseIntent:
		deltas := e.resolveIntents()
		g.enterPhase(PhaseChooseAttr)
		return deltas
	case PhaseChooseAttr:
		deltas := e.resolveMatchups()
		g.enterPhase(PhaseCardPlay)
		return deltas
	case PhaseCardPlay:
		g.enterPhase(PhaseTurnEnd)
		return nil
	case PhaseTurnEnd:
		deltas := e.endOfTurn()
		g.Turn++
		g.enterPhase(PhaseChooseIntent)
		log.Printf("engine: session %s entering turn %d", g.ID, g.Turn)
		return deltas
	default:
		return nil
	}
}

// ChooseIntent records a user's declared intent. Once every user has
// declared, all intents resolve in one pass and the attribute phase begins.
func (e *Engine) ChooseIntent(name string, intent Intent, target NodeID) Result {
	g := e.state
	u, ok := g.Users[name]
	if !ok {
		return reject("choose-intent from unknown user %s", name)
	}
	if u.ShouldBe() != protocol.SubChooseIntent {
		return reject("user %s sent choose-intent during %s, expected %s",
			name, g.Phase, u.ShouldBe())
	}
	if !intent.Valid() {
		return reject("user %s declared unknown intent %d", name, uint8(intent))
	}
	u.TrySet(protocol.SubChooseIntent)
	u.Intent = intent
	u.IntentTarget = target
	return Result{Accepted: true, Message: "intent recorded", Deltas: e.advanceIfComplete()}
}

// resolveIntents dispatches every user's declared intent in name order and
// collects the pushes each outcome requires.
func (e *Engine) resolveIntents() []Delta {
	g := e.state
	rc := &resolveCtx{
		mission: g.Mission,
		remotes: g.Remotes,
		catalog: e.catalog,
		tick:    g.Tick,
		rng:     e.rng,
	}
	var deltas []Delta
	for _, name := range e.sortedUserNames() {
		u := g.Users[name]
		switch resolveIntent(rc, u, u.Intent, u.IntentTarget) {
		case OutcomeNodeChanged:
			deltas = append(deltas, Delta{User: name, Mission: true})
		case OutcomeTokenChange:
			deltas = append(deltas, Delta{User: name, Tokens: true})
		case OutcomeDeckChange:
			deltas = append(deltas, Delta{User: name, Deck: true})
		}
	}
	return deltas
}

// ChooseAttr records the lane a user contests this turn. Once every user
// has chosen, matchups resolve and the card-play phase begins.
func (e *Engine) ChooseAttr(name string, attr uint8) Result {
	g := e.state
	u, ok := g.Users[name]
	if !ok {
		return reject("choose-attr from unknown user %s", name)
	}
	if u.ShouldBe() != protocol.SubChooseAttr {
		return reject("user %s sent choose-attr during %s, expected %s",
			name, g.Phase, u.ShouldBe())
	}
	if attr >= NumLanes {
		return reject("user %s chose unknown lane %d", name, attr)
	}
	u.TrySet(protocol.SubChooseAttr)
	u.Attr = attr
	return Result{Accepted: true, Message: "attribute recorded", Deltas: e.advanceIfComplete()}
}

// defaultRemoteAttrs stands in for nodes without a declared defender.
var defaultRemoteAttrs = AttrArray{1, 1, 1, 1}

// resolveMatchups rolls and settles one contest per built user against the
// defender of their current node. Gains go to the individual user only.
func (e *Engine) resolveMatchups() []Delta {
	g := e.state
	var deltas []Delta
	for _, name := range e.sortedUserNames() {
		u := g.Users[name]
		if u.Player == nil {
			continue
		}
		roll := RollErgs(e.rng)
		remoteAttrs := defaultRemoteAttrs
		remote := g.Remotes[u.Mission.Current]
		if remote != nil {
			remoteAttrs = remote.Attrs
		}
		remotePick := uint8(e.rng.Intn(NumLanes))

		localGain, remoteGain := ResolveMatchup(roll, u.Player.Attrs, remoteAttrs, u.Attr, remotePick)
		u.Ergs.Add(localGain)
		if remote != nil {
			remote.Ergs.Add(remoteGain)
		}
		gain := localGain
		deltas = append(deltas, Delta{User: name, Ergs: &gain})
	}
	return deltas
}

// PlayCard takes a card out of the user's deck and schedules it on their
// machine. Once every user has played, the turn-end phase begins.
func (e *Engine) PlayCard(name string, cardID uint32) Result {
	g := e.state
	u, ok := g.Users[name]
	if !ok {
		return reject("play-card from unknown user %s", name)
	}
	if u.ShouldBe() != protocol.SubPlayCard {
		return reject("user %s sent play-card during %s, expected %s",
			name, g.Phase, u.ShouldBe())
	}
	card, ok := e.catalog.Card(cardID)
	if !ok {
		return reject("user %s played unknown card %d", name, cardID)
	}
	if u.Player == nil || !u.Player.RemoveCard(cardID) {
		return reject("user %s does not hold card %d", name, cardID)
	}
	u.TrySet(protocol.SubPlayCard)
	u.Machine.Enqueue(card)
	return Result{Accepted: true, Message: "card scheduled", Deltas: e.advanceIfComplete()}
}

// EndTurn marks a user done. Once every user has ended, machines tick,
// expired tokens are pruned, and the next turn's intent phase begins.
func (e *Engine) EndTurn(name string) Result {
	g := e.state
	u, ok := g.Users[name]
	if !ok {
		return reject("end-turn from unknown user %s", name)
	}
	if u.ShouldBe() != protocol.SubEndTurn {
		return reject("user %s sent end-turn during %s, expected %s",
			name, g.Phase, u.ShouldBe())
	}
	u.TrySet(protocol.SubEndTurn)
	return Result{Accepted: true, Message: "turn ended", Deltas: e.advanceIfComplete()}
}

// endOfTurn advances the session clock: every machine ticks and every
// user's expired tokens are pruned.
func (e *Engine) endOfTurn() []Delta {
	g := e.state
	g.Tick++
	var deltas []Delta
	for _, name := range e.sortedUserNames() {
		u := g.Users[name]
		u.Machine.Tick()
		before := len(u.Mission.Tokens)
		u.Mission.Tokens = PruneTokens(u.Mission.Tokens, g.Tick)
		if len(u.Mission.Tokens) != before {
			deltas = append(deltas, Delta{User: name, Tokens: true})
		}
	}
	for _, r := range g.Remotes {
		r.Machine.Tick()
	}
	return deltas
}

// Authorize upgrades one of the user's credentials tokens to an
// authorization token. It is not phase-gated; a user may authenticate
// whenever they hold matching credentials.
func (e *Engine) Authorize(name string, level uint8) Result {
	g := e.state
	u, ok := g.Users[name]
	if !ok {
		return reject("authorize from unknown user %s", name)
	}
	u.Mission.Tokens = PruneTokens(u.Mission.Tokens, g.Tick)
	tokens, ok := Authenticate(u.Mission.Tokens, level, g.Tick+DefaultTokenTTL)
	u.Mission.Tokens = tokens
	if !ok {
		return reject("user %s holds no level %d credentials", name, level)
	}
	return Result{
		Accepted: true,
		Message:  "authorized",
		Deltas:   []Delta{{User: name, Tokens: true}},
	}
}

// TickMachines advances every machine scheduler without turning the phase
// cycle. It backs the internal tick command.
func (e *Engine) TickMachines() Result {
	g := e.state
	g.Tick++
	for _, name := range e.sortedUserNames() {
		u := g.Users[name]
		u.Machine.Tick()
		u.Mission.Tokens = PruneTokens(u.Mission.Tokens, g.Tick)
	}
	for _, r := range g.Remotes {
		r.Machine.Tick()
	}
	return Result{Accepted: true, Message: "ticked"}
}

// EndGameRequest removes a user from the session. The returned flag is true
// once the last user has left, at which point the session is dead and its
// owner should destroy it.
func (e *Engine) EndGameRequest(name string) (Result, bool) {
	g := e.state
	if _, ok := g.Users[name]; !ok {
		return reject("end-game from unknown user %s", name), false
	}
	delete(g.Users, name)
	log.Printf("engine: user %s left session %s", name, g.ID)
	if len(g.Users) == 0 {
		g.Phase = PhaseEnd
		return Result{Accepted: true, Message: "session ended"}, true
	}
	// The leaver may have been the only user the phase was still waiting on.
	return Result{Accepted: true, Message: "left session", Deltas: e.advanceIfComplete()}, false
}
