package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkwire-games/darkwire/protocol"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(uuid.New(), DefaultCatalog(), 1)
}

// joinAndBuild activates the named users and completes the build phase.
func joinAndBuild(t *testing.T, e *Engine, names ...string) {
	t.Helper()
	for _, name := range names {
		require.True(t, e.Activate(name, 0).Accepted)
	}
	for _, name := range names {
		require.True(t, e.Build(name, AttrArray{2, 2, 2, 2}, []uint32{1, 3}).Accepted)
	}
	require.Equal(t, PhaseChooseIntent, e.State().Phase)
}

func TestFirstActivationStartsBuilding(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, PhaseIdle, e.State().Phase)

	res := e.Activate("nyx", 0)
	require.True(t, res.Accepted)
	assert.Equal(t, PhaseBuilding, e.State().Phase)

	u, ok := e.User("nyx")
	require.True(t, ok)
	assert.Equal(t, protocol.SubBuild, u.ShouldBe())
	assert.Equal(t, e.State().Mission.Entry, u.Mission.Current)
}

func TestPhaseAdvancesOnlyWhenAllUsersDone(t *testing.T) {
	e := newTestEngine(t)
	require.True(t, e.Activate("nyx", 0).Accepted)
	require.True(t, e.Activate("rook", 0).Accepted)

	require.True(t, e.Build("nyx", AttrArray{1, 1, 1, 1}, []uint32{1}).Accepted)
	assert.Equal(t, PhaseBuilding, e.State().Phase, "one build out of two holds the phase")

	require.True(t, e.Build("rook", AttrArray{1, 1, 1, 1}, []uint32{1}).Accepted)
	assert.Equal(t, PhaseChooseIntent, e.State().Phase)
	assert.Equal(t, uint32(1), e.State().Turn)
}

func TestTurnCycle(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx", "rook")

	// Both users probe the entry access point.
	require.True(t, e.ChooseIntent("nyx", IntentProbe, 0).Accepted)
	assert.Equal(t, PhaseChooseIntent, e.State().Phase)
	require.True(t, e.ChooseIntent("rook", IntentProbe, 0).Accepted)
	assert.Equal(t, PhaseChooseAttr, e.State().Phase)

	require.True(t, e.ChooseAttr("nyx", 0).Accepted)
	res := e.ChooseAttr("rook", 1)
	require.True(t, res.Accepted)
	assert.Equal(t, PhaseCardPlay, e.State().Phase)
	assert.Len(t, res.Deltas, 2, "matchup gains are pushed per user")
	for _, d := range res.Deltas {
		assert.NotNil(t, d.Ergs)
	}

	require.True(t, e.PlayCard("nyx", 1).Accepted)
	require.True(t, e.PlayCard("rook", 1).Accepted)
	assert.Equal(t, PhaseTurnEnd, e.State().Phase)

	require.True(t, e.EndTurn("nyx").Accepted)
	require.True(t, e.EndTurn("rook").Accepted)
	assert.Equal(t, PhaseChooseIntent, e.State().Phase, "the cycle wraps to the next turn")
	assert.Equal(t, uint32(2), e.State().Turn)
	assert.Equal(t, uint32(1), e.State().Tick)
}

func TestBuildDuringCardPlayRejected(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")
	require.True(t, e.ChooseIntent("nyx", IntentProbe, 0).Accepted)
	require.True(t, e.ChooseAttr("nyx", 0).Accepted)
	require.Equal(t, PhaseCardPlay, e.State().Phase)

	u, _ := e.User("nyx")
	before := *u.Player

	res := e.Build("nyx", AttrArray{9, 9, 9, 9}, []uint32{1})
	assert.False(t, res.Accepted)
	assert.Equal(t, PhaseCardPlay, e.State().Phase, "a rejected command never moves the phase")
	assert.Equal(t, before, *u.Player, "a rejected command never touches user state")
}

func TestOutOfTurnCommandRejected(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")

	res := e.ChooseAttr("nyx", 0)
	assert.False(t, res.Accepted, "choose-attr is not valid during choose-intent")

	// The user can still advance with the expected command.
	assert.True(t, e.ChooseIntent("nyx", IntentProbe, 0).Accepted)
}

func TestProbeDiscoversNeighbors(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")

	res := e.ChooseIntent("nyx", IntentProbe, 0)
	require.True(t, res.Accepted)

	u, _ := e.User("nyx")
	assert.True(t, u.Mission.Known[2])
	assert.True(t, u.Mission.Known[3])
	require.Len(t, res.Deltas, 1)
	assert.True(t, res.Deltas[0].Mission)
}

func TestConnectGatedByTokens(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")

	// Node 3 sits behind a level 1 link; a fresh user holds no tokens.
	res := e.ChooseIntent("nyx", IntentConnect, 3)
	require.True(t, res.Accepted, "the declaration is accepted even when resolution fails")

	u, _ := e.User("nyx")
	assert.Equal(t, NodeID(1), u.Mission.Current, "the gated move did not happen")
	assert.Empty(t, res.Deltas)
}

func TestConnectWithAuthorization(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")

	u, _ := e.User("nyx")
	u.Mission.Tokens = []Token{{Kind: TokenAuthorization, Level: 1, Expiry: 100}}

	res := e.ChooseIntent("nyx", IntentConnect, 3)
	require.True(t, res.Accepted)
	assert.Equal(t, NodeID(3), u.Mission.Current)
	require.Len(t, res.Deltas, 1)
	assert.True(t, res.Deltas[0].Mission)
}

func TestAuthorizeUpgradesCredentials(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")

	u, _ := e.User("nyx")
	u.Mission.Tokens = []Token{{Kind: TokenCredentials, Level: 2, Expiry: 100}}

	res := e.Authorize("nyx", 2)
	require.True(t, res.Accepted)
	require.Len(t, u.Mission.Tokens, 1)
	assert.Equal(t, TokenAuthorization, u.Mission.Tokens[0].Kind)
	assert.Equal(t, uint8(2), u.Mission.Tokens[0].Level)

	res = e.Authorize("nyx", 2)
	assert.False(t, res.Accepted, "the credentials grant was consumed")
}

func TestEndOfTurnPrunesTokens(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")

	u, _ := e.User("nyx")
	u.Mission.Tokens = []Token{
		{Kind: TokenAuthorization, Level: 1, Expiry: 0},
		{Kind: TokenAuthorization, Level: 2, Expiry: 100},
	}

	require.True(t, e.ChooseIntent("nyx", IntentProbe, 0).Accepted)
	require.True(t, e.ChooseAttr("nyx", 0).Accepted)
	require.True(t, e.PlayCard("nyx", 1).Accepted)
	res := e.EndTurn("nyx")
	require.True(t, res.Accepted)

	require.Len(t, u.Mission.Tokens, 1, "the expired token is pruned at end of turn")
	assert.Equal(t, uint8(2), u.Mission.Tokens[0].Level)
	require.Len(t, res.Deltas, 1)
	assert.True(t, res.Deltas[0].Tokens)
}

func TestPlayCardRequiresHolding(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")
	require.True(t, e.ChooseIntent("nyx", IntentProbe, 0).Accepted)
	require.True(t, e.ChooseAttr("nyx", 0).Accepted)

	res := e.PlayCard("nyx", 2)
	assert.False(t, res.Accepted, "card 2 is in the catalog but not in the deck")

	res = e.PlayCard("nyx", 1)
	require.True(t, res.Accepted)
	u, _ := e.User("nyx")
	assert.Equal(t, []uint32{3}, u.Player.Deck)
	assert.Equal(t, 1, u.Machine.QueueLen())
}

func TestLeaveCompletesPhaseForRemainingUsers(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx", "rook")

	require.True(t, e.ChooseIntent("nyx", IntentProbe, 0).Accepted)
	require.Equal(t, PhaseChooseIntent, e.State().Phase, "the phase waits for rook")

	res, empty := e.EndGameRequest("rook")
	require.True(t, res.Accepted)
	assert.False(t, empty)
	assert.Equal(t, PhaseChooseAttr, e.State().Phase,
		"the departure was the last thing the phase waited on")
	require.Len(t, res.Deltas, 1, "nyx's intent resolved on the way out")
	assert.True(t, res.Deltas[0].Mission)

	assert.True(t, e.ChooseAttr("nyx", 0).Accepted)
}

func TestLeaveDuringTurnEndAdvancesTurn(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx", "rook")

	for _, name := range []string{"nyx", "rook"} {
		require.True(t, e.ChooseIntent(name, IntentProbe, 0).Accepted)
	}
	for _, name := range []string{"nyx", "rook"} {
		require.True(t, e.ChooseAttr(name, 0).Accepted)
	}
	for _, name := range []string{"nyx", "rook"} {
		require.True(t, e.PlayCard(name, 1).Accepted)
	}
	require.True(t, e.EndTurn("nyx").Accepted)
	require.Equal(t, PhaseTurnEnd, e.State().Phase)

	res, empty := e.EndGameRequest("rook")
	require.True(t, res.Accepted)
	assert.False(t, empty)
	assert.Equal(t, PhaseChooseIntent, e.State().Phase)
	assert.Equal(t, uint32(2), e.State().Turn)
	assert.Equal(t, uint32(1), e.State().Tick, "machines ticked on the way out")
}

func TestMidSessionJoinerBuildsIntoTurn(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")
	require.True(t, e.ChooseIntent("nyx", IntentProbe, 0).Accepted)
	require.True(t, e.ChooseAttr("nyx", 0).Accepted)
	require.Equal(t, PhaseCardPlay, e.State().Phase)

	require.True(t, e.Activate("rook", 0).Accepted)
	u, ok := e.User("rook")
	require.True(t, ok)
	assert.Equal(t, protocol.SubBuild, u.ShouldBe(), "a mid-session joiner builds first")

	require.True(t, e.PlayCard("nyx", 1).Accepted)
	assert.Equal(t, PhaseCardPlay, e.State().Phase, "the phase waits for the joiner")

	require.True(t, e.Build("rook", AttrArray{2, 2, 2, 2}, []uint32{1, 3}).Accepted)
	assert.Equal(t, protocol.SubPlayCard, u.ShouldBe(),
		"the built joiner falls in with the phase underway")
	require.True(t, e.PlayCard("rook", 1).Accepted)
	assert.Equal(t, PhaseTurnEnd, e.State().Phase)
}

func TestEndGameDestroysOnLastLeave(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx", "rook")

	res, empty := e.EndGameRequest("nyx")
	require.True(t, res.Accepted)
	assert.False(t, empty)
	assert.NotEqual(t, PhaseEnd, e.State().Phase)

	res, empty = e.EndGameRequest("rook")
	require.True(t, res.Accepted)
	assert.True(t, empty)
	assert.Equal(t, PhaseEnd, e.State().Phase)

	assert.False(t, e.Activate("late", 0).Accepted, "an ended session takes no joiners")
}

func TestUnknownUserRejected(t *testing.T) {
	e := newTestEngine(t)
	joinAndBuild(t, e, "nyx")

	assert.False(t, e.Build("ghost", AttrArray{}, nil).Accepted)
	assert.False(t, e.ChooseIntent("ghost", IntentProbe, 0).Accepted)
	assert.False(t, e.EndTurn("ghost").Accepted)
	_, empty := e.EndGameRequest("ghost")
	assert.False(t, empty)
}
