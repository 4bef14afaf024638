package protocol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkwire-games/darkwire/wire"
)

// record is the shared shape of every wire message, used to drive the
// round-trip property across all record types at once.
type record interface {
	Size() int
	Encode(*wire.Buffer)
}

func TestMessageRoundTrip(t *testing.T) {
	session := uuid.MustParse("a2b4c6d8-1234-5678-9abc-def012345678")

	cases := []struct {
		name   string
		msg    record
		decode func(*wire.Buffer) (any, error)
	}{
		{"announce", Announce{Flavor: FlavorGateway}, func(b *wire.Buffer) (any, error) { return DecodeAnnounce(b) }},
		{"activate", Activate{Session: session, User: "wraith", AuthLevel: 2}, func(b *wire.Buffer) (any, error) { return DecodeActivate(b) }},
		{"build", Build{Session: session, User: "wraith", Attrs: [4]uint8{3, 1, 4, 2}, Deck: []uint32{10, 11, 12}}, func(b *wire.Buffer) (any, error) { return DecodeBuild(b) }},
		{"choose-intent", ChooseIntent{Session: session, User: "wraith", Intent: 5, Target: 9}, func(b *wire.Buffer) (any, error) { return DecodeChooseIntent(b) }},
		{"choose-attr", ChooseAttr{Session: session, User: "wraith", Attr: 1}, func(b *wire.Buffer) (any, error) { return DecodeChooseAttr(b) }},
		{"play-card", PlayCard{Session: session, User: "wraith", Card: 77}, func(b *wire.Buffer) (any, error) { return DecodePlayCard(b) }},
		{"end-turn", EndTurn{Session: session, User: "wraith"}, func(b *wire.Buffer) (any, error) { return DecodeEndTurn(b) }},
		{"authorize", Authorize{Session: session, User: "wraith", Level: 3}, func(b *wire.Buffer) (any, error) { return DecodeAuthorize(b) }},
		{"end-game", EndGame{Session: session, User: "wraith"}, func(b *wire.Buffer) (any, error) { return DecodeEndGame(b) }},
		{"tick", Tick{Session: session}, func(b *wire.Buffer) (any, error) { return DecodeTick(b) }},
		{"update-mission", UpdateMission{
			Current: 4,
			Known: []NodeView{
				{ID: 4, Kind: 0, Flags: 1, Links: []LinkView{{To: 5, MinLevel: 2}}},
				{ID: 5, Kind: 3, Flags: 0, Links: []LinkView{}},
			},
		}, func(b *wire.Buffer) (any, error) { return DecodeUpdateMission(b) }},
		{"update-tokens", UpdateTokens{
			Tokens: []TokenView{{Kind: 0, Level: 2, Expiry: 30}, {Kind: 1, Level: 1, Expiry: 12}},
		}, func(b *wire.Buffer) (any, error) { return DecodeUpdateTokens(b) }},
		{"update-deck", UpdateDeck{
			Cards: []uint32{10, 11, 10},
		}, func(b *wire.Buffer) (any, error) { return DecodeUpdateDeck(b) }},
		{"update-state", UpdateState{Session: session, Phase: 2, Turn: 9, Ergs: [4]uint32{1, 0, 5, 3}, Accepted: true, Message: "ok"}, func(b *wire.Buffer) (any, error) { return DecodeUpdateState(b) }},
		{"chat", Chat{From: "wraith", Text: "gg"}, func(b *wire.Buffer) (any, error) { return DecodeChat(b) }},
		{"dm", DM{From: "wraith", To: "cipher", Text: "run it"}, func(b *wire.Buffer) (any, error) { return DecodeDM(b) }},
		{"inventory-generate", InventoryGenerate{User: "wraith", Seed: 0xFEEDFACE}, func(b *wire.Buffer) (any, error) { return DecodeInventoryGenerate(b) }},
		{"inventory-list", InventoryList{User: "wraith"}, func(b *wire.Buffer) (any, error) { return DecodeInventoryList(b) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := wire.NewBuffer(tc.msg.Size())
			tc.msg.Encode(b)
			require.Equal(t, tc.msg.Size(), b.Len(), "declared size must match encoded size")

			got, err := tc.decode(b)
			require.NoError(t, err)
			assert.Equal(t, tc.msg, got)
			assert.Equal(t, 0, b.Remaining(), "decode must consume exactly the encoding")
		})
	}
}

func TestDecodeTruncatedRecord(t *testing.T) {
	full := Activate{Session: uuid.New(), User: "wraith", AuthLevel: 1}
	b := wire.NewBuffer(full.Size())
	full.Encode(b)

	// Every proper prefix of a valid encoding must fail with ErrTruncated,
	// never decode to a default value.
	enc := b.Bytes()
	for cut := 0; cut < len(enc); cut++ {
		_, err := DecodeActivate(wire.FromBytes(enc[:cut]))
		assert.ErrorIs(t, err, wire.ErrTruncated, "prefix of %d bytes", cut)
	}
}

func TestIDRoundTrip(t *testing.T) {
	id := uuid.New()
	b := wire.NewBuffer(wire.SizeID)
	PushID(b, id)

	got, err := PullID(b)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
