package protocol

import (
	"github.com/google/uuid"

	"github.com/darkwire-games/darkwire/wire"
)

// Record is any wire record: it knows its exact encoded size and appends
// its canonical encoding to a buffer.
type Record interface {
	Size() int
	Encode(b *wire.Buffer)
}

// PushID appends a 128-bit session id as 16 raw bytes.
func PushID(b *wire.Buffer, id uuid.UUID) {
	b.PushRaw(id[:])
}

// PullID decodes a 128-bit session id.
func PullID(b *wire.Buffer) (uuid.UUID, error) {
	p, err := b.PullRaw(wire.SizeID)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	copy(id[:], p)
	return id, nil
}

// Announce is sent once by every client driver after connecting, declaring
// the connection's flavor to the router.
type Announce struct {
	Flavor Flavor
}

// Size returns the encoded size in bytes.
func (m Announce) Size() int { return wire.SizeU8 }

// Encode appends the record's canonical encoding.
func (m Announce) Encode(b *wire.Buffer) {
	b.PushU8(uint8(m.Flavor))
}

// DecodeAnnounce reads an Announce record.
func DecodeAnnounce(b *wire.Buffer) (Announce, error) {
	fl, err := b.PullU8()
	if err != nil {
		return Announce{}, err
	}
	return Announce{Flavor: Flavor(fl)}, nil
}

// Activate requests joining a session. A zero session id asks the engine to
// create a fresh session with a random non-zero id.
type Activate struct {
	Session   uuid.UUID
	User      string
	AuthLevel uint8
}

func (m Activate) Size() int {
	return wire.SizeID + wire.StringSize(m.User) + wire.SizeU8
}

func (m Activate) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
	b.PushU8(m.AuthLevel)
}

// DecodeActivate reads an Activate record.
func DecodeActivate(b *wire.Buffer) (Activate, error) {
	var m Activate
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	if m.AuthLevel, err = b.PullU8(); err != nil {
		return m, err
	}
	return m, nil
}

// Build submits a user's chosen attribute spread and starting deck, ending
// that user's part of the build phase.
type Build struct {
	Session uuid.UUID
	User    string
	Attrs   [4]uint8
	Deck    []uint32
}

func (m Build) Size() int {
	return wire.SizeID + wire.StringSize(m.User) + 4*wire.SizeU8 +
		wire.SizeU32 + len(m.Deck)*wire.SizeU32
}

func (m Build) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
	for _, a := range m.Attrs {
		b.PushU8(a)
	}
	b.PushU32(uint32(len(m.Deck)))
	for _, c := range m.Deck {
		b.PushU32(c)
	}
}

// DecodeBuild reads a Build record.
func DecodeBuild(b *wire.Buffer) (Build, error) {
	var m Build
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	for i := range m.Attrs {
		if m.Attrs[i], err = b.PullU8(); err != nil {
			return m, err
		}
	}
	n, err := b.PullU32()
	if err != nil {
		return m, err
	}
	m.Deck = make([]uint32, n)
	for i := range m.Deck {
		if m.Deck[i], err = b.PullU32(); err != nil {
			return m, err
		}
	}
	return m, nil
}

// ChooseIntent declares what a user wants to attempt at their current
// mission node this turn. Target names the destination node for movement
// intents and is zero otherwise.
type ChooseIntent struct {
	Session uuid.UUID
	User    string
	Intent  uint8
	Target  uint32
}

func (m ChooseIntent) Size() int {
	return wire.SizeID + wire.StringSize(m.User) + wire.SizeU8 + wire.SizeU32
}

func (m ChooseIntent) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
	b.PushU8(m.Intent)
	b.PushU32(m.Target)
}

// DecodeChooseIntent reads a ChooseIntent record.
func DecodeChooseIntent(b *wire.Buffer) (ChooseIntent, error) {
	var m ChooseIntent
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	if m.Intent, err = b.PullU8(); err != nil {
		return m, err
	}
	if m.Target, err = b.PullU32(); err != nil {
		return m, err
	}
	return m, nil
}

// ChooseAttr selects the attribute lane a user contests this turn.
type ChooseAttr struct {
	Session uuid.UUID
	User    string
	Attr    uint8
}

func (m ChooseAttr) Size() int {
	return wire.SizeID + wire.StringSize(m.User) + wire.SizeU8
}

func (m ChooseAttr) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
	b.PushU8(m.Attr)
}

// DecodeChooseAttr reads a ChooseAttr record.
func DecodeChooseAttr(b *wire.Buffer) (ChooseAttr, error) {
	var m ChooseAttr
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	if m.Attr, err = b.PullU8(); err != nil {
		return m, err
	}
	return m, nil
}

// PlayCard schedules a card from the user's deck onto their machine.
type PlayCard struct {
	Session uuid.UUID
	User    string
	Card    uint32
}

func (m PlayCard) Size() int {
	return wire.SizeID + wire.StringSize(m.User) + wire.SizeU32
}

func (m PlayCard) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
	b.PushU32(m.Card)
}

// DecodePlayCard reads a PlayCard record.
func DecodePlayCard(b *wire.Buffer) (PlayCard, error) {
	var m PlayCard
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	if m.Card, err = b.PullU32(); err != nil {
		return m, err
	}
	return m, nil
}

// EndTurn marks a user done with the card-play phase.
type EndTurn struct {
	Session uuid.UUID
	User    string
}

func (m EndTurn) Size() int {
	return wire.SizeID + wire.StringSize(m.User)
}

func (m EndTurn) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
}

// DecodeEndTurn reads an EndTurn record.
func DecodeEndTurn(b *wire.Buffer) (EndTurn, error) {
	var m EndTurn
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	return m, nil
}

// Authorize asks the engine to consume a credentials token of the given
// level and replace it with an authorization token.
type Authorize struct {
	Session uuid.UUID
	User    string
	Level   uint8
}

func (m Authorize) Size() int {
	return wire.SizeID + wire.StringSize(m.User) + wire.SizeU8
}

func (m Authorize) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
	b.PushU8(m.Level)
}

// DecodeAuthorize reads an Authorize record.
func DecodeAuthorize(b *wire.Buffer) (Authorize, error) {
	var m Authorize
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	if m.Level, err = b.PullU8(); err != nil {
		return m, err
	}
	return m, nil
}

// EndGame requests session teardown. The session is destroyed only when its
// last user has left.
type EndGame struct {
	Session uuid.UUID
	User    string
}

func (m EndGame) Size() int {
	return wire.SizeID + wire.StringSize(m.User)
}

func (m EndGame) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushString(m.User)
}

// DecodeEndGame reads an EndGame record.
func DecodeEndGame(b *wire.Buffer) (EndGame, error) {
	var m EndGame
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	return m, nil
}

// Tick advances every machine scheduler in the session by one tick.
type Tick struct {
	Session uuid.UUID
}

func (m Tick) Size() int { return wire.SizeID }

func (m Tick) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
}

// DecodeTick reads a Tick record.
func DecodeTick(b *wire.Buffer) (Tick, error) {
	id, err := PullID(b)
	if err != nil {
		return Tick{}, err
	}
	return Tick{Session: id}, nil
}

// LinkView is one outgoing mission link as pushed to clients.
type LinkView struct {
	To       uint32
	MinLevel uint8
}

// NodeView is one known mission node as pushed to clients.
type NodeView struct {
	ID    uint32
	Kind  uint8
	Flags uint8
	Links []LinkView
}

// UpdateMission pushes a user's current mission knowledge: the node they
// occupy and every node they have discovered.
type UpdateMission struct {
	Current uint32
	Known   []NodeView
}

func (m UpdateMission) Size() int {
	n := wire.SizeU32 + wire.SizeU32
	for _, node := range m.Known {
		n += wire.SizeU32 + wire.SizeU8 + wire.SizeU8 + wire.SizeU32 +
			len(node.Links)*(wire.SizeU32+wire.SizeU8)
	}
	return n
}

func (m UpdateMission) Encode(b *wire.Buffer) {
	b.PushU32(m.Current)
	b.PushU32(uint32(len(m.Known)))
	for _, node := range m.Known {
		b.PushU32(node.ID)
		b.PushU8(node.Kind)
		b.PushU8(node.Flags)
		b.PushU32(uint32(len(node.Links)))
		for _, l := range node.Links {
			b.PushU32(l.To)
			b.PushU8(l.MinLevel)
		}
	}
}

// DecodeUpdateMission reads an UpdateMission record.
func DecodeUpdateMission(b *wire.Buffer) (UpdateMission, error) {
	var m UpdateMission
	var err error
	if m.Current, err = b.PullU32(); err != nil {
		return m, err
	}
	count, err := b.PullU32()
	if err != nil {
		return m, err
	}
	m.Known = make([]NodeView, count)
	for i := range m.Known {
		node := &m.Known[i]
		if node.ID, err = b.PullU32(); err != nil {
			return m, err
		}
		if node.Kind, err = b.PullU8(); err != nil {
			return m, err
		}
		if node.Flags, err = b.PullU8(); err != nil {
			return m, err
		}
		links, err := b.PullU32()
		if err != nil {
			return m, err
		}
		node.Links = make([]LinkView, links)
		for j := range node.Links {
			if node.Links[j].To, err = b.PullU32(); err != nil {
				return m, err
			}
			if node.Links[j].MinLevel, err = b.PullU8(); err != nil {
				return m, err
			}
		}
	}
	return m, nil
}

// TokenView is one authorization grant as pushed to clients.
type TokenView struct {
	Kind   uint8
	Level  uint8
	Expiry uint32
}

// UpdateTokens pushes a user's full token list after a token change.
type UpdateTokens struct {
	Tokens []TokenView
}

func (m UpdateTokens) Size() int {
	return wire.SizeU32 + len(m.Tokens)*(wire.SizeU8+wire.SizeU8+wire.SizeU32)
}

func (m UpdateTokens) Encode(b *wire.Buffer) {
	b.PushU32(uint32(len(m.Tokens)))
	for _, t := range m.Tokens {
		b.PushU8(t.Kind)
		b.PushU8(t.Level)
		b.PushU32(t.Expiry)
	}
}

// DecodeUpdateTokens reads an UpdateTokens record.
func DecodeUpdateTokens(b *wire.Buffer) (UpdateTokens, error) {
	count, err := b.PullU32()
	if err != nil {
		return UpdateTokens{}, err
	}
	m := UpdateTokens{Tokens: make([]TokenView, count)}
	for i := range m.Tokens {
		t := &m.Tokens[i]
		if t.Kind, err = b.PullU8(); err != nil {
			return m, err
		}
		if t.Level, err = b.PullU8(); err != nil {
			return m, err
		}
		if t.Expiry, err = b.PullU32(); err != nil {
			return m, err
		}
	}
	return m, nil
}

// UpdateDeck pushes a user's full remaining deck after a resolver changed
// its contents.
type UpdateDeck struct {
	Cards []uint32
}

func (m UpdateDeck) Size() int {
	return wire.SizeU32 + len(m.Cards)*wire.SizeU32
}

func (m UpdateDeck) Encode(b *wire.Buffer) {
	b.PushU32(uint32(len(m.Cards)))
	for _, c := range m.Cards {
		b.PushU32(c)
	}
}

// DecodeUpdateDeck reads an UpdateDeck record.
func DecodeUpdateDeck(b *wire.Buffer) (UpdateDeck, error) {
	count, err := b.PullU32()
	if err != nil {
		return UpdateDeck{}, err
	}
	m := UpdateDeck{Cards: make([]uint32, count)}
	for i := range m.Cards {
		if m.Cards[i], err = b.PullU32(); err != nil {
			return m, err
		}
	}
	return m, nil
}

// UpdateState pushes a session-level state delta: the session id (so a
// joiner learns an auto-assigned id), the current phase and turn, the
// receiving user's resource gains from the latest matchup, whether their
// last command was accepted, and a human-readable message.
type UpdateState struct {
	Session  uuid.UUID
	Phase    uint8
	Turn     uint32
	Ergs     [4]uint32
	Accepted bool
	Message  string
}

func (m UpdateState) Size() int {
	return wire.SizeID + wire.SizeU8 + wire.SizeU32 + 4*wire.SizeU32 +
		wire.SizeBool + wire.StringSize(m.Message)
}

func (m UpdateState) Encode(b *wire.Buffer) {
	PushID(b, m.Session)
	b.PushU8(m.Phase)
	b.PushU32(m.Turn)
	for _, e := range m.Ergs {
		b.PushU32(e)
	}
	b.PushBool(m.Accepted)
	b.PushString(m.Message)
}

// DecodeUpdateState reads an UpdateState record.
func DecodeUpdateState(b *wire.Buffer) (UpdateState, error) {
	var m UpdateState
	var err error
	if m.Session, err = PullID(b); err != nil {
		return m, err
	}
	if m.Phase, err = b.PullU8(); err != nil {
		return m, err
	}
	if m.Turn, err = b.PullU32(); err != nil {
		return m, err
	}
	for i := range m.Ergs {
		if m.Ergs[i], err = b.PullU32(); err != nil {
			return m, err
		}
	}
	if m.Accepted, err = b.PullBool(); err != nil {
		return m, err
	}
	if m.Message, err = b.PullString(); err != nil {
		return m, err
	}
	return m, nil
}

// Chat is a broadcast chat line relayed through the chat service.
type Chat struct {
	From string
	Text string
}

func (m Chat) Size() int {
	return wire.StringSize(m.From) + wire.StringSize(m.Text)
}

func (m Chat) Encode(b *wire.Buffer) {
	b.PushString(m.From)
	b.PushString(m.Text)
}

// DecodeChat reads a Chat record.
func DecodeChat(b *wire.Buffer) (Chat, error) {
	var m Chat
	var err error
	if m.From, err = b.PullString(); err != nil {
		return m, err
	}
	if m.Text, err = b.PullString(); err != nil {
		return m, err
	}
	return m, nil
}

// DM is a direct message relayed through the chat service.
type DM struct {
	From string
	To   string
	Text string
}

func (m DM) Size() int {
	return wire.StringSize(m.From) + wire.StringSize(m.To) + wire.StringSize(m.Text)
}

func (m DM) Encode(b *wire.Buffer) {
	b.PushString(m.From)
	b.PushString(m.To)
	b.PushString(m.Text)
}

// DecodeDM reads a DM record.
func DecodeDM(b *wire.Buffer) (DM, error) {
	var m DM
	var err error
	if m.From, err = b.PullString(); err != nil {
		return m, err
	}
	if m.To, err = b.PullString(); err != nil {
		return m, err
	}
	if m.Text, err = b.PullString(); err != nil {
		return m, err
	}
	return m, nil
}

// InventoryGenerate asks the inventory service to roll a fresh inventory for
// a user from a seed.
type InventoryGenerate struct {
	User string
	Seed uint64
}

func (m InventoryGenerate) Size() int {
	return wire.StringSize(m.User) + wire.SizeU64
}

func (m InventoryGenerate) Encode(b *wire.Buffer) {
	b.PushString(m.User)
	b.PushU64(m.Seed)
}

// DecodeInventoryGenerate reads an InventoryGenerate record.
func DecodeInventoryGenerate(b *wire.Buffer) (InventoryGenerate, error) {
	var m InventoryGenerate
	var err error
	if m.User, err = b.PullString(); err != nil {
		return m, err
	}
	if m.Seed, err = b.PullU64(); err != nil {
		return m, err
	}
	return m, nil
}

// InventoryList asks the inventory service for a user's current holdings.
type InventoryList struct {
	User string
}

func (m InventoryList) Size() int {
	return wire.StringSize(m.User)
}

func (m InventoryList) Encode(b *wire.Buffer) {
	b.PushString(m.User)
}

// DecodeInventoryList reads an InventoryList record.
func DecodeInventoryList(b *wire.Buffer) (InventoryList, error) {
	u, err := b.PullString()
	if err != nil {
		return InventoryList{}, err
	}
	return InventoryList{User: u}, nil
}
