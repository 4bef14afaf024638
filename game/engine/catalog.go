package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	// ErrUnknownCard means a referenced card id is not in the catalog.
	ErrUnknownCard = errors.New("unknown card")
	// ErrInvalidCatalog means catalog validation failed.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// RemoteSpec describes the non-player actor defending a node.
type RemoteSpec struct {
	Attrs AttrArray      `json:"attrs"`
	Caps  [NumVitals]int `json:"caps"`
}

// NodeSpec is the loadable form of one mission node.
type NodeSpec struct {
	ID     uint32      `json:"id"`
	Kind   NodeKind    `json:"kind"`
	Flags  uint8       `json:"flags"`
	Links  []Link      `json:"links"`
	Remote *RemoteSpec `json:"remote,omitempty"`
}

// MissionSpec is the loadable form of one mission graph.
type MissionSpec struct {
	Name  string     `json:"name"`
	Entry uint32     `json:"entry"`
	Nodes []NodeSpec `json:"nodes"`
}

// Catalog holds the game data a session is instantiated from: the card pool
// and the mission graphs.
type Catalog struct {
	Cards    map[uint32]*Card `json:"cards"`
	Missions []*MissionSpec   `json:"missions"`
}

// Card looks up a card by id.
func (c *Catalog) Card(id uint32) (*Card, bool) {
	card, ok := c.Cards[id]
	return card, ok
}

// RandomCardID picks one card id uniformly. Iteration order is pinned by
// sorting so a seeded rng draws deterministically.
func (c *Catalog) RandomCardID(rng *rand.Rand) uint32 {
	ids := make([]uint32, 0, len(c.Cards))
	for id := range c.Cards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids[rng.Intn(len(ids))]
}

// BuildMission instantiates a mission graph and its node defenders from a
// spec.
func BuildMission(spec *MissionSpec) (*Mission, map[NodeID]*Remote) {
	m := &Mission{
		Name:  spec.Name,
		Entry: NodeID(spec.Entry),
		Nodes: make(map[NodeID]*Node, len(spec.Nodes)),
	}
	remotes := make(map[NodeID]*Remote)
	for _, ns := range spec.Nodes {
		id := NodeID(ns.ID)
		m.Nodes[id] = &Node{
			ID:    id,
			Kind:  ns.Kind,
			Flags: ns.Flags,
			Links: ns.Links,
		}
		if ns.Remote != nil {
			remotes[id] = &Remote{
				Node:    id,
				Attrs:   ns.Remote.Attrs,
				Machine: NewMachine(ns.Remote.Caps),
			}
		}
	}
	return m, remotes
}

// ValidateCatalog checks a catalog for structural problems: missing cards,
// dangling links, bad node kinds, absent entry nodes.
func ValidateCatalog(c *Catalog) error {
	if len(c.Cards) == 0 {
		return fmt.Errorf("%w: no cards", ErrInvalidCatalog)
	}
	for id, card := range c.Cards {
		if card.ID != id {
			return fmt.Errorf("%w: card %d keyed as %d", ErrInvalidCatalog, card.ID, id)
		}
		if card.Name == "" {
			return fmt.Errorf("%w: card %d has no name", ErrInvalidCatalog, id)
		}
		if card.Delay < 0 {
			return fmt.Errorf("%w: card %d has negative delay", ErrInvalidCatalog, id)
		}
		for _, ins := range append(append([]Instruction{}, card.Launch...), card.Run...) {
			if ins.Op > OpDrain {
				return fmt.Errorf("%w: card %d has unknown op %d", ErrInvalidCatalog, id, ins.Op)
			}
			if ins.Op != OpSetTTL && ins.Vital >= NumVitals {
				return fmt.Errorf("%w: card %d targets unknown vital %d", ErrInvalidCatalog, id, ins.Vital)
			}
		}
	}
	if len(c.Missions) == 0 {
		return fmt.Errorf("%w: no missions", ErrInvalidCatalog)
	}
	for _, spec := range c.Missions {
		if spec.Name == "" {
			return fmt.Errorf("%w: mission has no name", ErrInvalidCatalog)
		}
		ids := make(map[uint32]bool, len(spec.Nodes))
		for _, ns := range spec.Nodes {
			if ids[ns.ID] {
				return fmt.Errorf("%w: mission %q duplicates node %d", ErrInvalidCatalog, spec.Name, ns.ID)
			}
			ids[ns.ID] = true
			if !ns.Kind.Valid() {
				return fmt.Errorf("%w: mission %q node %d has unknown kind", ErrInvalidCatalog, spec.Name, ns.ID)
			}
		}
		if !ids[spec.Entry] {
			return fmt.Errorf("%w: mission %q entry node %d missing", ErrInvalidCatalog, spec.Name, spec.Entry)
		}
		for _, ns := range spec.Nodes {
			for _, l := range ns.Links {
				if !ids[uint32(l.To)] {
					return fmt.Errorf("%w: mission %q node %d links to missing node %d",
						ErrInvalidCatalog, spec.Name, ns.ID, l.To)
				}
			}
		}
	}
	return nil
}

// DefaultCatalog returns the built-in card pool and mission used by tests
// and by single-process development mode.
func DefaultCatalog() *Catalog {
	cards := []*Card{
		{
			ID: 1, Name: "sniffer", Delay: 0, Priority: 3,
			Launch: []Instruction{{Op: OpSetTTL, Amount: 3}},
			Run:    []Instruction{{Op: OpDrain, Vital: VitalThermal, Amount: 2}},
		},
		{
			ID: 2, Name: "icebreaker", Delay: 1, Priority: 5,
			Launch: []Instruction{
				{Op: OpSetTTL, Amount: 2},
				{Op: OpDrain, Vital: VitalFreeSpace, Amount: 4},
			},
			Run: []Instruction{{Op: OpDrain, Vital: VitalPorts, Amount: 1}},
		},
		{
			ID: 3, Name: "coolant flush", Delay: 0, Priority: 1,
			Launch: []Instruction{
				{Op: OpSetTTL, Amount: 2},
				{Op: OpRaise, Vital: VitalThermal, Amount: 10},
			},
			Run: []Instruction{{Op: OpRaise, Vital: VitalThermal, Amount: 5}},
		},
		{
			ID: 4, Name: "patch daemon", Delay: 2, Priority: 2,
			Launch: []Instruction{{Op: OpSetTTL, Amount: 4}},
			Run:    []Instruction{{Op: OpRaise, Vital: VitalHealth, Amount: 3}},
		},
	}
	byID := make(map[uint32]*Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	mission := &MissionSpec{
		Name:  "first contact",
		Entry: 1,
		Nodes: []NodeSpec{
			{ID: 1, Kind: NodeAccessPoint, Flags: FlagEntry, Links: []Link{
				{To: 2, MinLevel: 0},
				{To: 3, MinLevel: 1},
			}},
			{ID: 2, Kind: NodeFrontend, Links: []Link{
				{To: 1, MinLevel: 0},
				{To: 3, MinLevel: 1},
			}},
			{ID: 3, Kind: NodeBackend, Links: []Link{
				{To: 2, MinLevel: 0},
				{To: 4, MinLevel: 2},
			}, Remote: &RemoteSpec{
				Attrs: AttrArray{2, 3, 2, 1},
				Caps:  [NumVitals]int{40, 60, 80, 8},
			}},
			{ID: 4, Kind: NodeDatabase, Flags: FlagObjective | FlagHardened, Links: []Link{
				{To: 3, MinLevel: 0},
			}, Remote: &RemoteSpec{
				Attrs: AttrArray{3, 2, 4, 3},
				Caps:  [NumVitals]int{50, 70, 90, 10},
			}},
		},
	}

	return &Catalog{
		Cards:    byID,
		Missions: []*MissionSpec{mission},
	}
}
