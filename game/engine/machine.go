package engine

import (
	"fmt"
	"sort"
)

// Vital indexes one of a machine's four bounded gauges.
type Vital uint8

const (
	VitalFreeSpace Vital = iota
	VitalThermal
	VitalHealth
	VitalPorts
	NumVitals
)

// String returns the vital name.
func (v Vital) String() string {
	switch v {
	case VitalFreeSpace:
		return "free_space"
	case VitalThermal:
		return "thermal"
	case VitalHealth:
		return "health"
	case VitalPorts:
		return "ports"
	default:
		return fmt.Sprintf("vital(%d)", uint8(v))
	}
}

// OpCode is one instruction operation a card can carry.
type OpCode uint8

const (
	// OpSetTTL sets the owning process's remaining time-to-live.
	OpSetTTL OpCode = iota
	// OpRaise raises a machine vital, saturating at its cap.
	OpRaise
	// OpDrain lowers a machine vital, saturating at zero.
	OpDrain
)

// Instruction is one step of a card's launch or run list.
type Instruction struct {
	Op     OpCode `json:"op"`
	Vital  Vital  `json:"vital,omitempty"`
	Amount int    `json:"amount"`
}

// Card is one playable program: where it slots into the launch queue, how it
// competes for run order, and what it does on launch and on every tick.
type Card struct {
	ID       uint32        `json:"id"`
	Name     string        `json:"name"`
	Delay    int           `json:"delay"`
	Priority int           `json:"priority"`
	Launch   []Instruction `json:"launch"`
	Run      []Instruction `json:"run"`
}

// Process is a card instance scheduled on one machine.
type Process struct {
	Card     *Card
	Priority int
	TTL      int

	// seq preserves insertion order for priority ties.
	seq uint64
}

// DefaultVitalCaps is the vital ceiling for a machine built without an
// explicit loadout.
var DefaultVitalCaps = [NumVitals]int{64, 90, 100, 12}

// Machine hosts one user's processes: a delay-ordered launch queue and the
// set of currently running processes.
type Machine struct {
	Vitals [NumVitals]int `json:"vitals"`
	Caps   [NumVitals]int `json:"caps"`

	// queue slots are popped one per tick; nil slots are delay padding.
	queue   []*Process
	running []*Process
	seq     uint64
}

// NewMachine builds a machine with every vital at its cap.
func NewMachine(caps [NumVitals]int) *Machine {
	return &Machine{Vitals: caps, Caps: caps}
}

// Terminated reports whether any vital sits at zero. It is derived from the
// vitals on every call, so healing a vital back above zero revives the
// machine with no extra bookkeeping.
func (m *Machine) Terminated() bool {
	for _, v := range m.Vitals {
		if v <= 0 {
			return true
		}
	}
	return false
}

// Adjust moves a vital by delta, saturating at zero and at the vital's cap.
func (m *Machine) Adjust(v Vital, delta int) {
	val := m.Vitals[v] + delta
	if val < 0 {
		val = 0
	}
	if val > m.Caps[v] {
		val = m.Caps[v]
	}
	m.Vitals[v] = val
}

// Enqueue schedules a card. The card's delay picks its launch queue slot:
// delay 0 is the next slot popped, delay n launches n ticks later. An
// occupied slot pushes the card to the next free one.
func (m *Machine) Enqueue(card *Card) {
	idx := card.Delay
	if idx < 0 {
		idx = 0
	}
	for idx >= len(m.queue) {
		m.queue = append(m.queue, nil)
	}
	for idx < len(m.queue) && m.queue[idx] != nil {
		idx++
	}
	if idx == len(m.queue) {
		m.queue = append(m.queue, nil)
	}
	m.seq++
	m.queue[idx] = &Process{
		Card:     card,
		Priority: card.Priority,
		TTL:      1,
		seq:      m.seq,
	}
}

// Tick advances the scheduler one step: launch the queue front, evict dead
// processes, re-sort by priority, and run everything still alive. A machine
// whose termination condition holds does nothing.
func (m *Machine) Tick() {
	if m.Terminated() {
		return
	}

	if len(m.queue) > 0 {
		p := m.queue[0]
		m.queue = m.queue[1:]
		if p != nil {
			for _, ins := range p.Card.Launch {
				m.apply(p, ins)
			}
			m.running = append(m.running, p)
		}
	}

	kept := m.running[:0]
	for _, p := range m.running {
		if p.TTL > 0 {
			kept = append(kept, p)
		}
	}
	m.running = kept

	// Stable by seq for equal priorities.
	sort.SliceStable(m.running, func(i, j int) bool {
		return m.running[i].Priority > m.running[j].Priority
	})

	for _, p := range m.running {
		for _, ins := range p.Card.Run {
			m.apply(p, ins)
		}
		p.TTL--
	}
}

func (m *Machine) apply(p *Process, ins Instruction) {
	switch ins.Op {
	case OpSetTTL:
		p.TTL = ins.Amount
	case OpRaise:
		m.Adjust(ins.Vital, ins.Amount)
	case OpDrain:
		m.Adjust(ins.Vital, -ins.Amount)
	}
}

// QueueLen returns the number of cards waiting to launch.
func (m *Machine) QueueLen() int {
	n := 0
	for _, p := range m.queue {
		if p != nil {
			n++
		}
	}
	return n
}

// Running returns the currently running processes in their run order.
func (m *Machine) Running() []*Process {
	return m.running
}
