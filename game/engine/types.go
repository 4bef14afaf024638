package engine

import "fmt"

// Phase is one state of the session lifecycle. The running phases cycle
// ChooseIntent, ChooseAttr, CardPlay, TurnEnd until an explicit end-game
// forces End.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseBuilding
	PhaseChooseIntent
	PhaseChooseAttr
	PhaseCardPlay
	PhaseTurnEnd
	PhaseEnd
)

// String returns the phase name for logs.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBuilding:
		return "building"
	case PhaseChooseIntent:
		return "choose-intent"
	case PhaseChooseAttr:
		return "choose-attr"
	case PhaseCardPlay:
		return "card-play"
	case PhaseTurnEnd:
		return "turn-end"
	case PhaseEnd:
		return "end"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// next returns the phase that follows p in the fixed cycle.
func (p Phase) next() Phase {
	switch p {
	case PhaseIdle:
		return PhaseBuilding
	case PhaseBuilding:
		return PhaseChooseIntent
	case PhaseChooseIntent:
		return PhaseChooseAttr
	case PhaseChooseAttr:
		return PhaseCardPlay
	case PhaseCardPlay:
		return PhaseTurnEnd
	case PhaseTurnEnd:
		return PhaseChooseIntent
	default:
		return PhaseEnd
	}
}

// NumLanes is the number of attribute and resource lanes.
const NumLanes = 4

// AttrArray holds one attribute value per lane.
type AttrArray [NumLanes]uint8

// ErgArray holds one resource amount per lane.
type ErgArray [NumLanes]uint32

// Add accumulates another erg array lane by lane.
func (e *ErgArray) Add(other ErgArray) {
	for i := range e {
		e[i] += other[i]
	}
}
