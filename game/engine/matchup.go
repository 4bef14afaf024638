package engine

import "math/rand"

// ErgRollMax bounds each lane's roll, inclusive.
const ErgRollMax = 6

// RollErgs rolls one value in [1, ErgRollMax] per lane.
func RollErgs(rng *rand.Rand) ErgArray {
	var roll ErgArray
	for i := range roll {
		roll[i] = uint32(rng.Intn(ErgRollMax) + 1)
	}
	return roll
}

// ResolveMatchup resolves one contest between a user and a node defender.
// Each side accrues, per lane, the roll scaled by its own attribute; the
// lane a side picked counts double for it. The function is pure: identical
// inputs always produce identical gains for both sides.
func ResolveMatchup(roll ErgArray, local, remote AttrArray, localPick, remotePick uint8) (ErgArray, ErgArray) {
	var localGain, remoteGain ErgArray
	for i := 0; i < NumLanes; i++ {
		localGain[i] = roll[i] * uint32(local[i])
		if uint8(i) == localPick {
			localGain[i] *= 2
		}
		remoteGain[i] = roll[i] * uint32(remote[i])
		if uint8(i) == remotePick {
			remoteGain[i] *= 2
		}
	}
	return localGain, remoteGain
}
