package main

// geometry of the 88 key keyboard
// key 0 is A0, key 87 is C8

const KEY_COUNT = 88

const (
	keyGap = 0.1 // space between white keys, in white key widths

	whiteWidth  = 1.0
	whiteHeight = 1.0
	whiteDepth  = 5.5

	blackWidth  = 0.55
	blackHeight = 1.0
	blackDepth  = 3.3
	blackRaise  = 0.5 // black keys sit above the whites
)

// KeyAttributes describes one key of the keyboard.
// Computed once at startup and served to the frontend,
// which builds the scene from it (one createKey per index).
type KeyAttributes struct {
	Index int     `json:"i"`
	Black bool    `json:"b"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	D     float64 `json:"d"`
}

// black keys within an octave, counted from A
// (A# C# D# F# G#)
var blackSemis = [12]bool{
	1: true, 4: true, 6: true, 9: true, 11: true,
}

// horizontal nudge of black keys, indexed by i%12,
// so the groups of two and three sit like on a real piano
var blackShift = [12]float64{
	1: +0.1, 4: -0.1, 6: +0.1, 9: -0.15, 11: 0,
}

func isBlackKey(i int) bool {
	return blackSemis[i%12]
}

// whiteCountBefore returns how many white keys precede key i.
func whiteCountBefore(i int) int {
	whites := 0
	for k := 0; k < i; k++ {
		if !isBlackKey(k) {
			whites++
		}
	}
	return whites
}

// keyLayout maps a key index to its physical attributes.
// Pure. Callers must keep i within [0, KEY_COUNT).
func keyLayout(i int) KeyAttributes {
	whites := whiteCountBefore(i)
	if isBlackKey(i) {
		return KeyAttributes{
			Index: i,
			Black: true,
			X:     (float64(whites)-0.5)*(1+keyGap)*whiteWidth + blackShift[i%12],
			Y:     blackRaise,
			Z:     -(whiteDepth - blackDepth) / 2, // backs aligned
			W:     blackWidth,
			H:     blackHeight,
			D:     blackDepth,
		}
	}
	return KeyAttributes{
		Index: i,
		X:     float64(whites) * (1 + keyGap) * whiteWidth,
		W:     whiteWidth,
		H:     whiteHeight,
		D:     whiteDepth,
	}
}

// buildKeyboard materializes the layout of all keys.
func buildKeyboard() []KeyAttributes {
	keys := make([]KeyAttributes, KEY_COUNT)
	for i := range keys {
		keys[i] = keyLayout(i)
	}
	return keys
}
