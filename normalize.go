package main

import (
	"time"

	"go.uber.org/zap"
)

const NOTE_A0 = 21 // midi value of the lowest piano key
const NOTE_C8 = 108

// raw midi status high nibbles
const (
	MIDI_NOTE_OFF = 0x80
	MIDI_NOTE_ON  = 0x90
)

// how soon after an accepted midi event another one for the
// same key is considered a firmware retrigger and dropped
const debounceWindow = 10 * time.Millisecond

// KeyEvent is a normalized input event,
// the only thing the store ever consumes.
type KeyEvent struct {
	Key  int
	Down bool
}

// RawMessage is a midi message as it arrived from a port.
type RawMessage struct {
	Data []byte
	At   time.Time
}

// 0..1 to 0..127
func toVal(x float64) byte {
	return byte(x * 127)
}

// 0..127 to 0..1
func fromVal(val byte) float64 {
	return float64(val) / 127
}

// Normalizer converts pointer and midi input into KeyEvents.
// Not safe for concurrent use; it belongs to the run loop.
type Normalizer struct {
	lastMidi [KEY_COUNT]time.Time // last accepted midi event per key
	log      *zap.SugaredLogger
}

func newNormalizer(log *zap.SugaredLogger) *Normalizer {
	return &Normalizer{log: log}
}

// Pointer normalizes a pointer down/up on a key.
// Out of range indices are ignored. Pointer input is not debounced.
func (n *Normalizer) Pointer(key int, down bool) (KeyEvent, bool) {
	if key < 0 || key >= KEY_COUNT {
		n.log.Debugw("pointer event out of range", "key", key)
		return KeyEvent{}, false
	}
	return KeyEvent{Key: key, Down: down}, true
}

// MIDI normalizes a raw midi message.
// Note on with zero velocity counts as note off.
// Malformed or out of range messages are dropped, never fatal.
func (n *Normalizer) MIDI(msg RawMessage) (KeyEvent, bool) {
	if len(msg.Data) != 3 {
		n.log.Debugw("malformed midi message", "len", len(msg.Data))
		return KeyEvent{}, false
	}
	status, note, velocity := msg.Data[0], msg.Data[1], msg.Data[2]
	if status >= 0xF0 { // realtime / system common
		return KeyEvent{}, false
	}
	var down bool
	switch status & 0xF0 { // channel nibble does not matter here
	case MIDI_NOTE_ON:
		down = velocity > 0
	case MIDI_NOTE_OFF:
		down = false
	default:
		return KeyEvent{}, false
	}
	key := int(note) - NOTE_A0
	if key < 0 || key >= KEY_COUNT {
		n.log.Debugw("note out of keyboard range", "note", note)
		return KeyEvent{}, false
	}
	if !n.lastMidi[key].IsZero() && msg.At.Sub(n.lastMidi[key]) < debounceWindow {
		n.log.Debugw("midi retrigger dropped", "key", key)
		return KeyEvent{}, false
	}
	n.lastMidi[key] = msg.At
	return KeyEvent{Key: key, Down: down}, true
}
