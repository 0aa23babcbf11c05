package main

// StateDelta is emitted on every actual press/release transition.
type StateDelta struct {
	Key     int
	Pressed bool
}

// KeyStore holds the set of currently pressed keys.
// It is the single writer of that set; everything else
// observes it through Subscribe. Owned by the run loop
// goroutine, so no locking is needed.
type KeyStore struct {
	pressed [KEY_COUNT]bool
	count   int
	subs    []func(StateDelta)
}

func newKeyStore() *KeyStore {
	return &KeyStore{}
}

// Subscribe registers a callback invoked synchronously
// on every transition, in Apply order.
func (s *KeyStore) Subscribe(fn func(StateDelta)) {
	s.subs = append(s.subs, fn)
}

// Apply folds a normalized event into the pressed set.
// Pressing a pressed key or releasing a released one is a no-op.
func (s *KeyStore) Apply(ev KeyEvent) (StateDelta, bool) {
	if s.pressed[ev.Key] == ev.Down {
		return StateDelta{}, false
	}
	s.pressed[ev.Key] = ev.Down
	if ev.Down {
		s.count++
	} else {
		s.count--
	}
	delta := StateDelta{Key: ev.Key, Pressed: ev.Down}
	for _, fn := range s.subs {
		fn(delta)
	}
	return delta, true
}

// ReleaseAll releases every pressed key,
// used by the global pointer-up variant.
func (s *KeyStore) ReleaseAll() {
	for key, down := range s.pressed {
		if down {
			s.Apply(KeyEvent{Key: key, Down: false})
		}
	}
}

// Pressed reports whether a key is currently down.
func (s *KeyStore) Pressed(key int) bool {
	return s.pressed[key]
}

// PressedCount returns how many keys are down.
func (s *KeyStore) PressedCount() int {
	return s.count
}
