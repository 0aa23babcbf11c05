package main

import "time"

const (
	FPS = 50 // animation frames sent per second while keys move

	pressedTilt   = 0.05 // target key rotation in radians when pressed
	tweenDuration = 90 * time.Millisecond
)

// color ids understood by the frontend
const (
	COLOR_BASE = iota
	COLOR_PRESSED
)

// Surface is what the core needs from the rendering side:
// move a key, recolor a key. The websocket hub implements it
// by broadcasting to connected browsers.
type Surface interface {
	SetKeyTransform(key int, tilt float64)
	SetKeyColor(key int, color int)
}

// tween interpolates one key's tilt toward a target angle.
type tween struct {
	from, to float64
	start    time.Time
}

// Animator drives key tilt animations.
// At most one tween lives per key; starting a new one for a key
// replaces (cancels) the previous before it can finish.
// Owned by the run loop goroutine.
type Animator struct {
	tweens  map[int]tween
	tilts   [KEY_COUNT]float64 // current angle of every key
	surface Surface
}

func newAnimator(surface Surface) *Animator {
	return &Animator{
		tweens:  make(map[int]tween, KEY_COUNT),
		surface: surface,
	}
}

// Start reacts to a state transition: recolors the key and begins
// a tween from the key's current angle, superseding any in-flight
// tween for that key.
func (a *Animator) Start(delta StateDelta, now time.Time) {
	target := 0.0
	color := COLOR_BASE
	if delta.Pressed {
		target = pressedTilt
		color = COLOR_PRESSED
	}
	a.surface.SetKeyColor(delta.Key, color)
	delete(a.tweens, delta.Key) // cancel before replace
	if a.tilts[delta.Key] == target {
		return
	}
	a.tweens[delta.Key] = tween{
		from:  a.tilts[delta.Key],
		to:    target,
		start: now,
	}
}

// Step advances all tweens to the given time and pushes the
// resulting transforms. Finished tweens snap to their target
// and are removed.
func (a *Animator) Step(now time.Time) {
	for key, tw := range a.tweens {
		t := float64(now.Sub(tw.start)) / float64(tweenDuration)
		if t >= 1 {
			a.tilts[key] = tw.to
			delete(a.tweens, key)
		} else if t > 0 {
			a.tilts[key] = tw.from + (tw.to-tw.from)*t
		}
		a.surface.SetKeyTransform(key, a.tilts[key])
	}
}

// Active returns the number of in-flight tweens.
func (a *Animator) Active() int {
	return len(a.tweens)
}

// ActiveFor reports whether a tween is in flight for the key.
func (a *Animator) ActiveFor(key int) bool {
	_, ok := a.tweens[key]
	return ok
}

// CancelAll drops every in-flight tween without completing it.
// Called on teardown so no late frame touches a dead surface.
func (a *Animator) CancelAll() {
	for key := range a.tweens {
		delete(a.tweens, key)
	}
}
