package main

import (
	"sync"
	"testing"
	"time"
)

// fakeSurface records the calls the core makes on the rendering side.
// Safe for use from the run loop goroutine in tests.
type fakeSurface struct {
	mu     sync.Mutex
	tilts  map[int]float64
	colors map[int]int
	moves  int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{tilts: map[int]float64{}, colors: map[int]int{}}
}

func (f *fakeSurface) SetKeyTransform(key int, tilt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tilts[key] = tilt
	f.moves++
}

func (f *fakeSurface) SetKeyColor(key int, color int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.colors[key] = color
}

func (f *fakeSurface) tilt(key int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tilts[key]
}

func (f *fakeSurface) color(key int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.colors[key]
}

func TestAnimator_PressTween(t *testing.T) {
	surface := newFakeSurface()
	a := newAnimator(surface)
	start := time.Now()

	a.Start(StateDelta{Key: 39, Pressed: true}, start)
	if surface.color(39) != COLOR_PRESSED {
		t.Fatalf("color=%d, want pressed", surface.color(39))
	}
	if !a.ActiveFor(39) {
		t.Fatal("no tween in flight after Start")
	}

	a.Step(start.Add(tweenDuration / 2))
	mid := surface.tilt(39)
	if mid <= 0 || mid >= pressedTilt {
		t.Fatalf("midway tilt=%v, want between 0 and %v", mid, pressedTilt)
	}

	a.Step(start.Add(2 * tweenDuration))
	if got := surface.tilt(39); got != pressedTilt {
		t.Fatalf("final tilt=%v, want %v", got, pressedTilt)
	}
	if a.Active() != 0 {
		t.Fatalf("%d tweens alive after completion", a.Active())
	}
}

// a release arriving mid-press must cancel the press tween
// and leave exactly one tween for the key
func TestAnimator_SupersedeCancelsInFlight(t *testing.T) {
	surface := newFakeSurface()
	a := newAnimator(surface)
	start := time.Now()

	a.Start(StateDelta{Key: 10, Pressed: true}, start)
	a.Step(start.Add(tweenDuration / 3))
	partial := surface.tilt(10)

	a.Start(StateDelta{Key: 10, Pressed: false}, start.Add(tweenDuration/3))
	if a.Active() != 1 {
		t.Fatalf("%d tweens alive, want exactly 1", a.Active())
	}
	if surface.color(10) != COLOR_BASE {
		t.Fatalf("color=%d, want base", surface.color(10))
	}

	// the release tween resumes from where the press got to
	tw := a.tweens[10]
	if tw.from != partial || tw.to != 0 {
		t.Fatalf("tween from=%v to=%v, want from=%v to=0", tw.from, tw.to, partial)
	}

	a.Step(start.Add(time.Second))
	if got := surface.tilt(10); got != 0 {
		t.Fatalf("final tilt=%v, want 0", got)
	}
}

func TestAnimator_NoTweenWhenAlreadyAtTarget(t *testing.T) {
	a := newAnimator(newFakeSurface())
	a.Start(StateDelta{Key: 3, Pressed: false}, time.Now())
	if a.Active() != 0 {
		t.Fatal("release of a resting key started a tween")
	}
}

func TestAnimator_CancelAll(t *testing.T) {
	surface := newFakeSurface()
	a := newAnimator(surface)
	now := time.Now()
	a.Start(StateDelta{Key: 1, Pressed: true}, now)
	a.Start(StateDelta{Key: 2, Pressed: true}, now)

	a.CancelAll()
	if a.Active() != 0 {
		t.Fatalf("%d tweens alive after CancelAll", a.Active())
	}
	before := surface.moves
	a.Step(now.Add(time.Second))
	if surface.moves != before {
		t.Fatal("canceled tween still produced frames")
	}
}
