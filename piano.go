package main

import (
	"time"

	"go.uber.org/zap"
)

// Piano is the key-state core. One goroutine (Run) owns the
// normalizer, the store and the animator; midi listeners and
// websocket readers only feed its channels. That makes the
// pressed set single-writer without any locking.
type Piano struct {
	norm  *Normalizer
	store *KeyStore
	anim  *Animator

	midiIn    chan RawMessage
	pointerIn chan PointerEvent
	session   *Session

	globalRelease bool // any pointer-up releases all keys
	now           time.Time
	quit          chan struct{}
	stopped       chan struct{}
}

func newPiano(surface Surface, pointerIn chan PointerEvent, globalRelease bool, log *zap.SugaredLogger) *Piano {
	p := &Piano{
		norm:          newNormalizer(log),
		store:         newKeyStore(),
		anim:          newAnimator(surface),
		midiIn:        make(chan RawMessage, 128),
		pointerIn:     pointerIn,
		globalRelease: globalRelease,
		quit:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	p.session = newSession(p.midiIn, log)
	p.store.Subscribe(func(delta StateDelta) {
		p.anim.Start(delta, p.now)
	})
	return p
}

// Run starts the midi session and processes events until Shutdown.
// Blocking; run in a goroutine.
func (p *Piano) Run() {
	defer close(p.stopped)

	p.session.Start()

	ticker := time.NewTicker(time.Second / FPS)
	defer ticker.Stop()

	for {
		select {
		case msg := <-p.midiIn:
			if ev, ok := p.norm.MIDI(msg); ok {
				p.applyAt(ev, msg.At)
			}

		case pe := <-p.pointerIn:
			if pe.All {
				if p.globalRelease {
					p.now = time.Now()
					p.store.ReleaseAll()
				}
				continue
			}
			if ev, ok := p.norm.Pointer(pe.Key, pe.Down); ok {
				p.applyAt(ev, time.Now())
			}

		case now := <-ticker.C:
			p.anim.Step(now)

		case <-p.quit:
			// order matters: first no new input, then no late frames
			p.session.Close()
			p.anim.CancelAll()
			return
		}
	}
}

func (p *Piano) applyAt(ev KeyEvent, now time.Time) {
	p.now = now
	p.store.Apply(ev)
}

// Shutdown stops the run loop and waits for teardown to finish.
// Safe even while the midi access request is still pending.
func (p *Piano) Shutdown() {
	close(p.quit)
	<-p.stopped
}
