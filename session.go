package main

import (
	"sync"
	"time"

	"gitlab.com/gomidi/midi"
	driver "gitlab.com/gomidi/rtmididrv"
	"go.uber.org/zap"
)

// how often to rescan ports; rtmidi has no hot-plug callback
const defaultPollEvery = time.Second

// midiDriver is the slice of the rtmidi driver the session uses,
// kept as an interface so tests can supply fake ports.
type midiDriver interface {
	Ins() ([]midi.In, error)
	Close() error
}

func openRtmidi() (midiDriver, error) {
	return driver.New()
}

// Session owns the midi device connection: driver acquisition,
// one listener per input port, hot-plug attach/detach, teardown.
// Raw messages from every subscribed port are funneled into out.
type Session struct {
	out chan<- RawMessage
	log *zap.SugaredLogger

	openDriver func() (midiDriver, error)
	pollEvery  time.Duration

	mu     sync.Mutex
	drv    midiDriver
	ports  map[string]midi.In // subscribed input ports by name
	closed bool
	done   chan struct{}
}

func newSession(out chan<- RawMessage, log *zap.SugaredLogger) *Session {
	return &Session{
		out:        out,
		log:        log,
		openDriver: openRtmidi,
		pollEvery:  defaultPollEvery,
		ports:      make(map[string]midi.In),
		done:       make(chan struct{}),
	}
}

// Start requests device access in the background. If the driver
// is unavailable the session stays pointer-only; that is a warning,
// not an error, and is not retried.
func (s *Session) Start() {
	go s.acquire()
}

func (s *Session) acquire() {
	drv, err := s.openDriver()
	if err != nil {
		s.log.Warnw("midi unavailable, running pointer-only", "err", err)
		return
	}

	s.mu.Lock()
	if s.closed { // torn down while the request was pending
		s.mu.Unlock()
		drv.Close()
		return
	}
	s.drv = drv
	s.mu.Unlock()

	s.scan()
	go s.poll()
}

func (s *Session) poll() {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.scan()
		}
	}
}

// scan subscribes newly attached ports and revokes detached ones.
// Attach is idempotent: a port already subscribed is left alone.
func (s *Session) scan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.drv == nil {
		return
	}

	ins, err := s.drv.Ins()
	if err != nil {
		s.log.Warnw("midi port scan failed", "err", err)
		return
	}

	seen := make(map[string]bool, len(ins))
	for _, in := range ins {
		name := in.String()
		seen[name] = true
		if _, ok := s.ports[name]; ok {
			continue
		}
		if err := s.subscribe(in); err != nil {
			s.log.Warnw("midi port subscribe failed", "port", name, "err", err)
			continue
		}
		s.ports[name] = in
		s.log.Infow("midi port attached", "port", name)
	}

	for name, in := range s.ports {
		if seen[name] {
			continue
		}
		in.StopListening()
		in.Close()
		delete(s.ports, name)
		s.log.Infow("midi port detached", "port", name)
	}
}

func (s *Session) subscribe(in midi.In) error {
	if err := in.Open(); err != nil {
		return err
	}
	err := in.SetListener(func(data []byte, _ int64) {
		msg := RawMessage{Data: append([]byte(nil), data...), At: time.Now()}
		select { // never block the driver callback
		case s.out <- msg:
		default:
		}
	})
	if err != nil {
		in.Close()
		return err
	}
	return nil
}

// Close tears the session down: no pending acquisition may install
// a driver afterwards, every subscription is revoked, the driver is
// released. Safe to call in any state, also before acquisition
// resolved, and more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for name, in := range s.ports {
		in.StopListening()
		in.Close()
		delete(s.ports, name)
	}
	if s.drv != nil {
		s.drv.Close()
		s.drv = nil
	}
}

// portCount returns the number of live subscriptions.
func (s *Session) portCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ports)
}
