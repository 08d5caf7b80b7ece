// Package platformtest provides in-memory fakes of the platform interfaces.
package platformtest

import (
	"context"
	"sync"

	"osk/internal/keys"
	"osk/internal/platform"
)

// Sink records every event it is sent.
type Sink struct {
	mu     sync.Mutex
	events []platform.KeyEvent
	// Err, when set, is returned from Send after recording the events.
	Err error
}

func (s *Sink) Send(events []platform.KeyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return s.Err
}

// Events returns a copy of everything sent so far.
func (s *Sink) Events() []platform.KeyEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]platform.KeyEvent(nil), s.events...)
}

// Reset forgets recorded events.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// Count returns how many events matched code and direction.
func (s *Sink) Count(code keys.Code, up bool) int {
	n := 0
	for _, ev := range s.Events() {
		if ev.Code == code && ev.Up == up {
			n++
		}
	}
	return n
}

// Physical returns a fixed key state.
type Physical struct {
	mu    sync.Mutex
	state platform.KeyState
	Err   error
}

func (p *Physical) Set(down map[keys.Code]bool, caps bool) {
	p.mu.Lock()
	p.state = platform.KeyState{Down: down, CapsLock: caps}
	p.mu.Unlock()
}

func (p *Physical) Poll(codes []keys.Code) (platform.KeyState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return platform.KeyState{}, p.Err
	}
	out := platform.KeyState{Down: make(map[keys.Code]bool), CapsLock: p.state.CapsLock}
	for _, c := range codes {
		if p.state.Down[c] {
			out.Down[c] = true
		}
	}
	return out, nil
}

// IME returns a scripted conversion state.
type IME struct {
	mu     sync.Mutex
	native bool
	err    error
	Calls  int
}

func (q *IME) Set(native bool, err error) {
	q.mu.Lock()
	q.native, q.err = native, err
	q.mu.Unlock()
}

func (q *IME) ConversionState() (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Calls++
	return q.native, q.err
}

// Caret returns a scripted caret state.
type Caret struct {
	mu    sync.Mutex
	caret platform.Caret
	err   error
}

func (c *Caret) Set(caret platform.Caret, err error) {
	c.mu.Lock()
	c.caret, c.err = caret, err
	c.mu.Unlock()
}

func (c *Caret) CaretPresence() (platform.Caret, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caret, c.err
}

// Focus is a FocusSource fed by Push.
type Focus struct {
	ch     chan platform.FocusChange
	once   sync.Once
	closed chan struct{}
}

func NewFocus() *Focus {
	return &Focus{
		ch:     make(chan platform.FocusChange, 16),
		closed: make(chan struct{}),
	}
}

func (f *Focus) Start(ctx context.Context) error { return nil }

func (f *Focus) Changes() <-chan platform.FocusChange { return f.ch }

// Push delivers a change. It must not be called after Close.
func (f *Focus) Push(fc platform.FocusChange) {
	f.ch <- fc
}

func (f *Focus) Close() error {
	f.once.Do(func() {
		close(f.closed)
		close(f.ch)
	})
	return nil
}

// Visibility records show and hide calls in order.
type Visibility struct {
	mu    sync.Mutex
	trace []string
}

func (v *Visibility) Show() { v.record("show") }
func (v *Visibility) Hide() { v.record("hide") }

func (v *Visibility) record(s string) {
	v.mu.Lock()
	v.trace = append(v.trace, s)
	v.mu.Unlock()
}

// Trace returns the recorded calls.
func (v *Visibility) Trace() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.trace...)
}
