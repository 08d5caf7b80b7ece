package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Keyboard holds the keyboard's metrics. All Record methods are safe to call
// on a nil *Keyboard.
type Keyboard struct {
	registry *Registry

	KeyEvents         *Counter
	Injections        *Counter
	InjectionFailures *Counter
	InjectionLatency  *Histogram
	SecureAttention   *Counter
	EchoSuppressed    *Counter
	IMEUnavailable    *Counter
	IMEFailures       *Counter
	FocusEvents       *Counter
	JournalDropped    *Counter
	AltLocked         *Gauge
	Visible           *Gauge
}

// NewKeyboard registers the keyboard metrics in registry.
func NewKeyboard(registry *Registry) *Keyboard {
	if registry == nil {
		registry = NewRegistry("osk")
	}
	return &Keyboard{
		registry:          registry,
		KeyEvents:         registry.Counter("key_events_total", "Synthetic key events sent to the OS", nil),
		Injections:        registry.Counter("injections_total", "Virtual key presses injected", nil),
		InjectionFailures: registry.Counter("injection_failures_total", "Injections whose OS call failed", nil),
		InjectionLatency:  registry.Histogram("injection_seconds", "Time spent in the key sink per batch", nil, nil),
		SecureAttention:   registry.Counter("secure_attention_total", "Ctrl+Alt+Del presses routed to the task manager", nil),
		EchoSuppressed:    registry.Counter("ime_polls_suppressed_total", "Input-method polls ignored inside the echo window", nil),
		IMEUnavailable:    registry.Counter("ime_polls_unavailable_total", "Input-method polls with no context", nil),
		IMEFailures:       registry.Counter("ime_poll_failures_total", "Input-method polls that failed", nil),
		FocusEvents:       registry.Counter("focus_events_total", "Focus notifications classified", nil),
		JournalDropped:    registry.Counter("journal_dropped_total", "Journal entries dropped on a full queue", nil),
		AltLocked:         registry.Gauge("alt_locked", "1 while the Alt lock is down", nil),
		Visible:           registry.Gauge("visible", "1 while the keyboard is shown", nil),
	}
}

// Registry returns the underlying registry.
func (m *Keyboard) Registry() *Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordInjection records one injected batch.
func (m *Keyboard) RecordInjection(events int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Injections.Inc()
	m.KeyEvents.Add(uint64(events))
	m.InjectionLatency.ObserveDuration(d)
	if err != nil {
		m.InjectionFailures.Inc()
	}
}

// RecordSecureAttention records a Ctrl+Alt+Del substitution.
func (m *Keyboard) RecordSecureAttention() {
	if m == nil {
		return
	}
	m.SecureAttention.Inc()
}

// RecordModeTransition counts a script-mode change by source and target.
func (m *Keyboard) RecordModeTransition(source, to string) {
	if m == nil {
		return
	}
	m.registry.Counter("mode_transitions_total", "Script-mode changes",
		Labels{"source": source, "to": to}).Inc()
}

// RecordIMEPoll records the outcome of one input-method poll.
func (m *Keyboard) RecordIMEPoll(suppressed, unavailable bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.IMEFailures.Inc()
	case unavailable:
		m.IMEUnavailable.Inc()
	case suppressed:
		m.EchoSuppressed.Inc()
	}
}

// RecordFocusEvent counts a classified focus notification.
func (m *Keyboard) RecordFocusEvent() {
	if m == nil {
		return
	}
	m.FocusEvents.Inc()
}

// RecordVisibility counts a show or hide decision by channel.
func (m *Keyboard) RecordVisibility(action, source string) {
	if m == nil {
		return
	}
	m.registry.Counter("visibility_changes_total", "Show and hide decisions",
		Labels{"action": action, "source": source}).Inc()
	if action == "show" {
		m.Visible.Set(1)
	} else {
		m.Visible.Set(0)
	}
}

// RecordAltLock sets the Alt lock gauge.
func (m *Keyboard) RecordAltLock(on bool) {
	if m == nil {
		return
	}
	if on {
		m.AltLocked.Set(1)
	} else {
		m.AltLocked.Set(0)
	}
}

// RecordJournalDrop counts a dropped journal entry.
func (m *Keyboard) RecordJournalDrop() {
	if m == nil {
		return
	}
	m.JournalDropped.Inc()
}

// Serve exposes registry on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, registry *Registry, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.HTTPHandler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
