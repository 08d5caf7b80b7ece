package metrics

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterSeriesByLabels(t *testing.T) {
	r := NewRegistry("osk")
	a := r.Counter("mode_transitions_total", "help", Labels{"source": "user"})
	b := r.Counter("mode_transitions_total", "help", Labels{"source": "external"})
	again := r.Counter("mode_transitions_total", "help", Labels{"source": "user"})

	a.Inc()
	again.Inc()
	b.Add(5)

	assert.Same(t, a, again)
	assert.Equal(t, uint64(2), a.Value())
	assert.Equal(t, uint64(5), b.Value())
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("osk")
	r.Counter("events_total", "Events", Labels{"kind": "a"}).Inc()
	r.Counter("events_total", "Events", Labels{"kind": "b"}).Add(2)
	r.Gauge("visible", "Visible", nil).Set(1)
	h := r.Histogram("latency_seconds", "Latency", nil, []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.1)
	h.Observe(3)

	var buf bytes.Buffer
	require.NoError(t, r.WritePrometheus(&buf))
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "# TYPE osk_events_total counter"))
	assert.Contains(t, out, `osk_events_total{kind="a"} 1`)
	assert.Contains(t, out, `osk_events_total{kind="b"} 2`)
	assert.Contains(t, out, "osk_visible 1")
	assert.Contains(t, out, `osk_latency_seconds_bucket{le="0.1"} 2`)
	assert.Contains(t, out, `osk_latency_seconds_bucket{le="1"} 2`)
	assert.Contains(t, out, `osk_latency_seconds_bucket{le="+Inf"} 3`)
	assert.Contains(t, out, "osk_latency_seconds_count 3")
}

func TestLabelEscaping(t *testing.T) {
	l := Labels{"name": `a"b`}
	assert.Equal(t, `{name="a\"b"}`, l.String())
}

func TestNilKeyboardIsSafe(t *testing.T) {
	var m *Keyboard
	assert.NotPanics(t, func() {
		m.RecordInjection(4, time.Millisecond, nil)
		m.RecordModeTransition("user", "native")
		m.RecordVisibility("show", "caret")
		m.RecordIMEPoll(true, false, nil)
		m.RecordAltLock(true)
	})
}

func TestKeyboardRecords(t *testing.T) {
	m := NewKeyboard(NewRegistry("osk"))
	m.RecordInjection(4, time.Millisecond, nil)
	m.RecordInjection(2, time.Millisecond, errors.New("denied"))
	m.RecordIMEPoll(true, false, nil)
	m.RecordVisibility("hide", "focus")

	assert.Equal(t, uint64(2), m.Injections.Value())
	assert.Equal(t, uint64(6), m.KeyEvents.Value())
	assert.Equal(t, uint64(1), m.InjectionFailures.Value())
	assert.Equal(t, uint64(1), m.EchoSuppressed.Value())
	assert.Equal(t, int64(0), m.Visible.Value())
	assert.Equal(t, uint64(2), m.InjectionLatency.Count())
}

func TestHTTPHandler(t *testing.T) {
	r := NewRegistry("osk")
	r.Counter("x_total", "X", nil).Inc()

	rec := httptest.NewRecorder()
	r.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "osk_x_total 1")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "application/json")
	r.HTTPHandler().ServeHTTP(rec, req)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"osk_x_total": 1`)
}
