package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/focusgate"
	"osk/internal/logging"
	"osk/internal/metrics"
	"osk/internal/mode"
	"osk/internal/platform"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigrates(t *testing.T) {
	s := openStore(t)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Insert(&Entry{At: time.Now(), Kind: KindMode, Source: "user", From: "latin", To: "native"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecentNewestFirst(t *testing.T) {
	s := openStore(t)
	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		_, err := s.Insert(&Entry{At: base.Add(time.Duration(i) * time.Second), Kind: KindVisibility, Source: "focus", Action: "show", Reason: "edit"})
		require.NoError(t, err)
	}

	got, err := s.Recent(3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].At.Equal(base.Add(4*time.Second)))
	assert.True(t, got[2].At.Equal(base.Add(2*time.Second)))
	assert.Equal(t, "edit", got[0].Reason)
	assert.Empty(t, got[0].From)

	none, err := s.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPrune(t *testing.T) {
	s := openStore(t)
	now := time.Now()
	_, err := s.Insert(&Entry{At: now.Add(-48 * time.Hour), Kind: KindMode, Source: "external"})
	require.NoError(t, err)
	_, err = s.Insert(&Entry{At: now, Kind: KindMode, Source: "external"})
	require.NoError(t, err)

	n, err := s.Prune(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEntryBuilders(t *testing.T) {
	at := time.Unix(1700000000, 0)
	m := ModeEntry(mode.Transition{From: mode.Latin, To: mode.NativeScript, Source: mode.SourceExternal, At: at})
	assert.Equal(t, Entry{At: at, Kind: KindMode, Source: "external", From: "latin", To: "native"}, m)

	d := focusgate.Decision{
		Action:  focusgate.Hide,
		Source:  focusgate.SourceFocus,
		Verdict: focusgate.Verdict{Reason: "shell"},
		Element: platform.Element{Role: platform.RoleShell, ClassName: "Shell_TrayWnd", Name: "secret doc title"},
	}
	v := VisibilityEntry(d, at)
	assert.Equal(t, "hide", v.Action)
	assert.Equal(t, "focus", v.Source)
	assert.Equal(t, "shell", v.Reason)
	assert.Equal(t, "Shell_TrayWnd", v.Class)
	assert.NotContains(t, []string{v.Source, v.Action, v.Reason, v.Role, v.Class}, "secret doc title")
}

func TestJournalWritesInBackground(t *testing.T) {
	j := New(openStore(t), 8, nil, logging.Discard())
	defer j.Close()

	for i := 0; i < 5; i++ {
		j.Record(Entry{At: time.Now(), Kind: KindMode, Source: "user", From: "latin", To: "native"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, j.Flush(ctx))

	got, err := j.Recent(10)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Zero(t, j.Dropped())
}

func TestJournalDropsWhenFull(t *testing.T) {
	reg := metrics.NewRegistry("osk")
	m := metrics.NewKeyboard(reg)
	j := &Journal{
		queue:   make(chan request, 1),
		metrics: m,
		log:     logging.Discard(),
		done:    make(chan struct{}),
	}
	// No writer is running, so the second entry cannot be queued.
	j.Record(Entry{Kind: KindMode})
	j.Record(Entry{Kind: KindMode})
	assert.Equal(t, uint64(1), j.Dropped())
}

func TestCloseDrains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(path, 16, time.Hour, nil, logging.Discard())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		j.Record(Entry{At: time.Now(), Kind: KindVisibility, Source: "caret", Action: "show"})
	}
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())
	j.Record(Entry{Kind: KindMode})

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestNilJournal(t *testing.T) {
	var j *Journal
	j.Record(Entry{})
	assert.NoError(t, j.Flush(context.Background()))
	got, err := j.Recent(5)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, j.Close())
}
