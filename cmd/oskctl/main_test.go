package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/ipc"
	"osk/internal/logging"
)

type fakeKeyboard struct {
	mu    sync.Mutex
	calls []string
	limit int
}

func (f *fakeKeyboard) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeKeyboard) seen() ([]string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...), f.limit
}

func (f *fakeKeyboard) Show(context.Context) error   { return f.record("show") }
func (f *fakeKeyboard) Hide(context.Context) error   { return f.record("hide") }
func (f *fakeKeyboard) Toggle(context.Context) error { return f.record("toggle") }
func (f *fakeKeyboard) Reload(context.Context) error { return f.record("reload") }

func (f *fakeKeyboard) Status(context.Context) (ipc.Status, error) {
	return ipc.Status{Version: "1.2.3", PID: 99, Visible: true, Mode: "native", Sticky: []string{"ctrl", "alt"}, Injector: "xtest"}, nil
}

func (f *fakeKeyboard) History(_ context.Context, limit int) ([]ipc.HistoryEntry, error) {
	f.mu.Lock()
	f.limit = limit
	f.mu.Unlock()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []ipc.HistoryEntry{
		{At: at, Kind: "mode", Source: "user", From: "latin", To: "native"},
		{At: at, Kind: "visibility", Source: "focus", Action: "show", Reason: "edit", Role: "edit", Class: "Edit"},
	}, nil
}

func client(t *testing.T, kb ipc.Controller) *ipc.Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "oskctl")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")

	srv := ipc.NewServer(ipc.DefaultServerConfig(path), ipc.NewHandler(kb, logging.Discard()), logging.Discard())
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return ipc.NewClient(path, 2*time.Second)
}

func TestDispatchVisibilityCommands(t *testing.T) {
	kb := &fakeKeyboard{}
	c := client(t, kb)
	ctx := context.Background()

	for _, cmd := range []string{"show", "hide", "toggle", "reload"} {
		require.NoError(t, dispatch(ctx, c, &bytes.Buffer{}, []string{cmd}))
	}
	calls, _ := kb.seen()
	assert.Equal(t, []string{"show", "hide", "toggle", "reload"}, calls)
}

func TestDispatchStatus(t *testing.T) {
	c := client(t, &fakeKeyboard{})
	var out bytes.Buffer
	require.NoError(t, dispatch(context.Background(), c, &out, []string{"status"}))

	s := out.String()
	assert.Contains(t, s, "1.2.3")
	assert.Contains(t, s, "native")
	assert.Contains(t, s, "ctrl alt")
	assert.Contains(t, s, "xtest")
	assert.NotContains(t, s, "Preview")
}

func TestDispatchHistory(t *testing.T) {
	kb := &fakeKeyboard{}
	c := client(t, kb)
	var out bytes.Buffer
	require.NoError(t, dispatch(context.Background(), c, &out, []string{"history", "5"}))

	_, limit := kb.seen()
	assert.Equal(t, 5, limit)
	s := out.String()
	assert.Contains(t, s, "latin -> native")
	assert.Contains(t, s, "show (edit) role=edit class=Edit")

	err := dispatch(context.Background(), c, &out, []string{"history", "-1"})
	assert.Error(t, err)
}

func TestDispatchUnknown(t *testing.T) {
	c := client(t, &fakeKeyboard{})
	assert.Error(t, dispatch(context.Background(), c, &bytes.Buffer{}, []string{"explode"}))
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "", detail(ipc.HistoryEntry{}))
	assert.Equal(t, "hide (gone)", detail(ipc.HistoryEntry{Action: "hide", Reason: "gone"}))
}

func TestPrintHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	printHistory(&out, nil)
	assert.Contains(t, out.String(), "No journal entries")
}
