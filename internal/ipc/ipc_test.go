package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/logging"
)

type fakeController struct {
	mu      sync.Mutex
	visible bool
	calls   []string
	limit   int
	failOn  string
}

func (f *fakeController) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeController) Show(context.Context) error {
	f.visible = true
	return f.record("show")
}

func (f *fakeController) Hide(context.Context) error {
	f.visible = false
	return f.record("hide")
}

func (f *fakeController) Toggle(context.Context) error {
	f.visible = !f.visible
	return f.record("toggle")
}

func (f *fakeController) Reload(context.Context) error { return f.record("reload") }

func (f *fakeController) Status(context.Context) (Status, error) {
	return Status{Visible: f.visible, Mode: "native", Sticky: []string{"Ctrl"}}, f.record("status")
}

func (f *fakeController) History(_ context.Context, limit int) ([]HistoryEntry, error) {
	f.limit = limit
	return []HistoryEntry{{Kind: "mode", Source: "user", From: "latin", To: "native"}}, f.record("history")
}

func socketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths are length-limited; keep it short.
	dir, err := os.MkdirTemp("", "osk")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func startServer(t *testing.T, ctrl Controller) (*Server, *Client) {
	t.Helper()
	path := socketPath(t)
	srv := NewServer(DefaultServerConfig(path), NewHandler(ctrl, logging.Discard()), logging.Discard())
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return srv, NewClient(path, 2*time.Second)
}

func TestCommands(t *testing.T) {
	ctrl := &fakeController{}
	_, c := startServer(t, ctrl)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Show(ctx))
	require.NoError(t, c.Toggle(ctx))
	require.NoError(t, c.Hide(ctx))
	require.NoError(t, c.Reload(ctx))

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Visible)
	assert.Equal(t, "native", st.Mode)
	assert.Equal(t, []string{"Ctrl"}, st.Sticky)

	hist, err := c.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "native", hist[0].To)
	assert.Equal(t, DefaultHistoryLimit, ctrl.limit)

	_, err = c.History(ctx, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, MaxHistoryLimit, ctrl.limit)

	assert.Equal(t, []string{"show", "toggle", "hide", "reload", "status", "history", "history"}, ctrl.calls)
}

func TestControllerErrorIsReturned(t *testing.T) {
	_, c := startServer(t, &fakeController{failOn: "toggle"})
	err := c.Toggle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggle failed")
}

func TestSecondServerSeesRunningInstance(t *testing.T) {
	srv, _ := startServer(t, &fakeController{})
	other := NewServer(DefaultServerConfig(srv.SocketPath()), NewHandler(&fakeController{}, nil), logging.Discard())
	assert.ErrorIs(t, other.Start(), ErrAlreadyRunning)
}

func TestStaleSocketReplaced(t *testing.T) {
	path := socketPath(t)
	l, err := net.Listen("unix", path)
	require.NoError(t, err)
	// Leave the socket file behind, as a crashed instance would.
	l.(*net.UnixListener).SetUnlinkOnClose(false)
	l.Close()

	srv := NewServer(DefaultServerConfig(path), NewHandler(&fakeController{}, nil), logging.Discard())
	require.NoError(t, srv.Start())
	defer srv.Stop()
	assert.NoError(t, NewClient(path, time.Second).Ping(context.Background()))
}

func TestNotRunning(t *testing.T) {
	c := NewClient(socketPath(t), time.Second)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotRunning)
}

func TestStopRemovesSocket(t *testing.T) {
	srv, _ := startServer(t, &fakeController{})
	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop())
	_, err := os.Stat(srv.SocketPath())
	assert.True(t, os.IsNotExist(err))
}

func TestUnknownCommandOverWire(t *testing.T) {
	srv, _ := startServer(t, &fakeController{})
	conn, err := net.Dial("unix", srv.SocketPath())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"v":1,"id":9,"command":"explode"}` + "\n" + `{"v":1,"id":10,"command":"ping"}` + "\n"))
	require.NoError(t, err)

	s := NewScanner(conn)
	require.True(t, s.Scan())
	assert.Contains(t, s.Text(), "unknown command")
	assert.Contains(t, s.Text(), `"id":9`)
	require.True(t, s.Scan())
	assert.Contains(t, s.Text(), `"ok":true`)
}

func TestDecodeRequest(t *testing.T) {
	_, err := DecodeRequest([]byte(`{"v":2,"command":"ping"}`))
	assert.ErrorIs(t, err, ErrVersion)
	_, err = DecodeRequest([]byte(`not json`))
	assert.Error(t, err)
	req, err := DecodeRequest([]byte(`{"v":1,"id":3,"command":"history","limit":5}`))
	require.NoError(t, err)
	assert.Equal(t, Request{Version: 1, ID: 3, Command: CmdHistory, Limit: 5}, req)
}
