//go:build windows

package win32

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"osk/internal/platform"
)

var (
	procSetWinEventHook    = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent     = user32.NewProc("UnhookWinEvent")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

const (
	uiaElementNotAvailable = 0x80040201

	eventObjectFocus       = 0x8005
	wineventOutOfContext   = 0x0000
	wineventSkipOwnProcess = 0x0002
	wmQuit                 = 0x0012
)

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
	private uint32
}

var (
	errNoUIA               = errors.New("win32: ui automation unavailable")
	errElementNotAvailable = errors.New("win32: element not available")
)

// focusReader reads the element that currently has keyboard focus.
type focusReader interface {
	focused() (ElementInfo, error)
	close()
}

// A WinEvent hook callback cannot carry context, so one Focus is active at a
// time.
var (
	hookOnce     sync.Once
	hookCallback uintptr
	activeMu     sync.Mutex
	activeFocus  *Focus
)

// Focus delivers EVENT_OBJECT_FOCUS notifications. The hook and its message
// pump run on a dedicated locked OS thread. Elements are read through UI
// Automation on a second locked thread so the hook callback never blocks on
// cross-process calls; window classes are used when UI Automation is missing.
type Focus struct {
	ch        chan platform.FocusChange
	pending   chan windows.HWND
	quit      chan struct{}
	log       *slog.Logger
	threadID  uint32
	started   chan error
	stopped   chan struct{}
	inspected chan struct{}
	live      atomic.Bool
	once      sync.Once
}

// NewFocus returns an unstarted focus source.
func NewFocus(log *slog.Logger) *Focus {
	if log == nil {
		log = slog.Default()
	}
	return &Focus{
		ch:        make(chan platform.FocusChange, 16),
		pending:   make(chan windows.HWND, 1),
		quit:      make(chan struct{}),
		log:       log.With("component", "win32-focus"),
		started:   make(chan error, 1),
		stopped:   make(chan struct{}),
		inspected: make(chan struct{}),
	}
}

func (f *Focus) Changes() <-chan platform.FocusChange { return f.ch }

// Start installs the hook. It returns once the hook is live or failed.
func (f *Focus) Start(ctx context.Context) error {
	activeMu.Lock()
	if activeFocus != nil {
		activeMu.Unlock()
		return errors.New("win32: focus hook already installed")
	}
	activeFocus = f
	activeMu.Unlock()

	hookOnce.Do(func() {
		hookCallback = windows.NewCallback(winEventProc)
	})

	go f.pump()
	if err := <-f.started; err != nil {
		f.release()
		close(f.ch)
		return err
	}
	go f.inspect()
	f.live.Store(true)
	go func() {
		<-ctx.Done()
		f.Close()
	}()
	return nil
}

func (f *Focus) pump() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(f.stopped)

	f.threadID = windows.GetCurrentThreadId()
	hook, _, err := procSetWinEventHook.Call(
		eventObjectFocus, eventObjectFocus,
		0, hookCallback, 0, 0,
		wineventOutOfContext|wineventSkipOwnProcess,
	)
	if hook == 0 {
		f.started <- fmt.Errorf("win32: SetWinEventHook: %w", err)
		return
	}
	defer procUnhookWinEvent.Call(hook)
	f.started <- nil
	f.log.Debug("focus hook installed")

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptrOf(&m), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptrOf(&m))
		procDispatchMessageW.Call(uintptrOf(&m))
	}
}

// Close stops the pump and closes the channel.
func (f *Focus) Close() error {
	f.once.Do(func() {
		if !f.live.Load() {
			return
		}
		procPostThreadMessageW.Call(uintptr(f.threadID), wmQuit, 0, 0)
		<-f.stopped
		f.release()
		close(f.quit)
		<-f.inspected
	})
	return nil
}

func (f *Focus) release() {
	activeMu.Lock()
	if activeFocus == f {
		activeFocus = nil
	}
	activeMu.Unlock()
}

// inspect reads each queued focus target and delivers the result. It owns
// f.ch once the hook is live.
func (f *Focus) inspect() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(f.inspected)
	defer close(f.ch)

	r, err := openUIA()
	if err != nil {
		f.log.Warn("falling back to window classes", "error", err)
	} else {
		defer r.close()
	}
	for {
		select {
		case <-f.quit:
			return
		case hwnd := <-f.pending:
			f.deliver(read(r, hwnd))
		}
	}
}

// read classifies the focused element. A UI Automation failure other than a
// vanished element is reported as is so the gate leaves its state alone.
func read(r focusReader, hwnd windows.HWND) platform.FocusChange {
	if r == nil {
		return inspectWindow(hwnd)
	}
	info, err := r.focused()
	switch {
	case err == nil:
		return platform.FocusChange{Element: ElementFromUIA(info)}
	case errors.Is(err, errElementNotAvailable):
		return platform.FocusChange{Err: platform.ErrElementGone}
	default:
		return platform.FocusChange{Err: err}
	}
}

// enqueue keeps only the latest focus target.
func (f *Focus) enqueue(hwnd windows.HWND) {
	select {
	case f.pending <- hwnd:
		return
	default:
	}
	select {
	case <-f.pending:
	default:
	}
	select {
	case f.pending <- hwnd:
	default:
	}
}

func (f *Focus) deliver(fc platform.FocusChange) {
	select {
	case f.ch <- fc:
	default:
		// Drop the oldest; only the latest focus matters.
		select {
		case <-f.ch:
		default:
		}
		select {
		case f.ch <- fc:
		default:
		}
	}
}

func uintptrOf(m *msg) uintptr {
	return uintptr(unsafe.Pointer(m))
}

func winEventProc(hook, event, hwnd, idObject, idChild, thread, timestamp uintptr) uintptr {
	// Browsers raise focus for objects inside the client area too, so any
	// object on a window counts; the focused element is read afterwards.
	if event != eventObjectFocus || hwnd == 0 {
		return 0
	}
	activeMu.Lock()
	f := activeFocus
	activeMu.Unlock()
	if f == nil {
		return 0
	}
	f.enqueue(windows.HWND(hwnd))
	return 0
}

// inspectWindow reads the facts ElementFromWindow needs. A window that is
// destroyed while being read yields ErrElementGone.
func inspectWindow(hwnd windows.HWND) platform.FocusChange {
	buf := make([]uint16, 256)
	n, err := windows.GetClassName(hwnd, &buf[0], int32(len(buf)))
	if err != nil || n == 0 {
		return platform.FocusChange{Err: platform.ErrElementGone}
	}
	w := WindowInfo{
		Class:   windows.UTF16ToString(buf[:n]),
		Title:   windowText(hwnd),
		PID:     windowPID(hwnd),
		Style:   windowStyle(hwnd),
		Iconic:  rootIconic(hwnd),
		Focused: true,
	}
	if w.PID == 0 {
		return platform.FocusChange{Err: platform.ErrElementGone}
	}
	return platform.FocusChange{Element: ElementFromWindow(w)}
}
