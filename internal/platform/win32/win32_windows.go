//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"osk/internal/keys"
	"osk/internal/platform"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	imm32  = windows.NewLazySystemDLL("imm32.dll")

	procSendInput           = user32.NewProc("SendInput")
	procMapVirtualKeyW      = user32.NewProc("MapVirtualKeyW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetKeyState         = user32.NewProc("GetKeyState")
	procSendMessageTimeoutW = user32.NewProc("SendMessageTimeoutW")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetWindowLongW      = user32.NewProc("GetWindowLongW")
	procSetWindowLongW      = user32.NewProc("SetWindowLongW")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procGetAncestor         = user32.NewProc("GetAncestor")
	procIsIconic            = user32.NewProc("IsIconic")

	procImmGetDefaultIMEWnd    = imm32.NewProc("ImmGetDefaultIMEWnd")
	procImmGetContext          = imm32.NewProc("ImmGetContext")
	procImmGetConversionStatus = imm32.NewProc("ImmGetConversionStatus")
	procImmReleaseContext      = imm32.NewProc("ImmReleaseContext")
)

const (
	inputKeyboard = 1

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002

	mapvkVKToVSC = 0

	vkCapital = 0x14
	vkRWin    = 0x5C

	wmIMEControl          = 0x0283
	imcGetConversionMode  = 0x0001
	imeCmodeNative        = 0x0001
	smtoAbortIfHung       = 0x0002
	imeQueryTimeoutMillis = 50

	gwlStyle   = -16
	gwlExStyle = -20

	wsExTopmost    = 0x00000008
	wsExNoActivate = 0x08000000

	gaRoot = 2

	guiCaretBlinking = 0x0001

	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpNoActivate = 0x0010
)

var hwndTopmost = ^uintptr(0) // (HWND)-1

// keybdInput mirrors KEYBDINPUT.
type keybdInput struct {
	vk    uint16
	scan  uint16
	flags uint32
	time  uint32
	extra uintptr
}

// input mirrors INPUT for the keyboard case. The trailing pad makes the
// union as large as MOUSEINPUT.
type input struct {
	typ uint32
	ki  keybdInput
	_   [8]byte
}

// Sink sends key events with SendInput.
type Sink struct{}

// NewSink returns a SendInput sink.
func NewSink() *Sink { return &Sink{} }

// Send submits events as one SendInput call so they are not interleaved with
// other input.
func (s *Sink) Send(events []platform.KeyEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := make([]input, len(events))
	for i, ev := range events {
		scan, _, _ := procMapVirtualKeyW.Call(uintptr(ev.Code), mapvkVKToVSC)
		var flags uint32
		if ev.Code.IsExtended() {
			flags |= keyeventfExtendedKey
		}
		if ev.Up {
			flags |= keyeventfKeyUp
		}
		batch[i] = input{
			typ: inputKeyboard,
			ki:  keybdInput{vk: uint16(ev.Code), scan: uint16(scan), flags: flags},
		}
	}
	n, _, err := procSendInput.Call(
		uintptr(len(batch)),
		uintptr(unsafe.Pointer(&batch[0])),
		unsafe.Sizeof(batch[0]),
	)
	if int(n) != len(batch) {
		return fmt.Errorf("win32: SendInput sent %d of %d: %w", n, len(batch), err)
	}
	return nil
}

// Physical reads the asynchronous key state.
type Physical struct{}

func NewPhysical() *Physical { return &Physical{} }

func (p *Physical) Poll(codes []keys.Code) (platform.KeyState, error) {
	st := platform.KeyState{Down: make(map[keys.Code]bool)}
	for _, c := range codes {
		if c.Synthetic() {
			continue
		}
		if asyncDown(uintptr(c)) || (c == keys.Meta && asyncDown(vkRWin)) {
			st.Down[c] = true
		}
	}
	r, _, _ := procGetKeyState.Call(vkCapital)
	st.CapsLock = r&1 != 0
	return st, nil
}

func asyncDown(vk uintptr) bool {
	r, _, _ := procGetAsyncKeyState.Call(vk)
	return r&0x8000 != 0
}

// IME reads the conversion mode of the focused control's input context.
type IME struct{}

func NewIME() *IME { return &IME{} }

func (q *IME) ConversionState() (bool, error) {
	target := focusedWindow()
	if target == 0 {
		return false, platform.ErrUnavailable
	}
	imeWnd, _, _ := procImmGetDefaultIMEWnd.Call(uintptr(target))
	if imeWnd != 0 {
		var conv uintptr
		ok, _, _ := procSendMessageTimeoutW.Call(imeWnd, wmIMEControl, imcGetConversionMode, 0,
			smtoAbortIfHung, imeQueryTimeoutMillis, uintptr(unsafe.Pointer(&conv)))
		if ok != 0 {
			return conv&imeCmodeNative != 0, nil
		}
	}

	// Same-process windows answer through the input context directly.
	owner := uintptr(target)
	if imeWnd != 0 {
		owner = imeWnd
	}
	himc, _, _ := procImmGetContext.Call(owner)
	if himc == 0 {
		return false, platform.ErrUnavailable
	}
	defer procImmReleaseContext.Call(owner, himc)

	var conv, sentence uint32
	ok, _, _ := procImmGetConversionStatus.Call(himc,
		uintptr(unsafe.Pointer(&conv)), uintptr(unsafe.Pointer(&sentence)))
	if ok == 0 {
		return false, platform.ErrUnavailable
	}
	return conv&imeCmodeNative != 0, nil
}

// focusedWindow returns the focused control of the foreground thread, or the
// foreground window itself.
func focusedWindow() windows.HWND {
	fg := windows.GetForegroundWindow()
	if fg == 0 {
		return 0
	}
	tid, err := windows.GetWindowThreadProcessId(fg, nil)
	if err != nil {
		return fg
	}
	var gui windows.GUIThreadInfo
	gui.Size = uint32(unsafe.Sizeof(gui))
	if err := windows.GetGUIThreadInfo(tid, &gui); err == nil && gui.Focus != 0 {
		return gui.Focus
	}
	return fg
}

// Caret reports the system caret of the foreground thread.
type Caret struct{}

func NewCaret() *Caret { return &Caret{} }

func (c *Caret) CaretPresence() (platform.Caret, error) {
	var gui windows.GUIThreadInfo
	gui.Size = uint32(unsafe.Sizeof(gui))
	if err := windows.GetGUIThreadInfo(0, &gui); err != nil {
		return platform.Caret{}, fmt.Errorf("win32: GetGUIThreadInfo: %w", err)
	}
	present := gui.CaretHandle != 0 || gui.Flags&guiCaretBlinking != 0
	if !present {
		return platform.Caret{}, nil
	}
	owner := gui.CaretHandle
	if owner == 0 {
		owner = windows.GetForegroundWindow()
	}
	return platform.Caret{Present: true, OwnerPID: windowPID(owner)}, nil
}

func windowPID(hwnd windows.HWND) int {
	if hwnd == 0 {
		return 0
	}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return 0
	}
	return int(pid)
}

// NoActivate keeps the keyboard window from taking focus when clicked and
// keeps it above other windows.
func NoActivate(hwnd uintptr) error {
	ex, _, _ := procGetWindowLongW.Call(hwnd, longIndex(gwlExStyle))
	ex |= wsExNoActivate | wsExTopmost
	if r, _, err := procSetWindowLongW.Call(hwnd, longIndex(gwlExStyle), ex); r == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("win32: SetWindowLong: %w", err)
	}
	procSetWindowPos.Call(hwnd, hwndTopmost, 0, 0, 0, 0, swpNoMove|swpNoSize|swpNoActivate)
	return nil
}

// longIndex sign-extends a GWL_* index.
func longIndex(i int32) uintptr {
	return uintptr(i)
}

func windowText(hwnd windows.HWND) string {
	buf := make([]uint16, 256)
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

func windowStyle(hwnd windows.HWND) uint32 {
	r, _, _ := procGetWindowLongW.Call(uintptr(hwnd), longIndex(gwlStyle))
	return uint32(r)
}

func rootIconic(hwnd windows.HWND) bool {
	root, _, _ := procGetAncestor.Call(uintptr(hwnd), gaRoot)
	if root == 0 {
		root = uintptr(hwnd)
	}
	r, _, _ := procIsIconic.Call(root)
	return r != 0
}
