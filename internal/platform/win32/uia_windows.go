//go:build windows && cgo

package win32

/*
#cgo LDFLAGS: -lole32 -loleaut32

#define COBJMACROS
#include <windows.h>
#include <ole2.h>
#include <oleauto.h>
#include <uiautomation.h>

#define OSK_NAME_MAX 256

static const CLSID oskCLSID_CUIAutomation =
    {0xff48dba4, 0x60ef, 0x4201, {0xaa, 0x87, 0x54, 0x10, 0x3e, 0xef, 0x59, 0x4e}};
static const IID oskIID_IUIAutomation =
    {0x30cbe57d, 0xd9d0, 0x452a, {0xab, 0x13, 0x7a, 0xc5, 0xac, 0x48, 0x25, 0xee}};

static IUIAutomation* oskAutomation = NULL;
static int oskComInit = 0;

typedef struct {
    int controlType;
    int pid;
    int password;
    int enabled;
    int offscreen;
    int focusable;
    int hasValue;
    int valueReadOnly;
    int valueReadOnlyKnown;
    int hasText;
    wchar_t name[OSK_NAME_MAX];
    wchar_t className[OSK_NAME_MAX];
} oskElement;

static HRESULT oskUiaInit(void) {
    HRESULT hr = CoInitializeEx(NULL, COINIT_MULTITHREADED);
    if (FAILED(hr)) return hr;
    oskComInit = 1;
    return CoCreateInstance(&oskCLSID_CUIAutomation, NULL, CLSCTX_INPROC_SERVER,
                            &oskIID_IUIAutomation, (void**)&oskAutomation);
}

static void oskUiaClose(void) {
    if (oskAutomation) {
        oskAutomation->lpVtbl->Release(oskAutomation);
        oskAutomation = NULL;
    }
    if (oskComInit) {
        CoUninitialize();
        oskComInit = 0;
    }
}

static void oskCopy(wchar_t* dst, BSTR src) {
    int i = 0;
    if (src) {
        for (; i < OSK_NAME_MAX - 1 && src[i]; i++) dst[i] = src[i];
    }
    dst[i] = 0;
}

static HRESULT oskUiaFocused(oskElement* out) {
    IUIAutomationElement* el = NULL;
    IUnknown* pattern = NULL;
    BSTR s = NULL;
    BOOL b = FALSE;
    HRESULT hr;

    if (!oskAutomation) return E_FAIL;
    hr = oskAutomation->lpVtbl->GetFocusedElement(oskAutomation, &el);
    if (FAILED(hr)) return hr;
    if (!el) return E_FAIL;

    hr = el->lpVtbl->get_CurrentControlType(el, &out->controlType);
    if (FAILED(hr)) goto done;
    hr = el->lpVtbl->get_CurrentProcessId(el, &out->pid);
    if (FAILED(hr)) goto done;

    hr = el->lpVtbl->get_CurrentIsPassword(el, &b);
    if (FAILED(hr)) goto done;
    out->password = b != 0;
    hr = el->lpVtbl->get_CurrentIsEnabled(el, &b);
    if (FAILED(hr)) goto done;
    out->enabled = b != 0;
    hr = el->lpVtbl->get_CurrentIsOffscreen(el, &b);
    if (FAILED(hr)) goto done;
    out->offscreen = b != 0;
    hr = el->lpVtbl->get_CurrentIsKeyboardFocusable(el, &b);
    if (FAILED(hr)) goto done;
    out->focusable = b != 0;

    if (SUCCEEDED(el->lpVtbl->get_CurrentName(el, &s))) {
        oskCopy(out->name, s);
        SysFreeString(s);
        s = NULL;
    }
    if (SUCCEEDED(el->lpVtbl->get_CurrentClassName(el, &s))) {
        oskCopy(out->className, s);
        SysFreeString(s);
        s = NULL;
    }

    if (SUCCEEDED(el->lpVtbl->GetCurrentPattern(el, UIA_ValuePatternId, &pattern)) && pattern) {
        IUIAutomationValuePattern* vp = (IUIAutomationValuePattern*)pattern;
        out->hasValue = 1;
        if (SUCCEEDED(vp->lpVtbl->get_CurrentIsReadOnly(vp, &b))) {
            out->valueReadOnly = b != 0;
            out->valueReadOnlyKnown = 1;
        }
        pattern->lpVtbl->Release(pattern);
        pattern = NULL;
    }
    if (SUCCEEDED(el->lpVtbl->GetCurrentPattern(el, UIA_TextPatternId, &pattern)) && pattern) {
        out->hasText = 1;
        pattern->lpVtbl->Release(pattern);
        pattern = NULL;
    }
    hr = S_OK;

done:
    el->lpVtbl->Release(el);
    return hr;
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// uiaClient owns the process-wide IUIAutomation instance. All calls must come
// from the thread that opened it.
type uiaClient struct{}

func openUIA() (focusReader, error) {
	if hr := C.oskUiaInit(); hr < 0 {
		C.oskUiaClose()
		return nil, fmt.Errorf("%w: hresult %#x", errNoUIA, uint32(hr))
	}
	return uiaClient{}, nil
}

func (uiaClient) focused() (ElementInfo, error) {
	var e C.oskElement
	if hr := C.oskUiaFocused(&e); hr < 0 {
		if uint32(hr) == uiaElementNotAvailable {
			return ElementInfo{}, errElementNotAvailable
		}
		return ElementInfo{}, fmt.Errorf("win32: focused element: hresult %#x", uint32(hr))
	}
	return ElementInfo{
		ControlType:        int32(e.controlType),
		ClassName:          wideString(unsafe.Pointer(&e.className[0])),
		Name:               wideString(unsafe.Pointer(&e.name[0])),
		PID:                int(e.pid),
		Password:           e.password != 0,
		Enabled:            e.enabled != 0,
		Offscreen:          e.offscreen != 0,
		KeyboardFocusable:  e.focusable != 0,
		HasValue:           e.hasValue != 0,
		ValueReadOnly:      e.valueReadOnly != 0,
		ValueReadOnlyKnown: e.valueReadOnlyKnown != 0,
		HasText:            e.hasText != 0,
	}, nil
}

func (uiaClient) close() {
	C.oskUiaClose()
}

func wideString(p unsafe.Pointer) string {
	return windows.UTF16ToString(unsafe.Slice((*uint16)(p), C.OSK_NAME_MAX))
}
