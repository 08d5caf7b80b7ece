//go:build windows

package main

import (
	"log/slog"

	"gioui.org/app"
	"gioui.org/io/event"

	"osk/internal/platform/win32"
)

// handleViewEvent keeps the keyboard window from taking focus away from the
// application being typed into.
func handleViewEvent(e event.Event, log *slog.Logger) {
	ve, ok := e.(app.Win32ViewEvent)
	if !ok || !ve.Valid() {
		return
	}
	if err := win32.NoActivate(ve.HWND); err != nil {
		log.Warn("could not make keyboard window non-activating", "error", err)
	}
}
