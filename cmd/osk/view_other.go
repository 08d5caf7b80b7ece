//go:build !windows

package main

import (
	"log/slog"

	"gioui.org/io/event"
)

func handleViewEvent(event.Event, *slog.Logger) {}
