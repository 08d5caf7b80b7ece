//go:build !linux && !windows

package backend

import (
	"log/slog"

	"osk/internal/config"
)

// Open fails: there is no injection backend for this OS.
func Open(cfg *config.Config, log *slog.Logger) (*Backend, error) {
	return nil, ErrUnsupported
}
