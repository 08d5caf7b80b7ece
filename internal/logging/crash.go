package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"
)

// CrashReport is written to the crash directory when a guarded goroutine
// panics.
type CrashReport struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	GOOS       string    `json:"goos"`
	GOARCH     string    `json:"goarch"`
	Component  string    `json:"component"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
}

// CrashGuard recovers panics, runs cleanup hooks, writes a report and then
// re-panics. Hooks run before the report so an injected Alt lock is released
// even if the disk is full.
type CrashGuard struct {
	Dir       string
	Version   string
	Component string
	Log       *slog.Logger

	hooks []func()
}

// DefaultCrashDir returns a "crashes" directory beside the default log file.
func DefaultCrashDir() string {
	return filepath.Join(filepath.Dir(DefaultLogPath()), "crashes")
}

// OnCrash registers fn to run when a panic is recovered.
func (g *CrashGuard) OnCrash(fn func()) {
	g.hooks = append(g.hooks, fn)
}

// Recover must be deferred directly.
func (g *CrashGuard) Recover() {
	v := recover()
	if v == nil {
		return
	}
	for _, fn := range g.hooks {
		func() {
			defer func() { recover() }()
			fn()
		}()
	}

	report := CrashReport{
		Timestamp:  time.Now().UTC(),
		Version:    g.Version,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		Component:  g.Component,
		PanicValue: fmt.Sprint(v),
		StackTrace: string(debug.Stack()),
	}
	path, err := g.write(report)
	if g.Log != nil {
		g.Log.Error("recovered panic", "panic", report.PanicValue, "report", path, "write_error", err)
	}
	panic(v)
}

func (g *CrashGuard) write(report CrashReport) (string, error) {
	dir := g.Dir
	if dir == "" {
		dir = DefaultCrashDir()
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s-%s.json", report.Component, report.Timestamp.Format("20060102-150405")))
	return path, os.WriteFile(path, data, 0640)
}
