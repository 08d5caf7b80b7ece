// osk is an on-screen keyboard for a phonetic input method.
//
//	osk                   Start the keyboard, or toggle the running one
//	osk -config <path>    Use a specific configuration file
//	osk -log-level debug  Override the configured log level
//	osk -version          Print the version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"osk/cmd/osk/internal/theme"
	"osk/cmd/osk/internal/ui"
	"osk/internal/actions"
	"osk/internal/backend"
	"osk/internal/config"
	"osk/internal/engine"
	"osk/internal/ipc"
	"osk/internal/journal"
	"osk/internal/keys"
	"osk/internal/logging"
	"osk/internal/metrics"
)

// Version is set at build time.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "configuration file (default: platform config dir)")
	logLevel := flag.String("log-level", "", "log level override: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("osk %s\n", Version)
		return
	}

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "osk: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "osk: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	log := logger.Logger

	// A second launch toggles the running keyboard instead of starting one.
	if cfg.IPC.Enabled && ipc.IsSocketListening(cfg.IPC.SocketPath) {
		os.Exit(signalRunning(cfg, log))
	}

	w := new(app.Window)
	w.Option(
		app.Title("On-Screen Keyboard"),
		app.Size(unit.Dp(float32(cfg.Window.Width)), unit.Dp(float32(cfg.Window.Height))),
	)

	go func() {
		code := 0
		if err := run(w, loader, cfg, logger, log); err != nil {
			log.Error("osk stopped", "error", err)
			code = 1
		}
		logger.Close()
		os.Exit(code)
	}()
	app.Main()
}

func newLogger(cfg *config.Config, override string) (*logging.Logger, error) {
	opts, err := cfg.Logging.LoggingOptions()
	if err != nil {
		return nil, err
	}
	if override != "" {
		level, err := logging.ParseLevel(override)
		if err != nil {
			return nil, err
		}
		opts.Level = level
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return logging.New(opts)
}

func signalRunning(cfg *config.Config, log *slog.Logger) int {
	client := ipc.NewClient(cfg.IPC.SocketPath, 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Toggle(ctx); err != nil {
		log.Error("running instance did not answer", "socket", cfg.IPC.SocketPath, "error", err)
		return 1
	}
	log.Info("toggled running instance")
	return 0
}

func run(w *app.Window, loader *config.Loader, cfg *config.Config, logger *logging.Logger, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := backend.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer be.Close()

	registry := metrics.NewRegistry("osk")
	m := metrics.NewKeyboard(registry)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, registry, log); err != nil {
				log.Warn("metrics endpoint failed", "error", err)
			}
		}()
	}

	var jr *journal.Journal
	if cfg.Journal.Enabled {
		retain := time.Duration(cfg.Journal.RetainDays) * 24 * time.Hour
		jr, err = journal.OpenJournal(cfg.Journal.Path, cfg.Journal.QueueSize, retain, m, log)
		if err != nil {
			log.Warn("journal disabled", "error", err)
			jr = nil
		}
	}
	defer jr.Close()

	th := theme.NewTheme(material.NewTheme())
	acts := actions.New(be.Sink, actions.StartProcess, log)
	menu := ui.NewMenu(th, func(item actions.Item) {
		go func() {
			if err := acts.Run(item); err != nil {
				log.Warn("security action failed", "item", item, "error", err)
			}
		}()
	}, w.Invalidate)
	acts.SetSecurityMenu(menu.Show)

	vis := newWindowVisibility(w)
	if cfg.Window.StartHidden {
		vis.Hide()
	}
	eng := engine.New(engine.Options{
		Catalog:    keys.DefaultCatalog(),
		Sink:       be.Sink,
		Physical:   be.Physical,
		IME:        be.IME,
		Caret:      be.Caret,
		Focus:      be.Focus,
		Visibility: vis,
		Actions:    acts,
		Journal:    jr,
		Metrics:    m,
		Crash: &logging.CrashGuard{
			Dir:       logging.DefaultCrashDir(),
			Version:   Version,
			Component: "engine",
			Log:       log,
		},
		Reload:   loader.Reload,
		Config:   cfg,
		Version:  Version,
		Injector: be.Injector,
		Log:      log,
	})

	loader.OnChange(func(old, new *config.Config) {
		if lvl, err := logging.ParseLevel(new.Logging.Level); err == nil {
			logger.SetLevel(lvl)
		}
		eng.Apply(new)
	})
	if err := loader.Watch(); err != nil {
		log.Warn("config watch unavailable", "path", loader.Path(), "error", err)
	}
	defer loader.Close()

	if cfg.IPC.Enabled {
		srvCfg := ipc.DefaultServerConfig(cfg.IPC.SocketPath)
		if cfg.IPC.TimeoutSec > 0 {
			srvCfg.Timeout = time.Duration(cfg.IPC.TimeoutSec) * time.Second
		}
		srv := ipc.NewServer(srvCfg, ipc.NewHandler(eng, log), log)
		if err := srv.Start(); err != nil {
			if errors.Is(err, ipc.ErrAlreadyRunning) {
				signalRunning(cfg, log)
				return nil
			}
			log.Warn("control socket unavailable", "error", err)
		} else {
			defer srv.Stop()
		}
	}

	kb := ui.NewKeyboard(th, eng, menu)
	engDone := make(chan error, 1)
	go func() { engDone <- eng.Run(ctx) }()
	// Frames is closed when the engine stops.
	go func() {
		for f := range eng.Frames() {
			kb.SetFrame(f)
			w.Invalidate()
		}
	}()
	uiDone := make(chan error, 1)
	go func() { uiDone <- loop(w, kb, log) }()

	select {
	case err := <-uiDone:
		stop()
		<-engDone
		return err
	case err := <-engDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func loop(w *app.Window, kb *ui.Keyboard, log *slog.Logger) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			kb.Layout(gtx)
			e.Frame(gtx.Ops)
		default:
			handleViewEvent(e, log)
		}
	}
}
