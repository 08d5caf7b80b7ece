// Command focus-probe is a manual testing tool for the focus, caret and
// input-method backends.
//
// It opens the same adapters osk would, prints every focus change with the
// verdict the keyboard would reach, and polls the caret and input method
// once a second until interrupted with Ctrl+C. No keys are injected.
//
// Usage:
//
//	go build -o focus-probe ./tools/focus-probe
//	./focus-probe -config ~/.config/osk/config.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"osk/internal/backend"
	"osk/internal/config"
	"osk/internal/focusgate"
	"osk/internal/logging"
	"osk/internal/platform"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	interval := flag.Duration("interval", time.Second, "caret and IME poll interval")
	flag.Parse()

	fmt.Println("Focus Probe")
	fmt.Println("===========")
	fmt.Println()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.IME.Enabled = true

	be, err := backend.Open(cfg, logging.Discard())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening backend: %v\n", err)
		os.Exit(1)
	}
	defer be.Close()

	fmt.Printf("Injector:  %s\n", be.Injector)
	fmt.Printf("Physical:  %s\n", available(be.Physical != nil))
	fmt.Printf("IME:       %s\n", available(be.IME != nil))
	fmt.Printf("Caret:     %s\n", available(be.Caret != nil))
	fmt.Printf("Focus:     %s\n", available(be.Focus != nil))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var changes <-chan platform.FocusChange
	if be.Focus != nil {
		if err := be.Focus.Start(ctx); err != nil {
			fmt.Printf("Focus source failed: %v\n", err)
		} else {
			defer be.Focus.Close()
			changes = be.Focus.Changes()
		}
	}

	rules := cfg.Focus.Rules()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Println("Move focus between applications. Press Ctrl+C to stop.")
	fmt.Println()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			fmt.Println("Stopped.")
			return
		case fc, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			printFocus(fc, rules)
		case <-ticker.C:
			printPoll(be)
		}
	}
}

func printFocus(fc platform.FocusChange, rules focusgate.Rules) {
	ts := time.Now().Format("15:04:05.000")
	if fc.Err != nil {
		fmt.Printf("[%s] focus  error=%v\n", ts, fc.Err)
		return
	}
	el := fc.Element
	v := focusgate.Classify(el, rules)
	fmt.Printf("[%s] focus  pid=%d role=%s class=%q name=%q -> active=%v (%s)\n",
		ts, el.PID, el.Role, el.ClassName, el.Name, v.Active, v.Reason)
}

func printPoll(be *backend.Backend) {
	ts := time.Now().Format("15:04:05.000")
	line := fmt.Sprintf("[%s] poll  ", ts)
	if be.Caret != nil {
		c, err := be.Caret.CaretPresence()
		if err != nil {
			line += fmt.Sprintf("caret=error(%v) ", err)
		} else {
			line += fmt.Sprintf("caret=%v owner=%d ", c.Present, c.OwnerPID)
		}
	}
	if be.IME != nil {
		native, err := be.IME.ConversionState()
		if err != nil {
			line += fmt.Sprintf("ime=error(%v)", err)
		} else {
			line += fmt.Sprintf("ime_native=%v", native)
		}
	}
	fmt.Println(line)
}

func available(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
