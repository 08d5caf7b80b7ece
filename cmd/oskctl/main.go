// oskctl is the control CLI for a running osk.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"osk/internal/config"
	"osk/internal/ipc"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath = flag.String("config", "", "path to config file")
	timeout    = flag.Duration("timeout", 3*time.Second, "request timeout")
	jsonOut    = flag.Bool("json", false, "print status and history as JSON")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	client := ipc.NewClient(cfg.IPC.SocketPath, *timeout)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := dispatch(ctx, client, os.Stdout, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "oskctl: %v\n", err)
		if errors.Is(err, ipc.ErrNotRunning) {
			fmt.Fprintln(os.Stderr, "  Tip: start the keyboard with: osk")
		}
		cancel()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `oskctl - Control utility for osk

Usage: oskctl [options] <command> [args]

Commands:
  show            Show the keyboard
  hide            Hide the keyboard
  toggle          Toggle the keyboard
  status          Show mode, modifiers and backend
  history [n]     Print the last n journal entries (default 20)
  reload          Re-read the configuration file
  ping            Check that osk is running
  version         Print the version

Options:`)
	flag.PrintDefaults()
}

func dispatch(ctx context.Context, client *ipc.Client, out io.Writer, args []string) error {
	switch args[0] {
	case "show":
		return client.Show(ctx)
	case "hide":
		return client.Hide(ctx)
	case "toggle":
		return client.Toggle(ctx)
	case "reload":
		return client.Reload(ctx)
	case "ping":
		if err := client.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "osk is running")
		return nil
	case "status":
		st, err := client.Status(ctx)
		if err != nil {
			return err
		}
		if *jsonOut {
			return writeJSON(out, st)
		}
		printStatus(out, st)
		return nil
	case "history":
		n := 20
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				return fmt.Errorf("history: invalid count %q", args[1])
			}
			n = v
		}
		entries, err := client.History(ctx, n)
		if err != nil {
			return err
		}
		if *jsonOut {
			return writeJSON(out, entries)
		}
		printHistory(out, entries)
		return nil
	case "version":
		fmt.Fprintf(out, "oskctl %s\n", Version)
		return nil
	case "help":
		usage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStatus(out io.Writer, st *ipc.Status) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Version\t%s\n", st.Version)
	fmt.Fprintf(tw, "PID\t%d\n", st.PID)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(tw, "Started\t%s\n", st.StartedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(tw, "Visible\t%s\n", yesNo(st.Visible))
	fmt.Fprintf(tw, "Mode\t%s\n", st.Mode)
	fmt.Fprintf(tw, "Overlay\t%s\n", yesNo(st.Overlay))
	fmt.Fprintf(tw, "Function layer\t%s\n", yesNo(st.FunctionLayer))
	if st.Preview {
		fmt.Fprintf(tw, "Preview\t%s\n", yesNo(st.Preview))
	}
	sticky := "none"
	if len(st.Sticky) > 0 {
		sticky = strings.Join(st.Sticky, " ")
	}
	fmt.Fprintf(tw, "Sticky\t%s\n", sticky)
	fmt.Fprintf(tw, "Injector\t%s\n", st.Injector)
	tw.Flush()
}

func printHistory(out io.Writer, entries []ipc.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No journal entries recorded.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tSOURCE\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.Kind, e.Source, detail(e))
	}
	tw.Flush()
}

func detail(e ipc.HistoryEntry) string {
	var parts []string
	if e.From != "" || e.To != "" {
		parts = append(parts, e.From+" -> "+e.To)
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	if e.Reason != "" {
		parts = append(parts, "("+e.Reason+")")
	}
	if e.Role != "" {
		parts = append(parts, "role="+e.Role)
	}
	if e.Class != "" {
		parts = append(parts, "class="+e.Class)
	}
	return strings.Join(parts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
