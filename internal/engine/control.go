package engine

import (
	"context"
	"os"

	"osk/internal/ipc"
	"osk/internal/journal"
	"osk/internal/modifier"
)

// sourceIPC tags visibility changes requested over the control socket.
const sourceIPC = "ipc"

var _ ipc.Controller = (*Engine)(nil)

// Show raises the keyboard.
func (e *Engine) Show(ctx context.Context) error {
	return e.Do(ctx, func() { e.setVisible(true) })
}

// Hide hides the keyboard.
func (e *Engine) Hide(ctx context.Context) error {
	return e.Do(ctx, func() { e.setVisible(false) })
}

// Toggle flips visibility.
func (e *Engine) Toggle(ctx context.Context) error {
	return e.Do(ctx, func() { e.setVisible(!e.vis.visible) })
}

func (e *Engine) setVisible(on bool) {
	if on {
		e.vis.Show()
	} else {
		e.vis.Hide()
	}
	if !e.vis.takeChanged() {
		return
	}
	action := "hide"
	if on {
		action = "show"
	}
	e.opts.Metrics.RecordVisibility(action, sourceIPC)
	e.opts.Journal.Record(journal.Entry{
		At:     e.opts.Clock.Now(),
		Kind:   journal.KindVisibility,
		Source: sourceIPC,
		Action: action,
		Reason: "request",
	})
}

// Status reports the live state.
func (e *Engine) Status(ctx context.Context) (ipc.Status, error) {
	var st ipc.Status
	err := e.Do(ctx, func() {
		snap := e.ctrl.Snapshot()
		mods := e.mods.Snapshot()
		st = ipc.Status{
			Version:       e.opts.Version,
			PID:           os.Getpid(),
			StartedAt:     e.startedAt,
			Visible:       e.vis.visible,
			Mode:          snap.Mode.String(),
			Overlay:       snap.Overlay.Active,
			FunctionLayer: snap.FunctionLayer,
			Preview:       snap.Preview,
			Injector:      e.opts.Injector,
		}
		for _, m := range modifier.All {
			if mods.Sticky[m] {
				st.Sticky = append(st.Sticky, m.String())
			}
		}
	})
	return st, err
}

// History returns the newest journal entries. The journal is safe for
// concurrent readers, so this does not touch the loop.
func (e *Engine) History(ctx context.Context, limit int) ([]ipc.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := e.opts.Journal.Recent(limit)
	if err != nil {
		return nil, err
	}
	out := make([]ipc.HistoryEntry, 0, len(entries))
	for _, en := range entries {
		out = append(out, ipc.HistoryEntry{
			At:     en.At,
			Kind:   string(en.Kind),
			Source: en.Source,
			From:   en.From,
			To:     en.To,
			Action: en.Action,
			Reason: en.Reason,
			Role:   en.Role,
			Class:  en.Class,
		})
	}
	return out, nil
}

// Reload re-reads the configuration file. The new configuration reaches the
// loop through Apply.
func (e *Engine) Reload(ctx context.Context) error {
	if e.opts.Reload == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.opts.Reload()
}
