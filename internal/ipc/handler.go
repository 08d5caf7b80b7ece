package ipc

import (
	"context"
	"log/slog"
)

// Controller is the keyboard as seen from the control socket.
type Controller interface {
	Show(ctx context.Context) error
	Hide(ctx context.Context) error
	Toggle(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
	Reload(ctx context.Context) error
}

// DefaultHistoryLimit is used when a history request names no limit.
const DefaultHistoryLimit = 20

// MaxHistoryLimit caps a single history request.
const MaxHistoryLimit = 1000

// NewHandler dispatches requests to ctrl.
func NewHandler(ctrl Controller, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "ipc")

	return HandlerFunc(func(ctx context.Context, req Request) Response {
		resp, err := dispatch(ctx, ctrl, req)
		if err != nil {
			log.Debug("request failed", "command", req.Command, "error", err)
			return ErrorResponse(req.ID, err)
		}
		resp.OK = true
		return resp
	})
}

func dispatch(ctx context.Context, ctrl Controller, req Request) (Response, error) {
	var resp Response
	switch req.Command {
	case CmdPing:
		return resp, nil
	case CmdShow:
		return resp, ctrl.Show(ctx)
	case CmdHide:
		return resp, ctrl.Hide(ctx)
	case CmdToggle:
		return resp, ctrl.Toggle(ctx)
	case CmdReload:
		return resp, ctrl.Reload(ctx)
	case CmdStatus:
		st, err := ctrl.Status(ctx)
		if err != nil {
			return resp, err
		}
		resp.Status = &st
		return resp, nil
	case CmdHistory:
		limit := req.Limit
		if limit <= 0 {
			limit = DefaultHistoryLimit
		}
		if limit > MaxHistoryLimit {
			limit = MaxHistoryLimit
		}
		entries, err := ctrl.History(ctx, limit)
		if err != nil {
			return resp, err
		}
		resp.History = entries
		return resp, nil
	}
	return resp, ErrUnknownCommand
}
