// Package ipc is the control channel of a running keyboard: newline-delimited
// JSON requests and responses over a Unix-domain socket.
//
// A second osk launch and oskctl are the clients. Each request is one line:
//
//	{"v":1,"id":7,"command":"toggle"}
//
// and is answered by exactly one response line carrying the same id.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ProtocolVersion is bumped on incompatible changes.
const ProtocolVersion = 1

// MaxLineSize bounds a single request or response line.
const MaxLineSize = 1 << 20

// Command names a request.
type Command string

const (
	CmdPing    Command = "ping"
	CmdShow    Command = "show"
	CmdHide    Command = "hide"
	CmdToggle  Command = "toggle"
	CmdStatus  Command = "status"
	CmdHistory Command = "history"
	CmdReload  Command = "reload"
)

// Commands lists every command the server understands.
var Commands = []Command{CmdPing, CmdShow, CmdHide, CmdToggle, CmdStatus, CmdHistory, CmdReload}

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	for _, known := range Commands {
		if c == known {
			return true
		}
	}
	return false
}

var (
	ErrAlreadyRunning = errors.New("ipc: another instance is listening")
	ErrNotRunning     = errors.New("ipc: no instance is listening")
	ErrUnknownCommand = errors.New("ipc: unknown command")
	ErrVersion        = errors.New("ipc: unsupported protocol version")
	ErrPeerRejected   = errors.New("ipc: peer is not the current user")
)

// Request is one client request.
type Request struct {
	Version int     `json:"v"`
	ID      uint32  `json:"id"`
	Command Command `json:"command"`

	// Limit is the number of history entries wanted.
	Limit int `json:"limit,omitempty"`
}

// Response answers a Request.
type Response struct {
	ID      uint32         `json:"id"`
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Status  *Status        `json:"status,omitempty"`
	History []HistoryEntry `json:"history,omitempty"`
}

// Err converts a failed response into an error.
func (r *Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return errors.New("ipc: request failed")
	}
	return fmt.Errorf("ipc: %s", r.Error)
}

// Status is a snapshot of the running keyboard.
type Status struct {
	Version       string    `json:"version"`
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	Visible       bool      `json:"visible"`
	Mode          string    `json:"mode"`
	Overlay       bool      `json:"overlay"`
	FunctionLayer bool      `json:"function_layer"`
	Preview       bool      `json:"preview"`
	Sticky        []string  `json:"sticky,omitempty"`
	Injector      string    `json:"injector"`
}

// HistoryEntry is one journal row as seen by clients.
type HistoryEntry struct {
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"`
	Source string    `json:"source"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Action string    `json:"action,omitempty"`
	Reason string    `json:"reason,omitempty"`
	Role   string    `json:"role,omitempty"`
	Class  string    `json:"class,omitempty"`
}

// WriteMessage encodes v as one line.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// NewScanner returns a line scanner sized for MaxLineSize.
func NewScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return s
}

// DecodeRequest parses and checks one request line.
func DecodeRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	if req.Version > ProtocolVersion {
		return req, fmt.Errorf("%w: %d", ErrVersion, req.Version)
	}
	if !req.Command.Valid() {
		return req, fmt.Errorf("%w: %q", ErrUnknownCommand, req.Command)
	}
	return req, nil
}

// ErrorResponse builds a failed response.
func ErrorResponse(id uint32, err error) Response {
	return Response{ID: id, Error: err.Error()}
}
