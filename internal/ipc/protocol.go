// Package ipc carries newline-delimited JSON commands between the CLI and the
// running hotscribe owner over a unix socket.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rbright/hotscribe/internal/failure"
)

// Commands understood by the owner.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandStop   = "stop"
	CommandCancel = "cancel"
)

// maxMessageBytes bounds one request or response line.
const maxMessageBytes = 64 << 10

type Request struct {
	Command string `json:"command"`
}

// Known reports whether the owner serves r.Command.
func (r Request) Known() bool {
	switch r.Command {
	case CommandStatus, CommandToggle, CommandStop, CommandCancel:
		return true
	default:
		return false
	}
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// Kind is the failure kind when OK is false and the failure was classified.
	Kind string `json:"kind,omitempty"`
}

// Failed builds the response for a rejected command. A classified err sends
// its kind along.
func Failed(state string, err error) Response {
	resp := Response{OK: false, State: state, Error: err.Error()}
	var classified *failure.Error
	if errors.As(err, &classified) {
		resp.Kind = string(classified.Kind)
	}
	return resp
}

// Err rebuilds the owner's failure from a rejected response. It is nil when
// the command succeeded.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "command rejected"
	}
	if r.Kind == "" {
		return errors.New(msg)
	}
	return failure.New(failure.Kind(r.Kind), msg)
}

// writeLine encodes v as one JSON line.
func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// readLine reads one newline-terminated message of at most maxMessageBytes.
func readLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(io.LimitReader(r, maxMessageBytes)).ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) >= maxMessageBytes {
			return nil, fmt.Errorf("message exceeds %d bytes", maxMessageBytes)
		}
		return nil, err
	}
	return line, nil
}
