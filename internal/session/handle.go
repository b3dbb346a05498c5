package session

import (
	"context"
	"fmt"

	"github.com/rbright/hotscribe/internal/fsm"
	"github.com/rbright/hotscribe/internal/ipc"
)

// Handle serves IPC commands for the running owner.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.status()
	case ipc.CommandToggle:
		return c.respond(c.Toggle())
	case ipc.CommandStop:
		return c.respond(c.Stop())
	case ipc.CommandCancel:
		return c.respond(c.Cancel())
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) status() ipc.Response {
	state := c.State()
	msg := "status"
	if state == fsm.StateRecording {
		msg = fmt.Sprintf("recording for %.1fs", c.Elapsed().Seconds())
	}
	return ipc.Response{OK: true, State: string(state), Message: msg}
}

func (c *Controller) respond(err error) ipc.Response {
	state := c.State()
	if err != nil {
		return ipc.Failed(string(state), err)
	}

	var msg string
	switch state {
	case fsm.StateRecording:
		msg = "recording started"
	case fsm.StateTranscribing:
		msg = "transcription started"
	default:
		msg = "ok"
	}
	return ipc.Response{OK: true, State: string(state), Message: msg}
}
