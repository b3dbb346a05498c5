package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/hotscribe/internal/ipc"
)

// forwardTimeout bounds one CLI-to-owner roundtrip.
const forwardTimeout = 220 * time.Millisecond

// tryForward sends command to a running owner. handled is false when no owner
// is listening. An owner rejection comes back as the owner's classified error.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, forwardTimeout)
	switch {
	case errors.Is(err, ipc.ErrNoOwner):
		return ipc.Response{}, false, nil
	case err != nil:
		return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
	}
	return resp, true, resp.Err()
}
