package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rbright/hotscribe/internal/failure"
)

// requestTimeout bounds how long a client may take to send its request line
// and to read the reply.
const requestTimeout = 2 * time.Second

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers one request per connection until ctx ends or the listener
// closes. In-flight connections finish before Serve returns.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(ctx, conn, handler)
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(requestTimeout))
	resp := dispatch(ctx, conn, handler)
	_ = conn.SetWriteDeadline(time.Now().Add(requestTimeout))
	_ = writeLine(conn, resp)
}

// dispatch reads the request and runs the handler. A panicking handler is
// answered with an unclassified error.
func dispatch(ctx context.Context, conn net.Conn, handler Handler) (resp Response) {
	line, err := readLine(conn)
	if err != nil {
		return Failed("", fmt.Errorf("read request: %w", err))
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Failed("", fmt.Errorf("decode request: %w", err))
	}
	if !req.Known() {
		return Failed("", failure.Errorf(failure.KindConfig, "unknown command: %s", req.Command))
	}

	defer func() {
		if r := recover(); r != nil {
			resp = Failed("", fmt.Errorf("handle %s: panic: %v", req.Command, r))
		}
	}()
	return handler.Handle(ctx, req)
}
