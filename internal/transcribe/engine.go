// Package transcribe runs the blocking speech-to-text call off the caller's goroutine.
package transcribe

import (
	"context"

	"github.com/rbright/hotscribe/internal/audio"
)

// Request is the input of one transcription job. Audio is finalized and never mutated.
type Request struct {
	Audio    *audio.Buffer
	Language string
}

// Engine turns one finalized recording into text.
type Engine interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(context.Context, Request) (string, error)

func (f EngineFunc) Transcribe(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
