package app

import (
	"context"
	"log/slog"

	"github.com/rbright/hotscribe/internal/failure"
)

// eventLog records each session notification in the runtime log.
type eventLog struct {
	logger *slog.Logger
}

func (l eventLog) RecordingStarted(context.Context) {
	l.logger.Info("recording started")
}

func (l eventLog) RecordingStopped(_ context.Context, bufferAvailable bool) {
	l.logger.Info("recording stopped", "buffer_available", bufferAvailable)
}

func (l eventLog) TranscriptionComplete(_ context.Context, text string) {
	l.logger.Info("transcription complete", "transcript_length", len([]rune(text)))
}

func (l eventLog) Failed(_ context.Context, kind failure.Kind, message string) {
	l.logger.Error("session failed", "kind", string(kind), "error", message)
}
