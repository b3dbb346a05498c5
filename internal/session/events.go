package session

import (
	"context"
	"time"

	"github.com/rbright/hotscribe/internal/failure"
)

// EventKind names a controller notification.
type EventKind string

const (
	EventRecordingStarted      EventKind = "recording_started"
	EventRecordingStopped      EventKind = "recording_stopped"
	EventTranscriptionComplete EventKind = "transcription_complete"
	EventFailed                EventKind = "failed"
)

// Event is one queued controller notification.
type Event struct {
	Kind EventKind
	At   time.Time

	// BufferAvailable is set on EventRecordingStopped.
	BufferAvailable bool
	// Recorded is the capture length on EventRecordingStopped.
	Recorded time.Duration

	Text    string
	JobID   string
	Elapsed time.Duration

	Failure failure.Kind
	Message string
}

// Listener receives controller notifications on the goroutine that calls Deliver.
type Listener interface {
	RecordingStarted(ctx context.Context)
	RecordingStopped(ctx context.Context, bufferAvailable bool)
	TranscriptionComplete(ctx context.Context, text string)
	Failed(ctx context.Context, kind failure.Kind, message string)
}

// NopListener ignores every notification. Embed it to implement a subset.
type NopListener struct{}

func (NopListener) RecordingStarted(context.Context)              {}
func (NopListener) RecordingStopped(context.Context, bool)        {}
func (NopListener) TranscriptionComplete(context.Context, string) {}
func (NopListener) Failed(context.Context, failure.Kind, string)  {}

// Listeners fans each notification out to every listener in order.
type Listeners []Listener

func (ls Listeners) RecordingStarted(ctx context.Context) {
	for _, l := range ls {
		l.RecordingStarted(ctx)
	}
}

func (ls Listeners) RecordingStopped(ctx context.Context, bufferAvailable bool) {
	for _, l := range ls {
		l.RecordingStopped(ctx, bufferAvailable)
	}
}

func (ls Listeners) TranscriptionComplete(ctx context.Context, text string) {
	for _, l := range ls {
		l.TranscriptionComplete(ctx, text)
	}
}

func (ls Listeners) Failed(ctx context.Context, kind failure.Kind, message string) {
	for _, l := range ls {
		l.Failed(ctx, kind, message)
	}
}

// Notify invokes the Listener method matching ev.
func Notify(ctx context.Context, l Listener, ev Event) {
	switch ev.Kind {
	case EventRecordingStarted:
		l.RecordingStarted(ctx)
	case EventRecordingStopped:
		l.RecordingStopped(ctx, ev.BufferAvailable)
	case EventTranscriptionComplete:
		l.TranscriptionComplete(ctx, ev.Text)
	case EventFailed:
		l.Failed(ctx, ev.Failure, ev.Message)
	}
}
