// Package session coordinates the record/transcribe lifecycle behind the toggle hotkey.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hotscribe/internal/audio"
	"github.com/rbright/hotscribe/internal/failure"
	"github.com/rbright/hotscribe/internal/fsm"
	"github.com/rbright/hotscribe/internal/transcribe"
)

var (
	// ErrBusy rejects a toggle while a transcription is in flight.
	ErrBusy = failure.New(failure.KindBusy, "transcription in progress; wait for it to finish")
	// ErrEmptyRecording reports a stop that captured no audio.
	ErrEmptyRecording = failure.New(failure.KindEmptyRecording, "no audio captured; check microphone input or mute state")
	// ErrNoSpeech reports a transcription that produced only whitespace.
	ErrNoSpeech = failure.New(failure.KindNoSpeech, "no speech recognized")
	// ErrNotRecording rejects cancel and stop requests outside Recording.
	ErrNotRecording = errors.New("not recording")
)

// Capturer is the controller-facing subset of audio.Session.
type Capturer interface {
	Start(context.Context, audio.StreamConfig) error
	Stop() *audio.Buffer
	Elapsed() time.Duration
}

// Submitter is the controller-facing subset of transcribe.Dispatcher.
type Submitter interface {
	Submit(transcribe.Request, func(transcribe.Outcome)) (transcribe.Job, error)
	Wait(context.Context) error
}

// Options tunes a Controller.
type Options struct {
	Logger   *slog.Logger
	Stream   audio.StreamConfig
	Language string
}

// Controller owns the Idle/Recording/Transcribing state machine. Toggle, Stop and
// Cancel are serialized; transcription completion arrives on the dispatcher's worker.
type Controller struct {
	logger   *slog.Logger
	capture  Capturer
	jobs     Submitter
	stream   audio.StreamConfig
	language string

	ctx    context.Context
	cancel context.CancelFunc

	ops sync.Mutex

	mu    sync.RWMutex
	state fsm.State

	mailbox *mailbox
}

// NewController constructs an idle controller.
func NewController(capture Capturer, jobs Submitter, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		logger:   logger,
		capture:  capture,
		jobs:     jobs,
		stream:   opts.Stream,
		language: opts.Language,
		ctx:      ctx,
		cancel:   cancel,
		state:    fsm.StateIdle,
		mailbox:  newMailbox(),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsRecording reports whether a capture is active.
func (c *Controller) IsRecording() bool {
	return c.State() == fsm.StateRecording
}

// Elapsed returns the active capture length, or zero outside Recording.
func (c *Controller) Elapsed() time.Duration {
	if !c.IsRecording() {
		return 0
	}
	return c.capture.Elapsed()
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// Toggle starts a recording from Idle or stops one from Recording and hands it to
// the transcription dispatcher. Every rejected or failed toggle emits one Failed event.
func (c *Controller) Toggle() error {
	c.ops.Lock()
	defer c.ops.Unlock()

	state := c.State()
	event, ok := fsm.ToggleEvent(state)
	if !ok {
		c.logger.Warn("toggle rejected", "state", string(state))
		c.emitFailure(ErrBusy)
		return ErrBusy
	}

	switch event {
	case fsm.EventStart:
		return c.startRecording()
	default:
		return c.stopRecording()
	}
}

func (c *Controller) startRecording() error {
	if err := c.capture.Start(c.ctx, c.stream); err != nil {
		if !errors.As(err, new(*failure.Error)) {
			err = failure.Wrap(failure.KindDevice, "unable to start recording", err)
		}
		c.logger.Error("recording start failed", "error", err.Error())
		c.emitFailure(err)
		return err
	}
	if err := c.transition(fsm.EventStart); err != nil {
		c.capture.Stop()
		c.toErrorAndReset()
		c.emitFailure(err)
		return err
	}

	c.logger.Info("recording started")
	c.emit(Event{Kind: EventRecordingStarted})
	return nil
}

func (c *Controller) stopRecording() error {
	recorded := c.capture.Elapsed()
	buf := c.capture.Stop()
	c.emit(Event{Kind: EventRecordingStopped, BufferAvailable: buf != nil, Recorded: recorded})

	if buf == nil {
		_ = c.transition(fsm.EventDiscard)
		c.logger.Warn("recording stopped without audio", "recorded_ms", recorded.Milliseconds())
		c.emitFailure(ErrEmptyRecording)
		return ErrEmptyRecording
	}

	if err := c.transition(fsm.EventStop); err != nil {
		c.toErrorAndReset()
		c.emitFailure(err)
		return err
	}

	job, err := c.jobs.Submit(transcribe.Request{Audio: buf, Language: c.language}, c.complete)
	if err != nil {
		c.toErrorAndReset()
		c.logger.Error("transcription submit rejected", "error", err.Error())
		if errors.Is(err, transcribe.ErrBusy) {
			c.emitFailure(ErrBusy)
			return ErrBusy
		}
		c.emitFailure(err)
		return err
	}

	c.logger.Info("transcription submitted",
		"job", job.ID,
		"duration_ms", buf.Duration().Milliseconds(),
	)
	return nil
}

// complete runs on the dispatcher worker once per submitted job.
func (c *Controller) complete(outcome transcribe.Outcome) {
	if err := c.transition(fsm.EventTranscribed); err != nil {
		c.logger.Error("transcription completed outside transcribing state", "error", err.Error())
		c.toErrorAndReset()
	}

	switch {
	case outcome.Err != nil:
		c.emit(Event{
			Kind:    EventFailed,
			JobID:   outcome.Job.ID,
			Elapsed: outcome.Elapsed,
			Failure: outcome.Kind,
			Message: outcome.Err.Error(),
		})
	case strings.TrimSpace(outcome.Text) == "":
		c.logger.Warn("transcription returned no speech", "job", outcome.Job.ID)
		c.emit(Event{
			Kind:    EventFailed,
			JobID:   outcome.Job.ID,
			Elapsed: outcome.Elapsed,
			Failure: failure.KindNoSpeech,
			Message: ErrNoSpeech.Error(),
		})
	default:
		c.emit(Event{
			Kind:    EventTranscriptionComplete,
			JobID:   outcome.Job.ID,
			Elapsed: outcome.Elapsed,
			Text:    outcome.Text,
		})
	}
}

// Stop ends the active recording and submits it. Unlike Toggle it never starts one.
func (c *Controller) Stop() error {
	c.ops.Lock()
	defer c.ops.Unlock()

	switch state := c.State(); state {
	case fsm.StateRecording:
		return c.stopRecording()
	case fsm.StateTranscribing:
		return fmt.Errorf("already transcribing: %w", ErrBusy)
	default:
		return fmt.Errorf("cannot stop from state %s: %w", state, ErrNotRecording)
	}
}

// Cancel discards the active recording without transcribing it.
func (c *Controller) Cancel() error {
	c.ops.Lock()
	defer c.ops.Unlock()

	switch state := c.State(); state {
	case fsm.StateRecording:
		c.discard()
		return nil
	case fsm.StateTranscribing:
		return fmt.Errorf("cannot cancel while transcribing: %w", ErrBusy)
	default:
		return fmt.Errorf("cannot cancel from state %s: %w", state, ErrNotRecording)
	}
}

// discard stops capture and drops the buffer. Callers hold ops.
func (c *Controller) discard() {
	recorded := c.capture.Elapsed()
	c.capture.Stop()
	_ = c.transition(fsm.EventCancel)
	c.logger.Info("recording cancelled", "recorded_ms", recorded.Milliseconds())
	c.emit(Event{Kind: EventRecordingStopped, BufferAvailable: false, Recorded: recorded})
}

// Report surfaces a failure raised outside a toggle, such as a lost key tap.
func (c *Controller) Report(err error) {
	if err == nil {
		return
	}
	c.logger.Error("background failure", "kind", string(failure.KindOf(err)), "error", err.Error())
	c.emitFailure(err)
}

// Shutdown discards any active recording, waits for an in-flight transcription
// until ctx ends, and closes the mailbox once queued events are drained.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.ops.Lock()
	if c.State() == fsm.StateRecording {
		c.discard()
	}
	c.ops.Unlock()

	err := c.jobs.Wait(ctx)
	if err != nil {
		c.logger.Error("transcription did not finish before shutdown; abandoning", "error", err.Error())
	}
	c.cancel()
	c.mailbox.close()
	return err
}

// Next returns the next queued notification.
func (c *Controller) Next(ctx context.Context) (Event, error) {
	return c.mailbox.pop(ctx)
}

// Deliver hands queued notifications to l on the calling goroutine until ctx ends
// or the controller shuts down and the queue is empty.
func (c *Controller) Deliver(ctx context.Context, l Listener) error {
	for {
		ev, err := c.mailbox.pop(ctx)
		if errors.Is(err, ErrMailboxClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		Notify(ctx, l, ev)
	}
}

func (c *Controller) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if !c.mailbox.push(ev) {
		c.logger.Warn("dropping notification after shutdown", "event", string(ev.Kind))
	}
}

func (c *Controller) emitFailure(err error) {
	c.emit(Event{Kind: EventFailed, Failure: failure.KindOf(err), Message: err.Error()})
}
