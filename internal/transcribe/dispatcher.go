package transcribe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/hotscribe/internal/failure"
)

// ErrBusy is returned by Submit while another job is in flight.
var ErrBusy = failure.New(failure.KindBusy, "transcription already in progress")

// Status is the lifecycle position of a Job.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
)

// Job identifies one submitted transcription.
type Job struct {
	ID          string
	SubmittedAt time.Time
	Status      Status
}

// Outcome is the terminal result of a Job. Exactly one of Text or Err is meaningful.
type Outcome struct {
	Job     Job
	Text    string
	Elapsed time.Duration
	Err     error
	Kind    failure.Kind
}

// Options tunes a Dispatcher.
type Options struct {
	Logger *slog.Logger
	// Timeout bounds one engine call. Zero means no limit.
	Timeout time.Duration
}

// Dispatcher runs at most one Engine call at a time on a worker goroutine.
type Dispatcher struct {
	engine  Engine
	logger  *slog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current *Job
	wg      sync.WaitGroup
}

// NewDispatcher returns an idle dispatcher for engine.
func NewDispatcher(engine Engine, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		engine:  engine,
		logger:  logger,
		timeout: opts.Timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit starts req on a worker goroutine and calls done once with its outcome.
// The busy slot is released before done runs, so done may submit the next job.
func (d *Dispatcher) Submit(req Request, done func(Outcome)) (Job, error) {
	if req.Audio == nil || len(req.Audio.Samples) == 0 {
		return Job{}, failure.New(failure.KindInput, "transcription request has no audio")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		return Job{}, ErrBusy
	}
	if err := d.ctx.Err(); err != nil {
		return Job{}, fmt.Errorf("dispatcher closed: %w", err)
	}

	job := &Job{ID: uuid.NewString(), SubmittedAt: time.Now(), Status: StatusPending}
	d.current = job
	d.wg.Add(1)
	go d.run(job, req, done)

	return *job, nil
}

// Current returns a snapshot of the in-flight job.
func (d *Dispatcher) Current() (Job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return Job{}, false
	}
	return *d.current, true
}

// Wait blocks until no job is in flight or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the context passed to in-flight engine calls and rejects further submits.
func (d *Dispatcher) Close() {
	d.cancel()
}

func (d *Dispatcher) run(job *Job, req Request, done func(Outcome)) {
	defer d.wg.Done()

	d.mu.Lock()
	job.Status = StatusRunning
	d.mu.Unlock()

	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.logger.Info("transcription started",
		"job", job.ID,
		"samples", len(req.Audio.Samples),
		"duration_ms", req.Audio.Duration().Milliseconds(),
		"language", req.Language,
	)

	started := time.Now()
	text, err := d.invoke(ctx, req)
	elapsed := time.Since(started)
	if err != nil && d.timeout > 0 && ctx.Err() == context.DeadlineExceeded {
		err = failure.Wrap(failure.KindConnectivity, fmt.Sprintf("transcription timed out after %s", d.timeout), err)
	}

	d.mu.Lock()
	job.Status = StatusDone
	finished := *job
	d.current = nil
	d.mu.Unlock()

	outcome := Outcome{Job: finished, Text: text, Elapsed: elapsed}
	if err != nil {
		outcome.Text = ""
		outcome.Err = err
		outcome.Kind = Classify(err)
		d.logger.Error("transcription failed",
			"job", job.ID,
			"kind", string(outcome.Kind),
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err.Error(),
		)
	} else {
		d.logger.Info("transcription finished",
			"job", job.ID,
			"elapsed_ms", elapsed.Milliseconds(),
			"chars", len(text),
		)
	}

	if done != nil {
		done(outcome)
	}
}

// invoke calls the engine and converts a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, req Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = failure.Errorf(failure.KindUnknown, "transcription engine panicked: %v", r)
		}
	}()
	return d.engine.Transcribe(ctx, req)
}
