package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/hotscribe/internal/failure"
)

// DefaultJoinTimeout bounds how long Stop waits for the capture goroutine.
const DefaultJoinTimeout = time.Second

// ErrAlreadyRecording is returned by Start while a capture is active.
var ErrAlreadyRecording = errors.New("audio capture already recording")

// SessionOptions tunes a Session.
type SessionOptions struct {
	Logger             *slog.Logger
	JoinTimeout        time.Duration
	LowSignalThreshold float64
}

// Session records one capture at a time from a Driver.
//
// The capture goroutine owns the stream and the chunk sequence; driver callbacks
// hand chunks to it over a channel. Stop joins the goroutine before reading chunks.
type Session struct {
	driver    Driver
	logger    *slog.Logger
	join      time.Duration
	lowSignal float64

	mu        sync.Mutex
	active    *capture
	recording atomic.Bool
}

// NewSession returns an idle capture session on driver.
func NewSession(driver Driver, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	join := opts.JoinTimeout
	if join <= 0 {
		join = DefaultJoinTimeout
	}
	lowSignal := opts.LowSignalThreshold
	if lowSignal <= 0 {
		lowSignal = DefaultLowSignalThreshold
	}
	return &Session{driver: driver, logger: logger, join: join, lowSignal: lowSignal}
}

// capture is the state of one recording, owned by its run goroutine until done closes.
type capture struct {
	cfg       StreamConfig
	startedAt time.Time

	frames   chan []float32
	statuses chan error
	opened   chan error
	stop     chan struct{}
	acked    chan struct{}
	done     chan struct{}

	chunks  [][]float32
	samples int
}

// Start opens a stream and begins accumulating chunks. It returns ErrAlreadyRecording
// while a capture is active and a device failure when the stream cannot be opened.
func (s *Session) Start(ctx context.Context, cfg StreamConfig) error {
	if err := cfg.Validate(); err != nil {
		return failure.Wrap(failure.KindDevice, "invalid stream config", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return ErrAlreadyRecording
	}

	c := &capture{
		cfg:      cfg,
		frames:   make(chan []float32, 256),
		statuses: make(chan error, 8),
		opened:   make(chan error, 1),
		stop:     make(chan struct{}),
		acked:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.run(ctx, s.driver, s.logger)

	if err := <-c.opened; err != nil {
		<-c.done
		return failure.Wrap(failure.KindDevice, "open capture stream", err)
	}

	c.startedAt = time.Now()
	s.active = c
	s.recording.Store(true)
	s.logger.Info("capture started",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"device", cfg.DeviceID,
	)
	return nil
}

// Stop ends the active capture and returns its finalized buffer. It returns nil when
// not recording, when nothing was captured, or when the capture goroutine fails to exit in time.
func (s *Session) Stop() *Buffer {
	s.mu.Lock()
	c := s.active
	s.active = nil
	s.recording.Store(false)
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	close(c.stop)
	select {
	case <-c.done:
	case <-time.After(s.join):
		s.logger.Error("capture goroutine did not exit; abandoning recording", "timeout_ms", s.join.Milliseconds())
		return nil
	}

	elapsed := time.Since(c.startedAt)
	if c.samples == 0 {
		s.logger.Warn("capture stopped with no audio", "elapsed_ms", elapsed.Milliseconds())
		return nil
	}

	buf := concat(c.chunks, c.cfg.SampleRate, c.cfg.Channels)
	levels := buf.Levels()
	s.logger.Info("capture stopped",
		"chunks", len(c.chunks),
		"samples", len(buf.Samples),
		"duration_ms", buf.Duration().Milliseconds(),
		"peak", levels.Peak,
		"mean", levels.Mean,
	)
	if levels.Peak < s.lowSignal {
		s.logger.Warn("captured audio is nearly silent; check the input device",
			"peak", levels.Peak,
			"threshold", s.lowSignal,
		)
	}
	return buf
}

// IsRecording reports whether a capture is active.
func (s *Session) IsRecording() bool {
	return s.recording.Load()
}

// Elapsed returns the time since Start, or zero when idle.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0
	}
	return time.Since(s.active.startedAt)
}

func (c *capture) run(ctx context.Context, driver Driver, logger *slog.Logger) {
	defer close(c.done)

	stream, err := driver.Open(ctx, c.cfg, StreamHandler{OnChunk: c.deliver, OnStatus: c.status})
	c.opened <- err
	if err != nil {
		close(c.acked)
		return
	}

	for {
		select {
		case chunk := <-c.frames:
			c.append(chunk)
		case err := <-c.statuses:
			logger.Warn("capture device status", "error", err.Error())
		case <-c.stop:
			close(c.acked)
			if err := stream.Close(); err != nil {
				logger.Warn("close capture stream", "error", err.Error())
			}
			// Keep chunks that were queued before the stop was acknowledged.
			for {
				select {
				case chunk := <-c.frames:
					c.append(chunk)
				default:
					return
				}
			}
		}
	}
}

func (c *capture) append(chunk []float32) {
	c.chunks = append(c.chunks, chunk)
	c.samples += len(chunk)
}

// deliver runs on the driver's callback goroutine.
func (c *capture) deliver(chunk []float32) {
	if len(chunk) == 0 {
		return
	}
	select {
	case <-c.acked:
		return
	default:
	}

	cp := make([]float32, len(chunk))
	copy(cp, chunk)
	select {
	case c.frames <- cp:
	case <-c.acked:
	}
}

// status runs on the driver's callback goroutine; statuses are dropped when the queue is full.
func (c *capture) status(err error) {
	if err == nil {
		return
	}
	select {
	case c.statuses <- err:
	default:
	}
}
