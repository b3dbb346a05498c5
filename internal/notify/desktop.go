// Package notify shows recording state and failures as freedesktop notifications.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/failure"
)

// persistentTimeoutMS keeps the recording and transcribing notices up until
// they are replaced or dismissed.
const persistentTimeoutMS = 300000

// Desktop is a session listener that keeps one replaceable notification per
// session: recording, then transcribing, then the result or failure.
type Desktop struct {
	cfg      config.NotifyConfig
	logger   *slog.Logger
	messages messages

	mu sync.Mutex
	id uint32
}

// NewDesktop creates a notifier from config.
func NewDesktop(cfg config.NotifyConfig, logger *slog.Logger) *Desktop {
	return &Desktop{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFromEnv(),
	}
}

func (d *Desktop) RecordingStarted(ctx context.Context) {
	d.run(ctx, func(ctx context.Context) error {
		return d.show(ctx, d.messages.recording, "", persistentTimeoutMS)
	})
}

func (d *Desktop) RecordingStopped(ctx context.Context, bufferAvailable bool) {
	if !bufferAvailable {
		d.run(ctx, d.dismiss)
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.show(ctx, d.messages.transcribing, "", persistentTimeoutMS)
	})
}

func (d *Desktop) TranscriptionComplete(ctx context.Context, text string) {
	d.run(ctx, func(ctx context.Context) error {
		return d.show(ctx, d.messages.copied, preview(text), d.cfg.TimeoutMS)
	})
}

func (d *Desktop) Failed(ctx context.Context, kind failure.Kind, message string) {
	d.run(ctx, func(ctx context.Context) error {
		return d.show(ctx, d.messages.failureSummary(kind), message, d.cfg.TimeoutMS)
	})
}

// show sends a notification that replaces the current one.
func (d *Desktop) show(ctx context.Context, summary string, body string, timeoutMS int) error {
	d.mu.Lock()
	replaceID := d.id
	d.mu.Unlock()

	appName := strings.TrimSpace(d.cfg.AppName)
	if appName == "" {
		appName = "hotscribe"
	}

	id, err := desktopNotify(ctx, appName, replaceID, summary, body, timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
	return nil
}

// dismiss closes the current notification when present.
func (d *Desktop) dismiss(ctx context.Context) error {
	d.mu.Lock()
	id := d.id
	d.id = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes a notification call with a bounded timeout. Notification
// failures never reach the session.
func (d *Desktop) run(ctx context.Context, fn func(context.Context) error) {
	if !d.cfg.Desktop {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil && d.logger != nil {
		d.logger.Debug("desktop notification failed", "error", err.Error())
	}
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	const limit = 80
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
