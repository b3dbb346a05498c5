// Package output commits completed transcripts to the clipboard.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/session"
)

// clipboardTimeout bounds one clipboard command run.
const clipboardTimeout = 2 * time.Second

// Clipboard is a session listener that pipes each completed transcript into
// the configured clipboard command.
type Clipboard struct {
	session.NopListener

	argv   []string
	logger *slog.Logger
	onErr  func(error)
}

// NewClipboard constructs a clipboard committer. onErr, when set, receives
// commit failures; they are logged either way.
func NewClipboard(cmd config.CommandConfig, logger *slog.Logger, onErr func(error)) *Clipboard {
	return &Clipboard{argv: cmd.Argv, logger: logger, onErr: onErr}
}

// TranscriptionComplete implements session.Listener.
func (c *Clipboard) TranscriptionComplete(ctx context.Context, text string) {
	if err := c.Commit(ctx, text); err != nil {
		if c.logger != nil {
			c.logger.Error("clipboard commit failed", "error", err.Error())
		}
		if c.onErr != nil {
			c.onErr(err)
		}
	}
}

// Commit writes text to the clipboard. Empty text and an unconfigured command
// are no-ops.
func (c *Clipboard) Commit(ctx context.Context, text string) error {
	if text == "" || len(c.argv) == 0 {
		return nil
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runCommandWithInput(clipboardCtx, c.argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("transcript copied to clipboard", "chars", len([]rune(text)))
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
