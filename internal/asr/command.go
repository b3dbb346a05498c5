package asr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/rbright/hotscribe/internal/failure"
)

// stderrTail bounds how much of a failing command's stderr is kept in the error.
const stderrTail = 512

// Command runs a local transcriber (for example whisper.cpp) once per recording
// and reads the transcript from its stdout.
//
// Arguments may contain {file}, {language}, and {model} placeholders. When no
// argument mentions {file}, the recording path is appended.
type Command struct {
	argv   []string
	model  string
	logger *slog.Logger
}

// NewCommand validates opts.Command.
func NewCommand(opts Options) (*Command, error) {
	if len(opts.Command) == 0 {
		return nil, failure.New(failure.KindConfig, "transcription.command is empty")
	}
	argv := make([]string, len(opts.Command))
	copy(argv, opts.Command)
	return &Command{argv: argv, model: opts.Model, logger: loggerOrDiscard(opts.Logger)}, nil
}

func (c *Command) Name() string { return EngineCommand }

// Transcribe runs the command and returns its trimmed stdout.
func (c *Command) Transcribe(ctx context.Context, in Input) (string, error) {
	argv := c.expand(in)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running transcription command", "argv0", argv[0], "audio", describe(in))
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", failure.Wrap(failure.KindResource, fmt.Sprintf("transcription command %q not found", argv[0]), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if tail := tail(stderr.String()); tail != "" {
			return "", fmt.Errorf("transcription command %s: %w: %s", argv[0], err, tail)
		}
		return "", fmt.Errorf("transcription command %s: %w", argv[0], err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (c *Command) expand(in Input) []string {
	replacer := strings.NewReplacer(
		"{file}", in.Path,
		"{language}", languageOrAuto(in.Language),
		"{model}", c.model,
	)

	out := make([]string, 0, len(c.argv)+1)
	sawFile := false
	for _, arg := range c.argv {
		if strings.Contains(arg, "{file}") {
			sawFile = true
		}
		out = append(out, replacer.Replace(arg))
	}
	if !sawFile {
		out = append(out, in.Path)
	}
	return out
}

func languageOrAuto(lang string) string {
	if lang = NormalizeLanguage(lang); lang != "" {
		return lang
	}
	return "auto"
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTail {
		return s
	}
	return "..." + s[len(s)-stderrTail:]
}
