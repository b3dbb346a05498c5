// Package pipeline turns a finalized recording into committed transcript text.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/hotscribe/internal/asr"
	"github.com/rbright/hotscribe/internal/audio"
	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/failure"
	"github.com/rbright/hotscribe/internal/transcribe"
	"github.com/rbright/hotscribe/internal/transcript"
)

// Engine stages each recording as a WAV file, hands it to an ASR backend,
// and normalizes the result. It implements transcribe.Engine.
type Engine struct {
	backend    asr.Backend
	prompt     string
	transcript transcript.Options
	tempDir    string
	dumpDir    string
	logger     *slog.Logger
}

var _ transcribe.Engine = (*Engine)(nil)

// NewEngine constructs an engine from runtime config. The vocabulary prompt is
// built once here.
func NewEngine(cfg config.Config, backend asr.Backend, logger *slog.Logger) (*Engine, error) {
	prompt, warnings, err := config.BuildPrompt(cfg)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	e := &Engine{
		backend:    backend,
		prompt:     prompt,
		transcript: transcript.Options{TrailingSpace: cfg.Transcript.TrailingSpace},
		logger:     logger,
	}
	for _, w := range warnings {
		e.logWarn(w.Message)
	}

	if cfg.Debug.EnableAudioDump {
		stateDir, err := resolveStateDir()
		if err != nil {
			return nil, err
		}
		e.dumpDir = filepath.Join(stateDir, "hotscribe", "debug")
	}
	return e, nil
}

// Transcribe implements transcribe.Engine.
func (e *Engine) Transcribe(ctx context.Context, req transcribe.Request) (string, error) {
	if req.Audio == nil || len(req.Audio.Samples) == 0 {
		return "", failure.New(failure.KindInput, "no audio to transcribe")
	}

	path, encoding, err := audio.WriteTempWAV(e.tempDir, req.Audio)
	if err != nil {
		return "", failure.Wrap(failure.KindResource, "stage recording", err)
	}
	defer e.release(path)

	if encoding != audio.EncodingPCM16 {
		e.logWarn(fmt.Sprintf("recording staged as %s", encoding))
	}

	text, err := e.backend.Transcribe(ctx, asr.Input{
		Path:     path,
		Duration: req.Audio.Duration(),
		Language: req.Language,
		Prompt:   e.prompt,
	})
	if err != nil {
		return "", err
	}
	return transcript.Normalize(text, e.transcript), nil
}

// release removes the staged file, or keeps it under the debug directory
// when debug.audio_dump is enabled.
func (e *Engine) release(path string) {
	if e.dumpDir == "" {
		_ = os.Remove(path)
		return
	}

	if err := os.MkdirAll(e.dumpDir, 0o700); err != nil {
		e.logWarn(fmt.Sprintf("unable to create debug dir: %v", err))
		_ = os.Remove(path)
		return
	}
	target := filepath.Join(e.dumpDir, fmt.Sprintf("audio-%s.wav", time.Now().Format("20060102-150405.000")))
	if err := os.Rename(path, target); err != nil {
		e.logWarn(fmt.Sprintf("unable to keep debug audio dump: %v", err))
		_ = os.Remove(path)
		return
	}
	if e.logger != nil {
		e.logger.Debug("kept debug audio dump", "path", target)
	}
}

// resolveStateDir returns XDG_STATE_HOME or its ~/.local/state fallback.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

func (e *Engine) logWarn(message string) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(message)
}
