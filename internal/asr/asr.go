// Package asr adapts speech-to-text backends to a file-based transcription call.
package asr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/hotscribe/internal/failure"
)

// Engine names.
const (
	EngineOpenAI  = "openai"
	EngineCommand = "command"
	EngineEcho    = "echo"
)

// Input is one staged recording handed to a backend.
type Input struct {
	Path     string
	Duration time.Duration
	Language string
	Prompt   string
}

// Backend transcribes a WAV file.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, in Input) (string, error)
}

// Options selects and configures a backend.
type Options struct {
	Engine  string
	Model   string
	APIKey  string
	BaseURL string
	Command []string
	Logger  *slog.Logger
}

// New constructs the backend named by opts.Engine.
func New(opts Options) (Backend, error) {
	switch opts.Engine {
	case EngineOpenAI:
		return NewOpenAI(opts)
	case EngineCommand:
		return NewCommand(opts)
	case EngineEcho:
		return Echo{}, nil
	default:
		return nil, failure.Errorf(failure.KindConfig, "unknown transcription engine %q", opts.Engine)
	}
}

// NormalizeLanguage maps "" and "auto" to auto-detect ("") and lower-cases the rest.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if strings.EqualFold(lang, "auto") {
		return ""
	}
	return strings.ToLower(lang)
}

// Model describes one known model name for an engine.
type Model struct {
	Engine      string
	ID          string
	Description string
}

var catalog = []Model{
	{Engine: "openai", ID: "whisper-1", Description: "Hosted Whisper large-v2"},
	{Engine: "openai", ID: "gpt-4o-transcribe", Description: "Highest accuracy hosted model"},
	{Engine: "openai", ID: "gpt-4o-mini-transcribe", Description: "Faster, cheaper hosted model"},
	{Engine: "command", ID: "ggml-tiny.bin", Description: "Fastest local model, 39M parameters"},
	{Engine: "command", ID: "ggml-base.bin", Description: "Fast local model, 74M parameters"},
	{Engine: "command", ID: "ggml-base.en.bin", Description: "Fast English-only local model"},
	{Engine: "command", ID: "ggml-small.bin", Description: "Balanced local model, 244M parameters"},
	{Engine: "command", ID: "ggml-medium.bin", Description: "Accurate local model, 769M parameters"},
	{Engine: "command", ID: "ggml-large-v3.bin", Description: "Most accurate local model, 1550M parameters"},
	{Engine: "command", ID: "ggml-large-v3-turbo.bin", Description: "Fast and accurate local model, 809M parameters"},
}

// Models returns the known models for engine, or every model when engine is empty.
func Models(engine string) []Model {
	out := make([]Model, 0, len(catalog))
	for _, m := range catalog {
		if engine == "" || m.Engine == engine {
			out = append(out, m)
		}
	}
	return out
}

// KnownModel reports whether id names a catalogued model. Local models match
// on the file name so a full path to a ggml file is accepted.
func KnownModel(engine, id string) bool {
	if engine == EngineCommand {
		id = filepath.Base(id)
	}
	for _, m := range catalog {
		if m.Engine == engine && m.ID == id {
			return true
		}
	}
	return false
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func describe(in Input) string {
	return fmt.Sprintf("%s (%.1fs)", filepath.Base(in.Path), in.Duration.Seconds())
}
