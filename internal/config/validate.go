package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rbright/hotscribe/internal/asr"
	"github.com/rbright/hotscribe/internal/failure"
	"github.com/rbright/hotscribe/internal/hotkey"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}([-_][A-Za-z]{2,4})?$`)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := validateHotkeys(cfg.Hotkey); err != nil {
		return nil, err
	}

	if cfg.Audio.SampleRate < 8000 || cfg.Audio.SampleRate > 192000 {
		return nil, fmt.Errorf("audio.sample_rate must be between 8000 and 192000")
	}
	if cfg.Audio.Channels != 1 && cfg.Audio.Channels != 2 {
		return nil, fmt.Errorf("audio.channels must be 1 or 2")
	}
	if cfg.Audio.LowSignalThreshold < 0 || cfg.Audio.LowSignalThreshold >= 1 {
		return nil, fmt.Errorf("audio.low_signal_threshold must be in [0, 1)")
	}

	transcriptionWarnings, err := validateTranscription(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, transcriptionWarnings...)

	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	_, vocabWarnings, err := BuildPrompt(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	if !cfg.Clipboard.Enabled() {
		warnings = append(warnings, Warning{Message: "clipboard_cmd is empty; transcripts will only be logged"})
	}

	if cfg.Notify.Desktop && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.desktop=true")
	}
	if cfg.Notify.TimeoutMS < 0 {
		return nil, fmt.Errorf("notify.timeout_ms must be >= 0")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}

func validateHotkeys(cfg HotkeyConfig) error {
	if strings.TrimSpace(cfg.Toggle) == "" {
		return failure.New(failure.KindConfig, "hotkey.toggle must not be empty")
	}
	toggle, err := hotkey.Parse(cfg.Toggle)
	if err != nil {
		return fmt.Errorf("hotkey.toggle: %w", err)
	}
	if cfg.Cancel != "" {
		cancel, err := hotkey.Parse(cfg.Cancel)
		if err != nil {
			return fmt.Errorf("hotkey.cancel: %w", err)
		}
		if cancel == toggle {
			return failure.Errorf(failure.KindConfig, "hotkey.cancel must differ from hotkey.toggle (%s)", toggle)
		}
	}
	if cfg.DebounceMS < 0 {
		return failure.New(failure.KindConfig, "hotkey.debounce_ms must be >= 0")
	}
	return nil
}

func validateTranscription(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)
	tr := cfg.Transcription

	switch tr.Engine {
	case EngineOpenAI:
		if tr.BaseURL != "" {
			if u, err := url.Parse(tr.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				return nil, fmt.Errorf("transcription.base_url must be an absolute URL")
			}
		}
	case EngineCommand:
		if !tr.Command.Enabled() {
			return nil, fmt.Errorf("transcription.command must be set when transcription.engine=command")
		}
		if !strings.Contains(tr.Command.Raw, "{file}") {
			warnings = append(warnings, Warning{Message: "transcription.command has no {file} placeholder; the recording path will be appended"})
		}
	case EngineEcho:
	default:
		return nil, fmt.Errorf("transcription.engine must be one of: openai, command, echo")
	}

	if tr.Engine != EngineEcho && tr.Model == "" {
		return nil, fmt.Errorf("transcription.model must not be empty")
	}
	if tr.Model != "" && tr.Engine != EngineEcho && !asr.KnownModel(tr.Engine, tr.Model) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("transcription.model %q is not a known %s model", tr.Model, tr.Engine)})
	}

	if lang := asr.NormalizeLanguage(tr.Language); lang != "" && !languagePattern.MatchString(lang) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("transcription.language %q does not look like a language code", tr.Language)})
	}
	if tr.TimeoutMS < 0 {
		return nil, fmt.Errorf("transcription.timeout_ms must be >= 0")
	}
	return warnings, nil
}
