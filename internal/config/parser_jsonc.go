package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Hotkey        *jsoncHotkey        `json:"hotkey"`
	Audio         *jsoncAudio         `json:"audio"`
	Transcription *jsoncTranscription `json:"transcription"`
	Transcript    *jsoncTranscript    `json:"transcript"`
	Notify        *jsoncNotify        `json:"notify"`
	Debug         *jsoncDebug         `json:"debug"`

	Vocab        *jsoncVocab      `json:"vocab"`
	Instructions *jsoncStringList `json:"instructions"`
	ClipboardCmd *string          `json:"clipboard_cmd"`
	LogLevel     *string          `json:"log_level"`
}

type jsoncHotkey struct {
	Toggle     *string `json:"toggle"`
	Cancel     *string `json:"cancel"`
	DebounceMS *int    `json:"debounce_ms"`
}

type jsoncAudio struct {
	Input              *string  `json:"input"`
	Fallback           *string  `json:"fallback"`
	SampleRate         *int     `json:"sample_rate"`
	Channels           *int     `json:"channels"`
	LowSignalThreshold *float64 `json:"low_signal_threshold"`
}

type jsoncTranscription struct {
	Engine     *string `json:"engine"`
	Model      *string `json:"model"`
	Language   *string `json:"language"`
	BaseURL    *string `json:"base_url"`
	Command    *string `json:"command"`
	TimeoutMS  *int    `json:"timeout_ms"`
	HealthGRPC *string `json:"health_grpc"`
}

type jsoncTranscript struct {
	TrailingSpace *bool `json:"trailing_space"`
}

type jsoncNotify struct {
	Desktop   *bool   `json:"desktop"`
	AppName   *string `json:"app_name"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Phrases []string `json:"phrases"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	cfg.Vocab.Sets = cloneSets(base.Vocab.Sets)
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if h := payload.Hotkey; h != nil {
		if h.Toggle != nil {
			cfg.Hotkey.Toggle = strings.TrimSpace(*h.Toggle)
		}
		if h.Cancel != nil {
			cfg.Hotkey.Cancel = strings.TrimSpace(*h.Cancel)
		}
		if h.DebounceMS != nil {
			cfg.Hotkey.DebounceMS = *h.DebounceMS
		}
	}

	if a := payload.Audio; a != nil {
		if a.Input != nil {
			cfg.Audio.Input = *a.Input
		}
		if a.Fallback != nil {
			cfg.Audio.Fallback = *a.Fallback
		}
		if a.SampleRate != nil {
			cfg.Audio.SampleRate = *a.SampleRate
		}
		if a.Channels != nil {
			cfg.Audio.Channels = *a.Channels
		}
		if a.LowSignalThreshold != nil {
			cfg.Audio.LowSignalThreshold = *a.LowSignalThreshold
		}
	}

	if tr := payload.Transcription; tr != nil {
		if tr.Engine != nil {
			cfg.Transcription.Engine = strings.ToLower(strings.TrimSpace(*tr.Engine))
		}
		if tr.Model != nil {
			cfg.Transcription.Model = strings.TrimSpace(*tr.Model)
		}
		if tr.Language != nil {
			cfg.Transcription.Language = strings.TrimSpace(*tr.Language)
		}
		if tr.BaseURL != nil {
			cfg.Transcription.BaseURL = strings.TrimSpace(*tr.BaseURL)
		}
		if tr.Command != nil {
			command, err := ParseCommand(*tr.Command)
			if err != nil {
				return nil, fmt.Errorf("invalid transcription.command: %w", err)
			}
			cfg.Transcription.Command = command
		}
		if tr.TimeoutMS != nil {
			cfg.Transcription.TimeoutMS = *tr.TimeoutMS
		}
		if tr.HealthGRPC != nil {
			cfg.Transcription.HealthGRPC = strings.TrimSpace(*tr.HealthGRPC)
		}
	}

	if payload.Transcript != nil && payload.Transcript.TrailingSpace != nil {
		cfg.Transcript.TrailingSpace = *payload.Transcript.TrailingSpace
	}

	if n := payload.Notify; n != nil {
		if n.Desktop != nil {
			cfg.Notify.Desktop = *n.Desktop
		}
		if n.AppName != nil {
			cfg.Notify.AppName = strings.TrimSpace(*n.AppName)
		}
		if n.TimeoutMS != nil {
			cfg.Notify.TimeoutMS = *n.TimeoutMS
		}
	}

	if payload.ClipboardCmd != nil {
		command, err := ParseCommand(*payload.ClipboardCmd)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = command
	}

	if payload.Instructions != nil {
		cfg.Instructions = nil
		for _, line := range *payload.Instructions {
			if line = strings.TrimSpace(line); line != "" {
				cfg.Instructions = append(cfg.Instructions, line)
			}
		}
	}

	if payload.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*payload.LogLevel))
	}

	if payload.Vocab != nil {
		if payload.Vocab.Global != nil {
			cfg.Vocab.GlobalSets = nil
			for _, name := range *payload.Vocab.Global {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				cfg.Vocab.GlobalSets = append(cfg.Vocab.GlobalSets, name)
			}
		}
		if payload.Vocab.MaxPhrases != nil {
			cfg.Vocab.MaxPhrases = *payload.Vocab.MaxPhrases
		}
		for name, set := range payload.Vocab.Sets {
			trimmedName := strings.TrimSpace(name)
			if trimmedName == "" {
				return nil, fmt.Errorf("vocab.sets contains an empty set name")
			}
			if len(set.Phrases) == 0 {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("vocab set %q has no phrases", trimmedName)})
			}
			phrases := make([]string, 0, len(set.Phrases))
			phrases = append(phrases, set.Phrases...)
			cfg.Vocab.Sets[trimmedName] = VocabSet{Name: trimmedName, Phrases: phrases}
		}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}

	return warnings, nil
}

func cloneSets(sets map[string]VocabSet) map[string]VocabSet {
	out := make(map[string]VocabSet, len(sets))
	for name, set := range sets {
		out[name] = set
	}
	return out
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
