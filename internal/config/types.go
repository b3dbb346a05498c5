// Package config resolves, parses, validates, and defaults hotscribe configuration.
package config

// Config is the fully materialized runtime configuration used by hotscribe.
type Config struct {
	Hotkey        HotkeyConfig
	Audio         AudioConfig
	Transcription TranscriptionConfig
	Transcript    TranscriptConfig
	Vocab         VocabConfig
	Instructions  []string
	Clipboard     CommandConfig
	Notify        NotifyConfig
	Debug         DebugConfig
	LogLevel      string

	// APIKey is only ever read from the environment.
	APIKey string
}

// HotkeyConfig holds the global shortcut specs, e.g. "ctrl+shift+r".
type HotkeyConfig struct {
	Toggle     string
	Cancel     string
	DebounceMS int
}

// AudioConfig controls input-source selection and the capture format.
type AudioConfig struct {
	Input              string
	Fallback           string
	SampleRate         int
	Channels           int
	LowSignalThreshold float64
}

// TranscriptionConfig selects and tunes the speech-to-text backend.
type TranscriptionConfig struct {
	Engine     string
	Model      string
	Language   string
	BaseURL    string
	Command    CommandConfig
	TimeoutMS  int
	HealthGRPC string
}

// TranscriptConfig controls transcript normalization.
type TranscriptConfig struct {
	TrailingSpace bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled vocabulary sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group.
type VocabSet struct {
	Name    string
	Phrases []string
}

// NotifyConfig controls desktop notifications.
type NotifyConfig struct {
	Desktop   bool
	AppName   string
	TimeoutMS int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
