package config

import (
	"github.com/rbright/hotscribe/internal/asr"
	"github.com/rbright/hotscribe/internal/hotkey"
)

// Engine names accepted by transcription.engine.
const (
	EngineOpenAI  = asr.EngineOpenAI
	EngineCommand = asr.EngineCommand
	EngineEcho    = asr.EngineEcho
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Hotkey: HotkeyConfig{
			Toggle:     "ctrl+shift+r",
			DebounceMS: int(hotkey.DefaultDebounceWindow.Milliseconds()),
		},
		Audio: AudioConfig{
			Input:              "default",
			Fallback:           "default",
			SampleRate:         16000,
			Channels:           1,
			LowSignalThreshold: 0.01,
		},
		Transcription: TranscriptionConfig{
			Engine: EngineOpenAI,
			Model:  "whisper-1",
		},
		Transcript: TranscriptConfig{TrailingSpace: true},
		Vocab: VocabConfig{
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Notify: NotifyConfig{
			Desktop:   true,
			AppName:   "hotscribe",
			TimeoutMS: 1600,
		},
		LogLevel: "info",
	}
}
