package notify

import (
	"os"
	"strings"

	"github.com/rbright/hotscribe/internal/failure"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	recording    string
	transcribing string
	copied       string
	failures     map[failure.Kind]string
	fallback     string
}

func messagesFromEnv() messages {
	return messagesFor(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func messagesFor(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			recording:    "Recording…",
			transcribing: "Transcribing…",
			copied:       "Copied to clipboard",
			failures: map[failure.Kind]string{
				failure.KindConfig:         "Configuration error",
				failure.KindPermission:     "Keyboard access denied",
				failure.KindDevice:         "Microphone unavailable",
				failure.KindEmptyRecording: "Nothing was recorded",
				failure.KindBusy:           "Still transcribing the previous recording",
				failure.KindNoSpeech:       "No speech detected",
				failure.KindConnectivity:   "Transcription service unreachable",
				failure.KindResource:       "Transcription resources or access unavailable",
				failure.KindInput:          "Recording could not be transcribed",
			},
			fallback: "Speech recognition error",
		}
	}
}

// failureSummary returns the headline for kind.
func (m messages) failureSummary(kind failure.Kind) string {
	if text, ok := m.failures[kind]; ok {
		return text
	}
	return m.fallback
}
