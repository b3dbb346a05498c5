// Package failure defines the error taxonomy shared by the hotkey, capture, and transcription stages.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for user messaging.
type Kind string

const (
	KindConfig         Kind = "config"
	KindPermission     Kind = "permission"
	KindDevice         Kind = "device"
	KindEmptyRecording Kind = "empty_recording"
	KindBusy           Kind = "busy"
	KindNoSpeech       Kind = "no_speech"

	KindConnectivity Kind = "transcription.connectivity"
	KindResource     Kind = "transcription.resource"
	KindInput        Kind = "transcription.input"
	KindUnknown      Kind = "transcription.unknown"
)

// Transcription reports whether k is one of the transcription sub-kinds.
func (k Kind) Transcription() bool {
	switch k {
	case KindConnectivity, KindResource, KindInput, KindUnknown:
		return true
	default:
		return false
	}
}

// Error is a classified failure. Err is optional.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error with a fixed message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Errorf returns a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// KindUnknown for unclassified errors, and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
