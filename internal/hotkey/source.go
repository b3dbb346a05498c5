package hotkey

import "time"

// KeyEvent is one system-wide key-down.
type KeyEvent struct {
	Code  uint16
	Flags uint16
	When  time.Time
}

// Source delivers key-down events from a platform input tap.
//
// Open starts the tap. The returned channel is closed when the tap ends,
// either through Close or because the platform revoked it.
type Source interface {
	Open() (<-chan KeyEvent, error)
	Close() error
}
