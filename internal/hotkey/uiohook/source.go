// Package uiohook feeds system-wide key events from libuiohook (via gohook) into the hotkey dispatcher.
package uiohook

import (
	"errors"
	"os"
	"runtime"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/rbright/hotscribe/internal/hotkey"
)

// ErrHookActive is returned when Open is called while a hook is already running.
var ErrHookActive = errors.New("uiohook: hook already active")

// libuiohook allows a single hook per process.
var active sync.Mutex

// Source adapts gohook's global event stream to hotkey.Source.
type Source struct {
	goos   string
	getenv func(string) string

	mu   sync.Mutex
	open bool
	quit chan struct{}
	done chan struct{}
}

// New returns an unopened source.
func New() *Source {
	return &Source{goos: runtime.GOOS, getenv: os.Getenv}
}

// Open starts the hook and forwards key-pressed events. gohook reports no start
// failure, so a session that cannot deliver key events is rejected up front.
func (s *Source) Open() (<-chan hotkey.KeyEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := hotkey.CheckTap(s.goos, s.getenv); err != nil {
		return nil, err
	}

	if s.open {
		select {
		case <-s.done:
			// The previous hook ended on its own; release it before starting again.
			s.open = false
			hook.End()
			active.Unlock()
		default:
			return nil, ErrHookActive
		}
	}
	if !active.TryLock() {
		return nil, ErrHookActive
	}

	raw := hook.Start()
	out := make(chan hotkey.KeyEvent, 64)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	s.open = true

	go forward(raw, out, s.quit, s.done)
	return out, nil
}

// Close stops the hook. Safe to call when not open.
func (s *Source) Close() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = false
	quit, done := s.quit, s.done
	s.mu.Unlock()

	close(quit)
	hook.End()
	<-done
	active.Unlock()
	return nil
}

func forward(raw chan hook.Event, out chan<- hotkey.KeyEvent, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	for {
		select {
		case <-quit:
			return
		case ev, ok := <-raw:
			if !ok {
				return
			}
			// KeyHold carries EVENT_KEY_PRESSED with a virtual keycode; KeyDown is the typed-character event.
			if ev.Kind != hook.KeyHold {
				continue
			}
			select {
			case out <- hotkey.KeyEvent{Code: ev.Keycode, Flags: ev.Mask, When: ev.When}:
			case <-quit:
				return
			}
		}
	}
}
