package hotkey

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/hotscribe/internal/failure"
)

// DefaultJoinTimeout bounds how long Stop waits for the dispatcher goroutine.
const DefaultJoinTimeout = time.Second

var (
	// ErrAlreadyRunning is returned by Start while the dispatcher goroutine is alive.
	ErrAlreadyRunning = errors.New("hotkey dispatcher already running")
	// ErrSourceClosed reports a key tap that ended without Stop being called.
	ErrSourceClosed = failure.New(failure.KindPermission, "key event source closed; hotkeys disabled until restarted")
)

// Options tunes a Dispatcher.
type Options struct {
	Logger         *slog.Logger
	DebounceWindow time.Duration
	JoinTimeout    time.Duration
	// OnError receives background failures of the key tap, once per failure.
	OnError func(error)
	// Now supplies the fire time for events without a timestamp.
	Now func() time.Time
}

// Dispatcher owns a key source, the binding registry, and the debouncer. Actions run
// synchronously on the dispatcher goroutine, one at a time, in arrival order.
type Dispatcher struct {
	source   Source
	registry *Registry
	debounce *Debouncer
	logger   *slog.Logger
	join     time.Duration
	onError  func(error)
	now      func() time.Time

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// NewDispatcher builds a stopped dispatcher around source.
func NewDispatcher(source Source, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	window := opts.DebounceWindow
	if window == 0 {
		window = DefaultDebounceWindow
	}
	join := opts.JoinTimeout
	if join <= 0 {
		join = DefaultJoinTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	onError := opts.OnError
	if onError == nil {
		onError = func(error) {}
	}

	return &Dispatcher{
		source:   source,
		registry: NewRegistry(),
		debounce: NewDebouncer(window),
		logger:   logger,
		join:     join,
		onError:  onError,
		now:      now,
	}
}

// Register binds spec to action, replacing an existing binding for the same chord.
func (d *Dispatcher) Register(spec string, action func()) (Key, error) {
	key, err := Parse(spec)
	if err != nil {
		return Key{}, err
	}
	d.register(Binding{Key: key, Spec: key.String(), Action: action})
	return key, nil
}

// RegisterKey binds an already-parsed key.
func (d *Dispatcher) RegisterKey(key Key, action func()) {
	d.register(Binding{Key: key, Spec: key.String(), Action: action})
}

func (d *Dispatcher) register(b Binding) {
	if replaced := d.registry.Register(b); replaced {
		d.logger.Info("hotkey binding replaced", "hotkey", b.Spec)
		return
	}
	d.logger.Info("hotkey registered", "hotkey", b.Spec)
}

// Unregister removes the binding for key.
func (d *Dispatcher) Unregister(key Key) bool {
	return d.registry.Unregister(key)
}

// UnregisterSpec parses spec and removes its binding.
func (d *Dispatcher) UnregisterSpec(spec string) (bool, error) {
	key, err := Parse(spec)
	if err != nil {
		return false, err
	}
	return d.registry.Unregister(key), nil
}

// ClearAll removes every binding.
func (d *Dispatcher) ClearAll() {
	d.registry.Clear()
}

// Bindings returns the registered bindings.
func (d *Dispatcher) Bindings() []Binding {
	return d.registry.Bindings()
}

// Running reports whether the dispatcher goroutine is alive.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running()
}

func (d *Dispatcher) running() bool {
	if d.done == nil {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

// Start opens the key source and starts dispatching. A failed open leaves the
// dispatcher stopped and may be retried.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running() {
		return ErrAlreadyRunning
	}

	events, err := d.source.Open()
	if err != nil {
		return failure.Wrap(failure.KindPermission, "open key event source", err)
	}

	d.stopCh = make(chan struct{})
	d.done = make(chan struct{})
	go d.loop(events, d.stopCh, d.done)

	d.logger.Info("hotkey dispatcher started", "bindings", d.registry.Len())
	return nil
}

// Stop closes the source and waits up to the join timeout for the dispatcher goroutine.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running() {
		d.mu.Unlock()
		return nil
	}
	stopCh, done := d.stopCh, d.done
	close(stopCh)
	d.mu.Unlock()

	if err := d.source.Close(); err != nil {
		d.logger.Warn("close key event source failed", "error", err.Error())
	}

	select {
	case <-done:
		d.logger.Info("hotkey dispatcher stopped")
		return nil
	case <-time.After(d.join):
		d.logger.Error("hotkey dispatcher did not exit; abandoning", "timeout_ms", d.join.Milliseconds())
		return errors.New("hotkey dispatcher join timed out")
	}
}

func (d *Dispatcher) loop(events <-chan KeyEvent, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				select {
				case <-stopCh:
				default:
					d.logger.Error("key event source closed unexpectedly")
					d.onError(ErrSourceClosed)
				}
				return
			}
			d.onKeyDown(ev)
		}
	}
}

// onKeyDown fires the binding that exactly matches ev, subject to debounce.
func (d *Dispatcher) onKeyDown(ev KeyEvent) {
	key := Key{Code: ev.Code, Mods: ModifiersFromFlags(ev.Flags)}
	binding, ok := d.registry.Lookup(key)
	if !ok {
		return
	}

	at := ev.When
	if at.IsZero() {
		at = d.now()
	}
	if !d.debounce.Allow(key, at) {
		d.logger.Debug("hotkey debounced", "hotkey", binding.Spec)
		return
	}

	d.logger.Debug("hotkey fired", "hotkey", binding.Spec)
	if binding.Action != nil {
		binding.Action()
	}
}
