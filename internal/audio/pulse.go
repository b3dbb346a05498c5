package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	fragmentDuration = 20 // ms
	bytesPerSample   = 4  // float32le

	// stallTimeout is how long a running stream may go without data before
	// the source is inspected and the stall reported through OnStatus.
	stallTimeout = time.Second
)

// PulseDriver captures from PulseAudio/PipeWire sources.
type PulseDriver struct {
	appName string
}

// NewPulseDriver returns a driver that identifies itself to the server as appName.
func NewPulseDriver(appName string) *PulseDriver {
	if appName == "" {
		appName = "hotscribe"
	}
	return &PulseDriver{appName: appName}
}

func (d *PulseDriver) connect() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(d.appName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// Devices lists input sources with default/availability metadata.
func (d *PulseDriver) Devices(_ context.Context) ([]Device, error) {
	client, err := d.connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			Channels:    len(source.ChannelMap),
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// Open starts a float32 record stream on cfg.DeviceID (or the default source).
func (d *PulseDriver) Open(_ context.Context, cfg StreamConfig, handler StreamHandler) (Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := d.connect()
	if err != nil {
		return nil, err
	}

	var source *pulse.Source
	if cfg.DeviceID == "" {
		source, err = client.DefaultSource()
	} else {
		source, err = client.SourceByID(cfg.DeviceID)
	}
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", cfg.DeviceID, err)
	}

	layout := pulse.RecordMono
	if cfg.Channels == 2 {
		layout = pulse.RecordStereo
	}

	ps := &pulseStream{
		client:    client,
		handler:   handler,
		frameSize: bytesPerSample * cfg.Channels,
		quit:      make(chan struct{}),
		watched:   make(chan struct{}),
	}
	sourceName := source.ID()
	ps.inspect = func() (bool, error) {
		var info pulseproto.GetSourceInfoReply
		err := client.RawRequest(&pulseproto.GetSourceInfo{SourceIndex: pulseproto.Undefined, SourceName: sourceName}, &info)
		if err != nil {
			return false, fmt.Errorf("pulse source %q unavailable: %w", sourceName, err)
		}
		return info.Mute, nil
	}
	fragment := cfg.SampleRate * fragmentDuration / 1000 * ps.frameSize

	writer := pulse.NewWriter(writerFunc(ps.onPCM), pulseproto.FormatFloat32LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		layout,
		pulse.RecordSampleRate(cfg.SampleRate),
		pulse.RecordBufferFragmentSize(uint32(fragment)),
		pulse.RecordMediaName(d.appName+" dictation"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	ps.stream = stream
	ps.lastData = time.Now()
	stream.Start()
	go ps.watch(stallTimeout)
	return ps, nil
}

// pulseStream decodes float32le frames into sample slices for the handler.
type pulseStream struct {
	client    *pulse.Client
	stream    *pulse.RecordStream
	handler   StreamHandler
	frameSize int

	// inspect reports whether the source is muted, or why it is gone.
	inspect func() (muted bool, err error)
	quit    chan struct{}
	watched chan struct{}

	mu       sync.Mutex
	pending  []byte
	closed   bool
	lastData time.Time
}

func (s *pulseStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.quit != nil {
		close(s.quit)
		<-s.watched
	}

	var streamErr error
	if s.stream != nil {
		s.stream.Stop()
		streamErr = s.stream.Error()
		s.stream.Close()
	}
	s.client.Close()
	return streamErr
}

// onPCM receives raw Pulse bytes and forwards whole frames.
func (s *pulseStream) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.EOF
	}

	s.lastData = time.Now()
	s.pending = append(s.pending, buffer...)
	whole := len(s.pending) / s.frameSize * s.frameSize
	if whole == 0 {
		return len(buffer), nil
	}

	samples := decodeFloat32LE(s.pending[:whole])
	s.pending = append(s.pending[:0], s.pending[whole:]...)

	if s.handler.OnChunk != nil {
		s.handler.OnChunk(samples)
	}
	return len(buffer), nil
}

// watch reports one status per stall: a stream that delivers nothing for
// timeout while open. Data arriving again re-arms it.
func (s *pulseStream) watch(timeout time.Duration) {
	defer close(s.watched)

	ticker := time.NewTicker(timeout / 4)
	defer ticker.Stop()

	reported := false
	for {
		select {
		case <-s.quit:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			idle := now.Sub(s.lastData)
			s.mu.Unlock()

			if idle < timeout {
				reported = false
				continue
			}
			if reported {
				continue
			}
			reported = true
			if s.handler.OnStatus != nil {
				s.handler.OnStatus(s.stallError(idle))
			}
		}
	}
}

func (s *pulseStream) stallError(idle time.Duration) error {
	idle = idle.Round(time.Millisecond)
	muted, err := s.inspect()
	switch {
	case err != nil:
		return fmt.Errorf("no audio for %s: %w", idle, err)
	case muted:
		return fmt.Errorf("no audio for %s: source is muted", idle)
	default:
		return fmt.Errorf("no audio for %s: source is silent or suspended", idle)
	}
}

func decodeFloat32LE(b []byte) []float32 {
	out := make([]float32, len(b)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*bytesPerSample:]))
	}
	return out
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// ListDevices returns Pulse input sources.
func ListDevices(ctx context.Context) ([]Device, error) {
	return NewPulseDriver("").Devices(ctx)
}

// SelectDevice resolves audio.input/audio.fallback preferences against live Pulse devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	return SelectWith(ctx, NewPulseDriver(""), input, fallback)
}

// SelectWith resolves preferences against the devices reported by driver.
func SelectWith(ctx context.Context, driver Driver, input string, fallback string) (Selection, error) {
	if driver == nil {
		return Selection{}, errors.New("audio driver is nil")
	}
	devices, err := driver.Devices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return SelectFrom(devices, input, fallback)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
