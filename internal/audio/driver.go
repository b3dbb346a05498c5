package audio

import (
	"context"
	"fmt"
)

// StreamConfig selects the device and sample format of a capture stream.
// An empty DeviceID selects the system default source.
type StreamConfig struct {
	SampleRate int
	Channels   int
	DeviceID   string
}

// Validate rejects formats no driver can open.
func (c StreamConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	return nil
}

// StreamHandler receives driver callbacks. Chunks hold interleaved float32 samples
// in [-1, 1]; the slice may be reused by the driver after OnChunk returns.
type StreamHandler struct {
	OnChunk  func([]float32)
	OnStatus func(error)
}

// Stream is an open capture stream. No handler callbacks run after Close returns.
type Stream interface {
	Close() error
}

// Driver enumerates input devices and opens capture streams on them.
type Driver interface {
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, cfg StreamConfig, handler StreamHandler) (Stream, error)
}
