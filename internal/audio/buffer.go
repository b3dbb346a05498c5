package audio

import (
	"fmt"
	"math"
	"time"
)

// DefaultLowSignalThreshold is the peak amplitude below which input is reported as suspiciously quiet.
const DefaultLowSignalThreshold = 0.01

// Buffer is one finalized recording: interleaved float32 samples in [-1, 1].
// A Buffer is not modified after Session.Stop returns it.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Levels summarizes the absolute amplitude of a buffer.
type Levels struct {
	Peak float64
	Mean float64
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Levels computes peak and mean absolute amplitude. NaN samples are skipped.
func (b *Buffer) Levels() Levels {
	if b == nil || len(b.Samples) == 0 {
		return Levels{}
	}
	var peak, sum float64
	counted := 0
	for _, s := range b.Samples {
		v := math.Abs(float64(s))
		if math.IsNaN(v) {
			continue
		}
		if v > peak {
			peak = v
		}
		sum += v
		counted++
	}
	if counted == 0 {
		return Levels{}
	}
	return Levels{Peak: peak, Mean: sum / float64(counted)}
}

// PCM16 converts samples to signed 16-bit PCM scaled by 32767. Values outside
// [-1, 1] are clipped; NaN or infinite samples fail the conversion.
func (b *Buffer) PCM16() ([]int16, error) {
	if b == nil {
		return nil, fmt.Errorf("buffer is nil")
	}
	out := make([]int16, len(b.Samples))
	for i, s := range b.Samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("sample %d is not finite", i)
		}
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int16(v * 32767)
	}
	return out, nil
}

// concat joins chunks in order into a single buffer.
func concat(chunks [][]float32, sampleRate, channels int) *Buffer {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	samples := make([]float32, 0, total)
	for _, c := range chunks {
		samples = append(samples, c...)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}
}
