package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// Encoding names the sample format written to a WAV file.
type Encoding string

const (
	EncodingPCM16   Encoding = "pcm16"
	EncodingFloat32 Encoding = "float32"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// WAVInfo describes a decoded WAV file.
type WAVInfo struct {
	SampleRate int
	Channels   int
	Frames     int
	Duration   time.Duration
}

// WriteWAV persists buf as 16-bit PCM. If the samples cannot be converted it writes
// 32-bit float instead so the recording is not lost.
func WriteWAV(path string, buf *Buffer) (Encoding, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return "", errors.New("write wav: buffer is empty")
	}

	pcm, convErr := buf.PCM16()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create wav %q: %w", path, err)
	}

	encoding := EncodingPCM16
	if convErr == nil {
		err = encodePCM16(file, buf, pcm)
	} else {
		encoding = EncodingFloat32
		err = encodeFloat32(file, buf)
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("encode wav %q: %w", path, err)
	}
	return encoding, nil
}

// WriteTempWAV writes buf to a uniquely named file in dir (os.TempDir when empty).
func WriteTempWAV(dir string, buf *Buffer) (string, Encoding, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", fmt.Errorf("create audio dir: %w", err)
	}
	path := filepath.Join(dir, "recording-"+uuid.NewString()+".wav")
	encoding, err := WriteWAV(path, buf)
	if err != nil {
		return "", "", err
	}
	return path, encoding, nil
}

func encodePCM16(file *os.File, buf *Buffer, pcm []int16) error {
	enc := wav.NewEncoder(file, buf.SampleRate, 16, buf.Channels, wavFormatPCM)
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: buf.Channels, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		return err
	}
	return enc.Close()
}

func encodeFloat32(file *os.File, buf *Buffer) error {
	enc := wav.NewEncoder(file, buf.SampleRate, 32, buf.Channels, wavFormatFloat)
	for _, s := range buf.Samples {
		if err := enc.WriteFrame(s); err != nil {
			return err
		}
	}
	return enc.Close()
}

// ReadWAVInfo decodes the header and sample count of a PCM WAV file.
func ReadWAVInfo(path string) (WAVInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("read wav %q: not a valid wav file", path)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return WAVInfo{}, fmt.Errorf("read wav %q: %w", path, err)
	}
	if pcm == nil || pcm.Format == nil || pcm.Format.NumChannels <= 0 || pcm.Format.SampleRate <= 0 {
		return WAVInfo{}, fmt.Errorf("read wav %q: missing format", path)
	}

	frames := len(pcm.Data) / pcm.Format.NumChannels
	return WAVInfo{
		SampleRate: pcm.Format.SampleRate,
		Channels:   pcm.Format.NumChannels,
		Frames:     frames,
		Duration:   time.Duration(frames) * time.Second / time.Duration(pcm.Format.SampleRate),
	}, nil
}
