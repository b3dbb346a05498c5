package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hotscribe/internal/asr"
	"github.com/rbright/hotscribe/internal/audio"
	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/failure"
	"github.com/rbright/hotscribe/internal/transcribe"
)

type recordingBackend struct {
	text      string
	err       error
	inputs    []asr.Input
	sawStaged bool
}

func (b *recordingBackend) Name() string { return "fake" }

func (b *recordingBackend) Transcribe(_ context.Context, in asr.Input) (string, error) {
	b.inputs = append(b.inputs, in)
	if info, err := audio.ReadWAVInfo(in.Path); err == nil && info.Frames > 0 {
		b.sawStaged = true
	}
	return b.text, b.err
}

func testBuffer() *audio.Buffer {
	return &audio.Buffer{Samples: make([]float32, 4800), SampleRate: 16000, Channels: 1}
}

func newTestEngine(t *testing.T, cfg config.Config, backend asr.Backend) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, backend, nil)
	require.NoError(t, err)
	engine.tempDir = t.TempDir()
	return engine
}

func TestEngineStagesRecordingAndNormalizesText(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Vocab.GlobalSets = []string{"team"}
	cfg.Vocab.Sets = map[string]config.VocabSet{"team": {Name: "team", Phrases: []string{"Hyprland", "PipeWire"}}}

	backend := &recordingBackend{text: "  hello\n world "}
	engine := newTestEngine(t, cfg, backend)

	text, err := engine.Transcribe(context.Background(), transcribe.Request{Audio: testBuffer(), Language: "de"})
	require.NoError(t, err)
	require.Equal(t, "hello world ", text)

	require.True(t, backend.sawStaged)
	require.Len(t, backend.inputs, 1)
	in := backend.inputs[0]
	require.Equal(t, "de", in.Language)
	require.Equal(t, 300*time.Millisecond, in.Duration)
	require.Equal(t, "Vocabulary: Hyprland, PipeWire", in.Prompt)

	_, statErr := os.Stat(in.Path)
	require.True(t, os.IsNotExist(statErr), "staged file is removed after transcription")
}

func TestEngineRespectsTrailingSpaceSetting(t *testing.T) {
	cfg := config.Default()
	cfg.Transcript.TrailingSpace = false

	engine := newTestEngine(t, cfg, &recordingBackend{text: "done"})
	text, err := engine.Transcribe(context.Background(), transcribe.Request{Audio: testBuffer()})
	require.NoError(t, err)
	require.Equal(t, "done", text)
}

func TestEngineReturnsBackendErrorAndCleansUp(t *testing.T) {
	want := failure.New(failure.KindConnectivity, "unreachable")
	backend := &recordingBackend{err: want}
	engine := newTestEngine(t, config.Default(), backend)

	_, err := engine.Transcribe(context.Background(), transcribe.Request{Audio: testBuffer()})
	require.ErrorIs(t, err, want)

	_, statErr := os.Stat(backend.inputs[0].Path)
	require.True(t, os.IsNotExist(statErr))
}

func TestEngineRejectsEmptyAudio(t *testing.T) {
	backend := &recordingBackend{}
	engine := newTestEngine(t, config.Default(), backend)

	_, err := engine.Transcribe(context.Background(), transcribe.Request{})
	require.Equal(t, failure.KindInput, failure.KindOf(err))

	_, err = engine.Transcribe(context.Background(), transcribe.Request{Audio: &audio.Buffer{SampleRate: 16000, Channels: 1}})
	require.Equal(t, failure.KindInput, failure.KindOf(err))
	require.Empty(t, backend.inputs)
}

func TestEngineKeepsAudioDumpWhenEnabled(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateDir)

	cfg := config.Default()
	cfg.Debug.EnableAudioDump = true
	engine := newTestEngine(t, cfg, &recordingBackend{text: "kept"})

	_, err := engine.Transcribe(context.Background(), transcribe.Request{Audio: testBuffer()})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(stateDir, "hotscribe", "debug", "audio-*.wav"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	info, err := audio.ReadWAVInfo(matches[0])
	require.NoError(t, err)
	require.Equal(t, 4800, info.Frames)
}

func TestNewEngineRejectsUnknownVocabSet(t *testing.T) {
	cfg := config.Default()
	cfg.Vocab.GlobalSets = []string{"missing"}

	_, err := NewEngine(cfg, &recordingBackend{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "build prompt")
}
