package asr

import (
	"context"
	"fmt"

	"github.com/rbright/hotscribe/internal/audio"
	"github.com/rbright/hotscribe/internal/failure"
)

// Echo reports what was recorded instead of transcribing it. It needs no
// network or model and is used for wiring checks.
type Echo struct{}

func (Echo) Name() string { return EngineEcho }

func (Echo) Transcribe(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := audio.ReadWAVInfo(in.Path)
	if err != nil {
		return "", failure.Wrap(failure.KindInput, "read recording", err)
	}
	return fmt.Sprintf("recorded %.1fs of audio", info.Duration.Seconds()), nil
}
