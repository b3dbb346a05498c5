package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageForms(t *testing.T) {
	cause := errors.New("device busy")

	require.Equal(t, "plain", New(KindDevice, "plain").Error())
	require.Equal(t, "open stream: device busy", Wrap(KindDevice, "open stream", cause).Error())
	require.Equal(t, "device busy", Wrap(KindDevice, "", cause).Error())
	require.Equal(t, `unknown key "zz"`, Errorf(KindConfig, "unknown key %q", "zz").Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.NoError(t, Wrap(KindDevice, "open", nil))
}

func TestKindOfFollowsWrapChain(t *testing.T) {
	base := New(KindBusy, "transcription in progress")
	wrapped := fmt.Errorf("toggle: %w", base)

	require.Equal(t, KindBusy, KindOf(wrapped))
	require.True(t, Is(wrapped, KindBusy))
	require.False(t, Is(wrapped, KindDevice))
	require.ErrorIs(t, wrapped, base)
}

func TestKindOfUnclassifiedAndNil(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	require.Equal(t, Kind(""), KindOf(nil))
	require.False(t, Is(nil, KindUnknown))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(KindPermission, "open key tap", cause)
	require.ErrorIs(t, err, cause)
}

func TestTranscriptionKinds(t *testing.T) {
	for _, kind := range []Kind{KindConnectivity, KindResource, KindInput, KindUnknown} {
		require.True(t, kind.Transcription(), kind)
	}
	for _, kind := range []Kind{KindConfig, KindPermission, KindDevice, KindEmptyRecording, KindBusy, KindNoSpeech} {
		require.False(t, kind.Transcription(), kind)
	}
}
