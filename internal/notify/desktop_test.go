package notify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/failure"
	"github.com/rbright/hotscribe/internal/session"
)

var _ session.Listener = (*Desktop)(nil)

func installBusctlStub(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)

	script := "#!/usr/bin/env bash\nset -euo pipefail\nprintf '%s\\n' \"$*\" >> \"${BUSCTL_ARGS_FILE}\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "busctl"), []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
	return argsFile
}

func readCalls(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func testNotifyConfig() config.NotifyConfig {
	cfg := config.Default().Notify
	cfg.Desktop = true
	cfg.AppName = "hotscribe"
	cfg.TimeoutMS = 1600
	return cfg
}

func TestDesktopSessionReplacesOneNotification(t *testing.T) {
	argsFile := installBusctlStub(t, `echo "u 42"`)

	d := NewDesktop(testNotifyConfig(), nil)
	d.messages = messagesFor(localeEnglish)
	ctx := context.Background()

	d.RecordingStarted(ctx)
	d.RecordingStopped(ctx, true)
	d.TranscriptionComplete(ctx, "hello world ")

	calls := readCalls(t, argsFile)
	require.Len(t, calls, 3)
	require.Contains(t, calls[0], "Notify susssasa{sv}i hotscribe 0 audio-input-microphone Recording…  0 0 300000")
	require.Contains(t, calls[1], "hotscribe 42 audio-input-microphone Transcribing…  0 0 300000")
	require.Contains(t, calls[2], "hotscribe 42 audio-input-microphone Copied to clipboard hello world 0 0 1600")
}

func TestDesktopDiscardedRecordingDismisses(t *testing.T) {
	argsFile := installBusctlStub(t, `echo "u 7"`)

	d := NewDesktop(testNotifyConfig(), nil)
	d.RecordingStarted(context.Background())
	d.RecordingStopped(context.Background(), false)

	calls := readCalls(t, argsFile)
	require.Len(t, calls, 2)
	require.True(t, strings.HasSuffix(calls[1], "CloseNotification u 7"), calls[1])

	d.mu.Lock()
	defer d.mu.Unlock()
	require.Zero(t, d.id)
}

func TestDesktopDismissWithoutNotificationIsNoop(t *testing.T) {
	argsFile := installBusctlStub(t, `echo "u 7"`)

	d := NewDesktop(testNotifyConfig(), nil)
	d.RecordingStopped(context.Background(), false)

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
}

func TestDesktopFailedUsesKindSummary(t *testing.T) {
	argsFile := installBusctlStub(t, `echo "u 3"`)

	d := NewDesktop(testNotifyConfig(), nil)
	d.messages = messagesFor(localeEnglish)
	d.Failed(context.Background(), failure.KindNoSpeech, "nothing heard")

	calls := readCalls(t, argsFile)
	require.Len(t, calls, 1)
	require.Contains(t, calls[0], "No speech detected nothing heard 0 0 1600")
}

func TestDesktopDisabledSkipsBusctl(t *testing.T) {
	argsFile := installBusctlStub(t, `echo "u 1"`)

	cfg := testNotifyConfig()
	cfg.Desktop = false
	d := NewDesktop(cfg, nil)
	d.RecordingStarted(context.Background())
	d.Failed(context.Background(), failure.KindDevice, "no mic")

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
}

func TestDesktopNotifyRejectsMalformedReply(t *testing.T) {
	installBusctlStub(t, `echo "garbage"`)

	_, err := desktopNotify(context.Background(), "hotscribe", 0, "x", "", 100)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid response")
}

func TestDesktopNotifyIncludesCommandOutputOnFailure(t *testing.T) {
	installBusctlStub(t, `echo "no session bus" >&2; exit 1`)

	_, err := desktopNotify(context.Background(), "hotscribe", 0, "x", "", 100)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no session bus")
}

func TestPreviewTruncatesLongText(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := preview(long)
	require.Len(t, []rune(got), 80)
	require.True(t, strings.HasSuffix(got, "…"))
	require.Equal(t, "short", preview(" short "))
}
