package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "hotscribe", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "hotscribe", "config.jsonc"), resolved)
}

// clearEnv unsets the override variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOTSCRIBE_HOTKEY", "HOTSCRIBE_LANGUAGE", "HOTSCRIBE_ENGINE", "HOTSCRIBE_MODEL",
		"HOTSCRIBE_LOG_LEVEL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCParsesAndValidates(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `
{
  "hotkey": {"toggle": "ctrl+alt+r"},
  "audio": {
    "input": "default",
    "fallback": "default"
  },
  "notify": {"desktop": false}
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "ctrl+alt+r", loaded.Config.Hotkey.Toggle)
	require.False(t, loaded.Config.Notify.Desktop)
	require.Empty(t, loaded.EnvApplied)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"transcription": {"language": "en"}}`), 0o600))

	t.Setenv("HOTSCRIBE_HOTKEY", "ctrl+alt+h")
	t.Setenv("HOTSCRIBE_LANGUAGE", "ja")
	t.Setenv("HOTSCRIBE_ENGINE", "ECHO")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ctrl+alt+h", loaded.Config.Hotkey.Toggle)
	require.Equal(t, "ja", loaded.Config.Transcription.Language)
	require.Equal(t, EngineEcho, loaded.Config.Transcription.Engine)
	require.Equal(t, "sk-test", loaded.Config.APIKey)
	require.ElementsMatch(t, []string{"HOTSCRIBE_HOTKEY", "HOTSCRIBE_LANGUAGE", "HOTSCRIBE_ENGINE", "OPENAI_API_KEY"}, loaded.EnvApplied)
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HOTSCRIBE_MODEL=gpt-4o-transcribe\nOPENAI_API_KEY=sk-dotenv\n"), 0o600))

	t.Setenv("OPENAI_API_KEY", "sk-process")
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-transcribe", loaded.Config.Transcription.Model)
	// Process environment wins over .env.
	require.Equal(t, "sk-process", loaded.Config.APIKey)
}

func TestLoadInvalidEnvironmentNamesSource(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "missing.jsonc")
	t.Setenv("HOTSCRIBE_HOTKEY", "ctrl+")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "HOTSCRIBE_HOTKEY")
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}
