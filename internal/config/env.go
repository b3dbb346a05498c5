package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// envOverrides are process-environment values layered over the config file.
// Empty values leave the file setting untouched.
type envOverrides struct {
	Hotkey   string `env:"HOTSCRIBE_HOTKEY"`
	Language string `env:"HOTSCRIBE_LANGUAGE"`
	Engine   string `env:"HOTSCRIBE_ENGINE"`
	Model    string `env:"HOTSCRIBE_MODEL"`
	LogLevel string `env:"HOTSCRIBE_LOG_LEVEL"`
	APIKey   string `env:"OPENAI_API_KEY"`
	BaseURL  string `env:"OPENAI_BASE_URL"`
}

// loadDotEnv reads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func loadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %q: %w", file, err)
		}
	}
	return nil
}

// applyEnv overlays environment variables onto cfg and reports what it changed.
func applyEnv(cfg *Config) ([]string, error) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	applied := make([]string, 0)
	set := func(name, value string, dst *string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		*dst = value
		applied = append(applied, name)
	}

	set("HOTSCRIBE_HOTKEY", overrides.Hotkey, &cfg.Hotkey.Toggle)
	set("HOTSCRIBE_LANGUAGE", overrides.Language, &cfg.Transcription.Language)
	set("HOTSCRIBE_ENGINE", strings.ToLower(overrides.Engine), &cfg.Transcription.Engine)
	set("HOTSCRIBE_MODEL", overrides.Model, &cfg.Transcription.Model)
	set("HOTSCRIBE_LOG_LEVEL", strings.ToLower(overrides.LogLevel), &cfg.LogLevel)
	set("OPENAI_BASE_URL", overrides.BaseURL, &cfg.Transcription.BaseURL)
	// The key is a secret; record only that it was present.
	set("OPENAI_API_KEY", overrides.APIKey, &cfg.APIKey)

	return applied, nil
}
