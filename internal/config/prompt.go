package config

import (
	"fmt"
	"strings"
)

// BuildPrompt merges the enabled vocabulary sets and instructions into the
// transcription prompt. Phrases keep first-seen order and are deduplicated
// case-insensitively.
func BuildPrompt(cfg Config) (string, []Warning, error) {
	phrases, warnings, err := enabledPhrases(cfg)
	if err != nil {
		return "", nil, err
	}

	parts := make([]string, 0, 2)
	if len(phrases) > 0 {
		parts = append(parts, "Vocabulary: "+strings.Join(phrases, ", "))
	}
	if len(cfg.Instructions) > 0 {
		parts = append(parts, "Instructions: "+strings.Join(cfg.Instructions, " "))
	}
	return strings.Join(parts, "\n\n"), warnings, nil
}

func enabledPhrases(cfg Config) ([]string, []Warning, error) {
	if len(cfg.Vocab.GlobalSets) == 0 {
		return nil, nil, nil
	}

	warnings := make([]Warning, 0)
	seen := make(map[string]string)
	phrases := make([]string, 0)

	for _, name := range cfg.Vocab.GlobalSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			key := strings.ToLower(phrase)
			if from, exists := seen[key]; exists {
				if from != name {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; keeping the first", phrase, from, name)})
				}
				continue
			}
			seen[key] = name
			phrases = append(phrases, phrase)
		}
	}

	if len(phrases) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(phrases), cfg.Vocab.MaxPhrases)
	}
	return phrases, warnings, nil
}
