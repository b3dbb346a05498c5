// Package transcript normalizes backend output before it is committed.
package transcript

import (
	"regexp"
	"strings"
)

// Options controls transcript formatting.
type Options struct {
	TrailingSpace bool
}

// nonSpeech matches the bracketed annotations local whisper builds emit for
// silence or noise, e.g. [BLANK_AUDIO] or (wind blowing).
var nonSpeech = regexp.MustCompile(`\[[A-Z_ ]+\]|\((?i:silence|music|noise|inaudible|wind blowing)\)`)

// Normalize strips non-speech markers and collapses whitespace. An input with
// no speech left normalizes to "" regardless of TrailingSpace.
func Normalize(text string, opts Options) string {
	text = nonSpeech.ReplaceAllString(text, " ")
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return ""
	}
	if opts.TrailingSpace {
		return normalized + " "
	}
	return normalized
}
