// Package hotkey parses shortcut specs and dispatches system-wide key-down events to bindings.
package hotkey

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vcaesar/keycode"

	"github.com/rbright/hotscribe/internal/failure"
)

// Key identifies a binding by exact keycode and modifier set.
type Key struct {
	Code uint16
	Mods Modifier
}

// String renders the key in canonical spec form, e.g. "ctrl+shift+r".
func (k Key) String() string {
	name := keyName(k.Code)
	if k.Mods == 0 {
		return name
	}
	return k.Mods.String() + "+" + name
}

// Parse converts a "modifier+...+key" spec into a Key.
func Parse(spec string) (Key, error) {
	normalized := strings.ToLower(strings.TrimSpace(spec))
	if normalized == "" {
		return Key{}, failure.New(failure.KindConfig, "hotkey spec is empty")
	}

	tokens := strings.Split(normalized, "+")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
		if tokens[i] == "" {
			return Key{}, failure.Errorf(failure.KindConfig, "hotkey %q contains an empty token", spec)
		}
	}

	last := tokens[len(tokens)-1]
	if _, isModifier := modifierNames[last]; isModifier {
		return Key{}, failure.Errorf(failure.KindConfig, "hotkey %q ends with modifier %q; a key is required", spec, last)
	}
	code, ok := keycode.Keycode[last]
	if !ok {
		return Key{}, failure.Errorf(failure.KindConfig, "unknown key %q in hotkey %q", last, spec)
	}

	var mods Modifier
	for _, token := range tokens[:len(tokens)-1] {
		mod, ok := modifierNames[token]
		if !ok {
			return Key{}, failure.Errorf(failure.KindConfig, "unknown modifier %q in hotkey %q", token, spec)
		}
		mods |= mod
	}

	return Key{Code: code, Mods: mods}, nil
}

// IsValid reports whether spec parses.
func IsValid(spec string) bool {
	_, err := Parse(spec)
	return err == nil
}

// ContainsModifier reports whether spec parses and requires at least one modifier.
func ContainsModifier(spec string) bool {
	key, err := Parse(spec)
	return err == nil && key.Mods != 0
}

var (
	namesOnce sync.Once
	names     map[uint16]string
)

// keyName returns the shortest table name for code, falling back to its number.
func keyName(code uint16) string {
	namesOnce.Do(func() {
		all := make([]string, 0, len(keycode.Keycode))
		for name := range keycode.Keycode {
			if _, isModifier := modifierNames[name]; isModifier {
				continue
			}
			all = append(all, name)
		}
		sort.Slice(all, func(i, j int) bool {
			if len(all[i]) != len(all[j]) {
				return len(all[i]) < len(all[j])
			}
			return all[i] < all[j]
		})

		names = make(map[uint16]string, len(all))
		for _, name := range all {
			c := keycode.Keycode[name]
			if _, seen := names[c]; !seen {
				names[c] = name
			}
		}
	})

	if name, ok := names[code]; ok {
		return name
	}
	return "code" + strconv.Itoa(int(code))
}
