package eventplugin

import (
	"slices"
	"strings"
)

var modifierOrder = []string{"alt", "control", "meta", "shift"}

var keyAliases = map[string]string{
	" ":   "space",
	".":   "dot",
	"esc": "escape",
	"del": "delete",
}

// KeyPlugin handles key events narrowed by modifiers and key, written as
// "keydown.control.shift.enter" or "keyup.escape".
type KeyPlugin struct {
	NoGlobals
}

func NewKeyPlugin() *KeyPlugin {
	return &KeyPlugin{NoGlobals: NoGlobals{Plugin: "key"}}
}

// KeyFilter is a parsed key event name.
type KeyFilter struct {
	Type string

	// FullKey is the sorted modifiers followed by the key, joined by dots.
	FullKey string
}

// ParseKeyEvent parses a key event name. It reports false for names the
// plugin does not handle.
func ParseKeyEvent(eventName string) (KeyFilter, bool) {
	parts := strings.Split(strings.ToLower(eventName), ".")
	if len(parts) < 2 {
		return KeyFilter{}, false
	}

	typ := parts[0]
	if typ != "keydown" && typ != "keyup" {
		return KeyFilter{}, false
	}

	key := normalizeKey(parts[len(parts)-1])
	if key == "" {
		return KeyFilter{}, false
	}

	mods := parts[1 : len(parts)-1]
	var full []string
	for _, m := range modifierOrder {
		if i := slices.Index(mods, m); i >= 0 {
			mods = slices.Delete(slices.Clone(mods), i, i+1)
			full = append(full, m)
		}
	}
	if len(mods) > 0 {
		// unknown or repeated modifier
		return KeyFilter{}, false
	}

	return KeyFilter{Type: typ, FullKey: strings.Join(append(full, key), ".")}, true
}

// EventFullKey returns the full key of e in the format of KeyFilter.FullKey.
// A modifier is not repeated when it is the key itself.
func EventFullKey(e Event) string {
	key := normalizeKey(e.Key)
	held := []bool{e.Alt, e.Ctrl, e.Meta, e.Shift}

	var full []string
	for i, m := range modifierOrder {
		if held[i] && m != key {
			full = append(full, m)
		}
	}
	return strings.Join(append(full, key), ".")
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

func (p *KeyPlugin) Supports(eventName string) bool {
	_, ok := ParseKeyEvent(eventName)
	return ok
}

func (p *KeyPlugin) AddEventListener(target Target, eventName string, handler func(Event)) (func(), error) {
	filter, _ := ParseKeyEvent(eventName)

	return target.Listen(filter.Type, func(e Event) {
		if EventFullKey(e) == filter.FullKey {
			handler(e)
		}
	}), nil
}
