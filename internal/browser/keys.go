package browser

import (
	"strings"

	"github.com/chromedp/cdproto/input"
)

// modifierFor maps a modifier key name to its DevTools bitmask entry.
func modifierFor(name string) (input.Modifier, bool) {
	switch strings.ToLower(name) {
	case "alt", "option":
		return input.ModifierAlt, true
	case "ctrl", "control":
		return input.ModifierCtrl, true
	case "meta", "cmd", "command", "win", "super":
		return input.ModifierMeta, true
	case "shift":
		return input.ModifierShift, true
	default:
		return 0, false
	}
}

// keyAliases maps the key names models emit to the DOM key values the
// DevTools protocol expects. Single characters pass through unchanged.
var keyAliases = map[string]string{
	"enter":     "Enter",
	"return":    "Enter",
	"tab":       "Tab",
	"space":     " ",
	"esc":       "Escape",
	"escape":    "Escape",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"page_up":   "PageUp",
	"pagedown":  "PageDown",
	"page_down": "PageDown",
	"up":        "ArrowUp",
	"arrowup":   "ArrowUp",
	"down":      "ArrowDown",
	"arrowdown": "ArrowDown",
	"left":      "ArrowLeft",
	"arrowleft": "ArrowLeft",
	"right":     "ArrowRight",
	"arrowright": "ArrowRight",
	"f1":  "F1",
	"f2":  "F2",
	"f3":  "F3",
	"f4":  "F4",
	"f5":  "F5",
	"f6":  "F6",
	"f7":  "F7",
	"f8":  "F8",
	"f9":  "F9",
	"f10": "F10",
	"f11": "F11",
	"f12": "F12",
}

// mapKeyName normalizes a model-emitted key name to a DOM key value.
func mapKeyName(name string) string {
	if len(name) == 1 {
		return name
	}
	if mapped, ok := keyAliases[strings.ToLower(name)]; ok {
		return mapped
	}
	return name
}
