package detector

import (
	"strings"

	"github.com/examsecure/examsecure-backend/internal/model"
)

// keyAction is the classification outcome for one keyboard combination.
type keyAction int

const (
	keyNone keyAction = iota
	// keySuppress cancels the default action without recording anything.
	keySuppress
	// keyAlert cancels the default action and routes through the debounced
	// screenshot-alert gate.
	keyAlert
	// keyDevTools is keyAlert plus an immediate devtools suspicion event.
	keyDevTools
)

// blockedClipboardKeys are generic ctrl/cmd combinations cancelled with no
// event beyond what the clipboard channel already reports.
var blockedClipboardKeys = map[string]struct{}{
	"c": {}, "v": {}, "x": {}, "p": {}, "s": {}, "a": {}, "u": {},
}

// matchKeyDown classifies a keydown combination against the fixed table of
// screenshot, snip, recording, print, and devtools shortcuts.
func matchKeyDown(sig Signal) keyAction {
	key := strings.ToLower(sig.Key)

	// Print-screen key press.
	if sig.Key == "PrintScreen" || sig.Code == "PrintScreen" {
		return keyAlert
	}

	// OS snipping tool: Win+Shift+S / Cmd+Shift+S.
	if key == "s" && sig.Shift && (sig.Meta || sig.Ctrl) {
		return keyAlert
	}

	// macOS screenshots: Cmd+Shift+3 / 4 / 5.
	if (key == "3" || key == "4" || key == "5") && sig.Shift && sig.Meta {
		return keyAlert
	}

	// Screen-recording toolbar: Win+G.
	if key == "g" && sig.Meta {
		return keyAlert
	}

	// Print dialog.
	if key == "p" && (sig.Ctrl || sig.Meta) {
		return keyAlert
	}

	if sig.Key == "F12" {
		return keyDevTools
	}

	if sig.Ctrl || sig.Meta {
		if _, ok := blockedClipboardKeys[key]; ok {
			return keySuppress
		}
	}

	// Detectable but not preventable; cancel anyway.
	if sig.Alt && sig.Key == "Tab" {
		return keySuppress
	}

	return keyNone
}

// classifyKey applies the keyboard table. On keyup only the print-screen
// release matters: it fires after the key press already did, and the shared
// gate collapses the pair into one alert.
func (d *Detector) classifyKey(sig Signal, keyUp bool, v *Verdict) {
	if keyUp {
		if sig.Key == "PrintScreen" || sig.Code == "PrintScreen" {
			v.Alert = true
		}
		return
	}

	switch matchKeyDown(sig) {
	case keySuppress:
		v.Suppress = true
	case keyAlert:
		v.Suppress = true
		v.Alert = true
	case keyDevTools:
		v.Suppress = true
		v.Alert = true
		v.addEvent(model.CheatDevTools, descDevTools)
	}
}
