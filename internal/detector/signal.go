package detector

import (
	"github.com/examsecure/examsecure-backend/internal/model"
)

// SignalType identifies the raw client-event channel a signal arrived on.
type SignalType string

const (
	SignalVisibility     SignalType = "visibility"
	SignalBlur           SignalType = "blur"
	SignalFocus          SignalType = "focus"
	SignalContextMenu    SignalType = "contextmenu"
	SignalCopy           SignalType = "copy"
	SignalPaste          SignalType = "paste"
	SignalCut            SignalType = "cut"
	SignalKeyDown        SignalType = "keydown"
	SignalKeyUp          SignalType = "keyup"
	SignalResize         SignalType = "resize"
	SignalWindowMetrics  SignalType = "metrics"
	SignalDisplayCapture SignalType = "display-capture"
)

// Signal is one raw ambient client event, reported by the exam client as it
// observes it. Field relevance depends on Type; unused fields are zero.
type Signal struct {
	Type SignalType `json:"type"`

	// Visibility.
	Hidden bool `json:"hidden,omitempty"`

	// Keyboard.
	Key   string `json:"key,omitempty"`
	Code  string `json:"code,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`

	// Resize (inner viewport size).
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Window metrics for the devtools heuristic.
	InnerWidth  int `json:"inner_width,omitempty"`
	InnerHeight int `json:"inner_height,omitempty"`
	OuterWidth  int `json:"outer_width,omitempty"`
	OuterHeight int `json:"outer_height,omitempty"`
}

// Event is a classified integrity observation produced by the detector.
type Event struct {
	Category    model.CheatCategory
	Description string
}

// Verdict is the detector's response to one signal. Suppress instructs the
// client to cancel the default action that produced the signal; Deny makes
// a display-capture request fail outright rather than silently no-op.
// Alert marks the signal as a candidate for the shared debounced
// screenshot-alert gate; the session decides whether the gate fires.
type Verdict struct {
	Suppress bool
	Deny     bool
	Alert    bool
	Events   []Event
}

func (v *Verdict) addEvent(category model.CheatCategory, description string) {
	v.Events = append(v.Events, Event{Category: category, Description: description})
}
