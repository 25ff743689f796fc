package detector

import (
	"time"

	"github.com/examsecure/examsecure-backend/internal/model"
)

// Event descriptions mirror what the exam client used to report, so the
// archived log stays readable for reviewers.
const (
	descTabSwitch      = "User switched to another tab or minimized the window"
	descWindowBlur     = "Window lost focus"
	descContextMenu    = "User attempted to open context menu"
	descCopy           = "User attempted to copy text"
	descPaste          = "User attempted to paste text"
	descScreenshot     = "Screenshot attempt detected"
	descResize         = "Suspicious window resize detected"
	descDevTools       = "Developer tools might be open"
	descDisplayCapture = "Screen capture API invocation blocked"
)

// Options tunes the detector's heuristics. Zero values fall back to the
// defaults the original thresholds were tuned with.
type Options struct {
	// DebounceWindow is the shared cooldown of the screenshot-alert gate.
	DebounceWindow time.Duration
	// ResizeDeltaPx is the per-axis window-size jump that flags a resize
	// as suspicious.
	ResizeDeltaPx int
	// DevToolsGapPx is the outer/inner dimension gap that flags devtools.
	DevToolsGapPx int
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 2 * time.Second
	}
	if o.ResizeDeltaPx <= 0 {
		o.ResizeDeltaPx = 200
	}
	if o.DevToolsGapPx <= 0 {
		o.DevToolsGapPx = 160
	}
	return o
}

// Detector classifies raw client signals into cheat-event categories while
// armed. It carries the cross-signal state the heuristics need: visibility
// edge tracking, the resize baseline, the latest window metrics, and the
// shared debounce gate for the screenshot alert.
//
// The detector is not safe for concurrent use; the owning session delivers
// signals to it one turn at a time.
type Detector struct {
	opts  Options
	armed bool

	hidden    bool
	lastW     int
	lastH     int
	sized     bool
	metrics   Signal
	hasMetric bool

	lastAlert time.Time
	alerted   bool
}

// New creates a disarmed detector.
func New(opts Options) *Detector {
	return &Detector{opts: opts.withDefaults()}
}

// Arm enables all channels. Cross-signal state is reset so a new attempt
// never inherits edges or cooldowns from a previous one.
func (d *Detector) Arm() {
	d.armed = true
	d.hidden = false
	d.sized = false
	d.hasMetric = false
	d.alerted = false
}

// Disarm disables every channel. Signals classified while disarmed produce
// an empty verdict: no suppression, no events, no alerts.
func (d *Detector) Disarm() {
	d.armed = false
}

// Armed reports whether the detector is currently observing.
func (d *Detector) Armed() bool {
	return d.armed
}

// Classify maps one raw signal to a verdict at the given instant.
func (d *Detector) Classify(sig Signal, now time.Time) Verdict {
	var v Verdict
	if !d.armed {
		return v
	}

	switch sig.Type {
	case SignalVisibility:
		// Edge-triggered: only the transition into hidden counts.
		if sig.Hidden && !d.hidden {
			v.addEvent(model.CheatTabSwitch, descTabSwitch)
		}
		d.hidden = sig.Hidden

	case SignalBlur:
		v.addEvent(model.CheatTabSwitch, descWindowBlur)

	case SignalFocus:
		d.hidden = false

	case SignalContextMenu:
		v.Suppress = true
		v.addEvent(model.CheatRightClick, descContextMenu)

	case SignalCopy:
		v.Suppress = true
		v.addEvent(model.CheatCopyPaste, descCopy)

	case SignalPaste:
		v.Suppress = true
		v.addEvent(model.CheatCopyPaste, descPaste)

	case SignalCut:
		// Suppressed silently; no event.
		v.Suppress = true

	case SignalKeyDown:
		d.classifyKey(sig, false, &v)

	case SignalKeyUp:
		d.classifyKey(sig, true, &v)

	case SignalResize:
		d.classifyResize(sig, &v)

	case SignalWindowMetrics:
		d.metrics = sig
		d.hasMetric = true

	case SignalDisplayCapture:
		// The caller must receive a definitive failure, not a silent no-op.
		v.Deny = true
		v.Alert = true
	}

	return v
}

// classifyResize flags a large jump in either window axis between two
// consecutive resize signals. The first resize after arming only sets the
// baseline. Informational: the event is recorded but never routed through
// the alert gate.
func (d *Detector) classifyResize(sig Signal, v *Verdict) {
	if d.sized {
		dw := abs(sig.Width - d.lastW)
		dh := abs(sig.Height - d.lastH)
		if dw > d.opts.ResizeDeltaPx || dh > d.opts.ResizeDeltaPx {
			v.addEvent(model.CheatSuspicious, descResize)
		}
	}
	d.lastW, d.lastH = sig.Width, sig.Height
	d.sized = true
}

// PollDevTools evaluates the devtools heuristic against the most recently
// reported window metrics. Called on a fixed interval by the session.
func (d *Detector) PollDevTools(now time.Time) Verdict {
	var v Verdict
	if !d.armed || !d.hasMetric {
		return v
	}

	gapW := d.metrics.OuterWidth - d.metrics.InnerWidth
	gapH := d.metrics.OuterHeight - d.metrics.InnerHeight
	if gapW > d.opts.DevToolsGapPx || gapH > d.opts.DevToolsGapPx {
		v.addEvent(model.CheatDevTools, descDevTools)
		v.Alert = true
	}
	return v
}

// AlertGate applies the shared debounce window to a screenshot-alert
// candidate. It returns true when the gate fires; calls within the cooldown
// are no-ops. The gate exists because one physical action can surface
// through several overlapping signals (a print-screen press matches on both
// keydown and keyup), and one action must count as one violation.
func (d *Detector) AlertGate(now time.Time) bool {
	if !d.armed {
		return false
	}
	if d.alerted && now.Sub(d.lastAlert) < d.opts.DebounceWindow {
		return false
	}
	d.lastAlert = now
	d.alerted = true
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
