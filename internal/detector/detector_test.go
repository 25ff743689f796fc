package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examsecure/examsecure-backend/internal/model"
)

func armedDetector(t *testing.T) *Detector {
	t.Helper()
	d := New(Options{})
	d.Arm()
	return d
}

func TestVisibilityEdgeTriggered(t *testing.T) {
	d := armedDetector(t)
	now := time.Now()

	v := d.Classify(Signal{Type: SignalVisibility, Hidden: true}, now)
	require.Len(t, v.Events, 1)
	assert.Equal(t, model.CheatTabSwitch, v.Events[0].Category)

	// Repeated hidden reports while already hidden are not new violations.
	v = d.Classify(Signal{Type: SignalVisibility, Hidden: true}, now)
	assert.Empty(t, v.Events)

	// Coming back and hiding again is a fresh edge.
	d.Classify(Signal{Type: SignalFocus}, now)
	v = d.Classify(Signal{Type: SignalVisibility, Hidden: true}, now)
	assert.Len(t, v.Events, 1)
}

func TestBlurAlwaysRecords(t *testing.T) {
	d := armedDetector(t)
	now := time.Now()

	for i := 0; i < 3; i++ {
		v := d.Classify(Signal{Type: SignalBlur}, now)
		require.Len(t, v.Events, 1)
		assert.Equal(t, model.CheatTabSwitch, v.Events[0].Category)
	}
}

func TestClipboardAndContextMenuSuppressed(t *testing.T) {
	tests := []struct {
		name     string
		sig      Signal
		category model.CheatCategory
		event    bool
	}{
		{"contextmenu", Signal{Type: SignalContextMenu}, model.CheatRightClick, true},
		{"copy", Signal{Type: SignalCopy}, model.CheatCopyPaste, true},
		{"paste", Signal{Type: SignalPaste}, model.CheatCopyPaste, true},
		{"cut", Signal{Type: SignalCut}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := armedDetector(t)
			v := d.Classify(tt.sig, time.Now())
			assert.True(t, v.Suppress)
			if !tt.event {
				assert.Empty(t, v.Events)
				return
			}
			require.Len(t, v.Events, 1)
			assert.Equal(t, tt.category, v.Events[0].Category)
		})
	}
}

func TestDisarmedProducesNothing(t *testing.T) {
	d := New(Options{})
	now := time.Now()

	for _, sig := range []Signal{
		{Type: SignalVisibility, Hidden: true},
		{Type: SignalBlur},
		{Type: SignalContextMenu},
		{Type: SignalKeyDown, Key: "PrintScreen"},
		{Type: SignalDisplayCapture},
	} {
		v := d.Classify(sig, now)
		assert.Equal(t, Verdict{}, v, "signal %s", sig.Type)
	}
	assert.False(t, d.AlertGate(now))
	assert.Equal(t, Verdict{}, d.PollDevTools(now))
}

func TestKeyDownTable(t *testing.T) {
	tests := []struct {
		name     string
		sig      Signal
		suppress bool
		alert    bool
		devtools bool
	}{
		{"print screen", Signal{Key: "PrintScreen"}, true, true, false},
		{"print screen by code", Signal{Key: "Unidentified", Code: "PrintScreen"}, true, true, false},
		{"win snip", Signal{Key: "S", Shift: true, Meta: true}, true, true, false},
		{"ctrl snip", Signal{Key: "s", Shift: true, Ctrl: true}, true, true, false},
		{"mac screenshot 3", Signal{Key: "3", Shift: true, Meta: true}, true, true, false},
		{"mac screenshot 4", Signal{Key: "4", Shift: true, Meta: true}, true, true, false},
		{"mac screenshot 5", Signal{Key: "5", Shift: true, Meta: true}, true, true, false},
		{"game bar", Signal{Key: "g", Meta: true}, true, true, false},
		{"print dialog ctrl", Signal{Key: "p", Ctrl: true}, true, true, false},
		{"print dialog cmd", Signal{Key: "P", Meta: true}, true, true, false},
		{"f12", Signal{Key: "F12"}, true, true, true},
		{"ctrl c", Signal{Key: "c", Ctrl: true}, true, false, false},
		{"ctrl v", Signal{Key: "v", Ctrl: true}, true, false, false},
		{"cmd a", Signal{Key: "a", Meta: true}, true, false, false},
		{"ctrl u", Signal{Key: "u", Ctrl: true}, true, false, false},
		{"alt tab", Signal{Key: "Tab", Alt: true}, true, false, false},
		{"plain letter", Signal{Key: "a"}, false, false, false},
		{"shift letter", Signal{Key: "S", Shift: true}, false, false, false},
		{"plain number 3", Signal{Key: "3", Shift: true}, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := armedDetector(t)
			sig := tt.sig
			sig.Type = SignalKeyDown
			v := d.Classify(sig, time.Now())
			assert.Equal(t, tt.suppress, v.Suppress, "suppress")
			assert.Equal(t, tt.alert, v.Alert, "alert")
			if tt.devtools {
				require.Len(t, v.Events, 1)
				assert.Equal(t, model.CheatDevTools, v.Events[0].Category)
			} else {
				assert.Empty(t, v.Events)
			}
		})
	}
}

func TestPrintScreenKeyUp(t *testing.T) {
	d := armedDetector(t)
	now := time.Now()

	// The release is an alert candidate so hardware that only reports keyup
	// is still caught; it never suppresses and records nothing by itself.
	v := d.Classify(Signal{Type: SignalKeyUp, Key: "PrintScreen"}, now)
	assert.True(t, v.Alert)
	assert.False(t, v.Suppress)
	assert.Empty(t, v.Events)

	v = d.Classify(Signal{Type: SignalKeyUp, Key: "a"}, now)
	assert.Equal(t, Verdict{}, v)
}

func TestDisplayCaptureDenied(t *testing.T) {
	d := armedDetector(t)
	v := d.Classify(Signal{Type: SignalDisplayCapture}, time.Now())
	assert.True(t, v.Deny)
	assert.True(t, v.Alert)
	assert.False(t, v.Suppress)
	assert.Empty(t, v.Events)
}

func TestAlertGateDebounce(t *testing.T) {
	d := New(Options{DebounceWindow: 2 * time.Second})
	d.Arm()
	t0 := time.Now()

	assert.True(t, d.AlertGate(t0))
	assert.False(t, d.AlertGate(t0.Add(500*time.Millisecond)))
	assert.False(t, d.AlertGate(t0.Add(1999*time.Millisecond)))
	assert.True(t, d.AlertGate(t0.Add(2*time.Second)))

	// Re-arming resets the cooldown.
	d.Arm()
	assert.True(t, d.AlertGate(t0.Add(2100*time.Millisecond)))
}

func TestResizeBaselineAndThreshold(t *testing.T) {
	d := New(Options{ResizeDeltaPx: 200})
	d.Arm()
	now := time.Now()

	// The first sample after arming only establishes the baseline.
	v := d.Classify(Signal{Type: SignalResize, Width: 1280, Height: 800}, now)
	assert.Empty(t, v.Events)

	v = d.Classify(Signal{Type: SignalResize, Width: 1180, Height: 850}, now)
	assert.Empty(t, v.Events)

	v = d.Classify(Signal{Type: SignalResize, Width: 700, Height: 850}, now)
	require.Len(t, v.Events, 1)
	assert.Equal(t, model.CheatSuspicious, v.Events[0].Category)
	assert.False(t, v.Alert)
	assert.False(t, v.Suppress)

	// The flagged sample becomes the new baseline.
	v = d.Classify(Signal{Type: SignalResize, Width: 710, Height: 860}, now)
	assert.Empty(t, v.Events)

	// Arming again drops the baseline.
	d.Arm()
	v = d.Classify(Signal{Type: SignalResize, Width: 1920, Height: 1080}, now)
	assert.Empty(t, v.Events)
}

func TestDevToolsPoll(t *testing.T) {
	d := New(Options{DevToolsGapPx: 160})
	d.Arm()
	now := time.Now()

	// No metrics reported yet.
	assert.Equal(t, Verdict{}, d.PollDevTools(now))

	d.Classify(Signal{
		Type:       SignalWindowMetrics,
		InnerWidth: 1280, InnerHeight: 720,
		OuterWidth: 1290, OuterHeight: 800,
	}, now)
	assert.Equal(t, Verdict{}, d.PollDevTools(now))

	d.Classify(Signal{
		Type:       SignalWindowMetrics,
		InnerWidth: 900, InnerHeight: 720,
		OuterWidth: 1290, OuterHeight: 800,
	}, now)
	v := d.PollDevTools(now)
	require.Len(t, v.Events, 1)
	assert.Equal(t, model.CheatDevTools, v.Events[0].Category)
	assert.True(t, v.Alert)
}
