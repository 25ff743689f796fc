package model

import (
	"time"
)

// CheatCategory is the closed set of classified integrity-violation kinds.
type CheatCategory string

const (
	CheatTabSwitch         CheatCategory = "tab-switch"
	CheatScreenshotAttempt CheatCategory = "screenshot-attempt"
	CheatCopyPaste         CheatCategory = "copy-paste"
	CheatRightClick        CheatCategory = "right-click"
	CheatSuspicious        CheatCategory = "suspicious-activity"
	CheatDevTools          CheatCategory = "devtools"
)

// Penalizable reports whether events of this category count toward the
// attempt's warning threshold. Resize-derived suspicious activity is
// recorded for review but never escalates on its own.
func (c CheatCategory) Penalizable() bool {
	return c != CheatSuspicious
}

// CheatEvent is an immutable, timestamped record of a suspected integrity
// violation. Events are append-only for the lifetime of the attempt.
type CheatEvent struct {
	Category    CheatCategory `json:"category"`
	Description string        `json:"description"`
	Timestamp   time.Time     `json:"timestamp"`
}
