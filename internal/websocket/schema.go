package websocket

import (
	"github.com/examsecure/examsecure-backend/internal/detector"
	"github.com/examsecure/examsecure-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSignal Action = "signal"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// SignalRequest carries one raw client observation. Seq is echoed back on
// the verdict so the client can pair suppression decisions with the event
// it is still holding.
type SignalRequest struct {
	Action Action          `json:"action"`
	Seq    uint64          `json:"seq"`
	Signal detector.Signal `json:"signal"`
}

// PingRequest keeps the connection alive between signals.
type PingRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventVerdict         Event = "verdict"
	EventWarning         Event = "warning"
	EventScreenshotAlert Event = "screenshot_alert"
	EventDisqualified    Event = "disqualified"
	EventAutoSubmitted   Event = "auto_submitted"
	EventError           Event = "error"
	EventPong            Event = "pong"
)

// VerdictResponse answers one SignalRequest.
type VerdictResponse struct {
	Event    Event  `json:"event"`
	Seq      uint64 `json:"seq"`
	Suppress bool   `json:"suppress"`
	Deny     bool   `json:"deny"`
}

// WarningResponse tells the taker a penalizable event was recorded.
type WarningResponse struct {
	Event        Event  `json:"event"`
	Message      string `json:"message"`
	WarningCount int    `json:"warning_count"`
	MaxWarnings  int    `json:"max_warnings"`
}

// ScreenshotAlertResponse drives the full-screen capture flash.
type ScreenshotAlertResponse struct {
	Event        Event `json:"event"`
	WarningCount int   `json:"warning_count"`
	MaxWarnings  int   `json:"max_warnings"`
}

// DisqualifiedResponse is the final message before the server closes the
// stream on a cancelled attempt.
type DisqualifiedResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

// AutoSubmittedResponse is sent when the countdown reaches zero.
type AutoSubmittedResponse struct {
	Event  Event             `json:"event"`
	Result *model.ExamResult `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
