package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examsecure/examsecure-backend/internal/middleware"
	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/session"
	ws "github.com/examsecure/examsecure-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowed-origins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SignalWSHandler streams raw client signals into the attempt session and
// enforcement feedback back out.
type SignalWSHandler struct {
	sessions *session.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewSignalWSHandler creates a new SignalWSHandler.
func NewSignalWSHandler(sessions *session.Manager, log zerolog.Logger, allowedOrigins []string) *SignalWSHandler {
	return &SignalWSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "signal_ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wsNotifier forwards session notifications onto the connection's outbound
// queue. Sends never block a session turn: when the queue is full the
// notification is dropped, since enforcement already happened server-side.
type wsNotifier struct {
	out chan interface{}
	log zerolog.Logger
}

func (n *wsNotifier) send(v interface{}) {
	select {
	case n.out <- v:
	default:
		n.log.Warn().Msg("Outbound queue full, dropping notification")
	}
}

func (n *wsNotifier) Warning(message string, count, max int) {
	n.send(ws.WarningResponse{Event: ws.EventWarning, Message: message, WarningCount: count, MaxWarnings: max})
}

func (n *wsNotifier) ScreenshotAlert(count, max int) {
	n.send(ws.ScreenshotAlertResponse{Event: ws.EventScreenshotAlert, WarningCount: count, MaxWarnings: max})
}

func (n *wsNotifier) Disqualified(reason string) {
	n.send(ws.DisqualifiedResponse{Event: ws.EventDisqualified, Reason: reason})
}

func (n *wsNotifier) AutoSubmitted(result *model.ExamResult) {
	n.send(ws.AutoSubmittedResponse{Event: ws.EventAutoSubmitted, Result: result})
}

// Stream godoc
// WS /ws/v1/attempt/signals?token=...
// Upgrades to WebSocket for the live attempt's signal stream. The client
// sends raw observations; the server answers each with a verdict and pushes
// warning, screenshot, disqualification, and auto-submit events.
func (h *SignalWSHandler) Stream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	s, err := h.sessions.Get(claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active attempt"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID).
		Str("attempt_id", s.AttemptID()).
		Logger()

	// Single-writer rule: the session goroutine and the read loop both
	// produce messages, so everything funnels through one outbound queue
	// drained by one writer goroutine.
	out := make(chan interface{}, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for v := range out {
			if err := ws.WriteTyped(conn, v); err != nil {
				wsLog.Debug().Err(err).Msg("Outbound write failed")
				return
			}
		}
	}()

	notifier := &wsNotifier{out: out, log: wsLog}
	s.AttachNotifier(notifier)
	wsLog.Info().Msg("Signal stream connected")

	h.readLoop(conn, s, notifier, wsLog)

	// Detach before closing the queue so no session turn can enqueue into
	// a closed channel.
	s.AttachNotifier(nil)
	close(out)
	<-writerDone
	wsLog.Info().Msg("Signal stream disconnected")
}

func (h *SignalWSHandler) readLoop(conn *websocket.Conn, s *session.Session, notifier *wsNotifier, wsLog zerolog.Logger) {
	for {
		var msg ws.SignalRequest
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			notifier.send(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionSignal:
			verdict, err := s.Signal(msg.Signal)
			if err != nil {
				if errors.Is(err, session.ErrAttemptEnded) {
					// Final events are already queued; let the client see
					// them and close.
					return
				}
				notifier.send(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
				continue
			}
			notifier.send(ws.VerdictResponse{
				Event:    ws.EventVerdict,
				Seq:      msg.Seq,
				Suppress: verdict.Suppress,
				Deny:     verdict.Deny,
			})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			notifier.send(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}
