package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examsecure/examsecure-backend/internal/response"
	"github.com/examsecure/examsecure-backend/internal/session"
)

// MonitorHandler gives exam administrators a read-only window into live
// attempts. It only reads session snapshots; attempt state can never be
// mutated through this surface.
type MonitorHandler struct {
	sessions *session.Manager
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(sessions *session.Manager) *MonitorHandler {
	return &MonitorHandler{sessions: sessions}
}

// Overview godoc
// GET /api/v1/admin/monitor
// Live attempt count across all exams.
func (h *MonitorHandler) Overview(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"active_attempts": h.sessions.ActiveCount(),
	})
}

// AttemptEvents godoc
// GET /api/v1/admin/attempts/:userId/events
// The cheat-event log of one taker's in-progress attempt. Ended attempts
// are not held in memory; their events live in the archive.
func (h *MonitorHandler) AttemptEvents(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("userId"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return
	}

	st := s.Snapshot()
	response.Success(c, http.StatusOK, gin.H{
		"attempt_id":    st.Attempt.ID,
		"exam_id":       st.Attempt.ExamID,
		"status":        st.Attempt.Status,
		"events":        st.CheatEvents,
		"warning_count": st.Attempt.WarningCount,
		"max_warnings":  st.MaxWarnings,
	})
}
