package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/examsecure/examsecure-backend/internal/detector"
	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/session"
	"github.com/examsecure/examsecure-backend/internal/store"
)

func monitorFixture(t *testing.T) *session.Manager {
	t.Helper()
	st := store.New(bcrypt.MinCost)
	_, err := st.CreateExam(model.Exam{
		ID:          "exam-1",
		Title:       "Algebra Basics",
		Subject:     "Mathematics",
		DurationMin: 30,
		StartTime:   time.Now().Add(-time.Hour),
		EndTime:     time.Now().Add(time.Hour),
		Status:      model.ExamStatusAvailable,
	}, "code123", []model.CreateQuestionRequest{
		{Text: "2 + 2 = ?", Options: []string{"3", "4"}, CorrectAnswer: 1, Marks: 2},
	})
	require.NoError(t, err)
	return session.NewManager(t.Context(), zerolog.Nop(), session.Config{}, st, nil)
}

func monitorRouter(m *session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMonitorHandler(m)
	r := gin.New()
	r.GET("/api/v1/admin/monitor", h.Overview)
	r.GET("/api/v1/admin/attempts/:userId/events", h.AttemptEvents)
	return r
}

func TestMonitorAttemptEvents(t *testing.T) {
	m := monitorFixture(t)
	r := monitorRouter(m)

	s, err := m.Start("user-1", "exam-1", "code123")
	require.NoError(t, err)
	_, err = s.Signal(detector.Signal{Type: detector.SignalBlur})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/attempts/user-1/events", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			AttemptID    string             `json:"attempt_id"`
			ExamID       string             `json:"exam_id"`
			Events       []model.CheatEvent `json:"events"`
			WarningCount int                `json:"warning_count"`
			MaxWarnings  int                `json:"max_warnings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, s.AttemptID(), body.Data.AttemptID)
	assert.Equal(t, "exam-1", body.Data.ExamID)
	require.Len(t, body.Data.Events, 1)
	assert.Equal(t, model.CheatTabSwitch, body.Data.Events[0].Category)
	assert.Equal(t, 1, body.Data.WarningCount)
	assert.Equal(t, 2, body.Data.MaxWarnings)
}

func TestMonitorAttemptEventsNoActiveAttempt(t *testing.T) {
	m := monitorFixture(t)
	r := monitorRouter(m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/attempts/nobody/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMonitorOverviewCountsLiveAttempts(t *testing.T) {
	m := monitorFixture(t)
	r := monitorRouter(m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/monitor", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			ActiveAttempts int `json:"active_attempts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Data.ActiveAttempts)

	_, err := m.Start("user-1", "exam-1", "code123")
	require.NoError(t, err)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/monitor", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.ActiveAttempts)
}
