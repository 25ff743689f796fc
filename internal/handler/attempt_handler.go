package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examsecure/examsecure-backend/internal/middleware"
	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/response"
	"github.com/examsecure/examsecure-backend/internal/session"
	"github.com/examsecure/examsecure-backend/internal/store"
	"github.com/examsecure/examsecure-backend/internal/validator"
)

// AttemptHandler owns the student exam-taking surface. Every mutation goes
// through the taker's live session; the handler never touches attempt state
// directly.
type AttemptHandler struct {
	store    *store.Store
	sessions *session.Manager
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(st *store.Store, sessions *session.Manager) *AttemptHandler {
	return &AttemptHandler{store: st, sessions: sessions}
}

// ListExams godoc
// GET /api/v1/exams
// Student-facing exam list with per-taker disqualification flags.
func (h *AttemptHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams := h.store.ListExams()
	disqualified := make([]string, 0)
	for _, e := range exams {
		if h.store.IsDisqualified(claims.UserID, e.ID) {
			disqualified = append(disqualified, e.ID)
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"exams":                 exams,
		"disqualified_exam_ids": disqualified,
	})
}

// Start godoc
// POST /api/v1/exams/:examId/start
// Validates the password and start preconditions, then spins up the
// attempt session.
func (h *AttemptHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	s, err := h.sessions.Start(claims.UserID, c.Param("examId"), req.Password)
	if err != nil {
		h.failStart(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt_id": s.AttemptID(),
		"state":      s.Snapshot(),
		"questions":  h.questionManifest(s.ExamID()),
	})
}

// questionManifest lists what the client needs to lay out the exam screen.
// Question and option text stay server-side; they reach the client only
// inside the rendered image.
type questionManifest struct {
	QuestionNumber int `json:"question_number"`
	OptionCount    int `json:"option_count"`
	Marks          int `json:"marks"`
}

func (h *AttemptHandler) questionManifest(examID string) []questionManifest {
	qs := h.store.QuestionsForExam(examID)
	out := make([]questionManifest, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionManifest{
			QuestionNumber: q.QuestionNumber,
			OptionCount:    len(q.Options),
			Marks:          q.Marks,
		})
	}
	return out
}

func (h *AttemptHandler) failStart(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, session.ErrInvalidPassword):
		response.Fail(c, http.StatusForbidden, response.ErrExamPassword)
	case errors.Is(err, session.ErrDisqualified):
		response.Fail(c, http.StatusForbidden, response.ErrDisqualified)
	case errors.Is(err, session.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	case errors.Is(err, session.ErrRetakeNotAllowed):
		response.Fail(c, http.StatusConflict, response.ErrRetakeBlocked)
	case errors.Is(err, session.ErrAttemptActive):
		response.Fail(c, http.StatusConflict, response.ErrAttemptActive)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// State godoc
// GET /api/v1/attempt
// Snapshot of the caller's live attempt.
func (h *AttemptHandler) State(c *gin.Context) {
	s, ok := h.activeSession(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": s.Snapshot()})
}

// Answer godoc
// POST /api/v1/attempt/answer
// Records an option for a question, overwriting any prior selection.
func (h *AttemptHandler) Answer(c *gin.Context) {
	s, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := s.Answer(req.QuestionNumber, req.Answer); err != nil {
		h.failOp(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Flag godoc
// POST /api/v1/attempt/flag
func (h *AttemptHandler) Flag(c *gin.Context) {
	s, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req model.FlagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := s.Flag(req.QuestionNumber); err != nil {
		h.failOp(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Unflag godoc
// POST /api/v1/attempt/unflag
func (h *AttemptHandler) Unflag(c *gin.Context) {
	s, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req model.FlagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := s.Unflag(req.QuestionNumber); err != nil {
		h.failOp(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Navigate godoc
// POST /api/v1/attempt/navigate
// Moves the current-question pointer. Out-of-range targets are rejected.
func (h *AttemptHandler) Navigate(c *gin.Context) {
	s, ok := h.activeSession(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := s.GoTo(req.QuestionNumber); err != nil {
		h.failOp(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Submit godoc
// POST /api/v1/attempt/submit
// Finishes the attempt and returns the scored result.
func (h *AttemptHandler) Submit(c *gin.Context) {
	s, ok := h.activeSession(c)
	if !ok {
		return
	}

	res, err := s.Submit()
	if err != nil {
		h.failOp(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// Events godoc
// GET /api/v1/attempt/events
// The append-only cheat-event log of the live attempt.
func (h *AttemptHandler) Events(c *gin.Context) {
	s, ok := h.activeSession(c)
	if !ok {
		return
	}
	st := s.Snapshot()
	response.Success(c, http.StatusOK, gin.H{
		"events":        st.CheatEvents,
		"warning_count": st.Attempt.WarningCount,
		"max_warnings":  st.MaxWarnings,
	})
}

// MyResults godoc
// GET /api/v1/results
// The caller's recorded results.
func (h *AttemptHandler) MyResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": h.store.ResultsForUser(claims.UserID)})
}

func (h *AttemptHandler) activeSession(c *gin.Context) (*session.Session, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	s, err := h.sessions.Get(claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return nil, false
	}
	return s, true
}

func (h *AttemptHandler) failOp(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrAttemptEnded):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveAttempt)
	case errors.Is(err, session.ErrOutOfRange), errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionBounds)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
