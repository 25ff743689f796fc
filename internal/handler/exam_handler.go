package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/examsecure/examsecure-backend/internal/middleware"
	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/response"
	"github.com/examsecure/examsecure-backend/internal/store"
	"github.com/examsecure/examsecure-backend/internal/validator"
)

// ExamHandler owns the teacher/admin exam administration surface.
type ExamHandler struct {
	store *store.Store
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(st *store.Store) *ExamHandler {
	return &ExamHandler{store: st}
}

// ListExams godoc
// GET /api/v1/admin/exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"exams": h.store.ListExams()})
}

// GetExam godoc
// GET /api/v1/admin/exams/:examId
// Returns the exam with its questions. Correct answers stay server-side
// even on this surface; the question model never serializes them.
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, err := h.store.GetExam(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam":      exam,
		"questions": h.store.QuestionsForExam(exam.ID),
	})
}

// CreateExam godoc
// POST /api/v1/admin/exams
// Creates an exam together with its full question list. Totals are derived
// from the questions, not taken from the request.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	status := model.ExamStatusScheduled
	now := time.Now()
	if !req.StartTime.After(now) && req.EndTime.After(now) {
		status = model.ExamStatusAvailable
	}

	exam, err := h.store.CreateExam(model.Exam{
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		DurationMin: req.DurationMin,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      status,
		CreatedBy:   claims.AdmissionID,
	}, req.Password, req.Questions)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:examId
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	if err := h.store.DeleteExam(c.Param("examId")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// UpdateExamStatus godoc
// PATCH /api/v1/admin/exams/:examId/status
func (h *ExamHandler) UpdateExamStatus(c *gin.Context) {
	var req model.UpdateExamStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.store.SetExamStatus(c.Param("examId"), req.Status); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ToggleRetake godoc
// PATCH /api/v1/admin/exams/:examId/retake
// Granting a retake is the only action that lifts disqualification for an
// exam.
func (h *ExamHandler) ToggleRetake(c *gin.Context) {
	var req model.ToggleRetakeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.store.SetAllowRetake(c.Param("examId"), req.Allow); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Stats godoc
// GET /api/v1/admin/exams/stats
func (h *ExamHandler) Stats(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"stats": h.store.Stats()})
}

// ListResults godoc
// GET /api/v1/admin/results
// Returns every recorded result for the teacher dashboard.
func (h *ExamHandler) ListResults(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"results": h.store.ListResults()})
}
