package model

import (
	"time"
)

// AttemptStatus enumerates exam attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusInProgress   AttemptStatus = "in-progress"
	AttemptStatusCompleted    AttemptStatus = "completed"
	AttemptStatusDisqualified AttemptStatus = "disqualified"
)

// ExamAttempt represents one taker's run through an exam, from start to
// submit or disqualification. It is owned exclusively by the session that
// created it; status and WarningCount change only through the penalty
// machinery, answers and navigation only through attempt operations.
type ExamAttempt struct {
	ID               string        `json:"id"`
	ExamID           string        `json:"exam_id"`
	UserID           string        `json:"user_id"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	Answers          map[int]int   `json:"answers"`
	FlaggedQuestions []int         `json:"flagged_questions"`
	CurrentQuestion  int           `json:"current_question"`
	Status           AttemptStatus `json:"status"`
	WarningCount     int           `json:"warning_count"`
}

// Flagged reports whether questionNumber is in the attempt's flagged set.
func (a *ExamAttempt) Flagged(questionNumber int) bool {
	for _, n := range a.FlaggedQuestions {
		if n == questionNumber {
			return true
		}
	}
	return false
}

// StartExamRequest is the payload for starting an exam attempt.
type StartExamRequest struct {
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// AnswerRequest records a selected option for a question.
type AnswerRequest struct {
	QuestionNumber int `json:"question_number" binding:"required,min=1"`
	Answer         int `json:"answer" binding:"min=0"`
}

// FlagRequest toggles the flag on a question.
type FlagRequest struct {
	QuestionNumber int `json:"question_number" binding:"required,min=1"`
}

// NavigateRequest moves the current-question pointer.
type NavigateRequest struct {
	QuestionNumber int `json:"question_number" binding:"required,min=1"`
}
