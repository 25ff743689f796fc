package model

import (
	"time"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusAvailable ExamStatus = "available"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// Exam represents an administered exam entity. The entry password is stored
// as a bcrypt hash; plaintext never leaves the create request.
type Exam struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	Description    string     `json:"description"`
	DurationMin    int        `json:"duration_minutes"`
	TotalQuestions int        `json:"total_questions"`
	TotalMarks     int        `json:"total_marks"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         ExamStatus `json:"status"`
	PasswordHash   string     `json:"-"`
	CreatedBy      string     `json:"created_by"`
	AllowRetake    bool       `json:"allow_retake"`
}

// CreateExamRequest is the payload for creating a new exam with its questions.
type CreateExamRequest struct {
	Title       string                  `json:"title" binding:"required,min=3,max=255"`
	Subject     string                  `json:"subject" binding:"required,min=2,max=100"`
	Description string                  `json:"description" binding:"max=2000"`
	DurationMin int                     `json:"duration_minutes" binding:"required,min=1,max=480"`
	StartTime   time.Time               `json:"start_time" binding:"required"`
	EndTime     time.Time               `json:"end_time" binding:"required,gtfield=StartTime"`
	Password    string                  `json:"password" binding:"required,min=4,max=64"`
	Questions   []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// UpdateExamStatusRequest is the payload for flipping an exam's status.
type UpdateExamStatusRequest struct {
	Status ExamStatus `json:"status" binding:"required,oneof=scheduled available completed cancelled"`
}

// ToggleRetakeRequest is the payload for granting or revoking a retake.
// Granting also clears the taker's disqualification for the exam.
type ToggleRetakeRequest struct {
	Allow bool `json:"allow"`
}

// ExamStats is the aggregate view used by the teacher dashboard.
type ExamStats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
}
