package model

import (
	"time"
)

// ResultStatus enumerates terminal attempt outcomes.
type ResultStatus string

const (
	ResultStatusPassed       ResultStatus = "passed"
	ResultStatusFailed       ResultStatus = "failed"
	ResultStatusDisqualified ResultStatus = "disqualified"
)

// ResultBreakdown counts answered questions by outcome. Unanswered is
// tracked separately from incorrect.
type ResultBreakdown struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
}

// ExamResult is the immutable outcome snapshot created exactly once per
// terminated attempt.
type ExamResult struct {
	ID          string          `json:"id"`
	ExamID      string          `json:"exam_id"`
	ExamTitle   string          `json:"exam_title"`
	Subject     string          `json:"subject"`
	UserID      string          `json:"user_id"`
	Score       int             `json:"score"`
	TotalMarks  int             `json:"total_marks"`
	Percentage  int             `json:"percentage"`
	CompletedAt time.Time       `json:"completed_at"`
	Status      ResultStatus    `json:"status"`
	Breakdown   ResultBreakdown `json:"breakdown"`
}
