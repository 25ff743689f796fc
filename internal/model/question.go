package model

// Question represents a single exam question. Questions are immutable once
// authored; the renderer and scorer treat them as read-only input.
type Question struct {
	ID             string   `json:"id"`
	ExamID         string   `json:"exam_id"`
	QuestionNumber int      `json:"question_number"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	CorrectAnswer  int      `json:"-"`
	Marks          int      `json:"marks"`
}

// CreateQuestionRequest is the per-question payload inside exam creation.
type CreateQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,max=6,dive,required,max=500"`
	CorrectAnswer int      `json:"correct_answer" binding:"min=0"`
	Marks         int      `json:"marks" binding:"required,min=1,max=100"`
}
