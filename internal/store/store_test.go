package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/examsecure/examsecure-backend/internal/model"
)

func newExam(id string, start time.Time) model.Exam {
	return model.Exam{
		ID:          id,
		Title:       "Sample Exam",
		Subject:     "Mathematics",
		DurationMin: 60,
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Status:      model.ExamStatusAvailable,
	}
}

func sampleQuestions() []model.CreateQuestionRequest {
	return []model.CreateQuestionRequest{
		{Text: "2 + 2 = ?", Options: []string{"3", "4"}, CorrectAnswer: 1, Marks: 2},
		{Text: "3 x 3 = ?", Options: []string{"9", "6"}, CorrectAnswer: 0, Marks: 3},
	}
}

func TestCreateExamDerivesTotals(t *testing.T) {
	s := New(bcrypt.MinCost)
	exam, err := s.CreateExam(newExam("e1", time.Now()), "secret99", sampleQuestions())
	require.NoError(t, err)

	assert.Equal(t, 2, exam.TotalQuestions)
	assert.Equal(t, 5, exam.TotalMarks)
	assert.NotEqual(t, "secret99", exam.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(exam.PasswordHash), []byte("secret99")))

	qs := s.QuestionsForExam("e1")
	require.Len(t, qs, 2)
	assert.Equal(t, 1, qs[0].QuestionNumber)
	assert.Equal(t, 2, qs[1].QuestionNumber)
	assert.Equal(t, "e1", qs[0].ExamID)
	assert.NotEmpty(t, qs[0].ID)
}

func TestCreateExamRejectsBadAnswerIndex(t *testing.T) {
	s := New(bcrypt.MinCost)
	_, err := s.CreateExam(newExam("e1", time.Now()), "secret99", []model.CreateQuestionRequest{
		{Text: "?", Options: []string{"a", "b"}, CorrectAnswer: 2, Marks: 1},
	})
	assert.Error(t, err)
}

func TestCreateExamGeneratesID(t *testing.T) {
	s := New(bcrypt.MinCost)
	exam, err := s.CreateExam(newExam("", time.Now()), "secret99", sampleQuestions())
	require.NoError(t, err)
	require.NotEmpty(t, exam.ID)

	got, err := s.GetExam(exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.ID, got.ID)
}

func TestListExamsSortedByStart(t *testing.T) {
	s := New(bcrypt.MinCost)
	base := time.Now()
	for _, e := range []struct {
		id    string
		start time.Time
	}{
		{"late", base.Add(48 * time.Hour)},
		{"early", base},
		{"mid", base.Add(24 * time.Hour)},
	} {
		_, err := s.CreateExam(newExam(e.id, e.start), "secret99", sampleQuestions())
		require.NoError(t, err)
	}

	exams := s.ListExams()
	require.Len(t, exams, 3)
	assert.Equal(t, "early", exams[0].ID)
	assert.Equal(t, "mid", exams[1].ID)
	assert.Equal(t, "late", exams[2].ID)
}

func TestDeleteExamDropsResults(t *testing.T) {
	s := New(bcrypt.MinCost)
	_, err := s.CreateExam(newExam("e1", time.Now()), "secret99", sampleQuestions())
	require.NoError(t, err)

	s.RecordResult(&model.ExamResult{ID: "r1", ExamID: "e1", UserID: "u1"})
	s.RecordResult(&model.ExamResult{ID: "r2", ExamID: "other", UserID: "u1"})

	require.NoError(t, s.DeleteExam("e1"))
	assert.ErrorIs(t, s.DeleteExam("e1"), ErrNotFound)

	_, err = s.GetExam("e1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.QuestionsForExam("e1"))

	results := s.ListResults()
	require.Len(t, results, 1)
	assert.Equal(t, "r2", results[0].ID)
}

func TestRetakeGrantClearsDisqualification(t *testing.T) {
	s := New(bcrypt.MinCost)
	_, err := s.CreateExam(newExam("e1", time.Now()), "secret99", sampleQuestions())
	require.NoError(t, err)

	s.Disqualify("u1", "e1")
	s.Disqualify("u2", "e1")
	s.Disqualify("u1", "other")
	require.True(t, s.IsDisqualified("u1", "e1"))

	// Revoking retake must not clear anything.
	require.NoError(t, s.SetAllowRetake("e1", false))
	assert.True(t, s.IsDisqualified("u1", "e1"))

	require.NoError(t, s.SetAllowRetake("e1", true))
	assert.False(t, s.IsDisqualified("u1", "e1"))
	assert.False(t, s.IsDisqualified("u2", "e1"))

	// Only the granted exam is cleared.
	assert.True(t, s.IsDisqualified("u1", "other"))
}

func TestQuestionByNumber(t *testing.T) {
	s := New(bcrypt.MinCost)
	_, err := s.CreateExam(newExam("e1", time.Now()), "secret99", sampleQuestions())
	require.NoError(t, err)

	q, err := s.QuestionByNumber("e1", 2)
	require.NoError(t, err)
	assert.Equal(t, "3 x 3 = ?", q.Text)

	_, err = s.QuestionByNumber("e1", 3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.QuestionByNumber("e1", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.QuestionByNumber("missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers(t *testing.T) {
	s := New(bcrypt.MinCost)
	u, err := s.CreateUser(model.User{
		Name:        "Jordan Blake",
		AdmissionID: "STU001",
		Role:        model.RoleStudent,
	}, "password123")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))

	byAdm, err := s.GetUserByAdmissionID("STU001")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byAdm.ID)

	byID, err := s.GetUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jordan Blake", byID.Name)

	_, err = s.GetUserByAdmissionID("STU999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultsForUser(t *testing.T) {
	s := New(bcrypt.MinCost)
	s.RecordResult(&model.ExamResult{ID: "r1", ExamID: "e1", UserID: "u1"})
	s.RecordResult(&model.ExamResult{ID: "r2", ExamID: "e1", UserID: "u2"})
	s.RecordResult(&model.ExamResult{ID: "r3", ExamID: "e2", UserID: "u1"})

	mine := s.ResultsForUser("u1")
	require.Len(t, mine, 2)
	assert.Len(t, s.ListResults(), 3)
	assert.Empty(t, s.ResultsForUser("u3"))
}

func TestStats(t *testing.T) {
	s := New(bcrypt.MinCost)
	now := time.Now()
	for i, status := range []model.ExamStatus{
		model.ExamStatusAvailable,
		model.ExamStatusAvailable,
		model.ExamStatusScheduled,
		model.ExamStatusCompleted,
	} {
		e := newExam("", now.Add(time.Duration(i)*time.Hour))
		e.Status = status
		_, err := s.CreateExam(e, "secret99", sampleQuestions())
		require.NoError(t, err)
	}

	st := s.Stats()
	assert.Equal(t, model.ExamStats{Total: 4, Available: 2, Scheduled: 1, Completed: 1}, st)
}

func TestSeedData(t *testing.T) {
	s := New(bcrypt.MinCost)
	require.NoError(t, s.Seed())

	math, err := s.GetExam("1")
	require.NoError(t, err)
	assert.Equal(t, 5, math.TotalQuestions)
	assert.Len(t, s.QuestionsForExam("1"), 5)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(math.PasswordHash), []byte("math2024")))

	// The other seeded exams advertise question counts but carry no
	// question content, so attempts against them cannot start.
	physics, err := s.GetExam("2")
	require.NoError(t, err)
	assert.Equal(t, 40, physics.TotalQuestions)
	assert.Empty(t, s.QuestionsForExam("2"))

	student, err := s.GetUserByAdmissionID("STU2024001")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, student.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("password123")))
}
