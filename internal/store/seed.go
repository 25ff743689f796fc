package store

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/examsecure/examsecure-backend/internal/model"
)

// Seed loads the demonstration data set: three exams, one of which is
// immediately available with a full question list, and three accounts.
// Intended for development deployments only.
func (s *Store) Seed() error {
	now := time.Now()

	users := []struct {
		user     model.User
		password string
	}{
		{model.User{ID: "1", AdmissionID: "STU2024001", Name: "John Smith", Email: "john.smith@school.edu", Role: model.RoleStudent}, "password123"},
		{model.User{ID: "2", AdmissionID: "TCH2024001", Name: "Dr. Sarah Johnson", Email: "sarah.johnson@school.edu", Role: model.RoleTeacher}, "teacher123"},
		{model.User{ID: "3", AdmissionID: "ADM2024001", Name: "Admin User", Email: "admin@school.edu", Role: model.RoleAdmin}, "admin123"},
	}
	for _, u := range users {
		if _, err := s.CreateUser(u.user, u.password); err != nil {
			return err
		}
	}

	exams := []struct {
		exam     model.Exam
		password string
	}{
		{
			exam: model.Exam{
				ID:             "1",
				Title:          "Mathematics Final Exam",
				Subject:        "Mathematics",
				Description:    "Comprehensive final examination covering algebra, calculus, and statistics.",
				DurationMin:    120,
				TotalQuestions: 5,
				TotalMarks:     10,
				StartTime:      now,
				EndTime:        now.Add(4 * time.Hour),
				Status:         model.ExamStatusAvailable,
				CreatedBy:      "TCH2024001",
			},
			password: "math2024",
		},
		{
			exam: model.Exam{
				ID:             "2",
				Title:          "Physics Mid-Term",
				Subject:        "Physics",
				Description:    "Mid-term assessment on mechanics and thermodynamics.",
				DurationMin:    90,
				TotalQuestions: 40,
				TotalMarks:     80,
				StartTime:      now.Add(24 * time.Hour),
				EndTime:        now.Add(26 * time.Hour),
				Status:         model.ExamStatusScheduled,
				CreatedBy:      "TCH2024001",
			},
			password: "physics2024",
		},
		{
			exam: model.Exam{
				ID:             "3",
				Title:          "Chemistry Unit Test",
				Subject:        "Chemistry",
				Description:    "Unit test on organic chemistry fundamentals.",
				DurationMin:    60,
				TotalQuestions: 30,
				TotalMarks:     60,
				StartTime:      now.Add(48 * time.Hour),
				EndTime:        now.Add(49 * time.Hour),
				Status:         model.ExamStatusScheduled,
				CreatedBy:      "TCH2024001",
			},
			password: "chem2024",
		},
	}

	mathQuestions := []model.Question{
		{
			ID: "q1", ExamID: "1", QuestionNumber: 1,
			Text:          "What is the derivative of f(x) = x² + 3x + 2?",
			Options:       []string{"2x + 3", "x + 3", "2x + 2", "x² + 3"},
			CorrectAnswer: 0, Marks: 2,
		},
		{
			ID: "q2", ExamID: "1", QuestionNumber: 2,
			Text:          "Solve for x: 2x + 5 = 15",
			Options:       []string{"x = 5", "x = 10", "x = 7", "x = 3"},
			CorrectAnswer: 0, Marks: 2,
		},
		{
			ID: "q3", ExamID: "1", QuestionNumber: 3,
			Text:          "What is the integral of ∫(3x² + 2x)dx?",
			Options:       []string{"x³ + x² + C", "6x + 2 + C", "3x + 2 + C", "x³ + x + C"},
			CorrectAnswer: 0, Marks: 2,
		},
		{
			ID: "q4", ExamID: "1", QuestionNumber: 4,
			Text:          "Find the value of sin(90°)",
			Options:       []string{"0", "1", "-1", "0.5"},
			CorrectAnswer: 1, Marks: 2,
		},
		{
			ID: "q5", ExamID: "1", QuestionNumber: 5,
			Text: "What is the quadratic formula?",
			Options: []string{
				"x = (-b ± √(b² - 4ac)) / 2a",
				"x = (-b ± √(b² + 4ac)) / 2a",
				"x = (b ± √(b² - 4ac)) / 2a",
				"x = (-b ± √(b² - 4ac)) / a",
			},
			CorrectAnswer: 0, Marks: 2,
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range exams {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.password), s.bcryptCost)
		if err != nil {
			return err
		}
		stored := e.exam
		stored.PasswordHash = string(hash)
		s.exams[stored.ID] = &stored
	}
	s.questions["1"] = mathQuestions
	return nil
}
