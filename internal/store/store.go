package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/examsecure/examsecure-backend/internal/model"
)

// Lookup errors.
var (
	ErrNotFound = errors.New("not found")
)

// Store is the in-memory exam/question/user source the session core treats
// as a synchronous, always-available collaborator. A persistent replacement
// must preserve two semantics the core depends on: "no questions means the
// exam cannot start" and "retake stays blocked while disqualified".
type Store struct {
	mu           sync.RWMutex
	bcryptCost   int
	exams        map[string]*model.Exam
	questions    map[string][]model.Question
	users        map[string]*model.User
	usersByAdmID map[string]string
	results      []model.ExamResult
	// disqualified maps userID -> set of exam IDs. Entries are added only
	// by disqualification and removed only by an explicit retake grant.
	disqualified map[string]map[string]struct{}
}

// New creates an empty store. bcryptCost is used when hashing exam and user
// passwords on insert.
func New(bcryptCost int) *Store {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{
		bcryptCost:   bcryptCost,
		exams:        make(map[string]*model.Exam),
		questions:    make(map[string][]model.Question),
		users:        make(map[string]*model.User),
		usersByAdmID: make(map[string]string),
		disqualified: make(map[string]map[string]struct{}),
	}
}

// ─── Exams ──────────────────────────────────────────────────────────

// CreateExam hashes the password, derives totals from the question list,
// and stores the exam with dense 1-based question numbers.
func (s *Store) CreateExam(exam model.Exam, password string, questions []model.CreateQuestionRequest) (*model.Exam, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	if exam.ID == "" {
		exam.ID = uuid.New().String()
	}
	exam.PasswordHash = string(hash)
	exam.TotalQuestions = len(questions)

	qs := make([]model.Question, 0, len(questions))
	totalMarks := 0
	for i, q := range questions {
		if q.CorrectAnswer >= len(q.Options) {
			return nil, errors.New("correct answer index out of range")
		}
		qs = append(qs, model.Question{
			ID:             uuid.New().String(),
			ExamID:         exam.ID,
			QuestionNumber: i + 1,
			Text:           q.Text,
			Options:        append([]string(nil), q.Options...),
			CorrectAnswer:  q.CorrectAnswer,
			Marks:          q.Marks,
		})
		totalMarks += q.Marks
	}
	exam.TotalMarks = totalMarks

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := exam
	s.exams[exam.ID] = &stored
	s.questions[exam.ID] = qs

	out := stored
	return &out, nil
}

// GetExam returns a copy of the exam.
func (s *Store) GetExam(id string) (*model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exams[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *e
	return &out, nil
}

// ListExams returns all exams sorted by start time.
func (s *Store) ListExams() []model.Exam {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Exam, 0, len(s.exams))
	for _, e := range s.exams {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// DeleteExam removes an exam with its questions and results.
func (s *Store) DeleteExam(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		return ErrNotFound
	}
	delete(s.exams, id)
	delete(s.questions, id)

	kept := s.results[:0]
	for _, r := range s.results {
		if r.ExamID != id {
			kept = append(kept, r)
		}
	}
	s.results = kept
	return nil
}

// SetExamStatus flips an exam's lifecycle status.
func (s *Store) SetExamStatus(id string, status model.ExamStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	return nil
}

// SetAllowRetake toggles the retake permission. Granting a retake also
// clears the exam from every taker's disqualified set; nothing else
// unblocks a disqualified exam/taker pair.
func (s *Store) SetAllowRetake(id string, allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[id]
	if !ok {
		return ErrNotFound
	}
	e.AllowRetake = allow
	if allow {
		for _, set := range s.disqualified {
			delete(set, id)
		}
	}
	return nil
}

// Stats aggregates exam counts by status.
func (s *Store) Stats() model.ExamStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := model.ExamStats{Total: len(s.exams)}
	for _, e := range s.exams {
		switch e.Status {
		case model.ExamStatusAvailable:
			st.Available++
		case model.ExamStatusScheduled:
			st.Scheduled++
		case model.ExamStatusCompleted:
			st.Completed++
		}
	}
	return st
}

// ─── Questions ──────────────────────────────────────────────────────

// QuestionsForExam returns the exam's questions ordered by question number.
func (s *Store) QuestionsForExam(examID string) []model.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs := s.questions[examID]
	out := make([]model.Question, len(qs))
	copy(out, qs)
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out
}

// QuestionByNumber returns one question of an exam.
func (s *Store) QuestionByNumber(examID string, number int) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions[examID] {
		if q.QuestionNumber == number {
			out := q
			out.Options = append([]string(nil), q.Options...)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ─── Users ──────────────────────────────────────────────────────────

// CreateUser hashes the password and stores the account.
func (s *Store) CreateUser(u model.User, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.PasswordHash = string(hash)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := u
	s.users[u.ID] = &stored
	s.usersByAdmID[u.AdmissionID] = u.ID
	out := stored
	return &out, nil
}

// GetUser returns a copy of a user by ID.
func (s *Store) GetUser(id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

// GetUserByAdmissionID resolves the login identifier.
func (s *Store) GetUserByAdmissionID(admissionID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByAdmID[admissionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// ─── Results ────────────────────────────────────────────────────────

// RecordResult appends a finalized result. Results are immutable.
func (s *Store) RecordResult(res *model.ExamResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *res)
}

// ListResults returns all recorded results, newest last.
func (s *Store) ListResults() []model.ExamResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ExamResult(nil), s.results...)
}

// ResultsForUser filters results by taker.
func (s *Store) ResultsForUser(userID string) []model.ExamResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ExamResult
	for _, r := range s.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// ─── Disqualification set ───────────────────────────────────────────

// Disqualify adds the exam to the taker's blocked set.
func (s *Store) Disqualify(userID, examID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.disqualified[userID]
	if !ok {
		set = make(map[string]struct{})
		s.disqualified[userID] = set
	}
	set[examID] = struct{}{}
}

// IsDisqualified reports whether the exam/taker pair is blocked.
func (s *Store) IsDisqualified(userID, examID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.disqualified[userID][examID]
	return ok
}
