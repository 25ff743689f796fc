package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/store"
)

// Start rejections, surfaced to the client as user-facing failures.
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrInvalidPassword  = errors.New("invalid exam password")
	ErrDisqualified     = errors.New("retake blocked: disqualified from this exam")
	ErrNoQuestions      = errors.New("exam has no questions")
	ErrRetakeNotAllowed = errors.New("exam already completed and retake is not permitted")
	ErrAttemptActive    = errors.New("another attempt is already in progress")
	ErrNoActiveAttempt  = errors.New("no active attempt")
)

// Manager creates, tracks, and tears down one session per active taker.
type Manager struct {
	log      zerolog.Logger
	cfg      Config
	store    *store.Store
	archiver Archiver

	ctx context.Context

	mu     sync.Mutex
	active map[string]*Session
}

// NewManager creates a session manager. ctx bounds the lifetime of every
// session goroutine; cancelling it tears down all live sessions.
func NewManager(ctx context.Context, log zerolog.Logger, cfg Config, st *store.Store, archiver Archiver) *Manager {
	return &Manager{
		log:      log.With().Str("component", "session_manager").Logger(),
		cfg:      cfg.withDefaults(),
		store:    st,
		archiver: archiver,
		ctx:      ctx,
		active:   make(map[string]*Session),
	}
}

// Start validates the start preconditions and, on success, creates a fresh
// in-progress attempt with an armed detector and a running countdown. The
// previous attempt's event log does not carry over: each session owns its
// own.
func (m *Manager) Start(userID, examID, password string) (*Session, error) {
	exam, err := m.store.GetExam(examID)
	if err != nil {
		return nil, ErrExamNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(exam.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidPassword
	}

	if m.store.IsDisqualified(userID, examID) {
		return nil, ErrDisqualified
	}

	if exam.Status == model.ExamStatusCompleted && !exam.AllowRetake {
		return nil, ErrRetakeNotAllowed
	}

	questions := m.store.QuestionsForExam(examID)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[userID]; ok {
		return nil, ErrAttemptActive
	}

	s := newSession(m.log, m.cfg, m.store, m.archiver, exam, questions, userID, m.remove)
	m.active[userID] = s
	go s.run(m.ctx)

	m.log.Info().
		Str("user_id", userID).
		Str("exam_id", examID).
		Str("attempt_id", s.AttemptID()).
		Msg("Attempt started")

	return s, nil
}

// Get returns the taker's live session.
func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[userID]
	if !ok {
		return nil, ErrNoActiveAttempt
	}
	return s, nil
}

// remove drops a closed session from the registry. Called from the
// session's own teardown.
func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.active[s.attempt.UserID]; ok && current == s {
		delete(m.active, s.attempt.UserID)
	}
}

// ActiveCount reports how many attempts are currently live.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
