package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/examsecure/examsecure-backend/internal/detector"
	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/store"
)

const (
	testExamID   = "exam-1"
	testUserID   = "user-1"
	testPassword = "code123"
)

// seedExam creates an available five-question exam worth ten marks.
func seedExam(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(bcrypt.MinCost)
	_, err := st.CreateExam(model.Exam{
		ID:          testExamID,
		Title:       "Algebra Basics",
		Subject:     "Mathematics",
		DurationMin: 30,
		StartTime:   time.Now().Add(-time.Hour),
		EndTime:     time.Now().Add(time.Hour),
		Status:      model.ExamStatusAvailable,
	}, testPassword, []model.CreateQuestionRequest{
		{Text: "2 + 2 = ?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 1, Marks: 2},
		{Text: "3 x 3 = ?", Options: []string{"6", "9", "12", "3"}, CorrectAnswer: 1, Marks: 2},
		{Text: "10 / 2 = ?", Options: []string{"2", "4", "5", "8"}, CorrectAnswer: 2, Marks: 2},
		{Text: "7 - 5 = ?", Options: []string{"2", "3", "12", "1"}, CorrectAnswer: 0, Marks: 2},
		{Text: "5 + 4 = ?", Options: []string{"8", "9", "10", "45"}, CorrectAnswer: 1, Marks: 2},
	})
	require.NoError(t, err)
	return st
}

// directSession builds a session without starting its run loop, so tests can
// drive turns synchronously through the unexported handlers.
func directSession(t *testing.T, st *store.Store, cfg Config) (*Session, *notifierCapture) {
	t.Helper()
	exam, err := st.GetExam(testExamID)
	require.NoError(t, err)
	questions := st.QuestionsForExam(testExamID)
	require.NotEmpty(t, questions)

	s := newSession(zerolog.Nop(), cfg, st, nil, exam, questions, testUserID, nil)
	n := &notifierCapture{}
	s.notifier = n
	return s, n
}

type notifierCapture struct {
	warnings     []int
	messages     []string
	alerts       []int
	disqualified []string
	autoResults  []*model.ExamResult
}

func (n *notifierCapture) Warning(message string, count, _ int) {
	n.warnings = append(n.warnings, count)
	n.messages = append(n.messages, message)
}

func (n *notifierCapture) ScreenshotAlert(count, _ int) { n.alerts = append(n.alerts, count) }

func (n *notifierCapture) Disqualified(reason string) {
	n.disqualified = append(n.disqualified, reason)
}

func (n *notifierCapture) AutoSubmitted(result *model.ExamResult) {
	n.autoResults = append(n.autoResults, result)
}

// ─── Manager gating ─────────────────────────────────────────────────

func TestStartGating(t *testing.T) {
	st := seedExam(t)
	m := NewManager(t.Context(), zerolog.Nop(), Config{}, st, nil)

	_, err := m.Start(testUserID, "missing", testPassword)
	assert.ErrorIs(t, err, ErrExamNotFound)

	_, err = m.Start(testUserID, testExamID, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	s, err := m.Start(testUserID, testExamID, testPassword)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ActiveCount())

	_, err = m.Start(testUserID, testExamID, testPassword)
	assert.ErrorIs(t, err, ErrAttemptActive)

	got, err := m.Get(testUserID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("someone-else")
	assert.ErrorIs(t, err, ErrNoActiveAttempt)
}

func TestStartRejectsExamWithoutQuestions(t *testing.T) {
	st := store.New(bcrypt.MinCost)
	_, err := st.CreateExam(model.Exam{
		ID:          "empty-exam",
		Title:       "Placeholder",
		Subject:     "Physics",
		DurationMin: 45,
		Status:      model.ExamStatusAvailable,
	}, testPassword, nil)
	require.NoError(t, err)

	m := NewManager(t.Context(), zerolog.Nop(), Config{}, st, nil)
	_, err = m.Start(testUserID, "empty-exam", testPassword)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestRetakeGating(t *testing.T) {
	st := seedExam(t)
	m := NewManager(t.Context(), zerolog.Nop(), Config{}, st, nil)

	s, err := m.Start(testUserID, testExamID, testPassword)
	require.NoError(t, err)
	_, err = s.Submit()
	require.NoError(t, err)

	// Submission flips the exam to completed; without a retake grant a new
	// attempt is rejected.
	_, err = m.Start(testUserID, testExamID, testPassword)
	assert.ErrorIs(t, err, ErrRetakeNotAllowed)

	require.NoError(t, st.SetAllowRetake(testExamID, true))
	s2, err := m.Start(testUserID, testExamID, testPassword)
	require.NoError(t, err)
	assert.NotEqual(t, s.AttemptID(), s2.AttemptID())
}

func TestDisqualifiedBlockedUntilRetakeGrant(t *testing.T) {
	st := seedExam(t)
	st.Disqualify(testUserID, testExamID)
	m := NewManager(t.Context(), zerolog.Nop(), Config{}, st, nil)

	_, err := m.Start(testUserID, testExamID, testPassword)
	assert.ErrorIs(t, err, ErrDisqualified)

	// The retake grant is the single action that clears the block.
	require.NoError(t, st.SetAllowRetake(testExamID, true))
	_, err = m.Start(testUserID, testExamID, testPassword)
	assert.NoError(t, err)
}

// ─── Attempt operations ─────────────────────────────────────────────

func TestAnswerFlagNavigate(t *testing.T) {
	st := seedExam(t)
	m := NewManager(t.Context(), zerolog.Nop(), Config{}, st, nil)
	s, err := m.Start(testUserID, testExamID, testPassword)
	require.NoError(t, err)

	require.NoError(t, s.Answer(1, 0))
	require.NoError(t, s.Answer(1, 1)) // overwrite
	assert.ErrorIs(t, s.Answer(9, 0), ErrUnknownQuestion)

	require.NoError(t, s.Flag(2))
	require.NoError(t, s.Flag(2)) // idempotent
	require.NoError(t, s.Flag(4))
	require.NoError(t, s.Unflag(2))
	require.NoError(t, s.Unflag(3)) // not flagged, still fine

	assert.ErrorIs(t, s.GoTo(0), ErrOutOfRange)
	assert.ErrorIs(t, s.GoTo(6), ErrOutOfRange)
	require.NoError(t, s.GoTo(5))

	snap := s.Snapshot()
	assert.Equal(t, map[int]int{1: 1}, snap.Attempt.Answers)
	assert.Equal(t, []int{4}, snap.Attempt.FlaggedQuestions)
	assert.Equal(t, 5, snap.Attempt.CurrentQuestion)
	assert.Equal(t, model.AttemptStatusInProgress, snap.Attempt.Status)
	assert.Zero(t, snap.Attempt.WarningCount)
}

func TestSubmitScoring(t *testing.T) {
	st := seedExam(t)
	m := NewManager(t.Context(), zerolog.Nop(), Config{PassThresholdPct: 40}, st, nil)
	s, err := m.Start(testUserID, testExamID, testPassword)
	require.NoError(t, err)

	require.NoError(t, s.Answer(1, 1)) // correct
	require.NoError(t, s.Answer(2, 1)) // correct
	require.NoError(t, s.Answer(3, 2)) // correct
	require.NoError(t, s.Answer(4, 3)) // incorrect
	// question 5 left unanswered

	res, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, 6, res.Score)
	assert.Equal(t, 10, res.TotalMarks)
	assert.Equal(t, 60, res.Percentage)
	assert.Equal(t, model.ResultStatusPassed, res.Status)
	assert.Equal(t, model.ResultBreakdown{Correct: 3, Incorrect: 1, Unanswered: 1}, res.Breakdown)

	// Terminal: every further operation is rejected and the registry entry
	// is gone.
	_, err = s.Submit()
	assert.ErrorIs(t, err, ErrAttemptEnded)
	assert.ErrorIs(t, s.Answer(1, 0), ErrAttemptEnded)
	_, err = m.Get(testUserID)
	assert.ErrorIs(t, err, ErrNoActiveAttempt)

	results := st.ResultsForUser(testUserID)
	require.Len(t, results, 1)
	assert.Equal(t, res.ID, results[0].ID)

	exam, err := st.GetExam(testExamID)
	require.NoError(t, err)
	assert.Equal(t, model.ExamStatusCompleted, exam.Status)
}

func TestSubmitFailsBelowThreshold(t *testing.T) {
	st := seedExam(t)
	m := NewManager(t.Context(), zerolog.Nop(), Config{PassThresholdPct: 40}, st, nil)
	s, err := m.Start(testUserID, testExamID, testPassword)
	require.NoError(t, err)

	require.NoError(t, s.Answer(1, 1)) // correct, 2 of 10 marks

	res, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, 20, res.Percentage)
	assert.Equal(t, model.ResultStatusFailed, res.Status)
}

// ─── Penalty escalation ─────────────────────────────────────────────

func TestWarningThenDisqualification(t *testing.T) {
	st := seedExam(t)
	s, n := directSession(t, st, Config{MaxWarnings: 2})
	now := time.Now()

	s.handleSignal(detector.Signal{Type: detector.SignalBlur}, now)

	assert.Equal(t, []int{1}, n.warnings)
	assert.Empty(t, n.disqualified)
	assert.Equal(t, 1, s.attempt.WarningCount)

	// Correct answers on record change nothing about the outcome.
	s.attempt.Answers[1] = 1
	s.attempt.Answers[2] = 1

	s.handleSignal(detector.Signal{Type: detector.SignalContextMenu}, now)

	require.Len(t, n.disqualified, 1)
	assert.Equal(t, model.AttemptStatusDisqualified, s.attempt.Status)
	assert.True(t, st.IsDisqualified(testUserID, testExamID))

	res := s.result
	require.NotNil(t, res)
	assert.Equal(t, model.ResultStatusDisqualified, res.Status)
	assert.Zero(t, res.Score)
	assert.Zero(t, res.Percentage)
	assert.Equal(t, model.ResultBreakdown{Unanswered: 5}, res.Breakdown)

	// Only the second violation produced a warning count of 2, and no
	// warning notice follows the disqualification.
	assert.Equal(t, []int{1}, n.warnings)
}

func TestSingleWarningDisqualifiesImmediately(t *testing.T) {
	st := seedExam(t)
	s, n := directSession(t, st, Config{MaxWarnings: 1})

	s.handleSignal(detector.Signal{Type: detector.SignalBlur}, time.Now())

	assert.Empty(t, n.warnings)
	require.Len(t, n.disqualified, 1)
	assert.Equal(t, model.AttemptStatusDisqualified, s.attempt.Status)
}

func TestSuspiciousActivityDoesNotEscalate(t *testing.T) {
	st := seedExam(t)
	s, n := directSession(t, st, Config{MaxWarnings: 2})
	now := time.Now()

	s.handleSignal(detector.Signal{Type: detector.SignalResize, Width: 1280, Height: 800}, now)
	for i := 0; i < 5; i++ {
		s.handleSignal(detector.Signal{Type: detector.SignalResize, Width: 400 + i, Height: 800}, now)
		s.handleSignal(detector.Signal{Type: detector.SignalResize, Width: 1280 + i, Height: 800}, now)
	}

	// Every jump was recorded but none counted toward the threshold.
	assert.NotEmpty(t, s.events)
	assert.Zero(t, s.attempt.WarningCount)
	assert.Empty(t, n.warnings)
	assert.Empty(t, n.disqualified)
	assert.Equal(t, model.AttemptStatusInProgress, s.attempt.Status)
	for _, ev := range s.events {
		assert.Equal(t, model.CheatSuspicious, ev.Category)
	}
}

func TestScreenshotPairCollapsesToOneViolation(t *testing.T) {
	st := seedExam(t)
	s, n := directSession(t, st, Config{
		MaxWarnings: 3,
		Detector:    detector.Options{DebounceWindow: 2 * time.Second},
	})
	t0 := time.Now()

	// Press and release arrive back to back; the debounce gate collapses
	// them into a single recorded violation and a single alert.
	v := s.handleSignal(detector.Signal{Type: detector.SignalKeyDown, Key: "PrintScreen"}, t0)
	assert.True(t, v.Suppress)
	s.handleSignal(detector.Signal{Type: detector.SignalKeyUp, Key: "PrintScreen"}, t0.Add(50*time.Millisecond))

	assert.Equal(t, []int{1}, n.alerts)
	assert.Equal(t, 1, s.attempt.WarningCount)
	require.Len(t, s.events, 1)
	assert.Equal(t, model.CheatScreenshotAttempt, s.events[0].Category)

	// A second attempt after the cooldown counts again.
	s.handleSignal(detector.Signal{Type: detector.SignalKeyDown, Key: "PrintScreen"}, t0.Add(3*time.Second))
	assert.Equal(t, []int{1, 2}, n.alerts)
	assert.Equal(t, 2, s.attempt.WarningCount)
}

// ─── Countdown ──────────────────────────────────────────────────────

func TestTimerExpiryAutoSubmitsOnce(t *testing.T) {
	st := seedExam(t)
	s, n := directSession(t, st, Config{})

	s.attempt.Answers[1] = 1
	s.remaining = 2

	s.handleTick()
	assert.Empty(t, n.autoResults)
	assert.Equal(t, 1, s.remaining)

	s.handleTick()
	require.Len(t, n.autoResults, 1)
	res := n.autoResults[0]
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, model.ResultBreakdown{Correct: 1, Unanswered: 4}, res.Breakdown)
	assert.Equal(t, model.AttemptStatusCompleted, s.attempt.Status)
	assert.Zero(t, s.remaining)

	// Further ticks on an ended attempt change nothing.
	s.handleTick()
	assert.Len(t, n.autoResults, 1)
	assert.Zero(t, s.remaining)
}

func TestSignalsIgnoredAfterEnd(t *testing.T) {
	st := seedExam(t)
	s, n := directSession(t, st, Config{MaxWarnings: 1})

	s.handleSignal(detector.Signal{Type: detector.SignalBlur}, time.Now())
	require.Len(t, n.disqualified, 1)
	eventsAfter := len(s.events)

	v := s.handleSignal(detector.Signal{Type: detector.SignalContextMenu}, time.Now())
	assert.Equal(t, detector.Verdict{}, v)
	assert.Len(t, s.events, eventsAfter)
}
