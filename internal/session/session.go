package session

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examsecure/examsecure-backend/internal/detector"
	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/store"
)

// Operation errors. All of these are recoverable rejections, never fatal.
var (
	ErrAttemptEnded    = errors.New("attempt is no longer in progress")
	ErrOutOfRange      = errors.New("question number out of range")
	ErrUnknownQuestion = errors.New("no such question in this exam")
)

// Notifier is the UI notification surface. All calls are fire-and-forget
// side effects invoked from the session's own turn; implementations must
// not call back into the session.
type Notifier interface {
	// Warning is a non-terminal violation notice with current/max counts.
	Warning(message string, count, max int)
	// ScreenshotAlert drives the full-screen screenshot-detected flash.
	ScreenshotAlert(count, max int)
	// Disqualified is the terminal, non-dismissible notice.
	Disqualified(reason string)
	// AutoSubmitted reports a forced submission when the countdown expires.
	AutoSubmitted(result *model.ExamResult)
}

// Archiver receives recorded events and finalized results for asynchronous
// persistence. Implementations must return quickly and never block a turn.
type Archiver interface {
	ArchiveCheatEvent(attemptID, examID, userID string, ev model.CheatEvent)
	ArchiveResult(res *model.ExamResult)
}

// noopNotifier stands in while no client is attached to the session.
type noopNotifier struct{}

func (noopNotifier) Warning(string, int, int)        {}
func (noopNotifier) ScreenshotAlert(int, int)        {}
func (noopNotifier) Disqualified(string)             {}
func (noopNotifier) AutoSubmitted(*model.ExamResult) {}

// Config tunes one session's enforcement behavior.
type Config struct {
	MaxWarnings      int
	PassThresholdPct int
	DevToolsPoll     time.Duration
	Detector         detector.Options
}

func (c Config) withDefaults() Config {
	if c.MaxWarnings <= 0 {
		c.MaxWarnings = 2
	}
	if c.PassThresholdPct <= 0 {
		c.PassThresholdPct = 40
	}
	if c.DevToolsPoll <= 0 {
		c.DevToolsPoll = 2 * time.Second
	}
	return c
}

// Session owns one in-progress exam attempt end to end: the attempt state,
// the append-only cheat-event log, the armed detector, and the countdown.
// All state is mutated exclusively by the session's own goroutine, which
// processes commands, timer ticks, and detector polls as discrete
// non-overlapping turns.
type Session struct {
	log      zerolog.Logger
	cfg      Config
	store    *store.Store
	notifier Notifier
	archiver Archiver

	exam      model.Exam
	questions []model.Question
	validQ    map[int]struct{}

	attempt   *model.ExamAttempt
	events    []model.CheatEvent
	det       *detector.Detector
	remaining int
	result    *model.ExamResult

	cmds    chan func()
	closed  chan struct{}
	onClose func(*Session)
}

// newSession builds a ready-to-run session with a fresh in-progress attempt.
// The caller (the manager) has already validated the start preconditions.
func newSession(
	log zerolog.Logger,
	cfg Config,
	st *store.Store,
	archiver Archiver,
	exam *model.Exam,
	questions []model.Question,
	userID string,
	onClose func(*Session),
) *Session {
	cfg = cfg.withDefaults()

	validQ := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		validQ[q.QuestionNumber] = struct{}{}
	}

	attempt := &model.ExamAttempt{
		ID:               uuid.New().String(),
		ExamID:           exam.ID,
		UserID:           userID,
		StartedAt:        time.Now(),
		Answers:          make(map[int]int),
		FlaggedQuestions: nil,
		CurrentQuestion:  1,
		Status:           model.AttemptStatusInProgress,
		WarningCount:     0,
	}

	s := &Session{
		log:       log.With().Str("component", "session").Str("attempt_id", attempt.ID).Logger(),
		cfg:       cfg,
		store:     st,
		notifier:  noopNotifier{},
		archiver:  archiver,
		exam:      *exam,
		questions: questions,
		validQ:    validQ,
		attempt:   attempt,
		det:       detector.New(cfg.Detector),
		remaining: exam.DurationMin * 60,
		cmds:      make(chan func()),
		closed:    make(chan struct{}),
		onClose:   onClose,
	}
	s.det.Arm()
	return s
}

// run is the session's event loop: the only goroutine that touches attempt
// state. The deferred teardown guarantees the timer, the devtools poll, and
// the detector all stop together on every exit path.
func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	poll := time.NewTicker(s.cfg.DevToolsPoll)
	defer func() {
		ticker.Stop()
		poll.Stop()
		s.det.Disarm()
	}()

	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-ticker.C:
			s.handleTick()
		case <-poll.C:
			s.handlePoll(time.Now())
		case <-ctx.Done():
			s.abandon()
		}

		select {
		case <-s.closed:
			return
		default:
		}
	}
}

// do executes fn as one turn on the session goroutine and waits for it.
// Once the send succeeds the loop is committed to running the turn, so the
// wait is unconditional; this matters for turns that close the session
// themselves, where racing against the closed channel would sometimes
// swallow the turn's outcome.
func (s *Session) do(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case s.cmds <- wrapped:
		<-done
		return nil
	case <-s.closed:
		return ErrAttemptEnded
	}
}

func (s *Session) ended() bool {
	return s.attempt.Status != model.AttemptStatusInProgress
}

// AttemptID returns the immutable attempt identifier.
func (s *Session) AttemptID() string {
	return s.attempt.ID
}

// ExamID returns the immutable exam identifier for this session.
func (s *Session) ExamID() string {
	return s.exam.ID
}

// AttachNotifier swaps in the client-facing notification surface. A
// detached (nil) notifier falls back to a no-op sink so the penalty
// machinery never depends on a client being connected.
func (s *Session) AttachNotifier(n Notifier) {
	_ = s.do(func() {
		if n == nil {
			s.notifier = noopNotifier{}
			return
		}
		s.notifier = n
	})
}

// Signal feeds one raw client signal through the detector and applies any
// resulting events and alerts. The returned verdict tells the client which
// default action to cancel or deny.
func (s *Session) Signal(sig detector.Signal) (detector.Verdict, error) {
	var v detector.Verdict
	err := s.do(func() {
		v = s.handleSignal(sig, time.Now())
	})
	return v, err
}

// Answer records the selected option for a question, overwriting any prior
// answer for the same number.
func (s *Session) Answer(questionNumber, option int) error {
	var opErr error
	err := s.do(func() {
		if s.ended() {
			opErr = ErrAttemptEnded
			return
		}
		if _, ok := s.validQ[questionNumber]; !ok {
			opErr = ErrUnknownQuestion
			return
		}
		s.attempt.Answers[questionNumber] = option
	})
	if err != nil {
		return err
	}
	return opErr
}

// Flag marks a question for review. Flagging an already-flagged question is
// a no-op.
func (s *Session) Flag(questionNumber int) error {
	var opErr error
	err := s.do(func() {
		if s.ended() {
			opErr = ErrAttemptEnded
			return
		}
		if _, ok := s.validQ[questionNumber]; !ok {
			opErr = ErrUnknownQuestion
			return
		}
		if !s.attempt.Flagged(questionNumber) {
			s.attempt.FlaggedQuestions = append(s.attempt.FlaggedQuestions, questionNumber)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// Unflag removes a question's flag. Unflagging a non-flagged question is a
// no-op.
func (s *Session) Unflag(questionNumber int) error {
	var opErr error
	err := s.do(func() {
		if s.ended() {
			opErr = ErrAttemptEnded
			return
		}
		kept := s.attempt.FlaggedQuestions[:0]
		for _, n := range s.attempt.FlaggedQuestions {
			if n != questionNumber {
				kept = append(kept, n)
			}
		}
		s.attempt.FlaggedQuestions = kept
	})
	if err != nil {
		return err
	}
	return opErr
}

// GoTo moves the current-question pointer. Out-of-range requests are
// rejected without moving the pointer; there is no wraparound.
func (s *Session) GoTo(questionNumber int) error {
	var opErr error
	err := s.do(func() {
		if s.ended() {
			opErr = ErrAttemptEnded
			return
		}
		if questionNumber < 1 || questionNumber > len(s.questions) {
			opErr = ErrOutOfRange
			return
		}
		s.attempt.CurrentQuestion = questionNumber
	})
	if err != nil {
		return err
	}
	return opErr
}

// Submit finishes the attempt, scores it, and tears the session down.
// A second submit (or a submit after disqualification) is a rejected no-op.
func (s *Session) Submit() (*model.ExamResult, error) {
	var (
		res   *model.ExamResult
		opErr error
	)
	err := s.do(func() {
		if s.ended() {
			opErr = ErrAttemptEnded
			return
		}
		res = s.finishSubmit(false)
	})
	if err != nil {
		return nil, err
	}
	return res, opErr
}

// State is a point-in-time snapshot safe to hand outside the session.
type State struct {
	Attempt          model.ExamAttempt  `json:"attempt"`
	RemainingSeconds int                `json:"remaining_seconds"`
	CheatEvents      []model.CheatEvent `json:"cheat_events"`
	MaxWarnings      int                `json:"max_warnings"`
}

// Snapshot copies the current attempt state for reporting.
func (s *Session) Snapshot() State {
	var st State
	_ = s.do(func() {
		st = s.snapshotLocked()
	})
	if st.Attempt.ID == "" {
		// The session closed before the turn ran; serve the final state.
		st = s.snapshotLocked()
	}
	return st
}

func (s *Session) snapshotLocked() State {
	attempt := *s.attempt
	attempt.Answers = make(map[int]int, len(s.attempt.Answers))
	for k, v := range s.attempt.Answers {
		attempt.Answers[k] = v
	}
	attempt.FlaggedQuestions = append([]int(nil), s.attempt.FlaggedQuestions...)

	return State{
		Attempt:          attempt,
		RemainingSeconds: s.remaining,
		CheatEvents:      append([]model.CheatEvent(nil), s.events...),
		MaxWarnings:      s.cfg.MaxWarnings,
	}
}

// handleTick advances the countdown one second. Reaching zero forces a
// submission through the same path as a manual submit, exactly once; the
// session closes before another tick can be processed.
func (s *Session) handleTick() {
	if s.ended() {
		return
	}
	s.remaining--
	if s.remaining > 0 {
		return
	}
	s.remaining = 0
	res := s.finishSubmit(true)
	s.notifier.AutoSubmitted(res)
}

// handlePoll runs the periodic devtools heuristic turn.
func (s *Session) handlePoll(now time.Time) {
	if s.ended() {
		return
	}
	v := s.det.PollDevTools(now)
	s.applyVerdict(v, now)
}

// handleSignal classifies one raw signal and applies the verdict.
func (s *Session) handleSignal(sig detector.Signal, now time.Time) detector.Verdict {
	if s.ended() {
		return detector.Verdict{}
	}
	v := s.det.Classify(sig, now)
	s.applyVerdict(v, now)
	return v
}

// applyVerdict records classified events and, when the debounce gate fires,
// the shared screenshot-attempt escalation.
func (s *Session) applyVerdict(v detector.Verdict, now time.Time) {
	for _, ev := range v.Events {
		s.record(ev.Category, ev.Description, now)
		if s.ended() {
			return
		}
	}
	if v.Alert && s.det.AlertGate(now) {
		s.recordScreenshot(now)
	}
}

// finishSubmit scores and finalizes a completed attempt. forced marks the
// countdown-expiry path.
func (s *Session) finishSubmit(forced bool) *model.ExamResult {
	now := time.Now()

	var correct, incorrect, unanswered, score int
	for _, q := range s.questions {
		answer, ok := s.attempt.Answers[q.QuestionNumber]
		switch {
		case !ok:
			unanswered++
		case answer == q.CorrectAnswer:
			correct++
			score += q.Marks
		default:
			incorrect++
		}
	}

	percentage := 0
	if s.exam.TotalMarks > 0 {
		percentage = int(math.Round(float64(score) / float64(s.exam.TotalMarks) * 100))
	}

	status := model.ResultStatusFailed
	if percentage >= s.cfg.PassThresholdPct {
		status = model.ResultStatusPassed
	}

	res := &model.ExamResult{
		ID:          uuid.New().String(),
		ExamID:      s.exam.ID,
		ExamTitle:   s.exam.Title,
		Subject:     s.exam.Subject,
		UserID:      s.attempt.UserID,
		Score:       score,
		TotalMarks:  s.exam.TotalMarks,
		Percentage:  percentage,
		CompletedAt: now,
		Status:      status,
		Breakdown: model.ResultBreakdown{
			Correct:    correct,
			Incorrect:  incorrect,
			Unanswered: unanswered,
		},
	}

	s.attempt.Status = model.AttemptStatusCompleted
	s.attempt.CompletedAt = &now
	s.finalize(res)

	s.log.Info().
		Bool("forced", forced).
		Int("score", score).
		Int("percentage", percentage).
		Str("status", string(status)).
		Msg("Attempt submitted")

	return res
}

// finalize is the single exit path shared by submission and
// disqualification: it persists the result, flips the exam to completed,
// disarms the detector, and closes the session.
func (s *Session) finalize(res *model.ExamResult) {
	s.result = res
	s.store.RecordResult(res)
	s.store.SetExamStatus(s.exam.ID, model.ExamStatusCompleted)
	s.det.Disarm()
	if s.archiver != nil {
		s.archiver.ArchiveResult(res)
	}
	s.close()
}

// abandon tears the session down on server shutdown without synthesizing a
// result; the attempt simply stops being live.
func (s *Session) abandon() {
	if s.ended() {
		s.close()
		return
	}
	s.log.Warn().Msg("Session abandoned on shutdown")
	s.close()
}

func (s *Session) close() {
	select {
	case <-s.closed:
		return
	default:
	}
	close(s.closed)
	if s.onClose != nil {
		s.onClose(s)
	}
}

// Result returns the finalized result, or nil while in progress.
func (s *Session) Result() *model.ExamResult {
	select {
	case <-s.closed:
		return s.result
	default:
	}
	var res *model.ExamResult
	_ = s.do(func() { res = s.result })
	return res
}
