package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/examsecure/examsecure-backend/internal/model"
)

const (
	disqualifyReason = "Multiple cheating violations detected"

	warnScreenshot = "SCREENSHOT DETECTED! This violation has been recorded."
	warnTabSwitch  = "Warning: Tab switching detected! This is a violation of exam rules."
	warnBlur       = "Warning: Window focus lost! Please stay on the exam window."
	warnRightClick = "Right-click is disabled during the exam."
	warnCopyPaste  = "Copy/Paste is disabled during the exam."
	warnDevTools   = "Developer tools are not allowed during the exam."
)

// warnMessage picks the user-facing notice for a penalizable category. The
// blur variant is distinguished by the event description since both focus
// channels classify as tab-switch.
func warnMessage(cat model.CheatCategory, description string) string {
	switch cat {
	case model.CheatTabSwitch:
		if description == "Window lost focus" {
			return warnBlur
		}
		return warnTabSwitch
	case model.CheatRightClick:
		return warnRightClick
	case model.CheatCopyPaste:
		return warnCopyPaste
	case model.CheatDevTools:
		return warnDevTools
	case model.CheatScreenshotAttempt:
		return warnScreenshot
	default:
		return "Warning: suspicious activity detected."
	}
}

// append is the sole mutation point for the attempt's cheat-event log.
func (s *Session) append(cat model.CheatCategory, description string, now time.Time) {
	ev := model.CheatEvent{
		Category:    cat,
		Description: description,
		Timestamp:   now,
	}
	s.events = append(s.events, ev)
	if s.archiver != nil {
		s.archiver.ArchiveCheatEvent(s.attempt.ID, s.exam.ID, s.attempt.UserID, ev)
	}
	s.log.Debug().
		Str("category", string(cat)).
		Int("warning_count", s.attempt.WarningCount).
		Msg("Cheat event recorded")
}

// record appends one classified event and, for penalizable categories,
// runs the warning escalation. Appending and incrementing here is the only
// path by which WarningCount changes, and every increment re-evaluates the
// penalty threshold before the next event can be processed.
func (s *Session) record(cat model.CheatCategory, description string, now time.Time) {
	s.append(cat, description, now)
	if !cat.Penalizable() {
		return
	}
	s.attempt.WarningCount++
	if s.attempt.WarningCount >= s.cfg.MaxWarnings {
		s.disqualify(disqualifyReason)
		return
	}
	s.notifier.Warning(warnMessage(cat, description), s.attempt.WarningCount, s.cfg.MaxWarnings)
}

// recordScreenshot is the debounced screenshot-alert path: one event, the
// full-screen alert callback, then the escalation check. The alert fires
// regardless of whether this violation is the disqualifying one.
func (s *Session) recordScreenshot(now time.Time) {
	s.append(model.CheatScreenshotAttempt, "Screenshot attempt detected", now)
	s.attempt.WarningCount++
	s.notifier.ScreenshotAlert(s.attempt.WarningCount, s.cfg.MaxWarnings)
	if s.attempt.WarningCount >= s.cfg.MaxWarnings {
		s.disqualify(disqualifyReason)
		return
	}
	s.notifier.Warning(warnScreenshot, s.attempt.WarningCount, s.cfg.MaxWarnings)
}

// disqualify is the one-way terminal transition: a zero-score result is
// synthesized, the exam/taker pair enters the disqualified set, and the
// session tears down. No administrative override reverses this for the
// live attempt; only a later retake grant creates a fresh one.
func (s *Session) disqualify(reason string) {
	now := time.Now()
	s.attempt.Status = model.AttemptStatusDisqualified
	s.attempt.CompletedAt = &now

	res := &model.ExamResult{
		ID:          uuid.New().String(),
		ExamID:      s.exam.ID,
		ExamTitle:   s.exam.Title,
		Subject:     s.exam.Subject,
		UserID:      s.attempt.UserID,
		Score:       0,
		TotalMarks:  s.exam.TotalMarks,
		Percentage:  0,
		CompletedAt: now,
		Status:      model.ResultStatusDisqualified,
		Breakdown: model.ResultBreakdown{
			Correct:    0,
			Incorrect:  0,
			Unanswered: s.exam.TotalQuestions,
		},
	}

	s.store.Disqualify(s.attempt.UserID, s.exam.ID)
	s.notifier.Disqualified(reason)
	s.finalize(res)

	s.log.Warn().
		Int("warning_count", s.attempt.WarningCount).
		Str("reason", reason).
		Msg("Attempt disqualified")
}
