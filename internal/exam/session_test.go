package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hireflow/assess-backend/internal/model"
)

var t0 = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func newTestSession(questions int) *model.TestSession {
	s := &model.TestSession{
		ID:            model.NewSessionCode(),
		AttemptNumber: 1,
		Status:        model.SessionStatusCreated,
		CreatedAt:     t0,
		Config: model.SessionConfig{
			TotalQuestions:     questions,
			DurationMinutes:    30,
			PassingPercentage:  65,
			NegativeMarking:    true,
			ViolationThreshold: 3,
		},
	}
	for i := 1; i <= questions; i++ {
		s.Slots = append(s.Slots, model.QuestionSlot{
			Number:         i,
			Text:           "q",
			Type:           model.QuestionTypeShortAnswer,
			Category:       "general",
			Difficulty:     model.DifficultyEasy,
			CorrectAnswer:  "right",
			Points:         3,
			NegativePoints: 1,
		})
	}
	return s
}

func beganSession(questions int) *model.TestSession {
	s := newTestSession(questions)
	if err := Begin(s, t0); err != nil {
		panic(err)
	}
	return s
}

func TestBegin(t *testing.T) {
	s := newTestSession(3)

	require.NoError(t, Begin(s, t0))
	require.Equal(t, model.SessionStatusInProgress, s.Status)
	require.Equal(t, t0, *s.StartedAt)
	require.Equal(t, 30*60, s.RemainingSeconds(t0))

	// Begin is only legal once.
	require.ErrorIs(t, Begin(s, t0.Add(time.Minute)), ErrInvalidState)
}

func TestRecordAnswer(t *testing.T) {
	s := beganSession(3)
	now := t0.Add(5 * time.Minute)

	require.NoError(t, RecordAnswer(s, 2, "right", 40, now))

	slot := s.Slots[1]
	require.True(t, slot.Answered)
	require.Equal(t, "right", *slot.SelectedAnswer)
	require.Equal(t, 40, slot.TimeSpentSeconds)
	require.Equal(t, now, *slot.AnsweredAt)
	require.Equal(t, 1, s.AnsweredCount())
}

func TestRecordAnswer_OverwriteIsIdempotent(t *testing.T) {
	s := beganSession(3)

	require.NoError(t, RecordAnswer(s, 1, "first", 10, t0.Add(time.Minute)))
	require.NoError(t, RecordAnswer(s, 1, "second", 25, t0.Add(2*time.Minute)))

	require.Equal(t, 1, s.AnsweredCount())
	require.Equal(t, "second", *s.Slots[0].SelectedAnswer)
	require.Equal(t, 25, s.Slots[0].TimeSpentSeconds)
}

func TestRecordAnswer_WrongState(t *testing.T) {
	s := newTestSession(3)
	require.ErrorIs(t, RecordAnswer(s, 1, "x", 5, t0), ErrInvalidState)
}

func TestRecordAnswer_OutOfRange(t *testing.T) {
	s := beganSession(3)
	require.ErrorIs(t, RecordAnswer(s, 0, "x", 5, t0.Add(time.Minute)), ErrQuestionOutOfRange)
	require.ErrorIs(t, RecordAnswer(s, 4, "x", 5, t0.Add(time.Minute)), ErrQuestionOutOfRange)
}

func TestRecordAnswer_AfterDeadlineExpiresAndScores(t *testing.T) {
	s := beganSession(3)
	require.NoError(t, RecordAnswer(s, 1, "right", 10, t0.Add(time.Minute)))

	late := t0.Add(31 * time.Minute)
	err := RecordAnswer(s, 2, "right", 10, late)

	// The triggering request fails, but the termination is not lost: the
	// session is evaluated with the answers it had.
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, model.SessionStatusEvaluated, s.Status)
	require.Equal(t, model.EndReasonTimeout, s.EndReason)
	require.NotNil(t, s.Score)
	require.Equal(t, 1, s.Score.CorrectCount)
	require.False(t, s.Slots[1].Answered)
}

func TestSetFlag(t *testing.T) {
	s := beganSession(3)

	require.NoError(t, SetFlag(s, 3, true, t0.Add(time.Minute)))
	require.True(t, s.Slots[2].Flagged)
	require.Equal(t, 1, s.FlaggedCount())

	require.NoError(t, SetFlag(s, 3, false, t0.Add(2*time.Minute)))
	require.False(t, s.Slots[2].Flagged)
}

func TestSubmit(t *testing.T) {
	s := beganSession(2)
	require.NoError(t, RecordAnswer(s, 1, "right", 10, t0.Add(time.Minute)))

	report, err := Submit(s, t0.Add(10*time.Minute))

	require.NoError(t, err)
	require.Equal(t, model.SessionStatusEvaluated, s.Status)
	require.Equal(t, model.EndReasonSubmitted, s.EndReason)
	require.NotNil(t, s.SubmittedAt)
	require.NotNil(t, s.EndedAt)
	require.Equal(t, 1, report.CorrectCount)
	require.Same(t, report, s.Score)
}

func TestSubmit_ZeroAnswersAllowed(t *testing.T) {
	s := beganSession(2)

	report, err := Submit(s, t0.Add(time.Minute))

	require.NoError(t, err)
	require.Equal(t, 0.0, report.NetScore)
	require.Equal(t, 0, report.Percentage)
	require.Equal(t, 2, report.UnansweredCount)
}

func TestSubmit_AtMostOnce(t *testing.T) {
	s := beganSession(2)
	require.NoError(t, RecordAnswer(s, 1, "right", 10, t0.Add(time.Minute)))

	first, err := Submit(s, t0.Add(2*time.Minute))
	require.NoError(t, err)

	second, err := Submit(s, t0.Add(3*time.Minute))
	require.ErrorIs(t, err, ErrAlreadyEvaluated)
	require.Nil(t, second)
	// Stored score block unchanged.
	require.Same(t, first, s.Score)
}

func TestSubmit_FromCreated(t *testing.T) {
	s := newTestSession(2)
	_, err := Submit(s, t0)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmit_PastDeadline(t *testing.T) {
	s := beganSession(2)

	_, err := Submit(s, t0.Add(45*time.Minute))

	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, model.SessionStatusEvaluated, s.Status)
	require.Equal(t, model.EndReasonTimeout, s.EndReason)
}

func TestRecordViolation_CountersAndDecision(t *testing.T) {
	s := beganSession(2)

	event, decision, err := RecordViolation(s, model.ViolationWindowBlur, "", t0.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, model.SeverityMinor, event.Severity)
	require.Equal(t, 1, decision.TotalViolations)
	require.False(t, decision.ShouldTerminate)
	require.Equal(t, 1, s.MinorViolations)
}

func TestRecordViolation_TwoCriticalsTerminate(t *testing.T) {
	s := beganSession(2)

	_, first, err := RecordViolation(s, model.ViolationDevTools, "", t0.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, first.ShouldTerminate)
	require.Equal(t, model.SessionStatusInProgress, s.Status)

	_, second, err := RecordViolation(s, model.ViolationMultipleFaces, "", t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.True(t, second.ShouldTerminate)
	require.Equal(t, model.SessionStatusEvaluated, s.Status)
	require.Equal(t, model.EndReasonViolations, s.EndReason)
	require.NotNil(t, s.Score)
}

func TestRecordViolation_MajorThreshold(t *testing.T) {
	s := beganSession(2)

	for i := 0; i < 2; i++ {
		_, decision, err := RecordViolation(s, model.ViolationTabSwitch, "", t0.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
		require.False(t, decision.ShouldTerminate)
	}

	_, decision, err := RecordViolation(s, model.ViolationCopyPaste, "", t0.Add(5*time.Minute))
	require.NoError(t, err)
	require.True(t, decision.ShouldTerminate)
	require.Equal(t, 3, s.MajorViolations)
	require.Equal(t, model.SessionStatusEvaluated, s.Status)
}

func TestRecordViolation_AfterTermination(t *testing.T) {
	s := beganSession(2)
	_, _, _ = RecordViolation(s, model.ViolationDevTools, "", t0.Add(time.Minute))
	_, _, _ = RecordViolation(s, model.ViolationDevTools, "", t0.Add(2*time.Minute))
	require.Equal(t, model.SessionStatusEvaluated, s.Status)

	_, _, err := RecordViolation(s, model.ViolationTabSwitch, "", t0.Add(3*time.Minute))
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestForceSubmit(t *testing.T) {
	s := beganSession(2)
	require.NoError(t, RecordAnswer(s, 1, "right", 10, t0.Add(time.Minute)))

	report := ForceSubmit(s, model.EndReasonTimeout, t0.Add(40*time.Minute))

	require.Equal(t, model.SessionStatusEvaluated, s.Status)
	require.Equal(t, model.EndReasonTimeout, s.EndReason)
	require.Nil(t, s.SubmittedAt)
	require.Equal(t, 1, report.CorrectCount)

	// Identical score block shape to an explicit submit.
	require.Equal(t, 2, report.TotalQuestions)
	require.NotEmpty(t, report.Grade)
}

func TestForceSubmit_TerminalNoop(t *testing.T) {
	s := beganSession(2)
	first, err := Submit(s, t0.Add(time.Minute))
	require.NoError(t, err)

	again := ForceSubmit(s, model.EndReasonTimeout, t0.Add(2*time.Minute))

	require.Same(t, first, again)
	require.Equal(t, model.EndReasonSubmitted, s.EndReason)
}

func TestForceSubmit_NeverBegunExpires(t *testing.T) {
	s := newTestSession(2)

	report := ForceSubmit(s, model.EndReasonTimeout, t0.Add(time.Hour))

	require.Nil(t, report)
	require.Equal(t, model.SessionStatusExpired, s.Status)
	require.Nil(t, s.Score)
}

func TestRemainingSeconds(t *testing.T) {
	s := beganSession(2)

	require.Equal(t, 1500, s.RemainingSeconds(t0.Add(5*time.Minute)))
	require.Equal(t, 0, s.RemainingSeconds(t0.Add(31*time.Minute)))

	_, err := Submit(s, t0.Add(5*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 0, s.RemainingSeconds(t0.Add(6*time.Minute)))
}
