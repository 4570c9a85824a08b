package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/assess-backend/internal/model"
)

var viewNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func viewSession() *model.TestSession {
	started := viewNow.Add(-10 * time.Minute)
	return &model.TestSession{
		ID:            "K7PMQ2WXN4RT",
		CandidateID:   uuid.New(),
		AttemptNumber: 1,
		Config: model.SessionConfig{
			TotalQuestions:    2,
			DurationMinutes:   45,
			PassingPercentage: 60,
		},
		Slots: []model.QuestionSlot{
			{
				Number:        1,
				Text:          "Capital of France?",
				Type:          model.QuestionTypeMultipleChoice,
				Category:      "geography",
				Difficulty:    model.DifficultyEasy,
				Options:       []model.Option{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}},
				CorrectAnswer: "Paris",
				Points:        1,
			},
			{
				Number:        2,
				Text:          "The sky is blue.",
				Type:          model.QuestionTypeTrueFalse,
				Category:      "science",
				Difficulty:    model.DifficultyEasy,
				CorrectAnswer: "true",
				Points:        1,
				Flagged:       true,
			},
		},
		Status:    model.SessionStatusInProgress,
		CreatedAt: viewNow.Add(-15 * time.Minute),
		StartedAt: &started,
	}
}

func TestSessionView_Running(t *testing.T) {
	view := sessionView(viewSession(), true, viewNow)

	// 45 minutes minus the 10 elapsed.
	require.Equal(t, 35*60, view["remaining_seconds"])
	require.Equal(t, float64(60), view["passing_percentage"])
	require.Equal(t, 1, view["flagged_count"])
	require.NotContains(t, view, "score")

	paper, ok := view["questions"].([]model.PaperQuestion)
	require.True(t, ok)
	require.Len(t, paper, 2)

	// Nothing answer-revealing crosses the wire while the test runs.
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "correct_answer")
	require.NotContains(t, string(raw), "is_correct")
}

func TestSessionView_PaperExcluded(t *testing.T) {
	view := sessionView(viewSession(), false, viewNow)
	require.NotContains(t, view, "questions")
}

func TestSessionView_Evaluated(t *testing.T) {
	s := viewSession()
	ended := viewNow.Add(-time.Minute)
	s.Status = model.SessionStatusEvaluated
	s.EndReason = model.EndReasonSubmitted
	s.EndedAt = &ended
	s.Score = &model.ScoreReport{Percentage: 50, Grade: "C", IsPassed: false}

	view := sessionView(s, true, viewNow)

	// Terminal sessions expose the score, never the paper, and the clock
	// stops at zero.
	require.Equal(t, 0, view["remaining_seconds"])
	require.Equal(t, s.Score, view["score"])
	require.Equal(t, model.EndReasonSubmitted, view["end_reason"])
	require.NotContains(t, view, "questions")
}
