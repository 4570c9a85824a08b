package exam

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hireflow/assess-backend/internal/model"
)

func answeredSlot(n int, category string, diff model.Difficulty, points, negative float64, correct bool) model.QuestionSlot {
	answer := "right"
	if !correct {
		answer = "wrong"
	}
	return model.QuestionSlot{
		Number:         n,
		Text:           "q",
		Type:           model.QuestionTypeShortAnswer,
		Category:       category,
		Difficulty:     diff,
		CorrectAnswer:  "right",
		Points:         points,
		NegativePoints: negative,
		SelectedAnswer: &answer,
		Answered:       true,
	}
}

func unansweredSlot(n int, category string, diff model.Difficulty, points, negative float64) model.QuestionSlot {
	return model.QuestionSlot{
		Number:         n,
		Text:           "q",
		Type:           model.QuestionTypeShortAnswer,
		Category:       category,
		Difficulty:     diff,
		CorrectAnswer:  "right",
		Points:         points,
		NegativePoints: negative,
	}
}

func TestEvaluate_ReferenceScenario(t *testing.T) {
	// 10 questions at 3 points / 1 negative point: 6 correct, 2 wrong,
	// 2 unanswered, negative marking on, passing at 65.
	var slots []model.QuestionSlot
	for i := 1; i <= 6; i++ {
		slots = append(slots, answeredSlot(i, "general", model.DifficultyEasy, 3, 1, true))
	}
	for i := 7; i <= 8; i++ {
		slots = append(slots, answeredSlot(i, "general", model.DifficultyEasy, 3, 1, false))
	}
	for i := 9; i <= 10; i++ {
		slots = append(slots, unansweredSlot(i, "general", model.DifficultyEasy, 3, 1))
	}

	report := Evaluate(slots, true, 65)

	require.Equal(t, 10, report.TotalQuestions)
	require.Equal(t, 6, report.CorrectCount)
	require.Equal(t, 2, report.WrongCount)
	require.Equal(t, 2, report.UnansweredCount)
	require.Equal(t, 30.0, report.TotalPoints)
	require.Equal(t, 18.0, report.PointsEarned)
	require.Equal(t, 2.0, report.NegativePoints)
	require.Equal(t, 16.0, report.NetScore)
	require.Equal(t, 53, report.Percentage)
	require.Equal(t, "C+", report.Grade)
	require.False(t, report.IsPassed)
}

func TestEvaluate_Deterministic(t *testing.T) {
	build := func() []model.QuestionSlot {
		return []model.QuestionSlot{
			answeredSlot(1, "logic", model.DifficultyEasy, 2, 1, true),
			answeredSlot(2, "logic", model.DifficultyHard, 5, 2, false),
			unansweredSlot(3, "verbal", model.DifficultyModerate, 3, 1),
		}
	}

	first := Evaluate(build(), true, 50)
	second := Evaluate(build(), true, 50)
	require.Equal(t, first, second)
}

func TestEvaluate_NegativePercentageNotClamped(t *testing.T) {
	// All wrong with negative marking: net score goes below zero and the
	// literal formula is preserved, no clamping.
	slots := []model.QuestionSlot{
		answeredSlot(1, "g", model.DifficultyEasy, 1, 2, false),
		answeredSlot(2, "g", model.DifficultyEasy, 1, 2, false),
	}

	report := Evaluate(slots, true, 40)

	require.Equal(t, -4.0, report.NetScore)
	require.Equal(t, -200, report.Percentage)
	require.Equal(t, "F", report.Grade)
	require.False(t, report.IsPassed)
}

func TestEvaluate_NoNegativeMarking(t *testing.T) {
	slots := []model.QuestionSlot{
		answeredSlot(1, "g", model.DifficultyEasy, 3, 1, false),
		answeredSlot(2, "g", model.DifficultyEasy, 3, 1, true),
	}

	report := Evaluate(slots, false, 50)

	require.Equal(t, 0.0, report.NegativePoints)
	require.Equal(t, 3.0, report.NetScore)
	require.Equal(t, 50, report.Percentage)
	require.True(t, report.IsPassed)
}

func TestEvaluate_EmptySlots(t *testing.T) {
	report := Evaluate(nil, true, 50)

	require.Equal(t, 0, report.Percentage)
	require.Equal(t, "F", report.Grade)
	require.False(t, report.IsPassed)
}

func TestEvaluate_MultipleChoiceMatchesMarkedOption(t *testing.T) {
	selected := "Paris"
	slot := model.QuestionSlot{
		Number: 1,
		Type:   model.QuestionTypeMultipleChoice,
		Options: []model.Option{
			{Text: "London"},
			{Text: "Paris", IsCorrect: true},
		},
		// CorrectAnswer is deliberately different to prove the option
		// flags win for multiple choice.
		CorrectAnswer:  "London",
		Category:       "geo",
		Difficulty:     model.DifficultyEasy,
		Points:         1,
		SelectedAnswer: &selected,
		Answered:       true,
	}

	report := Evaluate([]model.QuestionSlot{slot}, false, 50)
	require.Equal(t, 1, report.CorrectCount)
}

func TestEvaluate_ShortAnswerCaseAndSpaceInsensitive(t *testing.T) {
	tests := []struct {
		name    string
		given   string
		correct bool
	}{
		{"exact", "Goroutine", true},
		{"case differs", "gOROUTINE", true},
		{"surrounding space", "  goroutine  ", true},
		{"different word", "thread", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			slot := model.QuestionSlot{
				Number:         1,
				Type:           model.QuestionTypeShortAnswer,
				Category:       "go",
				Difficulty:     model.DifficultyEasy,
				CorrectAnswer:  "goroutine",
				Points:         1,
				SelectedAnswer: &tc.given,
				Answered:       true,
			}
			report := Evaluate([]model.QuestionSlot{slot}, false, 50)
			require.Equal(t, tc.correct, report.CorrectCount == 1)
		})
	}
}

func TestEvaluate_Breakdowns(t *testing.T) {
	slots := []model.QuestionSlot{
		answeredSlot(1, "logic", model.DifficultyEasy, 2, 1, true),
		answeredSlot(2, "logic", model.DifficultyHard, 4, 2, false),
		answeredSlot(3, "verbal", model.DifficultyEasy, 2, 1, true),
		unansweredSlot(4, "verbal", model.DifficultyHard, 4, 2),
	}

	report := Evaluate(slots, true, 50)

	require.Equal(t, []model.GroupBreakdown{
		{Key: "logic", Questions: 2, Correct: 1, Percentage: 50, NetPoints: 0},
		{Key: "verbal", Questions: 2, Correct: 1, Percentage: 50, NetPoints: 2},
	}, report.ByCategory)

	require.Equal(t, []model.GroupBreakdown{
		{Key: "EASY", Questions: 2, Correct: 2, Percentage: 100, NetPoints: 4},
		{Key: "HARD", Questions: 2, Correct: 0, Percentage: 0, NetPoints: -2},
	}, report.ByDifficulty)
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		percentage int
		grade      string
	}{
		{100, "A+"}, {90, "A+"}, {89, "A"}, {80, "A"},
		{79, "B+"}, {70, "B+"}, {69, "B"}, {60, "B"},
		{59, "C+"}, {50, "C+"}, {49, "C"}, {40, "C"},
		{39, "D"}, {30, "D"}, {29, "F"}, {0, "F"}, {-150, "F"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.grade, GradeFor(tc.percentage), "percentage %d", tc.percentage)
	}
}

func TestEvaluate_SetsSlotOutcomes(t *testing.T) {
	slots := []model.QuestionSlot{
		answeredSlot(1, "g", model.DifficultyEasy, 3, 1, true),
		answeredSlot(2, "g", model.DifficultyEasy, 3, 1, false),
		unansweredSlot(3, "g", model.DifficultyEasy, 3, 1),
	}

	Evaluate(slots, true, 50)

	require.NotNil(t, slots[0].IsCorrect)
	require.True(t, *slots[0].IsCorrect)
	require.Equal(t, 3.0, slots[0].PointsEarned)

	require.NotNil(t, slots[1].IsCorrect)
	require.False(t, *slots[1].IsCorrect)
	require.Equal(t, -1.0, slots[1].PointsEarned)

	require.Nil(t, slots[2].IsCorrect)
	require.Equal(t, 0.0, slots[2].PointsEarned)
}
