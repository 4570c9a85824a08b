package exam

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/assess-backend/internal/model"
)

func bankQuestion(diff model.Difficulty, status model.QuestionStatus) model.Question {
	return model.Question{
		ID:             uuid.New(),
		Text:           "q",
		Type:           model.QuestionTypeShortAnswer,
		Category:       "general",
		Difficulty:     diff,
		CorrectAnswer:  "right",
		Points:         3,
		NegativePoints: 1,
		Status:         status,
	}
}

func buildPool(easy, moderate, hard int) []model.Question {
	var pool []model.Question
	for i := 0; i < easy; i++ {
		pool = append(pool, bankQuestion(model.DifficultyEasy, model.QuestionStatusApproved))
	}
	for i := 0; i < moderate; i++ {
		pool = append(pool, bankQuestion(model.DifficultyModerate, model.QuestionStatusApproved))
	}
	for i := 0; i < hard; i++ {
		pool = append(pool, bankQuestion(model.DifficultyHard, model.QuestionStatusApproved))
	}
	return pool
}

func countByDifficulty(slots []model.QuestionSlot) map[model.Difficulty]int {
	counts := make(map[model.Difficulty]int)
	for _, s := range slots {
		counts[s.Difficulty]++
	}
	return counts
}

func TestSelectQuestions_HonorsSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pool := buildPool(20, 20, 20)
	split := model.DifficultySplit{Easy: 30, Moderate: 30, Hard: 40}

	slots, err := SelectQuestions(rng, pool, 10, split, nil)
	require.NoError(t, err)
	require.Len(t, slots, 10)

	counts := countByDifficulty(slots)
	require.Equal(t, 3, counts[model.DifficultyEasy])
	require.Equal(t, 3, counts[model.DifficultyModerate])
	require.Equal(t, 4, counts[model.DifficultyHard])

	// Question numbers are 1..N in slot order.
	for i, s := range slots {
		require.Equal(t, i+1, s.Number)
	}
}

func TestSelectQuestions_NoDuplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pool := buildPool(10, 10, 10)

	slots, err := SelectQuestions(rng, pool, 20, model.DifficultySplit{Easy: 34, Moderate: 33, Hard: 33}, nil)
	require.NoError(t, err)

	seen := make(map[uuid.UUID]bool)
	for _, s := range slots {
		require.False(t, seen[s.QuestionID], "question selected twice")
		seen[s.QuestionID] = true
	}
}

func TestSelectQuestions_FallbackFillsThinBucket(t *testing.T) {
	// Hard target is 4 but the pool has a single hard question: the
	// remaining 3 come from any eligible leftover.
	rng := rand.New(rand.NewSource(3))
	pool := buildPool(10, 10, 1)
	split := model.DifficultySplit{Easy: 30, Moderate: 30, Hard: 40}

	slots, err := SelectQuestions(rng, pool, 10, split, nil)
	require.NoError(t, err)
	require.Len(t, slots, 10)

	counts := countByDifficulty(slots)
	require.Equal(t, 1, counts[model.DifficultyHard])
	require.Equal(t, 9, counts[model.DifficultyEasy]+counts[model.DifficultyModerate])
}

func TestSelectQuestions_InsufficientPool(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pool := buildPool(3, 2, 1)

	_, err := SelectQuestions(rng, pool, 10, model.DifficultySplit{Easy: 40, Moderate: 30, Hard: 30}, nil)
	require.ErrorIs(t, err, ErrInsufficientPool)
}

func TestSelectQuestions_SkipsUnapprovedAndExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	draft := bankQuestion(model.DifficultyEasy, model.QuestionStatusDraft)
	retired := bankQuestion(model.DifficultyEasy, model.QuestionStatusRetired)
	excluded := bankQuestion(model.DifficultyEasy, model.QuestionStatusApproved)
	pool := append(buildPool(4, 0, 0), draft, retired, excluded)

	slots, err := SelectQuestions(rng, pool, 4, model.DifficultySplit{Easy: 100}, map[uuid.UUID]bool{excluded.ID: true})
	require.NoError(t, err)
	require.Len(t, slots, 4)

	for _, s := range slots {
		require.NotEqual(t, draft.ID, s.QuestionID)
		require.NotEqual(t, retired.ID, s.QuestionID)
		require.NotEqual(t, excluded.ID, s.QuestionID)
	}
}

func TestSelectQuestions_SlotSnapshotIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	pool := buildPool(2, 0, 0)

	slots, err := SelectQuestions(rng, pool, 2, model.DifficultySplit{Easy: 100}, nil)
	require.NoError(t, err)

	// Mutating the bank question afterwards must not reach the slot.
	pool[0].Text = "edited later"
	pool[0].CorrectAnswer = "changed"
	for _, s := range slots {
		require.Equal(t, "q", s.Text)
		require.Equal(t, "right", s.CorrectAnswer)
	}
}
