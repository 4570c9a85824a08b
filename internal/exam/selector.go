package exam

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/hireflow/assess-backend/internal/model"
)

// SelectQuestions draws totalCount questions from the eligible pool,
// approximating the per-difficulty percentage split, and freezes them into
// ordered QuestionSlots.
//
// Per bucket it targets round(totalCount * pct / 100) questions drawn
// uniformly without replacement. If the buckets together come up short
// (a thin bucket), the remainder is filled from any eligible, not yet
// selected question regardless of difficulty. If even the fallback cannot
// reach totalCount, ErrInsufficientPool is returned and no session must be
// created.
//
// The final ordering is shuffled, so question numbers carry no information
// about the bucket draw order.
func SelectQuestions(
	rng *rand.Rand,
	pool []model.Question,
	totalCount int,
	split model.DifficultySplit,
	excludeIDs map[uuid.UUID]bool,
) ([]model.QuestionSlot, error) {
	eligible := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if q.Status != model.QuestionStatusApproved {
			continue
		}
		if excludeIDs[q.ID] {
			continue
		}
		eligible = append(eligible, q)
	}

	buckets := map[model.Difficulty]int{
		model.DifficultyEasy:     bucketTarget(totalCount, split.Easy),
		model.DifficultyModerate: bucketTarget(totalCount, split.Moderate),
		model.DifficultyHard:     bucketTarget(totalCount, split.Hard),
	}

	selected := make([]model.Question, 0, totalCount)
	taken := make(map[uuid.UUID]bool, totalCount)

	for _, diff := range []model.Difficulty{model.DifficultyEasy, model.DifficultyModerate, model.DifficultyHard} {
		target := buckets[diff]
		if target <= 0 {
			continue
		}

		var candidates []model.Question
		for _, q := range eligible {
			if q.Difficulty == diff {
				candidates = append(candidates, q)
			}
		}

		for _, idx := range rng.Perm(len(candidates)) {
			if len(selected) >= totalCount || target <= 0 {
				break
			}
			q := candidates[idx]
			selected = append(selected, q)
			taken[q.ID] = true
			target--
		}
	}

	// Fallback fill: any eligible, not-yet-selected question.
	if len(selected) < totalCount {
		var rest []model.Question
		for _, q := range eligible {
			if !taken[q.ID] {
				rest = append(rest, q)
			}
		}
		for _, idx := range rng.Perm(len(rest)) {
			if len(selected) >= totalCount {
				break
			}
			q := rest[idx]
			selected = append(selected, q)
			taken[q.ID] = true
		}
	}

	if len(selected) < totalCount {
		return nil, ErrInsufficientPool
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	slots := make([]model.QuestionSlot, len(selected))
	for i, q := range selected {
		slots[i] = freezeSlot(i+1, q)
	}
	return slots, nil
}

func bucketTarget(total, pct int) int {
	return int(math.Round(float64(total) * float64(pct) / 100))
}

// freezeSlot copies the question content into a slot snapshot. Later edits
// to the bank question never reach an issued session.
func freezeSlot(number int, q model.Question) model.QuestionSlot {
	opts := make([]model.Option, len(q.Options))
	copy(opts, q.Options)
	return model.QuestionSlot{
		Number:         number,
		QuestionID:     q.ID,
		Text:           q.Text,
		Type:           q.Type,
		Category:       q.Category,
		Difficulty:     q.Difficulty,
		Options:        opts,
		CorrectAnswer:  q.CorrectAnswer,
		Points:         q.Points,
		NegativePoints: q.NegativePoints,
	}
}
