package exam

import (
	"math"
	"sort"
	"strings"

	"github.com/hireflow/assess-backend/internal/model"
)

// Grade thresholds, inclusive lower bounds.
var gradeTable = []struct {
	min   int
	grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
	{30, "D"},
}

// GradeFor maps a percentage to its letter grade. Anything below 30,
// including negative percentages from heavy negative marking, is an F.
func GradeFor(percentage int) string {
	for _, g := range gradeTable {
		if percentage >= g.min {
			return g.grade
		}
	}
	return "F"
}

// Evaluate scores the slots in place and returns the final report.
//
// It is a pure data transform: no randomness, no wall clock. Given
// identical slot states and config it produces identical output on every
// invocation. Callers guarantee at-most-once invocation per session via
// the EVALUATED status guard.
func Evaluate(slots []model.QuestionSlot, negativeMarking bool, passingPercentage float64) *model.ScoreReport {
	report := &model.ScoreReport{TotalQuestions: len(slots)}

	byCategory := make(map[string]*model.GroupBreakdown)
	byDifficulty := make(map[string]*model.GroupBreakdown)

	for i := range slots {
		slot := &slots[i]
		report.TotalPoints += slot.Points

		cat := groupFor(byCategory, slot.Category)
		diff := groupFor(byDifficulty, string(slot.Difficulty))
		cat.Questions++
		diff.Questions++

		if !slot.Answered {
			// Unanswered: zero points, counted neither correct nor wrong.
			report.UnansweredCount++
			slot.IsCorrect = nil
			slot.PointsEarned = 0
			continue
		}

		correct := slotIsCorrect(slot)
		slot.IsCorrect = &correct

		if correct {
			slot.PointsEarned = slot.Points
			report.CorrectCount++
			report.PointsEarned += slot.Points
			cat.Correct++
			cat.NetPoints += slot.Points
			diff.Correct++
			diff.NetPoints += slot.Points
		} else {
			report.WrongCount++
			if negativeMarking {
				slot.PointsEarned = -slot.NegativePoints
				report.NegativePoints += slot.NegativePoints
				cat.NetPoints -= slot.NegativePoints
				diff.NetPoints -= slot.NegativePoints
			} else {
				slot.PointsEarned = 0
			}
		}
	}

	report.NetScore = report.PointsEarned - report.NegativePoints
	report.Percentage = percentageOf(report.NetScore, report.TotalPoints)
	report.Grade = GradeFor(report.Percentage)
	report.IsPassed = float64(report.Percentage) >= passingPercentage

	report.ByCategory = sortedGroups(byCategory)
	report.ByDifficulty = sortedGroups(byDifficulty)

	return report
}

// slotIsCorrect applies the per-type correctness rule. Multiple choice
// matches the selected text against the option marked correct; all other
// types compare trimmed, case-insensitively against the stored answer.
func slotIsCorrect(slot *model.QuestionSlot) bool {
	if slot.SelectedAnswer == nil {
		return false
	}
	answer := *slot.SelectedAnswer

	if slot.Type == model.QuestionTypeMultipleChoice {
		for _, opt := range slot.Options {
			if opt.IsCorrect {
				return answer == opt.Text
			}
		}
		return false
	}

	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(slot.CorrectAnswer))
}

// percentageOf is round(net/total*100) with a divide-by-zero guard.
// Deliberately unclamped; see model.ScoreReport.Percentage.
func percentageOf(net, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(net / total * 100))
}

func groupFor(m map[string]*model.GroupBreakdown, key string) *model.GroupBreakdown {
	if g, ok := m[key]; ok {
		return g
	}
	g := &model.GroupBreakdown{Key: key}
	m[key] = g
	return g
}

// sortedGroups finalizes per-group percentages and returns groups in key
// order so the report is deterministic.
func sortedGroups(m map[string]*model.GroupBreakdown) []model.GroupBreakdown {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.GroupBreakdown, 0, len(keys))
	for _, k := range keys {
		g := m[k]
		if g.Questions > 0 {
			g.Percentage = int(math.Round(float64(g.Correct) / float64(g.Questions) * 100))
		}
		out = append(out, *g)
	}
	return out
}
