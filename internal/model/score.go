package model

// GroupBreakdown aggregates scoring over one category or difficulty group.
type GroupBreakdown struct {
	Key        string  `json:"key"`
	Questions  int     `json:"questions"`
	Correct    int     `json:"correct"`
	Percentage int     `json:"percentage"`
	NetPoints  float64 `json:"net_points"`
}

// ScoreReport is the final evaluation block stored on a session. It is
// written exactly once, when the session transitions to EVALUATED.
type ScoreReport struct {
	TotalQuestions  int     `json:"total_questions"`
	CorrectCount    int     `json:"correct_count"`
	WrongCount      int     `json:"wrong_count"`
	UnansweredCount int     `json:"unanswered_count"`
	TotalPoints     float64 `json:"total_points"`
	PointsEarned    float64 `json:"points_earned"`
	NegativePoints  float64 `json:"negative_points"`
	NetScore        float64 `json:"net_score"`
	// Percentage follows the literal formula round(net/total*100) and is
	// deliberately not clamped: heavy negative marking can drive it below
	// zero. Flagged to product, kept as-is.
	Percentage   int              `json:"percentage"`
	Grade        string           `json:"grade"`
	IsPassed     bool             `json:"is_passed"`
	ByCategory   []GroupBreakdown `json:"by_category"`
	ByDifficulty []GroupBreakdown `json:"by_difficulty"`
}
