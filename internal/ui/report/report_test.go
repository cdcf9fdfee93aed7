package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/quizmind/internal/leaderboard"
	"github.com/abhisek/quizmind/internal/model"
)

func TestQuestion_HidesAnswerUntilRevealed(t *testing.T) {
	q := &model.Question{
		Text:          "Which planet is known as the Red Planet?",
		Type:          model.TypeMultipleChoice,
		Options:       []string{"A. Venus", "B. Mars", "C. Jupiter", "D. Saturn"},
		CorrectAnswer: "B",
		Explanation:   "Iron oxide on its surface gives Mars its color.",
		Difficulty:    model.DifficultyEasy,
	}

	hidden := Question(q, 1, 5, false)
	assert.Contains(t, hidden, "Red Planet")
	assert.Contains(t, hidden, "B. Mars")
	assert.NotContains(t, hidden, "Iron oxide")

	shown := Question(q, 1, 5, true)
	assert.Contains(t, shown, "Iron oxide")
}

func TestLeaderboard(t *testing.T) {
	rank := 1
	page := &leaderboard.Page{
		Entries: []*model.LeaderboardEntry{{
			Username: "alice", Topic: "Science", Score: 7.5, CorrectCount: 4,
			TotalQuestions: 5, TimeTakenSeconds: 42, Rank: &rank, CompletedAt: time.Now(),
		}},
		Total: 1,
	}
	out := Leaderboard("Science", page)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "7.50")
	assert.Contains(t, out, "4/5")
	assert.Contains(t, out, "1 of 1 entries")

	assert.Contains(t, Leaderboard("Empty", &leaderboard.Page{}), "No entries yet.")
}

func TestStandings(t *testing.T) {
	out := Standings([]leaderboard.Standing{{Rank: 1, Username: "bob", TotalQuizzes: 3, AverageScore: 80}})
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "80.0%")
	assert.Contains(t, Standings(nil), "No completed quizzes yet.")
}
