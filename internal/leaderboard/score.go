package leaderboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/abhisek/quizmind/internal/model"
)

// MinTimeSeconds is the floor applied to an entry's time.
const MinTimeSeconds = 1.0

// scoreEpsilon absorbs float error when checking the maximum score.
const scoreEpsilon = 1e-9

// InvariantError is an entry that cannot be correct.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string { return "leaderboard invariant: " + e.Reason }

// Score builds the leaderboard entry of a completed session. The returned
// bool reports whether the session time had to be raised to the floor.
func Score(s *model.QuizSession, questions []*model.Question, at time.Time) (*model.LeaderboardEntry, bool, error) {
	var (
		score, weights float64
		correct        int
	)
	for _, q := range questions {
		w := q.Weight()
		weights += w
		if q.IsCorrect != nil && *q.IsCorrect {
			score += w
			correct++
		}
	}

	avg := 0.0
	if len(questions) > 0 {
		avg = weights / float64(len(questions))
	}

	timeTaken, coerced := s.TotalTimeSeconds, false
	if timeTaken < MinTimeSeconds || math.IsNaN(timeTaken) {
		timeTaken, coerced = MinTimeSeconds, true
	}

	completedAt := at.UTC()
	if s.CompletedAt != nil {
		completedAt = s.CompletedAt.UTC()
	}

	e := &model.LeaderboardEntry{
		UserID:              s.UserID,
		QuizSessionID:       s.ID,
		Topic:               s.Topic,
		Score:               score,
		CorrectCount:        correct,
		TotalQuestions:      s.TotalQuestions,
		TimeTakenSeconds:    timeTaken,
		AvgDifficultyWeight: avg,
		CompletedAt:         completedAt,
	}
	return e, coerced, check(e, weights, len(questions))
}

// check verifies the entry against what its questions allow.
func check(e *model.LeaderboardEntry, maxScore float64, n int) error {
	switch {
	case e.Score > maxScore+scoreEpsilon:
		return &InvariantError{Reason: fmt.Sprintf("score %.2f exceeds maximum %.2f", e.Score, maxScore)}
	case e.Score < 0:
		return &InvariantError{Reason: fmt.Sprintf("negative score %.2f", e.Score)}
	case n > e.TotalQuestions:
		return &InvariantError{Reason: fmt.Sprintf("%d questions recorded for a %d question quiz", n, e.TotalQuestions)}
	case e.CorrectCount > e.TotalQuestions:
		return &InvariantError{Reason: fmt.Sprintf("%d correct of %d questions", e.CorrectCount, e.TotalQuestions)}
	case e.AvgDifficultyWeight > model.DifficultyHard.Weight()+scoreEpsilon:
		return &InvariantError{Reason: fmt.Sprintf("average weight %.2f above the hardest level", e.AvgDifficultyWeight)}
	}
	return nil
}

// Less reports whether a ranks ahead of b: higher score, then less time,
// then earlier completion. IDs break exact ties so the order is total.
func Less(a, b *model.LeaderboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TimeTakenSeconds != b.TimeTakenSeconds {
		return a.TimeTakenSeconds < b.TimeTakenSeconds
	}
	if !a.CompletedAt.Equal(b.CompletedAt) {
		return a.CompletedAt.Before(b.CompletedAt)
	}
	return a.ID < b.ID
}

// Rank sorts entries in ranking order and assigns ranks 1..N in place.
func Rank(entries []*model.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
	for i, e := range entries {
		r := i + 1
		e.Rank = &r
	}
}
