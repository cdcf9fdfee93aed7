package quiz

import (
	"context"
	"time"

	"github.com/abhisek/quizmind/internal/adaptive"
	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/leaderboard"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/questiongen"
)

// Trend describes how recent accuracy moves.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

const (
	// trendWindow is how many recent answers the trend looks at.
	trendWindow = 10
	// trendMinAnswers is the fewest answers a trend is computed from.
	trendMinAnswers = 4
	// trendThreshold is the accuracy delta between halves that counts as a move.
	trendThreshold = 0.1
)

// RecentAnswer is one graded answer in the analytics view.
type RecentAnswer struct {
	QuestionID       string           `json:"question_id"`
	SessionID        string           `json:"session_id"`
	DifficultyLevel  model.Difficulty `json:"difficulty_level"`
	IsCorrect        bool             `json:"is_correct"`
	TimeTakenSeconds float64          `json:"time_taken_seconds"`
	AnsweredAt       time.Time        `json:"answered_at"`
}

// Analytics is the adaptive view of a learner.
type Analytics struct {
	UserID                string                       `json:"user_id"`
	CurrentDifficulty     model.Difficulty             `json:"current_difficulty"`
	TotalAnswers          int                          `json:"total_answers"`
	OverallAccuracy       float64                      `json:"overall_accuracy"`
	DifficultyChanges     int                          `json:"difficulty_changes"`
	PerDifficultyAccuracy map[model.Difficulty]float64 `json:"per_difficulty_accuracy"`
	LastDecision          *adaptive.Decision           `json:"last_decision,omitempty"`
	Trend                 Trend                        `json:"performance_trend"`
	Recent                []RecentAnswer               `json:"recent_answers"`
}

// UserAnalytics reports the learner's ladder position, accuracy per
// difficulty and the trend over their last answers.
func (s *Service) UserAnalytics(ctx context.Context, userID string) (*Analytics, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.engine.Profile(ctx, u.ID, u.Skill)
	if err != nil {
		return nil, err
	}
	recent, err := s.st.Questions().RecentAnswered(ctx, u.ID, trendWindow)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	out := &Analytics{
		UserID:                u.ID,
		CurrentDifficulty:     p.CurrentDifficulty,
		TotalAnswers:          p.Total,
		OverallAccuracy:       p.Accuracy(),
		DifficultyChanges:     p.DifficultyChanges,
		PerDifficultyAccuracy: make(map[model.Difficulty]float64, len(p.PerDifficulty)),
		LastDecision:          p.LastDecision,
		Recent:                make([]RecentAnswer, 0, len(recent)),
	}
	for d, t := range p.PerDifficulty {
		out.PerDifficultyAccuracy[d] = t.Accuracy()
	}

	outcomes := make([]bool, 0, len(recent))
	for _, q := range recent {
		ra := RecentAnswer{
			QuestionID:      q.ID,
			SessionID:       q.SessionID,
			DifficultyLevel: q.Difficulty,
			IsCorrect:       q.IsCorrect != nil && *q.IsCorrect,
		}
		if q.TimeTakenSeconds != nil {
			ra.TimeTakenSeconds = *q.TimeTakenSeconds
		}
		if q.AnsweredAt != nil {
			ra.AnsweredAt = *q.AnsweredAt
		}
		out.Recent = append(out.Recent, ra)
		outcomes = append(outcomes, ra.IsCorrect)
	}
	out.Trend = trend(outcomes)
	return out, nil
}

// trend compares the accuracy of the newer half of outcomes (newest
// first) with the older half.
func trend(outcomes []bool) Trend {
	if len(outcomes) < trendMinAnswers {
		return TrendInsufficientData
	}
	half := len(outcomes) / 2
	delta := accuracy(outcomes[:half]) - accuracy(outcomes[half:])
	switch {
	case delta > trendThreshold:
		return TrendImproving
	case delta < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func accuracy(outcomes []bool) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	n := 0
	for _, ok := range outcomes {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(outcomes))
}

// UserSummary aggregates the user's leaderboard entries.
func (s *Service) UserSummary(ctx context.Context, userID string) (*leaderboard.Summary, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.board.UserSummary(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	sum.Username = u.Username
	return sum, nil
}

// Leaderboard returns one page of a topic scope, or the global scope when
// no topic is given.
func (s *Service) Leaderboard(ctx context.Context, req LeaderboardRequest) (*leaderboard.Page, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLeaderboardLimit
	}
	topic := req.Topic
	if topic != "" {
		topic = questiongen.CanonicalTopic(topic)
	}
	return s.board.Leaderboard(ctx, leaderboard.Query{
		Topic:  topic,
		Search: req.Search,
		Limit:  limit,
		Offset: req.Offset,
	})
}

// Standings ranks users across all topics.
func (s *Service) Standings(ctx context.Context, limit int) ([]leaderboard.Standing, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return s.board.Standings(ctx, limit)
}
