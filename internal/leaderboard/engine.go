// Package leaderboard scores completed quizzes and keeps their ranks
// deterministic within each topic.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/events"
	"github.com/abhisek/quizmind/internal/keylock"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/store"
)

// RecentEntries is the number of entries shown in a user summary.
const RecentEntries = 5

// Engine records leaderboard entries and answers ranking queries.
type Engine struct {
	st    *store.Store
	bus   events.Bus
	log   *logger.Logger
	locks *keylock.Map
	now   func() time.Time
}

// New creates an Engine. bus may be nil to skip notifications.
func New(st *store.Store, bus events.Bus, log *logger.Logger) *Engine {
	return &Engine{
		st:    st,
		bus:   bus,
		log:   log.With("component", "leaderboard"),
		locks: keylock.New(),
		now:   time.Now,
	}
}

// Record scores a completed session, upserts its entry and re-ranks the
// entry's topic. Recording the same session again updates the entry in
// place. An entry that breaks an invariant is quarantined instead and a
// fatal error is returned.
func (e *Engine) Record(ctx context.Context, s *model.QuizSession, questions []*model.Question) (*model.LeaderboardEntry, error) {
	if s.Status != model.StatusCompleted {
		return nil, apperr.Conflict("session_not_completed", "Only completed quizzes enter the leaderboard.")
	}

	entry, coerced, err := Score(s, questions, e.now())
	if err != nil {
		return nil, e.quarantine(ctx, entry, err)
	}
	if coerced {
		e.log.Warn("session time coerced to minimum",
			"session_id", s.ID,
			"recorded_seconds", s.TotalTimeSeconds,
			"stored_seconds", entry.TimeTakenSeconds)
	}
	entry.ID = uuid.NewString()

	unlock := e.locks.Lock(entry.Topic)
	defer unlock()

	var stored *model.LeaderboardEntry
	err = e.st.InTx(ctx, func(tx *store.Tx) error {
		repo := tx.Leaderboard()
		if err := repo.Upsert(ctx, entry); err != nil {
			return err
		}
		if err := rerank(ctx, repo, entry.Topic); err != nil {
			return err
		}
		got, err := repo.GetBySession(ctx, s.ID)
		stored = got
		return err
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("record leaderboard entry for %s: %w", s.ID, err))
	}

	e.publish(ctx, stored)
	return stored, nil
}

// Rerank recomputes the ranks of a topic. Running it twice in a row
// writes nothing the second time.
func (e *Engine) Rerank(ctx context.Context, topic string) error {
	unlock := e.locks.Lock(topic)
	defer unlock()

	err := e.st.InTx(ctx, func(tx *store.Tx) error {
		return rerank(ctx, tx.Leaderboard(), topic)
	})
	if err != nil {
		return apperr.Storage(fmt.Errorf("rerank %s: %w", topic, err))
	}
	return nil
}

// rerank writes the ranks of every entry in topic whose rank changed.
func rerank(ctx context.Context, repo *store.LeaderboardRepo, topic string) error {
	entries, err := repo.Scope(ctx, topic)
	if err != nil {
		return err
	}
	old := make(map[string]*int, len(entries))
	for _, en := range entries {
		old[en.ID] = en.Rank
	}
	Rank(entries)

	changed := make(map[string]int)
	for _, en := range entries {
		if prev := old[en.ID]; prev == nil || *prev != *en.Rank {
			changed[en.ID] = *en.Rank
		}
	}
	if len(changed) == 0 {
		return nil
	}
	return repo.SetRanks(ctx, changed)
}

func (e *Engine) quarantine(ctx context.Context, entry *model.LeaderboardEntry, cause error) error {
	e.log.Error("leaderboard entry quarantined",
		"session_id", entry.QuizSessionID,
		"user_id", entry.UserID,
		"topic", entry.Topic,
		"score", entry.Score,
		"correct_count", entry.CorrectCount,
		"total_questions", entry.TotalQuestions,
		"time_taken_seconds", entry.TimeTakenSeconds,
		"avg_difficulty_weight", entry.AvgDifficultyWeight,
		"reason", cause.Error())

	if err := e.st.Leaderboard().Quarantine(ctx, entry, cause.Error(), e.now()); err != nil {
		e.log.Error("failed to quarantine entry", "session_id", entry.QuizSessionID, "error", err)
	}
	return apperr.Fatal("leaderboard_invariant", "The quiz result could not be recorded.", cause)
}

// publish announces an entry. Failures are logged and dropped.
func (e *Engine) publish(ctx context.Context, entry *model.LeaderboardEntry) {
	if e.bus == nil {
		return
	}
	msg, err := events.NewMessage(events.LeaderboardUpdate, events.LeaderboardUpdateData{
		Topic: entry.Topic,
		Entry: entry,
		At:    e.now().UTC(),
	})
	if err == nil {
		err = e.bus.Publish(context.WithoutCancel(ctx), msg)
	}
	if err != nil {
		e.log.Warn("failed to publish leaderboard update", "topic", entry.Topic, "error", err)
	}
}

// Query selects a leaderboard page.
type Query struct {
	// Topic selects a topic scope. Empty means the global scope.
	Topic  string
	Search string
	Limit  int
	Offset int
}

// Page is one page of a ranked scope.
type Page struct {
	Entries []*model.LeaderboardEntry `json:"entries"`
	Total   int                       `json:"total"`
}

// Leaderboard returns one page of a scope in ranking order. Topic ranks
// come from storage; global ranks are computed on read.
func (e *Engine) Leaderboard(ctx context.Context, q Query) (*Page, error) {
	repo := e.st.Leaderboard()
	if q.Topic != "" {
		entries, total, err := repo.Query(ctx, store.LeaderboardFilter{
			Topic:  q.Topic,
			Search: q.Search,
			Limit:  q.Limit,
			Offset: q.Offset,
		})
		if err != nil {
			return nil, apperr.Storage(err)
		}
		return &Page{Entries: nonNil(entries), Total: total}, nil
	}

	all, err := repo.Scope(ctx, "")
	if err != nil {
		return nil, apperr.Storage(err)
	}
	Rank(all)

	matched := all[:0:0]
	for _, en := range all {
		if q.Search == "" || strings.Contains(strings.ToLower(en.Username), strings.ToLower(q.Search)) {
			matched = append(matched, en)
		}
	}
	return &Page{Entries: nonNil(paginate(matched, q.Limit, q.Offset)), Total: len(matched)}, nil
}

func paginate(entries []*model.LeaderboardEntry, limit, offset int) []*model.LeaderboardEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[max(offset, 0):]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

func nonNil(entries []*model.LeaderboardEntry) []*model.LeaderboardEntry {
	if entries == nil {
		return []*model.LeaderboardEntry{}
	}
	return entries
}

// Summary aggregates a user's entries.
type Summary struct {
	UserID         string                    `json:"user_id"`
	Username       string                    `json:"username"`
	TotalQuizzes   int                       `json:"total_quizzes"`
	TotalQuestions int                       `json:"total_questions"`
	TotalCorrect   int                       `json:"total_correct"`
	AverageScore   float64                   `json:"average_score"`
	AverageTime    float64                   `json:"average_time"`
	BestScore      float64                   `json:"best_score"`
	Recent         []*model.LeaderboardEntry `json:"recent"`
}

// UserSummary aggregates the user's entries. Users without entries get a
// zero summary.
func (e *Engine) UserSummary(ctx context.Context, userID string) (*Summary, error) {
	entries, err := e.st.Leaderboard().ForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	sum := &Summary{UserID: userID, Recent: []*model.LeaderboardEntry{}}
	var totalTime float64
	for _, en := range entries {
		sum.Username = en.Username
		sum.TotalQuizzes++
		sum.TotalQuestions += en.TotalQuestions
		sum.TotalCorrect += en.CorrectCount
		totalTime += en.TimeTakenSeconds
		sum.BestScore = max(sum.BestScore, en.Percentage())
	}
	if sum.TotalQuestions > 0 {
		sum.AverageScore = 100 * float64(sum.TotalCorrect) / float64(sum.TotalQuestions)
	}
	if sum.TotalQuizzes > 0 {
		sum.AverageTime = totalTime / float64(sum.TotalQuizzes)
	}
	// ForUser returns the newest first.
	sum.Recent = append(sum.Recent, entries[:min(RecentEntries, len(entries))]...)
	return sum, nil
}

// Standing is a user's position in the cross-topic ranking.
type Standing struct {
	Rank           int     `json:"rank"`
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	TotalQuizzes   int     `json:"total_quizzes"`
	TotalQuestions int     `json:"total_questions"`
	TotalCorrect   int     `json:"total_correct"`
	AverageScore   float64 `json:"average_score"`
	AverageTime    float64 `json:"average_time"`
	BestScore      float64 `json:"best_score"`
}

// Standings ranks users by average score, then by average time.
func (e *Engine) Standings(ctx context.Context, limit int) ([]Standing, error) {
	aggs, err := e.st.Leaderboard().Aggregates(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	out := make([]Standing, 0, len(aggs))
	for _, a := range aggs {
		st := Standing{
			UserID:         a.UserID,
			Username:       a.Username,
			TotalQuizzes:   a.TotalQuizzes,
			TotalQuestions: a.TotalQuestions,
			TotalCorrect:   a.TotalCorrect,
			AverageTime:    a.AverageTime,
			BestScore:      a.BestScore,
		}
		if a.TotalQuestions > 0 {
			st.AverageScore = 100 * float64(a.TotalCorrect) / float64(a.TotalQuestions)
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore > out[j].AverageScore
		}
		if out[i].AverageTime != out[j].AverageTime {
			return out[i].AverageTime < out[j].AverageTime
		}
		return out[i].Username < out[j].Username
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Quarantined lists withheld entries, newest first.
func (e *Engine) Quarantined(ctx context.Context, limit int) ([]store.QuarantineRecord, error) {
	recs, err := e.st.Leaderboard().Quarantined(ctx, limit)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return recs, nil
}

// IsInvariant reports whether err is an invariant breach found by Score.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
