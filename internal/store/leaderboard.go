package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizmind/internal/model"
)

// LeaderboardRepo persists leaderboard entries and their ranks.
type LeaderboardRepo struct {
	q querier
}

// LeaderboardFilter selects a page of entries in ranking order.
type LeaderboardFilter struct {
	Topic  string // empty selects every topic
	Search string // case-insensitive username substring
	Limit  int    // 0 = unlimited
	Offset int
}

// UserAggregate sums a user's leaderboard entries.
type UserAggregate struct {
	UserID         string
	Username       string
	TotalQuizzes   int
	TotalQuestions int
	TotalCorrect   int
	AverageTime    float64
	BestScore      float64
}

// QuarantineRecord is an entry withheld from ranking.
type QuarantineRecord struct {
	ID            int                     `json:"id"`
	QuizSessionID string                  `json:"quiz_session_id"`
	UserID        string                  `json:"user_id"`
	Reason        string                  `json:"reason"`
	Entry         *model.LeaderboardEntry `json:"entry"`
	CreatedAt     time.Time               `json:"created_at"`
}

var entryColumns = []string{
	"id", "user_id", "quiz_session_id", "topic", "score", "correct_count",
	"total_questions", "time_taken_seconds", "avg_difficulty_weight", "rank", "completed_at",
}

// Upsert creates the entry for e.QuizSessionID or overwrites its scored
// fields in place. The stored ID and rank of an existing entry are kept.
func (r *LeaderboardRepo) Upsert(ctx context.Context, e *model.LeaderboardEntry) error {
	ins := sqlite().Insert(tableEntries).
		Columns(entryColumns...).
		Values(
			e.ID, e.UserID, e.QuizSessionID, e.Topic, e.Score, e.CorrectCount,
			e.TotalQuestions, e.TimeTakenSeconds, e.AvgDifficultyWeight, nil, e.CompletedAt.UTC(),
		).
		OnConflict(
			entsql.ConflictColumns("quiz_session_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("topic")
				u.SetExcluded("score")
				u.SetExcluded("correct_count")
				u.SetExcluded("total_questions")
				u.SetExcluded("time_taken_seconds")
				u.SetExcluded("avg_difficulty_weight")
				u.SetExcluded("completed_at")
			}),
		)
	if _, err := execQuery(ctx, r.q, ins); err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

// GetBySession returns the entry of a session, or ErrNotFound.
func (r *LeaderboardRepo) GetBySession(ctx context.Context, sessionID string) (*model.LeaderboardEntry, error) {
	l, _, sel := r.selectEntries()
	sel.Where(entsql.EQ(l.C("quiz_session_id"), sessionID))
	e, err := scanEntry(queryRow(ctx, r.q, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get leaderboard entry: %w", err)
	}
	return e, nil
}

// Scope returns every entry of a topic in ranking order. An empty topic
// returns all entries.
func (r *LeaderboardRepo) Scope(ctx context.Context, topic string) ([]*model.LeaderboardEntry, error) {
	entries, _, err := r.Query(ctx, LeaderboardFilter{Topic: topic})
	return entries, err
}

// Query returns one page of entries in ranking order and the number of
// entries matching the filter.
func (r *LeaderboardRepo) Query(ctx context.Context, f LeaderboardFilter) ([]*model.LeaderboardEntry, int, error) {
	l, u, sel := r.selectEntries()
	var preds []*entsql.Predicate
	if f.Topic != "" {
		preds = append(preds, entsql.EQ(l.C("topic"), f.Topic))
	}
	if f.Search != "" {
		preds = append(preds, entsql.ContainsFold(u.C("username"), f.Search))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(rankOrder(l)...)
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		if f.Limit <= 0 {
			sel.Limit(-1)
		}
		sel.Offset(f.Offset)
	}

	entries, err := r.list(ctx, sel)
	if err != nil {
		return nil, 0, err
	}

	l2 := sqlite().Table(tableEntries).As("l")
	u2 := sqlite().Table(tableUsers).As("u")
	cnt := sqlite().Select(entsql.Count("*")).
		From(l2).
		Join(u2).On(l2.C("user_id"), u2.C("id"))
	if len(preds) > 0 {
		cnt.Where(entsql.And(preds...))
	}
	var total int
	if err := queryRow(ctx, r.q, cnt).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leaderboard entries: %w", err)
	}
	return entries, total, nil
}

// ForUser returns the user's entries, most recently completed first.
func (r *LeaderboardRepo) ForUser(ctx context.Context, userID string) ([]*model.LeaderboardEntry, error) {
	l, _, sel := r.selectEntries()
	sel.Where(entsql.EQ(l.C("user_id"), userID)).
		OrderBy(entsql.Desc(l.C("completed_at")), entsql.Desc(l.C("id")))
	return r.list(ctx, sel)
}

// SetRanks writes the given ranks, keyed by entry ID. Callers run it in a
// transaction so a scope is never observed half-ranked.
func (r *LeaderboardRepo) SetRanks(ctx context.Context, ranks map[string]int) error {
	for id, rank := range ranks {
		upd := sqlite().Update(tableEntries).
			Set("rank", rank).
			Where(entsql.EQ("id", id))
		if _, err := execQuery(ctx, r.q, upd); err != nil {
			return fmt.Errorf("set rank of %s: %w", id, err)
		}
	}
	return nil
}

// Aggregates sums entries per user.
func (r *LeaderboardRepo) Aggregates(ctx context.Context) ([]UserAggregate, error) {
	l := sqlite().Table(tableEntries).As("l")
	u := sqlite().Table(tableUsers).As("u")
	best := fmt.Sprintf("MAX(CASE WHEN %s > 0 THEN 100.0 * %s / %s ELSE 0 END)",
		l.C("total_questions"), l.C("correct_count"), l.C("total_questions"))
	sel := sqlite().Select(
		l.C("user_id"),
		u.C("username"),
		entsql.Count("*"),
		entsql.Sum(l.C("total_questions")),
		entsql.Sum(l.C("correct_count")),
		entsql.Avg(l.C("time_taken_seconds")),
		best,
	).
		From(l).
		Join(u).On(l.C("user_id"), u.C("id")).
		GroupBy(l.C("user_id"), u.C("username"))

	rows, err := queryRows(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("aggregate leaderboard: %w", err)
	}
	defer rows.Close()

	var out []UserAggregate
	for rows.Next() {
		var a UserAggregate
		if err := rows.Scan(&a.UserID, &a.Username, &a.TotalQuizzes, &a.TotalQuestions,
			&a.TotalCorrect, &a.AverageTime, &a.BestScore); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Quarantine withholds an entry from the leaderboard and records why.
func (r *LeaderboardRepo) Quarantine(ctx context.Context, e *model.LeaderboardEntry, reason string, at time.Time) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal quarantined entry: %w", err)
	}
	ins := sqlite().Insert(tableQuarantine).
		Columns("quiz_session_id", "user_id", "reason", "payload", "created_at").
		Values(e.QuizSessionID, e.UserID, reason, string(payload), at.UTC())
	if _, err := execQuery(ctx, r.q, ins); err != nil {
		return fmt.Errorf("quarantine entry: %w", err)
	}
	return nil
}

// Quarantined lists withheld entries, newest first.
func (r *LeaderboardRepo) Quarantined(ctx context.Context, limit int) ([]QuarantineRecord, error) {
	sel := sqlite().Select("id", "quiz_session_id", "user_id", "reason", "payload", "created_at").
		From(sqlite().Table(tableQuarantine)).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	rows, err := queryRows(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("list quarantine: %w", err)
	}
	defer rows.Close()

	var out []QuarantineRecord
	for rows.Next() {
		var (
			rec     QuarantineRecord
			payload string
		)
		if err := rows.Scan(&rec.ID, &rec.QuizSessionID, &rec.UserID, &rec.Reason, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quarantine: %w", err)
		}
		rec.Entry = &model.LeaderboardEntry{}
		if err := json.Unmarshal([]byte(payload), rec.Entry); err != nil {
			return nil, fmt.Errorf("decode quarantined entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// selectEntries starts a query over entries joined with their usernames.
func (r *LeaderboardRepo) selectEntries() (l, u *entsql.SelectTable, sel *entsql.Selector) {
	l = sqlite().Table(tableEntries).As("l")
	u = sqlite().Table(tableUsers).As("u")
	cols := make([]string, 0, len(entryColumns)+1)
	for _, c := range entryColumns {
		cols = append(cols, l.C(c))
	}
	cols = append(cols, u.C("username"))
	sel = sqlite().Select(cols...).
		From(l).
		Join(u).On(l.C("user_id"), u.C("id"))
	return l, u, sel
}

// rankOrder is score descending, then time, completion and ID ascending.
func rankOrder(l *entsql.SelectTable) []string {
	return []string{
		entsql.Desc(l.C("score")),
		entsql.Asc(l.C("time_taken_seconds")),
		entsql.Asc(l.C("completed_at")),
		entsql.Asc(l.C("id")),
	}
}

func (r *LeaderboardRepo) list(ctx context.Context, sel *entsql.Selector) ([]*model.LeaderboardEntry, error) {
	rows, err := queryRows(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard entries: %w", err)
	}
	defer rows.Close()

	var out []*model.LeaderboardEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row rowScanner) (*model.LeaderboardEntry, error) {
	var (
		e    model.LeaderboardEntry
		rank sql.NullInt64
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.QuizSessionID, &e.Topic, &e.Score, &e.CorrectCount,
		&e.TotalQuestions, &e.TimeTakenSeconds, &e.AvgDifficultyWeight, &rank, &e.CompletedAt,
		&e.Username,
	)
	if err != nil {
		return nil, err
	}
	if rank.Valid {
		n := int(rank.Int64)
		e.Rank = &n
	}
	e.CompletedAt = e.CompletedAt.UTC()
	return &e, nil
}
