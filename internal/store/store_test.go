package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmind/internal/model"
)

var testDBSeq atomic.Int64

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:store-test-%d?mode=memory&cache=shared", testDBSeq.Add(1))
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, id, name string) *model.User {
	t.Helper()
	u := &model.User{ID: id, Username: name, Skill: model.SkillIntermediate, Role: model.RoleStudent, CreatedAt: t0}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func seedSession(t *testing.T, s *Store, id, userID, topic string) *model.QuizSession {
	t.Helper()
	qs := &model.QuizSession{
		ID:             id,
		UserID:         userID,
		Topic:          topic,
		SkillLevel:     model.SkillIntermediate,
		TotalQuestions: 2,
		Status:         model.StatusActive,
		StartedAt:      t0,
		LastActivityAt: t0,
	}
	require.NoError(t, s.Sessions().Create(context.Background(), qs))
	return qs
}

func seedQuestions(t *testing.T, s *Store, sessionID string, texts ...string) []*model.Question {
	t.Helper()
	var qs []*model.Question
	for i, text := range texts {
		qs = append(qs, &model.Question{
			ID:            fmt.Sprintf("%s-q%d", sessionID, i),
			SessionID:     sessionID,
			Position:      i,
			Text:          text,
			Type:          model.TypeMultipleChoice,
			Options:       []string{"A. one", "B. two", "C. three", "D. four"},
			CorrectAnswer: "B",
			Explanation:   "because",
			Difficulty:    model.DifficultyMedium,
			Classification: &model.Classification{
				Label:      model.DifficultyMedium,
				Confidence: 0.6,
			},
		})
	}
	require.NoError(t, s.Questions().CreateBatch(context.Background(), qs, t0))
	return qs
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table.Name, err)
		}
	}
}

func TestWithTimeFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"quiz.db", "quiz.db?_time_format=sqlite"},
		{"file:x?mode=memory", "file:x?mode=memory&_time_format=sqlite"},
		{"quiz.db?_time_format=sqlite", "quiz.db?_time_format=sqlite"},
	}
	for _, tt := range tests {
		if got := withTimeFormat(tt.in); got != tt.want {
			t.Errorf("withTimeFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")

	got, err := s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, model.SkillIntermediate, got.Skill)
	assert.True(t, got.CreatedAt.Equal(t0))

	byName, err := s.Users().GetByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	err = s.Users().Create(ctx, &model.User{ID: "u2", Username: "ada", Skill: model.SkillBeginner, Role: model.RoleStudent, CreatedAt: t0})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.Users().Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")
	seedSession(t, s, "s1", "u1", "History")
	seedQuestions(t, s, "s1", "Who built the pyramids?")
	require.NoError(t, s.Leaderboard().Upsert(ctx, &model.LeaderboardEntry{
		ID: "e1", UserID: "u1", QuizSessionID: "s1", Topic: "History",
		Score: 1.5, CorrectCount: 1, TotalQuestions: 1, TimeTakenSeconds: 10,
		AvgDifficultyWeight: 1.5, CompletedAt: t0,
	}))
	require.NoError(t, s.Profiles().SaveProfileState(ctx, "u1", "medium", []byte(`{}`), t0))

	require.NoError(t, s.Users().Delete(ctx, "u1"))

	for _, table := range []string{tableSessions, tableQuestions, tableEntries, tableProfiles} {
		n, err := countRows(ctx, s.DB(), table, nil)
		require.NoError(t, err)
		assert.Zero(t, n, table)
	}
	assert.ErrorIs(t, s.Users().Delete(ctx, "u1"), ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")
	qs := seedSession(t, s, "s1", "u1", "History")

	qs.CompletedQuestions = 1
	qs.CorrectAnswers = 1
	qs.TotalTimeSeconds = 12.5
	qs.RecomputeScore()
	qs.LastActivityAt = t0.Add(time.Minute)
	require.NoError(t, s.Sessions().UpdateProgress(ctx, qs))

	got, err := s.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CorrectAnswers)
	assert.InDelta(t, 50.0, got.ScorePercentage, 1e-9)
	assert.Nil(t, got.CompletedAt)

	done := t0.Add(2 * time.Minute)
	require.NoError(t, s.Sessions().Finish(ctx, "s1", model.StatusCompleted, done))
	assert.ErrorIs(t, s.Sessions().Finish(ctx, "s1", model.StatusAbandoned, done), ErrNotActive)
	assert.ErrorIs(t, s.Sessions().UpdateProgress(ctx, qs), ErrNotActive)

	got, err = s.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))
}

func TestSweepAbandoned(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")
	seedSession(t, s, "old", "u1", "History")
	fresh := seedSession(t, s, "fresh", "u1", "History")
	fresh.LastActivityAt = t0.Add(23 * time.Hour)
	require.NoError(t, s.Sessions().UpdateProgress(ctx, fresh))
	seedSession(t, s, "done", "u1", "History")
	require.NoError(t, s.Sessions().Finish(ctx, "done", model.StatusCompleted, t0))

	now := t0.Add(25 * time.Hour)
	n, err := s.Sessions().SweepAbandoned(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	want := map[string]model.SessionStatus{
		"old":   model.StatusAbandoned,
		"fresh": model.StatusActive,
		"done":  model.StatusCompleted,
	}
	for id, status := range want {
		got, err := s.Sessions().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status, id)
	}
}

func TestQuestionsRoundTripAndAnswerOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")
	seedSession(t, s, "s1", "u1", "History")
	seedQuestions(t, s, "s1", "First?", "Second?")

	list, err := s.Questions().ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First?", list[0].Text)
	assert.Equal(t, []string{"A. one", "B. two", "C. three", "D. four"}, list[0].Options)
	require.NotNil(t, list[0].Classification)
	assert.Equal(t, model.DifficultyMedium, list[0].Classification.Label)
	assert.False(t, list[0].Answered())

	q := list[0]
	answer, correct, at, took := "B", true, t0.Add(time.Minute), 8.0
	q.UserAnswer, q.IsCorrect, q.AnsweredAt, q.TimeTakenSeconds = &answer, &correct, &at, &took
	require.NoError(t, s.Questions().RecordAnswer(ctx, q))
	assert.ErrorIs(t, s.Questions().RecordAnswer(ctx, q), ErrAlreadyAnswered)

	got, err := s.Questions().Get(ctx, q.ID)
	require.NoError(t, err)
	require.True(t, got.Answered())
	assert.True(t, *got.IsCorrect)
	assert.Equal(t, "B", *got.UserAnswer)
	assert.InDelta(t, 8.0, *got.TimeTakenSeconds, 1e-9)

	recent, err := s.Questions().RecentAnswered(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, q.ID, recent[0].ID)
}

func TestQuestionHistoryIsScoped(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")
	seedUser(t, s, "u2", "bob")
	seedSession(t, s, "s1", "u1", "Geography")
	seedQuestions(t, s, "s1", "What is the capital of France?", "What is the capital of Spain?")
	seedSession(t, s, "s2", "u1", "History")
	seedQuestions(t, s, "s2", "Who was Napoleon?")
	seedSession(t, s, "s3", "u2", "Geography")
	seedQuestions(t, s, "s3", "What is the capital of Peru?")

	got, err := s.Questions().History(ctx, "u1", "Geography", model.SkillIntermediate, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"What is the capital of Spain?", "What is the capital of France?"}, got)

	limited, err := s.Questions().History(ctx, "u1", "Geography", model.SkillIntermediate, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.Questions().History(ctx, "u1", "Geography", model.SkillAdvanced, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLeaderboardUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")
	seedSession(t, s, "s1", "u1", "History")

	e := &model.LeaderboardEntry{
		ID: "e1", UserID: "u1", QuizSessionID: "s1", Topic: "History",
		Score: 3, CorrectCount: 2, TotalQuestions: 2, TimeTakenSeconds: 30,
		AvgDifficultyWeight: 1.5, CompletedAt: t0,
	}
	require.NoError(t, s.Leaderboard().Upsert(ctx, e))
	require.NoError(t, s.Leaderboard().SetRanks(ctx, map[string]int{"e1": 1}))

	again := *e
	again.ID = "other-id"
	require.NoError(t, s.Leaderboard().Upsert(ctx, &again))

	n, err := countRows(ctx, s.DB(), tableEntries, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Leaderboard().GetBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "ada", got.Username)
	require.NotNil(t, got.Rank)
	assert.Equal(t, 1, *got.Rank)
}

func TestLeaderboardQueryOrderSearchAndPaging(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedUser(t, s, "u3", "alina")

	add := func(id, user, topic string, score, secs float64, at time.Time) {
		seedSession(t, s, "s-"+id, user, topic)
		require.NoError(t, s.Leaderboard().Upsert(ctx, &model.LeaderboardEntry{
			ID: id, UserID: user, QuizSessionID: "s-" + id, Topic: topic,
			Score: score, CorrectCount: 1, TotalQuestions: 5, TimeTakenSeconds: secs,
			AvgDifficultyWeight: 1.5, CompletedAt: at,
		}))
	}
	add("a", "u1", "History", 7.5, 200, t0)
	add("b", "u2", "History", 7.5, 150, t0.Add(5*time.Minute))
	add("c", "u3", "History", 9, 300, t0)
	add("d", "u1", "Science", 10, 10, t0)

	entries, total, err := s.Leaderboard().Query(ctx, LeaderboardFilter{Topic: "History"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"c", "b", "a"}, ids(entries))

	entries, total, err = s.Leaderboard().Query(ctx, LeaderboardFilter{Search: "ALI"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"d", "c", "a"}, ids(entries))

	entries, total, err = s.Leaderboard().Query(ctx, LeaderboardFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"c", "b"}, ids(entries))

	entries, _, err = s.Leaderboard().Query(ctx, LeaderboardFilter{Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(entries))

	mine, err := s.Leaderboard().ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	aggs, err := s.Leaderboard().Aggregates(ctx)
	require.NoError(t, err)
	require.Len(t, aggs, 3)
	for _, a := range aggs {
		if a.UserID == "u1" {
			assert.Equal(t, 2, a.TotalQuizzes)
			assert.Equal(t, 10, a.TotalQuestions)
			assert.Equal(t, 2, a.TotalCorrect)
			assert.InDelta(t, 105.0, a.AverageTime, 1e-9)
			assert.InDelta(t, 20.0, a.BestScore, 1e-9)
		}
	}
}

func TestLeaderboardQuarantine(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")
	seedSession(t, s, "s1", "u1", "History")

	e := &model.LeaderboardEntry{ID: "e1", UserID: "u1", QuizSessionID: "s1", Topic: "History", Score: 99, TotalQuestions: 2, TimeTakenSeconds: 1, CompletedAt: t0}
	require.NoError(t, s.Leaderboard().Quarantine(ctx, e, "score exceeds maximum", t0))

	recs, err := s.Leaderboard().Quarantined(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "s1", recs[0].QuizSessionID)
	assert.Equal(t, "score exceeds maximum", recs[0].Reason)
	assert.InDelta(t, 99.0, recs[0].Entry.Score, 1e-9)
}

func TestProfileState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1", "ada")

	raw, err := s.Profiles().LoadProfileState(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, s.Profiles().SaveProfileState(ctx, "u1", "medium", []byte(`{"v":1}`), t0))
	require.NoError(t, s.Profiles().SaveProfileState(ctx, "u1", "hard", []byte(`{"v":2}`), t0.Add(time.Minute)))

	raw, err = s.Profiles().LoadProfileState(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(raw))
}

func TestInTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Tx) error {
		if err := tx.Users().Create(ctx, &model.User{ID: "u1", Username: "ada", Skill: model.SkillBeginner, Role: model.RoleStudent, CreatedAt: t0}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	for i, purpose := range []string{"question-gen", "question-gen", "preview"} {
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "mock",
			Model:        "mock",
			Purpose:      purpose,
			InputTokens:  100 * (i + 1),
			OutputTokens: 10,
			LatencyMs:    int64(20 * (i + 1)),
			Success:      i != 2,
			ErrorMessage: strings.Repeat("x", i),
			RequestBody:  "[user]\nprompt",
			ResponseBody: "Question: ...",
		}))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "preview", events[0].Purpose)
	assert.Greater(t, events[0].ID, events[1].ID)

	e, err := repo.GetLLMEvent(ctx, events[1].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "[user]\nprompt", e.RequestBody)

	missing, err := repo.GetLLMEvent(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "preview", byPurpose[0].Purpose)
	assert.Equal(t, "question-gen", byPurpose[1].Purpose)
	assert.Equal(t, 2, byPurpose[1].Calls)
	assert.Equal(t, 300, byPurpose[1].InputTokens)
	assert.EqualValues(t, 30, byPurpose[1].AvgLatencyMs)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 3, byModel[0].Calls)
}

func ids(entries []*model.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
