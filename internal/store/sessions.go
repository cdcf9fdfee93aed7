package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizmind/internal/model"
)

// ErrNotActive is returned when a write expects an active session and the
// session has already reached a terminal status.
var ErrNotActive = errors.New("session is not active")

// SessionRepo persists quiz sessions.
type SessionRepo struct {
	q querier
}

var sessionColumns = []string{
	"id", "user_id", "topic", "skill_level", "total_questions", "custom_topic_text",
	"completed_questions", "correct_answers", "score_percentage", "total_time_seconds",
	"status", "adaptive", "degraded", "started_at", "last_activity_at", "completed_at",
}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *model.QuizSession) error {
	var custom any
	if s.CustomTopicText != "" {
		custom = s.CustomTopicText
	}
	ins := sqlite().Insert(tableSessions).
		Columns(sessionColumns...).
		Values(
			s.ID, s.UserID, s.Topic, string(s.SkillLevel), s.TotalQuestions, custom,
			s.CompletedQuestions, s.CorrectAnswers, s.ScorePercentage, s.TotalTimeSeconds,
			string(s.Status), s.Adaptive, s.Degraded, s.StartedAt.UTC(), s.LastActivityAt.UTC(), nullTime(s.CompletedAt),
		)
	if _, err := execQuery(ctx, r.q, ins); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns the session with id, or ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.QuizSession, error) {
	sel := sqlite().Select(sessionColumns...).
		From(sqlite().Table(tableSessions)).
		Where(entsql.EQ("id", id))
	s, err := scanSession(queryRow(ctx, r.q, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// ListByUser returns the user's sessions, newest first.
func (r *SessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.QuizSession, error) {
	sel := sqlite().Select(sessionColumns...).
		From(sqlite().Table(tableSessions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	rows, err := queryRows(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*model.QuizSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateProgress writes the answer counters of an active session.
// ErrNotActive is returned when the session is no longer active.
func (r *SessionRepo) UpdateProgress(ctx context.Context, s *model.QuizSession) error {
	upd := sqlite().Update(tableSessions).
		Set("completed_questions", s.CompletedQuestions).
		Set("correct_answers", s.CorrectAnswers).
		Set("score_percentage", s.ScorePercentage).
		Set("total_time_seconds", s.TotalTimeSeconds).
		Set("last_activity_at", s.LastActivityAt.UTC()).
		Where(entsql.And(
			entsql.EQ("id", s.ID),
			entsql.EQ("status", string(model.StatusActive)),
		))
	return r.expectOne(ctx, upd, "update session progress")
}

// Finish moves an active session to a terminal status.
// ErrNotActive is returned when the session is already terminal.
func (r *SessionRepo) Finish(ctx context.Context, id string, status model.SessionStatus, at time.Time) error {
	if !status.Terminal() {
		return fmt.Errorf("finish session: %q is not a terminal status", status)
	}
	upd := sqlite().Update(tableSessions).
		Set("status", string(status)).
		Set("completed_at", at.UTC()).
		Set("last_activity_at", at.UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(model.StatusActive)),
		))
	return r.expectOne(ctx, upd, "finish session")
}

// SweepAbandoned marks every active session idle since before cutoff as
// abandoned and returns how many were changed.
func (r *SessionRepo) SweepAbandoned(ctx context.Context, cutoff, at time.Time) (int64, error) {
	upd := sqlite().Update(tableSessions).
		Set("status", string(model.StatusAbandoned)).
		Set("completed_at", at.UTC()).
		Where(entsql.And(
			entsql.EQ("status", string(model.StatusActive)),
			entsql.LT("last_activity_at", cutoff.UTC()),
		))
	res, err := execQuery(ctx, r.q, upd)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return res.RowsAffected()
}

func (r *SessionRepo) expectOne(ctx context.Context, upd *entsql.UpdateBuilder, op string) error {
	res, err := execQuery(ctx, r.q, upd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotActive
	}
	return nil
}

func scanSession(row rowScanner) (*model.QuizSession, error) {
	var (
		s                 model.QuizSession
		skill, status     string
		custom            sql.NullString
		started, lastSeen time.Time
		completedAt       sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.Topic, &skill, &s.TotalQuestions, &custom,
		&s.CompletedQuestions, &s.CorrectAnswers, &s.ScorePercentage, &s.TotalTimeSeconds,
		&status, &s.Adaptive, &s.Degraded, &started, &lastSeen, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	s.SkillLevel = model.Skill(skill)
	s.Status = model.SessionStatus(status)
	s.CustomTopicText = custom.String
	s.StartedAt = started.UTC()
	s.LastActivityAt = lastSeen.UTC()
	s.CompletedAt = timePtr(completedAt)
	return &s, nil
}
