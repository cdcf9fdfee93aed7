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

// ErrAlreadyAnswered is returned when an answer is recorded twice.
var ErrAlreadyAnswered = errors.New("question already answered")

// QuestionRepo persists quiz questions and their answers.
type QuestionRepo struct {
	q querier
}

var questionColumns = []string{
	"id", "session_id", "position", "question_text", "type", "options",
	"correct_answer", "explanation", "difficulty_level", "difficulty_weight",
	"classification", "fallback", "user_answer", "is_correct", "answered_at",
	"time_taken_seconds",
}

// CreateBatch inserts the questions of one session.
func (r *QuestionRepo) CreateBatch(ctx context.Context, qs []*model.Question, at time.Time) error {
	if len(qs) == 0 {
		return nil
	}
	ins := sqlite().Insert(tableQuestions).Columns(append(questionColumns[:12:12], "created_at")...)
	for _, q := range qs {
		options, err := marshalNullable(q.Options, len(q.Options) > 0)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		class, err := marshalNullable(q.Classification, q.Classification != nil)
		if err != nil {
			return fmt.Errorf("marshal classification: %w", err)
		}
		ins.Values(
			q.ID, q.SessionID, q.Position, q.Text, string(q.Type), options,
			q.CorrectAnswer, q.Explanation, string(q.Difficulty), q.Weight(),
			class, q.Fallback, at.UTC(),
		)
	}
	if _, err := execQuery(ctx, r.q, ins); err != nil {
		return fmt.Errorf("create questions: %w", err)
	}
	return nil
}

// Get returns the question with id, or ErrNotFound.
func (r *QuestionRepo) Get(ctx context.Context, id string) (*model.Question, error) {
	sel := sqlite().Select(questionColumns...).
		From(sqlite().Table(tableQuestions)).
		Where(entsql.EQ("id", id))
	q, err := scanQuestion(queryRow(ctx, r.q, sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListBySession returns the session's questions in delivery order.
func (r *QuestionRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Question, error) {
	sel := sqlite().Select(questionColumns...).
		From(sqlite().Table(tableQuestions)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Asc("position"))
	return r.list(ctx, sel)
}

// RecordAnswer stores the grading outcome of q. Answers are write-once:
// ErrAlreadyAnswered is returned when q was graded before.
func (r *QuestionRepo) RecordAnswer(ctx context.Context, q *model.Question) error {
	if q.UserAnswer == nil || q.IsCorrect == nil || q.AnsweredAt == nil {
		return fmt.Errorf("record answer: question %s has no answer", q.ID)
	}
	upd := sqlite().Update(tableQuestions).
		Set("user_answer", *q.UserAnswer).
		Set("is_correct", *q.IsCorrect).
		Set("answered_at", q.AnsweredAt.UTC()).
		Where(entsql.And(
			entsql.EQ("id", q.ID),
			entsql.IsNull("is_correct"),
		))
	if q.TimeTakenSeconds != nil {
		upd.Set("time_taken_seconds", *q.TimeTakenSeconds)
	}
	res, err := execQuery(ctx, r.q, upd)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if n == 0 {
		return ErrAlreadyAnswered
	}
	return nil
}

// History returns the texts of questions the user has been asked for the
// topic and skill level, newest first. A limit of zero returns them all.
func (r *QuestionRepo) History(ctx context.Context, userID, topic string, skill model.Skill, limit int) ([]string, error) {
	q := sqlite().Table(tableQuestions).As("q")
	s := sqlite().Table(tableSessions).As("s")
	sel := sqlite().Select(q.C("question_text")).
		From(q).
		Join(s).On(q.C("session_id"), s.C("id")).
		Where(entsql.And(
			entsql.EQ(s.C("user_id"), userID),
			entsql.EQ(s.C("topic"), topic),
			entsql.EQ(s.C("skill_level"), string(skill)),
		)).
		OrderBy(entsql.Desc(q.C("created_at")), entsql.Desc(q.C("position")))
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := queryRows(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("question history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan question history: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// RecentAnswered returns the user's most recently answered questions,
// newest first.
func (r *QuestionRepo) RecentAnswered(ctx context.Context, userID string, limit int) ([]*model.Question, error) {
	q := sqlite().Table(tableQuestions).As("q")
	s := sqlite().Table(tableSessions).As("s")
	cols := make([]string, len(questionColumns))
	for i, c := range questionColumns {
		cols[i] = q.C(c)
	}
	sel := sqlite().Select(cols...).
		From(q).
		Join(s).On(q.C("session_id"), s.C("id")).
		Where(entsql.And(
			entsql.EQ(s.C("user_id"), userID),
			entsql.NotNull(q.C("is_correct")),
		)).
		OrderBy(entsql.Desc(q.C("answered_at")), entsql.Desc(q.C("id")))
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

func (r *QuestionRepo) list(ctx context.Context, sel *entsql.Selector) ([]*model.Question, error) {
	rows, err := queryRows(ctx, r.q, sel)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []*model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	var (
		q                 model.Question
		qtype, difficulty string
		weight            float64
		options, class    sql.NullString
		userAnswer        sql.NullString
		isCorrect         sql.NullBool
		answeredAt        sql.NullTime
		timeTaken         sql.NullFloat64
	)
	err := row.Scan(
		&q.ID, &q.SessionID, &q.Position, &q.Text, &qtype, &options,
		&q.CorrectAnswer, &q.Explanation, &difficulty, &weight,
		&class, &q.Fallback, &userAnswer, &isCorrect, &answeredAt,
		&timeTaken,
	)
	if err != nil {
		return nil, err
	}
	q.Type = model.QuestionType(qtype)
	q.Difficulty = model.Difficulty(difficulty)
	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	if class.Valid && class.String != "" {
		q.Classification = &model.Classification{}
		if err := json.Unmarshal([]byte(class.String), q.Classification); err != nil {
			return nil, fmt.Errorf("decode classification: %w", err)
		}
	}
	if userAnswer.Valid {
		q.UserAnswer = &userAnswer.String
	}
	if isCorrect.Valid {
		q.IsCorrect = &isCorrect.Bool
	}
	q.AnsweredAt = timePtr(answeredAt)
	if timeTaken.Valid {
		q.TimeTakenSeconds = &timeTaken.Float64
	}
	return &q, nil
}

func marshalNullable(v any, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
