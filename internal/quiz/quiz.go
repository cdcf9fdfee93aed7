package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/quizmind/internal/adaptive"
	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/evaluate"
	"github.com/abhisek/quizmind/internal/leaderboard"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/questiongen"
	"github.com/abhisek/quizmind/internal/store"
)

// ClientQuestion is a question as shown to the learner, without its answer.
type ClientQuestion struct {
	ID               string             `json:"id"`
	Position         int                `json:"position"`
	Text             string             `json:"question_text"`
	Type             model.QuestionType `json:"type"`
	Options          []string           `json:"options,omitempty"`
	DifficultyLevel  model.Difficulty   `json:"difficulty_level"`
	DifficultyWeight float64            `json:"difficulty_weight"`
}

func clientView(q *model.Question) ClientQuestion {
	return ClientQuestion{
		ID:               q.ID,
		Position:         q.Position,
		Text:             q.Text,
		Type:             q.Type,
		Options:          q.Options,
		DifficultyLevel:  q.Difficulty,
		DifficultyWeight: q.Weight(),
	}
}

// StartQuizResponse is a new session and its questions.
type StartQuizResponse struct {
	SessionID string             `json:"session_id"`
	Session   *model.QuizSession `json:"session"`
	Questions []ClientQuestion   `json:"questions"`
}

// StartQuiz generates a quiz for the user and stores it as an active
// session. Nothing is stored if generation fails or ctx is cancelled.
func (s *Service) StartQuiz(ctx context.Context, req StartQuizRequest) (*StartQuizResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	skill, _ := model.ParseSkill(req.SkillLevel)

	if _, err := s.st.Users().Get(ctx, req.UserID); err != nil {
		return nil, notFound(err, "user_not_found", "User not found.")
	}

	adaptiveMode := s.cfg.Adaptive
	if req.Adaptive != nil {
		adaptiveMode = *req.Adaptive
	}

	res, err := s.gen.Generate(ctx, questiongen.Request{
		UserID:          req.UserID,
		Topic:           req.Topic,
		Skill:           skill,
		NumQuestions:    req.NumQuestions,
		CustomTopicText: req.CustomTopicText,
		Adaptive:        adaptiveMode,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &model.QuizSession{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Topic:           questiongen.CanonicalTopic(req.Topic),
		SkillLevel:      skill,
		TotalQuestions:  len(res.Questions),
		CustomTopicText: req.CustomTopicText,
		Status:          model.StatusActive,
		Adaptive:        adaptiveMode,
		Degraded:        res.Degraded,
		StartedAt:       now,
		LastActivityAt:  now,
	}
	for _, q := range res.Questions {
		q.ID = uuid.NewString()
		q.SessionID = session.ID
	}

	err = s.st.InTx(ctx, func(tx *store.Tx) error {
		if err := tx.Sessions().Create(ctx, session); err != nil {
			return err
		}
		return tx.Questions().CreateBatch(ctx, res.Questions, now)
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("store quiz: %w", err))
	}

	s.log.Info("quiz started",
		"session_id", session.ID,
		"user_id", session.UserID,
		"topic", session.Topic,
		"questions", session.TotalQuestions,
		"adaptive", session.Adaptive,
		"degraded", session.Degraded)

	out := &StartQuizResponse{SessionID: session.ID, Session: session}
	for _, q := range res.Questions {
		out.Questions = append(out.Questions, clientView(q))
	}
	return out, nil
}

// SubmitAnswerResponse is the grade of one answer.
type SubmitAnswerResponse struct {
	IsCorrect  bool                `json:"is_correct"`
	Confidence float64             `json:"confidence"`
	Method     evaluate.Method     `json:"method"`
	AnswerType evaluate.AnswerType `json:"answer_type"`
	Feedback   evaluate.Feedback   `json:"feedback"`

	// NextDifficulty is set for adaptive sessions.
	NextDifficulty model.Difficulty `json:"next_difficulty,omitempty"`
	Reason         adaptive.Reason  `json:"reason_tag,omitempty"`

	CompletedQuestions int     `json:"completed_questions"`
	TotalQuestions     int     `json:"total_questions"`
	ScorePercentage    float64 `json:"score_percentage"`
}

// SubmitAnswer grades an answer and stores it together with the session
// progress and the learner's updated adaptive profile. Answers within a
// session are processed one at a time in arrival order.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	unlock := s.lockSession(req.SessionID)
	defer unlock()

	session, err := s.st.Sessions().Get(ctx, req.SessionID)
	if err != nil {
		return nil, notFound(err, "session_not_found", "Quiz session not found.")
	}
	if session.Status != model.StatusActive {
		return nil, apperr.Conflict("session_not_active", fmt.Sprintf("This quiz is already %s.", session.Status))
	}
	q, err := s.st.Questions().Get(ctx, req.QuestionID)
	if err != nil || q.SessionID != session.ID {
		if err == nil {
			err = store.ErrNotFound
		}
		return nil, notFound(err, "question_not_found", "Question not found in this quiz.")
	}
	if q.Answered() {
		return nil, apperr.Conflict("already_answered", "This question has already been answered.")
	}
	user, err := s.st.Users().Get(ctx, session.UserID)
	if err != nil {
		return nil, notFound(err, "user_not_found", "User not found.")
	}

	result := s.eval.Evaluate(q, req.UserAnswer)

	now := s.now().UTC()
	answer, correct, taken := req.UserAnswer, result.IsCorrect, req.TimeTakenSeconds
	q.UserAnswer = &answer
	q.IsCorrect = &correct
	q.AnsweredAt = &now
	q.TimeTakenSeconds = &taken

	session.CompletedQuestions++
	if correct {
		session.CorrectAnswers++
	}
	session.TotalTimeSeconds += taken
	session.LastActivityAt = now
	session.RecomputeScore()

	decision, err := s.engine.RecordAnswerWith(ctx, adaptive.Answer{
		UserID:       user.ID,
		Skill:        user.Skill,
		Difficulty:   q.Difficulty,
		Correct:      correct,
		ResponseTime: taken,
	}, func(ctx context.Context, p *adaptive.Profile) error {
		return s.st.InTx(ctx, func(tx *store.Tx) error {
			if err := tx.Questions().RecordAnswer(ctx, q); err != nil {
				return err
			}
			if err := tx.Sessions().UpdateProgress(ctx, session); err != nil {
				return err
			}
			return adaptive.SaveTo(tx.Profiles())(ctx, p)
		})
	})
	switch {
	case errors.Is(err, store.ErrAlreadyAnswered):
		return nil, apperr.Conflict("already_answered", "This question has already been answered.")
	case errors.Is(err, store.ErrNotActive):
		return nil, apperr.Conflict("session_not_active", "This quiz is no longer active.")
	case err != nil:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Storage(fmt.Errorf("record answer: %w", err))
	}

	out := &SubmitAnswerResponse{
		IsCorrect:          result.IsCorrect,
		Confidence:         result.Confidence,
		Method:             result.Method,
		AnswerType:         result.AnswerType,
		Feedback:           result.Feedback,
		CompletedQuestions: session.CompletedQuestions,
		TotalQuestions:     session.TotalQuestions,
		ScorePercentage:    session.ScorePercentage,
	}
	if session.Adaptive {
		out.NextDifficulty = decision.Next
		out.Reason = decision.Reason
	}
	return out, nil
}

// CompleteQuizResponse is the final result of a quiz.
type CompleteQuizResponse struct {
	SessionID        string                  `json:"session_id"`
	ScorePercentage  float64                 `json:"score_percentage"`
	CorrectAnswers   int                     `json:"correct_answers"`
	TotalQuestions   int                     `json:"total_questions"`
	LeaderboardEntry *model.LeaderboardEntry `json:"leaderboard_entry"`
}

// CompleteQuiz finishes the session and records its leaderboard entry.
// Completing an already completed session records the same entry again.
// Unanswered questions count as wrong.
func (s *Service) CompleteQuiz(ctx context.Context, sessionID string) (*CompleteQuizResponse, error) {
	if sessionID == "" {
		return nil, apperr.Validation("invalid_session_id", "The session id is required.")
	}
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "session_not_found", "Quiz session not found.")
	}
	switch session.Status {
	case model.StatusAbandoned:
		return nil, apperr.Conflict("session_abandoned", "This quiz was abandoned and cannot be completed.")
	case model.StatusActive:
		if err := s.finish(ctx, sessionID, model.StatusCompleted); err != nil {
			return nil, err
		}
		if session, err = s.st.Sessions().Get(ctx, sessionID); err != nil {
			return nil, apperr.Storage(err)
		}
	}

	questions, err := s.st.Questions().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	entry, err := s.board.Record(ctx, session, questions)
	if err != nil {
		if leaderboard.IsInvariant(err) {
			s.log.Error("quiz result withheld from leaderboard",
				"session_id", session.ID,
				"user_id", session.UserID,
				"error", err)
		}
		return nil, err
	}

	s.log.Info("quiz completed",
		"session_id", session.ID,
		"user_id", session.UserID,
		"score_percentage", session.ScorePercentage,
		"weighted_score", entry.Score)

	return &CompleteQuizResponse{
		SessionID:        session.ID,
		ScorePercentage:  session.ScorePercentage,
		CorrectAnswers:   session.CorrectAnswers,
		TotalQuestions:   session.TotalQuestions,
		LeaderboardEntry: entry,
	}, nil
}

// AbandonQuiz moves an active session to abandoned. Abandoning an
// abandoned session is a no-op.
func (s *Service) AbandonQuiz(ctx context.Context, sessionID string) (*model.QuizSession, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "session_not_found", "Quiz session not found.")
	}
	switch session.Status {
	case model.StatusCompleted:
		return nil, apperr.Conflict("session_completed", "This quiz is already completed.")
	case model.StatusAbandoned:
		return session, nil
	}
	if err := s.finish(ctx, sessionID, model.StatusAbandoned); err != nil {
		if tag, _ := apperr.Public(err); tag != "session_abandoned" {
			return nil, err
		}
	}
	session, err = s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return session, nil
}

// finish moves an active session to status. A session that reached a
// terminal status since it was read yields a conflict naming that status.
func (s *Service) finish(ctx context.Context, sessionID string, status model.SessionStatus) error {
	err := s.st.Sessions().Finish(ctx, sessionID, status, s.now())
	if errors.Is(err, store.ErrNotActive) {
		if cur, gerr := s.st.Sessions().Get(ctx, sessionID); gerr == nil && cur.Status == model.StatusCompleted {
			return apperr.Conflict("session_completed", "This quiz is already completed.")
		}
		return apperr.Conflict("session_abandoned", "This quiz was abandoned and cannot be completed.")
	}
	if err != nil {
		return apperr.Storage(fmt.Errorf("finish session %s: %w", sessionID, err))
	}
	return nil
}

// SweepAbandoned abandons every active session idle for longer than the
// inactivity window and returns how many were abandoned.
func (s *Service) SweepAbandoned(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.st.Sessions().SweepAbandoned(ctx, now.Add(-s.cfg.InactivityWindow), now)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	if n > 0 {
		s.log.Info("abandoned idle sessions", "count", n, "window", s.cfg.InactivityWindow.String())
	}
	return n, nil
}

// Session returns a session and its questions with answers hidden.
func (s *Service) Session(ctx context.Context, sessionID string) (*model.QuizSession, []ClientQuestion, error) {
	session, err := s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, nil, notFound(err, "session_not_found", "Quiz session not found.")
	}
	qs, err := s.st.Questions().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, apperr.Storage(err)
	}
	out := make([]ClientQuestion, 0, len(qs))
	for _, q := range qs {
		out = append(out, clientView(q))
	}
	return session, out, nil
}
