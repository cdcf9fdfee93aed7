// Package model holds the entities shared by the quiz engine, its storage
// layer and its transports.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Skill is the learner's declared proficiency.
type Skill string

const (
	SkillBeginner     Skill = "Beginner"
	SkillIntermediate Skill = "Intermediate"
	SkillAdvanced     Skill = "Advanced"
)

// ParseSkill accepts a skill label case-insensitively.
func ParseSkill(s string) (Skill, error) {
	switch {
	case strings.EqualFold(s, string(SkillBeginner)):
		return SkillBeginner, nil
	case strings.EqualFold(s, string(SkillIntermediate)):
		return SkillIntermediate, nil
	case strings.EqualFold(s, string(SkillAdvanced)):
		return SkillAdvanced, nil
	}
	return "", fmt.Errorf("unknown skill level %q", s)
}

// Valid reports whether s is one of the three declared skills.
func (s Skill) Valid() bool {
	return s == SkillBeginner || s == SkillIntermediate || s == SkillAdvanced
}

// Difficulty returns the ladder level a new learner with this skill starts at.
func (s Skill) Difficulty() Difficulty {
	switch s {
	case SkillBeginner:
		return DifficultyEasy
	case SkillAdvanced:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Difficulty is a rung on the adaptive ladder.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Levels is the ladder in ascending order.
var Levels = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is on the ladder.
func (d Difficulty) Valid() bool { return d.Index() >= 0 }

// Index returns the ladder position of d, or -1.
func (d Difficulty) Index() int {
	for i, l := range Levels {
		if l == d {
			return i
		}
	}
	return -1
}

// Weight is the leaderboard multiplier for a correct answer at this level.
func (d Difficulty) Weight() float64 {
	switch d {
	case DifficultyEasy:
		return 1.0
	case DifficultyMedium:
		return 1.5
	case DifficultyHard:
		return 2.0
	}
	return 1.0
}

// Skill returns the declared-skill label used when prompting for d.
func (d Difficulty) Skill() Skill {
	switch d {
	case DifficultyEasy:
		return SkillBeginner
	case DifficultyHard:
		return SkillAdvanced
	default:
		return SkillIntermediate
	}
}

// QuestionType is how a question is answered.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeShortAnswer    QuestionType = "short_answer"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == TypeMultipleChoice || t == TypeTrueFalse || t == TypeShortAnswer
}

// SessionStatus is the lifecycle state of a quiz session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Role is a user's role.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User is a registered learner.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Skill     Skill     `json:"skill"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizSession is one bounded attempt at a quiz.
type QuizSession struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Topic  string `json:"topic"`

	// SkillLevel is the level the quiz was generated for.
	SkillLevel Skill `json:"skill_level"`

	TotalQuestions  int    `json:"total_questions"`
	CustomTopicText string `json:"custom_topic_text,omitempty"`

	CompletedQuestions int     `json:"completed_questions"`
	CorrectAnswers     int     `json:"correct_answers"`
	ScorePercentage    float64 `json:"score_percentage"`
	TotalTimeSeconds   float64 `json:"total_time_seconds"`

	Status SessionStatus `json:"status"`

	// Adaptive is true when question difficulty followed the learner's ladder.
	Adaptive bool `json:"adaptive"`

	// Degraded is true when at least one fallback question was served.
	Degraded bool `json:"degraded"`

	StartedAt      time.Time  `json:"started_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RecomputeScore sets ScorePercentage from the answer counters.
func (s *QuizSession) RecomputeScore() {
	if s.TotalQuestions <= 0 {
		s.ScorePercentage = 0
		return
	}
	s.ScorePercentage = 100 * float64(s.CorrectAnswers) / float64(s.TotalQuestions)
}

// Classification is the classifier's annotation on a question.
type Classification struct {
	Label          Difficulty         `json:"label"`
	Confidence     float64            `json:"confidence"`
	BloomScores    map[string]float64 `json:"bloom_scores"`
	SemanticScores map[string]float64 `json:"semantic_scores"`
	TextMetrics    TextMetrics        `json:"text_metrics"`
}

// TextMetrics are the readability diagnostics of a question.
type TextMetrics struct {
	Flesch           float64 `json:"flesch"`
	AvgWordLen       float64 `json:"avg_word_len"`
	AvgSentLen       float64 `json:"avg_sent_len"`
	LexicalDiversity float64 `json:"lexical_diversity"`
}

// Question is one item within a quiz session.
type Question struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`

	// Position is the zero-based order within the session.
	Position int `json:"position"`

	Text          string       `json:"question_text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`

	Difficulty     Difficulty      `json:"difficulty_level"`
	Classification *Classification `json:"classification,omitempty"`

	// Fallback marks a templated question served in place of a generated one.
	Fallback bool `json:"fallback"`

	UserAnswer       *string    `json:"user_answer,omitempty"`
	IsCorrect        *bool      `json:"is_correct,omitempty"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
	TimeTakenSeconds *float64   `json:"time_taken_seconds,omitempty"`
}

// Weight is derived from the difficulty level and never stored independently.
func (q *Question) Weight() float64 { return q.Difficulty.Weight() }

// Answered reports whether the question has been graded.
func (q *Question) Answered() bool { return q.IsCorrect != nil }

// LeaderboardEntry is the ranked record of one completed session.
type LeaderboardEntry struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Username            string    `json:"username,omitempty"`
	QuizSessionID       string    `json:"quiz_session_id"`
	Topic               string    `json:"topic"`
	Score               float64   `json:"score"`
	CorrectCount        int       `json:"correct_count"`
	TotalQuestions      int       `json:"total_questions"`
	TimeTakenSeconds    float64   `json:"time_taken_seconds"`
	AvgDifficultyWeight float64   `json:"avg_difficulty_weight"`
	Rank                *int      `json:"rank,omitempty"`
	CompletedAt         time.Time `json:"completed_at"`
}

// Percentage is the plain correctness percentage of the entry.
func (e *LeaderboardEntry) Percentage() float64 {
	if e.TotalQuestions <= 0 {
		return 0
	}
	return 100 * float64(e.CorrectCount) / float64(e.TotalQuestions)
}

