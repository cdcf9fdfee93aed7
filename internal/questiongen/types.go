package questiongen

import (
	"context"

	"github.com/abhisek/quizmind/internal/adaptive"
	"github.com/abhisek/quizmind/internal/llm"
	"github.com/abhisek/quizmind/internal/model"
)

// Request describes the quiz to generate.
type Request struct {
	UserID       string
	Topic        string
	Skill        model.Skill
	NumQuestions int

	// CustomTopicText is learner-supplied material used as the prompt
	// context when Topic is not in the catalog.
	CustomTopicText string

	// Adaptive asks the adaptive engine for the target difficulty instead
	// of using Skill.
	Adaptive bool
}

// Result is a generated quiz. Questions carry positions but no IDs.
type Result struct {
	Questions []*model.Question

	// Target is the difficulty the prompts asked for.
	Target model.Difficulty

	// Degraded is true when at least one fallback question was used.
	Degraded bool

	// Truncated is true when CustomTopicText was cut to the context budget.
	Truncated bool
}

// TextCompleter produces a completion for a prompt.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, s llm.Sampling) (string, error)
}

// JSONCompleter is a TextCompleter that can constrain its output to a
// JSON schema. The generator uses it in ModeJSON.
type JSONCompleter interface {
	TextCompleter
	CompleteJSON(ctx context.Context, prompt string, s llm.Sampling, schema *llm.Schema) ([]byte, error)
}

// HistorySource returns the texts of questions a user has already been
// asked for a topic and skill level, newest first.
type HistorySource interface {
	History(ctx context.Context, userID, topic string, skill model.Skill, limit int) ([]string, error)
}

// DifficultyAdvisor picks the target difficulty in adaptive mode.
type DifficultyAdvisor interface {
	Recommend(ctx context.Context, userID string, skill model.Skill) (adaptive.Decision, error)
}

// candidate is a parsed but not yet accepted question.
type candidate struct {
	Text          string
	Type          model.QuestionType
	Options       []string
	CorrectAnswer string
	Explanation   string
}

// attemptInput is what validators see besides the candidate.
type attemptInput struct {
	Topic string
	Type  model.QuestionType

	// Prior holds every question the candidate must not repeat: the
	// user's history plus questions accepted earlier in this batch.
	Prior []string
}
