package questiongen

import (
	"github.com/abhisek/quizmind/internal/llm"
	"github.com/abhisek/quizmind/internal/model"
)

// ResponseMode selects how the completer is asked to answer.
type ResponseMode string

const (
	// ModeText asks for labelled plain-text fields and parses them
	// permissively.
	ModeText ResponseMode = "text"

	// ModeJSON asks for a JSON object matching QuestionSchema.
	ModeJSON ResponseMode = "json"
)

// Config controls the behavior of the Generator.
type Config struct {
	// Validators run in order on every parsed candidate; the first
	// failure rejects it.
	Validators []Validator

	// Sampling is passed to the completer on every attempt.
	Sampling llm.Sampling

	// MaxAttempts is the number of completions tried per question before
	// falling back to a template.
	MaxAttempts int

	// MaxAvoid is the number of most recent prior questions listed in the
	// prompt.
	MaxAvoid int

	// MinResponseLength rejects shorter completions outright.
	MinResponseLength int

	// ContextBudget is the maximum number of characters of custom topic
	// text placed in the prompt.
	ContextBudget int

	// TypeSchedule is cycled to pick each question's type.
	TypeSchedule []model.QuestionType

	ResponseMode ResponseMode
}

// DefaultConfig returns a Config with the standard validator chain and
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&OptionsValidator{},
			&DedupValidator{Threshold: DefaultSimilarityThreshold, PrefixLen: DefaultPrefixLen},
		},
		Sampling: llm.Sampling{
			Temperature: 0.9,
			TopK:        60,
			TopP:        0.95,
			MaxTokens:   600,
		},
		MaxAttempts:       3,
		MaxAvoid:          10,
		MinResponseLength: 30,
		ContextBudget:     8000,
		TypeSchedule: []model.QuestionType{
			model.TypeMultipleChoice,
			model.TypeTrueFalse,
			model.TypeMultipleChoice,
			model.TypeMultipleChoice,
			model.TypeTrueFalse,
		},
		ResponseMode: ModeText,
	}
}

// typeAt returns the scheduled type of the i-th question.
func (c Config) typeAt(i int) model.QuestionType {
	if len(c.TypeSchedule) == 0 {
		return model.TypeMultipleChoice
	}
	return c.TypeSchedule[i%len(c.TypeSchedule)]
}
