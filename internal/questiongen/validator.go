package questiongen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/quizmind/internal/model"
)

// Validator checks a parsed candidate before it is accepted.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in logs, e.g. "structural".
	Name() string

	// Validate returns nil if the candidate passes.
	Validate(c *candidate, in attemptInput) *ValidationError
}

// ValidationError describes why a candidate was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// Length limits enforced by StructuralValidator.
const (
	MinQuestionLength = 10
	MaxQuestionLength = 1000
)

// StructuralValidator checks the question text length.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(c *candidate, _ attemptInput) *ValidationError {
	n := utf8.RuneCountInString(c.Text)
	if n < MinQuestionLength {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question_text shorter than %d characters", MinQuestionLength)}
	}
	if n > MaxQuestionLength {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question_text exceeds %d characters", MaxQuestionLength)}
	}
	return nil
}

// OptionsValidator rejects multiple-choice candidates whose options repeat
// or were mostly padded in.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(c *candidate, _ attemptInput) *ValidationError {
	if c.Type != model.TypeMultipleChoice {
		return nil
	}
	seen := make(map[string]bool, len(c.Options))
	padded := 0
	for _, o := range c.Options {
		text := strings.ToLower(strings.TrimSpace(o[strings.Index(o, ".")+1:]))
		if text == "none of the above" {
			padded++
			continue
		}
		if seen[text] {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("duplicate option %q", o)}
		}
		seen[text] = true
	}
	if padded > 2 {
		return &ValidationError{Validator: v.Name(), Message: "fewer than two real options"}
	}
	return nil
}
