package questiongen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/model"
)

// Boundary limits of a generation request.
const (
	MinQuestions     = 1
	MaxQuestions     = 20
	MinTopicLength   = 2
	MinCustomTextLen = 10
	MaxCustomTextLen = 10000
)

// truncationMarker is appended to custom text cut to the context budget.
const truncationMarker = "\n[Content truncated]"

// Validate checks r against the boundary rules. It returns an
// *apperr.Error of kind validation.
func (r Request) Validate() error {
	if r.NumQuestions < MinQuestions || r.NumQuestions > MaxQuestions {
		return apperr.Validation("invalid_num_questions",
			fmt.Sprintf("Number of questions must be between %d and %d.", MinQuestions, MaxQuestions))
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.Topic)) < MinTopicLength {
		return apperr.Validation("invalid_topic",
			fmt.Sprintf("Topic must be at least %d characters.", MinTopicLength))
	}
	if !r.Skill.Valid() {
		return apperr.Validation("invalid_skill_level", "Skill level must be Beginner, Intermediate or Advanced.")
	}
	if r.CustomTopicText != "" {
		n := utf8.RuneCountInString(r.CustomTopicText)
		if n < MinCustomTextLen || n > MaxCustomTextLen {
			return apperr.Validation("invalid_custom_topic_text",
				fmt.Sprintf("Custom topic text must be between %d and %d characters.", MinCustomTextLen, MaxCustomTextLen))
		}
	}
	if r.UserID == "" {
		return apperr.Validation("invalid_user", "A user is required.")
	}
	return nil
}

// topicContext returns the prompt context for the request and whether
// custom text was truncated.
func topicContext(r Request, skill model.Skill, budget int) (string, bool) {
	if ctx, ok := catalogContext(r.Topic, skill); ok && r.CustomTopicText == "" {
		return ctx, false
	}
	text := strings.TrimSpace(r.CustomTopicText)
	if text == "" {
		return fmt.Sprintf("General knowledge about %s.", strings.TrimSpace(r.Topic)), false
	}
	return truncate(text, budget)
}

// truncate cuts s to budget runes and marks it.
func truncate(s string, budget int) (string, bool) {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:budget]) + truncationMarker, true
}
