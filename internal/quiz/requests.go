package quiz

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/model"
)

// StartQuizRequest starts a quiz.
type StartQuizRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	Topic           string `json:"topic" validate:"required,min=2,max=200"`
	SkillLevel      string `json:"skill_level" validate:"required,skill"`
	NumQuestions    int    `json:"num_questions" validate:"min=1,max=20"`
	CustomTopicText string `json:"custom_topic_text,omitempty" validate:"omitempty,min=10,max=10000"`

	// Adaptive overrides the service default when set.
	Adaptive *bool `json:"adaptive,omitempty"`
}

// SubmitAnswerRequest grades one answer.
type SubmitAnswerRequest struct {
	SessionID        string  `json:"session_id" validate:"required"`
	QuestionID       string  `json:"question_id" validate:"required"`
	UserAnswer       string  `json:"user_answer" validate:"max=2000"`
	TimeTakenSeconds float64 `json:"time_taken_seconds" validate:"min=0,max=86400"`
}

// LeaderboardRequest selects a leaderboard page. An empty topic selects
// the global scope.
type LeaderboardRequest struct {
	Topic  string `json:"topic" form:"topic"`
	Search string `json:"search" form:"search" validate:"max=64"`
	Limit  int    `json:"limit" form:"limit" validate:"min=0,max=100"`
	Offset int    `json:"offset" form:"offset" validate:"min=0"`
}

// RegisterUserRequest creates a user.
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Skill    string `json:"skill" validate:"required,skill"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=student admin"`
}

// DefaultLeaderboardLimit applies when a request sets no limit.
const DefaultLeaderboardLimit = 10

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("skill", func(fl validator.FieldLevel) bool {
		_, err := model.ParseSkill(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !(r == '_' || r == '-' || r == '.' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
		return true
	})
	return v
}

// check validates req and turns the first failure into a validation error
// tagged after the offending field.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid_request", "The request is invalid.")
	}
	fe := verrs[0]
	return apperr.Validation("invalid_"+fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s is required.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at most %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s must be at most %s.", field, fe.Param())
	case "skill":
		return "Skill level must be Beginner, Intermediate or Advanced."
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s.", field, fe.Param())
	case "username":
		return "Usernames may only contain letters, digits, '.', '_' and '-'."
	}
	return fmt.Sprintf("The %s is invalid.", field)
}
