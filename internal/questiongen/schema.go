package questiongen

import "github.com/abhisek/quizmind/internal/llm"

// QuestionSchema is the response schema used in ModeJSON.
var QuestionSchema = &llm.Schema{
	Name:        "quiz-question",
	Description: "A single quiz question with its answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question shown to the learner",
			},
			"type": map[string]any{
				"type": "string",
				"enum": []any{"multiple_choice", "true_false", "short_answer"},
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 options for multiple_choice. Empty otherwise.",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "A-D for multiple_choice, True or False for true_false, free text otherwise",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the correct answer is right",
			},
		},
		"required":             []any{"question_text", "type", "options", "correct_answer", "explanation"},
		"additionalProperties": false,
	},
}
