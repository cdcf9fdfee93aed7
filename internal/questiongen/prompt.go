package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizmind/internal/model"
)

// SystemPrompt is the system message sent with every generation request.
const SystemPrompt = `You are an expert educator writing quiz questions.

Rules:
- Write exactly one question at the requested skill level and of the requested type.
- The question must be answerable from general knowledge of the topic or from the provided context.
- Multiple choice questions have exactly 4 options labelled A. to D. and exactly one correct option.
- True/false questions are answered with True or False.
- The explanation states briefly why the correct answer is right.
- Never repeat or paraphrase a question from the "avoid" list.`

var typeLabels = map[model.QuestionType]string{
	model.TypeMultipleChoice: "Multiple Choice",
	model.TypeTrueFalse:      "True/False",
	model.TypeShortAnswer:    "Short Answer",
}

// buildPrompt renders the user prompt for one question.
func buildPrompt(topic string, skill model.Skill, qtype model.QuestionType, context string, avoid []string, mode ResponseMode) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Skill level: %s\n", skill)
	fmt.Fprintf(&b, "Question type: %s\n", typeLabels[qtype])
	fmt.Fprintf(&b, "\nContext:\n%s\n", context)

	b.WriteString("\nAvoid these questions:\n")
	b.WriteString(formatAvoid(avoid))
	b.WriteString("\n\n")

	if mode == ModeJSON {
		fmt.Fprintf(&b, "Respond with a JSON object whose type is %q.", qtype)
		return b.String()
	}

	b.WriteString("Respond in exactly this format:\n")
	b.WriteString("Question: <the question>\n")
	fmt.Fprintf(&b, "Type: %s\n", typeLabels[qtype])
	switch qtype {
	case model.TypeMultipleChoice:
		b.WriteString("Options:\nA. <option>\nB. <option>\nC. <option>\nD. <option>\n")
		b.WriteString("Correct Answer: <A, B, C or D>\n")
	case model.TypeTrueFalse:
		b.WriteString("Correct Answer: <True or False>\n")
	default:
		b.WriteString("Correct Answer: <a short answer>\n")
	}
	b.WriteString("Explanation: <one or two sentences>")
	return b.String()
}

// formatAvoid numbers the avoid list. Returns "None" when empty.
func formatAvoid(avoid []string) string {
	if len(avoid) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, q := range avoid {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
