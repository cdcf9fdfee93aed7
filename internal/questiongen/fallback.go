package questiongen

import (
	"fmt"

	"github.com/abhisek/quizmind/internal/model"
)

type template struct {
	text        string
	options     []string
	answer      string
	explanation string
}

// fallbacks are served when generation fails. Each family is indexed by
// the number of fallbacks already used in the batch so repeated failures
// do not produce identical questions.
var fallbacks = map[model.QuestionType][]template{
	model.TypeMultipleChoice: {
		{
			text:        "Which of the following best describes the study of %s?",
			options:     []string{"A. The systematic study of its core concepts and principles", "B. A random collection of unrelated facts", "C. A subject with no practical applications", "D. A field that cannot be learned"},
			answer:      "A",
			explanation: "Every field of study is built on core concepts and principles that can be learned systematically.",
		},
		{
			text:        "What is usually the best first step when learning %s?",
			options:     []string{"A. Memorizing advanced results without context", "B. Understanding the fundamental concepts", "C. Skipping to the hardest problems", "D. Avoiding practice questions"},
			answer:      "B",
			explanation: "Fundamentals make the advanced material in any subject easier to understand.",
		},
		{
			text:        "Which habit helps most when reviewing %s?",
			options:     []string{"A. Reading once and never revisiting", "B. Studying only the night before a test", "C. Practicing regularly and testing yourself", "D. Ignoring mistakes"},
			answer:      "C",
			explanation: "Regular practice and self-testing strengthen long-term retention.",
		},
		{
			text:        "How can you tell that you really understand an idea in %s?",
			options:     []string{"A. You have heard of it", "B. You can recognize its name", "C. You have read about it once", "D. You can explain it and apply it to a new problem"},
			answer:      "D",
			explanation: "Being able to explain and apply an idea shows real understanding.",
		},
	},
	model.TypeTrueFalse: {
		{
			text:        "True or False: %s involves concepts that build on one another.",
			answer:      "True",
			explanation: "Most subjects are organized so that later ideas build on earlier ones.",
		},
		{
			text:        "True or False: Practice has no effect on how well you learn %s.",
			answer:      "False",
			explanation: "Practice is one of the most effective ways to learn any subject.",
		},
		{
			text:        "True or False: Mistakes can help you learn %s more effectively.",
			answer:      "True",
			explanation: "Reviewing mistakes shows where understanding is incomplete.",
		},
		{
			text:        "True or False: Everything about %s can be learned in a single day.",
			answer:      "False",
			explanation: "Mastering a subject takes sustained study over time.",
		},
	},
	model.TypeShortAnswer: {
		{
			text:        "Name one key concept you would expect to study in %s.",
			answer:      "concept",
			explanation: "Any core concept of the topic is an acceptable answer.",
		},
		{
			text:        "In one word, what activity best improves your skill in %s?",
			answer:      "practice",
			explanation: "Regular practice improves skill in every subject.",
		},
	},
}

// fallbackQuestion builds the ordinal-th fallback of type qtype.
func fallbackQuestion(topic string, qtype model.QuestionType, ordinal int) *candidate {
	family := fallbacks[qtype]
	if len(family) == 0 {
		family = fallbacks[model.TypeTrueFalse]
		qtype = model.TypeTrueFalse
	}
	t := family[ordinal%len(family)]
	text := fmt.Sprintf(t.text, topic)
	if round := ordinal / len(family); round > 0 {
		text = fmt.Sprintf("%s (review %d)", text, round+1)
	}
	return &candidate{
		Text:          text,
		Type:          qtype,
		Options:       append([]string(nil), t.options...),
		CorrectAnswer: t.answer,
		Explanation:   t.explanation,
	}
}
