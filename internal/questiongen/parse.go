package questiongen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/quizmind/internal/model"
)

// ParseError reports a completion that could not be turned into a
// question. The generator retries on it and never surfaces it.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "parse completion: " + e.Reason
	}
	return fmt.Sprintf("parse completion: %s: %s", e.Field, e.Reason)
}

const defaultExplanation = "No explanation was provided for this question."

var optionLetters = []string{"A", "B", "C", "D"}

var (
	fieldPattern  = regexp.MustCompile(`(?i)^\s*(?:\d+[.)]\s*)?\**\s*(question|type|options|correct answer|answer|explanation)\s*\**\s*:\s*\**\s*(.*)$`)
	optionPattern = regexp.MustCompile(`^\s*[-*]?\s*[\(\[]?([A-Da-d])\s*[.):\]]\s*(.*)$`)
	letterPattern = regexp.MustCompile(`(?i)^\s*(?:option\s+)?[\(\[]?([A-D])(?:[\s.):\]]|$)`)
)

// parseText reads labelled fields from a plain-text completion. Missing
// optional fields get defaults; want decides the question type.
func parseText(raw string, want model.QuestionType) (*candidate, error) {
	fields := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if m := fieldPattern.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(m[1])
			if current == "answer" {
				current = "correct answer"
			}
			if v := strings.TrimSpace(m[2]); v != "" {
				fields[current] = append(fields[current], v)
			} else if _, ok := fields[current]; !ok {
				fields[current] = nil
			}
			continue
		}
		if current != "" && strings.TrimSpace(line) != "" {
			fields[current] = append(fields[current], strings.TrimSpace(line))
		}
	}

	c := &candidate{
		Text:          strings.Join(fields["question"], " "),
		CorrectAnswer: strings.Join(fields["correct answer"], " "),
		Explanation:   strings.Join(fields["explanation"], " "),
	}
	if want == model.TypeMultipleChoice {
		c.Options = splitOptions(fields["options"])
	}
	if err := finalize(c, want); err != nil {
		return nil, err
	}
	return c, nil
}

type jsonQuestion struct {
	QuestionText  string   `json:"question_text"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// parseJSON reads a completion produced against QuestionSchema.
func parseJSON(raw []byte, want model.QuestionType) (*candidate, error) {
	var q jsonQuestion
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	c := &candidate{
		Text:          q.QuestionText,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
	if err := finalize(c, want); err != nil {
		return nil, err
	}
	return c, nil
}

// finalize normalizes a candidate in place for the wanted type.
func finalize(c *candidate, want model.QuestionType) error {
	c.Type = want
	c.Text = strings.TrimSpace(strings.Trim(c.Text, "*"))
	if c.Text == "" {
		return &ParseError{Field: "question", Reason: "missing"}
	}
	c.Explanation = strings.TrimSpace(c.Explanation)
	if c.Explanation == "" {
		c.Explanation = defaultExplanation
	}
	answer := strings.TrimSpace(strings.Trim(c.CorrectAnswer, "*"))

	switch want {
	case model.TypeMultipleChoice:
		c.Options = normalizeOptions(c.Options)
		c.CorrectAnswer = "A"
		if m := letterPattern.FindStringSubmatch(answer); m != nil {
			c.CorrectAnswer = strings.ToUpper(m[1])
		}
	case model.TypeTrueFalse:
		c.Options = nil
		switch strings.ToLower(strings.TrimRight(answer, ".")) {
		case "true", "t", "yes":
			c.CorrectAnswer = "True"
		case "false", "f", "no":
			c.CorrectAnswer = "False"
		default:
			return &ParseError{Field: "correct answer", Reason: fmt.Sprintf("%q is not True or False", answer)}
		}
	default:
		c.Options = nil
		if answer == "" {
			return &ParseError{Field: "correct answer", Reason: "missing"}
		}
		c.CorrectAnswer = answer
	}
	return nil
}

// splitOptions splits option lines, including several options written on
// one line as "A) x B) y".
func splitOptions(lines []string) []string {
	var out []string
	for _, line := range lines {
		out = append(out, splitInline(line)...)
	}
	return out
}

var inlineOption = regexp.MustCompile(`\s[\(\[]?([B-D])[.):\]]\s`)

func splitInline(line string) []string {
	idx := inlineOption.FindAllStringIndex(line, -1)
	if len(idx) == 0 {
		return []string{line}
	}
	var out []string
	start := 0
	for _, loc := range idx {
		out = append(out, strings.TrimSpace(line[start:loc[0]]))
		start = loc[0] + 1
	}
	return append(out, strings.TrimSpace(line[start:]))
}

// normalizeOptions prefixes options with "A." to "D." and pads or trims
// the list to four.
func normalizeOptions(opts []string) []string {
	out := make([]string, 0, len(optionLetters))
	for _, o := range opts {
		if len(out) == len(optionLetters) {
			break
		}
		text := strings.TrimSpace(o)
		if m := optionPattern.FindStringSubmatch(text); m != nil {
			text = strings.TrimSpace(m[2])
		}
		if text == "" {
			continue
		}
		out = append(out, fmt.Sprintf("%s. %s", optionLetters[len(out)], text))
	}
	for len(out) < len(optionLetters) {
		out = append(out, fmt.Sprintf("%s. None of the above", optionLetters[len(out)]))
	}
	return out
}
