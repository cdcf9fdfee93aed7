package evaluate

import (
	"strings"

	"github.com/abhisek/quizmind/internal/model"
)

// AnswerType is a coarse category of the expected answer. It is reported
// alongside a grade and never changes correctness.
type AnswerType string

const (
	AnswerNumerical    AnswerType = "numerical"
	AnswerYesNo        AnswerType = "yes_no"
	AnswerMathematical AnswerType = "mathematical"
	AnswerScientific   AnswerType = "scientific"
	AnswerGeographical AnswerType = "geographical"
	AnswerHistorical   AnswerType = "historical"
	AnswerGeneral      AnswerType = "general"
)

var typeCues = []struct {
	typ   AnswerType
	words []string
}{
	{AnswerMathematical, []string{"equation", "solve", "calculate", "sum", "product", "fraction", "angle", "triangle", "integral", "derivative", "percent", "+", "=", "*"}},
	{AnswerScientific, []string{"atom", "cell", "energy", "molecule", "element", "force", "gravity", "chemical", "species", "organism", "photosynthesis", "electron"}},
	{AnswerGeographical, []string{"capital", "country", "river", "mountain", "continent", "ocean", "city", "border", "population", "desert"}},
	{AnswerHistorical, []string{"war", "century", "empire", "revolution", "king", "queen", "treaty", "dynasty", "president", "ancient", "battle"}},
}

// DetectAnswerType classifies the expected answer from the reference and
// the question text.
func DetectAnswerType(questionText, reference string) AnswerType {
	if _, ok := parseNumber(reference); ok {
		return AnswerNumerical
	}
	if _, ok := parseBool(reference); ok {
		return AnswerYesNo
	}
	text := strings.ToLower(questionText + " " + reference)
	for _, c := range typeCues {
		for _, w := range c.words {
			if strings.Contains(text, w) {
				return c.typ
			}
		}
	}
	return AnswerGeneral
}

// Feedback is advisory text shown after grading.
type Feedback struct {
	ResultMessage string `json:"result_message"`
	Explanation   string `json:"explanation"`
	Hint          string `json:"hint,omitempty"`
	LearningTip   string `json:"learning_tip"`
}

type band string

const (
	bandHigh   band = "high"
	bandMedium band = "medium"
	bandLow    band = "low"
)

func confidenceBand(c float64) band {
	switch {
	case c >= 0.9:
		return bandHigh
	case c >= 0.6:
		return bandMedium
	default:
		return bandLow
	}
}

type resultKey struct {
	correct bool
	band    band
}

var resultMessages = map[resultKey]string{
	{true, bandHigh}:    "Correct!",
	{true, bandMedium}:  "Correct, your answer covers the key points.",
	{true, bandLow}:     "Accepted, though your answer only partly matches the expected one.",
	{false, bandHigh}:   "Not quite.",
	{false, bandMedium}: "Close, but not quite right.",
	{false, bandLow}:    "Not quite.",
}

var hints = map[AnswerType]string{
	AnswerNumerical:    "Check your arithmetic and units.",
	AnswerYesNo:        "Re-read the statement carefully and look for qualifiers like always or never.",
	AnswerMathematical: "Work through the problem one step at a time.",
	AnswerScientific:   "Think about the underlying principle involved.",
	AnswerGeographical: "Picture the region on a map.",
	AnswerHistorical:   "Place the event on a timeline first.",
	AnswerGeneral:      "Focus on the key terms in the question.",
}

var tips = map[AnswerType]string{
	AnswerNumerical:    "Estimate the answer before calculating to catch mistakes.",
	AnswerYesNo:        "Try to explain why the statement is true or false.",
	AnswerMathematical: "Practice similar problems to build fluency.",
	AnswerScientific:   "Connect facts to the principles that explain them.",
	AnswerGeographical: "Group places by region to remember them.",
	AnswerHistorical:   "Link events by cause and effect.",
	AnswerGeneral:      "Summarize the idea in your own words.",
}

func buildFeedback(q *model.Question, r Result) Feedback {
	f := Feedback{
		ResultMessage: resultMessages[resultKey{r.IsCorrect, confidenceBand(r.Confidence)}],
		Explanation:   q.Explanation,
		LearningTip:   tips[r.AnswerType],
	}
	if f.Explanation == "" {
		f.Explanation = "The expected answer was: " + q.CorrectAnswer
	}
	if !r.IsCorrect {
		f.Hint = hints[r.AnswerType]
	}
	if r.Method == MethodEmpty {
		f.ResultMessage = "No answer given."
	}
	return f
}
