// Package evaluate grades submitted answers against a question's reference
// answer.
package evaluate

import (
	"math"
	"regexp"
	"strings"

	"github.com/abhisek/quizmind/internal/model"
)

// Method names the strategy that decided a grade.
type Method string

const (
	MethodEmpty          Method = "empty"
	MethodLetterMatch    Method = "letter_match"
	MethodOptionText     Method = "option_text"
	MethodBoolean        Method = "boolean_match"
	MethodExact          Method = "exact"
	MethodContainment    Method = "containment"
	MethodNumerical      Method = "numerical"
	MethodKeywordOverlap Method = "keyword_overlap"
	MethodNoMatch        Method = "no_match"
)

// Thresholds for short-answer strategies.
const (
	ContainmentMinOverlap = 0.6
	KeywordMinOverlap     = 0.5
	NumericRelTolerance   = 0.01
	NumericAbsTolerance   = 0.01
)

// Result is the outcome of grading one answer.
type Result struct {
	IsCorrect  bool       `json:"is_correct"`
	Confidence float64    `json:"confidence"`
	Method     Method     `json:"method"`
	AnswerType AnswerType `json:"answer_type"`
	Feedback   Feedback   `json:"feedback"`
}

// Config tunes grading.
type Config struct {
	// NegationAware rejects containment and keyword matches when the answer
	// negates a reference that is not itself negated.
	NegationAware bool
}

// Evaluator grades answers. It is stateless and safe for concurrent use.
type Evaluator struct {
	cfg Config
}

// New creates an Evaluator.
func New(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate grades answer against q. The same inputs always grade the same way.
func (e *Evaluator) Evaluate(q *model.Question, answer string) Result {
	var r Result
	switch {
	case strings.TrimSpace(answer) == "":
		r = Result{Method: MethodEmpty}
	case q.Type == model.TypeMultipleChoice:
		r = gradeMultipleChoice(q, answer)
	case q.Type == model.TypeTrueFalse:
		r = gradeTrueFalse(q.CorrectAnswer, answer)
	default:
		r = e.gradeShortAnswer(q.CorrectAnswer, answer)
	}
	r.AnswerType = DetectAnswerType(q.Text, q.CorrectAnswer)
	r.Feedback = buildFeedback(q, r)
	return r
}

var letterPattern = regexp.MustCompile(`^\s*[\(\[]?([A-Da-d])(?:[\s.):\]]|$)`)

// leadingLetter extracts a leading A-D option letter.
func leadingLetter(s string) (string, bool) {
	m := letterPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// optionLetter resolves s to a letter via its leading token or by matching
// the text of one of the options.
func optionLetter(s string, options []string) (string, bool) {
	if l, ok := leadingLetter(s); ok {
		return l, true
	}
	want := normalize(s)
	if want == "" {
		return "", false
	}
	for i, opt := range options {
		if i >= 4 {
			break
		}
		if normalize(StripOptionPrefix(opt)) == want {
			return string(rune('A' + i)), true
		}
	}
	return "", false
}

func gradeMultipleChoice(q *model.Question, answer string) Result {
	ref, ok := optionLetter(q.CorrectAnswer, q.Options)
	if !ok {
		return Result{Method: MethodNoMatch}
	}
	method := MethodLetterMatch
	got, ok := leadingLetter(answer)
	if !ok {
		method = MethodOptionText
		got, ok = optionLetter(answer, q.Options)
	}
	if ok && got == ref {
		return Result{IsCorrect: true, Confidence: 1, Method: method}
	}
	return Result{Method: method}
}

var (
	trueWords  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true, "correct": true}
	falseWords = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true, "incorrect": true}
)

// parseBool maps an answer onto a boolean via the accepted variants.
func parseBool(s string) (bool, bool) {
	v := strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".!")
	switch {
	case trueWords[v]:
		return true, true
	case falseWords[v]:
		return false, true
	}
	return false, false
}

func gradeTrueFalse(reference, answer string) Result {
	ref, ok := parseBool(reference)
	if !ok {
		return Result{Method: MethodNoMatch}
	}
	got, ok := parseBool(answer)
	if ok && got == ref {
		return Result{IsCorrect: true, Confidence: 1, Method: MethodBoolean}
	}
	return Result{Method: MethodBoolean}
}

// gradeShortAnswer runs every strategy and keeps the strongest positive.
func (e *Evaluator) gradeShortAnswer(reference, answer string) Result {
	userToks, refToks := tokens(answer), tokens(reference)
	user, ref := strings.Join(userToks, " "), strings.Join(refToks, " ")
	overlap := keywordOverlap(userToks, refToks)
	negated := e.cfg.NegationAware && hasNegation(userToks) && !hasNegation(refToks)

	var candidates []Result

	if user != "" && user == ref {
		candidates = append(candidates, Result{IsCorrect: true, Confidence: 1, Method: MethodExact})
	}

	if !negated && user != "" && ref != "" &&
		(strings.Contains(user, ref) || strings.Contains(ref, user)) &&
		overlap >= ContainmentMinOverlap {
		candidates = append(candidates, Result{IsCorrect: true, Confidence: math.Max(0.8, overlap), Method: MethodContainment})
	}

	numeric := false
	if c, ok := parseNumber(reference); ok {
		numeric = true
		if u, ok := firstNumber(answer); ok {
			tol := math.Max(NumericRelTolerance*math.Abs(c), NumericAbsTolerance)
			if math.Abs(u-c) <= tol {
				conf := 1.0
				if u != c {
					conf = 0.9
				}
				candidates = append(candidates, Result{IsCorrect: true, Confidence: conf, Method: MethodNumerical})
			}
		}
	}

	if !negated && overlap >= KeywordMinOverlap {
		candidates = append(candidates, Result{IsCorrect: true, Confidence: overlap, Method: MethodKeywordOverlap})
	}

	if len(candidates) == 0 {
		if numeric {
			return Result{Method: MethodNumerical}
		}
		return Result{Confidence: overlap, Method: MethodNoMatch}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

var optionPrefix = regexp.MustCompile(`^\s*[\(\[]?[A-Da-d][.):\]]\s*`)

// StripOptionPrefix removes a leading "A." / "B)" style label.
func StripOptionPrefix(s string) string {
	return strings.TrimSpace(optionPrefix.ReplaceAllString(s, ""))
}
