package evaluate

import (
	"testing"

	"github.com/abhisek/quizmind/internal/model"
)

func mcq(correct string) *model.Question {
	return &model.Question{
		Text:          "Which compound covers most of Earth's surface?",
		Type:          model.TypeMultipleChoice,
		Options:       []string{"A. Sand", "B. Water", "C. Ice", "D. Rock"},
		CorrectAnswer: correct,
	}
}

func TestEvaluate_MultipleChoice(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		name    string
		correct string
		answer  string
		want    bool
	}{
		{"letter with text", "B", "B) Water", true},
		{"wrong letter lowercase", "B", "c) water", false},
		{"bare letter", "B", "b", true},
		{"option text only", "B", "water", true},
		{"reference as text", "Water", "B", true},
		{"unknown", "B", "lava", false},
		{"empty", "B", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(mcq(tt.correct), tt.answer)
			if got.IsCorrect != tt.want {
				t.Errorf("got %v (%s), want %v", got.IsCorrect, got.Method, tt.want)
			}
			wantConf := 0.0
			if tt.want {
				wantConf = 1.0
			}
			if got.Confidence != wantConf {
				t.Errorf("got confidence %f, want %f", got.Confidence, wantConf)
			}
		})
	}
}

func TestEvaluate_TrueFalse(t *testing.T) {
	e := New(Config{})
	q := &model.Question{Text: "The sun is a star.", Type: model.TypeTrueFalse, CorrectAnswer: "True"}
	tests := []struct {
		answer string
		want   bool
	}{
		{"true", true},
		{"Yes", true},
		{"y", true},
		{"1", true},
		{"correct", true},
		{"False", false},
		{"incorrect", false},
		{"maybe", false},
	}
	for _, tt := range tests {
		if got := e.Evaluate(q, tt.answer); got.IsCorrect != tt.want {
			t.Errorf("answer %q: got %v, want %v", tt.answer, got.IsCorrect, tt.want)
		}
	}
}

func TestEvaluate_ShortAnswerNumerical(t *testing.T) {
	e := New(Config{})
	q := &model.Question{Text: "What is six times seven?", Type: model.TypeShortAnswer, CorrectAnswer: "42"}

	got := e.Evaluate(q, "about 42.3")
	if !got.IsCorrect {
		t.Errorf("about 42.3: got incorrect (%s)", got.Method)
	}
	if got.Method != MethodNumerical {
		t.Errorf("about 42.3: got method %q, want numerical", got.Method)
	}
	if got.AnswerType != AnswerNumerical {
		t.Errorf("got answer type %q, want numerical", got.AnswerType)
	}

	if got := e.Evaluate(q, "41"); got.IsCorrect {
		t.Errorf("41: got correct (%s), want incorrect", got.Method)
	}
	if got := e.Evaluate(q, "42"); !got.IsCorrect || got.Confidence != 1 {
		t.Errorf("42: got %+v", got)
	}
}

func TestEvaluate_ShortAnswerStrategies(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		name       string
		reference  string
		answer     string
		want       bool
		wantMethod Method
	}{
		{"exact after normalization", "The Great Wall", "great wall!", true, MethodExact},
		{"containment", "photosynthesis", "it is photosynthesis", true, MethodContainment},
		{"keyword overlap", "mitochondria produce energy", "energy from mitochondria", true, MethodKeywordOverlap},
		{"unrelated", "mitochondria produce energy", "the nucleus", false, MethodNoMatch},
		{"small numeric tolerance", "0", "0.005", true, MethodNumerical},
		{"decimal kept", "3.14", "3.14", true, MethodExact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &model.Question{Type: model.TypeShortAnswer, CorrectAnswer: tt.reference}
			got := e.Evaluate(q, tt.answer)
			if got.IsCorrect != tt.want {
				t.Errorf("got %v, want %v (%+v)", got.IsCorrect, tt.want, got)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("got method %q, want %q", got.Method, tt.wantMethod)
			}
		})
	}
}

func TestEvaluate_NegationCompatibility(t *testing.T) {
	q := &model.Question{Text: "What is the capital of France?", Type: model.TypeShortAnswer, CorrectAnswer: "Paris"}

	if got := New(Config{}).Evaluate(q, "Paris is not the capital"); !got.IsCorrect {
		t.Errorf("default grading: got incorrect, want containment match")
	}
	if got := New(Config{NegationAware: true}).Evaluate(q, "Paris is not the capital"); got.IsCorrect {
		t.Errorf("negation-aware grading: got correct via %s, want incorrect", got.Method)
	}
	if got := New(Config{NegationAware: true}).Evaluate(q, "Paris"); !got.IsCorrect {
		t.Errorf("negation-aware grading rejected plain answer")
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := New(Config{})
	q := &model.Question{Type: model.TypeShortAnswer, CorrectAnswer: "water cycle"}
	a, b := e.Evaluate(q, "the water cycle"), e.Evaluate(q, "the water cycle")
	if a != b {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
}

func TestEvaluate_Feedback(t *testing.T) {
	e := New(Config{})
	q := &model.Question{Text: "What is the capital of Japan?", Type: model.TypeShortAnswer, CorrectAnswer: "Tokyo", Explanation: "Tokyo has been the capital since 1868."}

	got := e.Evaluate(q, "Kyoto")
	if got.Feedback.Hint == "" {
		t.Error("expected a hint for a wrong answer")
	}
	if got.AnswerType != AnswerGeographical {
		t.Errorf("got answer type %q, want geographical", got.AnswerType)
	}
	if got.Feedback.Explanation != q.Explanation {
		t.Errorf("got explanation %q", got.Feedback.Explanation)
	}

	got = e.Evaluate(q, "Tokyo")
	if got.Feedback.Hint != "" {
		t.Errorf("unexpected hint on correct answer: %q", got.Feedback.Hint)
	}
	if got.Feedback.ResultMessage != "Correct!" {
		t.Errorf("got message %q", got.Feedback.ResultMessage)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  The   Quick, brown fox! ", "quick brown fox"},
		{"It's 3.5 km.", "its 3.5 km"},
		{"-4 degrees", "-4 degrees"},
		{"well-known", "well known"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripOptionPrefix(t *testing.T) {
	tests := map[string]string{
		"A. Water": "Water",
		"b) Sand":  "Sand",
		"(C) Ice":  "Ice",
		"Rock":     "Rock",
	}
	for in, want := range tests {
		if got := StripOptionPrefix(in); got != want {
			t.Errorf("StripOptionPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
