package difficulty

import (
	"math"
	"testing"

	"github.com/abhisek/quizmind/internal/model"
)

func TestClassify_RecallQuestionIsEasy(t *testing.T) {
	got := Classify("List the capitals of European countries.", "Geography", model.SkillBeginner)
	if got.Label != model.DifficultyEasy {
		t.Errorf("got label %q, want easy", got.Label)
	}
	if got.Confidence < 0.4 {
		t.Errorf("got confidence %f, want >= 0.4", got.Confidence)
	}
}

func TestClassify_EvaluativeQuestionIsHard(t *testing.T) {
	got := Classify("Critically evaluate the methodological assumptions of structuralism.", "Literature", model.SkillAdvanced)
	if got.Label != model.DifficultyHard {
		t.Errorf("got label %q, want hard", got.Label)
	}
	if got.BloomScores["hard"] != 1 {
		t.Errorf("got bloom hard share %f, want 1", got.BloomScores["hard"])
	}
}

func TestClassify_MathLexiconOnlyForMathematics(t *testing.T) {
	text := "Find the derivative of the integral."
	mathScores := semanticScores(text, "Mathematics")
	other := semanticScores(text, "History")
	if mathScores[model.DifficultyHard] != 2*weightMath {
		t.Errorf("got math hard score %f, want %f", mathScores[model.DifficultyHard], 2*weightMath)
	}
	if other[model.DifficultyHard] != 0 {
		t.Errorf("got non-math hard score %f, want 0", other[model.DifficultyHard])
	}
}

func TestClassify_StructuralPhraseWeight(t *testing.T) {
	got := semanticScores("Compare and discuss both treaties.", "History")
	if got[model.DifficultyHard] != weightStructural {
		t.Errorf("got %f, want %f", got[model.DifficultyHard], weightStructural)
	}
}

func TestClassify_EmptyTextFallsBackToSkill(t *testing.T) {
	tests := []struct {
		skill model.Skill
		want  model.Difficulty
	}{
		{model.SkillBeginner, model.DifficultyEasy},
		{model.SkillIntermediate, model.DifficultyMedium},
		{model.SkillAdvanced, model.DifficultyHard},
	}
	for _, tt := range tests {
		got := Classify("", "Science", tt.skill)
		if got.Label != tt.want {
			t.Errorf("skill %s: got %q, want %q", tt.skill, got.Label, tt.want)
		}
		if got.Confidence != FallbackConfidence {
			t.Errorf("skill %s: got confidence %f, want %f", tt.skill, got.Confidence, FallbackConfidence)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "Analyze the causes of the French Revolution and evaluate their impact."
	a := Classify(text, "History", model.SkillIntermediate)
	b := Classify(text, "History", model.SkillIntermediate)
	if a.Label != b.Label || a.Confidence != b.Confidence {
		t.Errorf("non-deterministic: %v vs %v", a, b)
	}
}

func TestClassify_ConfidenceInRange(t *testing.T) {
	inputs := []string{
		"What is 2 + 2?",
		"Design and justify a proof of the theorem, then evaluate the limit.",
		"Explain why the sky is blue.",
		"x",
	}
	for _, in := range inputs {
		got := Classify(in, "Mathematics", model.SkillIntermediate)
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Errorf("%q: confidence %f out of range", in, got.Confidence)
		}
		if !got.Label.Valid() {
			t.Errorf("%q: invalid label %q", in, got.Label)
		}
	}
}

func TestArgmax_TieBreak(t *testing.T) {
	tests := []struct {
		name   string
		scores map[model.Difficulty]float64
		want   model.Difficulty
	}{
		{"all equal", map[model.Difficulty]float64{"easy": 0.3, "medium": 0.3, "hard": 0.3}, model.DifficultyMedium},
		{"easy beats hard", map[model.Difficulty]float64{"easy": 0.4, "hard": 0.4}, model.DifficultyEasy},
		{"empty", map[model.Difficulty]float64{}, model.DifficultyMedium},
		{"clear winner", map[model.Difficulty]float64{"hard": 0.5, "medium": 0.2}, model.DifficultyHard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := argmax(tt.scores); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"the", 1},
		{"cat", 1},
		{"capitals", 3},
		{"evaluate", 3},
		{"make", 1},
		{"rhythm", 1},
		{"countries", 2},
	}
	for _, tt := range tests {
		if got := syllables(tt.word); got != tt.want {
			t.Errorf("syllables(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestMeasure(t *testing.T) {
	m := measure("The cat sat. The dog ran.")
	if m.AvgSentLen != 3 {
		t.Errorf("AvgSentLen = %f, want 3", m.AvgSentLen)
	}
	if math.Abs(m.LexicalDiversity-5.0/6.0) > 1e-9 {
		t.Errorf("LexicalDiversity = %f, want %f", m.LexicalDiversity, 5.0/6.0)
	}
	if m.AvgWordLen != 3 {
		t.Errorf("AvgWordLen = %f, want 3", m.AvgWordLen)
	}
	if fleschBand(m.Flesch) != model.DifficultyEasy {
		t.Errorf("Flesch %f should be easy", m.Flesch)
	}
}

func TestBands(t *testing.T) {
	if fleschBand(70) != model.DifficultyMedium || fleschBand(70.1) != model.DifficultyEasy || fleschBand(49.9) != model.DifficultyHard {
		t.Error("flesch band boundaries wrong")
	}
	if wordLengthBand(4) != model.DifficultyEasy || wordLengthBand(6) != model.DifficultyMedium || wordLengthBand(6.01) != model.DifficultyHard {
		t.Error("word length band boundaries wrong")
	}
}

func TestInflectionOf(t *testing.T) {
	tests := []struct {
		w, base string
		want    bool
	}{
		{"evaluates", "evaluate", true},
		{"evaluating", "evaluate", true},
		{"classifies", "classify", true},
		{"listed", "list", true},
		{"listen", "list", false},
		{"named", "name", true},
	}
	for _, tt := range tests {
		if got := inflectionOf(tt.w, tt.base); got != tt.want {
			t.Errorf("inflectionOf(%q, %q) = %v, want %v", tt.w, tt.base, got, tt.want)
		}
	}
}
