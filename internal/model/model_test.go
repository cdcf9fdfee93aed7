package model

import "testing"

func TestDifficultyWeight(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want float64
	}{
		{DifficultyEasy, 1.0},
		{DifficultyMedium, 1.5},
		{DifficultyHard, 2.0},
	}
	for _, tt := range tests {
		if got := tt.d.Weight(); got != tt.want {
			t.Errorf("%s.Weight() = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestSkillDifficultyRoundTrip(t *testing.T) {
	for _, s := range []Skill{SkillBeginner, SkillIntermediate, SkillAdvanced} {
		if got := s.Difficulty().Skill(); got != s {
			t.Errorf("%s -> %s -> %s", s, s.Difficulty(), got)
		}
	}
}

func TestParseSkill(t *testing.T) {
	tests := []struct {
		in      string
		want    Skill
		wantErr bool
	}{
		{"Beginner", SkillBeginner, false},
		{"advanced", SkillAdvanced, false},
		{"INTERMEDIATE", SkillIntermediate, false},
		{"expert", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSkill(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSkill(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSkill(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecomputeScore(t *testing.T) {
	s := QuizSession{TotalQuestions: 3, CorrectAnswers: 2}
	s.RecomputeScore()
	if diff := s.ScorePercentage - 200.0/3; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("score = %v, want %v", s.ScorePercentage, 200.0/3)
	}

	empty := QuizSession{}
	empty.RecomputeScore()
	if empty.ScorePercentage != 0 {
		t.Errorf("empty score = %v, want 0", empty.ScorePercentage)
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusActive.Terminal() {
		t.Error("active should not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusAbandoned.Terminal() {
		t.Error("completed and abandoned should be terminal")
	}
}
