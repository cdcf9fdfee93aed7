package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmind/internal/adaptive"
	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/llm"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/model"
)

type fakeHistory struct {
	texts []string
	calls int
	err   error
}

func (h *fakeHistory) History(_ context.Context, _, _ string, _ model.Skill, _ int) ([]string, error) {
	h.calls++
	return h.texts, h.err
}

type fakeAdvisor struct {
	next model.Difficulty
}

func (a fakeAdvisor) Recommend(context.Context, string, model.Skill) (adaptive.Decision, error) {
	return adaptive.Decision{Next: a.next, Reason: adaptive.ReasonPromoted}, nil
}

func mcqText(q string) string {
	return fmt.Sprintf(`Question: %s
Type: Multiple Choice
Options:
A) Hydrogen and oxygen
B) Carbon and oxygen
C) Nitrogen only
D) Helium only
Correct Answer: A
Explanation: Water molecules contain two hydrogen atoms and one oxygen atom.`, q)
}

func tfText(q, answer string) string {
	return fmt.Sprintf("Question: %s\nType: True/False\nCorrect Answer: %s\nExplanation: This is a well established fact.", q, answer)
}

func newGenerator(mock *llm.MockProvider, hist HistorySource, advisor DifficultyAdvisor) *Generator {
	return New(llm.NewCompleter(mock, "system"), hist, advisor, DefaultConfig(), logger.NewNop())
}

func baseRequest(n int) Request {
	return Request{UserID: "u1", Topic: "Science", Skill: model.SkillIntermediate, NumQuestions: n}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantTag string
	}{
		{"valid", func(*Request) {}, ""},
		{"zero questions", func(r *Request) { r.NumQuestions = 0 }, "invalid_num_questions"},
		{"twenty one questions", func(r *Request) { r.NumQuestions = 21 }, "invalid_num_questions"},
		{"twenty questions", func(r *Request) { r.NumQuestions = 20 }, ""},
		{"empty topic", func(r *Request) { r.Topic = "  " }, "invalid_topic"},
		{"one char topic", func(r *Request) { r.Topic = "x" }, "invalid_topic"},
		{"bad skill", func(r *Request) { r.Skill = "Expert" }, "invalid_skill_level"},
		{"short custom text", func(r *Request) { r.CustomTopicText = "too short" }, "invalid_custom_topic_text"},
		{"long custom text", func(r *Request) { r.CustomTopicText = strings.Repeat("x", 10001) }, "invalid_custom_topic_text"},
		{"custom text at limit", func(r *Request) { r.CustomTopicText = strings.Repeat("x", 10000) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseRequest(5)
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var ae *apperr.Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, apperr.KindValidation, ae.Kind)
			assert.Equal(t, tt.wantTag, ae.Tag)
		})
	}
}

func TestGenerate_RejectsBeforeCallingCompleter(t *testing.T) {
	mock := llm.NewMockProvider()
	hist := &fakeHistory{}
	gen := newGenerator(mock, hist, nil)

	_, err := gen.Generate(context.Background(), baseRequest(21))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 0, mock.CallCount())
	assert.Equal(t, 0, hist.calls)
}

func TestGenerate_FollowsTypeSchedule(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse(mcqText("Which elements make up a water molecule?")),
		llm.TextResponse(tfText("Sound travels faster in water than in air.", "True")),
		llm.TextResponse(mcqText("What two elements does the compound H2O contain?")),
	)
	gen := newGenerator(mock, &fakeHistory{}, nil)

	res, err := gen.Generate(context.Background(), baseRequest(3))
	require.NoError(t, err)
	require.Len(t, res.Questions, 3)
	assert.False(t, res.Degraded)

	types := []model.QuestionType{model.TypeMultipleChoice, model.TypeTrueFalse, model.TypeMultipleChoice}
	for i, q := range res.Questions {
		assert.Equal(t, i, q.Position)
		assert.Equal(t, types[i], q.Type)
		assert.False(t, q.Fallback)
		require.NotNil(t, q.Classification)
		assert.True(t, q.Difficulty.Valid())
		assert.Equal(t, q.Classification.Label, q.Difficulty)
	}
	assert.Equal(t, []string{
		"A. Hydrogen and oxygen", "B. Carbon and oxygen", "C. Nitrogen only", "D. Helium only",
	}, res.Questions[0].Options)
	assert.Equal(t, "A", res.Questions[0].CorrectAnswer)
	assert.Equal(t, "True", res.Questions[1].CorrectAnswer)
	assert.Nil(t, res.Questions[1].Options)
}

func TestGenerate_PromptAndSampling(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(mcqText("Which elements make up a water molecule?")))
	hist := &fakeHistory{}
	for i := 0; i < 12; i++ {
		hist.texts = append(hist.texts, fmt.Sprintf("Prior science question number %d about planets?", i))
	}
	gen := newGenerator(mock, hist, nil)

	_, err := gen.Generate(context.Background(), baseRequest(1))
	require.NoError(t, err)
	require.Equal(t, 1, mock.CallCount())

	req := mock.Calls[0]
	assert.Equal(t, 0.9, req.Temperature)
	assert.Equal(t, 60, req.TopK)
	assert.Equal(t, 0.95, req.TopP)

	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "Topic: Science")
	assert.Contains(t, prompt, "Skill level: Intermediate")
	assert.Contains(t, prompt, "Question type: Multiple Choice")
	assert.Contains(t, prompt, catalog["Science"][model.SkillIntermediate])
	assert.Contains(t, prompt, "number 0 about")
	assert.Contains(t, prompt, "number 9 about")
	assert.NotContains(t, prompt, "number 10 about", "only the ten newest prior questions are listed")
}

func TestGenerate_RetriesDuplicate(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse(mcqText("What is the capital of France")),
		llm.TextResponse(mcqText("Which city serves as the capital of France?")),
	)
	hist := &fakeHistory{texts: []string{"What is the capital of France?"}}
	gen := newGenerator(mock, hist, nil)

	res, err := gen.Generate(context.Background(), Request{UserID: "u1", Topic: "Geography", Skill: model.SkillBeginner, NumQuestions: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "Which city serves as the capital of France?", res.Questions[0].Text)
}

func TestGenerate_DedupWithinBatch(t *testing.T) {
	same := mcqText("Which elements make up a water molecule?")
	mock := llm.NewMockProvider(
		llm.TextResponse(same),
		llm.TextResponse(tfText("Which elements make up a water molecule? True or false.", "True")),
		llm.TextResponse(tfText("Ice is less dense than liquid water.", "True")),
	)
	gen := newGenerator(mock, &fakeHistory{}, nil)

	res, err := gen.Generate(context.Background(), baseRequest(2))
	require.NoError(t, err)
	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, "Ice is less dense than liquid water.", res.Questions[1].Text)
}

func TestGenerate_RejectsShortAndErrorResponses(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse("Question: Too short"),
		llm.TextResponse("Error: the model is overloaded, please try again later"),
		llm.TextResponse(mcqText("Which elements make up a water molecule?")),
	)
	gen := newGenerator(mock, &fakeHistory{}, nil)

	res, err := gen.Generate(context.Background(), baseRequest(1))
	require.NoError(t, err)
	assert.Equal(t, 3, mock.CallCount())
	assert.False(t, res.Questions[0].Fallback)
}

func TestGenerate_FallbackAfterThreeBadAttempts(t *testing.T) {
	bad := llm.TextResponse("This completion contains no labelled fields at all, only prose.")
	mock := llm.NewMockProvider(bad, bad, bad,
		llm.TextResponse(tfText("Sound travels faster in water than in air.", "True")),
	)
	gen := newGenerator(mock, &fakeHistory{}, nil)

	res, err := gen.Generate(context.Background(), baseRequest(2))
	require.NoError(t, err)
	assert.Equal(t, 4, mock.CallCount())
	assert.True(t, res.Degraded)
	assert.True(t, res.Questions[0].Fallback)
	assert.NotNil(t, res.Questions[0].Classification)
	assert.Len(t, res.Questions[0].Options, 4)
	assert.False(t, res.Questions[1].Fallback)
}

func TestGenerate_OutageServesDistinctFallbacks(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	gen := newGenerator(mock, &fakeHistory{}, nil)

	res, err := gen.Generate(context.Background(), baseRequest(5))
	require.NoError(t, err)
	assert.Equal(t, 1, mock.CallCount(), "an outage stops further completer calls")
	assert.True(t, res.Degraded)

	seen := make(map[string]bool)
	for _, q := range res.Questions {
		assert.True(t, q.Fallback)
		assert.False(t, seen[q.Text], "duplicate fallback %q", q.Text)
		seen[q.Text] = true
		assert.Contains(t, q.Text, "Science")
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	mock := llm.NewMockProvider()
	gen := newGenerator(mock, &fakeHistory{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gen.Generate(ctx, baseRequest(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_HistoryFailure(t *testing.T) {
	gen := newGenerator(llm.NewMockProvider(), &fakeHistory{err: errors.New("disk gone")}, nil)
	_, err := gen.Generate(context.Background(), baseRequest(1))
	assert.True(t, apperr.Is(err, apperr.KindStorage))
}

func TestGenerate_AdaptiveTarget(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(mcqText("Which elements make up a water molecule?")))
	gen := newGenerator(mock, &fakeHistory{}, fakeAdvisor{next: model.DifficultyHard})

	req := baseRequest(1)
	req.Adaptive = true
	res, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, model.DifficultyHard, res.Target)
	assert.Equal(t, model.DifficultyHard, res.Questions[0].Difficulty)
	assert.Equal(t, 2.0, res.Questions[0].Weight())
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "Skill level: Advanced")
}

func TestGenerate_CustomTopicTruncated(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(mcqText("Which elements make up a water molecule?")))
	gen := newGenerator(mock, &fakeHistory{}, nil)

	req := Request{
		UserID:          "u1",
		Topic:           "My lecture notes",
		Skill:           model.SkillBeginner,
		NumQuestions:    1,
		CustomTopicText: strings.Repeat("abcdefghij", 900),
	}
	res, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Truncated)

	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, truncationMarker)
	assert.NotContains(t, prompt, strings.Repeat("abcdefghij", 801))
}

func TestGenerate_JSONMode(t *testing.T) {
	raw, err := json.Marshal(jsonQuestion{
		QuestionText:  "Which planet is known as the red planet?",
		Type:          "multiple_choice",
		Options:       []string{"Venus", "Mars", "Jupiter", "Saturn"},
		CorrectAnswer: "B",
		Explanation:   "Iron oxide on its surface makes Mars look red.",
	})
	require.NoError(t, err)
	mock := llm.NewMockProvider(llm.MockResponse{Content: raw})

	cfg := DefaultConfig()
	cfg.ResponseMode = ModeJSON
	gen := New(llm.NewCompleter(mock, "system"), &fakeHistory{}, nil, cfg, logger.NewNop())

	res, err := gen.Generate(context.Background(), baseRequest(1))
	require.NoError(t, err)
	assert.Equal(t, QuestionSchema, mock.Calls[0].Schema)
	assert.Equal(t, "B", res.Questions[0].CorrectAnswer)
	assert.Equal(t, "B. Mars", res.Questions[0].Options[1])
}
