package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMockProvider_ServesQueueInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: []byte(photosynthesisQuestion), Usage: Usage{InputTokens: 120, OutputTokens: 64, TotalTokens: 184}},
		TextResponse("Question: The Moon orbits the Earth.\nType: True/False\nCorrect Answer: True"),
	)
	req := quizRequest(quizSampling)

	first, err := mock.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Text() != photosynthesisQuestion || first.Usage.TotalTokens != 184 || first.StopReason != "end" {
		t.Errorf("got first response %+v", first)
	}
	second, err := mock.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Text() == first.Text() {
		t.Error("queue did not advance")
	}

	if mock.CallCount() != 2 {
		t.Fatalf("got %d calls, want 2", mock.CallCount())
	}
	if mock.Calls[0].System != quizSystem || mock.Calls[0].TopK != 60 {
		t.Errorf("recorded request %+v", mock.Calls[0])
	}
}

func TestOutageProviders(t *testing.T) {
	tests := []struct {
		name string
		p    Provider
	}{
		{"empty mock queue", NewMockProvider()},
		{"unconfigured", Unavailable{Reason: errors.New("QUIZMIND_LLM_PROVIDER not set")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Generate(context.Background(), quizRequest(quizSampling))
			var unavail *ErrProviderUnavailable
			if !errors.As(err, &unavail) {
				t.Fatalf("got %T (%v), want ErrProviderUnavailable", err, err)
			}
			if !IsUnavailable(err) {
				t.Error("outage not reported as unavailable")
			}
		})
	}
	if got := (Unavailable{}).ModelID(); got != "unavailable" {
		t.Errorf("got model id %q", got)
	}
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &ErrRateLimit{Err: errors.New("429")}, true},
		{"provider down", &ErrProviderUnavailable{Err: errors.New("502")}, true},
		{"attempt timeout", &ErrProviderUnavailable{Err: fmt.Errorf("attempt timed out: %w", context.DeadlineExceeded)}, true},
		{"truncated", &ErrMaxTokensExceeded{}, true},
		{"network", errors.New("connection reset by peer"), true},
		{"unusable completion", &ErrInvalidResponse{Err: errors.New("not JSON")}, false},
		{"caller cancelled", context.Canceled, false},
		{"cancelled inside outage", &ErrProviderUnavailable{Err: context.Canceled}, false},
		{"caller deadline", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnavailable(tt.err); got != tt.want {
				t.Errorf("IsUnavailable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if HasPurpose(ctx) || PurposeFrom(ctx) != PurposeUnattributed {
		t.Fatalf("bare context has purpose %q", PurposeFrom(ctx))
	}
	ctx = WithPurpose(ctx, PurposePreview)
	if !HasPurpose(ctx) || PurposeFrom(ctx) != PurposePreview {
		t.Fatalf("got purpose %q, want preview", PurposeFrom(ctx))
	}
	if got := PurposeFrom(WithPurpose(ctx, "")); got != PurposeUnattributed {
		t.Errorf("empty label read back as %q", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"gemini with key", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}}, false},
		{"openrouter without key", Config{Provider: "openrouter"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "sk-or-test"}}, false},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unset provider", Config{}, true},
		{"unknown provider", Config{Provider: "llama.cpp"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
