package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: "gpt-4o-mini"}
}

func openAICompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-quiz",
		"object":  "chat.completion",
		"created": 1709283600,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 90, "completion_tokens": 48, "total_tokens": 138},
	}
}

func TestOpenAIProvider_ForwardsSampling(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAICompletion(photosynthesisQuestion, "stop"))
	})

	resp, err := p.Generate(context.Background(), quizRequest(quizSampling))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != photosynthesisQuestion {
		t.Errorf("got text %q", resp.Text())
	}
	if resp.Usage.InputTokens != 90 || resp.Usage.OutputTokens != 48 {
		t.Errorf("got usage %+v", resp.Usage)
	}

	assertNumber(t, body, "top_p", 0.95)
	assertNumber(t, body, "temperature", 0.9)
	assertNumber(t, body, "max_completion_tokens", 512)
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want system + user", len(msgs))
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" || first["content"] != quizSystem {
		t.Errorf("got first message %v", msgs[0])
	}
}

func TestOpenAIProvider_StopReasons(t *testing.T) {
	tests := []struct {
		finish, want string
	}{
		{"stop", "end"},
		{"length", "max_tokens"},
		{"content_filter", "end"},
	}
	for _, tt := range tests {
		t.Run(tt.finish, func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(openAICompletion(photosynthesisQuestion, tt.finish))
			})
			resp, err := p.Generate(context.Background(), quizRequest(quizSampling))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StopReason != tt.want {
				t.Errorf("got %q, want %q", resp.StopReason, tt.want)
			}
		})
	}
}

func TestOpenAIProvider_JSONMode(t *testing.T) {
	schema := questionSchema()
	schema.Name = "test-openai-question"

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"matches schema", `{"question_text":"Which planet is known as the red planet?","type":"short_answer","correct_answer":"Mars"}`, false},
		{"violates schema", `{"question_text":"Which planet is red?","type":"essay","correct_answer":"Mars"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				body = decodeBody(t, r)
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(openAICompletion(tt.content, "stop"))
			})
			req := quizRequest(quizSampling)
			req.Schema = schema
			_, err := p.Generate(context.Background(), req)

			var inv *ErrInvalidResponse
			if got := errors.As(err, &inv); got != tt.wantErr {
				t.Fatalf("got err %v, want invalid response: %v", err, tt.wantErr)
			}
			format, _ := body["response_format"].(map[string]any)
			if format["type"] != "json_schema" {
				t.Errorf("got response_format %v", body["response_format"])
			}
		})
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl)
		}},
		{"server error", http.StatusBadGateway, func(err error) bool {
			var u *ErrProviderUnavailable
			return errors.As(err, &u)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"type": "server_error", "message": "try later"},
				})
			})
			_, err := p.Generate(context.Background(), quizRequest(quizSampling))
			if err == nil || !tt.check(err) {
				t.Fatalf("got %T (%v)", err, err)
			}
		})
	}
}

func TestNewOpenAIProvider_ResolvesModel(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o", BaseURL: "http://localhost:9/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o" {
		t.Errorf("got model %q, want gpt-4o", p.ModelID())
	}
}
