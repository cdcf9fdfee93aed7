package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL + "/"},
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return &GeminiProvider{client: client, model: "gemini-2.0-flash"}
}

func geminiResult(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     70,
			"candidatesTokenCount": 40,
			"totalTokenCount":      110,
		},
	}
}

func TestGeminiProvider_ForwardsSampling(t *testing.T) {
	var (
		body map[string]any
		path string
	)
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiResult(photosynthesisQuestion, "STOP"))
	})

	resp, err := p.Generate(context.Background(), quizRequest(quizSampling))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != photosynthesisQuestion {
		t.Errorf("got text %q", resp.Text())
	}
	if resp.Usage.TotalTokens != 110 || resp.StopReason != "end" {
		t.Errorf("got usage %+v stop %q", resp.Usage, resp.StopReason)
	}
	if !strings.Contains(path, "gemini-2.0-flash:generateContent") {
		t.Errorf("got path %q", path)
	}

	gen, _ := body["generationConfig"].(map[string]any)
	if gen == nil {
		t.Fatalf("no generationConfig in %v", body)
	}
	assertNumber(t, gen, "topK", 60)
	assertNumber(t, gen, "topP", 0.95)
	assertNumber(t, gen, "temperature", 0.9)
	assertNumber(t, gen, "maxOutputTokens", 512)
	if _, ok := body["systemInstruction"]; !ok {
		t.Errorf("system prompt not sent: %v", body)
	}
}

func TestGeminiProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl)
		}},
		{"server error", http.StatusServiceUnavailable, func(err error) bool {
			var u *ErrProviderUnavailable
			return errors.As(err, &u)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": tt.status, "message": "try later", "status": "UNAVAILABLE"},
				})
			})
			_, err := p.Generate(context.Background(), quizRequest(quizSampling))
			if err == nil || !tt.check(err) {
				t.Fatalf("got %T (%v)", err, err)
			}
		})
	}
}

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildGeminiSchema_QuizQuestion(t *testing.T) {
	schema := buildGeminiSchema(questionSchema().Definition)

	if schema.Type != genai.TypeObject {
		t.Fatalf("got type %s, want OBJECT", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("got %d properties, want 4", len(schema.Properties))
	}
	if got := schema.Properties["type"].Enum; len(got) != 3 || got[0] != "multiple_choice" {
		t.Errorf("got type enum %v", got)
	}
	if opts := schema.Properties["options"]; opts.Type != genai.TypeArray || opts.Items.Type != genai.TypeString {
		t.Errorf("got options %s of %v", opts.Type, opts.Items)
	}
	if len(schema.Required) != 3 {
		t.Errorf("got required %v", schema.Required)
	}
}
