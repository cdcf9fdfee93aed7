package llm

import (
	"context"
	"strings"
)

// Sampling holds the decoding parameters for a single completion.
type Sampling struct {
	Temperature float64
	TopK        int
	TopP        float64
	MaxTokens   int
}

// DefaultMaxTokens is used when Sampling.MaxTokens is zero.
const DefaultMaxTokens = 1024

// Completer turns a Provider into a prompt-in, text-out capability.
type Completer struct {
	provider Provider
	system   string
}

// NewCompleter returns a Completer that sends system as the system prompt
// on every call.
func NewCompleter(p Provider, system string) *Completer {
	return &Completer{provider: p, system: system}
}

// Complete sends prompt as a single user message and returns the trimmed
// completion text.
func (c *Completer) Complete(ctx context.Context, prompt string, s Sampling) (string, error) {
	resp, err := c.provider.Generate(ctx, c.request(prompt, s))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// CompleteJSON is Complete with the response constrained to schema.
func (c *Completer) CompleteJSON(ctx context.Context, prompt string, s Sampling, schema *Schema) ([]byte, error) {
	req := c.request(prompt, s)
	req.Schema = schema
	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// ModelID reports the model behind the completer.
func (c *Completer) ModelID() string {
	return c.provider.ModelID()
}

func (c *Completer) request(prompt string, s Sampling) Request {
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return Request{
		System:      c.system,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: s.Temperature,
		TopK:        s.TopK,
		TopP:        s.TopP,
	}
}
