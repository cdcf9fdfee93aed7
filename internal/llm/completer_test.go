package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleter_ForwardsSampling(t *testing.T) {
	mock := NewMockProvider(TextResponse("  Question: Which planet is the largest?\n"))
	c := NewCompleter(mock, "You write quiz questions.")

	got, err := c.Complete(context.Background(), "make one", Sampling{Temperature: 0.9, TopK: 60, TopP: 0.95})
	require.NoError(t, err)
	assert.Equal(t, "Question: Which planet is the largest?", got)

	require.Len(t, mock.Calls, 1)
	req := mock.Calls[0]
	assert.Equal(t, "You write quiz questions.", req.System)
	assert.Equal(t, 0.9, req.Temperature)
	assert.Equal(t, 60, req.TopK)
	assert.Equal(t, 0.95, req.TopP)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.Equal(t, "make one", req.Messages[0].Content)
}

func TestCompleter_PropagatesErrors(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}})
	c := NewCompleter(mock, "")

	_, err := c.Complete(context.Background(), "x", Sampling{})
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
