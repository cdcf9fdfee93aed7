package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit is a 429 from the provider. RetryAfter is zero when the
// provider gave no hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("completion rate limited, retry in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("completion rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse is a completion that arrived but cannot be used:
// malformed JSON or a payload that fails its schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("unusable completion: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable means no completion could be obtained: the
// provider is down, unreachable, unconfigured or timed out.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "completion provider unavailable"
	}
	return fmt.Sprintf("completion provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is a completion cut off at the token limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "completion truncated at the token limit"
}

// failure classifies an error returned by a Provider.
type failure int

const (
	failureNone failure = iota
	failureCancelled
	failureTruncated
	failureUnusable
	failureTransient
)

func classify(err error) failure {
	var (
		maxTok  *ErrMaxTokensExceeded
		inv     *ErrInvalidResponse
		rl      *ErrRateLimit
		unavail *ErrProviderUnavailable
	)
	switch {
	case err == nil:
		return failureNone
	case errors.Is(err, context.Canceled):
		return failureCancelled
	case errors.As(err, &maxTok):
		return failureTruncated
	case errors.As(err, &inv):
		return failureUnusable
	case errors.As(err, &rl), errors.As(err, &unavail):
		// Includes per-attempt timeouts, which arrive wrapped as unavailable.
		return failureTransient
	case errors.Is(err, context.DeadlineExceeded):
		return failureCancelled
	default:
		// Unknown network errors.
		return failureTransient
	}
}

// IsUnavailable reports whether err means the provider could not produce a
// completion at all, as opposed to producing an unusable one. A caller
// cancelling is not an outage.
func IsUnavailable(err error) bool {
	switch classify(err) {
	case failureNone, failureUnusable:
		return false
	case failureCancelled:
		return errors.Is(err, context.DeadlineExceeded)
	default:
		return true
	}
}
