package llm

import "context"

// Unavailable is a Provider that fails every request with
// ErrProviderUnavailable. It stands in when no provider is configured so
// callers degrade instead of failing at startup.
type Unavailable struct {
	Reason error
}

// Generate always returns ErrProviderUnavailable.
func (u Unavailable) Generate(context.Context, Request) (*Response, error) {
	return nil, &ErrProviderUnavailable{Err: u.Reason}
}

// ModelID returns "unavailable".
func (u Unavailable) ModelID() string { return "unavailable" }
