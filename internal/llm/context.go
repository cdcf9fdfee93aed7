package llm

import "context"

// Purposes recorded in the request log.
const (
	PurposeQuestionGen  = "question-gen"
	PurposePreview      = "preview"
	PurposeUnattributed = "unattributed"
)

type purposeKey struct{}

// WithPurpose labels every completion made with ctx. An existing label is
// replaced.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or PurposeUnattributed.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return PurposeUnattributed
}

// HasPurpose reports whether ctx already carries a label.
func HasPurpose(ctx context.Context) bool {
	return PurposeFrom(ctx) != PurposeUnattributed
}
