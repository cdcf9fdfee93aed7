package questiongen

import (
	"fmt"
	"strings"
)

// Defaults for DedupValidator.
const (
	DefaultSimilarityThreshold = 0.6
	DefaultPrefixLen           = 20
)

// DedupValidator rejects candidates that repeat a prior question.
type DedupValidator struct {
	// Threshold is the token similarity above which a candidate is a
	// duplicate.
	Threshold float64

	// PrefixLen is the length of the candidate prefix that must not occur
	// inside a prior question.
	PrefixLen int
}

func (v *DedupValidator) Name() string { return "dedup" }

func (v *DedupValidator) Validate(c *candidate, in attemptInput) *ValidationError {
	if prior, ok := v.duplicateOf(c.Text, in.Prior); ok {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("too similar to %q", prior)}
	}
	return nil
}

func (v *DedupValidator) duplicateOf(text string, prior []string) (string, bool) {
	cand := tokenSet(text)
	prefix := strings.ToLower(text)
	if r := []rune(prefix); len(r) > v.PrefixLen {
		prefix = string(r[:v.PrefixLen])
	}
	for _, p := range prior {
		if similarity(cand, tokenSet(p)) > v.Threshold {
			return p, true
		}
		if prefix != "" && strings.Contains(strings.ToLower(p), prefix) {
			return p, true
		}
	}
	return "", false
}

// similarity is |a ∩ b| / max(|a|, |b|, 1).
func similarity(a, b map[string]struct{}) float64 {
	common := 0
	for t := range a {
		if _, ok := b[t]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(a), len(b), 1))
}

// tokenSet splits lowercased text on whitespace.
func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
