package evaluate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "neither": true,
	"nor": true, "cannot": true, "cant": true, "isnt": true, "arent": true,
	"wasnt": true, "werent": true, "doesnt": true, "dont": true, "didnt": true,
	"wont": true,
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// normalize lowercases s, strips punctuation (keeping decimal points and
// signs that belong to numbers), collapses whitespace and drops stopwords.
func normalize(s string) string {
	return strings.Join(tokens(s), " ")
}

// tokens returns the normalized word tokens of s.
func tokens(s string) []string {
	rs := []rune(strings.ToLower(s))
	var b strings.Builder
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' && i > 0 && i+1 < len(rs) && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1]):
			b.WriteRune(r)
		case r == '-' && i+1 < len(rs) && unicode.IsDigit(rs[i+1]) && (i == 0 || unicode.IsSpace(rs[i-1])):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// Contractions collapse: "isn't" becomes "isnt".
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// keywordOverlap is |user ∩ ref| / |ref| over distinct normalized tokens.
func keywordOverlap(user, ref []string) float64 {
	refSet := make(map[string]bool, len(ref))
	for _, t := range ref {
		refSet[t] = true
	}
	if len(refSet) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(user))
	hits := 0
	for _, t := range user {
		if refSet[t] && !seen[t] {
			hits++
			seen[t] = true
		}
	}
	return float64(hits) / float64(len(refSet))
}

// firstNumber extracts the first numeric literal in s.
func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseNumber reports whether s as a whole is a number.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	return f, err == nil
}

func hasNegation(ts []string) bool {
	for _, t := range ts {
		if negations[t] {
			return true
		}
	}
	return false
}
