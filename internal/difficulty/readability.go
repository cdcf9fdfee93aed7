package difficulty

import (
	"regexp"
	"strings"

	"github.com/abhisek/quizmind/internal/model"
)

var (
	wordPattern     = regexp.MustCompile(`[A-Za-z0-9]+(?:['-][A-Za-z0-9]+)*`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// words returns the word tokens of text in their original case.
func words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// sentenceCount counts non-empty sentences, minimum 1.
func sentenceCount(text string) int {
	n := 0
	for _, s := range sentencePattern.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// syllables estimates syllables as vowel groups, with short words counting
// once and a trailing silent e dropped.
func syllables(word string) int {
	w := strings.ToLower(word)
	if len(w) <= 3 {
		return 1
	}
	count := 0
	prevVowel := false
	for _, r := range w {
		v := strings.ContainsRune("aeiouy", r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	if strings.HasSuffix(w, "e") {
		count--
	}
	if count < 1 {
		return 1
	}
	return count
}

// measure computes the readability metrics of text.
func measure(text string) model.TextMetrics {
	ws := words(text)
	if len(ws) == 0 {
		return model.TextMetrics{}
	}

	sentences := sentenceCount(text)
	letters, syl := 0, 0
	unique := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		letters += len(w)
		syl += syllables(w)
		unique[strings.ToLower(w)] = struct{}{}
	}

	n := float64(len(ws))
	return model.TextMetrics{
		Flesch:           206.835 - 1.015*(n/float64(sentences)) - 84.6*(float64(syl)/n),
		AvgWordLen:       float64(letters) / n,
		AvgSentLen:       n / float64(sentences),
		LexicalDiversity: float64(len(unique)) / n,
	}
}

// fleschBand maps Flesch Reading Ease to a band: above 70 is easy,
// 50 to 70 is medium, below 50 is hard.
func fleschBand(score float64) model.Difficulty {
	switch {
	case score > 70:
		return model.DifficultyEasy
	case score >= 50:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}

// wordLengthBand maps average word length to a band.
func wordLengthBand(avg float64) model.Difficulty {
	switch {
	case avg <= 4:
		return model.DifficultyEasy
	case avg <= 6:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}
