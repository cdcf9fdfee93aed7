// Package difficulty labels question text as easy, medium or hard by fusing
// Bloom's taxonomy verbs, a domain lexicon, readability and the learner's
// declared skill.
package difficulty

import (
	"strings"

	"github.com/abhisek/quizmind/internal/model"
)

// Signal weights. They sum to 1.0, so a bucket total is also a confidence.
const (
	WeightBloom      = 0.40
	WeightSemantic   = 0.30
	WeightFlesch     = 0.10
	WeightWordLength = 0.10
	WeightSkill      = 0.10

	// MinConfidence is the score below which the declared skill decides.
	MinConfidence = 0.3

	// FallbackConfidence is reported when the declared skill decides.
	FallbackConfidence = 0.5
)

// tieOrder breaks equal bucket totals: medium, then easy, then hard.
var tieOrder = []model.Difficulty{model.DifficultyMedium, model.DifficultyEasy, model.DifficultyHard}

// Classify labels text. It is pure and deterministic.
func Classify(text, topic string, skill model.Skill) model.Classification {
	buckets := map[model.Difficulty]float64{}

	bloom := bloomScores(text)
	if winner, share := argmax(bloom); share > 0 {
		buckets[winner] += WeightBloom * share
	}

	semantic := semanticScores(text, topic)
	var semanticTotal float64
	for _, v := range semantic {
		semanticTotal += v
	}
	if semanticTotal > 0 {
		for d, v := range semantic {
			buckets[d] += WeightSemantic * v / semanticTotal
		}
	}

	metrics := measure(text)
	if metrics.AvgWordLen > 0 {
		buckets[fleschBand(metrics.Flesch)] += WeightFlesch
		buckets[wordLengthBand(metrics.AvgWordLen)] += WeightWordLength
	}

	if skill.Valid() {
		buckets[skill.Difficulty()] += WeightSkill
	}

	label, confidence := argmax(buckets)
	if confidence < MinConfidence {
		label, confidence = skill.Difficulty(), FallbackConfidence
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.Classification{
		Label:          label,
		Confidence:     confidence,
		BloomScores:    labelled(bloom),
		SemanticScores: labelled(semantic),
		TextMetrics:    metrics,
	}
}

// bloomScores returns each band's share of Bloom verb hits.
func bloomScores(text string) map[model.Difficulty]float64 {
	hits := map[model.Difficulty]float64{}
	var total float64
	for _, w := range words(strings.ToLower(text)) {
		for d, verbs := range bloomVerbs {
			if matchesAny(w, verbs) {
				hits[d]++
				total++
			}
		}
	}
	if total == 0 {
		return hits
	}
	for d := range hits {
		hits[d] /= total
	}
	return hits
}

// semanticScores returns the weighted lexicon hits per band.
func semanticScores(text, topic string) map[model.Difficulty]float64 {
	scores := map[model.Difficulty]float64{}
	lower := strings.ToLower(text)
	ws := words(lower)
	isMath := strings.EqualFold(strings.TrimSpace(topic), mathTopic)

	for _, w := range ws {
		for d, list := range complexityWords {
			if matchesAny(w, list) {
				scores[d] += weightGeneric
			}
		}
		if isMath {
			for d, list := range mathWords {
				if matchesAny(w, list) {
					scores[d] += weightMath
				}
			}
		}
	}

	padded := " " + strings.Join(ws, " ") + " "
	for d, phrases := range structuralPhrases {
		for _, p := range phrases {
			if n := strings.Count(padded, " "+p+" "); n > 0 {
				scores[d] += weightStructural * float64(n)
			}
		}
	}
	return scores
}

// matchesAny reports whether w is one of list or a regular inflection of one.
func matchesAny(w string, list []string) bool {
	for _, base := range list {
		if inflectionOf(w, base) {
			return true
		}
	}
	return false
}

func inflectionOf(w, base string) bool {
	if w == base {
		return true
	}
	for _, suffix := range []string{"s", "es", "ed", "d", "ing"} {
		if w == base+suffix {
			return true
		}
	}
	if strings.HasSuffix(base, "e") && w == base[:len(base)-1]+"ing" {
		return true
	}
	if strings.HasSuffix(base, "y") && w == base[:len(base)-1]+"ies" {
		return true
	}
	return false
}

// argmax returns the highest-scoring band using tieOrder for ties.
func argmax(scores map[model.Difficulty]float64) (model.Difficulty, float64) {
	best := tieOrder[0]
	bestScore := scores[best]
	for _, d := range tieOrder[1:] {
		if scores[d] > bestScore+1e-12 {
			best, bestScore = d, scores[d]
		}
	}
	return best, bestScore
}

func labelled(scores map[model.Difficulty]float64) map[string]float64 {
	out := make(map[string]float64, len(model.Levels))
	for _, d := range model.Levels {
		out[string(d)] = scores[d]
	}
	return out
}
