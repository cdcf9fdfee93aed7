package adaptive

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/abhisek/quizmind/internal/model"
)

// Config holds the ladder thresholds.
type Config struct {
	// WindowSize is the number of recent answers the ladder looks at.
	// No adaptation happens until the window is full.
	WindowSize int

	// ConsistencyWindow is how many of the latest outcomes feed confidence.
	ConsistencyWindow int

	PromoteAt   float64
	DemoteAt    float64
	ExploreUp   float64
	ExploreDown float64

	// MinConfidence gates promotion and exploratory promotion.
	MinConfidence float64

	// ExploreProbability is the chance an exploratory move fires per decision.
	ExploreProbability float64

	StreakStep float64
	StreakCap  float64
}

// DefaultConfig returns the standard ladder settings.
func DefaultConfig() Config {
	return Config{
		WindowSize:         5,
		ConsistencyWindow:  3,
		PromoteAt:          0.80,
		DemoteAt:           0.40,
		ExploreUp:          0.65,
		ExploreDown:        0.55,
		MinConfidence:      0.7,
		ExploreProbability: 0.3,
		StreakStep:         0.1,
		StreakCap:          0.5,
	}
}

// apply folds one answer into p and moves the ladder at most one rung.
// p is mutated in place.
func apply(cfg Config, p *Profile, rec AnswerRecord) Decision {
	p.Window = append(p.Window, rec)
	if len(p.Window) > cfg.WindowSize {
		p.Window = p.Window[len(p.Window)-cfg.WindowSize:]
	}

	p.Total++
	tally := p.PerDifficulty[rec.Difficulty]
	tally.Attempts++
	if rec.Correct {
		p.Correct++
		tally.Correct++
		p.ConsecutiveCorrect++
		p.ConsecutiveIncorrect = 0
	} else {
		p.ConsecutiveIncorrect++
		p.ConsecutiveCorrect = 0
	}
	p.PerDifficulty[rec.Difficulty] = tally

	m := windowMetrics(cfg, p)
	d := Decision{Next: p.CurrentDifficulty, Reason: ReasonHold, Confidence: m.Confidence, Metrics: m}

	if len(p.Window) < cfg.WindowSize {
		d.Reason = ReasonNewUser
		return d
	}

	i := p.CurrentDifficulty.Index()
	top := len(model.Levels) - 1
	confident := m.Confidence >= cfg.MinConfidence

	switch {
	case m.AdjustedAccuracy >= cfg.PromoteAt && confident && i < top:
		d.Next, d.Reason = model.Levels[i+1], ReasonPromoted
	case m.AdjustedAccuracy <= cfg.DemoteAt && i > 0:
		d.Next, d.Reason = model.Levels[i-1], ReasonDemoted
	case m.AdjustedAccuracy > cfg.ExploreUp && confident && i < top && explore(cfg, p):
		d.Next, d.Reason = model.Levels[i+1], ReasonGradualIncrease
	case m.AdjustedAccuracy < cfg.ExploreDown && i > 0 && explore(cfg, p):
		d.Next, d.Reason = model.Levels[i-1], ReasonGradualDecrease
	}

	if d.Next != p.CurrentDifficulty {
		p.CurrentDifficulty = d.Next
		p.DifficultyChanges++
		at := rec.At
		p.LastAdaptedAt = &at
	}
	return d
}

// windowMetrics computes accuracy, streak bonus and confidence over the window.
func windowMetrics(cfg Config, p *Profile) Metrics {
	m := Metrics{WindowSize: len(p.Window)}
	if len(p.Window) == 0 {
		return m
	}

	correct := 0
	for _, r := range p.Window {
		if r.Correct {
			correct++
		}
	}
	m.Accuracy = float64(correct) / float64(len(p.Window))
	m.StreakBonus = min(cfg.StreakStep*float64(p.ConsecutiveCorrect), cfg.StreakCap)
	m.AdjustedAccuracy = min(1.0, m.Accuracy+m.StreakBonus)
	m.Confidence = consistency(p.Window, cfg.ConsistencyWindow)
	return m
}

// consistency is 1 minus the share of outcome flips among the latest n
// answers. Fewer than two answers carry no evidence and score 0.
func consistency(window []AnswerRecord, n int) float64 {
	if len(window) > n {
		window = window[len(window)-n:]
	}
	if len(window) < 2 {
		return 0
	}
	flips := 0
	for i := 1; i < len(window); i++ {
		if window[i].Correct != window[i-1].Correct {
			flips++
		}
	}
	return 1 - float64(flips)/float64(len(window)-1)
}

// explore draws from an RNG seeded by (user, answer index) so a learner's
// trajectory is reproducible and independent of every other learner.
func explore(cfg Config, p *Profile) bool {
	if cfg.ExploreProbability <= 0 {
		return false
	}
	h := fnv.New64a()
	h.Write([]byte(p.UserID))
	r := rand.New(rand.NewPCG(h.Sum64(), uint64(p.Total)))
	return r.Float64() < cfg.ExploreProbability
}
