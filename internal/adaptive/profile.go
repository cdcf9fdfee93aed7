package adaptive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/quizmind/internal/model"
)

// Reason explains a ladder decision.
type Reason string

const (
	ReasonNewUser         Reason = "new_user"
	ReasonPromoted        Reason = "promoted"
	ReasonDemoted         Reason = "demoted"
	ReasonGradualIncrease Reason = "gradual_increase"
	ReasonGradualDecrease Reason = "gradual_decrease"
	ReasonHold            Reason = "hold"
)

// AnswerRecord is one outcome in the sliding window.
type AnswerRecord struct {
	Difficulty   model.Difficulty `json:"difficulty"`
	Correct      bool             `json:"correct"`
	ResponseTime float64          `json:"response_time"`
	At           time.Time        `json:"at"`
}

// Tally is the long-term accuracy at one difficulty.
type Tally struct {
	Attempts int `json:"attempts"`
	Correct  int `json:"correct"`
}

// Accuracy returns Correct/Attempts, or 0 with no attempts.
func (t Tally) Accuracy() float64 {
	if t.Attempts == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Attempts)
}

// Metrics are the window statistics a decision was based on.
type Metrics struct {
	WindowSize       int     `json:"window_size"`
	Accuracy         float64 `json:"accuracy"`
	StreakBonus      float64 `json:"streak_bonus"`
	AdjustedAccuracy float64 `json:"adjusted_accuracy"`
	Confidence       float64 `json:"confidence"`
}

// Decision is the ladder's answer to "what difficulty next?".
type Decision struct {
	Next       model.Difficulty `json:"next_difficulty"`
	Reason     Reason           `json:"reason_tag"`
	Confidence float64          `json:"confidence"`
	Metrics    Metrics          `json:"metrics"`
}

// Profile is a learner's persistent ladder state.
type Profile struct {
	UserID            string           `json:"user_id"`
	CurrentDifficulty model.Difficulty `json:"current_difficulty"`

	// Window holds the most recent answers, oldest first.
	Window []AnswerRecord `json:"window"`

	Total                int `json:"total"`
	Correct              int `json:"correct"`
	ConsecutiveCorrect   int `json:"consecutive_correct"`
	ConsecutiveIncorrect int `json:"consecutive_incorrect"`
	DifficultyChanges    int `json:"difficulty_changes"`

	PerDifficulty map[model.Difficulty]Tally `json:"per_difficulty"`

	LastAdaptedAt *time.Time `json:"last_adapted_at,omitempty"`
	LastDecision  *Decision  `json:"last_decision,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewProfile creates a profile starting at the level mapped from skill.
func NewProfile(userID string, skill model.Skill) *Profile {
	return &Profile{
		UserID:            userID,
		CurrentDifficulty: skill.Difficulty(),
		PerDifficulty:     make(map[model.Difficulty]Tally),
	}
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Window = append([]AnswerRecord(nil), p.Window...)
	c.PerDifficulty = make(map[model.Difficulty]Tally, len(p.PerDifficulty))
	for k, v := range p.PerDifficulty {
		c.PerDifficulty[k] = v
	}
	if p.LastAdaptedAt != nil {
		t := *p.LastAdaptedAt
		c.LastAdaptedAt = &t
	}
	if p.LastDecision != nil {
		d := *p.LastDecision
		c.LastDecision = &d
	}
	return &c
}

// Accuracy returns the overall accuracy across all recorded answers.
func (p *Profile) Accuracy() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Total)
}

// Encode serializes p for storage.
func Encode(p *Profile) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return b, nil
}

// Decode parses a stored profile.
func Decode(raw []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.PerDifficulty == nil {
		p.PerDifficulty = make(map[model.Difficulty]Tally)
	}
	if !p.CurrentDifficulty.Valid() {
		p.CurrentDifficulty = model.DifficultyMedium
	}
	return &p, nil
}
