// Package adaptive maintains each learner's difficulty ladder and decides
// the difficulty of their next question.
package adaptive

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/keylock"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/model"
)

// StateStore persists encoded profiles. The database is authoritative:
// every load reads it, and the engine only memoizes the decoded form of
// the bytes it last saw.
type StateStore interface {
	// LoadProfileState returns the stored profile or nil if none exists.
	LoadProfileState(ctx context.Context, userID string) ([]byte, error)

	// SaveProfileState upserts the profile. currentDifficulty duplicates
	// the level held in state for queries that do not decode it.
	SaveProfileState(ctx context.Context, userID, currentDifficulty string, state []byte, updatedAt time.Time) error
}

// Answer is one graded outcome to fold into a learner's ladder.
type Answer struct {
	UserID string

	// Skill is the learner's declared skill, used only when the profile
	// does not exist yet.
	Skill model.Skill

	Difficulty   model.Difficulty
	Correct      bool
	ResponseTime float64
}

// PersistFunc writes the updated profile. It runs while the learner's lock
// is held, so callers can store the profile in the same transaction as the
// answer that produced it.
type PersistFunc func(ctx context.Context, p *Profile) error

// Engine serializes ladder updates per learner.
type Engine struct {
	cfg   Config
	store StateStore
	log   *logger.Logger
	locks *keylock.Map
	now   func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedProfile
}

// cachedProfile is a decoded profile and the stored bytes it came from.
type cachedProfile struct {
	raw     []byte
	profile *Profile
}

// NewEngine creates an Engine over store.
func NewEngine(cfg Config, store StateStore, log *logger.Logger) *Engine {
	return &Engine{
		cfg:   cfg,
		store: store,
		log:   log.With("component", "adaptive"),
		locks: keylock.New(),
		now:   time.Now,
		cache: make(map[string]cachedProfile),
	}
}

// RecordAnswer folds ans into the learner's profile, persists it through
// the state store and returns the ladder decision.
func (e *Engine) RecordAnswer(ctx context.Context, ans Answer) (Decision, error) {
	return e.RecordAnswerWith(ctx, ans, SaveTo(e.store))
}

// RecordAnswerWith is RecordAnswer with a caller-supplied persist step.
// If persist fails the profile is left exactly as it was.
func (e *Engine) RecordAnswerWith(ctx context.Context, ans Answer, persist PersistFunc) (Decision, error) {
	if !ans.Difficulty.Valid() {
		return Decision{}, apperr.Validation("invalid_difficulty", fmt.Sprintf("unknown difficulty %q", ans.Difficulty))
	}

	unlock := e.locks.Lock(ans.UserID)
	defer unlock()

	current, err := e.load(ctx, ans.UserID, ans.Skill)
	if err != nil {
		return Decision{}, err
	}

	next := current.Clone()
	now := e.now().UTC()
	d := apply(e.cfg, next, AnswerRecord{
		Difficulty:   ans.Difficulty,
		Correct:      ans.Correct,
		ResponseTime: ans.ResponseTime,
		At:           now,
	})
	next.LastDecision = &d
	next.UpdatedAt = now

	if err := persist(ctx, next); err != nil {
		return Decision{}, err
	}

	if raw, err := Encode(next); err == nil {
		e.mu.Lock()
		e.cache[ans.UserID] = cachedProfile{raw: raw, profile: next}
		e.mu.Unlock()
	}

	if d.Reason != ReasonHold && d.Reason != ReasonNewUser {
		e.log.Info("difficulty adapted",
			"user_id", ans.UserID,
			"from", current.CurrentDifficulty,
			"to", d.Next,
			"reason", d.Reason,
			"accuracy", d.Metrics.AdjustedAccuracy)
	}
	return d, nil
}

// Recommend returns the latest decision for the learner without recording
// anything. Learners with no history get their mapped starting level.
func (e *Engine) Recommend(ctx context.Context, userID string, skill model.Skill) (Decision, error) {
	p, err := e.Profile(ctx, userID, skill)
	if err != nil {
		return Decision{}, err
	}
	if p.LastDecision != nil {
		return *p.LastDecision, nil
	}
	return Decision{Next: p.CurrentDifficulty, Reason: ReasonNewUser}, nil
}

// Profile returns a copy of the learner's profile, creating an unsaved
// default one when none exists.
func (e *Engine) Profile(ctx context.Context, userID string, skill model.Skill) (*Profile, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	p, err := e.load(ctx, userID, skill)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// Forget drops the cached profile for userID.
func (e *Engine) Forget(userID string) {
	e.mu.Lock()
	delete(e.cache, userID)
	e.mu.Unlock()
}

// load returns the stored profile, reusing the decoded copy when the
// stored bytes are unchanged. Callers hold the user lock.
func (e *Engine) load(ctx context.Context, userID string, skill model.Skill) (*Profile, error) {
	raw, err := e.store.LoadProfileState(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("load profile %s: %w", userID, err))
	}
	if raw == nil {
		e.Forget(userID)
		return NewProfile(userID, skill), nil
	}

	e.mu.RLock()
	c, ok := e.cache[userID]
	e.mu.RUnlock()
	if ok && bytes.Equal(c.raw, raw) {
		return c.profile, nil
	}

	p, err := Decode(raw)
	if err != nil {
		e.log.Error("discarding unreadable profile", "user_id", userID, "error", err)
		e.Forget(userID)
		return NewProfile(userID, skill), nil
	}
	p.UserID = userID

	e.mu.Lock()
	e.cache[userID] = cachedProfile{raw: raw, profile: p}
	e.mu.Unlock()
	return p, nil
}

// SaveTo returns a PersistFunc writing profiles to store.
func SaveTo(store StateStore) PersistFunc {
	return func(ctx context.Context, p *Profile) error {
		raw, err := Encode(p)
		if err != nil {
			return err
		}
		if err := store.SaveProfileState(ctx, p.UserID, string(p.CurrentDifficulty), raw, p.UpdatedAt); err != nil {
			return apperr.Storage(fmt.Errorf("save profile %s: %w", p.UserID, err))
		}
		return nil
	}
}
