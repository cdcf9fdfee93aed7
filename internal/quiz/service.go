// Package quiz implements the operations the API exposes: starting,
// answering and completing quizzes, the user registry, analytics and
// leaderboard reads.
package quiz

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/quizmind/internal/adaptive"
	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/evaluate"
	"github.com/abhisek/quizmind/internal/keylock"
	"github.com/abhisek/quizmind/internal/leaderboard"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/questiongen"
	"github.com/abhisek/quizmind/internal/store"
)

// Config holds service settings.
type Config struct {
	// Adaptive is the default for StartQuizRequest.Adaptive.
	Adaptive bool

	// InactivityWindow is how long an active session may be idle before
	// SweepAbandoned abandons it.
	InactivityWindow time.Duration
}

// DefaultConfig returns the default service settings.
func DefaultConfig() Config {
	return Config{Adaptive: true, InactivityWindow: 24 * time.Hour}
}

// Service wires the quiz engine components to storage.
type Service struct {
	cfg      Config
	st       *store.Store
	gen      *questiongen.Generator
	engine   *adaptive.Engine
	eval     *evaluate.Evaluator
	board    *leaderboard.Engine
	validate *validator.Validate
	locks    *keylock.Map
	log      *logger.Logger
	now      func() time.Time
}

// Deps are the components a Service is built from.
type Deps struct {
	Store       *store.Store
	Generator   *questiongen.Generator
	Engine      *adaptive.Engine
	Evaluator   *evaluate.Evaluator
	Leaderboard *leaderboard.Engine
	Logger      *logger.Logger
}

// New creates a Service.
func New(cfg Config, d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		cfg:      cfg,
		st:       d.Store,
		gen:      d.Generator,
		engine:   d.Engine,
		eval:     d.Evaluator,
		board:    d.Leaderboard,
		validate: newValidator(),
		locks:    keylock.New(),
		log:      log.With("component", "quiz"),
		now:      time.Now,
	}
}

// lockSession serializes operations on one session.
func (s *Service) lockSession(id string) func() {
	return s.locks.Lock("session:" + id)
}

// notFound maps store.ErrNotFound to a not-found error and anything else
// to a storage error.
func notFound(err error, tag, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(tag, msg)
	}
	return apperr.Storage(err)
}
