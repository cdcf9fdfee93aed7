// Package app assembles the quiz engine from configuration and runs the
// long-lived server processes.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizmind/internal/adaptive"
	"github.com/abhisek/quizmind/internal/config"
	"github.com/abhisek/quizmind/internal/evaluate"
	"github.com/abhisek/quizmind/internal/events"
	"github.com/abhisek/quizmind/internal/httpapi"
	"github.com/abhisek/quizmind/internal/leaderboard"
	"github.com/abhisek/quizmind/internal/llm"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/questiongen"
	"github.com/abhisek/quizmind/internal/quiz"
	"github.com/abhisek/quizmind/internal/realtime"
	"github.com/abhisek/quizmind/internal/store"
	"github.com/abhisek/quizmind/internal/sweeper"
)

// App holds the wired components.
type App struct {
	Config  config.Config
	Store   *store.Store
	Bus     events.Bus
	Board   *leaderboard.Engine
	Engine  *adaptive.Engine
	Service *quiz.Service

	log *logger.Logger
}

// Options overrides parts of the wiring.
type Options struct {
	// Provider replaces the configured LLM provider.
	Provider llm.Provider
}

// New opens the store at dbPath and wires every component.
func New(ctx context.Context, cfg config.Config, dbPath string, log *logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := opts.Provider
	if provider == nil {
		if err := cfg.LLM.Validate(); err != nil {
			log.Warn("LLM provider not configured, serving fallback questions", "error", err)
			provider = llm.Unavailable{Reason: err}
		} else if provider, err = llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log); err != nil {
			st.Close()
			return nil, fmt.Errorf("llm provider: %w", err)
		}
	}

	bus, err := events.New(cfg.Bus, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("event bus: %w", err)
	}

	engine := adaptive.NewEngine(adaptive.DefaultConfig(), st.Profiles(), log)
	gen := questiongen.New(
		llm.NewCompleter(provider, questiongen.SystemPrompt),
		st.Questions(),
		engine,
		questiongen.DefaultConfig(),
		log,
	)
	board := leaderboard.New(st, bus, log)
	svc := quiz.New(quiz.Config{
		Adaptive:         cfg.Adaptive,
		InactivityWindow: cfg.InactivityWindow,
	}, quiz.Deps{
		Store:       st,
		Generator:   gen,
		Engine:      engine,
		Evaluator:   evaluate.New(evaluate.Config{NegationAware: cfg.NegationAware}),
		Leaderboard: board,
		Logger:      log,
	})

	log.Info("quiz engine ready",
		"db", dbPath,
		"llm_provider", cfg.LLM.Provider,
		"bus", cfg.Bus.Kind)

	return &App{
		Config:  cfg,
		Store:   st,
		Bus:     bus,
		Board:   board,
		Engine:  engine,
		Service: svc,
		log:     log,
	}, nil
}

// Close releases the bus and the store.
func (a *App) Close() error {
	if err := a.Bus.Close(); err != nil {
		a.log.Warn("failed to close event bus", "error", err)
	}
	return a.Store.Close()
}

// Serve runs the HTTP API, the session sweeper and the bus forwarder
// until ctx is cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	hub := realtime.NewHub(a.log)
	srv := httpapi.New(httpapi.Config{
		Addr:        a.Config.HTTPAddr,
		CORSOrigins: a.Config.CORSOrigins,
	}, a.Service, hub, a.Store, a.log)

	sched, err := sweeper.New(a.Config.SweepSchedule, a.Service, a.log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error {
		if err := a.Bus.StartForwarder(ctx, hub.Broadcast); err != nil {
			return fmt.Errorf("start bus forwarder: %w", err)
		}
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}
