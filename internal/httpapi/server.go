// Package httpapi exposes the quiz service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizmind/internal/leaderboard"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/quiz"
	"github.com/abhisek/quizmind/internal/realtime"
)

// Service is the set of quiz operations the API serves.
type Service interface {
	RegisterUser(ctx context.Context, req quiz.RegisterUserRequest) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	UserAnalytics(ctx context.Context, userID string) (*quiz.Analytics, error)
	UserSummary(ctx context.Context, userID string) (*leaderboard.Summary, error)

	StartQuiz(ctx context.Context, req quiz.StartQuizRequest) (*quiz.StartQuizResponse, error)
	SubmitAnswer(ctx context.Context, req quiz.SubmitAnswerRequest) (*quiz.SubmitAnswerResponse, error)
	CompleteQuiz(ctx context.Context, sessionID string) (*quiz.CompleteQuizResponse, error)
	AbandonQuiz(ctx context.Context, sessionID string) (*model.QuizSession, error)
	Session(ctx context.Context, sessionID string) (*model.QuizSession, []quiz.ClientQuestion, error)

	Leaderboard(ctx context.Context, req quiz.LeaderboardRequest) (*leaderboard.Page, error)
	Standings(ctx context.Context, limit int) ([]leaderboard.Standing, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server settings.
type Config struct {
	Addr string

	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
}

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API.
type Server struct {
	cfg    Config
	svc    Service
	hub    *realtime.Hub
	health Pinger
	log    *logger.Logger
	router *gin.Engine
}

// New creates a Server. hub and health may be nil.
func New(cfg Config, svc Service, hub *realtime.Hub, health Pinger, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		hub:    hub,
		health: health,
		log:    log.With("component", "http"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = s.cfg.CORSOrigins
		cc.AllowCredentials = true
	}
	r.Use(cors.New(cc))

	r.GET("/healthz", s.healthz)

	v1 := r.Group("/v1")
	{
		users := v1.Group("/users")
		users.POST("", s.registerUser)
		users.GET("/:id", s.getUser)
		users.DELETE("/:id", s.deleteUser)
		users.GET("/:id/analytics", s.userAnalytics)
		users.GET("/:id/summary", s.userSummary)

		quizzes := v1.Group("/quizzes")
		quizzes.POST("", s.startQuiz)
		quizzes.GET("/:id", s.getQuiz)
		quizzes.POST("/:id/answers", s.submitAnswer)
		quizzes.POST("/:id/complete", s.completeQuiz)
		quizzes.POST("/:id/abandon", s.abandonQuiz)

		board := v1.Group("/leaderboard")
		board.GET("", s.leaderboard)
		board.GET("/standings", s.standings)
		board.GET("/stream", s.stream)
	}
	return r
}

// requestLog logs one line per request.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.log.Warn("request failed", kv...)
			return
		}
		s.log.Debug("request", kv...)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
