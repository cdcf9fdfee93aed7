// Package questiongen produces quiz questions with a text completer,
// filtering out malformed and repeated ones and falling back to templates
// when the completer is unavailable.
package questiongen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/quizmind/internal/apperr"
	"github.com/abhisek/quizmind/internal/difficulty"
	"github.com/abhisek/quizmind/internal/llm"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/model"
)

// Completions that report a failure instead of a question. Matched
// case-insensitively.
var (
	errorPrefixes  = []string{"error", "[error]"}
	errorSentinels = []string{"as an ai language model", "i'm sorry, but", "i cannot generate"}
)

// errRejected marks a completion that was unusable for a reason other
// than parsing.
var errRejected = errors.New("completion rejected")

// completerError wraps a failure of the completer call itself, as opposed
// to a failure to use its output.
type completerError struct {
	err error
}

func (e *completerError) Error() string { return e.err.Error() }
func (e *completerError) Unwrap() error { return e.err }

// isOutage reports whether err means the completer could not answer at
// all after its own retries.
func isOutage(err error) bool {
	var ce *completerError
	return errors.As(err, &ce) && llm.IsUnavailable(ce.err)
}

// Generator produces the questions of a quiz.
type Generator struct {
	completer TextCompleter
	history   HistorySource
	advisor   DifficultyAdvisor
	config    Config
	log       *logger.Logger
}

// New creates a Generator. advisor may be nil, in which case adaptive
// requests use the declared skill.
func New(completer TextCompleter, history HistorySource, advisor DifficultyAdvisor, cfg Config, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{
		completer: completer,
		history:   history,
		advisor:   advisor,
		config:    cfg,
		log:       log.With("component", "questiongen"),
	}
}

// Generate validates req and produces req.NumQuestions questions. A
// completer outage yields fallback questions and a degraded result rather
// than an error.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !llm.HasPurpose(ctx) {
		ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)
	}
	topic := CanonicalTopic(req.Topic)

	target := req.Skill.Difficulty()
	if req.Adaptive && g.advisor != nil {
		d, err := g.advisor.Recommend(ctx, req.UserID, req.Skill)
		if err != nil {
			return nil, err
		}
		target = d.Next
	}
	promptSkill := target.Skill()

	prior, err := g.history.History(ctx, req.UserID, topic, req.Skill, 0)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("load question history: %w", err))
	}

	topicCtx, truncated := topicContext(req, promptSkill, g.config.ContextBudget)
	res := &Result{Target: target, Truncated: truncated}

	outage := false
	used := make(map[model.QuestionType]int)
	for i := 0; i < req.NumQuestions; i++ {
		qtype := g.config.typeAt(i)
		in := attemptInput{Topic: topic, Type: qtype, Prior: prior}

		var c *candidate
		if !outage {
			c, err = g.generateOne(ctx, in, promptSkill, topicCtx)
			switch {
			case ctx.Err() != nil:
				return nil, ctx.Err()
			case isOutage(err):
				g.log.Warn("completer unavailable, serving fallback questions",
					"user_id", req.UserID, "topic", topic, "error", err)
				outage = true
			}
		}

		fallback := c == nil
		if fallback {
			c = fallbackQuestion(topic, qtype, used[qtype])
			used[qtype]++
			res.Degraded = true
		}

		class := difficulty.Classify(c.Text, topic, promptSkill)
		level := class.Label
		if req.Adaptive {
			level = target
		}
		res.Questions = append(res.Questions, &model.Question{
			Position:       i,
			Text:           c.Text,
			Type:           c.Type,
			Options:        c.Options,
			CorrectAnswer:  c.CorrectAnswer,
			Explanation:    c.Explanation,
			Difficulty:     level,
			Classification: &class,
			Fallback:       fallback,
		})
		// Newest first, matching the order History returns.
		prior = append([]string{c.Text}, prior...)
	}

	g.log.Info("quiz generated",
		"user_id", req.UserID,
		"topic", topic,
		"questions", len(res.Questions),
		"target", target,
		"degraded", res.Degraded)
	return res, nil
}

// generateOne tries up to MaxAttempts completions for one question. It
// returns (nil, err) when every attempt failed; err is the last failure.
func (g *Generator) generateOne(ctx context.Context, in attemptInput, skill model.Skill, topicContext string) (*candidate, error) {
	avoid := in.Prior
	if g.config.MaxAvoid > 0 && len(avoid) > g.config.MaxAvoid {
		avoid = avoid[:g.config.MaxAvoid]
	}
	prompt := buildPrompt(in.Topic, skill, in.Type, topicContext, avoid, g.config.ResponseMode)

	var lastErr error
	for attempt := 1; attempt <= g.config.MaxAttempts; attempt++ {
		c, err := g.attempt(ctx, prompt, in)
		if err == nil {
			return c, nil
		}
		lastErr = err
		if isOutage(err) || ctx.Err() != nil {
			return nil, err
		}
		g.log.Debug("question attempt rejected",
			"attempt", attempt,
			"type", in.Type,
			"error", err)
	}
	return nil, lastErr
}

// attempt runs one completion through parsing and the validator chain.
func (g *Generator) attempt(ctx context.Context, prompt string, in attemptInput) (*candidate, error) {
	var (
		c   *candidate
		err error
	)
	if jc, ok := g.completer.(JSONCompleter); ok && g.config.ResponseMode == ModeJSON {
		raw, cerr := jc.CompleteJSON(ctx, prompt, g.config.Sampling, QuestionSchema)
		if cerr != nil {
			return nil, &completerError{cerr}
		}
		c, err = parseJSON(raw, in.Type)
	} else {
		text, cerr := g.completer.Complete(ctx, prompt, g.config.Sampling)
		if cerr != nil {
			return nil, &completerError{cerr}
		}
		if rerr := g.screen(text); rerr != nil {
			return nil, rerr
		}
		c, err = parseText(text, in.Type)
	}
	if err != nil {
		return nil, err
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(c, in); verr != nil {
			return nil, verr
		}
	}
	return c, nil
}

// screen rejects completions that are too short or report an error.
func (g *Generator) screen(text string) error {
	if len(text) < g.config.MinResponseLength {
		return fmt.Errorf("%w: %d characters", errRejected, len(text))
	}
	lower := strings.ToLower(text)
	for _, p := range errorPrefixes {
		if strings.HasPrefix(lower, p) {
			return fmt.Errorf("%w: starts with %q", errRejected, p)
		}
	}
	for _, s := range errorSentinels {
		if strings.Contains(lower, s) {
			return fmt.Errorf("%w: contains %q", errRejected, s)
		}
	}
	return nil
}
