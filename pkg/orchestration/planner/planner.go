package planner

import (
	"context"
	"fmt"
	"strings"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/llm"
	"orchestration-agent/pkg/orchestration/action"
	"orchestration-agent/pkg/orchestration/document"
)

const (
	DefaultMaxAttempts = 3
	fallbackTitleCount = 2
)

// Plan is the planner's output. Fallback is set when the model never produced
// a usable action list and the synthetic extract action was substituted.
type Plan struct {
	Actions  []action.Action
	Fallback bool
	Attempts int
}

// Planner turns a user request plus document previews into a validated plan.
type Planner struct {
	generator   llm.TextGenerator
	composer    *PromptComposer
	logger      logger.ILogger
	maxAttempts int
}

type Option func(*Planner)

func WithMaxAttempts(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func NewPlanner(generator llm.TextGenerator, log logger.ILogger, opts ...Option) *Planner {
	p := &Planner{
		generator:   generator,
		composer:    NewPromptComposer(),
		logger:      log,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan never returns an empty plan. The only error is a failed generation
// call (for a rotator, rotation.ErrProviderExhausted).
func (p *Planner) Plan(ctx context.Context, userQuery string, docs []document.Context) (Plan, error) {
	prompt := p.composer.Compose(userQuery, docs)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		raw, err := p.generator.Generate(ctx, prompt)
		if err != nil {
			return Plan{}, fmt.Errorf("planning call failed: %w", err)
		}

		actions, strategy, ok := ExtractActions(raw)
		if ok {
			p.logger.Info("PLANNER", "Plan extracted", map[string]interface{}{
				"attempt":  attempt,
				"strategy": strategy,
				"actions":  len(actions),
			})
			return Plan{Actions: actions, Attempts: attempt}, nil
		}

		p.logger.Warn("PLANNER", "No valid actions in planning response", map[string]interface{}{
			"attempt":  attempt,
			"response": truncate(raw, 300),
		})
	}

	p.logger.Warn("PLANNER", "Falling back to synthetic extract plan", map[string]interface{}{
		"attempts": p.maxAttempts,
	})
	return Plan{
		Actions:  []action.Action{FallbackAction(userQuery, docs)},
		Fallback: true,
		Attempts: p.maxAttempts,
	}, nil
}

// FallbackAction is the deterministic plan used when the model never produced one.
func FallbackAction(userQuery string, docs []document.Context) action.Action {
	titles := document.Titles(docs)
	if len(titles) > fallbackTitleCount {
		titles = titles[:fallbackTitleCount]
	}
	return action.New(action.TypeExtract, fmt.Sprintf("Extract the information needed to answer: %s", strings.TrimSpace(userQuery)), titles)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
