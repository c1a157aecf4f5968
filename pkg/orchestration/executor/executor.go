package executor

import (
	"context"
	"fmt"
	"time"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/orchestration/action"
	"orchestration-agent/pkg/orchestration/document"
)

// Capabilities is the set of downstream agents an action can be dispatched to.
type Capabilities interface {
	Search(ctx context.Context, query string) (string, error)
	Extract(ctx context.Context, documentIDs []string, query string) (string, error)
	Generate(ctx context.Context, documentIDs []string, query string, fullDoc bool) (string, error)
}

// Observer is called after every action, in plan order.
type Observer func(index, total int, outcome action.Outcome)

type Executor struct {
	capabilities  Capabilities
	logger        logger.ILogger
	actionTimeout time.Duration
}

func NewExecutor(capabilities Capabilities, log logger.ILogger, actionTimeout time.Duration) *Executor {
	return &Executor{
		capabilities:  capabilities,
		logger:        log,
		actionTimeout: actionTimeout,
	}
}

// Execute runs the plan sequentially. It always returns one outcome per
// action; a failing action never stops the ones after it.
func (e *Executor) Execute(ctx context.Context, plan []action.Action, docs []document.Context, observe Observer) []action.Outcome {
	outcomes := make([]action.Outcome, 0, len(plan))

	for i, a := range plan {
		outcome := e.run(ctx, a, docs)
		outcomes = append(outcomes, outcome)

		e.logger.Info("EXECUTOR", "Action finished", map[string]interface{}{
			"index":   i,
			"type":    a.TypeName(),
			"success": outcome.Success,
		})
		if observe != nil {
			observe(i, len(plan), outcome)
		}
	}
	return outcomes
}

func (e *Executor) run(ctx context.Context, a action.Action, docs []document.Context) action.Outcome {
	titles := a.DocumentTitles
	if len(titles) == 0 {
		titles = document.Titles(docs)
	}

	callCtx := ctx
	if e.actionTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.actionTimeout)
		defer cancel()
	}

	switch a.Type {
	case action.TypeSearch:
		return e.outcome(a, "Search", func() (string, error) {
			return e.capabilities.Search(callCtx, a.Query)
		})

	case action.TypeExtract:
		ids := ResolveTitles(titles, docs)
		if len(ids) == 0 {
			return action.Failed(a, "No valid documents found for extraction")
		}
		return e.outcome(a, "Extraction", func() (string, error) {
			return e.capabilities.Extract(callCtx, ids, a.Query)
		})

	case action.TypeGenerate:
		ids := ResolveTitles(titles, docs)
		if len(ids) == 0 {
			return action.Failed(a, "No valid documents found for generation")
		}
		return e.outcome(a, "Generation", func() (string, error) {
			return e.capabilities.Generate(callCtx, ids, a.Query, a.FullDoc)
		})

	case action.TypeUnknown:
		return action.Failed(a, fmt.Sprintf("Unknown action type: %s", a.TypeName()))
	}
	return action.Failed(a, fmt.Sprintf("Unhandled action type: %d", a.Type))
}

// outcome runs call and records its result. A panicking capability becomes a
// failed outcome like any other error.
func (e *Executor) outcome(a action.Action, capability string, call func() (string, error)) (out action.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("EXECUTOR", "Action panicked", map[string]interface{}{
				"type":  a.TypeName(),
				"query": a.Query,
				"panic": fmt.Sprint(r),
			})
			out = action.Failed(a, fmt.Sprintf("%s failed: %v", capability, r))
		}
	}()

	result, err := call()
	if err != nil {
		e.logger.Warn("EXECUTOR", "Action failed", map[string]interface{}{
			"type":  a.TypeName(),
			"query": a.Query,
			"error": err.Error(),
		})
		return action.Failed(a, fmt.Sprintf("%s failed: %v", capability, err))
	}
	return action.Succeeded(a, result)
}
