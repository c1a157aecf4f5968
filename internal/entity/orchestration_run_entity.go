package entity

import (
	"time"

	"orchestration-agent/pkg/orchestration/action"

	"github.com/google/uuid"
)

// OrchestrationRun is the audit record of one finished orchestration.
type OrchestrationRun struct {
	Id                uuid.UUID
	ExecutionId       string
	AgentId           string
	Prompt            string
	DocumentIds       []string
	Outcomes          []action.Outcome
	FinalResponse     string
	Message           string
	Success           bool
	PlanFallback      bool // planner substituted the synthetic plan
	SynthesisFallback bool // final answer is the templated one
	DurationMs        int64
	CreatedAt         time.Time
}

func (r *OrchestrationRun) SucceededActions() int {
	return action.CountSucceeded(r.Outcomes)
}
