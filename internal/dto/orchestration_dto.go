package dto

import (
	"time"

	"orchestration-agent/pkg/orchestration/action"
)

// OrchestrationRequest accepts both snake_case and camelCase document ids;
// callers going through the wrapper send documentIds.
type OrchestrationRequest struct {
	DocumentIDs      []string `json:"document_ids" validate:"required,min=1,dive,required"`
	DocumentIDsCamel []string `json:"documentIds,omitempty" validate:"-"`
	Prompt           string   `json:"prompt" validate:"required,notblank"`
	AgentID          string   `json:"agent_id"`
	ExecutionID      string   `json:"execution_id"`
}

// Normalize folds the camelCase alias into DocumentIDs.
func (r *OrchestrationRequest) Normalize() {
	if len(r.DocumentIDs) == 0 && len(r.DocumentIDsCamel) > 0 {
		r.DocumentIDs = r.DocumentIDsCamel
	}
	r.DocumentIDsCamel = nil
}

type OrchestrationResponse struct {
	Success       bool             `json:"success"`
	AgentID       string           `json:"agent_id"`
	ExecutionID   string           `json:"execution_id"`
	Prompt        string           `json:"prompt"`
	DocumentIDs   []string         `json:"document_ids"`
	ActionsTaken  []action.Outcome `json:"actions_taken"`
	FinalResponse string           `json:"final_response"`
	Message       string           `json:"message"`
}

// ExecutionStatusResponse describes a run that has not finished yet.
type ExecutionStatusResponse struct {
	ExecutionID      string `json:"execution_id"`
	Stage            string `json:"stage"`
	CompletedActions int    `json:"completed_actions"`
	TotalActions     int    `json:"total_actions"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	LLMConfigured bool   `json:"llm_configured"`
	ServiceReady  bool   `json:"service_ready"`
}

// OrchestrationCompletedMessage travels over the in-process bus once a run finished.
type OrchestrationCompletedMessage struct {
	Result            OrchestrationResponse `json:"result"`
	PlanFallback      bool                  `json:"plan_fallback"`
	SynthesisFallback bool                  `json:"synthesis_fallback"`
	DurationMs        int64                 `json:"duration_ms"`
	CompletedAt       time.Time             `json:"completed_at"`
}

// ListRunsRequest filters the audit history. Since is RFC 3339.
type ListRunsRequest struct {
	AgentID string `query:"agent_id"`
	Since   string `query:"since"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type OrchestrationRunSummary struct {
	ExecutionID       string    `json:"execution_id"`
	AgentID           string    `json:"agent_id"`
	Prompt            string    `json:"prompt"`
	DocumentIDs       []string  `json:"document_ids"`
	ActionsExecuted   int       `json:"actions_executed"`
	ActionsSucceeded  int       `json:"actions_succeeded"`
	PlanFallback      bool      `json:"plan_fallback"`
	SynthesisFallback bool      `json:"synthesis_fallback"`
	DurationMs        int64     `json:"duration_ms"`
	CreatedAt         time.Time `json:"created_at"`
}
