package entity

import "time"

type ExecutionStage string

const (
	StageFetchingContext ExecutionStage = "fetching_context"
	StagePlanning        ExecutionStage = "planning"
	StageExecuting       ExecutionStage = "executing"
	StageFetchingFull    ExecutionStage = "fetching_documents"
	StageSynthesizing    ExecutionStage = "synthesizing"
	StageCompleted       ExecutionStage = "completed"
	StageFailed          ExecutionStage = "failed"
)

// ExecutionStatus is the in-flight view of a running orchestration.
type ExecutionStatus struct {
	ExecutionId      string
	Stage            ExecutionStage
	CompletedActions int
	TotalActions     int
	StartedAt        time.Time
}
