package contract

import (
	"context"

	"orchestration-agent/internal/dto"
)

// ResultStore keeps finished orchestration responses for later lookup by execution id.
type ResultStore interface {
	Save(ctx context.Context, result *dto.OrchestrationResponse) error
	// Get returns (nil, nil) when nothing is stored under executionID.
	Get(ctx context.Context, executionID string) (*dto.OrchestrationResponse, error)
}
