package contract

import (
	"context"

	"orchestration-agent/internal/entity"
	"orchestration-agent/internal/repository/specification"
)

type OrchestrationRunRepository interface {
	Create(ctx context.Context, run *entity.OrchestrationRun) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OrchestrationRun, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OrchestrationRun, error)
}
