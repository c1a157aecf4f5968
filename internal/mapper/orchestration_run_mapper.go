package mapper

import (
	"encoding/json"
	"fmt"

	"orchestration-agent/internal/entity"
	"orchestration-agent/internal/model"
	"orchestration-agent/pkg/orchestration/action"

	"gorm.io/datatypes"
)

type OrchestrationRunMapper struct{}

func NewOrchestrationRunMapper() *OrchestrationRunMapper {
	return &OrchestrationRunMapper{}
}

func (m *OrchestrationRunMapper) ToEntity(mdl *model.OrchestrationRun) (*entity.OrchestrationRun, error) {
	if mdl == nil {
		return nil, nil
	}

	var outcomes []action.Outcome
	if len(mdl.ActionsTaken) > 0 {
		if err := json.Unmarshal(mdl.ActionsTaken, &outcomes); err != nil {
			return nil, fmt.Errorf("decode actions_taken of run %s: %w", mdl.ExecutionId, err)
		}
	}

	return &entity.OrchestrationRun{
		Id:                mdl.Id,
		ExecutionId:       mdl.ExecutionId,
		AgentId:           mdl.AgentId,
		Prompt:            mdl.Prompt,
		DocumentIds:       []string(mdl.DocumentIds),
		Outcomes:          outcomes,
		FinalResponse:     mdl.FinalResponse,
		Message:           mdl.Message,
		Success:           mdl.Success,
		PlanFallback:      mdl.PlanFallback,
		SynthesisFallback: mdl.SynthesisFallback,
		DurationMs:        mdl.DurationMs,
		CreatedAt:         mdl.CreatedAt,
	}, nil
}

func (m *OrchestrationRunMapper) ToModel(e *entity.OrchestrationRun) (*model.OrchestrationRun, error) {
	if e == nil {
		return nil, nil
	}

	actions, err := json.Marshal(e.Outcomes)
	if err != nil {
		return nil, err
	}

	return &model.OrchestrationRun{
		Id:                e.Id,
		ExecutionId:       e.ExecutionId,
		AgentId:           e.AgentId,
		Prompt:            e.Prompt,
		DocumentIds:       datatypes.JSONSlice[string](e.DocumentIds),
		ActionsTaken:      datatypes.JSON(actions),
		ActionCount:       len(e.Outcomes),
		SucceededCount:    e.SucceededActions(),
		FinalResponse:     e.FinalResponse,
		Message:           e.Message,
		Success:           e.Success,
		PlanFallback:      e.PlanFallback,
		SynthesisFallback: e.SynthesisFallback,
		DurationMs:        e.DurationMs,
		CreatedAt:         e.CreatedAt,
	}, nil
}

func (m *OrchestrationRunMapper) ToEntities(models []*model.OrchestrationRun) ([]*entity.OrchestrationRun, error) {
	entities := make([]*entity.OrchestrationRun, 0, len(models))
	for _, mdl := range models {
		e, err := m.ToEntity(mdl)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
