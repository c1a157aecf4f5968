package mapper

import (
	"testing"

	"orchestration-agent/internal/entity"
	"orchestration-agent/internal/model"
	"orchestration-agent/pkg/orchestration/action"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestOrchestrationRunMapper_ModelCarriesCounts(t *testing.T) {
	m := NewOrchestrationRunMapper()
	run := &entity.OrchestrationRun{
		Id:          uuid.New(),
		ExecutionId: "exec-1",
		Prompt:      "q",
		DocumentIds: []string{"u_p_d1"},
		Outcomes: []action.Outcome{
			action.Succeeded(action.New(action.TypeExtract, "parties", []string{"Contract A"}), "A and B"),
			action.Failed(action.New(action.TypeSearch, "norms", nil), "Search failed: timeout"),
		},
	}

	mdl, err := m.ToModel(run)
	require.NoError(t, err)
	assert.Equal(t, 2, mdl.ActionCount)
	assert.Equal(t, 1, mdl.SucceededCount)

	back, err := m.ToEntity(mdl)
	require.NoError(t, err)
	assert.Equal(t, run.Outcomes, back.Outcomes)
	assert.Equal(t, run.DocumentIds, back.DocumentIds)
}

func TestOrchestrationRunMapper_CorruptOutcomesAreAnError(t *testing.T) {
	m := NewOrchestrationRunMapper()
	mdl := &model.OrchestrationRun{ExecutionId: "exec-9", ActionsTaken: datatypes.JSON(`{"truncated":`)}

	run, err := m.ToEntity(mdl)
	assert.Nil(t, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec-9")

	_, err = m.ToEntities([]*model.OrchestrationRun{{ExecutionId: "exec-8"}, mdl})
	assert.Error(t, err)
}
