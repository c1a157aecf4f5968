package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OrchestrationRun struct {
	Id                uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExecutionId       string                      `gorm:"type:varchar(100);uniqueIndex;not null"`
	AgentId           string                      `gorm:"type:varchar(100);index"`
	Prompt            string                      `gorm:"type:text;not null"`
	DocumentIds       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	ActionsTaken      datatypes.JSON              `gorm:"type:jsonb"`
	ActionCount       int                         `gorm:"default:0"`
	SucceededCount    int                         `gorm:"default:0"`
	FinalResponse     string                      `gorm:"type:text"`
	Message           string                      `gorm:"type:text"`
	Success           bool                        `gorm:"default:true"`
	PlanFallback      bool                        `gorm:"default:false"`
	SynthesisFallback bool                        `gorm:"default:false"`
	DurationMs        int64                       `gorm:"default:0"`
	CreatedAt         time.Time                   `gorm:"autoCreateTime;index"`
}

func (OrchestrationRun) TableName() string {
	return "orchestration_runs"
}
