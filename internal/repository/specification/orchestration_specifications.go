package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByExecutionID struct {
	ExecutionID string
}

func (s ByExecutionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("execution_id = ?", s.ExecutionID)
}

type ByAgentID struct {
	AgentID string
}

func (s ByAgentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("agent_id = ?", s.AgentID)
}

// CreatedSince keeps runs created at or after Since.
type CreatedSince struct {
	Since time.Time
}

func (s CreatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Since)
}
