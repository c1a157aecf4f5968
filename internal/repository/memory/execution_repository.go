package memory

import (
	"time"

	"orchestration-agent/internal/entity"

	"github.com/patrickmn/go-cache"
)

// ExecutionRepository tracks orchestrations that are still running.
type ExecutionRepository struct {
	cache *cache.Cache
}

func NewExecutionRepository() *ExecutionRepository {
	// Entries outlive any sane request; the service deletes them on completion.
	c := cache.New(30*time.Minute, 5*time.Minute)
	return &ExecutionRepository{
		cache: c,
	}
}

func (r *ExecutionRepository) Save(status *entity.ExecutionStatus) {
	r.cache.Set(status.ExecutionId, *status, cache.DefaultExpiration)
}

// Get returns a copy so callers cannot race with the running orchestration.
func (r *ExecutionRepository) Get(executionID string) (*entity.ExecutionStatus, bool) {
	if x, found := r.cache.Get(executionID); found {
		status := x.(entity.ExecutionStatus)
		return &status, true
	}
	return nil, false
}

func (r *ExecutionRepository) Delete(executionID string) {
	r.cache.Delete(executionID)
}
