package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orchestration-agent/internal/dto"
	"orchestration-agent/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "orchestration:result:"

type RedisResultStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisResultStore(rdb *redis.Client, ttl time.Duration) contract.ResultStore {
	return &RedisResultStore{rdb: rdb, ttl: ttl}
}

func resultKey(executionID string) string {
	return resultKeyPrefix + executionID
}

func (s *RedisResultStore) Save(ctx context.Context, result *dto.OrchestrationResponse) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.rdb.Set(ctx, resultKey(result.ExecutionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisResultStore) Get(ctx context.Context, executionID string) (*dto.OrchestrationResponse, error) {
	payload, err := s.rdb.Get(ctx, resultKey(executionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var out dto.OrchestrationResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &out, nil
}
