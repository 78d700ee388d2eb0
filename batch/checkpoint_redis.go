package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "mathgen:batch:"

// RedisStore 把检查点放在 Redis，方便多个工作进程共享同一个批任务。
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore 创建 Redis 检查点存储。ttl 为零表示永不过期。
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("store", "redis_checkpoint")),
	}
}

// Load 读取检查点；键不存在返回空状态。
func (s *RedisStore) Load(ctx context.Context, batchID string) (*State, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+batchID).Bytes()
	if err == redis.Nil {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &st, nil
}

// Save 写入检查点。
func (s *RedisStore) Save(ctx context.Context, batchID string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+batchID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	s.logger.Debug("checkpoint saved", zap.String("batch_id", batchID))
	return nil
}
