package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/3r453r/math-courses-sub001/batch"
)

// MemoryStore 实现 batch.Store，检查点以 JSON 序列化后存在内存里，
// 和真实存储一样做深拷贝，避免测试里共享指针掩盖并发问题。
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailSaves 非零时前 N 次 Save 返回错误
	FailSaves int
	// SaveCount 统计 Save 调用次数
	SaveCount int
}

// NewMemoryStore 创建内存检查点存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load 读取检查点；批任务不存在返回空状态。
func (s *MemoryStore) Load(_ context.Context, batchID string) (*batch.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[batchID]
	if !ok {
		return batch.NewState(), nil
	}
	var st batch.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save 写入检查点。
func (s *MemoryStore) Save(_ context.Context, batchID string, st *batch.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCount++
	if s.FailSaves > 0 {
		s.FailSaves--
		return context.DeadlineExceeded
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.data[batchID] = raw
	return nil
}
