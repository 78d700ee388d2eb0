package mocks

import (
	"context"
	"sync"

	"github.com/3r453r/math-courses-sub001/audit"
)

// MemorySink 实现 audit.Sink，把记录留在内存里供断言。
type MemorySink struct {
	mu      sync.Mutex
	records []*audit.Record

	// FailWith 非空时 Append 返回该错误，用来测试写失败被吞掉
	FailWith error
}

// NewMemorySink 创建内存 Sink。
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append 保存记录。
func (s *MemorySink) Append(_ context.Context, rec *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.records = append(s.records, rec)
	return nil
}

// Records 返回已保存记录的副本。
func (s *MemorySink) Records() []*audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*audit.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len 返回记录条数。
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
