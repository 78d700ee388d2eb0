package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore 以 JSON 文件保存检查点，每个批任务一个文件。
// 写入走临时文件加重命名，保证断电也不会留下半个检查点。
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore 创建文件检查点存储。
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With(zap.String("store", "file_checkpoint")),
	}, nil
}

// Load 读取检查点；文件不存在返回空状态。
func (s *FileStore) Load(_ context.Context, batchID string) (*State, error) {
	data, err := os.ReadFile(s.path(batchID))
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &st, nil
}

// Save 原子写入检查点。
func (s *FileStore) Save(_ context.Context, batchID string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	target := s.path(batchID)
	tmp, err := os.CreateTemp(s.dir, ".ckpt-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	s.logger.Debug("checkpoint saved", zap.String("batch_id", batchID))
	return nil
}

func (s *FileStore) path(batchID string) string {
	return filepath.Join(s.dir, batchID+".json")
}
