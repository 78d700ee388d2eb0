package main

import (
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/3r453r/math-courses-sub001/audit"
)

// recentRecords 按时间倒序读取最近的审计记录。
func recentRecords(path string, limit int, logger *zap.Logger) ([]audit.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audit db not found: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	var records []audit.Record
	if err := db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	logger.Debug("audit records loaded", zap.Int("count", len(records)))
	return records, nil
}
