package audit

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Record is the persisted audit row for one generation attempt. It is
// created once, finalized exactly once, and append-only thereafter; only
// the out-of-scope retention sweep may touch it again.
type Record struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Identifying context
	GenerationType string `gorm:"index;size:64" json:"generation_type"`
	SchemaName     string `gorm:"size:64" json:"schema_name"`
	Model          string `gorm:"size:64" json:"model"`
	Provider       string `gorm:"size:32" json:"provider"`
	UserID         string `gorm:"index;size:36" json:"user_id,omitempty"`
	CourseID       string `gorm:"index;size:36" json:"course_id,omitempty"`
	ItemID         string `gorm:"size:36" json:"item_id,omitempty"`
	Language       string `gorm:"size:16" json:"language,omitempty"`
	Difficulty     string `gorm:"size:16" json:"difficulty,omitempty"`

	// Outcome and per-layer state
	Outcome       string `gorm:"index;size:24" json:"outcome"`
	Layer0Invoked bool   `json:"layer0_invoked"`
	Layer0Result  string `gorm:"size:24" json:"layer0_result,omitempty"`
	Layer1Invoked bool   `json:"layer1_invoked"`
	Layer1Success bool   `json:"layer1_success"`
	Layer2Invoked bool   `json:"layer2_invoked"`
	Layer2Success bool   `json:"layer2_success"`
	Layer2Model   string `gorm:"size:64" json:"layer2_model,omitempty"`
	EnvelopeKind  string `gorm:"size:24" json:"envelope_kind,omitempty"`

	// Sanitized payloads
	RawOutput         string `json:"raw_output,omitempty"`
	RawOutputLen      int    `json:"raw_output_len"`
	RawOutputHash     string `gorm:"size:64" json:"raw_output_hash,omitempty"`
	RawOutputRedacted bool   `json:"raw_output_redacted"`
	PromptText        string `json:"prompt_text,omitempty"`
	PromptHash        string `gorm:"size:64" json:"prompt_hash"`
	PromptRedacted    bool   `json:"prompt_redacted"`
	PromptTokenCount  int    `json:"prompt_token_count"`

	// Diagnostics
	Violations     string `json:"violations,omitempty"`
	Diagnostics    string `json:"diagnostics,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`

	// Retention
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"`
	DurationMS int64      `json:"duration_ms"`
}

// TableName implements gorm's table naming.
func (Record) TableName() string { return "generation_logs" }

// Sink is the audit persistence collaborator. Append failures must never
// propagate to the generation being observed.
type Sink interface {
	Append(ctx context.Context, rec *Record) error
}

// GormSink persists audit records through gorm.
type GormSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormSink wraps an open gorm handle and migrates the audit table.
func NewGormSink(db *gorm.DB, logger *zap.Logger) (*GormSink, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &GormSink{
		db:     db,
		logger: logger.With(zap.String("component", "audit_sink")),
	}, nil
}

// OpenSQLiteSink opens an embedded sqlite audit store at path.
func OpenSQLiteSink(path string, logger *zap.Logger) (*GormSink, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewGormSink(db, logger)
}

// Append implements Sink.
func (s *GormSink) Append(ctx context.Context, rec *Record) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return err
	}
	s.logger.Debug("audit record appended",
		zap.String("record_id", rec.ID),
		zap.String("outcome", rec.Outcome),
	)
	return nil
}
