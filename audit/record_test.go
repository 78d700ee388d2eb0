package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSQLiteSink_AppendAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	sink, err := OpenSQLiteSink(path, zap.NewNop())
	require.NoError(t, err)

	exp := time.Now().Add(30 * 24 * time.Hour)
	rec := &Record{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now(),
		GenerationType: "lesson",
		SchemaName:     "lesson",
		Model:          "gpt-4o",
		Provider:       "openai",
		Outcome:        "repaired_layer1",
		Layer0Invoked:  true,
		Layer1Invoked:  true,
		Layer1Success:  true,
		RawOutput:      `{"title": "t"}`,
		RawOutputLen:   14,
		RawOutputHash:  HashText(`{"title": "t"}`),
		PromptHash:     HashText("prompt"),
		ExpiresAt:      &exp,
		DurationMS:     412,
	}
	require.NoError(t, sink.Append(context.Background(), rec))

	var got Record
	require.NoError(t, sink.db.First(&got, "id = ?", rec.ID).Error)
	assert.Equal(t, "repaired_layer1", got.Outcome)
	assert.Equal(t, rec.RawOutputHash, got.RawOutputHash)
	assert.True(t, got.Layer1Success)
	require.NotNil(t, got.ExpiresAt)
}

func TestSQLiteSink_TableName(t *testing.T) {
	assert.Equal(t, "generation_logs", Record{}.TableName())
}
