package audit_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/3r453r/math-courses-sub001/audit"
	"github.com/3r453r/math-courses-sub001/llm"
	"github.com/3r453r/math-courses-sub001/schema"
	"github.com/3r453r/math-courses-sub001/testutil/mocks"
	"github.com/3r453r/math-courses-sub001/types"
)

func newLog(sink audit.Sink, opts ...audit.Option) *audit.Log {
	return audit.NewLog(audit.Info{
		GenerationType: "lesson",
		SchemaName:     "lesson",
		Model:          "gpt-4o",
		Provider:       "openai",
		Prompt:         "generate a lesson about fractions",
	}, sink, zap.NewNop(), opts...)
}

func TestLog_FinalizeIdempotent(t *testing.T) {
	sink := mocks.NewMemorySink()
	log := newLog(sink)
	log.RecordInvocationSuccess()

	ctx := context.Background()
	first := log.Finalize(ctx)
	second := log.Finalize(ctx)

	assert.Equal(t, types.OutcomeSuccess, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, sink.Len(), "exactly one record per attempt")
}

func TestLog_SinkFailureSwallowed(t *testing.T) {
	sink := mocks.NewMemorySink()
	sink.FailWith = errors.New("disk full")
	log := newLog(sink)
	log.RecordInvocationSuccess()

	// 审计写失败绝不能影响生成结果。
	outcome := log.Finalize(context.Background())
	assert.Equal(t, types.OutcomeSuccess, outcome)
	assert.Equal(t, 0, sink.Len())
}

func TestLog_SuccessKeepsPromptHashOnly(t *testing.T) {
	sink := mocks.NewMemorySink()
	log := newLog(sink)
	log.RecordInvocationSuccess()
	log.Finalize(context.Background())

	rec := sink.Records()[0]
	assert.Equal(t, string(types.OutcomeSuccess), rec.Outcome)
	assert.NotEmpty(t, rec.PromptHash)
	assert.Empty(t, rec.PromptText, "prompt text not stored on success")
	assert.Nil(t, rec.ExpiresAt, "no clear payload, no expiry needed")
}

func TestLog_FailureKeepsDiagnosticTrail(t *testing.T) {
	sink := mocks.NewMemorySink()
	log := newLog(sink)

	raw := `{"broken": `
	log.RecordLayer0(&llm.HookReport{Result: llm.HookParseFailed}, raw)
	log.RecordLayer1(false, raw, "", []schema.Violation{
		{Path: "$.title", Code: schema.ViolationMissing, Message: "required field absent"},
	}, []schema.Diagnostic{
		{Path: "$", Code: schema.DiagSequenceDefault, Message: "defaulted"},
	})
	log.RecordLayer2(false, "deepseek-chat", nil)

	outcome := log.Finalize(context.Background())
	assert.Equal(t, types.OutcomeFailed, outcome)

	rec := sink.Records()[0]
	assert.True(t, rec.Layer0Invoked)
	assert.True(t, rec.Layer1Invoked)
	assert.True(t, rec.Layer2Invoked)
	assert.Equal(t, "deepseek-chat", rec.Layer2Model)
	assert.Equal(t, raw, rec.RawOutput)
	assert.Equal(t, len(raw), rec.RawOutputLen)
	assert.NotEmpty(t, rec.PromptText, "prompt kept for failure diagnosis")
	assert.Contains(t, rec.Violations, schema.ViolationMissing)
	assert.Contains(t, rec.Diagnostics, schema.DiagSequenceDefault)
	require.NotNil(t, rec.ExpiresAt, "clear payloads get an expiry")
}

func TestLog_LargeRawOutputRedacted(t *testing.T) {
	sink := mocks.NewMemorySink()
	log := newLog(sink, audit.WithInlineThreshold(128))

	raw := strings.Repeat("x", 4096)
	log.RecordLayer0(&llm.HookReport{Result: llm.HookParseFailed}, raw)
	log.RecordFailure(types.NewError(types.ErrMalformedOutput, "bad"))
	log.Finalize(context.Background())

	rec := sink.Records()[0]
	assert.True(t, rec.RawOutputRedacted)
	assert.Contains(t, rec.RawOutput, "[REDACTED sha256=")
	assert.Contains(t, rec.RawOutput, "len=4096")
	assert.Equal(t, audit.HashText(raw), rec.RawOutputHash)
	assert.NotContains(t, rec.RawOutput, "xxxx")
}

func TestLog_FailureErrorCapturesRawText(t *testing.T) {
	sink := mocks.NewMemorySink()
	log := newLog(sink)

	err := types.NewError(types.ErrMalformedOutput, "bad output").WithRawText(`{"x": `)
	log.RecordFailure(err)
	outcome := log.Finalize(context.Background())

	assert.Equal(t, types.OutcomeFailed, outcome)
	rec := sink.Records()[0]
	assert.Equal(t, `{"x": `, rec.RawOutput)
	assert.Contains(t, rec.FailureMessage, "bad output")
}

func TestLog_RepairedLayer0Record(t *testing.T) {
	sink := mocks.NewMemorySink()
	log := newLog(sink)

	log.RecordLayer0(&llm.HookReport{Result: llm.HookUnwrappedOnly, EnvelopeKind: "parameter"}, `{"parameter": {}}`)
	log.RecordInvocationSuccess()
	outcome := log.Finalize(context.Background())

	assert.Equal(t, types.OutcomeRepairedLayer0, outcome)
	rec := sink.Records()[0]
	assert.Equal(t, "parameter", rec.EnvelopeKind)
	assert.Equal(t, string(llm.HookUnwrappedOnly), rec.Layer0Result)
}
