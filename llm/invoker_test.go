package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3r453r/math-courses-sub001/schema"
)

func TestNewRepairHook(t *testing.T) {
	s := schema.Record(schema.F("a", schema.Number())).Named("test")
	hook := NewRepairHook(s)
	parseErr := errors.New("invalid character 'x'")

	t.Run("lenient parse recovers bad quotes", func(t *testing.T) {
		v, report := hook(`{"text": "solve "x" now", "a": 1}`, parseErr)
		require.NotNil(t, v)
		assert.Equal(t, HookCoercionSuccess, report.Result)
		assert.True(t, report.Accepted())
		assert.Equal(t, parseErr.Error(), report.OriginalError)
	})

	t.Run("envelope unwrapped", func(t *testing.T) {
		v, report := hook(`{"parameter": {"a": 1}}`, parseErr)
		assert.Equal(t, map[string]any{"a": float64(1)}, v)
		assert.Equal(t, HookUnwrappedOnly, report.Result)
		assert.Equal(t, "parameter", report.EnvelopeKind)
		assert.True(t, report.Accepted())
	})

	t.Run("unparseable text reports failure", func(t *testing.T) {
		v, report := hook("total garbage", parseErr)
		assert.Nil(t, v)
		assert.Equal(t, HookParseFailed, report.Result)
		assert.False(t, report.Accepted())
	})

	t.Run("null payload reported distinctly", func(t *testing.T) {
		v, report := hook("null", parseErr)
		assert.Nil(t, v)
		assert.Equal(t, HookReturnedNull, report.Result)
		assert.False(t, report.Accepted())
	})
}

func TestHookReport_Accepted(t *testing.T) {
	assert.False(t, (*HookReport)(nil).Accepted())
	assert.True(t, (&HookReport{Result: HookCoercionSuccess}).Accepted())
	assert.True(t, (&HookReport{Result: HookUnwrappedOnly}).Accepted())
	assert.False(t, (&HookReport{Result: HookParseFailed}).Accepted())
	assert.False(t, (&HookReport{Result: HookReturnedNull}).Accepted())
}
