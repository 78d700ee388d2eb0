package textrepair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFenced(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json fence",
			input: "Here is the result:\n```json\n{\"a\": 1}\n```\nHope that helps!",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "prose around object",
			input: `Sure! The answer is {"a": 1} as requested.`,
			want:  `{"a": 1}`,
		},
		{
			name:  "prose around array",
			input: `The items are ["x", "y"] in order.`,
			want:  `["x", "y"]`,
		},
		{
			name:  "no structure passes through",
			input: "just a sentence",
			want:  "just a sentence",
		},
		{
			name:  "fence without trailing newline",
			input: "```json\n{\"a\": 1}```",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFenced(tt.input))
		})
	}
}

func TestUnwrapEnvelope(t *testing.T) {
	t.Run("known wrapper key", func(t *testing.T) {
		inner, kind, ok := UnwrapEnvelope(map[string]any{
			"parameter": map[string]any{"title": "t"},
		})
		require.True(t, ok)
		assert.Equal(t, "parameter", kind)
		assert.Equal(t, map[string]any{"title": "t"}, inner)
	})

	t.Run("wrapper key case insensitive", func(t *testing.T) {
		_, kind, ok := UnwrapEnvelope(map[string]any{"Response": "x"})
		require.True(t, ok)
		assert.Equal(t, "Response", kind)
	})

	t.Run("two keys is not an envelope", func(t *testing.T) {
		v := map[string]any{"result": 1, "extra": 2}
		inner, _, ok := UnwrapEnvelope(v)
		assert.False(t, ok)
		assert.Equal(t, v, inner)
	})

	t.Run("unknown single key is not an envelope", func(t *testing.T) {
		_, _, ok := UnwrapEnvelope(map[string]any{"payload": 1})
		assert.False(t, ok)
	})

	t.Run("non-object is not an envelope", func(t *testing.T) {
		_, _, ok := UnwrapEnvelope([]any{1, 2})
		assert.False(t, ok)
	})
}

func TestLenientParse(t *testing.T) {
	t.Run("valid json direct", func(t *testing.T) {
		v, err := LenientParse(`{"a": 1}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, v)
	})

	t.Run("fenced json", func(t *testing.T) {
		v, err := LenientParse("```json\n{\"a\": 1}\n```")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, v)
	})

	t.Run("unescaped quotes repaired", func(t *testing.T) {
		v, err := LenientParse(`{"text": "solve "x" now"}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"text": `solve "x" now`}, v)
	})

	t.Run("fence plus bad quotes", func(t *testing.T) {
		v, err := LenientParse("```json\n{\"q\": \"find \"y\" value\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"q": `find "y" value`}, v)
	})

	t.Run("hopeless input errors", func(t *testing.T) {
		_, err := LenientParse("not json at all")
		assert.Error(t, err)
	})
}
