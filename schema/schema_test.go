package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaBuilders(t *testing.T) {
	s := lessonSchema()
	assert.Equal(t, KindRecord, s.Kind)
	assert.Equal(t, "lesson", s.Name)

	f, ok := s.FieldByName("difficulty")
	require.True(t, ok)
	assert.Equal(t, KindEnum, f.Schema.Kind)
	assert.Equal(t, []string{"easy", "medium", "hard"}, f.Schema.Options)

	_, ok = s.FieldByName("nonexistent")
	assert.False(t, ok)
}

func TestSchemaUnwrap(t *testing.T) {
	s := Optional(WithDefault(Number(), 0))
	assert.Equal(t, KindNumber, s.Unwrap().Kind)
	assert.True(t, s.IsOptional())
	assert.False(t, Number().IsOptional())
}

func TestSchemaClone_Independent(t *testing.T) {
	orig := lessonSchema()
	clone := orig.Clone()

	require.Equal(t, orig, clone)

	clone.Fields[1].Schema.Options[0] = "mutated"
	assert.Equal(t, "easy", orig.Fields[1].Schema.Options[0])
}

func TestSchemaToJSON_RoundTripsKinds(t *testing.T) {
	data, err := lessonSchema().ToJSONIndent()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "record"`)
	assert.Contains(t, string(data), `"kind": "enum"`)
	assert.Contains(t, string(data), `"kind": "sequence"`)
}
