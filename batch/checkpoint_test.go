package batch_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/3r453r/math-courses-sub001/batch"
	"github.com/3r453r/math-courses-sub001/testutil"
)

func sampleState() *batch.State {
	st := batch.NewState()
	u := st.Unit("lesson-1")
	u.MarkDone("structure")
	u.MarkDone("item_1_content")
	u.Merge(map[string]string{"outline": "three sections", "body_1": "text"})
	u2 := st.Unit("lesson-2")
	u2.MarkDone("structure")
	u2.Merge(map[string]string{"outline": "one section"})
	return st
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := batch.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ctx := testutil.TestContext(t)

	want := sampleState()
	require.NoError(t, store.Save(ctx, "b1", want))

	got, err := store.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_MissingBatchIsEmptyState(t *testing.T) {
	store, err := batch.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	st, err := store.Load(testutil.TestContext(t), "never-saved")
	require.NoError(t, err)
	assert.Empty(t, st.Units)
	assert.False(t, st.Unit("u").IsDone("s"))
}

func TestFileStore_OverwriteKeepsLatest(t *testing.T) {
	store, err := batch.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ctx := testutil.TestContext(t)

	first := batch.NewState()
	first.Unit("u").MarkDone("s1")
	require.NoError(t, store.Save(ctx, "b1", first))

	second := batch.NewState()
	second.Unit("u").MarkDone("s1")
	second.Unit("u").MarkDone("s2")
	require.NoError(t, store.Save(ctx, "b1", second))

	got, err := store.Load(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, got.Unit("u").IsDone("s2"))
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := batch.NewRedisStore(client, 0, zap.NewNop())
	ctx := testutil.TestContext(t)

	want := sampleState()
	require.NoError(t, store.Save(ctx, "b1", want))

	got, err := store.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStore_MissingKeyIsEmptyState(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := batch.NewRedisStore(client, 0, zap.NewNop())

	st, err := store.Load(testutil.TestContext(t), "missing")
	require.NoError(t, err)
	assert.Empty(t, st.Units)
}

func TestUnitState_Helpers(t *testing.T) {
	u := batch.NewUnitState()
	assert.False(t, u.IsDone("s"))

	u.MarkDone("s")
	assert.True(t, u.IsDone("s"))

	u.Merge(map[string]string{"a": "1"})
	u.Merge(nil)
	snap := u.ArtifactsCopy()
	assert.Equal(t, map[string]string{"a": "1"}, snap)

	// 快照是副本，改它不影响原状态。
	snap["a"] = "mutated"
	assert.Equal(t, map[string]string{"a": "1"}, u.ArtifactsCopy())
}

// 检查点经文件存储往返后所有字段不变。
func TestProperty_CheckpointRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("file store round-trip preserves state", prop.ForAll(
		func(unitIDs []string, steps []string, artVals []string) bool {
			store, err := batch.NewFileStore(t.TempDir(), zap.NewNop())
			if err != nil {
				return false
			}
			ctx := testutil.TestContext(t)

			st := batch.NewState()
			for i, id := range unitIDs {
				u := st.Unit(id)
				for j, s := range steps {
					if (i+j)%2 == 0 {
						u.MarkDone(s)
					}
				}
				for j, v := range artVals {
					u.Merge(map[string]string{steps[j] + "_art": v})
				}
			}

			if err := store.Save(ctx, "prop", st); err != nil {
				return false
			}
			got, err := store.Load(ctx, "prop")
			if err != nil {
				return false
			}
			for _, id := range unitIDs {
				for _, s := range steps {
					if st.Unit(id).IsDone(s) != got.Unit(id).IsDone(s) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(3, gen.Identifier()),
		gen.SliceOfN(4, gen.Identifier()),
		gen.SliceOfN(2, gen.AlphaString()),
	))

	properties.TestingRun(t)
}
