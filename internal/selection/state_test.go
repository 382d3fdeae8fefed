package selection

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/posfront/internal/variants"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func list(ids ...string) []variants.ProductVariant {
	out := make([]variants.ProductVariant, 0, len(ids))
	for _, id := range ids {
		out = append(out, variants.ProductVariant{ID: id, ProductID: "p1"})
	}
	return out
}

func TestReduceVariantsLoadedDiscardsOlderSequence(t *testing.T) {
	state := Reduce(State{}, VariantsLoaded{ProductID: "p1", Seq: 2, Items: list("new")})
	state = Reduce(state, VariantsLoaded{ProductID: "p1", Seq: 1, Items: list("old")})

	items, ok := state.VariantsFor("p1")
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, uint64(2), state.Variants["p1"].Seq)
}

func TestReduceVariantsLoadedDropsVanishedSelection(t *testing.T) {
	state := Reduce(State{}, VariantSelected{ProductID: "p1", VariantID: "v2"})
	state = Reduce(state, VariantsLoaded{ProductID: "p1", Seq: 1, Items: list("v1")})
	assert.Nil(t, state.SelectedFor("p1"))

	state = Reduce(state, VariantSelected{ProductID: "p1", VariantID: "v1"})
	state = Reduce(state, VariantsLoaded{ProductID: "p1", Seq: 2, Items: list("v1", "v3")})
	require.NotNil(t, state.SelectedFor("p1"))
	assert.Equal(t, "v1", *state.SelectedFor("p1"))
}

func TestReduceVariantRemoved(t *testing.T) {
	state := Reduce(State{}, VariantsLoaded{ProductID: "p1", Seq: 1, Items: list("v1", "v2")})
	state = Reduce(state, VariantSelected{ProductID: "p1", VariantID: "v2"})
	state = Reduce(state, VariantRemoved{ProductID: "p1", VariantID: "v2"})

	items, _ := state.VariantsFor("p1")
	require.Len(t, items, 1)
	assert.Equal(t, "v1", items[0].ID)
	assert.Nil(t, state.SelectedFor("p1"))
}

func TestReduceCompanySelectedResets(t *testing.T) {
	state := Reduce(State{}, CompanySelected{CompanyID: "co-1"})
	state = Reduce(state, VariantSelected{ProductID: "p1", VariantID: "v1"})

	same := Reduce(state, CompanySelected{CompanyID: "co-1"})
	assert.NotNil(t, same.SelectedFor("p1"))

	switched := Reduce(state, CompanySelected{CompanyID: "co-2"})
	assert.Equal(t, "co-2", switched.CompanyID)
	assert.Nil(t, switched.SelectedFor("p1"))
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := Reduce(State{}, VariantSelected{ProductID: "p1", VariantID: "v1"})
	_ = Reduce(before, VariantCleared{ProductID: "p1"})
	_ = Reduce(before, VariantSelected{ProductID: "p1", VariantID: "v9"})
	require.NotNil(t, before.SelectedFor("p1"))
	assert.Equal(t, "v1", *before.SelectedFor("p1"))
}

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) SelectionKey(sessionID string) string {
	return "pos:selection:" + sessionID
}

func TestRedisStoreRoundTrip(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
	store, err := NewRedisStore(fake, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, empty.CompanyID)

	state := Reduce(State{CompanyID: "co-1"}, VariantsLoaded{ProductID: "p1", Seq: 3, Items: list("v1")})
	require.NoError(t, store.Save(ctx, "sess-1", state))
	assert.Equal(t, time.Hour, fake.ttls["pos:selection:sess-1"])

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "co-1", loaded.CompanyID)
	assert.Equal(t, uint64(3), loaded.Variants["p1"].Seq)
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	state := Reduce(State{}, VariantSelected{ProductID: "p1", VariantID: "v1"})
	require.NoError(t, store.Save(ctx, "sess-1", state))

	state.Selected["p1"] = "mutated"
	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "v1", *loaded.SelectedFor("p1"))
}
