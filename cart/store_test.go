package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
)

func setupTestKV(t *testing.T) *GormKV {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.LocalValue{}))
	return NewGormKV(db)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      []int
		canonical bool
		wantErr   bool
	}{
		{name: "canonical", raw: `[1,2,3]`, want: []int{1, 2, 3}, canonical: true},
		{name: "empty", raw: `[]`, want: []int{}, canonical: true},
		{name: "legacy qty objects", raw: `[{"id":3,"qty":2},{"id":3,"qty":1},{"id":4,"qty":1}]`, want: []int{3, 4}},
		{name: "duplicates", raw: `[5,5,2,5]`, want: []int{5, 2}},
		{name: "numeric strings", raw: `["7"," 8",7]`, want: []int{7, 8}},
		{name: "junk dropped", raw: `[1,null,"x",{"qty":2},-4,2.5,2]`, want: []int{1, 2}},
		{name: "not an array", raw: `{"id":1}`, wantErr: true},
		{name: "garbage", raw: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, canonical, err := Normalize([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.canonical, canonical)
		})
	}
}

func TestAddIsIdempotent(t *testing.T) {
	store := NewStore(setupTestKV(t))
	ctx := context.Background()

	items, changed, err := store.Add(ctx, "dev-1", 10)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{10}, items)

	items, changed, err = store.Add(ctx, "dev-1", 10)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []int{10}, items)

	_, _, err = store.Add(ctx, "dev-1", 11)
	require.NoError(t, err)

	items, err = store.Items(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, items)

	_, _, err = store.Add(ctx, "dev-1", 0)
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	store.Add(ctx, "dev", 1)
	store.Add(ctx, "dev", 2)
	store.Add(ctx, "dev", 3)

	items, changed, err := store.Remove(ctx, "dev", 2)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{1, 3}, items)

	items, changed, err = store.Remove(ctx, "dev", 42)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []int{1, 3}, items)
}

func TestDevicesAreIsolated(t *testing.T) {
	store := NewStore(setupTestKV(t))
	ctx := context.Background()

	store.Add(ctx, "a", 1)
	store.Add(ctx, "b", 2)

	a, _ := store.Items(ctx, "a")
	b, _ := store.Items(ctx, "b")
	assert.Equal(t, []int{1}, a)
	assert.Equal(t, []int{2}, b)
}

func TestLegacyCartRewrittenOnLoad(t *testing.T) {
	kv := setupTestKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "dev", models.KeyCart, `[{"id":3,"qty":2},{"id":3,"qty":1},{"id":4,"qty":1}]`))

	store := NewStore(kv)
	items, err := store.Items(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, items)

	raw, ok, err := kv.Get(ctx, "dev", models.KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[3,4]`, raw)
}

func TestUnreadableCartIsEmpty(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	kv.Set(ctx, "dev", models.KeyCart, `{broken`)

	store := NewStore(kv)
	items, err := store.Items(ctx, "dev")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, changed, err := store.Add(ctx, "dev", 9)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{9}, items)
}

func TestSubscribersSeeChanges(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	changes, cancel := store.Subscribe(4)
	defer cancel()

	store.Add(ctx, "dev", 1)
	store.Add(ctx, "dev", 1)
	store.Remove(ctx, "dev", 1)

	select {
	case c := <-changes:
		assert.Equal(t, "dev", c.DeviceID)
		assert.Equal(t, []int{1}, c.Items)
	case <-time.After(time.Second):
		t.Fatal("expected change after add")
	}
	select {
	case c := <-changes:
		assert.Empty(t, c.Items)
	case <-time.After(time.Second):
		t.Fatal("expected change after remove")
	}
	select {
	case c := <-changes:
		t.Fatalf("repeated add must not publish, got %+v", c)
	default:
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	changes, cancel := store.Subscribe(1)
	for i := 1; i <= 5; i++ {
		_, _, err := store.Add(ctx, "dev", i)
		require.NoError(t, err)
	}

	latest := <-changes
	assert.Equal(t, []int{1, 2, 3, 4, 5}, latest.Items)

	cancel()
	cancel()
	_, open := <-changes
	assert.False(t, open)
}

func TestClear(t *testing.T) {
	store := NewStore(NewMemoryKV())
	ctx := context.Background()

	store.Add(ctx, "dev", 1)
	require.NoError(t, store.Clear(ctx, "dev"))

	items, err := store.Items(ctx, "dev")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestScopeAndLastOrder(t *testing.T) {
	store := NewStore(setupTestKV(t))
	ctx := context.Background()

	_, ok, err := store.Scope(ctx, "dev")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetScope(ctx, "dev", Scope{Kind: models.KindRoom, Number: "R2"}))
	require.NoError(t, store.SetScope(ctx, "dev", Scope{Kind: models.KindTable, Number: "7"}))

	scope, ok, err := store.Scope(ctx, "dev")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Scope{Kind: models.KindTable, Number: "7"}, scope)

	require.NoError(t, store.SetLastOrder(ctx, "dev", 55))
	id, ok, err := store.LastOrder(ctx, "dev")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 55, id)
}
