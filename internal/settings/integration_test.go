//go:build integration

package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapisite/internal/catalog"
	"yapisite/internal/platform/logger"
	"yapisite/pkg/testutil/containers"
)

func TestRedisCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	cache := NewRedisCache(rc.Client, "yapi:test:")

	_, ok, err := cache.Get(ctx, "settings")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "settings", []byte(`{"phone":"1"}`), time.Minute))
	value, ok, err := cache.Get(ctx, "settings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"phone":"1"}`, string(value))

	require.NoError(t, cache.Delete(ctx, "settings"))
	_, ok, err = cache.Get(ctx, "settings")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStoreThroughCachedReader(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Truncate(t, "site_settings", "products", "categories")
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pg.DB)
	empty, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Phone)

	require.NoError(t, store.Save(ctx, sampleSettings()))
	categories := catalog.NewPostgresCategoryStore(pg.DB)
	require.NoError(t, catalog.Seed(ctx, categories, catalog.NewPostgresProductStore(pg.DB)))

	reader := NewCachedReader(NewDirectReader(store, categories), NewRedisCache(rc.Client, "yapi:test:"), time.Minute,
		WithLogger(logger.Discard()))

	s, err := reader.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Yapi Formwork", s.SiteName.Get("en"))
	assert.Equal(t, "https://instagram.com/yapi", s.SocialLinks["instagram"])

	cats, err := reader.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)

	updated := sampleSettings()
	updated.Phone = "+90 555"
	require.NoError(t, store.Save(ctx, updated))

	s, err = reader.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+90 212 000 00 00", s.Phone, "served from cache until invalidated")

	require.NoError(t, reader.Invalidate(ctx))
	s, err = reader.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+90 555", s.Phone)
}
