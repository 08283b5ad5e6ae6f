package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(source models.SourceName, n int) models.OutfitRecord {
	return models.OutfitRecord{
		Title:    fmt.Sprintf("%s look %d", source, n),
		ImageURL: fmt.Sprintf("https://img.example.com/%s/%d.jpg", source, n),
		Price:    models.StringPtr("$20.00"),
		Category: models.CategoryTop,
		Source:   source.Provenance(),
		Link:     fmt.Sprintf("https://example.com/%s/%d", source, n),
	}
}

func newTestStore(t *testing.T) *CacheStore {
	t.Helper()
	return NewCacheStore(filepath.Join(t.TempDir(), "data", "trending.json"))
}

func TestCacheStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)

	records := []models.OutfitRecord{record(models.SourceHollister, 1), record(models.SourceHollister, 2)}
	require.NoError(t, store.Save(models.SourceHollister, records))

	assert.Equal(t, records, store.Load(models.SourceHollister))
	assert.Empty(t, store.Load(models.SourceHM), "other sources are untouched")

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")
}

func TestCacheStore_SaveReplacesEntry(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(models.SourceHM, []models.OutfitRecord{record(models.SourceHM, 1), record(models.SourceHM, 2)}))
	first, ok := store.Entry(models.SourceHM)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Save(models.SourceHM, []models.OutfitRecord{record(models.SourceHM, 3)}))

	second, ok := store.Entry(models.SourceHM)
	require.True(t, ok)
	require.Len(t, second.Data, 1)
	assert.Equal(t, "hm look 3", second.Data[0].Title)
	assert.True(t, second.LastUpdated.After(first.LastUpdated))
}

func TestCacheStore_SaveNil(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(models.SourcePinterest, nil))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data": []`)
	assert.NotNil(t, store.Load(models.SourcePinterest))
}

func TestCacheStore_MissingFile(t *testing.T) {
	store := newTestStore(t)

	assert.Empty(t, store.Load(models.SourcePinterest))

	_, ok := store.Entry(models.SourcePinterest)
	assert.False(t, ok)

	stats, err := store.Stats()
	assert.NoError(t, err)
	assert.Empty(t, stats)
}

func TestCacheStore_MalformedFile(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	assert.Empty(t, store.Load(models.SourceHollister))

	stats, err := store.Stats()
	assert.Error(t, err)
	assert.Empty(t, stats)

	// a save over a corrupt file starts from an empty document
	require.NoError(t, store.Save(models.SourceHollister, []models.OutfitRecord{record(models.SourceHollister, 1)}))
	assert.Len(t, store.Load(models.SourceHollister), 1)
}

func TestCacheStore_Stats(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(models.SourcePinterest, []models.OutfitRecord{record(models.SourcePinterest, 1)}))
	require.NoError(t, store.Save(models.SourceHM, []models.OutfitRecord{record(models.SourceHM, 1), record(models.SourceHM, 2)}))

	stats, err := store.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats["pinterest"].Count)
	assert.Equal(t, 2, stats["hm"].Count)
	assert.False(t, stats["hm"].LastUpdated.IsZero())
}

func TestCacheStore_ConcurrentSaves(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for _, source := range models.AllSources {
		for i := 1; i <= 5; i++ {
			wg.Add(1)
			go func(source models.SourceName, n int) {
				defer wg.Done()
				assert.NoError(t, store.Save(source, []models.OutfitRecord{record(source, n)}))
			}(source, i)
		}
	}
	wg.Wait()

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Len(t, stats, len(models.AllSources), "no source entry is lost")
	for _, source := range models.AllSources {
		assert.Len(t, store.Load(source), 1)
	}
}
