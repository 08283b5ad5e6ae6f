package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
)

// CacheEntry is the latest result stored for one source.
type CacheEntry struct {
	Data        []models.OutfitRecord `json:"data"`
	LastUpdated time.Time             `json:"lastUpdated"`
}

// SourceStats summarises one cache entry.
type SourceStats struct {
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type document map[string]CacheEntry

// CacheStore persists the last successful result per source in a single JSON
// file. All reads and writes of the file go through it.
type CacheStore struct {
	mu       sync.Mutex
	filename string
	now      func() time.Time
	logger   *slog.Logger
}

func NewCacheStore(filename string) *CacheStore {
	return &CacheStore{
		filename: filename,
		now:      time.Now,
		logger:   slog.Default().With("component", "cache"),
	}
}

func (c *CacheStore) Path() string {
	return c.filename
}

// Save replaces the entry for source. The read-modify-write cycle holds the
// store lock, so concurrent saves for different sources are all kept.
func (c *CacheStore) Save(source models.SourceName, records []models.OutfitRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("cache unreadable, starting fresh", "error", err)
	}
	if doc == nil {
		doc = make(document)
	}

	if records == nil {
		records = []models.OutfitRecord{}
	}

	doc[string(source)] = CacheEntry{
		Data:        records,
		LastUpdated: c.now().UTC(),
	}

	if err := c.write(doc); err != nil {
		return fmt.Errorf("failed to save cache for %s: %w", source, err)
	}

	c.logger.Info("cache updated", "source", source, "count", len(records))
	return nil
}

// Load returns the cached records for source, or an empty list when the file
// is missing, malformed or has no entry for it.
func (c *CacheStore) Load(source models.SourceName) []models.OutfitRecord {
	entry, ok := c.Entry(source)
	if !ok {
		return []models.OutfitRecord{}
	}
	return entry.Data
}

func (c *CacheStore) Entry(source models.SourceName) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("failed to read cache", "source", source, "error", err)
		}
		return CacheEntry{}, false
	}

	entry, ok := doc[string(source)]
	if !ok {
		return CacheEntry{}, false
	}
	if entry.Data == nil {
		entry.Data = []models.OutfitRecord{}
	}
	return entry, true
}

// Stats reports count and timestamp per cached source. A missing file is an
// empty result; an unreadable one is an empty result plus the error.
func (c *CacheStore) Stats() (map[string]SourceStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := make(map[string]SourceStats)

	doc, err := c.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, nil
		}
		return stats, err
	}

	for source, entry := range doc {
		stats[source] = SourceStats{
			Count:       len(entry.Data),
			LastUpdated: entry.LastUpdated,
		}
	}
	return stats, nil
}

func (c *CacheStore) read() (document, error) {
	data, err := os.ReadFile(c.filename)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return doc, nil
}

func (c *CacheStore) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(c.filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// Write to temp file first for atomicity
	tmpFile := c.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpFile, c.filename)
}
