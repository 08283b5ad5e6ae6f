package trending

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/jalshrestha/Outfit/internal/samples"
	"github.com/jalshrestha/Outfit/internal/storage"
)

// Cache is the subset of the cache store the trending service needs.
type Cache interface {
	Save(source models.SourceName, records []models.OutfitRecord) error
	Load(source models.SourceName) []models.OutfitRecord
	Entry(source models.SourceName) (storage.CacheEntry, bool)
	Stats() (map[string]storage.SourceStats, error)
}

// LiveFunc performs one live extraction.
type LiveFunc func(ctx context.Context, maxResults int) ([]models.OutfitRecord, error)

// Ladder degrades from a live scrape to the cached copy and finally to the
// bundled samples.
type Ladder struct {
	cache   Cache
	samples func(source models.SourceName, max int) []models.OutfitRecord
	logger  *slog.Logger
}

func NewLadder(cache Cache) *Ladder {
	return &Ladder{
		cache:   cache,
		samples: samples.Truncated,
		logger:  slog.Default().With("component", "ladder"),
	}
}

func (l *Ladder) Run(ctx context.Context, source models.SourceName, maxResults int, live LiveFunc) ([]models.OutfitRecord, error) {
	logger := l.logger.With("source", source)

	records, err := live(ctx, maxResults)
	if err == nil {
		records = l.valid(logger, records)
	}
	if err == nil && len(records) == 0 {
		err = ErrNoResults
	}

	if err == nil {
		if saveErr := l.cache.Save(source, records); saveErr != nil {
			logger.Error("failed to cache live results", "error", saveErr)
		}
		logger.Info("served live results", "count", len(records))
		return records, nil
	}

	logger.Warn("live extraction failed, falling back", "error", err)

	if cached := l.cache.Load(source); len(cached) > 0 {
		logger.Warn("serving stale cache", "count", len(cached))
		return cached, nil
	}

	fallback := l.samples(source, maxResults)
	if len(fallback) == 0 {
		return nil, fmt.Errorf("%w for %s: %w", ErrExhausted, source, err)
	}

	if saveErr := l.cache.Save(source, fallback); saveErr != nil {
		logger.Error("failed to cache sample data", "error", saveErr)
	}
	logger.Warn("serving sample data", "count", len(fallback))
	return fallback, nil
}

// valid drops records that would not render, keeping order.
func (l *Ladder) valid(logger *slog.Logger, records []models.OutfitRecord) []models.OutfitRecord {
	kept := make([]models.OutfitRecord, 0, len(records))
	for _, r := range records {
		if problems := r.Validate(); len(problems) > 0 {
			logger.Debug("dropping invalid record", "title", r.Title, "problems", problems)
			continue
		}
		kept = append(kept, r)
	}
	if dropped := len(records) - len(kept); dropped > 0 {
		logger.Warn("dropped invalid live records", "dropped", dropped, "kept", len(kept))
	}
	return kept
}
