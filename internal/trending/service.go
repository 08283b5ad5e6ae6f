package trending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/jalshrestha/Outfit/internal/scraper"
	"github.com/jalshrestha/Outfit/internal/storage"
)

var (
	ErrInvalidSource = errors.New("invalid source")
	ErrNoResults     = errors.New("live extraction returned no results")
	ErrExhausted     = errors.New("no live, cached or sample data available")
	errNoExtractor   = errors.New("no extractor configured")
)

const (
	DefaultMaxResults = 20
	MinMaxResults     = 1
	MaxMaxResults     = 50
)

// HistoryRecorder keeps a log of refresh runs.
type HistoryRecorder interface {
	Record(ctx context.Context, run models.RefreshRun) error
	Recent(ctx context.Context, limit int) ([]models.RefreshRun, error)
}

// Publisher announces completed refresh runs.
type Publisher interface {
	PublishRefresh(ctx context.Context, run models.RefreshRun) error
}

type Query struct {
	Source     string
	Category   string
	MaxResults int
}

type RefreshRequest struct {
	Source     string
	MaxResults int
	Trigger    string
}

type Service struct {
	extractors map[models.SourceName]scraper.Extractor
	ladder     *Ladder
	cache      Cache
	history    HistoryRecorder
	publisher  Publisher
	freshFor   time.Duration
	logger     *slog.Logger
}

type Option func(*Service)

func WithHistory(h HistoryRecorder) Option {
	return func(s *Service) { s.history = h }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithFreshFor lets reads serve cache entries younger than d without
// scraping. Zero disables the shortcut.
func WithFreshFor(d time.Duration) Option {
	return func(s *Service) { s.freshFor = d }
}

func NewService(cache Cache, extractors []scraper.Extractor, opts ...Option) *Service {
	s := &Service{
		extractors: make(map[models.SourceName]scraper.Extractor, len(extractors)),
		ladder:     NewLadder(cache),
		cache:      cache,
		logger:     slog.Default().With("component", "trending"),
	}
	for _, e := range extractors {
		s.extractors[e.Source()] = e
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns trending records for one source or all of them, filtered by
// category when one is given.
func (s *Service) Query(ctx context.Context, q Query) ([]models.OutfitRecord, error) {
	source, err := parseSource(q.Source)
	if err != nil {
		return nil, err
	}
	maxResults := effectiveMax(q.MaxResults)

	var records []models.OutfitRecord
	if source == models.SourceAll {
		records = s.FetchAll(ctx, maxResults, true).Combined()
	} else {
		records, err = s.fetch(ctx, source, maxResults, true)
		if err != nil {
			return nil, err
		}
	}

	return FilterCategory(records, q.Category), nil
}

func (s *Service) fetch(ctx context.Context, source models.SourceName, maxResults int, allowFresh bool) ([]models.OutfitRecord, error) {
	if allowFresh && s.freshFor > 0 {
		if entry, ok := s.cache.Entry(source); ok && len(entry.Data) > 0 && time.Since(entry.LastUpdated) < s.freshFor {
			s.logger.Debug("serving fresh cache", "source", source, "age", time.Since(entry.LastUpdated))
			if len(entry.Data) > maxResults {
				return entry.Data[:maxResults], nil
			}
			return entry.Data, nil
		}
	}

	live := func(ctx context.Context, maxResults int) ([]models.OutfitRecord, error) {
		extractor, ok := s.extractors[source]
		if !ok {
			return nil, fmt.Errorf("%w for %s", errNoExtractor, source)
		}
		return extractor.Extract(ctx, maxResults)
	}

	return s.ladder.Run(ctx, source, maxResults, live)
}

// Refresh forces live extraction for one source or all of them and records
// the run.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (models.RefreshRun, error) {
	source, err := parseSource(req.Source)
	if err != nil {
		return models.RefreshRun{}, err
	}
	maxResults := effectiveMax(req.MaxResults)

	trigger := req.Trigger
	if trigger == "" {
		trigger = models.TriggerAPI
	}

	run := models.RefreshRun{
		ID:        uuid.New(),
		Source:    source,
		Trigger:   trigger,
		PerSource: make(map[string]int),
		StartedAt: time.Now().UTC(),
	}

	var refreshErr error
	if source == models.SourceAll {
		agg := s.FetchAll(ctx, maxResults, false)
		for _, src := range models.AllSources {
			run.PerSource[string(src)] = len(agg.Results[src])
			if err := agg.Errors[src]; err != nil {
				run.AddError(src, err)
			}
		}
		run.ItemsRefreshed = agg.Total()
	} else {
		records, err := s.fetch(ctx, source, maxResults, false)
		run.PerSource[string(source)] = len(records)
		run.ItemsRefreshed = len(records)
		if err != nil {
			run.AddError(source, err)
			refreshErr = err
		}
	}
	run.FinishedAt = time.Now().UTC()

	s.logger.Info("refresh completed",
		"id", run.ID,
		"source", source,
		"trigger", trigger,
		"items", run.ItemsRefreshed,
		"duration", run.Duration())

	s.recordRun(ctx, run)

	if refreshErr != nil {
		return run, refreshErr
	}
	return run, nil
}

// RefreshAll is the scheduled refresh of every source.
func (s *Service) RefreshAll(ctx context.Context, maxResults int, trigger string) (models.RefreshRun, error) {
	return s.Refresh(ctx, RefreshRequest{
		Source:     string(models.SourceAll),
		MaxResults: maxResults,
		Trigger:    trigger,
	})
}

func (s *Service) recordRun(ctx context.Context, run models.RefreshRun) {
	if s.history != nil {
		if err := s.history.Record(ctx, run); err != nil {
			s.logger.Error("failed to record refresh run", "id", run.ID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRefresh(ctx, run); err != nil {
			s.logger.Error("failed to publish refresh event", "id", run.ID, "error", err)
		}
	}
}

func (s *Service) Stats() (map[string]storage.SourceStats, error) {
	return s.cache.Stats()
}

func (s *Service) History(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	if s.history == nil {
		return []models.RefreshRun{}, nil
	}
	runs, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh history: %w", err)
	}
	return runs, nil
}

// FilterCategory keeps records whose category equals category, ignoring
// case. An empty category or "all" keeps everything.
func FilterCategory(records []models.OutfitRecord, category string) []models.OutfitRecord {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, "all") {
		return records
	}

	filtered := make([]models.OutfitRecord, 0, len(records))
	for _, r := range records {
		if strings.EqualFold(string(r.Category), category) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ParseMaxResults reads a leading integer from raw the way a lenient query
// parameter parser would ("12abc" is 12, "3.7" is 3) and clamps it. Input
// with no leading integer uses the default.
func ParseMaxResults(raw string) int {
	raw = strings.TrimSpace(raw)

	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && unicode.IsDigit(rune(raw[end])) {
		end++
	}
	if end == digits {
		return DefaultMaxResults
	}

	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		// overflow: the sign decides which bound applies
		if raw[0] == '-' {
			return MinMaxResults
		}
		return MaxMaxResults
	}
	return ClampMaxResults(n)
}

func ClampMaxResults(n int) int {
	return min(max(n, MinMaxResults), MaxMaxResults)
}

// effectiveMax treats zero as unset.
func effectiveMax(n int) int {
	if n == 0 {
		return DefaultMaxResults
	}
	return ClampMaxResults(n)
}

func parseSource(raw string) (models.SourceName, error) {
	if strings.TrimSpace(raw) == "" {
		return models.SourceAll, nil
	}
	source, ok := models.ParseSourceName(raw, true)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, raw)
	}
	return source, nil
}
