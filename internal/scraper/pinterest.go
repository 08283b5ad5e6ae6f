package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/jalshrestha/Outfit/internal/parser"
)

const pinterestSearchURL = "https://www.pinterest.com/search/pins/?q="

// Renderer loads a page in a real browser and returns the rendered HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type PinterestScraper struct {
	renderer Renderer
	parser   Parser
	target   string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewPinterest(renderer Renderer, opts Options) *PinterestScraper {
	target := opts.PinterestTarget
	if target == "" {
		target = DefaultPinterestTarget
	}
	timeout := opts.PinterestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &PinterestScraper{
		renderer: renderer,
		parser:   parser.NewPinParser(),
		target:   target,
		timeout:  timeout,
		logger:   slog.Default().With("component", "scraper", "source", models.SourcePinterest),
	}
}

func (p *PinterestScraper) Source() models.SourceName {
	return models.SourcePinterest
}

func (p *PinterestScraper) Extract(ctx context.Context, maxResults int) ([]models.OutfitRecord, error) {
	return p.ExtractTarget(ctx, p.target, maxResults)
}

// ExtractTarget scrapes a board URL or a free-text search. The whole run is
// bounded by the scraper timeout; exceeding it yields ErrTimeout.
func (p *PinterestScraper) ExtractTarget(ctx context.Context, hint string, maxResults int) ([]models.OutfitRecord, error) {
	pageURL := TargetURL(hint)
	if pageURL == "" {
		pageURL = p.target
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		records []models.OutfitRecord
		err     error
	}

	done := make(chan result, 1)
	go func() {
		records, err := p.extract(ctx, pageURL, maxResults)
		done <- result{records: records, err: err}
	}()

	select {
	case r := <-done:
		return r.records, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.logger.Warn("extraction timed out", "url", pageURL, "timeout", p.timeout)
			return nil, fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
		}
		return nil, ctx.Err()
	}
}

func (p *PinterestScraper) extract(ctx context.Context, pageURL string, maxResults int) ([]models.OutfitRecord, error) {
	p.logger.Info("rendering pins", "url", pageURL, "max_results", maxResults)

	html, err := p.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", pageURL, err)
	}

	records, err := p.parser.Parse(html, pageURL, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pins: %w", err)
	}

	p.logger.Info("extracted pins", "count", len(records))
	return records, nil
}

// TargetURL keeps URLs as given and turns anything else into a pin search.
func TargetURL(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}
	if strings.HasPrefix(hint, "http") {
		return hint
	}
	return pinterestSearchURL + strings.ReplaceAll(url.QueryEscape(hint), "+", "%20")
}
