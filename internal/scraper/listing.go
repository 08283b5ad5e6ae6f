package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/jalshrestha/Outfit/internal/parser"
	"github.com/jalshrestha/Outfit/internal/ratelimit"
)

const (
	HollisterListingURL = "https://www.hollisterco.com/shop/us/mens-new-arrivals"
	HMListingURL        = "https://www2.hm.com/en_us/men/new-arrivals.html"

	maxPageBytes = 10 << 20
)

// ListingScraper fetches a server-rendered catalog page over plain HTTP and
// hands it to a listing parser.
type ListingScraper struct {
	source    models.SourceName
	url       string
	userAgent string
	client    *http.Client
	parser    Parser
	limiter   *ratelimit.AdaptiveRateLimiter
	logger    *slog.Logger
}

func NewListingScraper(source models.SourceName, url string, p Parser, opts Options) *ListingScraper {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &ListingScraper{
		source:    source,
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: opts.HTTPTimeout},
		parser:    p,
		limiter:   ratelimit.NewAdaptiveRateLimiter(opts.RateLimitMin, opts.RateLimitMax),
		logger:    slog.Default().With("component", "scraper", "source", source),
	}
}

func NewHollister(opts Options) *ListingScraper {
	return NewListingScraper(models.SourceHollister, HollisterListingURL, parser.NewHollisterParser(), opts)
}

func NewHM(opts Options) *ListingScraper {
	return NewListingScraper(models.SourceHM, HMListingURL, parser.NewHMParser(), opts)
}

func (s *ListingScraper) Source() models.SourceName {
	return s.source
}

func (s *ListingScraper) URL() string {
	return s.url
}

// Extract fetches and parses the listing. A fetch too soon after the last
// one, or during a backoff window, fails straight away with
// ratelimit.ErrRateLimited so the caller can fall back without waiting.
func (s *ListingScraper) Extract(ctx context.Context, maxResults int) ([]models.OutfitRecord, error) {
	if err := s.limiter.Allow(); err != nil {
		s.logger.Info("skipping live fetch", "reason", err)
		return nil, fmt.Errorf("%s listing: %w", s.source, err)
	}

	s.logger.Info("fetching listing", "url", s.url, "max_results", maxResults)

	html, err := s.fetch(ctx)
	if err != nil {
		s.recordError()
		return nil, err
	}

	records, err := s.parser.Parse(html, s.url, maxResults)
	if err != nil {
		s.recordError()
		return nil, fmt.Errorf("failed to parse %s listing: %w", s.source, err)
	}

	s.limiter.RecordSuccess()
	s.logger.Info("extracted listing", "count", len(records))
	return records, nil
}

func (s *ListingScraper) recordError() {
	s.limiter.RecordError()
	minDelay, maxDelay := s.limiter.Delays()
	s.logger.Debug("listing pacing", "min_delay", minDelay, "max_delay", maxDelay)
}

func (s *ListingScraper) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: s.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
