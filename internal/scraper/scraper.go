package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
)

var (
	ErrTimeout = errors.New("extraction timed out")
)

// Extractor produces normalized records from one live source.
type Extractor interface {
	Source() models.SourceName
	Extract(ctx context.Context, maxResults int) ([]models.OutfitRecord, error)
}

// Parser turns fetched or rendered HTML into records.
type Parser interface {
	Parse(html string, pageURL string, maxResults int) ([]models.OutfitRecord, error)
}

// StatusError is returned when a listing page answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

type Options struct {
	UserAgent        string
	HTTPTimeout      time.Duration
	PinterestTimeout time.Duration
	PinterestTarget  string
	RateLimitMin     time.Duration
	RateLimitMax     time.Duration
}

const (
	DefaultUserAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultPinterestTarget = "https://www.pinterest.com/ideas/mens-streetwear/895613796302/"
)

func DefaultOptions() Options {
	return Options{
		UserAgent:        DefaultUserAgent,
		HTTPTimeout:      15 * time.Second,
		PinterestTimeout: 90 * time.Second,
		PinterestTarget:  DefaultPinterestTarget,
		RateLimitMin:     2 * time.Second,
		RateLimitMax:     5 * time.Second,
	}
}
