package models

import (
	"strings"
	"unicode/utf8"
)

// SourceName identifies a trending source. It doubles as the cache key.
type SourceName string

const (
	SourcePinterest SourceName = "pinterest"
	SourceHollister SourceName = "hollister"
	SourceHM        SourceName = "hm"

	// SourceAll selects every source at once. It is never a cache key.
	SourceAll SourceName = "all"
)

// AllSources lists the sources in the order combined results are returned.
var AllSources = []SourceName{SourcePinterest, SourceHollister, SourceHM}

// Provenance returns the display tag stored in OutfitRecord.Source.
func (s SourceName) Provenance() string {
	switch s {
	case SourcePinterest:
		return "Pinterest"
	case SourceHollister:
		return "Hollister"
	case SourceHM:
		return "H&M"
	default:
		return ""
	}
}

// ParseSourceName maps user input to a source. "all" is accepted when
// allowAll is set; "h&m" is an alias of "hm".
func ParseSourceName(raw string, allowAll bool) (SourceName, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pinterest":
		return SourcePinterest, true
	case "hollister":
		return SourceHollister, true
	case "hm", "h&m":
		return SourceHM, true
	case "all":
		if allowAll {
			return SourceAll, true
		}
	}
	return "", false
}

// ValidSourceValues is what the API reports back on a bad source parameter.
func ValidSourceValues() []string {
	return []string{"pinterest", "hollister", "hm", "all"}
}

type Category string

const (
	CategoryTop    Category = "top"
	CategoryBottom Category = "bottom"
	CategoryShoes  Category = "shoes"
	CategoryOutfit Category = "outfit"
)

// MaxTitleLength bounds titles derived from scraped alt text.
const MaxTitleLength = 100

// PlaceholderMarker marks lazy-load stand-in images that are never kept.
const PlaceholderMarker = "placeholder"

// CheckSitePrice is shown when a listing tile carries no readable price.
const CheckSitePrice = "Check site"

// OutfitRecord is one scraped or sample outfit image.
type OutfitRecord struct {
	Title    string   `json:"title"`
	ImageURL string   `json:"imageUrl"`
	Price    *string  `json:"price"`
	Category Category `json:"category"`
	Source   string   `json:"source"`
	Link     string   `json:"link"`
}

// PriceText returns the price or an empty string when none is set.
func (r OutfitRecord) PriceText() string {
	if r.Price == nil {
		return ""
	}
	return *r.Price
}

// Validate reports the invariants a record must satisfy before it is cached.
func (r OutfitRecord) Validate() []string {
	var errors []string

	if r.ImageURL == "" {
		errors = append(errors, "imageUrl is required")
	}

	if IsPlaceholderImage(r.ImageURL) {
		errors = append(errors, "imageUrl is a placeholder")
	}

	if r.Source == "" {
		errors = append(errors, "source is required")
	}

	return errors
}

func IsPlaceholderImage(url string) bool {
	return strings.Contains(url, PlaceholderMarker)
}

// TruncateTitle cuts s to at most MaxTitleLength runes.
func TruncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= MaxTitleLength {
		return s
	}
	return string([]rune(s)[:MaxTitleLength])
}

// StringPtr is a small helper for optional fields like Price.
func StringPtr(s string) *string {
	return &s
}
