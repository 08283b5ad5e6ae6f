package parser

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jalshrestha/Outfit/internal/models"
)

var ErrNoProducts = errors.New("no products found on page")

// Parser turns a rendered page into outfit records, in document order.
type Parser interface {
	Parse(html string, pageURL string, maxResults int) ([]models.OutfitRecord, error)
}

// FirstMatch tries selectors in order and returns the first non-empty
// selection together with the selector that produced it.
func FirstMatch(doc *goquery.Document, selectors []string) (*goquery.Selection, string) {
	for _, selector := range selectors {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			return sel, selector
		}
	}
	return nil, ""
}

// AbsoluteURL normalizes protocol-relative and root-relative URLs against
// base, e.g. "//img.cdn/x.jpg" or "/shop/item".
func AbsoluteURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "http"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimSuffix(base, "/") + raw
	default:
		return strings.TrimSuffix(base, "/") + "/" + raw
	}
}

// firstAttr returns the first non-empty attribute value among names.
// Inline data: URIs are lazy-load stand-ins and are skipped.
func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		value, ok := sel.Attr(name)
		value = strings.TrimSpace(value)
		if !ok || value == "" || strings.HasPrefix(value, "data:") {
			continue
		}
		return value
	}
	return ""
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
