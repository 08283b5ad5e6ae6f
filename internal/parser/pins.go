package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jalshrestha/Outfit/internal/category"
	"github.com/jalshrestha/Outfit/internal/models"
)

// pinSizeSegment matches CDN size folders such as /236x/ or /474x600/.
var pinSizeSegment = regexp.MustCompile(`/\d+x\d*/`)

const pinCDNHost = "https://i.pinimg.com"

// PinParser extracts pins from a rendered Pinterest board or search page.
type PinParser struct {
	BaseURL   string
	Selectors []string
	// LazyRejects are tokens that disqualify a data-src candidate.
	LazyRejects []string
	// SrcRejects are tokens that disqualify a src candidate.
	SrcRejects []string
	Categories category.Inferrer
	Logger     *slog.Logger
}

func NewPinParser() *PinParser {
	return &PinParser{
		BaseURL: "https://www.pinterest.com",
		Selectors: []string{
			`[data-test-id="pin"]`,
			`article[data-test-id="pin"]`,
			`[data-test-id="pin-rep"]`,
			`div[data-test-id="pin-rep"]`,
			`div[role="listitem"]`,
			".pinContainer",
			".Grid__Item",
		},
		LazyRejects: []string{models.PlaceholderMarker, "1x", "75x"},
		SrcRejects:  []string{models.PlaceholderMarker, "1x", "75x", "236x"},
		Categories:  category.Fixed(models.CategoryOutfit),
		Logger:      slog.Default().With("component", "parser", "source", models.SourcePinterest),
	}
}

func (p *PinParser) Parse(html string, pageURL string, maxResults int) ([]models.OutfitRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	pins, selector := FirstMatch(doc, p.Selectors)
	if pins == nil {
		return nil, ErrNoProducts
	}

	p.logger().Info("found pins", "count", pins.Length(), "selector", selector)

	var records []models.OutfitRecord
	pins.EachWithBreak(func(i int, pin *goquery.Selection) bool {
		if i >= maxResults {
			return false
		}

		img, imageURL := p.pickImage(pin)
		if imageURL == "" {
			return true
		}

		if strings.Contains(imageURL, pinCDNHost) {
			imageURL = pinSizeSegment.ReplaceAllString(imageURL, "/originals/")
		}

		title := ""
		if img != nil {
			alt, _ := img.Attr("alt")
			title = strings.TrimSpace(alt)
		}
		if title == "" {
			title = fmt.Sprintf("Pinterest Outfit %d", i+1)
		}

		link := pageURL
		if href, ok := pin.Find(`a[href*="/pin/"]`).First().Attr("href"); ok {
			link = AbsoluteURL(p.BaseURL, href)
		}

		records = append(records, models.OutfitRecord{
			Title:    models.TruncateTitle(title),
			ImageURL: imageURL,
			Category: p.categories().Infer(title),
			Source:   models.SourcePinterest.Provenance(),
			Link:     link,
		})
		return true
	})

	return records, nil
}

// pickImage prefers a lazy-load data-src, then a full-size src, then any
// image that is not a placeholder.
func (p *PinParser) pickImage(pin *goquery.Selection) (*goquery.Selection, string) {
	images := pin.Find("img")

	candidates := []func(img *goquery.Selection) string{
		func(img *goquery.Selection) string {
			if src := firstAttr(img, "data-src"); src != "" && !containsAny(src, p.LazyRejects) {
				return src
			}
			return ""
		},
		func(img *goquery.Selection) string {
			if src := firstAttr(img, "src"); src != "" && !containsAny(src, p.SrcRejects) {
				return src
			}
			return ""
		},
		func(img *goquery.Selection) string {
			if src := firstAttr(img, "src", "data-src"); !models.IsPlaceholderImage(src) {
				return src
			}
			return ""
		},
	}

	for _, candidate := range candidates {
		for i := range images.Nodes {
			img := images.Eq(i)
			if src := candidate(img); src != "" {
				return img, AbsoluteURL(p.BaseURL, src)
			}
		}
	}

	return nil, ""
}

func (p *PinParser) categories() category.Inferrer {
	if p.Categories == nil {
		return category.Fixed(models.CategoryOutfit)
	}
	return p.Categories
}

func (p *PinParser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
