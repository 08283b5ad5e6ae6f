package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jalshrestha/Outfit/internal/category"
	"github.com/jalshrestha/Outfit/internal/models"
)

// ListingParser extracts product tiles from a server-rendered catalog page.
type ListingParser struct {
	Source         models.SourceName
	BaseURL        string
	TileSelectors  []string
	TitleSelector  string
	PriceSelector  string
	FallbackPrefix string
	Categories     category.Inferrer
	Logger         *slog.Logger
}

func NewHollisterParser() *ListingParser {
	return &ListingParser{
		Source:  models.SourceHollister,
		BaseURL: "https://www.hollisterco.com",
		TileSelectors: []string{
			".product-tile",
			".product-card",
			"[data-product-tile]",
			".product-item",
			"article.product",
		},
		TitleSelector:  ".product-name, .product-title, h3, h2",
		PriceSelector:  `.price, .product-price, [class*="price"]`,
		FallbackPrefix: "Hollister Item",
		Categories:     category.Hollister(),
		Logger:         slog.Default().With("component", "parser", "source", models.SourceHollister),
	}
}

func NewHMParser() *ListingParser {
	return &ListingParser{
		Source:  models.SourceHM,
		BaseURL: "https://www2.hm.com",
		TileSelectors: []string{
			".product-item",
			"article.hm-product-item",
			".hm-product",
			"[data-product]",
			"li.product-item",
		},
		TitleSelector:  ".item-heading, .product-item-headline, h3, h2",
		PriceSelector:  `.price, .item-price, [class*="price"]`,
		FallbackPrefix: "H&M Item",
		Categories:     category.HM(),
		Logger:         slog.Default().With("component", "parser", "source", models.SourceHM),
	}
}

func (p *ListingParser) Parse(html string, pageURL string, maxResults int) ([]models.OutfitRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	tiles, selector := FirstMatch(doc, p.TileSelectors)
	if tiles == nil {
		return nil, ErrNoProducts
	}

	p.logger().Debug("found product tiles", "count", tiles.Length(), "selector", selector)

	if maxResults <= 0 {
		return []models.OutfitRecord{}, nil
	}

	records := make([]models.OutfitRecord, 0, min(tiles.Length(), maxResults))
	tiles.EachWithBreak(func(i int, tile *goquery.Selection) bool {
		if i >= maxResults {
			return false
		}

		record, ok := p.parseTile(i, tile, pageURL)
		if !ok {
			p.logger().Debug("skipping tile without usable image", "index", i)
			return true
		}

		records = append(records, record)
		return true
	})

	return records, nil
}

func (p *ListingParser) parseTile(index int, tile *goquery.Selection, pageURL string) (models.OutfitRecord, bool) {
	img := tile.Find("img").First()

	title := strings.TrimSpace(tile.Find(p.TitleSelector).First().Text())
	if title == "" {
		alt, _ := img.Attr("alt")
		title = strings.TrimSpace(alt)
	}
	if title == "" {
		title = fmt.Sprintf("%s %d", p.FallbackPrefix, index+1)
	}

	imageURL := AbsoluteURL(p.BaseURL, firstAttr(img, "src", "data-src", "data-original"))
	if imageURL == "" || models.IsPlaceholderImage(imageURL) {
		return models.OutfitRecord{}, false
	}

	price := strings.TrimSpace(tile.Find(p.PriceSelector).First().Text())
	if price == "" {
		price = models.CheckSitePrice
	}

	link := pageURL
	if href, ok := tile.Find("a").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		link = AbsoluteURL(p.BaseURL, href)
	}

	return models.OutfitRecord{
		Title:    models.TruncateTitle(title),
		ImageURL: imageURL,
		Price:    models.StringPtr(price),
		Category: p.Categories.Infer(title),
		Source:   p.Source.Provenance(),
		Link:     link,
	}, true
}

func (p *ListingParser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
