package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hollisterListingURL = "https://www.hollisterco.com/shop/us/mens-new-arrivals"

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"Absolute", "https://img.hollisterco.com/a.jpg", "https://img.hollisterco.com/a.jpg"},
		{"Protocol relative", "//img.hollisterco.com/a.jpg", "https://img.hollisterco.com/a.jpg"},
		{"Root relative", "/shop/us/p/tee-123", "https://www.hollisterco.com/shop/us/p/tee-123"},
		{"Bare relative", "p/tee-123", "https://www.hollisterco.com/p/tee-123"},
		{"Whitespace", "  /a.jpg ", "https://www.hollisterco.com/a.jpg"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AbsoluteURL("https://www.hollisterco.com", tt.raw))
		})
	}
}

func TestListingParser_Hollister(t *testing.T) {
	parser := NewHollisterParser()

	html := `<html><body><ul>
		<li class="product-tile">
			<a href="/shop/us/p/muscle-fit-crew-tee-1">
				<img src="//img.hollisterco.com/is/image/anf/tee_prod1" alt="Crew tee on model">
			</a>
			<h3 class="product-name"> Muscle Fit Crew Tee </h3>
			<span class="product-price">$19.95</span>
		</li>
		<li class="product-tile">
			<a href="https://www.hollisterco.com/shop/us/p/skinny-jeans-2">
				<img data-src="/is/image/anf/jeans_prod1" alt="Epic Flex Skinny Jeans">
			</a>
		</li>
		<li class="product-tile">
			<img src="https://img.hollisterco.com/placeholder.gif" alt="Loading">
			<h3>Placeholder Hoodie</h3>
		</li>
		<li class="product-tile">
			<img src="https://img.hollisterco.com/is/image/anf/boots_prod1">
			<span class="sale-price-now">$59.95</span>
		</li>
	</ul></body></html>`

	records, err := parser.Parse(html, hollisterListingURL, 20)
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "Muscle Fit Crew Tee", first.Title)
	assert.Equal(t, "https://img.hollisterco.com/is/image/anf/tee_prod1", first.ImageURL)
	assert.Equal(t, "$19.95", first.PriceText())
	assert.Equal(t, models.CategoryTop, first.Category)
	assert.Equal(t, "Hollister", first.Source)
	assert.Equal(t, "https://www.hollisterco.com/shop/us/p/muscle-fit-crew-tee-1", first.Link)

	second := records[1]
	assert.Equal(t, "Epic Flex Skinny Jeans", second.Title, "falls back to image alt text")
	assert.Equal(t, "https://www.hollisterco.com/is/image/anf/jeans_prod1", second.ImageURL)
	assert.Equal(t, models.CheckSitePrice, second.PriceText())
	assert.Equal(t, models.CategoryBottom, second.Category)

	third := records[2]
	assert.Equal(t, "Hollister Item 4", third.Title, "synthesized from the tile position")
	assert.Equal(t, "$59.95", third.PriceText())
	assert.Equal(t, models.CategoryOutfit, third.Category)
	assert.Equal(t, hollisterListingURL, third.Link, "falls back to the listing URL")
}

func TestListingParser_SelectorPriority(t *testing.T) {
	parser := NewHollisterParser()

	// .product-card is tried before .product-item, so the item tiles are ignored
	html := `<div>
		<div class="product-item"><img src="https://img.example.com/item.jpg"><h2>Item Shorts</h2></div>
		<div class="product-card"><img src="https://img.example.com/card.jpg"><h2>Card Hoodie</h2></div>
	</div>`

	records, err := parser.Parse(html, hollisterListingURL, 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Card Hoodie", records[0].Title)
}

func TestListingParser_MaxResults(t *testing.T) {
	parser := NewHMParser()

	var b strings.Builder
	b.WriteString("<ul>")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, `<li class="product-item">
			<a href="/en_us/productpage.%d.html"><img src="//image.hm.com/assets/hm/%d.jpg"></a>
			<h3 class="item-heading">Slim Fit Trousers %d</h3>
			<span class="item-price">$24.99</span>
		</li>`, i, i, i)
	}
	b.WriteString("</ul>")

	records, err := parser.Parse(b.String(), "https://www2.hm.com/en_us/men/new-arrivals.html", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, record := range records {
		assert.Equal(t, fmt.Sprintf("Slim Fit Trousers %d", i+1), record.Title)
		assert.Equal(t, fmt.Sprintf("https://image.hm.com/assets/hm/%d.jpg", i+1), record.ImageURL)
		assert.Equal(t, fmt.Sprintf("https://www2.hm.com/en_us/productpage.%d.html", i+1), record.Link)
		assert.Equal(t, "H&M", record.Source)
		assert.Equal(t, models.CategoryBottom, record.Category)
	}

	records, err = parser.Parse(b.String(), "https://www2.hm.com/en_us/men/new-arrivals.html", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListingParser_NoProducts(t *testing.T) {
	parser := NewHMParser()

	_, err := parser.Parse(`<html><body><p>Access denied</p></body></html>`, "https://www2.hm.com", 20)
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestListingParser_SkipsInlineDataImages(t *testing.T) {
	parser := NewHMParser()

	html := `<article class="hm-product-item">
		<img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=" data-src="//image.hm.com/assets/hm/denim.jpg" alt="Denim Jacket">
	</article>`

	records, err := parser.Parse(html, "https://www2.hm.com", 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://image.hm.com/assets/hm/denim.jpg", records[0].ImageURL)
	assert.Equal(t, models.CategoryTop, records[0].Category)
}
