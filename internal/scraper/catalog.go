package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/outfity/trend-radar/internal/sources"
)

var priceRe = regexp.MustCompile(`[0-9]+(?:[.,][0-9]{1,2})?`)

// CatalogScraper extracts product cards from retailer listing pages using
// the CSS selectors configured on each source. It handles any source that
// carries a selector set.
type CatalogScraper struct {
	client    *http.Client
	userAgent string
}

// NewCatalogScraper creates a CatalogScraper with the given HTTP timeout
// and User-Agent header.
func NewCatalogScraper(timeout time.Duration, userAgent string) *CatalogScraper {
	return &CatalogScraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// CanHandle reports whether the source carries the selectors this scraper needs.
func (s *CatalogScraper) CanHandle(src sources.Source) bool {
	return src.Selectors.Item != "" && src.Selectors.Name != ""
}

// Fetch downloads the source's catalog page and extracts one Item per
// product card. Cards without a name or a resolvable URL are dropped here;
// the caller decides what to persist.
func (s *CatalogScraper) Fetch(ctx context.Context, src sources.Source) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", src.ID, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", src.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, src.ID)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", src.ID, err)
	}

	return s.extract(doc, src), nil
}

func (s *CatalogScraper) extract(doc *goquery.Document, src sources.Source) []Item {
	var items []Item
	doc.Find(src.Selectors.Item).Each(func(_ int, card *goquery.Selection) {
		item := Item{
			Name:        strings.TrimSpace(card.Find(src.Selectors.Name).First().Text()),
			Description: strings.TrimSpace(card.Find(src.Selectors.Description).First().Text()),
		}

		item.Price = parsePrice(card.Find(src.Selectors.Price).First().Text())

		if img := card.Find(src.Selectors.Image).First(); img.Length() > 0 {
			item.ImageURL = img.AttrOr("src", "")
		}

		if href, ok := card.Find("a").First().Attr("href"); ok {
			item.SourceURL = resolveURL(src.BaseURL, href)
		} else if href, ok := card.Attr("data-url"); ok {
			item.SourceURL = resolveURL(src.BaseURL, href)
		}

		if brand, ok := card.Attr("data-brand"); ok {
			item.Brand = strings.TrimSpace(brand)
		}
		if category, ok := card.Attr("data-category"); ok {
			item.Category = strings.TrimSpace(category)
		}
		if growth, ok := card.Attr("data-growth-percent"); ok {
			if v, err := strconv.ParseFloat(growth, 64); err == nil {
				item.TrendGrowthPercent = &v
			}
		}
		if label, ok := card.Attr("data-trend-label"); ok && label != "" {
			item.TrendLabel = &label
		}
		if color, ok := card.Attr("data-color"); ok && color != "" {
			item.Color = &color
		}
		if markdown, ok := card.Attr("data-markdown-percent"); ok {
			if v, err := strconv.ParseFloat(markdown, 64); err == nil {
				item.MarkdownPercent = &v
			}
		}

		items = append(items, item)
	})
	return items
}

// parsePrice extracts the first decimal number from a price string,
// tolerating both "29,99 €" and "$29.99" formats.
func parsePrice(text string) float64 {
	match := priceRe.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", ".")
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return price
}

func resolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(parsed).String()
}
