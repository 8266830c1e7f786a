package opengraph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reelgrab/internal/core/ports"
)

const maxPageBytes = 2 << 20

// Client implements ports.PageScraper by reading OpenGraph tags from a page.
type Client struct {
	client    *http.Client
	userAgent string
}

// NewClient creates a new Client.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Scrape fetches the page and extracts og:title and og:image.
func (c *Client) Scrape(ctx context.Context, pageURL string) (*ports.PageMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	meta := &ports.PageMetadata{
		Title:        metaContent(doc, "og:title"),
		ThumbnailURL: metaContent(doc, "og:image"),
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return meta, nil
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First()
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, property)).First()
	}
	return strings.TrimSpace(sel.AttrOr("content", ""))
}
