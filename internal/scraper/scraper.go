// Package scraper fetches live article pages for the depth gate. All
// failures here are soft: callers get a zero word count or an empty image
// URL and the batch continues.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Elements removed wholesale before word counting: chrome and boilerplate
// that would inflate the count on shallow pages.
const strippedSelectors = "script, style, nav, footer, header, aside, form, noscript, iframe, svg"

// Tokens of three or more letters, allowing internal apostrophes/hyphens.
var wordPattern = regexp.MustCompile(`[A-Za-z]+(?:['’-][A-Za-z]+)*`)

// Scraper fetches article pages with a bounded timeout.
type Scraper struct {
	client *http.Client
	log    *slog.Logger
}

// New creates a scraper.
func New(timeout time.Duration, log *slog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// CountWords fetches url and returns the body word count, 0 on any failure
// or non-HTML response.
func (s *Scraper) CountWords(ctx context.Context, url string) int {
	doc, ok := s.fetch(ctx, url)
	if !ok {
		return 0
	}

	doc.Find(strippedSelectors).Remove()
	text := doc.Find("body").Text()

	count := 0
	for _, tok := range wordPattern.FindAllString(text, -1) {
		if letterCount(tok) >= 3 {
			count++
		}
	}
	return count
}

// ExtractImage returns the page's og:image (or twitter:image) URL, "" when
// absent or on any failure.
func (s *Scraper) ExtractImage(ctx context.Context, url string) string {
	doc, ok := s.fetch(ctx, url)
	if !ok {
		return ""
	}

	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	} {
		if v, exists := doc.Find(sel).First().Attr("content"); exists {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func (s *Scraper) fetch(ctx context.Context, url string) (*goquery.Document, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.log.Debug("page request failed", "url", url, "error", err)
		return nil, false
	}
	req.Header.Set("User-Agent", "spsdaily/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("page fetch failed", "url", url, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Debug("page fetch status", "url", url, "status", resp.StatusCode)
		return nil, false
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		return nil, false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		s.log.Debug("page parse failed", "url", url, "error", err)
		return nil, false
	}
	return doc, true
}

func letterCount(tok string) int {
	n := 0
	for _, r := range tok {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			n++
		}
	}
	return n
}
