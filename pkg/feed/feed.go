package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Feed is a named RSS/Atom feed assigned to one category.
type Feed struct {
	Name     string
	URL      string
	Category string
}

// RawEntry is one unprocessed entry as a feed exposes it. Every field
// except the owning feed is optional; the normalizer decides what survives.
type RawEntry struct {
	Feed      Feed
	Title     string
	Summary   string
	Link      string
	Published *time.Time
	Updated   *time.Time
	Image     string
}

// Fetcher pulls entries from RSS/Atom feeds. Per-feed failures are logged
// and skipped so one broken source never aborts a collection run.
type Fetcher struct {
	client       *http.Client
	parser       *gofeed.Parser
	perFeedLimit int
	log          *slog.Logger
}

// NewFetcher creates a fetcher with a bounded request timeout and a cap on
// how many entries are taken from each feed.
func NewFetcher(timeout time.Duration, perFeedLimit int, log *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if perFeedLimit <= 0 {
		perFeedLimit = 10
	}
	return &Fetcher{
		client:       &http.Client{Timeout: timeout},
		parser:       gofeed.NewParser(),
		perFeedLimit: perFeedLimit,
		log:          log,
	}
}

// FetchAll collects raw entries from every feed. Errors are per-feed and soft.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed) []RawEntry {
	var all []RawEntry
	for _, fd := range feeds {
		entries, err := f.fetch(ctx, fd)
		if err != nil {
			f.log.Warn("feed fetch failed", "feed", fd.Name, "error", err)
			continue
		}
		f.log.Debug("feed fetched", "feed", fd.Name, "entries", len(entries))
		all = append(all, entries...)
	}
	return all
}

func (f *Fetcher) fetch(ctx context.Context, fd Feed) ([]RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fd.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", fd.Name, err)
	}
	req.Header.Set("User-Agent", "spsdaily/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", fd.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", fd.Name, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", fd.Name, err)
	}

	entries := make([]RawEntry, 0, f.perFeedLimit)
	for _, item := range parsed.Items {
		if len(entries) >= f.perFeedLimit {
			break
		}

		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		entries = append(entries, RawEntry{
			Feed:      fd,
			Title:     item.Title,
			Summary:   summary,
			Link:      link,
			Published: utc(item.PublishedParsed),
			Updated:   utc(item.UpdatedParsed),
			Image:     entryImage(item),
		})
	}
	return entries, nil
}

// entryImage returns the first image hint a feed entry exposes.
func entryImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
