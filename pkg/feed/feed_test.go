package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<item>
  <title>First Essay</title>
  <link>https://example.com/first</link>
  <description>A meandering essay about nothing in particular.</description>
  <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
  <enclosure url="https://cdn.example.com/first.jpg" type="image/jpeg" length="1000"/>
</item>
<item>
  <title>Second Essay</title>
  <link>https://example.com/second</link>
  <description>Another essay.</description>
</item>
<item>
  <title>Third Essay</title>
  <link>https://example.com/third</link>
  <description>One more.</description>
</item>
</channel>
</rss>`

func TestFetchAll(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, rssBody)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 2, testLogger())
	entries := f.FetchAll(context.Background(), []Feed{
		{Name: "Test Feed", URL: srv.URL, Category: "essays"},
	})

	// Per-feed limit caps the third item.
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.Feed.Category != "essays" || first.Feed.Name != "Test Feed" {
		t.Errorf("feed attribution: %+v", first.Feed)
	}
	if first.Title != "First Essay" || first.Link != "https://example.com/first" {
		t.Errorf("first entry: %+v", first)
	}
	if first.Published == nil {
		t.Error("published date not parsed")
	}
	if first.Image != "https://cdn.example.com/first.jpg" {
		t.Errorf("enclosure image = %q", first.Image)
	}
	if entries[1].Published != nil {
		t.Error("undated entry grew a date")
	}
}

func TestFetchAllSoftFailures(t *testing.T) {
	t.Parallel()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	defer working.Close()

	f := NewFetcher(time.Second, 10, testLogger())
	entries := f.FetchAll(context.Background(), []Feed{
		{Name: "Broken", URL: broken.URL, Category: "science"},
		{Name: "Unreachable", URL: "http://127.0.0.1:1/feed", Category: "science"},
		{Name: "Working", URL: working.URL, Category: "science"},
	})

	// One broken source never aborts the run.
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 from the working feed", len(entries))
	}
	for _, e := range entries {
		if e.Feed.Name != "Working" {
			t.Errorf("entry from %s leaked through", e.Feed.Name)
		}
	}
}
