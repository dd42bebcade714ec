// Package curate implements the human-in-the-loop curation state machine:
// pending candidates are approved, rejected, or picked, mutating the
// published feed and the permanent archive.
package curate

import (
	"os"

	"github.com/thebeakers/spsdaily/internal/jsonfile"
	"github.com/thebeakers/spsdaily/pkg/article"
)

// Feed is the published feed consumed by the site: per-category lists
// ordered most-recent-first and bounded by a size cap, a single nullable
// editor's pick slot, and the date of the last update.
type Feed struct {
	LastUpdated string                         `json:"lastUpdated"`
	EditorsPick *article.Candidate             `json:"editorsPick"`
	Categories  map[string][]article.Candidate `json:"categories"`
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{Categories: make(map[string][]article.Candidate)}
}

// LoadFeed reads the published feed file. A missing file yields an empty
// feed, not an error.
func LoadFeed(path string) (*Feed, error) {
	var f Feed
	if err := jsonfile.Read(path, &f); err != nil {
		if os.IsNotExist(err) {
			return NewFeed(), nil
		}
		return nil, err
	}
	if f.Categories == nil {
		f.Categories = make(map[string][]article.Candidate)
	}
	return &f, nil
}

// Save atomically replaces the feed file.
func (f *Feed) Save(path string) error {
	return jsonfile.Write(path, f)
}

// Contains reports whether a URL is currently live in a category.
func (f *Feed) Contains(category, url string) bool {
	for _, c := range f.Categories[category] {
		if c.URL == url {
			return true
		}
	}
	return false
}

// insertFront puts a candidate at the head of its category list and
// enforces the live cap by evicting the oldest entries beyond it. The
// archive is unaffected by eviction.
func (f *Feed) insertFront(c article.Candidate, limit int) {
	list := append([]article.Candidate{c}, f.Categories[c.Category]...)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	f.Categories[c.Category] = list
}

// remove drops a URL from a category list, reporting whether anything
// changed.
func (f *Feed) remove(category, url string) bool {
	list := f.Categories[category]
	kept := list[:0]
	for _, c := range list {
		if c.URL != url {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(list) {
		return false
	}
	f.Categories[category] = kept
	return true
}

// CleanupExpired removes live entries approved before cutoffDate
// (YYYY-MM-DD, exclusive). Entries without an approval date are kept.
// Returns how many were removed; archived copies are untouched.
func (f *Feed) CleanupExpired(cutoffDate string) int {
	removed := 0
	for category, list := range f.Categories {
		kept := list[:0]
		for _, c := range list {
			if c.ApprovedOn != "" && c.ApprovedOn < cutoffDate {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		f.Categories[category] = kept
	}
	return removed
}

// Counts returns the live list length per category.
func (f *Feed) Counts() map[string]int {
	counts := make(map[string]int, len(f.Categories))
	for category, list := range f.Categories {
		counts[category] = len(list)
	}
	return counts
}
