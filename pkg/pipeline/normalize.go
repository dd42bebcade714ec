package pipeline

import (
	"strings"

	"github.com/thebeakers/spsdaily/pkg/article"
	"github.com/thebeakers/spsdaily/pkg/feed"
)

// Normalize turns a raw feed entry into a candidate shell. Entries lacking
// a headline or a URL are discarded silently (ok == false); a missing date
// is valid and leaves Published nil.
func Normalize(e feed.RawEntry, teaserMax int) (article.Candidate, bool) {
	headline := article.CleanText(e.Title)
	link := strings.TrimSpace(e.Link)
	if headline == "" || link == "" {
		return article.Candidate{}, false
	}

	// Prefer the explicit publish timestamp, fall back to updated.
	published := e.Published
	if published == nil {
		published = e.Updated
	}

	return article.Candidate{
		Category:  e.Feed.Category,
		Source:    e.Feed.Name,
		URL:       link,
		Domain:    article.NormalizeDomain(link),
		Headline:  headline,
		Teaser:    article.TruncateTeaser(e.Summary, teaserMax),
		Published: published,
		ImageURL:  strings.TrimSpace(e.Image),
	}, true
}
