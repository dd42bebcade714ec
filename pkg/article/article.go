package article

import (
	"net/url"
	"strings"
	"time"
)

// Candidate is one prospective article moving through the pipeline, from
// feed ingestion to the curation decision. The URL is the identity key:
// two candidates with the same URL are the same entity.
type Candidate struct {
	Category    string     `json:"category"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	Domain      string     `json:"domain,omitempty"`
	Headline    string     `json:"headline"`
	Teaser      string     `json:"teaser"`
	Published   *time.Time `json:"published,omitempty"`
	BaseScore   float64    `json:"score"`
	WordCount   int        `json:"word_count,omitempty"`
	FinalScore  float64    `json:"final_score,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	SnapshotURL string     `json:"archiveUrl,omitempty"`
	Rationale   string     `json:"why,omitempty"`
	ApprovedOn  string     `json:"approvedDate,omitempty"`
}

// Dated reports whether the candidate carries a publish timestamp.
func (c *Candidate) Dated() bool { return c.Published != nil }

// NormalizeDomain extracts the lowercased host from a URL, without a
// leading "www." label. Returns "" when the URL does not parse.
func NormalizeDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	return host
}
