package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SnapshotLookup resolves archived copies of article pages through the
// Wayback Machine availability API.
type SnapshotLookup struct {
	client  *http.Client
	baseURL string
}

// NewSnapshotLookup creates a lookup. baseURL is overridable for tests;
// empty means the public endpoint.
func NewSnapshotLookup(baseURL string) *SnapshotLookup {
	if baseURL == "" {
		baseURL = "https://archive.org"
	}
	return &SnapshotLookup{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

// Lookup returns the closest snapshot URL for pageURL, "" when none exists.
func (s *SnapshotLookup) Lookup(ctx context.Context, pageURL string) (string, error) {
	endpoint := s.baseURL + "/wayback/available?url=" + url.QueryEscape(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create wayback request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call wayback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wayback status %d", resp.StatusCode)
	}

	var result struct {
		ArchivedSnapshots struct {
			Closest struct {
				Available bool   `json:"available"`
				URL       string `json:"url"`
			} `json:"closest"`
		} `json:"archived_snapshots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode wayback response: %w", err)
	}

	if !result.ArchivedSnapshots.Closest.Available {
		return "", nil
	}
	return result.ArchivedSnapshots.Closest.URL, nil
}
