package pipeline

import (
	"context"
	"log/slog"

	"github.com/thebeakers/spsdaily/internal/metrics"
	"github.com/thebeakers/spsdaily/pkg/article"
)

// WordCounter measures the depth of a live article page. 0 means fetch
// failure or non-text response and is treated as below every threshold.
type WordCounter interface {
	CountWords(ctx context.Context, url string) int
}

// DepthConfig holds word-count minimums. A per-domain override beats the
// per-category minimum; DefaultMinWords applies when neither is set.
type DepthConfig struct {
	CategoryMinWords map[string]int
	DomainMinWords   map[string]int
	DefaultMinWords  int
}

// Threshold returns the minimum word count for a candidate.
func (d DepthConfig) Threshold(category, domain string) int {
	if min, ok := d.DomainMinWords[domain]; ok {
		return min
	}
	if min, ok := d.CategoryMinWords[category]; ok {
		return min
	}
	if d.DefaultMinWords > 0 {
		return d.DefaultMinWords
	}
	return 600
}

// DepthGate fetches full-article word counts for staged candidates, drops
// the ones below threshold and finalizes scores for the rest. Fetch
// failures are soft: the candidate is dropped, the batch continues.
type DepthGate struct {
	counter  WordCounter
	cfg      DepthConfig
	counters *metrics.Counters
	log      *slog.Logger
}

// NewDepthGate creates a depth gate.
func NewDepthGate(counter WordCounter, cfg DepthConfig, counters *metrics.Counters, log *slog.Logger) *DepthGate {
	return &DepthGate{counter: counter, cfg: cfg, counters: counters, log: log}
}

// Filter measures every candidate once and returns the survivors with
// WordCount and FinalScore filled in.
func (g *DepthGate) Filter(ctx context.Context, staged []article.Candidate) []article.Candidate {
	survivors := make([]article.Candidate, 0, len(staged))
	for _, c := range staged {
		c.WordCount = g.counter.CountWords(ctx, c.URL)
		min := g.cfg.Threshold(c.Category, c.Domain)
		if c.WordCount < min {
			g.counters.IncShallowDropped()
			g.log.Debug("depth gate dropped",
				"url", c.URL, "words", c.WordCount, "min", min)
			continue
		}
		c.FinalScore = FinalScore(c.BaseScore, c.WordCount)
		survivors = append(survivors, c)
	}
	return survivors
}
