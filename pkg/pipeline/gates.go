package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/thebeakers/spsdaily/internal/metrics"
	"github.com/thebeakers/spsdaily/pkg/article"
)

// SeenLedger is the durable record of previously processed URLs. Membership
// is permanent: gating lasts for the life of the database.
type SeenLedger interface {
	HasSeen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, url, headline, category string) error
}

// RejectReason identifies which gate dropped a candidate. Empty means the
// candidate passed every gate.
type RejectReason string

const (
	ReasonNone              RejectReason = ""
	ReasonBlockedDomain     RejectReason = "blocked_domain"
	ReasonClickbait         RejectReason = "clickbait"
	ReasonBlockedTopic      RejectReason = "blocked_topic"
	ReasonStale             RejectReason = "stale"
	ReasonAlreadySeen       RejectReason = "already_seen"
	ReasonDuplicateHeadline RejectReason = "duplicate_headline"
)

// GateConfig configures the dedup and quality gates.
type GateConfig struct {
	BlockedDomains    []string
	ClickbaitPatterns []string
	// BlockedTopics maps a category to keywords that reject candidates in
	// that category only (e.g. political terms in book reviews).
	BlockedTopics map[string][]string
	MaxAge        time.Duration
}

// GateFilter applies the rejection gates in a fixed order: blocked domain,
// clickbait, blocked topic, staleness, prior-seen, in-run duplicate
// headline. Absence of a field never causes rejection on its own.
type GateFilter struct {
	blockedDomains map[string]bool
	clickbait      []*regexp.Regexp
	blockedTopics  map[string][]string
	maxAge         time.Duration

	ledger   SeenLedger
	counters *metrics.Counters
	log      *slog.Logger

	// Headlines and URLs admitted earlier in the same run, across all
	// categories.
	headlines map[string]bool
	urls      map[string]bool
}

// NewGateFilter creates a filter for one collection run.
func NewGateFilter(cfg GateConfig, ledger SeenLedger, counters *metrics.Counters, log *slog.Logger) (*GateFilter, error) {
	blocked := make(map[string]bool, len(cfg.BlockedDomains))
	for _, d := range cfg.BlockedDomains {
		blocked[strings.ToLower(strings.TrimSpace(d))] = true
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.ClickbaitPatterns))
	for _, p := range cfg.ClickbaitPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("clickbait pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	topics := make(map[string][]string, len(cfg.BlockedTopics))
	for cat, words := range cfg.BlockedTopics {
		lowered := make([]string, len(words))
		for i, w := range words {
			lowered[i] = strings.ToLower(w)
		}
		topics[cat] = lowered
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	return &GateFilter{
		blockedDomains: blocked,
		clickbait:      patterns,
		blockedTopics:  topics,
		maxAge:         maxAge,
		ledger:         ledger,
		counters:       counters,
		log:            log,
		headlines:      make(map[string]bool),
		urls:           make(map[string]bool),
	}, nil
}

// Check runs every gate against the candidate in order and returns the
// first rejection reason, or ReasonNone when the candidate is admitted.
// Admitted headlines are remembered for in-run duplicate detection.
func (g *GateFilter) Check(ctx context.Context, c *article.Candidate) RejectReason {
	if g.blockedDomains[c.Domain] {
		g.counters.IncBlockedDomain()
		return ReasonBlockedDomain
	}

	for _, re := range g.clickbait {
		if re.MatchString(c.Headline) || re.MatchString(c.Teaser) {
			g.counters.IncClickbait()
			return ReasonClickbait
		}
	}

	if words := g.blockedTopics[c.Category]; len(words) > 0 {
		text := strings.ToLower(c.Headline + " " + c.Teaser)
		for _, w := range words {
			if strings.Contains(text, w) {
				g.counters.IncBlockedTopic()
				return ReasonBlockedTopic
			}
		}
	}

	if c.Published != nil && time.Since(*c.Published) > g.maxAge {
		g.counters.IncStale()
		return ReasonStale
	}

	seen, err := g.ledger.HasSeen(ctx, c.URL)
	if err != nil {
		// A read failure must not drop the candidate; the ledger write at
		// the end of the run is the authoritative one.
		g.log.Warn("seen-ledger lookup failed", "url", c.URL, "error", err)
	}
	if seen {
		g.counters.IncAlreadySeen()
		return ReasonAlreadySeen
	}

	key := strings.ToLower(strings.TrimSpace(c.Headline))
	if g.headlines[key] || g.urls[c.URL] {
		g.counters.IncDuplicateHeadline()
		return ReasonDuplicateHeadline
	}
	g.headlines[key] = true
	g.urls[c.URL] = true

	return ReasonNone
}
