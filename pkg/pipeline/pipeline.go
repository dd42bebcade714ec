// Package pipeline implements the candidate scoring and gating pipeline:
// feed collection, normalization, dedup and quality gates, scoring,
// staging, and the depth gate, ending in a pending set awaiting curation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/thebeakers/spsdaily/internal/jsonfile"
	"github.com/thebeakers/spsdaily/internal/metrics"
	"github.com/thebeakers/spsdaily/pkg/article"
	"github.com/thebeakers/spsdaily/pkg/feed"
)

// Pending is one run's worth of scored candidates, grouped by category,
// waiting for a curation decision.
type Pending map[string][]article.Candidate

// EntrySource produces raw feed entries. Implemented by feed.Fetcher.
type EntrySource interface {
	FetchAll(ctx context.Context, feeds []feed.Feed) []feed.RawEntry
}

// RationaleSource generates an optional one-line "why it matters" for a
// candidate. Failures mean the field is simply omitted.
type RationaleSource interface {
	Generate(ctx context.Context, headline, teaser, category string) (string, error)
}

// SnapshotSource looks up an archived-snapshot URL for a page. Absent on
// failure or when no snapshot exists.
type SnapshotSource interface {
	Lookup(ctx context.Context, url string) (string, error)
}

// ImageSource extracts a representative image URL from a live page.
type ImageSource interface {
	ExtractImage(ctx context.Context, url string) string
}

// Config drives one collection run.
type Config struct {
	Feeds             []feed.Feed
	TeaserMaxChars    int
	Gates             GateConfig
	Scoring           ScoreConfig
	Depth             DepthConfig
	SelectPerCategory int
	OverfetchFactor   int
	PendingPath       string
}

// Deps wires the pipeline's collaborators. Rationale, Snapshots and Images
// are optional; nil disables the enrichment.
type Deps struct {
	Source    EntrySource
	Ledger    SeenLedger
	Words     WordCounter
	Rationale RationaleSource
	Snapshots SnapshotSource
	Images    ImageSource
	Counters  *metrics.Counters
	Log       *slog.Logger
}

// Pipeline runs the collection pass. One invocation is one sequential
// pass; correctness does not depend on internal parallelism.
type Pipeline struct {
	cfg    Config
	deps   Deps
	scorer *Scorer
	depth  *DepthGate
}

// New creates a pipeline.
func New(cfg Config, deps Deps) *Pipeline {
	if cfg.TeaserMaxChars <= 0 {
		cfg.TeaserMaxChars = 200
	}
	if cfg.SelectPerCategory <= 0 {
		cfg.SelectPerCategory = 3
	}
	if cfg.OverfetchFactor <= 0 {
		cfg.OverfetchFactor = 3
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		scorer: NewScorer(cfg.Scoring),
		depth:  NewDepthGate(deps.Words, cfg.Depth, deps.Counters, deps.Log),
	}
}

// Run executes one full collection pass and returns the pending set. The
// seen-ledger write happens only after the depth gate has accepted a
// candidate; a ledger write failure aborts the run (prior persisted state
// is untouched).
func (p *Pipeline) Run(ctx context.Context) (Pending, error) {
	start := time.Now()
	defer func() {
		p.deps.Counters.RecordRun(time.Since(start))
	}()

	gates, err := NewGateFilter(p.cfg.Gates, p.deps.Ledger, p.deps.Counters, p.deps.Log)
	if err != nil {
		return nil, fmt.Errorf("build gate filter: %w", err)
	}

	entries := p.deps.Source.FetchAll(ctx, p.cfg.Feeds)
	p.deps.Log.Info("collection fetched", "entries", len(entries), "feeds", len(p.cfg.Feeds))

	// Normalize, gate, and score in discovery order.
	byCategory := make(map[string][]article.Candidate)
	for _, entry := range entries {
		p.deps.Counters.IncCollected()

		c, ok := Normalize(entry, p.cfg.TeaserMaxChars)
		if !ok {
			continue
		}
		if reason := gates.Check(ctx, &c); reason != ReasonNone {
			p.deps.Log.Debug("rejected", "reason", string(reason), "headline", c.Headline)
			continue
		}
		c.BaseScore = p.scorer.Base(&c)
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	pending := make(Pending, len(byCategory))
	for category, candidates := range byCategory {
		staged := Stage(candidates, p.cfg.SelectPerCategory, p.cfg.OverfetchFactor)
		for range staged {
			p.deps.Counters.IncStaged()
		}

		survivors := p.depth.Filter(ctx, staged)
		p.enrich(ctx, survivors)

		sort.SliceStable(survivors, func(i, j int) bool {
			return survivors[i].FinalScore > survivors[j].FinalScore
		})
		if len(survivors) > p.cfg.SelectPerCategory {
			survivors = survivors[:p.cfg.SelectPerCategory]
		}

		for i := range survivors {
			c := &survivors[i]
			if err := p.deps.Ledger.MarkSeen(ctx, c.URL, c.Headline, c.Category); err != nil {
				return nil, fmt.Errorf("mark seen %s: %w", c.URL, err)
			}
			p.deps.Counters.IncSelected()
		}

		if len(survivors) > 0 {
			pending[category] = survivors
		}
		p.deps.Log.Info("category selected",
			"category", category,
			"candidates", len(candidates),
			"staged", len(staged),
			"selected", len(survivors))
	}

	if p.cfg.PendingPath != "" {
		if err := jsonfile.Write(p.cfg.PendingPath, pending); err != nil {
			return nil, fmt.Errorf("write pending set: %w", err)
		}
	}

	p.deps.Log.Info("collection run finished",
		"took", time.Since(start).Round(time.Millisecond),
		"counters", p.deps.Counters.Snapshot())
	return pending, nil
}

// enrich attaches best-effort extras to depth-gate survivors: an archived
// snapshot URL, a one-line rationale, and an image when the feed gave none.
// Every failure silently omits the field.
func (p *Pipeline) enrich(ctx context.Context, survivors []article.Candidate) {
	for i := range survivors {
		c := &survivors[i]

		if p.deps.Snapshots != nil {
			if snap, err := p.deps.Snapshots.Lookup(ctx, c.URL); err == nil && snap != "" {
				c.SnapshotURL = snap
				p.deps.Counters.IncSnapshot()
			}
		}

		if p.deps.Rationale != nil {
			if why, err := p.deps.Rationale.Generate(ctx, c.Headline, c.Teaser, c.Category); err == nil && why != "" {
				c.Rationale = why
				p.deps.Counters.IncRationale()
			} else if err != nil {
				p.deps.Log.Debug("rationale generation failed", "url", c.URL, "error", err)
			}
		}

		if c.ImageURL == "" && p.deps.Images != nil {
			c.ImageURL = p.deps.Images.ExtractImage(ctx, c.URL)
		}
	}
}

// LoadPending reads a previously written pending set. A missing file
// yields an empty set.
func LoadPending(path string) (Pending, error) {
	var pending Pending
	if err := jsonfile.Read(path, &pending); err != nil {
		if os.IsNotExist(err) {
			return Pending{}, nil
		}
		return nil, err
	}
	if pending == nil {
		pending = Pending{}
	}
	return pending, nil
}
