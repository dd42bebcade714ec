package metrics

import (
	"sync"
	"time"
)

// Counters tracks per-reason rejection counts for one or more collection
// runs. Every gate rejection increments exactly one counter, so the sum of
// the rejection counters plus Staged equals Collected.
type Counters struct {
	mu sync.Mutex

	Collected          int64
	BlockedDomain      int64
	Clickbait          int64
	BlockedTopic       int64
	Stale              int64
	AlreadySeen        int64
	DuplicateHeadline  int64
	ShallowDropped     int64
	Staged             int64
	Selected           int64
	RationaleGenerated int64
	SnapshotsAttached  int64

	LastRun     time.Time
	LastRunTook time.Duration
}

// NewCounters returns a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) IncCollected()         { c.add(&c.Collected) }
func (c *Counters) IncBlockedDomain()     { c.add(&c.BlockedDomain) }
func (c *Counters) IncClickbait()         { c.add(&c.Clickbait) }
func (c *Counters) IncBlockedTopic()      { c.add(&c.BlockedTopic) }
func (c *Counters) IncStale()             { c.add(&c.Stale) }
func (c *Counters) IncAlreadySeen()       { c.add(&c.AlreadySeen) }
func (c *Counters) IncDuplicateHeadline() { c.add(&c.DuplicateHeadline) }
func (c *Counters) IncShallowDropped()    { c.add(&c.ShallowDropped) }
func (c *Counters) IncStaged()            { c.add(&c.Staged) }
func (c *Counters) IncSelected()          { c.add(&c.Selected) }
func (c *Counters) IncRationale()         { c.add(&c.RationaleGenerated) }
func (c *Counters) IncSnapshot()          { c.add(&c.SnapshotsAttached) }

func (c *Counters) add(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// RecordRun stamps the last completed collection run.
func (c *Counters) RecordRun(took time.Duration) {
	c.mu.Lock()
	c.LastRun = time.Now().UTC()
	c.LastRunTook = took
	c.mu.Unlock()
}

// Snapshot returns a copyable view for logging and the status API.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]int64{
		"collected":           c.Collected,
		"blocked_domain":      c.BlockedDomain,
		"clickbait":           c.Clickbait,
		"blocked_topic":       c.BlockedTopic,
		"stale":               c.Stale,
		"already_seen":        c.AlreadySeen,
		"duplicate_headline":  c.DuplicateHeadline,
		"shallow_dropped":     c.ShallowDropped,
		"staged":              c.Staged,
		"selected":            c.Selected,
		"rationale_generated": c.RationaleGenerated,
		"snapshots_attached":  c.SnapshotsAttached,
	}
}
