package curate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/thebeakers/spsdaily/internal/jsonfile"
	"github.com/thebeakers/spsdaily/internal/store"
	"github.com/thebeakers/spsdaily/pkg/article"
	"github.com/thebeakers/spsdaily/pkg/pipeline"
)

// Verbs accepted in callback data.
const (
	VerbApprove = "approve"
	VerbReject  = "reject"
	VerbPick    = "pick"
)

// Action is a parsed curation command: what to do with which pending
// candidate.
type Action struct {
	Verb     string
	Category string
	Index    int
}

// ParseAction decodes "verb:category:index" callback data.
func ParseAction(data string) (Action, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return Action{}, fmt.Errorf("malformed action %q", data)
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return Action{}, fmt.Errorf("malformed action index %q: %w", data, err)
	}
	switch parts[0] {
	case VerbApprove, VerbReject, VerbPick:
	default:
		return Action{}, fmt.Errorf("unknown action verb %q", parts[0])
	}
	return Action{Verb: parts[0], Category: parts[1], Index: idx}, nil
}

// Archiver is the slice of the store the state machine needs.
type Archiver interface {
	AddToArchive(ctx context.Context, c *article.Candidate, approvedDate string) error
	ListArchive(ctx context.Context, opts store.ArchiveListOpts) ([]store.ArchiveEntry, error)
}

// Publisher pushes updated feed files to wherever the site is served
// from. A nil Publisher disables publishing.
type Publisher interface {
	Publish(ctx context.Context, paths ...string) error
}

// StateMachine applies curation decisions to the published feed and the
// archive. Every mutation is written through to disk before the result
// message is returned.
type StateMachine struct {
	archive     Archiver
	feedPath    string
	archivePath string
	liveCap     int
	maxLiveAge  time.Duration
	publisher   Publisher
	log         *slog.Logger

	// Now is the clock; tests override it to control the calendar day.
	Now func() time.Time
}

// NewStateMachine wires a state machine over the given archive store and
// feed files. liveCap bounds each category's live list; maxLiveAge drives
// CleanupExpired. publisher may be nil.
func NewStateMachine(archive Archiver, feedPath, archivePath string, liveCap int, maxLiveAge time.Duration, publisher Publisher, log *slog.Logger) *StateMachine {
	if liveCap <= 0 {
		liveCap = 15
	}
	if maxLiveAge <= 0 {
		maxLiveAge = 7 * 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &StateMachine{
		archive:     archive,
		feedPath:    feedPath,
		archivePath: archivePath,
		liveCap:     liveCap,
		maxLiveAge:  maxLiveAge,
		publisher:   publisher,
		log:         log,
		Now:         time.Now,
	}
}

func (m *StateMachine) today() string {
	return m.Now().Format("2006-01-02")
}

// Apply resolves an action against the pending set and executes it.
// An action pointing at a category or index that no longer exists is
// answered with "Article not found" and mutates nothing.
func (m *StateMachine) Apply(ctx context.Context, act Action, pending pipeline.Pending) (string, error) {
	list, ok := pending[act.Category]
	if !ok || act.Index < 0 || act.Index >= len(list) {
		return "Article not found", nil
	}
	c := list[act.Index]
	switch act.Verb {
	case VerbApprove:
		return m.Approve(ctx, c)
	case VerbReject:
		return m.Reject(ctx, c)
	case VerbPick:
		return m.Pick(ctx, c)
	}
	return "Article not found", nil
}

// Approve moves a candidate into the live feed. Approving a URL that is
// already live is a no-op answered with "Already live". If no editor's
// pick has been set today the approved article is auto-promoted to the
// pick slot.
func (m *StateMachine) Approve(ctx context.Context, c article.Candidate) (string, error) {
	feed, err := LoadFeed(m.feedPath)
	if err != nil {
		return "", fmt.Errorf("load feed: %w", err)
	}
	if feed.Contains(c.Category, c.URL) {
		return "Already live", nil
	}

	today := m.today()
	c.ApprovedOn = today
	feed.insertFront(c, m.liveCap)

	result := "LIVE: " + clip(c.Headline, 40)
	if feed.LastUpdated != today || feed.EditorsPick == nil {
		pick := c
		feed.EditorsPick = &pick
		result = "LIVE + PICK: " + clip(c.Headline, 35)
	}
	feed.LastUpdated = today

	if err := m.commit(ctx, feed, &c, today); err != nil {
		return "", err
	}
	return result + m.push(ctx), nil
}

// Reject removes a candidate from the live feed if present. Rejecting an
// article that was never approved still succeeds.
func (m *StateMachine) Reject(ctx context.Context, c article.Candidate) (string, error) {
	feed, err := LoadFeed(m.feedPath)
	if err != nil {
		return "", fmt.Errorf("load feed: %w", err)
	}
	result := "Rejected: " + clip(c.Headline, 40)
	if !feed.remove(c.Category, c.URL) {
		return result, nil
	}
	if feed.EditorsPick != nil && feed.EditorsPick.URL == c.URL {
		feed.EditorsPick = nil
	}
	if err := feed.Save(m.feedPath); err != nil {
		return "", fmt.Errorf("save feed: %w", err)
	}
	return result + m.push(ctx), nil
}

// Pick makes a candidate today's editor's pick, approving it first if it
// is not already live. Picking always replaces the current pick.
func (m *StateMachine) Pick(ctx context.Context, c article.Candidate) (string, error) {
	feed, err := LoadFeed(m.feedPath)
	if err != nil {
		return "", fmt.Errorf("load feed: %w", err)
	}

	today := m.today()
	c.ApprovedOn = today
	archived := false
	if !feed.Contains(c.Category, c.URL) {
		feed.insertFront(c, m.liveCap)
		archived = true
	}
	pick := c
	feed.EditorsPick = &pick
	feed.LastUpdated = today

	if archived {
		if err := m.commit(ctx, feed, &c, today); err != nil {
			return "", err
		}
	} else if err := feed.Save(m.feedPath); err != nil {
		return "", fmt.Errorf("save feed: %w", err)
	}
	return "PICK: " + clip(c.Headline, 40) + m.push(ctx), nil
}

// CleanupExpired drops live entries older than the configured age from
// the published feed. Archived copies are kept.
func (m *StateMachine) CleanupExpired(ctx context.Context) (int, error) {
	feed, err := LoadFeed(m.feedPath)
	if err != nil {
		return 0, fmt.Errorf("load feed: %w", err)
	}
	cutoff := m.Now().Add(-m.maxLiveAge).Format("2006-01-02")
	removed := feed.CleanupExpired(cutoff)
	if removed == 0 {
		return 0, nil
	}
	if feed.EditorsPick != nil && !feed.Contains(feed.EditorsPick.Category, feed.EditorsPick.URL) {
		feed.EditorsPick = nil
	}
	if err := feed.Save(m.feedPath); err != nil {
		return 0, fmt.Errorf("save feed: %w", err)
	}
	m.log.Info("expired live articles removed", "count", removed, "cutoff", cutoff)
	return removed, nil
}

// Status summarizes the live feed for the /status command.
func (m *StateMachine) Status(pendingTotal int) (string, error) {
	feed, err := LoadFeed(m.feedPath)
	if err != nil {
		return "", fmt.Errorf("load feed: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pending review: %d\n", pendingTotal)
	total := 0
	for category, n := range feed.Counts() {
		fmt.Fprintf(&b, "Live %s: %d\n", category, n)
		total += n
	}
	fmt.Fprintf(&b, "Live total: %d\n", total)
	if feed.EditorsPick != nil {
		fmt.Fprintf(&b, "Editor's pick: %s", clip(feed.EditorsPick.Headline, 60))
	} else {
		b.WriteString("Editor's pick: none")
	}
	return b.String(), nil
}

// commit persists the feed, records the approval in the archive, and
// regenerates the archive export. Archive failures are fatal to the
// action: the decision must not be silently lost.
func (m *StateMachine) commit(ctx context.Context, feed *Feed, c *article.Candidate, approvedDate string) error {
	if err := feed.Save(m.feedPath); err != nil {
		return fmt.Errorf("save feed: %w", err)
	}
	if err := m.archive.AddToArchive(ctx, c, approvedDate); err != nil {
		return fmt.Errorf("archive %s: %w", c.URL, err)
	}
	if err := m.regenerateArchive(ctx); err != nil {
		return fmt.Errorf("regenerate archive export: %w", err)
	}
	return nil
}

// regenerateArchive rewrites the archive export file as
// date -> category -> entries, newest dates first by key order.
func (m *StateMachine) regenerateArchive(ctx context.Context) error {
	entries, err := m.archive.ListArchive(ctx, store.ArchiveListOpts{})
	if err != nil {
		return err
	}
	grouped := make(map[string]map[string][]store.ArchiveEntry)
	for _, e := range entries {
		byCategory, ok := grouped[e.ApprovedDate]
		if !ok {
			byCategory = make(map[string][]store.ArchiveEntry)
			grouped[e.ApprovedDate] = byCategory
		}
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}
	return jsonfile.Write(m.archivePath, grouped)
}

// push publishes the updated files and reports the outcome as a suffix
// for the result message. Push failure never fails the action: the feed
// on disk is already correct.
func (m *StateMachine) push(ctx context.Context) string {
	if m.publisher == nil {
		return ""
	}
	if err := m.publisher.Publish(ctx, m.feedPath, m.archivePath); err != nil {
		m.log.Warn("publish failed", "error", err)
		return " [push pending]"
	}
	return " [pushed]"
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
