package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/thebeakers/spsdaily/internal/metrics"
	"github.com/thebeakers/spsdaily/pkg/feed"
)

type fakeSource struct{ entries []feed.RawEntry }

func (f *fakeSource) FetchAll(ctx context.Context, feeds []feed.Feed) []feed.RawEntry {
	return f.entries
}

func rawEntry(category, source, title, link string) feed.RawEntry {
	now := time.Now()
	return feed.RawEntry{
		Feed:      feed.Feed{Name: source, URL: "https://feeds.example.com", Category: category},
		Title:     title,
		Summary:   "A summary comfortably longer than the minimum teaser threshold used in these tests.",
		Link:      link,
		Published: &now,
	}
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	var entries []feed.RawEntry
	words := fakeWordCounter{}
	for i := 0; i < 6; i++ {
		link := fmt.Sprintf("https://site%d.example.com/a", i)
		entries = append(entries, rawEntry("science", "Src", fmt.Sprintf("Science piece %d", i), link))
		// Deeper articles later in discovery order.
		words[link] = 500 + i*200
	}
	entries = append(entries, rawEntry("books", "Books Src", "On Reading Slowly", "https://books.example.com/a"))
	words["https://books.example.com/a"] = 900

	ledger := newFakeLedger()
	counters := metrics.NewCounters()
	pendingPath := filepath.Join(t.TempDir(), "pending_articles.json")

	pipe := New(
		Config{
			Feeds:             []feed.Feed{{Name: "Src", URL: "https://feeds.example.com", Category: "science"}},
			Depth:             DepthConfig{DefaultMinWords: 600},
			SelectPerCategory: 2,
			OverfetchFactor:   2,
			PendingPath:       pendingPath,
		},
		Deps{
			Source:   &fakeSource{entries: entries},
			Ledger:   ledger,
			Words:    words,
			Counters: counters,
			Log:      testLogger(),
		},
	)

	pending, err := pipe.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pending["science"]) != 2 {
		t.Fatalf("science pending = %d, want 2", len(pending["science"]))
	}
	if len(pending["books"]) != 1 {
		t.Fatalf("books pending = %d, want 1", len(pending["books"]))
	}

	// Ordered by final score, and every survivor carries one.
	sci := pending["science"]
	if sci[0].FinalScore < sci[1].FinalScore {
		t.Errorf("pending not sorted by final score")
	}
	for _, c := range sci {
		if c.WordCount < 600 {
			t.Errorf("shallow candidate selected: %s (%d words)", c.URL, c.WordCount)
		}
	}

	// Only selected candidates reach the seen ledger.
	if len(ledger.marked) != 3 {
		t.Errorf("marked %d urls, want 3: %v", len(ledger.marked), ledger.marked)
	}

	// The pending file round-trips.
	loaded, err := LoadPending(pendingPath)
	if err != nil {
		t.Fatalf("LoadPending: %v", err)
	}
	if len(loaded["science"]) != 2 || len(loaded["books"]) != 1 {
		t.Errorf("reloaded pending shape: science=%d books=%d",
			len(loaded["science"]), len(loaded["books"]))
	}

	snap := counters.Snapshot()
	if snap["collected"] != 7 {
		t.Errorf("collected = %d, want 7", snap["collected"])
	}
	if snap["selected"] != 3 {
		t.Errorf("selected = %d, want 3", snap["selected"])
	}
}

func TestPipelineMarkSeenFailureAbortsRun(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	ledger.markErr = fmt.Errorf("disk full")
	words := fakeWordCounter{"https://site.example.com/a": 900}

	pipe := New(
		Config{Depth: DepthConfig{DefaultMinWords: 600}},
		Deps{
			Source:   &fakeSource{entries: []feed.RawEntry{rawEntry("science", "Src", "Fine piece", "https://site.example.com/a")}},
			Ledger:   ledger,
			Words:    words,
			Counters: metrics.NewCounters(),
			Log:      testLogger(),
		},
	)

	if _, err := pipe.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite ledger write failure")
	}
}

func TestLoadPendingMissingFile(t *testing.T) {
	t.Parallel()

	pending, err := LoadPending(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadPending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %v, want empty", pending)
	}
}
