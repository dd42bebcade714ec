package pipeline

import (
	"testing"
	"time"

	"github.com/thebeakers/spsdaily/pkg/article"
)

func TestStageRanksAndTruncates(t *testing.T) {
	t.Parallel()

	candidates := []article.Candidate{
		{URL: "u1", BaseScore: 0.5},
		{URL: "u2", BaseScore: 2.0},
		{URL: "u3", BaseScore: 1.0},
		{URL: "u4", BaseScore: 1.5},
		{URL: "u5", BaseScore: 0.1},
		{URL: "u6", BaseScore: 1.2},
		{URL: "u7", BaseScore: 0.9},
	}

	staged := Stage(candidates, 2, 3)
	if len(staged) != 6 {
		t.Fatalf("staged %d, want 6", len(staged))
	}
	if staged[0].URL != "u2" || staged[1].URL != "u4" || staged[2].URL != "u6" {
		t.Errorf("wrong order: %s, %s, %s", staged[0].URL, staged[1].URL, staged[2].URL)
	}
	for i := 1; i < len(staged); i++ {
		if staged[i].BaseScore > staged[i-1].BaseScore {
			t.Fatalf("not sorted descending at %d", i)
		}
	}

	// Input slice is left alone.
	if candidates[0].URL != "u1" {
		t.Errorf("input mutated")
	}
}

func TestStageTieBreakPrefersDated(t *testing.T) {
	t.Parallel()

	now := time.Now()
	candidates := []article.Candidate{
		{URL: "undated", BaseScore: 1.0},
		{URL: "dated", BaseScore: 1.0, Published: &now},
	}

	staged := Stage(candidates, 3, 1)
	if staged[0].URL != "dated" {
		t.Errorf("tie-break put %s first, want dated", staged[0].URL)
	}
}

func TestStageKeepsAtLeastSelectPer(t *testing.T) {
	t.Parallel()

	candidates := make([]article.Candidate, 10)
	for i := range candidates {
		candidates[i] = article.Candidate{URL: string(rune('a' + i))}
	}

	// Degenerate overfetch still keeps selectPer.
	if got := len(Stage(candidates, 4, 0)); got != 4 {
		t.Errorf("kept %d, want 4", got)
	}
	if got := len(Stage(candidates[:2], 4, 3)); got != 2 {
		t.Errorf("kept %d from a short list, want 2", got)
	}
}
