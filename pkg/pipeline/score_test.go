package pipeline

import (
	"strings"
	"testing"

	"github.com/thebeakers/spsdaily/pkg/article"
)

func TestScorerBase(t *testing.T) {
	t.Parallel()

	s := NewScorer(ScoreConfig{
		DomainWeights:      map[string]float64{"aeon.co": 1.5},
		SourceWeights:      map[string]float64{"Aeon": 0.5},
		MinTeaserChars:     80,
		ShortTeaserPenalty: -0.5,
	})

	longTeaser := strings.Repeat("substantive writing ", 5)

	tests := []struct {
		name string
		c    article.Candidate
		want float64
	}{
		{
			"weights add up",
			article.Candidate{Domain: "aeon.co", Source: "Aeon", Teaser: longTeaser},
			2.0,
		},
		{
			"unknown outlet is neutral",
			article.Candidate{Domain: "nowhere.example", Source: "Nobody", Teaser: longTeaser},
			0,
		},
		{
			"short teaser penalized",
			article.Candidate{Domain: "aeon.co", Source: "Aeon", Teaser: "thin"},
			1.5,
		},
		{
			"missing teaser penalized, not rejected",
			article.Candidate{Domain: "nowhere.example"},
			-0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Base(&tt.c); got != tt.want {
				t.Errorf("Base() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinalScoreFloorsWordCount(t *testing.T) {
	t.Parallel()

	// Below 100 words the log term is pinned to log10(100) = 2.
	if got, want := FinalScore(1.0, 45), 3.0; got != want {
		t.Errorf("FinalScore(1.0, 45) = %v, want %v", got, want)
	}
	if FinalScore(1.0, 0) != FinalScore(1.0, 100) {
		t.Errorf("floor not applied at 0 words")
	}
}

func TestFinalScoreMonotonicInWordCount(t *testing.T) {
	t.Parallel()

	prev := FinalScore(0, 100)
	for wc := 101; wc <= 20000; wc += 97 {
		cur := FinalScore(0, wc)
		if cur < prev {
			t.Fatalf("FinalScore decreased at wc=%d: %v < %v", wc, cur, prev)
		}
		prev = cur
	}

	// Damped: a 10x longer piece gains exactly one point.
	if diff := FinalScore(0, 10000) - FinalScore(0, 1000); diff > 1.0001 || diff < 0.9999 {
		t.Errorf("10x depth gained %v points, want 1", diff)
	}
}
