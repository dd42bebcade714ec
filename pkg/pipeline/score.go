package pipeline

import (
	"math"

	"github.com/thebeakers/spsdaily/pkg/article"
)

// ScoreConfig configures base scoring. Weights default to 0 for unknown
// domains and sources: an unconfigured outlet is neutral, not penalized.
type ScoreConfig struct {
	DomainWeights map[string]float64
	SourceWeights map[string]float64
	// Teasers shorter than MinTeaserChars take ShortTeaserPenalty (a
	// negative constant). A thin teaser is a negative signal, not a reject.
	MinTeaserChars     int
	ShortTeaserPenalty float64
}

// Scorer computes candidate base scores from reputation weight tables and
// teaser-length heuristics.
type Scorer struct {
	cfg ScoreConfig
}

// NewScorer creates a scorer.
func NewScorer(cfg ScoreConfig) *Scorer {
	if cfg.MinTeaserChars <= 0 {
		cfg.MinTeaserChars = 80
	}
	if cfg.ShortTeaserPenalty == 0 {
		cfg.ShortTeaserPenalty = -0.5
	}
	return &Scorer{cfg: cfg}
}

// Base returns the pre-depth score: domain weight plus source weight plus
// the short-teaser penalty when applicable.
func (s *Scorer) Base(c *article.Candidate) float64 {
	score := s.cfg.DomainWeights[c.Domain] + s.cfg.SourceWeights[c.Source]
	if len(c.Teaser) < s.cfg.MinTeaserChars {
		score += s.cfg.ShortTeaserPenalty
	}
	return score
}

// FinalScore combines the base score with a damped depth signal. Word
// counts below 100 are floored to 100, so the log term is never negative
// and the result is monotonically non-decreasing in word count.
func FinalScore(base float64, wordCount int) float64 {
	wc := wordCount
	if wc < 100 {
		wc = 100
	}
	return base + math.Log10(float64(wc))
}
