package pipeline

import (
	"sort"

	"github.com/thebeakers/spsdaily/pkg/article"
)

// Stage ranks one category's candidates by base score and keeps the top
// selectPer × overfetch of them, bounding how many depth fetches run while
// leaving the depth gate margin to discard shallow pieces. The sort is
// stable: ties keep discovery order, except that a dated candidate ranks
// ahead of an undated one.
func Stage(candidates []article.Candidate, selectPer, overfetch int) []article.Candidate {
	if selectPer <= 0 {
		selectPer = 3
	}
	if overfetch <= 0 {
		overfetch = 1
	}

	staged := make([]article.Candidate, len(candidates))
	copy(staged, candidates)

	sort.SliceStable(staged, func(i, j int) bool {
		if staged[i].BaseScore != staged[j].BaseScore {
			return staged[i].BaseScore > staged[j].BaseScore
		}
		return staged[i].Dated() && !staged[j].Dated()
	})

	keep := selectPer * overfetch
	if keep < selectPer {
		keep = selectPer
	}
	if len(staged) > keep {
		staged = staged[:keep]
	}
	return staged
}
