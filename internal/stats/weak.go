package stats

import (
	"sort"

	"github.com/verte-zerg/signdrill/internal/model"
)

// SelectWeakLetters selects the lowest-accuracy letters from aggregates.
func SelectWeakLetters(aggs []model.LetterAggregate, top int) map[string]struct{} {
	weakSet := map[string]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := make([]model.LetterAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := accuracy(candidates[i])
		aj := accuracy(candidates[j])
		if ai == aj {
			return candidates[i].Letter < candidates[j].Letter
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		if candidates[i].Letter != "" {
			weakSet[candidates[i].Letter] = struct{}{}
		}
	}
	return weakSet
}

func accuracy(agg model.LetterAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
