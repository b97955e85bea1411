package stats

import (
	"context"

	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Rounds            []model.RoundAggregate
	WindowRoundIDs    []int64
	LetterAggsAll     []model.LetterAggregate
	LetterAggsWindow  []model.LetterAggregate
	CurveLetters      []string
	PerRoundForLetter map[int64]map[string]model.LetterAggregate
}

// BuildReport loads and prepares data for stats rendering. Curve letters
// come from cfg.Letters or, when empty, the five most attempted letters.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	rounds, err := st.ListRounds(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(rounds) > cfg.Last {
		rounds = rounds[len(rounds)-cfg.Last:]
	}

	allIDs := roundIDs(rounds)
	windowIDs := lastRoundIDs(rounds, cfg.CurveWindow)
	aggsAll, err := st.ListLetterAggregatesForRounds(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	aggsWindow, err := st.ListLetterAggregatesForRounds(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	letters := ParseLetters(cfg.Letters)
	if len(letters) == 0 {
		letters = TopLettersByFrequency(aggsAll, 5)
	}
	perRound, err := st.ListLetterStatsForRounds(ctx, allIDs, letters)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Rounds:            rounds,
		WindowRoundIDs:    windowIDs,
		LetterAggsAll:     aggsAll,
		LetterAggsWindow:  aggsWindow,
		CurveLetters:      letters,
		PerRoundForLetter: perRound,
	}, nil
}

func roundIDs(rounds []model.RoundAggregate) []int64 {
	ids := make([]int64, len(rounds))
	for i, r := range rounds {
		ids[i] = r.RoundID
	}
	return ids
}

func lastRoundIDs(rounds []model.RoundAggregate, window int) []int64 {
	if window <= 0 || len(rounds) <= window {
		return roundIDs(rounds)
	}
	return roundIDs(rounds[len(rounds)-window:])
}
