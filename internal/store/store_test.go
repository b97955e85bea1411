package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "signdrill.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestDocumentsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "doc"); err != nil || ok {
		t.Fatalf("expected missing document, got ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, "doc", []byte(`{"points":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "doc", []byte(`{"points":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, ok, err := s.Get(ctx, "doc")
	if err != nil || !ok || string(data) != `{"points":2}` {
		t.Fatalf("unexpected document %q ok=%v err=%v", data, ok, err)
	}
	if err := s.Delete(ctx, "doc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "doc"); ok {
		t.Fatalf("expected document deleted")
	}
}

func TestRoundsAndLetterAggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	insert := func(game model.GameType, offset time.Duration, letters []model.LetterStats) int64 {
		t.Helper()
		id, err := s.InsertRound(ctx, model.RoundStats{
			SessionID:  "s",
			GameType:   game,
			StartedAt:  base.Add(offset),
			EndedAt:    base.Add(offset + time.Minute),
			Score:      100,
			Correct:    3,
			Incorrect:  1,
			Accuracy:   75,
			DurationMs: 60000,
		}, letters)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		return id
	}
	first := insert(model.GameTimeAttack, 0, []model.LetterStats{
		{Letter: "A", Correct: 2, LatencySumMs: 1800, LatencyCount: 2},
		{Letter: "B", Incorrect: 1},
	})
	second := insert(model.GameSpellWord, time.Hour, []model.LetterStats{
		{Letter: "A", Correct: 1, LatencySumMs: 700, LatencyCount: 1},
	})

	rounds, err := s.ListRounds(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rounds) != 2 || rounds[0].RoundID != first || rounds[1].GameType != model.GameSpellWord {
		t.Fatalf("unexpected rounds %+v", rounds)
	}
	filtered, _ := s.ListRounds(ctx, model.StatsConfig{Game: model.GameTimeAttack})
	if len(filtered) != 1 || filtered[0].Accuracy != 75 {
		t.Fatalf("unexpected filtered rounds %+v", filtered)
	}

	aggs, err := s.ListLetterAggregatesForRounds(ctx, []int64{first, second})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	byLetter := map[string]model.LetterAggregate{}
	for _, a := range aggs {
		byLetter[a.Letter] = a
	}
	if byLetter["A"].Correct != 3 || byLetter["A"].LatencySumMs != 2500 || byLetter["B"].Incorrect != 1 {
		t.Fatalf("unexpected aggregates %+v", byLetter)
	}

	weak, err := s.GetWeakLetters(ctx, 1, "")
	if err != nil {
		t.Fatalf("weak: %v", err)
	}
	if len(weak) != 1 || weak[0].Letter != "A" || weak[0].Correct != 1 {
		t.Fatalf("expected only the latest round, got %+v", weak)
	}

	per, err := s.ListLetterStatsForRounds(ctx, []int64{first, second}, []string{"A"})
	if err != nil {
		t.Fatalf("per round: %v", err)
	}
	if per[first]["A"].Correct != 2 || per[second]["A"].Correct != 1 {
		t.Fatalf("unexpected per-round stats %+v", per)
	}
}
