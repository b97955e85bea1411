package scoring

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
)

func TestTimeAttackPointsScenario(t *testing.T) {
	if got := TimeAttack.Points(0.95, 900*time.Millisecond, 5); got != 40 {
		t.Fatalf("expected 40 points, got %d", got)
	}
	if got := TimeAttack.Points(0.75, 2500*time.Millisecond, 3); got != 25 {
		t.Fatalf("expected 25 points, got %d", got)
	}
	if got := TimeAttack.Points(0.7, 5*time.Second, 0); got != 15 {
		t.Fatalf("expected base points only, got %d", got)
	}
}

func TestGenericDetectionPoints(t *testing.T) {
	cases := []struct {
		conf    float64
		elapsed time.Duration
		want    int
	}{
		{0.95, 500 * time.Millisecond, 20},
		{0.85, 1500 * time.Millisecond, 16},
		{0.75, 2500 * time.Millisecond, 12},
		{0.7, 4 * time.Second, 10},
		{0.9, -1, 13},
		{1.2, 0, 0},
	}
	for _, tc := range cases {
		if got := DetectionPoints(tc.conf, tc.elapsed); got != tc.want {
			t.Fatalf("DetectionPoints(%v, %v) = %d, want %d", tc.conf, tc.elapsed, got, tc.want)
		}
	}
}

func TestGameTables(t *testing.T) {
	if got := SpellWord.Points(0.92, 1500*time.Millisecond, 0); got != 35 {
		t.Fatalf("expected spell word 35, got %d", got)
	}
	if got := MemoryMatch.Points(0.85, 0, 0); got != 30 {
		t.Fatalf("expected memory 30, got %d", got)
	}
	if TableFor("unknown").Base != Generic.Base {
		t.Fatalf("expected generic fallback")
	}
}

func TestEndOfRoundBonuses(t *testing.T) {
	if got := TimeAttackBonus(20, 95); got != 130 {
		t.Fatalf("expected cumulative time attack bonus 130, got %d", got)
	}
	if got := TimeAttackBonus(12, 75); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := TimeAttackBonus(3, 60); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := SpellWordBonus(true, 25*time.Second, 8); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := SpellWordBonus(true, 45*time.Second, 3); got != 65 {
		t.Fatalf("expected 65, got %d", got)
	}
	if got := MemoryBonus(6, 100*time.Second); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := MemoryBonus(18, 200*time.Second); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := MemoryBonus(30, 400*time.Second); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestLevels(t *testing.T) {
	if LevelFromPoints(0) != 1 || LevelFromPoints(99) != 1 || LevelFromPoints(100) != 2 || LevelFromPoints(250) != 3 {
		t.Fatalf("unexpected level mapping")
	}
	if PointsToNextLevel(250) != 50 || PointsToNextLevel(200) != 100 {
		t.Fatalf("unexpected points to next level")
	}
	if LevelProgress(250) != 0.5 {
		t.Fatalf("unexpected level progress %v", LevelProgress(250))
	}
}

func TestPercentAndEfficiency(t *testing.T) {
	if Percent(2, 3) != 67 || Percent(1, 3) != 33 || Percent(0, 0) != 0 {
		t.Fatalf("unexpected percent rounding")
	}
	if MemoryEfficiency(6, 6) != 100 || MemoryEfficiency(6, 9) != 67 || MemoryEfficiency(6, 0) != 0 {
		t.Fatalf("unexpected efficiency")
	}
}

type memStore struct {
	rec   model.ProgressRecord
	saves int
}

func (m *memStore) Load(context.Context) (model.ProgressRecord, error) {
	return m.rec, nil
}

func (m *memStore) Save(_ context.Context, patch model.ProgressPatch) error {
	m.saves++
	if patch.Points != nil {
		m.rec.Points = *patch.Points
		m.rec.Level = LevelFromPoints(*patch.Points)
	}
	return nil
}

func TestAddPointsCrossesLevelsOnce(t *testing.T) {
	store := &memStore{rec: model.ProgressRecord{Points: 95, Level: 1}}
	ledger := NewLedger(store, log.New(io.Discard, "", 0))
	var changes []model.LevelChange
	ledger.OnLevelUp(func(c model.LevelChange) { changes = append(changes, c) })

	award, err := ledger.AddPoints(context.Background(), 155, "test")
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if award.Points != 250 || award.Level != 3 {
		t.Fatalf("unexpected award %+v", award)
	}
	if len(changes) != 1 {
		t.Fatalf("expected one level-up notification, got %d", len(changes))
	}
	if changes[0].PreviousLevel != 1 || changes[0].NewLevel != 3 || changes[0].LevelsGained != 2 || changes[0].TotalPoints != 250 {
		t.Fatalf("unexpected level change %+v", changes[0])
	}

	if _, err := ledger.AddPoints(context.Background(), 10, "test"); err != nil {
		t.Fatalf("add points: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected no further level-up, got %d", len(changes))
	}
}

func TestAddPointsRejectsNegative(t *testing.T) {
	store := &memStore{}
	ledger := NewLedger(store, log.New(io.Discard, "", 0))
	if _, err := ledger.AddPoints(context.Background(), -5, "bad"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if store.saves != 0 {
		t.Fatalf("expected no save, got %d", store.saves)
	}
}
