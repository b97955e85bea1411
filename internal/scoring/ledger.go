package scoring

import (
	"context"
	"fmt"
	"log"

	"github.com/verte-zerg/signdrill/internal/model"
)

// ProgressStore is the part of the progress store the ledger needs.
type ProgressStore interface {
	Load(ctx context.Context) (model.ProgressRecord, error)
	Save(ctx context.Context, patch model.ProgressPatch) error
}

// Award is the outcome of one AddPoints call.
type Award struct {
	Points        int
	Level         int
	Added         int
	Reason        string
	PreviousLevel int
	LevelUp       *model.LevelChange
}

// Ledger adds points to the persisted record and reports level-ups.
type Ledger struct {
	store     ProgressStore
	onLevelUp func(model.LevelChange)
	logger    *log.Logger
}

// NewLedger returns a ledger writing through store.
func NewLedger(store ProgressStore, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Default()
	}
	return &Ledger{store: store, logger: logger}
}

// OnLevelUp sets the level-up listener. It is called at most once per
// AddPoints call, however many levels were crossed.
func (l *Ledger) OnLevelUp(fn func(model.LevelChange)) {
	l.onLevelUp = fn
}

// AddPoints adds amount to the stored points. Negative amounts are rejected.
func (l *Ledger) AddPoints(ctx context.Context, amount int, reason string) (Award, error) {
	if amount < 0 {
		return Award{}, fmt.Errorf("invalid points amount %d", amount)
	}
	rec, err := l.store.Load(ctx)
	if err != nil {
		return Award{}, fmt.Errorf("failed to load progress: %w", err)
	}
	previous := LevelFromPoints(rec.Points)
	total := rec.Points + amount
	if err := l.store.Save(ctx, model.ProgressPatch{Points: &total}); err != nil {
		return Award{}, fmt.Errorf("failed to save points: %w", err)
	}
	level := LevelFromPoints(total)
	award := Award{
		Points:        total,
		Level:         level,
		Added:         amount,
		Reason:        reason,
		PreviousLevel: previous,
	}
	l.logger.Printf("points added: +%d (%s), total %d, level %d", amount, reason, total, level)
	if level > previous {
		change := model.LevelChange{
			PreviousLevel: previous,
			NewLevel:      level,
			LevelsGained:  level - previous,
			TotalPoints:   total,
		}
		award.LevelUp = &change
		if l.onLevelUp != nil {
			l.onLevelUp(change)
		}
	}
	return award, nil
}

// Status summarizes the stored points for display.
type Status struct {
	Points            int
	Level             int
	PointsToNextLevel int
	LevelProgress     float64
}

// Status reads the stored points.
func (l *Ledger) Status(ctx context.Context) (Status, error) {
	rec, err := l.store.Load(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to load progress: %w", err)
	}
	return Status{
		Points:            rec.Points,
		Level:             LevelFromPoints(rec.Points),
		PointsToNextLevel: PointsToNextLevel(rec.Points),
		LevelProgress:     LevelProgress(rec.Points),
	}, nil
}
