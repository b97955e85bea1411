// Package achievement evaluates the static achievement catalog against the
// stored progress.
package achievement

import (
	"context"
	"fmt"
	"log"

	"github.com/verte-zerg/signdrill/internal/model"
)

// Catalog is the fixed list of achievements.
var Catalog = []model.Achievement{
	{ID: "beginner", Name: "ASL Beginner", Description: "Complete 5 different letters", Icon: "🌱", Requirement: 5, Kind: model.KindLetters, Category: "progress"},
	{ID: "advanced", Name: "Advanced Student", Description: "Complete 15 different letters", Icon: "📚", Requirement: 15, Kind: model.KindLetters, Category: "progress"},
	{ID: "master", Name: "Alphabet Master", Description: "Complete all 24 static letters", Icon: "🏆", Requirement: 24, Kind: model.KindLetters, Category: "progress"},
	{ID: "streak3", Name: "3 Day Streak", Description: "Practice 3 days in a row", Icon: "🔥", Requirement: 3, Kind: model.KindStreak, Category: "consistency"},
	{ID: "streak7", Name: "7 Day Streak", Description: "Practice 7 days in a row", Icon: "⚡", Requirement: 7, Kind: model.KindStreak, Category: "consistency"},
	{ID: "speed", Name: "Speedster", Description: "Complete 10 letters in under 30 seconds", Icon: "⏱️", Requirement: 1, Kind: model.KindSpeed, Category: "performance"},
	{ID: "perfect", Name: "Perfectionist", Description: "Finish a game without mistakes", Icon: "💯", Requirement: 1, Kind: model.KindPerfect, Category: "performance"},
	{ID: "gamer", Name: "Dedicated Player", Description: "Play 10 games", Icon: "🎮", Requirement: 10, Kind: model.KindGames, Category: "engagement"},
	{ID: "champion", Name: "ASL Champion", Description: "Reach 1000 total points", Icon: "👑", Requirement: 1000, Kind: model.KindPoints, Category: "achievement"},
}

// Store is the part of the progress store the engine needs.
type Store interface {
	Load(ctx context.Context) (model.ProgressRecord, error)
	AddAchievement(ctx context.Context, id string) (bool, error)
}

// Conditions are the round-end values passed to CheckMultipleConditions.
// Nil counters are not evaluated.
type Conditions struct {
	LettersCompleted *int
	Streak           *int
	GamesPlayed      *int
	Points           *int
	PerfectGame      bool
	SpeedRecord      bool
}

// Progress is how far the player is from one achievement.
type Progress struct {
	Current    int
	Required   int
	Percentage int
	Unlocked   bool
}

// CategoryStats counts achievements of one category.
type CategoryStats struct {
	Total    int
	Unlocked int
}

// Stats summarizes the catalog against the stored record.
type Stats struct {
	Total      int
	Unlocked   int
	Locked     int
	Percentage int
	ByCategory map[string]CategoryStats
}

// Engine evaluates achievements. It holds no state of its own; unlocked IDs
// live in the progress record.
type Engine struct {
	store    Store
	catalog  []model.Achievement
	onUnlock func(model.Achievement)
	logger   *log.Logger
}

// NewEngine returns an engine over the default catalog.
func NewEngine(store Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{store: store, catalog: Catalog, logger: logger}
}

// OnUnlock sets the listener notified once per achievement unlocked by
// CheckMultipleConditions.
func (e *Engine) OnUnlock(fn func(model.Achievement)) {
	e.onUnlock = fn
}

// Get returns the catalog entry for id.
func (e *Engine) Get(id string) (model.Achievement, bool) {
	for _, a := range e.catalog {
		if a.ID == id {
			return a, true
		}
	}
	return model.Achievement{}, false
}

// ByCategory returns the catalog entries of category.
func (e *Engine) ByCategory(category string) []model.Achievement {
	var out []model.Achievement
	for _, a := range e.catalog {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// CheckAchievements unlocks every locked achievement of kind (all kinds when
// nil) whose requirement is met by value, or by the stored counter when value
// is nil. Speed and perfect achievements never unlock by counter.
func (e *Engine) CheckAchievements(ctx context.Context, kind *model.AchievementKind, value *int) ([]model.Achievement, error) {
	rec, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	var unlocked []model.Achievement
	for _, a := range e.catalog {
		if kind != nil && a.Kind != *kind {
			continue
		}
		if rec.HasAchievement(a.ID) {
			continue
		}
		current, ok := counter(rec, a.Kind)
		if !ok {
			continue
		}
		if value != nil {
			current = *value
		}
		if current < a.Requirement {
			continue
		}
		added, err := e.Unlock(ctx, a.ID)
		if err != nil {
			return unlocked, err
		}
		if added {
			rec.Achievements = append(rec.Achievements, a.ID)
			unlocked = append(unlocked, a)
		}
	}
	return unlocked, nil
}

// Unlock persists id as unlocked. It reports false when id was already
// unlocked or is not in the catalog.
func (e *Engine) Unlock(ctx context.Context, id string) (bool, error) {
	if _, ok := e.Get(id); !ok {
		return false, nil
	}
	added, err := e.store.AddAchievement(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to unlock %s: %w", id, err)
	}
	if added {
		e.logger.Printf("achievement unlocked: %s", id)
	}
	return added, nil
}

// CheckMultipleConditions evaluates the round-end conditions and returns every
// newly unlocked achievement. The listener is notified once per entry.
func (e *Engine) CheckMultipleConditions(ctx context.Context, c Conditions) ([]model.Achievement, error) {
	var unlocked []model.Achievement
	counters := []struct {
		kind  model.AchievementKind
		value *int
	}{
		{model.KindLetters, c.LettersCompleted},
		{model.KindStreak, c.Streak},
		{model.KindGames, c.GamesPlayed},
		{model.KindPoints, c.Points},
	}
	for _, entry := range counters {
		if entry.value == nil {
			continue
		}
		kind := entry.kind
		got, err := e.CheckAchievements(ctx, &kind, entry.value)
		unlocked = append(unlocked, got...)
		if err != nil {
			e.notify(unlocked)
			return unlocked, err
		}
	}

	specials := []struct {
		id   string
		flag bool
	}{
		{"perfect", c.PerfectGame},
		{"speed", c.SpeedRecord},
	}
	for _, entry := range specials {
		if !entry.flag {
			continue
		}
		added, err := e.Unlock(ctx, entry.id)
		if err != nil {
			e.notify(unlocked)
			return unlocked, err
		}
		if added {
			a, _ := e.Get(entry.id)
			unlocked = append(unlocked, a)
		}
	}
	e.notify(unlocked)
	return unlocked, nil
}

// Progress reports the player's progress towards id.
func (e *Engine) Progress(ctx context.Context, id string) (Progress, error) {
	a, ok := e.Get(id)
	if !ok {
		return Progress{}, nil
	}
	rec, err := e.store.Load(ctx)
	if err != nil {
		return Progress{}, fmt.Errorf("failed to load progress: %w", err)
	}
	return progressOf(rec, a), nil
}

// All returns every catalog entry with its progress.
func (e *Engine) All(ctx context.Context) ([]model.Achievement, []Progress, error) {
	rec, err := e.store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load progress: %w", err)
	}
	progress := make([]Progress, len(e.catalog))
	for i, a := range e.catalog {
		progress[i] = progressOf(rec, a)
	}
	return append([]model.Achievement(nil), e.catalog...), progress, nil
}

// Statistics counts unlocked achievements overall and per category.
func (e *Engine) Statistics(ctx context.Context) (Stats, error) {
	rec, err := e.store.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load progress: %w", err)
	}
	stats := Stats{Total: len(e.catalog), ByCategory: make(map[string]CategoryStats)}
	for _, a := range e.catalog {
		cat := stats.ByCategory[a.Category]
		cat.Total++
		if rec.HasAchievement(a.ID) {
			cat.Unlocked++
			stats.Unlocked++
		}
		stats.ByCategory[a.Category] = cat
	}
	stats.Locked = stats.Total - stats.Unlocked
	if stats.Total > 0 {
		stats.Percentage = stats.Unlocked * 100 / stats.Total
	}
	return stats, nil
}

func (e *Engine) notify(list []model.Achievement) {
	if e.onUnlock == nil {
		return
	}
	for _, a := range list {
		e.onUnlock(a)
	}
}

func counter(rec model.ProgressRecord, kind model.AchievementKind) (int, bool) {
	switch kind {
	case model.KindLetters:
		return len(rec.LettersCompleted), true
	case model.KindStreak:
		return rec.Streak, true
	case model.KindGames:
		return rec.GamesPlayed, true
	case model.KindPoints:
		return rec.Points, true
	default:
		return 0, false
	}
}

func progressOf(rec model.ProgressRecord, a model.Achievement) Progress {
	unlocked := rec.HasAchievement(a.ID)
	current, ok := counter(rec, a.Kind)
	if !ok {
		current = 0
		if unlocked {
			current = 1
		}
	}
	pct := 0
	if a.Requirement > 0 {
		pct = current * 100 / a.Requirement
	}
	if pct > 100 {
		pct = 100
	}
	return Progress{Current: current, Required: a.Requirement, Percentage: pct, Unlocked: unlocked}
}
