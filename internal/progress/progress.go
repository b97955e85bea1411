// Package progress persists the player's progress document.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/scoring"
)

// DocumentKey is the key the progress document is stored under.
const DocumentKey = "asl_gamification_data"

// DefaultTTL is how long a loaded record is served from cache.
const DefaultTTL = 5 * time.Second

const dateLayout = "2006-01-02"

// Backend stores opaque documents by key.
type Backend interface {
	// Get returns ok=false when key has no document.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Store is a cached read-modify-write view over one progress document.
// It is not safe for concurrent use; the engine calls it from its scheduler.
type Store struct {
	backend Backend
	key     string
	ttl     time.Duration
	now     func() time.Time
	logger  *log.Logger

	cache    *model.ProgressRecord
	cachedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the cache lifetime. Zero disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for recovered decode failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithKey overrides the document key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// New returns a store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DocumentKey,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Default returns the record used when nothing valid is stored.
func Default(now time.Time) model.ProgressRecord {
	return model.ProgressRecord{
		Points:           0,
		Level:            1,
		Achievements:     []string{},
		LettersCompleted: []string{},
		GameScores:       defaultScores(),
		LastUpdated:      now,
	}
}

func defaultScores() map[model.GameType]int {
	scores := make(map[model.GameType]int, len(model.GameTypes))
	for _, g := range model.GameTypes {
		scores[g] = 0
	}
	return scores
}

// Load returns the current record. Missing or undecodable documents yield the
// default record; only backend failures are returned as errors.
func (s *Store) Load(ctx context.Context) (model.ProgressRecord, error) {
	now := s.now()
	if s.cache != nil && now.Sub(s.cachedAt) < s.ttl {
		return s.cache.Clone(), nil
	}
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return model.ProgressRecord{}, fmt.Errorf("failed to read progress: %w", err)
	}
	rec := Default(now)
	if ok {
		decoded, derr := decode(data)
		if derr != nil {
			s.logger.Printf("progress document is corrupt, using defaults: %v", derr)
		} else {
			rec = decoded
		}
	}
	cached := rec.Clone()
	s.cache = &cached
	s.cachedAt = now
	return rec, nil
}

// Save merges patch into the current record, normalises it, stamps it and
// writes it. The cache is invalidated so the next Load re-reads.
func (s *Store) Save(ctx context.Context, patch model.ProgressPatch) error {
	rec, err := s.Load(ctx)
	if err != nil {
		return err
	}
	apply(&rec, patch)
	return s.write(ctx, rec)
}

func (s *Store) write(ctx context.Context, rec model.ProgressRecord) error {
	normalize(&rec)
	rec.LastUpdated = s.now()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		s.invalidate()
		return fmt.Errorf("failed to write progress: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *Store) invalidate() {
	s.cache = nil
	s.cachedAt = time.Time{}
}

// IncrementGamesPlayed adds one played game and returns the new count.
func (s *Store) IncrementGamesPlayed(ctx context.Context) (int, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := rec.GamesPlayed + 1
	if err := s.Save(ctx, model.ProgressPatch{GamesPlayed: &n}); err != nil {
		return 0, err
	}
	return n, nil
}

// AddCompletedLetter records letter as completed. It reports false when the
// letter was already recorded.
func (s *Store) AddCompletedLetter(ctx context.Context, letter string) (bool, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if letter == "" || rec.HasLetter(letter) {
		return false, nil
	}
	letters := append(rec.LettersCompleted, letter)
	if err := s.Save(ctx, model.ProgressPatch{LettersCompleted: letters}); err != nil {
		return false, err
	}
	return true, nil
}

// AddAchievement records id as unlocked. It reports false when it already was.
func (s *Store) AddAchievement(ctx context.Context, id string) (bool, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if id == "" || rec.HasAchievement(id) {
		return false, nil
	}
	ids := append(rec.Achievements, id)
	if err := s.Save(ctx, model.ProgressPatch{Achievements: ids}); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateGameScore stores score as the best of game when it beats the stored
// one and reports whether it did.
func (s *Store) UpdateGameScore(ctx context.Context, game model.GameType, score int) (bool, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	if score <= rec.GameScores[game] {
		return false, nil
	}
	scores := rec.Clone().GameScores
	scores[game] = score
	if err := s.Save(ctx, model.ProgressPatch{GameScores: scores}); err != nil {
		return false, err
	}
	return true, nil
}

// StreakResult is the outcome of UpdateStreak.
type StreakResult struct {
	Streak       int
	IsNewDay     bool
	LastPlayDate string
}

// UpdateStreak records a play today. Days are local calendar days.
func (s *Store) UpdateStreak(ctx context.Context) (StreakResult, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return StreakResult{}, err
	}
	today := s.now().Format(dateLayout)
	if rec.LastPlayDate == today {
		return StreakResult{Streak: rec.Streak, IsNewDay: false, LastPlayDate: today}, nil
	}
	streak := 1
	if rec.LastPlayDate != "" && daysBetween(rec.LastPlayDate, today) == 1 {
		streak = rec.Streak + 1
	}
	if err := s.Save(ctx, model.ProgressPatch{Streak: &streak, LastPlayDate: &today}); err != nil {
		return StreakResult{}, err
	}
	return StreakResult{Streak: streak, IsNewDay: true, LastPlayDate: today}, nil
}

func daysBetween(from, to string) int {
	a, err := time.Parse(dateLayout, from)
	if err != nil {
		return -1
	}
	b, err := time.Parse(dateLayout, to)
	if err != nil {
		return -1
	}
	return int(b.Sub(a).Hours() / 24)
}

// StatsDelta is one round's contribution to the accumulated statistics.
type StatsDelta struct {
	TotalDetections   int
	CorrectDetections int
	AverageConfidence float64
	PlayTime          time.Duration
}

// UpdateStatistics accumulates delta. The average confidence is weighted by
// the number of detections on each side.
func (s *Store) UpdateStatistics(ctx context.Context, delta StatsDelta) error {
	rec, err := s.Load(ctx)
	if err != nil {
		return err
	}
	stats := rec.Statistics
	prev := stats.TotalDetections
	stats.TotalDetections += delta.TotalDetections
	stats.CorrectDetections += delta.CorrectDetections
	stats.TotalPlayTimeMs += delta.PlayTime.Milliseconds()
	if delta.TotalDetections > 0 {
		stats.AverageConfidence = (stats.AverageConfidence*float64(prev) +
			delta.AverageConfidence*float64(delta.TotalDetections)) / float64(stats.TotalDetections)
	}
	return s.Save(ctx, model.ProgressPatch{Statistics: &stats})
}

// Clear deletes the stored document.
func (s *Store) Clear(ctx context.Context) error {
	s.invalidate()
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	return nil
}

func apply(rec *model.ProgressRecord, p model.ProgressPatch) {
	if p.Points != nil {
		rec.Points = *p.Points
	}
	if p.Achievements != nil {
		rec.Achievements = append([]string(nil), p.Achievements...)
	}
	if p.LettersCompleted != nil {
		rec.LettersCompleted = append([]string(nil), p.LettersCompleted...)
	}
	if p.GamesPlayed != nil {
		rec.GamesPlayed = *p.GamesPlayed
	}
	if p.Streak != nil {
		rec.Streak = *p.Streak
	}
	if p.LastPlayDate != nil {
		rec.LastPlayDate = *p.LastPlayDate
	}
	if p.GameScores != nil {
		rec.GameScores = make(map[model.GameType]int, len(p.GameScores))
		for k, v := range p.GameScores {
			rec.GameScores[k] = v
		}
	}
	if p.Statistics != nil {
		rec.Statistics = *p.Statistics
	}
}

func normalize(rec *model.ProgressRecord) {
	if rec.Points < 0 {
		rec.Points = 0
	}
	rec.Level = scoring.LevelFromPoints(rec.Points)
	rec.Achievements = dedupe(rec.Achievements)
	rec.LettersCompleted = dedupe(rec.LettersCompleted)
	if rec.GameScores == nil {
		rec.GameScores = defaultScores()
	}
	for _, g := range model.GameTypes {
		if _, ok := rec.GameScores[g]; !ok {
			rec.GameScores[g] = 0
		}
	}
}

func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func decode(data []byte) (model.ProgressRecord, error) {
	var rec model.ProgressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.ProgressRecord{}, err
	}
	normalize(&rec)
	return rec, nil
}
