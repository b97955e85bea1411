// Package scoring holds the point tables, end-of-round bonuses and levels.
package scoring

import (
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
)

// PointsPerLevel is the number of points between two levels.
const PointsPerLevel = 100

// Tier awards Points when a value passes Threshold.
type Tier struct {
	Threshold float64
	Points    int
}

// Table is the per-detection point schedule of one game. Tiers are ordered
// from the most to the least demanding; the first match wins.
type Table struct {
	Base       int
	Confidence []Tier       // confidence strictly above Threshold
	Speed      []SpeedTier  // elapsed strictly below Limit
	Streak     []StreakTier // streak at or above Min
}

// SpeedTier awards Points when a detection lands within Limit.
type SpeedTier struct {
	Limit  time.Duration
	Points int
}

// StreakTier awards Points once the running streak reaches Min.
type StreakTier struct {
	Min    int
	Points int
}

// Tables for the generic detection score and each game.
var (
	Generic = Table{
		Base:       10,
		Confidence: []Tier{{0.9, 5}, {0.8, 3}, {0.7, 1}},
		Speed:      []SpeedTier{{time.Second, 5}, {2 * time.Second, 3}, {3 * time.Second, 1}},
	}
	TimeAttack = Table{
		Base:       15,
		Confidence: []Tier{{0.9, 5}, {0.8, 3}},
		Speed:      []SpeedTier{{2 * time.Second, 10}, {3 * time.Second, 5}},
		Streak:     []StreakTier{{5, 10}, {3, 5}},
	}
	SpellWord = Table{
		Base:       20,
		Confidence: []Tier{{0.9, 10}, {0.8, 5}},
		Speed:      []SpeedTier{{2 * time.Second, 5}, {3 * time.Second, 3}},
	}
	MemoryMatch = Table{
		Base:       25,
		Confidence: []Tier{{0.9, 10}, {0.8, 5}},
	}
)

// TableFor returns the table of game, or Generic for unknown games.
func TableFor(game model.GameType) Table {
	switch game {
	case model.GameTimeAttack:
		return TimeAttack
	case model.GameSpellWord:
		return SpellWord
	case model.GameMemoryMatch:
		return MemoryMatch
	default:
		return Generic
	}
}

// Points scores one correct detection. A negative elapsed skips the speed
// bonus.
func (t Table) Points(confidence float64, elapsed time.Duration, streak int) int {
	points := t.Base
	for _, tier := range t.Confidence {
		if confidence > tier.Threshold {
			points += tier.Points
			break
		}
	}
	if elapsed >= 0 {
		for _, tier := range t.Speed {
			if elapsed < tier.Limit {
				points += tier.Points
				break
			}
		}
	}
	for _, tier := range t.Streak {
		if streak >= tier.Min {
			points += tier.Points
			break
		}
	}
	return points
}

// DetectionPoints scores one detection with the generic table. Confidence
// outside [0, 1] scores nothing.
func DetectionPoints(confidence float64, elapsed time.Duration) int {
	if confidence < 0 || confidence > 1 {
		return 0
	}
	return Generic.Points(confidence, elapsed, 0)
}

// TimeAttackBonus is awarded once when the countdown ends. The letter
// bonuses are cumulative.
func TimeAttackBonus(correct, accuracy int) int {
	bonus := 0
	if correct >= 10 {
		bonus += 20
	}
	if correct >= 15 {
		bonus += 30
	}
	if correct >= 20 {
		bonus += 50
	}
	switch {
	case accuracy >= 90:
		bonus += 30
	case accuracy >= 80:
		bonus += 20
	case accuracy >= 70:
		bonus += 10
	}
	return bonus
}

// SpellWordBonus is awarded once when the word is complete.
func SpellWordBonus(perfect bool, total time.Duration, wordLen int) int {
	bonus := 0
	if perfect {
		bonus += 50
	}
	switch {
	case total < 30*time.Second:
		bonus += 30
	case total < 60*time.Second:
		bonus += 15
	}
	if wordLen >= 6 {
		bonus += 20
	}
	return bonus
}

// MemoryBonus is awarded once when every pair is confirmed.
func MemoryBonus(moves int, total time.Duration) int {
	bonus := 0
	switch {
	case moves <= 12:
		bonus += 50
	case moves <= 15:
		bonus += 30
	case moves <= 20:
		bonus += 10
	}
	switch {
	case total < 180*time.Second:
		bonus += 30
	case total < 300*time.Second:
		bonus += 15
	}
	return bonus
}

// MemoryEfficiency is pairs/moves as a percentage capped at 100.
func MemoryEfficiency(pairs, moves int) int {
	if moves <= 0 {
		return 0
	}
	eff := (pairs*100*2 + moves) / (2 * moves)
	if eff > 100 {
		eff = 100
	}
	return eff
}

// LevelFromPoints returns the level reached with points.
func LevelFromPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// PointsToNextLevel returns how many points are missing for the next level.
func PointsToNextLevel(points int) int {
	if points < 0 {
		points = 0
	}
	return PointsPerLevel - points%PointsPerLevel
}

// LevelProgress returns the fraction [0, 1) of the current level completed.
func LevelProgress(points int) float64 {
	if points < 0 {
		points = 0
	}
	return float64(points%PointsPerLevel) / PointsPerLevel
}

// Percent rounds correct/attempts to a whole percentage.
func Percent(correct, attempts int) int {
	if attempts <= 0 {
		return 0
	}
	return (correct*200 + attempts) / (2 * attempts)
}
