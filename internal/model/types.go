// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// GameType identifies a mini-game.
type GameType string

// Known game types. The values double as keys of ProgressRecord.GameScores.
const (
	GameTimeAttack  GameType = "timeAttack"
	GameSpellWord   GameType = "spellWord"
	GameMemoryMatch GameType = "memoryGame"
)

// GameTypes lists every playable game type.
var GameTypes = []GameType{GameTimeAttack, GameSpellWord, GameMemoryMatch}

// ParseGameType accepts the canonical names plus the short CLI aliases.
func ParseGameType(s string) (GameType, error) {
	switch s {
	case "timeAttack", "time-attack", "time":
		return GameTimeAttack, nil
	case "spellWord", "spell-word", "spell":
		return GameSpellWord, nil
	case "memoryGame", "memory-game", "memory":
		return GameMemoryMatch, nil
	default:
		return "", fmt.Errorf("unknown game %q (use time, spell or memory)", s)
	}
}

// Config defines engine and game settings.
type Config struct {
	Game                GameType
	Difficulty          string
	ConfidenceThreshold float64
	DetectionInterval   time.Duration
	MinPollGap          time.Duration
	NotReadyRetry       time.Duration
	HoldWindow          time.Duration
	CameraTimeout       time.Duration
	TimeLimit           time.Duration
	RevealDelay         time.Duration
	Pairs               int
	CameraDir           string
	ClassifierURL       string
	ClassifierTimeout   time.Duration
	WordsURL            string
	WordListPath        string
	FocusWeak           bool
	WeakTop             int
	WeakFactor          float64
	WeakWindow          int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Game        GameType
	Since       *time.Time
	Last        int
	CurveWindow int
	Letters     string
}

// Point3 is one hand landmark. On the wire it is an [x, y, z] triple.
type Point3 struct {
	X float64
	Y float64
	Z float64
}

// UnmarshalJSON decodes a landmark from either [x,y,z] or {"x":..,"y":..,"z":..}.
func (p *Point3) UnmarshalJSON(data []byte) error {
	var triple []float64
	if err := json.Unmarshal(data, &triple); err == nil {
		if len(triple) < 2 {
			return fmt.Errorf("landmark needs at least 2 coordinates, got %d", len(triple))
		}
		p.X, p.Y = triple[0], triple[1]
		if len(triple) > 2 {
			p.Z = triple[2]
		}
		return nil
	}
	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("failed to decode landmark: %w", err)
	}
	p.X, p.Y, p.Z = obj.X, obj.Y, obj.Z
	return nil
}

// MarshalJSON encodes a landmark as an [x, y, z] triple.
func (p Point3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.X, p.Y, p.Z})
}

// Detection is one classifier response for a single captured frame.
// An empty Label means the classifier returned no letter.
type Detection struct {
	Success       bool
	Label         string
	Confidence    float64
	HandsDetected bool
	Landmarks     [][]Point3
	Timestamp     time.Time
}

// GestureEvent is a de-duplicated, credit-worthy occurrence of a gesture.
type GestureEvent struct {
	Label       string
	Confidence  float64
	FirstSeenAt time.Time
}

// DetectionRecord is one entry of a session's detection log.
type DetectionRecord struct {
	Label      string    `json:"letter"`
	Confidence float64   `json:"confidence"`
	Correct    bool      `json:"isCorrect"`
	At         time.Time `json:"timestamp"`
}

// Statistics aggregates detection counters across sessions.
type Statistics struct {
	TotalDetections   int     `json:"totalDetections"`
	CorrectDetections int     `json:"correctDetections"`
	AverageConfidence float64 `json:"averageConfidence"`
	TotalPlayTimeMs   int64   `json:"totalPlayTime"`
}

// ProgressRecord is the durable, per-device progress document.
type ProgressRecord struct {
	Points           int              `json:"points"`
	Level            int              `json:"level"`
	Achievements     []string         `json:"achievements"`
	LettersCompleted []string         `json:"lettersCompleted"`
	GamesPlayed      int              `json:"gamesPlayed"`
	Streak           int              `json:"streak"`
	LastPlayDate     string           `json:"lastPlayDate,omitempty"`
	GameScores       map[GameType]int `json:"gameScores"`
	Statistics       Statistics       `json:"statistics"`
	LastUpdated      time.Time        `json:"lastUpdated"`
}

// Clone returns a deep copy of the record.
func (r ProgressRecord) Clone() ProgressRecord {
	out := r
	out.Achievements = append([]string(nil), r.Achievements...)
	out.LettersCompleted = append([]string(nil), r.LettersCompleted...)
	out.GameScores = make(map[GameType]int, len(r.GameScores))
	for k, v := range r.GameScores {
		out.GameScores[k] = v
	}
	return out
}

// HasAchievement reports whether id is in the unlocked set.
func (r ProgressRecord) HasAchievement(id string) bool {
	return contains(r.Achievements, id)
}

// HasLetter reports whether letter is in the completed set.
func (r ProgressRecord) HasLetter(letter string) bool {
	return contains(r.LettersCompleted, letter)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ProgressPatch is a shallow per-field overwrite applied by a save.
// Nil fields are left untouched.
type ProgressPatch struct {
	Points           *int
	Achievements     []string
	LettersCompleted []string
	GamesPlayed      *int
	Streak           *int
	LastPlayDate     *string
	GameScores       map[GameType]int
	Statistics       *Statistics
}

// AchievementKind selects how an achievement is evaluated.
type AchievementKind string

// Achievement kinds. Letters, streak, games and points compare counters;
// speed and perfect are unlocked by explicit round flags.
const (
	KindLetters AchievementKind = "letters"
	KindStreak  AchievementKind = "streak"
	KindSpeed   AchievementKind = "speed"
	KindPerfect AchievementKind = "perfect"
	KindGames   AchievementKind = "games"
	KindPoints  AchievementKind = "points"
)

// Achievement is an entry of the static achievement catalog.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Requirement int
	Kind        AchievementKind
	Category    string
}

// LevelChange describes a level-up produced by one AddPoints call.
type LevelChange struct {
	PreviousLevel int
	NewLevel      int
	LevelsGained  int
	TotalPoints   int
}

// StatusType classifies a status message.
type StatusType string

// Status types emitted by the detection loop.
const (
	StatusWaiting StatusType = "waiting"
	StatusSuccess StatusType = "success"
	StatusWarning StatusType = "warning"
	StatusInfo    StatusType = "info"
	StatusIdle    StatusType = "idle"
	StatusError   StatusType = "error"
)

// Status is a human-readable engine status.
type Status struct {
	Type    StatusType
	Message string
}

// Feedback is per-detection visual feedback.
type Feedback string

// Feedback kinds.
const (
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
	FeedbackWaiting   Feedback = "waiting"
)

// SessionSummary is the terminal snapshot of a played round.
type SessionSummary struct {
	ID              string
	GameType        GameType
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMs      int64
	DurationSeconds int
	CorrectCount    int
	AttemptCount    int
	Accuracy        float64
	Detections      []DetectionRecord
}

// RoundResult is the end-of-round summary handed to the UI.
type RoundResult struct {
	GameType     GameType
	Score        int
	Bonus        int
	Accuracy     int
	Correct      int
	Attempts     int
	BestStreak   int
	Moves        int
	Word         string
	Duration     time.Duration
	NewRecord    bool
	LevelUp      *LevelChange
	Achievements []Achievement
	Session      SessionSummary
}

// RoundStats is the stored history row of a finished round.
type RoundStats struct {
	SessionID  string
	GameType   GameType
	StartedAt  time.Time
	EndedAt    time.Time
	Score      int
	Bonus      int
	Correct    int
	Incorrect  int
	BestStreak int
	Moves      int
	Word       string
	Accuracy   float64
	DurationMs int64
}

// LetterStats captures per-letter stats for a round.
type LetterStats struct {
	Letter       string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// LetterAggregate aggregates letter stats across rounds.
type LetterAggregate struct {
	Letter       string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// RoundAggregate summarizes a stored round for reporting.
type RoundAggregate struct {
	RoundID    int64
	GameType   GameType
	EndedAt    time.Time
	Score      int
	Correct    int
	Incorrect  int
	Accuracy   float64
	DurationMs int64
}
