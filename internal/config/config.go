package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/signdrill/internal/camera"
	"github.com/verte-zerg/signdrill/internal/classifier"
	"github.com/verte-zerg/signdrill/internal/detect"
	"github.com/verte-zerg/signdrill/internal/model"
)

// Defaults for settings without a package-level default elsewhere.
const (
	DefaultClassifierURL = "http://127.0.0.1:5000/detect_asl_letter"
	DefaultWordsURL      = "http://127.0.0.1:5000/api/random-word"
	DefaultDifficulty    = "easy"
	DefaultTimeLimit     = 60 * time.Second
	DefaultRevealDelay   = 500 * time.Millisecond
	DefaultPairs         = 6
	DefaultWeakTop       = 6
	DefaultWeakFactor    = 2.0
	DefaultWeakWindow    = 20
	DefaultCurveWindow   = 10
)

// Defaults returns the built-in configuration.
func Defaults() model.Config {
	return model.Config{
		Game:                model.GameTimeAttack,
		Difficulty:          DefaultDifficulty,
		ConfidenceThreshold: detect.DefaultThreshold,
		DetectionInterval:   detect.DefaultInterval,
		MinPollGap:          detect.DefaultMinGap,
		NotReadyRetry:       detect.DefaultNotReadyRetry,
		HoldWindow:          detect.DefaultHold,
		CameraTimeout:       camera.DefaultTimeout,
		TimeLimit:           DefaultTimeLimit,
		RevealDelay:         DefaultRevealDelay,
		Pairs:               DefaultPairs,
		ClassifierURL:       DefaultClassifierURL,
		ClassifierTimeout:   classifier.DefaultTimeout,
		WordsURL:            DefaultWordsURL,
		WordListPath:        DefaultWordListPath(),
		WeakTop:             DefaultWeakTop,
		WeakFactor:          DefaultWeakFactor,
		WeakWindow:          DefaultWeakWindow,
	}
}

// Apply copies every set override into cfg unless changed reports that the
// matching command-line flag was given. changed may be nil.
func Apply(cfg *model.Config, ov Overrides, changed func(flag string) bool) error {
	skip := func(flag string) bool { return changed != nil && changed(flag) }
	if ov.Game != nil && !skip("game") {
		game, err := model.ParseGameType(*ov.Game)
		if err != nil {
			return err
		}
		cfg.Game = game
	}
	setString(&cfg.Difficulty, ov.Difficulty, skip("difficulty"))
	setFloat(&cfg.ConfidenceThreshold, ov.Threshold, skip("threshold"))
	setDuration(&cfg.DetectionInterval, ov.Interval, skip("interval"))
	setDuration(&cfg.MinPollGap, ov.MinGap, skip("min-gap"))
	setDuration(&cfg.NotReadyRetry, ov.Retry, skip("retry"))
	setDuration(&cfg.HoldWindow, ov.Hold, skip("hold"))
	setString(&cfg.CameraDir, ov.CameraDir, skip("camera-dir"))
	setDuration(&cfg.CameraTimeout, ov.CameraTimeout, skip("camera-timeout"))
	setDuration(&cfg.TimeLimit, ov.TimeLimit, skip("time-limit"))
	setDuration(&cfg.RevealDelay, ov.RevealDelay, skip("reveal-delay"))
	setInt(&cfg.Pairs, ov.Pairs, skip("pairs"))
	setString(&cfg.ClassifierURL, ov.ClassifierURL, skip("classifier-url"))
	setDuration(&cfg.ClassifierTimeout, ov.ClassifierTimeout, skip("classifier-timeout"))
	setString(&cfg.WordsURL, ov.WordsURL, skip("words-url"))
	setString(&cfg.WordListPath, ov.WordList, skip("word-list"))
	if ov.FocusWeak != nil && !skip("focus-weak") {
		cfg.FocusWeak = *ov.FocusWeak
	}
	setInt(&cfg.WeakTop, ov.WeakTop, skip("weak-top"))
	setFloat(&cfg.WeakFactor, ov.WeakFactor, skip("weak-factor"))
	setInt(&cfg.WeakWindow, ov.WeakWindow, skip("weak-window"))
	return nil
}

func setString(target, value *string, skip bool) {
	if value != nil && !skip {
		*target = *value
	}
}

func setInt(target, value *int, skip bool) {
	if value != nil && !skip {
		*target = *value
	}
}

func setFloat(target, value *float64, skip bool) {
	if value != nil && !skip {
		*target = *value
	}
}

func setDuration(target, value *time.Duration, skip bool) {
	if value != nil && !skip {
		*target = *value
	}
}

// Validate rejects out-of-range settings.
func Validate(cfg model.Config) error {
	switch cfg.Game {
	case model.GameTimeAttack, model.GameSpellWord, model.GameMemoryMatch:
	default:
		return fmt.Errorf("unknown game %q", cfg.Game)
	}
	switch strings.ToLower(cfg.Difficulty) {
	case "easy", "medium", "hard":
	default:
		return fmt.Errorf("--difficulty must be easy, medium or hard")
	}
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		return fmt.Errorf("--threshold must be in (0, 1]")
	}
	if cfg.DetectionInterval <= 0 {
		return fmt.Errorf("--interval must be > 0")
	}
	if cfg.MinPollGap < 0 {
		return fmt.Errorf("--min-gap must be >= 0")
	}
	if cfg.NotReadyRetry <= 0 {
		return fmt.Errorf("--retry must be > 0")
	}
	if cfg.HoldWindow <= 0 {
		return fmt.Errorf("--hold must be > 0")
	}
	if cfg.CameraTimeout <= 0 {
		return fmt.Errorf("--camera-timeout must be > 0")
	}
	if cfg.TimeLimit < time.Second {
		return fmt.Errorf("--time-limit must be at least 1s")
	}
	if cfg.RevealDelay < 0 {
		return fmt.Errorf("--reveal-delay must be >= 0")
	}
	if cfg.Pairs < 1 || cfg.Pairs > 24 {
		return fmt.Errorf("--pairs must be between 1 and 24")
	}
	if cfg.ClassifierURL == "" {
		return fmt.Errorf("--classifier-url must not be empty")
	}
	if cfg.ClassifierTimeout <= 0 {
		return fmt.Errorf("--classifier-timeout must be > 0")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

// Template returns the commented config file written by `signdrill config`.
func Template() string {
	d := Defaults()
	return fmt.Sprintf(`# signdrill configuration
# Uncomment a value to enable it. SIGNDRILL_* environment variables override
# the file and CLI flags override both.

[play]
# game = %q           # timeAttack, spellWord or memoryGame
# difficulty = %q           # Word difficulty for spelling (easy, medium, hard)
# time-limit = %q            # TimeAttack countdown
# reveal-delay = %q        # MemoryMatch delay before comparing two cards
# pairs = %d                     # MemoryMatch pairs
# focus-weak = false            # Bias TimeAttack targets toward weak letters
# weak-top = %d                  # Number of weak letters to focus on
# weak-factor = %.1f            # Weight factor for weak letters
# weak-window = %d              # Number of recent rounds to compute weak letters

[detection]
# threshold = %.2f             # Minimum confidence a detection needs
# interval = %q             # Poll interval
# min-gap = %q              # Minimum gap between accepted polls
# retry = %q                # Retry delay while the camera is not ready
# hold = %q                 # Hold window of a credited gesture
# camera-dir = ""               # Directory of frames written by a capture program
# camera-timeout = %q          # Camera acquisition timeout

[services]
# classifier-url = %q
# classifier-timeout = %q
# words-url = %q
# word-list = %q
`,
		d.Game, d.Difficulty, d.TimeLimit, d.RevealDelay, d.Pairs, d.WeakTop, d.WeakFactor, d.WeakWindow,
		d.ConfidenceThreshold, d.DetectionInterval, d.MinPollGap, d.NotReadyRetry, d.HoldWindow, d.CameraTimeout,
		d.ClassifierURL, d.ClassifierTimeout, d.WordsURL, d.WordListPath,
	)
}
