package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Overrides is a sparse set of settings. Nil fields are left untouched. The
// env tags double as the SIGNDRILL_* environment variable names.
type Overrides struct {
	Game              *string        `env:"GAME"`
	Difficulty        *string        `env:"DIFFICULTY"`
	Threshold         *float64       `env:"THRESHOLD"`
	Interval          *time.Duration `env:"INTERVAL"`
	MinGap            *time.Duration `env:"MIN_GAP"`
	Retry             *time.Duration `env:"RETRY"`
	Hold              *time.Duration `env:"HOLD"`
	CameraDir         *string        `env:"CAMERA_DIR"`
	CameraTimeout     *time.Duration `env:"CAMERA_TIMEOUT"`
	TimeLimit         *time.Duration `env:"TIME_LIMIT"`
	RevealDelay       *time.Duration `env:"REVEAL_DELAY"`
	Pairs             *int           `env:"PAIRS"`
	ClassifierURL     *string        `env:"CLASSIFIER_URL"`
	ClassifierTimeout *time.Duration `env:"CLASSIFIER_TIMEOUT"`
	WordsURL          *string        `env:"WORDS_URL"`
	WordList          *string        `env:"WORD_LIST"`
	FocusWeak         *bool          `env:"FOCUS_WEAK"`
	WeakTop           *int           `env:"WEAK_TOP"`
	WeakFactor        *float64       `env:"WEAK_FACTOR"`
	WeakWindow        *int           `env:"WEAK_WINDOW"`
}

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "SIGNDRILL_"

// LoadEnv reads SIGNDRILL_* variables.
func LoadEnv() (Overrides, error) {
	var ov Overrides
	if err := env.ParseWithOptions(&ov, env.Options{Prefix: EnvPrefix}); err != nil {
		return Overrides{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return ov, nil
}
