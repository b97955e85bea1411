package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Durations are Go
// duration strings such as "300ms".
type FileConfig struct {
	Play      PlayConfig      `toml:"play"`
	Detection DetectionConfig `toml:"detection"`
	Services  ServicesConfig  `toml:"services"`
}

// PlayConfig maps round settings.
type PlayConfig struct {
	Game        *string        `toml:"game"`
	Difficulty  *string        `toml:"difficulty"`
	TimeLimit   *time.Duration `toml:"time-limit"`
	RevealDelay *time.Duration `toml:"reveal-delay"`
	Pairs       *int           `toml:"pairs"`
	FocusWeak   *bool          `toml:"focus-weak"`
	WeakTop     *int           `toml:"weak-top"`
	WeakFactor  *float64       `toml:"weak-factor"`
	WeakWindow  *int           `toml:"weak-window"`
}

// DetectionConfig maps detection loop settings.
type DetectionConfig struct {
	Threshold     *float64       `toml:"threshold"`
	Interval      *time.Duration `toml:"interval"`
	MinGap        *time.Duration `toml:"min-gap"`
	Retry         *time.Duration `toml:"retry"`
	Hold          *time.Duration `toml:"hold"`
	CameraDir     *string        `toml:"camera-dir"`
	CameraTimeout *time.Duration `toml:"camera-timeout"`
}

// ServicesConfig maps the HTTP collaborators.
type ServicesConfig struct {
	ClassifierURL     *string        `toml:"classifier-url"`
	ClassifierTimeout *time.Duration `toml:"classifier-timeout"`
	WordsURL          *string        `toml:"words-url"`
	WordList          *string        `toml:"word-list"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Overrides flattens the file into the shared override set.
func (f FileConfig) Overrides() Overrides {
	return Overrides{
		Game:              f.Play.Game,
		Difficulty:        f.Play.Difficulty,
		TimeLimit:         f.Play.TimeLimit,
		RevealDelay:       f.Play.RevealDelay,
		Pairs:             f.Play.Pairs,
		FocusWeak:         f.Play.FocusWeak,
		WeakTop:           f.Play.WeakTop,
		WeakFactor:        f.Play.WeakFactor,
		WeakWindow:        f.Play.WeakWindow,
		Threshold:         f.Detection.Threshold,
		Interval:          f.Detection.Interval,
		MinGap:            f.Detection.MinGap,
		Retry:             f.Detection.Retry,
		Hold:              f.Detection.Hold,
		CameraDir:         f.Detection.CameraDir,
		CameraTimeout:     f.Detection.CameraTimeout,
		ClassifierURL:     f.Services.ClassifierURL,
		ClassifierTimeout: f.Services.ClassifierTimeout,
		WordsURL:          f.Services.WordsURL,
		WordList:          f.Services.WordList,
	}
}
