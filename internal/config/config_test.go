package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/signdrill/internal/model"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}
	if cfg.Play.Game != nil || cfg.Detection.Interval != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigDecodesDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[play]
game = "memory"
pairs = 4

[detection]
interval = "250ms"
threshold = 0.8

[services]
words-url = "http://words.local/api"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	file, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Defaults()
	if err := Apply(&cfg, file.Overrides(), nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Game != model.GameMemoryMatch || cfg.Pairs != 4 {
		t.Fatalf("unexpected play settings %+v", cfg)
	}
	if cfg.DetectionInterval != 250*time.Millisecond || cfg.ConfidenceThreshold != 0.8 {
		t.Fatalf("unexpected detection settings %+v", cfg)
	}
	if cfg.WordsURL != "http://words.local/api" {
		t.Fatalf("unexpected words url %q", cfg.WordsURL)
	}
	if cfg.HoldWindow != 500*time.Millisecond {
		t.Fatalf("unset values keep defaults, got hold %v", cfg.HoldWindow)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SIGNDRILL_THRESHOLD", "0.9")
	t.Setenv("SIGNDRILL_HOLD", "750ms")
	t.Setenv("SIGNDRILL_FOCUS_WEAK", "true")
	ov, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if ov.Difficulty != nil {
		t.Fatalf("unset variables must stay nil")
	}
	cfg := Defaults()
	changed := func(flag string) bool { return flag == "threshold" }
	if err := Apply(&cfg, ov, changed); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.ConfidenceThreshold != 0.7 {
		t.Fatalf("a changed flag wins over the environment, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.HoldWindow != 750*time.Millisecond || !cfg.FocusWeak {
		t.Fatalf("unexpected env settings %+v", cfg)
	}
}

func TestApplyRejectsUnknownGame(t *testing.T) {
	cfg := Defaults()
	game := "chess"
	if err := Apply(&cfg, Overrides{Game: &game}, nil); err == nil {
		t.Fatalf("expected unknown game error")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	cases := map[string]func(*model.Config){
		"threshold":  func(c *model.Config) { c.ConfidenceThreshold = 1.5 },
		"difficulty": func(c *model.Config) { c.Difficulty = "extreme" },
		"pairs":      func(c *model.Config) { c.Pairs = 30 },
		"interval":   func(c *model.Config) { c.DetectionInterval = 0 },
		"time limit": func(c *model.Config) { c.TimeLimit = 10 * time.Millisecond },
		"weak":       func(c *model.Config) { c.WeakFactor = -1 },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestTemplateIsValidTOML(t *testing.T) {
	var cfg FileConfig
	if _, err := toml.Decode(Template(), &cfg); err != nil {
		t.Fatalf("template must decode: %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	if got := DefaultConfigPath(); got != filepath.Join(dir, "signdrill", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "signdrill", "signdrill.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "signdrill", "signdrill.log") {
		t.Fatalf("unexpected log path %s", got)
	}
}
