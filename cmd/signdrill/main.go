// Package main provides the CLI entrypoint for signdrill.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/signdrill/internal/achievement"
	"github.com/verte-zerg/signdrill/internal/camera"
	"github.com/verte-zerg/signdrill/internal/classifier"
	"github.com/verte-zerg/signdrill/internal/config"
	"github.com/verte-zerg/signdrill/internal/game"
	"github.com/verte-zerg/signdrill/internal/generator"
	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/progress"
	"github.com/verte-zerg/signdrill/internal/sched"
	"github.com/verte-zerg/signdrill/internal/scoring"
	"github.com/verte-zerg/signdrill/internal/stats"
	"github.com/verte-zerg/signdrill/internal/statsui"
	"github.com/verte-zerg/signdrill/internal/store"
	"github.com/verte-zerg/signdrill/internal/tui"
	"github.com/verte-zerg/signdrill/internal/wordlist"
)

var (
	playCfg  model.Config
	playGame string

	statsGame        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsLetters     string
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "signdrill",
		Short:         "Fingerspelling trainer with camera gesture recognition",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	d := config.Defaults()
	playCfg = d
	f := rootCmd.Flags()
	f.StringVar(&playGame, "game", string(d.Game), "game to play: time, spell or memory")
	f.StringVar(&playCfg.Difficulty, "difficulty", d.Difficulty, "word difficulty for spelling (easy, medium, hard)")
	f.Float64Var(&playCfg.ConfidenceThreshold, "threshold", d.ConfidenceThreshold, "minimum detection confidence (0-1]")
	f.DurationVar(&playCfg.DetectionInterval, "interval", d.DetectionInterval, "detection poll interval")
	f.DurationVar(&playCfg.MinPollGap, "min-gap", d.MinPollGap, "minimum gap between classifier calls")
	f.DurationVar(&playCfg.NotReadyRetry, "retry", d.NotReadyRetry, "retry delay while the camera is not ready")
	f.DurationVar(&playCfg.HoldWindow, "hold", d.HoldWindow, "hold window of a credited gesture")
	f.StringVar(&playCfg.CameraDir, "camera-dir", d.CameraDir, "directory of frames written by a capture program")
	f.DurationVar(&playCfg.CameraTimeout, "camera-timeout", d.CameraTimeout, "camera acquisition timeout")
	f.DurationVar(&playCfg.TimeLimit, "time-limit", d.TimeLimit, "time attack countdown")
	f.DurationVar(&playCfg.RevealDelay, "reveal-delay", d.RevealDelay, "memory match delay before comparing cards")
	f.IntVar(&playCfg.Pairs, "pairs", d.Pairs, "memory match pairs")
	f.StringVar(&playCfg.ClassifierURL, "classifier-url", d.ClassifierURL, "gesture classifier endpoint")
	f.DurationVar(&playCfg.ClassifierTimeout, "classifier-timeout", d.ClassifierTimeout, "classifier request timeout")
	f.StringVar(&playCfg.WordsURL, "words-url", d.WordsURL, "random word endpoint (empty disables it)")
	f.StringVar(&playCfg.WordListPath, "word-list", d.WordListPath, "local word list, one word per line")
	f.BoolVar(&playCfg.FocusWeak, "focus-weak", false, "bias time attack targets toward weak letters")
	f.IntVar(&playCfg.WeakTop, "weak-top", d.WeakTop, "number of weak letters to focus on")
	f.Float64Var(&playCfg.WeakFactor, "weak-factor", d.WeakFactor, "weight factor for weak letters")
	f.IntVar(&playCfg.WeakWindow, "weak-window", d.WeakWindow, "number of recent rounds to compute weak letters")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newProgressCmd())

	return rootCmd
}

// resolvePlayConfig layers the config file and SIGNDRILL_* variables under
// the command-line flags and validates the result.
func resolvePlayConfig(cmd *cobra.Command) (model.Config, error) {
	cfg := playCfg
	changed := cmd.Flags().Changed
	if changed("game") {
		g, err := model.ParseGameType(playGame)
		if err != nil {
			return cfg, err
		}
		cfg.Game = g
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Apply(&cfg, fileCfg.Overrides(), changed); err != nil {
		return cfg, fmt.Errorf("invalid config file: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := config.Apply(&cfg, envCfg, changed); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolvePlayConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	weak := loadWeakLetters(cmd.Context(), st, cfg)

	logPath := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := tea.LogToFile(logPath, "signdrill ")
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()
	logger := log.Default()

	prog := progress.New(st, progress.WithLogger(logger))
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	var program *tea.Program
	loop := sched.NewLoopWithSink(func(fn func()) { program.Send(tui.RunMsg(fn)) })
	defer loop.Close()

	deps := game.Deps{
		Scheduler:    loop,
		Classifier:   classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierTimeout),
		Camera:       camera.NewDirDevice(cfg.CameraDir),
		Progress:     prog,
		Ledger:       scoring.NewLedger(prog, logger),
		Achievements: achievement.NewEngine(prog, logger),
		Generator:    generator.New(),
		Words:        buildWordSource(cfg, rnd, logger),
		History:      st,
		Config:       cfg,
		Weak:         weak,
		Logger:       logger,
	}
	build := func(n game.Notifier) tui.Round {
		deps.Notifier = n
		return newRound(cfg.Game, deps)
	}
	m := tui.NewModel(cfg, build, st, logger)
	program = tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newRound(g model.GameType, deps game.Deps) tui.Round {
	switch g {
	case model.GameSpellWord:
		return game.NewSpellWord(deps)
	case model.GameMemoryMatch:
		return game.NewMemoryMatch(deps)
	default:
		return game.NewTimeAttack(deps)
	}
}

// buildWordSource tries the remote endpoint, then the local word list, then
// the built-in table.
func buildWordSource(cfg model.Config, rnd *rand.Rand, logger *log.Logger) wordlist.Source {
	var sources []wordlist.Source
	if cfg.WordsURL != "" {
		sources = append(sources, wordlist.NewRemote(cfg.WordsURL, 0))
	}
	if cfg.WordListPath != "" {
		words, err := wordlist.LoadWords(cfg.WordListPath)
		switch {
		case err == nil:
			sources = append(sources, wordlist.NewList(words, rnd))
		case !errors.Is(err, fs.ErrNotExist):
			logger.Printf("failed to load word list %s: %v", cfg.WordListPath, err)
		}
	}
	return wordlist.NewChain(rnd, func(err error) {
		logger.Printf("word source failed: %v", err)
	}, sources...)
}

func loadWeakLetters(ctx context.Context, st *store.Store, cfg model.Config) map[string]struct{} {
	if !cfg.FocusWeak || cfg.Game != model.GameTimeAttack {
		return nil
	}
	aggs, err := st.GetWeakLetters(ctx, cfg.WeakWindow, cfg.Game)
	if err != nil {
		logErrf("failed to load weak letters: %v\n", err)
		return nil
	}
	weak := stats.SelectWeakLetters(aggs, cfg.WeakTop)
	if len(weak) == 0 {
		logErrln("no stats available for weak-letter focus yet; using uniform targets")
	}
	return weak
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show round history and progress",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsGame, "game", "", "game filter (time, spell or memory)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", config.DefaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsLetters, "letter", "", "letters for per-letter curves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print tables instead of the interactive view")
	return cmd
}

func statsConfig() (model.StatsConfig, error) {
	cfg := model.StatsConfig{
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Letters:     statsLetters,
	}
	if statsGame != "" {
		g, err := model.ParseGameType(statsGame)
		if err != nil {
			return cfg, err
		}
		cfg.Game = g
	}
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if cfg.Last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	if cfg.CurveWindow < 1 {
		return cfg, fmt.Errorf("--curve-window must be >= 1")
	}
	return cfg, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain || !isTerminal(os.Stdout) {
		return printStats(cmd, st, cfg)
	}

	logger := log.New(os.Stderr, "", 0)
	prog := progress.New(st, progress.WithLogger(logger))
	profile := &statsui.Profile{
		Ledger:       scoring.NewLedger(prog, logger),
		Achievements: achievement.NewEngine(prog, logger),
	}
	program := tea.NewProgram(statsui.NewModel(st, cfg, profile), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Rounds); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Rounds) == 0 {
		return nil
	}
	if err := stats.RenderCurves(out, report.Rounds, cfg.CurveWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderLetterTable(out, report.LetterAggsWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderLetterCurves(out, report.Rounds, report.PerRoundForLetter, report.CurveLetters, cfg.CurveWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
