package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/signdrill/internal/achievement"
	"github.com/verte-zerg/signdrill/internal/config"
	"github.com/verte-zerg/signdrill/internal/progress"
	"github.com/verte-zerg/signdrill/internal/scoring"
	"github.com/verte-zerg/signdrill/internal/store"
)

var resetYes bool

// isTerminal is swapped in tests.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show, export, import or reset saved progress",
		Args:  cobra.NoArgs,
		RunE:  runProgressShowCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show level, points and achievements",
		Args:  cobra.NoArgs,
		RunE:  runProgressShowCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write progress as JSON (stdout when piped)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProgressExportCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file|->",
		Short: "Replace progress with an exported JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  runProgressImportCmd,
	})
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete all saved progress",
		Args:  cobra.NoArgs,
		RunE:  runProgressResetCmd,
	}
	reset.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(reset)
	return cmd
}

// withProgress opens the database and hands a progress store to fn.
func withProgress(fn func(*progress.Store) error) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(progress.New(st, progress.WithLogger(log.New(os.Stderr, "", 0))))
}

func runProgressShowCmd(cmd *cobra.Command, _ []string) error {
	return withProgress(func(prog *progress.Store) error {
		ctx := cmd.Context()
		rec, err := prog.Load(ctx)
		if err != nil {
			return err
		}
		logger := log.New(io.Discard, "", 0)
		status, err := scoring.NewLedger(prog, logger).Status(ctx)
		if err != nil {
			return err
		}
		engine := achievement.NewEngine(prog, logger)
		catalog, reached, err := engine.All(ctx)
		if err != nil {
			return err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Level %d  (%d points, %d to next level)\n", status.Level, status.Points, status.PointsToNextLevel)
		fmt.Fprintf(&b, "Streak: %d day(s)  Games played: %d  Letters: %d/24\n", rec.Streak, rec.GamesPlayed, len(rec.LettersCompleted))
		if len(rec.LettersCompleted) > 0 {
			letters := append([]string(nil), rec.LettersCompleted...)
			sort.Strings(letters)
			fmt.Fprintf(&b, "Completed: %s\n", strings.Join(letters, " "))
		}
		games := make([]string, 0, len(rec.GameScores))
		for g, score := range rec.GameScores {
			games = append(games, fmt.Sprintf("%s=%d", g, score))
		}
		sort.Strings(games)
		fmt.Fprintf(&b, "Best scores: %s\n", strings.Join(games, "  "))
		if s := rec.Statistics; s.TotalDetections > 0 {
			fmt.Fprintf(&b, "Detections: %d (%d correct, avg confidence %.2f)\n", s.TotalDetections, s.CorrectDetections, s.AverageConfidence)
		}
		b.WriteString("\nAchievements\n")
		for i, a := range catalog {
			mark := "[ ]"
			if reached[i].Unlocked {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "%s %-20s %s (%d/%d)\n", mark, a.Name, a.Description, min(reached[i].Current, reached[i].Required), reached[i].Required)
		}
		if _, err := io.WriteString(cmd.OutOrStdout(), b.String()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func runProgressExportCmd(cmd *cobra.Command, args []string) error {
	return withProgress(func(prog *progress.Store) error {
		data, name, err := prog.Export(cmd.Context())
		if err != nil {
			return err
		}
		path := ""
		switch {
		case len(args) == 1 && args[0] != "-":
			path = args[0]
		case len(args) == 0 && isTerminal(os.Stdout):
			path = name
		}
		if path == "" {
			if _, err := cmd.OutOrStdout().Write(append(data, '\n')); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create export directory: %w", err)
			}
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		logErrf("Exported progress to %s\n", path)
		return nil
	})
}

func runProgressImportCmd(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return withProgress(func(prog *progress.Store) error {
		if err := prog.Import(cmd.Context(), data); err != nil {
			return err
		}
		logErrf("Imported progress from %s\n", args[0])
		return nil
	})
}

func runProgressResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		if !isTerminal(os.Stdin) {
			return fmt.Errorf("refusing to reset progress without --yes")
		}
		ok, err := confirm(cmd.InOrStdin(), "Delete all saved progress? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Aborted.")
			return nil
		}
	}
	return withProgress(func(prog *progress.Store) error {
		if err := prog.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset progress: %w", err)
		}
		logErrln("Progress reset.")
		return nil
	})
}

func confirm(in io.Reader, prompt string) (bool, error) {
	logErrf("%s", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
