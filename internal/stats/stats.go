// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/signdrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RoundMetrics computes letters per minute and accuracy for a round.
func RoundMetrics(correct, incorrect int, durationMs int64) (lpm, accuracy float64) {
	den := float64(correct + incorrect)
	if den > 0 {
		accuracy = float64(correct) / den
	}
	if durationMs <= 0 {
		return 0, accuracy
	}
	minutes := float64(durationMs) / 60000.0
	lpm = float64(correct) / minutes
	return lpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// GameSummary aggregates the rounds of one game.
type GameSummary struct {
	Game        model.GameType
	Rounds      int
	BestScore   int
	AvgScore    float64
	AvgAccuracy float64
	AvgLPM      float64
}

// Summarize groups rounds by game in the canonical game order.
func Summarize(rounds []model.RoundAggregate) []GameSummary {
	byGame := map[model.GameType]*GameSummary{}
	for _, r := range rounds {
		s, ok := byGame[r.GameType]
		if !ok {
			s = &GameSummary{Game: r.GameType}
			byGame[r.GameType] = s
		}
		lpm, acc := RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		s.Rounds++
		s.AvgScore += float64(r.Score)
		s.AvgAccuracy += acc
		s.AvgLPM += lpm
		if r.Score > s.BestScore {
			s.BestScore = r.Score
		}
	}
	out := make([]GameSummary, 0, len(byGame))
	for _, g := range model.GameTypes {
		if s, ok := byGame[g]; ok {
			out = append(out, finish(*s))
			delete(byGame, g)
		}
	}
	rest := make([]GameSummary, 0, len(byGame))
	for _, s := range byGame {
		rest = append(rest, finish(*s))
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Game < rest[j].Game })
	return append(out, rest...)
}

func finish(s GameSummary) GameSummary {
	n := float64(s.Rounds)
	s.AvgScore /= n
	s.AvgAccuracy /= n
	s.AvgLPM /= n
	return s
}

// RenderSummary prints a per-game summary table for rounds.
func RenderSummary(w io.Writer, rounds []model.RoundAggregate) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	headers := []string{"Game", "Rounds", "Best", "Avg Score", "Avg Accuracy", "Letters/min"}
	rows := make([][]string, 0, len(model.GameTypes))
	for _, s := range Summarize(rounds) {
		rows = append(rows, []string{
			string(s.Game),
			fmt.Sprintf("%d", s.Rounds),
			fmt.Sprintf("%d", s.BestScore),
			fmt.Sprintf("%.1f", s.AvgScore),
			fmt.Sprintf("%.2f%%", s.AvgAccuracy*100),
			fmt.Sprintf("%.1f", s.AvgLPM),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCurves prints score and accuracy sparklines smoothed over window rounds.
func RenderCurves(w io.Writer, rounds []model.RoundAggregate, window int) error {
	if len(rounds) == 0 {
		return nil
	}
	scores := make([]float64, len(rounds))
	accs := make([]float64, len(rounds))
	for i, r := range rounds {
		_, acc := RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		scores[i] = float64(r.Score)
		accs[i] = acc * 100
	}
	scores = MovingAverage(scores, window)
	accs = MovingAverage(accs, window)
	if _, err := fmt.Fprintln(w, "Learning Curves"); err != nil {
		return err
	}
	lines := [][]string{
		{"Score", Sparkline(scores), fmt.Sprintf("%.1f", scores[len(scores)-1])},
		{"Accuracy", Sparkline(accs), fmt.Sprintf("%.1f%%", accs[len(accs)-1])},
	}
	for _, line := range formatTable(nil, lines, map[int]bool{2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// LetterRow is one rendered row of the per-letter table.
type LetterRow struct {
	Letter    string
	Accuracy  float64
	LatencyMs float64
	Correct   int
	Incorrect int
}

// LetterRows converts aggregates into rows sorted by lowest accuracy.
func LetterRows(aggs []model.LetterAggregate) []LetterRow {
	rows := make([]LetterRow, 0, len(aggs))
	for _, agg := range aggs {
		lat := 0.0
		if agg.LatencyCount > 0 {
			lat = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
		}
		rows = append(rows, LetterRow{
			Letter:    agg.Letter,
			Accuracy:  accuracy(agg),
			LatencyMs: lat,
			Correct:   agg.Correct,
			Incorrect: agg.Incorrect,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Accuracy == rows[j].Accuracy {
			return rows[i].Letter < rows[j].Letter
		}
		return rows[i].Accuracy < rows[j].Accuracy
	})
	return rows
}

// RenderLetterTable prints per-letter aggregates.
func RenderLetterTable(w io.Writer, aggs []model.LetterAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No letter stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Letter (Windowed)"); err != nil {
		return err
	}

	headers := []string{"Letter", "Accuracy", "Avg Latency (ms)", "Correct", "Incorrect"}
	rows := LetterRows(aggs)
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Letter,
			fmt.Sprintf("%.2f%%", r.Accuracy*100),
			fmt.Sprintf("%.1f", r.LatencyMs),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderLetterCurves prints an accuracy sparkline per selected letter.
func RenderLetterCurves(w io.Writer, rounds []model.RoundAggregate, perRound map[int64]map[string]model.LetterAggregate, letters []string, window int) error {
	if len(letters) == 0 || len(rounds) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Letter Curves"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(letters))
	for _, l := range letters {
		series := make([]float64, 0, len(rounds))
		for _, r := range rounds {
			agg, ok := perRound[r.RoundID][l]
			if !ok || agg.Correct+agg.Incorrect == 0 {
				continue
			}
			series = append(series, accuracy(agg)*100)
		}
		if len(series) == 0 {
			rows = append(rows, []string{l, "", "-"})
			continue
		}
		series = MovingAverage(series, window)
		rows = append(rows, []string{l, Sparkline(series), fmt.Sprintf("%.1f%%", series[len(series)-1])})
	}
	for _, line := range formatTable(nil, rows, map[int]bool{2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// ParseLetters splits a comma or space separated letter list.
func ParseLetters(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' })
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		l := strings.ToUpper(strings.TrimSpace(f))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
