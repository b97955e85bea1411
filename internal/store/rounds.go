package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
)

// InsertRound stores a finished round and its per-letter stats.
func (s *Store) InsertRound(ctx context.Context, round model.RoundStats, letters []model.LetterStats) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rounds (session_id, game, started_at, ended_at, score, bonus, correct, incorrect, best_streak, moves, word, accuracy, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		round.SessionID,
		string(round.GameType),
		round.StartedAt.Format(time.RFC3339Nano),
		round.EndedAt.Format(time.RFC3339Nano),
		round.Score,
		round.Bonus,
		round.Correct,
		round.Incorrect,
		round.BestStreak,
		round.Moves,
		round.Word,
		round.Accuracy,
		round.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(letters) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO round_letter_stats (round_id, letter, correct, incorrect, latency_sum_ms, latency_count)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ls := range letters {
			if _, err := stmt.ExecContext(ctx, id, ls.Letter, ls.Correct, ls.Incorrect, ls.LatencySumMs, ls.LatencyCount); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return id, nil
}

// GetWeakLetters aggregates letter stats over the most recent rounds.
func (s *Store) GetWeakLetters(ctx context.Context, window int, game model.GameType) ([]model.LetterAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_rounds AS (
		SELECT id FROM rounds
		WHERE (? = '' OR game = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ls.letter, SUM(ls.correct) AS correct, SUM(ls.incorrect) AS incorrect,
		SUM(ls.latency_sum_ms) AS latency_sum_ms, SUM(ls.latency_count) AS latency_count
	FROM round_letter_stats ls
	JOIN recent_rounds r ON r.id = ls.round_id
	GROUP BY ls.letter`

	rows, err := s.db.QueryContext(ctx, query, string(game), string(game), window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.LetterAggregate
	for rows.Next() {
		var agg model.LetterAggregate
		if err := rows.Scan(&agg.Letter, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRounds returns round aggregates filtered by stats config, oldest first.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Game != "" {
		clauses = append(clauses, "game = ?")
		args = append(args, string(cfg.Game))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, game, ended_at, score, correct, incorrect, accuracy, duration_ms
		FROM rounds
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundAggregate
	for rows.Next() {
		var agg model.RoundAggregate
		var game, endedAt string
		if err := rows.Scan(&agg.RoundID, &game, &endedAt, &agg.Score, &agg.Correct, &agg.Incorrect, &agg.Accuracy, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.GameType = model.GameType(game)
		agg.EndedAt = parsed
		rounds = append(rounds, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

// ListLetterAggregatesForRounds aggregates per-letter stats across rounds.
func (s *Store) ListLetterAggregatesForRounds(ctx context.Context, roundIDs []int64) ([]model.LetterAggregate, error) {
	if len(roundIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(roundIDs)
	query := fmt.Sprintf(`SELECT letter, SUM(correct) AS correct, SUM(incorrect) AS incorrect,
		SUM(latency_sum_ms) AS latency_sum_ms, SUM(latency_count) AS latency_count
		FROM round_letter_stats
		WHERE round_id IN (%s)
		GROUP BY letter`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.LetterAggregate
	for rows.Next() {
		var agg model.LetterAggregate
		if err := rows.Scan(&agg.Letter, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListLetterStatsForRounds returns per-round stats for selected letters.
func (s *Store) ListLetterStatsForRounds(ctx context.Context, roundIDs []int64, letters []string) (map[int64]map[string]model.LetterAggregate, error) {
	if len(roundIDs) == 0 || len(letters) == 0 {
		return map[int64]map[string]model.LetterAggregate{}, nil
	}
	idPlaceholders, args := idArgs(roundIDs)
	letterPlaceholders := make([]string, len(letters))
	for i, l := range letters {
		letterPlaceholders[i] = "?"
		args = append(args, l)
	}

	query := fmt.Sprintf(`SELECT round_id, letter, correct, incorrect, latency_sum_ms, latency_count
		FROM round_letter_stats
		WHERE round_id IN (%s) AND letter IN (%s)`, idPlaceholders, strings.Join(letterPlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[int64]map[string]model.LetterAggregate{}
	for rows.Next() {
		var roundID int64
		var agg model.LetterAggregate
		if err := rows.Scan(&roundID, &agg.Letter, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		if _, ok := result[roundID]; !ok {
			result[roundID] = map[string]model.LetterAggregate{}
		}
		result[roundID][agg.Letter] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func idArgs(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	return strings.Join(placeholders, ","), args
}
