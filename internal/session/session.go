// Package session records the attempts of one played round.
package session

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/signdrill/internal/model"
)

// Session is the transient record of one round. It lives from Start to End
// and is discarded afterwards.
type Session struct {
	id         string
	game       model.GameType
	startedAt  time.Time
	endedAt    time.Time
	correct    int
	attempts   int
	detections []model.DetectionRecord
	letters    map[string]*model.LetterStats
	order      []string
	lastMark   time.Time
	ended      bool
}

// Start opens a session for game at now.
func Start(game model.GameType, now time.Time) *Session {
	return &Session{
		id:        uuid.New().String(),
		game:      game,
		startedAt: now,
		lastMark:  now,
		letters:   make(map[string]*model.LetterStats),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// MarkTarget records when the current target was shown; latencies of the next
// recorded detection are measured from it.
func (s *Session) MarkTarget(at time.Time) {
	s.lastMark = at
}

// Record appends one attempt. Attempts after End are ignored.
func (s *Session) Record(label string, confidence float64, correct bool, at time.Time) {
	if s.ended {
		return
	}
	s.attempts++
	if correct {
		s.correct++
	}
	s.detections = append(s.detections, model.DetectionRecord{
		Label:      label,
		Confidence: confidence,
		Correct:    correct,
		At:         at,
	})

	stats, ok := s.letters[label]
	if !ok {
		stats = &model.LetterStats{Letter: label}
		s.letters[label] = stats
		s.order = append(s.order, label)
	}
	if correct {
		stats.Correct++
		if latency := at.Sub(s.lastMark); latency >= 0 {
			stats.LatencySumMs += latency.Milliseconds()
			stats.LatencyCount++
		}
	} else {
		stats.Incorrect++
	}
}

// Correct returns the number of correct attempts so far.
func (s *Session) Correct() int {
	return s.correct
}

// Attempts returns the number of attempts so far.
func (s *Session) Attempts() int {
	return s.attempts
}

// Accuracy returns correct/attempts as a percentage rounded to one decimal.
// A session without attempts has accuracy 0.
func (s *Session) Accuracy() float64 {
	if s.attempts == 0 {
		return 0
	}
	return math.Round(float64(s.correct)/float64(s.attempts)*1000) / 10
}

// LetterStats returns per-letter counters in first-seen order.
func (s *Session) LetterStats() []model.LetterStats {
	out := make([]model.LetterStats, 0, len(s.order))
	for _, l := range s.order {
		out = append(out, *s.letters[l])
	}
	return out
}

// End closes the session and returns its summary. Calling End again returns
// the same summary.
func (s *Session) End(now time.Time) model.SessionSummary {
	if !s.ended {
		s.ended = true
		s.endedAt = now
	}
	duration := s.endedAt.Sub(s.startedAt)
	if duration < 0 {
		duration = 0
	}
	return model.SessionSummary{
		ID:              s.id,
		GameType:        s.game,
		StartedAt:       s.startedAt,
		EndedAt:         s.endedAt,
		DurationMs:      duration.Milliseconds(),
		DurationSeconds: int(duration / time.Second),
		CorrectCount:    s.correct,
		AttemptCount:    s.attempts,
		Accuracy:        s.Accuracy(),
		Detections:      append([]model.DetectionRecord(nil), s.detections...),
	}
}
