// Package game implements the playable rounds on top of the detection engine.
//
// Every exported method and every callback runs on the Deps.Scheduler
// goroutine; none of the types here are safe for use from other goroutines.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/verte-zerg/signdrill/internal/achievement"
	"github.com/verte-zerg/signdrill/internal/camera"
	"github.com/verte-zerg/signdrill/internal/classifier"
	"github.com/verte-zerg/signdrill/internal/detect"
	"github.com/verte-zerg/signdrill/internal/generator"
	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/progress"
	"github.com/verte-zerg/signdrill/internal/scoring"
	"github.com/verte-zerg/signdrill/internal/sched"
	"github.com/verte-zerg/signdrill/internal/session"
	"github.com/verte-zerg/signdrill/internal/wordlist"
)

// Round defaults applied when Config leaves a value zero.
const (
	DefaultTimeLimit   = 60 * time.Second
	DefaultRevealDelay = 500 * time.Millisecond
	DefaultPairs       = 6
)

// ErrAlreadyStarted is returned by Start while a round is in progress.
var ErrAlreadyStarted = errors.New("round already started")

// State is the coarse state of a round.
type State int

// Round states.
const (
	Idle State = iota
	Playing
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Target is what the player must sign next.
type Target struct {
	Letter string
	Word   string
	Index  int
}

// Card is one memory board card.
type Card struct {
	ID      int
	Letter  string
	FaceUp  bool
	Matched bool
}

// Notifier receives everything a front end needs to render a round.
type Notifier interface {
	Status(model.Status)
	LevelUp(model.LevelChange)
	AchievementUnlocked(model.Achievement)
	Feedback(kind model.Feedback, label string, points int)
	Tick(remaining time.Duration)
	TargetChanged(Target)
	BoardChanged([]Card)
	RoundFinished(model.RoundResult)
	Error(error)
}

// NopNotifier ignores every notification. Embed it to implement a subset.
type NopNotifier struct{}

func (NopNotifier) Status(model.Status)                   {}
func (NopNotifier) LevelUp(model.LevelChange)             {}
func (NopNotifier) AchievementUnlocked(model.Achievement) {}
func (NopNotifier) Feedback(model.Feedback, string, int)  {}
func (NopNotifier) Tick(time.Duration)                    {}
func (NopNotifier) TargetChanged(Target)                  {}
func (NopNotifier) BoardChanged([]Card)                   {}
func (NopNotifier) RoundFinished(model.RoundResult)       {}
func (NopNotifier) Error(error)                           {}

// History stores finished rounds. *store.Store implements it.
type History interface {
	InsertRound(ctx context.Context, round model.RoundStats, letters []model.LetterStats) (int64, error)
}

// Deps are the collaborators shared by every game.
type Deps struct {
	Scheduler    sched.Scheduler
	Classifier   classifier.Classifier
	Camera       camera.Device
	Progress     *progress.Store
	Ledger       *scoring.Ledger
	Achievements *achievement.Engine
	Notifier     Notifier
	Generator    *generator.Generator
	Words        wordlist.Source
	History      History
	Config       model.Config
	// Weak biases TimeAttack targets when Config.FocusWeak is set.
	Weak   map[string]struct{}
	Logger *log.Logger
}

// engine holds the round plumbing shared by the games: camera, detection
// loop, debouncer, session and the end-of-round bookkeeping.
type engine struct {
	deps   Deps
	game   model.GameType
	notify Notifier
	logger *log.Logger

	round     int
	ctx       context.Context
	cancel    context.CancelFunc
	session   *session.Session
	capture   *camera.Capture
	loop      *detect.Loop
	acquiring bool
	debounce  *detect.Debouncer
	ticker    sched.Cancel
	credited  []string
}

func newEngine(d Deps, game model.GameType) *engine {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Generator == nil {
		d.Generator = generator.New()
	}
	if d.Config.ConfidenceThreshold <= 0 {
		d.Config.ConfidenceThreshold = detect.DefaultThreshold
	}
	if d.Ledger != nil {
		d.Ledger.OnLevelUp(d.Notifier.LevelUp)
	}
	if d.Achievements != nil {
		d.Achievements.OnUnlock(d.Notifier.AchievementUnlocked)
	}
	return &engine{
		deps:     d,
		game:     game,
		notify:   d.Notifier,
		logger:   d.Logger,
		debounce: detect.NewDebouncer(d.Scheduler, d.Config.HoldWindow),
	}
}

func (e *engine) now() time.Time {
	return e.deps.Scheduler.Now()
}

// begin opens a fresh session for a new round.
func (e *engine) begin(ctx context.Context) {
	e.teardown()
	if ctx == nil {
		ctx = context.Background()
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.session = session.Start(e.game, e.now())
	e.credited = nil
	e.logger.Printf("%s round %s started", e.game, e.session.ID())
}

// teardown stops detection and timers and invalidates pending callbacks.
func (e *engine) teardown() {
	e.round++
	e.acquiring = false
	e.stopDetection()
	e.stopTicker()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// openCamera acquires the camera off the scheduler and calls then with the
// result on it. Callbacks from a superseded round are dropped and their
// capture released. At most one acquisition per round is in flight.
func (e *engine) openCamera(then func(error)) {
	if e.acquiring {
		return
	}
	e.acquiring = true
	e.notify.Status(model.Status{Type: model.StatusWaiting, Message: detect.MsgStartingCamera})
	round := e.round
	ctx := e.ctx
	var (
		capture *camera.Capture
		err     error
	)
	e.deps.Scheduler.Go(func() {
		capture, err = camera.Acquire(ctx, e.deps.Camera, e.deps.Config.CameraTimeout)
	}, func() {
		if round != e.round {
			if capture != nil {
				if rerr := capture.Release(); rerr != nil {
					e.logger.Printf("failed to release stale camera: %v", rerr)
				}
			}
			return
		}
		e.acquiring = false
		if err != nil {
			e.logger.Printf("failed to acquire camera: %v", err)
			e.notify.Error(err)
			then(err)
			return
		}
		e.stopDetection()
		e.capture = capture
		e.loop = detect.NewLoop(e.deps.Scheduler, capture, e.deps.Classifier, detect.Options{
			Interval:      e.deps.Config.DetectionInterval,
			MinGap:        e.deps.Config.MinPollGap,
			NotReadyRetry: e.deps.Config.NotReadyRetry,
		}, e.notify.Status, e.logger)
		then(nil)
	})
}

// startDetection routes valid, debounced detections to handle.
func (e *engine) startDetection(handle func(model.GestureEvent)) error {
	if e.loop == nil {
		return fmt.Errorf("failed to start detection: %w", camera.ErrNoDevice)
	}
	e.debounce.Reset()
	return e.loop.Start(func(det model.Detection) {
		if !detect.IsValid(det, e.deps.Config.ConfidenceThreshold) {
			return
		}
		if ev, ok := e.debounce.Observe(det); ok {
			handle(ev)
		}
	})
}

// pauseDetection stops polling but keeps the camera.
func (e *engine) pauseDetection() {
	if e.loop != nil {
		e.loop.Pause()
	}
	e.debounce.Reset()
}

// stopDetection stops polling and releases the camera.
func (e *engine) stopDetection() {
	if e.loop != nil {
		e.loop.Stop()
		e.loop = nil
	} else if e.capture != nil {
		if err := e.capture.Release(); err != nil {
			e.logger.Printf("failed to release camera: %v", err)
		}
	}
	e.capture = nil
	e.debounce.Reset()
}

// every runs fn each interval until stopTicker.
func (e *engine) every(interval time.Duration, fn func()) {
	e.stopTicker()
	round := e.round
	var tick func()
	tick = func() {
		if round != e.round {
			return
		}
		e.ticker = e.deps.Scheduler.Schedule(interval, tick)
		fn()
	}
	e.ticker = e.deps.Scheduler.Schedule(interval, tick)
}

func (e *engine) stopTicker() {
	if e.ticker != nil {
		e.ticker()
		e.ticker = nil
	}
}

// credit remembers a letter the round taught, once.
func (e *engine) credit(letter string) {
	for _, l := range e.credited {
		if l == letter {
			return
		}
	}
	e.credited = append(e.credited, letter)
}

// outcome is what a game hands to finish.
type outcome struct {
	score      int
	bonus      int
	accuracy   int
	bestStreak int
	moves      int
	word       string
	perfect    bool
	speed      bool
}

// finish ends the session and runs the persistence steps in order: points,
// statistics, games played, high score, completed letters, streak,
// achievements and history. A failing step is logged and reported without
// aborting the rest.
func (e *engine) finish(o outcome) model.RoundResult {
	e.stopDetection()
	e.stopTicker()
	summary := e.session.End(e.now())
	ctx := e.ctx
	total := o.score + o.bonus

	result := model.RoundResult{
		GameType:   e.game,
		Score:      total,
		Bonus:      o.bonus,
		Accuracy:   o.accuracy,
		Correct:    summary.CorrectCount,
		Attempts:   summary.AttemptCount,
		BestStreak: o.bestStreak,
		Moves:      o.moves,
		Word:       o.word,
		Duration:   time.Duration(summary.DurationMs) * time.Millisecond,
		Session:    summary,
	}

	var errs []error
	fail := func(step string, err error) {
		e.logger.Printf("failed to %s: %v", step, err)
		errs = append(errs, fmt.Errorf("failed to %s: %w", step, err))
	}

	if e.deps.Ledger != nil {
		award, err := e.deps.Ledger.AddPoints(ctx, total, string(e.game))
		if err != nil {
			fail("add points", err)
		}
		result.LevelUp = award.LevelUp
	}

	gamesPlayed := 0
	if store := e.deps.Progress; store != nil {
		if err := store.UpdateStatistics(ctx, progress.StatsDelta{
			TotalDetections:   summary.AttemptCount,
			CorrectDetections: summary.CorrectCount,
			AverageConfidence: averageConfidence(summary.Detections),
			PlayTime:          result.Duration,
		}); err != nil {
			fail("update statistics", err)
		}
		n, err := store.IncrementGamesPlayed(ctx)
		if err != nil {
			fail("count game", err)
		}
		gamesPlayed = n
		record, err := store.UpdateGameScore(ctx, e.game, total)
		if err != nil {
			fail("update high score", err)
		}
		result.NewRecord = record
		for _, letter := range e.credited {
			if _, err := store.AddCompletedLetter(ctx, letter); err != nil {
				fail("complete letter "+letter, err)
			}
		}
		if _, err := store.UpdateStreak(ctx); err != nil {
			fail("update streak", err)
		}
		if e.deps.Achievements != nil {
			rec, err := store.Load(ctx)
			if err != nil {
				fail("load progress", err)
			} else {
				letters := len(rec.LettersCompleted)
				unlocked, err := e.deps.Achievements.CheckMultipleConditions(ctx, achievement.Conditions{
					LettersCompleted: &letters,
					Streak:           &rec.Streak,
					GamesPlayed:      &gamesPlayed,
					Points:           &rec.Points,
					PerfectGame:      o.perfect,
					SpeedRecord:      o.speed,
				})
				if err != nil {
					fail("check achievements", err)
				}
				result.Achievements = unlocked
			}
		}
	}

	if e.deps.History != nil {
		_, err := e.deps.History.InsertRound(ctx, model.RoundStats{
			SessionID:  summary.ID,
			GameType:   e.game,
			StartedAt:  summary.StartedAt,
			EndedAt:    summary.EndedAt,
			Score:      total,
			Bonus:      o.bonus,
			Correct:    summary.CorrectCount,
			Incorrect:  summary.AttemptCount - summary.CorrectCount,
			BestStreak: o.bestStreak,
			Moves:      o.moves,
			Word:       o.word,
			Accuracy:   summary.Accuracy,
			DurationMs: summary.DurationMs,
		}, e.session.LetterStats())
		if err != nil {
			// History feeds the stats view only.
			e.logger.Printf("failed to store round history: %v", err)
		}
	}

	e.logger.Printf("%s round %s finished: score %d (bonus %d)", e.game, summary.ID, total, o.bonus)
	if len(errs) > 0 {
		e.notify.Error(errors.Join(errs...))
	}
	e.notify.RoundFinished(result)
	return result
}

func averageConfidence(records []model.DetectionRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Confidence
	}
	return sum / float64(len(records))
}
