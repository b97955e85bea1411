package game

import (
	"context"
	"time"

	"github.com/verte-zerg/signdrill/internal/generator"
	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/scoring"
)

// Ten correct letters within the first 30 seconds earn the speed flag.
const (
	speedLetters = 10
	speedWindow  = 30 * time.Second
)

// TimeAttack asks for as many random letters as possible before the
// countdown runs out. A miss resets the streak.
type TimeAttack struct {
	e *engine

	state      State
	letters    []string
	target     string
	targetAt   time.Time
	remaining  time.Duration
	score      int
	streak     int
	bestStreak int
	// tenthAt is when the tenth correct letter was signed.
	tenthAt time.Time
}

// NewTimeAttack returns an idle TimeAttack round.
func NewTimeAttack(d Deps) *TimeAttack {
	return &TimeAttack{
		e:       newEngine(d, model.GameTimeAttack),
		letters: generator.StaticLetters,
	}
}

// State returns the round state.
func (g *TimeAttack) State() State { return g.state }

// Target returns the letter to sign.
func (g *TimeAttack) Target() string { return g.target }

// Remaining returns the time left on the countdown.
func (g *TimeAttack) Remaining() time.Duration { return g.remaining }

// Score returns the points earned so far, without the end bonus.
func (g *TimeAttack) Score() int { return g.score }

// Streak returns the current run of correct letters.
func (g *TimeAttack) Streak() int { return g.streak }

// Start opens the camera and, once it is ready, starts the countdown and the
// detection loop. Camera failures are reported through Notifier.Error and
// leave the round idle.
func (g *TimeAttack) Start(ctx context.Context) error {
	if g.state == Playing {
		return ErrAlreadyStarted
	}
	g.reset()
	g.e.begin(ctx)
	g.state = Playing
	g.e.openCamera(func(err error) {
		if err != nil {
			g.e.teardown()
			g.state = Idle
			return
		}
		g.nextTarget()
		g.e.notify.Tick(g.remaining)
		g.e.every(time.Second, g.tick)
		if err := g.e.startDetection(g.onGesture); err != nil {
			g.e.notify.Error(err)
		}
	})
	return nil
}

// Restart abandons the round and returns to idle.
func (g *TimeAttack) Restart() {
	g.e.teardown()
	g.reset()
}

func (g *TimeAttack) reset() {
	g.state = Idle
	g.target = ""
	g.remaining = g.e.deps.Config.TimeLimit
	if g.remaining <= 0 {
		g.remaining = DefaultTimeLimit
	}
	g.score = 0
	g.streak = 0
	g.bestStreak = 0
	g.tenthAt = time.Time{}
}

func (g *TimeAttack) tick() {
	if g.state != Playing {
		return
	}
	g.remaining -= time.Second
	if g.remaining < 0 {
		g.remaining = 0
	}
	g.e.notify.Tick(g.remaining)
	if g.remaining == 0 {
		g.finish()
	}
}

func (g *TimeAttack) nextTarget() {
	cfg := g.e.deps.Config
	if cfg.FocusWeak && len(g.e.deps.Weak) > 0 {
		g.target = g.e.deps.Generator.NextWeightedTarget(g.letters, g.target, g.e.deps.Weak, cfg.WeakFactor)
	} else {
		g.target = g.e.deps.Generator.NextTarget(g.letters, g.target)
	}
	g.targetAt = g.e.now()
	g.e.session.MarkTarget(g.targetAt)
	g.e.notify.TargetChanged(Target{Letter: g.target})
}

func (g *TimeAttack) onGesture(ev model.GestureEvent) {
	if g.state != Playing || g.target == "" {
		return
	}
	if ev.Label != g.target {
		g.e.session.Record(ev.Label, 0, false, ev.FirstSeenAt)
		g.streak = 0
		g.e.notify.Feedback(model.FeedbackIncorrect, ev.Label, 0)
		return
	}
	g.streak++
	if g.streak > g.bestStreak {
		g.bestStreak = g.streak
	}
	points := scoring.TimeAttack.Points(ev.Confidence, ev.FirstSeenAt.Sub(g.targetAt), g.streak)
	g.score += points
	g.e.session.Record(ev.Label, ev.Confidence, true, ev.FirstSeenAt)
	if g.e.session.Correct() == speedLetters {
		g.tenthAt = ev.FirstSeenAt
	}
	g.e.credit(ev.Label)
	g.e.notify.Feedback(model.FeedbackCorrect, ev.Label, points)
	g.nextTarget()
}

func (g *TimeAttack) finish() {
	g.state = Finished
	correct := g.e.session.Correct()
	accuracy := scoring.Percent(correct, g.e.session.Attempts())
	speed := !g.tenthAt.IsZero() && g.tenthAt.Sub(g.e.session.StartedAt()) <= speedWindow
	g.e.finish(outcome{
		score:      g.score,
		bonus:      scoring.TimeAttackBonus(correct, accuracy),
		accuracy:   accuracy,
		bestStreak: g.bestStreak,
		perfect:    accuracy == 100,
		speed:      speed,
	})
}
