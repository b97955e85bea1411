package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/signdrill/internal/generator"
	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/scoring"
)

// Flip errors.
var (
	ErrNotPlaying  = errors.New("round is not in progress")
	ErrBusy        = errors.New("waiting for the current pair")
	ErrInvalidCard = errors.New("card cannot be flipped")
)

// MemoryMatch is a pair-matching board where every found pair must be
// confirmed by signing its letter before it counts.
type MemoryMatch struct {
	e *engine

	state      State
	pairs      int
	cards      []Card
	flipped    []int
	moves      int
	matched    int
	score      int
	revealing  bool
	confirming string
	reveal     func()
}

// NewMemoryMatch returns an idle MemoryMatch round.
func NewMemoryMatch(d Deps) *MemoryMatch {
	pairs := d.Config.Pairs
	if pairs <= 0 {
		pairs = DefaultPairs
	}
	if pairs > len(generator.StaticLetters) {
		pairs = len(generator.StaticLetters)
	}
	return &MemoryMatch{e: newEngine(d, model.GameMemoryMatch), pairs: pairs}
}

// State returns the round state.
func (g *MemoryMatch) State() State { return g.state }

// Cards returns a copy of the board.
func (g *MemoryMatch) Cards() []Card { return append([]Card(nil), g.cards...) }

// Moves returns how many pairs of cards were turned.
func (g *MemoryMatch) Moves() int { return g.moves }

// Matched returns the number of confirmed pairs.
func (g *MemoryMatch) Matched() int { return g.matched }

// Score returns the points earned so far, without the end bonus.
func (g *MemoryMatch) Score() int { return g.score }

// Confirming returns the letter awaiting its confirmation sign, if any.
func (g *MemoryMatch) Confirming() (string, bool) {
	return g.confirming, g.confirming != ""
}

// Start deals a new board and starts the elapsed clock. The camera is opened
// on the first confirmation.
func (g *MemoryMatch) Start(ctx context.Context) error {
	if g.state == Playing {
		return ErrAlreadyStarted
	}
	g.reset()
	g.e.begin(ctx)
	g.state = Playing

	letters := g.e.deps.Generator.Letters(generator.StaticLetters, g.pairs)
	deck := make([]string, 0, 2*len(letters))
	deck = append(deck, letters...)
	deck = append(deck, letters...)
	g.e.deps.Generator.Shuffle(deck)
	g.cards = make([]Card, len(deck))
	for i, letter := range deck {
		g.cards[i] = Card{ID: i, Letter: letter}
	}

	start := g.e.now()
	g.e.every(time.Second, func() {
		g.e.notify.Tick(g.e.now().Sub(start))
	})
	g.e.notify.Tick(0)
	g.board()
	return nil
}

// Restart abandons the round and returns to idle.
func (g *MemoryMatch) Restart() {
	g.e.teardown()
	g.reset()
}

func (g *MemoryMatch) reset() {
	if g.reveal != nil {
		g.reveal()
	}
	g.state = Idle
	g.cards = nil
	g.flipped = nil
	g.moves = 0
	g.matched = 0
	g.score = 0
	g.revealing = false
	g.confirming = ""
	g.reveal = nil
}

// Flip turns card i face up. The second card of a move is compared after the
// reveal delay: a mismatch turns both back down, a match starts confirmation.
func (g *MemoryMatch) Flip(i int) error {
	if g.state != Playing {
		return ErrNotPlaying
	}
	if g.revealing || g.confirming != "" || len(g.flipped) >= 2 {
		return ErrBusy
	}
	if i < 0 || i >= len(g.cards) || g.cards[i].Matched || g.cards[i].FaceUp {
		return fmt.Errorf("%w: %d", ErrInvalidCard, i)
	}
	g.cards[i].FaceUp = true
	g.flipped = append(g.flipped, i)
	if len(g.flipped) == 2 {
		g.moves++
		g.revealing = true
		delay := g.e.deps.Config.RevealDelay
		if delay <= 0 {
			delay = DefaultRevealDelay
		}
		g.reveal = g.e.deps.Scheduler.Schedule(delay, g.compare)
	}
	g.board()
	return nil
}

func (g *MemoryMatch) compare() {
	g.reveal = nil
	g.revealing = false
	if g.state != Playing || len(g.flipped) != 2 {
		return
	}
	a, b := g.cards[g.flipped[0]], g.cards[g.flipped[1]]
	if a.Letter != b.Letter {
		g.turnDown()
		g.e.notify.Feedback(model.FeedbackIncorrect, "", 0)
		return
	}
	g.confirming = a.Letter
	g.e.notify.TargetChanged(Target{Letter: a.Letter})
	g.e.notify.Feedback(model.FeedbackWaiting, a.Letter, 0)
	g.e.session.MarkTarget(g.e.now())
	if g.e.loop == nil {
		// A pending acquisition picks up the new letter in onCamera.
		g.e.openCamera(g.onCamera)
		return
	}
	g.listen()
}

func (g *MemoryMatch) onCamera(err error) {
	if err != nil {
		g.CancelConfirmation()
		return
	}
	g.listen()
}

func (g *MemoryMatch) listen() {
	if g.confirming == "" {
		return
	}
	if err := g.e.startDetection(g.onGesture); err != nil {
		g.e.notify.Error(err)
		g.CancelConfirmation()
	}
}

// CancelConfirmation abandons the pending confirmation and turns the pair
// back down without points.
func (g *MemoryMatch) CancelConfirmation() {
	if g.confirming == "" {
		return
	}
	g.e.pauseDetection()
	g.confirming = ""
	g.turnDown()
}

func (g *MemoryMatch) turnDown() {
	for _, i := range g.flipped {
		g.cards[i].FaceUp = false
	}
	g.flipped = nil
	g.board()
}

func (g *MemoryMatch) onGesture(ev model.GestureEvent) {
	if g.state != Playing || g.confirming == "" || ev.Label != g.confirming {
		return
	}
	g.e.pauseDetection()
	for _, i := range g.flipped {
		g.cards[i].Matched = true
	}
	g.flipped = nil
	g.confirming = ""
	points := scoring.MemoryMatch.Points(ev.Confidence, -1, 0)
	g.score += points
	g.matched++
	g.e.session.Record(ev.Label, ev.Confidence, true, ev.FirstSeenAt)
	g.e.credit(ev.Label)
	g.e.notify.Feedback(model.FeedbackCorrect, ev.Label, points)
	g.board()
	if g.matched >= g.pairs {
		g.finish()
	}
}

func (g *MemoryMatch) board() {
	g.e.notify.BoardChanged(g.Cards())
}

func (g *MemoryMatch) finish() {
	g.state = Finished
	elapsed := g.e.now().Sub(g.e.session.StartedAt())
	g.e.finish(outcome{
		score:    g.score,
		bonus:    scoring.MemoryBonus(g.moves, elapsed),
		accuracy: scoring.MemoryEfficiency(g.pairs, g.moves),
		moves:    g.moves,
		perfect:  g.moves == g.pairs,
	})
}
