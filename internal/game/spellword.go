package game

import (
	"context"
	"strings"
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/scoring"
	"github.com/verte-zerg/signdrill/internal/wordlist"
)

// SpellWord asks for the letters of one word in order. A wrong letter only
// produces incorrect feedback and is not recorded as an attempt.
type SpellWord struct {
	e *engine

	state    State
	word     string
	index    int
	letterAt time.Time
	score    int
}

// NewSpellWord returns an idle SpellWord round.
func NewSpellWord(d Deps) *SpellWord {
	return &SpellWord{e: newEngine(d, model.GameSpellWord)}
}

// State returns the round state.
func (g *SpellWord) State() State { return g.state }

// Word returns the word being spelled.
func (g *SpellWord) Word() string { return g.word }

// Index returns the position of the letter to sign.
func (g *SpellWord) Index() int { return g.index }

// Score returns the points earned so far, without the end bonus.
func (g *SpellWord) Score() int { return g.score }

// Start fetches a word, opens the camera and starts detection.
func (g *SpellWord) Start(ctx context.Context) error {
	if g.state == Playing {
		return ErrAlreadyStarted
	}
	g.reset()
	g.e.begin(ctx)
	g.state = Playing

	round := g.e.round
	roundCtx := g.e.ctx
	difficulty := g.e.deps.Config.Difficulty
	var (
		word string
		err  error
	)
	g.e.deps.Scheduler.Go(func() {
		if g.e.deps.Words == nil {
			err = wordlist.ErrNoWord
			return
		}
		word, err = g.e.deps.Words.RandomWord(roundCtx, difficulty)
	}, func() {
		if round != g.e.round {
			return
		}
		word = strings.ToUpper(strings.TrimSpace(word))
		if err != nil || !wordlist.Fingerspellable(word) {
			if err != nil {
				g.e.logger.Printf("failed to fetch word, using fallback: %v", err)
			}
			word = g.fallbackWord(difficulty)
		}
		g.word = word
		g.e.openCamera(g.onCamera)
	})
	return nil
}

func (g *SpellWord) onCamera(err error) {
	if err != nil {
		g.e.teardown()
		g.state = Idle
		return
	}
	g.showLetter()
	if err := g.e.startDetection(g.onGesture); err != nil {
		g.e.notify.Error(err)
	}
}

// Restart abandons the round and returns to idle.
func (g *SpellWord) Restart() {
	g.e.teardown()
	g.reset()
}

func (g *SpellWord) reset() {
	g.state = Idle
	g.word = ""
	g.index = 0
	g.score = 0
}

func (g *SpellWord) fallbackWord(difficulty string) string {
	words, ok := wordlist.Fallback[strings.ToLower(difficulty)]
	if !ok {
		words = wordlist.Fallback[wordlist.Easy]
	}
	return g.e.deps.Generator.Pick(words)
}

func (g *SpellWord) showLetter() {
	g.letterAt = g.e.now()
	g.e.session.MarkTarget(g.letterAt)
	g.e.notify.TargetChanged(Target{Letter: g.word[g.index : g.index+1], Word: g.word, Index: g.index})
}

func (g *SpellWord) onGesture(ev model.GestureEvent) {
	if g.state != Playing || g.word == "" {
		return
	}
	expected := g.word[g.index : g.index+1]
	if ev.Label != expected {
		g.e.notify.Feedback(model.FeedbackIncorrect, ev.Label, 0)
		return
	}
	points := scoring.SpellWord.Points(ev.Confidence, ev.FirstSeenAt.Sub(g.letterAt), 0)
	g.score += points
	g.e.session.Record(ev.Label, ev.Confidence, true, ev.FirstSeenAt)
	g.e.credit(ev.Label)
	g.e.notify.Feedback(model.FeedbackCorrect, ev.Label, points)
	g.index++
	if g.index >= len(g.word) {
		g.finish()
		return
	}
	g.showLetter()
}

func (g *SpellWord) finish() {
	g.state = Finished
	correct, attempts := g.e.session.Correct(), g.e.session.Attempts()
	perfect := correct == attempts
	accuracy := 100
	if attempts > 0 {
		accuracy = scoring.Percent(correct, attempts)
	}
	elapsed := g.e.now().Sub(g.e.session.StartedAt())
	g.e.finish(outcome{
		score:    g.score,
		bonus:    scoring.SpellWordBonus(perfect, elapsed, len(g.word)),
		accuracy: accuracy,
		word:     g.word,
		perfect:  perfect,
	})
}
