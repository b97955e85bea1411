package game

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/verte-zerg/signdrill/internal/achievement"
	"github.com/verte-zerg/signdrill/internal/camera"
	"github.com/verte-zerg/signdrill/internal/generator"
	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/progress"
	"github.com/verte-zerg/signdrill/internal/scoring"
	"github.com/verte-zerg/signdrill/internal/sched"
	"github.com/verte-zerg/signdrill/internal/wordlist"
)

type fakeCamera struct {
	opens   int
	closes  int
	openErr error
}

func (f *fakeCamera) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opens++
	return nil
}

func (f *fakeCamera) Dimensions() (int, int, error) { return 640, 480, nil }

func (f *fakeCamera) Frame() ([]byte, error) { return []byte("frame"), nil }

func (f *fakeCamera) Close() error {
	f.closes++
	return nil
}

// scriptClassifier answers every frame with the gesture currently shown.
type scriptClassifier struct {
	current model.Detection
	calls   int
}

func (c *scriptClassifier) show(label string, confidence float64) {
	c.current = model.Detection{Success: true, Label: label, Confidence: confidence, HandsDetected: true}
}

func (c *scriptClassifier) blank() {
	c.current = model.Detection{Success: true}
}

func (c *scriptClassifier) Classify(context.Context, []byte) (model.Detection, error) {
	c.calls++
	return c.current, nil
}

type recorder struct {
	NopNotifier
	feedback     []model.Feedback
	targets      []Target
	ticks        []time.Duration
	boards       int
	results      []model.RoundResult
	errs         []error
	levelUps     []model.LevelChange
	achievements []string
}

func (r *recorder) Feedback(kind model.Feedback, _ string, _ int) { r.feedback = append(r.feedback, kind) }
func (r *recorder) TargetChanged(t Target)                        { r.targets = append(r.targets, t) }
func (r *recorder) Tick(d time.Duration)                          { r.ticks = append(r.ticks, d) }
func (r *recorder) BoardChanged([]Card)                           { r.boards++ }
func (r *recorder) RoundFinished(res model.RoundResult)           { r.results = append(r.results, res) }
func (r *recorder) Error(err error)                               { r.errs = append(r.errs, err) }
func (r *recorder) LevelUp(c model.LevelChange)                   { r.levelUps = append(r.levelUps, c) }
func (r *recorder) AchievementUnlocked(a model.Achievement) {
	r.achievements = append(r.achievements, a.ID)
}

type fakeHistory struct {
	rounds  []model.RoundStats
	letters [][]model.LetterStats
}

func (h *fakeHistory) InsertRound(_ context.Context, round model.RoundStats, letters []model.LetterStats) (int64, error) {
	h.rounds = append(h.rounds, round)
	h.letters = append(h.letters, letters)
	return int64(len(h.rounds)), nil
}

type fakeWords struct {
	word string
	err  error
}

func (f fakeWords) RandomWord(context.Context, string) (string, error) {
	return f.word, f.err
}

// heldScheduler queues Go completions while held so tests can interleave
// player input with slow blocking work.
type heldScheduler struct {
	*sched.Virtual
	held    bool
	pending []func()
}

func (s *heldScheduler) Go(work func(), then func()) {
	if !s.held {
		s.Virtual.Go(work, then)
		return
	}
	s.pending = append(s.pending, func() {
		work()
		then()
	})
}

func (s *heldScheduler) release() {
	s.held = false
	pending := s.pending
	s.pending = nil
	for _, fn := range pending {
		fn()
	}
}

type harness struct {
	v       *sched.Virtual
	cls     *scriptClassifier
	cam     *fakeCamera
	rec     *recorder
	store   *progress.Store
	history *fakeHistory
	deps    Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	v := sched.NewVirtual(time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local))
	store := progress.New(progress.NewMemoryBackend(), progress.WithLogger(logger), progress.WithClock(v.Now))
	h := &harness{
		v:       v,
		cls:     &scriptClassifier{},
		cam:     &fakeCamera{},
		rec:     &recorder{},
		store:   store,
		history: &fakeHistory{},
	}
	h.cls.blank()
	h.deps = Deps{
		Scheduler:    v,
		Classifier:   h.cls,
		Camera:       h.cam,
		Progress:     store,
		Ledger:       scoring.NewLedger(store, logger),
		Achievements: achievement.NewEngine(store, logger),
		Notifier:     h.rec,
		Generator:    generator.NewWithSeed(42),
		History:      h.history,
		Config:       model.Config{Difficulty: wordlist.Easy},
		Logger:       logger,
	}
	return h
}

func (h *harness) load(t *testing.T) model.ProgressRecord {
	t.Helper()
	rec, err := h.store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return rec
}

func otherLetter(target string) string {
	if target == "A" {
		return "B"
	}
	return "A"
}

func TestTimeAttackScoresAndFinishesOnCountdown(t *testing.T) {
	h := newHarness(t)
	g := NewTimeAttack(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.State() != Playing || g.Target() == "" {
		t.Fatalf("expected playing with a target, got %s %q", g.State(), g.Target())
	}
	if err := g.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	first := g.Target()
	h.cls.show(first, 0.95)
	h.v.Advance(300 * time.Millisecond)
	if g.Score() != 30 {
		t.Fatalf("expected 30 points (15+5+10), got %d", g.Score())
	}
	if g.Streak() != 1 {
		t.Fatalf("expected streak 1, got %d", g.Streak())
	}
	if g.Target() == first {
		t.Fatalf("target must change after a correct letter")
	}

	h.cls.show(otherLetter(g.Target()), 0.95)
	h.v.Advance(300 * time.Millisecond)
	if g.Streak() != 0 {
		t.Fatalf("expected streak reset after a miss, got %d", g.Streak())
	}
	h.cls.blank()

	h.v.Advance(60 * time.Second)
	if g.State() != Finished {
		t.Fatalf("expected finished after countdown, got %s", g.State())
	}
	if g.Remaining() != 0 {
		t.Fatalf("expected no time left, got %v", g.Remaining())
	}
	if len(h.rec.results) != 1 {
		t.Fatalf("expected one result, got %d", len(h.rec.results))
	}
	res := h.rec.results[0]
	if res.Correct != 1 || res.Attempts != 2 || res.Accuracy != 50 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Score != 30 || res.Bonus != 0 {
		t.Fatalf("expected score 30 without bonus, got %d/%d", res.Score, res.Bonus)
	}
	if len(h.rec.feedback) != 2 || h.rec.feedback[0] != model.FeedbackCorrect || h.rec.feedback[1] != model.FeedbackIncorrect {
		t.Fatalf("unexpected feedback %v", h.rec.feedback)
	}

	rec := h.load(t)
	if rec.Points != 30 || rec.GamesPlayed != 1 || rec.GameScores[model.GameTimeAttack] != 30 {
		t.Fatalf("unexpected progress %+v", rec)
	}
	if !rec.HasLetter(first) || len(rec.LettersCompleted) != 1 {
		t.Fatalf("expected %s completed, got %v", first, rec.LettersCompleted)
	}
	if rec.Streak != 1 || rec.Statistics.TotalDetections != 2 || rec.Statistics.CorrectDetections != 1 {
		t.Fatalf("unexpected streak/statistics %+v", rec)
	}
	if len(h.history.rounds) != 1 || h.history.rounds[0].Incorrect != 1 {
		t.Fatalf("expected stored round, got %+v", h.history.rounds)
	}
	if h.cam.closes != 1 {
		t.Fatalf("expected camera released once, got %d", h.cam.closes)
	}
	if h.v.Pending() != 0 {
		t.Fatalf("expected no timers after finish, got %d", h.v.Pending())
	}
}

func TestTimeAttackSpeedCountsTenthLetterNotRoundLength(t *testing.T) {
	for _, tc := range []struct {
		name  string
		pause time.Duration
		want  bool
	}{
		{"fast", 0, true},
		{"slow", 30 * time.Second, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			g := NewTimeAttack(h.deps)
			if err := g.Start(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}
			h.v.Advance(tc.pause)
			for i := 0; i < 10; i++ {
				h.cls.show(g.Target(), 0.95)
				h.v.Advance(300 * time.Millisecond)
			}
			if g.Streak() != 10 {
				t.Fatalf("expected ten correct letters, got streak %d", g.Streak())
			}
			h.cls.blank()
			h.v.Advance(60 * time.Second)
			if g.State() != Finished {
				t.Fatalf("expected finished, got %s", g.State())
			}
			got := false
			for _, a := range h.rec.achievements {
				if a == "speed" {
					got = true
				}
			}
			if got != tc.want {
				t.Fatalf("speed unlocked = %v, want %v (achievements %v)", got, tc.want, h.rec.achievements)
			}
		})
	}
}

func TestTimeAttackHeldLetterCountsAgainstNextTarget(t *testing.T) {
	h := newHarness(t)
	g := NewTimeAttack(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := g.Target()
	h.cls.show(first, 0.95)
	h.v.Advance(300 * time.Millisecond)
	if g.Streak() != 1 {
		t.Fatalf("expected the first letter credited")
	}
	// Still inside the hold window: suppressed.
	h.v.Advance(300 * time.Millisecond)
	if len(h.rec.feedback) != 1 {
		t.Fatalf("held letter must not be re-evaluated within the hold window, got %v", h.rec.feedback)
	}
	// Hold expired: the stale letter is a miss against the new target.
	h.v.Advance(300 * time.Millisecond)
	if len(h.rec.feedback) != 2 || h.rec.feedback[1] != model.FeedbackIncorrect || g.Streak() != 0 {
		t.Fatalf("expected a miss after the hold window, got %v streak %d", h.rec.feedback, g.Streak())
	}
}

func TestTimeAttackCameraFailure(t *testing.T) {
	h := newHarness(t)
	h.cam.openErr = &camera.Error{Kind: camera.PermissionDenied}
	g := NewTimeAttack(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.State() != Idle {
		t.Fatalf("expected idle after camera failure, got %s", g.State())
	}
	if len(h.rec.errs) != 1 || !errors.Is(h.rec.errs[0], camera.ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", h.rec.errs)
	}
	if h.v.Pending() != 0 {
		t.Fatalf("expected no timers, got %d", h.v.Pending())
	}
}

func TestTimeAttackRestartDiscardsRound(t *testing.T) {
	h := newHarness(t)
	g := NewTimeAttack(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.cls.show(g.Target(), 0.95)
	h.v.Advance(300 * time.Millisecond)
	g.Restart()
	g.Restart()
	if g.State() != Idle || g.Score() != 0 {
		t.Fatalf("expected a clean idle round, got %s score %d", g.State(), g.Score())
	}
	if h.cam.closes != 1 {
		t.Fatalf("expected camera released once, got %d", h.cam.closes)
	}
	if h.v.Pending() != 0 {
		t.Fatalf("expected no timers after restart, got %d", h.v.Pending())
	}
	h.v.Advance(2 * time.Minute)
	if len(h.rec.results) != 0 {
		t.Fatalf("restarted round must not finish")
	}
	if rec := h.load(t); rec.Points != 0 || rec.GamesPlayed != 0 {
		t.Fatalf("restarted round must not persist, got %+v", rec)
	}
}

func TestTimeAttackFocusesWeakLetters(t *testing.T) {
	h := newHarness(t)
	h.deps.Config.FocusWeak = true
	h.deps.Config.WeakFactor = 50
	h.deps.Weak = map[string]struct{}{"Q": {}, "X": {}}
	g := NewTimeAttack(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	weak := 0
	for i := 0; i < 20; i++ {
		target := g.Target()
		if target == "Q" || target == "X" {
			weak++
		}
		h.cls.show(target, 0.95)
		h.v.Advance(300 * time.Millisecond)
	}
	if weak < 10 {
		t.Fatalf("expected weak letters to dominate, got %d of 20", weak)
	}
}

func TestSpellWordCompletesWord(t *testing.T) {
	h := newHarness(t)
	h.deps.Words = fakeWords{word: "cab"}
	g := NewSpellWord(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.Word() != "CAB" || g.Index() != 0 {
		t.Fatalf("expected CAB at index 0, got %q %d", g.Word(), g.Index())
	}

	h.cls.show("X", 0.95)
	h.v.Advance(300 * time.Millisecond)
	if g.Index() != 0 {
		t.Fatalf("a wrong letter must not advance")
	}
	if len(h.rec.feedback) != 1 || h.rec.feedback[0] != model.FeedbackIncorrect {
		t.Fatalf("expected incorrect feedback, got %v", h.rec.feedback)
	}

	for _, letter := range []string{"C", "A", "B"} {
		h.cls.show(letter, 0.95)
		h.v.Advance(300 * time.Millisecond)
	}
	if g.State() != Finished {
		t.Fatalf("expected finished, got %s", g.State())
	}
	res := h.rec.results[0]
	if res.Word != "CAB" || res.Correct != 3 || res.Attempts != 3 || res.Accuracy != 100 {
		t.Fatalf("unexpected result %+v", res)
	}
	// 35 per letter plus 50 perfect and 30 fast.
	if res.Bonus != 80 || res.Score != 185 {
		t.Fatalf("expected score 185 with bonus 80, got %d/%d", res.Score, res.Bonus)
	}
	if len(h.rec.levelUps) != 1 || h.rec.levelUps[0].NewLevel != 2 {
		t.Fatalf("expected one level up to 2, got %+v", h.rec.levelUps)
	}
	if len(h.rec.achievements) != 1 || h.rec.achievements[0] != "perfect" {
		t.Fatalf("expected perfect achievement, got %v", h.rec.achievements)
	}
	if rec := h.load(t); len(rec.LettersCompleted) != 3 {
		t.Fatalf("expected 3 completed letters, got %v", rec.LettersCompleted)
	}
}

func TestSpellWordRepeatedLetterNeedsNewHold(t *testing.T) {
	h := newHarness(t)
	h.deps.Words = fakeWords{word: "EEL"}
	g := NewSpellWord(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.cls.show("E", 0.95)
	h.v.Advance(300 * time.Millisecond)
	if g.Index() != 1 {
		t.Fatalf("expected first E credited, got index %d", g.Index())
	}
	h.v.Advance(300 * time.Millisecond)
	if g.Index() != 1 {
		t.Fatalf("held E must not be credited twice within the hold window")
	}
	h.v.Advance(300 * time.Millisecond)
	if g.Index() != 2 {
		t.Fatalf("expected second E after the hold window, got index %d", g.Index())
	}
}

func TestSpellWordFallsBack(t *testing.T) {
	for name, src := range map[string]wordlist.Source{
		"error":         fakeWords{err: errors.New("offline")},
		"motion letter": fakeWords{word: "JAZZ"},
		"none":          nil,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.deps.Words = src
			g := NewSpellWord(h.deps)
			if err := g.Start(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}
			found := false
			for _, w := range wordlist.Fallback[wordlist.Easy] {
				if w == g.Word() {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected an easy fallback word, got %q", g.Word())
			}
		})
	}
}

func pairIndexes(cards []Card) map[string][]int {
	out := map[string][]int{}
	for i, c := range cards {
		out[c.Letter] = append(out[c.Letter], i)
	}
	return out
}

func TestMemoryMatchConfirmationNeverArrives(t *testing.T) {
	h := newHarness(t)
	g := NewMemoryMatch(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	cards := g.Cards()
	if len(cards) != 12 {
		t.Fatalf("expected 12 cards, got %d", len(cards))
	}
	if h.cam.opens != 0 {
		t.Fatalf("camera must stay closed until a confirmation")
	}
	pairs := pairIndexes(cards)
	letter := cards[0].Letter
	idx := pairs[letter]

	if err := g.Flip(idx[0]); err != nil {
		t.Fatalf("flip: %v", err)
	}
	if err := g.Flip(idx[1]); err != nil {
		t.Fatalf("flip: %v", err)
	}
	h.v.Advance(500 * time.Millisecond)
	if got, ok := g.Confirming(); !ok || got != letter {
		t.Fatalf("expected confirmation of %s, got %q", letter, got)
	}

	h.v.Advance(5 * time.Second)
	cards = g.Cards()
	if cards[idx[0]].Matched || !cards[idx[0]].FaceUp || !cards[idx[1]].FaceUp {
		t.Fatalf("pair must stay face up and unmatched while confirming: %+v %+v", cards[idx[0]], cards[idx[1]])
	}
	if g.Score() != 0 || g.Matched() != 0 {
		t.Fatalf("no points without the gesture")
	}
	if err := g.Flip(idx[0] ^ 1); !errors.Is(err, ErrBusy) && !errors.Is(err, ErrInvalidCard) {
		t.Fatalf("expected flip to be refused while confirming, got %v", err)
	}

	g.CancelConfirmation()
	cards = g.Cards()
	if cards[idx[0]].FaceUp || cards[idx[1]].FaceUp {
		t.Fatalf("cancel must turn the pair back down")
	}
	if _, ok := g.Confirming(); ok {
		t.Fatalf("expected no pending confirmation")
	}
	// Only the elapsed clock remains.
	if h.v.Pending() != 1 {
		t.Fatalf("expected only the clock timer, got %d", h.v.Pending())
	}
	if h.cam.closes != 0 {
		t.Fatalf("cancel keeps the camera for the next confirmation")
	}
}

func TestMemoryMatchFullGame(t *testing.T) {
	h := newHarness(t)
	g := NewMemoryMatch(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	cards := g.Cards()
	pairs := pairIndexes(cards)

	mismatch := -1
	for i, c := range cards {
		if c.Letter != cards[0].Letter {
			mismatch = i
			break
		}
	}
	if err := g.Flip(0); err != nil {
		t.Fatalf("flip: %v", err)
	}
	if err := g.Flip(mismatch); err != nil {
		t.Fatalf("flip: %v", err)
	}
	if err := g.Flip(pairs[cards[0].Letter][1]); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy during reveal, got %v", err)
	}
	h.v.Advance(500 * time.Millisecond)
	if c := g.Cards(); c[0].FaceUp || c[mismatch].FaceUp {
		t.Fatalf("mismatched cards must turn back down")
	}

	for letter, idx := range pairs {
		h.cls.show(letter, 0.95)
		if err := g.Flip(idx[0]); err != nil {
			t.Fatalf("flip %s: %v", letter, err)
		}
		if err := g.Flip(idx[1]); err != nil {
			t.Fatalf("flip %s: %v", letter, err)
		}
		h.v.Advance(500 * time.Millisecond)
	}

	if g.State() != Finished {
		t.Fatalf("expected finished, got %s", g.State())
	}
	res := h.rec.results[0]
	if res.Moves != 7 {
		t.Fatalf("expected 7 moves, got %d", res.Moves)
	}
	if res.Accuracy != scoring.MemoryEfficiency(6, 7) {
		t.Fatalf("expected efficiency accuracy, got %d", res.Accuracy)
	}
	// 6 pairs at 35 points plus 50 for moves and 30 for time.
	if res.Score != 290 || res.Bonus != 80 {
		t.Fatalf("expected 290 with bonus 80, got %d/%d", res.Score, res.Bonus)
	}
	for _, a := range h.rec.achievements {
		if a == "perfect" {
			t.Fatalf("a game with a mismatch is not perfect")
		}
	}
	if h.cam.opens != 1 || h.cam.closes != 1 {
		t.Fatalf("expected camera opened and released once, got %d/%d", h.cam.opens, h.cam.closes)
	}
	if rec := h.load(t); len(rec.LettersCompleted) != 6 || rec.GameScores[model.GameMemoryMatch] != 290 {
		t.Fatalf("unexpected progress %+v", rec)
	}
}

func TestMemoryMatchSingleCameraAcquisitionPerRound(t *testing.T) {
	h := newHarness(t)
	hs := &heldScheduler{Virtual: h.v, held: true}
	h.deps.Scheduler = hs
	g := NewMemoryMatch(h.deps)
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	pairs := pairIndexes(g.Cards())
	var letters []string
	for letter := range pairs {
		letters = append(letters, letter)
	}
	first, second := letters[0], letters[1]

	flipPair := func(letter string) {
		t.Helper()
		for _, i := range pairs[letter] {
			if err := g.Flip(i); err != nil {
				t.Fatalf("flip %s: %v", letter, err)
			}
		}
		h.v.Advance(500 * time.Millisecond)
	}

	flipPair(first)
	g.CancelConfirmation()
	flipPair(second)
	if got, ok := g.Confirming(); !ok || got != second {
		t.Fatalf("expected confirmation of %s, got %q", second, got)
	}
	if len(hs.pending) != 1 {
		t.Fatalf("expected one camera acquisition in flight, got %d", len(hs.pending))
	}

	hs.release()
	h.cls.show(second, 0.95)
	h.v.Advance(time.Second)
	if g.Matched() != 1 {
		t.Fatalf("expected the pending pair confirmed once the camera is ready, got %d", g.Matched())
	}
	if len(h.rec.errs) != 0 {
		t.Fatalf("unexpected errors %v", h.rec.errs)
	}

	g.Restart()
	if h.cam.opens != 1 || h.cam.closes != 1 {
		t.Fatalf("expected camera opened and released once, got %d/%d", h.cam.opens, h.cam.closes)
	}
}
