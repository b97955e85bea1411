// Package tui provides the Bubble Tea play interface.
package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/signdrill/internal/game"
	"github.com/verte-zerg/signdrill/internal/model"
	statsPkg "github.com/verte-zerg/signdrill/internal/stats"
)

// RunMsg carries a scheduler callback into the Bubble Tea loop. Use it as the
// sink of a sched.Loop: sched.NewLoopWithSink(func(fn func()) { p.Send(tui.RunMsg(fn)) }).
type RunMsg func()

// Round is a playable game.
type Round interface {
	Start(ctx context.Context) error
	Restart()
	State() game.State
}

// History lists finished rounds for the footer.
type History interface {
	ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error)
}

// Model implements the Bubble Tea play UI. It is also the game's Notifier:
// notifications arrive from inside Update, so they mutate the model directly.
type Model struct {
	config  model.Config
	round   Round
	memory  *game.MemoryMatch
	history History
	logger  *log.Logger

	width  int
	height int
	keys   keyMap
	help   help.Model
	bar    progress.Model

	status    model.Status
	target    game.Target
	clock     time.Duration
	cards     []game.Card
	cursor    int
	feedback  model.Feedback
	lastLabel string
	lastGain  int
	score     int
	correct   int
	misses    int
	result    *model.RoundResult
	notices   []string
	err       error

	hasLast bool
	lastLPM float64
	lastAcc float64
	allLPM  float64
	allAcc  float64
	allCorr int
	allMiss int
	allDur  int64
}

var (
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#40A9FF"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	targetStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0")).Padding(1, 4).Border(lipgloss.RoundedBorder())
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	matchedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Faint(true)
)

// NewModel constructs the play UI. build receives the model as Notifier and
// returns the round to drive; history may be nil.
func NewModel(cfg model.Config, build func(game.Notifier) Round, history History, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}
	m := &Model{
		config:  cfg,
		history: history,
		logger:  logger,
		keys:    newKeyMap(cfg.Game),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		status:  model.Status{Type: model.StatusIdle, Message: "Press enter to start"},
	}
	m.round = build(m)
	if mm, ok := m.round.(*game.MemoryMatch); ok {
		m.memory = mm
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RunMsg:
		msg()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(40, max(10, msg.Width/3))
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.round.Restart()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Restart):
		m.round.Restart()
		m.resetView()
		m.status = model.Status{Type: model.StatusIdle, Message: "Press enter to start"}
		return m, nil
	}

	if m.memory != nil && m.round.State() == game.Playing {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.memory.CancelConfirmation()
		case key.Matches(msg, m.keys.Left):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Right):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-boardCols)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(boardCols)
		case key.Matches(msg, m.keys.Flip):
			if err := m.memory.Flip(m.cursor); err != nil {
				m.logger.Printf("flip %d: %v", m.cursor, err)
			}
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Start) && m.round.State() != game.Playing {
		m.resetView()
		if err := m.round.Start(context.Background()); err != nil {
			m.err = err
		}
	}
	return m, nil
}

const boardCols = 4

func (m *Model) moveCursor(delta int) {
	if len(m.cards) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= len(m.cards) {
		return
	}
	m.cursor = next
}

func (m *Model) resetView() {
	m.target = game.Target{}
	m.clock = 0
	m.cards = nil
	m.cursor = 0
	m.feedback = ""
	m.lastLabel = ""
	m.lastGain = 0
	m.score = 0
	m.correct = 0
	m.misses = 0
	m.result = nil
	m.notices = nil
	m.err = nil
}

// Status implements game.Notifier.
func (m *Model) Status(s model.Status) { m.status = s }

// LevelUp implements game.Notifier.
func (m *Model) LevelUp(c model.LevelChange) {
	m.notice(fmt.Sprintf("Level up! %d -> %d", c.PreviousLevel, c.NewLevel))
}

// AchievementUnlocked implements game.Notifier.
func (m *Model) AchievementUnlocked(a model.Achievement) {
	m.notice(fmt.Sprintf("%s %s unlocked", a.Icon, a.Name))
}

// Feedback implements game.Notifier.
func (m *Model) Feedback(kind model.Feedback, label string, points int) {
	m.feedback = kind
	m.lastLabel = label
	m.lastGain = points
	switch kind {
	case model.FeedbackCorrect:
		m.score += points
		m.correct++
	case model.FeedbackIncorrect:
		m.misses++
	}
}

// Tick implements game.Notifier.
func (m *Model) Tick(d time.Duration) { m.clock = d }

// TargetChanged implements game.Notifier.
func (m *Model) TargetChanged(t game.Target) { m.target = t }

// BoardChanged implements game.Notifier.
func (m *Model) BoardChanged(cards []game.Card) { m.cards = cards }

// RoundFinished implements game.Notifier.
func (m *Model) RoundFinished(r model.RoundResult) {
	m.result = &r
	m.status = model.Status{Type: model.StatusIdle, Message: "Round over. Press enter to play again"}
	m.recordFooterStats(r)
}

// Error implements game.Notifier.
func (m *Model) Error(err error) {
	m.err = err
	m.logger.Printf("round error: %v", err)
}

func (m *Model) notice(text string) {
	m.notices = append(m.notices, text)
	if len(m.notices) > 3 {
		m.notices = m.notices[len(m.notices)-3:]
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{m.renderHeader(), m.renderStatus(), "", m.renderBody()}
	if len(m.notices) > 0 {
		sections = append(sections, "", infoStyle.Render(strings.Join(m.notices, "\n")))
	}
	if m.err != nil {
		sections = append(sections, "", errorStyle.Render(m.err.Error()))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	footer := m.renderFooter() + "\n" + m.help.View(m.keys)
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	bodyHeight := m.height - 2
	if bodyHeight < 1 {
		return content
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
}

func (m *Model) renderHeader() string {
	names := map[model.GameType]string{
		model.GameTimeAttack:  "Time Attack",
		model.GameSpellWord:   "Spell the Word",
		model.GameMemoryMatch: "Memory Match",
	}
	return titleStyle.Render(fmt.Sprintf("signdrill · %s · score %d", names[m.config.Game], m.score))
}

func (m *Model) renderStatus() string {
	style := pendingStyle
	switch m.status.Type {
	case model.StatusSuccess:
		style = correctStyle
	case model.StatusWarning:
		style = warningStyle
	case model.StatusInfo:
		style = infoStyle
	case model.StatusError:
		style = errorStyle
	}
	return style.Render(m.status.Message)
}

func (m *Model) renderBody() string {
	if m.result != nil {
		return m.renderResult(*m.result)
	}
	if m.round.State() != game.Playing {
		return pendingStyle.Render("Show each letter to the camera and hold it until it is credited.")
	}
	switch m.config.Game {
	case model.GameSpellWord:
		return m.renderSpell()
	case model.GameMemoryMatch:
		return m.renderMemory()
	default:
		return m.renderTimeAttack()
	}
}

func (m *Model) renderFeedback() string {
	switch m.feedback {
	case model.FeedbackCorrect:
		return correctStyle.Render(fmt.Sprintf("✓ %s +%d", m.lastLabel, m.lastGain))
	case model.FeedbackIncorrect:
		if m.lastLabel == "" {
			return errorStyle.Render("✗ try again")
		}
		return errorStyle.Render(fmt.Sprintf("✗ %s, try again", m.lastLabel))
	case model.FeedbackWaiting:
		return warningStyle.Render(fmt.Sprintf("Sign %s to confirm the pair (c cancels)", m.lastLabel))
	default:
		return ""
	}
}

func (m *Model) renderTimeAttack() string {
	limit := m.config.TimeLimit
	if limit <= 0 {
		limit = game.DefaultTimeLimit
	}
	ratio := float64(m.clock) / float64(limit)
	lines := []string{
		targetStyle.Render(orDash(m.target.Letter)),
		m.bar.ViewAs(ratio) + fmt.Sprintf(" %ds", int(m.clock/time.Second)),
		fmt.Sprintf("correct %d · misses %d", m.correct, m.misses),
		m.renderFeedback(),
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderSpell() string {
	width := m.width * 7 / 10
	word := wrapStyledRunes(buildWordRunes(m.target.Word, m.target.Index), width)
	lines := []string{
		word,
		"",
		targetStyle.Render(orDash(m.target.Letter)),
		m.renderFeedback(),
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderMemory() string {
	views := make([]cardView, len(m.cards))
	for i, c := range m.cards {
		v := cardView{text: "[?]", style: pendingStyle}
		switch {
		case c.Matched:
			v = cardView{text: "[" + c.Letter + "]", style: matchedStyle}
		case c.FaceUp:
			v = cardView{text: "[" + c.Letter + "]", style: cursorStyle}
		}
		if i == m.cursor {
			v.style = v.style.Inherit(selectedStyle)
		}
		views[i] = v
	}
	lines := []string{
		renderBoard(views, boardCols),
		"",
		fmt.Sprintf("time %s · pairs %d", m.clock.Truncate(time.Second), m.correct),
		m.renderFeedback(),
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderResult(r model.RoundResult) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Score %d (bonus %d)", r.Score, r.Bonus)),
		fmt.Sprintf("accuracy %d%% · correct %d of %d", r.Accuracy, r.Correct, r.Attempts),
		fmt.Sprintf("time %s", r.Duration.Truncate(time.Second)),
	}
	switch r.GameType {
	case model.GameTimeAttack:
		lpm, _ := statsPkg.RoundMetrics(r.Correct, r.Attempts-r.Correct, r.Duration.Milliseconds())
		lines = append(lines, fmt.Sprintf("best streak %d · %.1f letters/min", r.BestStreak, lpm))
	case model.GameSpellWord:
		lines = append(lines, "word "+r.Word)
	case model.GameMemoryMatch:
		lines = append(lines, fmt.Sprintf("moves %d", r.Moves))
	}
	if r.NewRecord {
		lines = append(lines, correctStyle.Render("New record!"))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (m *Model) loadFooterStats() {
	if m.history == nil {
		return
	}
	rounds, err := m.history.ListRounds(context.Background(), model.StatsConfig{Game: m.config.Game})
	if err != nil {
		m.logger.Printf("failed to load round stats: %v", err)
		return
	}
	if len(rounds) == 0 {
		return
	}
	last := rounds[len(rounds)-1]
	m.lastLPM, m.lastAcc = statsPkg.RoundMetrics(last.Correct, last.Incorrect, last.DurationMs)
	m.hasLast = true
	for _, r := range rounds {
		m.allCorr += r.Correct
		m.allMiss += r.Incorrect
		m.allDur += r.DurationMs
	}
	m.allLPM, m.allAcc = statsPkg.RoundMetrics(m.allCorr, m.allMiss, m.allDur)
}

func (m *Model) recordFooterStats(r model.RoundResult) {
	miss := r.Attempts - r.Correct
	dur := r.Duration.Milliseconds()
	m.lastLPM, m.lastAcc = statsPkg.RoundMetrics(r.Correct, miss, dur)
	m.hasLast = true
	m.allCorr += r.Correct
	m.allMiss += miss
	m.allDur += dur
	m.allLPM, m.allAcc = statsPkg.RoundMetrics(m.allCorr, m.allMiss, m.allDur)
}

func (m *Model) renderFooter() string {
	var segments []string
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f LPM · %.1f%%", m.lastLPM, m.lastAcc*100))
	}
	segments = append(segments, fmt.Sprintf("All-time %.1f LPM · %.1f%%", m.allLPM, m.allAcc*100))
	return footerStyle.Render(strings.Join(segments, "  "))
}

type keyMap struct {
	Start   key.Binding
	Restart key.Binding
	Quit    key.Binding
	Flip    key.Binding
	Cancel  key.Binding
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	memory  bool
}

func newKeyMap(g model.GameType) keyMap {
	return keyMap{
		Start:   key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter", "start")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Flip:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "flip")),
		Cancel:  key.NewBinding(key.WithKeys("c", "esc"), key.WithHelp("c", "cancel pair")),
		Left:    key.NewBinding(key.WithKeys("left", "h")),
		Right:   key.NewBinding(key.WithKeys("right", "l")),
		Up:      key.NewBinding(key.WithKeys("up", "k")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		memory:  g == model.GameMemoryMatch,
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	if k.memory {
		return []key.Binding{k.Start, k.Flip, k.Cancel, k.Restart, k.Quit}
	}
	return []key.Binding{k.Start, k.Restart, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
