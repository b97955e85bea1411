// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/signdrill/internal/achievement"
	"github.com/verte-zerg/signdrill/internal/model"
	"github.com/verte-zerg/signdrill/internal/scoring"
	"github.com/verte-zerg/signdrill/internal/stats"
	"github.com/verte-zerg/signdrill/internal/store"
)

const (
	tabOverview = iota
	tabLetterTable
	tabLetterCurves
	tabProgress
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	unlockedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Profile gives the stats UI access to the persisted progress. A nil
// Profile hides the Progress tab.
type Profile struct {
	Ledger       *scoring.Ledger
	Achievements *achievement.Engine
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store   *store.Store
	profile *Profile
	cfg     model.StatsConfig

	report  stats.Report
	errMsg  string
	profErr string
	status  scoring.Status
	catalog []model.Achievement
	reached []achievement.Progress
	summary achievement.Stats

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	letterTable table.Model
	tableLayout tableLayout

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	letterInputMode bool
	letterInput     textinput.Model
}

type tableLayout struct {
	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig, profile *Profile) *Model {
	m := &Model{
		store:   st,
		profile: profile,
		cfg:     cfg,
		tabs:    []string{"Overview", "Letter Table", "Letter Curves"},
	}
	if profile != nil {
		m.tabs = append(m.tabs, "Progress")
	}
	m.initInputs()
	m.letterInput = newFilterInput("Letters: ")
	m.letterInput.Placeholder = "AEST"
	m.letterTable = table.New(table.WithColumns(letterColumns()))
	m.letterTable.SetStyles(letterTableStyles())
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (msg.String() == "q" && !m.filterMode && !m.letterInputMode) {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.letterInputMode {
			return m.updateLetterInput(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabLetterCurves {
				return m.startLetterInput()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabLetterTable {
				m.letterTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabLetterTable {
				m.letterTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabLetterTable {
			m.letterTable, cmd = m.letterTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.letterInputMode {
		return fitLines(m.renderLetterModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Game: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.filterInputs[0].Placeholder = "time, spell or memory"
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(string(m.cfg.Game))
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.setLetterTableSize(m.width, bodyHeight)
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
	m.letterInput.Width = max(10, modalInnerWidth(m.width)-lipgloss.Width(m.letterInput.Prompt))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabLetterTable {
		m.letterTable.Focus()
	} else {
		m.letterTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	game := string(m.cfg.Game)
	if game == "" {
		game = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: game=%s  since=%s  last=%s  window=%d", game, since, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q"
	if m.activeTab == tabLetterCurves {
		help = "Nav: left/right  Edit letters: enter  Window: -/=  Settings: /  Quit: q"
	}
	help = headerStyle.Render(help)
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	if games := sortedGames(m.report.Rounds); len(games) > 0 {
		lines = append(lines, headerStyle.Render("Played: "+strings.Join(games, ", ")))
	}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabLetterTable {
		switch {
		case len(m.report.Rounds) == 0:
			return fitLines("No rounds found.", m.width, height)
		case len(m.report.LetterAggsAll) == 0:
			return fitLines("No letter stats found.", m.width, height)
		default:
			return fitLines(tableMutedStyle.Render(m.letterTable.View()), m.width, height)
		}
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
	} else {
		m.errMsg = ""
		m.report = report
	}
	m.refreshProfile(ctx)
	m.letterTable.SetRows(letterRows(m.report.LetterAggsAll))
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) refreshProfile(ctx context.Context) {
	if m.profile == nil {
		return
	}
	m.profErr = ""
	status, err := m.profile.Ledger.Status(ctx)
	if err != nil {
		m.profErr = err.Error()
		return
	}
	catalog, reached, err := m.profile.Achievements.All(ctx)
	if err != nil {
		m.profErr = err.Error()
		return
	}
	summary, err := m.profile.Achievements.Statistics(ctx)
	if err != nil {
		m.profErr = err.Error()
		return
	}
	m.status, m.catalog, m.reached, m.summary = status, catalog, reached, summary
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Rounds, m.cfg.CurveWindow, width))
	m.viewports[tabLetterCurves].SetContent(renderLetterCurves(m.report, m.cfg.CurveWindow))
	if m.profile != nil {
		m.viewports[tabProgress].SetContent(m.renderProgress(width))
	}
}

func renderOverview(rounds []model.RoundAggregate, window, width int) string {
	if len(rounds) == 0 {
		return "No rounds found."
	}
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, rounds); err != nil {
		return fmt.Sprintf("Failed to render summary: %v", err)
	}
	if err := stats.RenderCurves(&buf, rounds, window); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(renderSummaryCards(rounds, width)+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(rounds []model.RoundAggregate, width int) string {
	var totalLPM, totalAcc float64
	best := 0
	for _, r := range rounds {
		lpm, acc := stats.RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		totalLPM += lpm
		totalAcc += acc
		best = max(best, r.Score)
	}
	count := float64(len(rounds))
	cards := []string{
		metricCard("Rounds", strconv.Itoa(len(rounds))),
		metricCard("Best Score", strconv.Itoa(best)),
		metricCard("Avg LPM", fmt.Sprintf("%.1f", totalLPM/count)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", totalAcc/count*100)),
	}
	if width < 60 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func renderLetterCurves(report stats.Report, window int) string {
	if len(report.Rounds) == 0 {
		return "No rounds found."
	}
	if len(report.CurveLetters) == 0 {
		return "No letters selected. Press Enter to choose letters."
	}
	var buf bytes.Buffer
	if err := stats.RenderLetterCurves(&buf, report.Rounds, report.PerRoundForLetter, report.CurveLetters, window); err != nil {
		return fmt.Sprintf("Failed to render letter curves: %v", err)
	}
	header := headerStyle.Render("Letters: " + strings.Join(report.CurveLetters, ", "))
	return strings.TrimRight(header+"\n"+buf.String(), "\n")
}

func (m *Model) renderProgress(width int) string {
	if m.profErr != "" {
		return "Failed to load progress: " + m.profErr
	}
	cards := []string{
		metricCard("Level", strconv.Itoa(m.status.Level)),
		metricCard("Points", strconv.Itoa(m.status.Points)),
		metricCard("To Next", strconv.Itoa(m.status.PointsToNextLevel)),
		metricCard("Achievements", fmt.Sprintf("%d/%d", m.summary.Unlocked, m.summary.Total)),
	}
	head := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if width < 60 {
		head = strings.Join(cards, "\n")
	}
	lines := []string{head, ""}
	for i, a := range m.catalog {
		p := m.reached[i]
		mark := "[ ]"
		line := fmt.Sprintf("%s %-20s %-42s %d/%d", mark, a.Name, a.Description, min(p.Current, p.Required), p.Required)
		if p.Unlocked {
			line = unlockedStyle.Render(strings.Replace(line, "[ ]", "[x]", 1))
		}
		lines = append(lines, truncateLine(line, width))
	}
	return strings.Join(lines, "\n")
}

func letterColumns() []table.Column {
	return []table.Column{
		{Title: "Letter", Width: 6},
		{Title: "Accuracy", Width: 9},
		{Title: "Avg Latency (ms)", Width: 17},
		{Title: "Correct", Width: 7},
		{Title: "Incorrect", Width: 9},
		{Title: "Total", Width: 6},
	}
}

// letterRows orders the weakest letters first.
func letterRows(aggs []model.LetterAggregate) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, r := range stats.LetterRows(aggs) {
		rows = append(rows, table.Row{
			r.Letter,
			fmt.Sprintf("%.2f%%", r.Accuracy*100),
			fmt.Sprintf("%.1f", r.LatencyMs),
			strconv.Itoa(r.Correct),
			strconv.Itoa(r.Incorrect),
			strconv.Itoa(r.Correct + r.Incorrect),
		})
	}
	return rows
}

func letterTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) setLetterTableSize(width, height int) {
	if m.tableLayout.width == width && m.tableLayout.height == height {
		return
	}
	m.tableLayout.width = width
	m.tableLayout.height = height
	m.letterTable.SetWidth(width)
	// The header and its border take two lines.
	m.letterTable.SetHeight(max(1, height-2))
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) startLetterInput() (tea.Model, tea.Cmd) {
	m.letterInputMode = true
	m.letterInput.SetValue(strings.Join(m.report.CurveLetters, ""))
	return m, m.letterInput.Focus()
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) updateLetterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.letterInputMode = false
		return m, nil
	case tea.KeyEnter:
		m.cfg.Letters = strings.Join(splitLetters(m.letterInput.Value()), ",")
		m.letterInputMode = false
		m.refreshReport()
		return m, nil
	}
	var cmd tea.Cmd
	m.letterInput, cmd = m.letterInput.Update(msg)
	if normalized := normalizeLetterInput(m.letterInput.Value()); normalized != m.letterInput.Value() {
		m.letterInput.SetValue(normalized)
	}
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) parseFilter() (model.StatsConfig, error) {
	cfg := m.cfg
	cfg.Game = ""
	if raw := strings.TrimSpace(m.filterInputs[0].Value()); raw != "" {
		game, err := model.ParseGameType(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Game = game
	}

	cfg.Since = nil
	if raw := strings.TrimSpace(m.filterInputs[1].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}

	cfg.Last = 0
	if raw := strings.TrimSpace(m.filterInputs[2].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = parsed
	}

	if raw := strings.TrimSpace(m.filterInputs[3].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return cfg, fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		cfg.CurveWindow = parsed
	}
	return cfg, nil
}

func (m *Model) renderLetterModal() string {
	body := []string{
		cardValueStyle.Render("Select Letters"),
		m.letterInput.View(),
		headerStyle.Render("Type letters without separators. Empty picks the most practiced."),
		headerStyle.Render("Enter to apply / Esc to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func splitLetters(input string) []string {
	out := make([]string, 0, len(input))
	for _, r := range normalizeLetterInput(input) {
		out = append(out, string(r))
	}
	return out
}

func normalizeLetterInput(input string) string {
	var b strings.Builder
	seen := map[rune]bool{}
	for _, r := range strings.ToUpper(input) {
		if r < 'A' || r > 'Z' || seen[r] {
			continue
		}
		seen[r] = true
		b.WriteRune(r)
	}
	return b.String()
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

func modalInnerWidth(width int) int {
	// 2 border + 4 padding
	return max(10, modalWidth(width)-6)
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// sortedGames lists the games present in rounds, for the filter hint.
func sortedGames(rounds []model.RoundAggregate) []string {
	seen := map[model.GameType]bool{}
	var out []string
	for _, r := range rounds {
		if !seen[r.GameType] {
			seen[r.GameType] = true
			out = append(out, string(r.GameType))
		}
	}
	sort.Strings(out)
	return out
}
