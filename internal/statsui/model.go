// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/drumrate/internal/chartdb"
	"github.com/verte-zerg/drumrate/internal/model"
	"github.com/verte-zerg/drumrate/internal/recommend"
	"github.com/verte-zerg/drumrate/internal/stats"
	"github.com/verte-zerg/drumrate/internal/store"
)

const (
	tabOverview = iota
	tabTop
	tabRecommend
)

const (
	plotHeight     = 10
	minTitleColumn = 12
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#D9534F"))
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
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	upStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	downStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Config holds the settings the UI starts with.
type Config struct {
	Report    model.ReportConfig
	History   model.HistoryConfig
	Dimension model.Dimension
	Recommend recommend.Options
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store  *store.Store
	charts *chartdb.Database
	groups []model.DuplicateGroup
	cfg    Config

	report  stats.Report
	history []model.Snapshot
	recs    []recommend.Recommendation
	errMsg  string
	status  string

	tabs      []string
	activeTab int
	overview  viewport.Model
	topTable  table.Model
	recTable  table.Model
	dimIndex  int

	width  int
	height int

	settingsMode   bool
	settingsInputs []textinput.Model
	settingsIndex  int
	settingsError  string
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, charts *chartdb.Database, groups []model.DuplicateGroup, cfg Config) *Model {
	m := &Model{
		store:    st,
		charts:   charts,
		groups:   groups,
		cfg:      cfg,
		tabs:     []string{"Overview", "Top", "Recommend"},
		overview: viewport.New(0, 0),
		topTable: newTable(),
		recTable: newTable(),
	}
	for i, d := range model.AllDimensions {
		if d == cfg.Dimension {
			m.dimIndex = i
		}
	}
	m.settingsInputs = []textinput.Model{
		newInput("Limit: "),
		newInput("Difficulty adjust: "),
		newInput("Constant base (empty = auto): "),
		newInput("Curve window: "),
	}
	m.refresh()
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
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.settingsMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.settingsMode {
			return m.updateSettings(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "[":
		m.moveDimension(-1)
		return m, nil
	case "]":
		m.moveDimension(1)
		return m, nil
	case "a":
		if m.cfg.Report.Algorithm == model.AlgorithmComprehensive {
			m.cfg.Report.Algorithm = model.AlgorithmGreatOnly
		} else {
			m.cfg.Report.Algorithm = model.AlgorithmComprehensive
		}
		m.refresh()
		return m, nil
	case "c":
		m.cfg.Report.OnlyCN = !m.cfg.Report.OnlyCN
		m.refresh()
		return m, nil
	case "b":
		if m.activeTab == tabRecommend {
			m.toggleBlacklist()
		}
		return m, nil
	case "/":
		return m.startSettings()
	case "g", "home":
		m.gotoEdge(true)
		return m, nil
	case "G", "end":
		m.gotoEdge(false)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabTop:
		m.topTable, cmd = m.topTable.Update(msg)
	case tabRecommend:
		m.recTable, cmd = m.recTable.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) dimension() model.Dimension {
	return model.AllDimensions[m.dimIndex]
}

func (m *Model) refresh() {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, m.store, m.charts, m.groups, m.cfg.Report)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	history, err := m.store.ListSnapshots(ctx, m.cfg.History)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load history.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.history = history
	m.recompute()
}

func (m *Model) recompute() {
	opts := m.cfg.Recommend
	opts.DuplicateGroups = m.groups
	opts.PreferCN = m.cfg.Report.OnlyCN
	blacklist := m.report.Blacklist
	opts.Filter = func(c model.Chart) bool {
		_, blocked := blacklist[c.Key()]
		return !blocked
	}
	m.recs = recommend.New(m.report.Charts).Recommend(m.report.Stats, m.dimension(), opts)
	m.renderContents()
}

func (m *Model) toggleBlacklist() {
	idx := m.recTable.Cursor()
	if idx < 0 || idx >= len(m.recs) {
		return
	}
	rec := m.recs[idx]
	on, err := m.store.ToggleBlacklist(context.Background(), rec.Chart.Key(), time.Now())
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	verb := "removed from"
	if on {
		verb = "added to"
	}
	m.refresh()
	m.status = fmt.Sprintf("%s %s blacklist", rec.Stats.Title, verb)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.topTable.Blur()
	m.recTable.Blur()
	switch m.activeTab {
	case tabTop:
		m.topTable.Focus()
	case tabRecommend:
		m.recTable.Focus()
	}
}

func (m *Model) moveDimension(delta int) {
	count := len(model.AllDimensions)
	m.dimIndex = (m.dimIndex + delta + count) % count
	m.topTable.GotoTop()
	m.recTable.GotoTop()
	m.recompute()
}

func (m *Model) gotoEdge(top bool) {
	switch m.activeTab {
	case tabTop:
		if top {
			m.topTable.GotoTop()
		} else {
			m.topTable.GotoBottom()
		}
	case tabRecommend:
		if top {
			m.recTable.GotoTop()
		} else {
			m.recTable.GotoBottom()
		}
	default:
		if top {
			m.overview.GotoTop()
		} else {
			m.overview.GotoBottom()
		}
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.status != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for _, t := range []*table.Model{&m.topTable, &m.recTable} {
		t.SetWidth(m.width)
		t.SetHeight(max(bodyHeight-1, 1))
	}
	for i := range m.settingsInputs {
		m.settingsInputs[i].Width = max(10, m.width-lipgloss.Width(m.settingsInputs[i].Prompt)-2)
	}
	m.renderContents()
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m *Model) renderContents() {
	width := m.contentWidth()
	dim := m.dimension()
	m.overview.SetContent(renderOverview(m.report, m.history, m.cfg.History.Window, width))

	cols, rows := topTableData(m.report.Top[dim], dim, width)
	setTableData(&m.topTable, cols, rows)
	cols, rows = recommendTableData(m.recs, dim, width)
	setTableData(&m.recTable, cols, rows)
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)

	cn := "off"
	if m.cfg.Report.OnlyCN {
		cn = "on"
	}
	algo := m.cfg.Report.Algorithm
	if algo == "" {
		algo = model.AlgorithmGreatOnly
	}
	summary := fmt.Sprintf("Dimension: %s  Algorithm: %s  CN only: %s  Limit: %d  Adjust: %+.1f",
		m.dimension().Label(), algo, cn, m.recLimit(), m.cfg.Recommend.DifficultyAdjustment)
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) recLimit() int {
	if m.cfg.Recommend.Limit > 0 {
		return m.cfg.Recommend.Limit
	}
	return recommend.DefaultLimit
}

func (m *Model) renderBody() string {
	if m.settingsMode {
		return m.renderSettingsForm()
	}
	switch m.activeTab {
	case tabTop:
		if len(m.report.Stats) == 0 {
			return "No rated charts. Import scores with `drumrate import`."
		}
		return mutedStyle.Render(m.topTable.View())
	case tabRecommend:
		if len(m.recs) == 0 {
			return "No recommendations for this dimension."
		}
		return mutedStyle.Render(m.recTable.View())
	default:
		return m.overview.View()
	}
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Dimension: [/]  Algorithm: a  CN: c  Settings: /  Quit: q"
	switch {
	case m.settingsMode:
		help = "tab/shift+tab: next field  enter: apply  esc: cancel"
	case m.activeTab == tabRecommend:
		help = "Nav: left/right  Dimension: [/]  Blacklist: b  Settings: /  Quit: q"
	}
	lines := []string{headerStyle.Render(help)}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	} else if m.status != "" {
		lines = append(lines, cardTitleStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func renderOverview(r stats.Report, history []model.Snapshot, window, width int) string {
	if r.Snapshot == nil {
		return "No imports found. Run `drumrate import` first."
	}
	diff := ""
	if r.HasLast {
		d := r.RatingDiff()
		switch {
		case d > 0:
			diff = upStyle.Render(fmt.Sprintf(" %+.2f", d))
		case d < 0:
			diff = downStyle.Render(fmt.Sprintf(" %+.2f", d))
		}
	}
	cards := []string{
		metricCard("Rating", fmt.Sprintf("%.2f", r.Summary.Overall)+diff),
		metricCard("Rated", fmt.Sprintf("%d", r.Summary.Rated)),
		metricCard("Imported", r.Snapshot.ImportedAt.Local().Format("2006-01-02 15:04")),
	}
	if r.Locked > 0 {
		cards = append(cards, metricCard("Locked", fmt.Sprintf("%d", r.Locked)))
	}
	var radar []string
	for _, d := range model.AllDimensions {
		if d == model.DimRating {
			continue
		}
		radar = append(radar, metricCard(d.Label(), fmt.Sprintf("%.2f", r.Summary.Radar.Get(d))))
	}

	var sections []string
	if width < 80 {
		sections = append(sections, strings.Join(cards, "\n"), strings.Join(radar, "\n"))
	} else {
		sections = append(sections,
			lipgloss.JoinHorizontal(lipgloss.Top, cards...),
			lipgloss.JoinHorizontal(lipgloss.Top, radar...))
	}
	if len(history) > 1 {
		var buf bytes.Buffer
		ratings := make([]float64, len(history))
		for i, s := range history {
			ratings[i] = stats.HistoryPoint(s)
		}
		series := []stats.Series{{Name: "Rating", Values: ratings}}
		if window > 1 {
			series = append(series, stats.Series{Name: fmt.Sprintf("Avg(%d)", window), Values: stats.MovingAverage(ratings, window)})
		}
		if err := stats.PlotSeriesWithColor(&buf, "Rating History", series, stats.PlotWidthFor(width), plotHeight, true); err != nil {
			sections = append(sections, fmt.Sprintf("Failed to render history: %v", err))
		} else {
			sections = append(sections, strings.TrimRight(buf.String(), "\n"))
		}
	}
	return strings.Join(sections, "\n\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func newTable() table.Model {
	t := table.New(table.WithHeight(1))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func setTableData(t *table.Model, cols []table.Column, rows []table.Row) {
	// Rows must be cleared first so they never outnumber the new columns.
	t.SetRows(nil)
	t.SetColumns(cols)
	t.SetRows(rows)
	if t.Cursor() >= len(rows) {
		t.SetCursor(max(len(rows)-1, 0))
	}
}

// withTitleColumn fills the space left by the fixed columns with the title column.
func withTitleColumn(fixed []table.Column, titleAt, width int) []table.Column {
	used := 0
	for _, c := range fixed {
		used += c.Width + 1
	}
	title := table.Column{Title: "Title", Width: max(width-used-2, minTitleColumn)}
	cols := make([]table.Column, 0, len(fixed)+1)
	cols = append(cols, fixed[:titleAt]...)
	cols = append(cols, title)
	return append(cols, fixed[titleAt:]...)
}

func topTableData(entries []stats.TopEntry, dim model.Dimension, width int) ([]table.Column, []table.Row) {
	cols := withTitleColumn([]table.Column{
		{Title: "#", Width: 3},
		{Title: "Const", Width: 5},
		{Title: dim.Label(), Width: max(runewidth.StringWidth(dim.Label()), 6)},
		{Title: "Max", Width: 6},
		{Title: "Great", Width: 5},
		{Title: "Good", Width: 4},
		{Title: "Bad", Width: 4},
		{Title: "Diff", Width: 6},
	}, 1, width)
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		diff := ""
		switch {
		case e.IsNew:
			diff = "new"
		case e.RatingDiff >= 0.005 || e.RatingDiff <= -0.005:
			diff = fmt.Sprintf("%+.2f", e.RatingDiff)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			e.Title,
			fmt.Sprintf("%.1f", e.Constant),
			fmt.Sprintf("%.2f", dim.Of(e.SongStats)),
			fmt.Sprintf("%.2f", e.Ceiling.Get(dim)),
			strconv.Itoa(e.Great),
			strconv.Itoa(e.Good),
			strconv.Itoa(e.Bad),
			diff,
		})
	}
	return cols, rows
}

func recommendTableData(recs []recommend.Recommendation, dim model.Dimension, width int) ([]table.Column, []table.Row) {
	cols := withTitleColumn([]table.Column{
		{Title: "#", Width: 3},
		{Title: "Const", Width: 5},
		{Title: "Now", Width: 6},
		{Title: "Max", Width: 6},
		{Title: "Room", Width: 5},
		{Title: "Status", Width: 8},
	}, 1, width)
	rows := make([]table.Row, 0, len(recs))
	for i, rec := range recs {
		status := "played"
		if rec.Unplayed {
			status = "new"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			rec.Stats.Title,
			fmt.Sprintf("%.1f", rec.Chart.Data.Constant),
			fmt.Sprintf("%.2f", dim.Of(rec.Stats)),
			fmt.Sprintf("%.2f", rec.Ceiling),
			fmt.Sprintf("%.0f%%", rec.Potential*100),
			status,
		})
	}
	return cols, rows
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) startSettings() (tea.Model, tea.Cmd) {
	m.settingsMode = true
	m.settingsError = ""
	m.settingsInputs[0].SetValue(strconv.Itoa(m.recLimit()))
	m.settingsInputs[1].SetValue(strconv.FormatFloat(m.cfg.Recommend.DifficultyAdjustment, 'f', -1, 64))
	base := ""
	if m.cfg.Recommend.ConstantBase != nil {
		base = strconv.FormatFloat(*m.cfg.Recommend.ConstantBase, 'f', -1, 64)
	}
	m.settingsInputs[2].SetValue(base)
	m.settingsInputs[3].SetValue(strconv.Itoa(max(m.cfg.History.Window, 1)))
	return m, m.focusSetting(0)
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.settingsMode = false
		return m, nil
	case tea.KeyEnter:
		if err := m.applySettings(); err != nil {
			m.settingsError = err.Error()
			return m, nil
		}
		m.settingsMode = false
		m.settingsError = ""
		m.recompute()
		return m, nil
	case tea.KeyTab:
		return m, m.focusSetting(m.settingsIndex + 1)
	case tea.KeyShiftTab:
		return m, m.focusSetting(m.settingsIndex - 1)
	}
	var cmd tea.Cmd
	m.settingsInputs[m.settingsIndex], cmd = m.settingsInputs[m.settingsIndex].Update(msg)
	return m, cmd
}

func (m *Model) focusSetting(idx int) tea.Cmd {
	count := len(m.settingsInputs)
	m.settingsIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.settingsInputs {
		if i == m.settingsIndex {
			cmd = m.settingsInputs[i].Focus()
		} else {
			m.settingsInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applySettings() error {
	value := func(i int) string { return strings.TrimSpace(m.settingsInputs[i].Value()) }

	limit, err := strconv.Atoi(value(0))
	if err != nil || limit <= 0 {
		return fmt.Errorf("invalid limit (use integer > 0)")
	}
	adjust := 0.0
	if v := value(1); v != "" {
		adjust, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid difficulty adjust")
		}
	}
	var base *float64
	if v := value(2); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("invalid constant base")
		}
		base = &parsed
	}
	window, err := strconv.Atoi(value(3))
	if err != nil || window < 1 {
		return fmt.Errorf("invalid curve window (use integer >= 1)")
	}

	m.cfg.Recommend.Limit = limit
	m.cfg.Recommend.DifficultyAdjustment = adjust
	m.cfg.Recommend.ConstantBase = base
	m.cfg.History.Window = window
	return nil
}

func (m *Model) renderSettingsForm() string {
	lines := []string{"Recommendation settings (enter to apply, esc to cancel)"}
	for _, input := range m.settingsInputs {
		lines = append(lines, input.View())
	}
	if m.settingsError != "" {
		lines = append(lines, errorStyle.Render(m.settingsError))
	}
	return strings.Join(lines, "\n")
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
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
