// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/stats"
	"github.com/verte-zerg/potlog/internal/store"
)

const (
	tabOverview = iota
	tabStats
	tabGroups
	tabSessions
)

const (
	plotHeight      = 10
	defaultPageSize = 50
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#2E9E5B"))
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
)

// sessionColumns maps the number keys to session sort columns.
var sessionColumns = []model.Column{
	model.ColumnDate,
	model.ColumnStakes,
	model.ColumnGame,
	model.ColumnHands,
	model.ColumnResult,
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig
	now   func() time.Time

	report stats.Report
	errMsg string

	groupSort stats.Sorter

	sessions     []model.Session
	sessionTotal int
	sessionPage  int
	sessionOrder model.Column
	sessionDesc  bool

	tabs      []string
	activeTab int
	viewports []viewport.Model
	groups    table.Model
	list      table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
	knownStakes  []string
	knownFormats []string
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	m := &Model{
		store:        st,
		cfg:          cfg,
		now:          now,
		groupSort:    stats.NewSorter(),
		sessionOrder: model.ColumnDate,
		sessionDesc:  true,
		tabs:         []string{"Overview", "Stats", "Groups", "Sessions"},
	}
	m.initInputs()
	m.initViewports()
	m.groups = newTable(groupColumns(0))
	m.list = newTable(sessionTableColumns(0))
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
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.cfg.Range = string(stats.Range(m.cfg.Range).Next())
			m.sessionPage = 0
			m.refreshReport()
			return m, nil
		case "x":
			m.cfg.HoursAxis = !m.cfg.HoursAxis
			m.renderTabContents()
			return m, nil
		case "n":
			if m.activeTab == tabSessions && (m.sessionPage+1)*m.cfg.PageSize < m.sessionTotal {
				m.sessionPage++
				m.loadSessions()
			}
			return m, nil
		case "p":
			if m.activeTab == tabSessions && m.sessionPage > 0 {
				m.sessionPage--
				m.loadSessions()
			}
			return m, nil
		case "1", "2", "3", "4", "5":
			m.sortColumn(int(msg.String()[0] - '1'))
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			m.gotoEdge(true)
			return m, nil
		case "G", "end":
			m.gotoEdge(false)
			return m, nil
		default:
			var cmd tea.Cmd
			switch m.activeTab {
			case tabGroups:
				m.groups, cmd = m.groups.Update(msg)
			case tabSessions:
				m.list, cmd = m.list.Update(msg)
			default:
				m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			}
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
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
		newFilterInput("Stakes: "),
		newFilterInput("Game: "),
		newFilterInput("Result (winning/losing): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Until (YYYY-MM-DD): "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func newTable(cols []table.Column) table.Model {
	t := table.New(table.WithColumns(cols), table.WithHeight(1))
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
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

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
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
	m.groups.SetColumns(groupColumns(m.width))
	m.groups.SetWidth(m.width)
	m.groups.SetHeight(maxInt(1, bodyHeight-2))
	m.list.SetColumns(sessionTableColumns(m.width))
	m.list.SetWidth(m.width)
	// One line is reserved for the page indicator.
	m.list.SetHeight(maxInt(1, bodyHeight-3))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.groups.Blur()
	m.list.Blur()
	switch m.activeTab {
	case tabGroups:
		m.groups.Focus()
	case tabSessions:
		m.list.Focus()
	}
}

func (m *Model) gotoEdge(top bool) {
	switch m.activeTab {
	case tabGroups:
		if top {
			m.groups.GotoTop()
		} else {
			m.groups.GotoBottom()
		}
	case tabSessions:
		if top {
			m.list.GotoTop()
		} else {
			m.list.GotoBottom()
		}
	default:
		if top {
			m.viewports[m.activeTab].GotoTop()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
	}
}

// sortColumn applies the n-th sort key of the current tab. Choosing the
// active key again flips the direction.
func (m *Model) sortColumn(idx int) {
	switch m.activeTab {
	case tabGroups:
		if idx < 0 || idx >= len(stats.SortKeys) {
			return
		}
		m.groupSort.Apply(stats.SortKeys[idx])
		m.groups.SetRows(groupRows(m.sortedGroups()))
	case tabSessions:
		if idx < 0 || idx >= len(sessionColumns) {
			return
		}
		col := sessionColumns[idx]
		if m.sessionOrder == col {
			m.sessionDesc = !m.sessionDesc
		} else {
			m.sessionOrder = col
			m.sessionDesc = false
		}
		m.sessionPage = 0
		m.loadSessions()
	}
}

func (m *Model) sortedGroups() []stats.Group {
	groups := append([]stats.Group(nil), m.report.Groups...)
	m.groupSort.Sort(groups)
	return groups
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg, m.now())
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.groups.SetRows(groupRows(m.sortedGroups()))
	m.loadSessions()
	m.renderTabContents()
}

func (m *Model) loadSessions() {
	ctx := context.Background()
	filter := m.report.Filter
	total, err := m.store.CountSessions(ctx, filter)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	sessions, err := m.store.ListSessions(ctx, model.Query{
		Filter: filter,
		Order:  m.sessionOrder,
		Desc:   m.sessionDesc,
		Limit:  m.cfg.PageSize,
		Offset: m.sessionPage * m.cfg.PageSize,
	})
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.sessionTotal = total
	m.sessions = sessions
	m.list.SetRows(sessionRows(sessions))
	m.list.GotoTop()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.HoursAxis, width))
	m.viewports[tabStats].SetContent(renderStats(m.report, width))
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
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	f := m.cfg.Filter
	summary := fmt.Sprintf("Range: %s  stakes=%s  game=%s  result=%s  since=%s  until=%s",
		stats.Range(m.cfg.Range).Label(),
		orAny(f.Stakes), orAny(f.GameFormat), orAny(string(f.Outcome)),
		formatDate(f.Since), formatDate(f.Until))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Range: r  Axis: x  Filter: /  Quit: q"
	switch m.activeTab {
	case tabGroups:
		help = "Nav: left/right  Sort: 1-5  Range: r  Filter: /  Quit: q"
	case tabSessions:
		help = "Nav: left/right  Sort: 1-5  Page: n/p  Range: r  Filter: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if len(m.knownStakes) > 0 {
		lines = append(lines, headerStyle.Render("Stakes: "+strings.Join(m.knownStakes, ", ")))
	}
	if len(m.knownFormats) > 0 {
		lines = append(lines, headerStyle.Render("Games: "+strings.Join(m.knownFormats, ", ")))
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
	switch m.activeTab {
	case tabGroups:
		if len(m.report.Groups) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		dir := "asc"
		if !m.groupSort.Ascending {
			dir = "desc"
		}
		title := headerStyle.Render(fmt.Sprintf("Sorted by %s (%s)", m.groupSort.Key, dir))
		return fitLines(title+"\n"+tableMutedStyle.Render(m.groups.View()), m.width, height)
	case tabSessions:
		if m.sessionTotal == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		dir := "asc"
		if m.sessionDesc {
			dir = "desc"
		}
		first := m.sessionPage*m.cfg.PageSize + 1
		last := m.sessionPage*m.cfg.PageSize + len(m.sessions)
		title := headerStyle.Render(fmt.Sprintf("Sessions %d-%d of %d, sorted by %s (%s)", first, last, m.sessionTotal, m.sessionOrder, dir))
		return fitLines(title+"\n"+tableMutedStyle.Render(m.list.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func renderOverview(rep stats.Report, hoursAxis bool, width int) string {
	if len(rep.Sessions) == 0 {
		return "No sessions found."
	}
	cards := renderCards(stats.BankrollItems(rep), width)
	var buf bytes.Buffer
	if err := stats.RenderCurve(&buf, rep.Sessions, hoursAxis, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render bankroll curve: %v", err)
	}
	return strings.TrimRight(cards+"\n\n"+buf.String(), "\n")
}

func renderStats(rep stats.Report, width int) string {
	if len(rep.Sessions) == 0 {
		return "No sessions found."
	}
	return renderCards(stats.SummaryItems(rep), width)
}

// renderCards lays metric cards out in rows that fit the width.
func renderCards(items []stats.Item, width int) string {
	cards := make([]string, 0, len(items))
	for _, it := range items {
		cards = append(cards, metricCard(it.Label, it.Value))
	}
	var rows []string
	var row []string
	rowWidth := 0
	for _, card := range cards {
		w := lipgloss.Width(card)
		if len(row) > 0 && rowWidth+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, card)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func groupColumns(width int) []table.Column {
	return scaleColumns(stats.GroupHeaders, []int{14, 10, 12, 8, 8}, width)
}

func sessionTableColumns(width int) []table.Column {
	return scaleColumns(stats.SessionHeaders, []int{16, 14, 9, 11, 6, 10, 8, 9}, width)
}

// scaleColumns widens the first column to use leftover width.
func scaleColumns(titles []string, widths []int, width int) []table.Column {
	cols := make([]table.Column, len(titles))
	used := 0
	for i, title := range titles {
		cols[i] = table.Column{Title: title, Width: widths[i]}
		used += widths[i] + 1
	}
	if extra := width - used; extra > 0 && len(cols) > 0 {
		cols[0].Width += extra
	}
	return cols
}

func groupRows(groups []stats.Group) []table.Row {
	rows := make([]table.Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, table.Row(stats.GroupRow(g)))
	}
	return rows
}

func sessionRows(sessions []model.Session) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, table.Row(stats.SessionRow(s)))
	}
	return rows
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	m.loadKnownValues()
	return m, m.setFilterIndex(0)
}

// loadKnownValues fetches the stored stakes and formats shown as hints in
// the filter form.
func (m *Model) loadKnownValues() {
	ctx := context.Background()
	stakes, err := m.store.DistinctStakes(ctx)
	if err != nil {
		m.filterError = err.Error()
		return
	}
	formats, err := m.store.DistinctFormats(ctx)
	if err != nil {
		m.filterError = err.Error()
		return
	}
	m.knownStakes = nonEmpty(stakes)
	m.knownFormats = nonEmpty(formats)
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.sessionPage = 0
		m.refreshReport()
		m.updateLayout()
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

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	idx = (idx + count) % count
	m.filterIndex = idx
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

func (m *Model) setInputsFromConfig() {
	f := m.cfg.Filter
	m.filterInputs[0].SetValue(f.Stakes)
	m.filterInputs[1].SetValue(f.GameFormat)
	m.filterInputs[2].SetValue(string(f.Outcome))
	m.filterInputs[3].SetValue(dateValue(f.Since))
	m.filterInputs[4].SetValue(dateValue(f.Until))
}

func (m *Model) applyFilter() error {
	outcome, err := ParseOutcome(m.filterInputs[2].Value())
	if err != nil {
		return err
	}
	since, err := parseDate(m.filterInputs[3].Value(), "since")
	if err != nil {
		return err
	}
	until, err := parseDate(m.filterInputs[4].Value(), "until")
	if err != nil {
		return err
	}
	m.cfg.Filter = model.Filter{
		Stakes:     strings.TrimSpace(m.filterInputs[0].Value()),
		GameFormat: strings.TrimSpace(m.filterInputs[1].Value()),
		Outcome:    outcome,
		Since:      since,
		Until:      until,
	}
	return nil
}

// ParseOutcome validates a result filter value.
func ParseOutcome(v string) (model.Outcome, error) {
	switch o := model.Outcome(strings.ToLower(strings.TrimSpace(v))); o {
	case model.OutcomeAll, model.OutcomeWinning, model.OutcomeLosing:
		return o, nil
	default:
		return "", fmt.Errorf("invalid result filter %q (use winning or losing)", v)
	}
}

func parseDate(v, name string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date (expected YYYY-MM-DD)", name)
	}
	return &parsed, nil
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "any"
	}
	return t.Format("2006-01-02")
}

func orAny(v string) string {
	if v == "" {
		return "any"
	}
	return v
}
