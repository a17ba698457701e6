// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/stats"
	"github.com/verte-zerg/blinktalk/internal/store"
)

const (
	tabOverview = iota
	tabPhrases
	tabTranscript
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
)

// modeFilters is the cycle order of the mode filter; nil means any mode.
var modeFilters = []*model.Mode{nil, ptr(model.PatientMode), ptr(model.MorseMode)}

func ptr(m model.Mode) *model.Mode { return &m }

// Model implements the Bubble Tea history UI.
type Model struct {
	store  *store.Store
	cfg    model.HistoryConfig
	window int

	report stats.Report
	errMsg string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	phrases    table.Model
	modeFilter int

	width  int
	height int
}

// NewModel constructs a history UI model.
func NewModel(st *store.Store, cfg model.HistoryConfig, window int) *Model {
	m := &Model{
		store:  st,
		cfg:    cfg,
		window: window,
		tabs:   []string{"Overview", "Phrases", "Transcript"},
	}
	for i, f := range modeFilters {
		if f != nil && cfg.Mode != nil && *f == *cfg.Mode {
			m.modeFilter = i
		}
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.phrases = table.New(
		table.WithColumns(phraseColumns()),
		table.WithStyles(phraseTableStyles()),
	)
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
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "m":
			m.modeFilter = (m.modeFilter + 1) % len(modeFilters)
			m.cfg.Mode = modeFilters[m.modeFilter]
			m.refreshReport()
			return m, nil
		}
		if m.activeTab == tabPhrases {
			var cmd tea.Cmd
			m.phrases, cmd = m.phrases.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
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
	header := m.renderTabs() + "\n" + headerStyle.Render(m.filterSummary())
	footer := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Mode: m  Quit: q")
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	bodyHeight := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	return strings.Join([]string{header, fitLines(m.renderBody(), m.width, bodyHeight), footer}, "\n")
}

func (m *Model) renderBody() string {
	if m.activeTab == tabPhrases {
		if len(m.report.Phrases) == 0 {
			return "No utterances found."
		}
		return m.phrases.View()
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) filterSummary() string {
	mode := "any"
	if m.cfg.Mode != nil {
		mode = m.cfg.Mode.String()
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	return fmt.Sprintf("Filter: mode=%s  since=%s  last=%d  window=%d", mode, since, m.cfg.Last, m.window)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		style := inactiveNavStyle
		if i == m.activeTab {
			style = activeNavStyle
		}
		parts = append(parts, style.Render(tab))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabPhrases {
		m.phrases.Focus()
	} else {
		m.phrases.Blur()
	}
}

func (m *Model) updateLayout() {
	bodyHeight := max(1, m.height-6)
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.phrases.SetWidth(m.width)
	m.phrases.SetHeight(bodyHeight)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load history.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.phrases.SetRows(phraseRows(report.Phrases))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(render(func(b *bytes.Buffer) error {
		if err := stats.RenderSummary(b, m.report.Sessions); err != nil {
			return err
		}
		return stats.RenderTrends(b, m.report.Sessions, m.window, width)
	}))
	m.viewports[tabTranscript].SetContent(render(func(b *bytes.Buffer) error {
		return stats.RenderTranscript(b, m.report.Utterances)
	}))
}

func render(fn func(*bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func phraseColumns() []table.Column {
	return []table.Column{
		{Title: "Text", Width: 24},
		{Title: "Mode", Width: 14},
		{Title: "Count", Width: 6},
	}
}

func phraseRows(counts []model.PhraseCount) []table.Row {
	rows := make([]table.Row, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, table.Row{c.Text, c.Mode.String(), fmt.Sprintf("%d", c.Count)})
	}
	return rows
}

func phraseTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
