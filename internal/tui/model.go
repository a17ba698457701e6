// Package tui provides the Bubble Tea blink interface. The keyboard stands in
// for the eye: space toggles between closed and open.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/blinktalk/internal/decoder"
	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/session"
	"github.com/verte-zerg/blinktalk/internal/store"
)

const (
	tickInterval = time.Second / 30
	spokenKept   = 8
	openValue    = 0.30
	closedValue  = 0.05
)

type tickMsg time.Time

// Options configures the model.
type Options struct {
	Input *session.Input
	// Store is optional; nil disables history.
	Store      *store.Store
	Vocabulary []decoder.Entry
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Model implements the Bubble Tea blink UI.
type Model struct {
	in         *session.Input
	store      *store.Store
	sessionID  int64
	vocabulary []decoder.Entry
	log        zerolog.Logger
	now        func() time.Time

	keys     keyMap
	help     help.Model
	progress progress.Model

	width  int
	height int

	eyeClosed bool
	spoken    []string
	status    string
	snap      model.Snapshot
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	sentenceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	signalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	closedStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4D4F"))
	openStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the UI and opens a history session when a store is set.
func NewModel(opts Options) (*Model, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Model{
		in:         opts.Input,
		store:      opts.Store,
		vocabulary: opts.Vocabulary,
		log:        opts.Logger,
		now:        opts.Now,
		keys:       defaultKeyMap(),
		help:       help.New(),
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	now := m.now()
	if m.store != nil {
		id, err := m.store.StartSession(context.Background(), now, m.in.Session().Threshold())
		if err != nil {
			return nil, fmt.Errorf("failed to start history session: %w", err)
		}
		m.sessionID = id
	}
	m.snap = m.in.Session().Snapshot(now)
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/2)
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.sample(m.now())
		return m, tick()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.finish()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Blink):
			m.eyeClosed = !m.eyeClosed
		case key.Matches(msg, m.keys.Patient):
			m.command(model.SelectPatientMode)
		case key.Matches(msg, m.keys.Morse):
			m.command(model.SelectMorseMode)
		case key.Matches(msg, m.keys.Menu):
			m.command(model.ReturnToMenu)
		case key.Matches(msg, m.keys.Calibrate):
			m.command(model.ForceCalibrate)
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) openness() float64 {
	if m.eyeClosed {
		return closedValue
	}
	return openValue
}

func (m *Model) sample(now time.Time) {
	out := m.in.Sample(model.OpennessSample{Value: m.openness(), At: now})
	if out.CalibrationDone {
		m.status = ""
		if out.CalibrationErr != nil {
			m.status = "Calibration failed; using previous threshold."
		}
	}
	for _, u := range out.Committed {
		m.record(u)
	}
	m.snap = m.in.Session().Snapshot(now)
}

func (m *Model) record(u model.Utterance) {
	m.spoken = append(m.spoken, u.Text)
	if len(m.spoken) > spokenKept {
		m.spoken = m.spoken[len(m.spoken)-spokenKept:]
	}
	if m.store == nil {
		return
	}
	if err := m.store.InsertUtterance(context.Background(), m.sessionID, u); err != nil {
		m.log.Error().Err(err).Str("text", u.Text).Msg("history_insert_failed")
	}
}

func (m *Model) command(cmd model.Command) {
	now := m.now()
	if !m.in.Command(cmd, now) {
		m.status = fmt.Sprintf("%s is not available in %s", cmd, m.in.Session().Mode())
		return
	}
	m.status = ""
	m.eyeClosed = false
	m.snap = m.in.Session().Snapshot(now)
}

func (m *Model) finish() {
	if m.store == nil {
		return
	}
	if err := m.store.EndSession(context.Background(), m.sessionID, m.now(), m.in.Session().Threshold()); err != nil {
		m.log.Error().Err(err).Msg("history_end_failed")
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	contentWidth := m.width * 7 / 10
	if contentWidth < 1 {
		contentWidth = 60
	}
	body := strings.Join(m.bodyLines(contentWidth), "\n\n")
	content := lipgloss.NewStyle().Width(contentWidth).Render(body)
	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	bodyHeight := m.height - 2
	placed := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLines := lipgloss.Place(m.width, 2, lipgloss.Center, lipgloss.Bottom, footer)
	return placed + "\n" + footerLines
}

func (m *Model) bodyLines(width int) []string {
	snap := m.snap
	lines := []string{titleStyle.Render("BLINKTALK  " + snap.Mode.String())}
	switch snap.Mode {
	case model.Calibrating:
		lines = append(lines,
			"Keep your eyes open while calibrating.",
			m.progress.ViewAs(snap.CalibrationProgress),
			fmt.Sprintf("%.1fs remaining", snap.CalibrationRemaining.Seconds()),
		)
	case model.SelectingMode:
		lines = append(lines, "Select mode:  [p] patient   [m] morse")
		if snap.CalibrationFailed {
			lines = append(lines, closedStyle.Render("No usable samples; keeping previous threshold."))
		}
	default:
		lines = append(lines, m.eyeLine())
		transcript := composeTranscript(snap.Sentence, snap.CurrentWord, snap.CurrentSignals)
		if len(transcript) > 0 {
			lines = append(lines, wrapStyledRunes(transcript, width))
		}
		if snap.Mode == model.PatientMode {
			lines = append(lines, m.vocabularyLine())
		}
	}
	if len(m.spoken) > 0 {
		lines = append(lines, signalStyle.Render("Spoken: "+strings.Join(m.spoken, " · ")))
	}
	if m.status != "" {
		lines = append(lines, closedStyle.Render(m.status))
	}
	return lines
}

func (m *Model) eyeLine() string {
	if m.snap.IsBlinking {
		return closedStyle.Render("EYE CLOSED")
	}
	return openStyle.Render("eye open")
}

func (m *Model) vocabularyLine() string {
	parts := make([]string, 0, len(m.vocabulary))
	for _, e := range m.vocabulary {
		parts = append(parts, fmt.Sprintf("%s %s", e.Code, e.Unit))
	}
	return signalStyle.Render(strings.Join(parts, "   "))
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Threshold %.3f", m.snap.Threshold),
		fmt.Sprintf("Openness %.2f", m.snap.Openness),
	}
	if m.store != nil {
		segments = append(segments, fmt.Sprintf("Session #%d", m.sessionID))
	}
	status := footerStyle.Render(strings.Join(segments, "  "))
	return status + "\n" + m.help.View(m.keys)
}
