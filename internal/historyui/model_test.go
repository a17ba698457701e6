package historyui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	start := time.Unix(0, 0)
	rec := model.SessionRecord{StartedAt: start, EndedAt: start.Add(time.Minute), Threshold: 0.2}
	utterances := []model.Utterance{
		{Mode: model.MorseMode, Text: "HI", SpokenAt: start.Add(10 * time.Second)},
		{Mode: model.PatientMode, Text: "WATER", SpokenAt: start.Add(20 * time.Second)},
	}
	if _, err := st.InsertSession(context.Background(), rec, utterances); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	return st
}

func TestModeFilterCycles(t *testing.T) {
	m := NewModel(seededStore(t), model.HistoryConfig{}, 3)
	if len(m.report.Phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(m.report.Phrases))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	if m.cfg.Mode == nil || *m.cfg.Mode != model.PatientMode {
		t.Fatalf("expected patient filter, got %v", m.cfg.Mode)
	}
	if len(m.report.Phrases) != 1 || m.report.Phrases[0].Text != "WATER" {
		t.Fatalf("unexpected phrases %+v", m.report.Phrases)
	}
}

func TestViewRendersTabs(t *testing.T) {
	m := NewModel(seededStore(t), model.HistoryConfig{}, 3)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.View()
	for _, want := range []string{"Overview", "Phrases", "Transcript", "Sessions: 1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view", want)
		}
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabPhrases || !strings.Contains(m.View(), "WATER") {
		t.Fatalf("expected phrases tab with WATER")
	}
}
