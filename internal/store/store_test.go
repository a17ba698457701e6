package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/blinktalk/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return s
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestLiveSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.StartSession(ctx, base, 0.22)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	words := []model.Utterance{
		{Mode: model.MorseMode, Text: "HI", SpokenAt: base.Add(10 * time.Second)},
		{Mode: model.PatientMode, Text: "WATER", SpokenAt: base.Add(20 * time.Second)},
	}
	for _, u := range words {
		if err := s.InsertUtterance(ctx, id, u); err != nil {
			t.Fatalf("insert utterance: %v", err)
		}
	}
	if err := s.EndSession(ctx, id, base.Add(time.Minute), 0.18); err != nil {
		t.Fatalf("end session: %v", err)
	}

	sessions, err := s.ListSessions(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.ID != id || got.Utterances != 2 || got.Threshold != 0.18 {
		t.Fatalf("unexpected session %+v", got)
	}
	if !got.StartedAt.Equal(base) || !got.EndedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected session times %+v", got)
	}

	utterances, err := s.ListUtterances(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list utterances: %v", err)
	}
	if len(utterances) != 2 || utterances[0].Text != "HI" || utterances[1].Mode != model.PatientMode {
		t.Fatalf("unexpected utterances %+v", utterances)
	}
}

func TestEndSessionUnknownID(t *testing.T) {
	s := openTestStore(t)
	if err := s.EndSession(context.Background(), 42, base, 0.2); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestInsertSessionAndFilters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for day := 0; day < 3; day++ {
		start := base.AddDate(0, 0, day)
		rec := model.SessionRecord{StartedAt: start, EndedAt: start.Add(time.Minute), Threshold: 0.2}
		utterances := []model.Utterance{
			{Mode: model.PatientMode, Text: "WATER", SpokenAt: start.Add(5 * time.Second)},
			{Mode: model.MorseMode, Text: "HI", SpokenAt: start.Add(15 * time.Second)},
		}
		if day == 2 {
			utterances = append(utterances, model.Utterance{Mode: model.PatientMode, Text: "HELP", SpokenAt: start.Add(25 * time.Second)})
		}
		if _, err := s.InsertSession(ctx, rec, utterances); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	last, err := s.ListSessions(ctx, model.HistoryConfig{Last: 2})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(last) != 2 || !last[0].StartedAt.Equal(base.AddDate(0, 0, 1)) || last[1].Utterances != 3 {
		t.Fatalf("unexpected last sessions %+v", last)
	}

	patient := model.PatientMode
	words, err := s.ListUtterances(ctx, model.HistoryConfig{Mode: &patient})
	if err != nil {
		t.Fatalf("list utterances: %v", err)
	}
	if len(words) != 4 {
		t.Fatalf("expected 4 patient utterances, got %d", len(words))
	}
	for _, w := range words {
		if w.Mode != model.PatientMode {
			t.Fatalf("mode filter leaked %+v", w)
		}
	}

	recent, err := s.ListUtterances(ctx, model.HistoryConfig{Last: 1})
	if err != nil {
		t.Fatalf("list utterances: %v", err)
	}
	if len(recent) != 1 || recent[0].Text != "HELP" {
		t.Fatalf("expected most recent HELP, got %+v", recent)
	}

	since := base.AddDate(0, 0, 2)
	counts, err := s.PhraseCounts(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("phrase counts: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 phrases since day 2, got %+v", counts)
	}

	top, err := s.PhraseCounts(ctx, model.HistoryConfig{Top: 2})
	if err != nil {
		t.Fatalf("phrase counts: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 phrases, got %+v", top)
	}
	if top[0].Text != "HI" || top[0].Count != 3 || top[1].Text != "WATER" || top[1].Count != 3 {
		t.Fatalf("unexpected top phrases %+v", top)
	}
}
