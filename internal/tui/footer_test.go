package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/session"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestModel(t *testing.T) (*Model, *clock) {
	t.Helper()
	c := &clock{t: time.Unix(3000, 0)}
	sess, err := session.New(session.Options{Timing: model.DefaultTiming(), Logger: zerolog.Nop()}, c.now())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	m, err := NewModel(Options{Input: session.NewInput(sess), Logger: zerolog.Nop(), Now: c.now})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m, c
}

// run samples the current eye state every 10ms for d.
func run(m *Model, c *clock, d time.Duration) {
	for end := c.t.Add(d); c.t.Before(end); {
		c.advance(10 * time.Millisecond)
		m.sample(c.now())
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m, _ := newTestModel(t)
	m.snap.Threshold = 0.184
	m.snap.Openness = 0.3
	out := m.renderFooter()
	if !containsAll(out, []string{"Threshold 0.184", "Openness 0.30", "space", "quit"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
	if strings.Contains(out, "Session #") {
		t.Fatalf("expected no session segment without a store")
	}
}

func TestKeyboardBlinksSpellWord(t *testing.T) {
	m, c := newTestModel(t)
	run(m, c, 5100*time.Millisecond)
	if m.snap.Mode != model.SelectingMode {
		t.Fatalf("expected mode selection after calibration, got %v", m.snap.Mode)
	}
	m.command(model.SelectMorseMode)
	run(m, c, 600*time.Millisecond)

	// "E" is a single dot, "T" a single dash.
	blinkFor := func(d time.Duration) {
		m.eyeClosed = true
		run(m, c, d)
		m.eyeClosed = false
	}
	blinkFor(200 * time.Millisecond)
	run(m, c, 1200*time.Millisecond)
	blinkFor(700 * time.Millisecond)
	run(m, c, 3*time.Second)

	if len(m.spoken) != 1 || m.spoken[0] != "ET" {
		t.Fatalf("expected ET spoken, got %v", m.spoken)
	}
	if m.snap.Sentence != "ET" {
		t.Fatalf("expected sentence ET, got %q", m.snap.Sentence)
	}
}

func TestRejectedCommandSetsStatus(t *testing.T) {
	m, _ := newTestModel(t)
	m.command(model.SelectMorseMode)
	if !strings.Contains(m.status, "not available") {
		t.Fatalf("expected rejection status, got %q", m.status)
	}
	if !strings.Contains(m.View(), "CALIBRATION") {
		t.Fatalf("expected calibration view")
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
