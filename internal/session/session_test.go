package session

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/blinktalk/internal/calibration"
	"github.com/verte-zerg/blinktalk/internal/model"
)

type recordingSpeaker struct {
	spoken []string
}

func (r *recordingSpeaker) Speak(text string) {
	r.spoken = append(r.spoken, text)
}

var base = time.Unix(1000, 0)

func at(sec float64) time.Time {
	return base.Add(time.Duration(sec * float64(time.Second)))
}

func newTestSession(t *testing.T, announce bool) (*Session, *recordingSpeaker) {
	t.Helper()
	sp := &recordingSpeaker{}
	s, err := New(Options{
		Timing:   model.DefaultTiming(),
		Announce: announce,
		Speaker:  sp,
		Logger:   zerolog.Nop(),
	}, at(0))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, sp
}

// calibrate closes the window at 5s with resting-open samples.
func calibrate(t *testing.T, s *Session) {
	t.Helper()
	for _, sec := range []float64{1, 2, 3, 4} {
		s.Step(Tick{Now: at(sec), Openness: 0.30})
	}
	out := s.Step(Tick{Now: at(5), Openness: 0.31})
	if !out.CalibrationDone || out.CalibrationErr != nil {
		t.Fatalf("expected successful calibration, got %+v", out)
	}
	if s.Mode() != model.SelectingMode {
		t.Fatalf("expected mode selection, got %v", s.Mode())
	}
}

func enter(t *testing.T, s *Session, cmd model.Command, sec float64) {
	t.Helper()
	if !s.Handle(cmd, at(sec)) {
		t.Fatalf("command %v rejected in %v", cmd, s.Mode())
	}
}

func blinkAt(s *Session, endSec float64, d time.Duration) Output {
	return s.Step(Tick{Now: at(endSec), Openness: 0.3, Blink: &model.BlinkEvent{Duration: d, End: at(endSec)}})
}

func idle(s *Session, sec float64) Output {
	return s.Step(Tick{Now: at(sec), Openness: 0.3})
}

func committedTexts(outs ...Output) []string {
	var texts []string
	for _, o := range outs {
		for _, u := range o.Committed {
			texts = append(texts, u.Text)
		}
	}
	return texts
}

const dot = 100 * time.Millisecond
const dash = 600 * time.Millisecond

func TestMorseHI(t *testing.T) {
	s, sp := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)

	var outs []Output
	for _, sec := range []float64{6.0, 6.3, 6.6, 6.9} {
		outs = append(outs, blinkAt(s, sec, dot))
	}
	outs = append(outs, idle(s, 7.95))
	if snap := s.Snapshot(at(7.95)); snap.CurrentWord != "H" || snap.CurrentSignals != "" {
		t.Fatalf("expected H after letter gap, got %+v", snap)
	}
	outs = append(outs, blinkAt(s, 8.2, dot), blinkAt(s, 8.5, dot))
	outs = append(outs, idle(s, 9.6))
	outs = append(outs, idle(s, 11.1))
	outs = append(outs, idle(s, 12.0), idle(s, 14.0))

	if got := committedTexts(outs...); !reflect.DeepEqual(got, []string{"HI"}) {
		t.Fatalf("expected single HI commit, got %v", got)
	}
	if !reflect.DeepEqual(sp.spoken, []string{"HI"}) {
		t.Fatalf("expected HI spoken once, got %v", sp.spoken)
	}
	snap := s.Snapshot(at(14))
	if snap.Sentence != "HI" || snap.CurrentWord != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestMorseWordGapResolvesPendingRunDirectly(t *testing.T) {
	s, sp := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	blinkAt(s, 6.0, dot)
	blinkAt(s, 6.3, dash)
	// first evaluation after the pause already exceeds the word gap
	out := idle(s, 9.0)
	if got := committedTexts(out); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("expected A committed in one tick, got %v", got)
	}
	if !reflect.DeepEqual(sp.spoken, []string{"A"}) {
		t.Fatalf("unexpected speech %v", sp.spoken)
	}
}

func TestMorseUnknownSequenceCommitsPlaceholder(t *testing.T) {
	s, _ := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	for i := 0; i < 7; i++ {
		blinkAt(s, 6.0+float64(i)*0.2, dot)
	}
	out := idle(s, 10)
	if got := committedTexts(out); !reflect.DeepEqual(got, []string{"*"}) {
		t.Fatalf("expected placeholder word, got %v", got)
	}
}

func TestPatientWater(t *testing.T) {
	s, sp := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectPatientMode, 5)
	blinkAt(s, 6.0, dot)
	blinkAt(s, 6.3, dot)

	idle(s, 7.5)
	snap := s.Snapshot(at(7.5))
	if snap.CurrentSignals != ".." || snap.CurrentWord != "" {
		t.Fatalf("expected run held until word gap, got %+v", snap)
	}
	out := idle(s, 8.9)
	if got := committedTexts(out); !reflect.DeepEqual(got, []string{"WATER"}) {
		t.Fatalf("expected WATER, got %v", got)
	}
	if out.Committed[0].Mode != model.PatientMode {
		t.Fatalf("expected patient utterance, got %v", out.Committed[0].Mode)
	}
	if !reflect.DeepEqual(sp.spoken, []string{"WATER"}) {
		t.Fatalf("unexpected speech %v", sp.spoken)
	}
}

func TestPatientUnknownCodeSpeaksNothing(t *testing.T) {
	s, sp := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectPatientMode, 5)
	for _, sec := range []float64{6.0, 6.3, 6.6, 6.9} {
		blinkAt(s, sec, dot)
	}
	outs := []Output{idle(s, 8), idle(s, 9.5), idle(s, 12)}
	if got := committedTexts(outs...); len(got) != 0 {
		t.Fatalf("expected no commit, got %v", got)
	}
	if len(sp.spoken) != 0 {
		t.Fatalf("expected nothing spoken, got %v", sp.spoken)
	}
	snap := s.Snapshot(at(12))
	if snap.CurrentWord != "" || snap.Sentence != "" || snap.CurrentSignals != "" {
		t.Fatalf("expected empty decode state, got %+v", snap)
	}
}

func TestWarmupDropsBlinks(t *testing.T) {
	s, _ := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	blinkAt(s, 5.3, dot)
	if snap := s.Snapshot(at(5.3)); snap.CurrentSignals != "" {
		t.Fatalf("expected blink dropped during warm-up, got %q", snap.CurrentSignals)
	}
	blinkAt(s, 5.6, dot)
	if snap := s.Snapshot(at(5.6)); snap.CurrentSignals != "." {
		t.Fatalf("expected blink accepted after warm-up, got %q", snap.CurrentSignals)
	}
}

func TestWarmupRearmedOnEveryModeEntry(t *testing.T) {
	s, _ := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	enter(t, s, model.ReturnToMenu, 7)
	enter(t, s, model.SelectPatientMode, 7.1)
	blinkAt(s, 7.4, dot)
	if snap := s.Snapshot(at(7.4)); snap.CurrentSignals != "" {
		t.Fatalf("expected blink dropped, got %q", snap.CurrentSignals)
	}
}

func TestModeSwitchDiscardsPendingRun(t *testing.T) {
	s, sp := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	blinkAt(s, 6.0, dot)
	blinkAt(s, 6.3, dot)
	enter(t, s, model.ReturnToMenu, 6.5)
	if snap := s.Snapshot(at(6.5)); snap.CurrentSignals != "" || snap.Mode != model.SelectingMode {
		t.Fatalf("expected cleared state in menu, got %+v", snap)
	}
	enter(t, s, model.SelectPatientMode, 7)
	blinkAt(s, 8.0, dash)
	out := idle(s, 11)
	if got := committedTexts(out); !reflect.DeepEqual(got, []string{"NO"}) {
		t.Fatalf("expected NO from fresh state, got %v", got)
	}
	if !reflect.DeepEqual(sp.spoken, []string{"NO"}) {
		t.Fatalf("unexpected speech %v", sp.spoken)
	}
}

func TestNoWordCommitMidBlink(t *testing.T) {
	s, _ := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	var outs []Output
	outs = append(outs, blinkAt(s, 6.0, dot))
	outs = append(outs, idle(s, 7.1))
	for _, sec := range []float64{7.2, 8.5, 9.5, 10.4} {
		outs = append(outs, s.Step(Tick{Now: at(sec), Openness: 0.05, Closed: true}))
	}
	if got := committedTexts(outs...); len(got) != 0 {
		t.Fatalf("expected no commit mid-blink, got %v", got)
	}
	outs = append(outs, blinkAt(s, 10.5, 3300*time.Millisecond))
	outs = append(outs, idle(s, 11.6), idle(s, 13.1))
	if got := committedTexts(outs...); !reflect.DeepEqual(got, []string{"ET"}) {
		t.Fatalf("expected ET, got %v", got)
	}
}

func TestRearmOnEnteringActiveMode(t *testing.T) {
	s, _ := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 60)
	out := idle(s, 60.1)
	if len(out.Committed) != 0 {
		t.Fatalf("unexpected commit %v", out.Committed)
	}
	if got := s.tracker.Gap(at(60.1)); got > time.Second {
		t.Fatalf("expected gap measured from mode entry, got %v", got)
	}
}

func TestForceCalibrateFromActiveMode(t *testing.T) {
	s, _ := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	blinkAt(s, 6.0, dot)
	enter(t, s, model.ForceCalibrate, 6.2)
	snap := s.Snapshot(at(6.2))
	if snap.Mode != model.Calibrating || snap.CurrentSignals != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if blinkAt(s, 7, dot).CalibrationDone {
		t.Fatalf("calibration ended early")
	}
	out := idle(s, 11.5)
	if !out.CalibrationDone || s.Mode() != model.SelectingMode {
		t.Fatalf("expected recalibration to finish, got %+v in %v", out, s.Mode())
	}
}

func TestCalibrationFailureRetainsDefault(t *testing.T) {
	s, _ := newTestSession(t, false)
	s.Step(Tick{Now: at(1), Openness: 0})
	out := s.Step(Tick{Now: at(5), Openness: 0})
	if !out.CalibrationDone || !errors.Is(out.CalibrationErr, calibration.ErrNoUsableSamples) {
		t.Fatalf("expected calibration failure, got %+v", out)
	}
	snap := s.Snapshot(at(5))
	if !snap.CalibrationFailed || snap.Threshold != 0.22 || snap.Mode != model.SelectingMode {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestCommandsRejectedOutOfState(t *testing.T) {
	s, _ := newTestSession(t, false)
	if s.Handle(model.SelectMorseMode, at(1)) {
		t.Fatalf("select accepted while calibrating")
	}
	if s.Handle(model.ReturnToMenu, at(1)) {
		t.Fatalf("menu accepted while calibrating")
	}
	calibrate(t, s)
	if s.Handle(model.ReturnToMenu, at(6)) {
		t.Fatalf("menu accepted in menu")
	}
	enter(t, s, model.SelectPatientMode, 6)
	if s.Handle(model.SelectMorseMode, at(7)) {
		t.Fatalf("select accepted in active mode")
	}
}

func TestBlinksIgnoredInMenu(t *testing.T) {
	s, sp := newTestSession(t, false)
	calibrate(t, s)
	blinkAt(s, 6, dot)
	out := idle(s, 10)
	if len(out.Committed) != 0 || len(sp.spoken) != 0 {
		t.Fatalf("expected menu to ignore blinks")
	}
}

func TestAnnouncePrompts(t *testing.T) {
	s, sp := newTestSession(t, true)
	calibrate(t, s)
	enter(t, s, model.SelectPatientMode, 5)
	blinkAt(s, 6, dot)
	idle(s, 9)
	enter(t, s, model.ReturnToMenu, 10)
	want := []string{PromptWelcome, PromptCalibrationDone, PromptPatient, "YES", PromptMenu}
	if !reflect.DeepEqual(sp.spoken, want) {
		t.Fatalf("expected %v, got %v", want, sp.spoken)
	}
}

func TestSnapshotIsSideEffectFree(t *testing.T) {
	s, _ := newTestSession(t, false)
	calibrate(t, s)
	enter(t, s, model.SelectMorseMode, 5)
	blinkAt(s, 6, dot)
	first := s.Snapshot(at(20))
	second := s.Snapshot(at(20))
	if first != second || first.CurrentSignals != "." {
		t.Fatalf("snapshot changed state: %+v vs %+v", first, second)
	}
}

func TestInputDrivesDetector(t *testing.T) {
	s, sp := newTestSession(t, false)
	in := NewInput(s)
	for sec := 0.0; sec <= 5.0; sec += 0.5 {
		in.Sample(model.OpennessSample{Value: 0.30, At: at(sec)})
	}
	if s.Mode() != model.SelectingMode {
		t.Fatalf("expected calibration finished, got %v", s.Mode())
	}
	if !in.Command(model.SelectMorseMode, at(5.1)) {
		t.Fatalf("select rejected")
	}
	// one short blink: closed 6.0..6.2
	in.Sample(model.OpennessSample{Value: 0.32, At: at(5.9)})
	in.Sample(model.OpennessSample{Value: 0.05, At: at(6.0)})
	in.Sample(model.OpennessSample{Value: 0.32, At: at(6.2)})
	in.Sample(model.OpennessSample{Value: 0.32, At: at(9.0)})
	if !reflect.DeepEqual(sp.spoken, []string{"E"}) {
		t.Fatalf("expected E, got %v", sp.spoken)
	}
}
