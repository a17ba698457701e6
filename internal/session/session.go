// Package session owns the active mode and drives the per-tick decode pipeline.
package session

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/blinktalk/internal/blink"
	"github.com/verte-zerg/blinktalk/internal/calibration"
	"github.com/verte-zerg/blinktalk/internal/decoder"
	"github.com/verte-zerg/blinktalk/internal/gap"
	"github.com/verte-zerg/blinktalk/internal/model"
)

// Prompts spoken on transitions when announcements are enabled.
const (
	PromptWelcome         = "Welcome. Starting calibration."
	PromptCalibrate       = "Starting calibration."
	PromptCalibrationDone = "Calibration done. Select mode."
	PromptPatient         = "Patient mode active."
	PromptMorse           = "Morse mode active."
	PromptMenu            = "Select mode."
)

// Speaker receives text for speech. Implementations must not block.
type Speaker interface {
	Speak(text string)
}

// Options configures a session.
type Options struct {
	Timing     model.Timing
	Vocabulary map[string]string
	// Announce speaks transition prompts in addition to committed words.
	Announce bool
	Speaker  Speaker
	Logger   zerolog.Logger
}

// Tick is one iteration of the host polling loop.
type Tick struct {
	Now      time.Time
	Openness float64
	// Blink is the event completed on this tick, if any.
	Blink *model.BlinkEvent
	// Closed reports a blink in progress.
	Closed bool
}

// Output reports what a tick produced.
type Output struct {
	Committed       []model.Utterance
	CalibrationDone bool
	// CalibrationErr is non-nil when the window closed without usable samples.
	CalibrationErr error
}

// Session is the explicit state of one running session. It is not safe for
// concurrent use; the host calls it from a single loop.
type Session struct {
	timing   model.Timing
	announce bool
	speaker  Speaker
	log      zerolog.Logger

	cal     *calibration.Calibrator
	dec     *decoder.Decoder
	tracker *gap.Tracker

	mode        model.Mode
	switchedAt  time.Time
	warmupArmed bool
	blinking    bool
	openness    float64
}

// New constructs a session in Calibrating with the window opened at now.
func New(opts Options, now time.Time) (*Session, error) {
	vocab, err := decoder.NewVocabulary(opts.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("failed to build vocabulary: %w", err)
	}
	s := &Session{
		timing:   opts.Timing,
		announce: opts.Announce,
		speaker:  opts.Speaker,
		log:      opts.Logger,
		cal:      calibration.New(opts.Timing, opts.Logger),
		dec:      decoder.New(decoder.NewCharacterTable(), vocab),
		tracker:  gap.NewTracker(opts.Timing.LetterPause, opts.Timing.WordPause, now),
		mode:     model.Calibrating,
	}
	s.cal.Start(now)
	s.prompt(PromptWelcome)
	return s, nil
}

// Mode returns the active mode.
func (s *Session) Mode() model.Mode {
	return s.mode
}

// Threshold returns the closed-eye threshold in effect.
func (s *Session) Threshold() float64 {
	return s.cal.Threshold()
}

// Step runs one tick: calibration, warm-up filter, classification, gap
// evaluation and decoding, in that order.
func (s *Session) Step(t Tick) Output {
	var out Output
	s.blinking = t.Closed
	s.openness = t.Openness

	if s.mode == model.Calibrating {
		done, err := s.cal.Update(t.Now, t.Openness)
		if done {
			out.CalibrationDone = true
			out.CalibrationErr = err
			s.transition(model.SelectingMode, t.Now)
			s.prompt(PromptCalibrationDone)
		}
		return out
	}
	if !s.mode.Active() {
		return out
	}

	if t.Blink != nil {
		if s.inWarmup(t.Now) {
			s.log.Debug().Dur("duration", t.Blink.Duration).Msg("blink_dropped_warmup")
		} else {
			sym := blink.Classify(t.Blink.Duration, s.timing.DotDuration)
			s.dec.AddSignal(sym)
			s.tracker.Mark(t.Blink.End)
		}
	}

	pending := s.dec.Signals() != ""
	switch s.tracker.Evaluate(t.Now, !t.Closed, pending) {
	case gap.WordBoundary:
		if pending {
			s.resolve()
		}
		if word, ok := s.dec.CompleteWord(); ok {
			u := model.Utterance{Mode: s.mode, Text: word, SpokenAt: t.Now}
			out.Committed = append(out.Committed, u)
			s.log.Info().Str("mode", s.mode.String()).Str("text", word).Msg("word_committed")
			s.speak(word)
		}
	case gap.LetterBoundary:
		if s.dec.ResolvesLetters() {
			s.resolve()
		}
	}
	return out
}

func (s *Session) resolve() {
	signals := s.dec.Signals()
	unit, ok := s.dec.ResolvePending()
	if !ok {
		s.log.Info().Str("signals", signals).Msg("unknown_short_code")
		return
	}
	if unit == string(decoder.UnknownRune) {
		s.log.Info().Str("signals", signals).Msg("unknown_sequence")
	}
}

// Handle applies an external command. It reports whether the command was
// accepted in the current mode.
func (s *Session) Handle(cmd model.Command, now time.Time) bool {
	switch cmd {
	case model.SelectPatientMode, model.SelectMorseMode:
		if s.mode != model.SelectingMode {
			return false
		}
		next, prompt := model.PatientMode, PromptPatient
		if cmd == model.SelectMorseMode {
			next, prompt = model.MorseMode, PromptMorse
		}
		s.transition(next, now)
		s.prompt(prompt)
		return true
	case model.ReturnToMenu:
		if !s.mode.Active() {
			return false
		}
		s.transition(model.SelectingMode, now)
		s.prompt(PromptMenu)
		return true
	case model.ForceCalibrate:
		s.transition(model.Calibrating, now)
		s.cal.Start(now)
		s.prompt(PromptCalibrate)
		return true
	default:
		return false
	}
}

// transition swaps the decoder strategy, discards in-flight decode state,
// arms the warm-up window and rearms the gap timer.
func (s *Session) transition(next model.Mode, now time.Time) {
	s.log.Info().Str("from", s.mode.String()).Str("to", next.String()).Msg("mode_change")
	s.mode = next
	s.dec.SetMode(next)
	s.switchedAt = now
	s.warmupArmed = true
	s.tracker.Rearm(now)
}

func (s *Session) inWarmup(now time.Time) bool {
	if !s.warmupArmed {
		return false
	}
	if now.Sub(s.switchedAt) < s.timing.Warmup {
		return true
	}
	s.warmupArmed = false
	return false
}

func (s *Session) speak(text string) {
	if s.speaker != nil {
		s.speaker.Speak(text)
	}
}

func (s *Session) prompt(text string) {
	if s.announce {
		s.speak(text)
	}
}

// Snapshot returns a read-only projection of the session for display. It has
// no side effects.
func (s *Session) Snapshot(now time.Time) model.Snapshot {
	disp := s.dec.Display()
	return model.Snapshot{
		Mode:                 s.mode,
		Threshold:            s.cal.Threshold(),
		CalibrationProgress:  s.cal.Progress(now),
		CalibrationRemaining: s.cal.Remaining(now),
		CalibrationFailed:    s.cal.Failed(),
		CurrentSignals:       disp.Signals,
		CurrentWord:          disp.CurrentWord,
		Sentence:             disp.Sentence,
		IsBlinking:           s.blinking,
		Openness:             s.openness,
	}
}
