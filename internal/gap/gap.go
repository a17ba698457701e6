// Package gap classifies open-eye pauses since the last blink into letter and
// word boundaries.
package gap

import "time"

// State is the tracker state.
type State int

const (
	// NoPendingInput means nothing was entered since the last word boundary.
	NoPendingInput State = iota
	// AccumulatingSignals means blinks arrived since the last word boundary.
	AccumulatingSignals
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NoPendingInput:
		return "NO_PENDING_INPUT"
	case AccumulatingSignals:
		return "ACCUMULATING_SIGNALS"
	default:
		return "UNKNOWN"
	}
}

// Boundary is the outcome of one gap evaluation.
type Boundary int

const (
	// None means no boundary was crossed.
	None Boundary = iota
	// LetterBoundary closes the pending signal run.
	LetterBoundary
	// WordBoundary closes the pending run and commits the current word.
	WordBoundary
)

// String returns the boundary name.
func (b Boundary) String() string {
	switch b {
	case None:
		return "none"
	case LetterBoundary:
		return "letter"
	case WordBoundary:
		return "word"
	default:
		return "unknown"
	}
}

// Tracker measures elapsed open-eye time since the last blink end.
type Tracker struct {
	letterPause time.Duration
	wordPause   time.Duration

	state        State
	lastBlinkEnd time.Time
}

// NewTracker constructs a tracker with last blink end at now.
func NewTracker(letterPause, wordPause time.Duration, now time.Time) *Tracker {
	return &Tracker{
		letterPause:  letterPause,
		wordPause:    wordPause,
		lastBlinkEnd: now,
	}
}

// Mark records a completed blink.
func (t *Tracker) Mark(end time.Time) {
	t.lastBlinkEnd = end
	t.state = AccumulatingSignals
}

// Rearm resets the last blink end to now so idle time spent elsewhere cannot
// register as a boundary.
func (t *Tracker) Rearm(now time.Time) {
	t.lastBlinkEnd = now
	t.state = NoPendingInput
}

// State returns the current tracker state.
func (t *Tracker) State() State {
	return t.state
}

// Gap returns the time elapsed since the last blink end.
func (t *Tracker) Gap(now time.Time) time.Duration {
	return now.Sub(t.lastBlinkEnd)
}

// Evaluate classifies the current gap. Word gaps are checked before letter
// gaps so a long pause resolves in the same tick. Nothing is evaluated while
// the eye is closed. A word boundary is reported once per quiet period.
func (t *Tracker) Evaluate(now time.Time, eyeOpen, pending bool) Boundary {
	if !eyeOpen {
		return None
	}
	gap := t.Gap(now)
	switch {
	case gap >= t.wordPause:
		if t.state == NoPendingInput && !pending {
			return None
		}
		t.state = NoPendingInput
		return WordBoundary
	case gap >= t.letterPause && pending:
		return LetterBoundary
	default:
		return None
	}
}
