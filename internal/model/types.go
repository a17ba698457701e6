// Package model defines shared data structures.
package model

import "time"

// Mode is the active session mode. Exactly one is active at a time.
type Mode int

const (
	// Calibrating collects openness samples to derive a threshold.
	Calibrating Mode = iota
	// SelectingMode waits for a mode-select command.
	SelectingMode
	// PatientMode decodes short codes into whole phrases.
	PatientMode
	// MorseMode decodes the full character table.
	MorseMode
)

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case Calibrating:
		return "CALIBRATION"
	case SelectingMode:
		return "MODE_SELECTION"
	case PatientMode:
		return "PATIENT_MODE"
	case MorseMode:
		return "MORSE_MODE"
	default:
		return "UNKNOWN"
	}
}

// Active reports whether the mode accepts blink input.
func (m Mode) Active() bool {
	return m == PatientMode || m == MorseMode
}

// ParseMode accepts either the display name or the short CLI name of an active mode.
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "patient", "PATIENT_MODE":
		return PatientMode, true
	case "morse", "MORSE_MODE":
		return MorseMode, true
	default:
		return 0, false
	}
}

// Symbol is one classified blink.
type Symbol byte

const (
	// Dot is a short blink.
	Dot Symbol = '.'
	// Dash is a long blink.
	Dash Symbol = '-'
)

// String returns the signal character for the symbol.
func (s Symbol) String() string {
	return string(rune(s))
}

// OpennessSample is one per-tick eye-openness measurement. Lower means more closed.
type OpennessSample struct {
	Value float64
	At    time.Time
}

// BlinkEvent is emitted once per close-to-open transition above the noise floor.
type BlinkEvent struct {
	Duration time.Duration
	End      time.Time
}

// Command is a discrete external control input.
type Command int

const (
	// SelectPatientMode enters patient mode from the menu.
	SelectPatientMode Command = iota + 1
	// SelectMorseMode enters morse mode from the menu.
	SelectMorseMode
	// ReturnToMenu leaves an active mode.
	ReturnToMenu
	// ForceCalibrate restarts calibration from any mode.
	ForceCalibrate
)

// String returns the trace name of the command.
func (c Command) String() string {
	switch c {
	case SelectPatientMode:
		return "patient"
	case SelectMorseMode:
		return "morse"
	case ReturnToMenu:
		return "menu"
	case ForceCalibrate:
		return "calibrate"
	default:
		return "unknown"
	}
}

// ParseCommand maps a trace/CLI name to a command.
func ParseCommand(name string) (Command, bool) {
	switch name {
	case "patient":
		return SelectPatientMode, true
	case "morse":
		return SelectMorseMode, true
	case "menu":
		return ReturnToMenu, true
	case "calibrate":
		return ForceCalibrate, true
	default:
		return 0, false
	}
}

// Timing defines every tunable duration and threshold bound.
type Timing struct {
	DotDuration       time.Duration
	LetterPause       time.Duration
	WordPause         time.Duration
	Warmup            time.Duration
	CalibrationWindow time.Duration
	NoiseFloor        time.Duration
	DefaultThreshold  float64
	ThresholdMin      float64
	ThresholdMax      float64
}

// DefaultTiming returns the stock timing values.
func DefaultTiming() Timing {
	return Timing{
		DotDuration:       400 * time.Millisecond,
		LetterPause:       time.Second,
		WordPause:         2500 * time.Millisecond,
		Warmup:            500 * time.Millisecond,
		CalibrationWindow: 5 * time.Second,
		NoiseFloor:        50 * time.Millisecond,
		DefaultThreshold:  0.22,
		ThresholdMin:      0.15,
		ThresholdMax:      0.35,
	}
}

// Snapshot is a read-only projection of session state for display.
type Snapshot struct {
	Mode                 Mode
	Threshold            float64
	CalibrationProgress  float64
	CalibrationRemaining time.Duration
	CalibrationFailed    bool
	CurrentSignals       string
	CurrentWord          string
	Sentence             string
	IsBlinking           bool
	Openness             float64
}

// Utterance is one committed word or phrase handed to speech.
type Utterance struct {
	Mode     Mode
	Text     string
	SpokenAt time.Time
}

// SessionRecord captures a stored host session.
type SessionRecord struct {
	ID         int64
	StartedAt  time.Time
	EndedAt    time.Time
	Threshold  float64
	Utterances int
}

// PhraseCount aggregates how often a phrase was spoken.
type PhraseCount struct {
	Mode  Mode
	Text  string
	Count int
}

// HistoryConfig defines filters for history output.
type HistoryConfig struct {
	Mode  *Mode
	Since *time.Time
	Last  int
	Top   int
}
