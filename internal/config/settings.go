package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// ErrInvalidTiming is returned by Validate for inconsistent timing settings.
var ErrInvalidTiming = errors.New("invalid timing")

// Settings is the resolved configuration: defaults, then file, then
// environment, then flags.
type Settings struct {
	Timing     TimingSettings
	Vocabulary map[string]string
	Speech     SpeechSettings
	History    bool `env:"BLINKTALK_HISTORY"`
	Debug      bool `env:"BLINKTALK_DEBUG"`
}

// TimingSettings carries model.Timing with environment bindings.
type TimingSettings struct {
	DotDuration       time.Duration `env:"BLINKTALK_DOT_DURATION"`
	LetterPause       time.Duration `env:"BLINKTALK_LETTER_PAUSE"`
	WordPause         time.Duration `env:"BLINKTALK_WORD_PAUSE"`
	Warmup            time.Duration `env:"BLINKTALK_WARMUP"`
	CalibrationWindow time.Duration `env:"BLINKTALK_CALIBRATION_WINDOW"`
	NoiseFloor        time.Duration `env:"BLINKTALK_NOISE_FLOOR"`
	DefaultThreshold  float64       `env:"BLINKTALK_DEFAULT_THRESHOLD"`
	ThresholdMin      float64       `env:"BLINKTALK_THRESHOLD_MIN"`
	ThresholdMax      float64       `env:"BLINKTALK_THRESHOLD_MAX"`
}

// SpeechSettings configures speech output.
type SpeechSettings struct {
	// Command is the synthesizer command line; empty prints to stdout.
	Command   string `env:"BLINKTALK_SPEECH_COMMAND"`
	Announce  bool   `env:"BLINKTALK_ANNOUNCE"`
	QueueSize int    `env:"BLINKTALK_SPEECH_QUEUE"`
}

// Defaults returns settings with stock values.
func Defaults() Settings {
	t := model.DefaultTiming()
	return Settings{
		Timing: TimingSettings{
			DotDuration:       t.DotDuration,
			LetterPause:       t.LetterPause,
			WordPause:         t.WordPause,
			Warmup:            t.Warmup,
			CalibrationWindow: t.CalibrationWindow,
			NoiseFloor:        t.NoiseFloor,
			DefaultThreshold:  t.DefaultThreshold,
			ThresholdMin:      t.ThresholdMin,
			ThresholdMax:      t.ThresholdMax,
		},
		Speech: SpeechSettings{
			Announce:  true,
			QueueSize: 16,
		},
		History: true,
	}
}

// Model converts timing settings to the core type.
func (t TimingSettings) Model() model.Timing {
	return model.Timing{
		DotDuration:       t.DotDuration,
		LetterPause:       t.LetterPause,
		WordPause:         t.WordPause,
		Warmup:            t.Warmup,
		CalibrationWindow: t.CalibrationWindow,
		NoiseFloor:        t.NoiseFloor,
		DefaultThreshold:  t.DefaultThreshold,
		ThresholdMin:      t.ThresholdMin,
		ThresholdMax:      t.ThresholdMax,
	}
}

// ApplyFile overlays values set in the TOML file.
func ApplyFile(s Settings, fc FileConfig) (Settings, error) {
	durations := []struct {
		name   string
		value  *string
		target *time.Duration
	}{
		{"dot-duration", fc.Timing.DotDuration, &s.Timing.DotDuration},
		{"letter-pause", fc.Timing.LetterPause, &s.Timing.LetterPause},
		{"word-pause", fc.Timing.WordPause, &s.Timing.WordPause},
		{"warmup", fc.Timing.Warmup, &s.Timing.Warmup},
		{"calibration-window", fc.Timing.CalibrationWindow, &s.Timing.CalibrationWindow},
		{"noise-floor", fc.Timing.NoiseFloor, &s.Timing.NoiseFloor},
	}
	for _, d := range durations {
		if d.value == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.value)
		if err != nil {
			return s, fmt.Errorf("invalid timing.%s: %w", d.name, err)
		}
		*d.target = parsed
	}
	applyFloat(&s.Timing.DefaultThreshold, fc.Timing.DefaultThreshold)
	applyFloat(&s.Timing.ThresholdMin, fc.Timing.ThresholdMin)
	applyFloat(&s.Timing.ThresholdMax, fc.Timing.ThresholdMax)
	if len(fc.Patient.Vocabulary) > 0 {
		s.Vocabulary = fc.Patient.Vocabulary
	}
	if fc.Speech.Command != nil {
		s.Speech.Command = *fc.Speech.Command
	}
	if fc.Speech.Announce != nil {
		s.Speech.Announce = *fc.Speech.Announce
	}
	if fc.Speech.QueueSize != nil {
		s.Speech.QueueSize = *fc.Speech.QueueSize
	}
	if fc.History.Enabled != nil {
		s.History = *fc.History.Enabled
	}
	return s, nil
}

func applyFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}

// ApplyEnv loads an optional .env file from dotenvPath and overlays
// BLINKTALK_* environment variables. Unset variables keep current values.
func ApplyEnv(s *Settings, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Validate checks settings for consistency.
func Validate(s Settings) error {
	t := s.Timing
	positive := []struct {
		name  string
		value time.Duration
	}{
		{"dot-duration", t.DotDuration},
		{"letter-pause", t.LetterPause},
		{"word-pause", t.WordPause},
		{"calibration-window", t.CalibrationWindow},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0", ErrInvalidTiming, p.name)
		}
	}
	if t.Warmup < 0 || t.NoiseFloor < 0 {
		return fmt.Errorf("%w: warmup and noise-floor must be >= 0", ErrInvalidTiming)
	}
	if t.LetterPause >= t.WordPause {
		return fmt.Errorf("%w: letter-pause must be shorter than word-pause", ErrInvalidTiming)
	}
	if t.NoiseFloor >= t.DotDuration {
		return fmt.Errorf("%w: noise-floor must be shorter than dot-duration", ErrInvalidTiming)
	}
	if t.ThresholdMin <= 0 || t.ThresholdMin > t.ThresholdMax {
		return fmt.Errorf("%w: threshold bounds must satisfy 0 < min <= max", ErrInvalidTiming)
	}
	if t.DefaultThreshold < t.ThresholdMin || t.DefaultThreshold > t.ThresholdMax {
		return fmt.Errorf("%w: default-threshold must lie within threshold bounds", ErrInvalidTiming)
	}
	if s.Speech.QueueSize <= 0 {
		return fmt.Errorf("speech queue-size must be > 0")
	}
	return nil
}
