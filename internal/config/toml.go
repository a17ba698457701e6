// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timing  TimingConfig  `toml:"timing"`
	Patient PatientConfig `toml:"patient"`
	Speech  SpeechConfig  `toml:"speech"`
	History HistoryConfig `toml:"history"`
}

// TimingConfig maps timing settings. Durations use Go syntax ("400ms", "2.5s").
type TimingConfig struct {
	DotDuration       *string  `toml:"dot-duration"`
	LetterPause       *string  `toml:"letter-pause"`
	WordPause         *string  `toml:"word-pause"`
	Warmup            *string  `toml:"warmup"`
	CalibrationWindow *string  `toml:"calibration-window"`
	NoiseFloor        *string  `toml:"noise-floor"`
	DefaultThreshold  *float64 `toml:"default-threshold"`
	ThresholdMin      *float64 `toml:"threshold-min"`
	ThresholdMax      *float64 `toml:"threshold-max"`
}

// PatientConfig maps patient-mode settings.
type PatientConfig struct {
	Vocabulary map[string]string `toml:"vocabulary"`
}

// SpeechConfig maps speech output settings.
type SpeechConfig struct {
	Command   *string `toml:"command"`
	Announce  *bool   `toml:"announce"`
	QueueSize *int    `toml:"queue-size"`
}

// HistoryConfig maps utterance history settings.
type HistoryConfig struct {
	Enabled *bool `toml:"enabled"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
