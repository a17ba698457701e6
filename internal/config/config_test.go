package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Timing.DotDuration != nil || len(cfg.Patient.Vocabulary) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadAndApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[timing]
dot-duration = "300ms"
word-pause = "3s"
default-threshold = 0.2

[patient.vocabulary]
"." = "YES"
"-" = "NO"

[speech]
command = "espeak"
announce = false

[history]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s, err := ApplyFile(Defaults(), fc)
	if err != nil {
		t.Fatalf("apply file: %v", err)
	}
	if s.Timing.DotDuration != 300*time.Millisecond {
		t.Fatalf("expected dot 300ms, got %v", s.Timing.DotDuration)
	}
	if s.Timing.WordPause != 3*time.Second {
		t.Fatalf("expected word pause 3s, got %v", s.Timing.WordPause)
	}
	if s.Timing.LetterPause != time.Second {
		t.Fatalf("expected letter pause default, got %v", s.Timing.LetterPause)
	}
	if s.Timing.DefaultThreshold != 0.2 {
		t.Fatalf("expected threshold 0.2, got %v", s.Timing.DefaultThreshold)
	}
	if s.Vocabulary["."] != "YES" || s.Vocabulary["-"] != "NO" {
		t.Fatalf("unexpected vocabulary %v", s.Vocabulary)
	}
	if s.Speech.Command != "espeak" || s.Speech.Announce {
		t.Fatalf("unexpected speech settings %+v", s.Speech)
	}
	if s.History {
		t.Fatalf("expected history disabled")
	}
}

func TestApplyFileRejectsBadDuration(t *testing.T) {
	bad := "soon"
	_, err := ApplyFile(Defaults(), FileConfig{Timing: TimingConfig{Warmup: &bad}})
	if err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BLINKTALK_DOT_DURATION", "250ms")
	t.Setenv("BLINKTALK_ANNOUNCE", "false")
	s := Defaults()
	if err := ApplyEnv(&s, ""); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if s.Timing.DotDuration != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", s.Timing.DotDuration)
	}
	if s.Speech.Announce {
		t.Fatalf("expected announce disabled")
	}
	if s.Timing.WordPause != 2500*time.Millisecond {
		t.Fatalf("unset variables must keep defaults, got %v", s.Timing.WordPause)
	}
}

func TestApplyEnvDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BLINKTALK_SPEECH_QUEUE=4\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("BLINKTALK_SPEECH_QUEUE", "")
	os.Unsetenv("BLINKTALK_SPEECH_QUEUE")
	s := Defaults()
	if err := ApplyEnv(&s, path); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if s.Speech.QueueSize != 4 {
		t.Fatalf("expected queue size 4, got %d", s.Speech.QueueSize)
	}
}

func TestApplyEnvMissingDotenvIgnored(t *testing.T) {
	s := Defaults()
	if err := ApplyEnv(&s, filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cases := map[string]func(*Settings){
		"zero dot":        func(s *Settings) { s.Timing.DotDuration = 0 },
		"letter >= word":  func(s *Settings) { s.Timing.LetterPause = s.Timing.WordPause },
		"bounds reversed": func(s *Settings) { s.Timing.ThresholdMin, s.Timing.ThresholdMax = 0.4, 0.1 },
		"noise >= dot":    func(s *Settings) { s.Timing.NoiseFloor = s.Timing.DotDuration },
		"default outside": func(s *Settings) { s.Timing.DefaultThreshold = 0.9 },
	}
	for name, mutate := range cases {
		s := Defaults()
		mutate(&s)
		if err := Validate(s); !errors.Is(err, ErrInvalidTiming) {
			t.Fatalf("%s: expected ErrInvalidTiming, got %v", name, err)
		}
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "blinktalk", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "blinktalk", "history.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultLogDir(); got != filepath.Join("/tmp/state", "blinktalk") {
		t.Fatalf("unexpected log dir %s", got)
	}
}
