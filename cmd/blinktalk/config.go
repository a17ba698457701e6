package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/blinktalk/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate(config.Defaults())), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate(s config.Settings) string {
	t := s.Timing
	return fmt.Sprintf(`# blinktalk configuration
# Uncomment a value to enable it. BLINKTALK_* environment variables override
# the file, and CLI flags override both.

[timing]
# dot-duration = %q        # Blinks shorter than this are dots
# letter-pause = %q          # Open-eye gap that ends a letter
# word-pause = %q          # Open-eye gap that ends a word
# warmup = %q            # Blinks ignored after a mode change
# calibration-window = %q    # Length of the calibration phase
# noise-floor = %q          # Blinks shorter than this are ignored
# default-threshold = %.2f   # Closed-eye threshold before calibration
# threshold-min = %.2f
# threshold-max = %.2f

[patient.vocabulary]
# Replaces the built-in vocabulary when present. Codes use only . and -
# "." = "YES"
# "-" = "NO"
# ".." = "WATER"

[speech]
# command = "espeak -s 140"  # Text is passed as the last argument
# announce = %t              # Speak mode prompts
# queue-size = %d

[history]
# enabled = %t
`,
		t.DotDuration.String(),
		t.LetterPause.String(),
		t.WordPause.String(),
		t.Warmup.String(),
		t.CalibrationWindow.String(),
		t.NoiseFloor.String(),
		t.DefaultThreshold,
		t.ThresholdMin,
		t.ThresholdMax,
		s.Speech.Announce,
		s.Speech.QueueSize,
		s.History,
	)
}
