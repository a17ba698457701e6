// Package main provides the CLI entrypoint for blinktalk.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/blinktalk/internal/config"
	"github.com/verte-zerg/blinktalk/internal/decoder"
	"github.com/verte-zerg/blinktalk/internal/logging"
	"github.com/verte-zerg/blinktalk/internal/session"
	"github.com/verte-zerg/blinktalk/internal/speech"
	"github.com/verte-zerg/blinktalk/internal/store"
	"github.com/verte-zerg/blinktalk/internal/tui"
)

var (
	configPath string
	envFile    string
	debugLog   bool
	noHistory  bool
	noAnnounce bool

	dotDuration time.Duration
	letterPause time.Duration
	wordPause   time.Duration
	warmup      time.Duration
	speechCmd   string
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Defaults()
	rootCmd := &cobra.Command{
		Use:           "blinktalk",
		Short:         "Blink-driven Morse communication aid",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUICmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&envFile, "env-file", ".env", "optional dotenv file with BLINKTALK_* overrides")
	pf.BoolVar(&debugLog, "debug", false, "write debug entries to the log")
	pf.BoolVar(&noHistory, "no-history", false, "do not read or write the history database")
	pf.BoolVar(&noAnnounce, "no-announce", false, "do not speak mode prompts")
	pf.DurationVar(&dotDuration, "dot", defaults.Timing.DotDuration, "blinks shorter than this are dots")
	pf.DurationVar(&letterPause, "letter-pause", defaults.Timing.LetterPause, "open-eye gap that ends a letter")
	pf.DurationVar(&wordPause, "word-pause", defaults.Timing.WordPause, "open-eye gap that ends a word")
	pf.DurationVar(&warmup, "warmup", defaults.Timing.Warmup, "blinks ignored for this long after a mode change")
	pf.StringVar(&speechCmd, "speech-command", "", "synthesizer command, e.g. \"espeak -s 140\" (default prints text)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newCodesCmd())

	return rootCmd
}

// loadSettings resolves defaults, then the config file, then the environment,
// then explicitly set flags, and opens the log.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := config.ApplyFile(config.Defaults(), fileCfg)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to apply config: %w", err)
	}
	if err := config.ApplyEnv(&settings, envFile); err != nil {
		return config.Settings{}, err
	}
	applyDurationFlag(cmd, "dot", &settings.Timing.DotDuration, dotDuration)
	applyDurationFlag(cmd, "letter-pause", &settings.Timing.LetterPause, letterPause)
	applyDurationFlag(cmd, "word-pause", &settings.Timing.WordPause, wordPause)
	applyDurationFlag(cmd, "warmup", &settings.Timing.Warmup, warmup)
	applyStringFlag(cmd, "speech-command", &settings.Speech.Command, speechCmd)
	applyBoolFlag(cmd, "debug", &settings.Debug, debugLog)
	if noHistory {
		settings.History = false
	}
	if noAnnounce {
		settings.Speech.Announce = false
	}
	if err := config.Validate(settings); err != nil {
		return config.Settings{}, err
	}
	if err := logging.Init(config.DefaultLogDir(), settings.Debug); err != nil {
		logErrf("logging disabled: %v\n", err)
	}
	return settings, nil
}

func newSession(settings config.Settings, speaker session.Speaker, now time.Time) (*session.Input, error) {
	sess, err := session.New(session.Options{
		Timing:     settings.Timing.Model(),
		Vocabulary: settings.Vocabulary,
		Announce:   settings.Speech.Announce,
		Speaker:    speaker,
		Logger:     logging.Logger(),
	}, now)
	if err != nil {
		return nil, err
	}
	return session.NewInput(sess), nil
}

// startSpeech builds the synthesizer and starts its worker. Without a
// configured command, text goes to fallback.
func startSpeech(ctx context.Context, settings config.Settings, fallback speech.Synthesizer) (*speech.Queue, error) {
	synth := fallback
	if settings.Speech.Command != "" {
		cs, err := speech.NewCommandSynth(settings.Speech.Command)
		if err != nil {
			return nil, err
		}
		synth = cs
	}
	q := speech.NewQueue(synth, settings.Speech.QueueSize, logging.Logger())
	go func() {
		if err := q.Run(ctx); err != nil && ctx.Err() == nil {
			lg := logging.Logger()
			lg.Error().Err(err).Msg("speech_stopped")
		}
	}()
	return q, nil
}

func openStore(settings config.Settings) (*store.Store, error) {
	if !settings.History {
		return nil, nil
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logging.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue, err := startSpeech(ctx, settings, logSynth(log))
	if err != nil {
		return err
	}
	defer func() {
		queue.Close()
		queue.Wait()
	}()

	st, err := openStore(settings)
	if err != nil {
		return err
	}
	defer closeStore(st)

	in, err := newSession(settings, queue, time.Now())
	if err != nil {
		return err
	}
	vocab, err := decoder.NewVocabulary(settings.Vocabulary)
	if err != nil {
		return err
	}
	m, err := tui.NewModel(tui.Options{
		Input:      in,
		Store:      st,
		Vocabulary: vocab.Entries(),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// logSynth records speech in the log when no synthesizer is configured, so
// the terminal UI is not overwritten.
func logSynth(log zerolog.Logger) speech.Synthesizer {
	return speech.Func(func(_ context.Context, text string) error {
		log.Info().Str("text", text).Msg("speak")
		return nil
	})
}

func applyDurationFlag(cmd *cobra.Command, name string, target *time.Duration, value time.Duration) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyBoolFlag(cmd *cobra.Command, name string, target *bool, value bool) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func writeOut(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
