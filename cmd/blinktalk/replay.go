package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/blinktalk/internal/decoder"
	"github.com/verte-zerg/blinktalk/internal/logging"
	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/speech"
	"github.com/verte-zerg/blinktalk/internal/trace"
)

var (
	replayRecord bool

	simulateMode string
	simulateOut  string
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay a recorded openness trace (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().BoolVar(&replayRecord, "record", false, "store the replayed session in history")
	return cmd
}

func openTrace(path string) (trace.Trace, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return trace.Trace{}, fmt.Errorf("failed to open trace: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close of a read-only file.
				_ = cerr
			}
		}()
		r = f
	}
	return trace.Parse(r)
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	tr, err := openTrace(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	queue, err := startSpeech(ctx, settings, speech.WriterSynth{W: cmd.OutOrStdout()})
	if err != nil {
		return err
	}

	start := time.Now()
	in, err := newSession(settings, queue, start)
	if err != nil {
		queue.Close()
		return err
	}
	res := trace.Replay(tr, in, start, logging.Logger())
	queue.Close()
	queue.Wait()

	if res.CalibrationErr != nil {
		logErrf("calibration: %v\n", res.CalibrationErr)
	}
	if err := writeOut(cmd.ErrOrStderr(), "replayed %s: %d words, threshold %.3f, %d rejected commands\n",
		tr.Duration().Round(time.Millisecond), len(res.Utterances), res.Threshold, res.RejectedCommands); err != nil {
		return err
	}

	if !replayRecord {
		return nil
	}
	settings.History = true
	st, err := openStore(settings)
	if err != nil {
		return err
	}
	defer closeStore(st)
	rec := model.SessionRecord{StartedAt: start, EndedAt: res.EndedAt, Threshold: res.Threshold}
	id, err := st.InsertSession(context.Background(), rec, res.Utterances)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return writeOut(cmd.ErrOrStderr(), "saved session #%d\n", id)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate TEXT",
		Short: "Write an openness trace that blinks out TEXT",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulateCmd,
	}
	cmd.Flags().StringVar(&simulateMode, "mode", "morse", "input mode: morse or patient")
	cmd.Flags().StringVarP(&simulateOut, "out", "o", "-", "output file (- for stdout)")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	mode, ok := model.ParseMode(simulateMode)
	if !ok {
		return fmt.Errorf("--mode must be morse or patient")
	}
	vocab, err := decoder.NewVocabulary(settings.Vocabulary)
	if err != nil {
		return err
	}
	gen := trace.NewGenerator(settings.Timing.Model(), decoder.NewCharacterTable(), vocab)
	tr, err := gen.Generate(args[0], mode)
	if err != nil {
		return err
	}

	if simulateOut == "-" {
		return trace.Write(cmd.OutOrStdout(), tr)
	}
	f, err := os.Create(simulateOut)
	if err != nil {
		return fmt.Errorf("failed to create trace: %w", err)
	}
	if err := trace.Write(f, tr); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return f.Close()
}
