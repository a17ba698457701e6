package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/blinktalk/internal/decoder"
	"github.com/verte-zerg/blinktalk/internal/historyui"
	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/stats"
)

const defaultTrendWindow = 3

var (
	historyLast   int
	historyMode   string
	historySince  string
	historyTop    int
	historyWindow int
	historyBrowse bool

	codesMode string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show spoken history and session summary",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 20, "limit the transcript to the last N words")
	cmd.Flags().StringVar(&historyMode, "mode", "", "mode filter: morse or patient")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyTop, "top", 10, "number of phrases in the frequency table")
	cmd.Flags().IntVar(&historyWindow, "window", defaultTrendWindow, "moving average window for trends")
	cmd.Flags().BoolVar(&historyBrowse, "browse", false, "open the interactive history browser")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cfg := model.HistoryConfig{Last: historyLast, Top: historyTop}
	if historyMode != "" {
		mode, ok := model.ParseMode(historyMode)
		if !ok {
			return fmt.Errorf("--mode must be morse or patient")
		}
		cfg.Mode = &mode
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}

	settings.History = true
	st, err := openStore(settings)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if historyBrowse {
		program := tea.NewProgram(historyui.NewModel(st, cfg, historyWindow), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if top := stats.TopPhrases(report.Phrases, 3); len(top) > 0 {
		if err := writeOut(cmd.OutOrStdout(), "Most spoken: %v\n\n", top); err != nil {
			return err
		}
	}
	return report.Render(cmd.OutOrStdout(), historyWindow, 0)
}

func newCodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Print the character table or patient vocabulary",
		Args:  cobra.NoArgs,
		RunE:  runCodesCmd,
	}
	cmd.Flags().StringVar(&codesMode, "mode", "", "morse or patient (default both)")
	return cmd
}

func runCodesCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	vocab, err := decoder.NewVocabulary(settings.Vocabulary)
	if err != nil {
		return err
	}
	sections := []struct {
		mode    model.Mode
		title   string
		entries []decoder.Entry
	}{
		{model.PatientMode, "Patient vocabulary", vocab.Entries()},
		{model.MorseMode, "Morse characters", decoder.NewCharacterTable().Entries()},
	}
	if codesMode != "" {
		if _, ok := model.ParseMode(codesMode); !ok {
			return fmt.Errorf("--mode must be morse or patient")
		}
	}
	out := cmd.OutOrStdout()
	for _, sec := range sections {
		if codesMode != "" {
			if mode, _ := model.ParseMode(codesMode); mode != sec.mode {
				continue
			}
		}
		if err := writeOut(out, "%s\n", sec.title); err != nil {
			return err
		}
		for _, e := range sec.entries {
			unit := e.Unit
			if unit == " " {
				unit = "<space>"
			}
			if err := writeOut(out, "  %-8s %s\n", e.Code, unit); err != nil {
				return err
			}
		}
		if err := writeOut(out, "\n"); err != nil {
			return err
		}
	}
	return nil
}
