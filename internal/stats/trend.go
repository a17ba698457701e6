package stats

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/blinktalk/internal/model"
)

const (
	trendLabelWidth     = 12
	minTrendWidth       = 10
	terminalWidthBackup = 80
)

// TrendWidthFor returns the sparkline width that fits a terminal of totalWidth columns.
func TrendWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	return max(minTrendWidth, totalWidth-trendLabelWidth-1)
}

func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return terminalWidthBackup
}

// RenderTrends prints per-session sparklines for words spoken and threshold.
// Only the most recent sessions that fit the width are shown.
func RenderTrends(w io.Writer, sessions []model.SessionRecord, window, totalWidth int) error {
	if len(sessions) == 0 {
		return nil
	}
	width := TrendWidthFor(totalWidth)
	if len(sessions) > width {
		sessions = sessions[len(sessions)-width:]
	}
	words := make([]float64, len(sessions))
	thresholds := make([]float64, len(sessions))
	for i, s := range sessions {
		words[i] = float64(s.Utterances)
		thresholds[i] = s.Threshold
	}
	rows := []struct {
		label  string
		values []float64
	}{
		{"Words", MovingAverage(words, window)},
		{"Threshold", MovingAverage(thresholds, window)},
	}
	if _, err := fmt.Fprintln(w, "Trends"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-*s %s\n", trendLabelWidth, r.label, Sparkline(r.values)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
