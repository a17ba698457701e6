// Package stats summarizes the spoken history.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/blinktalk/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics returns the session length and the spoken words per minute.
func SessionMetrics(rec model.SessionRecord) (duration time.Duration, wpm float64) {
	duration = rec.EndedAt.Sub(rec.StartedAt)
	if duration <= 0 {
		return 0, 0
	}
	return duration, float64(rec.Utterances) / duration.Minutes()
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[max(0, min(idx, last))])
	}
	return b.String()
}

// RenderSummary prints totals across sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var total time.Duration
	var words int
	var thresholdSum, bestWPM float64
	for _, s := range sessions {
		d, wpm := SessionMetrics(s)
		total += d
		words += s.Utterances
		thresholdSum += s.Threshold
		bestWPM = math.Max(bestWPM, wpm)
	}
	avgWPM := 0.0
	if total > 0 {
		avgWPM = float64(words) / total.Minutes()
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Words spoken: %d", words),
		fmt.Sprintf("Time in use: %s", total.Round(time.Second)),
		fmt.Sprintf("Avg words/min: %.2f", avgWPM),
		fmt.Sprintf("Best words/min: %.2f", bestWPM),
		fmt.Sprintf("Avg threshold: %.3f", thresholdSum/float64(len(sessions))),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderPhraseTable prints how often each word was spoken.
func RenderPhraseTable(w io.Writer, counts []model.PhraseCount) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No utterances found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Spoken Words"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Text, c.Mode.String(), fmt.Sprintf("%d", c.Count)})
	}
	return writeLines(w, formatTable([]string{"Text", "Mode", "Count"}, rows, map[int]bool{2: true}))
}

// RenderTranscript prints utterances in the order they were spoken.
func RenderTranscript(w io.Writer, utterances []model.Utterance) error {
	if len(utterances) == 0 {
		_, err := fmt.Fprintln(w, "No utterances found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Transcript"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(utterances))
	for _, u := range utterances {
		rows = append(rows, []string{u.SpokenAt.Local().Format("2006-01-02 15:04:05"), u.Mode.String(), u.Text})
	}
	return writeLines(w, formatTable([]string{"Spoken At", "Mode", "Text"}, rows, nil))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
