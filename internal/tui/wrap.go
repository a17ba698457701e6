package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

func styleText(text string, style lipgloss.Style) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

// composeTranscript renders the committed sentence, then the word being
// built, then the raw signals of the open run.
func composeTranscript(sentence, word, signals string) []styledRune {
	parts := []struct {
		text  string
		style lipgloss.Style
	}{
		{sentence, sentenceStyle},
		{word, currentWordStyle},
		{signals, signalStyle},
	}
	var out []styledRune
	for _, p := range parts {
		if p.text == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		out = append(out, styleText(p.text, p.style)...)
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits, or mid-word when
// a word is wider than the line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	var line []styledRune
	lineWidth := 0
	breakAt := -1

	flush := func(upto, resume int) {
		out.WriteString(renderStyledRunes(line[:upto]))
		out.WriteByte('\n')
		line = append([]styledRune(nil), line[resume:]...)
		lineWidth = 0
		breakAt = -1
		for i, item := range line {
			lineWidth += item.width
			if item.isSpace {
				breakAt = i
			}
		}
	}

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if item.isSpace {
				flush(len(line), len(line))
				i++
				continue
			}
			if breakAt >= 0 {
				flush(breakAt, breakAt+1)
			} else {
				flush(len(line), len(line))
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			breakAt = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}
