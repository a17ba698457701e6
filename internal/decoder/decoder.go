package decoder

import (
	"strings"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// Display is the decoder's view of in-flight and committed text.
type Display struct {
	Signals     string
	CurrentWord string
	Sentence    string
}

// Decoder holds the signal buffer, current word and decoded sentence for the
// strategy bound to the active mode.
type Decoder struct {
	chars *CharacterTable
	vocab *Vocabulary

	mode     model.Mode
	strategy Strategy

	signals  strings.Builder
	word     []string
	sentence strings.Builder
}

// New constructs a decoder with no strategy bound.
func New(chars *CharacterTable, vocab *Vocabulary) *Decoder {
	return &Decoder{chars: chars, vocab: vocab, mode: model.Calibrating}
}

// SetMode binds the strategy for mode and resets all decode state.
func (d *Decoder) SetMode(mode model.Mode) {
	d.mode = mode
	d.strategy = StrategyFor(mode, d.chars, d.vocab)
	d.Reset()
}

// Mode returns the bound mode.
func (d *Decoder) Mode() model.Mode {
	return d.mode
}

// Strategy returns the bound strategy, nil outside input modes.
func (d *Decoder) Strategy() Strategy {
	return d.strategy
}

// AddSignal appends one symbol to the pending run.
func (d *Decoder) AddSignal(s model.Symbol) {
	d.signals.WriteByte(byte(s))
}

// Signals returns the pending run.
func (d *Decoder) Signals() string {
	return d.signals.String()
}

// ResolvesLetters reports whether the bound strategy closes runs at letter gaps.
func (d *Decoder) ResolvesLetters() bool {
	return d.strategy != nil && d.strategy.ResolvesLetters()
}

// ResolvePending resolves the pending run into the current word. The run is
// cleared whatever the lookup outcome.
func (d *Decoder) ResolvePending() (string, bool) {
	signals := d.signals.String()
	d.signals.Reset()
	if signals == "" || d.strategy == nil {
		return "", false
	}
	unit, ok := d.strategy.Resolve(signals)
	if !ok {
		return "", false
	}
	d.word = append(d.word, unit)
	return unit, true
}

// CompleteWord moves the current word into the sentence. It returns false
// when the current word is empty.
func (d *Decoder) CompleteWord() (string, bool) {
	if len(d.word) == 0 {
		return "", false
	}
	word := strings.Join(d.word, "")
	d.sentence.WriteByte(' ')
	d.sentence.WriteString(word)
	d.word = d.word[:0]
	return word, true
}

// Reset clears the pending run, current word and sentence.
func (d *Decoder) Reset() {
	d.signals.Reset()
	d.word = d.word[:0]
	d.sentence.Reset()
}

// Display returns the current text state with the sentence trimmed.
func (d *Decoder) Display() Display {
	return Display{
		Signals:     d.signals.String(),
		CurrentWord: strings.Join(d.word, ""),
		Sentence:    strings.TrimSpace(d.sentence.String()),
	}
}
