package trace

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/blinktalk/internal/decoder"
	"github.com/verte-zerg/blinktalk/internal/model"
)

// DefaultTick is the sample period of generated traces.
const DefaultTick = 10 * time.Millisecond

// Generator synthesizes traces that blink out text.
type Generator struct {
	Timing model.Timing
	Tick   time.Duration
	Chars  *decoder.CharacterTable
	Vocab  *decoder.Vocabulary
}

// NewGenerator builds a generator with the default tick.
func NewGenerator(t model.Timing, chars *decoder.CharacterTable, vocab *decoder.Vocabulary) *Generator {
	return &Generator{Timing: t, Tick: DefaultTick, Chars: chars, Vocab: vocab}
}

// Words splits text into the codes that spell it in mode. Each inner slice is
// one word: letter codes for morse, a single phrase code for patient mode.
func (g *Generator) Words(text string, mode model.Mode) ([][]string, error) {
	switch mode {
	case model.MorseMode:
		var words [][]string
		for _, field := range strings.Fields(text) {
			var codes []string
			for _, r := range field {
				code, err := g.Chars.Encode(r)
				if err != nil {
					return nil, err
				}
				codes = append(codes, code)
			}
			words = append(words, codes)
		}
		return words, nil
	case model.PatientMode:
		return g.phraseCodes(text)
	default:
		return nil, fmt.Errorf("cannot generate input for %s", mode)
	}
}

// phraseCodes matches the longest vocabulary phrase at each position.
func (g *Generator) phraseCodes(text string) ([][]string, error) {
	byPhrase := map[string]string{}
	longest := 1
	for _, e := range g.Vocab.Entries() {
		key := strings.ToUpper(e.Unit)
		byPhrase[key] = e.Code
		longest = max(longest, len(strings.Fields(key)))
	}
	tokens := strings.Fields(strings.ToUpper(text))
	var words [][]string
	for i := 0; i < len(tokens); {
		matched := false
		for n := min(longest, len(tokens)-i); n > 0; n-- {
			if code, ok := byPhrase[strings.Join(tokens[i:i+n], " ")]; ok {
				words = append(words, []string{code})
				i += n
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: phrase %q not in vocabulary", decoder.ErrUnencodable, tokens[i])
		}
	}
	return words, nil
}

type builder struct {
	tick   time.Duration
	now    time.Duration
	events []Event
}

func (b *builder) hold(value float64, d time.Duration) {
	end := b.now + d
	for ; b.now < end; b.now += b.tick {
		b.events = append(b.events, Event{Offset: b.now, Value: value})
	}
}

func (b *builder) command(cmd model.Command) {
	b.events = append(b.events, Event{Offset: b.now, Command: cmd})
}

func (g *Generator) quantize(d time.Duration) time.Duration {
	return max(g.Tick, d.Round(g.Tick))
}

// Generate builds a trace that calibrates, selects mode and blinks out text.
func (g *Generator) Generate(text string, mode model.Mode) (Trace, error) {
	words, err := g.Words(text, mode)
	if err != nil {
		return Trace{}, err
	}
	t := g.Timing
	open := (t.ThresholdMin + t.ThresholdMax) / 2
	closed := t.ThresholdMin / 2

	dot := g.quantize((t.NoiseFloor + t.DotDuration) / 2)
	dash := g.quantize(t.DotDuration + t.DotDuration/2)
	symbolGap := g.quantize(min(t.DotDuration, t.LetterPause/2))
	letterGap := g.quantize((t.LetterPause + t.WordPause) / 2)
	wordGap := g.quantize(t.WordPause + 5*g.Tick)

	selectCmd := model.SelectMorseMode
	if mode == model.PatientMode {
		selectCmd = model.SelectPatientMode
	}

	b := &builder{tick: g.Tick}
	b.hold(open, t.CalibrationWindow+g.Tick)
	b.command(selectCmd)
	b.hold(open, t.Warmup+2*g.Tick)
	for _, codes := range words {
		for li, code := range codes {
			if li > 0 {
				b.hold(open, letterGap)
			}
			for si, sym := range code {
				if si > 0 {
					b.hold(open, symbolGap)
				}
				length := dot
				if model.Symbol(sym) == model.Dash {
					length = dash
				}
				b.hold(closed, length)
			}
		}
		b.hold(open, wordGap)
	}
	return Trace{Events: b.events}, nil
}
