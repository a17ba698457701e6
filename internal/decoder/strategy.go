// Package decoder resolves signal runs into characters or whole phrases.
package decoder

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// UnknownRune is produced for character-table misses.
const UnknownRune = '*'

// WordSeparator is the signal string for the space character.
const WordSeparator = "/"

var (
	// ErrUnencodable means a rune has no entry in the character table.
	ErrUnencodable = errors.New("decoder: rune not in character table")
	// ErrInvalidCode means a vocabulary code contains something other than dots and dashes.
	ErrInvalidCode = errors.New("decoder: code must contain only '.' and '-'")
)

// Strategy resolves one signal run into a decoded unit.
type Strategy interface {
	Name() string
	// Resolve returns the unit for signals; ok is false when nothing is produced.
	Resolve(signals string) (unit string, ok bool)
	// ResolvesLetters reports whether runs close at letter boundaries. When
	// false the run is held until the word boundary.
	ResolvesLetters() bool
}

var characterCodes = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'1': ".----", '2': "..---", '3': "...--", '4': "....-", '5': ".....",
	'6': "-....", '7': "--...", '8': "---..", '9': "----.", '0': "-----",
	',': "--..--", '.': ".-.-.-", '?': "..--..", '/': "-..-.", '-': "-....-",
	'(': "-.--.", ')': "-.--.-",
	' ': WordSeparator,
}

// CharacterTable is the full-alphabet strategy.
type CharacterTable struct {
	toRune map[string]rune
}

// NewCharacterTable builds the reverse lookup.
func NewCharacterTable() *CharacterTable {
	toRune := make(map[string]rune, len(characterCodes))
	for r, code := range characterCodes {
		toRune[code] = r
	}
	return &CharacterTable{toRune: toRune}
}

// Name implements Strategy.
func (c *CharacterTable) Name() string { return "morse" }

// ResolvesLetters implements Strategy.
func (c *CharacterTable) ResolvesLetters() bool { return true }

// Resolve implements Strategy. Misses yield UnknownRune.
func (c *CharacterTable) Resolve(signals string) (string, bool) {
	if signals == "" {
		return "", false
	}
	if r, ok := c.toRune[signals]; ok {
		return string(r), true
	}
	return string(UnknownRune), true
}

// Decode returns the rune paired with a signal string.
func (c *CharacterTable) Decode(signals string) (rune, bool) {
	r, ok := c.toRune[signals]
	return r, ok
}

// Encode returns the signal string for r.
func (c *CharacterTable) Encode(r rune) (string, error) {
	code, ok := characterCodes[toUpper(r)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnencodable, r)
	}
	return code, nil
}

// Entries returns table entries sorted by rune.
func (c *CharacterTable) Entries() []Entry {
	out := make([]Entry, 0, len(characterCodes))
	for r, code := range characterCodes {
		out = append(out, Entry{Code: code, Unit: string(r)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

// Entry pairs a signal string with its unit.
type Entry struct {
	Code string
	Unit string
}

// DefaultVocabulary maps short codes to patient phrases.
var DefaultVocabulary = map[string]string{
	".":   "YES",
	"-":   "NO",
	"..":  "WATER",
	"--":  "FOOD",
	".-":  "HELP",
	"-.":  "PAIN",
	"...": "BATHROOM",
	"---": "FAMILY",
}

// Vocabulary is the short-phrase strategy.
type Vocabulary struct {
	words map[string]string
}

// NewVocabulary builds a vocabulary from codes. Nil or empty uses DefaultVocabulary.
func NewVocabulary(words map[string]string) (*Vocabulary, error) {
	if len(words) == 0 {
		words = DefaultVocabulary
	}
	copied := make(map[string]string, len(words))
	for code, word := range words {
		if code == "" || strings.Trim(code, ".-") != "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
		word = strings.TrimSpace(word)
		if word == "" {
			return nil, fmt.Errorf("decoder: empty phrase for code %q", code)
		}
		copied[code] = word
	}
	return &Vocabulary{words: copied}, nil
}

// Name implements Strategy.
func (v *Vocabulary) Name() string { return "patient" }

// ResolvesLetters implements Strategy.
func (v *Vocabulary) ResolvesLetters() bool { return false }

// Resolve implements Strategy. Misses produce nothing.
func (v *Vocabulary) Resolve(signals string) (string, bool) {
	word, ok := v.words[signals]
	return word, ok
}

// Entries returns vocabulary entries sorted by code length then code.
func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, 0, len(v.words))
	for code, word := range v.words {
		out = append(out, Entry{Code: code, Unit: word})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Code) == len(out[j].Code) {
			return out[i].Code < out[j].Code
		}
		return len(out[i].Code) < len(out[j].Code)
	})
	return out
}

// StrategyFor returns the strategy bound to mode, nil for non-input modes.
func StrategyFor(mode model.Mode, chars *CharacterTable, vocab *Vocabulary) Strategy {
	switch mode {
	case model.MorseMode:
		return chars
	case model.PatientMode:
		return vocab
	default:
		return nil
	}
}
