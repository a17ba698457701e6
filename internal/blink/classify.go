// Package blink turns openness samples into blink events and classifies
// blink durations into symbols.
package blink

import (
	"time"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// Classify maps a blink duration to Dot when shorter than dotDuration, else Dash.
// Durations under the noise floor are filtered by the Detector and never reach here.
func Classify(d, dotDuration time.Duration) model.Symbol {
	if d < dotDuration {
		return model.Dot
	}
	return model.Dash
}
