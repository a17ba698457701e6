// Package calibration derives a person-specific closed-eye threshold from a
// window of openness samples.
package calibration

import (
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// ErrNoUsableSamples means the window closed without any positive sample.
var ErrNoUsableSamples = errors.New("calibration: no usable samples")

// Calibrator collects samples for a fixed window and computes a threshold.
// The zero value is not usable; construct with New.
type Calibrator struct {
	window    time.Duration
	minThresh float64
	maxThresh float64
	log       zerolog.Logger

	startedAt   time.Time
	samples     []float64
	calibrating bool
	failed      bool
	threshold   float64
}

// New constructs a calibrator holding the default threshold from timing.
func New(t model.Timing, log zerolog.Logger) *Calibrator {
	return &Calibrator{
		window:    t.CalibrationWindow,
		minThresh: t.ThresholdMin,
		maxThresh: t.ThresholdMax,
		threshold: t.DefaultThreshold,
		log:       log,
	}
}

// Start clears collected samples and opens the window at now.
func (c *Calibrator) Start(now time.Time) {
	c.startedAt = now
	c.samples = c.samples[:0]
	c.calibrating = true
	c.failed = false
	c.log.Info().Dur("window", c.window).Msg("calibration_start")
}

// Update appends a sample while the window is open. When the window has
// expired it completes calibration and reports done. A non-nil error means
// calibration failed and the previous threshold was kept.
func (c *Calibrator) Update(now time.Time, value float64) (done bool, err error) {
	if !c.calibrating {
		return false, nil
	}
	c.samples = append(c.samples, value)
	if now.Sub(c.startedAt) < c.window {
		return false, nil
	}
	return true, c.complete()
}

func (c *Calibrator) complete() error {
	c.calibrating = false

	usable := make([]float64, 0, len(c.samples))
	for _, v := range c.samples {
		if v > 0 {
			usable = append(usable, v)
		}
	}
	if len(usable) == 0 {
		c.failed = true
		c.log.Warn().Int("samples", len(c.samples)).Float64("threshold", c.threshold).Msg("calibration_failed")
		return ErrNoUsableSamples
	}

	sort.Float64s(usable)
	minVal := usable[0]
	mid := median(usable)
	c.threshold = clamp((minVal+mid)/2, c.minThresh, c.maxThresh)
	c.log.Info().
		Float64("min", minVal).
		Float64("median", mid).
		Float64("threshold", c.threshold).
		Int("samples", len(usable)).
		Msg("calibration_complete")
	return nil
}

// IsCalibrating reports whether the window is open.
func (c *Calibrator) IsCalibrating() bool {
	return c.calibrating
}

// Failed reports whether the last completed calibration had no usable samples.
func (c *Calibrator) Failed() bool {
	return c.failed
}

// Threshold returns the current closed-eye threshold.
func (c *Calibrator) Threshold() float64 {
	return c.threshold
}

// Remaining returns the time left in the window, zero when not calibrating.
func (c *Calibrator) Remaining(now time.Time) time.Duration {
	if !c.calibrating {
		return 0
	}
	left := c.window - now.Sub(c.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Progress returns the elapsed fraction of the window in [0, 1].
func (c *Calibrator) Progress(now time.Time) float64 {
	if !c.calibrating || c.window <= 0 {
		return 0
	}
	p := float64(now.Sub(c.startedAt)) / float64(c.window)
	return clamp(p, 0, 1)
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
