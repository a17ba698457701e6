package blink

import (
	"time"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// Detector tracks eye state across samples and emits a BlinkEvent on each
// close-to-open transition longer than the noise floor.
type Detector struct {
	noiseFloor time.Duration

	closed   bool
	closedAt time.Time
	last     float64
}

// NewDetector constructs a detector with the given noise floor.
func NewDetector(noiseFloor time.Duration) *Detector {
	return &Detector{noiseFloor: noiseFloor}
}

// Update feeds one sample compared against threshold. Non-positive samples are
// failed detections and leave the eye state unchanged.
func (d *Detector) Update(sample model.OpennessSample, threshold float64) *model.BlinkEvent {
	if sample.Value <= 0 {
		return nil
	}
	d.last = sample.Value
	isClosed := sample.Value < threshold
	switch {
	case isClosed && !d.closed:
		d.closed = true
		d.closedAt = sample.At
	case !isClosed && d.closed:
		d.closed = false
		duration := sample.At.Sub(d.closedAt)
		if duration > d.noiseFloor {
			return &model.BlinkEvent{Duration: duration, End: sample.At}
		}
	}
	return nil
}

// Closed reports whether a blink is in progress.
func (d *Detector) Closed() bool {
	return d.closed
}

// Last returns the most recent positive sample value.
func (d *Detector) Last() float64 {
	return d.last
}

// Reset forgets any blink in progress.
func (d *Detector) Reset() {
	d.closed = false
	d.closedAt = time.Time{}
}
