package session

import (
	"time"

	"github.com/verte-zerg/blinktalk/internal/blink"
	"github.com/verte-zerg/blinktalk/internal/model"
)

// Input feeds raw openness samples through a blink detector into a session,
// for hosts that have no separate blink event source.
type Input struct {
	sess *Session
	det  *blink.Detector
}

// NewInput pairs a session with a detector using the session noise floor.
func NewInput(sess *Session) *Input {
	return &Input{sess: sess, det: blink.NewDetector(sess.timing.NoiseFloor)}
}

// Session returns the driven session.
func (in *Input) Session() *Session {
	return in.sess
}

// Sample runs one tick for sample.
func (in *Input) Sample(sample model.OpennessSample) Output {
	ev := in.det.Update(sample, in.sess.Threshold())
	return in.sess.Step(Tick{
		Now:      sample.At,
		Openness: sample.Value,
		Blink:    ev,
		Closed:   in.det.Closed(),
	})
}

// Command applies cmd and forgets any blink in progress when it is accepted.
func (in *Input) Command(cmd model.Command, now time.Time) bool {
	ok := in.sess.Handle(cmd, now)
	if ok {
		in.det.Reset()
	}
	return ok
}
