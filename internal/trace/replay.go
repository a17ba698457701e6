package trace

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/blinktalk/internal/model"
	"github.com/verte-zerg/blinktalk/internal/session"
)

// Result summarizes a replay.
type Result struct {
	Utterances       []model.Utterance
	Threshold        float64
	CalibrationErr   error
	RejectedCommands int
	EndedAt          time.Time
}

// Replay feeds every event into in, offset from start.
func Replay(tr Trace, in *session.Input, start time.Time, log zerolog.Logger) Result {
	res := Result{EndedAt: start}
	for _, ev := range tr.Events {
		at := start.Add(ev.Offset)
		res.EndedAt = at
		if ev.IsCommand() {
			if !in.Command(ev.Command, at) {
				res.RejectedCommands++
				log.Warn().
					Str("cmd", ev.Command.String()).
					Str("mode", in.Session().Mode().String()).
					Dur("offset", ev.Offset).
					Msg("command_rejected")
			}
			continue
		}
		out := in.Sample(model.OpennessSample{Value: ev.Value, At: at})
		if out.CalibrationDone && out.CalibrationErr != nil {
			res.CalibrationErr = out.CalibrationErr
		}
		res.Utterances = append(res.Utterances, out.Committed...)
	}
	res.Threshold = in.Session().Threshold()
	return res
}

// Text joins the spoken words with spaces.
func (r Result) Text() string {
	words := make([]string, len(r.Utterances))
	for i, u := range r.Utterances {
		words[i] = u.Text
	}
	return strings.Join(words, " ")
}
