// Package trace reads, writes, generates and replays openness traces.
//
// A trace is CSV with one event per row, offsets in seconds from the start:
//
//	0.010,0.2500
//	5.020,cmd,morse
package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// ErrMalformed is returned for rows that cannot be parsed.
var ErrMalformed = errors.New("malformed trace")

const cmdField = "cmd"

// Event is one openness sample or one command.
type Event struct {
	Offset  time.Duration
	Value   float64
	Command model.Command
}

// IsCommand reports whether the event carries a command instead of a sample.
func (e Event) IsCommand() bool {
	return e.Command != 0
}

// Trace is an ordered list of events.
type Trace struct {
	Events []Event
}

// Duration is the offset of the last event.
func (t Trace) Duration() time.Duration {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Offset
}

// Parse reads a CSV trace. Lines starting with '#' are ignored.
func Parse(r io.Reader) (Trace, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var tr Trace
	var prev time.Duration
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Trace{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)
		ev, err := parseRecord(record)
		if err != nil {
			return Trace{}, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		if ev.Offset < prev {
			return Trace{}, fmt.Errorf("%w: line %d: offset goes backwards", ErrMalformed, line)
		}
		prev = ev.Offset
		tr.Events = append(tr.Events, ev)
	}
	return tr, nil
}

func parseRecord(record []string) (Event, error) {
	if len(record) < 2 || len(record) > 3 {
		return Event{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(record))
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil || sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return Event{}, fmt.Errorf("invalid offset %q", record[0])
	}
	ev := Event{Offset: time.Duration(math.Round(sec * float64(time.Second)))}
	if len(record) == 3 {
		if strings.TrimSpace(record[1]) != cmdField {
			return Event{}, fmt.Errorf("expected %q in second field, got %q", cmdField, record[1])
		}
		cmd, ok := model.ParseCommand(strings.TrimSpace(record[2]))
		if !ok {
			return Event{}, fmt.Errorf("unknown command %q", record[2])
		}
		ev.Command = cmd
		return ev, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil || math.IsNaN(value) {
		return Event{}, fmt.Errorf("invalid openness %q", record[1])
	}
	ev.Value = value
	return ev, nil
}

// Write serializes tr as CSV.
func Write(w io.Writer, tr Trace) error {
	cw := csv.NewWriter(w)
	for _, ev := range tr.Events {
		sec := strconv.FormatFloat(ev.Offset.Seconds(), 'f', 3, 64)
		var record []string
		if ev.IsCommand() {
			record = []string{sec, cmdField, ev.Command.String()}
		} else {
			record = []string{sec, strconv.FormatFloat(ev.Value, 'f', 4, 64)}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
