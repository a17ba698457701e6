// Package speech delivers text to a synthesizer off the caller's goroutine.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("speech queue closed")

// Synthesizer turns text into audible (or visible) output.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) error
}

// Queue serializes speech requests onto a single worker.
type Queue struct {
	synth Synthesizer
	log   zerolog.Logger
	items chan string

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewQueue builds a queue holding up to size pending requests.
func NewQueue(synth Synthesizer, size int, log zerolog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		synth: synth,
		log:   log,
		items: make(chan string, size),
		done:  make(chan struct{}),
	}
}

// Speak enqueues text without blocking. Requests beyond capacity are dropped.
func (q *Queue) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	select {
	case q.items <- text:
	default:
		q.log.Warn().Str("text", text).Msg("speech_dropped")
	}
}

// Run processes requests in order until ctx is cancelled or Close drains the queue.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-q.items:
			if !ok {
				return nil
			}
			if err := q.synth.Synthesize(ctx, text); err != nil {
				q.log.Error().Err(err).Str("text", text).Msg("speech_failed")
			}
		}
	}
}

// Close stops accepting requests. Pending requests are still spoken by Run.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
}

// Wait blocks until Run has returned.
func (q *Queue) Wait() {
	<-q.done
}

// CommandSynth runs an external program with the text as its final argument.
type CommandSynth struct {
	Name string
	Args []string
}

// NewCommandSynth splits a command line such as "espeak -s 140".
func NewCommandSynth(line string) (CommandSynth, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandSynth{}, fmt.Errorf("speech command is empty")
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return CommandSynth{}, fmt.Errorf("speech command %q not found: %w", fields[0], err)
	}
	return CommandSynth{Name: fields[0], Args: fields[1:]}, nil
}

// Synthesize runs the command and waits for it to exit.
func (c CommandSynth) Synthesize(ctx context.Context, text string) error {
	args := append(append([]string{}, c.Args...), text)
	out, err := exec.CommandContext(ctx, c.Name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// WriterSynth prints each utterance on its own line.
type WriterSynth struct {
	W      io.Writer
	Prefix string
}

func (w WriterSynth) Synthesize(_ context.Context, text string) error {
	_, err := fmt.Fprintf(w.W, "%s%s\n", w.Prefix, text)
	return err
}

// Func adapts a function to Synthesizer.
type Func func(ctx context.Context, text string) error

func (f Func) Synthesize(ctx context.Context, text string) error {
	return f(ctx, text)
}
