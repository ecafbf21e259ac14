// Package relay reads a child process's stdout and stderr, classifies each
// line and publishes the result as events.
//
// The two streams are read by independent goroutines so a quiet stream never
// stalls the other. Both publish into the same Publisher, which the
// supervisor backs with a single ordered channel.
package relay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	initialBufSize = 64 * 1024
	maxLineSize    = 1024 * 1024
)

// Relay classifies the output of one session.
type Relay struct {
	markers Markers
	publish Publisher
	phase   phaseMachine
	load    loadMachine
	now     func() time.Time
}

// New creates a relay publishing to p.
func New(markers Markers, p Publisher) *Relay {
	if p == nil {
		p = func(Event) {}
	}

	return &Relay{
		markers: markers.withDefaults(),
		publish: p,
		now:     time.Now,
	}
}

// Phase returns the current stdout phase.
func (r *Relay) Phase() Phase {
	return r.phase.get()
}

// LoadState returns the current load state.
func (r *Relay) LoadState() LoadState {
	return r.load.get()
}

// Run reads both streams until EOF and returns the first read error.
// Cancelling ctx stops publishing; it does not unblock pending reads, which
// end when the child closes its side of the pipes.
func (r *Relay) Run(ctx context.Context, stdout, stderr io.Reader) error {
	var g errgroup.Group

	g.Go(func() error {
		return r.scan(ctx, "stdout", stdout, r.handleStdout)
	})
	g.Go(func() error {
		return r.scan(ctx, "stderr", stderr, r.handleStderr)
	})

	return g.Wait()
}

func (r *Relay) scan(ctx context.Context, name string, rd io.Reader, handle func(string)) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("relay: %s reader panicked: %v", name, rec)
		}
	}()

	if rd == nil {
		return nil
	}

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, initialBufSize), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			// Keep draining so the child never blocks on a full pipe.
			continue
		}
		handle(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		// Keep the pipe drained so the child can still exit.
		_, _ = io.Copy(io.Discard, rd)
		return fmt.Errorf("relay: read %s: %w", name, err)
	}

	return nil
}

func (r *Relay) handleStdout(line string) {
	if r.phase.get() == PhaseLoading && IsReadyLine(line, r.markers) {
		if r.phase.markReady() {
			slog.Info("Readiness marker observed")
			r.emit(Event{Kind: KindReady, Source: SourceStdout})
		}
	}

	if r.phase.get() != PhaseReady {
		return
	}

	r.emit(Event{Kind: KindOutput, Source: SourceStdout, Text: line})
}

func (r *Relay) handleStderr(line string) {
	switch ClassifyStderr(line, r.markers) {
	case ClassProgress:
		slog.Debug("Child loading", "line", line)
	case ClassLoaded:
		if r.load.markComplete() {
			slog.Info("Model fully loaded")
			r.emit(Event{Kind: KindLoadComplete, Source: SourceStderr, Text: line})
			return
		}
		slog.Debug("Repeated load-complete line ignored", "line", line)
	case ClassBlank:
	default:
		slog.Error("Error: " + line)
		r.emit(Event{Kind: KindError, Source: SourceStderr, Text: line})
	}
}

func (r *Relay) emit(ev Event) {
	ev.At = r.now()
	r.publish(ev)
}
