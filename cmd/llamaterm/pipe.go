package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ekisa-team/llamaterm/internal/relay"
)

var (
	errInputClosed   = errors.New("input closed")
	errSessionExited = errors.New("session exited")
)

// defaultPipeLinger is how long output must stay quiet, once the session is
// ready and input has ended, before pipe stops the session.
const defaultPipeLinger = 5 * time.Second

var pipeLinger time.Duration

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Chat over stdin and stdout without the terminal UI",
	Long: "pipe starts a session, sends each stdin line as a message and prints every\n" +
		"model line as \"ai: <line>\". After end of input it waits for the session to be\n" +
		"ready and for output to stay quiet for --linger, then stops. SIGINT/SIGTERM stop\n" +
		"it at once.",
	Args: cobra.NoArgs,
	RunE: runPipe,
}

func init() {
	pipeCmd.Flags().DurationVar(&pipeLinger, "linger", defaultPipeLinger, "quiet period to wait for output after end of input (0 stops at once)")
	rootCmd.AddCommand(pipeCmd)
}

func runPipe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := a.supervisor.Start(ctx, a.catalog.Resolve(a.cfg.Session.Model), a.cfg.Session.GPULayers)
	if err != nil {
		return err
	}

	return pipeSession(ctx, a.supervisor, info.ID, cmd.InOrStdin(), cmd.OutOrStdout(), pipeLinger)
}

// pipeController is the part of the supervisor pipe mode needs.
type pipeController interface {
	Write(message string)
	Stop()
	Events() <-chan relay.Event
}

// pipeSession relays in to the session and its output to out until input
// ends, the session exits or ctx is cancelled. With a non-zero linger, end of
// input waits for readiness and then for linger without output. The session
// is always stopped before returning.
func pipeSession(ctx context.Context, ctrl pipeController, sessionID string, in io.Reader, out io.Writer, linger time.Duration) error {
	ready := make(chan struct{})
	activity := make(chan struct{}, 1)

	inputDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			ctrl.Write(scanner.Text())
		}
		inputDone <- scanner.Err()
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-ctrl.Events():
				if err := printEvent(out, sessionID, ev); err != nil {
					return err
				}
				switch ev.Kind {
				case relay.KindReady:
					select {
					case <-ready:
					default:
						close(ready)
					}
				case relay.KindOutput:
					select {
					case activity <- struct{}{}:
					default:
					}
				}
			}
		}
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-inputDone:
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}

		if linger <= 0 {
			return errInputClosed
		}

		select {
		case <-gctx.Done():
			return nil
		case <-ready:
		}

		quiet := time.NewTimer(linger)
		defer quiet.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-activity:
				quiet.Reset(linger)
			case <-quiet.C:
				return errInputClosed
			}
		}
	})

	err := g.Wait()
	ctrl.Stop()
	drain(ctrl.Events(), out, sessionID)

	if errors.Is(err, errInputClosed) || errors.Is(err, errSessionExited) {
		return nil
	}
	return err
}

// printEvent writes one event. It returns errSessionExited, or the exit
// error, once the session ends.
func printEvent(out io.Writer, sessionID string, ev relay.Event) error {
	switch ev.Kind {
	case relay.KindOutput:
		fmt.Fprintf(out, "ai: %s\n", ev.Text)

	case relay.KindError:
		if ev.Source == relay.SourceProcess {
			slog.Error("Process error", "error", ev.Text)
		}

	case relay.KindExited:
		if ev.SessionID != sessionID {
			return nil
		}
		if ev.Err != nil {
			return fmt.Errorf("process exited: %w", ev.Err)
		}
		return errSessionExited
	}
	return nil
}

// drain prints output still buffered after the session stopped.
func drain(events <-chan relay.Event, out io.Writer, sessionID string) {
	for {
		select {
		case ev := <-events:
			_ = printEvent(out, sessionID, ev)
		default:
			return
		}
	}
}
