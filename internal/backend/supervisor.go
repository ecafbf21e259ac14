package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ekisa-team/llamaterm/internal/logger"
	"github.com/ekisa-team/llamaterm/internal/relay"
)

const defaultEventBuffer = 256

// SupervisorConfig defines how to start the inference binary.
type SupervisorConfig struct {
	Env        map[string]string
	BinaryPath string
	ExtraArgs  []string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithRunner replaces the os/exec runner.
func WithRunner(r CommandRunner) Option {
	return func(s *Supervisor) {
		s.runner = r
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.events = make(chan relay.Event, n)
		}
	}
}

// Supervisor owns at most one running inference process.
type Supervisor struct {
	runner CommandRunner
	events chan relay.Event

	mu        sync.Mutex
	cfg       SupervisorConfig
	dialect   Dialect
	session   *session
	last      Launch
	state     State
	observers []func(State)
}

type session struct {
	id        string
	launch    Launch
	proc      Process
	relay     *relay.Relay
	startedAt time.Time
	writeMu   sync.Mutex
	stopping  atomic.Bool
	halt      chan struct{}
	done      chan struct{}
}

// NewSupervisor creates a supervisor for the given binary and dialect.
func NewSupervisor(cfg SupervisorConfig, dialect Dialect, opts ...Option) *Supervisor {
	s := &Supervisor{
		runner:  ExecCommandRunner{},
		events:  make(chan relay.Event, defaultEventBuffer),
		cfg:     cfg,
		dialect: dialect,
		state:   StateStopped,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Events returns the channel every session publishes into. It is never closed.
func (s *Supervisor) Events() <-chan relay.Event {
	return s.events
}

// Observe registers fn to be called on every state change.
func (s *Supervisor) Observe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, fn)
}

// Reconfigure replaces the binary settings and dialect used by the next Start.
// A nil dialect keeps the current one.
func (s *Supervisor) Reconfigure(cfg SupervisorConfig, dialect Dialect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	if dialect != nil {
		s.dialect = dialect
	}

	slog.Info("Supervisor reconfigured", "binary", cfg.BinaryPath)
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Running reports whether a session exists and is not being stopped.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session != nil && !s.session.stopping.Load()
}

// Session returns a snapshot of the running session.
func (s *Supervisor) Session() (SessionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return SessionInfo{}, false
	}

	return s.session.info(), true
}

// LastLaunch returns the pair used by the most recent successful Start.
func (s *Supervisor) LastLaunch() Launch {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

// Start spawns the inference binary for modelPath.
func (s *Supervisor) Start(ctx context.Context, modelPath string, gpuLayers int) (SessionInfo, error) {
	modelPath = strings.TrimSpace(modelPath)
	if modelPath == "" {
		return SessionInfo{}, ErrNoModel
	}

	if gpuLayers < 0 {
		return SessionInfo{}, fmt.Errorf("backend: invalid gpu layer count %d", gpuLayers)
	}

	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return SessionInfo{}, ErrAlreadyRunning
	}

	if info, err := os.Stat(modelPath); err != nil || info.IsDir() {
		s.mu.Unlock()
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	}

	sess, err := s.spawnLocked(ctx, Launch{ModelPath: modelPath, GPULayers: gpuLayers})
	if err != nil {
		s.mu.Unlock()
		slog.Error("Failed to start process", "model", modelPath, "error", err)
		s.publish(relay.Event{Kind: relay.KindError, Source: relay.SourceProcess, Err: err, Text: err.Error(), At: time.Now()})
		return SessionInfo{}, err
	}

	s.session = sess
	s.last = sess.launch
	notify := s.transitionLocked(StateLoading)
	info := sess.info()
	s.mu.Unlock()

	notify()

	slog.Info("Process started",
		"session_id", sess.id,
		"pid", info.PID,
		"model", modelPath,
		"gpu_layers", gpuLayers,
	)

	go s.supervise(sess)

	return info, nil
}

// spawnLocked starts the child process. The caller holds s.mu.
func (s *Supervisor) spawnLocked(ctx context.Context, launch Launch) (*session, error) {
	if s.dialect == nil {
		return nil, fmt.Errorf("backend: no dialect configured: %w", ErrNotFound)
	}

	binPath, err := exec.LookPath(s.cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, s.cfg.BinaryPath, err)
	}

	args := append(s.dialect.Args(launch.ModelPath, launch.GPULayers), s.cfg.ExtraArgs...)

	proc, err := s.runner.Start(ctx, binPath, args, envList(s.cfg.Env))
	if err != nil {
		return nil, fmt.Errorf("backend: failed to start %s: %w", binPath, err)
	}

	sess := &session{
		id:        uuid.NewString(),
		launch:    launch,
		proc:      proc,
		startedAt: time.Now(),
		halt:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	sess.relay = relay.New(s.dialect.Markers(), s.sessionPublisher(sess))

	slog.Debug("Spawned process", "binary", binPath, "args", strings.Join(args, " "))
	return sess, nil
}

// Write sends one user message to the running process. Without a running
// process the message is logged and dropped.
func (s *Supervisor) Write(message string) {
	s.mu.Lock()
	sess := s.session
	dialect := s.dialect
	s.mu.Unlock()

	if sess == nil || sess.stopping.Load() {
		slog.Warn("Message dropped", "reason", ErrNotRunning)
		return
	}

	payload, err := dialect.Prompt(message)
	if err != nil {
		slog.Error("Failed to format prompt", "session_id", sess.id, "error", err)
		return
	}

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	if _, err := sess.proc.Stdin().Write(payload); err != nil {
		slog.Error("Failed to write to process", "session_id", sess.id, "error", err)
		return
	}

	slog.Debug("Message sent to process", "session_id", sess.id, "bytes", len(payload))
}

// Stop requests graceful termination and blocks until the process exits.
// It returns immediately when nothing is running.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		slog.Debug("Stop ignored", "reason", ErrNotRunning)
		return
	}

	if sess.stopping.CompareAndSwap(false, true) {
		close(sess.halt)
		s.setState(StateStopping)
		slog.Info("Stopping process", "session_id", sess.id, "pid", sess.proc.Pid())

		if err := sess.proc.Terminate(); err != nil {
			slog.Warn("Failed to signal process", "session_id", sess.id, "error", err)
		}
	}

	<-sess.done
}

// Close stops the running session, if any.
func (s *Supervisor) Close() error {
	s.Stop()
	return nil
}

// supervise relays output until both streams close, then reaps the process.
func (s *Supervisor) supervise(sess *session) {
	defer close(sess.done)
	defer logger.Recover("supervise")

	if err := sess.relay.Run(context.Background(), sess.proc.Stdout(), sess.proc.Stderr()); err != nil {
		slog.Error("Output relay failed", "session_id", sess.id, "error", err)
	}

	waitErr := sess.proc.Wait()

	s.mu.Lock()
	if s.session == sess {
		s.session = nil
	}
	notify := s.transitionLocked(StateStopped)
	s.mu.Unlock()

	notify()

	stopped := sess.stopping.Load()
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		slog.Info("Process exited", "session_id", sess.id)
	case stopped && errors.As(waitErr, &exitErr):
		slog.Info("Process terminated", "session_id", sess.id, "status", waitErr)
		waitErr = nil
	default:
		slog.Error("Process exited with error", "session_id", sess.id, "error", waitErr)
	}

	s.publishSession(sess, relay.Event{
		Kind:      relay.KindExited,
		Source:    relay.SourceProcess,
		Err:       waitErr,
		SessionID: sess.id,
		At:        time.Now(),
	})
}

func (s *Supervisor) sessionPublisher(sess *session) relay.Publisher {
	return func(ev relay.Event) {
		ev.SessionID = sess.id
		if ev.Kind == relay.KindReady {
			s.setState(StateReady)
		}
		s.publishSession(sess, ev)
	}
}

// publish delivers an event that belongs to no session. It never blocks; with
// a full channel the event is logged and dropped.
func (s *Supervisor) publish(ev relay.Event) {
	select {
	case s.events <- ev:
	default:
		slog.Warn("Event dropped, channel full", "kind", ev.Kind, "text", ev.Text)
	}
}

// publishSession delivers a session event, waiting for room in the channel
// until the session is stopped. After Stop, events that do not fit are
// dropped so the readers can drain the pipes and the process can be reaped.
func (s *Supervisor) publishSession(sess *session, ev relay.Event) {
	select {
	case s.events <- ev:
		return
	default:
	}

	select {
	case s.events <- ev:
	case <-sess.halt:
		slog.Debug("Event dropped after stop", "session_id", sess.id, "kind", ev.Kind)
	}
}

func (s *Supervisor) setState(to State) {
	s.mu.Lock()
	notify := s.transitionLocked(to)
	s.mu.Unlock()

	notify()
}

// transitionLocked applies a guarded transition and returns the observer
// notification to run once s.mu is released.
func (s *Supervisor) transitionLocked(to State) func() {
	from := s.state
	if from == to || !from.canTransition(to) {
		return func() {}
	}

	s.state = to
	observers := append([]func(State){}, s.observers...)
	slog.Debug("Supervisor state changed", "from", from, "to", to)

	return func() {
		for _, fn := range observers {
			fn(to)
		}
	}
}

func (sess *session) info() SessionInfo {
	return SessionInfo{
		ID:        sess.id,
		Launch:    sess.launch,
		PID:       sess.proc.Pid(),
		StartedAt: sess.startedAt,
		Phase:     sess.relay.Phase(),
		Load:      sess.relay.LoadState(),
	}
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return list
}
