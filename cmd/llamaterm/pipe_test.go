package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/llamaterm/internal/relay"
)

type echoController struct {
	mu      sync.Mutex
	sent    []string
	stopped bool
	delay   time.Duration
	events  chan relay.Event
}

func newEchoController() *echoController {
	return &echoController{events: make(chan relay.Event, 32)}
}

func (c *echoController) Write(message string) {
	c.mu.Lock()
	c.sent = append(c.sent, message)
	c.mu.Unlock()

	ev := relay.Event{Kind: relay.KindOutput, Text: "echo " + message, SessionID: "s1"}
	if c.delay == 0 {
		c.events <- ev
		return
	}
	go func() {
		time.Sleep(c.delay)
		c.events <- ev
	}()
}

func (c *echoController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

func (c *echoController) Events() <-chan relay.Event {
	return c.events
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPipeSession_RelaysUntilEOF(t *testing.T) {
	ctrl := newEchoController()
	var out syncBuffer

	err := pipeSession(context.Background(), ctrl, "s1", strings.NewReader("hello\nworld\n"), &out, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "world"}, ctrl.sent)
	assert.Equal(t, "ai: echo hello\nai: echo world\n", out.String())
	assert.True(t, ctrl.stopped)
}

func TestPipeSession_ChildExitWithError(t *testing.T) {
	ctrl := newEchoController()
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctrl.events <- relay.Event{Kind: relay.KindExited, SessionID: "s1", Err: errors.New("exit status 1")}

	err := pipeSession(context.Background(), ctrl, "s1", in, io.Discard, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.True(t, ctrl.stopped)
}

func TestPipeSession_IgnoresOtherSessionExit(t *testing.T) {
	ctrl := newEchoController()
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctrl.events <- relay.Event{Kind: relay.KindExited, SessionID: "old"}
	ctrl.events <- relay.Event{Kind: relay.KindExited, SessionID: "s1"}

	err := pipeSession(context.Background(), ctrl, "s1", in, io.Discard, time.Minute)
	assert.NoError(t, err)
}

func TestPipeSession_StopsOnCancel(t *testing.T) {
	ctrl := newEchoController()
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pipeSession(ctx, ctrl, "s1", in, io.Discard, 0) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipe session did not stop")
	}
	assert.True(t, ctrl.stopped)
}

func TestPipeSession_LingerWaitsForReadyAndReply(t *testing.T) {
	ctrl := newEchoController()
	ctrl.delay = 220 * time.Millisecond
	var out syncBuffer

	go func() {
		time.Sleep(200 * time.Millisecond)
		ctrl.events <- relay.Event{Kind: relay.KindReady, SessionID: "s1"}
	}()

	err := pipeSession(context.Background(), ctrl, "s1", strings.NewReader("hi\n"), &out, 150*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "ai: echo hi\n", out.String())
	assert.True(t, ctrl.stopped)
}

func TestPipeSession_LingerStopsAfterQuietPeriod(t *testing.T) {
	ctrl := newEchoController()
	ctrl.events <- relay.Event{Kind: relay.KindReady, SessionID: "s1"}

	start := time.Now()
	err := pipeSession(context.Background(), ctrl, "s1", strings.NewReader(""), io.Discard, 50*time.Millisecond)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, ctrl.stopped)
}

func TestPipeCmd_LingerDefault(t *testing.T) {
	flag := pipeCmd.Flags().Lookup("linger")
	require.NotNil(t, flag)

	d, err := time.ParseDuration(flag.DefValue)
	require.NoError(t, err)
	assert.Equal(t, defaultPipeLinger, d)
	assert.Positive(t, d)
}
