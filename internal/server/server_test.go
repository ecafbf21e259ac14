package server

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ekisa-team/llamaterm/internal/backend"
)

type fakeSource struct {
	mu        sync.Mutex
	state     backend.State
	observers []func(backend.State)
}

func (f *fakeSource) State() backend.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) Observe(fn func(backend.State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
}

func (f *fakeSource) set(state backend.State) {
	f.mu.Lock()
	f.state = state
	observers := append([]func(backend.State){}, f.observers...)
	f.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

func startServer(t *testing.T, src StateSource) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := New("bufnet", src)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestServer_SessionHealthFollowsState(t *testing.T) {
	src := &fakeSource{}
	client := startServer(t, src)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, SessionService))

	src.set(backend.StateLoading)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, SessionService))

	src.set(backend.StateReady)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, SessionService))

	src.set(backend.StateStopping)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, SessionService))
}

func TestServer_InitialReadyState(t *testing.T) {
	src := &fakeSource{state: backend.StateReady}
	client := startServer(t, src)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, SessionService))
}

func TestServer_ListenAndServeBadAddr(t *testing.T) {
	srv := New("256.0.0.1:bad", &fakeSource{})
	assert.Error(t, srv.ListenAndServe())
}
