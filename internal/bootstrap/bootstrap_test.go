package bootstrap

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-review-dashboard/internal/config"
	"github.com/noah-isme/peer-review-dashboard/pkg/backend"
)

type transportFunc func(ctx context.Context, req backend.Request) (backend.Response, error)

func (f transportFunc) Do(ctx context.Context, req backend.Request) (backend.Response, error) {
	return f(ctx, req)
}

const remoteState = `{"projects":[{"id":11,"title":"Remote","author":"Dana","status":"pending_review","submittedAt":"2025-03-01","files":[]}],"reviews":[]}`

func baseConfig() config.Config {
	return config.Config{
		AppName:        "test",
		BackendBaseURL: "http://backend.test/api",
		BackendTimeout: time.Second,
		SnapshotDriver: config.SnapshotDriverFile,
		SnapshotPath:   "/data",
		SnapshotKey:    "peerReview_platformData",
		NATSSubject:    "peerreview.dashboard.sync",
	}
}

func stateTransport() backend.Transport {
	return transportFunc(func(_ context.Context, req backend.Request) (backend.Response, error) {
		if req.Method == http.MethodGet && req.Path == "/platform/state" {
			return backend.Response{StatusCode: http.StatusOK, Body: []byte(remoteState)}, nil
		}
		return backend.Response{StatusCode: http.StatusNotFound}, nil
	})
}

func TestNewWiresFileSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	container, err := New(baseConfig(), zerolog.New(io.Discard), Options{Fs: fs, Transport: stateTransport()})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Close()) })

	ctx := context.Background()
	require.Len(t, container.Sync.Snapshot(ctx).Projects, 4)

	state, err := container.Sync.RefreshState(ctx)
	require.NoError(t, err)
	require.Equal(t, "11", state.Projects[0].ID)

	exists, err := afero.Exists(fs, "/data/peerReview_platformData.json")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "Remote", container.Store.Load(ctx).Projects[0].Title)
}

func TestNewWiresRedisSnapshot(t *testing.T) {
	server := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.SnapshotDriver = config.SnapshotDriverRedis
	cfg.RedisURL = "redis://" + server.Addr()

	container, err := New(cfg, zerolog.New(io.Discard), Options{Transport: stateTransport()})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Close()) })

	_, err = container.Sync.RefreshState(context.Background())
	require.NoError(t, err)
	require.True(t, server.Exists(cfg.SnapshotKey))
}

func TestNewWiresSQLiteSnapshot(t *testing.T) {
	cfg := baseConfig()
	cfg.SnapshotDriver = config.SnapshotDriverSQLite
	cfg.DatabaseURL = "file:bootstrap_test?mode=memory&cache=shared"

	container, err := New(cfg, zerolog.New(io.Discard), Options{Transport: stateTransport()})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Close()) })

	ctx := context.Background()
	_, err = container.Sync.RefreshState(ctx)
	require.NoError(t, err)
	require.Equal(t, "Remote", container.Store.Load(ctx).Projects[0].Title)
}

func TestNewFailsOnUnreachableNATS(t *testing.T) {
	cfg := baseConfig()
	cfg.NATSURL = "nats://127.0.0.1:1"

	_, err := New(cfg, zerolog.New(io.Discard), Options{Fs: afero.NewMemMapFs(), Transport: stateTransport()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connect nats")
}

func TestNewBuildsHTTPTransportFromConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.BackendBaseURL = "not a url"

	_, err := New(cfg, zerolog.New(io.Discard), Options{Fs: afero.NewMemMapFs()})
	require.Error(t, err)
}
