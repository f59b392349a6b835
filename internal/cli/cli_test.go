package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-review-dashboard/internal/bootstrap"
	"github.com/noah-isme/peer-review-dashboard/internal/config"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
	"github.com/noah-isme/peer-review-dashboard/pkg/backend"
)

type stubTransport struct {
	body []byte
	err  error
}

func (s stubTransport) Do(context.Context, backend.Request) (backend.Response, error) {
	if s.err != nil {
		return backend.Response{}, s.err
	}
	return backend.Response{StatusCode: http.StatusOK, Body: s.body}, nil
}

const cliState = `{"projects":[{"id":5,"title":"Weather Station","author":"Dana","status":"approved","submittedAt":"2025-03-02","rating":4,"files":["readme.md"]}],"reviews":[{"id":1,"projectId":5,"reviewer":"Eli","rating":4,"comment":"Nice","date":"2025-03-03"}]}`

func runCLI(t *testing.T, transport backend.Transport, snapshotFs, outFs afero.Fs, args ...string) (string, string, error) {
	t.Helper()
	cfg := config.Config{
		BackendBaseURL: "http://backend.test/api",
		BackendTimeout: time.Second,
		SnapshotDriver: config.SnapshotDriverFile,
		SnapshotPath:   "/data",
		SnapshotKey:    "peerReview_platformData",
	}

	cmd := NewRootCommand(Options{
		Fs: outFs,
		Loader: func(logger zerolog.Logger) (*bootstrap.Container, error) {
			return bootstrap.New(cfg, logger, bootstrap.Options{Fs: snapshotFs, Transport: transport})
		},
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestStateCommandPrintsBaselineWhenEmpty(t *testing.T) {
	stdout, _, err := runCLI(t, stubTransport{err: backend.ErrUnavailable}, afero.NewMemMapFs(), afero.NewMemMapFs(), "state")
	require.NoError(t, err)

	var state models.PlatformState
	require.NoError(t, json.Unmarshal([]byte(stdout), &state))
	require.Len(t, state.Projects, 4)
}

func TestRefreshCommandPersistsState(t *testing.T) {
	snapshotFs := afero.NewMemMapFs()

	stdout, _, err := runCLI(t, stubTransport{body: []byte(cliState)}, snapshotFs, afero.NewMemMapFs(), "refresh")
	require.NoError(t, err)
	require.Contains(t, stdout, "projects: 1\nreviews: 1\n")

	stdout, _, err = runCLI(t, stubTransport{err: backend.ErrUnavailable}, snapshotFs, afero.NewMemMapFs(), "state", "--summary")
	require.NoError(t, err)
	require.Contains(t, stdout, "projects: 1\n")
	require.Contains(t, stdout, "activity: 1\n")
}

func TestRefreshCommandReportsBackendFailure(t *testing.T) {
	_, _, err := runCLI(t, stubTransport{err: backend.ErrUnavailable}, afero.NewMemMapFs(), afero.NewMemMapFs(), "refresh")
	require.ErrorIs(t, err, backend.ErrUnavailable)
	require.Contains(t, err.Error(), "snapshot unchanged")
}

func TestExportProjectsWritesPDF(t *testing.T) {
	outFs := afero.NewMemMapFs()

	stdout, _, err := runCLI(t, stubTransport{body: []byte(cliState)}, afero.NewMemMapFs(), outFs, "export", "projects", "--status", "approved", "-o", "/out/projects")
	require.NoError(t, err)
	require.Equal(t, "wrote /out/projects.pdf\n", stdout)

	data, err := afero.ReadFile(outFs, "/out/projects.pdf")
	require.NoError(t, err)
	require.Contains(t, string(data), "Weather Station")
}

func TestExportProjectsRejectsUnknownStatus(t *testing.T) {
	_, _, err := runCLI(t, stubTransport{body: []byte(cliState)}, afero.NewMemMapFs(), afero.NewMemMapFs(), "export", "projects", "--status", "archived")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid filter")
}

func TestExportStudentFallsBackToSnapshot(t *testing.T) {
	outFs := afero.NewMemMapFs()

	_, stderr, err := runCLI(t, stubTransport{err: backend.ErrUnavailable}, afero.NewMemMapFs(), outFs, "export", "student", "Jamie Lee", "-o", "jamie.pdf")
	require.NoError(t, err)
	require.Contains(t, stderr, "using cached snapshot")

	data, err := afero.ReadFile(outFs, "jamie.pdf")
	require.NoError(t, err)
	require.Contains(t, string(data), "(Student: Jamie Lee) Tj")
	require.Contains(t, string(data), "Mobile App Prototype")
}
