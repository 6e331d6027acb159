package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"example.com/pacer/internal/api"
	"example.com/pacer/internal/domain"
	"example.com/pacer/internal/persistence/memory"
	"example.com/pacer/internal/workflow"
)

type recordingServer struct {
	*httptest.Server
	posts atomic.Int32
}

func newRunsServer(t *testing.T, repo domain.RunRepository) *recordingServer {
	t.Helper()
	router := chi.NewRouter()
	api.NewHandler(domain.NewService(repo), nil).RegisterRoutes(router)

	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			rs.posts.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunsListEmpty(t *testing.T) {
	srv := newRunsServer(t, memory.NewRepository())

	out, _, err := execute(t, "runs", "list", "--api-base", srv.URL)
	require.NoError(t, err)
	require.Contains(t, out, emptyListText)
}

func TestRunsAddPrintsServerRecordFirst(t *testing.T) {
	repo := memory.NewRepository()
	require.NoError(t, repo.Create(context.Background(), domain.StoredRun{ID: "2024-01-01 • 5km • 25:00"}))
	srv := newRunsServer(t, repo)

	out, errOut, err := execute(t, "runs", "add", "--api-base", srv.URL,
		"--date", "2024-02-01", "--distance", "10", "--duration", "50:00")
	require.NoError(t, err, errOut)

	require.Contains(t, out, "Added 2024-02-01 • 10km • 50:00")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, "  2024-02-01 • 10km • 50:00", lines[len(lines)-2])
	require.Equal(t, "  2024-01-01 • 5km • 25:00", lines[len(lines)-1])
}

func TestRunsAddInvalidDistanceSkipsNetwork(t *testing.T) {
	srv := newRunsServer(t, memory.NewRepository())

	_, errOut, err := execute(t, "runs", "add", "--api-base", srv.URL,
		"--date", "2024-02-01", "--distance", "abc", "--duration", "50:00")

	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, errOut, "Validation: Distance is required and must be a number")
	require.Zero(t, srv.posts.Load())
}

func TestRunsAddRemoteFailureAlerts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"runs":[]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, errOut, err := execute(t, "runs", "add", "--api-base", srv.URL,
		"--date", "2024-02-01", "--distance", "10", "--duration", "50:00")

	require.Error(t, err)
	require.Contains(t, errOut, "Error: Failed to create run. Please try again.")
}

func TestRunsListServerErrorIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, errOut, err := execute(t, "runs", "list", "--api-base", srv.URL, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, emptyListText)
	require.NotContains(t, errOut, "Error:")
}

func TestAPIBaseFromEnvironment(t *testing.T) {
	srv := newRunsServer(t, memory.NewRepository())
	t.Setenv("PACER_API_BASE", srv.URL)

	out, _, err := execute(t, "runs", "list")
	require.NoError(t, err)
	require.Contains(t, out, emptyListText)
}
