package runs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"example.com/pacer/internal/domain"
)

func TestListRunsDecodesCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/runs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"runs":[{"id":"2024-01-01 • 5km • 25:00"}]}`))
	}))
	defer srv.Close()

	before := testutil.ToFloat64(requestCounter.WithLabelValues(opListRuns, outcomeOK))

	runs, err := NewClient(srv.URL + "/").ListRuns(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Run{{ID: "2024-01-01 • 5km • 25:00"}}, runs)

	after := testutil.ToFloat64(requestCounter.WithLabelValues(opListRuns, outcomeOK))
	require.InDelta(t, before+1, after, 0.0001)
}

func TestListRunsMissingFieldYieldsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"runs":null}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		runs, err := NewClient(srv.URL).ListRuns(context.Background())
		srv.Close()

		require.NoError(t, err, body)
		require.NotNil(t, runs, body)
		require.Empty(t, runs, body)
	}
}

func TestListRunsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListRuns(context.Background())

	var remoteErr *RemoteRequestError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
	require.Equal(t, "GET /runs failed: 500", remoteErr.Error())
}

func TestListRunsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"runs":[`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListRuns(context.Background())

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestCreateRunPostsJSONAndReturnsServerRecord(t *testing.T) {
	var received domain.Run
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"srv-123"}`))
	}))
	defer srv.Close()

	created, err := NewClient(srv.URL).CreateRun(context.Background(), domain.Run{ID: "2024-02-01 • 10km • 50:00"})
	require.NoError(t, err)
	require.Equal(t, "srv-123", created.ID)
	require.Equal(t, "2024-02-01 • 10km • 50:00", received.ID)
}

func TestCreateRunNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	before := testutil.ToFloat64(requestCounter.WithLabelValues(opCreateRun, outcomeStatus))

	_, err := NewClient(srv.URL).CreateRun(context.Background(), domain.Run{ID: "x"})

	var remoteErr *RemoteRequestError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	require.InDelta(t, before+1, testutil.ToFloat64(requestCounter.WithLabelValues(opCreateRun, outcomeStatus)), 0.0001)
}

func TestCreateRunHonoursContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, WithHTTPClient(srv.Client())).CreateRun(ctx, domain.Run{ID: "x"})
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
