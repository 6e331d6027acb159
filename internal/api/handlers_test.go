package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"example.com/pacer/internal/domain"
	"example.com/pacer/internal/persistence/memory"
)

func newTestRouter(repo domain.RunRepository) http.Handler {
	r := chi.NewRouter()
	NewHandler(domain.NewService(repo), nil).RegisterRoutes(r)
	return r
}

func TestListRunsEmpty(t *testing.T) {
	router := newTestRouter(memory.NewRepository())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.TrimSpace(rr.Body.String()) != `{"runs":[]}` {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestCreateThenListNewestFirst(t *testing.T) {
	router := newTestRouter(memory.NewRepository())

	for _, id := range []string{"2024-01-01 • 5km • 25:00", "2024-02-01 • 10km • 50:00"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"id":"`+id+`"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
		}
		var created domain.Run
		if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if created.ID != id {
			t.Fatalf("expected id %q got %q", id, created.ID)
		}
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))

	var resp ListRunsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Runs) != 2 || resp.Runs[0].ID != "2024-02-01 • 10km • 50:00" {
		t.Fatalf("unexpected runs %+v", resp.Runs)
	}
}

func TestCreateRunValidation(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"id":`, http.StatusBadRequest, "invalid_request"},
		{"blank id", `{"id":"  "}`, http.StatusBadRequest, "validation_failed"},
		{"missing id", `{}`, http.StatusBadRequest, "validation_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(memory.NewRepository())
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(tc.body)))

			if rr.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rr.Code)
			}
			var payload map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if payload["type"] != tc.code {
				t.Fatalf("expected type %s got %s", tc.code, payload["type"])
			}
		})
	}
}

func TestCreateRunDuplicateConflicts(t *testing.T) {
	router := newTestRouter(memory.NewRepository())

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"id":"srv-123"}`)))
		if rr.Code != want {
			t.Fatalf("request %d: expected %d got %d", i, want, rr.Code)
		}
	}
}

func TestListRunsRepositoryFailure(t *testing.T) {
	router := newTestRouter(&failingRepo{err: errors.New("db down")})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(memory.NewRepository())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected /health response %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected /healthz response %d %s", rr.Code, rr.Body.String())
	}
}

type failingRepo struct {
	err error
}

func (f *failingRepo) List(ctx context.Context) ([]domain.StoredRun, error) {
	return nil, f.err
}

func (f *failingRepo) Create(ctx context.Context, run domain.StoredRun) error {
	return f.err
}
