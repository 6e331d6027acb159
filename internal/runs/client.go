// Package runs is the HTTP client for the remote runs collection.
package runs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"example.com/pacer/internal/domain"
)

const (
	opListRuns  = "list_runs"
	opCreateRun = "create_run"
)

// Option configures optional behaviour for the Client.
type Option func(*Client)

// WithHTTPClient overrides the transport used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client issues list and create calls against a configured base address.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for baseURL, e.g. "http://localhost:8000".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL reports the address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type listResponse struct {
	Runs []domain.Run `json:"runs"`
}

// ListRuns fetches the full collection. A response without a runs field yields an empty slice.
func (c *Client) ListRuns(ctx context.Context) ([]domain.Run, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/runs", nil)
	if err != nil {
		return nil, err
	}

	var payload listResponse
	if err := c.do(req, opListRuns, &payload); err != nil {
		return nil, err
	}
	if payload.Runs == nil {
		return []domain.Run{}, nil
	}
	return payload.Runs, nil
}

// CreateRun posts one run and returns the record the remote stored. Callers must
// not assume the result equals the submitted value.
func (c *Client) CreateRun(ctx context.Context, run domain.Run) (domain.Run, error) {
	body, err := json.Marshal(run)
	if err != nil {
		return domain.Run{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/runs", bytes.NewReader(body))
	if err != nil {
		return domain.Run{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var created domain.Run
	if err := c.do(req, opCreateRun, &created); err != nil {
		return domain.Run{}, err
	}
	return created, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordRequest(op, outcomeTransport)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		recordRequest(op, outcomeStatus)
		return &RemoteRequestError{Method: req.Method, Path: req.URL.Path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		recordRequest(op, outcomeDecode)
		return &DecodeError{Method: req.Method, Path: req.URL.Path, Err: err}
	}

	recordRequest(op, outcomeOK)
	return nil
}
