// Package client is a Go SDK for the foldserver HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

const Version = "0.1.0"

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to a foldserver.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// APIError is a non-2xx response. Code carries the server's error code,
// e.g. FOLD_002 while the folder is still building.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("foldcore: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotReady reports whether the server has not finished building its folder.
func (e *APIError) IsNotReady() bool {
	return e.Code == errors.ErrCodeFolderNotReady.String()
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.InvalidConfig("baseURL is required")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid baseURL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.InvalidConfig("baseURL scheme must be http or https").WithDetail(baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("foldcore-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fold folds a single sequence.
func (c *Client) Fold(ctx context.Context, req fold.FoldRequest) (*fold.FoldResponse, error) {
	if req.Sequence == "" {
		return nil, errors.InvalidParam("sequence is required")
	}
	var resp fold.FoldResponse
	if err := c.post(ctx, "/api/v1/fold", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FoldBatch folds a batch. Per-sequence failures come back inside Results.
func (c *Client) FoldBatch(ctx context.Context, seqs []string) (*fold.BatchFoldResponse, error) {
	if len(seqs) == 0 {
		return nil, errors.InvalidParam("at least one sequence is required")
	}
	var resp fold.BatchFoldResponse
	if err := c.post(ctx, "/api/v1/fold/batch", fold.BatchFoldRequest{Sequences: seqs}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Library describes the server's conformation library.
func (c *Client) Library(ctx context.Context) (*fold.LibraryInfo, error) {
	var info fold.LibraryInfo
	if err := c.get(ctx, "/api/v1/library", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Structure returns the contacts of structure id. A non-empty sequence also
// requests the lattice drawing.
func (c *Client) Structure(ctx context.Context, id int, sequence string) (*fold.StructureView, error) {
	path := "/api/v1/structures/" + strconv.Itoa(id)
	if sequence != "" {
		path += "?sequence=" + url.QueryEscape(sequence)
	}
	var view fold.StructureView
	if err := c.get(ctx, path, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Ready reports whether the server answers its readiness probe with 200.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/readyz", nil, nil, false)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		return false, nil
	}
	return false, err
}

// WaitReady polls Ready every interval until the server is ready or ctx ends.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ready, err := c.Ready(ctx)
		if ready {
			return nil
		}
		if err != nil {
			c.logger.Debugf("readiness probe failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result, true)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result, true)
}

// do performs an HTTP request, retrying network errors and 5xx responses
// when retry is set.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}, retry bool) error {
	fullURL := c.baseURL + path

	var bodyBytes []byte
	if body != nil {
		var err error
		if bodyBytes, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal request body")
		}
	}

	retryMax := c.retryMax
	if !retry {
		retryMax = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("Retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.New().String()
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)
		if err != nil {
			c.logger.Errorf("Request failed: %v", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, duration)

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
			var errResp fold.ErrorBody
			if len(respBody) > 0 && json.Unmarshal(respBody, &errResp) == nil && errResp.Code != "" {
				apiErr.Code = errResp.Code
				apiErr.Message = errResp.Message
			} else {
				apiErr.Message = string(respBody)
			}
			lastErr = apiErr
			if shouldRetry(apiErr) {
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal response")
			}
		}
		return nil
	}
	return lastErr
}

// shouldRetry retries server errors except FOLD_002, which only clears once
// the server finishes its build.
func shouldRetry(apiErr *APIError) bool {
	return apiErr.IsServerError() && !apiErr.IsNotReady()
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if backoff < 4 {
		return backoff
	}
	jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
	return backoff + jitter
}

//Personal.AI order the ending
